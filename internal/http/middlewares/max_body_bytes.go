package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps request body reads; an oversized body surfaces from the
// binder as a read error rather than an unbounded allocation.
func MaxBodyBytes(max int64) gin.HandlerFunc {
	if max <= 0 {
		max = 1 << 20
	}

	return func(ctx *gin.Context) {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, max)

		ctx.Next()
	}
}
