package middleware

import (
	"log"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// RecoveryMiddleware provides panic recovery with detailed logging
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()

				log.Printf("PANIC RECOVERED: %v\nRequest: %s %s\nStack trace:\n%s",
					r, c.Request.Method, c.Request.URL.Path, stack)

				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()

		c.Next()
	}
}

// SafeGoRoutine runs a function in a goroutine with panic recovery
func SafeGoRoutine(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				buf := make([]byte, 1024*64)
				buf = buf[:runtime.Stack(buf, false)]

				log.Printf("PANIC in goroutine '%s': %v\nStack trace:\n%s", name, r, buf)
			}
		}()

		fn()
	}()
}
