package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fulldump/box"

	"github.com/fulldump/tickdb/logger"
)

// RecoverFromPanic turns a panic inside a handler into a 500 response.
func RecoverFromPanic(next box.H) box.H {
	return func(ctx context.Context) {
		defer func() {
			if err := recover(); err != nil {
				debug.PrintStack()
				w := box.GetResponse(ctx)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				PrettyError{
					Message:     fmt.Sprintf("panic: %v", err),
					Description: "Unexpected error",
				}.MarshalTo(w)
			}
		}()
		next(ctx)
	}
}

// AccessLog writes one entry per request tagged with a fresh request id, also
// returned to the client in the X-Request-Id header.
func AccessLog(l *logger.Logger) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			ctx = logger.WithRequestID(ctx)
			r := box.GetRequest(ctx)
			box.GetResponse(ctx).Header().Set("X-Request-Id", logger.GetRequestID(ctx))

			now := time.Now()
			defer func() {
				fields := []logger.Field{
					logger.NewField("remote_addr", formatRemoteAddr(r)),
					logger.NewField("method", r.Method),
					logger.NewField("url", r.URL.String()),
					logger.NewField("elapsed", time.Since(now).String()),
				}
				if err := box.GetError(ctx); err != nil {
					l.ErrorContext(ctx, err, fields...)
					return
				}
				l.InfoContext(ctx, "access", fields...)
			}()

			next(ctx)
		}
	}
}

func formatRemoteAddr(r *http.Request) string {
	xorigin := strings.TrimSpace(strings.Split(
		r.Header.Get("X-Forwarded-For"), ",")[0])
	if xorigin != "" {
		return xorigin
	}

	i := strings.LastIndex(r.RemoteAddr, ":")
	if i < 0 {
		return r.RemoteAddr
	}
	return r.RemoteAddr[0:i]
}
