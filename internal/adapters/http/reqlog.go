package http

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/cragtopo/internal/core/domain"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	loggerKey
	langKey
)

// RequestIDLogMiddleware puts the request ID and a logger carrying it into the
// user context, so services log with the same request_id as the access log.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid, _ := c.Locals("requestid").(string)
		if rid == "" {
			return c.Next()
		}
		ctx := context.WithValue(c.UserContext(), requestIDKey, rid)
		c.SetUserContext(withLogger(ctx, slog.Default().With("request_id", rid)))
		return c.Next()
	}
}

// RequestIDFromCtx returns the request ID, or "" outside a request.
func RequestIDFromCtx(ctx context.Context) string {
	rid, _ := ctx.Value(requestIDKey).(string)
	return rid
}

// LoggerFromCtx returns the request logger, or the default logger.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// withUser tags the request logger with the authenticated editor.
func withUser(ctx context.Context, user *domain.User) context.Context {
	return withLogger(ctx, LoggerFromCtx(ctx).With("user_id", user.ID, "role", string(user.Role)))
}

func withLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}
