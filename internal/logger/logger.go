package logger

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It is a no-op until Initialize is called.
var Log = zap.NewNop()

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// Initialize builds the logger for the given environment.
func Initialize(env string) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	l, err := cfg.Build()
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	Log = l
}

// Sync flushes buffered entries.
func Sync() {
	_ = Log.Sync()
}

// RequestLogger assigns a request id and logs one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := redactQuery(c.Request.URL.RawQuery)

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if uid, ok := c.Get("user_id"); ok {
			fields = append(fields, zap.Any("user_id", uid))
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			Log.Error("request completed", fields...)
		case status >= 400:
			Log.Warn("request completed", fields...)
		default:
			Log.Info("request completed", fields...)
		}
	}
}

// sensitiveParams carry bearer tokens or OAuth credentials.
var sensitiveParams = []string{"token", "code", "state"}

func redactQuery(raw string) string {
	if raw == "" {
		return ""
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return "[unparseable]"
	}
	for _, k := range sensitiveParams {
		if _, ok := q[k]; ok {
			q.Set(k, "REDACTED")
		}
	}
	return q.Encode()
}

func Error(ctx context.Context, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("request_id", getRequestID(ctx)))
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	Log.Error(msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...zap.Field) {
	fields = append(fields, zap.String("request_id", getRequestID(ctx)))
	Log.Info(msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	fields = append(fields, zap.String("request_id", getRequestID(ctx)))
	Log.Warn(msg, fields...)
}

type ctxKey struct{}

// WithRequestID stores a request id on a plain context so service code logs it too.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

func getRequestID(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if gc, ok := ctx.(*gin.Context); ok {
		if v, exists := gc.Get(RequestIDKey); exists {
			if s, ok := v.(string); ok {
				return s
			}
		}
		ctx = gc.Request.Context()
	}
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return "unknown"
}
