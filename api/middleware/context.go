package middleware

import "context"

type contextKey string

const ctxClientName contextKey = "client_name"

func ClientNameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxClientName).(string); ok {
		return v
	}
	return ""
}
