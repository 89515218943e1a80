package httpx

import "context"

type ctxKey string

const CtxKeyBearerToken ctxKey = "bearer_token"

// BearerTokenFromContext returns the raw token stored by RequireBearer.
func BearerTokenFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeyBearerToken).(string)
	return v
}
