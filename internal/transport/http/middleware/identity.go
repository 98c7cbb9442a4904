package httpmw

import (
	"context"
	"net/http"
	"strings"
)

// HeaderUser carries the caller's display name. It is trusted as is.
const HeaderUser = "User"

type ctxKey string

const ctxKeyUser ctxKey = "user"

// Identity copies the user header into the request context. It never rejects
// a request; handlers decide whether an identity is required.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := strings.TrimSpace(r.Header.Get(HeaderUser))
		ctx := context.WithValue(r.Context(), ctxKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUser).(string); ok {
		return v
	}
	return ""
}
