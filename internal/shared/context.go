package shared

import (
	"context"
	"net/http"
	"strconv"
)

// Identity carries the authenticated tenant/branch/user scope for a request.
// It is supplied by the platform's auth gateway through trusted headers; this
// service never authenticates callers itself.
type Identity struct {
	TenantID int64
	BranchID int64
	UserID   int64
}

type identityContextKey struct{}

// ContextWithIdentity stores the request identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the request identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

// IdentityMiddleware resolves tenant scope from gateway headers and rejects
// requests without a tenant.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := strconv.ParseInt(r.Header.Get("X-Tenant-ID"), 10, 64)
		if err != nil || tenantID <= 0 {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		branchID, _ := strconv.ParseInt(r.Header.Get("X-Branch-ID"), 10, 64)
		userID, _ := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
		ctx := ContextWithIdentity(r.Context(), Identity{TenantID: tenantID, BranchID: branchID, UserID: userID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
