// Package auth reads the caller identity established by the upstream
// authentication layer. It does not authenticate anyone itself.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

const (
	CustomerHeader = "X-Customer-ID"
	// RoleHeader carries the role granted by the upstream layer.
	RoleHeader = "X-Customer-Role"
	RoleAdmin  = "admin"
)

type customerKey struct{}

func WithCustomerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, customerKey{}, id)
}

func CustomerID(ctx context.Context) string {
	id, _ := ctx.Value(customerKey{}).(string)
	return id
}

// RequireCustomer rejects requests that carry no customer identity.
func RequireCustomer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(CustomerHeader))
		if id == "" {
			deny(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r.WithContext(WithCustomerID(r.Context(), id)))
	}
}

// RequireAdmin additionally rejects callers the upstream layer did not mark
// with the admin role.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return RequireCustomer(func(w http.ResponseWriter, r *http.Request) {
		if !strings.EqualFold(strings.TrimSpace(r.Header.Get(RoleHeader)), RoleAdmin) {
			deny(w, http.StatusForbidden, "admin role required")
			return
		}
		next(w, r)
	})
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
