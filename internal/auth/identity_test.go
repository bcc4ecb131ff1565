package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireCustomer(t *testing.T) {
	var seen string
	h := RequireCustomer(func(w http.ResponseWriter, r *http.Request) {
		seen = CustomerID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("rejects anonymous requests", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("passes the customer id on", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set(CustomerHeader, " cust-42 ")
		rec := httptest.NewRecorder()
		h(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected status 204, got %d", rec.Code)
		}
		if seen != "cust-42" {
			t.Errorf("expected cust-42, got %q", seen)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	var seen string
	h := RequireAdmin(func(w http.ResponseWriter, r *http.Request) {
		seen = CustomerID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		customer string
		role     string
		want     int
	}{
		{name: "anonymous", want: http.StatusUnauthorized},
		{name: "customer without role", customer: "cust-1", want: http.StatusForbidden},
		{name: "customer with other role", customer: "cust-1", role: "support", want: http.StatusForbidden},
		{name: "admin", customer: "staff-1", role: "Admin", want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodPatch, "/admin/orders/1/status", nil)
			if tt.customer != "" {
				req.Header.Set(CustomerHeader, tt.customer)
			}
			if tt.role != "" {
				req.Header.Set(RoleHeader, tt.role)
			}
			rec := httptest.NewRecorder()
			h(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
			if tt.want == http.StatusNoContent && seen != tt.customer {
				t.Errorf("expected %q, got %q", tt.customer, seen)
			}
		})
	}
}
