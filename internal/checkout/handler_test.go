package checkout

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Zeinot/hajar-php-store-sub000/internal/auth"
	"github.com/Zeinot/hajar-php-store-sub000/internal/cart"
	"github.com/Zeinot/hajar-php-store-sub000/internal/domain"
)

type handlerFixture struct {
	orders  *fakeOrders
	carts   *cart.Service
	handler *Handler
}

func newHandlerFixture() *handlerFixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orders := &fakeOrders{}
	processor := NewProcessor(orders, DefaultPricing(), nil, logger)
	processor.now = func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) }
	carts := cart.NewService(cart.NewMemoryStore(), testCatalog(), logger)
	return &handlerFixture{
		orders:  orders,
		carts:   carts,
		handler: NewHandler(processor, carts, logger),
	}
}

func (f *handlerFixture) addToCart(t *testing.T, productID int64, qty int) {
	t.Helper()
	if _, err := f.carts.ForSession("s1").Add(context.Background(), productID, qty, "", ""); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
}

func newCheckoutRequest(method, target string, form url.Values) *http.Request {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	ctx := cart.WithSessionID(req.Context(), "s1")
	ctx = auth.WithCustomerID(ctx, "cust-1")
	return req.WithContext(ctx)
}

func validForm() url.Values {
	d := validDetails()
	return url.Values{
		"first_name":  {d.FirstName},
		"last_name":   {d.LastName},
		"email":       {d.Email},
		"phone":       {d.Phone},
		"address":     {d.Address},
		"city":        {d.City},
		"postal_code": {d.PostalCode},
		"country":     {d.Country},
	}
}

func TestHandler_HandleForm(t *testing.T) {
	f := newHandlerFixture()
	f.addToCart(t, 1, 2)

	rec := httptest.NewRecorder()
	f.handler.HandleForm(rec, newCheckoutRequest(http.MethodGet, "/checkout", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Linen dress", "$80.00", "$12.99", "$5.60", "$98.59", `name="postal_code"`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected form to contain %q", want)
		}
	}
}

func TestHandler_HandleSubmit(t *testing.T) {
	t.Run("success renders confirmation", func(t *testing.T) {
		f := newHandlerFixture()
		f.addToCart(t, 1, 2)

		rec := httptest.NewRecorder()
		f.handler.HandleSubmit(rec, newCheckoutRequest(http.MethodPost, "/checkout", validForm()))

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "TRK-20240309-0B9F3C2E") {
			t.Errorf("expected tracking number in confirmation page")
		}
		if f.orders.placed == nil || f.orders.placed.CustomerID != "cust-1" {
			t.Errorf("expected order placed for cust-1, got %+v", f.orders.placed)
		}
	})

	t.Run("invalid fields re-render the form", func(t *testing.T) {
		f := newHandlerFixture()
		f.addToCart(t, 1, 1)

		form := validForm()
		form.Set("email", "nope")
		form.Del("city")

		rec := httptest.NewRecorder()
		f.handler.HandleSubmit(rec, newCheckoutRequest(http.MethodPost, "/checkout", form))

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status 422, got %d", rec.Code)
		}
		body := rec.Body.String()
		for _, want := range []string{"Email is not a valid address", "City is required", `value="Amina"`} {
			if !strings.Contains(body, want) {
				t.Errorf("expected form to contain %q", want)
			}
		}
		if f.orders.calls != 0 {
			t.Errorf("expected no order to be created, got %d calls", f.orders.calls)
		}
	})

	t.Run("empty cart", func(t *testing.T) {
		f := newHandlerFixture()

		rec := httptest.NewRecorder()
		f.handler.HandleSubmit(rec, newCheckoutRequest(http.MethodPost, "/checkout", validForm()))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Your cart is empty.") {
			t.Errorf("expected empty cart message")
		}
	})

	t.Run("stock conflict asks to reduce quantity", func(t *testing.T) {
		f := newHandlerFixture()
		f.addToCart(t, 2, 3)
		f.orders.err = &domain.StockConflictError{SKU: "SCARF-2", Requested: 3}

		rec := httptest.NewRecorder()
		f.handler.HandleSubmit(rec, newCheckoutRequest(http.MethodPost, "/checkout", validForm()))

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "SCARF-2") || !strings.Contains(body, "reduce the quantity") {
			t.Errorf("expected stock conflict message, got %s", body)
		}
		c, _ := f.carts.ForSession("s1").Cart(context.Background())
		if c.Count() != 3 {
			t.Errorf("expected cart to be kept, got %d units", c.Count())
		}
	})

	t.Run("unexpected failure", func(t *testing.T) {
		f := newHandlerFixture()
		f.addToCart(t, 1, 1)
		f.orders.err = context.DeadlineExceeded

		rec := httptest.NewRecorder()
		f.handler.HandleSubmit(rec, newCheckoutRequest(http.MethodPost, "/checkout", validForm()))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleQuote(t *testing.T) {
	f := newHandlerFixture()
	f.addToCart(t, 1, 2)

	rec := httptest.NewRecorder()
	f.handler.HandleQuote(rec, newCheckoutRequest(http.MethodPost, "/checkout/quote", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp map[string]decimal.Decimal
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp["total"].Equal(decimal.RequireFromString("98.59")) {
		t.Errorf("expected total 98.59, got %s", resp["total"])
	}
	if !resp["shipping_fee"].Equal(decimal.RequireFromString("12.99")) {
		t.Errorf("expected shipping fee 12.99, got %s", resp["shipping_fee"])
	}
}
