package checkout

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Zeinot/hajar-php-store-sub000/internal/auth"
	"github.com/Zeinot/hajar-php-store-sub000/internal/cart"
	"github.com/Zeinot/hajar-php-store-sub000/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
}).ParseFS(templateFS, "templates/*.html"))

type Handler struct {
	processor *Processor
	carts     *cart.Service
	logger    *slog.Logger
}

func NewHandler(processor *Processor, carts *cart.Service, logger *slog.Logger) *Handler {
	return &Handler{
		processor: processor,
		carts:     carts,
		logger:    logger,
	}
}

type formField struct {
	Name  string
	Label string
	Type  string
	Value string
	Error string
}

type formPage struct {
	Message string
	Cart    *domain.Cart
	Amounts Breakdown
	Fields  []formField
	Notes   string
}

func (h *Handler) session(r *http.Request) *cart.Session {
	return h.carts.ForSession(cart.SessionIDFrom(r.Context()))
}

func (h *Handler) HandleForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, domain.ShippingDetails{}, nil, "")
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderForm(w, r, http.StatusBadRequest, domain.ShippingDetails{}, nil, "The form could not be read. Please try again.")
		return
	}

	details := domain.ShippingDetails{
		FirstName:  r.PostForm.Get("first_name"),
		LastName:   r.PostForm.Get("last_name"),
		Email:      r.PostForm.Get("email"),
		Phone:      r.PostForm.Get("phone"),
		Address:    r.PostForm.Get("address"),
		City:       r.PostForm.Get("city"),
		State:      r.PostForm.Get("state"),
		PostalCode: r.PostForm.Get("postal_code"),
		Country:    r.PostForm.Get("country"),
		Notes:      r.PostForm.Get("notes"),
	}

	order, err := h.processor.Checkout(r.Context(), h.session(r), auth.CustomerID(r.Context()), details)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			h.renderForm(w, r, http.StatusUnprocessableEntity, details, verr, "Please correct the highlighted fields.")
		case errors.Is(err, domain.ErrEmptyCart):
			h.renderForm(w, r, http.StatusBadRequest, details, nil, "Your cart is empty.")
		case errors.Is(err, domain.ErrStockConflict):
			var conflict *domain.StockConflictError
			msg := "Some items are no longer available in the requested quantity. Please reduce the quantity and try again."
			if errors.As(err, &conflict) {
				msg = "Not enough stock left for " + conflict.SKU + ". Please reduce the quantity and try again."
			}
			h.renderForm(w, r, http.StatusConflict, details, nil, msg)
		default:
			h.logger.Error("checkout failed", "error", err)
			h.renderForm(w, r, http.StatusInternalServerError, details, nil, "We could not place your order. Please try again later.")
		}
		return
	}

	h.render(w, http.StatusCreated, "success.html", order)
}

// HandleQuote returns the pricing of the current cart as JSON.
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	_, amounts, err := h.processor.Quote(r.Context(), h.session(r))
	if err != nil {
		h.logger.Error("failed to quote cart", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.writeJSON(w, http.StatusOK, amounts)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, details domain.ShippingDetails, verr *domain.ValidationError, message string) {
	page := formPage{Message: message, Notes: details.Notes}

	c, amounts, err := h.processor.Quote(r.Context(), h.session(r))
	if err != nil {
		h.logger.Error("failed to load cart for checkout", "error", err)
		status = http.StatusInternalServerError
		page.Message = "We could not load your cart. Please try again later."
	} else if !c.IsEmpty() {
		page.Cart = c
		page.Amounts = amounts
	}

	if verr == nil {
		verr = &domain.ValidationError{}
	}
	page.Fields = []formField{
		{Name: "first_name", Label: "First name", Type: "text", Value: details.FirstName},
		{Name: "last_name", Label: "Last name", Type: "text", Value: details.LastName},
		{Name: "email", Label: "Email", Type: "email", Value: details.Email},
		{Name: "phone", Label: "Phone", Type: "tel", Value: details.Phone},
		{Name: "address", Label: "Address", Type: "text", Value: details.Address},
		{Name: "city", Label: "City", Type: "text", Value: details.City},
		{Name: "state", Label: "State", Type: "text", Value: details.State},
		{Name: "postal_code", Label: "Postal code", Type: "text", Value: details.PostalCode},
		{Name: "country", Label: "Country", Type: "text", Value: details.Country},
	}
	for i := range page.Fields {
		page.Fields[i].Error = verr.For(page.Fields[i].Name)
	}

	h.render(w, status, "checkout.html", page)
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("failed to render template", "error", err, "template", name)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
