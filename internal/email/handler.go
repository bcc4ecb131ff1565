package email

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter     = otel.Meter("storefront/email")
	sentCount metric.Int64Counter
)

func init() {
	var err error
	sentCount, err = meter.Int64Counter("storefront.email.sent",
		metric.WithDescription("Emails accepted for delivery"),
	)
	if err != nil {
		otel.Handle(err)
	}
}

// Handler accepts send requests. Delivery itself is outside this service; an
// accepted message is logged.
type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
	}
}

type sendResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if problem := msg.Validate(); problem != "" {
		h.writeError(w, http.StatusBadRequest, problem)
		return
	}

	sentCount.Add(r.Context(), 1)
	h.logger.Info("email sent", "to", msg.To, "subject", msg.Subject)

	h.writeJSON(w, http.StatusOK, sendResponse{Status: "sent"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
