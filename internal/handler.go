package relay

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nazarhussain/portfolio-courier/internal/logging"
	"github.com/nazarhussain/portfolio-courier/internal/mailcheck"
	"github.com/nazarhussain/portfolio-courier/internal/ratelimit"
)

// ContactRequest is a contact-form submission (JSON or form encoded).
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Website string `json:"website,omitempty"` // honeypot
}

type Handler struct {
	cfg     *Config
	limiter *ratelimit.Limiter
	checker *mailcheck.Checker
}

func NewHandler(cfg *Config, limiter *ratelimit.Limiter, checker *mailcheck.Checker) *Handler {
	return &Handler{cfg: cfg, limiter: limiter, checker: checker}
}

// Routes mounts the entire surface the front end consumes.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", handleHealth)
	r.Get("/v1/contact/quota", h.handleQuota)
	r.Post("/v1/contact", h.handleContact)
	r.Options("/v1/contact", h.handlePreflight)
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handlePreflight(w http.ResponseWriter, r *http.Request) {
	h.applyCORS(w, r)
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusNoContent)
}

// handleQuota is the read-only pre-flight check the form polls while the
// user types: how many attempts does this address have left. Never
// mutates quota beyond the limiter's lazy pruning.
func (h *Handler) handleQuota(w http.ResponseWriter, r *http.Request) {
	if !h.applyCORS(w, r) {
		writeJSONError(w, http.StatusForbidden, "Origin not allowed")
		return
	}

	addr := r.URL.Query().Get("email")
	if strings.TrimSpace(addr) == "" {
		writeJSONError(w, http.StatusBadRequest, "Email is required")
		return
	}
	if !mailcheck.IsValidFormat(addr) {
		writeJSONError(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	remaining, err := h.limiter.RemainingAttempts(r.Context(), addr)
	if err != nil {
		logging.FromContext(r.Context()).Error("quota check failed", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to check rate limit")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"email":       addr,
		"remaining":   remaining,
		"maxAttempts": ratelimit.MaxPerWindow,
		"canSend":     remaining > 0,
	})
}

// handleContact relays one submission: shape check, identity validation,
// admission check, configuration check, dual dispatch, then commit.
// Quota is consumed only for messages that actually reached the owner.
func (h *Handler) handleContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.FromContext(ctx)

	if !h.applyCORS(w, r) {
		writeJSONError(w, http.StatusForbidden, "Origin not allowed")
		return
	}

	req, ok := h.decodeContact(w, r)
	if !ok {
		return
	}

	// Honeypot: bots fill every field.
	if req.Website != "" {
		writeJSONError(w, http.StatusBadRequest, "Invalid submission")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Email == "" || req.Message == "" {
		writeJSONError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	if res := h.checker.Validate(ctx, req.Email); !res.Valid {
		writeJSONError(w, http.StatusBadRequest, res.Reason)
		return
	}

	remaining, err := h.limiter.RemainingAttempts(ctx, req.Email)
	if err != nil {
		log.Error("admission check failed", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to check rate limit")
		return
	}
	if remaining <= 0 {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":       "Too many requests. Please try again later.",
			"rateLimited": true,
			"remaining":   remaining,
		})
		return
	}

	if !h.cfg.MailConfigured() {
		log.Error("mail sending not configured, rejecting submission")
		writeJSONError(w, http.StatusInternalServerError, "Server configuration error")
		return
	}

	if err := sendEmailFunc(h.cfg.SMTP, ownerEmail(h.cfg, req)); err != nil {
		log.Error("owner notification failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Failed to send email",
			"details": err.Error(),
		})
		return
	}

	// The owner was notified: the submission counts from here on, even if
	// the courtesy confirmation below fails. Otherwise a client retry
	// would re-notify the owner without ever consuming quota.
	h.limiter.RecordSubmission(ctx, req.Email)

	if err := sendEmailFunc(h.cfg.SMTP, confirmationEmail(h.cfg, req)); err != nil {
		log.Warn("sender confirmation failed", "to", req.Email, "err", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Email sent successfully",
	})
}

// decodeContact parses the body respecting the content-type allow flags
// and the body size cap. Writes the error response itself on failure.
func (h *Handler) decodeContact(w http.ResponseWriter, r *http.Request) (ContactRequest, bool) {
	var req ContactRequest

	maxBytes := h.cfg.MaxBodyKB * 1024
	body, err := io.ReadAll(io.LimitReader(r.Body, int64(maxBytes)+1))
	r.Body.Close()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Failed to read request body")
		return req, false
	}
	if len(body) > maxBytes {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "Payload too large")
		return req, false
	}
	r.Body = io.NopCloser(strings.NewReader(string(body)))

	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "application/json") && h.cfg.AllowJSON:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid JSON body")
			return req, false
		}
	case h.cfg.AllowForm:
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid form body")
			return req, false
		}
		req.Name = r.Form.Get("name")
		req.Email = r.Form.Get("email")
		req.Message = r.Form.Get("message")
		req.Website = r.Form.Get("website")
	default:
		writeJSONError(w, http.StatusUnsupportedMediaType, "Unsupported content type")
		return req, false
	}
	return req, true
}

// applyCORS sets the allow-origin header for permitted origins and
// reports whether the request may proceed. Requests without an Origin
// header (curl, same-origin) always proceed.
func (h *Handler) applyCORS(w http.ResponseWriter, r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, ao := range h.cfg.AllowedOrigins {
		if ao == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			return true
		}
		if ao == origin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
