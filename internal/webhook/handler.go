// Package webhook accepts signed deploy-trigger requests, typically
// from a CI pipeline, and hands them to the deployment engine.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
)

// ExecuteFunc is invoked when a valid trigger is accepted. environment
// is "production" or "staging".
type ExecuteFunc func(environment string) error

// Handler processes incoming deploy-trigger webhooks.
type Handler struct {
	secret    string
	onExecute ExecuteFunc
	inFlight  atomic.Bool
}

// NewHandler creates a new webhook Handler.
func NewHandler(secret string, onExecute ExecuteFunc) *Handler {
	return &Handler{
		secret:    secret,
		onExecute: onExecute,
	}
}

// triggerEvent is the accepted payload shape.
type triggerEvent struct {
	Environment string `json:"environment"`
	Ref         string `json:"ref,omitempty"`
}

// HandleTrigger is the HTTP handler for POST /webhook.
func (h *Handler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Themepilot-Signature")
	if !h.verifySignature(body, signature) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var event triggerEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("[webhook] failed to parse trigger: %v", err)
		http.Error(w, "failed to parse trigger", http.StatusBadRequest)
		return
	}

	if event.Environment != "production" && event.Environment != "staging" {
		http.Error(w, fmt.Sprintf("unknown environment %q", event.Environment), http.StatusBadRequest)
		return
	}

	// One deployment at a time per process; the store has no locking of
	// its own and two interleaved deployments can corrupt retention
	// counting.
	if !h.inFlight.CompareAndSwap(false, true) {
		log.Printf("[webhook] deployment already in flight, rejecting %s trigger", event.Environment)
		http.Error(w, "deployment already in flight", http.StatusConflict)
		return
	}

	go func() {
		defer h.inFlight.Store(false)
		if err := h.onExecute(event.Environment); err != nil {
			log.Printf("[webhook] triggered %s deployment failed: %v", event.Environment, err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintf(w, "accepted %s deployment", event.Environment)
}

// verifySignature checks the HMAC-SHA256 signature, sent as
// "sha256=<hex>". Requests are rejected when no secret is configured.
func (h *Handler) verifySignature(body []byte, signature string) bool {
	if h.secret == "" {
		log.Println("[webhook] WARNING: no webhook secret configured, rejecting request")
		return false
	}

	if signature == "" {
		return false
	}

	prefix := "sha256="
	if !strings.HasPrefix(signature, prefix) {
		return false
	}
	sigHex := signature[len(prefix):]

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(sigHex), []byte(expected))
}
