package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"payment-instructions/internal/domain"
	"payment-instructions/internal/events"
	"payment-instructions/internal/store"
)

type InstructionProcessor interface {
	Process(ctx context.Context, req domain.PaymentInstructionRequest) (domain.Outcome, error)
}

// ReplayStore caches response bodies per Idempotency-Key.
type ReplayStore interface {
	Lookup(ctx context.Context, key, requestHash string) ([]byte, bool, error)
	Save(ctx context.Context, key, requestHash string, body []byte) error
}

type Handlers struct {
	proc    InstructionProcessor
	replay  ReplayStore
	pub     events.Publisher
	log     *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewHandlers(proc InstructionProcessor, replay ReplayStore, pub events.Publisher, log *zap.Logger, timeout time.Duration) *Handlers {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Handlers{proc: proc, replay: replay, pub: pub, log: log, timeout: timeout, now: time.Now}
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func httpStatusForErr(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	// Request / store semantic errors
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrIdempotencyConflict):
		return http.StatusConflict

	// Context / timeouts
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout

	default:
		return http.StatusInternalServerError
	}
}

func publicErrMessage(code int, err error) string {
	// Don’t leak internals on 5xx.
	if code >= 500 {
		return "internal error"
	}
	return err.Error()
}

func correlationID(r *http.Request) string {
	if c := strings.TrimSpace(r.Header.Get("X-Correlation-Id")); c != "" {
		return c
	}
	return uuid.New().String()
}

// POST /v1/payment-instructions
//
// Instruction failures are business outcomes and answer 200; only malformed
// requests, idempotency conflicts and internal faults use error statuses.
func (h *Handlers) PostPaymentInstruction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	corr := correlationID(r)
	w.Header().Set("X-Correlation-Id", corr)
	log := h.log.With(zap.String("correlation_id", corr))

	var body paymentInstructionBody
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	req, err := body.toRequest()
	if err != nil {
		code := httpStatusForErr(err)
		writeErr(w, code, publicErrMessage(code, err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	var requestHash string
	if idemKey != "" {
		requestHash, err = store.CanonicalHash(req)
		if err != nil {
			log.Error("hash request", zap.Error(err))
			writeErr(w, http.StatusInternalServerError, "internal error")
			return
		}
		stored, found, err := h.replay.Lookup(ctx, idemKey, requestHash)
		if err != nil {
			code := httpStatusForErr(err)
			if code >= 500 {
				log.Error("replay lookup", zap.Error(err))
			}
			writeErr(w, code, publicErrMessage(code, err))
			return
		}
		if found {
			log.Debug("replaying stored response", zap.String("idempotency_key", idemKey))
			w.Header().Set("Idempotent-Replayed", "true")
			writeRawJSON(w, http.StatusOK, stored)
			return
		}
	}

	out, err := h.proc.Process(ctx, req)
	if err != nil {
		// Already logged at the processor boundary.
		code := httpStatusForErr(err)
		writeErr(w, code, publicErrMessage(code, err))
		return
	}

	resp := domain.PaymentInstructionResponse{
		Status:  out.Status,
		Message: out.StatusReason,
		Data:    out,
	}
	respBody, err := store.Canonical(resp)
	if err != nil {
		log.Error("encode response", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	if idemKey != "" {
		if err := h.replay.Save(ctx, idemKey, requestHash, respBody); err != nil {
			code := httpStatusForErr(err)
			if code == http.StatusConflict {
				writeErr(w, code, publicErrMessage(code, err))
				return
			}
			log.Warn("replay save failed", zap.Error(err), zap.String("idempotency_key", idemKey))
		}
	}

	if err := h.pub.Publish(ctx, events.NewInstructionProcessed(corr, out, h.now())); err != nil {
		log.Warn("publish outcome failed", zap.Error(err))
	}

	log.Info("payment instruction processed",
		zap.String("status", out.Status.String()),
		zap.String("status_code", out.StatusCode.String()),
	)
	writeRawJSON(w, http.StatusOK, respBody)
}
