package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/shestoi/webpay-bridge/platform/observability"
	"github.com/shestoi/webpay-bridge/services/transbank/internal/service"
)

// maxBodyBytes ограничение размера тела запроса
const maxBodyBytes = 1 << 20

// Handler содержит HTTP-обработчики Transaction Forwarder
type Handler struct {
	logger  *zap.Logger
	service *service.TransactionService
}

// NewHandler создаёт новый HTTP handler
func NewHandler(logger *zap.Logger, svc *service.TransactionService) *Handler {
	return &Handler{
		logger:  logger,
		service: svc,
	}
}

// messageResponse тело ответа с ошибкой
type messageResponse struct {
	Message string `json:"message"`
}

// PostCreate обрабатывает POST /api/v1/transbank/transaction/create
func (h *Handler) PostCreate(w http.ResponseWriter, r *http.Request) {
	body, err := readObject(r)
	if err != nil {
		h.writeError(w, r, &service.ValidationError{Message: "incomplete transaction data"})
		return
	}

	res, err := h.service.Create(r.Context(), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, res.Body)
	h.service.Dispatch(r.Context(), res)
}

// PutCommit обрабатывает PUT /api/v1/transbank/transaction/commit/{token}
func (h *Handler) PutCommit(w http.ResponseWriter, r *http.Request, token string) {
	res, err := h.service.Commit(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, res.Body)
	h.service.Dispatch(r.Context(), res)
}

// PostReverseOrCancel обрабатывает POST /api/v1/transbank/transaction/reverse-or-cancel/{token}
func (h *Handler) PostReverseOrCancel(w http.ResponseWriter, r *http.Request, token string) {
	body, err := readObject(r)
	if err != nil {
		h.writeError(w, r, &service.ValidationError{Message: "refund amount is required"})
		return
	}

	res, err := h.service.Refund(r.Context(), token, body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, res.Body)
	h.service.Dispatch(r.Context(), res)
}

// GetStatus обрабатывает GET /api/v1/transbank/transaction/status/{token}
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request, token string) {
	res, err := h.service.Status(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, res.Body)
}

// readObject читает тело запроса как JSON-объект; пустое тело тоже ошибка
func readObject(r *http.Request) (map[string]any, error) {
	data, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return service.DecodeObject(data)
}

// writeError переводит ошибку service слоя в HTTP статус
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := observability.L(r.Context(), h.logger)

	var (
		vErr  *service.ValidationError
		upErr *service.UpstreamError
	)
	switch {
	case errors.As(err, &vErr):
		log.Info("request rejected", zap.String("reason", vErr.Message))
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: vErr.Message})
	case errors.As(err, &upErr):
		writeJSON(w, upErr.HTTPStatus(), messageResponse{Message: "error communicating with Transbank: " + upErr.Detail()})
	default:
		log.Error("internal error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw отдаёт тело шлюза без перекодирования
func writeRaw(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
