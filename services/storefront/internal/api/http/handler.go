package httpapi

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shestoi/webpay-bridge/platform/observability"
	"github.com/shestoi/webpay-bridge/services/storefront/internal/client/transbankapi"
)

// Webpay ограничивает buy_order 26 символами
const maxBuyOrderLen = 26

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=TransbankAPI --dir=. --output=./mocks --outpkg=mocks

// TransbankAPI вызовы transbank-api, нужные витрине
type TransbankAPI interface {
	CreateTransaction(ctx context.Context, req transbankapi.CreateRequest) (transbankapi.CreateResponse, error)
	CommitTransaction(ctx context.Context, token string) (transbankapi.CommitResponse, error)
}

// Handler HTTP обработчики витрины
type Handler struct {
	logger *zap.Logger
	api    TransbankAPI
}

// NewHandler создаёт обработчики витрины
func NewHandler(logger *zap.Logger, api TransbankAPI) *Handler {
	return &Handler{
		logger: logger,
		api:    api,
	}
}

type formView struct {
	BuyOrder string
	Amount   string
	Error    string
}

type redirectView struct {
	BuyOrder string
	Amount   int64
	URL      string
	Token    string
}

type resultView struct {
	Approved          bool
	Status            string
	BuyOrder          string
	Amount            int64
	AuthorizationCode string
	CardLast4         string
}

type abortedView struct {
	BuyOrder string
}

type errorView struct {
	Message string
}

// GetForm GET / и GET /transbank-pay: пустая форма
func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "form", formView{})
}

// PostPay POST /transbank-pay: создание транзакции и переход на платёжную форму шлюза
func (h *Handler) PostPay(w http.ResponseWriter, r *http.Request) {
	log := observability.L(r.Context(), h.logger)

	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "form", formView{Error: "invalid form"})
		return
	}

	view := formView{
		BuyOrder: strings.TrimSpace(r.PostFormValue("buy-order")),
		Amount:   strings.TrimSpace(r.PostFormValue("amount")),
	}
	if view.BuyOrder == "" || len(view.BuyOrder) > maxBuyOrderLen {
		view.Error = "buy order must be 1 to 26 characters"
		h.render(w, r, http.StatusBadRequest, "form", view)
		return
	}
	amount, err := strconv.ParseInt(view.Amount, 10, 64)
	if err != nil || amount <= 0 {
		view.Error = "amount must be a positive integer"
		h.render(w, r, http.StatusBadRequest, "form", view)
		return
	}

	req := transbankapi.CreateRequest{
		BuyOrder:  view.BuyOrder,
		SessionID: uuid.NewString(),
		Amount:    amount,
		ReturnURL: returnURL(r),
	}

	resp, err := h.api.CreateTransaction(r.Context(), req)
	if err != nil {
		log.Error("create transaction failed", zap.String("buy_order", req.BuyOrder), zap.Error(err))
		h.renderAPIError(w, r, "create transaction", err)
		return
	}

	log.Info("transaction created, redirecting to gateway",
		zap.String("buy_order", req.BuyOrder),
		zap.String("session_id", req.SessionID),
	)
	h.render(w, r, http.StatusOK, "redirect", redirectView{
		BuyOrder: req.BuyOrder,
		Amount:   amount,
		URL:      resp.URL,
		Token:    resp.Token,
	})
}

// CommitPay GET|POST /commit-pay: возврат браузера со шлюза
func (h *Handler) CommitPay(w http.ResponseWriter, r *http.Request) {
	log := observability.L(r.Context(), h.logger)

	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "error", errorView{Message: "invalid return parameters"})
		return
	}

	token := r.Form.Get("token_ws")
	tbkToken := r.Form.Get("TBK_TOKEN")
	tbkOrder := r.Form.Get("TBK_ORDEN_COMPRA")

	switch {
	case token != "":
		resp, err := h.api.CommitTransaction(r.Context(), token)
		if err != nil {
			log.Error("commit transaction failed", zap.Error(err))
			h.renderAPIError(w, r, "commit transaction", err)
			return
		}
		log.Info("transaction committed",
			zap.String("buy_order", resp.BuyOrder),
			zap.String("status", resp.Status),
		)
		h.render(w, r, http.StatusOK, "result", resultView{
			Approved:          resp.Approved(),
			Status:            resp.Status,
			BuyOrder:          resp.BuyOrder,
			Amount:            resp.Amount,
			AuthorizationCode: resp.AuthorizationCode,
			CardLast4:         last4(resp.CardDetail.CardNumber),
		})

	case tbkToken != "" || tbkOrder != "":
		// без TBK_TOKEN - истёк таймаут платёжной формы
		log.Info("payment aborted", zap.String("buy_order", tbkOrder), zap.Bool("timeout", tbkToken == ""))
		h.render(w, r, http.StatusOK, "aborted", abortedView{BuyOrder: tbkOrder})

	default:
		h.render(w, r, http.StatusBadRequest, "error", errorView{Message: "missing payment token"})
	}
}

func (h *Handler) renderAPIError(w http.ResponseWriter, r *http.Request, action string, err error) {
	var apiErr *transbankapi.APIError
	if errors.As(err, &apiErr) {
		h.render(w, r, http.StatusBadGateway, "error", errorView{Message: action + ": " + apiErr.Message})
		return
	}
	h.render(w, r, http.StatusBadGateway, "error", errorView{Message: action + ": transbank-api unavailable"})
}

// render рендерит в буфер, чтобы при ошибке шаблона не отдать половину страницы
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, page, data); err != nil {
		observability.L(r.Context(), h.logger).Error("render template failed", zap.String("page", page), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// returnURL строит http(s)://<host>/commit-pay из входящего запроса
func returnURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/commit-pay"
}

func last4(card string) string {
	if card == "" {
		return "N/A"
	}
	if len(card) <= 4 {
		return card
	}
	return card[len(card)-4:]
}
