package transbankapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/shestoi/webpay-bridge/platform/observability"
)

const (
	createPath = "/api/v1/transbank/transaction/create"
	commitPath = "/api/v1/transbank/transaction/commit/"
)

// CreateRequest тело запроса на создание транзакции
type CreateRequest struct {
	BuyOrder  string `json:"buy_order"`
	SessionID string `json:"session_id"`
	Amount    int64  `json:"amount"`
	ReturnURL string `json:"return_url"`
}

// CreateResponse ответ шлюза: токен и URL платёжной формы
type CreateResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// CardDetail данные карты из ответа шлюза
type CardDetail struct {
	CardNumber string `json:"card_number"`
}

// CommitResponse результат подтверждения транзакции
type CommitResponse struct {
	VCI                string     `json:"vci"`
	Amount             int64      `json:"amount"`
	Status             string     `json:"status"`
	BuyOrder           string     `json:"buy_order"`
	SessionID          string     `json:"session_id"`
	CardDetail         CardDetail `json:"card_detail"`
	AccountingDate     string     `json:"accounting_date"`
	TransactionDate    string     `json:"transaction_date"`
	AuthorizationCode  string     `json:"authorization_code"`
	PaymentTypeCode    string     `json:"payment_type_code"`
	ResponseCode       int        `json:"response_code"`
	InstallmentsNumber int        `json:"installments_number"`
}

// Approved true, если шлюз авторизовал платёж
func (r CommitResponse) Approved() bool {
	return r.Status == "AUTHORIZED" && r.ResponseCode == 0
}

// APIError не-2xx ответ transbank-api
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("transbank-api returned %d: %s", e.StatusCode, e.Message)
}

// Client HTTP клиент transbank-api
type Client struct {
	logger  *zap.Logger
	http    *http.Client
	baseURL string
}

// NewClient создаёт клиента; httpClient обычно observability.NewHTTPClient(timeout)
func NewClient(logger *zap.Logger, httpClient *http.Client, baseURL string) *Client {
	return &Client{
		logger:  logger,
		http:    httpClient,
		baseURL: baseURL,
	}
}

// CreateTransaction вызывает POST /transaction/create
func (c *Client) CreateTransaction(ctx context.Context, req CreateRequest) (CreateResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return CreateResponse{}, fmt.Errorf("marshal create request: %w", err)
	}

	var out CreateResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+createPath, payload, &out); err != nil {
		return CreateResponse{}, err
	}
	if out.Token == "" || out.URL == "" {
		return CreateResponse{}, fmt.Errorf("create response without token or url")
	}
	return out, nil
}

// CommitTransaction вызывает PUT /transaction/commit/{token}
func (c *Client) CommitTransaction(ctx context.Context, token string) (CommitResponse, error) {
	var out CommitResponse
	if err := c.do(ctx, http.MethodPut, c.baseURL+commitPath+url.PathEscape(token), nil, &out); err != nil {
		return CommitResponse{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, target string, payload []byte, out any) error {
	log := observability.L(ctx, c.logger)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("transbank-api call failed", zap.String("method", method), zap.Error(err))
		return fmt.Errorf("call transbank-api: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read transbank-api response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("transbank-api returned error",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
		)
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode transbank-api response: %w", err)
	}
	return nil
}

// errorMessage достаёт {"message": ...}, иначе возвращает тело как есть
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return string(data)
}
