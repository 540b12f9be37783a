package transbank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/shestoi/webpay-bridge/platform/observability"
	"github.com/shestoi/webpay-bridge/services/transbank/internal/service"
)

// TransactionsPath путь REST API Webpay Plus v1.2 относительно базового URL
const TransactionsPath = "/rswebpaytransaction/api/webpay/v1.2/transactions"

// Credentials ключи коммерческого кода Transbank
type Credentials struct {
	APIKeyID     string
	APIKeySecret string
}

// Headers возвращает фиксированный набор заголовков для каждого вызова шлюза
func Headers(creds Credentials) http.Header {
	h := make(http.Header, 6)
	h.Set("Authorization", "Token")
	h.Set("Tbk-Api-Key-Id", creds.APIKeyID)
	h.Set("Tbk-Api-Key-Secret", creds.APIKeySecret)
	h.Set("Content-Type", "application/json")
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Referrer-Policy", "origin-when-cross-origin")
	return h
}

// RetryPolicy параметры повторов для идемпотентных запросов (только status)
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
}

// Client реализует service.GatewayClient поверх REST API Transbank
type Client struct {
	logger  *zap.Logger
	http    *http.Client
	baseURL string
	headers http.Header
	retry   RetryPolicy
}

// NewClient создаёт клиента шлюза.
// httpClient должен иметь таймаут; обычно это observability.NewHTTPClient(timeout).
func NewClient(logger *zap.Logger, httpClient *http.Client, baseURL string, creds Credentials, retry RetryPolicy) *Client {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &Client{
		logger:  logger,
		http:    httpClient,
		baseURL: baseURL + TransactionsPath,
		headers: Headers(creds),
		retry:   retry,
	}
}

// CreateTransaction POST /transactions. Никогда не повторяется.
func (c *Client) CreateTransaction(ctx context.Context, body map[string]any) (service.GatewayResponse, error) {
	return c.do(ctx, http.MethodPost, c.baseURL, body)
}

// CommitTransaction PUT /transactions/{token}
func (c *Client) CommitTransaction(ctx context.Context, token string) (service.GatewayResponse, error) {
	return c.do(ctx, http.MethodPut, c.tokenURL(token), nil)
}

// RefundTransaction POST /transactions/{token}/refunds
func (c *Client) RefundTransaction(ctx context.Context, token string, body map[string]any) (service.GatewayResponse, error) {
	return c.do(ctx, http.MethodPost, c.tokenURL(token)+"/refunds", body)
}

// TransactionStatus GET /transactions/{token}.
// Повторяется с экспоненциальной задержкой при ошибке транспорта или 5xx; 4xx возвращается сразу.
func (c *Client) TransactionStatus(ctx context.Context, token string) (service.GatewayResponse, error) {
	target := c.tokenURL(token)
	log := observability.L(ctx, c.logger)

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retry.InitialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.retry.MaxAttempts-1)), ctx)

	attempt := 0
	return backoff.RetryWithData(func() (service.GatewayResponse, error) {
		attempt++
		resp, err := c.do(ctx, http.MethodGet, target, nil)
		if err != nil {
			log.Warn("gateway status attempt failed", zap.Int("attempt", attempt), zap.Error(err))
			return resp, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			log.Warn("gateway status attempt returned server error",
				zap.Int("attempt", attempt),
				zap.Int("gateway_status", resp.StatusCode),
			)
			if attempt >= c.retry.MaxAttempts {
				return resp, nil
			}
			return resp, fmt.Errorf("gateway status %d", resp.StatusCode)
		}
		return resp, nil
	}, policy)
}

func (c *Client) tokenURL(token string) string {
	return c.baseURL + "/" + url.PathEscape(token)
}

// do выполняет один запрос. Ошибка только при сбое транспорта; тело ответа читается целиком.
func (c *Client) do(ctx context.Context, method, target string, body map[string]any) (service.GatewayResponse, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return service.GatewayResponse{}, fmt.Errorf("marshal gateway request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return service.GatewayResponse{}, fmt.Errorf("create gateway request: %w", err)
	}
	req.Header = c.headers.Clone()

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return service.GatewayResponse{}, fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return service.GatewayResponse{}, fmt.Errorf("read gateway response: %w", err)
	}

	observability.L(ctx, c.logger).Debug("gateway call",
		zap.String("method", method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	return service.GatewayResponse{StatusCode: resp.StatusCode, Body: data}, nil
}
