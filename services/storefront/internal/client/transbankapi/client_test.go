package transbankapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(zap.NewNop(), &http.Client{Timeout: 5 * time.Second}, srv.URL)
}

func TestCreateTransaction(t *testing.T) {
	var got CreateRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, createPath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"token":"T1","url":"https://webpay3gint.transbank.cl/webpayserver/initTransaction"}`)
	})

	resp, err := client.CreateTransaction(context.Background(), CreateRequest{
		BuyOrder:  "O1",
		SessionID: "S1",
		Amount:    1000,
		ReturnURL: "http://shop/commit-pay",
	})
	require.NoError(t, err)
	require.Equal(t, "T1", resp.Token)
	require.Equal(t, "https://webpay3gint.transbank.cl/webpayserver/initTransaction", resp.URL)
	require.Equal(t, int64(1000), got.Amount)
	require.Equal(t, "http://shop/commit-pay", got.ReturnURL)
}

func TestCreateTransaction_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"incomplete transaction data: amount is required"}`)
	})

	_, err := client.CreateTransaction(context.Background(), CreateRequest{BuyOrder: "O1"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "incomplete transaction data: amount is required", apiErr.Message)
}

func TestCreateTransaction_MissingToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	_, err := client.CreateTransaction(context.Background(), CreateRequest{BuyOrder: "O1"})
	require.Error(t, err)
}

func TestCommitTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, commitPath+"T 1", r.URL.Path)
		_, _ = io.WriteString(w, `{"buy_order":"O1","amount":1000,"status":"AUTHORIZED","response_code":0,"authorization_code":"1213","card_detail":{"card_number":"6623"}}`)
	})

	resp, err := client.CommitTransaction(context.Background(), "T 1")
	require.NoError(t, err)
	require.True(t, resp.Approved())
	require.Equal(t, "6623", resp.CardDetail.CardNumber)
	require.Equal(t, "1213", resp.AuthorizationCode)
}

func TestCommitTransaction_RelayedError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `plain failure`)
	})

	_, err := client.CommitTransaction(context.Background(), "T1")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	require.Equal(t, "plain failure", apiErr.Message)
}
