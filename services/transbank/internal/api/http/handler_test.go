package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/webpay-bridge/services/transbank/internal/client/transbank"
	"github.com/shestoi/webpay-bridge/services/transbank/internal/repository"
	"github.com/shestoi/webpay-bridge/services/transbank/internal/repository/memory"
	"github.com/shestoi/webpay-bridge/services/transbank/internal/service"
)

const stubCommitBody = `{"buy_order":"O1","status":"AUTHORIZED","response_code":0,"card_detail":{"card_number":"6623"}}`

// stubGateway имитирует REST API Transbank и считает вызовы
type stubGateway struct {
	calls        int32
	commitStatus int
}

func (g *stubGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&g.calls, 1)
	w.Header().Set("Content-Type", "application/json")

	path := strings.TrimPrefix(r.URL.Path, transbank.TransactionsPath)
	switch {
	case r.Method == http.MethodPost && path == "":
		_, _ = io.WriteString(w, `{"token":"T1"}`)
	case r.Method == http.MethodPut && path == "/T1":
		if g.commitStatus != 0 {
			w.WriteHeader(g.commitStatus)
			_, _ = io.WriteString(w, `{"error_message":"Invalid status 6 for transaction while authorizing"}`)
			return
		}
		_, _ = io.WriteString(w, stubCommitBody)
	case r.Method == http.MethodPost && path == "/T1/refunds":
		_, _ = io.WriteString(w, `{"type":"REVERSED"}`)
	case r.Method == http.MethodGet && path == "/T1":
		_, _ = io.WriteString(w, `{"status":"AUTHORIZED","buy_order":"O1"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type testEnv struct {
	server  *httptest.Server
	gateway *stubGateway
	repo    *memory.MemoryRepository
	svc     *service.TransactionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithRepo(t, memory.NewMemoryRepository(), time.Second)
}

func newTestEnvWithRepo(t *testing.T, store repository.BookkeepingRepository, writeTimeout time.Duration) *testEnv {
	t.Helper()

	gw := &stubGateway{}
	gwSrv := httptest.NewServer(gw)
	t.Cleanup(gwSrv.Close)

	logger := zap.NewNop()
	repo, _ := store.(*memory.MemoryRepository)
	client := transbank.NewClient(logger, &http.Client{Timeout: 5 * time.Second}, gwSrv.URL,
		transbank.Credentials{APIKeyID: "597055555532", APIKeySecret: "test-secret"},
		transbank.RetryPolicy{MaxAttempts: 1},
	)
	books := service.NewBookkeeper(logger, store, writeTimeout, nil)
	svc := service.NewTransactionService(logger, client, books, nil)

	router := NewRouter(NewHandler(logger, svc), store.Ping, logger, []string{"*"})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	t.Cleanup(func() { _ = svc.Drain(context.Background()) })

	return &testEnv{server: srv, gateway: gw, repo: repo, svc: svc}
}

// settle дожидается фоновой бухгалтерии после ответа
func (e *testEnv) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.svc.Drain(ctx))
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestForwarder_CreateThenCommit(t *testing.T) {
	env := newTestEnv(t)

	// create
	status, body := env.do(t, http.MethodPost, "/api/v1/transbank/transaction/create",
		`{"buy_order":"O1","session_id":"S1","amount":1000,"return_url":"http://x/commit"}`)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"token":"T1"}`, body)
	env.settle(t)

	rec, ok := env.repo.Initiation("O1")
	require.True(t, ok)
	require.Equal(t, repository.StatusPendingInitiation, rec.Status)
	require.Equal(t, "T1", rec.GatewayToken)
	require.Equal(t, int64(1000), rec.Amount)
	require.Equal(t, 1, env.repo.Counts()[repository.CollectionInitiations])

	// commit
	status, body = env.do(t, http.MethodPut, "/api/v1/transbank/transaction/commit/T1", "")
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, stubCommitBody, body)
	env.settle(t)

	tx, ok := env.repo.ConfirmedTransaction("O1")
	require.True(t, ok)
	require.Equal(t, "6623", tx.CardLast4)
	require.Equal(t, 1, env.repo.Counts()[repository.CollectionTransactions])

	rec, ok = env.repo.Initiation("O1")
	require.True(t, ok)
	require.Equal(t, "CONFIRMED_AUTHORIZED", rec.Status)
}

func TestForwarder_CreateMissingFields(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{
		`{"session_id":"S1","amount":1000,"return_url":"http://x/commit"}`,
		`{"buy_order":"O1","amount":1000,"return_url":"http://x/commit"}`,
		`{"buy_order":"O1","session_id":"S1","return_url":"http://x/commit"}`,
		`{"buy_order":"O1","session_id":"S1","amount":1000}`,
		`[]`,
		`not json`,
		``,
	} {
		status, resp := env.do(t, http.MethodPost, "/api/v1/transbank/transaction/create", body)
		require.Equal(t, http.StatusBadRequest, status, body)

		var msg map[string]string
		require.NoError(t, json.Unmarshal([]byte(resp), &msg))
		require.NotEmpty(t, msg["message"])
	}

	require.Zero(t, atomic.LoadInt32(&env.gateway.calls))
}

func TestForwarder_RefundWithoutAmount(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{`{}`, `{"monto":10}`, ``} {
		status, _ := env.do(t, http.MethodPost, "/api/v1/transbank/transaction/reverse-or-cancel/T1", body)
		require.Equal(t, http.StatusBadRequest, status)
	}
	require.Zero(t, atomic.LoadInt32(&env.gateway.calls))
}

func TestForwarder_Refund(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/v1/transbank/transaction/reverse-or-cancel/T1", `{"amount":1000}`)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"type":"REVERSED"}`, body)
	env.settle(t)
	require.Len(t, env.repo.Refunds(), 1)
}

func TestForwarder_CommitRelaysGatewayError(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.commitStatus = http.StatusUnprocessableEntity

	status, body := env.do(t, http.MethodPut, "/api/v1/transbank/transaction/commit/T1", "")
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Contains(t, body, "Invalid status 6")
	env.settle(t)
	require.Zero(t, env.repo.Counts()[repository.CollectionTransactions])
}

func TestForwarder_StoreOutageDoesNotChangeResponses(t *testing.T) {
	type call struct {
		method, path, body string
	}
	calls := []call{
		{http.MethodPost, "/api/v1/transbank/transaction/create", `{"buy_order":"O1","session_id":"S1","amount":1000,"return_url":"http://x/commit"}`},
		{http.MethodPut, "/api/v1/transbank/transaction/commit/T1", ""},
		{http.MethodPost, "/api/v1/transbank/transaction/reverse-or-cancel/T1", `{"amount":1000}`},
	}

	env := newTestEnv(t)

	type result struct {
		status int
		body   string
	}
	before := make([]result, 0, len(calls))
	for _, c := range calls {
		status, body := env.do(t, c.method, c.path, c.body)
		before = append(before, result{status, body})
	}
	env.settle(t)

	env.repo.SetUnavailable(true)
	for i, c := range calls {
		status, body := env.do(t, c.method, c.path, c.body)
		require.Equal(t, before[i].status, status, c.path)
		require.Equal(t, before[i].body, body, c.path)
	}
}

func TestForwarder_Status(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/api/v1/transbank/transaction/status/T1", "")
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"status":"AUTHORIZED","buy_order":"O1"}`, body)

	status, _ = env.do(t, http.MethodGet, "/api/v1/transbank/transaction/status/unknown", "")
	require.Equal(t, http.StatusNotFound, status)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, status)

	env.repo.SetUnavailable(true)
	status, _ = env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, status)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodOptions, env.server.URL+"/api/v1/transbank/transaction/create", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://storefront.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Zero(t, atomic.LoadInt32(&env.gateway.calls))
}

// stalledStore зависает на записи инициации до истечения ctx записи
type stalledStore struct {
	*memory.MemoryRepository
}

func (s stalledStore) SaveInitiation(ctx context.Context, rec repository.InitiationRecord) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestForwarder_StalledStoreDoesNotDelayResponse(t *testing.T) {
	const writeTimeout = time.Second
	env := newTestEnvWithRepo(t, stalledStore{memory.NewMemoryRepository()}, writeTimeout)

	start := time.Now()
	status, body := env.do(t, http.MethodPost, "/api/v1/transbank/transaction/create",
		`{"buy_order":"O1","session_id":"S1","amount":1000,"return_url":"http://x/commit"}`)
	elapsed := time.Since(start)

	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"token":"T1"}`, body)
	require.Less(t, elapsed, writeTimeout/2)

	env.settle(t)
}
