package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/services"
	"spendwise/internal/storage"
)

func quietLogger() *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Output = &bytes.Buffer{}
	return applog.New(cfg)
}

func newSQLiteServer(t *testing.T) *Server {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "api.db") + "?_pragma=busy_timeout(5000)"
	repo, err := storage.Connect(context.Background(), storage.Options{Driver: storage.DriverSQLite, DSN: dsn})
	require.NoError(t, err)

	svc := services.NewExpenseService(repo, nil)
	t.Cleanup(func() { svc.Close() })

	return NewServer(Options{Logger: quietLogger()}, svc)
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, r)
	return rec
}

type listBody struct {
	Expenses []struct {
		ID        int64  `json:"id"`
		ItemName  string `json:"item_name"`
		Amount    string `json:"amount"`
		CreatedAt string `json:"created_at"`
	} `json:"expenses"`
}

func listExpenses(t *testing.T, srv *Server) listBody {
	t.Helper()
	rec := do(t, srv, http.MethodGet, "/api/expenses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out listBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func total(t *testing.T, srv *Server) string {
	t.Helper()
	rec := do(t, srv, http.MethodGet, "/api/expenses/total", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]json.Number
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out["total"].String()
}

func createdID(t *testing.T, rec *httptest.ResponseRecorder) int64 {
	t.Helper()
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Message string `json:"message"`
		Expense struct {
			ID int64 `json:"id"`
		} `json:"expense"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Expense added successfully", out.Message)
	return out.Expense.ID
}

func TestHealth(t *testing.T) {
	srv := newSQLiteServer(t)
	rec := do(t, srv, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","message":"SpendWise API is running"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestEndToEnd_CreateTrimsAndCounts(t *testing.T) {
	srv := newSQLiteServer(t)

	rec := do(t, srv, http.MethodPost, "/api/expenses", `{"itemName":"  Coffee  ","amount":8.75}`)
	id := createdID(t, rec)
	assert.Contains(t, rec.Body.String(), `"item_name":"Coffee"`)
	assert.Contains(t, rec.Body.String(), `"amount":"8.75"`)

	list := listExpenses(t, srv)
	require.Len(t, list.Expenses, 1)
	assert.Equal(t, id, list.Expenses[0].ID)
	assert.Equal(t, "Coffee", list.Expenses[0].ItemName)
	assert.Equal(t, "8.75", total(t, srv))
}

func TestEndToEnd_NegativeAmountRejected(t *testing.T) {
	srv := newSQLiteServer(t)

	rec := do(t, srv, http.MethodPost, "/api/expenses", `{"itemName":"Bus fare","amount":-5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Amount must be a positive number"}`, rec.Body.String())

	assert.Empty(t, listExpenses(t, srv).Expenses)
	assert.Equal(t, "0.00", total(t, srv))
}

func TestEndToEnd_DeleteFirstOfTwo(t *testing.T) {
	srv := newSQLiteServer(t)

	first := createdID(t, do(t, srv, http.MethodPost, "/api/expenses", `{"itemName":"Lunch","amount":"12.30"}`))
	second := createdID(t, do(t, srv, http.MethodPost, "/api/expenses", `{"itemName":"Taxi","amount":5.1}`))

	rec := do(t, srv, http.MethodDelete, "/api/expenses/"+strconv.FormatInt(first, 10), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Expense deleted successfully","id":`+strconv.FormatInt(first, 10)+`}`, rec.Body.String())

	list := listExpenses(t, srv)
	require.Len(t, list.Expenses, 1)
	assert.Equal(t, second, list.Expenses[0].ID)
	assert.Equal(t, "5.10", total(t, srv))

	rec = do(t, srv, http.MethodDelete, "/api/expenses/"+strconv.FormatInt(first, 10), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Expense not found"}`, rec.Body.String())
}

func TestListNewestFirst(t *testing.T) {
	srv := newSQLiteServer(t)
	a := createdID(t, do(t, srv, http.MethodPost, "/api/expenses", `{"itemName":"A","amount":1}`))
	b := createdID(t, do(t, srv, http.MethodPost, "/api/expenses", `{"itemName":"B","amount":2}`))

	list := listExpenses(t, srv)
	require.Len(t, list.Expenses, 2)
	assert.Equal(t, []int64{b, a}, []int64{list.Expenses[0].ID, list.Expenses[1].ID})
	assert.Equal(t, "3.00", total(t, srv))
}

func TestEmptyStore(t *testing.T) {
	srv := newSQLiteServer(t)
	rec := do(t, srv, http.MethodGet, "/api/expenses", "")
	assert.JSONEq(t, `{"expenses":[]}`, rec.Body.String())
	assert.Equal(t, "0.00", total(t, srv))
}

// fakeStore records calls and can be told to fail.
type fakeStore struct {
	calls int
	err   error
	get   error
}

func (f *fakeStore) Create(ctx context.Context, d core.Draft) (core.Expense, error) {
	f.calls++
	return core.Expense{ID: 1, ItemName: d.ItemName, Amount: d.Amount}, f.err
}
func (f *fakeStore) List(ctx context.Context) ([]core.Expense, error) {
	f.calls++
	return nil, f.err
}
func (f *fakeStore) Total(ctx context.Context) (core.Amount, error) {
	f.calls++
	return core.Amount{}, f.err
}
func (f *fakeStore) Get(ctx context.Context, id int64) (core.Expense, error) {
	f.calls++
	return core.Expense{ID: id}, f.get
}
func (f *fakeStore) Delete(ctx context.Context, id int64) (bool, error) {
	f.calls++
	return true, f.err
}
func (f *fakeStore) Ping(ctx context.Context) error { return f.err }
func (f *fakeStore) Close() error                   { return nil }

func newFakeServer(store *fakeStore) *Server {
	return NewServer(Options{Logger: quietLogger()}, services.NewExpenseService(store, nil))
}

func TestCreateValidation_NoStoreAccess(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing name", `{"amount":5}`, "Item name is required and cannot be empty"},
		{"blank name", `{"itemName":"   ","amount":5}`, "Item name is required and cannot be empty"},
		{"non string name", `{"itemName":7,"amount":5}`, "Item name is required and cannot be empty"},
		{"name checked first", `{"amount":-1}`, "Item name is required and cannot be empty"},
		{"missing amount", `{"itemName":"Tea"}`, "Amount is required"},
		{"null amount", `{"itemName":"Tea","amount":null}`, "Amount is required"},
		{"text amount", `{"itemName":"Tea","amount":"abc"}`, "Amount must be a positive number"},
		{"trailing garbage", `{"itemName":"Tea","amount":"12abc"}`, "Amount must be a positive number"},
		{"negative", `{"itemName":"Tea","amount":-0.5}`, "Amount must be a positive number"},
		{"bool amount", `{"itemName":"Tea","amount":true}`, "Amount must be a positive number"},
		{"overflowing number", `{"itemName":"Tea","amount":1e400}`, "Amount must be a positive number"},
		{"huge exponent", `{"itemName":"Tea","amount":"1e2000000000"}`, "Amount must be a positive number"},
		{"above column limit", `{"itemName":"Tea","amount":10000000000}`, "Amount must be a positive number"},
		{"empty body", ``, "Item name is required and cannot be empty"},
		{"malformed", `{"itemName":`, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			rec := do(t, newFakeServer(store), http.MethodPost, "/api/expenses", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"`+tt.want+`"}`, rec.Body.String())
			assert.Zero(t, store.calls)
		})
	}
}

func TestCreate_ZeroAmountAccepted(t *testing.T) {
	store := &fakeStore{}
	rec := do(t, newFakeServer(store), http.MethodPost, "/api/expenses", `{"itemName":"Free sample","amount":0}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"amount":"0.00"`)
}

func TestDelete_InvalidIDs(t *testing.T) {
	for _, id := range []string{"abc", "0", "-3", "1.5", "12abc"} {
		t.Run(id, func(t *testing.T) {
			store := &fakeStore{}
			rec := do(t, newFakeServer(store), http.MethodDelete, "/api/expenses/"+id, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"Invalid expense ID"}`, rec.Body.String())
			assert.Zero(t, store.calls)
		})
	}
}

func TestStoreFailures_GenericMessages(t *testing.T) {
	boom := errors.New("connection refused: secret-host:5432")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		store  *fakeStore
		want   string
	}{
		{"create", http.MethodPost, "/api/expenses", `{"itemName":"Tea","amount":1}`, &fakeStore{err: boom}, "Failed to add expense to database"},
		{"list", http.MethodGet, "/api/expenses", "", &fakeStore{err: boom}, "Failed to fetch expenses from database"},
		{"total", http.MethodGet, "/api/expenses/total", "", &fakeStore{err: boom}, "Failed to calculate total spending"},
		{"delete lookup", http.MethodDelete, "/api/expenses/4", "", &fakeStore{get: boom}, "Failed to delete expense from database"},
		{"delete", http.MethodDelete, "/api/expenses/4", "", &fakeStore{err: boom}, "Failed to delete expense from database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newFakeServer(tt.store), tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"error":"`+tt.want+`"}`, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "secret-host")
		})
	}
}

func TestReady_DatabaseDown(t *testing.T) {
	rec := do(t, newFakeServer(&fakeStore{err: errors.New("down")}), http.MethodGet, "/api/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not_ready","error":"database unavailable"}`, rec.Body.String())
}

func TestIndexAndHeaders(t *testing.T) {
	srv := newFakeServer(&fakeStore{})

	rec := do(t, srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SpendWise")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, srv, http.MethodGet, "/app.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodOptions, "/api/expenses", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())
}

func TestRateLimitOnPost(t *testing.T) {
	var buf bytes.Buffer
	cfg := applog.DefaultConfig()
	cfg.Output = &buf
	store := &fakeStore{}
	srv := NewServer(Options{Logger: applog.New(cfg), RateLimitPerMin: 1}, services.NewExpenseService(store, nil))

	assert.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/expenses", `{"itemName":"a","amount":1}`).Code)
	rec := do(t, srv, http.MethodPost, "/api/expenses", `{"itemName":"a","amount":1}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/expenses", "").Code)
	assert.Contains(t, buf.String(), "component=rate_limit")

	do(t, srv, http.MethodGet, "/.env", "")
	require.NoError(t, srv.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "rate_limited=1")
	assert.Contains(t, buf.String(), "suspicious_requests=1")
}

func TestRejectedRequestsLogErrorType(t *testing.T) {
	var buf bytes.Buffer
	cfg := applog.DefaultConfig()
	cfg.Format = "json"
	cfg.Level = slog.LevelDebug
	cfg.Output = &buf
	store := &fakeStore{}
	srv := NewServer(Options{Logger: applog.New(cfg)}, services.NewExpenseService(store, nil))

	rec := do(t, srv, http.MethodPost, "/api/expenses", `{"itemName":"Tea"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, buf.String(), `"error_type":"validation_error"`)
	assert.Contains(t, buf.String(), `"request_id":"`+rec.Header().Get("X-Request-ID")+`"`)

	buf.Reset()
	store.get = storage.ErrNotFound
	rec = do(t, srv, http.MethodDelete, "/api/expenses/42", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, buf.String(), `"error_type":"not_found_error"`)
}

func TestConsoleScript_DeleteSendsBeforeRefetch(t *testing.T) {
	rec := do(t, newFakeServer(&fakeStore{}), http.MethodGet, "/app.js", "")
	require.Equal(t, http.StatusOK, rec.Code)

	js := rec.Body.String()
	start := strings.Index(js, "async function onDelete")
	require.NotEqual(t, -1, start)
	body := js[start:]
	if end := strings.Index(body[1:], "\n  }\n"); end > 0 {
		body = body[:end+1]
	}

	del := strings.Index(body, `request("DELETE"`)
	require.NotEqual(t, -1, del)
	assert.NotContains(t, body[:del], "refresh()", "no fetch before the delete request")
	assert.Contains(t, body[:del], "paintDeleteButtons()")
}
