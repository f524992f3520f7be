package invoices

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesdesk/salesdesk/internal/auth"
	"github.com/salesdesk/salesdesk/internal/platform/httpx"
	"github.com/salesdesk/salesdesk/internal/shared"
)

func newTestRouter(t *testing.T, repo *fakeRepo) (http.Handler, *auth.TokenManager) {
	t.Helper()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	mw := auth.Middleware{Tokens: tokens, Logger: testLogger()}
	handler := NewHandler(testLogger(), NewService(testLogger(), repo, &fakeCache{}), mw)

	r := chi.NewRouter()
	r.Route("/invoices", handler.MountRoutes)
	return r, tokens
}

func bearerFor(t *testing.T, tokens *auth.TokenManager, userID string, role shared.Role) string {
	t.Helper()
	token, err := tokens.Issue(&auth.User{ID: userID, Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestCreateInvoiceHandler(t *testing.T) {
	router, tokens := newTestRouter(t, seedRepo())
	token := bearerFor(t, tokens, "user-1", shared.RoleSupervisor)

	res := doRequest(router, http.MethodPost, "/invoices", token,
		`{"customer":"cust-1","items":[{"product":"prod-1","quantity":3}]}`)
	require.Equal(t, http.StatusCreated, res.Code)

	var inv Invoice
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &inv))
	assert.Equal(t, 300.0, inv.Total)
	assert.NotEmpty(t, inv.InvoiceID)
	assert.Equal(t, "Acme Traders", inv.Customer.Name)
	assert.Equal(t, "01711000001", inv.Customer.Phone)
	assert.Equal(t, "jamie@example.com", inv.CreatedBy.Email)
}

func TestCreateInvoiceHandlerRequiresToken(t *testing.T) {
	router, _ := newTestRouter(t, seedRepo())

	res := doRequest(router, http.MethodPost, "/invoices", "",
		`{"customer":"cust-1","items":[{"product":"prod-1","quantity":1}]}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestCreateInvoiceHandlerValidation(t *testing.T) {
	router, tokens := newTestRouter(t, seedRepo())
	token := bearerFor(t, tokens, "user-1", shared.RoleSupervisor)

	for name, body := range map[string]string{
		"missing items": `{"customer":"cust-1","items":[]}`,
		"zero quantity": `{"customer":"cust-1","items":[{"product":"prod-1","quantity":0}]}`,
		"no customer":   `{"items":[{"product":"prod-1","quantity":1}]}`,
	} {
		res := doRequest(router, http.MethodPost, "/invoices", token, body)
		assert.Equal(t, http.StatusUnprocessableEntity, res.Code, name)
	}
}

func TestCreateInvoiceHandlerMalformedBody(t *testing.T) {
	router, tokens := newTestRouter(t, seedRepo())
	token := bearerFor(t, tokens, "user-1", shared.RoleSupervisor)

	res := doRequest(router, http.MethodPost, "/invoices", token, `{"customer":`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestCreateInvoiceHandlerInvalidReference(t *testing.T) {
	router, tokens := newTestRouter(t, seedRepo())
	token := bearerFor(t, tokens, "user-1", shared.RoleSupervisor)

	res := doRequest(router, http.MethodPost, "/invoices", token,
		`{"customer":"missing","items":[{"product":"prod-1","quantity":1}]}`)
	require.Equal(t, http.StatusBadRequest, res.Code)

	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &problem))
	assert.Equal(t, "Invalid Reference", problem.Title)
	assert.Contains(t, problem.Detail, "missing")
}

func TestCreateInvoiceHandlerInsufficientStock(t *testing.T) {
	router, tokens := newTestRouter(t, seedRepo())
	token := bearerFor(t, tokens, "user-1", shared.RoleSupervisor)

	res := doRequest(router, http.MethodPost, "/invoices", token,
		`{"customer":"cust-1","items":[{"product":"prod-1","quantity":11}]}`)
	require.Equal(t, http.StatusBadRequest, res.Code)

	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &problem))
	assert.Equal(t, "Insufficient Stock", problem.Title)
	assert.Contains(t, problem.Detail, "Steel Rod")
}

func TestCreateInvoiceHandlerOpaqueInternalError(t *testing.T) {
	repo := seedRepo()
	repo.failTxErr = errors.New("connection reset by peer")
	repo.failTimes = 1
	router, tokens := newTestRouter(t, repo)
	token := bearerFor(t, tokens, "user-1", shared.RoleSupervisor)

	res := doRequest(router, http.MethodPost, "/invoices", token,
		`{"customer":"cust-1","items":[{"product":"prod-1","quantity":1}]}`)
	require.Equal(t, http.StatusInternalServerError, res.Code)

	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &problem))
	assert.Empty(t, problem.Detail)
	assert.NotContains(t, res.Body.String(), "connection reset")
}

func TestGetInvoiceHandlerForbidden(t *testing.T) {
	repo := seedRepo()
	repo.invoices = []Invoice{{ID: "inv-2", CreatedBy: InvoiceCreator{ID: "user-2"}}}
	router, tokens := newTestRouter(t, repo)
	token := bearerFor(t, tokens, "user-1", shared.RoleSupervisor)

	res := doRequest(router, http.MethodGet, "/invoices/inv-2", token, "")
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestListInvoicesHandlerScopesByRole(t *testing.T) {
	repo := seedRepo()
	repo.invoices = []Invoice{
		{ID: "inv-1", CreatedBy: InvoiceCreator{ID: "user-1"}},
		{ID: "inv-2", CreatedBy: InvoiceCreator{ID: "user-2"}},
	}
	router, tokens := newTestRouter(t, repo)

	res := doRequest(router, http.MethodGet, "/invoices", bearerFor(t, tokens, "user-1", shared.RoleSupervisor), "")
	require.Equal(t, http.StatusOK, res.Code)
	var own []Invoice
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &own))
	assert.Len(t, own, 1)

	res = doRequest(router, http.MethodGet, "/invoices", bearerFor(t, tokens, "admin-1", shared.RoleAdmin), "")
	require.Equal(t, http.StatusOK, res.Code)
	var all []Invoice
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &all))
	assert.Len(t, all, 2)
}
