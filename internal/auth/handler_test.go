package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesdesk/salesdesk/internal/platform/httpx"
)

func newTestRouter(t *testing.T) (http.Handler, *fakeRepo) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	repo := newFakeRepo()
	tokens := NewTokenManager("test-secret", time.Hour)
	mw := Middleware{Tokens: tokens, Logger: logger}
	handler := NewHandler(logger, NewService(repo), tokens, mw)

	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	return r, repo
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

func TestRegisterHandler(t *testing.T) {
	router, _ := newTestRouter(t)

	res := doRequest(router, http.MethodPost, "/auth/register", "",
		`{"name":"Jamie","email":"jamie@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, res.Code)

	var user User
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &user))
	assert.Equal(t, "jamie@example.com", user.Email)
	assert.NotContains(t, res.Body.String(), "secret123")
}

func TestRegisterHandlerValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	for name, body := range map[string]string{
		"bad email":      `{"name":"Jamie","email":"not-an-email","password":"secret123"}`,
		"short password": `{"name":"Jamie","email":"jamie@example.com","password":"abc"}`,
		"unknown role":   `{"name":"Jamie","email":"jamie@example.com","password":"secret123","role":"root"}`,
	} {
		res := doRequest(router, http.MethodPost, "/auth/register", "", body)
		assert.Equal(t, http.StatusUnprocessableEntity, res.Code, name)
	}
}

func TestRegisterHandlerDuplicateEmail(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"name":"Jamie","email":"jamie@example.com","password":"secret123"}`
	res := doRequest(router, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusCreated, res.Code)

	res = doRequest(router, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusConflict, res.Code)

	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &problem))
	assert.Equal(t, "Duplicate", problem.Title)
}

func TestLoginHandler(t *testing.T) {
	router, _ := newTestRouter(t)

	res := doRequest(router, http.MethodPost, "/auth/register", "",
		`{"name":"Jamie","email":"jamie@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, res.Code)

	res = doRequest(router, http.MethodPost, "/auth/login", "",
		`{"email":"jamie@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		Token string `json:"token"`
		User  *User  `json:"user"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.NotEmpty(t, payload.Token)
	require.NotNil(t, payload.User)
	assert.NotNil(t, payload.User.LastLogin)
}

func TestLoginHandlerWrongPassword(t *testing.T) {
	router, _ := newTestRouter(t)

	res := doRequest(router, http.MethodPost, "/auth/register", "",
		`{"name":"Jamie","email":"jamie@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, res.Code)

	res = doRequest(router, http.MethodPost, "/auth/login", "",
		`{"email":"jamie@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.NotContains(t, res.Body.String(), "hash")
}

func TestProfileHandlerRequiresToken(t *testing.T) {
	router, _ := newTestRouter(t)

	res := doRequest(router, http.MethodPut, "/auth/profile", "", `{"name":"New Name"}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = doRequest(router, http.MethodPut, "/auth/profile", "Bearer not-a-token", `{"name":"New Name"}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestProfileHandlerUpdatesName(t *testing.T) {
	router, _ := newTestRouter(t)

	res := doRequest(router, http.MethodPost, "/auth/register", "",
		`{"name":"Jamie","email":"jamie@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, res.Code)

	res = doRequest(router, http.MethodPost, "/auth/login", "",
		`{"email":"jamie@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, res.Code)
	var payload struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))

	res = doRequest(router, http.MethodPut, "/auth/profile", "Bearer "+payload.Token, `{"name":"Jamie Lee"}`)
	require.Equal(t, http.StatusOK, res.Code)

	var user User
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &user))
	assert.Equal(t, "Jamie Lee", user.Name)
}
