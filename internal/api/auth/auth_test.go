package auth

import (
	"crash_backend/internal/repository/memory_repo"
	authServ "crash_backend/internal/service/auth"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jwtConfig struct{}

func (jwtConfig) AccessTokenSecretKey() []byte        { return []byte("secret") }
func (jwtConfig) AccessTokenDuration() time.Duration  { return time.Minute }
func (jwtConfig) RefreshTokenDuration() time.Duration { return time.Hour }

func newTestHandler() *Handler {
	users := memory_repo.NewUserRepository()
	serv := authServ.NewService(memory_repo.TxManager{}, users, memory_repo.NewAuthRepository(users), jwtConfig{})
	return NewHandler(HandlerDeps{Serv: serv, RefreshTTL: time.Hour})
}

func post(h http.HandlerFunc, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func cookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestHandler_RegisterLoginRefreshLogout(t *testing.T) {
	h := newTestHandler()

	rec := post(h.Register, `{"name":"Ann","login":"ann","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tok))
	assert.NotEmpty(t, tok.AccessToken)

	rec = post(h.Register, `{"name":"Ann","login":"ann","password":"pw"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = post(h.Login, `{"login":"ann","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(h.Login, `{"login":"ann","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	sid := cookie(t, rec, sessionCookie)
	rt := cookie(t, rec, refreshCookie)

	rec = post(h.Refresh, "", sid, rt)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = post(h.Refresh, "", sid, &http.Cookie{Name: refreshCookie, Value: "forged"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(h.Logout, "", sid)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = post(h.Refresh, "", sid, rt)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_BadRequest(t *testing.T) {
	h := newTestHandler()
	assert.Equal(t, http.StatusBadRequest, post(h.Register, `{"login":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(h.Login, `not json`).Code)
	assert.Equal(t, http.StatusUnauthorized, post(h.Logout, "").Code)
}
