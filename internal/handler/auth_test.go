package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hirehub/job-board/internal/user"
)

func TestRegisterHandler(t *testing.T) {
	svr := newTestServer(t)
	userRepo := newFakeUserRepo()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"username":"jane","email":"jane@example.com","password":"s3cret","role":"job_seeker"}`))
	RegisterHandler(svr, userRepo)(w, r)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, true, body["success"])
	created := body["user"].(map[string]interface{})
	require.Equal(t, "jane@example.com", created["email"])
	require.NotContains(t, created, "passwordHash")

	stored, err := userRepo.UserByEmail("jane@example.com")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret")))
}

func TestRegisterHandlerDuplicateEmail(t *testing.T) {
	svr := newTestServer(t)
	userRepo := newFakeUserRepo()
	_, err := userRepo.CreateUser("jane", "jane@example.com", "x", user.RoleJobSeeker)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"username":"jane","email":"JANE@example.com","password":"s3cret","role":"job_seeker"}`))
	RegisterHandler(svr, userRepo)(w, r)
	require.Equal(t, http.StatusConflict, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, false, body["success"])
}

func TestRegisterHandlerValidation(t *testing.T) {
	svr := newTestServer(t)
	userRepo := newFakeUserRepo()

	for name, payload := range map[string]string{
		"missing fields": `{"username":"","email":"","password":""}`,
		"bad email":      `{"username":"jane","email":"not-an-email","password":"x","role":"job_seeker"}`,
		"bad role":       `{"username":"jane","email":"jane@example.com","password":"x","role":"admin"}`,
		"broken body":    `{`,
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(payload))
			RegisterHandler(svr, userRepo)(w, r)
			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func registerSeeker(t *testing.T, userRepo *fakeUserRepo, emailAddr, password string) user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u, err := userRepo.CreateUser("jane", emailAddr, string(hash), user.RoleJobSeeker)
	require.NoError(t, err)

	return u
}

func TestLoginHandler(t *testing.T) {
	svr := newTestServer(t)
	userRepo := newFakeUserRepo()
	registerSeeker(t, userRepo, "jane@example.com", "s3cret")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"Jane@Example.com","password":"s3cret"}`))
	LoginHandler(svr, userRepo)(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, true, body["success"])
	require.NotEmpty(t, w.Result().Cookies(), "login should set a session cookie")
}

func TestLoginHandlerRejectsBadCredentials(t *testing.T) {
	svr := newTestServer(t)
	userRepo := newFakeUserRepo()
	registerSeeker(t, userRepo, "jane@example.com", "s3cret")

	for name, payload := range map[string]string{
		"wrong password": `{"email":"jane@example.com","password":"nope"}`,
		"unknown email":  `{"email":"john@example.com","password":"s3cret"}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(payload))
			LoginHandler(svr, userRepo)(w, r)
			require.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestMeHandler(t *testing.T) {
	svr := newTestServer(t)
	userRepo := newFakeUserRepo()
	u := registerSeeker(t, userRepo, "jane@example.com", "s3cret")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.AddCookie(signOnCookie(t, svr, u))
	MeHandler(svr, userRepo)(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	me := body["user"].(map[string]interface{})
	require.Equal(t, u.ID, me["id"])
}

func TestMeHandlerNotSignedOn(t *testing.T) {
	svr := newTestServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	MeHandler(svr, newFakeUserRepo())(w, r)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutHandler(t *testing.T) {
	svr := newTestServer(t)
	userRepo := newFakeUserRepo()
	u := registerSeeker(t, userRepo, "jane@example.com", "s3cret")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	r.AddCookie(signOnCookie(t, svr, u))
	LogoutHandler(svr)(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	var expired bool
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			expired = true
		}
	}
	require.True(t, expired, "logout should expire the session cookie")
}
