package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/hirehub/job-board/internal/email"
	"github.com/hirehub/job-board/internal/middleware"
	"github.com/hirehub/job-board/internal/server"
	"github.com/hirehub/job-board/internal/user"
)

type registerRq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterHandler creates a new user account with a bcrypt-hashed password.
func RegisterHandler(svr server.Server, userRepo userGetSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rq registerRq
		if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid request body"})
			return
		}
		rq.Email = strings.ToLower(strings.TrimSpace(rq.Email))
		rq.Username = strings.TrimSpace(rq.Username)
		if rq.Username == "" || rq.Email == "" || rq.Password == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "username, email and password are required"})
			return
		}
		if !svr.IsEmail(rq.Email) {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid email address"})
			return
		}
		if !user.ValidRole(rq.Role) {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "role must be jobseeker or recruiter"})
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(rq.Password), bcrypt.DefaultCost)
		if err != nil {
			svr.Log(err, "unable to hash password")
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
			return
		}
		u, err := userRepo.CreateUser(rq.Username, rq.Email, string(hash), rq.Role)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				svr.JSON(w, http.StatusConflict, map[string]interface{}{"success": false, "error": "an account with this email already exists"})
				return
			}
			svr.Log(err, "unable to create user")
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
			return
		}
		// best effort welcome email
		if err := svr.GetEmail().SendEmail(
			email.Address{Name: svr.GetEmail().DefaultSenderName(), Email: svr.GetEmail().NoReplySenderAddress()},
			email.Address{Name: u.Username, Email: u.Email},
			email.Address{Email: svr.GetEmail().SupportSenderAddress()},
			fmt.Sprintf("Welcome to %s", svr.GetConfig().SiteName),
			fmt.Sprintf("Hi %s,\n\nYour %s account is ready. Sign in at %s%s to get started.\n", u.Username, svr.GetConfig().SiteName, svr.GetConfig().URLProtocol, svr.GetConfig().SiteHost),
		); err != nil {
			svr.Log(err, "unable to send welcome email")
		}
		svr.JSON(w, http.StatusCreated, map[string]interface{}{"success": true, "user": u})
	}
}

// LoginHandler verifies credentials and stores a signed JWT in the session cookie.
func LoginHandler(svr server.Server, userRepo userGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rq loginRq
		if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid request body"})
			return
		}
		rq.Email = strings.ToLower(strings.TrimSpace(rq.Email))
		if rq.Email == "" || rq.Password == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "email and password are required"})
			return
		}
		u, err := userRepo.UserByEmail(rq.Email)
		if err == sql.ErrNoRows {
			svr.JSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "invalid email or password"})
			return
		}
		if err != nil {
			svr.Log(err, "unable to load user on login")
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(rq.Password)); err != nil {
			svr.JSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "invalid email or password"})
			return
		}
		sess, err := svr.SessionStore.Get(r, middleware.SessionName)
		if err != nil {
			svr.Log(err, "unable to get session on login")
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
			return
		}
		claims := middleware.UserJWT{
			UserID:      u.ID,
			Email:       u.Email,
			Role:        u.Role,
			CompanyName: u.CompanyName,
			CreatedAt:   u.CreatedAt,
			StandardClaims: jwt.StandardClaims{
				ExpiresAt: time.Now().Add(30 * 24 * time.Hour).UTC().Unix(),
				IssuedAt:  time.Now().UTC().Unix(),
				Issuer:    svr.GetConfig().SiteHost,
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		ss, err := token.SignedString(svr.GetJWTSigningKey())
		if err != nil {
			svr.Log(err, "unable to sign session token")
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
			return
		}
		sess.Values["jwt"] = ss
		if err := sess.Save(r, w); err != nil {
			svr.Log(err, "unable to save session on login")
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": u})
	}
}

// LogoutHandler expires the session cookie.
func LogoutHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svr.SessionStore.Get(r, middleware.SessionName)
		if err == nil {
			delete(sess.Values, "jwt")
			sess.Options.MaxAge = -1
			if err := sess.Save(r, w); err != nil {
				svr.Log(err, "unable to expire session on logout")
			}
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "logged out"})
	}
}

// MeHandler returns the signed-on user's profile.
func MeHandler(svr server.Server, userRepo userGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "not signed on"})
			return
		}
		u, err := userRepo.UserByID(claims.UserID)
		if err == sql.ErrNoRows {
			svr.JSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "user not found"})
			return
		}
		if err != nil {
			svr.Log(err, "unable to load signed-on user")
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": u})
	}
}
