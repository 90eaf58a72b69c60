package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/kalvi/core/access"
)

func TestAccountAPI_Login(t *testing.T) {
	s := newSchool(t)

	s.run(t, []httpTest{
		{
			name:     "missing credentials",
			method:   http.MethodPost,
			path:     "/api/auth/login",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username": "this field is required",
				"password": "this field is required",
			}),
		},
		{
			name:     "unknown username",
			method:   http.MethodPost,
			path:     "/api/auth/login",
			body:     []byte(`{"username": "nobody", "password": "` + testPassword + `"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "wrong password",
			method:   http.MethodPost,
			path:     "/api/auth/login",
			body:     []byte(`{"username": "root", "password": "wrong"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "deactivated account",
			method:   http.MethodPost,
			path:     "/api/auth/login",
			body:     []byte(`{"username": "gone", "password": "` + testPassword + `"}`),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	})

	t.Run("success", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/login", []byte(`{"username": " Priya ", "password": "`+testPassword+`"}`))
		s.srv.ServeHTTP(rec, req)
		if !assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String()) {
			return
		}

		var resp TokenResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)

		acc, err := s.srv.deps.AccountSvc.GetByID(req.Context(), s.chennaiBA.ID)
		assert.NoError(t, err)
		assert.False(t, acc.LastLogin.IsZero())

		req, rec = newAuthRequest(http.MethodGet, "/api/me", resp.Token)
		s.srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAccountAPI_Authentication(t *testing.T) {
	s := newSchool(t)

	expired := s.srv.auth.claims(s.superAdm)
	expired.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	expiredToken, err := s.srv.auth.generateToken(expired)
	if err != nil {
		t.Fatal(err)
	}

	s.run(t, []httpTest{
		{
			name:     "missing token",
			path:     "/api/me",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "garbage token",
			path:     "/api/batches",
			token:    "not.a.jwt",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name:     "expired token",
			path:     "/api/courses",
			token:    expiredToken,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name:     "deactivated account",
			path:     "/api/me",
			token:    s.token(t, s.inactive),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "account not authenticated"}),
		},
	})
}

func TestAccountAPI_Me(t *testing.T) {
	s := newSchool(t)
	city := s.chennai.CityName

	s.run(t, []httpTest{
		{
			name:  "super admin has no branch",
			path:  "/api/me",
			token: s.token(t, s.superAdm),
			wantData: marchallObj(t, MeResponse{
				Username: "root",
				Role:     access.RoleSuperAdmin,
			}),
		},
		{
			name:  "branch admin",
			path:  "/api/me/",
			token: s.token(t, s.chennaiBA),
			wantData: marchallObj(t, MeResponse{
				Username:   "priya",
				Role:       access.RoleBranchAdmin,
				BranchID:   &s.chennai.ID,
				BranchCity: &city,
			}),
		},
	})
}

func TestAccountAPI_RefreshToken(t *testing.T) {
	s := newSchool(t)

	stale := s.srv.auth.claims(s.maduraiT, time.Now().Add(-5*time.Hour).Unix())
	staleToken, err := s.srv.auth.generateToken(stale)
	if err != nil {
		t.Fatal(err)
	}

	s.run(t, []httpTest{
		{
			name:     "refresh window elapsed",
			method:   http.MethodPost,
			path:     "/api/auth/token-refresh",
			token:    staleToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{
			name:     "missing token",
			method:   http.MethodPost,
			path:     "/api/auth/token-refresh",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
	})

	t.Run("keeps original issue time", func(t *testing.T) {
		oriat := time.Now().Add(-time.Hour).Unix()
		token, err := s.srv.auth.generateToken(s.srv.auth.claims(s.maduraiT, oriat))
		if err != nil {
			t.Fatal(err)
		}

		req, rec := newAuthRequest(http.MethodPost, "/api/auth/token-refresh", token)
		s.srv.ServeHTTP(rec, req)
		if !assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String()) {
			return
		}

		var resp TokenResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		claims := new(Claims)
		_, _, err = new(jwt.Parser).ParseUnverified(resp.Token, claims)
		assert.NoError(t, err)
		assert.Equal(t, oriat, claims.OrigIssuedAt)
		assert.Equal(t, "karthik", claims.Username)
	})
}
