package uniserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/uniportal/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

var errInvalidToken = errors.New("invalid token")

// Claims carries the registered claims plus the token type.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
}

func (s *Server) generateToken(username, typ string, ttl time.Duration) (string, string, error) {
	jti := uuid.NewString()
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: typ,
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

// parseToken validates signature, expiry, type and revocation.
func (s *Server) parseToken(tokenString, typ string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.TokenType != typ {
		return nil, errInvalidToken
	}
	if s.db.isRevoked(claims.ID) {
		return nil, errInvalidToken
	}
	return claims, nil
}

// issuePair mints a pair, records the login session and returns the tokens.
func (s *Server) issuePair(r *http.Request, username string) (string, string, error) {
	access, accessJTI, err := s.generateToken(username, tokenAccess, s.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, refreshJTI, err := s.generateToken(username, tokenRefresh, s.refreshTTL)
	if err != nil {
		return "", "", err
	}
	s.db.addSession(username, accessJTI, refreshJTI, clientIP(r), r.UserAgent())
	return access, refresh, nil
}

func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}

func setTokenCookies(w http.ResponseWriter, access, refresh string) {
	http.SetCookie(w, &http.Cookie{Name: common.AccessTokenCookieName, Value: access, Path: "/", HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: common.RefreshTokenCookieName, Value: refresh, Path: "/", HttpOnly: true})
}

func (s *Server) handleObtainToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		fields := map[string][]string{}
		if req.Username == "" {
			fields["username"] = []string{"This field is required."}
		}
		if req.Password == "" {
			fields["password"] = []string{"This field is required."}
		}
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}
	if !s.db.checkPassword(req.Username, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	access, refresh, err := s.issuePair(r, req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token generation failed")
		return
	}
	setTokenCookies(w, access, refresh)

	body := map[string]string{"detail": "Login successful", "user": req.Username}
	if !s.cookieOnly {
		body["access"] = access
		body["refresh"] = refresh
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	_ = decodeJSON(r, &req)
	if req.Refresh == "" {
		if ck, err := r.Cookie(common.RefreshTokenCookieName); err == nil {
			req.Refresh = ck.Value
		}
	}
	if req.Refresh == "" {
		writeError(w, http.StatusUnauthorized, "No refresh token")
		return
	}

	claims, err := s.parseToken(req.Refresh, tokenRefresh)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	s.db.revokeSessionByRefresh(claims.ID)

	access, refresh, err := s.issuePair(r, claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token generation failed")
		return
	}
	setTokenCookies(w, access, refresh)
	writeJSON(w, http.StatusOK, map[string]string{"access": access, "refresh": refresh})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.db.logout(claimsFrom(r.Context()).Subject)

	http.SetCookie(w, &http.Cookie{Name: common.AccessTokenCookieName, Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: common.RefreshTokenCookieName, Path: "/", MaxAge: -1})
	writeDetail(w, http.StatusOK, "Logged out successfully. Please log in again to continue.")
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": s.db.sessionsOf(claimsFrom(r.Context()).Subject)})
}

func (s *Server) handleRevokeSession(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || !s.db.revokeSession(claimsFrom(r.Context()).Subject, id) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	writeDetail(w, http.StatusOK, "Session revoked")
}

type claimsKey struct{}

func claimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey{}).(*Claims)
	return c
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// authMiddleware accepts the access token from the Authorization header or,
// failing that, the access_token cookie.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get(common.AuthorizationHeaderName))
		if token == "" {
			if ck, err := r.Cookie(common.AccessTokenCookieName); err == nil {
				token = ck.Value
			}
		}
		if token == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		claims, err := s.parseToken(token, tokenAccess)
		if err != nil || !s.db.accountExists(claims.Subject) {
			writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
