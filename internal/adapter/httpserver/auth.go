package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-coach/internal/observability"
)

var (
	errAuthRequired  = &publicError{kind: domain.ErrUnauthorized, msg: "authentication required"}
	errTokenExpired  = &publicError{kind: domain.ErrUnauthorized, msg: "token has expired"}
	errTokenInvalid  = &publicError{kind: domain.ErrUnauthorized, msg: "invalid token"}
	errUserNotFound  = &publicError{kind: domain.ErrNotFound, msg: "user not found"}
	errAuthDisabled  = &publicError{kind: domain.ErrUnauthorized, msg: "authentication is not configured"}
	errUserLookupErr = errors.New("user lookup failed")
)

// userClaims are the claims issued by the account service.
type userClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 tokens and resolves the caller from the user mirror.
type Authenticator struct {
	secret     []byte
	cookieName string
	users      domain.UserRepository
	now        func() time.Time
}

// NewAuthenticator constructs an Authenticator. An empty secret rejects every request.
func NewAuthenticator(secret, cookieName string, users domain.UserRepository) *Authenticator {
	if cookieName == "" {
		cookieName = "jwt"
	}
	return &Authenticator{secret: []byte(secret), cookieName: cookieName, users: users, now: time.Now}
}

// tokenFrom prefers the cookie and falls back to a bearer header.
func (a *Authenticator) tokenFrom(r *http.Request) string {
	if c, err := r.Cookie(a.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Verify parses and checks a token, returning the user id it names.
func (a *Authenticator) Verify(raw string) (string, error) {
	if len(a.secret) == 0 {
		return "", errAuthDisabled
	}
	if raw == "" {
		return "", errAuthRequired
	}
	claims := &userClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errTokenInvalid
		}
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", errTokenExpired
	case err != nil, !parsed.Valid:
		return "", errTokenInvalid
	case strings.TrimSpace(claims.UserID) == "":
		return "", errTokenInvalid
	}
	return claims.UserID, nil
}

// Middleware rejects unauthenticated requests and stores the user in the context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := a.Verify(a.tokenFrom(r))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		user, err := a.users.Get(r.Context(), userID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, r, errUserNotFound, nil)
			return
		case err != nil:
			LoggerFrom(r).Error("auth user lookup failed", slog.String("user_id", userID), slog.Any("error", err))
			writeError(w, r, errUserLookupErr, nil)
			return
		}
		lg := LoggerFrom(r).With(slog.String("user_id", user.ID))
		ctx := withUser(r.Context(), user)
		ctx = obsctx.ContextWithUserID(ctx, user.ID)
		ctx = obsctx.ContextWithLogger(context.WithValue(ctx, loggerKey{}, lg), lg)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type userKey struct{}

func withUser(ctx context.Context, u domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom returns the authenticated caller.
func UserFrom(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(domain.User)
	return u, ok
}
