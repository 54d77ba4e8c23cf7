package mw

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// RoleAdmin is the only role the service issues.
const RoleAdmin = "admin"

// CtxRoleKey is the gin context key holding the authenticated role.
const CtxRoleKey = "role"

// ErrBadCredentials is returned by Login for a wrong password.
var ErrBadCredentials = errors.New("invalid credentials")

// AdminClaims are the claims carried by admin tokens.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth issues and verifies HS256 admin tokens.
type Auth struct {
	secret       []byte
	passwordHash []byte
	ttl          time.Duration
	now          func() time.Time
}

// NewAuth creates an authenticator. passwordHash is a bcrypt hash of the admin password.
func NewAuth(secret, passwordHash string, ttl time.Duration) *Auth {
	return &Auth{
		secret:       []byte(secret),
		passwordHash: []byte(passwordHash),
		ttl:          ttl,
		now:          time.Now,
	}
}

// Enabled reports whether a signing secret and a password hash are configured.
func (a *Auth) Enabled() bool {
	return len(a.secret) > 0 && len(a.passwordHash) > 0
}

// Login checks the admin password and returns a signed token and its expiry.
func (a *Auth) Login(password string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, ErrBadCredentials
	}
	return a.Issue()
}

// Issue signs a fresh admin token.
func (a *Auth) Issue() (string, time.Time, error) {
	now := a.now()
	expires := now.Add(a.ttl)
	claims := &AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   RoleAdmin,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses and validates a token.
func (a *Auth) Verify(tokenStr string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AdminClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token: %w", err)
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok || claims.Role != RoleAdmin {
		return nil, errors.New("token does not carry the admin role")
	}
	return claims, nil
}

// RequireAdmin rejects requests without a valid "Bearer <token>" header.
// When auth is not configured every request is let through.
func (a *Auth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header must be 'Bearer <token>'"})
			return
		}

		claims, err := a.Verify(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(CtxRoleKey, claims.Role)
		c.Next()
	}
}
