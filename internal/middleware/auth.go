package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const callerAddressKey = "callerAddress"

var (
	// ErrMissingToken is returned when no bearer token is present
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned when the provided token is invalid
	ErrInvalidToken = errors.New("invalid token")
)

// CallerClaims are the JWT claims identifying a caller. The subject is the
// caller's account address.
type CallerClaims struct {
	jwt.RegisteredClaims
}

// Authenticator validates HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	parser *jwt.Parser
	logger *zap.Logger
}

// NewAuthenticator creates an Authenticator for tokens signed with secret.
func NewAuthenticator(secret string, audience string) *Authenticator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &Authenticator{
		secret: []byte(secret),
		parser: jwt.NewParser(opts...),
		logger: logger.ForComponent(logger.ComponentAuth),
	}
}

// ValidateToken parses tokenString and returns the caller address in its subject.
func (a *Authenticator) ValidateToken(tokenString string) (common.Address, error) {
	claims := &CallerClaims{}
	token, err := a.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return common.Address{}, ErrInvalidToken
	}
	if !common.IsHexAddress(claims.Subject) {
		return common.Address{}, fmt.Errorf("%w: subject is not an address", ErrInvalidToken)
	}
	return common.HexToAddress(claims.Subject), nil
}

// RequireCaller rejects requests without a valid bearer token and stores the caller address.
func (a *Authenticator) RequireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			a.reject(c, ErrMissingToken)
			return
		}

		caller, err := a.ValidateToken(tokenString)
		if err != nil {
			a.reject(c, err)
			return
		}

		c.Set(callerAddressKey, caller)
		c.Next()
	}
}

func (a *Authenticator) reject(c *gin.Context, err error) {
	a.logger.Debug("Token validation failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("correlation_id", GetCorrelationID(c)),
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":          "Unauthorized",
		"correlation_id": GetCorrelationID(c),
	})
}

// CallerAddress returns the authenticated caller set by RequireCaller.
func CallerAddress(c *gin.Context) (common.Address, bool) {
	v, ok := c.Get(callerAddressKey)
	if !ok {
		return common.Address{}, false
	}
	addr, ok := v.(common.Address)
	return addr, ok
}

// SetCallerAddress stores a caller address on the context.
func SetCallerAddress(c *gin.Context, addr common.Address) {
	c.Set(callerAddressKey, addr)
}
