package middleware

import (
	"errors"
	"strings"
	"time"

	apperrors "github.com/ak/mealplanner/internal/pkg/errors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the JWT token claims
type JWTClaims struct {
	Household string `json:"household,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig holds JWT middleware configuration
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

func abortUnauthorized(c *gin.Context, code apperrors.ErrorCode, message string) {
	apiErr := apperrors.Unauthorized(message)
	apiErr.Code = code
	c.AbortWithStatusJSON(apiErr.HTTPStatus, apperrors.NewErrorResponse(apiErr))
}

// JWTMiddleware creates a JWT authentication middleware
func JWTMiddleware(config JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, apperrors.ErrUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortUnauthorized(c, apperrors.ErrUnauthorized, "invalid authorization header format")
			return
		}

		claims, err := ValidateToken(parts[1], config.Secret)
		if err != nil {
			code := apperrors.ErrTokenInvalid
			if errors.Is(err, ErrTokenExpired) {
				code = apperrors.ErrTokenExpired
			}
			abortUnauthorized(c, code, err.Error())
			return
		}

		if claims.Issuer != config.Issuer {
			abortUnauthorized(c, apperrors.ErrTokenInvalid, "invalid token issuer")
			return
		}

		c.Set("claims", claims)
		c.Set("subject", claims.Subject)

		c.Next()
	}
}

// GenerateToken creates a new JWT token for subject
func GenerateToken(config JWTConfig, subject, household string) (string, error) {
	if config.Secret == "" {
		return "", errors.New("jwt secret is not configured")
	}

	now := time.Now()
	claims := JWTClaims{
		Household: household,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(config.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    config.Issuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.Secret))
}

// ErrTokenExpired is returned by ValidateToken for expired tokens.
var ErrTokenExpired = errors.New("token has expired")

// ValidateToken validates a JWT token and returns the claims
func ValidateToken(tokenString, secret string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// GetSubject extracts the token subject from context
func GetSubject(c *gin.Context) string {
	if subject, exists := c.Get("subject"); exists {
		if s, ok := subject.(string); ok {
			return s
		}
	}
	return ""
}

// GetClaims extracts JWT claims from context
func GetClaims(c *gin.Context) *JWTClaims {
	if claims, exists := c.Get("claims"); exists {
		if jwtClaims, ok := claims.(*JWTClaims); ok {
			return jwtClaims
		}
	}
	return nil
}
