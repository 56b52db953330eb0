package util

import (
	"reading_eval_backend/internal/model"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const capabilityKey = "capability"

type Claims struct {
	UserID        string         `json:"user_id"`
	Role          model.UserRole `json:"role"`
	InstitutionID string         `json:"institution_id"`
	jwt.RegisteredClaims
}

func (c *Claims) Capability() model.Capability {
	return model.Capability{
		UserID:        c.UserID,
		Role:          c.Role,
		InstitutionID: c.InstitutionID,
	}
}

func GenerateJWT(scope model.Capability, secret string, expiration time.Duration) (string, error) {
	expirationTime := time.Now().Add(expiration)
	claims := &Claims{
		UserID:        scope.UserID,
		Role:          scope.Role,
		InstitutionID: scope.InstitutionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}

func SetCapability(c *gin.Context, scope model.Capability) {
	c.Set(capabilityKey, scope)
}

func GetCapabilityFromContext(c *gin.Context) (model.Capability, bool) {
	v, exists := c.Get(capabilityKey)
	if !exists {
		return model.Capability{}, false
	}
	scope, ok := v.(model.Capability)
	return scope, ok
}
