package utils

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/tnqbao/gau-media-storage/blob"
	"github.com/tnqbao/gau-media-storage/config"
)

func ExtractToken(c *gin.Context) string {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.Fields(authHeader)
	if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
		return parts[1]
	}
	return ""
}

func signingKey(config *config.EnvConfig) ([]byte, error) {
	if strings.TrimSpace(config.JWT.SecretKey) == "" {
		return nil, blob.ConfigurationError("JWT_SECRET_KEY")
	}
	return []byte(config.JWT.SecretKey), nil
}

func ParseToken(tokenString string, config *config.EnvConfig) (*jwt.Token, error) {
	secret, err := signingKey(config)
	if err != nil {
		return nil, err
	}
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
}

// InjectClaimsToContext copies user_id and permission into the gin context.
func InjectClaimsToContext(c *gin.Context, claims jwt.MapClaims) error {
	userID, ok := claims["user_id"].(string)
	if !ok || strings.TrimSpace(userID) == "" {
		return errors.New("invalid user_id claim")
	}
	c.Set("user_id", userID)

	if permission, ok := claims["permission"].(string); ok {
		c.Set("permission", permission)
	} else {
		c.Set("permission", "")
	}
	return nil
}

// GenerateToken signs an HS256 token carrying user_id and permission claims.
func GenerateToken(userID, permission string, expiresAt int64, config *config.EnvConfig) (string, error) {
	secret, err := signingKey(config)
	if err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    userID,
		"permission": permission,
		"exp":        expiresAt,
	})
	return token.SignedString(secret)
}
