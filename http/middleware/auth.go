package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/tnqbao/gau-media-storage/config"
	"github.com/tnqbao/gau-media-storage/presign"
	"github.com/tnqbao/gau-media-storage/utils"
)

func authenticate(c *gin.Context, config *config.EnvConfig) bool {
	tokenStr := utils.ExtractToken(c)
	if tokenStr == "" {
		utils.JSON401(c, "Authorization token is required")
		c.Abort()
		return false
	}

	parsedToken, err := utils.ParseToken(tokenStr, config)
	if err != nil || !parsedToken.Valid {
		utils.JSON401(c, "Invalid or expired token")
		c.Abort()
		return false
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		utils.JSON401(c, "Invalid token claims")
		c.Abort()
		return false
	}
	if err := utils.InjectClaimsToContext(c, claims); err != nil {
		utils.JSON401(c, "Invalid claims")
		c.Abort()
		return false
	}
	return true
}

func AuthMiddleware(config *config.EnvConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, config) {
			return
		}
		c.Next()
	}
}

// PreviewMiddleware accepts either a signed proxy link or a regular token.
func PreviewMiddleware(issuer *presign.Issuer, config *config.EnvConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if signature := c.Query("signature"); signature != "" {
			if err := issuer.VerifyProxy(c.Query("key"), c.Query("expires"), signature); err != nil {
				utils.JSONError(c, err)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		if !authenticate(c, config) {
			return
		}
		c.Next()
	}
}
