package middlewares

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-media-storage/config"
)

func CORSMiddleware(config *config.EnvConfig) gin.HandlerFunc {
	var allowed []string
	for _, d := range strings.Split(config.CORS.AllowDomains, ",") {
		if d = strings.TrimSpace(d); d != "" {
			allowed = append(allowed, d)
		}
	}
	global := strings.TrimSpace(config.CORS.GlobalDomain)

	return cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			for _, d := range allowed {
				if origin == d {
					return true
				}
			}
			// any subdomain of the global domain
			return global != "" && strings.HasSuffix(origin, "."+strings.TrimPrefix(global, "."))
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "ETag"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
