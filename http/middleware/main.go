package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-media-storage/http/controller"
)

type Middlewares struct {
	CORSMiddleware    gin.HandlerFunc
	AuthMiddleware    gin.HandlerFunc
	PreviewMiddleware gin.HandlerFunc
	TracingMiddleware gin.HandlerFunc
}

func NewMiddlewares(ctrl *controller.Controller) (*Middlewares, error) {
	cors := CORSMiddleware(ctrl.Config.EnvConfig)
	auth := AuthMiddleware(ctrl.Config.EnvConfig)
	preview := PreviewMiddleware(ctrl.Presigner, ctrl.Config.EnvConfig)
	tracing := TracingMiddleware(ctrl.Config.EnvConfig.Grafana.ServiceName)

	return &Middlewares{
		CORSMiddleware:    cors,
		AuthMiddleware:    auth,
		PreviewMiddleware: preview,
		TracingMiddleware: tracing,
	}, nil
}
