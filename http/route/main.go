package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-media-storage/http/controller"
	middlewares "github.com/tnqbao/gau-media-storage/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	r.Use(middles.TracingMiddleware, middles.CORSMiddleware)
	r.MaxMultipartMemory = 32 << 20

	apiRoutes := r.Group("/api/v1/storage")
	{
		apiRoutes.GET("/health", ctrl.Health)
		apiRoutes.GET("/objects/preview", middles.PreviewMiddleware, ctrl.PreviewObject)

		authed := apiRoutes.Group("/")
		authed.Use(middles.AuthMiddleware)

		objectRoutes := authed.Group("/objects")
		{
			objectRoutes.GET("", ctrl.ListObjects)
			objectRoutes.GET("/presign", ctrl.PresignObject)
			objectRoutes.GET("/download", ctrl.DownloadObject)
			objectRoutes.DELETE("", ctrl.DeleteObject)
			objectRoutes.POST("/move", ctrl.MoveObject)
			objectRoutes.POST("/bulk-delete", ctrl.BulkDeleteObjects)
		}

		uploadRoutes := authed.Group("/uploads")
		{
			uploadRoutes.POST("", ctrl.UploadObject)
			uploadRoutes.POST("/presign", ctrl.PresignUpload)
		}

		authed.POST("/images", ctrl.UploadImage)
		adminRoutes := authed.Group("/admin")
		{
			adminRoutes.GET("/usage", ctrl.GetUsage)
			adminRoutes.GET("/moves", ctrl.ListMoves)
			adminRoutes.GET("/moves/:id", ctrl.GetMove)
		}
	}
	return r
}
