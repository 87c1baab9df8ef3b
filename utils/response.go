package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-media-storage/blob"
)

func JSON200(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func JSON201(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func JSON400(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

func JSON401(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": message})
}

func JSON403(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, gin.H{"error": message})
}

func JSON404(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{"error": message})
}

func JSON413(c *gin.Context, data gin.H) {
	c.JSON(http.StatusRequestEntityTooLarge, data)
}

func JSON500(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

func JSON501(c *gin.Context, message string) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": message})
}

// JSONError writes err with the status of its blob.Kind.
func JSONError(c *gin.Context, err error) {
	c.JSON(blob.KindOf(err).HTTPStatus(), gin.H{"error": err.Error()})
}
