package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tnqbao/gau-media-storage/utils"
)

const (
	defaultMovesLimit = 100
	maxMovesLimit     = 1000
)

func (ctrl *Controller) GetUsage(c *gin.Context) {
	ctx := c.Request.Context()

	if err := ctrl.Deletion.Authorize(principal(c), "view usage"); err != nil {
		utils.JSONError(c, err)
		return
	}
	if ctrl.Infra.Minio == nil {
		utils.JSON501(c, "usage reporting is only available for the minio provider")
		return
	}

	report, err := ctrl.Infra.Minio.Usage(ctx)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Admin] Failed to read data usage: %v", err)
		utils.JSON500(c, "Failed to read data usage")
		return
	}
	utils.JSON200(c, report)
}

// ListMoves returns journal records of moves that never completed. Each one
// may have left a duplicate of its source behind.
func (ctrl *Controller) ListMoves(c *gin.Context) {
	ctx := c.Request.Context()

	if err := ctrl.Deletion.Authorize(principal(c), "view moves"); err != nil {
		utils.JSONError(c, err)
		return
	}
	if status := c.DefaultQuery("status", "unfinished"); status != "unfinished" {
		utils.JSON400(c, "status must be unfinished")
		return
	}
	limit := defaultMovesLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxMovesLimit {
			utils.JSON400(c, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}
	if ctrl.Moves == nil {
		utils.JSON501(c, "move journal requires Postgres")
		return
	}

	records, err := ctrl.Moves.FindUnfinished(ctx, limit)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Admin] Failed to list unfinished moves: %v", err)
		utils.JSON500(c, "Failed to read move journal")
		return
	}
	utils.JSON200(c, gin.H{"moves": records})
}

func (ctrl *Controller) GetMove(c *gin.Context) {
	ctx := c.Request.Context()

	if err := ctrl.Deletion.Authorize(principal(c), "view moves"); err != nil {
		utils.JSONError(c, err)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "id must be a UUID")
		return
	}
	if ctrl.Moves == nil {
		utils.JSON501(c, "move journal requires Postgres")
		return
	}

	record, err := ctrl.Moves.FindByID(ctx, id)
	if err != nil {
		utils.JSONError(c, err)
		return
	}
	utils.JSON200(c, record)
}

func (ctrl *Controller) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"store": "ok"}
	healthy := true

	if ctrl.Infra.Redis != nil {
		checks["redis"] = "ok"
		if err := ctrl.Infra.Redis.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}
	}
	if ctrl.Infra.Postgres != nil {
		checks["postgres"] = "ok"
		if err := ctrl.Infra.Postgres.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": checks})
		return
	}
	utils.JSON200(c, gin.H{"status": "ok", "checks": checks})
}
