package controller

import (
	"fmt"
	"io"
	"mime"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tnqbao/gau-media-storage/http/controller/dto"
	"github.com/tnqbao/gau-media-storage/keypath"
	"github.com/tnqbao/gau-media-storage/lister"
	"github.com/tnqbao/gau-media-storage/utils"
)

func (ctrl *Controller) ListObjects(c *gin.Context) {
	ctx := c.Request.Context()

	recursive, _ := strconv.ParseBool(c.Query("recursive"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	sortBy, err := lister.ParseSortField(c.Query("sort"))
	if err != nil {
		utils.JSONError(c, err)
		return
	}
	order := strings.ToLower(c.DefaultQuery("order", "asc"))
	if order != "asc" && order != "desc" {
		utils.JSON400(c, "order must be asc or desc")
		return
	}
	month := c.Query("month")
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			utils.JSON400(c, "month must be formatted as YYYY-MM")
			return
		}
	}

	mode := lister.Shallow
	if recursive {
		mode = lister.Recursive
	}

	listing, err := ctrl.Lister.List(ctx, lister.Request{
		Prefix:   c.Query("prefix"),
		Mode:     mode,
		Token:    c.Query("token"),
		PageSize: pageSize,
	})
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Object] Failed to list %q: %v", c.Query("prefix"), err)
		utils.JSONError(c, err)
		return
	}

	now := time.Now()
	resp := dto.ListObjectsResponseDTO{
		Prefix:    listing.Prefix,
		Folders:   listing.Folders,
		NextToken: listing.NextToken,
		Truncated: listing.Truncated,
	}
	if recursive {
		resp.Months = lister.GroupByMonth(listing.Files, now)
	}
	resp.Objects = lister.Refine(listing.Files, lister.Query{
		Search: c.Query("search"),
		SortBy: sortBy,
		Desc:   order == "desc",
		Month:  month,
	}, now)

	utils.JSON200(c, resp)
}

func (ctrl *Controller) PresignObject(c *gin.Context) {
	ctx := c.Request.Context()
	key := c.Query("key")

	var ttl time.Duration
	if raw := c.Query("ttl"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			utils.JSON400(c, "ttl must be a positive number of seconds")
			return
		}
		ttl = time.Duration(seconds) * time.Second
	}

	// proxy=true returns a link served by this API instead of the bucket
	if proxy, _ := strconv.ParseBool(c.Query("proxy")); proxy {
		if err := keypath.ValidateKey(key); err != nil {
			utils.JSONError(c, err)
			return
		}
		if _, err := ctrl.Infra.Store.Stat(ctx, key); err != nil {
			utils.JSONError(c, err)
			return
		}
		grant, err := ctrl.Presigner.ProxyURL(key, ttl)
		if err != nil {
			utils.JSONError(c, err)
			return
		}
		ctrl.Infra.Metrics.Presigned(ctx, "proxy")
		utils.JSON200(c, dto.PresignResponseDTO{Key: grant.Key, URL: grant.URL, ExpiresAt: grant.ExpiresAt})
		return
	}

	grant, err := ctrl.Presigner.Presign(ctx, key, ttl)
	if err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Object] Presign of %q failed: %v", key, err)
		utils.JSONError(c, err)
		return
	}
	ctrl.Infra.Metrics.Presigned(ctx, "get")
	utils.JSON200(c, dto.PresignResponseDTO{Key: grant.Key, URL: grant.URL, ExpiresAt: grant.ExpiresAt})
}

func (ctrl *Controller) PreviewObject(c *gin.Context) {
	ctrl.streamObject(c, "inline")
}

func (ctrl *Controller) DownloadObject(c *gin.Context) {
	ctrl.streamObject(c, "attachment")
}

func (ctrl *Controller) streamObject(c *gin.Context, disposition string) {
	ctx := c.Request.Context()
	key := c.Query("key")

	if err := keypath.ValidateKey(key); err != nil {
		utils.JSONError(c, err)
		return
	}

	reader, obj, err := ctrl.Infra.Store.Get(ctx, key)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Object] Failed to open %s: %v", key, err)
		utils.JSONError(c, err)
		return
	}
	defer reader.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": path.Base(key)}))
	if obj.Size > 0 {
		c.Header("Content-Length", fmt.Sprintf("%d", obj.Size))
	}
	if obj.ETag != "" {
		c.Header("ETag", `"`+obj.ETag+`"`)
	}
	c.Header("Cache-Control", "private, max-age=300")

	if _, err := io.Copy(c.Writer, reader); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Object] Failed to stream %s: %v", key, err)
	}
}

func (ctrl *Controller) DeleteObject(c *gin.Context) {
	ctx := c.Request.Context()
	key := c.Query("key")

	if err := ctrl.Deletion.Delete(ctx, key, principal(c)); err != nil {
		utils.JSONError(c, err)
		return
	}
	ctrl.Infra.Metrics.Deleted(ctx, 1)
	utils.JSON200(c, gin.H{"deleted": key})
}

func (ctrl *Controller) MoveObject(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.MoveObjectRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request body: "+err.Error())
		return
	}

	if err := ctrl.Deletion.Move(ctx, req.FromKey, req.ToKey, principal(c)); err != nil {
		utils.JSONError(c, err)
		return
	}
	ctrl.Infra.Metrics.Moved(ctx)
	utils.JSON200(c, gin.H{"from_key": req.FromKey, "to_key": req.ToKey})
}

func (ctrl *Controller) BulkDeleteObjects(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.BulkDeleteRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := ctrl.Deletion.BulkDelete(ctx, req.Keys, principal(c))
	if err != nil {
		utils.JSONError(c, err)
		return
	}
	ctrl.Infra.Metrics.Deleted(ctx, len(result.Deleted))
	utils.JSON200(c, result)
}
