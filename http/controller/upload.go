package controller

import (
	"io"
	"mime/multipart"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tnqbao/gau-media-storage/blob"
	"github.com/tnqbao/gau-media-storage/http/controller/dto"
	"github.com/tnqbao/gau-media-storage/keypath"
	"github.com/tnqbao/gau-media-storage/optimizer"
	"github.com/tnqbao/gau-media-storage/utils"
)

// UploadURLTTL bounds how long a presigned PUT stays usable.
const UploadURLTTL = 15 * time.Minute

func keyLocation(fields dto.KeyFieldsDTO, filename string) (keypath.Location, error) {
	root, err := keypath.ParseCategoryRoot(fields.Root)
	if err != nil {
		return keypath.Location{}, err
	}
	return keypath.Location{
		Root:       root,
		EntityID:   fields.EntityID,
		EntityName: fields.EntityName,
		Segments:   fields.Segments,
		Filename:   filename,
	}, nil
}

func (ctrl *Controller) publicURL(key string) string {
	base := ctrl.Config.EnvConfig.Storage.PublicBaseURL
	if base == "" {
		return ""
	}
	return keypath.PublicURL(base, key)
}

func (ctrl *Controller) tooLarge(c *gin.Context, size int64) bool {
	limit := ctrl.Config.EnvConfig.Storage.MaxUploadSize
	if limit <= 0 || size <= limit {
		return false
	}
	utils.JSON413(c, gin.H{
		"error":     "FILE_TOO_LARGE",
		"message":   "File size exceeds the maximum allowed upload size",
		"file_size": size,
		"limit":     limit,
	})
	return true
}

func (ctrl *Controller) PresignUpload(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.PresignUploadRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request body: "+err.Error())
		return
	}
	if ctrl.tooLarge(c, req.Size) {
		return
	}

	loc, err := keyLocation(req.KeyFieldsDTO, req.Filename)
	if err != nil {
		utils.JSONError(c, err)
		return
	}
	key, err := ctrl.Keys.Build(loc)
	if err != nil {
		utils.JSONError(c, err)
		return
	}

	grant, err := ctrl.Presigner.PresignUpload(ctx, key, req.ContentType, req.Size, UploadURLTTL)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Upload] Failed to presign upload for %s: %v", key, err)
		utils.JSONError(c, err)
		return
	}

	ctrl.Infra.Metrics.Presigned(ctx, "put")
	utils.JSON200(c, dto.PresignUploadResponseDTO{
		Key:       key,
		UploadURL: grant.URL,
		PublicURL: ctrl.publicURL(key),
		ExpiresAt: grant.ExpiresAt,
	})
}

func (ctrl *Controller) UploadObject(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UploadObjectRequestDTO
	if err := c.ShouldBind(&req); err != nil {
		utils.JSON400(c, "Invalid form: "+err.Error())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.JSON400(c, "Failed to get file: "+err.Error())
		return
	}
	if ctrl.tooLarge(c, fileHeader.Size) {
		return
	}

	loc, err := keyLocation(req.KeyFieldsDTO, fileHeader.Filename)
	if err != nil {
		utils.JSONError(c, err)
		return
	}
	key, err := ctrl.Keys.Build(loc)
	if err != nil {
		utils.JSONError(c, err)
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.JSON500(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	obj, err := ctrl.Infra.Store.Put(ctx, key, file, fileHeader.Size, blob.PutOptions{ContentType: contentType})
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Upload] Failed to store %s: %v", key, err)
		utils.JSONError(c, err)
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Upload] Stored %s (%d bytes)", key, obj.Size)
	ctrl.afterUpload(c, key, contentType, obj.Size)

	utils.JSON201(c, dto.UploadResponseDTO{
		Key:         key,
		URL:         ctrl.publicURL(key),
		Size:        obj.Size,
		ContentType: contentType,
	})
}

func (ctrl *Controller) UploadImage(c *gin.Context) {
	ctx := c.Request.Context()

	if ctrl.Optimizer == nil {
		utils.JSONError(c, blob.ConfigurationError("STORAGE_PUBLIC_BASE_URL"))
		return
	}

	var req dto.UploadImageRequestDTO
	if err := c.ShouldBind(&req); err != nil {
		utils.JSON400(c, "Invalid form: "+err.Error())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.JSON400(c, "Failed to get file: "+err.Error())
		return
	}
	if ctrl.tooLarge(c, fileHeader.Size) {
		return
	}

	loc, err := keyLocation(req.KeyFieldsDTO, "")
	if err != nil {
		utils.JSONError(c, err)
		return
	}
	folder, err := ctrl.Keys.Folder(loc)
	if err != nil {
		utils.JSONError(c, err)
		return
	}

	data, err := readFile(fileHeader)
	if err != nil {
		utils.JSON500(c, "Failed to read uploaded file")
		return
	}

	result, err := ctrl.Optimizer.Optimize(ctx, optimizer.Input{
		Data:        data,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Folder:      folder,
		PreviousURL: req.PreviousURL,
	})
	if err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Upload] Image optimization failed for %s: %v", fileHeader.Filename, err)
		utils.JSONError(c, err)
		return
	}

	ctrl.Infra.Metrics.ImageOptimized(ctx)
	if result.CleanupErr != nil {
		ctrl.Infra.Metrics.CleanupFailed(ctx)
	}
	ctrl.afterUpload(c, result.Key, optimizer.OutputContentType, result.Size)

	utils.JSON201(c, result)
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (ctrl *Controller) afterUpload(c *gin.Context, key, contentType string, size int64) {
	ctx := c.Request.Context()

	root, _ := keypath.RootOf(key)
	ctrl.Infra.Metrics.Uploaded(ctx, root.String(), size)

	if ctrl.Infra.Produce == nil {
		return
	}
	if err := ctrl.Infra.Produce.ObjectService.ObjectUploaded(ctx, key, contentType, size, principal(c).Subject); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Upload] Failed to publish upload event for %s", key)
	}
}
