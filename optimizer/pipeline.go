// Package optimizer re-encodes uploaded images into a bounded JPEG derivative
// and replaces the asset it supersedes.
package optimizer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"github.com/tnqbao/gau-media-storage/blob"
	"github.com/tnqbao/gau-media-storage/keypath"
)

const (
	DefaultMaxDimension = 2560
	DefaultQuality      = 82
	DefaultMaxPixels    = 80_000_000

	OutputContentType  = "image/jpeg"
	OutputCacheControl = "public, max-age=31536000, immutable"

	outputExt = ".jpg"
)

type Logger interface {
	InfoWithContextf(ctx context.Context, format string, args ...interface{})
	ErrorWithContextf(ctx context.Context, err error, format string, args ...interface{})
}

type Config struct {
	PublicBaseURL string
	MaxDimension  int
	Quality       int
	// MaxPixels rejects sources whose header claims more pixels than this.
	MaxPixels int
}

type Input struct {
	Data        []byte
	ContentType string
	Folder      string
	PreviousURL string
}

type Result struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"`
	// CleanupErr is set when the previous asset could not be removed.
	CleanupErr error `json:"-"`
}

type Pipeline struct {
	store   blob.Store
	cfg     Config
	logger  Logger
	newName func() string
}

func NewPipeline(store blob.Store, cfg Config, logger Logger) (*Pipeline, error) {
	if strings.TrimSpace(cfg.PublicBaseURL) == "" {
		return nil, blob.ConfigurationError("STORAGE_PUBLIC_BASE_URL")
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = DefaultMaxDimension
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = DefaultQuality
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = DefaultMaxPixels
	}
	cfg.PublicBaseURL = strings.TrimSuffix(cfg.PublicBaseURL, "/")

	return &Pipeline{
		store:   store,
		cfg:     cfg,
		logger:  logger,
		newName: uuid.NewString,
	}, nil
}

func (p *Pipeline) Optimize(ctx context.Context, in Input) (*Result, error) {
	if !strings.HasPrefix(strings.ToLower(in.ContentType), "image/") {
		return nil, blob.InvalidInput("optimize", fmt.Sprintf("content type %q is not an image", in.ContentType))
	}
	if len(in.Data) == 0 {
		return nil, blob.InvalidInput("optimize", "image is empty")
	}

	folder := strings.Trim(in.Folder, "/")
	key := folder + "/" + p.newName() + outputExt
	if err := keypath.ValidateKey(key); err != nil {
		return nil, err
	}

	img, err := p.decode(in.Data)
	if err != nil {
		return nil, err
	}

	out := p.bound(img)
	out = flatten(out)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(p.cfg.Quality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	size := int64(buf.Len())
	if _, err := p.store.Put(ctx, key, &buf, size, blob.PutOptions{
		ContentType:  OutputContentType,
		CacheControl: OutputCacheControl,
	}); err != nil {
		return nil, err
	}

	bounds := out.Bounds()
	result := &Result{
		Key:    key,
		URL:    keypath.PublicURL(p.cfg.PublicBaseURL, key),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Size:   size,
	}

	if in.PreviousURL != "" {
		result.CleanupErr = p.removePrevious(ctx, in.PreviousURL, key)
	}

	p.logger.InfoWithContextf(ctx, "[Optimizer] Stored %s (%dx%d, %d bytes)", key, result.Width, result.Height, size)
	return result, nil
}

func (p *Pipeline) decode(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, blob.InvalidInput("optimize", "image could not be decoded")
	}
	if cfg.Width*cfg.Height > p.cfg.MaxPixels {
		return nil, blob.InvalidInput("optimize", fmt.Sprintf("image has %dx%d pixels, limit is %d", cfg.Width, cfg.Height, p.cfg.MaxPixels))
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, blob.InvalidInput("optimize", "image could not be decoded")
	}
	return img, nil
}

// bound shrinks img to fit MaxDimension. Smaller images pass through untouched.
func (p *Pipeline) bound(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= p.cfg.MaxDimension && b.Dy() <= p.cfg.MaxDimension {
		return img
	}
	return imaging.Fit(img, p.cfg.MaxDimension, p.cfg.MaxDimension, imaging.Lanczos)
}

// flatten composites translucent images onto white, since JPEG has no alpha.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func (p *Pipeline) removePrevious(ctx context.Context, previousURL, newKey string) error {
	err := func() error {
		oldKey, err := keypath.KeyFromPublicURL(p.cfg.PublicBaseURL, previousURL)
		if err != nil {
			return err
		}
		if oldKey == newKey {
			return nil
		}
		// only an earlier output of this pipeline in the same folder may be replaced
		if path.Dir(oldKey) != path.Dir(newKey) || path.Ext(oldKey) != outputExt {
			return blob.InvalidInput("replace_image", "previous asset is outside the destination folder")
		}
		if _, err := p.store.Stat(ctx, oldKey); err != nil {
			return err
		}
		return p.store.Delete(ctx, oldKey)
	}()
	if err == nil {
		return nil
	}

	cleanupErr := blob.CleanupFailure("replace_image", previousURL, err)
	p.logger.ErrorWithContextf(ctx, cleanupErr, "[Optimizer] Best-effort cleanup of previous asset %s failed", previousURL)
	return cleanupErr
}
