package controller

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tnqbao/gau-media-storage/blob"
	"github.com/tnqbao/gau-media-storage/config"
	"github.com/tnqbao/gau-media-storage/deletion"
	"github.com/tnqbao/gau-media-storage/entity"
	"github.com/tnqbao/gau-media-storage/infra"
	"github.com/tnqbao/gau-media-storage/keypath"
	"github.com/tnqbao/gau-media-storage/lister"
	"github.com/tnqbao/gau-media-storage/optimizer"
	"github.com/tnqbao/gau-media-storage/presign"
	"github.com/tnqbao/gau-media-storage/repository"
)

// MoveLog reads the move journal. MoveJournalRepository implements it.
type MoveLog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.MoveRecord, error)
	FindUnfinished(ctx context.Context, limit int) ([]entity.MoveRecord, error)
}

type Controller struct {
	Config     *config.Config
	Infra      *infra.Infra
	Repository *repository.Repository
	Keys       *keypath.Builder
	Lister     *lister.Lister
	Optimizer  *optimizer.Pipeline
	Presigner  *presign.Issuer
	Deletion   *deletion.Authority
	// Moves is nil without Postgres.
	Moves      MoveLog
}

// NewController builds the domain services on top of infra. repo may be nil
// when Postgres is not configured. Optimizer stays nil without a public base URL.
func NewController(cfg *config.Config, inf *infra.Infra, repo *repository.Repository) (*Controller, error) {
	if inf.Store == nil {
		return nil, errors.New("controller requires a blob store")
	}
	env := cfg.EnvConfig
	ctx := context.Background()

	if strings.TrimSpace(env.JWT.SecretKey) == "" {
		return nil, blob.ConfigurationError("JWT_SECRET_KEY")
	}

	var cache presign.Cache
	if inf.Redis != nil {
		cache = inf.Redis
	}

	var journal deletion.Journal
	var moves MoveLog
	if repo != nil {
		journal = repo.MoveJournalRepo
		moves = repo.MoveJournalRepo
	}

	var events deletion.Events
	if inf.Produce != nil {
		events = inf.Produce.ObjectService
	}

	pipeline, err := optimizer.NewPipeline(inf.Store, optimizer.Config{
		PublicBaseURL: env.Storage.PublicBaseURL,
		MaxDimension:  env.Image.MaxDimension,
		Quality:       env.Image.Quality,
	}, inf.Logger)
	if err != nil {
		inf.Logger.WarningWithContextf(ctx, "[Controller] Image optimization disabled: %v", err)
		pipeline = nil
	}

	presigner := presign.NewIssuer(inf.Store, presign.Config{
		DefaultTTL:  env.Presign.DefaultTTL,
		ProxySecret: env.Presign.ProxySecret,
		AppBaseURL:  env.Presign.AppBaseURL,
	}, cache, inf.Logger)

	return &Controller{
		Config:     cfg,
		Infra:      inf,
		Repository: repo,
		Keys:       keypath.NewBuilder(),
		Lister: lister.New(inf.Store, lister.Config{
			PageSize: env.Listing.PageSize,
			MaxPages: env.Listing.MaxRecursivePages,
		}, inf.Logger),
		Optimizer: pipeline,
		Presigner: presigner,
		Deletion: deletion.New(inf.Store, deletion.Config{
			ElevatedRoles:    env.Access.ElevatedRoles,
			AllowedMoveRoots: env.Access.AllowedMoveRoots,
		}, journal, events, presigner, inf.Logger),
		Moves: moves,
	}, nil
}

// principal reads the caller set by AuthMiddleware.
func principal(c *gin.Context) deletion.Principal {
	return deletion.Principal{
		Subject: c.GetString("user_id"),
		Role:    deletion.ParseRole(c.GetString("permission")),
	}
}
