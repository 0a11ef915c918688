package setup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wam-dev/threads/backend/internal/handler"
	"github.com/wam-dev/threads/backend/internal/revalidate"
	"github.com/wam-dev/threads/backend/internal/service"
	"github.com/wam-dev/threads/backend/internal/storage/memory"
	"github.com/wam-dev/threads/backend/internal/storage/mongo"
	"github.com/wam-dev/threads/backend/internal/storage/pg"
	"github.com/wam-dev/threads/shared/config"
	"github.com/wam-dev/threads/shared/jwt"
	"github.com/wam-dev/threads/shared/logger"
	"github.com/wam-dev/threads/shared/markdown"
	mw "github.com/wam-dev/threads/shared/middleware"
	"github.com/wam-dev/threads/shared/middleware/ratelimiter"
	pgutil "github.com/wam-dev/threads/shared/storage/pg"
)

// Store is what every storage backend provides.
type Store interface {
	service.ThreadStorage
	service.UserStorage
	service.ReconcileStorage
	Ping(ctx context.Context) error
	Cleanup() error
}

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config        *config.Config
	Store         Store
	Handler       *handler.Handler
	Auth          *mw.Auth
	Reconciler    *service.Reconciler
	Revalidator   revalidate.Revalidator
	PostLimiter   *ratelimiter.UserRateLimiter
	ReadLimiter   *ratelimiter.UserRateLimiter
	PublicLimiter *ratelimiter.UserRateLimiter

	closers []func() error
}

// NewStore picks the backend named by config. Nothing is dialed here.
func NewStore(cfg *config.Config, connCfg pgutil.ConnectionConfig) (Store, error) {
	switch cfg.Public.Storage {
	case "pg":
		return pg.New(cfg.Private.DatabaseURL, connCfg), nil
	case "mongo":
		return mongo.New(cfg.Private.DatabaseURL, cfg.Public.MongoDatabase), nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Public.Storage)
	}
}

// NewRevalidator publishes through Redis when REDIS_URL is set and only logs otherwise.
func NewRevalidator(cfg *config.Config) (revalidate.Revalidator, func() error, error) {
	if cfg.Private.RedisURL == "" {
		logger.Log.Warn("redis url not set, revalidation signals are only logged")
		return revalidate.NewRecorder(), func() error { return nil }, nil
	}
	r, err := revalidate.NewRedis(cfg.Private.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return r, r.Close, nil
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	if cfg.JwtKey() == "" {
		return nil, errors.New("jwt key is not configured")
	}

	store, err := NewStore(cfg, pgutil.DefaultConnectionConfig())
	if err != nil {
		return nil, err
	}
	revalidator, closeRevalidator, err := NewRevalidator(cfg)
	if err != nil {
		store.Cleanup()
		return nil, err
	}

	thread := service.NewThread(store, revalidator, cfg.Public.ThreadsPerPage)
	user := service.NewUser(store, store, revalidator, cfg.Public.EditProfilePath)
	h := handler.New(thread, user, store, markdown.New())

	postLimiter := ratelimiter.New(1.0/10, 3, time.Hour) // burst of 3, then one post per 10s
	readLimiter := ratelimiter.Rps100()
	publicLimiter := ratelimiter.Rps10() // per IP, unauthenticated endpoints

	return &Dependencies{
		Config:        cfg,
		Store:         store,
		Handler:       h,
		Auth:          mw.NewAuth(jwt.New(cfg.JwtKey(), time.Hour)),
		Reconciler:    service.NewReconciler(store),
		Revalidator:   revalidator,
		PostLimiter:   postLimiter,
		ReadLimiter:   readLimiter,
		PublicLimiter: publicLimiter,
		closers: []func() error{
			func() error { postLimiter.Stop(); return nil },
			func() error { readLimiter.Stop(); return nil },
			func() error { publicLimiter.Stop(); return nil },
			closeRevalidator,
			store.Cleanup,
		},
	}, nil
}

// Close releases everything SetupDependencies opened.
func (d *Dependencies) Close() error {
	var errs []error
	for _, c := range d.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
