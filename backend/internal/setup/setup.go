package setup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/itchan-dev/threads/backend/internal/handler"
	"github.com/itchan-dev/threads/backend/internal/middleware/ratelimiter"
	"github.com/itchan-dev/threads/backend/internal/revalidate"
	"github.com/itchan-dev/threads/backend/internal/service"
	"github.com/itchan-dev/threads/backend/internal/storage/memory"
	"github.com/itchan-dev/threads/backend/internal/storage/mongo"
	"github.com/itchan-dev/threads/backend/internal/storage/pg"
	"github.com/itchan-dev/threads/backend/internal/utils"
	"github.com/itchan-dev/threads/shared/config"
	"github.com/itchan-dev/threads/shared/logger"
	sharedutils "github.com/itchan-dev/threads/shared/utils"
)

// Storage is what every driver provides.
type Storage interface {
	service.ThreadTreeStorage
	service.DirectoryStorage
	Ping(ctx context.Context) error
	Cleanup() error
}

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config  *config.Config
	Storage Storage
	Handler *handler.Handler
	Limiter *ratelimiter.Limiter
	// TrustedProxies may forward the client address in headers
	TrustedProxies []*net.IPNet
	revalidator    *revalidate.Redis
	stop           chan struct{}
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	proxies, err := sharedutils.ParseTrustedProxies(cfg.Public.TrustedProxies)
	if err != nil {
		return nil, err
	}

	storage, err := NewStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{Config: cfg, Storage: storage, TrustedProxies: proxies, stop: make(chan struct{})}

	var revalidator service.Revalidator = revalidate.Noop{}
	if cfg.Private.RedisURL != "" {
		redis, err := connectRedis(cfg.Private.RedisURL, storage)
		if err != nil {
			return nil, err
		}
		deps.revalidator = redis
		revalidator = redis
	} else {
		logger.Log.Info("redis url is not set, page revalidation is disabled")
	}

	thread := service.NewThread(storage, utils.NewTextValidator(cfg.Public.MaxTextLength), revalidator, cfg.Public)
	directory := service.NewDirectory(storage)
	activity := service.NewUserActivity(storage, &cfg.Public)
	deps.Handler = handler.New(thread, directory, activity, storage, cfg)

	if cfg.Public.RateLimit.RPS > 0 {
		deps.Limiter = ratelimiter.New(cfg.Public.RateLimit.RPS, cfg.Public.RateLimit.Burst, 10*time.Minute)
		go deps.Limiter.Run(deps.stop)
	}

	return deps, nil
}

// connectRedis closes storage when redis is unreachable.
func connectRedis(url string, storage Storage) (*revalidate.Redis, error) {
	redis, err := revalidate.New(url)
	if err != nil {
		return nil, errors.Join(err, storage.Cleanup())
	}
	return redis, nil
}

// NewStorage opens the store selected by store.driver.
func NewStorage(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.Public.Store.Driver {
	case config.DriverMongo:
		return mongo.New(ctx, cfg.Private.Mongo)
	case config.DriverPg:
		return pg.New(ctx, cfg.Private.Pg)
	case config.DriverMemory:
		logger.Log.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Public.Store.Driver)
	}
}

// Cleanup releases connections. Safe to call once.
func (d *Dependencies) Cleanup() error {
	close(d.stop)
	var errs []error
	if d.revalidator != nil {
		errs = append(errs, d.revalidator.Close())
	}
	errs = append(errs, d.Storage.Cleanup())
	return errors.Join(errs...)
}
