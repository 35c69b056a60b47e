package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/ak/mealplanner/internal/domain/repositories"
	"github.com/ak/mealplanner/internal/infrastructure/config"
	"github.com/ak/mealplanner/internal/infrastructure/database"
	"github.com/ak/mealplanner/internal/pkg/logger"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Provider holds all repository instances
type Provider struct {
	Dish     repositories.DishRepository
	Schedule repositories.ScheduleRepository
	Tracking repositories.TrackingRepository

	health repositories.HealthChecker
	close  func(ctx context.Context) error
}

// NewFileProvider creates a provider storing each document as a JSON file
func NewFileProvider(fsys afero.Fs, cfg config.StorageConfig, log *logger.Logger) *Provider {
	log = log.WithComponent("storage")
	return &Provider{
		Dish:     NewFileDishRepository(fsys, cfg.DishesPath(), log),
		Schedule: NewFileScheduleRepository(fsys, cfg.SchedulePath(), log),
		Tracking: NewFileTrackingRepository(fsys, cfg.TrackingPath(), log),
		health:   &dirHealth{fs: fsys, dir: cfg.DataDir},
	}
}

// NewMongoProvider creates a provider storing each document in MongoDB
func NewMongoProvider(db *database.MongoDB, log *logger.Logger) *Provider {
	log = log.WithComponent("storage")
	return &Provider{
		Dish:     NewMongoDishRepository(db, log),
		Schedule: NewMongoScheduleRepository(db, log),
		Tracking: NewMongoTrackingRepository(db, log),
		health:   db,
		close:    db.Close,
	}
}

// Open builds the provider selected by cfg.Storage.Driver, connecting to
// MongoDB when needed.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Provider, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverFile, "":
		log.Info("Using file storage", zap.String("data_dir", cfg.Storage.DataDir))
		return NewFileProvider(afero.NewOsFs(), cfg.Storage, log), nil

	case config.StorageDriverMongoDB:
		db, err := database.NewMongoDB(cfg.MongoDB, log)
		if err != nil {
			return nil, err
		}
		timeout := cfg.MongoDB.ConnectTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		connectCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := db.Connect(connectCtx); err != nil {
			return nil, err
		}
		return NewMongoProvider(db, log), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// Health reports whether the backing store is reachable
func (p *Provider) Health(ctx context.Context) error {
	if p.health == nil {
		return nil
	}
	return p.health.Health(ctx)
}

// Close releases the backing store
func (p *Provider) Close(ctx context.Context) error {
	if p.close == nil {
		return nil
	}
	return p.close(ctx)
}

// dirHealth checks that the data directory is usable. A directory that does
// not exist yet is fine as long as it can be created on first save.
type dirHealth struct {
	fs  afero.Fs
	dir string
}

func (h *dirHealth) Health(ctx context.Context) error {
	if h.dir == "" {
		return nil
	}
	info, err := h.fs.Stat(h.dir)
	if err != nil {
		exists, _ := afero.Exists(h.fs, h.dir)
		if !exists {
			return nil
		}
		return fmt.Errorf("data dir %s: %w", h.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data dir %s is not a directory", h.dir)
	}
	return nil
}
