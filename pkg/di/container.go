// Package di wires the application together: storage, services, generation
// and observability, in dependency order. The container is built once at
// startup and handed to the router.
package di

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/andreaspandu8619/mastercreator/internal/ai"
	"github.com/andreaspandu8619/mastercreator/internal/export"
	"github.com/andreaspandu8619/mastercreator/internal/service"
	"github.com/andreaspandu8619/mastercreator/internal/store"
	"github.com/andreaspandu8619/mastercreator/pkg/cache"
	"github.com/andreaspandu8619/mastercreator/pkg/config"
	"github.com/andreaspandu8619/mastercreator/pkg/health"
	"github.com/andreaspandu8619/mastercreator/pkg/logger"
)

// Container holds all the dependencies for the application.
type Container struct {
	DB        *gorm.DB
	Logger    *logger.Logger
	Library   *service.Library
	Stories   *service.Stories
	Generator *ai.Generator
	AIClient  *ai.Client
	Renderer  *export.Renderer
	Health    *health.Checker

	// Degraded is set when the primary store could not be opened and the
	// app is running on in-memory stores. Everything works, nothing
	// survives a restart, and the health endpoint says so.
	Degraded bool
}

// New builds the container. A database failure does not abort construction:
// the services fall back to in-memory stores and the condition is surfaced
// through Degraded and the health checker.
func New(cfg *config.Config, log *logger.Logger) (*Container, error) {
	c := &Container{Logger: log}

	var charStore, storyStore store.Store
	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "primary store unavailable, running in memory")
		c.Degraded = true
		charStore = store.NewMemoryStore()
		storyStore = store.NewMemoryStore()
	} else {
		c.DB = db
		charStore, err = store.NewSQLStore(db, "characters")
		if err != nil {
			return nil, err
		}
		storyStore, err = store.NewSQLStore(db, "stories")
		if err != nil {
			return nil, err
		}
	}

	var charLegacy, storyLegacy *store.LegacyStore
	if !c.Degraded {
		// Migrating into a store that vanishes on restart would erase the
		// legacy blob for nothing, so migration only runs against the
		// durable store.
		charLegacy = store.NewLegacyStore(cfg.Legacy.CharactersPath)
		storyLegacy = store.NewLegacyStore(cfg.Legacy.StoriesPath)
	}

	c.Library = service.NewLibrary(charStore, charLegacy, log)
	c.Stories = service.NewStories(storyStore, storyLegacy, log)

	c.AIClient = ai.NewClient(ai.Settings{
		Endpoint:    cfg.Generation.Endpoint,
		APIKey:      cfg.Generation.APIKey,
		Model:       cfg.Generation.Model,
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
	}, &http.Client{Timeout: cfg.Generation.Timeout}, log)
	c.Generator = ai.NewGenerator(c.AIClient, log)

	c.Renderer = export.NewRenderer(cache.NewCache())

	c.Health = health.NewChecker(log, 30*time.Second)
	c.registerHealthChecks()

	return c, nil
}

// Init runs the startup loads: legacy migration and collection hydration.
// It must complete before the server starts accepting requests; until then
// an empty collection would be indistinguishable from no data.
func (c *Container) Init(ctx context.Context) error {
	if err := c.Library.Init(ctx); err != nil {
		return err
	}
	return c.Stories.Init(ctx)
}

func (c *Container) registerHealthChecks() {
	if c.DB != nil {
		c.Health.RegisterDatabaseCheck(func() error {
			return config.TestConnection(c.DB)
		})
	} else {
		c.Health.RegisterCheck("database", func() (health.Status, string, error) {
			return health.StatusDegraded, "running on in-memory store, data will not survive a restart", nil
		})
	}

	c.Health.RegisterCheck("persistence", func() (health.Status, string, error) {
		if note := c.Library.StorageNote(); note != "" {
			return health.StatusDegraded, note, nil
		}
		if note := c.Stories.StorageNote(); note != "" {
			return health.StatusDegraded, note, nil
		}
		return health.StatusUp, "", nil
	})

	c.Health.RegisterCheck("generation", func() (health.Status, string, error) {
		if !c.AIClient.Configured() {
			return health.StatusDegraded, c.AIClient.ConfigError().Error(), nil
		}
		return health.StatusUp, "", nil
	})
}
