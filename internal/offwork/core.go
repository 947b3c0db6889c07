// Package offwork wires configuration, player storage and the engine
// services into one Core that platform adapters drive.
package offwork

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/xtding233/offwork-lock/internal/config"
	"github.com/xtding233/offwork-lock/internal/economy"
	"github.com/xtding233/offwork-lock/internal/gacha"
	"github.com/xtding233/offwork-lock/internal/metrics"
	"github.com/xtding233/offwork-lock/internal/player"
	"github.com/xtding233/offwork-lock/internal/roll"
	"github.com/xtding233/offwork-lock/internal/session"
	"github.com/xtding233/offwork-lock/internal/view"
	"github.com/xtding233/offwork-lock/internal/zone"
)

// Storage backends accepted by Options.Store.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// SQLiteFile is the database name used inside the data directory.
const SQLiteFile = "players.db"

// Options configures New.
type Options struct {
	Paths   config.Paths
	Store   string // StoreFile (default) or StoreSQLite
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	RNG     gacha.RandomSource
}

// Core is the assembled engine.
type Core struct {
	cfg      *config.Manager
	store    *player.Store
	rolls    *roll.Engine
	economy  *economy.Service
	tracker  *session.Tracker
	sessions *session.Policy
	zones    *zone.Guard
	views    *view.Projector
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New loads (or creates) the config and opens player storage.
func New(opts Options) (*Core, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := config.NewManager(opts.Paths.ConfigDir, logger.With("component", "config"))
	if err != nil {
		return nil, err
	}

	backend, err := openBackend(opts, logger.With("component", "storage"))
	if err != nil {
		return nil, err
	}
	store := player.NewStore(backend, player.WithLogger(logger.With("component", "store")))
	tracker := session.NewTracker(logger.With("component", "abuse"))

	c := &Core{
		cfg:     cfg,
		store:   store,
		tracker: tracker,
		logger:  logger,
		metrics: opts.Metrics,
		rolls: roll.NewEngine(cfg, store,
			roll.WithRNG(opts.RNG),
			roll.WithLogger(logger.With("component", "roll")),
			roll.WithMetrics(opts.Metrics),
		),
		economy:  economy.NewService(cfg, store, logger.With("component", "economy"), opts.Metrics),
		sessions: session.NewPolicy(cfg, store, tracker, logger.With("component", "session"), opts.Metrics),
		zones:    zone.NewGuard(cfg),
		views:    view.NewProjector(cfg, store),
	}
	logger.Info("offwork core ready",
		"config", cfg.Path(),
		"data_dir", opts.Paths.DataDir,
		"store", storeKind(opts.Store),
	)
	return c, nil
}

func storeKind(s string) string {
	if s == "" {
		return StoreFile
	}
	return s
}

func openBackend(opts Options, logger *slog.Logger) (player.Backend, error) {
	switch storeKind(opts.Store) {
	case StoreFile:
		b, err := player.NewFileBackend(opts.Paths.DataDir, logger)
		if err != nil {
			return nil, oops.Code(player.CodeStorageIO).In("offwork").Wrap(err)
		}
		return b, nil
	case StoreSQLite:
		b, err := player.OpenSQLite(filepath.Join(opts.Paths.DataDir, SQLiteFile), logger)
		if err != nil {
			return nil, oops.Code(player.CodeStorageIO).In("offwork").Wrap(err)
		}
		return b, nil
	default:
		return nil, oops.Code(config.CodeInvalid).In("offwork").Errorf("unknown store %q", opts.Store)
	}
}

// Close releases the storage backend.
func (c *Core) Close() error { return c.store.Close() }

func (c *Core) Config() *config.Manager   { return c.cfg }
func (c *Core) Store() *player.Store      { return c.store }
func (c *Core) Rolls() *roll.Engine       { return c.rolls }
func (c *Core) Economy() *economy.Service { return c.economy }
func (c *Core) Tracker() *session.Tracker { return c.tracker }
func (c *Core) Sessions() *session.Policy { return c.sessions }
func (c *Core) Zones() *zone.Guard        { return c.zones }
func (c *Core) Views() *view.Projector    { return c.views }
func (c *Core) Metrics() *metrics.Metrics { return c.metrics }

// OnPlayerJoin is called by the platform when a player joins.
func (c *Core) OnPlayerJoin(ctx context.Context, contextID string, id uuid.UUID) (session.StartResult, error) {
	return c.sessions.HandleSessionStart(ctx, contextID, id)
}

// OnPlayerGracefulExit is called when a player leaves through an allowed path.
func (c *Core) OnPlayerGracefulExit(ctx context.Context, contextID string, id uuid.UUID) error {
	return c.sessions.HandleGracefulExit(ctx, contextID, id)
}

// ReloadConfig re-reads the config file. On failure the previous config stays.
func (c *Core) ReloadConfig() error {
	err := c.cfg.Reload()
	c.metrics.RecordConfigReload(err == nil)
	return err
}

// ExitDecision tells the UI layer whether the player may leave from zoneID.
// Players with no record are treated as locked.
func (c *Core) ExitDecision(ctx context.Context, contextID string, id uuid.UUID, zoneID string) (zone.Decision, error) {
	rec, _, err := c.store.Find(ctx, contextID, id)
	if err != nil {
		return zone.Decision{}, err
	}
	return c.zones.Decide(zoneID, rec.Unlocked), nil
}

// Status is a player's record together with the derived views.
type Status struct {
	Record  player.Record `json:"record"`
	CanRoll bool          `json:"can_roll"`
	HUD     view.HUD      `json:"hud"`
}

// PlayerStatus returns the player's record and HUD projection.
func (c *Core) PlayerStatus(ctx context.Context, contextID string, id uuid.UUID) (Status, error) {
	snap := c.cfg.Current()
	rec, err := c.store.GetOrCreate(ctx, contextID, id)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Record:  rec,
		CanRoll: rec.Points >= max(0, snap.RollCost),
		HUD:     view.BuildHUD(snap, rec),
	}, nil
}
