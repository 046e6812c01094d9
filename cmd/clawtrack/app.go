package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/divijg19/clawtrack/internal/auth"
	"github.com/divijg19/clawtrack/internal/config"
	"github.com/divijg19/clawtrack/internal/core"
	"github.com/divijg19/clawtrack/internal/logging"
	"github.com/divijg19/clawtrack/internal/pipeline"
	"github.com/divijg19/clawtrack/internal/storage"
)

// closeTimeout bounds the final flush of pending writes.
const closeTimeout = 10 * time.Second

// app bundles everything a command needs.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	db      *sql.DB
	dbPath  string
	gateway *storage.Gateway
	leads   *pipeline.Manager
	users   *auth.Directory
}

// openApp loads config, opens the database and starts the lifecycle manager.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dbPathFlag != "" {
		cfg.DBPath = dbPathFlag
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath, err = storage.ResolveDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	st, err := storage.New(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("new store: %w", err)
	}
	gw := storage.NewGateway(st, logger)

	if _, ok, _ := st.Get(ctx, storage.KeySettings); !ok {
		if err := gw.SaveSettings(ctx, core.Settings{StaleThresholdDays: cfg.Defaults.StaleThresholdDays}); err != nil {
			logger.Warn("seed settings", zap.Error(err))
		}
	}

	logger.Debug("opened database", zap.String("path", dbPath))
	return &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		dbPath:  dbPath,
		gateway: gw,
		leads:   pipeline.NewManager(ctx, gw, pipeline.Options{Logger: logger}),
		users:   auth.NewDirectory(gw, auth.WithLogger(logger)),
	}, nil
}

// Close flushes pending writes and releases the database.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := a.leads.Close(ctx); err != nil {
		a.logger.Error("flush pending writes", zap.Error(err))
	}
	_ = logging.Sync(a.logger)
	_ = a.db.Close()
}

// actor returns the logged-in user's attribution, or the anonymous actor.
func (a *app) actor(ctx context.Context) core.Actor {
	u, err := a.users.Current(ctx)
	if err != nil {
		return core.Actor{}
	}
	return u.Actor()
}

// currentUser returns the logged-in user, if any.
func (a *app) currentUser(ctx context.Context) (core.User, bool) {
	u, err := a.users.Current(ctx)
	return u, err == nil
}

var errAmbiguousID = errors.New("ambiguous lead id")

// resolveLead finds a lead by full id, unique id prefix, or "." for the selected lead.
func (a *app) resolveLead(ctx context.Context, ref string) (core.Lead, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "." {
		id, ok := a.gateway.Selected(ctx)
		if !ok {
			return core.Lead{}, fmt.Errorf("no lead selected (use `clawtrack select <id>`)")
		}
		ref = id
	}
	if lead, ok := a.leads.Get(ref); ok {
		return lead, nil
	}

	var match core.Lead
	found := 0
	for _, l := range a.leads.Leads() {
		if strings.HasPrefix(l.ID, ref) {
			match = l
			found++
		}
	}
	switch found {
	case 0:
		return core.Lead{}, fmt.Errorf("lead %q not found", ref)
	case 1:
		return match, nil
	default:
		return core.Lead{}, fmt.Errorf("%w: %q matches %d leads", errAmbiguousID, ref, found)
	}
}

// requireEdit rejects the edit when the logged-in user may not change lead.
// Anonymous use is unrestricted.
func (a *app) requireEdit(ctx context.Context, lead core.Lead) error {
	u, ok := a.currentUser(ctx)
	if !ok || auth.CanEdit(u, lead) {
		return nil
	}
	return fmt.Errorf("%s (%s) may not edit leads assigned to %q", u.Name, u.Role, lead.AssignedTo)
}
