package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/divijg19/clawtrack/internal/core"
)

// Namespaced keys of the persisted collections.
const (
	KeyLeads    = "clawtrack_leads"
	KeyUsers    = "clawtrack_users"
	KeyPresets  = "clawtrack_filter_presets"
	KeySettings = "clawtrack_settings"
	KeySession  = "clawtrack_session"
	KeySelected = "clawtrack_selected"
	KeyTasks    = "clawtrack_tasks"
)

// KeyPrefix namespaces every key the application writes.
const KeyPrefix = "clawtrack_"

// Gateway loads and saves the application collections as JSON documents in a Store.
// Loads never fail: missing or malformed documents yield empty collections or defaults.
type Gateway struct {
	store  *Store
	logger *zap.Logger
}

// NewGateway wraps store. A nil logger discards output.
func NewGateway(store *Store, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{store: store, logger: logger}
}

// load decodes the document under key into dst. It reports whether dst was filled.
func (g *Gateway) load(ctx context.Context, key string, dst any) bool {
	raw, ok, err := g.store.Get(ctx, key)
	if err != nil {
		g.logger.Warn("load failed, using defaults", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		g.logger.Warn("malformed stored data, using defaults", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (g *Gateway) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("save %s: encode: %w", key, err)
	}
	if err := g.store.Put(ctx, key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// LoadLeads returns the stored lead collection.
func (g *Gateway) LoadLeads(ctx context.Context) []core.Lead {
	var leads []core.Lead
	if !g.load(ctx, KeyLeads, &leads) || leads == nil {
		return []core.Lead{}
	}
	return leads
}

// SaveLeads replaces the stored lead collection.
func (g *Gateway) SaveLeads(ctx context.Context, leads []core.Lead) error {
	if leads == nil {
		leads = []core.Lead{}
	}
	return g.save(ctx, KeyLeads, leads)
}

// LoadUsers returns the stored user directory.
func (g *Gateway) LoadUsers(ctx context.Context) []core.User {
	var users []core.User
	if !g.load(ctx, KeyUsers, &users) || users == nil {
		return []core.User{}
	}
	return users
}

// SaveUsers replaces the stored user directory.
func (g *Gateway) SaveUsers(ctx context.Context, users []core.User) error {
	if users == nil {
		users = []core.User{}
	}
	return g.save(ctx, KeyUsers, users)
}

// LoadPresets returns the saved filter presets.
func (g *Gateway) LoadPresets(ctx context.Context) []core.FilterPreset {
	var presets []core.FilterPreset
	if !g.load(ctx, KeyPresets, &presets) || presets == nil {
		return []core.FilterPreset{}
	}
	return presets
}

// SavePresets replaces the saved filter presets.
func (g *Gateway) SavePresets(ctx context.Context, presets []core.FilterPreset) error {
	if presets == nil {
		presets = []core.FilterPreset{}
	}
	return g.save(ctx, KeyPresets, presets)
}

// LoadTasks returns the stored task board.
func (g *Gateway) LoadTasks(ctx context.Context) []core.Task {
	var tasks []core.Task
	if !g.load(ctx, KeyTasks, &tasks) || tasks == nil {
		return []core.Task{}
	}
	return tasks
}

// SaveTasks replaces the stored task board.
func (g *Gateway) SaveTasks(ctx context.Context, tasks []core.Task) error {
	if tasks == nil {
		tasks = []core.Task{}
	}
	return g.save(ctx, KeyTasks, tasks)
}

// Document describes one stored collection.
type Document struct {
	Key  string
	Size int
}

// Documents lists the application's stored documents with their encoded size.
func (g *Gateway) Documents(ctx context.Context) ([]Document, error) {
	keys, err := g.store.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("documents: %w", err)
	}
	docs := make([]Document, 0, len(keys))
	for _, k := range keys {
		raw, ok, err := g.store.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("documents: %w", err)
		}
		if ok {
			docs = append(docs, Document{Key: k, Size: len(raw)})
		}
	}
	return docs, nil
}

// LoadSettings returns the stored settings merged over the defaults.
func (g *Gateway) LoadSettings(ctx context.Context) core.Settings {
	settings := core.DefaultSettings()
	if !g.load(ctx, KeySettings, &settings) {
		return core.DefaultSettings()
	}
	return settings.Normalize()
}

// SaveSettings stores s.
func (g *Gateway) SaveSettings(ctx context.Context, s core.Settings) error {
	return g.save(ctx, KeySettings, s.Normalize())
}

// Session returns the remembered user id, if any.
func (g *Gateway) Session(ctx context.Context) (string, bool) {
	var id string
	if !g.load(ctx, KeySession, &id) || id == "" {
		return "", false
	}
	return id, true
}

// SetSession remembers userID as the logged-in user.
func (g *Gateway) SetSession(ctx context.Context, userID string) error {
	return g.save(ctx, KeySession, userID)
}

// ClearSession forgets the logged-in user.
func (g *Gateway) ClearSession(ctx context.Context) error {
	if err := g.store.Delete(ctx, KeySession); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Selected returns the id of the currently selected lead, if any.
func (g *Gateway) Selected(ctx context.Context) (string, bool) {
	var id string
	if !g.load(ctx, KeySelected, &id) || id == "" {
		return "", false
	}
	return id, true
}

// SetSelected stores the selected lead id. An empty id clears the selection.
func (g *Gateway) SetSelected(ctx context.Context, leadID string) error {
	if leadID == "" {
		if err := g.store.Delete(ctx, KeySelected); err != nil {
			return fmt.Errorf("clear selection: %w", err)
		}
		return nil
	}
	return g.save(ctx, KeySelected, leadID)
}
