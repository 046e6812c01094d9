// Package pipeline owns the lead collection and every mutation applied to it.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/divijg19/clawtrack/internal/core"
)

// Gateway is the durable backing of the manager's collections.
type Gateway interface {
	LoadLeads(ctx context.Context) []core.Lead
	SaveLeads(ctx context.Context, leads []core.Lead) error
	LoadPresets(ctx context.Context) []core.FilterPreset
	SavePresets(ctx context.Context, presets []core.FilterPreset) error
	LoadSettings(ctx context.Context) core.Settings
	SaveSettings(ctx context.Context, s core.Settings) error
	LoadTasks(ctx context.Context) []core.Task
	SaveTasks(ctx context.Context, tasks []core.Task) error
}

// Options configures a Manager. Zero fields select defaults.
type Options struct {
	Clock  func() time.Time
	NewID  core.IDFunc
	Logger *zap.Logger
}

// Selection is a consumer's reference to the lead it is looking at.
type Selection struct {
	LeadID string
}

// Manager is the single writer of the lead collection. Reads return copies.
type Manager struct {
	gateway Gateway
	now     func() time.Time
	newID   core.IDFunc
	logger  *zap.Logger
	writer  *writer

	mu       sync.Mutex
	leads    []core.Lead
	presets  []core.FilterPreset
	settings core.Settings
	tasks    []core.Task
}

// NewManager loads the collections from gw and starts the write-behind worker.
// Call Close to flush and stop it.
func NewManager(ctx context.Context, gw Gateway, opts Options) *Manager {
	m := &Manager{
		gateway: gw,
		now:     opts.Clock,
		newID:   opts.NewID,
		logger:  opts.Logger,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}

	m.leads = gw.LoadLeads(ctx)
	m.presets = gw.LoadPresets(ctx)
	m.settings = gw.LoadSettings(ctx).Normalize()
	m.tasks = gw.LoadTasks(ctx)
	m.writer = newWriter(m.logger)

	m.logger.Debug("pipeline loaded",
		zap.Int("leads", len(m.leads)),
		zap.Int("presets", len(m.presets)),
		zap.Int("tasks", len(m.tasks)),
	)
	return m
}

// Flush waits until all mutations made so far are durably written.
func (m *Manager) Flush(ctx context.Context) error {
	if err := m.writer.flush(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// Close flushes pending writes and stops the background worker.
func (m *Manager) Close(ctx context.Context) error {
	if err := m.writer.close(ctx); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

func (m *Manager) clock() time.Time {
	return m.now().UTC()
}

// persistLeads hands a snapshot of the collection to the writer. Callers hold m.mu.
func (m *Manager) persistLeads() {
	snapshot := cloneLeads(m.leads)
	m.writer.enqueue("leads", func(ctx context.Context) error {
		return m.gateway.SaveLeads(ctx, snapshot)
	})
}

func (m *Manager) persistPresets() {
	snapshot := clonePresets(m.presets)
	m.writer.enqueue("presets", func(ctx context.Context) error {
		return m.gateway.SavePresets(ctx, snapshot)
	})
}

func (m *Manager) persistSettings() {
	snapshot := m.settings
	m.writer.enqueue("settings", func(ctx context.Context) error {
		return m.gateway.SaveSettings(ctx, snapshot)
	})
}

func (m *Manager) indexOf(id string) int {
	for i := range m.leads {
		if m.leads[i].ID == id {
			return i
		}
	}
	return -1
}

func clonePresets(presets []core.FilterPreset) []core.FilterPreset {
	out := make([]core.FilterPreset, len(presets))
	for i, p := range presets {
		p.Filters.Tags = append([]string(nil), p.Filters.Tags...)
		out[i] = p
	}
	return out
}

func cloneLeads(leads []core.Lead) []core.Lead {
	out := make([]core.Lead, len(leads))
	for i, l := range leads {
		out[i] = l.Clone()
	}
	return out
}

func (m *Manager) newActivity(leadID string, t core.ActivityType, description string, actor core.Actor, now time.Time) core.Activity {
	return core.Activity{
		ID:          m.newID(),
		LeadID:      leadID,
		Type:        t,
		Description: description,
		Timestamp:   now,
		UserID:      actor.ID,
		UserName:    actor.Name,
	}
}

// Create builds a lead from d, appends it and returns a copy. It never fails.
func (m *Manager) Create(d core.Draft, actor core.Actor) core.Lead {
	m.mu.Lock()
	defer m.mu.Unlock()

	lead := core.NewLead(d, m.newID, m.clock(), actor)
	m.leads = append(m.leads, lead)
	m.persistLeads()

	m.logger.Debug("lead created", zap.String("lead_id", lead.ID))
	return lead.Clone()
}

// Import creates a lead for every draft and persists once.
func (m *Manager) Import(drafts []core.Draft, actor core.Actor) []core.Lead {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	created := make([]core.Lead, 0, len(drafts))
	for _, d := range drafts {
		lead := core.NewLead(d, m.newID, now, actor)
		m.leads = append(m.leads, lead)
		created = append(created, lead.Clone())
	}
	if len(created) > 0 {
		m.persistLeads()
	}
	m.logger.Debug("leads imported", zap.Int("count", len(created)))
	return created
}

// Update replaces the stored lead with the same id. The stored id, activity
// log and stage clock are kept; edit attribution and score are restamped.
// A different valid stage is applied as a Move; an invalid one is ignored.
// A miss is a no-op.
func (m *Manager) Update(lead core.Lead, actor core.Actor) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(lead, actor)
}

func (m *Manager) updateLocked(lead core.Lead, actor core.Actor) bool {
	i := m.indexOf(lead.ID)
	if i < 0 {
		m.logger.Debug("update: lead not found", zap.String("lead_id", lead.ID))
		return false
	}
	now := m.clock()
	stored := m.leads[i]

	next := lead.Clone()
	next.ID = stored.ID
	next.Activities = stored.Activities
	next.PipelineStage = stored.PipelineStage
	next.StageEnteredDate = stored.StageEnteredDate
	next.DealValue = core.SanitizeDealValue(next.DealValue)
	next.Tags = core.NormalizeTags(next.Tags)
	if next.Notes == nil {
		next.Notes = []core.Note{}
	}
	next.LastEditedBy = actor.Name
	next.LastEditedAt = &now
	next.LeadScore = core.Score(next, now)
	m.leads[i] = next

	if lead.PipelineStage != stored.PipelineStage {
		if lead.PipelineStage.Valid() {
			m.moveLocked(i, lead.PipelineStage, actor, now)
		} else {
			m.logger.Debug("update: unknown stage ignored", zap.String("stage", string(lead.PipelineStage)))
		}
	}

	m.persistLeads()
	return true
}

// Move places the lead in stage, resets its stage clock and records a
// Stage Change activity. Unknown leads or stages are a no-op.
func (m *Manager) Move(id string, stage core.Stage, actor core.Actor) bool {
	if !stage.Valid() {
		m.logger.Debug("move: unknown stage", zap.String("stage", string(stage)))
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		m.logger.Debug("move: lead not found", zap.String("lead_id", id))
		return false
	}
	m.moveLocked(i, stage, actor, m.clock())
	m.persistLeads()
	return true
}

// moveLocked applies a stage transition to m.leads[i]. Callers hold m.mu and persist.
func (m *Manager) moveLocked(i int, stage core.Stage, actor core.Actor, now time.Time) {
	lead := &m.leads[i]
	from := lead.PipelineStage

	lead.PipelineStage = stage
	lead.StageEnteredDate = now
	lead.LastEditedBy = actor.Name
	lead.LastEditedAt = &now

	description := "Moved to " + stage.Label()
	if actor.Name != "" {
		description = actor.Name + " moved to " + stage.Label()
	}
	activity := m.newActivity(lead.ID, core.ActivityStageChange, description, actor, now)
	activity.Metadata = map[string]string{"from": string(from), "to": string(stage)}
	lead.Activities = append([]core.Activity{activity}, lead.Activities...)
	lead.LeadScore = core.Score(*lead, now)
}

// Delete removes the lead. When sel refers to it, sel is cleared.
func (m *Manager) Delete(id string, sel *Selection) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sel != nil && sel.LeadID == id {
		sel.LeadID = ""
	}
	i := m.indexOf(id)
	if i < 0 {
		m.logger.Debug("delete: lead not found", zap.String("lead_id", id))
		return false
	}
	m.leads = append(m.leads[:i:i], m.leads[i+1:]...)
	m.persistLeads()
	m.unlinkTasksLocked(id)
	return true
}

// AddActivity prepends an activity to the lead's log. A miss is a no-op.
func (m *Manager) AddActivity(leadID string, t core.ActivityType, description string, actor core.Actor) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addActivityLocked(leadID, t, description, actor)
}

func (m *Manager) addActivityLocked(leadID string, t core.ActivityType, description string, actor core.Actor) bool {
	i := m.indexOf(leadID)
	if i < 0 {
		m.logger.Debug("add activity: lead not found", zap.String("lead_id", leadID))
		return false
	}
	now := m.clock()
	activity := m.newActivity(leadID, t, strings.TrimSpace(description), actor, now)
	lead := &m.leads[i]
	lead.Activities = append([]core.Activity{activity}, lead.Activities...)
	m.persistLeads()
	return true
}

// AddNote prepends a note and records a Note activity. Blank content is ignored.
func (m *Manager) AddNote(leadID, content string, actor core.Actor) bool {
	content = strings.TrimSpace(content)
	if content == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(leadID)
	if i < 0 {
		m.logger.Debug("add note: lead not found", zap.String("lead_id", leadID))
		return false
	}
	lead := m.leads[i].Clone()
	note := core.Note{
		ID:        m.newID(),
		Content:   content,
		CreatedAt: m.clock(),
		UserID:    actor.ID,
		UserName:  actor.Name,
	}
	lead.Notes = append([]core.Note{note}, lead.Notes...)
	m.updateLocked(lead, actor)

	who := actor.Name
	if who == "" {
		who = "Someone"
	}
	return m.addActivityLocked(leadID, core.ActivityNote, who+" added a note", actor)
}

// AddTag attaches tag to the lead. Blank or duplicate tags are ignored.
func (m *Manager) AddTag(leadID, tag string, actor core.Actor) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(leadID)
	if i < 0 {
		return false
	}
	if m.leads[i].HasTag(tag) {
		m.logger.Debug("duplicate tag ignored", zap.String("lead_id", leadID), zap.String("tag", tag))
		return false
	}
	lead := m.leads[i].Clone()
	lead.Tags = append(lead.Tags, tag)
	return m.updateLocked(lead, actor)
}

// RemoveTag detaches tag from the lead. It reports whether the tag was present.
func (m *Manager) RemoveTag(leadID, tag string, actor core.Actor) bool {
	tag = strings.TrimSpace(tag)

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(leadID)
	if i < 0 || !m.leads[i].HasTag(tag) {
		return false
	}
	lead := m.leads[i].Clone()
	kept := lead.Tags[:0]
	for _, t := range lead.Tags {
		if t != tag {
			kept = append(kept, t)
		}
	}
	lead.Tags = kept
	return m.updateLocked(lead, actor)
}

// Get returns a copy of the lead with the given id.
func (m *Manager) Get(id string) (core.Lead, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return core.Lead{}, false
	}
	return m.leads[i].Clone(), true
}

// Leads returns a snapshot of the whole collection in creation order.
func (m *Manager) Leads() []core.Lead {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneLeads(m.leads)
}

// Filter returns a snapshot of the leads matching f.
func (m *Manager) Filter(f core.Filter) []core.Lead {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneLeads(core.FilterLeads(m.leads, f.Normalize()))
}

// Presets returns the saved filter presets.
func (m *Manager) Presets() []core.FilterPreset {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clonePresets(m.presets)
}

// SavePreset stores p, replacing any preset with the same id. An empty id is assigned.
func (m *Manager) SavePreset(p core.FilterPreset) core.FilterPreset {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = m.newID()
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Filters = p.Filters.Normalize()

	kept := make([]core.FilterPreset, 0, len(m.presets)+1)
	for _, existing := range m.presets {
		if existing.ID != p.ID {
			kept = append(kept, existing)
		}
	}
	m.presets = append(kept, p)
	m.persistPresets()
	return p
}

// DeletePreset removes the preset with the given id.
func (m *Manager) DeletePreset(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.presets {
		if p.ID == id {
			m.presets = append(m.presets[:i:i], m.presets[i+1:]...)
			m.persistPresets()
			return true
		}
	}
	return false
}

// FindPreset looks a preset up by id, then by case-insensitive name.
func (m *Manager) FindPreset(idOrName string) (core.FilterPreset, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.presets {
		if p.ID == idOrName {
			return clonePresets([]core.FilterPreset{p})[0], true
		}
	}
	for _, p := range m.presets {
		if strings.EqualFold(p.Name, strings.TrimSpace(idOrName)) {
			return clonePresets([]core.FilterPreset{p})[0], true
		}
	}
	return core.FilterPreset{}, false
}

// Settings returns the current settings.
func (m *Manager) Settings() core.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// SetSettings replaces the settings after normalising them.
func (m *Manager) SetSettings(s core.Settings) core.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings = s.Normalize()
	m.persistSettings()
	return m.settings
}
