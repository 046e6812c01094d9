package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/divijg19/clawtrack/internal/core"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeGateway struct {
	mu       sync.Mutex
	leads    []core.Lead
	presets  []core.FilterPreset
	settings core.Settings
	tasks    []core.Task
	saves    int
	failSave error
}

func (g *fakeGateway) LoadLeads(context.Context) []core.Lead {
	g.mu.Lock()
	defer g.mu.Unlock()
	return cloneLeads(g.leads)
}

func (g *fakeGateway) SaveLeads(_ context.Context, leads []core.Lead) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saves++
	if g.failSave != nil {
		return g.failSave
	}
	g.leads = cloneLeads(leads)
	return nil
}

func (g *fakeGateway) LoadPresets(context.Context) []core.FilterPreset {
	g.mu.Lock()
	defer g.mu.Unlock()
	return clonePresets(g.presets)
}

func (g *fakeGateway) SavePresets(_ context.Context, presets []core.FilterPreset) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.presets = clonePresets(presets)
	return nil
}

func (g *fakeGateway) LoadSettings(context.Context) core.Settings {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.settings.StaleThresholdDays == 0 {
		return core.DefaultSettings()
	}
	return g.settings
}

func (g *fakeGateway) SaveSettings(_ context.Context, s core.Settings) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.settings = s
	return nil
}

func (g *fakeGateway) LoadTasks(context.Context) []core.Task {
	g.mu.Lock()
	defer g.mu.Unlock()
	return cloneTasks(g.tasks)
}

func (g *fakeGateway) SaveTasks(_ context.Context, tasks []core.Task) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tasks = cloneTasks(tasks)
	return nil
}

func (g *fakeGateway) storedTasks() []core.Task {
	g.mu.Lock()
	defer g.mu.Unlock()
	return cloneTasks(g.tasks)
}

func (g *fakeGateway) storedLeads() []core.Lead {
	g.mu.Lock()
	defer g.mu.Unlock()
	return cloneLeads(g.leads)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sequentialIDs() core.IDFunc {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var sam = core.Actor{ID: "u1", Name: "Sam"}

func newTestManager(t *testing.T, gw *fakeGateway) (*Manager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	m := NewManager(context.Background(), gw, Options{Clock: clock.Now, NewID: sequentialIDs()})
	t.Cleanup(func() { require.NoError(t, m.Close(context.Background())) })
	return m, clock
}

func TestCreate_Defaults(t *testing.T) {
	m, clock := newTestManager(t, &fakeGateway{})

	lead := m.Create(core.Draft{CompanyName: "Acme"}, sam)

	assert.Equal(t, "Acme", lead.CompanyName)
	assert.Equal(t, core.StageNewLead, lead.PipelineStage)
	assert.Equal(t, core.StatusActive, lead.Status)
	assert.True(t, lead.CreatedDate.Equal(clock.Now()))
	assert.True(t, lead.StageEnteredDate.Equal(clock.Now()))
	require.Len(t, lead.Activities, 1)
	assert.Equal(t, core.ActivityNote, lead.Activities[0].Type)
	assert.Equal(t, "Lead created", lead.Activities[0].Description)
	assert.Equal(t, "Sam", lead.Activities[0].UserName)

	got, ok := m.Get(lead.ID)
	require.True(t, ok)
	assert.Equal(t, lead.ID, got.ID)
}

func TestMove_ResetsStageClockAndRecordsTransition(t *testing.T) {
	m, clock := newTestManager(t, &fakeGateway{})
	lead := m.Create(core.Draft{CompanyName: "Acme"}, sam)

	clock.Advance(72 * time.Hour)
	require.True(t, m.Move(lead.ID, core.StageProposalSent, sam))

	got, _ := m.Get(lead.ID)
	assert.Equal(t, core.StageProposalSent, got.PipelineStage)
	assert.True(t, got.StageEnteredDate.Equal(clock.Now()))
	assert.False(t, got.StageEnteredDate.Equal(lead.CreatedDate))

	var changes []core.Activity
	for _, a := range got.Activities {
		if a.Type == core.ActivityStageChange {
			changes = append(changes, a)
		}
	}
	require.Len(t, changes, 1)
	assert.Equal(t, map[string]string{"from": "new_lead", "to": "proposal_sent"}, changes[0].Metadata)
	assert.Equal(t, "Sam moved to Proposal Sent", changes[0].Description)
	assert.Equal(t, changes[0].ID, got.Activities[0].ID)
}

func TestMove_AnonymousAndBackwards(t *testing.T) {
	m, _ := newTestManager(t, &fakeGateway{})
	lead := m.Create(core.Draft{CompanyName: "Acme", PipelineStage: core.StageClosedWon}, core.Actor{})

	require.True(t, m.Move(lead.ID, core.StageContacted, core.Actor{}))
	got, _ := m.Get(lead.ID)
	assert.Equal(t, "Moved to Contacted", got.Activities[0].Description)
	assert.Equal(t, "closed_won", got.Activities[0].Metadata["from"])
}

func TestMove_NoOps(t *testing.T) {
	m, _ := newTestManager(t, &fakeGateway{})
	lead := m.Create(core.Draft{CompanyName: "Acme"}, sam)

	assert.False(t, m.Move("missing", core.StageContacted, sam))
	assert.False(t, m.Move(lead.ID, core.Stage("bogus"), sam))

	got, _ := m.Get(lead.ID)
	assert.Equal(t, core.StageNewLead, got.PipelineStage)
	assert.Len(t, got.Activities, 1)
}

func TestUpdate_PreservesActivitiesAndStampsEditor(t *testing.T) {
	m, clock := newTestManager(t, &fakeGateway{})
	lead := m.Create(core.Draft{CompanyName: "Acme"}, sam)

	clock.Advance(time.Hour)
	edited := lead
	edited.CompanyName = "Acme Corp"
	edited.DealValue = -10
	edited.Activities = nil
	edited.Title = "CEO"

	editor := core.Actor{ID: "u2", Name: "Riley"}
	require.True(t, m.Update(edited, editor))

	got, _ := m.Get(lead.ID)
	assert.Equal(t, "Acme Corp", got.CompanyName)
	assert.Equal(t, 0.0, got.DealValue)
	assert.Equal(t, "Riley", got.LastEditedBy)
	require.NotNil(t, got.LastEditedAt)
	assert.True(t, got.LastEditedAt.Equal(clock.Now()))
	assert.Len(t, got.Activities, 1)
	assert.Equal(t, 25, got.LeadScore)
}

func TestUpdate_UnknownIDIsNoOp(t *testing.T) {
	m, _ := newTestManager(t, &fakeGateway{})
	m.Create(core.Draft{CompanyName: "Acme"}, sam)

	assert.False(t, m.Update(core.Lead{ID: "ghost", CompanyName: "Ghost"}, sam))
	assert.Len(t, m.Leads(), 1)
}

func TestUpdate_StageChangeResetsStageClock(t *testing.T) {
	m, clock := newTestManager(t, &fakeGateway{})
	lead := m.Create(core.Draft{CompanyName: "Acme"}, sam)

	clock.Advance(72 * time.Hour)
	edited := lead
	edited.PipelineStage = core.StageNegotiation
	edited.StageEnteredDate = lead.CreatedDate.Add(-24 * time.Hour)
	require.True(t, m.Update(edited, sam))

	got, _ := m.Get(lead.ID)
	assert.Equal(t, core.StageNegotiation, got.PipelineStage)
	assert.True(t, got.StageEnteredDate.Equal(clock.Now()))
	assert.Zero(t, core.DaysInStage(got, clock.Now()))
	require.Len(t, got.Activities, 2)
	assert.Equal(t, core.ActivityStageChange, got.Activities[0].Type)
	assert.Equal(t, map[string]string{"from": "new_lead", "to": "negotiation"}, got.Activities[0].Metadata)
}

func TestUpdate_KeepsStageClockWithoutTransition(t *testing.T) {
	m, clock := newTestManager(t, &fakeGateway{})
	lead := m.Create(core.Draft{CompanyName: "Acme"}, sam)

	clock.Advance(72 * time.Hour)
	edited := lead
	edited.City = "Austin"
	edited.StageEnteredDate = clock.Now()
	require.True(t, m.Update(edited, sam))

	bogus := edited
	bogus.PipelineStage = core.Stage("bogus")
	require.True(t, m.Update(bogus, sam))

	got, _ := m.Get(lead.ID)
	assert.Equal(t, "Austin", got.City)
	assert.Equal(t, core.StageNewLead, got.PipelineStage)
	assert.True(t, got.StageEnteredDate.Equal(lead.StageEnteredDate))
	assert.Equal(t, 3, core.DaysInStage(got, clock.Now()))
	assert.Len(t, got.Activities, 1)
}

func TestDelete_ClearsMatchingSelection(t *testing.T) {
	m, _ := newTestManager(t, &fakeGateway{})
	a := m.Create(core.Draft{CompanyName: "A"}, sam)
	b := m.Create(core.Draft{CompanyName: "B"}, sam)

	sel := &Selection{LeadID: b.ID}
	require.True(t, m.Delete(a.ID, sel))
	assert.Equal(t, b.ID, sel.LeadID)

	require.True(t, m.Delete(b.ID, sel))
	assert.Empty(t, sel.LeadID)
	assert.Empty(t, m.Leads())

	assert.False(t, m.Delete("missing", nil))
}

func TestAddActivity(t *testing.T) {
	m, _ := newTestManager(t, &fakeGateway{})
	lead := m.Create(core.Draft{CompanyName: "Acme"}, sam)

	require.True(t, m.AddActivity(lead.ID, core.ActivityCall, "  intro call ", sam))
	assert.False(t, m.AddActivity("missing", core.ActivityCall, "x", sam))

	got, _ := m.Get(lead.ID)
	require.Len(t, got.Activities, 2)
	assert.Equal(t, core.ActivityCall, got.Activities[0].Type)
	assert.Equal(t, "intro call", got.Activities[0].Description)
	assert.Equal(t, lead.ID, got.Activities[0].LeadID)
}

func TestAddNote(t *testing.T) {
	m, _ := newTestManager(t, &fakeGateway{})
	lead := m.Create(core.Draft{CompanyName: "Acme"}, core.Actor{})

	require.True(t, m.AddNote(lead.ID, "first", sam))
	require.True(t, m.AddNote(lead.ID, "second", core.Actor{}))
	assert.False(t, m.AddNote(lead.ID, "   ", sam))
	assert.False(t, m.AddNote("missing", "text", sam))

	got, _ := m.Get(lead.ID)
	require.Len(t, got.Notes, 2)
	assert.Equal(t, "second", got.Notes[0].Content)
	assert.Equal(t, "first", got.Notes[1].Content)
	assert.Equal(t, "Sam", got.Notes[1].UserName)

	require.Len(t, got.Activities, 3)
	assert.Equal(t, "Someone added a note", got.Activities[0].Description)
	assert.Equal(t, "Sam added a note", got.Activities[1].Description)
}

func TestTags(t *testing.T) {
	m, _ := newTestManager(t, &fakeGateway{})
	lead := m.Create(core.Draft{CompanyName: "Acme"}, sam)

	assert.True(t, m.AddTag(lead.ID, "vip", sam))
	assert.False(t, m.AddTag(lead.ID, "vip", sam))
	assert.False(t, m.AddTag(lead.ID, " ", sam))
	assert.True(t, m.AddTag(lead.ID, "q3", sam))

	got, _ := m.Get(lead.ID)
	assert.Equal(t, []string{"vip", "q3"}, got.Tags)

	assert.True(t, m.RemoveTag(lead.ID, "vip", sam))
	assert.False(t, m.RemoveTag(lead.ID, "vip", sam))
	got, _ = m.Get(lead.ID)
	assert.Equal(t, []string{"q3"}, got.Tags)
}

func TestActivitiesAreAppendOnly(t *testing.T) {
	m, clock := newTestManager(t, &fakeGateway{})
	lead := m.Create(core.Draft{CompanyName: "Acme"}, sam)

	ops := []func(){
		func() { m.Move(lead.ID, core.StageContacted, sam) },
		func() { m.AddActivity(lead.ID, core.ActivityEmail, "sent deck", sam) },
		func() { m.AddNote(lead.ID, "budget approved", sam) },
		func() { m.AddTag(lead.ID, "vip", sam) },
		func() {
			cur, _ := m.Get(lead.ID)
			cur.Activities = []core.Activity{{ID: "forged"}}
			m.Update(cur, sam)
		},
		func() { m.Move(lead.ID, core.StageClosedWon, sam) },
	}

	prev, _ := m.Get(lead.ID)
	for i, op := range ops {
		clock.Advance(time.Minute)
		op()
		cur, _ := m.Get(lead.ID)
		require.GreaterOrEqual(t, len(cur.Activities), len(prev.Activities), "op %d", i)

		// The old log is the tail of the new one.
		tail := cur.Activities[len(cur.Activities)-len(prev.Activities):]
		if diff := cmp.Diff(prev.Activities, tail); diff != "" {
			t.Fatalf("op %d rewrote history (-before +after):\n%s", i, diff)
		}
		prev = cur
	}
}

func TestSnapshotsDoNotAlias(t *testing.T) {
	m, _ := newTestManager(t, &fakeGateway{})
	lead := m.Create(core.Draft{CompanyName: "Acme", Tags: []string{"a"}}, sam)

	snap := m.Leads()
	snap[0].Tags[0] = "mutated"
	snap[0].Activities[0].Description = "mutated"

	got, _ := m.Get(lead.ID)
	assert.Equal(t, []string{"a"}, got.Tags)
	assert.Equal(t, "Lead created", got.Activities[0].Description)
}

func TestFilter(t *testing.T) {
	m, _ := newTestManager(t, &fakeGateway{})
	m.Create(core.Draft{CompanyName: "A", Industry: "Real Estate", City: "NY"}, sam)
	m.Create(core.Draft{CompanyName: "B", Industry: "Real Estate", City: "LA"}, sam)

	got := m.Filter(core.Filter{Industry: "Real Estate", City: " ny "})
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].CompanyName)
}

func TestCreatePersistLoadRoundTrip(t *testing.T) {
	gw := &fakeGateway{}
	m, _ := newTestManager(t, gw)

	lead := m.Create(core.Draft{
		CompanyName: "Acme",
		ContactName: "Jane",
		DealValue:   5000,
		Tags:        []string{"vip"},
		Notes:       []string{"met at expo"},
	}, sam)
	require.NoError(t, m.Flush(context.Background()))

	reloaded := NewManager(context.Background(), gw, Options{})
	defer func() { require.NoError(t, reloaded.Close(context.Background())) }()

	got, ok := reloaded.Get(lead.ID)
	require.True(t, ok)
	if diff := cmp.Diff(lead, got); diff != "" {
		t.Fatalf("reloaded lead differs (-want +got):\n%s", diff)
	}
}

func TestImport_PersistsOnce(t *testing.T) {
	gw := &fakeGateway{}
	m, _ := newTestManager(t, gw)

	created := m.Import([]core.Draft{{CompanyName: "A"}, {ContactName: "B"}}, sam)
	require.Len(t, created, 2)
	require.NoError(t, m.Flush(context.Background()))

	assert.Len(t, gw.storedLeads(), 2)
	assert.Equal(t, 1, gw.saves)
}

func TestWriteFailuresAreLoggedNotReturned(t *testing.T) {
	observed, logs := observer.New(zapcore.ErrorLevel)
	gw := &fakeGateway{failSave: errors.New("disk full")}
	m := NewManager(context.Background(), gw, Options{Logger: zap.New(observed)})

	lead := m.Create(core.Draft{CompanyName: "Acme"}, sam)
	require.NoError(t, m.Close(context.Background()))

	_, ok := m.Get(lead.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("persist failed").Len())
}

func TestPresets(t *testing.T) {
	gw := &fakeGateway{}
	m, _ := newTestManager(t, gw)

	p := m.SavePreset(core.FilterPreset{Name: "NY", Filters: core.Filter{City: "NY"}})
	require.NotEmpty(t, p.ID)

	p.Name = "New York"
	m.SavePreset(p)
	require.Len(t, m.Presets(), 1)
	assert.Equal(t, "New York", m.Presets()[0].Name)

	found, ok := m.FindPreset("new york")
	require.True(t, ok)
	assert.Equal(t, p.ID, found.ID)

	require.NoError(t, m.Flush(context.Background()))
	gw.mu.Lock()
	assert.Len(t, gw.presets, 1)
	gw.mu.Unlock()

	assert.True(t, m.DeletePreset(p.ID))
	assert.False(t, m.DeletePreset(p.ID))
	assert.Empty(t, m.Presets())
}

func TestSettings(t *testing.T) {
	gw := &fakeGateway{}
	m, _ := newTestManager(t, gw)

	assert.Equal(t, core.DefaultStaleThresholdDays, m.Settings().StaleThresholdDays)
	assert.Equal(t, 14, m.SetSettings(core.Settings{StaleThresholdDays: 14}).StaleThresholdDays)
	assert.Equal(t, core.DefaultStaleThresholdDays, m.SetSettings(core.Settings{StaleThresholdDays: -1}).StaleThresholdDays)

	require.NoError(t, m.Flush(context.Background()))
	gw.mu.Lock()
	assert.Equal(t, core.DefaultStaleThresholdDays, gw.settings.StaleThresholdDays)
	gw.mu.Unlock()
}

func TestFlushAfterClose(t *testing.T) {
	gw := &fakeGateway{}
	m := NewManager(context.Background(), gw, Options{})
	require.NoError(t, m.Close(context.Background()))
	require.NoError(t, m.Close(context.Background()))

	lead := m.Create(core.Draft{CompanyName: "Late"}, sam)
	require.NoError(t, m.Flush(context.Background()))

	stored := gw.storedLeads()
	require.Len(t, stored, 1)
	assert.Equal(t, lead.ID, stored[0].ID)
}
