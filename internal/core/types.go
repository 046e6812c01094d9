package core

import (
	"strings"
	"time"
)

// Stage represents the pipeline position of a lead.
type Stage string

const (
	StageNewLead            Stage = "new_lead"
	StageContacted          Stage = "contacted"
	StageDiscoveryScheduled Stage = "discovery_scheduled"
	StageDiscoveryComplete  Stage = "discovery_complete"
	StageProposalSent       Stage = "proposal_sent"
	StageNegotiation        Stage = "negotiation"
	StageClosedWon          Stage = "closed_won"
	StageClosedLost         Stage = "closed_lost"
)

// StageInfo pairs a stage key with its display label.
type StageInfo struct {
	Key   Stage
	Label string
}

// Stages lists every pipeline stage in board order.
var Stages = []StageInfo{
	{StageNewLead, "New Lead"},
	{StageContacted, "Contacted"},
	{StageDiscoveryScheduled, "Discovery Scheduled"},
	{StageDiscoveryComplete, "Discovery Complete"},
	{StageProposalSent, "Proposal Sent"},
	{StageNegotiation, "Negotiation"},
	{StageClosedWon, "Closed Won"},
	{StageClosedLost, "Closed Lost"},
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	return s.Index() >= 0
}

// Index returns the board position of s, or -1.
func (s Stage) Index() int {
	for i, info := range Stages {
		if info.Key == s {
			return i
		}
	}
	return -1
}

// Label returns the display label for s.
func (s Stage) Label() string {
	if i := s.Index(); i >= 0 {
		return Stages[i].Label
	}
	return string(s)
}

// Closed reports whether s is a terminal sales outcome.
func (s Stage) Closed() bool {
	return s == StageClosedWon || s == StageClosedLost
}

// ParseStage resolves a stage key or label, case-insensitively.
func ParseStage(v string) (Stage, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	normalized := strings.ToLower(strings.Join(strings.Fields(v), "_"))
	for _, info := range Stages {
		if string(info.Key) == normalized || strings.EqualFold(info.Label, v) {
			return info.Key, true
		}
	}
	return "", false
}

// Status is the commercial status of a lead, independent of its stage.
type Status string

const (
	StatusActive Status = "Active"
	StatusOnHold Status = "On Hold"
	StatusLost   Status = "Lost"
	StatusWon    Status = "Won"
)

// Statuses lists the accepted statuses.
var Statuses = []Status{StatusActive, StatusOnHold, StatusLost, StatusWon}

// ParseStatus resolves a status case-insensitively.
func ParseStatus(v string) (Status, bool) {
	v = strings.TrimSpace(v)
	for _, s := range Statuses {
		if strings.EqualFold(string(s), v) {
			return s, true
		}
	}
	return "", false
}

// ActivityType classifies an audit entry.
type ActivityType string

const (
	ActivityCall        ActivityType = "Call"
	ActivityEmail       ActivityType = "Email"
	ActivityMeeting     ActivityType = "Meeting"
	ActivityNote        ActivityType = "Note"
	ActivityStageChange ActivityType = "Stage Change"
	ActivityFollowUp    ActivityType = "Follow-Up"
)

// LoggableActivities are the types a user may record by hand.
var LoggableActivities = []ActivityType{ActivityCall, ActivityEmail, ActivityMeeting, ActivityNote, ActivityFollowUp}

// ParseActivityType resolves an activity type case-insensitively.
func ParseActivityType(v string) (ActivityType, bool) {
	v = strings.TrimSpace(v)
	all := append([]ActivityType{ActivityStageChange}, LoggableActivities...)
	for _, t := range all {
		if strings.EqualFold(string(t), v) {
			return t, true
		}
	}
	return "", false
}

// Reference vocabularies offered by the add/edit forms.
var (
	Industries = []string{
		"Real Estate", "Law Firm", "Dental/Medical", "Financial Advisory",
		"Marketing Agency", "B2B Sales", "Construction", "E-Commerce", "Other",
	}
	CompanySizes = []string{"1-5", "6-15", "16-50", "51-200", "200+"}
	LeadSources  = []string{"Cold Call", "Cold Email", "Website Inbound", "Referral", "LinkedIn", "Event", "Other"}
)

// Actor identifies who performed an operation. The zero value is anonymous.
type Actor struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// IsZero reports whether no actor is attached.
func (a Actor) IsZero() bool {
	return a.ID == "" && a.Name == ""
}

// Activity is an immutable audit record for a lead.
type Activity struct {
	ID          string            `json:"id"`
	LeadID      string            `json:"leadId"`
	Type        ActivityType      `json:"type"`
	Description string            `json:"description"`
	Timestamp   time.Time         `json:"timestamp"`
	UserID      string            `json:"userId,omitempty"`
	UserName    string            `json:"userName,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Note is a single free-text entry on a lead.
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UserID    string    `json:"userId,omitempty"`
	UserName  string    `json:"userName,omitempty"`
}

// Lead is the current snapshot of a prospective customer.
type Lead struct {
	ID                      string     `json:"id"`
	CompanyName             string     `json:"companyName"`
	ContactName             string     `json:"contactName"`
	Title                   string     `json:"title"`
	Email                   string     `json:"email"`
	Phone                   string     `json:"phone"`
	Website                 string     `json:"website"`
	Industry                string     `json:"industry"`
	CompanySize             string     `json:"companySize"`
	EstimatedMonthlyRevenue string     `json:"estimatedMonthlyRevenue"`
	City                    string     `json:"city"`
	LeadSource              string     `json:"leadSource"`
	LeadScore               int        `json:"leadScore"`
	PipelineStage           Stage      `json:"pipelineStage"`
	DealValue               float64    `json:"dealValue"`
	ExpectedCloseDate       *time.Time `json:"expectedCloseDate,omitempty"`
	AssignedTo              string     `json:"assignedTo"`
	LastContactDate         *time.Time `json:"lastContactDate,omitempty"`
	NextFollowUpDate        *time.Time `json:"nextFollowUpDate,omitempty"`
	Notes                   []Note     `json:"notes"`
	Tags                    []string   `json:"tags"`
	CreatedDate             time.Time  `json:"createdDate"`
	Status                  Status     `json:"status"`
	LostReason              string     `json:"lostReason,omitempty"`
	StageEnteredDate        time.Time  `json:"stageEnteredDate"`
	Activities              []Activity `json:"activities"`
	LastEditedBy            string     `json:"lastEditedBy,omitempty"`
	LastEditedAt            *time.Time `json:"lastEditedAt,omitempty"`
}

// HasTag reports whether tag is attached to the lead.
func (l Lead) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// DisplayName returns the company name, falling back to the contact.
func (l Lead) DisplayName() string {
	if l.CompanyName != "" {
		return l.CompanyName
	}
	if l.ContactName != "" {
		return l.ContactName
	}
	return "Untitled Lead"
}

// Clone returns a deep copy of l that shares no mutable state with it.
func (l Lead) Clone() Lead {
	c := l
	c.ExpectedCloseDate = cloneTime(l.ExpectedCloseDate)
	c.LastContactDate = cloneTime(l.LastContactDate)
	c.NextFollowUpDate = cloneTime(l.NextFollowUpDate)
	c.LastEditedAt = cloneTime(l.LastEditedAt)

	c.Tags = append(make([]string, 0, len(l.Tags)), l.Tags...)
	c.Notes = append(make([]Note, 0, len(l.Notes)), l.Notes...)
	c.Activities = make([]Activity, len(l.Activities))
	for i, a := range l.Activities {
		c.Activities[i] = a.clone()
	}
	return c
}

func (a Activity) clone() Activity {
	if a.Metadata == nil {
		return a
	}
	m := make(map[string]string, len(a.Metadata))
	for k, v := range a.Metadata {
		m[k] = v
	}
	a.Metadata = m
	return a
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// FilterPreset is a named, saved filter.
type FilterPreset struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Filters Filter `json:"filters"`
}

// DefaultStaleThresholdDays is the number of days in one stage before a lead counts as stale.
const DefaultStaleThresholdDays = 7

// Settings holds user-adjustable application settings.
type Settings struct {
	StaleThresholdDays int `json:"staleThresholdDays"`
}

// DefaultSettings returns the default settings.
func DefaultSettings() Settings {
	return Settings{StaleThresholdDays: DefaultStaleThresholdDays}
}

// Normalize replaces invalid values with defaults.
func (s Settings) Normalize() Settings {
	if s.StaleThresholdDays <= 0 {
		s.StaleThresholdDays = DefaultStaleThresholdDays
	}
	return s
}

// Role is a user's advisory permission level.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleManager  Role = "Manager"
	RoleSalesRep Role = "Sales Rep"
)

// ParseRole resolves a role case-insensitively.
func ParseRole(v string) (Role, bool) {
	v = strings.TrimSpace(v)
	for _, r := range []Role{RoleAdmin, RoleManager, RoleSalesRep} {
		if strings.EqualFold(string(r), v) {
			return r, true
		}
	}
	return "", false
}

// User is a registered team member.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Role         Role      `json:"role"`
	AvatarColor  string    `json:"avatarColor"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	LastLoginAt  time.Time `json:"lastLoginAt"`
}

// Actor returns the attribution handle for u.
func (u User) Actor() Actor {
	return Actor{ID: u.ID, Name: u.Name}
}
