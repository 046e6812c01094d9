package core

import (
	"strings"
	"time"
)

// TaskPriority ranks a task's urgency.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
	PriorityUrgent TaskPriority = "Urgent"
)

// TaskPriorities lists the priorities from least to most urgent.
var TaskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// ParseTaskPriority resolves a priority case-insensitively.
func ParseTaskPriority(v string) (TaskPriority, bool) {
	v = strings.TrimSpace(v)
	for _, p := range TaskPriorities {
		if strings.EqualFold(string(p), v) {
			return p, true
		}
	}
	return "", false
}

// TaskStatus is the board column of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// TaskStatuses pairs every status with its column label, in board order.
var TaskStatuses = []struct {
	Key   TaskStatus
	Label string
}{
	{TaskTodo, "To Do"},
	{TaskInProgress, "In Progress"},
	{TaskDone, "Done"},
}

// Label returns the column label for s.
func (s TaskStatus) Label() string {
	for _, info := range TaskStatuses {
		if info.Key == s {
			return info.Label
		}
	}
	return string(s)
}

// ParseTaskStatus resolves a status key or label, case-insensitively.
func ParseTaskStatus(v string) (TaskStatus, bool) {
	v = strings.TrimSpace(v)
	normalized := strings.ToLower(strings.Join(strings.Fields(v), "_"))
	for _, info := range TaskStatuses {
		if string(info.Key) == normalized || strings.EqualFold(info.Label, v) {
			return info.Key, true
		}
	}
	return "", false
}

// Task is a unit of follow-up work, optionally linked to a lead.
type Task struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	AssignedTo    string       `json:"assignedTo"`
	LeadID        string       `json:"leadId,omitempty"`
	DueDate       *time.Time   `json:"dueDate,omitempty"`
	Priority      TaskPriority `json:"priority"`
	Status        TaskStatus   `json:"status"`
	CreatedBy     string       `json:"createdBy,omitempty"`
	CreatedByName string       `json:"createdByName,omitempty"`
	CompletedAt   *time.Time   `json:"completedAt,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// Clone returns a copy of t that shares no pointers with it.
func (t Task) Clone() Task {
	c := t
	c.DueDate = cloneTime(t.DueDate)
	c.CompletedAt = cloneTime(t.CompletedAt)
	return c
}

// TaskDraft holds the user-editable fields of a task.
type TaskDraft struct {
	Title       string
	Description string
	AssignedTo  string
	LeadID      string
	DueDate     *time.Time
	Priority    TaskPriority
}

// NewTask builds a todo task from d. An unknown priority becomes Medium.
func NewTask(d TaskDraft, newID IDFunc, now time.Time, actor Actor) Task {
	priority, ok := ParseTaskPriority(string(d.Priority))
	if !ok {
		priority = PriorityMedium
	}
	return Task{
		ID:            newID(),
		Title:         strings.TrimSpace(d.Title),
		Description:   strings.TrimSpace(d.Description),
		AssignedTo:    strings.TrimSpace(d.AssignedTo),
		LeadID:        strings.TrimSpace(d.LeadID),
		DueDate:       cloneTime(d.DueDate),
		Priority:      priority,
		Status:        TaskTodo,
		CreatedBy:     actor.ID,
		CreatedByName: actor.Name,
		CreatedAt:     now.UTC(),
	}
}

// TaskOverdue reports whether an unfinished task's due date lies before now.
func TaskOverdue(t Task, now time.Time) bool {
	if t.DueDate == nil || t.Status == TaskDone {
		return false
	}
	return t.DueDate.Before(now)
}

// TaskFilter narrows a task list. Zero fields match everything.
type TaskFilter struct {
	AssignedTo string
	Priority   TaskPriority
	Status     TaskStatus
	LeadID     string
	Overdue    bool
}

// Match reports whether t satisfies every set criterion at time now.
func (f TaskFilter) Match(t Task, now time.Time) bool {
	if f.AssignedTo != "" && !strings.EqualFold(t.AssignedTo, strings.TrimSpace(f.AssignedTo)) {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.LeadID != "" && t.LeadID != f.LeadID {
		return false
	}
	if f.Overdue && !TaskOverdue(t, now) {
		return false
	}
	return true
}
