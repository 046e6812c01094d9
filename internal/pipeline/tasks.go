package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/divijg19/clawtrack/internal/core"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskTitle    = errors.New("task title is required")
	ErrUnknownLead  = errors.New("linked lead does not exist")
	ErrTaskStatus   = errors.New("unknown task status")
	ErrTaskPriority = errors.New("unknown task priority")
)

func (m *Manager) persistTasks() {
	snapshot := cloneTasks(m.tasks)
	m.writer.enqueue("tasks", func(ctx context.Context) error {
		return m.gateway.SaveTasks(ctx, snapshot)
	})
}

func cloneTasks(tasks []core.Task) []core.Task {
	out := make([]core.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

func (m *Manager) taskIndex(id string) int {
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// checkTaskDraft validates d against the current lead collection. Callers hold m.mu.
func (m *Manager) checkTaskDraft(d core.TaskDraft) error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTaskTitle
	}
	if d.Priority != "" {
		if _, ok := core.ParseTaskPriority(string(d.Priority)); !ok {
			return fmt.Errorf("%w %q", ErrTaskPriority, d.Priority)
		}
	}
	if id := strings.TrimSpace(d.LeadID); id != "" && m.indexOf(id) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownLead, id)
	}
	return nil
}

// CreateTask adds a todo task built from d and returns a copy.
func (m *Manager) CreateTask(d core.TaskDraft, actor core.Actor) (core.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkTaskDraft(d); err != nil {
		return core.Task{}, fmt.Errorf("create task: %w", err)
	}
	task := core.NewTask(d, m.newID, m.clock(), actor)
	m.tasks = append(m.tasks, task)
	m.persistTasks()

	m.logger.Debug("task created", zap.String("task_id", task.ID))
	return task.Clone(), nil
}

// UpdateTask replaces the editable fields of task id with d.
// Status and completion time are left alone.
func (m *Manager) UpdateTask(id string, d core.TaskDraft) (core.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.taskIndex(id)
	if i < 0 {
		return core.Task{}, fmt.Errorf("update task %s: %w", id, ErrTaskNotFound)
	}
	if err := m.checkTaskDraft(d); err != nil {
		return core.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}
	t := &m.tasks[i]
	t.Title = strings.TrimSpace(d.Title)
	t.Description = strings.TrimSpace(d.Description)
	t.AssignedTo = strings.TrimSpace(d.AssignedTo)
	t.LeadID = strings.TrimSpace(d.LeadID)
	if d.DueDate != nil {
		due := *d.DueDate
		t.DueDate = &due
	} else {
		t.DueDate = nil
	}
	if p, ok := core.ParseTaskPriority(string(d.Priority)); ok {
		t.Priority = p
	}
	m.persistTasks()
	return t.Clone(), nil
}

// MoveTask sets the status of task id. Entering done stamps the completion
// time; leaving done clears it. Moving to the current status is a no-op.
func (m *Manager) MoveTask(id string, status core.TaskStatus) (core.Task, error) {
	s, ok := core.ParseTaskStatus(string(status))
	if !ok {
		return core.Task{}, fmt.Errorf("move task %s: %w %q", id, ErrTaskStatus, status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.taskIndex(id)
	if i < 0 {
		return core.Task{}, fmt.Errorf("move task %s: %w", id, ErrTaskNotFound)
	}
	t := &m.tasks[i]
	if t.Status == s {
		return t.Clone(), nil
	}
	t.Status = s
	if s == core.TaskDone {
		now := m.clock()
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
	m.persistTasks()
	return t.Clone(), nil
}

// DeleteTask removes task id. It reports whether the task existed.
func (m *Manager) DeleteTask(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.taskIndex(id)
	if i < 0 {
		return false
	}
	m.tasks = append(m.tasks[:i:i], m.tasks[i+1:]...)
	m.persistTasks()
	return true
}

// Task returns a copy of task id.
func (m *Manager) Task(id string) (core.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.taskIndex(id)
	if i < 0 {
		return core.Task{}, false
	}
	return m.tasks[i].Clone(), true
}

// Tasks returns the tasks matching f, newest first.
func (m *Manager) Tasks(f core.TaskFilter) []core.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	out := make([]core.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if f.Match(t, now) {
			out = append(out, t.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// unlinkTasksLocked drops the lead link from tasks pointing at leadID.
func (m *Manager) unlinkTasksLocked(leadID string) {
	changed := false
	for i := range m.tasks {
		if m.tasks[i].LeadID == leadID {
			m.tasks[i].LeadID = ""
			changed = true
		}
	}
	if changed {
		m.persistTasks()
	}
}
