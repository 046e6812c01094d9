package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/divijg19/clawtrack/internal/core"
)

func addTaskCommands(root *cobra.Command) {
	taskCmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Manage follow-up tasks",
		Long: `Tasks are follow-up work items on a three-column board
(todo, in_progress, done). A task may be linked to a lead.

Examples:
  clawtrack task add "Send contract" --assign Sam --due 2025-04-01 --priority high --lead .
  clawtrack task list --assign Sam --overdue
  clawtrack task move 1a2b3c4d done`,
	}
	taskCmd.AddCommand(newTaskAddCmd(), newTaskListCmd(), newTaskMoveCmd(), newTaskEditCmd(), newTaskDeleteCmd())
	root.AddCommand(taskCmd)
}

// taskFlags binds the editable task fields shared by add and edit.
type taskFlags struct {
	title, description, assign, lead, due, priority string
}

func (f *taskFlags) bind(cmd *cobra.Command, withTitle bool) {
	fl := cmd.Flags()
	if withTitle {
		fl.StringVar(&f.title, "title", "", "task title")
	}
	fl.StringVarP(&f.description, "desc", "d", "", "description")
	fl.StringVar(&f.assign, "assign", "", "assigned team member")
	fl.StringVar(&f.lead, "lead", "", `linked lead id or "." for the selected lead`)
	fl.StringVar(&f.due, "due", "", "due date (YYYY-MM-DD)")
	fl.StringVar(&f.priority, "priority", "", "Low, Medium, High or Urgent")
}

// apply copies the flags set on cmd onto d, resolving the linked lead through a.
func (f *taskFlags) apply(ctx context.Context, cmd *cobra.Command, a *app, d *core.TaskDraft) error {
	changed := cmd.Flags().Changed
	if changed("title") {
		d.Title = f.title
	}
	if changed("desc") {
		d.Description = f.description
	}
	if changed("assign") {
		d.AssignedTo = f.assign
	}
	if changed("priority") {
		p, ok := core.ParseTaskPriority(f.priority)
		if !ok {
			return fmt.Errorf("--priority: unknown priority %q", f.priority)
		}
		d.Priority = p
	}
	if changed("due") {
		due, err := parseDateFlag("due", f.due)
		if err != nil {
			return err
		}
		d.DueDate = due
	}
	if changed("lead") {
		d.LeadID = ""
		if strings.TrimSpace(f.lead) != "" {
			lead, err := a.resolveLead(ctx, f.lead)
			if err != nil {
				return fmt.Errorf("--lead: %w", err)
			}
			d.LeadID = lead.ID
		}
	}
	return nil
}

// resolveTask finds a task by full id or unique id prefix.
func (a *app) resolveTask(ref string) (core.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return core.Task{}, fmt.Errorf("task id is empty")
	}
	if t, ok := a.leads.Task(ref); ok {
		return t, nil
	}
	var match core.Task
	found := 0
	for _, t := range a.leads.Tasks(core.TaskFilter{}) {
		if strings.HasPrefix(t.ID, ref) {
			match = t
			found++
		}
	}
	switch found {
	case 0:
		return core.Task{}, fmt.Errorf("task %q not found", ref)
	case 1:
		return match, nil
	default:
		return core.Task{}, fmt.Errorf("%w: %q matches %d tasks", errAmbiguousID, ref, found)
	}
}

func newTaskAddCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task in the todo column",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				d := core.TaskDraft{Title: strings.Join(args, " ")}
				if err := f.apply(ctx, cmd, a, &d); err != nil {
					return fmt.Errorf("task add: %w", err)
				}
				task, err := a.leads.CreateTask(d, a.actor(ctx))
				if err != nil {
					return fmt.Errorf("task add: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created task %s  %s [%s]\n", shortID(task.ID), task.Title, task.Priority)
				return nil
			})
		},
	}
	f.bind(cmd, false)
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var (
		assign, priority, status, lead string
		overdue                        bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks grouped by board column",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := core.TaskFilter{AssignedTo: assign, Overdue: overdue}
			if priority != "" {
				p, ok := core.ParseTaskPriority(priority)
				if !ok {
					return fmt.Errorf("task list: unknown priority %q", priority)
				}
				f.Priority = p
			}
			if status != "" {
				s, ok := core.ParseTaskStatus(status)
				if !ok {
					return fmt.Errorf("task list: unknown status %q", status)
				}
				f.Status = s
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if lead != "" {
					l, err := a.resolveLead(ctx, lead)
					if err != nil {
						return fmt.Errorf("task list: %w", err)
					}
					f.LeadID = l.ID
				}
				companies := make(map[string]string)
				for _, l := range a.leads.Leads() {
					companies[l.ID] = l.DisplayName()
				}
				renderTasks(cmd.OutOrStdout(), a.leads.Tasks(f), companies, time.Now().UTC())
				return nil
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&assign, "assign", "", "only tasks assigned to this member")
	fl.StringVar(&priority, "priority", "", "only tasks with this priority")
	fl.StringVar(&status, "status", "", "only tasks in this column (todo, in_progress, done)")
	fl.StringVar(&lead, "lead", "", `only tasks linked to this lead ("." for the selected lead)`)
	fl.BoolVar(&overdue, "overdue", false, "only unfinished tasks past their due date")
	return cmd
}

func renderTasks(w io.Writer, tasks []core.Task, companies map[string]string, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks match.")
		return
	}
	for _, col := range core.TaskStatuses {
		var rows []core.Task
		for _, t := range tasks {
			if t.Status == col.Key {
				rows = append(rows, t)
			}
		}
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("%s (%d)", col.Label, len(rows))))
		for _, t := range rows {
			due := fmt.Sprintf("%-10s", dateOrDash(t.DueDate))
			if core.TaskOverdue(t, now) {
				due = alertStyle.Render(due)
			}
			fmt.Fprintf(w, "  %-8s  %-32s %-7s %s  %-12s %s\n",
				shortID(t.ID), truncate(t.Title, 32), t.Priority, due, orDash(t.AssignedTo), orDash(companies[t.LeadID]))
		}
	}
}

func newTaskMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Move a task to todo, in_progress or done",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := core.ParseTaskStatus(args[1])
			if !ok {
				return fmt.Errorf("task move: unknown status %q (want todo, in_progress or done)", args[1])
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				task, err := a.resolveTask(args[0])
				if err != nil {
					return fmt.Errorf("task move: %w", err)
				}
				from := task.Status
				task, err = a.leads.MoveTask(task.ID, status)
				if err != nil {
					return fmt.Errorf("task move: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s → %s\n", task.Title, from.Label(), task.Status.Label())
				return nil
			})
		},
	}
}

func newTaskEditCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit task fields; only the flags given are changed",
		Long: `Edit task fields. Only the flags given are changed.
Pass --lead "" to unlink the task from its lead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				task, err := a.resolveTask(args[0])
				if err != nil {
					return fmt.Errorf("task edit: %w", err)
				}
				d := core.TaskDraft{
					Title:       task.Title,
					Description: task.Description,
					AssignedTo:  task.AssignedTo,
					LeadID:      task.LeadID,
					DueDate:     task.DueDate,
					Priority:    task.Priority,
				}
				if err := f.apply(ctx, cmd, a, &d); err != nil {
					return fmt.Errorf("task edit: %w", err)
				}
				task, err = a.leads.UpdateTask(task.ID, d)
				if err != nil {
					return fmt.Errorf("task edit: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s  %s\n", shortID(task.ID), task.Title)
				return nil
			})
		},
	}
	f.bind(cmd, true)
	return cmd
}

func newTaskDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				task, err := a.resolveTask(args[0])
				if err != nil {
					return fmt.Errorf("task delete: %w", err)
				}
				if !yes {
					ok, err := confirm(cmd, fmt.Sprintf("Delete task %q (%s)?", task.Title, shortID(task.ID)))
					if err != nil {
						return fmt.Errorf("task delete: %w", err)
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
						return nil
					}
				}
				a.leads.DeleteTask(task.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", task.Title)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
