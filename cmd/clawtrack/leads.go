package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/divijg19/clawtrack/internal/auth"
	"github.com/divijg19/clawtrack/internal/core"
	"github.com/divijg19/clawtrack/internal/pipeline"
)

// leadFlags binds the editable lead fields shared by add and edit.
type leadFlags struct {
	company, contact, title, email, phone, website string
	industry, size, city, source, assign           string
	deal, stage, status, closeDate, followUp       string
	lastContact, revenue, lostReason               string
	tags, notes                                    []string
}

func (f *leadFlags) bind(cmd *cobra.Command, withNotes bool) {
	fl := cmd.Flags()
	fl.StringVar(&f.company, "company", "", "company name")
	fl.StringVar(&f.contact, "contact", "", "contact name")
	fl.StringVar(&f.title, "title", "", "contact title")
	fl.StringVar(&f.email, "email", "", "email address")
	fl.StringVar(&f.phone, "phone", "", "phone number")
	fl.StringVar(&f.website, "website", "", "website")
	fl.StringVar(&f.industry, "industry", "", "industry ("+strings.Join(core.Industries, ", ")+")")
	fl.StringVar(&f.size, "size", "", "company size ("+strings.Join(core.CompanySizes, ", ")+")")
	fl.StringVar(&f.city, "city", "", "city")
	fl.StringVar(&f.source, "source", "", "lead source")
	fl.StringVar(&f.assign, "assign", "", "assigned team member")
	fl.StringVar(&f.deal, "deal", "", "deal value, e.g. 5000 or $5,000")
	fl.StringVar(&f.stage, "stage", "", "pipeline stage key or label")
	fl.StringVar(&f.status, "status", "", "Active, On Hold, Lost or Won")
	fl.StringVar(&f.closeDate, "close", "", "expected close date (YYYY-MM-DD)")
	fl.StringVar(&f.followUp, "follow-up", "", "next follow-up date (YYYY-MM-DD)")
	fl.StringVar(&f.lastContact, "last-contact", "", "last contact date (YYYY-MM-DD)")
	fl.StringVar(&f.revenue, "revenue", "", "estimated monthly revenue")
	fl.StringVar(&f.lostReason, "lost-reason", "", "why the deal was lost")
	fl.StringSliceVar(&f.tags, "tag", nil, "tag (repeatable or comma separated)")
	if withNotes {
		fl.StringArrayVar(&f.notes, "note", nil, "initial note (repeatable)")
	}
}

// parseDateFlag accepts an empty value or a parseable date.
func parseDateFlag(name, v string) (*time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	t := core.ParseDate(v)
	if t == nil {
		return nil, fmt.Errorf("--%s: invalid date %q (want YYYY-MM-DD)", name, v)
	}
	return t, nil
}

func (f *leadFlags) draft() (core.Draft, error) {
	d := core.Draft{
		CompanyName:             f.company,
		ContactName:             f.contact,
		Title:                   f.title,
		Email:                   f.email,
		Phone:                   f.phone,
		Website:                 f.website,
		Industry:                f.industry,
		CompanySize:             f.size,
		EstimatedMonthlyRevenue: f.revenue,
		City:                    f.city,
		LeadSource:              f.source,
		AssignedTo:              f.assign,
		DealValue:               core.ParseDealValue(f.deal),
		Tags:                    f.tags,
		Notes:                   f.notes,
		LostReason:              f.lostReason,
	}
	if f.stage != "" {
		s, ok := core.ParseStage(f.stage)
		if !ok {
			return d, fmt.Errorf("--stage: unknown stage %q", f.stage)
		}
		d.PipelineStage = s
	}
	if f.status != "" {
		s, ok := core.ParseStatus(f.status)
		if !ok {
			return d, fmt.Errorf("--status: unknown status %q", f.status)
		}
		d.Status = s
	}
	var err error
	if d.ExpectedCloseDate, err = parseDateFlag("close", f.closeDate); err != nil {
		return d, err
	}
	if d.NextFollowUpDate, err = parseDateFlag("follow-up", f.followUp); err != nil {
		return d, err
	}
	if d.LastContactDate, err = parseDateFlag("last-contact", f.lastContact); err != nil {
		return d, err
	}
	return d, nil
}

// apply overlays the flags the user actually set onto lead.
func (f *leadFlags) apply(cmd *cobra.Command, lead *core.Lead) error {
	changed := cmd.Flags().Changed
	strs := map[string]*string{
		"company": &lead.CompanyName, "contact": &lead.ContactName, "title": &lead.Title,
		"email": &lead.Email, "phone": &lead.Phone, "website": &lead.Website,
		"industry": &lead.Industry, "size": &lead.CompanySize, "city": &lead.City,
		"source": &lead.LeadSource, "assign": &lead.AssignedTo,
		"revenue": &lead.EstimatedMonthlyRevenue, "lost-reason": &lead.LostReason,
	}
	vals := map[string]string{
		"company": f.company, "contact": f.contact, "title": f.title,
		"email": f.email, "phone": f.phone, "website": f.website,
		"industry": f.industry, "size": f.size, "city": f.city,
		"source": f.source, "assign": f.assign,
		"revenue": f.revenue, "lost-reason": f.lostReason,
	}
	for name, dst := range strs {
		if changed(name) {
			*dst = strings.TrimSpace(vals[name])
		}
	}

	if changed("deal") {
		lead.DealValue = core.ParseDealValue(f.deal)
	}
	if changed("stage") {
		s, ok := core.ParseStage(f.stage)
		if !ok {
			return fmt.Errorf("--stage: unknown stage %q", f.stage)
		}
		lead.PipelineStage = s
	}
	if changed("status") {
		s, ok := core.ParseStatus(f.status)
		if !ok {
			return fmt.Errorf("--status: unknown status %q", f.status)
		}
		lead.Status = s
	}
	dates := []struct {
		name string
		raw  string
		dst  **time.Time
	}{
		{"close", f.closeDate, &lead.ExpectedCloseDate},
		{"follow-up", f.followUp, &lead.NextFollowUpDate},
		{"last-contact", f.lastContact, &lead.LastContactDate},
	}
	for _, d := range dates {
		if !changed(d.name) {
			continue
		}
		t, err := parseDateFlag(d.name, d.raw)
		if err != nil {
			return err
		}
		*d.dst = t
	}
	if changed("tag") {
		lead.Tags = core.NormalizeTags(f.tags)
	}
	return nil
}

func addLeadCommands(root *cobra.Command) {
	root.AddCommand(
		newAddCmd(), newListCmd(), newShowCmd(), newSelectCmd(), newEditCmd(),
		newMoveCmd(), newNoteCmd(), newTagCmd(), newUntagCmd(), newLogCmd(), newDeleteCmd(),
	)
}

func newAddCmd() *cobra.Command {
	var f leadFlags
	cmd := &cobra.Command{
		Use:     "add",
		Aliases: []string{"a"},
		Short:   "Create a lead",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(f.company) == "" || strings.TrimSpace(f.contact) == "" {
				return fmt.Errorf("add: --company and --contact are required")
			}
			d, err := f.draft()
			if err != nil {
				return fmt.Errorf("add: %w", err)
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				lead := a.leads.Create(d, a.actor(ctx))
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s  %s (score %d)\n", shortID(lead.ID), lead.DisplayName(), lead.LeadScore)
				return nil
			})
		},
	}
	f.bind(cmd, true)
	return cmd
}

func newListCmd() *cobra.Command {
	var (
		filter     core.Filter
		presetName string
		limit      int
		stage      string
	)
	cmd := &cobra.Command{
		Use:     "list [search]",
		Aliases: []string{"ls"},
		Short:   "List leads matching a filter",
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				f := filter
				if presetName != "" {
					p, ok := a.leads.FindPreset(presetName)
					if !ok {
						return fmt.Errorf("list: preset %q not found", presetName)
					}
					f = mergeFilters(p.Filters, filter)
				}
				if len(args) > 0 {
					f.Search = strings.Join(args, " ")
				}
				if stage != "" {
					s, ok := core.ParseStage(stage)
					if !ok {
						return fmt.Errorf("list: unknown stage %q", stage)
					}
					f.Stage = s
				}
				if limit <= 0 {
					limit = a.cfg.Display.PageSize
				}
				leads := a.leads.Filter(f)
				printLeadTable(cmd.OutOrStdout(), leads, limit)
				return nil
			})
		},
	}
	bindFilterFlags(cmd, &filter)
	cmd.Flags().StringVar(&stage, "stage", "", "pipeline stage key or label")
	cmd.Flags().StringVar(&presetName, "preset", "", "apply a saved filter preset (by id or name)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows to print (default display.page_size)")
	return cmd
}

// bindFilterFlags registers every filter predicate except stage, which callers parse.
func bindFilterFlags(cmd *cobra.Command, f *core.Filter) {
	fl := cmd.Flags()
	fl.StringVar(&f.Search, "search", "", "free-text search")
	fl.StringVar(&f.Industry, "industry", "", "exact industry")
	fl.StringVar(&f.City, "city", "", "city substring")
	fl.StringVar(&f.LeadSource, "source", "", "exact lead source")
	fl.StringVar(&f.AssignedTo, "assigned", "", "exact assignee")
	fl.StringVar(&f.Status, "status", "", "exact status")
	fl.StringSliceVar(&f.Tags, "tag", nil, "any of these tags")
	fl.StringVar(&f.DateFrom, "from", "", "created on or after (ISO date)")
	fl.StringVar(&f.DateTo, "to", "", "created on or before (ISO date)")
}

// mergeFilters overlays the non-empty predicates of over onto base.
func mergeFilters(base, over core.Filter) core.Filter {
	pick := func(b, o string) string {
		if strings.TrimSpace(o) != "" {
			return o
		}
		return b
	}
	base.Search = pick(base.Search, over.Search)
	base.Stage = core.Stage(pick(string(base.Stage), string(over.Stage)))
	base.Industry = pick(base.Industry, over.Industry)
	base.City = pick(base.City, over.City)
	base.LeadSource = pick(base.LeadSource, over.LeadSource)
	base.AssignedTo = pick(base.AssignedTo, over.AssignedTo)
	base.Status = pick(base.Status, over.Status)
	base.DateFrom = pick(base.DateFrom, over.DateFrom)
	base.DateTo = pick(base.DateTo, over.DateTo)
	if len(over.Tags) > 0 {
		base.Tags = over.Tags
	}
	return base
}

func printLeadTable(w io.Writer, leads []core.Lead, limit int) {
	if len(leads) == 0 {
		fmt.Fprintln(w, "No leads match.")
		return
	}
	fmt.Fprintf(w, "%-8s  %-24s %-18s %-20s %12s %5s  %s\n", "ID", "COMPANY", "CONTACT", "STAGE", "VALUE", "SCORE", "ASSIGNED")
	for i, l := range leads {
		if limit > 0 && i == limit {
			fmt.Fprintf(w, "... %d more (use --limit)\n", len(leads)-limit)
			break
		}
		fmt.Fprintf(w, "%-8s  %-24s %-18s %-20s %12s %5d  %s\n",
			shortID(l.ID),
			truncate(l.CompanyName, 24),
			truncate(l.ContactName, 18),
			l.PipelineStage.Label(),
			money(l.DealValue),
			l.LeadScore,
			orDash(l.AssignedTo),
		)
	}
}

func newShowCmd() *cobra.Command {
	var activityLimit int
	cmd := &cobra.Command{
		Use:     "show [id]",
		Aliases: []string{"view"},
		Short:   "Show a lead with its notes and activity log",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				lead, err := a.resolveLead(ctx, firstArg(args))
				if err != nil {
					return fmt.Errorf("show: %w", err)
				}
				printLead(cmd.OutOrStdout(), lead, a.leads.Settings(), time.Now().UTC(), activityLimit)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&activityLimit, "activities", 20, "number of activities to print (0 for all)")
	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func printLead(w io.Writer, l core.Lead, settings core.Settings, now time.Time, activityLimit int) {
	score := core.Score(l, now)
	fmt.Fprintf(w, "%s  %s  [%s]\n", shortID(l.ID), l.DisplayName(), l.PipelineStage.Label())
	fmt.Fprintf(w, "Status: %s   Score: %d (%s)   Deal: %s\n", l.Status, score, core.ScoreBand(score), money(l.DealValue))

	days := core.DaysInStage(l, now)
	stageLine := fmt.Sprintf("In stage: %d days (since %s)", days, formatShortUTC(l.StageEnteredDate))
	if core.IsStale(l, now, settings.StaleThresholdDays) {
		stageLine += "  STALE"
	}
	fmt.Fprintln(w, stageLine)
	switch {
	case core.IsOverdue(l, now) && !core.IsDueToday(l, now):
		fmt.Fprintf(w, "Follow-up: OVERDUE (%s)\n", core.FormatDate(l.NextFollowUpDate))
	case core.IsDueToday(l, now):
		fmt.Fprintln(w, "Follow-up: due today")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "CONTACT")
	fmt.Fprintf(w, "Contact:  %s\n", orDash(l.ContactName))
	fmt.Fprintf(w, "Title:    %s\n", orDash(l.Title))
	fmt.Fprintf(w, "Email:    %s\n", orDash(l.Email))
	fmt.Fprintf(w, "Phone:    %s\n", orDash(l.Phone))
	fmt.Fprintf(w, "Website:  %s\n", orDash(l.Website))
	fmt.Fprintf(w, "City:     %s\n", orDash(l.City))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "DEAL")
	fmt.Fprintf(w, "Industry: %s   Size: %s   Source: %s\n", orDash(l.Industry), orDash(l.CompanySize), orDash(l.LeadSource))
	fmt.Fprintf(w, "Assigned: %s   Monthly revenue: %s\n", orDash(l.AssignedTo), orDash(l.EstimatedMonthlyRevenue))
	fmt.Fprintf(w, "Expected close: %s   Next follow-up: %s   Last contact: %s\n",
		dateOrDash(l.ExpectedCloseDate), dateOrDash(l.NextFollowUpDate), dateOrDash(l.LastContactDate))
	if l.LostReason != "" {
		fmt.Fprintf(w, "Lost reason: %s\n", l.LostReason)
	}
	if len(l.Tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(l.Tags, ", "))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "META")
	fmt.Fprintf(w, "Created: %s (%s)\n", formatShortUTC(l.CreatedDate), relative(l.CreatedDate, now))
	if l.LastEditedAt != nil {
		fmt.Fprintf(w, "Edited:  %s by %s\n", formatShortUTC(*l.LastEditedAt), orDash(l.LastEditedBy))
	}

	if len(l.Notes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "NOTES")
		for _, n := range l.Notes {
			fmt.Fprintf(w, "- %s  %s\n", formatShortUTC(n.CreatedAt), orDash(n.UserName))
			for _, line := range strings.Split(n.Content, "\n") {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "ACTIVITY")
	for i, act := range l.Activities {
		if activityLimit > 0 && i == activityLimit {
			fmt.Fprintf(w, "  ... %d older\n", len(l.Activities)-activityLimit)
			break
		}
		fmt.Fprintf(w, "- %s  %-12s %s\n", formatShortUTC(act.Timestamp), act.Type, act.Description)
	}
}

func newSelectCmd() *cobra.Command {
	var clearSelection bool
	cmd := &cobra.Command{
		Use:   "select [id]",
		Short: "Select the lead that '.' and omitted ids refer to",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				if clearSelection {
					if err := a.gateway.SetSelected(ctx, ""); err != nil {
						return fmt.Errorf("select: %w", err)
					}
					fmt.Fprintln(out, "Selection cleared")
					return nil
				}
				if len(args) == 0 {
					id, ok := a.gateway.Selected(ctx)
					if !ok {
						fmt.Fprintln(out, "No lead selected")
						return nil
					}
					lead, found := a.leads.Get(id)
					if !found {
						fmt.Fprintln(out, "No lead selected")
						return nil
					}
					fmt.Fprintf(out, "Selected %s  %s\n", shortID(lead.ID), lead.DisplayName())
					return nil
				}
				lead, err := a.resolveLead(ctx, args[0])
				if err != nil {
					return fmt.Errorf("select: %w", err)
				}
				if err := a.gateway.SetSelected(ctx, lead.ID); err != nil {
					return fmt.Errorf("select: %w", err)
				}
				fmt.Fprintf(out, "Selected %s  %s\n", shortID(lead.ID), lead.DisplayName())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clearSelection, "clear", false, "clear the selection")
	return cmd
}

func newEditCmd() *cobra.Command {
	var f leadFlags
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit lead fields; only the flags given are changed",
		Long: `Edit lead fields. Only the flags given are changed.
A new --stage is recorded as a stage change, the same as "move".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				lead, err := a.resolveLead(ctx, firstArg(args))
				if err != nil {
					return fmt.Errorf("edit: %w", err)
				}
				if err := a.requireEdit(ctx, lead); err != nil {
					return fmt.Errorf("edit: %w", err)
				}
				if err := f.apply(cmd, &lead); err != nil {
					return fmt.Errorf("edit: %w", err)
				}
				if !a.leads.Update(lead, a.actor(ctx)) {
					return fmt.Errorf("edit: lead %s no longer exists", shortID(lead.ID))
				}
				updated, _ := a.leads.Get(lead.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s  %s (score %d)\n", shortID(updated.ID), updated.DisplayName(), updated.LeadScore)
				return nil
			})
		},
	}
	f.bind(cmd, false)
	return cmd
}

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move [id] <stage>",
		Short: "Move a lead to another pipeline stage",
		Long: "Move a lead to another pipeline stage. Stages: " + stageKeys() + `.
Any stage may follow any other, including reopening closed deals.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, stageArg := "", args[0]
			if len(args) == 2 {
				ref, stageArg = args[0], args[1]
			}
			stage, ok := core.ParseStage(stageArg)
			if !ok {
				return fmt.Errorf("move: unknown stage %q (want one of %s)", stageArg, stageKeys())
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				lead, err := a.resolveLead(ctx, ref)
				if err != nil {
					return fmt.Errorf("move: %w", err)
				}
				if err := a.requireEdit(ctx, lead); err != nil {
					return fmt.Errorf("move: %w", err)
				}
				a.leads.Move(lead.ID, stage, a.actor(ctx))
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s → %s\n", lead.DisplayName(), lead.PipelineStage.Label(), stage.Label())
				return nil
			})
		},
	}
}

func stageKeys() string {
	keys := make([]string, 0, len(core.Stages))
	for _, s := range core.Stages {
		keys = append(keys, string(s.Key))
	}
	return strings.Join(keys, ", ")
}

func newNoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "note <id> [text...]",
		Short: "Add a note to a lead (opens the editor when no text is given)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				lead, err := a.resolveLead(ctx, args[0])
				if err != nil {
					return fmt.Errorf("note: %w", err)
				}
				if err := a.requireEdit(ctx, lead); err != nil {
					return fmt.Errorf("note: %w", err)
				}
				content := strings.TrimSpace(strings.Join(args[1:], " "))
				if content == "" {
					content, err = editNote(a.cfg.Editor, lead)
					if err != nil {
						return fmt.Errorf("note: %w", err)
					}
				}
				if !a.leads.AddNote(lead.ID, content, a.actor(ctx)) {
					return fmt.Errorf("note: content is empty")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Note added to %s\n", lead.DisplayName())
				return nil
			})
		},
	}
}

func newTagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag <id> <tag>...",
		Short: "Attach tags to a lead",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				lead, err := a.resolveLead(ctx, args[0])
				if err != nil {
					return fmt.Errorf("tag: %w", err)
				}
				if err := a.requireEdit(ctx, lead); err != nil {
					return fmt.Errorf("tag: %w", err)
				}
				actor := a.actor(ctx)
				added := 0
				for _, t := range args[1:] {
					if a.leads.AddTag(lead.ID, t, actor) {
						added++
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d tag(s) added to %s\n", added, lead.DisplayName())
				return nil
			})
		},
	}
}

func newUntagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "untag <id> <tag>...",
		Short: "Remove tags from a lead",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				lead, err := a.resolveLead(ctx, args[0])
				if err != nil {
					return fmt.Errorf("untag: %w", err)
				}
				if err := a.requireEdit(ctx, lead); err != nil {
					return fmt.Errorf("untag: %w", err)
				}
				actor := a.actor(ctx)
				removed := 0
				for _, t := range args[1:] {
					if a.leads.RemoveTag(lead.ID, t, actor) {
						removed++
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d tag(s) removed from %s\n", removed, lead.DisplayName())
				return nil
			})
		},
	}
}

func newLogCmd() *cobra.Command {
	var types []string
	for _, t := range core.LoggableActivities {
		types = append(types, string(t))
	}
	return &cobra.Command{
		Use:   "log <id> <type> <description...>",
		Short: "Record an activity (" + strings.Join(types, ", ") + ")",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := core.ParseActivityType(args[1])
			if !ok || t == core.ActivityStageChange {
				return fmt.Errorf("log: unknown activity type %q (want one of %s)", args[1], strings.Join(types, ", "))
			}
			description := strings.TrimSpace(strings.Join(args[2:], " "))
			if description == "" {
				return fmt.Errorf("log: description is empty")
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				lead, err := a.resolveLead(ctx, args[0])
				if err != nil {
					return fmt.Errorf("log: %w", err)
				}
				if err := a.requireEdit(ctx, lead); err != nil {
					return fmt.Errorf("log: %w", err)
				}
				a.leads.AddActivity(lead.ID, t, description, a.actor(ctx))
				fmt.Fprintf(cmd.OutOrStdout(), "%s logged on %s\n", t, lead.DisplayName())
				return nil
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a lead",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				lead, err := a.resolveLead(ctx, args[0])
				if err != nil {
					return fmt.Errorf("delete: %w", err)
				}
				if u, ok := a.currentUser(ctx); ok && !auth.CanDelete(u) {
					return fmt.Errorf("delete: only admins may delete leads")
				}
				if !yes {
					ok, err := confirm(cmd, fmt.Sprintf("Delete %s (%s)?", lead.DisplayName(), shortID(lead.ID)))
					if err != nil {
						return fmt.Errorf("delete: %w", err)
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
						return nil
					}
				}

				sel := &pipeline.Selection{}
				if id, ok := a.gateway.Selected(ctx); ok {
					sel.LeadID = id
				}
				before := sel.LeadID
				a.leads.Delete(lead.ID, sel)
				if before != "" && sel.LeadID == "" {
					if err := a.gateway.SetSelected(ctx, ""); err != nil {
						return fmt.Errorf("delete: %w", err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", lead.DisplayName())
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
