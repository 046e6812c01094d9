package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/divijg19/clawtrack/internal/auth"
	"github.com/divijg19/clawtrack/internal/core"
)

func addUserCommands(root *cobra.Command) {
	userCmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"team"},
		Short:   "Manage team members and the local session",
	}
	userCmd.AddCommand(
		newRegisterCmd(), newLoginCmd(), newLogoutCmd(), newWhoamiCmd(), newUserListCmd(),
		newRoleCmd(), newDeactivateCmd(true), newDeactivateCmd(false), newProfileCmd(),
	)
	root.AddCommand(userCmd)
}

// requireAdmin fails unless the logged-in user is an admin.
func requireAdmin(ctx context.Context, a *app, op string) error {
	u, err := a.users.Current(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if u.Role != core.RoleAdmin {
		return fmt.Errorf("%s: only admins may do this", op)
	}
	return nil
}

// passwordFlag returns the flag value or prompts for it.
func passwordFlag(cmd *cobra.Command, value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return readPassword(cmd, label)
}

func newRegisterCmd() *cobra.Command {
	var (
		name, email, password, role string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in (the first account becomes Admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				var r core.Role
				if role != "" {
					parsed, ok := core.ParseRole(role)
					if !ok {
						return fmt.Errorf("register: unknown role %q", role)
					}
					if len(a.users.List(ctx)) > 0 {
						if err := requireAdmin(ctx, a, "register --role"); err != nil {
							return err
						}
					}
					r = parsed
				}
				pw, err := passwordFlag(cmd, password, "Password: ")
				if err != nil {
					return fmt.Errorf("register: %w", err)
				}
				confirmPw := pw
				if password == "" {
					if confirmPw, err = readPassword(cmd, "Confirm password: "); err != nil {
						return fmt.Errorf("register: %w", err)
					}
				}
				u, err := a.users.Register(ctx, auth.Registration{
					Name: name, Email: email, Password: pw, ConfirmPassword: confirmPw, Role: r,
				})
				if err != nil {
					return fmt.Errorf("register: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s (%s). You are logged in.\n", u.Name, u.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&role, "role", "", "Admin, Manager or Sales Rep")
	return cmd
}

func newLoginCmd() *cobra.Command {
	var (
		password string
		once     bool
	)
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				pw, err := passwordFlag(cmd, password, "Password: ")
				if err != nil {
					return fmt.Errorf("login: %w", err)
				}
				u, err := a.users.Login(ctx, args[0], pw, !once)
				if err != nil {
					return fmt.Errorf("login: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", u.Name, u.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.Flags().BoolVar(&once, "check", false, "verify the credentials without remembering the session")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the remembered session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.users.Logout(ctx); err != nil {
					return fmt.Errorf("logout: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				u, ok := a.currentUser(ctx)
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Not logged in (changes are recorded anonymously)")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>  %s\n", u.Name, u.Email, u.Role)
				return nil
			})
		},
	}
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List team members",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				users := a.users.List(ctx)
				if len(users) == 0 {
					fmt.Fprintln(out, "No users registered.")
					return nil
				}
				now := time.Now().UTC()
				fmt.Fprintf(out, "%-8s  %-18s %-28s %-10s %-8s %s\n", "ID", "NAME", "EMAIL", "ROLE", "STATE", "LAST LOGIN")
				for _, u := range users {
					state := "active"
					if !u.Active {
						state = "disabled"
					}
					last := "never"
					if !u.LastLoginAt.IsZero() {
						last = relative(u.LastLoginAt, now)
					}
					fmt.Fprintf(out, "%-8s  %-18s %-28s %-10s %-8s %s\n",
						shortID(u.ID), truncate(u.Name, 18), truncate(u.Email, 28), u.Role, state, last)
				}
				return nil
			})
		},
	}
}

// findUser resolves an id, id prefix or email.
func findUser(ctx context.Context, a *app, ref string) (core.User, error) {
	if u, err := a.users.Find(ctx, ref); err == nil {
		return u, nil
	}
	var match core.User
	found := 0
	for _, u := range a.users.List(ctx) {
		if strings.HasPrefix(u.ID, ref) {
			match = u
			found++
		}
	}
	if found == 1 {
		return match, nil
	}
	return core.User{}, fmt.Errorf("%w: %q", auth.ErrUserNotFound, ref)
}

func newRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "role <user> <role>",
		Short: "Change a user's role (admins only)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, ok := core.ParseRole(strings.Join(args[1:], " "))
			if !ok {
				return fmt.Errorf("role: unknown role %q", strings.Join(args[1:], " "))
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := requireAdmin(ctx, a, "role"); err != nil {
					return err
				}
				target, err := findUser(ctx, a, args[0])
				if err != nil {
					return fmt.Errorf("role: %w", err)
				}
				u, err := a.users.UpdateRole(ctx, target.ID, role)
				if err != nil {
					return fmt.Errorf("role: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Name, u.Role)
				return nil
			})
		},
	}
}

func newDeactivateCmd(deactivate bool) *cobra.Command {
	use, short, op := "reactivate <user>", "Re-enable a deactivated user (admins only)", "reactivate"
	if deactivate {
		use, short, op = "deactivate <user>", "Disable a user's login (admins only)", "deactivate"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := requireAdmin(ctx, a, op); err != nil {
					return err
				}
				target, err := findUser(ctx, a, args[0])
				if err != nil {
					return fmt.Errorf("%s: %w", op, err)
				}
				if deactivate {
					if me, ok := a.currentUser(ctx); ok && me.ID == target.ID {
						return fmt.Errorf("deactivate: you cannot deactivate yourself")
					}
					_, err = a.users.Deactivate(ctx, target.ID)
				} else {
					_, err = a.users.Reactivate(ctx, target.ID)
				}
				if err != nil {
					return fmt.Errorf("%s: %w", op, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", op, target.Name)
				return nil
			})
		},
	}
}

func newProfileCmd() *cobra.Command {
	var (
		name, email    string
		changePassword bool
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update your own name, email or password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				me, err := a.users.Current(ctx)
				if err != nil {
					return fmt.Errorf("profile: %w", err)
				}
				p := auth.ProfileUpdate{Name: me.Name, Email: me.Email}
				if cmd.Flags().Changed("name") {
					p.Name = name
				}
				if cmd.Flags().Changed("email") {
					p.Email = email
				}
				if changePassword {
					if p.Password, err = readPassword(cmd, "New password: "); err != nil {
						return fmt.Errorf("profile: %w", err)
					}
				}
				u, err := a.users.UpdateProfile(ctx, me.ID, p)
				if err != nil {
					return fmt.Errorf("profile: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Profile updated: %s <%s>\n", u.Name, u.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&email, "email", "", "new email address")
	cmd.Flags().BoolVar(&changePassword, "password", false, "prompt for a new password")
	return cmd
}
