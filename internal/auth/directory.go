// Package auth keeps the local team directory: registration, login,
// the remembered session and advisory role checks.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/divijg19/clawtrack/internal/core"
)

var (
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDeactivated        = errors.New("account has been deactivated")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotLoggedIn        = errors.New("not logged in")
)

// AvatarColors are handed out to new users in order, skipping colours in use.
var AvatarColors = []string{
	"#10b981", "#3b82f6", "#f59e0b", "#ef4444", "#8b5cf6",
	"#ec4899", "#06b6d4", "#f97316", "#84cc16", "#14b8a6",
	"#a855f7", "#e11d48", "#0ea5e9", "#d946ef", "#65a30d",
}

// Store persists the directory and the remembered session.
type Store interface {
	LoadUsers(ctx context.Context) []core.User
	SaveUsers(ctx context.Context, users []core.User) error
	Session(ctx context.Context) (string, bool)
	SetSession(ctx context.Context, userID string) error
	ClearSession(ctx context.Context) error
}

// Registration is a sign-up request.
type Registration struct {
	Name            string `validate:"required"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=4"`
	ConfirmPassword string `validate:"omitempty,eqfield=Password"`
	Role            core.Role
}

// ProfileUpdate changes a user's own details. An empty password keeps the current one.
type ProfileUpdate struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"omitempty,min=4"`
}

// Directory manages users on top of a Store.
type Directory struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
	cost   int

	mu sync.Mutex
}

// Option configures a Directory.
type Option func(*Directory)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Directory) { d.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Directory) { d.logger = l }
}

// WithCost sets the bcrypt cost.
func WithCost(cost int) Option {
	return func(d *Directory) { d.cost = cost }
}

// NewDirectory returns a Directory backed by store.
func NewDirectory(store Store, opts ...Option) *Directory {
	d := &Directory{
		store:  store,
		now:    time.Now,
		logger: zap.NewNop(),
		cost:   bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nextAvatarColor(users []core.User) string {
	used := make(map[string]bool, len(users))
	for _, u := range users {
		used[u.AvatarColor] = true
	}
	for _, c := range AvatarColors {
		if !used[c] {
			return c
		}
	}
	return AvatarColors[len(users)%len(AvatarColors)]
}

func findByEmail(users []core.User, email string) int {
	for i, u := range users {
		if normalizeEmail(u.Email) == email {
			return i
		}
	}
	return -1
}

func findByID(users []core.User, id string) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

// Register creates a user and logs them in. The first user is always an Admin;
// later users default to Sales Rep.
func (d *Directory) Register(ctx context.Context, r Registration) (core.User, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	if err := validateStruct(r); err != nil {
		return core.User{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	users := d.store.LoadUsers(ctx)
	if findByEmail(users, r.Email) >= 0 {
		return core.User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), d.cost)
	if err != nil {
		return core.User{}, fmt.Errorf("register: hash password: %w", err)
	}

	role, ok := core.ParseRole(string(r.Role))
	if !ok {
		role = core.RoleSalesRep
	}
	if len(users) == 0 {
		role = core.RoleAdmin
	}

	now := d.now().UTC()
	user := core.User{
		ID:           uuid.NewString(),
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: string(hash),
		Role:         role,
		AvatarColor:  nextAvatarColor(users),
		Active:       true,
		CreatedAt:    now,
		LastLoginAt:  now,
	}
	if err := d.store.SaveUsers(ctx, append(users, user)); err != nil {
		return core.User{}, fmt.Errorf("register: %w", err)
	}
	if err := d.store.SetSession(ctx, user.ID); err != nil {
		return core.User{}, fmt.Errorf("register: %w", err)
	}
	d.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// Login checks the credentials and stamps the login time. With remember the
// session outlives the current command.
func (d *Directory) Login(ctx context.Context, email, password string, remember bool) (core.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	users := d.store.LoadUsers(ctx)
	i := findByEmail(users, normalizeEmail(email))
	if i < 0 {
		return core.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(users[i].PasswordHash), []byte(password)); err != nil {
		return core.User{}, ErrInvalidCredentials
	}
	if !users[i].Active {
		return core.User{}, ErrDeactivated
	}

	users[i].LastLoginAt = d.now().UTC()
	if err := d.store.SaveUsers(ctx, users); err != nil {
		return core.User{}, fmt.Errorf("login: %w", err)
	}
	if remember {
		if err := d.store.SetSession(ctx, users[i].ID); err != nil {
			return core.User{}, fmt.Errorf("login: %w", err)
		}
	} else if err := d.store.ClearSession(ctx); err != nil {
		return core.User{}, fmt.Errorf("login: %w", err)
	}
	return users[i], nil
}

// Logout forgets the remembered session.
func (d *Directory) Logout(ctx context.Context) error {
	if err := d.store.ClearSession(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Current returns the logged-in user. Deactivated users have no session.
func (d *Directory) Current(ctx context.Context) (core.User, error) {
	id, ok := d.store.Session(ctx)
	if !ok {
		return core.User{}, ErrNotLoggedIn
	}
	users := d.store.LoadUsers(ctx)
	i := findByID(users, id)
	if i < 0 || !users[i].Active {
		return core.User{}, ErrNotLoggedIn
	}
	return users[i], nil
}

// List returns every user, active or not.
func (d *Directory) List(ctx context.Context) []core.User {
	return d.store.LoadUsers(ctx)
}

// ActiveNames returns the names of the active users, the assignable team.
func (d *Directory) ActiveNames(ctx context.Context) []string {
	names := make([]string, 0)
	for _, u := range d.store.LoadUsers(ctx) {
		if u.Active {
			names = append(names, u.Name)
		}
	}
	return names
}

// Find resolves a user by id or email.
func (d *Directory) Find(ctx context.Context, idOrEmail string) (core.User, error) {
	users := d.store.LoadUsers(ctx)
	i := findByID(users, idOrEmail)
	if i < 0 {
		i = findByEmail(users, normalizeEmail(idOrEmail))
	}
	if i < 0 {
		return core.User{}, ErrUserNotFound
	}
	return users[i], nil
}

// mutate applies fn to user id and saves the directory, all under d.mu.
// fn sees the full user list and may veto the change by returning an error.
func (d *Directory) mutate(ctx context.Context, id string, fn func(users []core.User, u *core.User) error) (core.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	users := d.store.LoadUsers(ctx)
	i := findByID(users, id)
	if i < 0 {
		return core.User{}, ErrUserNotFound
	}
	if err := fn(users, &users[i]); err != nil {
		return core.User{}, err
	}
	if err := d.store.SaveUsers(ctx, users); err != nil {
		return core.User{}, fmt.Errorf("save users: %w", err)
	}
	return users[i], nil
}

// UpdateRole sets the role of user id.
func (d *Directory) UpdateRole(ctx context.Context, id string, role core.Role) (core.User, error) {
	r, ok := core.ParseRole(string(role))
	if !ok {
		return core.User{}, fmt.Errorf("update role: unknown role %q", role)
	}
	return d.mutate(ctx, id, func(_ []core.User, u *core.User) error {
		u.Role = r
		return nil
	})
}

// Deactivate disables user id. Their leads keep the assignment.
func (d *Directory) Deactivate(ctx context.Context, id string) (core.User, error) {
	return d.mutate(ctx, id, func(_ []core.User, u *core.User) error {
		u.Active = false
		return nil
	})
}

// Reactivate re-enables user id.
func (d *Directory) Reactivate(ctx context.Context, id string) (core.User, error) {
	return d.mutate(ctx, id, func(_ []core.User, u *core.User) error {
		u.Active = true
		return nil
	})
}

// UpdateProfile changes the name, email and optionally the password of user id.
func (d *Directory) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (core.User, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = normalizeEmail(p.Email)
	if err := validateStruct(p); err != nil {
		return core.User{}, err
	}

	var hash []byte
	if p.Password != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(p.Password), d.cost)
		if err != nil {
			return core.User{}, fmt.Errorf("update profile: hash password: %w", err)
		}
	}

	return d.mutate(ctx, id, func(users []core.User, u *core.User) error {
		if i := findByEmail(users, p.Email); i >= 0 && users[i].ID != id {
			return ErrEmailTaken
		}
		u.Name = p.Name
		u.Email = p.Email
		if hash != nil {
			u.PasswordHash = string(hash)
		}
		return nil
	})
}

// CanEdit reports whether u may edit lead: managers and admins always,
// sales reps only for leads assigned to them.
func CanEdit(u core.User, lead core.Lead) bool {
	switch u.Role {
	case core.RoleAdmin, core.RoleManager:
		return true
	case core.RoleSalesRep:
		return lead.AssignedTo == u.Name
	}
	return false
}

// CanDelete reports whether u may delete leads.
func CanDelete(u core.User) bool {
	return u.Role == core.RoleAdmin
}
