package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/divijg19/clawtrack/internal/core"
)

type memStore struct {
	users   []core.User
	session string
}

func (m *memStore) LoadUsers(context.Context) []core.User {
	return append([]core.User(nil), m.users...)
}

func (m *memStore) SaveUsers(_ context.Context, users []core.User) error {
	m.users = append([]core.User(nil), users...)
	return nil
}

func (m *memStore) Session(context.Context) (string, bool) {
	return m.session, m.session != ""
}

func (m *memStore) SetSession(_ context.Context, id string) error {
	m.session = id
	return nil
}

func (m *memStore) ClearSession(context.Context) error {
	m.session = ""
	return nil
}

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestDirectory() (*Directory, *memStore) {
	store := &memStore{}
	return NewDirectory(store, WithClock(func() time.Time { return fixedNow }), WithCost(bcrypt.MinCost)), store
}

func register(t *testing.T, d *Directory, name, email string, role core.Role) core.User {
	t.Helper()
	u, err := d.Register(context.Background(), Registration{Name: name, Email: email, Password: "secret", Role: role})
	require.NoError(t, err)
	return u
}

func TestRegister_FirstUserIsAdmin(t *testing.T) {
	d, store := newTestDirectory()

	first := register(t, d, "Sam", "Sam@Example.com", core.RoleSalesRep)
	assert.Equal(t, core.RoleAdmin, first.Role)
	assert.Equal(t, "sam@example.com", first.Email)
	assert.Equal(t, AvatarColors[0], first.AvatarColor)
	assert.True(t, first.Active)
	assert.NotEqual(t, "secret", first.PasswordHash)
	assert.Equal(t, first.ID, store.session)

	second := register(t, d, "Riley", "riley@example.com", core.RoleManager)
	assert.Equal(t, core.RoleManager, second.Role)
	assert.Equal(t, AvatarColors[1], second.AvatarColor)

	third := register(t, d, "Kai", "kai@example.com", "")
	assert.Equal(t, core.RoleSalesRep, third.Role)
}

func TestRegister_Validation(t *testing.T) {
	d, _ := newTestDirectory()
	ctx := context.Background()

	_, err := d.Register(ctx, Registration{Name: "", Email: "bad", Password: "abc"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"name is required", "email must be a valid email", "password must be at least 4 characters"}, verr.Messages)

	_, err = d.Register(ctx, Registration{Name: "Sam", Email: "sam@example.com", Password: "secret", ConfirmPassword: "other"})
	require.ErrorAs(t, err, &verr)

	register(t, d, "Sam", "sam@example.com", "")
	_, err = d.Register(ctx, Registration{Name: "Sam 2", Email: " SAM@example.com ", Password: "secret"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	d, store := newTestDirectory()
	ctx := context.Background()
	u := register(t, d, "Sam", "sam@example.com", "")
	require.NoError(t, d.Logout(ctx))

	_, err := d.Login(ctx, "sam@example.com", "wrong", true)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = d.Login(ctx, "nobody@example.com", "secret", true)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	logged, err := d.Login(ctx, "SAM@example.com", "secret", true)
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
	assert.True(t, logged.LastLoginAt.Equal(fixedNow))
	assert.Equal(t, u.ID, store.session)

	cur, err := d.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, cur.ID)

	_, err = d.Login(ctx, "sam@example.com", "secret", false)
	require.NoError(t, err)
	_, err = d.Current(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestDeactivation(t *testing.T) {
	d, _ := newTestDirectory()
	ctx := context.Background()
	admin := register(t, d, "Sam", "sam@example.com", "")
	rep := register(t, d, "Riley", "riley@example.com", "")

	_, err := d.Deactivate(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sam"}, d.ActiveNames(ctx))

	_, err = d.Login(ctx, "riley@example.com", "secret", true)
	assert.ErrorIs(t, err, ErrDeactivated)

	// The session set at registration no longer resolves.
	_, err = d.Current(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = d.Reactivate(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sam", "Riley"}, d.ActiveNames(ctx))

	_, err = d.Deactivate(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Len(t, d.List(ctx), 2)
	assert.Equal(t, admin.ID, d.List(ctx)[0].ID)
}

func TestUpdateRoleAndFind(t *testing.T) {
	d, _ := newTestDirectory()
	ctx := context.Background()
	register(t, d, "Sam", "sam@example.com", "")
	rep := register(t, d, "Riley", "riley@example.com", "")

	u, err := d.UpdateRole(ctx, rep.ID, core.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, core.RoleManager, u.Role)

	_, err = d.UpdateRole(ctx, rep.ID, "Overlord")
	assert.Error(t, err)

	found, err := d.Find(ctx, "RILEY@example.com")
	require.NoError(t, err)
	assert.Equal(t, core.RoleManager, found.Role)

	_, err = d.Find(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	d, _ := newTestDirectory()
	ctx := context.Background()
	sam := register(t, d, "Sam", "sam@example.com", "")
	register(t, d, "Riley", "riley@example.com", "")

	_, err := d.UpdateProfile(ctx, sam.ID, ProfileUpdate{Name: "Sam", Email: "riley@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	u, err := d.UpdateProfile(ctx, sam.ID, ProfileUpdate{Name: "Samuel", Email: "samuel@example.com", Password: "newpass"})
	require.NoError(t, err)
	assert.Equal(t, "Samuel", u.Name)

	_, err = d.Login(ctx, "samuel@example.com", "newpass", true)
	require.NoError(t, err)

	_, err = d.UpdateProfile(ctx, sam.ID, ProfileUpdate{Name: "Samuel", Email: "samuel@example.com", Password: "abc"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdateProfile_ConcurrentEmailClaim(t *testing.T) {
	d, store := newTestDirectory()
	ctx := context.Background()
	ids := []string{
		register(t, d, "Sam", "sam@example.com", "").ID,
		register(t, d, "Riley", "riley@example.com", "").ID,
		register(t, d, "Kim", "kim@example.com", "").ID,
	}

	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = d.UpdateProfile(ctx, id, ProfileUpdate{Name: "Shared", Email: "shared@example.com"})
		}(i, id)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, ErrEmailTaken)
	}
	assert.Equal(t, 1, won)

	claimed := 0
	for _, u := range store.users {
		if u.Email == "shared@example.com" {
			claimed++
		}
	}
	assert.Equal(t, 1, claimed)
}

func TestPermissions(t *testing.T) {
	lead := core.Lead{AssignedTo: "Riley"}

	assert.True(t, CanEdit(core.User{Role: core.RoleAdmin}, lead))
	assert.True(t, CanEdit(core.User{Role: core.RoleManager}, lead))
	assert.True(t, CanEdit(core.User{Name: "Riley", Role: core.RoleSalesRep}, lead))
	assert.False(t, CanEdit(core.User{Name: "Kai", Role: core.RoleSalesRep}, lead))

	assert.True(t, CanDelete(core.User{Role: core.RoleAdmin}))
	assert.False(t, CanDelete(core.User{Role: core.RoleManager}))
}
