package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/chanhnguyen91/go-auth-boilerplate/internal/config"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/logger"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/model"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/oauth"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/apperr"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/query"
)

// --- In-memory fakes ---

type fakeUserRepo struct {
	nextID    uint
	users     map[uint]*model.User
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[uint]*model.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	user.ID = f.nextID
	f.nextID++
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uint, _ ...string) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string, _ ...string) (*model.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) List(_ context.Context, _ *query.Options, _ ...string) ([]model.User, int64, error) {
	out := make([]model.User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, *user)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) Save(_ context.Context, user *model.User) error {
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, user *model.User) error {
	delete(f.users, user.ID)
	return nil
}

func (f *fakeUserRepo) ReplaceRoles(_ context.Context, user *model.User, roles []model.Role) error {
	stored, ok := f.users[user.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Roles = roles
	user.Roles = roles
	return nil
}

type fakeRoleRepo struct {
	nextID uint
	roles  map[string]*model.Role
	perms  map[string]*model.Permission
	links  []*model.RolePermission
}

func newFakeRoleRepo(roles ...model.Role) *fakeRoleRepo {
	f := &fakeRoleRepo{
		nextID: 1,
		roles:  map[string]*model.Role{},
		perms:  map[string]*model.Permission{},
	}
	for i := range roles {
		f.roles[roles[i].Name] = &roles[i]
		if roles[i].ID >= f.nextID {
			f.nextID = roles[i].ID + 1
		}
	}
	return f
}

func (f *fakeRoleRepo) Create(_ context.Context, role *model.Role) error {
	role.ID = f.nextID
	f.nextID++
	f.roles[role.Name] = role
	return nil
}

func (f *fakeRoleRepo) FindByID(_ context.Context, id uint, _ ...string) (*model.Role, error) {
	for _, role := range f.roles {
		if role.ID == id {
			copied := *role
			copied.RolePermissions = f.linksForRole(id)
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRoleRepo) List(_ context.Context, _ *query.Options, _ ...string) ([]model.Role, int64, error) {
	out := make([]model.Role, 0, len(f.roles))
	for _, role := range f.roles {
		out = append(out, *role)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRoleRepo) Save(_ context.Context, role *model.Role) error {
	for name, existing := range f.roles {
		if existing.ID == role.ID && name != role.Name {
			delete(f.roles, name)
		}
	}
	f.roles[role.Name] = role
	return nil
}

func (f *fakeRoleRepo) Delete(_ context.Context, role *model.Role) error {
	delete(f.roles, role.Name)
	return nil
}

func (f *fakeRoleRepo) FindByName(_ context.Context, name string) (*model.Role, error) {
	role, ok := f.roles[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return role, nil
}

func (f *fakeRoleRepo) ListPermissions(_ context.Context) ([]model.Permission, error) {
	out := make([]model.Permission, 0, len(f.perms))
	for _, perm := range f.perms {
		out = append(out, *perm)
	}
	return out, nil
}

func (f *fakeRoleRepo) FindPermissionByName(_ context.Context, name string) (*model.Permission, error) {
	perm, ok := f.perms[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return perm, nil
}

func (f *fakeRoleRepo) CreatePermission(_ context.Context, perm *model.Permission) error {
	perm.ID = f.nextID
	f.nextID++
	f.perms[perm.Name] = perm
	return nil
}

func (f *fakeRoleRepo) FindLink(_ context.Context, roleID, permissionID uint) (*model.RolePermission, error) {
	for _, link := range f.links {
		if link.RoleID == roleID && link.PermissionID == permissionID {
			copied := *link
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRoleRepo) SaveLink(_ context.Context, link *model.RolePermission) error {
	if link.ID == 0 {
		link.ID = f.nextID
		f.nextID++
		stored := *link
		f.links = append(f.links, &stored)
		return nil
	}
	for i, existing := range f.links {
		if existing.ID == link.ID {
			stored := *link
			f.links[i] = &stored
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRoleRepo) DeleteLink(_ context.Context, link *model.RolePermission) error {
	for i, existing := range f.links {
		if existing.ID == link.ID {
			f.links = append(f.links[:i], f.links[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeRoleRepo) LinksForRoles(_ context.Context, roleIDs []uint) ([]model.RolePermission, error) {
	var out []model.RolePermission
	for _, id := range roleIDs {
		out = append(out, f.linksForRole(id)...)
	}
	// Preseeded roles may carry links inline instead of through the link store.
	for _, role := range f.roles {
		for _, id := range roleIDs {
			if role.ID == id {
				out = append(out, role.RolePermissions...)
			}
		}
	}
	return out, nil
}

func (f *fakeRoleRepo) linksForRole(roleID uint) []model.RolePermission {
	var out []model.RolePermission
	for _, link := range f.links {
		if link.RoleID != roleID {
			continue
		}
		copied := *link
		for _, perm := range f.perms {
			if perm.ID == copied.PermissionID {
				copied.Permission = *perm
			}
		}
		out = append(out, copied)
	}
	return out
}

type fakeTokenRepo struct {
	rows map[string]*model.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{rows: map[string]*model.RefreshToken{}}
}

func (f *fakeTokenRepo) Create(_ context.Context, token *model.RefreshToken) error {
	f.rows[token.Token] = token
	return nil
}

func (f *fakeTokenRepo) FindByToken(_ context.Context, token string) (*model.RefreshToken, error) {
	row, ok := f.rows[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (f *fakeTokenRepo) ConsumeByToken(_ context.Context, token string) (int64, error) {
	if _, ok := f.rows[token]; !ok {
		return 0, nil
	}
	delete(f.rows, token)
	return 1, nil
}

type noopTxManager struct{}

func (noopTxManager) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// --- Fixture ---

type authFixture struct {
	svc    *authService
	users  *fakeUserRepo
	roles  *fakeRoleRepo
	tokens *fakeTokenRepo
	cfg    *config.Config
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	adminLinks := []model.RolePermission{
		{RoleID: 1, Permission: model.Permission{Name: model.PermissionUserManagement}, CanRead: true, CanWrite: true, CanDelete: true},
	}
	roles := newFakeRoleRepo(
		model.Role{ID: 1, Name: "admin", RolePermissions: adminLinks},
		model.Role{ID: 3, Name: RoleStreamer},
	)
	users := newFakeUserRepo()
	tokens := newFakeTokenRepo()
	cfg := &config.Config{
		Env:              "test",
		JWTSecret:        "test_access_secret",
		JWTRefreshSecret: "test_refresh_secret",
		RefreshTokenDays: 7,
	}

	return &authFixture{
		svc: &authService{
			users:  users,
			roles:  roles,
			tokens: tokens,
			tx:     noopTxManager{},
			cfg:    cfg,
			log:    logger.Named("auth"),
			now:    time.Now,
		},
		users:  users,
		roles:  roles,
		tokens: tokens,
		cfg:    cfg,
	}
}

func (f *authFixture) register(t *testing.T, email, password string) *UserResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: password,
		Name:     "Test User",
	})
	require.NoError(t, err)
	return resp
}

// --- Tests ---

func TestRegisterAssignsStreamerRole(t *testing.T) {
	f := newAuthFixture(t)

	resp := f.register(t, "new@example.com", "secret123")

	require.Equal(t, "new@example.com", resp.Email)
	require.True(t, resp.IsVerified)
	require.Equal(t, []string{RoleStreamer}, resp.Roles)

	stored, err := f.users.FindByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	require.NotEqual(t, "secret123", stored.Password)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret123")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "dup@example.com", "secret123")

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:    "dup@example.com",
		Password: "other456",
		Name:     "Other",
	})
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
	require.Equal(t, "errors.duplicate_email", apperr.From(err).MessageKey)
}

func TestLoginIssuesTokenPairWithPermissionClaims(t *testing.T) {
	f := newAuthFixture(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, err)

	admin, _ := f.roles.FindByName(context.Background(), "admin")
	user := &model.User{Email: "admin@example.com", Password: string(hash), IsVerified: true}
	require.NoError(t, f.users.Create(context.Background(), user))
	require.NoError(t, f.users.ReplaceRoles(context.Background(), user, []model.Role{*admin}))

	tokens, err := f.svc.Login(context.Background(), LoginRequest{Email: "admin@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	require.NotEqual(t, tokens.AccessToken, tokens.RefreshToken)

	claims, err := VerifyToken(tokens.AccessToken, f.cfg.JWTSecret)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Sub)
	require.Equal(t, "admin@example.com", claims.Email)
	require.Equal(t, []string{model.PermissionUserManagement}, claims.Permissions)

	// Access token must not verify under the refresh secret
	_, err = VerifyToken(tokens.AccessToken, f.cfg.JWTRefreshSecret)
	require.Error(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "user@example.com", "secret123")

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "user@example.com", Password: "wrong"})
	require.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "x"})
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestLoginUnverifiedUser(t *testing.T) {
	f := newAuthFixture(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	user := &model.User{Email: "pending@example.com", Password: string(hash), IsVerified: false}
	require.NoError(t, f.users.Create(context.Background(), user))

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "pending@example.com", Password: "secret123"})
	require.True(t, apperr.IsKind(err, apperr.KindAccessDenied))
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "user@example.com", "secret123")

	first, err := f.svc.Login(context.Background(), LoginRequest{Email: "user@example.com", Password: "secret123"})
	require.NoError(t, err)

	second, err := f.svc.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The consumed token is single-use; replaying it is rejected.
	_, err = f.svc.Refresh(context.Background(), first.RefreshToken)
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindAccessDenied))

	// The new token still works.
	_, err = f.svc.Refresh(context.Background(), second.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "user@example.com", "secret123")

	tokens, err := f.svc.Login(context.Background(), LoginRequest{Email: "user@example.com", Password: "secret123"})
	require.NoError(t, err)

	// Move the clock past the refresh window.
	f.svc.now = func() time.Time { return time.Now().Add(f.cfg.RefreshTokenTTL() + time.Hour) }

	_, err = f.svc.Refresh(context.Background(), tokens.RefreshToken)
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindAccessDenied))
	require.Equal(t, "errors.invalid_token", apperr.From(err).MessageKey)
}

func TestRefreshUnknownToken(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Refresh(context.Background(), "not-a-real-token")
	require.True(t, apperr.IsKind(err, apperr.KindAccessDenied))
}

func TestExternalLoginCreatesFirstTimeUser(t *testing.T) {
	f := newAuthFixture(t)

	tokens, err := f.svc.ExternalLogin(context.Background(), oauth.Identity{
		Provider: "google",
		Email:    "oauth@example.com",
		Name:     "OAuth User",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)

	user, err := f.users.FindByEmail(context.Background(), "oauth@example.com")
	require.NoError(t, err)
	require.True(t, user.IsVerified)
	require.Len(t, user.Roles, 1)
	require.Equal(t, RoleStreamer, user.Roles[0].Name)
}

func TestExternalLoginExistingUser(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "existing@example.com", "secret123")

	tokens, err := f.svc.ExternalLogin(context.Background(), oauth.Identity{
		Provider: "apple",
		Email:    "existing@example.com",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.RefreshToken)

	// No second account was minted.
	_, total, err := f.users.List(context.Background(), nil)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
}

func TestPasswordResetRoundTrip(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "user@example.com", "oldpass123")

	reset, err := f.svc.RequestPasswordReset(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, reset.ResetToken)

	err = f.svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Email:       "user@example.com",
		Token:       reset.ResetToken,
		NewPassword: "newpass456",
	})
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), LoginRequest{Email: "user@example.com", Password: "oldpass123"})
	require.Error(t, err)
	_, err = f.svc.Login(context.Background(), LoginRequest{Email: "user@example.com", Password: "newpass456"})
	require.NoError(t, err)
}

func TestResetPasswordRejectsTokenForOtherAccount(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "attacker@example.com", "attacker123")
	f.register(t, "victim@example.com", "victim123")

	// A valid reset token minted for the attacker's own email must not reset
	// anyone else's password.
	reset, err := f.svc.RequestPasswordReset(context.Background(), "attacker@example.com")
	require.NoError(t, err)

	err = f.svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Email:       "victim@example.com",
		Token:       reset.ResetToken,
		NewPassword: "hijacked1",
	})
	require.True(t, apperr.IsKind(err, apperr.KindAccessDenied))

	// The victim's password is untouched.
	_, err = f.svc.Login(context.Background(), LoginRequest{Email: "victim@example.com", Password: "victim123"})
	require.NoError(t, err)
	_, err = f.svc.Login(context.Background(), LoginRequest{Email: "victim@example.com", Password: "hijacked1"})
	require.Error(t, err)
}

func TestResetPasswordRejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "user@example.com", "secret123")

	tokens, err := f.svc.Login(context.Background(), LoginRequest{Email: "user@example.com", Password: "secret123"})
	require.NoError(t, err)

	// Access tokens share the signing secret but lack the reset type claim.
	err = f.svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Email:       "user@example.com",
		Token:       tokens.AccessToken,
		NewPassword: "newpass456",
	})
	require.True(t, apperr.IsKind(err, apperr.KindAccessDenied))

	_, err = f.svc.Login(context.Background(), LoginRequest{Email: "user@example.com", Password: "secret123"})
	require.NoError(t, err)
}

func TestRegisterDuplicateKeyRace(t *testing.T) {
	// A concurrent insert that slips past the FindByEmail check surfaces as
	// the unique-index violation and must map to Conflict, not a 500.
	f := newAuthFixture(t)
	f.users.createErr = gorm.ErrDuplicatedKey

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:    "racer@example.com",
		Password: "secret123",
		Name:     "Racer",
	})
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
	require.Equal(t, "errors.duplicate_email", apperr.From(err).MessageKey)
}

func TestResetPasswordRejectsForgedToken(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "user@example.com", "secret123")

	err := f.svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Email:       "user@example.com",
		Token:       "forged.token.value",
		NewPassword: "newpass456",
	})
	require.True(t, apperr.IsKind(err, apperr.KindAccessDenied))
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
