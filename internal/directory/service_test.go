package directory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-site/meridian/internal/directory"
	_ "github.com/meridian-site/meridian/testing"
)

type mockRepo struct {
	total       int
	users       []directory.User
	otherAdmins int
	updated     *directory.User
	updateErr   error

	gotLimit  int
	gotOffset int
	gotQuery  string
	guardRan  bool
}

func (m *mockRepo) Count(ctx context.Context, query string) (int, error) {
	m.gotQuery = query
	return m.total, nil
}

func (m *mockRepo) Page(ctx context.Context, query string, limit, offset int) ([]directory.User, error) {
	m.gotLimit = limit
	m.gotOffset = offset
	return m.users, nil
}

func (m *mockRepo) WithGuardTx(ctx context.Context, fn func(directory.TxRepository) error) error {
	m.guardRan = true
	return fn(m)
}

func (m *mockRepo) CountOtherActiveAdmins(ctx context.Context, excludeID string) (int, error) {
	return m.otherAdmins, nil
}

func (m *mockRepo) UpdateUser(ctx context.Context, id string, role *string, isActive *bool) (*directory.User, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	if m.updated != nil {
		return m.updated, nil
	}
	u := directory.User{ID: id, Role: "USER", IsActive: true}
	if role != nil {
		u.Role = *role
	}
	if isActive != nil {
		u.IsActive = *isActive
	}
	return &u, nil
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestListDefaultsAndClamps(t *testing.T) {
	tests := []struct {
		name       string
		page, size int
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", 0, 0, 1, 20, 0},
		{"negative page", -3, 0, 1, 20, 0},
		{"size above cap", 1, 150, 1, 100, 0},
		{"size below one", 1, -5, 1, 1, 0},
		{"second page", 2, 10, 2, 10, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockRepo{total: 42}
			service := directory.NewService(repo)

			result, err := service.List(context.Background(), directory.ListRequest{Page: tc.page, Size: tc.size})
			require.NoError(t, err)
			assert.Equal(t, tc.wantPage, result.Page)
			assert.Equal(t, tc.wantLimit, result.Size)
			assert.Equal(t, tc.wantLimit, repo.gotLimit)
			assert.Equal(t, tc.wantOffset, repo.gotOffset)
		})
	}
}

func TestListEmptyMatchReturnsEmptySlice(t *testing.T) {
	repo := &mockRepo{total: 0, users: nil}
	service := directory.NewService(repo)

	result, err := service.List(context.Background(), directory.ListRequest{Query: "  nobody  "})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.NotNil(t, result.Users)
	assert.Empty(t, result.Users)
	assert.Equal(t, "nobody", repo.gotQuery, "query is trimmed")
}

func TestUpdateRequiresFields(t *testing.T) {
	service := directory.NewService(&mockRepo{})

	_, err := service.Update(context.Background(), "actor", "target", directory.UpdateParams{})
	assert.ErrorIs(t, err, directory.ErrNoFields)
}

func TestUpdateRejectsUnknownRole(t *testing.T) {
	repo := &mockRepo{}
	service := directory.NewService(repo)

	_, err := service.Update(context.Background(), "actor", "target", directory.UpdateParams{Role: strPtr("OWNER")})
	assert.ErrorIs(t, err, directory.ErrInvalidRole)
	assert.False(t, repo.guardRan, "invalid input must not reach the repository")
}

func TestUpdateLastAdminSelfDemotion(t *testing.T) {
	repo := &mockRepo{otherAdmins: 0}
	service := directory.NewService(repo)

	_, err := service.Update(context.Background(), "admin-1", "admin-1", directory.UpdateParams{Role: strPtr("USER")})
	assert.ErrorIs(t, err, directory.ErrLastAdmin)
}

func TestUpdateLastAdminSelfDeactivation(t *testing.T) {
	repo := &mockRepo{otherAdmins: 0}
	service := directory.NewService(repo)

	_, err := service.Update(context.Background(), "admin-1", "admin-1", directory.UpdateParams{IsActive: boolPtr(false)})
	assert.ErrorIs(t, err, directory.ErrLastAdmin)
}

func TestUpdateSelfDemotionAllowedWithAnotherAdmin(t *testing.T) {
	repo := &mockRepo{otherAdmins: 1}
	service := directory.NewService(repo)

	updated, err := service.Update(context.Background(), "admin-1", "admin-1", directory.UpdateParams{Role: strPtr("USER")})
	require.NoError(t, err)
	assert.Equal(t, "USER", updated.Role)
}

func TestUpdateOtherUserSkipsGuardCount(t *testing.T) {
	// Demoting someone else never consults the admin count; the guard only
	// protects against removing yourself as the last admin.
	repo := &mockRepo{otherAdmins: 0}
	service := directory.NewService(repo)

	updated, err := service.Update(context.Background(), "admin-1", "user-2", directory.UpdateParams{IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
}

func TestUpdateNotFound(t *testing.T) {
	repo := &mockRepo{updateErr: directory.ErrNotFound}
	service := directory.NewService(repo)

	_, err := service.Update(context.Background(), "actor", "missing", directory.UpdateParams{Role: strPtr("ADMIN")})
	assert.ErrorIs(t, err, directory.ErrNotFound)
}

func TestUpdatePropagatesRepoError(t *testing.T) {
	boom := errors.New("db down")
	repo := &mockRepo{updateErr: boom}
	service := directory.NewService(repo)

	_, err := service.Update(context.Background(), "actor", "target", directory.UpdateParams{Role: strPtr("ADMIN")})
	assert.ErrorIs(t, err, boom)
}
