package members

import (
	"context"
	"errors"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	saved   []Member
	list    []*Member
	listErr error
}

func (r *fakeRepo) Upsert(_ context.Context, m *Member) error {
	r.saved = append(r.saved, *m)
	return nil
}

func (r *fakeRepo) List(context.Context) ([]*Member, error) {
	return r.list, r.listErr
}

func TestEnsureMember_WritesOnlyChanges(t *testing.T) {
	repo := &fakeRepo{}
	s := NewService(repo)
	ctx := context.Background()

	require.NoError(t, s.EnsureMember(ctx, 1, "anya", "Аня", ""))
	require.NoError(t, s.EnsureMember(ctx, 1, "anya", "Аня", ""))
	assert.Len(t, repo.saved, 1)

	require.NoError(t, s.EnsureMember(ctx, 1, "anna", "Анна", "К"))
	assert.Len(t, repo.saved, 2)

	_, ok := s.GetByUsername("anya")
	assert.False(t, ok, "старый username больше не должен находиться")

	m, ok := s.GetByUsername("@ANNA")
	require.True(t, ok)
	assert.Equal(t, int64(1), m.UserID)
	assert.Equal(t, "Анна К", m.DisplayName())
}

func TestEnsureMember_RenameKeepsTakenUsername(t *testing.T) {
	s := NewService(nil)
	ctx := context.Background()

	require.NoError(t, s.EnsureMember(ctx, 1, "anya", "Аня", ""))
	// username освободился и его занял другой участник, а первый ещё не писал
	require.NoError(t, s.EnsureMember(ctx, 2, "anya", "Аня Вторая", ""))
	require.NoError(t, s.EnsureMember(ctx, 1, "anna", "Аня", ""))

	m, ok := s.GetByUsername("anya")
	require.True(t, ok)
	assert.Equal(t, int64(2), m.UserID)

	m, ok = s.GetByUsername("anna")
	require.True(t, ok)
	assert.Equal(t, int64(1), m.UserID)
}

func TestService_WithoutRepository(t *testing.T) {
	s := NewService(nil)

	require.NoError(t, s.Load(context.Background()))
	require.NoError(t, s.EnsureMember(context.Background(), 5, "", "Вера", ""))

	assert.True(t, s.IsMember(5))
	assert.False(t, s.IsMember(6))
	assert.Equal(t, 1, s.Count())
}

func TestService_Load(t *testing.T) {
	repo := &fakeRepo{list: []*Member{
		{UserID: 1, Username: "anya", FirstName: "Аня"},
		{UserID: 2, FirstName: "Борис"},
	}}
	s := NewService(repo)

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, 2, s.Count())

	_, ok := s.GetByUsername("anya")
	assert.True(t, ok)
	assert.Empty(t, repo.saved)
}

func TestService_LoadError(t *testing.T) {
	s := NewService(&fakeRepo{listErr: errors.New("boom")})
	assert.Error(t, s.Load(context.Background()))
}

func TestService_Mention(t *testing.T) {
	s := NewService(nil)
	ctx := context.Background()
	require.NoError(t, s.EnsureMember(ctx, 1, "anya", "Аня", ""))
	require.NoError(t, s.EnsureMember(ctx, 2, "", "Борис", ""))

	assert.Equal(t, "@anya", s.Mention("1", "x"))
	assert.Equal(t, "Борис", s.Mention("2", "x"))
	assert.Equal(t, "x", s.Mention("3", "x"))
	assert.Equal(t, "x", s.Mention("not-a-number", "x"))
}

func TestMember_DisplayName(t *testing.T) {
	assert.Equal(t, "Аня", (&Member{UserID: 1, FirstName: "Аня", Username: "anya"}).DisplayName())
	assert.Equal(t, "@anya", (&Member{UserID: 1, Username: "anya"}).DisplayName())
	assert.Equal(t, "42", (&Member{UserID: 42}).DisplayName())
}

func TestHandler_SkipsBots(t *testing.T) {
	s := NewService(nil)
	h := NewHandler(s)

	h.HandleNewChatMembers(context.Background(), []telego.User{
		{ID: 1, FirstName: "Аня"},
		{ID: 2, FirstName: "bot", IsBot: true},
	})
	h.HandleSender(context.Background(), nil)

	assert.True(t, s.IsMember(1))
	assert.False(t, s.IsMember(2))
}
