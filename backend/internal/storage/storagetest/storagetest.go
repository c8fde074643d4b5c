// Package storagetest holds the behaviour every storage driver must share.
// Driver tests call Run with a factory returning an empty store.
package storagetest

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/itchan-dev/threads/backend/internal/service"
	"github.com/itchan-dev/threads/shared/domain"
	internal_errors "github.com/itchan-dev/threads/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Storage interface {
	service.ThreadTreeStorage
	service.DirectoryStorage
}

// Run executes the suite. newStorage is called once per subtest and must
// return a store without any documents.
func Run(t *testing.T, newStorage func(t *testing.T) Storage) {
	t.Run("threads", func(t *testing.T) { testThreads(t, newStorage(t)) })
	t.Run("root feed", func(t *testing.T) { testRootFeed(t, newStorage(t)) })
	t.Run("children", func(t *testing.T) { testChildren(t, newStorage(t)) })
	t.Run("delete", func(t *testing.T) { testDelete(t, newStorage(t)) })
	t.Run("users", func(t *testing.T) { testUsers(t, newStorage(t)) })
	t.Run("communities", func(t *testing.T) { testCommunities(t, newStorage(t)) })
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(seconds int) time.Time {
	return base.Add(time.Duration(seconds) * time.Second)
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, status, internal_errors.StatusCode(err), "unexpected error: %v", err)
}

func testThreads(t *testing.T, s Storage) {
	ctx := context.Background()
	community := "community-1"

	created, err := s.CreateThread(ctx, domain.ThreadCreationData{Text: "hello", Author: "user-1", Community: &community, CreatedAt: at(1)})
	require.NoError(t, err)
	assert.NotEmpty(t, created.Id)
	assert.Empty(t, created.ChildIds)

	got, err := s.GetThread(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, "user-1", got.AuthorId)
	require.NotNil(t, got.CommunityId)
	assert.Equal(t, community, *got.CommunityId)
	assert.Nil(t, got.ParentId)
	assert.NotNil(t, got.ChildIds)
	assert.Empty(t, got.ChildIds)
	assert.True(t, at(1).Equal(got.CreatedAt), "created_at %s", got.CreatedAt)

	_, err = s.GetThread(ctx, "missing")
	requireStatus(t, err, http.StatusNotFound)

	other, err := s.CreateThread(ctx, domain.ThreadCreationData{Text: "other", Author: "user-1", CreatedAt: at(2)})
	require.NoError(t, err)
	byIds, err := s.GetThreadsByIds(ctx, []domain.ThreadId{other.Id, "missing", created.Id})
	require.NoError(t, err)
	require.Len(t, byIds, 2)
	assert.Equal(t, other.Id, byIds[0].Id)
	assert.Equal(t, created.Id, byIds[1].Id)

	now, err := s.CreateThread(ctx, domain.ThreadCreationData{Text: "now", Author: "user-1"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), now.CreatedAt, time.Minute)
}

func testRootFeed(t *testing.T, s Storage) {
	ctx := context.Background()

	count, err := s.CountRootThreads(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	empty, err := s.GetRootThreads(ctx, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	var roots []domain.ThreadId
	for i := 0; i < 5; i++ {
		th, err := s.CreateThread(ctx, domain.ThreadCreationData{Text: fmt.Sprintf("root %d", i), Author: "user-1", CreatedAt: at(i)})
		require.NoError(t, err)
		roots = append(roots, th.Id)
	}
	_, err = s.CreateThread(ctx, domain.ThreadCreationData{Text: "reply", Author: "user-1", ParentId: &roots[0], CreatedAt: at(100)})
	require.NoError(t, err)

	count, err = s.CountRootThreads(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	first, err := s.GetRootThreads(ctx, 0, 2)
	require.NoError(t, err)
	second, err := s.GetRootThreads(ctx, 2, 2)
	require.NoError(t, err)
	last, err := s.GetRootThreads(ctx, 4, 2)
	require.NoError(t, err)
	beyond, err := s.GetRootThreads(ctx, 10, 2)
	require.NoError(t, err)

	assert.Equal(t, []domain.ThreadId{roots[4], roots[3]}, idsOf(first))
	assert.Equal(t, []domain.ThreadId{roots[2], roots[1]}, idsOf(second))
	assert.Equal(t, []domain.ThreadId{roots[0]}, idsOf(last))
	assert.Empty(t, beyond)
}

func testChildren(t *testing.T, s Storage) {
	ctx := context.Background()

	root, err := s.CreateThread(ctx, domain.ThreadCreationData{Text: "root", Author: "user-1", CreatedAt: at(0)})
	require.NoError(t, err)
	other, err := s.CreateThread(ctx, domain.ThreadCreationData{Text: "other", Author: "user-1", CreatedAt: at(1)})
	require.NoError(t, err)

	var replies []domain.ThreadId
	for i, parent := range []domain.ThreadId{root.Id, other.Id, root.Id} {
		reply, err := s.CreateThread(ctx, domain.ThreadCreationData{Text: "reply", Author: "user-2", ParentId: &parent, CreatedAt: at(10 + i)})
		require.NoError(t, err)
		require.NotNil(t, reply.ParentId)
		assert.Equal(t, parent, *reply.ParentId)
		require.NoError(t, s.AppendChild(ctx, parent, reply.Id))
		replies = append(replies, reply.Id)
	}

	got, err := s.GetThread(ctx, root.Id)
	require.NoError(t, err)
	assert.Equal(t, []domain.ThreadId{replies[0], replies[2]}, got.ChildIds)

	children, err := s.GetChildThreads(ctx, []domain.ThreadId{root.Id, other.Id})
	require.NoError(t, err)
	assert.ElementsMatch(t, replies, idsOf(children))

	children, err = s.GetChildThreads(ctx, []domain.ThreadId{other.Id})
	require.NoError(t, err)
	assert.Equal(t, []domain.ThreadId{replies[1]}, idsOf(children))

	children, err = s.GetChildThreads(ctx, []domain.ThreadId{replies[0]})
	require.NoError(t, err)
	assert.Empty(t, children)

	require.NoError(t, s.RemoveChild(ctx, root.Id, replies[0]))
	got, err = s.GetThread(ctx, root.Id)
	require.NoError(t, err)
	assert.Equal(t, []domain.ThreadId{replies[2]}, got.ChildIds)

	requireStatus(t, s.AppendChild(ctx, "missing", replies[0]), http.StatusNotFound)
	requireStatus(t, s.RemoveChild(ctx, "missing", replies[0]), http.StatusNotFound)

	// siblings posted at the same instant come back ordered by id
	var twins []domain.ThreadId
	for i := 0; i < 5; i++ {
		reply, err := s.CreateThread(ctx, domain.ThreadCreationData{Text: "twin", Author: "user-2", ParentId: &other.Id, CreatedAt: at(50)})
		require.NoError(t, err)
		twins = append(twins, reply.Id)
	}
	slices.Sort(twins)
	for i := 0; i < 3; i++ {
		children, err = s.GetChildThreads(ctx, []domain.ThreadId{other.Id})
		require.NoError(t, err)
		assert.Equal(t, append([]domain.ThreadId{replies[1]}, twins...), idsOf(children))
	}
}

func testDelete(t *testing.T, s Storage) {
	ctx := context.Background()

	a, err := s.CreateThread(ctx, domain.ThreadCreationData{Text: "a", Author: "user-1"})
	require.NoError(t, err)
	b, err := s.CreateThread(ctx, domain.ThreadCreationData{Text: "b", Author: "user-1"})
	require.NoError(t, err)
	c, err := s.CreateThread(ctx, domain.ThreadCreationData{Text: "c", Author: "user-1"})
	require.NoError(t, err)

	deleted, err := s.DeleteThreads(ctx, []domain.ThreadId{a.Id, c.Id, "missing"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	_, err = s.GetThread(ctx, a.Id)
	requireStatus(t, err, http.StatusNotFound)
	_, err = s.GetThread(ctx, b.Id)
	assert.NoError(t, err)

	deleted, err = s.DeleteThreads(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func testUsers(t *testing.T, s Storage) {
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, domain.UserCreationData{ExternalId: "ext-alice", Username: "alice", Name: "Alice", Image: "a.png", Bio: "hi"})
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, domain.UserCreationData{ExternalId: "ext-bob", Username: "bob", Name: "Bob"})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, domain.UserCreationData{ExternalId: "ext-alice"})
	requireStatus(t, err, http.StatusConflict)

	got, err := s.GetUser(ctx, alice.Id)
	require.NoError(t, err)
	assert.Equal(t, "ext-alice", got.ExternalId)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "a.png", got.Image)
	assert.Equal(t, "hi", got.Bio)
	assert.NotNil(t, got.Threads)
	assert.Empty(t, got.Threads)

	_, err = s.GetUser(ctx, "missing")
	requireStatus(t, err, http.StatusNotFound)

	users, err := s.GetUsers(ctx, []domain.UserId{alice.Id, bob.Id, "missing"})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.ElementsMatch(t, []domain.UserId{alice.Id, bob.Id}, []domain.UserId{users[0].Id, users[1].Id})

	for _, th := range []domain.ThreadId{"t1", "t2", "t3"} {
		require.NoError(t, s.AppendUserThread(ctx, alice.Id, th))
	}
	require.NoError(t, s.AppendUserThread(ctx, bob.Id, "t2"))
	require.NoError(t, s.AppendUserThread(ctx, "missing", "t1"))

	require.NoError(t, s.PullUserThreads(ctx, []domain.UserId{alice.Id, bob.Id, "missing"}, []domain.ThreadId{"t2", "t9"}))

	got, err = s.GetUser(ctx, alice.Id)
	require.NoError(t, err)
	assert.Equal(t, []domain.ThreadId{"t1", "t3"}, got.Threads)
	got, err = s.GetUser(ctx, bob.Id)
	require.NoError(t, err)
	assert.Empty(t, got.Threads)
}

func testCommunities(t *testing.T, s Storage) {
	ctx := context.Background()
	creator := "user-1"

	gophers, err := s.CreateCommunity(ctx, domain.CommunityCreationData{ExternalId: "org_gophers", Username: "gophers", Name: "Gophers", CreatedBy: &creator})
	require.NoError(t, err)
	rustaceans, err := s.CreateCommunity(ctx, domain.CommunityCreationData{ExternalId: "org_rust", Name: "Rust"})
	require.NoError(t, err)

	_, err = s.CreateCommunity(ctx, domain.CommunityCreationData{ExternalId: "org_gophers"})
	requireStatus(t, err, http.StatusConflict)

	got, err := s.GetCommunityByExternalId(ctx, "org_gophers")
	require.NoError(t, err)
	assert.Equal(t, gophers.Id, got.Id)
	assert.Equal(t, "Gophers", got.Name)
	require.NotNil(t, got.CreatedBy)
	assert.Equal(t, creator, *got.CreatedBy)
	assert.Empty(t, got.Threads)

	_, err = s.GetCommunityByExternalId(ctx, "missing")
	requireStatus(t, err, http.StatusNotFound)

	communities, err := s.GetCommunities(ctx, []domain.CommunityId{rustaceans.Id, "missing"})
	require.NoError(t, err)
	require.Len(t, communities, 1)
	assert.Nil(t, communities[0].CreatedBy)

	require.NoError(t, s.AppendCommunityThread(ctx, gophers.Id, "t1"))
	require.NoError(t, s.AppendCommunityThread(ctx, gophers.Id, "t2"))
	require.NoError(t, s.AppendCommunityThread(ctx, rustaceans.Id, "t3"))
	require.NoError(t, s.PullCommunityThreads(ctx, []domain.CommunityId{gophers.Id, rustaceans.Id}, []domain.ThreadId{"t1", "t3"}))

	got, err = s.GetCommunityByExternalId(ctx, "org_gophers")
	require.NoError(t, err)
	assert.Equal(t, []domain.ThreadId{"t2"}, got.Threads)
	got, err = s.GetCommunityByExternalId(ctx, "org_rust")
	require.NoError(t, err)
	assert.Empty(t, got.Threads)
}

func idsOf(threads []domain.Thread) []domain.ThreadId {
	out := make([]domain.ThreadId, 0, len(threads))
	for _, t := range threads {
		out = append(out, t.Id)
	}
	return out
}
