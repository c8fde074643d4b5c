package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/itchan-dev/threads/shared/domain"
	internal_errors "github.com/itchan-dev/threads/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserHandler(t *testing.T) {
	route := "/v1/users"

	t.Run("created", func(t *testing.T) {
		h, _, directory, _ := testHandler()
		directory.CreateUserFunc = func(ctx context.Context, data domain.UserCreationData) (domain.UserId, error) {
			assert.Equal(t, domain.UserCreationData{
				ExternalId: "clerk_1",
				Username:   "alice",
				Name:       "Alice",
				Image:      "https://img.example.com/a.png",
				Bio:        "gopher",
			}, data)
			return "user-7", nil
		}
		req := createRequest(t, http.MethodPost, route, []byte(`{"external_id":"clerk_1","username":"alice","name":"Alice","image":"https://img.example.com/a.png","bio":"gopher"}`))

		rr := serve(route, h.CreateUser, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.JSONEq(t, `{"id":"user-7"}`, rr.Body.String())
	})

	t.Run("image must be a url", func(t *testing.T) {
		h, _, _, _ := testHandler()
		req := createRequest(t, http.MethodPost, route, []byte(`{"external_id":"clerk_1","username":"alice","name":"Alice","image":"not a url"}`))

		rr := serve(route, h.CreateUser, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("duplicate", func(t *testing.T) {
		h, _, directory, _ := testHandler()
		directory.CreateUserFunc = func(ctx context.Context, data domain.UserCreationData) (domain.UserId, error) {
			return "", internal_errors.Conflict("User already exists")
		}
		req := createRequest(t, http.MethodPost, route, []byte(`{"external_id":"clerk_1","username":"alice","name":"Alice"}`))

		rr := serve(route, h.CreateUser, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestGetUserHandler(t *testing.T) {
	route := "/v1/users/{user}"

	t.Run("found", func(t *testing.T) {
		h, _, directory, _ := testHandler()
		directory.GetUserFunc = func(ctx context.Context, id domain.UserId) (domain.User, error) {
			assert.Equal(t, "user-7", id)
			return domain.User{Id: id, Name: "Alice", Threads: []domain.ThreadId{"t1"}}, nil
		}
		req := createRequest(t, http.MethodGet, "/v1/users/user-7", nil)

		rr := serve(route, h.GetUser, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"name":"Alice"`)
		assert.Contains(t, rr.Body.String(), `"threads":["t1"]`)
	})

	t.Run("not found", func(t *testing.T) {
		h, _, directory, _ := testHandler()
		directory.GetUserFunc = func(ctx context.Context, id domain.UserId) (domain.User, error) {
			return domain.User{}, internal_errors.NotFound("User not found")
		}
		req := createRequest(t, http.MethodGet, "/v1/users/missing", nil)

		rr := serve(route, h.GetUser, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestGetUserThreadsHandler(t *testing.T) {
	route := "/v1/users/{user}/threads"

	h, _, _, activity := testHandler()
	activity.GetUserThreadsFunc = func(ctx context.Context, userId domain.UserId) ([]*domain.Thread, error) {
		assert.Equal(t, "user-7", userId)
		return []*domain.Thread{{Id: "t2", ChildIds: []domain.ThreadId{}}, {Id: "t1", ChildIds: []domain.ThreadId{}}}, nil
	}
	req := createRequest(t, http.MethodGet, "/v1/users/user-7/threads", nil)

	rr := serve(route, h.GetUserThreads, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"threads":[{"id":"t2"`)
}

func TestCreateCommunityHandler(t *testing.T) {
	route := "/v1/communities"

	t.Run("created", func(t *testing.T) {
		h, _, directory, _ := testHandler()
		directory.CreateCommunityFunc = func(ctx context.Context, data domain.CommunityCreationData) (domain.CommunityId, error) {
			assert.Equal(t, "org_1", data.ExternalId)
			require.NotNil(t, data.CreatedBy)
			assert.Equal(t, "user-7", *data.CreatedBy)
			return "community-3", nil
		}
		req := createRequest(t, http.MethodPost, route, []byte(`{"external_id":"org_1","username":"gophers","name":"Gophers","created_by":"user-7"}`))

		rr := serve(route, h.CreateCommunity, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.JSONEq(t, `{"id":"community-3"}`, rr.Body.String())
	})

	t.Run("missing name", func(t *testing.T) {
		h, _, _, _ := testHandler()
		req := createRequest(t, http.MethodPost, route, []byte(`{"external_id":"org_1","username":"gophers"}`))

		rr := serve(route, h.CreateCommunity, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetCommunityHandler(t *testing.T) {
	route := "/v1/communities/{community}"

	t.Run("found by external id", func(t *testing.T) {
		h, _, directory, _ := testHandler()
		directory.GetCommunityFunc = func(ctx context.Context, externalId domain.ExternalId) (domain.Community, error) {
			assert.Equal(t, "org_1", externalId)
			return domain.Community{Id: "community-3", ExternalId: externalId, Name: "Gophers"}, nil
		}
		req := createRequest(t, http.MethodGet, "/v1/communities/org_1", nil)

		rr := serve(route, h.GetCommunity, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"name":"Gophers"`)
	})

	t.Run("not found", func(t *testing.T) {
		h, _, directory, _ := testHandler()
		directory.GetCommunityFunc = func(ctx context.Context, externalId domain.ExternalId) (domain.Community, error) {
			return domain.Community{}, internal_errors.NotFound("Community not found")
		}
		req := createRequest(t, http.MethodGet, "/v1/communities/missing", nil)

		rr := serve(route, h.GetCommunity, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
