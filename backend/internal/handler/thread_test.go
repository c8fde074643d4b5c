package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/itchan-dev/threads/shared/api"
	"github.com/itchan-dev/threads/shared/domain"
	internal_errors "github.com/itchan-dev/threads/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateThreadHandler(t *testing.T) {
	route := "/v1/threads"

	t.Run("created", func(t *testing.T) {
		// Arrange
		h, threads, _, _ := testHandler()
		threads.CreateFunc = func(ctx context.Context, data domain.ThreadCreationData, path string) (domain.ThreadId, error) {
			assert.Equal(t, "hello", data.Text)
			assert.Equal(t, "user-1", data.Author)
			require.NotNil(t, data.CommunityExternalId)
			assert.Equal(t, "org_1", *data.CommunityExternalId)
			assert.Nil(t, data.Community)
			assert.Equal(t, "/", path)
			return "thread-42", nil
		}
		req := createRequest(t, http.MethodPost, route, []byte(`{"text":"hello","author":"user-1","community_id":"org_1","path":"/"}`))

		// Act
		rr := serve(route, h.CreateThread, req)

		// Assert
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"id":"thread-42"}`, rr.Body.String())
	})

	t.Run("missing fields", func(t *testing.T) {
		h, threads, _, _ := testHandler()
		threads.CreateFunc = func(ctx context.Context, data domain.ThreadCreationData, path string) (domain.ThreadId, error) {
			t.Fatal("service must not be called")
			return "", nil
		}
		req := createRequest(t, http.MethodPost, route, []byte(`{"text":"hello"}`))

		rr := serve(route, h.CreateThread, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Required fields missing\n", rr.Body.String())
	})

	t.Run("invalid json", func(t *testing.T) {
		h, _, _, _ := testHandler()
		req := createRequest(t, http.MethodPost, route, []byte(`{"text":`))

		rr := serve(route, h.CreateThread, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Body is invalid json\n", rr.Body.String())
	})

	t.Run("service status is forwarded", func(t *testing.T) {
		h, threads, _, _ := testHandler()
		threads.CreateFunc = func(ctx context.Context, data domain.ThreadCreationData, path string) (domain.ThreadId, error) {
			return "", internal_errors.NotFound("User not found")
		}
		req := createRequest(t, http.MethodPost, route, []byte(`{"text":"hello","author":"ghost"}`))

		rr := serve(route, h.CreateThread, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "User not found\n", rr.Body.String())
	})

	t.Run("internal error is hidden", func(t *testing.T) {
		h, threads, _, _ := testHandler()
		threads.CreateFunc = func(ctx context.Context, data domain.ThreadCreationData, path string) (domain.ThreadId, error) {
			return "", errors.New("mongo: connection pool closed")
		}
		req := createRequest(t, http.MethodPost, route, []byte(`{"text":"hello","author":"user-1"}`))

		rr := serve(route, h.CreateThread, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Internal server error\n", rr.Body.String())
	})
}

func TestGetFeedHandler(t *testing.T) {
	route := "/v1/threads"

	t.Run("defaults", func(t *testing.T) {
		// Arrange
		h, threads, _, _ := testHandler()
		created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		threads.GetFeedFunc = func(ctx context.Context, page, pageSize int) (domain.ThreadPage, error) {
			assert.Equal(t, 1, page)
			assert.Equal(t, 20, pageSize)
			return domain.ThreadPage{
				Threads: []*domain.Thread{{Id: "t1", Text: "hi", AuthorId: "u1", ChildIds: []domain.ThreadId{}, CreatedAt: created}},
				HasNext: true,
			}, nil
		}
		req := createRequest(t, http.MethodGet, route, nil)

		// Act
		rr := serve(route, h.GetFeed, req)

		// Assert
		require.Equal(t, http.StatusOK, rr.Code)
		var resp api.FeedResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.IsNext)
		require.Len(t, resp.Posts, 1)
		assert.Equal(t, "t1", resp.Posts[0].Id)
		assert.Contains(t, rr.Body.String(), `"is_next":true`)
		assert.Contains(t, rr.Body.String(), `"posts":[`)
	})

	t.Run("query parameters", func(t *testing.T) {
		h, threads, _, _ := testHandler()
		threads.GetFeedFunc = func(ctx context.Context, page, pageSize int) (domain.ThreadPage, error) {
			assert.Equal(t, 3, page)
			assert.Equal(t, 5, pageSize)
			return domain.ThreadPage{}, nil
		}
		req := createRequest(t, http.MethodGet, route+"?page=3&page_size=5", nil)

		rr := serve(route, h.GetFeed, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"posts":[],"is_next":false}`, rr.Body.String())
	})

	t.Run("non numeric page", func(t *testing.T) {
		h, _, _, _ := testHandler()
		req := createRequest(t, http.MethodGet, route+"?page=two", nil)

		rr := serve(route, h.GetFeed, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "invalid page")
	})

	t.Run("service rejects page", func(t *testing.T) {
		h, threads, _, _ := testHandler()
		threads.GetFeedFunc = func(ctx context.Context, page, pageSize int) (domain.ThreadPage, error) {
			return domain.ThreadPage{}, internal_errors.BadRequest("page must be a positive number")
		}
		req := createRequest(t, http.MethodGet, route+"?page=0", nil)

		rr := serve(route, h.GetFeed, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetThreadHandler(t *testing.T) {
	route := "/v1/threads/{thread}"

	t.Run("found", func(t *testing.T) {
		h, threads, _, _ := testHandler()
		threads.GetFunc = func(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
			assert.Equal(t, "abc", id)
			return domain.Thread{
				Id:       id,
				Text:     "root",
				ChildIds: []domain.ThreadId{"c1"},
				Children: []*domain.Thread{{Id: "c1", Text: "child", ChildIds: []domain.ThreadId{}}},
			}, nil
		}
		req := createRequest(t, http.MethodGet, "/v1/threads/abc", nil)

		rr := serve(route, h.GetThread, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp api.ThreadResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "abc", resp.Id)
		require.Len(t, resp.Children, 1)
		assert.Equal(t, "child", resp.Children[0].Text)
	})

	t.Run("not found", func(t *testing.T) {
		h, threads, _, _ := testHandler()
		threads.GetFunc = func(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
			return domain.Thread{}, internal_errors.NotFound("Thread not found")
		}
		req := createRequest(t, http.MethodGet, "/v1/threads/missing", nil)

		rr := serve(route, h.GetThread, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestAddCommentHandler(t *testing.T) {
	route := "/v1/threads/{thread}/comments"

	t.Run("created", func(t *testing.T) {
		h, threads, _, _ := testHandler()
		threads.AddCommentFunc = func(ctx context.Context, data domain.CommentCreationData, path string) (domain.ThreadId, error) {
			assert.Equal(t, "parent-1", data.ThreadId)
			assert.Equal(t, "nice", data.Text)
			assert.Equal(t, "user-2", data.Author)
			assert.Equal(t, "/thread/parent-1", path)
			return "comment-9", nil
		}
		req := createRequest(t, http.MethodPost, "/v1/threads/parent-1/comments", []byte(`{"text":"nice","author":"user-2","path":"/thread/parent-1"}`))

		rr := serve(route, h.AddComment, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.JSONEq(t, `{"id":"comment-9"}`, rr.Body.String())
	})

	t.Run("parent missing", func(t *testing.T) {
		h, threads, _, _ := testHandler()
		threads.AddCommentFunc = func(ctx context.Context, data domain.CommentCreationData, path string) (domain.ThreadId, error) {
			return "", errors.Join(errors.New("unable to add comment"), internal_errors.NotFound("Thread not found"))
		}
		req := createRequest(t, http.MethodPost, "/v1/threads/missing/comments", []byte(`{"text":"nice","author":"user-2"}`))

		rr := serve(route, h.AddComment, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("missing text", func(t *testing.T) {
		h, _, _, _ := testHandler()
		req := createRequest(t, http.MethodPost, "/v1/threads/parent-1/comments", []byte(`{"author":"user-2"}`))

		rr := serve(route, h.AddComment, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDeleteThreadHandler(t *testing.T) {
	route := "/v1/threads/{thread}"

	t.Run("deleted", func(t *testing.T) {
		h, threads, _, _ := testHandler()
		called := false
		threads.DeleteFunc = func(ctx context.Context, id domain.ThreadId, path string) error {
			called = true
			assert.Equal(t, "t1", id)
			assert.Equal(t, "/communities/org_1", path)
			return nil
		}
		req := createRequest(t, http.MethodDelete, "/v1/threads/t1?path=/communities/org_1", nil)

		rr := serve(route, h.DeleteThread, req)

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("not found", func(t *testing.T) {
		h, threads, _, _ := testHandler()
		threads.DeleteFunc = func(ctx context.Context, id domain.ThreadId, path string) error {
			return internal_errors.NotFound("Thread not found")
		}
		req := createRequest(t, http.MethodDelete, "/v1/threads/missing", nil)

		rr := serve(route, h.DeleteThread, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Thread not found\n", rr.Body.String())
	})
}
