package discourse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabsvcs/discussion/model"
	"github.com/collabsvcs/discussion/store"
)

type fakeAssociations struct {
	categoryId *int
	lookupErr  error
	storeErr   error
	stored     map[string]int
}

func newFakeAssociations() *fakeAssociations {
	return &fakeAssociations{stored: map[string]int{}}
}

func (f *fakeAssociations) Lookup(assetId string) (*int, error) {
	return f.categoryId, f.lookupErr
}

func (f *fakeAssociations) Store(assetId string, categoryId int) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.stored[assetId] = categoryId
	return nil
}

func intPtr(v int) *int { return &v }

func TestErrorClassification(t *testing.T) {
	for _, tt := range []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "server error is concealed",
			status: http.StatusBadGateway,
			body:   `upstream exploded`,
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrUnavailable))
			},
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{}`,
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrResourceUnavailable))
			},
		},
		{
			name:   "forbidden means bad api key",
			status: http.StatusForbidden,
			body:   `{}`,
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrAuthentication))
			},
		},
		{
			name:   "unprocessable surfaces the platform detail",
			status: http.StatusUnprocessableEntity,
			body:   `{"errors":["Title is too similar to an existing topic","Body is too short"]}`,
			check: func(t *testing.T, err error) {
				var requestErr *RequestError
				require.True(t, errors.As(err, &requestErr))
				assert.Equal(t, "Title is too similar to an existing topic-Body is too short", requestErr.Detail)
			},
		},
		{
			name:   "rate limited surfaces the platform detail",
			status: http.StatusTooManyRequests,
			body:   `{"errors":["Slow down"]}`,
			check: func(t *testing.T, err error) {
				var requestErr *RequestError
				require.True(t, errors.As(err, &requestErr))
				assert.Equal(t, "Slow down", requestErr.Detail)
			},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "key", newFakeAssociations())
			_, err := client.GetTopic(context.Background(), "42")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestDoSetsImpersonationHeaders(t *testing.T) {
	var gotKey, gotUsername string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Api-Key")
		gotUsername = r.Header.Get("Api-Username")
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 1})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret", newFakeAssociations())
	_, err := client.CreatePost(context.Background(), "alice", "7", "some content")
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "alice", gotUsername)

	// Reads fall back to the system account.
	_, err = client.GetTopic(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "system", gotUsername)
}

func TestGetCategoryCreatesWhenUnknown(t *testing.T) {
	var createdName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			// The recorded category is gone on the platform.
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost && r.URL.Path == "/categories.json":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			createdName = body["name"]
			json.NewEncoder(w).Encode(map[string]interface{}{
				"category": map[string]interface{}{"id": 17, "name": body["name"], "slug": "fresh"},
			})
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	associations := newFakeAssociations()
	client := NewClient(srv.URL, "key", associations)

	assetId := "0a6e847b-4e8d-4e99-bd61-8a53f96e3c62"
	category, err := client.GetCategory(context.Background(), intPtr(99), assetId)
	require.NoError(t, err)
	assert.Equal(t, 17, category.Id)
	assert.Regexp(t, `^\d+_`+assetId+`$`, createdName)
	assert.Equal(t, 17, associations.stored[assetId])
}

func TestGetCategoryWithoutAssociationCreates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"category": map[string]interface{}{"id": 3, "slug": "new"},
		})
	}))
	defer srv.Close()

	associations := newFakeAssociations()
	client := NewClient(srv.URL, "key", associations)

	category, err := client.GetCategory(context.Background(), nil, "0a6e847b-4e8d-4e99-bd61-8a53f96e3c62")
	require.NoError(t, err)
	assert.Equal(t, 3, category.Id)
}

func TestCreateCategoryToleratesLostRace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"category": map[string]interface{}{"id": 8, "slug": "dup"},
		})
	}))
	defer srv.Close()

	associations := newFakeAssociations()
	associations.storeErr = store.ErrDuplicateAssociation
	client := NewClient(srv.URL, "key", associations)

	category, err := client.CreateCategory(context.Background(), "0a6e847b-4e8d-4e99-bd61-8a53f96e3c62")
	require.NoError(t, err)
	assert.Equal(t, 8, category.Id)
}

func TestCreateCategoryPropagatesStoreFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"category": map[string]interface{}{"id": 8},
		})
	}))
	defer srv.Close()

	associations := newFakeAssociations()
	associations.storeErr = errors.New("connection refused")
	client := NewClient(srv.URL, "key", associations)

	_, err := client.CreateCategory(context.Background(), "0a6e847b-4e8d-4e99-bd61-8a53f96e3c62")
	assert.Error(t, err)
}

func TestGetTopicsFiltersPlaceholderAndResolvesPoster(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/c/general/1.json", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"users": []map[string]interface{}{
				{"id": 5, "username": "test1"},
				{"id": 6, "username": "replier"},
			},
			"topic_list": map[string]interface{}{
				"topics": []map[string]interface{}{
					{"id": 10, "title": "About the 1 category"},
					{
						"id":    11,
						"title": "A genuine discussion topic",
						"posters": []map[string]interface{}{
							{"description": "Original Poster", "user_id": 5},
							{"description": "Most Recent Poster", "user_id": 6},
						},
					},
				},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", newFakeAssociations())
	topics, err := client.GetTopics(context.Background(), "general", 1)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, 11, topics[0].Id)
	assert.Equal(t, "test1", topics[0].Username)
}

func TestGetTopicsMissingCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", newFakeAssociations())
	_, err := client.GetTopics(context.Background(), "gone", 999)
	assert.True(t, errors.Is(err, ErrResourceUnavailable))
}

func TestIsDefaultTopicTitle(t *testing.T) {
	assert.True(t, IsDefaultTopicTitle("About the 1 category"))
	assert.True(t, IsDefaultTopicTitle("About the 123456_0a6e847b-4e8d-4e99-bd61-8a53f96e3c62 category"))
	assert.False(t, IsDefaultTopicTitle("A question about the 1 category"))
	assert.False(t, IsDefaultTopicTitle("About the weather"))
}

func TestCreateTopicSendsCategoryAsString(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/posts.json", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 55, "topic_id": 21, "username": "alice"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", newFakeAssociations())
	post, err := client.CreateTopic(context.Background(), "alice", 17, "A long enough title", "A long enough first post body")
	require.NoError(t, err)
	assert.Equal(t, 55, post.Id)
	assert.Equal(t, 21, post.TopicId)
	assert.Equal(t, "17", body["category"])
	assert.Equal(t, "A long enough title", body["title"])
	assert.Equal(t, "A long enough first post body", body["raw"])
}

func TestCreateTopicSurfacesEmbeddedErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 with an embedded errors array still counts as a rejection.
		json.NewEncoder(w).Encode(map[string]interface{}{"errors": []string{"Title is invalid"}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", newFakeAssociations())
	_, err := client.CreateTopic(context.Background(), "alice", 17, "A long enough title", "A long enough first post body")
	var requestErr *RequestError
	require.True(t, errors.As(err, &requestErr))
	assert.Equal(t, "Title is invalid", requestErr.Detail)
}

func TestGetTopicWithPostsResolvesCreator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/t/67.json", r.URL.Path)
		require.Equal(t, "print=true", r.URL.RawQuery)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    67,
			"title": "A genuine discussion topic",
			"post_stream": map[string]interface{}{
				"posts": []map[string]interface{}{
					{"id": 90, "username": "test1", "cooked": "<p>hello</p>"},
				},
			},
			"details": map[string]interface{}{
				"created_by": map[string]interface{}{"id": 5, "username": "test1"},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", newFakeAssociations())
	topic, posts, err := client.GetTopicWithPosts(context.Background(), "67")
	require.NoError(t, err)
	assert.Equal(t, 67, topic.Id)
	assert.Equal(t, "test1", topic.Username)
	require.Len(t, posts, 1)
	assert.Equal(t, "test1", posts[0].Username)
}

func TestEditPostParsesPostEnvelope(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/posts/90.json", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"post": map[string]interface{}{"id": 90, "cooked": "<p>updated</p>"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", newFakeAssociations())
	post, err := client.EditPost(context.Background(), "90", "updated")
	require.NoError(t, err)
	assert.Equal(t, "updated", body["raw"])
	assert.Equal(t, 90, post.Id)
}

func TestEnsureUser(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users.json", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", newFakeAssociations())
	err := client.EnsureUser(context.Background(), &model.User{
		Id:          "484a55f2-9e33-4fd6-900e-16ae64a377f4",
		Username:    "alice",
		DisplayName: "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "484a55f2-9e33-4fd6-900e-16ae64a377f4@eu.space", body["email"])
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "Alice", body["name"])
	assert.Equal(t, "#despAAS2024", body["password"])
	assert.Equal(t, "true", body["active"])
}

func TestEnsureUserRequiresIdentity(t *testing.T) {
	client := NewClient("http://localhost:1", "key", newFakeAssociations())
	err := client.EnsureUser(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrAuthenticationNeeded))
}

func TestDeleteTopic(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", newFakeAssociations())
	require.NoError(t, client.DeleteTopic(context.Background(), "67"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/t/67.json", gotPath)
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	// Nothing listens on this port.
	client := NewClient("http://127.0.0.1:1", "key", newFakeAssociations())
	_, err := client.GetTopic(context.Background(), "67")
	assert.True(t, errors.Is(err, ErrUnavailable))
}
