package boards

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestReddit wires a Reddit client against an httptest server that also
// serves the token endpoint.
func newTestReddit(t *testing.T, mux *http.ServeMux) *Reddit {
	t.Helper()

	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"bearer","expires_in":3600}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	r := NewReddit(RedditCredentials{
		ClientID:     "id",
		ClientSecret: "secret",
		Username:     "errantbot",
		Password:     "pw",
		UserAgent:    "errant test",
	})
	r.BaseURL = srv.URL
	r.TokenURL = srv.URL + "/api/v1/access_token"
	return r
}

func TestReddit_CheckStatus(t *testing.T) {
	tests := []struct {
		name     string
		httpCode int
		body     string
		want     Status
	}{
		{"ok", http.StatusOK, `{}`, StatusOK},
		{"private", http.StatusForbidden, `{"reason":"private"}`, StatusPrivate},
		{"banned", http.StatusNotFound, `{"reason":"banned"}`, StatusBanned},
		{"nonexistent", http.StatusNotFound, `{}`, StatusNonexistent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/r/testboard/about.json", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.httpCode)
				fmt.Fprint(w, tt.body)
			})
			r := newTestReddit(t, mux)

			status, err := r.CheckStatus(context.Background(), "testboard")
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestReddit_Submit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/submit", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "painting", r.PostForm.Get("sr"))
		assert.Equal(t, "Dawn (ren)", r.PostForm.Get("title"))
		assert.Equal(t, "https://mirror.example/img", r.PostForm.Get("url"))
		assert.Equal(t, "flair-1", r.PostForm.Get("flair_id"))
		assert.Equal(t, "link", r.PostForm.Get("kind"))

		fmt.Fprint(w, `{"json":{"errors":[],"data":{"id":"ab12cd","name":"t3_ab12cd","url":"https://reddit.example/ab12cd"}}}`)
	})
	r := newTestReddit(t, mux)

	post, err := r.Submit(context.Background(), "painting", "Dawn (ren)", "https://mirror.example/img", "flair-1")
	require.NoError(t, err)
	assert.Equal(t, "ab12cd", post.Ref)
	assert.Equal(t, "https://reddit.example/ab12cd", post.Permalink)
}

func TestReddit_SubmitRejection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/submit", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"json":{"errors":[["RATELIMIT","you are doing that too much","ratelimit"]]}}`)
	})
	r := newTestReddit(t, mux)

	_, err := r.Submit(context.Background(), "painting", "t", "https://u", "")
	require.Error(t, err)
	assert.True(t, IsRejection(err))

	var rej *RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "RATELIMIT", rej.Code)
	assert.Equal(t, "you are doing that too much", rej.Message)
	assert.Equal(t, "painting", rej.Destination)
}

func TestReddit_SubmitTransportError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/submit", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	r := newTestReddit(t, mux)

	_, err := r.Submit(context.Background(), "painting", "t", "https://u", "")
	require.Error(t, err)
	assert.False(t, IsRejection(err), "an HTTP failure is not a rejection")
}

func TestReddit_MarkNSFWUsesFullname(t *testing.T) {
	var got string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/marknsfw", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r.PostForm.Get("id")
		fmt.Fprint(w, `{}`)
	})
	r := newTestReddit(t, mux)

	require.NoError(t, r.MarkNSFW(context.Background(), "ab12cd"))
	assert.Equal(t, "t3_ab12cd", got)
}

func TestReddit_OwnRepliesFiltersByAuthor(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/comments/ab12cd.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"data":{"children":[{"data":{"name":"t3_ab12cd","author":"errantbot"}}]}},
			{"data":{"children":[
				{"data":{"name":"t1_c1","author":"errantbot"}},
				{"data":{"name":"t1_c2","author":"someone_else"}},
				{"data":{"name":"t1_c3","author":"ErrantBot"}}
			]}}
		]`)
	})
	r := newTestReddit(t, mux)

	refs, err := r.OwnReplies(context.Background(), "ab12cd")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1_c1", "t1_c3"}, refs)
}

func TestReddit_LinkFlairs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/r/painting/api/link_flair_v2.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id":"f-1","text":"Original Work","mod_only":false},
			{"id":"f-2","text":"Announcement","mod_only":true}
		]`)
	})
	r := newTestReddit(t, mux)

	flairs, err := r.LinkFlairs(context.Background(), "painting")
	require.NoError(t, err)
	require.Len(t, flairs, 2)
	assert.Equal(t, Flair{ID: "f-1", Text: "Original Work"}, flairs[0])
	assert.True(t, flairs[1].ModOnly)
}
