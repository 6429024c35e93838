package hosting

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestImgur wires an Imgur client against an httptest server that also
// serves the token endpoint.
func newTestImgur(t *testing.T, mux *http.ServeMux) *Imgur {
	t.Helper()

	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"bearer","expires_in":3600}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	i := NewImgur(ImgurCredentials{
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "refresh",
	})
	i.BaseURL = srv.URL + "/3"
	i.TokenURL = srv.URL + "/oauth2/token"
	return i
}

func TestImgur_UploadImage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/3/image", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "url", r.PostForm.Get("type"))
		assert.Equal(t, "https://cdn.example/dawn.png", r.PostForm.Get("image"))
		assert.Equal(t, "Dawn (ren)", r.PostForm.Get("title"))
		assert.Equal(t, "Source: https://art.example/dawn", r.PostForm.Get("description"))

		fmt.Fprint(w, `{"data":{"id":"h1","link":"https://i.imgur.example/h1.png"},"success":true,"status":200}`)
	})
	i := newTestImgur(t, mux)

	img, err := i.UploadImage(context.Background(),
		"https://cdn.example/dawn.png", "Dawn (ren)", "Source: https://art.example/dawn")
	require.NoError(t, err)
	assert.Equal(t, Image{ID: "h1", URL: "https://i.imgur.example/h1.png"}, img)
}

func TestImgur_UploadImageFailureStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/3/image", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{},"success":false,"status":400}`)
	})
	i := newTestImgur(t, mux)

	_, err := i.UploadImage(context.Background(), "https://cdn.example/x.png", "", "")
	assert.Error(t, err)
}

func TestImgur_CreateAlbum(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/3/album", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"id":"alb1"},"success":true,"status":200}`)
	})
	i := newTestImgur(t, mux)

	album, err := i.CreateAlbum(context.Background(), "Sketchbook (ren)", "Source: x")
	require.NoError(t, err)
	assert.Equal(t, "alb1", album.ID)
	assert.Equal(t, "https://imgur.com/a/alb1", album.URL)
}

func TestImgur_UploadToAlbum(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/3/image", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "alb1", r.PostForm.Get("album"))
		fmt.Fprint(w, `{"data":{"id":"p1","link":"https://i.imgur.example/p1.png"},"success":true,"status":200}`)
	})
	i := newTestImgur(t, mux)

	img, err := i.UploadToAlbum(context.Background(), "alb1", "https://cdn.example/page1.png")
	require.NoError(t, err)
	assert.Equal(t, "p1", img.ID)
}
