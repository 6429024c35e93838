package hosting

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// ImgurCredentials holds the registered application and the account's
// long-lived refresh token. The access token is minted lazily on first use.
type ImgurCredentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Imgur implements Host against the Imgur v3 API.
type Imgur struct {
	creds ImgurCredentials

	// BaseURL and TokenURL are overridable for tests.
	BaseURL  string
	TokenURL string

	mu     sync.Mutex
	client *http.Client
}

// NewImgur creates an unconnected Imgur host. No network traffic happens
// until the first upload.
func NewImgur(creds ImgurCredentials) *Imgur {
	return &Imgur{
		creds:    creds,
		BaseURL:  "https://api.imgur.com/3",
		TokenURL: "https://api.imgur.com/oauth2/token",
	}
}

// connect builds the authenticated client from the refresh token, once.
func (i *Imgur) connect(ctx context.Context) (*http.Client, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.client != nil {
		return i.client, nil
	}

	cfg := &oauth2.Config{
		ClientID:     i.creds.ClientID,
		ClientSecret: i.creds.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: i.TokenURL},
	}

	// An expired access token with a valid refresh token: the token source
	// exchanges it on first use and keeps it fresh afterwards.
	seed := &oauth2.Token{RefreshToken: i.creds.RefreshToken, Expiry: time.Now().Add(-time.Hour)}
	i.client = oauth2.NewClient(ctx, cfg.TokenSource(ctx, seed))
	i.client.Timeout = 60 * time.Second
	return i.client, nil
}

// imageData is the payload of image endpoints.
type imageData struct {
	Data struct {
		ID   string `json:"id"`
		Link string `json:"link"`
	} `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

// UploadImage implements Host. The host fetches the image by URL itself;
// nothing is downloaded locally.
func (i *Imgur) UploadImage(ctx context.Context, imageURL, title, description string) (Image, error) {
	return i.upload(ctx, url.Values{
		"type":        {"url"},
		"image":       {imageURL},
		"title":       {title},
		"description": {description},
	})
}

// CreateAlbum implements Host. The album endpoint only returns an id; the
// public URL is composed from it.
func (i *Imgur) CreateAlbum(ctx context.Context, title, description string) (Image, error) {
	var out imageData
	err := i.postForm(ctx, "/album", url.Values{
		"title":       {title},
		"description": {description},
	}, &out)
	if err != nil {
		return Image{}, err
	}
	if !out.Success {
		return Image{}, fmt.Errorf("create album: host reported status %d", out.Status)
	}
	return Image{ID: out.Data.ID, URL: "https://imgur.com/a/" + out.Data.ID}, nil
}

// UploadToAlbum implements Host.
func (i *Imgur) UploadToAlbum(ctx context.Context, albumID, imageURL string) (Image, error) {
	return i.upload(ctx, url.Values{
		"type":  {"url"},
		"image": {imageURL},
		"album": {albumID},
	})
}

func (i *Imgur) upload(ctx context.Context, form url.Values) (Image, error) {
	var out imageData
	if err := i.postForm(ctx, "/image", form, &out); err != nil {
		return Image{}, err
	}
	if !out.Success {
		return Image{}, fmt.Errorf("upload image: host reported status %d", out.Status)
	}
	return Image{ID: out.Data.ID, URL: out.Data.Link}, nil
}

func (i *Imgur) postForm(ctx context.Context, path string, form url.Values, out any) error {
	client, err := i.connect(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		i.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %s: unexpected HTTP %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("POST %s: decode: %w", path, err)
	}
	return nil
}
