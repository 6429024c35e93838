package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"unicode"
)

// ArtStation extracts work metadata from ArtStation project pages via the
// public project JSON endpoint.
type ArtStation struct {
	// Client and BaseURL are overridable for tests.
	Client  *http.Client
	BaseURL string
}

// NewArtStation creates the ArtStation extractor.
func NewArtStation() *ArtStation {
	return &ArtStation{
		Client:  http.DefaultClient,
		BaseURL: "https://www.artstation.com",
	}
}

// Matches implements Extractor.
func (a *ArtStation) Matches(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	return host == "artstation.com" || strings.HasSuffix(host, ".artstation.com")
}

// project mirrors the fields of the ArtStation project JSON this extractor
// reads.
type project struct {
	Title        string `json:"title"`
	AdultContent bool   `json:"adult_content"`
	User         struct {
		FullName string `json:"full_name"`
		Username string `json:"username"`
	} `json:"user"`
	Assets []struct {
		ImageURL string `json:"image_url"`
	} `json:"assets"`
}

// Extract implements Extractor. The project hash is the last path segment
// of the page URL.
func (a *ArtStation) Extract(ctx context.Context, pageURL string, opts Options) (Metadata, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Metadata{}, fmt.Errorf("artstation: parse %q: %w", pageURL, err)
	}

	hash := path.Base(strings.TrimSuffix(u.Path, "/"))
	if hash == "" || hash == "." || hash == "/" {
		return Metadata{}, fmt.Errorf("artstation: no project hash in %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.BaseURL+"/projects/"+hash+".json", nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("artstation: %w", err)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("artstation: fetch project %q: %w", hash, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Metadata{}, fmt.Errorf("artstation: project %q: unexpected HTTP %d", hash, resp.StatusCode)
	}

	var p project
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Metadata{}, fmt.Errorf("artstation: decode project %q: %w", hash, err)
	}
	if len(p.Assets) == 0 {
		return Metadata{}, fmt.Errorf("artstation: project %q has no assets", hash)
	}

	artist := cleanArtist(p.User.FullName)
	if opts.PreferUsername || artist == "" {
		artist = p.User.Username
	}

	md := Metadata{
		Title:     p.Title,
		Artists:   []string{artist},
		NSFW:      p.AdultContent,
		SourceURL: pageURL,
	}

	if opts.Album {
		for _, asset := range p.Assets {
			md.ImageURLs = append(md.ImageURLs, asset.ImageURL)
		}
		return md, nil
	}

	idx := opts.Index
	if idx < 1 {
		idx = 1
	}
	if idx > len(p.Assets) {
		return Metadata{}, fmt.Errorf("artstation: project %q has %d images, asked for %d", hash, len(p.Assets), idx)
	}
	md.ImageURL = p.Assets[idx-1].ImageURL
	return md, nil
}

// cleanArtist strips emoji and other decorative symbols that artists pad
// their display names with.
func cleanArtist(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.In(r, unicode.So, unicode.Sk, unicode.Cf) {
			return -1
		}
		if r >= 0xFE00 && r <= 0xFE0F { // variation selectors
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(cleaned)
}
