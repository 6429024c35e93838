package boards

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

// RedditCredentials is the script-app credential set for the Reddit API
// (password grant against the installed client).
type RedditCredentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
}

// Reddit implements Provider against the Reddit OAuth API.
//
// The OAuth token is fetched lazily on first use and cached for the rest of
// the invocation; golang.org/x/oauth2 handles refresh transparently.
type Reddit struct {
	creds RedditCredentials

	// BaseURL and TokenURL are overridable for tests.
	BaseURL  string
	TokenURL string

	mu     sync.Mutex
	client *http.Client
}

// NewReddit creates an unconnected Reddit provider. No network traffic
// happens until the first API call.
func NewReddit(creds RedditCredentials) *Reddit {
	return &Reddit{
		creds:    creds,
		BaseURL:  "https://oauth.reddit.com",
		TokenURL: "https://www.reddit.com/api/v1/access_token",
	}
}

// connect performs the password-grant token exchange once and caches the
// authenticated client. Idempotent: safe to call before every request.
func (r *Reddit) connect(ctx context.Context) (*http.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		return r.client, nil
	}

	cfg := &oauth2.Config{
		ClientID:     r.creds.ClientID,
		ClientSecret: r.creds.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: r.TokenURL},
	}

	token, err := cfg.PasswordCredentialsToken(ctx, r.creds.Username, r.creds.Password)
	if err != nil {
		return nil, fmt.Errorf("reddit auth: %w", err)
	}

	r.client = oauth2.NewClient(ctx, cfg.TokenSource(ctx, token))
	r.client.Timeout = 30 * time.Second
	return r.client, nil
}

// apiResponse is the envelope Reddit returns for api_type=json endpoints.
type apiResponse struct {
	JSON struct {
		Errors [][]string `json:"errors"`
		Data   struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"data"`
	} `json:"json"`
}

// CheckStatus implements Provider.
func (r *Reddit) CheckStatus(ctx context.Context, name string) (Status, error) {
	client, err := r.connect(ctx)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"/r/"+name+"/about.json", nil)
	if err != nil {
		return "", fmt.Errorf("check status of %q: %w", name, err)
	}
	req.Header.Set("User-Agent", r.creds.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("check status of %q: %w", name, err)
	}
	defer resp.Body.Close()

	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return StatusOK, nil
	case resp.StatusCode == http.StatusForbidden:
		return StatusPrivate, nil
	case resp.StatusCode == http.StatusNotFound && body.Reason == "banned":
		return StatusBanned, nil
	case resp.StatusCode == http.StatusNotFound:
		return StatusNonexistent, nil
	default:
		return "", fmt.Errorf("check status of %q: unexpected HTTP %d", name, resp.StatusCode)
	}
}

// Submit implements Provider. Provider-reported refusals (the errors array
// of the api_type=json envelope) are returned as *RejectionError.
func (r *Reddit) Submit(ctx context.Context, destination, title, linkURL, flairID string) (Post, error) {
	form := url.Values{
		"api_type": {"json"},
		"kind":     {"link"},
		"sr":       {destination},
		"title":    {title},
		"url":      {linkURL},
		"resubmit": {"true"},
	}
	if flairID != "" {
		form.Set("flair_id", flairID)
	}

	var body apiResponse
	if err := r.postForm(ctx, "/api/submit", form, &body); err != nil {
		return Post{}, err
	}

	if len(body.JSON.Errors) > 0 {
		e := body.JSON.Errors[0]
		rej := &RejectionError{Destination: destination}
		if len(e) > 0 {
			rej.Code = e[0]
		}
		if len(e) > 1 {
			rej.Message = e[1]
		}
		return Post{}, rej
	}

	return Post{
		Ref:       body.JSON.Data.ID,
		Permalink: body.JSON.Data.URL,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// MarkNSFW implements Provider.
func (r *Reddit) MarkNSFW(ctx context.Context, ref string) error {
	return r.postForm(ctx, "/api/marknsfw", url.Values{"id": {postFullname(ref)}}, nil)
}

// Reply implements Provider.
func (r *Reddit) Reply(ctx context.Context, ref, body string) error {
	form := url.Values{
		"api_type": {"json"},
		"thing_id": {postFullname(ref)},
		"text":     {body},
	}

	var resp apiResponse
	if err := r.postForm(ctx, "/api/comment", form, &resp); err != nil {
		return err
	}
	if len(resp.JSON.Errors) > 0 {
		e := resp.JSON.Errors[0]
		rej := &RejectionError{}
		if len(e) > 0 {
			rej.Code = e[0]
		}
		if len(e) > 1 {
			rej.Message = e[1]
		}
		return rej
	}
	return nil
}

// DeletePost implements Provider.
func (r *Reddit) DeletePost(ctx context.Context, ref string) error {
	return r.postForm(ctx, "/api/del", url.Values{"id": {postFullname(ref)}}, nil)
}

// OwnReplies implements Provider. Returns the fullnames of the
// authenticated account's top-level comments under the post.
func (r *Reddit) OwnReplies(ctx context.Context, ref string) ([]string, error) {
	client, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.BaseURL+"/comments/"+ref+".json?depth=1", nil)
	if err != nil {
		return nil, fmt.Errorf("list replies of %s: %w", ref, err)
	}
	req.Header.Set("User-Agent", r.creds.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list replies of %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list replies of %s: unexpected HTTP %d", ref, resp.StatusCode)
	}

	// The comments endpoint returns two listings: the post and its comments.
	var listings []struct {
		Data struct {
			Children []struct {
				Data struct {
					Name   string `json:"name"`
					Author string `json:"author"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return nil, fmt.Errorf("list replies of %s: decode: %w", ref, err)
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var refs []string
	for _, child := range listings[1].Data.Children {
		if strings.EqualFold(child.Data.Author, r.creds.Username) {
			refs = append(refs, child.Data.Name)
		}
	}
	return refs, nil
}

// DeleteReply implements Provider.
func (r *Reddit) DeleteReply(ctx context.Context, ref string) error {
	return r.postForm(ctx, "/api/del", url.Values{"id": {ref}}, nil)
}

// LinkFlairs implements Provider.
func (r *Reddit) LinkFlairs(ctx context.Context, destination string) ([]Flair, error) {
	client, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.BaseURL+"/r/"+destination+"/api/link_flair_v2.json", nil)
	if err != nil {
		return nil, fmt.Errorf("list flairs of %q: %w", destination, err)
	}
	req.Header.Set("User-Agent", r.creds.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list flairs of %q: %w", destination, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list flairs of %q: unexpected HTTP %d", destination, resp.StatusCode)
	}

	var raw []struct {
		ID      string `json:"id"`
		Text    string `json:"text"`
		ModOnly bool   `json:"mod_only"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("list flairs of %q: decode: %w", destination, err)
	}

	flairs := make([]Flair, 0, len(raw))
	for _, f := range raw {
		flairs = append(flairs, Flair{ID: f.ID, Text: f.Text, ModOnly: f.ModOnly})
	}
	return flairs, nil
}

// postForm sends an authenticated form POST and optionally decodes the JSON
// response into out.
func (r *Reddit) postForm(ctx context.Context, path string, form url.Values, out any) error {
	client, err := r.connect(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", r.creds.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %s: unexpected HTTP %d", path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("POST %s: decode: %w", path, err)
		}
	}
	return nil
}

// postFullname prefixes a bare post id with the link-kind tag the API
// expects. Already-prefixed ids pass through unchanged.
func postFullname(ref string) string {
	if strings.HasPrefix(ref, "t3_") {
		return ref
	}
	return "t3_" + ref
}
