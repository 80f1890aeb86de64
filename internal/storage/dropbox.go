package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DropboxConfig carries the OAuth2 app credentials for a Dropbox client.
// Access tokens are short-lived; the long-lived refresh token is exchanged
// on demand.
type DropboxConfig struct {
	AppKey       string
	AppSecret    string
	RefreshToken string
}

// Dropbox implements Provider against the Dropbox HTTP API.
type Dropbox struct {
	cfg    DropboxConfig
	client *http.Client

	// Endpoint bases, overridable in tests.
	apiBase     string
	contentBase string
	authBase    string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewDropbox creates a Dropbox-backed provider.
func NewDropbox(cfg DropboxConfig) *Dropbox {
	return &Dropbox{
		cfg:         cfg,
		client:      &http.Client{Timeout: 30 * time.Second},
		apiBase:     "https://api.dropboxapi.com",
		contentBase: "https://content.dropboxapi.com",
		authBase:    "https://api.dropboxapi.com",
	}
}

// token returns a valid access token, refreshing it when it is about to
// expire. Refreshes are serialized; concurrent callers reuse the result.
func (d *Dropbox) token(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.accessToken != "" && time.Now().Add(time.Minute).Before(d.tokenExpiry) {
		return d.accessToken, nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {d.cfg.RefreshToken},
		"client_id":     {d.cfg.AppKey},
		"client_secret": {d.cfg.AppSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.authBase+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("dropbox: refresh token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("dropbox: refresh token: status %d: %s", resp.StatusCode, body)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("dropbox: decode token: %w", err)
	}
	d.accessToken = tok.AccessToken
	d.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return d.accessToken, nil
}

// rpc posts a JSON request to an api.dropboxapi.com endpoint and decodes the
// JSON response into out (which may be nil).
func (d *Dropbox) rpc(ctx context.Context, endpoint string, in, out any) error {
	token, err := d.token(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.apiBase+endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("dropbox: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, endpoint); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// content posts to a content.dropboxapi.com endpoint with the request
// parameters in the Dropbox-API-Arg header, returning the raw response body.
func (d *Dropbox) content(ctx context.Context, endpoint string, arg any, body []byte) ([]byte, error) {
	token, err := d.token(ctx)
	if err != nil {
		return nil, err
	}
	argJSON, err := json.Marshal(arg)
	if err != nil {
		return nil, err
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.contentBase+endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Dropbox-API-Arg", string(argJSON))
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dropbox: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, endpoint); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

// checkStatus maps Dropbox API errors onto the storage sentinels. Dropbox
// reports domain errors as 409 with a machine-readable error_summary.
func checkStatus(resp *http.Response, endpoint string) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	summary := string(body)
	if resp.StatusCode == http.StatusConflict {
		var apiErr struct {
			Summary string `json:"error_summary"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Summary != "" {
			summary = apiErr.Summary
		}
		if strings.Contains(summary, "not_found") {
			return fmt.Errorf("dropbox: %s: %s: %w", endpoint, summary, ErrNotFound)
		}
		if strings.Contains(summary, "conflict") {
			return fmt.Errorf("dropbox: %s: %s: %w", endpoint, summary, ErrExists)
		}
	}
	return fmt.Errorf("dropbox: %s: status %d: %s", endpoint, resp.StatusCode, summary)
}

type dropboxEntry struct {
	Tag  string `json:".tag"`
	Name string `json:"name"`
	Rev  string `json:"rev"`
}

func (d *Dropbox) ListFolder(ctx context.Context, path string) ([]Entry, error) {
	var out []Entry
	var page struct {
		Entries []dropboxEntry `json:"entries"`
		Cursor  string         `json:"cursor"`
		HasMore bool           `json:"has_more"`
	}
	if err := d.rpc(ctx, "/2/files/list_folder", map[string]any{"path": path}, &page); err != nil {
		return nil, err
	}
	for {
		for _, e := range page.Entries {
			out = append(out, Entry{Name: e.Name, IsFolder: e.Tag == "folder"})
		}
		if !page.HasMore {
			return out, nil
		}
		cursor := page.Cursor
		page.Entries = nil
		if err := d.rpc(ctx, "/2/files/list_folder/continue", map[string]any{"cursor": cursor}, &page); err != nil {
			return nil, err
		}
	}
}

func (d *Dropbox) Download(ctx context.Context, path string) ([]byte, error) {
	return d.content(ctx, "/2/files/download", map[string]any{"path": path}, nil)
}

func (d *Dropbox) Upload(ctx context.Context, path string, data []byte, overwrite bool) error {
	mode := "add"
	if overwrite {
		mode = "overwrite"
	}
	arg := map[string]any{
		"path": path,
		"mode": mode,
		"mute": true,
	}
	_, err := d.content(ctx, "/2/files/upload", arg, data)
	return err
}

func (d *Dropbox) Delete(ctx context.Context, path string) error {
	return d.rpc(ctx, "/2/files/delete_v2", map[string]any{"path": path}, nil)
}

func (d *Dropbox) CreateFolder(ctx context.Context, path string) error {
	return d.rpc(ctx, "/2/files/create_folder_v2", map[string]any{"path": path}, nil)
}

func (d *Dropbox) Move(ctx context.Context, src, dst string) error {
	return d.rpc(ctx, "/2/files/move_v2", map[string]any{
		"from_path": src,
		"to_path":   dst,
	}, nil)
}

func (d *Dropbox) GetMetadata(ctx context.Context, path string) (Metadata, error) {
	var meta dropboxEntry
	if err := d.rpc(ctx, "/2/files/get_metadata", map[string]any{"path": path}, &meta); err != nil {
		return Metadata{}, err
	}
	return Metadata{Rev: meta.Rev}, nil
}

func (d *Dropbox) GetThumbnail(ctx context.Context, path, size string) ([]byte, error) {
	arg := map[string]any{
		"resource": map[string]any{".tag": "path", "path": path},
		"format":   "jpeg",
		"size":     size,
	}
	return d.content(ctx, "/2/files/get_thumbnail_v2", arg, nil)
}
