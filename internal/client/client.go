// Package client talks to a running fibday server, so CLI commands can
// drive it instead of opening the store themselves.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lazypower/fibday/internal/counter"
	"github.com/lazypower/fibday/internal/notes"
	"github.com/lazypower/fibday/internal/store"
)

const (
	defaultServerURL = "http://127.0.0.1:37778"
	httpTimeout      = 5 * time.Second
)

// Client talks to the fibday server.
type Client struct {
	http      *http.Client
	serverURL string
}

// New creates a client for serverURL. An empty serverURL falls back to the
// FIBDAY_URL env var, then to http://127.0.0.1:37778.
func New(serverURL string) *Client {
	if serverURL == "" {
		serverURL = os.Getenv("FIBDAY_URL")
	}
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: serverURL,
	}
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) Activate(ctx context.Context) (counter.View, error) {
	var v counter.View
	err := c.do(ctx, http.MethodPost, "/api/activate", nil, &v)
	return v, err
}

func (c *Client) Status(ctx context.Context) (counter.View, error) {
	var v counter.View
	err := c.do(ctx, http.MethodGet, "/api/counter", nil, &v)
	return v, err
}

func (c *Client) Decide(ctx context.Context, d counter.Decision) (counter.View, error) {
	var v counter.View
	err := c.do(ctx, http.MethodPost, "/api/milestone/decision", map[string]string{"decision": d.String()}, &v)
	return v, err
}

func (c *Client) ListNotes(ctx context.Context) ([]notes.Note, error) {
	var resp struct {
		Notes []notes.Note `json:"notes"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Notes, nil
}

func (c *Client) AddNote(ctx context.Context, text string) (notes.Note, bool, error) {
	var resp struct {
		Added bool       `json:"added"`
		Note  notes.Note `json:"note"`
	}
	err := c.do(ctx, http.MethodPost, "/api/notes", map[string]string{"text": text}, &resp)
	return resp.Note, resp.Added, err
}

func (c *Client) EditNoteAt(ctx context.Context, index int, text string) (notes.Note, error) {
	var n notes.Note
	err := c.do(ctx, http.MethodPut, "/api/notes/"+strconv.Itoa(index), map[string]string{"text": text}, &n)
	return n, err
}

func (c *Client) RemoveNoteAt(ctx context.Context, index int) (notes.Note, error) {
	var resp struct {
		Removed notes.Note `json:"removed"`
	}
	err := c.do(ctx, http.MethodDelete, "/api/notes/"+strconv.Itoa(index), nil, &resp)
	return resp.Removed, err
}

func (c *Client) EditNote(ctx context.Context, id, text string) (notes.Note, error) {
	var n notes.Note
	err := c.do(ctx, http.MethodPut, "/api/notes/id/"+url.PathEscape(id), map[string]string{"text": text}, &n)
	return n, err
}

func (c *Client) RemoveNote(ctx context.Context, id string) (notes.Note, error) {
	var resp struct {
		Removed notes.Note `json:"removed"`
	}
	err := c.do(ctx, http.MethodDelete, "/api/notes/id/"+url.PathEscape(id), nil, &resp)
	return resp.Removed, err
}

// do sends body as JSON and decodes a 2xx response into out. Error
// statuses are mapped back onto the core's error kinds.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, rd)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		if v, ok := out.(*counter.View); ok {
			// error bodies carry the last counter the server showed
			var body struct {
				Counter *counter.View `json:"counter"`
			}
			if json.Unmarshal(data, &body) == nil && body.Counter != nil {
				*v = *body.Counter
			}
		}
		return statusError(method, path, resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response %s: %w", path, err)
	}
	return nil
}

func statusError(method, path string, code int, data []byte) error {
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	json.Unmarshal(data, &body)
	msg := body.Error
	if body.Detail != "" {
		msg = body.Detail
	}

	switch code {
	case http.StatusServiceUnavailable:
		return &store.AccessError{Op: "remote", Key: path, Err: fmt.Errorf("%s", msg)}
	case http.StatusNotFound:
		if strings.HasPrefix(msg, notes.ErrIndexOutOfRange.Error()) {
			return fmt.Errorf("%w (%s)", notes.ErrIndexOutOfRange, msg)
		}
		if strings.HasPrefix(msg, notes.ErrNotFound.Error()) {
			return fmt.Errorf("%w (%s)", notes.ErrNotFound, msg)
		}
	case http.StatusConflict:
		return counter.ErrNoPrompt
	case http.StatusBadRequest:
		if msg == notes.ErrBlank.Error() {
			return notes.ErrBlank
		}
	}
	return fmt.Errorf("%s %s: status %d: %s", method, path, code, msg)
}
