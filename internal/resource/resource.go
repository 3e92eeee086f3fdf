// Package resource fetches small read-only text resources (dev env files,
// fallback JSON) from either the local filesystem or an HTTP origin.
package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// ErrNotFound reports a resource that does not exist (missing file or HTTP 404).
var ErrNotFound = errors.New("resource not found")

// maxSize caps how much of a resource is read.
const maxSize = 4 << 20

type Resource interface {
	Read(ctx context.Context) ([]byte, error)
	String() string
}

// New picks an HTTP resource for http(s) locations and a file otherwise.
func New(location string, client *http.Client) Resource {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return HTTP{URL: location, Client: client}
	}
	return File{Path: location}
}

type File struct {
	Path string
}

func (f File) String() string { return f.Path }

func (f File) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", f.Path, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", f.Path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	return data, nil
}

type HTTP struct {
	URL    string
	Client *http.Client
}

func (h HTTP) String() string { return h.URL }

func (h HTTP) Read(ctx context.Context) ([]byte, error) {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", h.URL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", h.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", h.URL, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", h.URL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", h.URL, err)
	}
	return data, nil
}
