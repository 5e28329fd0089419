package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Decode parses a catalog document. Files ending in .json are decoded as
// JSON, anything else as YAML.
func Decode(name string, data []byte) (Document, error) {
	var doc Document
	if strings.EqualFold(filepath.Ext(name), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil {
			return Document{}, errors.Wrapf(ErrInvalidCatalog, "decode %s: %v", name, err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, errors.Wrapf(ErrInvalidCatalog, "decode %s: %v", name, err)
	}
	return doc, nil
}

// LoadFile reads a catalog document from disk.
func LoadFile(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, errors.Wrapf(err, "read catalog %s", path)
	}
	return Decode(path, b)
}

// Loader feeds a Catalog from a file and, optionally, a remote endpoint.
type Loader struct {
	Path      string
	RemoteURL string
	MaxTries  uint
	Client    *http.Client

	catalog *Catalog
	logger  *zap.Logger
}

// NewLoader creates a loader bound to c.
func NewLoader(c *Catalog, path string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		Path:     path,
		MaxTries: 3,
		Client:   &http.Client{Timeout: 10 * time.Second},
		catalog:  c,
		logger:   logger.Named("catalog.loader"),
	}
}

// Reload reads Path and loads it into the catalog. A failed read or an
// invalid document leaves the catalog unchanged.
func (l *Loader) Reload() (int, error) {
	if l.Path == "" {
		return 0, nil
	}
	doc, err := LoadFile(l.Path)
	if err != nil {
		return 0, err
	}
	n, err := l.catalog.Load(doc)
	if err != nil {
		return 0, errors.Wrapf(err, "load %s", l.Path)
	}
	l.logger.Info("catalog file loaded", zap.String("path", l.Path), zap.Int("pools", n))
	return n, nil
}

// ReloadRemote fetches RemoteURL and loads the result into the catalog.
func (l *Loader) ReloadRemote(ctx context.Context) (int, error) {
	if l.RemoteURL == "" {
		return 0, nil
	}
	doc, err := FetchRemote(ctx, l.Client, l.RemoteURL, l.MaxTries)
	if err != nil {
		return 0, err
	}
	n, err := l.catalog.Load(doc)
	if err != nil {
		return 0, errors.Wrapf(err, "load %s", l.RemoteURL)
	}
	l.logger.Info("remote catalog loaded", zap.String("url", l.RemoteURL), zap.Int("pools", n))
	return n, nil
}

// FetchRemote GETs a JSON catalog document, retrying transport errors and
// 5xx responses with exponential backoff. Other failures are permanent.
func FetchRemote(ctx context.Context, client *http.Client, url string, maxTries uint) (Document, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if maxTries == 0 {
		maxTries = 1
	}

	fetch := func() (Document, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Document{}, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return Document{}, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return Document{}, err
		}
		if resp.StatusCode >= 500 {
			return Document{}, errors.Newf("remote catalog: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return Document{}, backoff.Permanent(errors.Newf("remote catalog: status %d", resp.StatusCode))
		}
		doc, err := Decode("remote.json", body)
		if err != nil {
			return Document{}, backoff.Permanent(err)
		}
		return doc, nil
	}

	doc, err := backoff.Retry(ctx, fetch,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxTries),
	)
	if err != nil {
		return Document{}, errors.Wrapf(err, "fetch catalog %s", url)
	}
	return doc, nil
}
