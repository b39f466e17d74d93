package allowlist

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/dmitrijs2005/stallpass/internal/logging"
	"github.com/dmitrijs2005/stallpass/internal/server/objectstore"
)

// Loader fetches the allow-list from a local file, an http(s) URL or an
// s3://bucket/key object.
type Loader struct {
	s3     objectstore.API
	client *http.Client
	logger logging.Logger
}

// NewLoader creates a Loader. s3 may be nil when no object storage is
// configured; s3:// sources then fail to load.
func NewLoader(s3 objectstore.API, client *http.Client, logger logging.Logger) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{s3: s3, client: client, logger: logger.With("module", "allowlist")}
}

func (l *Loader) Load(ctx context.Context, source string) (*AllowList, error) {
	raw, err := l.read(ctx, source)
	if err != nil {
		return nil, err
	}

	list, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	l.logger.Info(ctx, "allow-list loaded", "source", source, "emails", list.Len())
	return list, nil
}

// LoadOrEmpty never fails: a broken source is logged and yields an empty
// list, which rejects every signup until the process is restarted with a
// working source.
func (l *Loader) LoadOrEmpty(ctx context.Context, source string) *AllowList {
	list, err := l.Load(ctx, source)
	if err != nil {
		l.logger.Error(ctx, "allow-list not loaded, all signups will be rejected", "source", source, "error", err)
		return New()
	}
	return list
}

func (l *Loader) read(ctx context.Context, source string) ([]byte, error) {
	switch {
	case source == "":
		return nil, fmt.Errorf("allow-list source is empty")

	case strings.HasPrefix(source, "s3://"):
		if l.s3 == nil {
			return nil, fmt.Errorf("allow-list source %q needs object storage", source)
		}
		bucket, key, err := objectstore.ParseURI(source)
		if err != nil {
			return nil, err
		}
		return objectstore.Get(ctx, l.s3, bucket, key)

	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("error fetching allow-list: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("error fetching allow-list: %s", resp.Status)
		}
		return io.ReadAll(io.LimitReader(resp.Body, 32<<20))

	default:
		b, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("error reading allow-list file: %w", err)
		}
		return b, nil
	}
}
