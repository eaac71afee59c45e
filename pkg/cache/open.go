package cache

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Open returns the backend described by rawURL:
//
//	""                  file cache in DefaultDir
//	"file:///some/dir"  file cache in /some/dir
//	"none"              NullCache
//	"redis://host:6379/0", "rediss://..."
//	"mongodb://host/db?collection=results", "mongodb+srv://..."
func Open(ctx context.Context, rawURL string) (Cache, error) {
	switch {
	case rawURL == "" || rawURL == "file://":
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		return openFile(dir)
	case rawURL == "none" || rawURL == "null":
		return NewNullCache("cache URL " + rawURL), nil
	case strings.HasPrefix(rawURL, "file://"):
		return openFile(strings.TrimPrefix(rawURL, "file://"))
	case strings.HasPrefix(rawURL, "redis://"), strings.HasPrefix(rawURL, "rediss://"):
		c, err := NewRedisCache(ctx, rawURL, "exorcism:")
		if err != nil {
			return nil, err
		}
		return c, nil
	case strings.HasPrefix(rawURL, "mongodb://"), strings.HasPrefix(rawURL, "mongodb+srv://"):
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("cache: parsing mongo URL: %w", err)
		}
		q := u.Query()
		coll := q.Get("collection")
		q.Del("collection")
		u.RawQuery = q.Encode()
		c, err := NewMongoCache(ctx, u.String(), strings.Trim(u.Path, "/"), coll)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, rawURL)
}

func openFile(dir string) (Cache, error) {
	c, err := NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return c, nil
}
