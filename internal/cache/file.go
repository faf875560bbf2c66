package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mustafadnc15/ezan-saati-pro/internal/api"
	"github.com/mustafadnc15/ezan-saati-pro/internal/geo"
)

const (
	dayCacheFile   = "timings_%s.json"  // keyed by hash
	monthCacheFile = "calendar_%s.json" // keyed by hash
	geoCacheFile   = "geolocation.json"
)

// Cache is the file-backed Store.
type Cache struct {
	dir string
	now func() time.Time
}

// DefaultDir returns ~/.cache/ezan-saati.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "ezan-saati"), nil
}

// New creates a Cache rooted at the given directory.
// If dir is empty, it defaults to DefaultDir.
func New(dir string) (*Cache, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	return &Cache{dir: dir, now: time.Now}, nil
}

// Dir returns the directory the cache writes to.
func (c *Cache) Dir() string {
	return c.dir
}

// readJSON decodes path into out. A missing or corrupted file is a miss.
func (c *Cache) readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("failed to read cache file: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Debug().Err(err).Str("path", path).Msg("ignoring corrupted cache file")
		return ErrMiss
	}
	return nil
}

func (c *Cache) writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// LoadDay reads cached prayer times for the given parameters. An entry for
// another day is treated as a miss.
func (c *Cache) LoadDay(_ context.Context, date time.Time, q api.Query) (*DayEntry, error) {
	stamp := dayStamp(date)
	path := filepath.Join(c.dir, fmt.Sprintf(dayCacheFile, Key(stamp, q)))

	var entry DayEntry
	if err := c.readJSON(path, &entry); err != nil {
		return nil, err
	}
	if entry.Date != stamp {
		return nil, ErrMiss
	}
	return &entry, nil
}

// SaveDay writes one day's response data to the cache.
func (c *Cache) SaveDay(_ context.Context, date time.Time, q api.Query, data api.Data) error {
	stamp := dayStamp(date)
	path := filepath.Join(c.dir, fmt.Sprintf(dayCacheFile, Key(stamp, q)))

	return c.writeJSON(path, DayEntry{
		Date:   stamp,
		Method: q.Method,
		School: q.School,
		Data:   data,
	})
}

// LoadMonth reads a cached calendar month.
func (c *Cache) LoadMonth(_ context.Context, year int, month time.Month, q api.Query) (*MonthEntry, error) {
	stamp := monthStamp(year, month)
	path := filepath.Join(c.dir, fmt.Sprintf(monthCacheFile, Key(stamp, q)))

	var entry MonthEntry
	if err := c.readJSON(path, &entry); err != nil {
		return nil, err
	}
	if entry.Month != stamp || len(entry.Days) == 0 {
		return nil, ErrMiss
	}
	return &entry, nil
}

// SaveMonth writes a calendar month to the cache.
func (c *Cache) SaveMonth(_ context.Context, year int, month time.Month, q api.Query, days []api.Data) error {
	stamp := monthStamp(year, month)
	path := filepath.Join(c.dir, fmt.Sprintf(monthCacheFile, Key(stamp, q)))

	return c.writeJSON(path, MonthEntry{
		Month:  stamp,
		Method: q.Method,
		School: q.School,
		Days:   days,
	})
}

// LoadGeo reads a cached geolocation result. Entries older than 24 hours
// are a miss.
func (c *Cache) LoadGeo(_ context.Context) (*geo.Location, error) {
	var entry GeoEntry
	if err := c.readJSON(filepath.Join(c.dir, geoCacheFile), &entry); err != nil {
		return nil, err
	}
	if c.now().Sub(entry.CachedAt) > geoTTL {
		return nil, ErrMiss
	}
	return &entry.Location, nil
}

// SaveGeo writes a geolocation result to the cache.
func (c *Cache) SaveGeo(_ context.Context, loc *geo.Location) error {
	return c.writeJSON(filepath.Join(c.dir, geoCacheFile), GeoEntry{
		Location: *loc,
		CachedAt: c.now(),
	})
}
