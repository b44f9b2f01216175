// Package storage persists article records keyed by URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/durjog-khobor/internal/domain"
)

// Supported drivers.
const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

// ErrNotFound is returned by Get when no record exists for the URL.
var ErrNotFound = errors.New("article not found")

// ErrUnknownField is returned for a timestamp field the store cannot filter on.
var ErrUnknownField = errors.New("unknown timestamp field")

// Field names a record timestamp usable for range operations.
type Field string

const (
	// FieldPublished is the article's publication time.
	FieldPublished Field = "published"
	// FieldScraped is the time the record was last written.
	FieldScraped Field = "scraped"
)

func (f Field) validate() error {
	switch f {
	case FieldPublished, FieldScraped:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, string(f))
	}
}

// of returns the field's value on a.
func (f Field) of(a domain.Article) time.Time {
	if f == FieldScraped {
		return a.ScrapedAt
	}
	return a.PublishedAt
}

// UpsertResult says whether an upsert created or replaced a record.
type UpsertResult int

const (
	// Inserted means no record existed for the URL.
	Inserted UpsertResult = iota
	// Updated means an existing record was overwritten in place.
	Updated
)

func (r UpsertResult) String() string {
	if r == Updated {
		return "updated"
	}
	return "inserted"
}

// Store is the persistence contract the ingestion coordinator relies on.
// Implementations must be safe for a few concurrent callers.
type Store interface {
	// Get returns the record for url or ErrNotFound.
	Get(ctx context.Context, url string) (domain.Article, error)
	// Upsert inserts or overwrites the record keyed by a.URL. Other URLs are
	// never touched.
	Upsert(ctx context.Context, a domain.Article) (UpsertResult, error)
	// DeleteOlderThan removes records whose field is before cutoff.
	DeleteOlderThan(ctx context.Context, field Field, cutoff time.Time) (int, error)
	// ListSince returns records whose field is at or after cutoff, newest
	// first by that field.
	ListSince(ctx context.Context, field Field, cutoff time.Time) ([]domain.Article, error)
	// DeleteAll removes every record.
	DeleteAll(ctx context.Context) (int, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
	Close() error
}

// Open opens the store for the given driver at path.
func Open(driver, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverBolt:
		return OpenBolt(path)
	case DriverSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("store driver %q not supported", driver)
	}
}

func validateArticle(a domain.Article) error {
	if strings.TrimSpace(a.URL) == "" {
		return errors.New("article url is empty")
	}
	if a.PublishedAt.IsZero() {
		return fmt.Errorf("article %s has no publication date", a.URL)
	}
	return nil
}
