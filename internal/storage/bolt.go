package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Adda-Baaj/durjog-khobor/internal/domain"
)

var articlesBucket = []byte("articles")

// BoltStore keeps one JSON document per URL in a bbolt bucket.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) a bbolt database at path.
func OpenBolt(path string) (*BoltStore, error) {
	if path == "" {
		return nil, errors.New("bolt store path is empty")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(articlesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create articles bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Get implements Store.
func (s *BoltStore) Get(_ context.Context, url string) (domain.Article, error) {
	var out domain.Article
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(articlesBucket).Get([]byte(url))
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, &out)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Article{}, err
		}
		return domain.Article{}, fmt.Errorf("get %s: %w", url, err)
	}
	return out, nil
}

// Upsert implements Store.
func (s *BoltStore) Upsert(_ context.Context, a domain.Article) (UpsertResult, error) {
	if err := validateArticle(a); err != nil {
		return Inserted, err
	}
	a.Normalize()
	raw, err := json.Marshal(a)
	if err != nil {
		return Inserted, fmt.Errorf("encode article: %w", err)
	}

	result := Inserted
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		key := []byte(a.URL)
		if b.Get(key) != nil {
			result = Updated
		}
		return b.Put(key, raw)
	})
	if err != nil {
		return Inserted, fmt.Errorf("upsert %s: %w", a.URL, err)
	}
	return result, nil
}

// DeleteOlderThan implements Store.
func (s *BoltStore) DeleteOlderThan(_ context.Context, field Field, cutoff time.Time) (int, error) {
	if err := field.validate(); err != nil {
		return 0, err
	}
	cutoff = cutoff.UTC()

	deleted := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var a domain.Article
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			if field.of(a).Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		deleted = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return deleted, nil
}

// ListSince implements Store.
func (s *BoltStore) ListSince(_ context.Context, field Field, cutoff time.Time) ([]domain.Article, error) {
	if err := field.validate(); err != nil {
		return nil, err
	}
	cutoff = cutoff.UTC()

	out := []domain.Article{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(articlesBucket).ForEach(func(k, v []byte) error {
			var a domain.Article
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			if !field.of(a).Before(cutoff) {
				out = append(out, a)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list since %s: %w", cutoff.Format(time.RFC3339), err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return field.of(out[i]).After(field.of(out[j]))
	})
	return out, nil
}

// DeleteAll implements Store.
func (s *BoltStore) DeleteAll(_ context.Context) (int, error) {
	deleted := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		deleted = countKeys(tx.Bucket(articlesBucket))
		if err := tx.DeleteBucket(articlesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(articlesBucket)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete all: %w", err)
	}
	return deleted, nil
}

// Count implements Store.
func (s *BoltStore) Count(_ context.Context) (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		n = countKeys(tx.Bucket(articlesBucket))
		return nil
	})
	return n, err
}

// Close implements Store.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func countKeys(b *bolt.Bucket) int {
	n := 0
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	return n
}
