package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pders01/ytsweep/internal/comments"
	"github.com/pders01/ytsweep/internal/config"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/oauth2"
)

var (
	searchesBucket = []byte("searches")
	historyBucket  = []byte("history")
	authBucket     = []byte("auth")
)

var (
	lastSearchKey = []byte("last")
	tokenKey      = []byte("token")
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// historyKeyLayout is fixed width so keys sort chronologically.
const historyKeyLayout = "2006-01-02T15:04:05.000000000Z"

// maxHistory bounds the history bucket; older summaries are pruned on save.
const maxHistory = 50

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	return open(dbPath, 1*time.Second)
}

// Open creates the database directory if needed and opens the store
// described by cfg.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 1 * time.Second
	}
	return open(cfg.Path, timeout)
}

func open(dbPath string, timeout time.Duration) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{searchesBucket, historyBucket, authBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveLastSearch replaces the last search record and appends its summary to
// the history.
func (s *Store) SaveLastSearch(saved *SavedSearch) error {
	if saved.SavedAt.IsZero() {
		saved.SavedAt = time.Now()
	}
	if saved.Result == nil {
		saved.Result = comments.NewResult()
	}
	data, err := json.Marshal(saved)
	if err != nil {
		return fmt.Errorf("encoding search: %w", err)
	}
	summary, err := json.Marshal(saved.Summary())
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(searchesBucket).Put(lastSearchKey, data); err != nil {
			return err
		}
		hb := tx.Bucket(historyBucket)
		key := []byte(saved.SavedAt.UTC().Format(historyKeyLayout))
		if err := hb.Put(key, summary); err != nil {
			return err
		}
		return pruneHistory(hb)
	})
}

// pruneHistory drops the oldest entries beyond maxHistory.
func pruneHistory(b *bolt.Bucket) error {
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}
	if len(keys) <= maxHistory {
		return nil
	}
	stale := keys[:len(keys)-maxHistory]
	for _, k := range stale {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// LastSearch returns the saved record or ErrNotFound.
func (s *Store) LastSearch() (*SavedSearch, error) {
	var saved SavedSearch
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(searchesBucket).Get(lastSearchKey)
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &saved)
	})
	if err != nil {
		return nil, err
	}
	if saved.Result == nil {
		saved.Result = comments.NewResult()
	}
	return &saved, nil
}

// UpdateLastSearch applies fn to the saved record inside one transaction.
func (s *Store) UpdateLastSearch(fn func(*SavedSearch) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(searchesBucket)
		data := b.Get(lastSearchKey)
		if data == nil {
			return ErrNotFound
		}
		var saved SavedSearch
		if err := json.Unmarshal(data, &saved); err != nil {
			return err
		}
		if saved.Result == nil {
			saved.Result = comments.NewResult()
		}
		if err := fn(&saved); err != nil {
			return err
		}
		updated, err := json.Marshal(&saved)
		if err != nil {
			return err
		}
		return b.Put(lastSearchKey, updated)
	})
}

func (s *Store) ClearLastSearch() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(searchesBucket).Delete(lastSearchKey)
	})
}

// History returns saved search summaries, newest first.
func (s *Store) History(limit int) ([]SearchSummary, error) {
	var out []SearchSummary
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(historyBucket).ForEach(func(_ []byte, v []byte) error {
			var sum SearchSummary
			if err := json.Unmarshal(v, &sum); err != nil {
				return nil
			}
			out = append(out, sum)
			return nil
		})
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

// LoadToken implements auth.TokenCache.
func (s *Store) LoadToken() (*oauth2.Token, error) {
	var tok oauth2.Token
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(authBucket).Get(tokenKey)
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &tok)
	})
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

func (s *Store) SaveToken(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(authBucket).Put(tokenKey, data)
	})
}

func (s *Store) DeleteToken() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(authBucket).Delete(tokenKey)
	})
}
