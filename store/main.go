// Package store keeps saved layouts in a buntdb database.
//
// Each layout is stored under layout:<uuid>:data as compact JSON islands, with an xxhash of the
// data under layout:<uuid>:sum.
package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/tidwall/buntdb"
	"go.uber.org/zap"
	"nyiyui.ca/hato/senro/layout"
	"nyiyui.ca/hato/senro/persist"
)

var (
	ErrNotFound = errors.New("layout not found")
	ErrCorrupt  = errors.New("layout data doesn't match its checksum")
)

func dataKey(id uuid.UUID) string { return fmt.Sprintf("layout:%s:data", id) }
func sumKey(id uuid.UUID) string  { return fmt.Sprintf("layout:%s:sum", id) }

// Entry describes one saved layout.
type Entry struct {
	ID  uuid.UUID `json:"id"`
	Sum uint64    `json:"sum"`
}

type Store struct {
	db *buntdb.DB
}

// Open opens the database at path. Use ":memory:" for a database that isn't persisted.
func Open(path string) (*Store, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	var cfg buntdb.Config
	if err := db.ReadConfig(&cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg.SyncPolicy = buntdb.Always
	if err := db.SetConfig(cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("set config: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Create saves y under a new ID.
func (s *Store) Create(y layout.Layout) (uuid.UUID, error) {
	id := uuid.New()
	if _, err := s.Save(id, y); err != nil {
		return uuid.UUID{}, err
	}
	return id, nil
}

// Save stores y under id, replacing any previous layout, and returns its checksum.
func (s *Store) Save(id uuid.UUID, y layout.Layout) (uint64, error) {
	data, err := persist.Marshal(y)
	if err != nil {
		return 0, fmt.Errorf("marshal: %w", err)
	}
	sum := xxhash.Sum64(data)
	err = s.db.Update(func(tx *buntdb.Tx) error {
		_, replaced, err := tx.Set(dataKey(id), string(data), nil)
		if err != nil {
			return err
		}
		if _, _, err := tx.Set(sumKey(id), strconv.FormatUint(sum, 16), nil); err != nil {
			return err
		}
		if replaced {
			zap.S().Infow("replaced layout", "id", id, "tracks", y.Len())
		} else {
			zap.S().Infow("saved new layout", "id", id, "tracks", y.Len())
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("save %s: %w", id, err)
	}
	return sum, nil
}

// Raw returns the stored JSON of a layout and its checksum, after checking one against the other.
func (s *Store) Raw(id uuid.UUID) (string, uint64, error) {
	var data string
	var sum uint64
	err := s.db.View(func(tx *buntdb.Tx) error {
		var err error
		data, err = tx.Get(dataKey(id))
		if errors.Is(err, buntdb.ErrNotFound) {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		} else if err != nil {
			return err
		}
		rawSum, err := tx.Get(sumKey(id))
		if err != nil {
			return fmt.Errorf("%s: %w: sum missing", id, ErrCorrupt)
		}
		sum, err = strconv.ParseUint(rawSum, 16, 64)
		if err != nil {
			return fmt.Errorf("%s: %w: sum %q", id, ErrCorrupt, rawSum)
		}
		if got := xxhash.Sum64String(data); got != sum {
			return fmt.Errorf("%s: %w: stored %x, computed %x", id, ErrCorrupt, sum, got)
		}
		return nil
	})
	if err != nil {
		return "", 0, err
	}
	return data, sum, nil
}

// Load returns a saved layout and its checksum.
func (s *Store) Load(id uuid.UUID) (layout.Layout, uint64, error) {
	data, sum, err := s.Raw(id)
	if err != nil {
		return layout.Layout{}, 0, err
	}
	y, err := persist.Unmarshal([]byte(data))
	if err != nil {
		return layout.Layout{}, 0, fmt.Errorf("%s: %w", id, err)
	}
	return y, sum, nil
}

// List returns every saved layout, ordered by ID.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *buntdb.Tx) error {
		var keys []string
		err := tx.AscendKeys("layout:*:data", func(key, _ string) bool {
			keys = append(keys, key)
			return true
		})
		if err != nil {
			return err
		}
		for _, key := range keys {
			id, err := uuid.Parse(strings.TrimSuffix(strings.TrimPrefix(key, "layout:"), ":data"))
			if err != nil {
				zap.S().Errorw("parsing key failed", "key", key)
				continue
			}
			rawSum, err := tx.Get(sumKey(id))
			if err != nil {
				return fmt.Errorf("%s: %w: sum missing", id, ErrCorrupt)
			}
			sum, err := strconv.ParseUint(rawSum, 16, 64)
			if err != nil {
				return fmt.Errorf("%s: %w: sum %q", id, ErrCorrupt, rawSum)
			}
			entries = append(entries, Entry{ID: id, Sum: sum})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Delete removes a saved layout.
func (s *Store) Delete(id uuid.UUID) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		if _, err := tx.Delete(dataKey(id)); errors.Is(err, buntdb.ErrNotFound) {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		} else if err != nil {
			return err
		}
		_, err := tx.Delete(sumKey(id))
		if err != nil && !errors.Is(err, buntdb.ErrNotFound) {
			return err
		}
		return nil
	})
	if err == nil {
		zap.S().Infow("deleted layout", "id", id)
	}
	return err
}
