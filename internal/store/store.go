// Package store owns serialization and persistence of the full record
// collection: every operation is a synchronous read-modify-write of one
// blob under one substrate key.
package store

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"roster/internal/kv"
	"roster/internal/record"
)

// DefaultKey is the substrate key the record blob lives under.
const DefaultKey = "user_records"

// RecordStore persists the record collection as a single encoded blob.
// All operations run behind one mutex: the substrate gives no atomicity
// guarantee across the read-modify-write cycle, so the store serializes
// the whole cycle itself. Across processes this is still last-writer-wins.
type RecordStore struct {
	mu     sync.Mutex
	kv     kv.Store
	key    string
	logger *zap.Logger
	now    func() time.Time
	seed   bool

	lastDropped int
}

// Stats describes the current state of the stored blob.
type Stats struct {
	Records   int // records decodable right now
	Dropped   int // malformed chunks dropped by the last decode
	BlobBytes int // size of the stored blob
}

// Option configures a RecordStore.
type Option func(*RecordStore)

// WithClock overrides the timestamp source. Tests use this for
// deterministic CreatedAt/UpdatedAt values.
func WithClock(now func() time.Time) Option {
	return func(s *RecordStore) { s.now = now }
}

// WithoutSeed disables the first-use sample seeding.
func WithoutSeed() Option {
	return func(s *RecordStore) { s.seed = false }
}

// New builds a RecordStore over the given substrate. If the substrate
// currently decodes to zero records, three sample records are seeded;
// this is gated strictly on emptiness, so restarting against existing
// data never re-seeds.
func New(substrate kv.Store, key string, logger *zap.Logger, opts ...Option) (*RecordStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RecordStore{
		kv:     substrate,
		key:    key,
		logger: logger,
		now:    time.Now,
		seed:   true,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.seed {
		if err := s.SeedIfEmpty(); err != nil {
			return nil, fmt.Errorf("failed to seed store: %w", err)
		}
	}
	return s, nil
}

// ListAll returns every record currently decodable from the substrate,
// in stored order. Every call decodes fresh; nothing is cached.
func (s *RecordStore) ListAll() ([]record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// GetByID returns the first record with the given id, if any.
func (s *RecordStore) GetByID(id string) (record.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return record.Record{}, false, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, true, nil
		}
	}
	return record.Record{}, false, nil
}

// Upsert inserts or replaces the record with rec's id and returns it as
// stored. UpdatedAt is stamped unconditionally. CreatedAt is preserved
// from the stored record when the id already exists; for a new id a
// nonzero caller value is kept, otherwise it is stamped now.
func (s *RecordStore) Upsert(rec record.Record) (record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsert(rec)
}

// DeleteByID removes every record with the given id and reports whether
// anything was removed. Deleting an unknown id is a no-op, not an error,
// and leaves the stored blob untouched.
func (s *RecordStore) DeleteByID(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return false, err
	}

	kept := records[:0]
	removed := 0
	for _, r := range records {
		if r.ID == id {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	if removed == 0 {
		return false, nil
	}

	if err := s.write(kept); err != nil {
		return false, err
	}
	s.logger.Debug("record deleted",
		zap.String("id", id),
		zap.Int("remaining", len(kept)))
	return true, nil
}

// Stats decodes the current blob and reports counts and size.
func (s *RecordStore) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, _, err := s.kv.GetString(s.key)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read key %q: %w", s.key, err)
	}
	records, dropped := record.Decode(blob, s.nowMillis())
	s.lastDropped = dropped
	return Stats{
		Records:   len(records),
		Dropped:   dropped,
		BlobBytes: len(blob),
	}, nil
}

// SeedIfEmpty populates the three sample records iff the substrate
// currently decodes to zero records.
func (s *RecordStore) SeedIfEmpty() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	if len(records) > 0 {
		return nil
	}

	now := s.nowMillis()
	samples := []record.Record{
		{ID: "user_1", Name: "Alice Johnson", Email: "alice@example.com", Active: true, CreatedAt: now},
		{ID: "user_2", Name: "Bob Smith", Email: "bob@example.com", Active: false, CreatedAt: now},
		{ID: "user_3", Name: "Carol White", Email: "carol@example.com", Active: true, CreatedAt: now},
	}
	for _, sample := range samples {
		if _, err := s.upsert(sample); err != nil {
			return fmt.Errorf("failed to seed record %q: %w", sample.ID, err)
		}
	}
	s.logger.Info("seeded sample records", zap.Int("count", len(samples)))
	return nil
}

// upsert runs the full read-modify-write cycle. Callers hold s.mu.
func (s *RecordStore) upsert(rec record.Record) (record.Record, error) {
	records, err := s.load()
	if err != nil {
		return record.Record{}, err
	}

	now := s.nowMillis()
	kept := records[:0]
	for _, r := range records {
		if r.ID == rec.ID {
			// Full overwrite, but creation time stays with the id.
			rec.CreatedAt = r.CreatedAt
			continue
		}
		kept = append(kept, r)
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	kept = append(kept, rec)

	if err := s.write(kept); err != nil {
		return record.Record{}, err
	}
	s.logger.Debug("record upserted",
		zap.String("id", rec.ID),
		zap.Int("total", len(kept)))
	return rec, nil
}

// load decodes the current blob. Callers hold s.mu.
func (s *RecordStore) load() ([]record.Record, error) {
	blob, ok, err := s.kv.GetString(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read key %q: %w", s.key, err)
	}
	if !ok {
		return nil, nil
	}

	records, dropped := record.Decode(blob, s.nowMillis())
	s.lastDropped = dropped
	if dropped > 0 {
		s.logger.Warn("dropped malformed record chunks",
			zap.Int("dropped", dropped),
			zap.String("key", s.key))
	}
	return records, nil
}

// write encodes and stores the full record set. Callers hold s.mu.
func (s *RecordStore) write(records []record.Record) error {
	blob, err := record.Encode(records)
	if err != nil {
		return err
	}
	if err := s.kv.SetString(s.key, blob); err != nil {
		return fmt.Errorf("failed to write key %q: %w", s.key, err)
	}
	return nil
}

func (s *RecordStore) nowMillis() int64 {
	return s.now().UnixMilli()
}
