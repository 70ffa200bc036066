package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"reqsync/internal/models"
)

// Key layout:
//
//	rec/<inverted seq>  -> JSON record; ascending key order is newest first
//	idx/<record id>     -> rec key
//	meta/seq            -> last assigned seq, big endian
var (
	recPrefix = []byte("rec/")
	recUpper  = []byte("rec/~")
	idxPrefix = []byte("idx/")
	idxUpper  = []byte("idx/~")
	seqKey    = []byte("meta/seq")
)

// PebbleStore persists records in an embedded pebble database.
// Every write is synced before it returns.
type PebbleStore struct {
	db         *pebble.DB
	logger     *log.Logger
	maxRecords int

	mu    sync.Mutex // serialises read-modify-write on records
	seq   uint64
	count int
}

// OpenPebbleStore opens or creates the database in dir and restores its counters.
func OpenPebbleStore(dir string, maxRecords int, logger *log.Logger) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble store at '%s': %w", dir, err)
	}

	s := &PebbleStore{db: db, logger: logger, maxRecords: maxRecords}
	if err := s.restore(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Printf("Pebble store opened at %s (%d records, seq %d)", dir, s.count, s.seq)
	return s, nil
}

func (s *PebbleStore) restore() error {
	val, closer, err := s.db.Get(seqKey)
	switch {
	case errors.Is(err, pebble.ErrNotFound):
	case err != nil:
		return fmt.Errorf("failed to read sequence: %w", err)
	default:
		if len(val) == 8 {
			s.seq = binary.BigEndian.Uint64(val)
		}
		closer.Close()
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: idxPrefix, UpperBound: idxUpper})
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		s.count++
	}
	return iter.Error()
}

func (s *PebbleStore) Append(_ context.Context, rec *models.Record) error {
	stored := copyRecord(rec)
	prepare(&stored)

	value, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", stored.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(stored.ID); err == nil {
		return ErrDuplicateID
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	if s.maxRecords > 0 && s.count >= s.maxRecords {
		return ErrCapacityExceeded
	}

	seq := s.seq + 1
	key := recKey(seq)
	seqVal := make([]byte, 8)
	binary.BigEndian.PutUint64(seqVal, seq)

	b := s.db.NewBatch()
	defer b.Close()
	_ = b.Set(key, value, nil)
	_ = b.Set(idxKey(stored.ID), key, nil)
	_ = b.Set(seqKey, seqVal, nil)
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to append record %s: %w", stored.ID, err)
	}

	s.seq = seq
	s.count++
	return nil
}

func (s *PebbleStore) Get(_ context.Context, id string) (*models.Record, error) {
	key, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.load(key)
}

func (s *PebbleStore) List(ctx context.Context) ([]models.Record, error) {
	return s.scan(ctx, func(*models.Record) bool { return true })
}

func (s *PebbleStore) ListUnsynced(ctx context.Context) ([]models.Record, error) {
	return s.scan(ctx, (*models.Record).Unsynced)
}

// scan reads through a pebble snapshot so concurrent writes stay invisible.
func (s *PebbleStore) scan(ctx context.Context, keep func(*models.Record) bool) ([]models.Record, error) {
	snap := s.db.NewSnapshot()
	defer snap.Close()

	iter, err := snap.NewIter(&pebble.IterOptions{LowerBound: recPrefix, UpperBound: recUpper})
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	var out []models.Record
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var rec models.Record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			s.logger.Printf("Pebble store: skipping undecodable record at %q: %v", iter.Key(), err)
			continue
		}
		if keep(&rec) {
			out = append(out, rec)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}
	return out, nil
}

func (s *PebbleStore) MarkSynced(_ context.Context, id string) error {
	return s.transition(id, func(rec *models.Record) {
		now := time.Now().UTC()
		rec.SyncState = models.SyncSynced
		rec.SyncedToRemote = true
		rec.SyncedAt = &now
	})
}

func (s *PebbleStore) MarkRejected(_ context.Context, id, reason string) error {
	return s.transition(id, func(rec *models.Record) {
		rec.SyncState = models.SyncRejected
		rec.RejectReason = reason
	})
}

// transition applies fn to a pending record and writes it back.
func (s *PebbleStore) transition(id string, fn func(*models.Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := s.lookup(id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	rec, err := s.load(key)
	if err != nil {
		return err
	}
	if rec.SyncState != models.SyncPending {
		return nil
	}

	fn(rec)
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", id, err)
	}
	if err := s.db.Set(key, value, pebble.Sync); err != nil {
		return fmt.Errorf("failed to update record %s: %w", id, err)
	}
	return nil
}

func (s *PebbleStore) lookup(id string) ([]byte, error) {
	val, closer, err := s.db.Get(idxKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up record %s: %w", id, err)
	}
	defer closer.Close()
	return bytes.Clone(val), nil
}

func (s *PebbleStore) load(key []byte) (*models.Record, error) {
	val, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	defer closer.Close()

	var rec models.Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &rec, nil
}

func (s *PebbleStore) Close() error {
	s.logger.Println("Closing pebble store...")
	return s.db.Close()
}

func recKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("rec/%020d", math.MaxUint64-seq))
}

func idxKey(id string) []byte {
	return append(bytes.Clone(idxPrefix), id...)
}

var _ Store = (*PebbleStore)(nil)
