package storage

import (
	"context"
	goerrors "errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrTxConflict is reported when a concurrent transaction committed first.
// Callers decide whether to re-read or fail.
var ErrTxConflict = badger.ErrConflict

// Store is the shared handle over Badger, injected into the repositories and
// the conversation service. Its lifecycle belongs to the caller that opened the DB.
type Store struct {
	db  *badger.DB
	log *slog.Logger
	now func() time.Time
}

type Option func(*Store)

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(db *badger.DB, log *slog.Logger, opts ...Option) *Store {
	s := &Store{
		db:  db,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) DB() *badger.DB {
	return s.db
}

func (s *Store) Now() time.Time {
	return s.now()
}

// maxUpdateAttempts bounds how many times a conflicting transaction is replayed.
const maxUpdateAttempts = 16

// Update runs fn in a single read-write transaction. Every write commits or none does.
// A commit rejected because a concurrent transaction wrote what fn read is
// replayed on a fresh snapshot, so fn must not have side effects outside tx.
// ErrTxConflict is returned once the attempts are exhausted.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	return update(ctx, s.db, s.log, func(txn *badger.Txn) error {
		return fn(&Tx{txn: txn, now: s.now})
	})
}

func update(ctx context.Context, db *badger.DB, log *slog.Logger, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = db.Update(fn)
		if !goerrors.Is(err, badger.ErrConflict) {
			return err
		}
		log.Debug("Transaction conflict, replaying", "attempt", attempt)
	}
	log.Warn("Transaction conflict persisted", "attempts", maxUpdateAttempts)
	return err
}

// View runs fn in a read-only snapshot.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&Tx{txn: txn, now: s.now})
	})
}

// Tx exposes the conversation, participant and message ledger operations
// bound to one Badger transaction. It must not outlive the callback.
type Tx struct {
	txn *badger.Txn
	now func() time.Time
}

func (t *Tx) get(key []byte) ([]byte, bool, error) {
	item, err := t.txn.Get(key)
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (t *Tx) exists(key []byte) (bool, error) {
	_, err := t.txn.Get(key)
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// scan walks every key with the given prefix in order. fn returning
// false stops the walk. Keys and values handed to fn are copies.
func (t *Tx) scan(prefix []byte, withValues bool, fn func(key, val []byte) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = withValues
	opts.Prefix = prefix
	it := t.txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		var val []byte
		if withValues {
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			val = v
		}
		more, err := fn(item.KeyCopy(nil), val)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// scanReverse walks the prefix from the greatest key down.
func (t *Tx) scanReverse(prefix, seek []byte, fn func(key, val []byte) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	it := t.txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		more, err := fn(item.KeyCopy(nil), val)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// Entry is a raw key/value pair returned by Dump.
type Entry struct {
	Key   string
	Value []byte
}

// Dump returns at most limit raw entries under prefix, for inspection tools.
func (s *Store) Dump(ctx context.Context, prefix string, limit int) ([]Entry, error) {
	var entries []Entry
	err := s.View(ctx, func(tx *Tx) error {
		return tx.scan([]byte(prefix), true, func(key, val []byte) (bool, error) {
			entries = append(entries, Entry{Key: string(key), Value: val})
			return limit <= 0 || len(entries) < limit, nil
		})
	})
	return entries, err
}

// Count returns how many keys live under prefix.
func (s *Store) Count(ctx context.Context, prefix string) (int, error) {
	count := 0
	err := s.View(ctx, func(tx *Tx) error {
		return tx.scan([]byte(prefix), false, func(_, _ []byte) (bool, error) {
			count++
			return true, nil
		})
	})
	return count, err
}
