// Package badger is the embedded store: both collections live in one badger
// keyspace under a namespace prefix.
package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const (
	seqBandwidth  = 100
	maxTxnRetries = 3
)

var (
	ErrClosed           = errors.New("badger: store closed")
	ErrInvalidNamespace = errors.New("badger: namespace must not contain ':'")
)

type Config struct {
	Path      string
	Namespace string
	InMemory  bool
}

type DB struct {
	db  *badger.DB
	seq *badger.Sequence
	ns  string
}

// Open starts the store. The namespace defaults to "chat"; it must not
// contain ':', since that separates it from the rest of every key.
func Open(cfg Config) (*DB, error) {
	ns := cfg.Namespace
	if ns == "" {
		ns = "chat"
	}
	if strings.Contains(ns, ":") {
		return nil, ErrInvalidNamespace
	}

	opts := badger.DefaultOptions(cfg.Path).WithLoggingLevel(badger.ERROR)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("").WithInMemory(true)
	}
	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	seq, err := bdb.GetSequence([]byte(ns+":seq:messages"), seqBandwidth)
	if err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &DB{db: bdb, seq: seq, ns: ns}, nil
}

func (d *DB) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.db.IsClosed() {
		return ErrClosed
	}
	return d.db.View(func(*badger.Txn) error { return nil })
}

func (d *DB) Close() error {
	if err := d.seq.Release(); err != nil {
		_ = d.db.Close()
		return err
	}
	return d.db.Close()
}

// update runs fn in a read-write transaction, retrying when a concurrent
// transaction touched the same keys.
func (d *DB) update(fn func(txn *badger.Txn) error) error {
	var err error
	for range maxTxnRetries {
		err = d.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (d *DB) participantKey(name string) []byte { return []byte(d.ns + ":p:" + name) }
func (d *DB) participantPrefix() []byte         { return []byte(d.ns + ":p:") }
func (d *DB) participantIDKey(id string) []byte { return []byte(d.ns + ":pid:" + id) }
func (d *DB) messagePrefix() []byte             { return []byte(d.ns + ":m:") }
func (d *DB) messageIDKey(id string) []byte     { return []byte(d.ns + ":mi:" + id) }

// messageKey zero-pads seq so lexicographic key order is insertion order.
func (d *DB) messageKey(seq int64) []byte {
	return []byte(fmt.Sprintf("%s:m:%020d", d.ns, seq))
}
