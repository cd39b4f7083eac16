package store

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	ierr "github.com/docsmith/docsmith/internal/errors"
)

// BlobStore keeps raw document bytes in badger, keyed by document ID.
// Puts are plain overwrites, so re-uploading an unchanged document is a
// no-op in effect.
type BlobStore struct {
	db *badger.DB
}

// badgerLoggerAdapter routes badger's internal logging through slog.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBlobStore opens the blob database at dir, creating it as needed.
// An empty dir opens an in-memory store for tests.
func OpenBlobStore(dir string, logger *slog.Logger) (*BlobStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create blob directory: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}
	return &BlobStore{db: db}, nil
}

// Put stores document bytes under the document ID.
func (b *BlobStore) Put(docID string, data []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(docID), data)
	})
	if err != nil {
		return ierr.BlobWrite(fmt.Sprintf("failed to store blob for document %s", docID), err)
	}
	return nil
}

// Get returns the stored bytes for a document, or nil when absent.
func (b *BlobStore) Get(docID string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(docID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read blob for document %s: %w", docID, err)
	}
	return data, nil
}

// Has reports whether a document's bytes are stored.
func (b *BlobStore) Has(docID string) (bool, error) {
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(docID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// Close closes the underlying database.
func (b *BlobStore) Close() error {
	return b.db.Close()
}
