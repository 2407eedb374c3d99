package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

type badgerBackend struct {
	db *badger.DB
}

// OpenBadger: document store persisted in a BadgerDB directory
func OpenBadger(path string, log *slog.Logger, opts ...Option) (*DocumentStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("database opening failed: %w", err)
	}
	return newDocumentStore(&badgerBackend{db: db}, log, opts...), nil
}

// Keys are formatted as "doc/{collection}/{id}" so a collection is one prefix scan
func recordKey(collection, id string) []byte {
	return []byte(fmt.Sprintf("doc/%s/%s", collection, id))
}

func collectionPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("doc/%s/", collection))
}

func (b *badgerBackend) load(collection, id string) (record, bool, error) {
	var rec record
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(collection, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &rec)
		})
	})
	if err != nil {
		return record{}, false, err
	}
	return rec, found, nil
}

func (b *badgerBackend) save(rec record) error {
	bytes, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec.Collection, rec.ID), bytes)
	})
}

func (b *badgerBackend) remove(collection, id string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(collection, id))
	})
}

func (b *badgerBackend) scan(collection string) ([]record, error) {
	var records []record
	err := b.db.View(func(txn *badger.Txn) error {
		prefix := collectionPrefix(collection)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec record
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &rec)
			})
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	return records, err
}

func (b *badgerBackend) close() error {
	return b.db.Close()
}
