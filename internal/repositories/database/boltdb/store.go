// Package boltdb implements the repositories on an embedded bbolt file.
// It backs single-node deployments and the service tests.
package boltdb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	portsrepo "github.com/SscSPs/exchanger/internal/core/ports/repositories"
	"go.etcd.io/bbolt"
)

var (
	ExchangeRatesBucket = []byte("ExchangeRates")
	CurrenciesBucket    = []byte("Currencies")
	ProvidersBucket     = []byte("Providers")
)

// Open opens (creating when missing) the database file and its buckets.
func Open(pathToFile string) (*bbolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(pathToFile), 0770); err != nil {
		return nil, fmt.Errorf("failed to create directory for rate database: %w", err)
	}

	db, err := bbolt.Open(pathToFile, 0660, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bn := range [][]byte{ExchangeRatesBucket, CurrenciesBucket, ProvidersBucket} {
			if _, err := tx.CreateBucketIfNotExists(bn); err != nil {
				return fmt.Errorf("could not bucket: %s, err: %w", string(bn), err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// NewRepositoryProvider builds every bbolt-backed repository over one open database.
func NewRepositoryProvider(db *bbolt.DB) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		CurrencyRepo:     &CurrencyRepository{db: db},
		ExchangeRateRepo: &ExchangeRateRepository{db: db},
		ProviderRepo:     &ProviderRepository{db: db},
	}
}

func put(b *bbolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}
