package integrity

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	hashesBucket   = "hashes"
	metadataBucket = "metadata"
	schemaVersion  = 1
)

// DefaultBoltFileName is the database file used by the bolt backend.
const DefaultBoltFileName = "extension_hashes.db"

// Bolt is a Store backed by a bbolt database. Unlike [JSONFile], the
// database file lock serializes concurrent processes.
type Bolt struct {
	db *bbolt.DB
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string) (*Bolt, error) {
	options := &bbolt.Options{
		Timeout: 1 * time.Second,
	}

	db, err := bbolt.Open(path, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	b := &Bolt{db: db}
	if err := b.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return b, nil
}

// initialize sets up buckets and schema
func (b *Bolt) initialize() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(hashesBucket)); err != nil {
			return fmt.Errorf("failed to create hashes bucket: %w", err)
		}

		meta, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return fmt.Errorf("failed to create metadata bucket: %w", err)
		}

		if err := meta.Put([]byte("schema_version"), fmt.Appendf(nil, "%d", schemaVersion)); err != nil {
			return fmt.Errorf("failed to store schema version: %w", err)
		}

		return nil
	})
}

func (b *Bolt) Get(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var (
		hash string
		ok   bool
	)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(hashesBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", hashesBucket)
		}

		if v := bucket.Get([]byte(name)); v != nil {
			hash, ok = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}

	return hash, ok, nil
}

func (b *Bolt) Put(ctx context.Context, name, hash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(hashesBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", hashesBucket)
		}

		if err := bucket.Put([]byte(name), []byte(hash)); err != nil {
			return fmt.Errorf("failed to save hash: %w", err)
		}
		return nil
	})
}

// SchemaVersion reports the schema version stored in the database.
func (b *Bolt) SchemaVersion() (string, error) {
	var v string
	err := b.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket([]byte(metadataBucket))
		if meta == nil {
			return fmt.Errorf("bucket not found: %s", metadataBucket)
		}
		v = string(meta.Get([]byte("schema_version")))
		return nil
	})

	return v, err
}

// Close closes the database
func (b *Bolt) Close() error {
	return b.db.Close()
}
