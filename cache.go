package molview

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketMolecules = []byte("molecules")

// MoleculeCache memoizes parsed PDB files in an embedded bbolt database.
// Entries are keyed by file path and invalidated when the file's size or
// mtime changes. All failures are soft: callers fall back to re-parsing.
type MoleculeCache struct {
	db *bolt.DB
}

type cachedMolecule struct {
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mod_time"`
	Molecule *Molecule `json:"molecule"`
}

// OpenMoleculeCache opens (or creates) the cache database at the given path.
func OpenMoleculeCache(path string) (*MoleculeCache, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &MoleculeCache{db: db}, nil
}

func (c *MoleculeCache) Close() error {
	return c.db.Close()
}

// Get returns the cached molecule for the file at path, or false when the
// entry is missing or stale against the file's current size and mtime.
func (c *MoleculeCache) Get(path string) (*Molecule, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	var entry cachedMolecule
	err = c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMolecules)
		if b == nil {
			return fmt.Errorf("no bucket")
		}
		data := b.Get([]byte(path))
		if data == nil {
			return fmt.Errorf("no entry")
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, false
	}
	if entry.Size != info.Size() || !entry.ModTime.Equal(info.ModTime()) {
		return nil, false
	}
	return entry.Molecule, true
}

// Put stores the parsed molecule along with the source file's current size
// and mtime.
func (c *MoleculeCache) Put(path string, mol *Molecule) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	data, err := json.Marshal(cachedMolecule{
		Size:     info.Size(),
		ModTime:  info.ModTime(),
		Molecule: mol,
	})
	if err != nil {
		return fmt.Errorf("marshal molecule: %w", err)
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketMolecules)
		if err != nil {
			return err
		}
		return b.Put([]byte(path), data)
	})
}
