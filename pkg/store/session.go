package store

import (
	bolt "go.etcd.io/bbolt"

	. "github.com/sandcalc/sandcalc/pkg/store/storedefs"
)

func init() {
	initDB["initialize session table"] = func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSession))
		return err
	}
}

// SaveSession saves the bindings of a session, replacing any session with the
// same name.
func (s *dbStore) SaveSession(name string, bindings []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSession))
		return b.Put([]byte(name), bindings)
	})
}

// Session gets the bindings of a saved session.
func (s *dbStore) Session(name string) ([]byte, error) {
	var bindings []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSession))
		v := b.Get([]byte(name))
		if v == nil {
			return ErrNoSession
		}
		// v is only valid within the transaction.
		bindings = append([]byte(nil), v...)
		return nil
	})
	return bindings, err
}

// SessionNames returns the names of all saved sessions in lexicographical
// order.
func (s *dbStore) SessionNames() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSession))
		return b.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// DelSession deletes a saved session. Deleting a session that does not exist
// is not an error.
func (s *dbStore) DelSession(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSession))
		return b.Delete([]byte(name))
	})
}
