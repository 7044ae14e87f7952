package store

import (
	"encoding/binary"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	. "github.com/sandcalc/sandcalc/pkg/store/storedefs"
)

func init() {
	initDB["initialize calculation history table"] = func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketCalc))
		return err
	}
}

// Can be overridden in tests.
var now = time.Now

// NextCalcSeq returns the next sequence number of the calculation history.
func (s *dbStore) NextCalcSeq() (int, error) {
	var seq uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCalc))
		seq = b.Sequence() + 1
		return nil
	})
	return int(seq), err
}

// AddCalc adds a new calculation to the calculation history.
func (s *dbStore) AddCalc(expr, result string) (int, error) {
	data, err := json.Marshal(Calc{
		ID: uuid.NewString(), Expr: expr, Result: result, Time: now().UTC()})
	if err != nil {
		return 0, err
	}
	var seq uint64
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCalc))
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(marshalSeq(seq), data)
	})
	return int(seq), err
}

// DelCalc deletes a calculation history item with the given sequence number.
func (s *dbStore) DelCalc(seq int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCalc))
		return b.Delete(marshalSeq(uint64(seq)))
	})
}

// Calc queries the calculation history item with the specified sequence
// number.
func (s *dbStore) Calc(seq int) (Calc, error) {
	var c Calc
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCalc))
		k := marshalSeq(uint64(seq))
		v := b.Get(k)
		if v == nil {
			return ErrNoMatchingCalc
		}
		var err error
		c, err = unmarshalCalc(k, v)
		return err
	})
	return c, err
}

// IterateCalcs iterates all the calculations in the specified range, and calls
// the callback with each of them sequentially.
func (s *dbStore) IterateCalcs(from, upto int, f func(Calc)) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCalc))
		c := b.Cursor()
		for k, v := c.Seek(seqKey(from)); k != nil && int(unmarshalSeq(k)) < upto; k, v = c.Next() {
			calc, err := unmarshalCalc(k, v)
			if err != nil {
				return err
			}
			f(calc)
		}
		return nil
	})
}

// CalcsWithSeq returns all calculations within the specified range.
func (s *dbStore) CalcsWithSeq(from, upto int) ([]Calc, error) {
	var calcs []Calc
	err := s.IterateCalcs(from, upto, func(c Calc) {
		calcs = append(calcs, c)
	})
	return calcs, err
}

// NextCalc finds the first calculation after the given sequence number
// (inclusive) whose expression has the given prefix.
func (s *dbStore) NextCalc(from int, prefix string) (Calc, error) {
	var calc Calc
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCalc))
		c := b.Cursor()
		for k, v := c.Seek(seqKey(from)); k != nil; k, v = c.Next() {
			if found, err := matchCalc(k, v, prefix, &calc); found || err != nil {
				return err
			}
		}
		return ErrNoMatchingCalc
	})
	return calc, err
}

// PrevCalc finds the last calculation before the given sequence number
// (exclusive) whose expression has the given prefix.
func (s *dbStore) PrevCalc(upto int, prefix string) (Calc, error) {
	var calc Calc
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCalc))
		c := b.Cursor()

		var v []byte
		k, _ := c.Seek(seqKey(upto))
		if k == nil { // upto > LAST
			k, v = c.Last()
			if k == nil {
				return ErrNoMatchingCalc
			}
		} else {
			k, v = c.Prev() // upto exists, find the previous one
		}

		for ; k != nil; k, v = c.Prev() {
			if found, err := matchCalc(k, v, prefix, &calc); found || err != nil {
				return err
			}
		}
		return ErrNoMatchingCalc
	})
	return calc, err
}

func matchCalc(k, v []byte, prefix string, calc *Calc) (bool, error) {
	c, err := unmarshalCalc(k, v)
	if err != nil {
		return false, err
	}
	if !strings.HasPrefix(c.Expr, prefix) {
		return false, nil
	}
	*calc = c
	return true, nil
}

func unmarshalCalc(k, v []byte) (Calc, error) {
	var c Calc
	err := json.Unmarshal(v, &c)
	c.Seq = int(unmarshalSeq(k))
	return c, err
}

// Returns the key to seek to for seq. No sequence number is negative, so a
// negative seq seeks to the start.
func seqKey(seq int) []byte {
	return marshalSeq(uint64(max(seq, 0)))
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func unmarshalSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
