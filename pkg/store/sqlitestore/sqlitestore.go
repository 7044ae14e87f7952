// Package sqlitestore implements the storage service of sandcalc with SQLite.
//
// It satisfies the same contract as the bbolt store and is selected with
// history_backend: sqlite in the configuration file.
package sqlitestore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // enable the "sqlite" SQL driver

	"github.com/sandcalc/sandcalc/pkg/logutil"
	"github.com/sandcalc/sandcalc/pkg/store/storedefs"
)

var logger = logutil.GetLogger("[sqlitestore] ")

var createTable = []string{
	`create table if not exists calc (
		seq integer primary key autoincrement,
		id text not null,
		expr text not null,
		result text not null,
		time text not null
	)`,
	`create table if not exists session (
		name text primary key,
		bindings blob not null
	)`,
}

// Can be overridden in tests.
var now = time.Now

// Store is the SQLite-backed store.
type Store struct {
	db *sql.DB
}

// New opens the database at the given path, creating it when necessary. The
// path ":memory:" gives an in-memory database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// An in-memory database only lives as long as its connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("pragma journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	for _, q := range createTable {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("create table: %w", err)
		}
	}
	logger.Println("opened", path)
	return &Store{db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// NextCalcSeq returns the next sequence number of the calculation history.
// Like the bbolt store, sequence numbers are never reused.
func (s *Store) NextCalcSeq() (int, error) {
	row := s.db.QueryRow(
		`select ifnull((select seq from sqlite_sequence where name = 'calc'), 0) + 1`)
	var seq int
	err := row.Scan(&seq)
	return seq, err
}

// AddCalc adds a new calculation to the calculation history.
func (s *Store) AddCalc(expr, result string) (int, error) {
	r, err := s.db.Exec(`insert into calc (id, expr, result, time) values (?, ?, ?, ?)`,
		uuid.NewString(), expr, result, now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("add calculation: %w", err)
	}
	seq, err := r.LastInsertId()
	return int(seq), err
}

// DelCalc deletes a calculation history item with the given sequence number.
func (s *Store) DelCalc(seq int) error {
	_, err := s.db.Exec(`delete from calc where seq = ?`, seq)
	return err
}

const calcColumns = `seq, id, expr, result, time`

type scanner interface {
	Scan(dest ...any) error
}

func scanCalc(row scanner) (storedefs.Calc, error) {
	var (
		c storedefs.Calc
		t string
	)
	err := row.Scan(&c.Seq, &c.ID, &c.Expr, &c.Result, &t)
	if errors.Is(err, sql.ErrNoRows) {
		return storedefs.Calc{}, storedefs.ErrNoMatchingCalc
	} else if err != nil {
		return storedefs.Calc{}, err
	}
	c.Time, err = time.Parse(time.RFC3339Nano, t)
	return c, err
}

// Calc queries the calculation history item with the specified sequence
// number.
func (s *Store) Calc(seq int) (storedefs.Calc, error) {
	return scanCalc(s.db.QueryRow(
		`select `+calcColumns+` from calc where seq = ?`, seq))
}

// CalcsWithSeq returns all calculations within the specified range.
func (s *Store) CalcsWithSeq(from, upto int) ([]storedefs.Calc, error) {
	rows, err := s.db.Query(
		`select `+calcColumns+` from calc where seq >= ? and seq < ? order by seq`, from, upto)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var calcs []storedefs.Calc
	for rows.Next() {
		c, err := scanCalc(rows)
		if err != nil {
			return nil, err
		}
		calcs = append(calcs, c)
	}
	return calcs, rows.Err()
}

// NextCalc finds the first calculation after the given sequence number
// (inclusive) whose expression has the given prefix.
func (s *Store) NextCalc(from int, prefix string) (storedefs.Calc, error) {
	return scanCalc(s.db.QueryRow(
		`select `+calcColumns+` from calc where seq >= ? and substr(expr, 1, ?) = ? order by seq asc limit 1`,
		from, len(prefix), prefix))
}

// PrevCalc finds the last calculation before the given sequence number
// (exclusive) whose expression has the given prefix.
func (s *Store) PrevCalc(upto int, prefix string) (storedefs.Calc, error) {
	return scanCalc(s.db.QueryRow(
		`select `+calcColumns+` from calc where seq < ? and substr(expr, 1, ?) = ? order by seq desc limit 1`,
		upto, len(prefix), prefix))
}

// SaveSession saves the bindings of a session, replacing any session with the
// same name.
func (s *Store) SaveSession(name string, bindings []byte) error {
	_, err := s.db.Exec(`insert into session (name, bindings) values (?, ?)
		on conflict(name) do update set bindings = excluded.bindings`, name, bindings)
	return err
}

// Session gets the bindings of a saved session.
func (s *Store) Session(name string) ([]byte, error) {
	var bindings []byte
	err := s.db.QueryRow(`select bindings from session where name = ?`, name).Scan(&bindings)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storedefs.ErrNoSession
	}
	return bindings, err
}

// SessionNames returns the names of all saved sessions in lexicographical
// order.
func (s *Store) SessionNames() ([]string, error) {
	rows, err := s.db.Query(`select name from session order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DelSession deletes a saved session.
func (s *Store) DelSession(name string) error {
	_, err := s.db.Exec(`delete from session where name = ?`, name)
	return err
}
