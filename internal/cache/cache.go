// Package cache stores compiled units in a SQLite database so unchanged
// classes are not recompiled.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/funvibe/jackc/internal/vmwriter"
)

const schema = `
CREATE TABLE IF NOT EXISTS units (
	key         TEXT PRIMARY KEY,
	class       TEXT NOT NULL,
	code        BLOB NOT NULL,
	first_label INTEGER NOT NULL,
	next_label  INTEGER NOT NULL,
	created_at  INTEGER NOT NULL
)`

type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at path.
func Open(ctx context.Context, path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache %s: %w", path, err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// codegenVersion is bumped when generated code changes for the same input,
// so stale entries are never served.
const codegenVersion = "v1"

// Key identifies a compiled unit. Generated labels depend on where the class
// sits in the program, so firstLabel is part of the key.
func Key(fingerprint string, firstLabel int, source string) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(firstLabel)))
	h.Write([]byte{0})
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(codegenVersion))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the unit stored under key. The boolean is false on a miss.
func (c *Cache) Get(ctx context.Context, key string) (*vmwriter.Unit, bool, error) {
	var u vmwriter.Unit
	row := c.db.QueryRowContext(ctx,
		`SELECT class, code, first_label, next_label FROM units WHERE key = ?`, key)
	if err := row.Scan(&u.Class, &u.Code, &u.FirstLabel, &u.NextLabel); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading cache: %w", err)
	}
	return &u, true, nil
}

// Put stores u under key, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, key string, u *vmwriter.Unit) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO units (key, class, code, first_label, next_label, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		key, u.Class, u.Code, u.FirstLabel, u.NextLabel, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Len returns the number of stored units.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM units`).Scan(&n); err != nil {
		return 0, fmt.Errorf("reading cache: %w", err)
	}
	return n, nil
}
