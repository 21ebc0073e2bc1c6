package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// driverName is the SQLite driver registered with the casefold function.
const driverName = "sqlite3_tinycms"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("casefold", casefold, true)
		},
	})
}

// casefold normalizes s to NFC and applies Unicode case folding.
// Registered as the SQL function casefold(text) and applied to search terms,
// so both sides of a LIKE comparison fold the same way.
func casefold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// Engine creates and serializes database images.
type Engine interface {
	// Create returns a handle on a new, empty image.
	Create(ctx context.Context) (*sql.DB, error)

	// Load returns a handle on an image restored from bytes.
	Load(ctx context.Context, image []byte) (*sql.DB, error)

	// Serialize returns the full current image of db.
	Serialize(ctx context.Context, db *sql.DB) ([]byte, error)
}

// SQLiteEngine keeps the image in an in-memory SQLite database.
//
// An in-memory database lives on one connection, so the pool is pinned to a
// single connection that is never recycled.
type SQLiteEngine struct{}

var errEmptyImage = errors.New("empty image")

func (SQLiteEngine) Create(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Load restores image into a new in-memory database.
//
// A deserialized database is fixed at the size of its image and fails with
// "database or disk is full" once a write needs a new page. The image is
// therefore deserialized into a scratch connection and copied with the
// online backup API into a regular in-memory database that can grow.
func (e SQLiteEngine) Load(ctx context.Context, image []byte) (*sql.DB, error) {
	if len(image) == 0 {
		return nil, errEmptyImage
	}

	src, err := e.Create(ctx)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	err = withRawConn(ctx, src, func(c *sqlite3.SQLiteConn) error {
		return c.Deserialize(image, "main")
	})
	if err != nil {
		return nil, fmt.Errorf("deserialize image: %w", err)
	}

	// sqlite3_deserialize does not validate; the first read does.
	var n int
	if err := src.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master").Scan(&n); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	db, err := e.Create(ctx)
	if err != nil {
		return nil, err
	}

	err = withRawConn(ctx, db, func(dst *sqlite3.SQLiteConn) error {
		return withRawConn(ctx, src, func(from *sqlite3.SQLiteConn) error {
			return copyDatabase(dst, from)
		})
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("copy image: %w", err)
	}

	return db, nil
}

// copyDatabase copies the main database of src over the main database of dst
// in a single backup step.
func copyDatabase(dst, src *sqlite3.SQLiteConn) error {
	bk, err := dst.Backup("main", src, "main")
	if err != nil {
		return err
	}

	done, err := bk.Step(-1)
	if err != nil {
		bk.Finish()
		return err
	}
	if !done {
		bk.Finish()
		return errors.New("backup did not complete")
	}
	return bk.Finish()
}

func (SQLiteEngine) Serialize(ctx context.Context, db *sql.DB) ([]byte, error) {
	var image []byte
	err := withRawConn(ctx, db, func(c *sqlite3.SQLiteConn) error {
		var err error
		image, err = c.Serialize("main")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("serialize image: %w", err)
	}
	return image, nil
}

// withRawConn runs fn on the driver connection behind db.
func withRawConn(ctx context.Context, db *sql.DB, fn func(*sqlite3.SQLiteConn) error) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		return fn(c)
	})
}
