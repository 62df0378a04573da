// Package catalog reads the upstream catalog: the local SQLite snapshot of the package
// list, the per-package version index on the CDN, and the refresh of the snapshot itself.
package catalog

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	"github.com/glorpus-work/wingetmirror/pkg/errors"
)

// HashPrefixLen is the number of hex characters of the package hash used in CDN paths.
const HashPrefixLen = 8

// DefaultSearchLimit caps Search when no limit is given.
const DefaultSearchLimit = 50

// Entry is a package row of the catalog snapshot.
type Entry struct {
	ID            string `json:"package_id" yaml:"package_id"`
	Name          string `json:"package_name" yaml:"package_name"`
	Publisher     string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	LatestVersion string `json:"latest_version" yaml:"latest_version"`
	Hash          string `json:"hash,omitempty" yaml:"hash,omitempty"`
}

// HashPrefix returns the first eight hex characters of the package hash.
func (e *Entry) HashPrefix() string {
	if len(e.Hash) <= HashPrefixLen {
		return e.Hash
	}
	return e.Hash[:HashPrefixLen]
}

// Reader queries the snapshot database. Every call opens its own connection so a
// refreshed snapshot renamed over the file is picked up by the next query.
type Reader struct {
	path string
}

// NewReader creates a reader for the snapshot at path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Path returns the snapshot location.
func (r *Reader) Path() string { return r.path }

// Available reports whether a snapshot exists.
func (r *Reader) Available() bool {
	info, err := os.Stat(r.path)
	return err == nil && info.Mode().IsRegular()
}

func (r *Reader) open() (*sql.DB, error) {
	if !r.Available() {
		return nil, fmt.Errorf("%w: %s", errors.ErrCatalogUnavailable, r.path)
	}
	db, err := sql.Open("sqlite", r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// FindPackage looks up a package by id. The publisher is read from the normalized
// publisher table when present and left empty otherwise.
func (r *Reader) FindPackage(ctx context.Context, id string) (*Entry, error) {
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var (
		e      Entry
		name   sql.NullString
		latest sql.NullString
		hash   []byte
	)
	err = db.QueryRowContext(ctx, `
		SELECT p.id, p.name, p.latest_version, p.hash
		FROM packages p
		WHERE p.id = ?
		LIMIT 1`, id).Scan(&e.ID, &name, &latest, &hash)
	if err == sql.ErrNoRows {
		return nil, errors.ErrPackageNotFoundWithID(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query package %s: %w", id, err)
	}
	e.Name = name.String
	e.LatestVersion = latest.String
	e.Hash = hex.EncodeToString(hash)

	var publisher sql.NullString
	err = db.QueryRowContext(ctx, `
		SELECT np.norm_publisher
		FROM norm_publishers2 np
		JOIN packages p ON np.package = p.rowid
		WHERE p.id = ?
		LIMIT 1`, id).Scan(&publisher)
	if err != nil && err != sql.ErrNoRows {
		logger.Debug("Could not read publisher from catalog", logger.Fields{"package": id, "error": err})
	}
	e.Publisher = publisher.String

	logger.Debug("Found catalog package", logger.Fields{
		"package":        e.ID,
		"name":           e.Name,
		"publisher":      e.Publisher,
		"latest_version": e.LatestVersion,
	})
	return &e, nil
}

// Search returns packages whose id or name contains query, ordered by id.
func (r *Reader) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	pattern := "%" + query + "%"
	rows, err := db.QueryContext(ctx, `
		SELECT p.id, p.name, p.latest_version
		FROM packages p
		WHERE p.id LIKE ? OR p.name LIKE ?
		ORDER BY p.id
		LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search catalog: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e      Entry
			name   sql.NullString
			latest sql.NullString
		)
		if err := rows.Scan(&e.ID, &name, &latest); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		e.Name = name.String
		e.LatestVersion = latest.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
