// Package assets is the local image provider: a directory of image files
// indexed by a SQLite catalog that keeps insertion order.
package assets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/pthm-cable/stellar/config"
)

var (
	ErrNotFound    = errors.New("asset not found")
	ErrInvalidName = errors.New("invalid asset name")
	ErrUnsupported = errors.New("unsupported image type")
)

// Extensions the field decoder understands.
var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".webp": true,
}

// Asset is one catalogued image file.
type Asset struct {
	ID    string
	Name  string
	Size  int64
	Added time.Time
}

// Store implements the asset provider over a directory.
type Store struct {
	dir string
	db  *sql.DB
	now func() time.Time
}

// New opens (creating if needed) the asset directory and its catalog, then
// catalogues any image files already present that are not yet indexed.
func New(cfg config.AssetsConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating asset dir: %w", err)
	}

	dbPath := cfg.Database
	if dbPath != ":memory:" && !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(cfg.Dir, dbPath)
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	// One connection so :memory: catalogs are shared
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping catalog: %w", err)
	}

	s := &Store{dir: cfg.Dir, db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	if err := s.sync(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the catalog.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the asset directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS assets (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL UNIQUE,
		size INTEGER NOT NULL,
		added_at INTEGER NOT NULL
	);
	`)
	return err
}

// sync reconciles the catalog with the directory: new image files are
// appended in name order and rows whose file vanished are dropped.
func (s *Store) sync(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading asset dir: %w", err)
	}

	onDisk := make(map[string]int64)
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		onDisk[e.Name()] = info.Size()
	}

	known, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, a := range known {
		if _, ok := onDisk[a.Name]; ok {
			delete(onDisk, a.Name)
			continue
		}
		if _, err := s.db.ExecContext(ctx, "DELETE FROM assets WHERE id = ?", a.ID); err != nil {
			return fmt.Errorf("pruning %s: %w", a.Name, err)
		}
		slog.Info("asset pruned", "name", a.Name)
	}

	// ReadDir returns names sorted, so discovery order is stable
	for _, e := range entries {
		size, ok := onDisk[e.Name()]
		if !ok {
			continue
		}
		if _, err := s.insert(ctx, e.Name(), size); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insert(ctx context.Context, name string, size int64) (Asset, error) {
	a := Asset{ID: uuid.NewString(), Name: name, Size: size, Added: s.now()}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assets (id, name, size, added_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET size = excluded.size
	`, a.ID, a.Name, a.Size, a.Added.UnixNano())
	if err != nil {
		return Asset{}, fmt.Errorf("cataloguing %s: %w", name, err)
	}
	return a, nil
}

// List returns every asset in insertion order.
func (s *Store) List(ctx context.Context) ([]Asset, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, size, added_at FROM assets ORDER BY seq ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var out []Asset
	for rows.Next() {
		var a Asset
		var added int64
		if err := rows.Scan(&a.ID, &a.Name, &a.Size, &added); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		a.Added = time.Unix(0, added)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}
	return out, nil
}

// Names returns the catalogued file names in insertion order.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(list))
	for i, a := range list {
		names[i] = a.Name
	}
	return names, nil
}

func (s *Store) lookup(ctx context.Context, name string) (Asset, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, size, added_at FROM assets WHERE name = ?", name)
	var a Asset
	var added int64
	if err := row.Scan(&a.ID, &a.Name, &a.Size, &added); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Asset{}, ErrNotFound
		}
		return Asset{}, fmt.Errorf("failed to load asset: %w", err)
	}
	a.Added = time.Unix(0, added)
	return a, nil
}

// Open returns the bytes of a catalogued asset.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if _, err := s.lookup(ctx, name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return f, nil
}

// Upload stores r under name, replacing any file of that name. The file is
// written to a temporary name first so readers never see a partial image.
func (s *Store) Upload(ctx context.Context, name string, r io.Reader) (Asset, error) {
	name, err := cleanName(name)
	if err != nil {
		return Asset{}, err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return Asset{}, fmt.Errorf("creating upload: %w", err)
	}
	size, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return Asset{}, fmt.Errorf("writing upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return Asset{}, fmt.Errorf("storing upload: %w", err)
	}

	if _, err := s.insert(ctx, name, size); err != nil {
		return Asset{}, err
	}
	a, err := s.lookup(ctx, name)
	if err != nil {
		return Asset{}, err
	}
	slog.Info("asset uploaded", "name", name, "bytes", size)
	return a, nil
}

// Delete removes the asset file and its catalog row.
func (s *Store) Delete(ctx context.Context, name string) error {
	a, err := s.lookup(ctx, name)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, a.Name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", name, err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM assets WHERE id = ?", a.ID); err != nil {
		return fmt.Errorf("uncataloguing %s: %w", name, err)
	}
	slog.Info("asset deleted", "name", name)
	return nil
}

// cleanName rejects paths and unsupported extensions.
func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !imageExts[strings.ToLower(filepath.Ext(name))] {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, name)
	}
	return name, nil
}
