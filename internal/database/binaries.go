package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ytbridge/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/araddon/dateparse"
)

// Table and column names.
const (
	tBinaries = "binaries"

	qBinName        = "name"
	qBinArch        = "arch"
	qBinPath        = "path"
	qBinSHA256      = "sha256"
	qBinSize        = "size"
	qBinInstalledAt = "installed_at"
)

const upsertBinarySuffix = "ON CONFLICT(name, arch) DO UPDATE SET " +
	"path = excluded.path, sha256 = excluded.sha256, size = excluded.size, installed_at = excluded.installed_at"

// BinaryStore records the tool binaries materialized from the bundled assets.
type BinaryStore struct {
	db *sql.DB
}

// NewBinaryStore returns a BinaryStore backed by db.
func NewBinaryStore(db *sql.DB) *BinaryStore {
	return &BinaryStore{db: db}
}

// Record inserts rec, replacing any previous record for the same name and arch.
func (s *BinaryStore) Record(ctx context.Context, rec models.BinaryRecord) error {
	if rec.Name == "" || rec.Arch == "" {
		return errors.New("binary record needs a name and arch")
	}
	if rec.InstalledAt.IsZero() {
		rec.InstalledAt = time.Now()
	}

	query := squirrel.
		Insert(tBinaries).
		Columns(qBinName, qBinArch, qBinPath, qBinSHA256, qBinSize, qBinInstalledAt).
		Values(rec.Name, rec.Arch, rec.Path, rec.SHA256, rec.Size, rec.InstalledAt.UTC().Format(time.RFC3339)).
		Suffix(upsertBinarySuffix).
		RunWith(s.db)

	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to record binary %s/%s: %w", rec.Arch, rec.Name, err)
	}
	return nil
}

// Get returns the record for name and arch, if one exists.
func (s *BinaryStore) Get(ctx context.Context, name, arch string) (rec models.BinaryRecord, found bool, err error) {
	query := selectBinaries().
		Where(squirrel.Eq{qBinName: name, qBinArch: arch}).
		RunWith(s.db)

	rec, err = scanBinary(query.QueryRowContext(ctx))
	if errors.Is(err, sql.ErrNoRows) {
		return models.BinaryRecord{}, false, nil
	}
	if err != nil {
		return models.BinaryRecord{}, false, fmt.Errorf("failed to query binary %s/%s: %w", arch, name, err)
	}
	return rec, true, nil
}

// List returns every recorded binary ordered by arch then name.
func (s *BinaryStore) List(ctx context.Context) ([]models.BinaryRecord, error) {
	query := selectBinaries().
		OrderBy(qBinArch, qBinName).
		RunWith(s.db)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list binaries: %w", err)
	}
	defer rows.Close()

	var out []models.BinaryRecord
	for rows.Next() {
		rec, err := scanBinary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Private ////////////////////////////////////////////////////////////////////////////////////////////

func selectBinaries() squirrel.SelectBuilder {
	return squirrel.
		Select(qBinName, qBinArch, qBinPath, qBinSHA256, qBinSize, qBinInstalledAt).
		From(tBinaries)
}

// scanBinary scans one binaries row, parsing the stored timestamp text.
func scanBinary(row squirrel.RowScanner) (models.BinaryRecord, error) {
	var (
		rec         models.BinaryRecord
		installedAt string
	)
	if err := row.Scan(&rec.Name, &rec.Arch, &rec.Path, &rec.SHA256, &rec.Size, &installedAt); err != nil {
		return models.BinaryRecord{}, err
	}

	t, err := dateparse.ParseAny(installedAt)
	if err != nil {
		return models.BinaryRecord{}, fmt.Errorf("invalid installed_at %q for %s/%s: %w", installedAt, rec.Arch, rec.Name, err)
	}
	rec.InstalledAt = t
	return rec, nil
}
