package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vibekit/rulehub/pkg/generate"
	"github.com/vibekit/rulehub/pkg/wizard"
)

// InsertPackage persists pkg and returns the stored copy.
func (s *Store) InsertPackage(ctx context.Context, pkg *generate.Package) (*generate.Package, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if pkg == nil || pkg.ID == "" {
		return nil, errors.New("missing package id")
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO generated_packages(
  id, configuration_id, package_type, download_url, file_name, file_size,
  rule_count, download_count, expires_at_unix_ms, created_at_unix_ms
) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		pkg.ID,
		pkg.ConfigurationID,
		string(pkg.PackageType),
		pkg.DownloadURL,
		pkg.FileName,
		pkg.FileSize,
		pkg.RuleCount,
		pkg.DownloadCount,
		unixMs(pkg.ExpiresAt),
		unixMs(pkg.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert package: %w", err)
	}

	return s.GetPackage(ctx, pkg.ID)
}

// GetPackage returns the package with the given id, or [ErrNotFound].
// Expired packages are returned as-is; callers decide what to do.
func (s *Store) GetPackage(ctx context.Context, id string) (*generate.Package, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	return scanPackage(s.db.QueryRowContext(ctx, `
SELECT id, configuration_id, package_type, download_url, file_name, file_size,
       rule_count, download_count, expires_at_unix_ms, created_at_unix_ms
FROM generated_packages
WHERE id = ?
`, id), id)
}

// ListPackages returns packages that have not expired at now, newest first.
func (s *Store) ListPackages(ctx context.Context, now time.Time) ([]generate.Package, error) {
	return s.listPackages(ctx, `WHERE expires_at_unix_ms > ? ORDER BY created_at_unix_ms DESC, id ASC`, unixMs(now))
}

// ListExpiredPackages returns packages that expired at or before now,
// oldest first. These are the rows [Store.DeleteExpiredPackages] removes.
func (s *Store) ListExpiredPackages(ctx context.Context, now time.Time) ([]generate.Package, error) {
	return s.listPackages(ctx, `WHERE expires_at_unix_ms <= ? ORDER BY created_at_unix_ms ASC, id ASC`, unixMs(now))
}

func (s *Store) listPackages(ctx context.Context, clause string, args ...any) ([]generate.Package, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	//nolint:gosec // G202: clause is a constant.
	rows, err := s.db.QueryContext(ctx, `
SELECT id, configuration_id, package_type, download_url, file_name, file_size,
       rule_count, download_count, expires_at_unix_ms, created_at_unix_ms
FROM generated_packages
`+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("query packages: %w", err)
	}
	defer rows.Close()

	var out []generate.Package

	for rows.Next() {
		p, err := scanPackage(rows, "")
		if err != nil {
			return nil, err
		}

		out = append(out, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packages: %w", err)
	}

	return out, nil
}

// RecordDownload increments the download counter of an unexpired package
// and returns the updated package.
func (s *Store) RecordDownload(ctx context.Context, id string, now time.Time) (*generate.Package, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
UPDATE generated_packages
SET download_count = download_count + 1
WHERE id = ? AND expires_at_unix_ms > ?
`, id, unixMs(now))
	if err != nil {
		return nil, fmt.Errorf("record download: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("record download: %w", err)
	}

	if n == 0 {
		// Distinguish an expired package from a missing one.
		if _, err := s.GetPackage(ctx, id); err != nil {
			return nil, err
		}

		return nil, fmt.Errorf("package %q: %w", id, ErrPackageExpired)
	}

	return s.GetPackage(ctx, id)
}

// DeleteExpiredPackages removes packages that expired at or before now and
// returns how many were removed.
func (s *Store) DeleteExpiredPackages(ctx context.Context, now time.Time) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `
DELETE FROM generated_packages WHERE expires_at_unix_ms <= ?
`, unixMs(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired packages: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired packages: %w", err)
	}

	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPackage(row rowScanner, id string) (*generate.Package, error) {
	var (
		p                  generate.Package
		pkgType            string
		expires, createdAt int64
	)

	err := row.Scan(
		&p.ID,
		&p.ConfigurationID,
		&pkgType,
		&p.DownloadURL,
		&p.FileName,
		&p.FileSize,
		&p.RuleCount,
		&p.DownloadCount,
		&expires,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("package %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan package: %w", err)
	}

	p.PackageType = wizard.OutputFormat(pkgType)
	p.ExpiresAt = fromUnixMs(expires)
	p.CreatedAt = fromUnixMs(createdAt)

	return &p, nil
}
