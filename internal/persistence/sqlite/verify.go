package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// VerifyMode selects the integrity pragma.
type VerifyMode string

const (
	// VerifyQuick runs PRAGMA quick_check, which skips index consistency.
	VerifyQuick VerifyMode = "quick"
	// VerifyFull runs PRAGMA integrity_check.
	VerifyFull VerifyMode = "full"
)

// ErrUnknownVerifyMode is returned by ParseVerifyMode.
var ErrUnknownVerifyMode = errors.New("sqlite: unknown verify mode")

// ParseVerifyMode accepts "quick" and "full". Empty means quick.
func ParseVerifyMode(s string) (VerifyMode, error) {
	switch VerifyMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", VerifyQuick:
		return VerifyQuick, nil
	case VerifyFull:
		return VerifyFull, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVerifyMode, s)
}

func (m VerifyMode) pragma() string {
	if m == VerifyFull {
		return "PRAGMA integrity_check"
	}
	return "PRAGMA quick_check"
}

// Verify runs the integrity pragma on db. It returns the diagnostic rows when
// the database is damaged and nil when it reports "ok".
func Verify(ctx context.Context, db *sql.DB, mode VerifyMode) ([]string, error) {
	rows, err := db.QueryContext(ctx, mode.pragma())
	if err != nil {
		return nil, fmt.Errorf("integrity pragma failed: %w", err)
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var res string
		if err := rows.Scan(&res); err != nil {
			return nil, fmt.Errorf("scan integrity row: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch {
	case len(results) == 1 && strings.EqualFold(results[0], "ok"):
		return nil, nil
	case len(results) == 0:
		return []string{"integrity check returned no rows"}, nil
	}
	return results, nil
}

// VerifyFile checks the database at path over a read-only connection.
func VerifyFile(ctx context.Context, path string, mode VerifyMode) ([]string, error) {
	db, err := Open(path, InspectConfig())
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return Verify(ctx, db, mode)
}
