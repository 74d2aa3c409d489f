package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"mangawatch/internal/domain/notify"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConstraint = errors.New("constraint violation")
)

// mapPgError folds integrity-constraint violations (SQLSTATE class 23)
// into ErrConstraint so callers can branch without importing pgconn.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%w: %s", ErrConstraint, pgErr.Message)
	}
	return err
}

func targetsFromJSON(raw []byte) ([]notify.Target, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ts []notify.Target
	if err := json.Unmarshal(raw, &ts); err != nil {
		return nil, fmt.Errorf("decode targets: %w", err)
	}
	return ts, nil
}

func targetsToJSON(ts []notify.Target) ([]byte, error) {
	if ts == nil {
		ts = []notify.Target{}
	}
	raw, err := json.Marshal(ts)
	if err != nil {
		return nil, fmt.Errorf("encode targets: %w", err)
	}
	return raw, nil
}
