// Package sqlxrepos implements the repositories on top of sqlx.
// Queries are written with "?" placeholders and rebound for the connected driver,
// so the same code serves postgres (lib/pq, pgx) and sqlite.
package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// trapNoRowsErr maps a "no rows" err to `notFound`.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func toJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

func fromJSON(s string, v interface{}) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}

// where joins `conds` with AND into a WHERE clause ("" if empty).
func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
