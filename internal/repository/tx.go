package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// withTx runs fn inside a transaction, committing on success.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		// No-op once committed
		_ = tx.Rollback()
	}()

	err = fn(tx)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// setClause accumulates "column = ?" pairs for partial updates.
type setClause struct {
	cols []string
	args []any
}

func (s *setClause) add(col string, value any) {
	s.cols = append(s.cols, col+" = ?")
	s.args = append(s.args, value)
}

func (s *setClause) empty() bool {
	return len(s.cols) == 0
}

func (s *setClause) String() string {
	return strings.Join(s.cols, ", ")
}

// setIf adds col when the patch field is present.
func setIf[T any](s *setClause, col string, value *T) {
	if value != nil {
		s.add(col, *value)
	}
}

// aliasColumns renders "t.col AS "prefix.col"" for nested struct scans.
func aliasColumns(table, prefix string, cols []string) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf(`%s.%s AS "%s.%s"`, table, col, prefix, col)
	}
	return strings.Join(parts, ", ")
}

// qualify renders "t.col" for every column.
func qualify(table string, cols []string) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = table + "." + col
	}
	return strings.Join(parts, ", ")
}

// escapeLike escapes LIKE wildcards; pair with ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
