// Package sqlxrepos implements the repositories on PostgreSQL with sqlx.
package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/access"
)

// postgres error codes
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern returns a case-insensitive substring pattern matching s literally.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// pgError returns the postgres error behind err, if any.
func pgError(err error) (*pq.Error, bool) {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return pqErr, ok
}

func isViolation(err error, code string) (constraint string, ok bool) {
	if pqErr, isPq := pgError(err); isPq && string(pqErr.Code) == code {
		return pqErr.Constraint, true
	}
	return "", false
}

// trapNoRowsErr maps the "no rows" error to notFound.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// scopeCondition translates a branch scope into a condition on `column`, using `?` bind vars.
func scopeCondition(scope access.Scope, column string) (string, []interface{}) {
	if scope.IsUnrestricted() {
		return "TRUE", nil
	}
	if branchID, ok := scope.Branch(); ok {
		return column + " = ?", []interface{}{branchID}
	}
	return "FALSE", nil
}

func orderBy(ordering ...core.DBOrdering) string {
	list := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		list = append(list, ord.String())
	}
	return " ORDER BY " + strings.Join(list, ", ")
}
