package errs

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

var ErrConflict = errors.New("unique constraint violation")

// IsUniqueViolation reports whether err is a unique key violation from
// postgres or sqlite.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func ConvertError(err error) error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		return errors.Join(ErrConflict, err)
	}
	return err
}
