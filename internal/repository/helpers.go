package repository

import (
	"database/sql"
	"errors"
)

// HandleNotFound maps sql.ErrNoRows to (nil, nil) so lookups and guarded
// updates return an absent row as a nil result instead of an error. Services
// translate the nil into their own not-found sentinels.
func HandleNotFound[T any](result *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
