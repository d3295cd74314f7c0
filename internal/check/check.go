// Package check guards creations against duplicate records.
package check

import (
	"context"

	"github.com/onichmath/Tarpaulin/internal/apperr"
)

// Existence is the slice of the store the checker needs.
type Existence interface {
	ExistsMatching(ctx context.Context, collection string, criteria map[string]interface{}) (bool, error)
}

// AssertNotExists fails with a ConflictError when any record matching
// all given field values already exists. There is no locking; a race
// between concurrent duplicate creations is accepted and left to
// store-level unique indexes to backstop.
func AssertNotExists(ctx context.Context, store Existence, collection string, criteria map[string]interface{}) error {
	found, err := store.ExistsMatching(ctx, collection, criteria)
	if err != nil {
		return apperr.Server(err)
	}
	if found {
		return apperr.Conflict("A record with the specified fields already exists.")
	}
	return nil
}
