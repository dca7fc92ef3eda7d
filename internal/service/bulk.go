package service

import (
	"fmt"

	"github.com/mtlprog/taskbasket/internal/domain"
)

// forEachItem applies the operation to each id independently, collecting
// per-item failures instead of aborting the batch. Only a structural
// violation (empty input) propagates as an error; in that case no partial
// result is returned.
//
// Items are processed in input order. There is no atomicity across items: a
// failure in the middle does not undo earlier successes.
func forEachItem[K comparable](ids []K, apply func(K) error) (*domain.BulkOperationResult[K], error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: id list must not be empty", domain.ErrInvalidArgument)
	}

	result := domain.NewBulkOperationResult[K]()
	for _, id := range ids {
		if err := apply(id); err != nil {
			result.AddError(id, err)
		}
	}
	return result, nil
}
