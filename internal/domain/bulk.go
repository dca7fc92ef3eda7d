package domain

// BulkOperationResult maps item keys of a bulk operation to their failure,
// if any. Absence of a key means the item succeeded. Failed ids keep the
// order in which the failures were recorded; only the first error per key
// is kept.
type BulkOperationResult[K comparable] struct {
	failedIDs []K
	errs      map[K]error
}

// NewBulkOperationResult creates an empty result.
func NewBulkOperationResult[K comparable]() *BulkOperationResult[K] {
	return &BulkOperationResult[K]{errs: make(map[K]error)}
}

// AddError records a failure for the given id. A nil error is ignored, as is
// a second error for an id that already failed.
func (r *BulkOperationResult[K]) AddError(id K, err error) {
	if err == nil {
		return
	}
	if _, ok := r.errs[id]; ok {
		return
	}
	r.errs[id] = err
	r.failedIDs = append(r.failedIDs, id)
}

// ContainsErrors reports whether any item failed.
func (r *BulkOperationResult[K]) ContainsErrors() bool {
	return len(r.errs) > 0
}

// FailedIDs returns the ids of all failed items in recording order.
func (r *BulkOperationResult[K]) FailedIDs() []K {
	return append([]K(nil), r.failedIDs...)
}

// ErrorMap returns a copy of the id-to-error mapping.
func (r *BulkOperationResult[K]) ErrorMap() map[K]error {
	m := make(map[K]error, len(r.errs))
	for k, v := range r.errs {
		m[k] = v
	}
	return m
}

// ErrorForID returns the recorded error for the given id, or nil.
func (r *BulkOperationResult[K]) ErrorForID(id K) error {
	return r.errs[id]
}
