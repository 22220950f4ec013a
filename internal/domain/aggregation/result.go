// Package aggregation provides domain services that pull accounts,
// transactions and holdings for every item of a user and persist what is new.
package aggregation

// Result contains the results of one sync call
type Result[T any] struct {
	UserID int64

	ItemsSynced int
	Fetched     int
	Persisted   int
	Existing    int
	Duplicates  int
	Invalid     int

	// ByInstitution holds the persisted records keyed by the external
	// institution id of the item they came from.
	ByInstitution map[string][]T
}

func newResult[T any](userID int64) *Result[T] {
	return &Result[T]{UserID: userID, ByInstitution: map[string][]T{}}
}

// Empty reports whether nothing new was persisted.
func (r *Result[T]) Empty() bool {
	return r.Persisted == 0
}
