package models

// Page is one cursor-paginated slice of a list. NextCursor is nil on the
// last page.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"nextCursor"`
}

// NewPage turns up to batch+1 fetched rows into a page: the lookahead row is
// dropped from Items and its id becomes NextCursor.
func NewPage[T any](rows []T, batch int, id func(T) string) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	if len(rows) <= batch {
		return Page[T]{Items: rows}
	}

	next := id(rows[batch])
	return Page[T]{Items: rows[:batch], NextCursor: &next}
}
