// Package query defines the search request value objects: free text, fusion
// mode, result limit, and structured metadata filters.
package query

// Query is a single search request.
type Query struct {
	Text    string
	Limit   int
	Mode    Mode
	Filters Filters
}

// New creates a query. A zero or negative limit and an empty mode are left
// for the engine to default; an invalid mode string is the caller's problem
// and is rejected here.
func New(text string, limit int, mode string, filters Filters) (Query, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return Query{}, err
	}
	return Query{Text: text, Limit: limit, Mode: m, Filters: filters}, nil
}
