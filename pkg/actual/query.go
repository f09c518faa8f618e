package actual

// Query is a filter-and-select query descriptor sent to the server's
// query endpoint.
type Query struct {
	Table        string         `json:"table"`
	Filter       map[string]any `json:"filter,omitempty"`
	SelectFields []string       `json:"select"`
}

// Q starts a query against a table (e.g. "transactions", "schedules").
func Q(table string) *Query {
	return &Query{Table: table}
}

// FilterEq adds an equality predicate. A nil value matches records where
// the field is unset (e.g. transactions with no schedule reference).
func (q *Query) FilterEq(field string, value any) *Query {
	if q.Filter == nil {
		q.Filter = make(map[string]any)
	}
	q.Filter[field] = value
	return q
}

// Select sets the fields to return. "*" selects all fields.
func (q *Query) Select(fields ...string) *Query {
	q.SelectFields = fields
	return q
}
