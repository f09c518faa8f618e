// Package actual provides a client and wire types for an Actual-style
// ledger server (budget sync server).
package actual

// Transaction represents a ledger transaction as returned by the server.
type Transaction struct {
	ID       string  `json:"id"`
	Account  string  `json:"account"`
	Date     string  `json:"date"`   // YYYY-MM-DD
	Amount   int64   `json:"amount"` // minor currency units, outflows negative
	Payee    *string `json:"payee,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	Schedule *string `json:"schedule,omitempty"`
}

// Operator is a schedule condition operator.
type Operator string

const (
	OpIs        Operator = "is"
	OpIsApprox  Operator = "isapprox"
	OpIsBetween Operator = "isbetween"
)

// ConditionField is the transaction field a schedule condition matches on.
type ConditionField string

const (
	FieldPayee       ConditionField = "payee"
	FieldDescription ConditionField = "description" // legacy alias for payee
	FieldAccount     ConditionField = "account"
	FieldAcct        ConditionField = "acct" // legacy alias for account
	FieldAmount      ConditionField = "amount"
	FieldDate        ConditionField = "date"
)

// Condition is one (operator, field, value) matching rule of a schedule.
// Value is a date string, an amount in minor units, a payee/account id, or
// a full recurrence object for date conditions.
type Condition struct {
	Op    Operator       `json:"op"`
	Field ConditionField `json:"field"`
	Value any            `json:"value"`
}

// RecurrenceSpec describes a schedule's recurrence.
type RecurrenceSpec struct {
	Start            string   `json:"start"` // YYYY-MM-DD
	Interval         int      `json:"interval"`
	Frequency        string   `json:"frequency"`
	Patterns         []any    `json:"patterns"`
	SkipWeekend      bool     `json:"skipWeekend"`
	WeekendSolveMode string   `json:"weekendSolveMode"`
	EndMode          string   `json:"endMode"`
	EndOccurrences   int      `json:"endOccurrences"`
	EndDate          string   `json:"endDate"`     // YYYY-MM-DD
	Occurrences      []string `json:"occurrences"` // YYYY-MM-DD, one per remaining installment
}

const (
	FrequencyMonthly      = "monthly"
	EndModeAfterN         = "after_n_occurrences"
	WeekendSolveModeAfter = "after"
)

// Schedule represents a recurring expected transaction in the remote store.
// ID is nil until the server assigns one on creation.
type Schedule struct {
	ID               *string         `json:"id"`
	Name             string          `json:"name"`
	PostsTransaction bool            `json:"posts_transaction"`
	Completed        bool            `json:"completed"`
	Conditions       []Condition     `json:"_conditions,omitempty"`
	Date             *RecurrenceSpec `json:"_date,omitempty"`
}

// ScheduleFields is a partial schedule update. Nil fields are left
// untouched by the server.
type ScheduleFields struct {
	ID               *string `json:"id"`
	Name             *string `json:"name,omitempty"`
	PostsTransaction *bool   `json:"posts_transaction,omitempty"`
	Completed        *bool   `json:"completed,omitempty"`
}

// TransactionUpdate is a partial transaction update. Only the schedule
// reference is written by this tool.
type TransactionUpdate struct {
	Schedule *string `json:"schedule"`
}

// ErrorResponse represents an error payload from the server.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"description,omitempty"`
}
