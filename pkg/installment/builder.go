package installment

import (
	"github.com/pigeonworks-llc/installment-sync/pkg/actual"
)

// fallbackAmount seeds the amount condition when the transaction amount
// is zero, so the sign can still be toggled on the value later.
const fallbackAmount int64 = -1000

// Draft is a fully assembled schedule ready for creation: the schedule
// entity plus its authoritative, merged condition set.
type Draft struct {
	Schedule   actual.Schedule
	Conditions []actual.Condition
}

// BuildSchedule assembles the recurrence specification and condition set
// for a new installment schedule. The recurrence covers the remaining
// parcels only: occurrence 0 is the transaction's own date and each later
// occurrence steps one month, clamped to valid month ends.
func BuildSchedule(tx actual.Transaction, inst Installment, name string) (Draft, error) {
	txDate, err := ParseDate(tx.Date)
	if err != nil {
		return Draft{}, err
	}

	remaining := inst.Remaining()
	occurrences := make([]string, remaining)
	for k := 0; k < remaining; k++ {
		occurrences[k] = FormatDay(AddMonths(txDate, k))
	}

	recurrence := actual.RecurrenceSpec{
		Start:            tx.Date,
		Interval:         1,
		Frequency:        actual.FrequencyMonthly,
		Patterns:         []any{},
		SkipWeekend:      false,
		WeekendSolveMode: actual.WeekendSolveModeAfter,
		EndMode:          actual.EndModeAfterN,
		EndOccurrences:   remaining,
		EndDate:          FormatDay(Today()),
		Occurrences:      occurrences,
	}

	payee := ""
	if tx.Payee != nil {
		payee = *tx.Payee
	}

	amount := tx.Amount
	amountOp := actual.OpIs
	if amount == 0 {
		amount = fallbackAmount
		amountOp = actual.OpIsApprox
	}

	schedule := actual.Schedule{
		ID:               nil,
		Name:             name,
		PostsTransaction: false,
		Completed:        inst.Final(),
		Conditions: []actual.Condition{
			{Op: actual.OpIsApprox, Field: actual.FieldDate, Value: tx.Date},
		},
		Date: &recurrence,
	}

	// Run the seed conditions through the merger with the draft's own
	// fields; the merged set is what actually gets created.
	conditions, err := MergeConditions(schedule.Conditions, ConditionFields{
		Payee:    &payee,
		Account:  &tx.Account,
		Date:     &recurrence,
		Amount:   &amount,
		AmountOp: amountOp,
	})
	if err != nil {
		return Draft{}, err
	}

	return Draft{Schedule: schedule, Conditions: conditions}, nil
}
