package installment

import (
	"fmt"

	"github.com/pigeonworks-llc/installment-sync/pkg/actual"
)

// ConditionFields is the desired field-value mapping merged into a
// schedule's condition set. Nil pointers mean "not supplied"; an empty
// string is a supplied (empty) value.
type ConditionFields struct {
	Payee    *string
	Account  *string
	Date     any // date string or full recurrence spec
	Amount   *int64
	AmountOp actual.Operator
}

// ValidationError reports a missing required field in a condition merge.
// It is recoverable: callers skip the offending transaction instead of
// aborting the batch.
type ValidationError struct {
	Field  actual.ConditionField
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid schedule conditions: %s", e.Reason)
}

// conditionSlot identifies the merge slot a condition belongs to. Amount
// has no slot: it is always replaced wholesale, never merged by identity.
type conditionSlot int

const (
	slotPayee conditionSlot = iota
	slotAccount
	slotDate
)

// matchesSlot reports whether an existing condition occupies a slot. The
// operator+field combination is the identity: payee and account accept the
// legacy description/acct field aliases, date accepts both exact and
// approximate operators.
func matchesSlot(cond actual.Condition, slot conditionSlot) bool {
	switch slot {
	case slotPayee:
		return cond.Op == actual.OpIs &&
			(cond.Field == actual.FieldPayee || cond.Field == actual.FieldDescription)
	case slotAccount:
		return cond.Op == actual.OpIs &&
			(cond.Field == actual.FieldAccount || cond.Field == actual.FieldAcct)
	case slotDate:
		return (cond.Op == actual.OpIs || cond.Op == actual.OpIsApprox) &&
			cond.Field == actual.FieldDate
	}
	return false
}

// findSlot returns the first existing condition occupying a slot,
// preferring the canonical field over its legacy alias.
func findSlot(conditions []actual.Condition, slot conditionSlot, canonical actual.ConditionField) *actual.Condition {
	for i := range conditions {
		if matchesSlot(conditions[i], slot) && conditions[i].Field == canonical {
			return &conditions[i]
		}
	}
	for i := range conditions {
		if matchesSlot(conditions[i], slot) {
			return &conditions[i]
		}
	}
	return nil
}

// mergeSlot resolves one slot: an existing condition keeps its operator
// and field and only its value is replaced (a custom operator a user set
// by hand survives); with no existing condition, a new one is synthesized
// with the default operator when a value is supplied, and omitted
// otherwise.
func mergeSlot(existing *actual.Condition, defaultOp actual.Operator, field actual.ConditionField, value any) *actual.Condition {
	if existing != nil {
		merged := *existing
		merged.Value = value
		return &merged
	}

	if value != nil {
		return &actual.Condition{Op: defaultOp, Field: field, Value: value}
	}

	return nil
}

// MergeConditions merges the desired fields into an existing condition
// set, preserving the identity of payee/account/date conditions that are
// already there. The amount condition is always rebuilt from fields.
// Returns a *ValidationError when the required date or amount is absent.
func MergeConditions(existing []actual.Condition, fields ConditionFields) ([]actual.Condition, error) {
	if fields.Date == nil {
		return nil, &ValidationError{Field: actual.FieldDate, Reason: "date is required"}
	}
	if fields.Amount == nil {
		return nil, &ValidationError{Field: actual.FieldAmount, Reason: "a valid amount is required"}
	}

	var payeeValue, accountValue any
	if fields.Payee != nil {
		payeeValue = *fields.Payee
	}
	if fields.Account != nil {
		accountValue = *fields.Account
	}

	merged := []*actual.Condition{
		mergeSlot(findSlot(existing, slotPayee, actual.FieldPayee), actual.OpIs, actual.FieldPayee, payeeValue),
		mergeSlot(findSlot(existing, slotAccount, actual.FieldAccount), actual.OpIs, actual.FieldAccount, accountValue),
		mergeSlot(findSlot(existing, slotDate, actual.FieldDate), actual.OpIsApprox, actual.FieldDate, fields.Date),
		// Amount is rebuilt from scratch so the operator follows the
		// desired fields, not whatever was there before.
		{Op: fields.AmountOp, Field: actual.FieldAmount, Value: *fields.Amount},
	}

	conditions := make([]actual.Condition, 0, len(merged))
	for _, cond := range merged {
		if cond != nil {
			conditions = append(conditions, *cond)
		}
	}

	return conditions, nil
}
