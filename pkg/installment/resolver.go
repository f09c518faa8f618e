package installment

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pigeonworks-llc/installment-sync/pkg/actual"
)

// Store is the remote schedule/transaction store the resolver talks to.
// *actual.Client satisfies it; tests inject an in-memory fake.
type Store interface {
	SchedulesByName(name string) ([]actual.Schedule, error)
	CreateSchedule(fields actual.ScheduleFields, conditions []actual.Condition) (string, error)
	UpdateSchedule(fields actual.ScheduleFields, conditions []actual.Condition, runActions bool) error
	UpdateTransaction(id string, fields actual.TransactionUpdate) error
}

// Options controls resolver behavior.
type Options struct {
	// RecomputeDates composes the schedule name from the whole series'
	// begin and end months rather than the transaction's own month, so
	// every parcel of a series maps to one name.
	RecomputeDates bool
	// IgnoreExisting always creates a fresh schedule, even when one with
	// the composed name already exists.
	IgnoreExisting bool
	// DryRun logs what would happen without writing to the store.
	DryRun bool
}

// LinkResult records the outcome for one linked transaction.
type LinkResult struct {
	TransactionID string
	ScheduleID    string
	ScheduleName  string
	Date          string
	Amount        int64
	Parcel        int
	ParcelTotal   int
	Created       bool
	Completed     bool
}

// Summary aggregates a batch run.
type Summary struct {
	Linked    int
	Created   int
	Reused    int
	Completed int
	Skipped   int
	Links     []LinkResult
}

// Resolver drives installment detection and schedule synthesis for a
// batch of transactions.
type Resolver struct {
	store  Store
	naming Naming
	opts   Options
}

// NewResolver creates a Resolver against a store.
func NewResolver(store Store, naming Naming, opts Options) *Resolver {
	return &Resolver{store: store, naming: naming, opts: opts}
}

// ResolveAll processes transactions strictly one at a time: each
// transaction's full create-or-reuse-and-link sequence, including every
// remote call, completes before the next begins. That ordering is what
// keeps two parcels of the same series within one run from racing the
// name lookup and creating duplicate schedules; it must not be
// parallelized. A failed remote call aborts the remainder of the batch;
// validation failures skip the one transaction and continue.
func (r *Resolver) ResolveAll(transactions []actual.Transaction) (Summary, error) {
	var summary Summary

	for _, tx := range transactions {
		result, err := r.Resolve(tx)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				slog.Warn("Skipping transaction: invalid schedule conditions",
					"transaction_id", tx.ID, "reason", verr.Reason)
				summary.Skipped++
				continue
			}
			return summary, fmt.Errorf("resolving transaction %s: %w", tx.ID, err)
		}

		if result == nil {
			summary.Skipped++
			continue
		}

		summary.Linked++
		if result.Created {
			summary.Created++
		} else {
			summary.Reused++
		}
		if result.Completed {
			summary.Completed++
		}
		summary.Links = append(summary.Links, *result)
	}

	return summary, nil
}

// Resolve runs the pipeline for a single transaction: parse the marker,
// look up the schedule by composed name, create or reuse it, mark
// completion on the final parcel, and link the transaction. Returns nil
// when the transaction carries no usable marker.
func (r *Resolver) Resolve(tx actual.Transaction) (*LinkResult, error) {
	if tx.Date == "" || tx.Notes == nil {
		return nil, nil
	}

	inst, ok := ParseMarker(*tx.Notes)
	if !ok {
		return nil, nil
	}

	if inst.Parcel == 0 || inst.Parcel > inst.ParcelTotal {
		slog.Warn("Skipping transaction: marker violates parcel ordering",
			"transaction_id", tx.ID, "marker", inst.Matched)
		return nil, nil
	}

	name, err := r.naming.Compose(tx, inst, r.opts.RecomputeDates)
	if err != nil {
		return nil, err
	}

	existing, err := r.store.SchedulesByName(name)
	if err != nil {
		return nil, err
	}

	var scheduleID string
	created := false

	if len(existing) == 0 || r.opts.IgnoreExisting {
		scheduleID, err = r.createSchedule(tx, inst, name)
		if err != nil {
			return nil, err
		}
		created = true
	} else {
		if len(existing) > 1 {
			slog.Debug("Multiple schedules share a name, using the first",
				"name", name, "count", len(existing))
		}
		scheduleID, err = r.reuseSchedule(existing[0], inst)
		if err != nil {
			return nil, err
		}
	}

	if r.opts.DryRun {
		slog.Info("[dry-run] Would link transaction",
			"transaction_id", tx.ID, "schedule", name)
		return nil, nil
	}

	if err := r.store.UpdateTransaction(tx.ID, actual.TransactionUpdate{Schedule: &scheduleID}); err != nil {
		return nil, err
	}

	slog.Info("Linked transaction to schedule",
		"transaction_id", tx.ID,
		"schedule_id", scheduleID,
		"schedule", name,
		"parcel", inst.Parcel,
		"parcel_total", inst.ParcelTotal,
		"created", created,
	)

	return &LinkResult{
		TransactionID: tx.ID,
		ScheduleID:    scheduleID,
		ScheduleName:  name,
		Date:          tx.Date,
		Amount:        tx.Amount,
		Parcel:        inst.Parcel,
		ParcelTotal:   inst.ParcelTotal,
		Created:       created,
		Completed:     inst.Final(),
	}, nil
}

// createSchedule builds and creates a new schedule for the series. The
// schedule is born completed when the triggering parcel is the final one.
func (r *Resolver) createSchedule(tx actual.Transaction, inst Installment, name string) (string, error) {
	draft, err := BuildSchedule(tx, inst, name)
	if err != nil {
		return "", err
	}

	if r.opts.DryRun {
		slog.Info("[dry-run] Would create schedule",
			"name", name, "occurrences", len(draft.Schedule.Date.Occurrences))
		return "", nil
	}

	fields := actual.ScheduleFields{
		ID:               nil,
		Name:             &draft.Schedule.Name,
		PostsTransaction: &draft.Schedule.PostsTransaction,
		Completed:        &draft.Schedule.Completed,
	}

	id, err := r.store.CreateSchedule(fields, draft.Conditions)
	if err != nil {
		return "", err
	}

	return id, nil
}

// reuseSchedule reuses an existing schedule's id and, on the final
// parcel, marks it completed without touching its conditions or running
// its actions.
func (r *Resolver) reuseSchedule(schedule actual.Schedule, inst Installment) (string, error) {
	if schedule.ID == nil {
		return "", fmt.Errorf("existing schedule %q has no id", schedule.Name)
	}

	if inst.Final() && !r.opts.DryRun {
		completed := true
		fields := actual.ScheduleFields{ID: schedule.ID, Completed: &completed}
		if err := r.store.UpdateSchedule(fields, nil, false); err != nil {
			return "", err
		}
	}

	return *schedule.ID, nil
}
