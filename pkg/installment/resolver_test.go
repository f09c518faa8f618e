package installment

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pigeonworks-llc/installment-sync/pkg/actual"
)

// fakeStore is an in-memory Store recording every call. Created schedules
// become visible to later name lookups, like the remote store.
type fakeStore struct {
	schedules      []actual.Schedule
	conditions     map[string][]actual.Condition
	updates        []actual.ScheduleFields
	links          map[string]string // transaction id -> schedule id
	failSchedules  bool
	failCreate     bool
	failLink       bool
	queriesByName  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conditions: make(map[string][]actual.Condition),
		links:      make(map[string]string),
	}
}

func (s *fakeStore) SchedulesByName(name string) ([]actual.Schedule, error) {
	if s.failSchedules {
		return nil, fmt.Errorf("connection refused")
	}
	s.queriesByName = append(s.queriesByName, name)

	var result []actual.Schedule
	for _, schedule := range s.schedules {
		if schedule.Name == name {
			result = append(result, schedule)
		}
	}
	return result, nil
}

func (s *fakeStore) CreateSchedule(fields actual.ScheduleFields, conditions []actual.Condition) (string, error) {
	if s.failCreate {
		return "", fmt.Errorf("schedule insert conflict")
	}

	id := uuid.NewString()
	schedule := actual.Schedule{ID: &id}
	if fields.Name != nil {
		schedule.Name = *fields.Name
	}
	if fields.PostsTransaction != nil {
		schedule.PostsTransaction = *fields.PostsTransaction
	}
	if fields.Completed != nil {
		schedule.Completed = *fields.Completed
	}

	s.schedules = append(s.schedules, schedule)
	s.conditions[id] = conditions
	return id, nil
}

func (s *fakeStore) UpdateSchedule(fields actual.ScheduleFields, conditions []actual.Condition, runActions bool) error {
	if runActions {
		return fmt.Errorf("unexpected runActions=true")
	}
	if conditions != nil {
		return fmt.Errorf("unexpected condition rewrite on update")
	}

	s.updates = append(s.updates, fields)
	for i := range s.schedules {
		if s.schedules[i].ID != nil && fields.ID != nil && *s.schedules[i].ID == *fields.ID {
			if fields.Completed != nil {
				s.schedules[i].Completed = *fields.Completed
			}
		}
	}
	return nil
}

func (s *fakeStore) UpdateTransaction(id string, fields actual.TransactionUpdate) error {
	if s.failLink {
		return fmt.Errorf("write failed")
	}
	if fields.Schedule == nil {
		return fmt.Errorf("transaction update without a schedule reference")
	}
	s.links[id] = *fields.Schedule
	return nil
}

func markedTxn(id, date string, amount int64, notes string) actual.Transaction {
	n := notes
	return actual.Transaction{
		ID:      id,
		Account: "acct-1",
		Date:    date,
		Amount:  amount,
		Notes:   &n,
	}
}

func TestResolveCreatesAndLinks(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store, DefaultNaming(), Options{RecomputeDates: true})

	tx := markedTxn("txn-1", "2024-01-15", -120000, "Laptop (01/03)")
	result, err := resolver.Resolve(tx)
	require.NoError(t, err)
	require.NotNil(t, result)

	require.Len(t, store.schedules, 1)
	created := store.schedules[0]
	assert.Equal(t, "Laptop: 3 installments of 1200.00 (2024-01:2024-03)", created.Name)
	assert.False(t, created.Completed)
	assert.False(t, created.PostsTransaction)

	require.NotNil(t, created.ID)
	assert.Equal(t, *created.ID, store.links["txn-1"])
	assert.Equal(t, *created.ID, result.ScheduleID)
	assert.True(t, result.Created)
	assert.False(t, result.Completed)

	conditions := store.conditions[*created.ID]
	require.Len(t, conditions, 4)
	date := findByField(conditions, actual.FieldDate)
	require.NotNil(t, date)
	rec, ok := date.Value.(*actual.RecurrenceSpec)
	require.True(t, ok)
	assert.Equal(t, []string{"2024-01-15", "2024-02-15", "2024-03-15"}, rec.Occurrences)
}

func TestResolveAllDeduplicatesSeries(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store, DefaultNaming(), Options{RecomputeDates: true})

	batch := []actual.Transaction{
		markedTxn("txn-1", "2024-01-15", -120000, "Laptop (01/03)"),
		markedTxn("txn-2", "2024-02-15", -120000, "Laptop (02/03)"),
	}

	summary, err := resolver.ResolveAll(batch)
	require.NoError(t, err)

	// One schedule, two links, both to the same id.
	assert.Equal(t, 2, summary.Linked)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Reused)
	require.Len(t, store.schedules, 1)
	require.Len(t, store.links, 2)
	assert.Equal(t, store.links["txn-1"], store.links["txn-2"])
}

func TestResolveFinalParcelCompletesOnCreate(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store, DefaultNaming(), Options{RecomputeDates: true})

	result, err := resolver.Resolve(markedTxn("txn-9", "2024-03-15", -120000, "Laptop (03/03)"))
	require.NoError(t, err)
	require.NotNil(t, result)

	require.Len(t, store.schedules, 1)
	assert.True(t, store.schedules[0].Completed)
	assert.True(t, result.Completed)
	// Completion was set at creation, not via a follow-up update.
	assert.Empty(t, store.updates)
}

func TestResolveFinalParcelCompletesOnReuse(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store, DefaultNaming(), Options{RecomputeDates: true})

	batch := []actual.Transaction{
		markedTxn("txn-1", "2024-02-15", -120000, "Laptop (02/03)"),
		markedTxn("txn-2", "2024-03-15", -120000, "Laptop (03/03)"),
	}

	summary, err := resolver.ResolveAll(batch)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Reused)
	require.Len(t, store.schedules, 1)
	assert.True(t, store.schedules[0].Completed)

	// Exactly one completion update, with nil conditions and no actions
	// (checked inside the fake).
	require.Len(t, store.updates, 1)
	require.NotNil(t, store.updates[0].Completed)
	assert.True(t, *store.updates[0].Completed)
	assert.Nil(t, store.updates[0].Name)
}

func TestResolveIntermediateReuseLeavesCompletionAlone(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store, DefaultNaming(), Options{RecomputeDates: true})

	batch := []actual.Transaction{
		markedTxn("txn-1", "2024-01-15", -120000, "Laptop (01/04)"),
		markedTxn("txn-2", "2024-02-15", -120000, "Laptop (02/04)"),
	}

	_, err := resolver.ResolveAll(batch)
	require.NoError(t, err)

	assert.Empty(t, store.updates)
	assert.False(t, store.schedules[0].Completed)
}

func TestResolveSkipsUnusableTransactions(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store, DefaultNaming(), Options{RecomputeDates: true})

	noNotes := actual.Transaction{ID: "txn-1", Account: "acct-1", Date: "2024-01-15", Amount: -100}
	noDate := markedTxn("txn-2", "", -100, "Laptop (01/03)")
	noMarker := markedTxn("txn-3", "2024-01-15", -100, "Laptop")
	badOrder := markedTxn("txn-4", "2024-01-15", -100, "Laptop (04/03)")
	zeroParcel := markedTxn("txn-5", "2024-01-15", -100, "Laptop (00/03)")

	summary, err := resolver.ResolveAll([]actual.Transaction{noNotes, noDate, noMarker, badOrder, zeroParcel})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Skipped)
	assert.Equal(t, 0, summary.Linked)
	assert.Empty(t, store.schedules)
	assert.Empty(t, store.links)
}

func TestResolveAbortsOnQueryFailure(t *testing.T) {
	store := newFakeStore()
	store.failSchedules = true
	resolver := NewResolver(store, DefaultNaming(), Options{RecomputeDates: true})

	_, err := resolver.Resolve(markedTxn("txn-1", "2024-01-15", -120000, "Laptop (01/03)"))
	require.Error(t, err)
	assert.Empty(t, store.links)
}

func TestResolveAllAbortsOnRemoteFailure(t *testing.T) {
	store := newFakeStore()
	store.failCreate = true
	resolver := NewResolver(store, DefaultNaming(), Options{RecomputeDates: true})

	batch := []actual.Transaction{
		markedTxn("txn-1", "2024-01-15", -120000, "Laptop (01/03)"),
		markedTxn("txn-2", "2024-02-15", -120000, "Laptop (02/03)"),
	}

	summary, err := resolver.ResolveAll(batch)
	require.Error(t, err)
	assert.ErrorContains(t, err, "txn-1")

	// The batch stopped at the first failure; nothing was linked.
	assert.Equal(t, 0, summary.Linked)
	assert.Empty(t, store.links)
}

func TestResolveAllKeepsEarlierLinksOnLateFailure(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store, DefaultNaming(), Options{RecomputeDates: true})

	// First transaction succeeds, then the store starts failing.
	first, err := resolver.Resolve(markedTxn("txn-1", "2024-01-15", -120000, "Laptop (01/03)"))
	require.NoError(t, err)
	require.NotNil(t, first)

	store.failLink = true
	summary, err := resolver.ResolveAll([]actual.Transaction{
		markedTxn("txn-2", "2024-02-15", -120000, "Laptop (02/03)"),
	})
	require.Error(t, err)
	assert.Equal(t, 0, summary.Linked)

	// No rollback: the first link survives.
	assert.Equal(t, first.ScheduleID, store.links["txn-1"])
}

func TestResolveIgnoreExistingCreatesDuplicate(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store, DefaultNaming(), Options{RecomputeDates: true, IgnoreExisting: true})

	batch := []actual.Transaction{
		markedTxn("txn-1", "2024-01-15", -120000, "Laptop (01/03)"),
		markedTxn("txn-2", "2024-02-15", -120000, "Laptop (02/03)"),
	}

	summary, err := resolver.ResolveAll(batch)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Created)
	assert.Len(t, store.schedules, 2)
	assert.NotEqual(t, store.links["txn-1"], store.links["txn-2"])
}

func TestResolveReusesFirstOfDuplicateNames(t *testing.T) {
	store := newFakeStore()
	idA, idB := "sched-a", "sched-b"
	name := "Laptop: 3 installments of 1200.00 (2024-01:2024-03)"
	store.schedules = []actual.Schedule{
		{ID: &idA, Name: name},
		{ID: &idB, Name: name},
	}

	resolver := NewResolver(store, DefaultNaming(), Options{RecomputeDates: true})
	result, err := resolver.Resolve(markedTxn("txn-1", "2024-02-15", -120000, "Laptop (02/03)"))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, idA, result.ScheduleID)
	assert.False(t, result.Created)
}

func TestResolveDryRunWritesNothing(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store, DefaultNaming(), Options{RecomputeDates: true, DryRun: true})

	summary, err := resolver.ResolveAll([]actual.Transaction{
		markedTxn("txn-1", "2024-01-15", -120000, "Laptop (01/03)"),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Linked)
	assert.Empty(t, store.schedules)
	assert.Empty(t, store.links)
	assert.Empty(t, store.updates)
	// The name lookup still runs so the log shows create-vs-reuse.
	assert.NotEmpty(t, store.queriesByName)
}

func TestResolveKeepDatesNamesEachParcelSeparately(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store, DefaultNaming(), Options{RecomputeDates: false})

	batch := []actual.Transaction{
		markedTxn("txn-1", "2024-01-15", -120000, "Laptop (01/03)"),
		markedTxn("txn-2", "2024-02-15", -120000, "Laptop (02/03)"),
	}

	summary, err := resolver.ResolveAll(batch)
	require.NoError(t, err)

	// Without date recomputation each parcel's month yields a distinct
	// name, so no reuse happens across parcels.
	assert.Equal(t, 2, summary.Created)
	assert.Len(t, store.schedules, 2)
}
