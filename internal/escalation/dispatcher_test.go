package escalation

import (
	"context"
	"errors"
	"testing"

	"github.com/pulsedeck-dev/pulsedeck/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(store *memStore, notifier *fakeNotifier) *Dispatcher {
	resolver := NewMembershipResolver(store, store)
	return NewDispatcher(store, resolver, store, store, notifier)
}

func TestStartRuleExecutionFansOutToEachMember(t *testing.T) {
	store := newMemStore()
	notifier := newFakeNotifier()
	dispatcher := newTestDispatcher(store, notifier)
	ctx := context.Background()

	ruleID := seedRule(store, 1, 1)
	require.NoError(t, store.AttachUsersAndTeams(ctx, 1, 1, ruleID, []uint{1, 2}, []uint{10}))
	store.teams[10] = []uint{3}

	incidentID := uint(99)
	err := dispatcher.StartRuleExecution(ctx, ruleID, StartOptions{
		ProjectID:             1,
		PolicyID:              1,
		ExecutionLogID:        7,
		EventType:             types.EventIncidentCreated,
		TriggeredByIncidentID: &incidentID,
	})

	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, notifier.notifiedUsers())

	require.Len(t, store.timeline, 1)
	entry := store.timeline[0]
	assert.Equal(t, ruleID, entry.RuleID)
	assert.Equal(t, uint(7), entry.ExecutionLogID)
	require.NotNil(t, entry.TriggeredByIncidentID)
	assert.Equal(t, incidentID, *entry.TriggeredByIncidentID)

	for _, call := range notifier.calls {
		assert.Equal(t, types.EventIncidentCreated, call.Event.EventType)
		assert.Equal(t, ruleID, call.Event.RuleID)
	}
}

func TestStartRuleExecutionDispatchesOverlappingUserOnce(t *testing.T) {
	store := newMemStore()
	notifier := newFakeNotifier()
	dispatcher := newTestDispatcher(store, notifier)
	ctx := context.Background()

	ruleID := seedRule(store, 1, 1)
	require.NoError(t, store.AttachUsersAndTeams(ctx, 1, 1, ruleID, []uint{1}, []uint{10, 20}))
	store.teams[10] = []uint{1, 2}
	store.teams[20] = []uint{2}

	err := dispatcher.StartRuleExecution(ctx, ruleID, StartOptions{
		ProjectID: 1,
		PolicyID:  1,
		EventType: types.EventManualPage,
	})

	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, notifier.notifiedUsers())
}

func TestStartRuleExecutionRejectsIncidentTriggerWithoutIncident(t *testing.T) {
	store := newMemStore()
	notifier := newFakeNotifier()
	dispatcher := newTestDispatcher(store, notifier)
	ctx := context.Background()

	ruleID := seedRule(store, 1, 1)
	require.NoError(t, store.AttachUsersAndTeams(ctx, 1, 1, ruleID, []uint{1}, nil))

	err := dispatcher.StartRuleExecution(ctx, ruleID, StartOptions{
		ProjectID: 1,
		PolicyID:  1,
		EventType: types.EventIncidentCreated,
	})

	require.ErrorIs(t, err, ErrBadData)

	// The attempt is on the audit trail even though it was rejected, and no
	// user was paged.
	assert.Len(t, store.timeline, 1)
	assert.Empty(t, notifier.notifiedUsers())
}

func TestStartRuleExecutionManualPageNeedsNoIncident(t *testing.T) {
	store := newMemStore()
	notifier := newFakeNotifier()
	dispatcher := newTestDispatcher(store, notifier)
	ctx := context.Background()

	ruleID := seedRule(store, 1, 1)
	require.NoError(t, store.AttachUsersAndTeams(ctx, 1, 1, ruleID, []uint{1}, nil))

	err := dispatcher.StartRuleExecution(ctx, ruleID, StartOptions{
		ProjectID: 1,
		PolicyID:  1,
		EventType: types.EventManualPage,
	})

	require.NoError(t, err)
	assert.Equal(t, []uint{1}, notifier.notifiedUsers())
}

func TestStartRuleExecutionIsolatesUserFailures(t *testing.T) {
	store := newMemStore()
	notifier := newFakeNotifier()
	dispatcher := newTestDispatcher(store, notifier)
	ctx := context.Background()

	ruleID := seedRule(store, 1, 1)
	require.NoError(t, store.AttachUsersAndTeams(ctx, 1, 1, ruleID, []uint{1, 2, 3}, nil))

	boom := errors.New("channel unreachable")
	notifier.failFor[2] = boom

	err := dispatcher.StartRuleExecution(ctx, ruleID, StartOptions{
		ProjectID: 1,
		PolicyID:  1,
		EventType: types.EventManualPage,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// Users after the failing one are still paged.
	assert.Equal(t, []uint{1, 2, 3}, notifier.notifiedUsers())
}

func TestStartRuleExecutionIsNotIdempotent(t *testing.T) {
	store := newMemStore()
	notifier := newFakeNotifier()
	dispatcher := newTestDispatcher(store, notifier)
	ctx := context.Background()

	ruleID := seedRule(store, 1, 1)
	require.NoError(t, store.AttachUsersAndTeams(ctx, 1, 1, ruleID, []uint{1}, nil))

	opts := StartOptions{ProjectID: 1, PolicyID: 1, EventType: types.EventManualPage}

	require.NoError(t, dispatcher.StartRuleExecution(ctx, ruleID, opts))
	require.NoError(t, dispatcher.StartRuleExecution(ctx, ruleID, opts))

	assert.Len(t, store.timeline, 2)
	assert.Equal(t, []uint{1, 1}, notifier.notifiedUsers())
}

func TestStartRuleExecutionEmptyRuleIsANoOp(t *testing.T) {
	store := newMemStore()
	notifier := newFakeNotifier()
	dispatcher := newTestDispatcher(store, notifier)

	ruleID := seedRule(store, 1, 1)

	err := dispatcher.StartRuleExecution(context.Background(), ruleID, StartOptions{
		ProjectID: 1,
		PolicyID:  1,
		EventType: types.EventManualPage,
	})

	require.NoError(t, err)
	assert.Len(t, store.timeline, 1)
	assert.Empty(t, notifier.notifiedUsers())
}

func TestStartPolicyExecutionRunsFirstRule(t *testing.T) {
	store := newMemStore()
	notifier := newFakeNotifier()
	dispatcher := newTestDispatcher(store, notifier)
	ctx := context.Background()

	second := seedRule(store, 1, 2)
	first := seedRule(store, 1, 1)
	require.NoError(t, store.AttachUsersAndTeams(ctx, 1, 1, first, []uint{1}, nil))
	require.NoError(t, store.AttachUsersAndTeams(ctx, 1, 1, second, []uint{2}, nil))

	incidentID := uint(5)
	execution, err := dispatcher.StartPolicyExecution(ctx, 1, 1, &incidentID)

	require.NoError(t, err)
	assert.NotEmpty(t, execution.CorrelationID)
	assert.Equal(t, "completed", execution.Status)
	assert.Equal(t, "completed", store.executionStatus(execution.ID))
	require.NotNil(t, execution.IncidentID)
	assert.Equal(t, incidentID, *execution.IncidentID)

	// Only the lowest-ordered rule runs; escalation to later rules is a
	// separate decision.
	assert.Equal(t, []uint{1}, notifier.notifiedUsers())
	require.Len(t, store.timeline, 1)
	assert.Equal(t, first, store.timeline[0].RuleID)
	assert.Equal(t, execution.ID, store.timeline[0].ExecutionLogID)
	assert.Equal(t, types.EventIncidentCreated, notifier.calls[0].Event.EventType)
}

func TestStartPolicyExecutionWithoutIncidentIsManualPage(t *testing.T) {
	store := newMemStore()
	notifier := newFakeNotifier()
	dispatcher := newTestDispatcher(store, notifier)
	ctx := context.Background()

	ruleID := seedRule(store, 1, 1)
	require.NoError(t, store.AttachUsersAndTeams(ctx, 1, 1, ruleID, []uint{1}, nil))

	_, err := dispatcher.StartPolicyExecution(ctx, 1, 1, nil)

	require.NoError(t, err)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, types.EventManualPage, notifier.calls[0].Event.EventType)
	assert.Nil(t, notifier.calls[0].Event.TriggeredByIncidentID)
}

func TestStartPolicyExecutionWithNoRules(t *testing.T) {
	store := newMemStore()
	notifier := newFakeNotifier()
	dispatcher := newTestDispatcher(store, notifier)

	execution, err := dispatcher.StartPolicyExecution(context.Background(), 1, 1, nil)

	require.NoError(t, err)
	assert.NotZero(t, execution.ID)
	assert.Equal(t, "completed", execution.Status)
	assert.Empty(t, store.timeline)
	assert.Empty(t, notifier.notifiedUsers())
}

func TestPolicyExecutionMarkedFailedWhenDispatchFails(t *testing.T) {
	store := newMemStore()
	notifier := newFakeNotifier()
	dispatcher := newTestDispatcher(store, notifier)
	ctx := context.Background()

	ruleID := seedRule(store, 1, 1)
	require.NoError(t, store.AttachUsersAndTeams(ctx, 1, 1, ruleID, []uint{1}, nil))
	notifier.failFor[1] = errors.New("channel down")

	execution, err := dispatcher.StartPolicyExecution(ctx, 1, 1, nil)

	require.Error(t, err)
	assert.Equal(t, "failed", execution.Status)
	assert.Equal(t, "failed", store.executionStatus(execution.ID))
}

func TestPolicyExecutionsGetDistinctCorrelationIDs(t *testing.T) {
	store := newMemStore()
	notifier := newFakeNotifier()
	dispatcher := newTestDispatcher(store, notifier)
	ctx := context.Background()

	first, err := dispatcher.StartPolicyExecution(ctx, 1, 1, nil)
	require.NoError(t, err)

	second, err := dispatcher.StartPolicyExecution(ctx, 1, 1, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.CorrelationID, second.CorrelationID)
}
