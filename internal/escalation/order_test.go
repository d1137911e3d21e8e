package escalation

import (
	"context"
	"sync"
	"testing"

	"github.com/pulsedeck-dev/pulsedeck/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRuleAppendsWhenOrderUnset(t *testing.T) {
	store := newMemStore()
	maintainer := NewOrderMaintainer(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rule := &models.EscalationRule{PolicyID: 1, ProjectID: 1, Name: "r"}
		require.NoError(t, maintainer.CreateRule(ctx, rule))
		assert.Equal(t, i+1, rule.Order)
	}

	assert.Equal(t, []int{1, 2, 3}, store.policyOrders(1))
}

func TestCreateRuleAtPositionShiftsSiblings(t *testing.T) {
	store := newMemStore()
	maintainer := NewOrderMaintainer(store)
	ctx := context.Background()

	first := seedRule(store, 1, 1)
	second := seedRule(store, 1, 2)
	third := seedRule(store, 1, 3)

	inserted := &models.EscalationRule{PolicyID: 1, ProjectID: 1, Name: "inserted", Order: 2}
	require.NoError(t, maintainer.CreateRule(ctx, inserted))

	assert.Equal(t, 2, inserted.Order)
	assert.Equal(t, 1, store.ruleOrder(first))
	assert.Equal(t, 3, store.ruleOrder(second))
	assert.Equal(t, 4, store.ruleOrder(third))
	assert.Equal(t, []int{1, 2, 3, 4}, store.policyOrders(1))
}

func TestCreateRuleAllowsAppendPosition(t *testing.T) {
	store := newMemStore()
	maintainer := NewOrderMaintainer(store)
	ctx := context.Background()

	seedRule(store, 1, 1)
	seedRule(store, 1, 2)

	rule := &models.EscalationRule{PolicyID: 1, ProjectID: 1, Order: 3}
	require.NoError(t, maintainer.CreateRule(ctx, rule))
	assert.Equal(t, []int{1, 2, 3}, store.policyOrders(1))
}

func TestCreateRuleRejectsOrderBeyondAppend(t *testing.T) {
	store := newMemStore()
	maintainer := NewOrderMaintainer(store)
	ctx := context.Background()

	seedRule(store, 1, 1)
	seedRule(store, 1, 2)

	rule := &models.EscalationRule{PolicyID: 1, ProjectID: 1, Order: 4}
	err := maintainer.CreateRule(ctx, rule)

	require.ErrorIs(t, err, ErrBadData)
	assert.Equal(t, []int{1, 2}, store.policyOrders(1), "failed create must not disturb existing orders")
}

func TestCreateRuleRequiresPolicy(t *testing.T) {
	maintainer := NewOrderMaintainer(newMemStore())

	err := maintainer.CreateRule(context.Background(), &models.EscalationRule{ProjectID: 1})
	require.ErrorIs(t, err, ErrBadData)
}

func TestDeleteRuleCompactsOrder(t *testing.T) {
	store := newMemStore()
	maintainer := NewOrderMaintainer(store)
	ctx := context.Background()

	first := seedRule(store, 1, 1)
	second := seedRule(store, 1, 2)
	third := seedRule(store, 1, 3)
	fourth := seedRule(store, 1, 4)

	require.NoError(t, maintainer.DeleteRule(ctx, second))

	assert.Equal(t, 1, store.ruleOrder(first))
	assert.Equal(t, 2, store.ruleOrder(third))
	assert.Equal(t, 3, store.ruleOrder(fourth))
	assert.Equal(t, []int{1, 2, 3}, store.policyOrders(1))
}

func TestDeleteRuleCompactsFromFreshOrderAfterConcurrentReorder(t *testing.T) {
	store := newMemStore()
	maintainer := NewOrderMaintainer(store)
	ctx := context.Background()

	first := seedRule(store, 1, 1)
	second := seedRule(store, 1, 2)
	victim := seedRule(store, 1, 3)

	// A competing reorder lands between the delete's initial lookup and its
	// policy lock, moving the victim to the front. Compaction must use the
	// victim's order as it stands at delete time, not the one first seen.
	store.afterRule = func() {
		require.NoError(t, maintainer.ReorderRule(ctx, victim, 1))
	}

	require.NoError(t, maintainer.DeleteRule(ctx, victim))

	assert.Equal(t, []int{1, 2}, store.policyOrders(1))
	assert.Equal(t, 1, store.ruleOrder(first))
	assert.Equal(t, 2, store.ruleOrder(second))
}

func TestDeleteRuleRemovedWhileWaitingForLock(t *testing.T) {
	store := newMemStore()
	maintainer := NewOrderMaintainer(store)
	ctx := context.Background()

	first := seedRule(store, 1, 1)
	victim := seedRule(store, 1, 2)

	store.afterRule = func() {
		require.NoError(t, maintainer.DeleteRule(ctx, victim))
	}

	err := maintainer.DeleteRule(ctx, victim)
	require.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []int{1}, store.policyOrders(1))
	assert.Equal(t, 1, store.ruleOrder(first))
}

func TestReorderRuleShiftsFromFreshOrderAfterConcurrentDelete(t *testing.T) {
	store := newMemStore()
	maintainer := NewOrderMaintainer(store)
	ctx := context.Background()

	first := seedRule(store, 1, 1)
	second := seedRule(store, 1, 2)
	third := seedRule(store, 1, 3)

	// A competing delete compacts the policy while the reorder waits for the
	// lock, so the moved rule's order and the policy size both change.
	store.afterRule = func() {
		require.NoError(t, maintainer.DeleteRule(ctx, first))
	}

	require.NoError(t, maintainer.ReorderRule(ctx, third, 1))

	assert.Equal(t, []int{1, 2}, store.policyOrders(1))
	assert.Equal(t, 1, store.ruleOrder(third))
	assert.Equal(t, 2, store.ruleOrder(second))
}

func TestDeleteLastRuleLeavesPolicyEmpty(t *testing.T) {
	store := newMemStore()
	maintainer := NewOrderMaintainer(store)

	only := seedRule(store, 1, 1)
	require.NoError(t, maintainer.DeleteRule(context.Background(), only))
	assert.Empty(t, store.policyOrders(1))
}

func TestDeleteMissingRule(t *testing.T) {
	maintainer := NewOrderMaintainer(newMemStore())

	err := maintainer.DeleteRule(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReorderRuleTowardFront(t *testing.T) {
	store := newMemStore()
	maintainer := NewOrderMaintainer(store)
	ctx := context.Background()

	r1 := seedRule(store, 1, 1)
	r2 := seedRule(store, 1, 2)
	r3 := seedRule(store, 1, 3)
	r4 := seedRule(store, 1, 4)
	r5 := seedRule(store, 1, 5)

	require.NoError(t, maintainer.ReorderRule(ctx, r4, 2))

	assert.Equal(t, 1, store.ruleOrder(r1))
	assert.Equal(t, 2, store.ruleOrder(r4))
	assert.Equal(t, 3, store.ruleOrder(r2))
	assert.Equal(t, 4, store.ruleOrder(r3))
	assert.Equal(t, 5, store.ruleOrder(r5))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, store.policyOrders(1))
}

func TestReorderRuleTowardBack(t *testing.T) {
	store := newMemStore()
	maintainer := NewOrderMaintainer(store)
	ctx := context.Background()

	r1 := seedRule(store, 1, 1)
	r2 := seedRule(store, 1, 2)
	r3 := seedRule(store, 1, 3)
	r4 := seedRule(store, 1, 4)

	require.NoError(t, maintainer.ReorderRule(ctx, r2, 4))

	assert.Equal(t, 1, store.ruleOrder(r1))
	assert.Equal(t, 2, store.ruleOrder(r3))
	assert.Equal(t, 3, store.ruleOrder(r4))
	assert.Equal(t, 4, store.ruleOrder(r2))
}

func TestReorderRuleRejectsOutOfRange(t *testing.T) {
	store := newMemStore()
	maintainer := NewOrderMaintainer(store)
	ctx := context.Background()

	r1 := seedRule(store, 1, 1)
	seedRule(store, 1, 2)

	require.ErrorIs(t, maintainer.ReorderRule(ctx, r1, 0), ErrBadData)
	require.ErrorIs(t, maintainer.ReorderRule(ctx, r1, 3), ErrBadData)
	assert.Equal(t, []int{1, 2}, store.policyOrders(1))
}

func TestReorderRuleSamePositionIsNoOp(t *testing.T) {
	store := newMemStore()
	maintainer := NewOrderMaintainer(store)

	r1 := seedRule(store, 1, 1)
	r2 := seedRule(store, 1, 2)

	require.NoError(t, maintainer.ReorderRule(context.Background(), r2, 2))
	assert.Equal(t, 1, store.ruleOrder(r1))
	assert.Equal(t, 2, store.ruleOrder(r2))
}

func TestReorderDoesNotTouchOtherPolicies(t *testing.T) {
	store := newMemStore()
	maintainer := NewOrderMaintainer(store)

	r1 := seedRule(store, 1, 1)
	r2 := seedRule(store, 1, 2)
	other := seedRule(store, 2, 1)

	require.NoError(t, maintainer.ReorderRule(context.Background(), r2, 1))

	assert.Equal(t, 2, store.ruleOrder(r1))
	assert.Equal(t, 1, store.ruleOrder(r2))
	assert.Equal(t, 1, store.ruleOrder(other))
}

func TestConcurrentCreatesStayDense(t *testing.T) {
	store := newMemStore()
	maintainer := NewOrderMaintainer(store)
	ctx := context.Background()

	const workers = 16

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			rule := &models.EscalationRule{PolicyID: 1, ProjectID: 1}
			assert.NoError(t, maintainer.CreateRule(ctx, rule))
		}()
	}

	wg.Wait()

	want := make([]int, workers)
	for i := range want {
		want[i] = i + 1
	}

	assert.Equal(t, want, store.policyOrders(1))
}
