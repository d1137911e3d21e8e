package escalation

import (
	"context"
	"fmt"
	"sync"

	"github.com/pulsedeck-dev/pulsedeck/internal/models"
)

// OrderMaintainer keeps each policy's escalation rules in a dense 1..N order.
// All order-mutating operations on one policy are serialized with a per-policy
// mutex, so a create racing a delete cannot leave gaps or duplicates.
type OrderMaintainer struct {
	rules RuleStore

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewOrderMaintainer(rules RuleStore) *OrderMaintainer {
	return &OrderMaintainer{
		rules: rules,
		locks: make(map[uint]*sync.Mutex),
	}
}

func (m *OrderMaintainer) policyLock(policyID uint) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[policyID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[policyID] = lock
	}

	return lock
}

// CreateRule persists a new rule. A missing order means append (count+1); an
// explicit order pre-shifts every existing rule at or after that position up
// by one before the new rule is written.
func (m *OrderMaintainer) CreateRule(ctx context.Context, rule *models.EscalationRule) error {
	if rule.PolicyID == 0 {
		return fmt.Errorf("%w: escalation rule requires a policy id", ErrBadData)
	}

	lock := m.policyLock(rule.PolicyID)
	lock.Lock()
	defer lock.Unlock()

	count, err := m.rules.CountByPolicy(ctx, rule.PolicyID)

	if err != nil {
		return err
	}

	if rule.Order <= 0 {
		rule.Order = int(count) + 1
	} else if rule.Order > int(count)+1 {
		return fmt.Errorf("%w: order %d is out of range for a policy with %d rules", ErrBadData, rule.Order, count)
	}

	if err := m.rearrangeOrder(ctx, rule.PolicyID, rule.Order, true); err != nil {
		return err
	}

	return m.rules.CreateRule(ctx, rule)
}

// ReorderRule moves an existing rule to newOrder, shifting the siblings in
// between by one in the opposite direction.
func (m *OrderMaintainer) ReorderRule(ctx context.Context, ruleID uint, newOrder int) error {
	// The first lookup only identifies the policy to lock. The rule's order
	// is re-read under the lock; a concurrent mutation may have moved it
	// between the two reads.
	ref, err := m.rules.Rule(ctx, ruleID)

	if err != nil {
		return err
	}

	lock := m.policyLock(ref.PolicyID)
	lock.Lock()
	defer lock.Unlock()

	rule, err := m.rules.Rule(ctx, ruleID)

	if err != nil {
		return err
	}

	count, err := m.rules.CountByPolicy(ctx, rule.PolicyID)

	if err != nil {
		return err
	}

	if newOrder < 1 || newOrder > int(count) {
		return fmt.Errorf("%w: order %d is out of range for a policy with %d rules", ErrBadData, newOrder, count)
	}

	if newOrder == rule.Order {
		return nil
	}

	var lo, hi, delta int

	if newOrder < rule.Order {
		// Moving toward the front: everything in [newOrder, currentOrder)
		// slides back by one.
		lo, hi, delta = newOrder, rule.Order-1, 1
	} else {
		// Moving toward the back: everything in (currentOrder, newOrder]
		// slides forward by one.
		lo, hi, delta = rule.Order+1, newOrder, -1
	}

	siblings, err := m.rules.RulesInRange(ctx, rule.PolicyID, lo, hi)

	if err != nil {
		return err
	}

	for _, sibling := range siblings {
		if sibling.ID == rule.ID {
			continue
		}

		if err := m.rules.UpdateRuleOrder(ctx, sibling.ID, sibling.Order+delta); err != nil {
			return err
		}
	}

	return m.rules.UpdateRuleOrder(ctx, rule.ID, newOrder)
}

// DeleteRule removes a rule and closes the gap it leaves: every sibling with a
// higher order is decremented by one.
func (m *OrderMaintainer) DeleteRule(ctx context.Context, ruleID uint) error {
	ref, err := m.rules.Rule(ctx, ruleID)

	if err != nil {
		return err
	}

	lock := m.policyLock(ref.PolicyID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock: the rule's order, not just its existence, is
	// the compaction pivot and may have changed since the first lookup.
	rule, err := m.rules.Rule(ctx, ruleID)

	if err != nil {
		return err
	}

	if err := m.rules.DeleteRule(ctx, rule.ID); err != nil {
		return err
	}

	return m.rearrangeOrder(ctx, rule.PolicyID, rule.Order, false)
}

// rearrangeOrder shifts every rule with order >= pivot by one, up when
// increase is set and down otherwise. Rules are fetched and updated in
// ascending order so a concurrent reader never observes a skipped value while
// compacting.
func (m *OrderMaintainer) rearrangeOrder(ctx context.Context, policyID uint, pivot int, increase bool) error {
	siblings, err := m.rules.RulesFrom(ctx, policyID, pivot)

	if err != nil {
		return err
	}

	delta := 1

	if !increase {
		delta = -1
	}

	for _, sibling := range siblings {
		if err := m.rules.UpdateRuleOrder(ctx, sibling.ID, sibling.Order+delta); err != nil {
			return err
		}
	}

	return nil
}
