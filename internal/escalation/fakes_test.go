package escalation

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pulsedeck-dev/pulsedeck/internal/models"
	"gorm.io/gorm"
)

// memStore is an in-memory RuleStore, TeamDirectory, TimelineWriter and
// ExecutionLogStore used to exercise the engine without a database.
type memStore struct {
	mu sync.Mutex

	nextRuleID uint
	rules      map[uint]*models.EscalationRule

	ruleUsers []models.EscalationRuleUser
	ruleTeams []models.EscalationRuleTeam
	teams     map[uint][]uint

	nextEntryID uint
	timeline    []models.ExecutionTimelineEntry

	nextLogID  uint
	executions []models.PolicyExecutionLog

	// afterRule, when set, runs once after the next Rule lookup returns,
	// outside the store's own lock. Tests use it to interleave a competing
	// call into the window between a lookup and whatever acts on it.
	afterRule func()
}

func newMemStore() *memStore {
	return &memStore{
		rules: make(map[uint]*models.EscalationRule),
		teams: make(map[uint][]uint),
	}
}

func (s *memStore) Rule(_ context.Context, ruleID uint) (models.EscalationRule, error) {
	s.mu.Lock()

	rule, ok := s.rules[ruleID]

	var out models.EscalationRule
	if ok {
		out = *rule
	}

	hook := s.afterRule
	s.afterRule = nil
	s.mu.Unlock()

	if hook != nil {
		hook()
	}

	if !ok {
		return models.EscalationRule{}, ErrNotFound
	}

	return out, nil
}

func (s *memStore) FirstRule(_ context.Context, policyID uint) (models.EscalationRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var first *models.EscalationRule

	for _, rule := range s.rules {
		if rule.PolicyID != policyID {
			continue
		}
		if first == nil || rule.Order < first.Order {
			first = rule
		}
	}

	if first == nil {
		return models.EscalationRule{}, ErrNotFound
	}

	return *first, nil
}

func (s *memStore) CountByPolicy(_ context.Context, policyID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64

	for _, rule := range s.rules {
		if rule.PolicyID == policyID {
			count++
		}
	}

	return count, nil
}

func (s *memStore) RulesFrom(_ context.Context, policyID uint, pivot int) ([]models.EscalationRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.EscalationRule

	for _, rule := range s.rules {
		if rule.PolicyID == policyID && rule.Order >= pivot {
			out = append(out, *rule)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *memStore) RulesInRange(_ context.Context, policyID uint, lo, hi int) ([]models.EscalationRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.EscalationRule

	for _, rule := range s.rules {
		if rule.PolicyID == policyID && rule.Order >= lo && rule.Order <= hi {
			out = append(out, *rule)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *memStore) CreateRule(_ context.Context, rule *models.EscalationRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRuleID++
	rule.ID = s.nextRuleID

	stored := *rule
	s.rules[rule.ID] = &stored
	return nil
}

func (s *memStore) UpdateRuleOrder(_ context.Context, ruleID uint, order int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, ok := s.rules[ruleID]
	if !ok {
		return ErrNotFound
	}

	rule.Order = order
	return nil
}

func (s *memStore) DeleteRule(_ context.Context, ruleID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[ruleID]; !ok {
		return ErrNotFound
	}

	delete(s.rules, ruleID)
	return nil
}

func (s *memStore) RuleUsers(_ context.Context, ruleID uint) ([]models.EscalationRuleUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.EscalationRuleUser

	for _, ru := range s.ruleUsers {
		if ru.RuleID == ruleID {
			out = append(out, ru)
		}
	}

	return out, nil
}

func (s *memStore) RuleTeams(_ context.Context, ruleID uint) ([]models.EscalationRuleTeam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.EscalationRuleTeam

	for _, rt := range s.ruleTeams {
		if rt.RuleID == ruleID {
			out = append(out, rt)
		}
	}

	return out, nil
}

func (s *memStore) AttachUsersAndTeams(_ context.Context, projectID, policyID, ruleID uint, userIDs, teamIDs []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, userID := range userIDs {
		s.ruleUsers = append(s.ruleUsers, models.EscalationRuleUser{
			ProjectID: projectID,
			PolicyID:  policyID,
			RuleID:    ruleID,
			UserID:    userID,
		})
	}

	for _, teamID := range teamIDs {
		s.ruleTeams = append(s.ruleTeams, models.EscalationRuleTeam{
			ProjectID: projectID,
			PolicyID:  policyID,
			RuleID:    ruleID,
			TeamID:    teamID,
		})
	}

	return nil
}

func (s *memStore) UsersInTeam(_ context.Context, teamID uint) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]uint(nil), s.teams[teamID]...), nil
}

func (s *memStore) AppendTimeline(_ context.Context, entry *models.ExecutionTimelineEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEntryID++
	entry.ID = s.nextEntryID
	s.timeline = append(s.timeline, *entry)
	return nil
}

func (s *memStore) CreateExecutionLog(_ context.Context, log *models.PolicyExecutionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextLogID++
	log.ID = s.nextLogID
	s.executions = append(s.executions, *log)
	return nil
}

func (s *memStore) UpdateExecutionStatus(_ context.Context, logID uint, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.executions {
		if s.executions[i].ID == logID {
			s.executions[i].Status = status
			return nil
		}
	}

	return ErrNotFound
}

// executionStatus returns the stored status of one execution log.
func (s *memStore) executionStatus(logID uint) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, execution := range s.executions {
		if execution.ID == logID {
			return execution.Status
		}
	}

	return ""
}

// policyOrders returns the policy's current orders sorted ascending.
func (s *memStore) policyOrders(policyID uint) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []int

	for _, rule := range s.rules {
		if rule.PolicyID == policyID {
			orders = append(orders, rule.Order)
		}
	}

	sort.Ints(orders)
	return orders
}

// ruleOrder returns the current order of one rule.
func (s *memStore) ruleOrder(ruleID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, ok := s.rules[ruleID]
	if !ok {
		return -1
	}

	return rule.Order
}

type notifierCall struct {
	UserID uint
	Event  UserNotification
}

// fakeNotifier records per-user dispatches and can be told to fail for
// specific users.
type fakeNotifier struct {
	mu      sync.Mutex
	calls   []notifierCall
	failFor map[uint]error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failFor: make(map[uint]error)}
}

func (n *fakeNotifier) StartUserNotificationRules(_ context.Context, userID uint, event UserNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls = append(n.calls, notifierCall{UserID: userID, Event: event})

	if err, ok := n.failFor[userID]; ok {
		return err
	}

	return nil
}

func (n *fakeNotifier) notifiedUsers() []uint {
	n.mu.Lock()
	defer n.mu.Unlock()

	users := make([]uint, 0, len(n.calls))

	for _, call := range n.calls {
		users = append(users, call.UserID)
	}

	return users
}

func seedRule(s *memStore, policyID uint, order int) uint {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRuleID++
	s.rules[s.nextRuleID] = &models.EscalationRule{
		Model:     gorm.Model{ID: s.nextRuleID},
		PolicyID:  policyID,
		ProjectID: 1,
		Name:      fmt.Sprintf("rule-%d", s.nextRuleID),
		Order:     order,
	}

	return s.nextRuleID
}
