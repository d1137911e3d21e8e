package escalation

import (
	"context"
	"errors"
	"fmt"

	"github.com/pulsedeck-dev/pulsedeck/internal/models"
	"gorm.io/gorm"
)

// GormStore backs the engine's storage ports with the application database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Rule(ctx context.Context, ruleID uint) (models.EscalationRule, error) {
	var rule models.EscalationRule

	if err := s.db.WithContext(ctx).First(&rule, ruleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.EscalationRule{}, fmt.Errorf("%w: escalation rule %d", ErrNotFound, ruleID)
		}
		return models.EscalationRule{}, err
	}

	return rule, nil
}

func (s *GormStore) FirstRule(ctx context.Context, policyID uint) (models.EscalationRule, error) {
	var rule models.EscalationRule

	err := s.db.WithContext(ctx).
		Where("policy_id = ?", policyID).
		Order("rule_order ASC").
		First(&rule).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.EscalationRule{}, fmt.Errorf("%w: policy %d has no rules", ErrNotFound, policyID)
		}
		return models.EscalationRule{}, err
	}

	return rule, nil
}

func (s *GormStore) CountByPolicy(ctx context.Context, policyID uint) (int64, error) {
	var count int64

	err := s.db.WithContext(ctx).
		Model(&models.EscalationRule{}).
		Where("policy_id = ?", policyID).
		Count(&count).Error

	return count, err
}

func (s *GormStore) RulesFrom(ctx context.Context, policyID uint, pivot int) ([]models.EscalationRule, error) {
	var rules []models.EscalationRule

	err := s.db.WithContext(ctx).
		Where("policy_id = ? AND rule_order >= ?", policyID, pivot).
		Order("rule_order ASC").
		Find(&rules).Error

	return rules, err
}

func (s *GormStore) RulesInRange(ctx context.Context, policyID uint, lo, hi int) ([]models.EscalationRule, error) {
	var rules []models.EscalationRule

	err := s.db.WithContext(ctx).
		Where("policy_id = ? AND rule_order BETWEEN ? AND ?", policyID, lo, hi).
		Order("rule_order ASC").
		Find(&rules).Error

	return rules, err
}

func (s *GormStore) CreateRule(ctx context.Context, rule *models.EscalationRule) error {
	return s.db.WithContext(ctx).Create(rule).Error
}

func (s *GormStore) UpdateRuleOrder(ctx context.Context, ruleID uint, order int) error {
	return s.db.WithContext(ctx).
		Model(&models.EscalationRule{}).
		Where("id = ?", ruleID).
		Update("rule_order", order).Error
}

func (s *GormStore) DeleteRule(ctx context.Context, ruleID uint) error {
	return s.db.WithContext(ctx).Delete(&models.EscalationRule{}, ruleID).Error
}

func (s *GormStore) RuleUsers(ctx context.Context, ruleID uint) ([]models.EscalationRuleUser, error) {
	var ruleUsers []models.EscalationRuleUser

	err := s.db.WithContext(ctx).
		Where("rule_id = ?", ruleID).
		Order("id ASC").
		Find(&ruleUsers).Error

	return ruleUsers, err
}

func (s *GormStore) RuleTeams(ctx context.Context, ruleID uint) ([]models.EscalationRuleTeam, error) {
	var ruleTeams []models.EscalationRuleTeam

	err := s.db.WithContext(ctx).
		Where("rule_id = ?", ruleID).
		Order("id ASC").
		Find(&ruleTeams).Error

	return ruleTeams, err
}

func (s *GormStore) AttachUsersAndTeams(ctx context.Context, projectID, policyID, ruleID uint, userIDs, teamIDs []uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, userID := range userIDs {
			ruleUser := models.EscalationRuleUser{
				PolicyID:  policyID,
				RuleID:    ruleID,
				UserID:    userID,
				ProjectID: projectID,
			}

			if err := tx.Create(&ruleUser).Error; err != nil {
				return err
			}
		}

		for _, teamID := range teamIDs {
			ruleTeam := models.EscalationRuleTeam{
				PolicyID:  policyID,
				RuleID:    ruleID,
				TeamID:    teamID,
				ProjectID: projectID,
			}

			if err := tx.Create(&ruleTeam).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (s *GormStore) UsersInTeam(ctx context.Context, teamID uint) ([]uint, error) {
	var members []models.TeamMember

	err := s.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("id ASC").
		Find(&members).Error

	if err != nil {
		return nil, err
	}

	userIDs := make([]uint, 0, len(members))

	for _, member := range members {
		userIDs = append(userIDs, member.UserID)
	}

	return userIDs, nil
}

func (s *GormStore) AppendTimeline(ctx context.Context, entry *models.ExecutionTimelineEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormStore) CreateExecutionLog(ctx context.Context, log *models.PolicyExecutionLog) error {
	return s.db.WithContext(ctx).Create(log).Error
}

func (s *GormStore) UpdateExecutionStatus(ctx context.Context, logID uint, status string) error {
	return s.db.WithContext(ctx).
		Model(&models.PolicyExecutionLog{}).
		Where("id = ?", logID).
		Update("status", status).Error
}
