package escalation

import (
	"context"
)

// Membership is the resolved target set of one rule execution.
type Membership struct {
	// UserIDs is unique, in discovery order: directly assigned users first,
	// then team members in rule-attachment order.
	UserIDs []uint

	// TeamAttribution maps a team-sourced user to the team that contributed
	// them. The first rule-attached team containing the user wins; directly
	// assigned users have no entry.
	TeamAttribution map[uint]uint
}

// MembershipResolver computes the de-duplicated users targeted by a rule.
type MembershipResolver struct {
	rules RuleStore
	teams TeamDirectory
}

func NewMembershipResolver(rules RuleStore, teams TeamDirectory) *MembershipResolver {
	return &MembershipResolver{
		rules: rules,
		teams: teams,
	}
}

// ResolveMembers returns the unique users a rule targets, from both direct
// assignments and attached teams. A rule with no users and no teams resolves
// to an empty set; that is not an error.
func (r *MembershipResolver) ResolveMembers(ctx context.Context, ruleID uint) (Membership, error) {
	membership := Membership{
		TeamAttribution: make(map[uint]uint),
	}

	ruleUsers, err := r.rules.RuleUsers(ctx, ruleID)

	if err != nil {
		return Membership{}, err
	}

	seen := make(map[uint]bool)
	direct := make(map[uint]bool)

	for _, ruleUser := range ruleUsers {
		if seen[ruleUser.UserID] {
			continue
		}

		seen[ruleUser.UserID] = true
		direct[ruleUser.UserID] = true
		membership.UserIDs = append(membership.UserIDs, ruleUser.UserID)
	}

	ruleTeams, err := r.rules.RuleTeams(ctx, ruleID)

	if err != nil {
		return Membership{}, err
	}

	for _, ruleTeam := range ruleTeams {
		memberIDs, err := r.teams.UsersInTeam(ctx, ruleTeam.TeamID)

		if err != nil {
			return Membership{}, err
		}

		for _, memberID := range memberIDs {
			if _, attributed := membership.TeamAttribution[memberID]; !attributed && !direct[memberID] {
				membership.TeamAttribution[memberID] = ruleTeam.TeamID
			}

			if seen[memberID] {
				continue
			}

			seen[memberID] = true
			membership.UserIDs = append(membership.UserIDs, memberID)
		}
	}

	return membership, nil
}
