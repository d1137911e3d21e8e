package escalation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMembersDeduplicatesAcrossSources(t *testing.T) {
	store := newMemStore()
	ruleID := seedRule(store, 1, 1)

	require.NoError(t, store.AttachUsersAndTeams(context.Background(), 1, 1, ruleID, []uint{1, 2}, []uint{10, 20}))
	store.teams[10] = []uint{2, 3}
	store.teams[20] = []uint{3, 4}

	resolver := NewMembershipResolver(store, store)
	membership, err := resolver.ResolveMembers(context.Background(), ruleID)

	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3, 4}, membership.UserIDs)
}

func TestResolveMembersAttributesTeamSourcedUsers(t *testing.T) {
	store := newMemStore()
	ruleID := seedRule(store, 1, 1)

	require.NoError(t, store.AttachUsersAndTeams(context.Background(), 1, 1, ruleID, []uint{1}, []uint{10, 20}))
	store.teams[10] = []uint{1, 5}
	store.teams[20] = []uint{5, 6}

	resolver := NewMembershipResolver(store, store)
	membership, err := resolver.ResolveMembers(context.Background(), ruleID)

	require.NoError(t, err)

	// Directly assigned users carry no team attribution even when a team
	// also contains them.
	_, attributed := membership.TeamAttribution[1]
	assert.False(t, attributed)

	// A user reachable through several teams is credited to the first
	// attached team containing them.
	assert.Equal(t, uint(10), membership.TeamAttribution[5])
	assert.Equal(t, uint(20), membership.TeamAttribution[6])
}

func TestResolveMembersEmptyRule(t *testing.T) {
	store := newMemStore()
	ruleID := seedRule(store, 1, 1)

	resolver := NewMembershipResolver(store, store)
	membership, err := resolver.ResolveMembers(context.Background(), ruleID)

	require.NoError(t, err)
	assert.Empty(t, membership.UserIDs)
	assert.Empty(t, membership.TeamAttribution)
}

func TestResolveMembersEmptyTeam(t *testing.T) {
	store := newMemStore()
	ruleID := seedRule(store, 1, 1)

	require.NoError(t, store.AttachUsersAndTeams(context.Background(), 1, 1, ruleID, nil, []uint{10}))

	resolver := NewMembershipResolver(store, store)
	membership, err := resolver.ResolveMembers(context.Background(), ruleID)

	require.NoError(t, err)
	assert.Empty(t, membership.UserIDs)
}

func TestResolveMembersPreservesDiscoveryOrder(t *testing.T) {
	store := newMemStore()
	ruleID := seedRule(store, 1, 1)

	require.NoError(t, store.AttachUsersAndTeams(context.Background(), 1, 1, ruleID, []uint{7, 3}, []uint{10}))
	store.teams[10] = []uint{9, 3, 8}

	resolver := NewMembershipResolver(store, store)
	membership, err := resolver.ResolveMembers(context.Background(), ruleID)

	require.NoError(t, err)
	assert.Equal(t, []uint{7, 3, 9, 8}, membership.UserIDs)
}
