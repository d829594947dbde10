package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	for _, role := range []string{"admin", "union_head", "regional_head", "club_owner", "sa_manager", "super_agent", "agent", "player"} {
		parsed, ok := ParseRole(role)
		assert.True(t, ok, "expected %s to parse", role)
		assert.Equal(t, Role(role), parsed)
	}

	_, ok := ParseRole("superuser")
	assert.False(t, ok)
}

func TestBuildFilterAdminUnrestricted(t *testing.T) {
	p := BuildFilter(UserContext{Role: RoleAdmin})
	assert.True(t, p.Unrestricted())
	assert.Empty(t, p.Params)
}

func TestBuildFilterScopedRoles(t *testing.T) {
	tests := []struct {
		name       string
		user       UserContext
		wantClause string
		wantParams []interface{}
	}{
		{
			name:       "union head with union id",
			user:       UserContext{Role: RoleUnionHead, UnionID: "U7"},
			wantClause: " AND Union_ID = ?",
			wantParams: []interface{}{"U7"},
		},
		{
			name:       "regional head with region id",
			user:       UserContext{Role: RoleRegionalHead, RegionID: "R3"},
			wantClause: " AND Region_ID = ?",
			wantParams: []interface{}{"R3"},
		},
		{
			name:       "club owner with club id",
			user:       UserContext{Role: RoleClubOwner, ClubID: "C42"},
			wantClause: " AND Club_ID = ?",
			wantParams: []interface{}{"C42"},
		},
		{
			name:       "sa manager with club id",
			user:       UserContext{Role: RoleSAManager, ClubID: "C42"},
			wantClause: " AND Club_ID = ?",
			wantParams: []interface{}{"C42"},
		},
		{
			name:       "super agent with club id",
			user:       UserContext{Role: RoleSuperAgent, ClubID: "C42"},
			wantClause: " AND Club_ID = ?",
			wantParams: []interface{}{"C42"},
		},
		{
			name:       "player with club id",
			user:       UserContext{Role: RolePlayer, ClubID: "C42"},
			wantClause: " AND Club_ID = ?",
			wantParams: []interface{}{"C42"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := BuildFilter(tc.user)
			assert.Equal(t, tc.wantClause, p.Clause)
			assert.Equal(t, tc.wantParams, p.Params)
		})
	}
}

func TestBuildFilterFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		user UserContext
	}{
		{name: "union head missing union id", user: UserContext{Role: RoleUnionHead}},
		{name: "regional head missing region id", user: UserContext{Role: RoleRegionalHead}},
		{name: "club owner missing club id", user: UserContext{Role: RoleClubOwner}},
		{name: "sa manager missing club id", user: UserContext{Role: RoleSAManager}},
		{name: "agent missing club id", user: UserContext{Role: RoleAgent}},
		{name: "player missing club id", user: UserContext{Role: RolePlayer}},
		{name: "unknown role", user: UserContext{Role: "superuser", ClubID: "C42"}},
		{name: "empty role", user: UserContext{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := BuildFilter(tc.user)
			assert.True(t, p.Unsatisfiable())
			assert.Empty(t, p.Params)
		})
	}
}

func TestBuildFilterIgnoresUnrelatedScopeIDs(t *testing.T) {
	// An agent with a region id but no club id still sees nothing:
	// only the role's own scope column is authoritative.
	p := BuildFilter(UserContext{Role: RoleAgent, RegionID: "R3", UnionID: "U7"})
	assert.True(t, p.Unsatisfiable())
}

func TestBuildRegionFilter(t *testing.T) {
	tests := []struct {
		name       string
		user       UserContext
		wantClause string
		wantParams []interface{}
	}{
		{
			name:       "admin unrestricted",
			user:       UserContext{Role: RoleAdmin},
			wantClause: "",
		},
		{
			name:       "union head keeps union scope",
			user:       UserContext{Role: RoleUnionHead, UnionID: "U7"},
			wantClause: " AND Union_ID = ?",
			wantParams: []interface{}{"U7"},
		},
		{
			name:       "club owner maps to region",
			user:       UserContext{Role: RoleClubOwner, ClubID: "C42", RegionID: "R3"},
			wantClause: " AND Region_ID = ?",
			wantParams: []interface{}{"R3"},
		},
		{
			name:       "agent maps to region",
			user:       UserContext{Role: RoleAgent, RegionID: "R3"},
			wantClause: " AND Region_ID = ?",
			wantParams: []interface{}{"R3"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := BuildRegionFilter(tc.user)
			assert.Equal(t, tc.wantClause, p.Clause)
			assert.Equal(t, tc.wantParams, p.Params)
		})
	}
}

func TestBuildRegionFilterFailsClosedWithoutRegion(t *testing.T) {
	// A club-scoped role with a club id but no region id sees no
	// region-grain rows.
	p := BuildRegionFilter(UserContext{Role: RoleSuperAgent, ClubID: "C42"})
	assert.True(t, p.Unsatisfiable())
}

func TestBuildFilterIdempotent(t *testing.T) {
	user := UserContext{Role: RoleClubOwner, ClubID: "C42"}
	first := BuildFilter(user)
	second := BuildFilter(user)
	assert.Equal(t, first, second)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Admin access - showing all data", Describe(UserContext{Role: RoleAdmin}))
	assert.Equal(t, "Filtered by Club ID: C42", Describe(UserContext{Role: RoleAgent, ClubID: "C42"}))
	assert.Equal(t, "No club access", Describe(UserContext{Role: RoleAgent}))
	assert.Equal(t, "No access", Describe(UserContext{Role: "superuser"}))
}
