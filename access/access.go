package access

// Role is the closed set of scope levels recognized by the reporting layer.
// Adding a role means extending the switches in BuildFilter and
// BuildRegionFilter; unknown values always fail closed.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleUnionHead    Role = "union_head"
	RoleRegionalHead Role = "regional_head"
	RoleClubOwner    Role = "club_owner"
	RoleSAManager    Role = "sa_manager"
	RoleSuperAgent   Role = "super_agent"
	RoleAgent        Role = "agent"
	RolePlayer       Role = "player"
)

// ParseRole maps a raw role string onto the closed Role set.
// Unrecognized values are returned as-is with ok=false; filters built from
// them are unsatisfiable.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleUnionHead, RoleRegionalHead, RoleClubOwner,
		RoleSAManager, RoleSuperAgent, RoleAgent, RolePlayer:
		return Role(s), true
	}
	return Role(s), false
}

// UserContext carries the authenticated user's role and scope identifiers.
// It is immutable per request and supplied by the auth middleware.
type UserContext struct {
	Role      Role   `json:"role"`
	UnionID   string `json:"union_id,omitempty"`
	RegionID  string `json:"region_id,omitempty"`
	ClubID    string `json:"club_id,omitempty"`
	ManagerID string `json:"manager_id,omitempty"`
}

// Predicate is an SQL fragment plus its bound parameters, to be conjoined
// onto a base query that already contains "WHERE 1=1". It is built fresh per
// request and never persisted.
type Predicate struct {
	Clause string
	Params []interface{}
}

// Unrestricted reports whether the predicate imposes no constraint.
func (p Predicate) Unrestricted() bool {
	return p.Clause == ""
}

// Unsatisfiable reports whether the predicate can never match a row.
// Callers must treat this as "zero results", not as an error.
func (p Predicate) Unsatisfiable() bool {
	return p.Clause == denyClause
}

const denyClause = " AND 1=0"

func deny() Predicate {
	return Predicate{Clause: denyClause}
}

func scopeEquals(column, id string) Predicate {
	if id == "" {
		// Fail closed: a scoped role without its scope id sees nothing.
		return deny()
	}
	return Predicate{Clause: " AND " + column + " = ?", Params: []interface{}{id}}
}

// BuildFilter returns the row-visibility predicate for tables carrying a
// Club_ID column (members, club-grain settlements). Admins see everything;
// every scoped role is restricted to its declared scope and fails closed
// when the scope id is missing.
func BuildFilter(user UserContext) Predicate {
	switch user.Role {
	case RoleAdmin:
		return Predicate{}
	case RoleUnionHead:
		return scopeEquals("Union_ID", user.UnionID)
	case RoleRegionalHead:
		return scopeEquals("Region_ID", user.RegionID)
	case RoleClubOwner, RoleSAManager, RoleSuperAgent, RoleAgent, RolePlayer:
		return scopeEquals("Club_ID", user.ClubID)
	default:
		return deny()
	}
}

// BuildRegionFilter is the variant for tables without a Club_ID column
// (region-grain aggregates). Club-scoped roles are mapped onto their
// region instead, with the same fail-closed rule.
func BuildRegionFilter(user UserContext) Predicate {
	switch user.Role {
	case RoleAdmin:
		return Predicate{}
	case RoleUnionHead:
		return scopeEquals("Union_ID", user.UnionID)
	case RoleRegionalHead:
		return scopeEquals("Region_ID", user.RegionID)
	case RoleClubOwner, RoleSAManager, RoleSuperAgent, RoleAgent, RolePlayer:
		return scopeEquals("Region_ID", user.RegionID)
	default:
		return deny()
	}
}

// Describe returns a human-readable summary of the filter applied for a
// user, used in reporting responses and operator logs.
func Describe(user UserContext) string {
	switch user.Role {
	case RoleAdmin:
		return "Admin access - showing all data"
	case RoleUnionHead:
		if user.UnionID != "" {
			return "Filtered by Union ID: " + user.UnionID
		}
		return "No union access"
	case RoleRegionalHead:
		if user.RegionID != "" {
			return "Filtered by Region ID: " + user.RegionID
		}
		return "No region access"
	case RoleClubOwner, RoleSAManager, RoleSuperAgent, RoleAgent, RolePlayer:
		if user.ClubID != "" {
			return "Filtered by Club ID: " + user.ClubID
		}
		return "No club access"
	default:
		return "No access"
	}
}
