package endpoint

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/clubverify/kyc-backend/access"
	"github.com/clubverify/kyc-backend/middleware"
	"github.com/clubverify/kyc-backend/util"
)

// The warehouse tables are created directly with SQL because they are loaded
// by an external feed in production and have no gorm models. sqlite accepts
// the same backtick-quoted identifiers as MySQL.
const (
	createSettleRegionTable = "CREATE TABLE `GG Settle Region` (" +
		"Region_ID TEXT, Region_Name TEXT, Union_ID TEXT, Union_Name TEXT, " +
		"`Start Date` TEXT, `End Date` TEXT, " +
		"bbjp_fee REAL, bbjp_payouts REAL, eco_earnings REAL, eco_percentage REAL, " +
		"eco_tax_rebate REAL, leaderboard_reward REAL, net_settlement REAL, other_adj REAL, " +
		"total_ev_cashout REAL, total_hands INTEGER, total_players INTEGER, " +
		"tournament_eco_earnings REAL, tournament_eco_percentage REAL, tournament_eco_tax_rebate REAL, " +
		"tournament_fee REAL, tournament_winnings REAL, union_fee REAL, union_fee_percentage REAL, " +
		"union_tournament_fee REAL, win_ratio REAL, total_winnings REAL, total_fee REAL)"

	createSettleClubTable = "CREATE TABLE `GG Settle Club` (" +
		"Region_ID TEXT, Region_Name TEXT, Union_ID TEXT, Union_Name TEXT, " +
		"Club_ID TEXT, Club_Name TEXT, `Start Date` TEXT, `End Date` TEXT, " +
		"bbjp_fee REAL, bbjp_payouts REAL, eco_earnings REAL, eco_percentage REAL, " +
		"eco_tax_rebate REAL, leaderboard_reward REAL, net_settlement REAL, other_adj REAL, " +
		"total_ev_cashout REAL, total_hands INTEGER, total_players INTEGER, " +
		"tournament_eco_earnings REAL, tournament_eco_percentage REAL, tournament_eco_tax_rebate REAL, " +
		"tournament_fee REAL, tournament_winnings REAL, union_fee REAL, union_fee_percentage REAL, " +
		"union_tournament_fee REAL, win_ratio REAL, total_winnings REAL, total_fee REAL)"

	createClubTable = "CREATE TABLE `GG Club` (" +
		"ID TEXT, Name TEXT, Region_ID TEXT, Region_Name TEXT, Union_ID TEXT, Union_Name TEXT, " +
		"Club_ID TEXT, Fee REAL, fee_type TEXT, Eco REAL, eco_type TEXT, eco_earnings_type TEXT, " +
		"BBJ REAL, ECode_flag TEXT, MTT_Fee REAL, MTT_Eco REAL, net_settlement_type TEXT)"

	createMemberTable = "CREATE TABLE `GG Member` (" +
		"ID TEXT, Nickname TEXT, Club_ID TEXT, Club_Name TEXT, Region_ID TEXT, Region_Name TEXT, " +
		"Union_ID TEXT, Union_Name TEXT, Role TEXT, Agent_ID TEXT, Agent_Nickname TEXT, " +
		"Manager_ID TEXT, Manager_Nickname TEXT, `Super Agent_ID` TEXT, `Super Agent_Nickname` TEXT, " +
		"`Last Active` TEXT, Country TEXT)"
)

func setupReportTest(t *testing.T) (*gin.Engine, *gorm.DB, *util.MemorySessionStore) {
	t.Helper()
	r, db := setupEndpointTest(t)

	for _, ddl := range []string{createSettleRegionTable, createSettleClubTable, createClubTable, createMemberTable} {
		require.NoError(t, db.Exec(ddl).Error)
	}

	store := util.NewMemorySessionStore()
	report := r.Group("/report", middleware.SessionAuth(store))
	report.GET("/settlements", ListSettlements)
	report.GET("/club-settlements", ListClubSettlements)
	report.GET("/clubs", ListClubs)
	report.GET("/members", ListMembers)

	seedReportData(t, db)
	return r, db, store
}

func seedReportData(t *testing.T, db *gorm.DB) {
	t.Helper()

	settleRegions := []struct {
		regionID, regionName, unionID string
		netSettlement                 float64
	}{
		{"R1", "North", "U1", 1000},
		{"R2", "South", "U1", 2000},
		{"R3", "East", "U2", 3000},
	}
	for _, row := range settleRegions {
		require.NoError(t, db.Exec(
			"INSERT INTO `GG Settle Region` (Region_ID, Region_Name, Union_ID, Union_Name, `Start Date`, `End Date`, net_settlement, total_hands) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			row.regionID, row.regionName, row.unionID, "Union "+row.unionID, "2026-08-01", "2026-08-07", row.netSettlement, 100,
		).Error)
	}

	settleClubs := []struct{ regionID, unionID, clubID, clubName string }{
		{"R1", "U1", "C1", "Aces"},
		{"R1", "U1", "C2", "Kings"},
		{"R3", "U2", "C3", "Queens"},
	}
	for _, row := range settleClubs {
		require.NoError(t, db.Exec(
			"INSERT INTO `GG Settle Club` (Region_ID, Region_Name, Union_ID, Union_Name, Club_ID, Club_Name, `Start Date`, `End Date`, net_settlement, total_hands) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			row.regionID, "Region "+row.regionID, row.unionID, "Union "+row.unionID, row.clubID, row.clubName, "2026-08-01", "2026-08-07", 500.0, 50,
		).Error)
	}

	clubs := []struct{ id, name, regionID, regionName, unionID string }{
		{"C1", "Aces", "R1", "North", "U1"},
		{"C2", "Kings", "R1", "North", "U1"},
		{"C3", "Queens", "R3", "East", "U2"},
	}
	for _, row := range clubs {
		require.NoError(t, db.Exec(
			"INSERT INTO `GG Club` (ID, Name, Region_ID, Region_Name, Union_ID, Union_Name, Club_ID, Fee) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			row.id, row.name, row.regionID, row.regionName, row.unionID, "Union "+row.unionID, row.id, 0.05,
		).Error)
	}

	members := []struct{ id, nickname, clubID, regionID, unionID, country string }{
		{"M1", "shark", "C1", "R1", "U1", "USA"},
		{"M2", "whale", "C1", "R1", "U1", "Canada"},
		{"M3", "fish", "C2", "R1", "U1", "USA"},
		{"M4", "rock", "C3", "R3", "U2", "Brazil"},
	}
	for _, row := range members {
		require.NoError(t, db.Exec(
			"INSERT INTO `GG Member` (ID, Nickname, Club_ID, Club_Name, Region_ID, Region_Name, Union_ID, Union_Name, Role, `Last Active`, Country) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			row.id, row.nickname, row.clubID, "Club "+row.clubID, row.regionID, "Region "+row.regionID, row.unionID, "Union "+row.unionID, "player", "2026-08-30", row.country,
		).Error)
	}
}

func reportRows(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	rows, _ := data["rows"].([]interface{})
	return rows
}

func TestListSettlementsScoping(t *testing.T) {
	r, _, store := setupReportTest(t)

	adminToken := seedSession(t, store, access.UserContext{Role: access.RoleAdmin})
	w := doJSONRequest(r, http.MethodGet, "/report/settlements", nil, map[string]string{middleware.SessionTokenHeader: adminToken})
	assertStatus(t, w, http.StatusOK)
	assert.Len(t, reportRows(t, w), 3)

	regionToken := seedSession(t, store, access.UserContext{Role: access.RoleRegionalHead, RegionID: "R1"})
	w = doJSONRequest(r, http.MethodGet, "/report/settlements", nil, map[string]string{middleware.SessionTokenHeader: regionToken})
	assertStatus(t, w, http.StatusOK)
	assert.Len(t, reportRows(t, w), 1)

	unionToken := seedSession(t, store, access.UserContext{Role: access.RoleUnionHead, UnionID: "U1"})
	w = doJSONRequest(r, http.MethodGet, "/report/settlements", nil, map[string]string{middleware.SessionTokenHeader: unionToken})
	assertStatus(t, w, http.StatusOK)
	assert.Len(t, reportRows(t, w), 2)

	// Club roles are mapped onto their region for region-grain tables.
	agentToken := seedSession(t, store, access.UserContext{Role: access.RoleAgent, ClubID: "C3", RegionID: "R3"})
	w = doJSONRequest(r, http.MethodGet, "/report/settlements", nil, map[string]string{middleware.SessionTokenHeader: agentToken})
	assertStatus(t, w, http.StatusOK)
	assert.Len(t, reportRows(t, w), 1)

	// Missing scope id fails closed.
	lostToken := seedSession(t, store, access.UserContext{Role: access.RoleAgent, ClubID: "C3"})
	w = doJSONRequest(r, http.MethodGet, "/report/settlements", nil, map[string]string{middleware.SessionTokenHeader: lostToken})
	assertStatus(t, w, http.StatusOK)
	assert.Len(t, reportRows(t, w), 0)
}

func TestListClubSettlementsScoping(t *testing.T) {
	r, _, store := setupReportTest(t)

	ownerToken := seedSession(t, store, access.UserContext{Role: access.RoleClubOwner, ClubID: "C1"})
	w := doJSONRequest(r, http.MethodGet, "/report/club-settlements", nil, map[string]string{middleware.SessionTokenHeader: ownerToken})
	assertStatus(t, w, http.StatusOK)
	rows := reportRows(t, w)
	require.Len(t, rows, 1)
	assert.Equal(t, "Aces", rows[0].(map[string]interface{})["Club_Name"])

	// Club owner without a club id sees nothing, not everything.
	bareToken := seedSession(t, store, access.UserContext{Role: access.RoleClubOwner})
	w = doJSONRequest(r, http.MethodGet, "/report/club-settlements", nil, map[string]string{middleware.SessionTokenHeader: bareToken})
	assertStatus(t, w, http.StatusOK)
	assert.Len(t, reportRows(t, w), 0)
}

func TestListClubs(t *testing.T) {
	r, _, store := setupReportTest(t)

	unionToken := seedSession(t, store, access.UserContext{Role: access.RoleUnionHead, UnionID: "U1"})
	headers := map[string]string{middleware.SessionTokenHeader: unionToken}

	w := doJSONRequest(r, http.MethodGet, "/report/clubs", nil, headers)
	assertStatus(t, w, http.StatusOK)
	assert.Len(t, reportRows(t, w), 2)

	w = doJSONRequest(r, http.MethodGet, "/report/clubs?search=Ace", nil, headers)
	assertStatus(t, w, http.StatusOK)
	rows := reportRows(t, w)
	require.Len(t, rows, 1)
	assert.Equal(t, "Aces", rows[0].(map[string]interface{})["Name"])

	w = doJSONRequest(r, http.MethodGet, "/report/clubs?region_id=R3", nil, headers)
	assertStatus(t, w, http.StatusOK)
	// R3 is outside the union scope; the predicates conjoin.
	assert.Len(t, reportRows(t, w), 0)

	w = doJSONRequest(r, http.MethodGet, "/report/clubs?sort=name&sort_dir=desc", nil, headers)
	assertStatus(t, w, http.StatusOK)
	rows = reportRows(t, w)
	require.Len(t, rows, 2)
	assert.Equal(t, "Kings", rows[0].(map[string]interface{})["Name"])
}

func TestListClubsRejectsUnknownSort(t *testing.T) {
	r, _, store := setupReportTest(t)
	token := seedSession(t, store, access.UserContext{Role: access.RoleAdmin})
	headers := map[string]string{middleware.SessionTokenHeader: token}

	w := doJSONRequest(r, http.MethodGet, "/report/clubs?sort=Name;DROP+TABLE+users", nil, headers)
	assertStatus(t, w, http.StatusBadRequest)

	w = doJSONRequest(r, http.MethodGet, "/report/clubs?sort=name&sort_dir=sideways", nil, headers)
	assertStatus(t, w, http.StatusBadRequest)
}

func TestReportRejectsNonNumericPagination(t *testing.T) {
	r, _, store := setupReportTest(t)
	token := seedSession(t, store, access.UserContext{Role: access.RoleAdmin})
	headers := map[string]string{middleware.SessionTokenHeader: token}

	w := doJSONRequest(r, http.MethodGet, "/report/settlements?page=abc", nil, headers)
	assertStatus(t, w, http.StatusBadRequest)

	w = doJSONRequest(r, http.MethodGet, "/report/members?limit=ten", nil, headers)
	assertStatus(t, w, http.StatusBadRequest)

	// Absent parameters still fall back to the defaults.
	w = doJSONRequest(r, http.MethodGet, "/report/settlements", nil, headers)
	assertStatus(t, w, http.StatusOK)
}

func TestListMembers(t *testing.T) {
	r, _, store := setupReportTest(t)

	ownerToken := seedSession(t, store, access.UserContext{Role: access.RoleClubOwner, ClubID: "C1"})
	headers := map[string]string{middleware.SessionTokenHeader: ownerToken}

	w := doJSONRequest(r, http.MethodGet, "/report/members", nil, headers)
	assertStatus(t, w, http.StatusOK)
	assert.Len(t, reportRows(t, w), 2)

	w = doJSONRequest(r, http.MethodGet, "/report/members?search=shark", nil, headers)
	assertStatus(t, w, http.StatusOK)
	rows := reportRows(t, w)
	require.Len(t, rows, 1)
	assert.Equal(t, "shark", rows[0].(map[string]interface{})["Nickname"])

	w = doJSONRequest(r, http.MethodGet, "/report/members?limit=1", nil, headers)
	assertStatus(t, w, http.StatusOK)
	assert.Len(t, reportRows(t, w), 1)

	// Agent with no club sees zero rows even with explicit filters.
	agentToken := seedSession(t, store, access.UserContext{Role: access.RoleAgent})
	w = doJSONRequest(r, http.MethodGet, "/report/members?club_id=C1", nil, map[string]string{middleware.SessionTokenHeader: agentToken})
	assertStatus(t, w, http.StatusOK)
	assert.Len(t, reportRows(t, w), 0)
}
