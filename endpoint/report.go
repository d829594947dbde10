package endpoint

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clubverify/kyc-backend/access"
	"github.com/clubverify/kyc-backend/util"
)

// Reporting queries run against warehouse tables loaded by an external
// pipeline; the table and column names follow that feed and are not gorm
// models. Every template ends in "WHERE 1=1" so the access predicate and
// caller filters conjoin with a plain AND.
const (
	settlementBaseQuery = "SELECT Region_ID, Region_Name, Union_ID, Union_Name, " +
		"`Start Date` AS Start_Date, `End Date` AS End_Date, " +
		"bbjp_fee, bbjp_payouts, eco_earnings, eco_percentage, eco_tax_rebate, " +
		"leaderboard_reward, net_settlement, other_adj, total_ev_cashout, " +
		"total_hands, total_players, tournament_eco_earnings, tournament_eco_percentage, " +
		"tournament_eco_tax_rebate, tournament_fee, tournament_winnings, union_fee, " +
		"union_fee_percentage, union_tournament_fee, win_ratio, total_winnings, total_fee " +
		"FROM `GG Settle Region` WHERE 1=1"

	clubSettlementBaseQuery = "SELECT Region_ID, Region_Name, Union_ID, Union_Name, " +
		"Club_ID, Club_Name, `Start Date` AS Start_Date, `End Date` AS End_Date, " +
		"bbjp_fee, bbjp_payouts, eco_earnings, eco_percentage, eco_tax_rebate, " +
		"leaderboard_reward, net_settlement, other_adj, total_ev_cashout, " +
		"total_hands, total_players, tournament_eco_earnings, tournament_eco_percentage, " +
		"tournament_eco_tax_rebate, tournament_fee, tournament_winnings, union_fee, " +
		"union_fee_percentage, union_tournament_fee, win_ratio, total_winnings, total_fee " +
		"FROM `GG Settle Club` WHERE 1=1"

	clubBaseQuery = "SELECT ID, Name, Region_ID, Region_Name, Union_ID, Union_Name, " +
		"Fee, fee_type, Eco, eco_type, eco_earnings_type, BBJ, ECode_flag, " +
		"MTT_Fee, MTT_Eco, net_settlement_type " +
		"FROM `GG Club` WHERE 1=1"

	memberBaseQuery = "SELECT ID AS Member_ID, Nickname, Club_ID, Club_Name, " +
		"Region_ID, Region_Name, Union_ID, Union_Name, Role, " +
		"Agent_ID, Agent_Nickname, Manager_ID, Manager_Nickname, " +
		"`Super Agent_ID` AS Super_Agent_ID, `Super Agent_Nickname` AS Super_Agent_Nickname, " +
		"`Last Active` AS Last_Active, Country " +
		"FROM `GG Member` WHERE 1=1"
)

// Allow-listed sort keys per report; values are interpolated into ORDER BY
// and must never come from the caller verbatim.
var (
	settlementSortColumns = map[string]string{
		"start_date":     "`Start Date`",
		"net_settlement": "net_settlement",
		"total_hands":    "total_hands",
		"region_name":    "Region_Name",
	}
	clubSettlementSortColumns = map[string]string{
		"start_date":     "`Start Date`",
		"net_settlement": "net_settlement",
		"total_hands":    "total_hands",
		"club_name":      "Club_Name",
	}
	clubSortColumns = map[string]string{
		"name":        "Name",
		"region_name": "Region_Name",
		"fee":         "Fee",
	}
	memberSortColumns = map[string]string{
		"nickname":    "Nickname",
		"last_active": "`Last Active`",
		"country":     "Country",
	}
)

// runReport assembles the final SQL from the base template, the combined
// predicate and the validated suffixes, executes it and responds. The filter
// description travels with the rows so operators can see which scope applied.
func runReport(c *gin.Context, db *gorm.DB, baseQuery string, user access.UserContext, pred access.Predicate, opts access.QueryOptions, sortColumns map[string]string) {
	sql := baseQuery + pred.Clause

	if opts.SortBy != "" {
		orderBy, err := access.OrderBy(opts.SortBy, opts.SortOrder, sortColumns)
		if err != nil {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Invalid sort parameter",
				Err: err,
			})
			return
		}
		sql += orderBy
	}
	sql += access.Pagination(opts.Page, opts.Limit)

	var rows []map[string]interface{}
	if err := db.Raw(sql, pred.Params...).Scan(&rows).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to run report query",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Report retrieved",
		Data: map[string]interface{}{
			"rows":   rows,
			"total":  len(rows),
			"filter": access.Describe(user),
		},
	})
}

// ListSettlements godoc
// @Summary      Region-grain settlement report
// @Description  Settlement rows aggregated per region, scoped to the caller's role
// @Tags         Report
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        page query int false "1-based page number"
// @Param        limit query int false "Page size"
// @Param        sort query string false "Sort key: start_date|net_settlement|total_hands|region_name"
// @Param        sort_dir query string false "Sort direction: asc|desc"
// @Success      200 {object} util.APIResponse{data=object} "Report retrieved"
// @Failure      400 {object} util.APIResponse "Invalid sort parameter"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /report/settlements [get]
func ListSettlements(c *gin.Context) {
	user, ok := getUserContextOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	opts, ok := parseQueryOptionsOrRespond(c)
	if !ok {
		return
	}

	// Region-grain table has no Club_ID column; club roles map onto their region.
	pred := access.BuildRegionFilter(user)
	runReport(c, db, settlementBaseQuery, user, pred, opts, settlementSortColumns)
}

// ListClubSettlements godoc
// @Summary      Club-grain settlement report
// @Description  Settlement rows per club, scoped to the caller's role
// @Tags         Report
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        page query int false "1-based page number"
// @Param        limit query int false "Page size"
// @Param        sort query string false "Sort key: start_date|net_settlement|total_hands|club_name"
// @Param        sort_dir query string false "Sort direction: asc|desc"
// @Success      200 {object} util.APIResponse{data=object} "Report retrieved"
// @Failure      400 {object} util.APIResponse "Invalid sort parameter"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /report/club-settlements [get]
func ListClubSettlements(c *gin.Context) {
	user, ok := getUserContextOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	opts, ok := parseQueryOptionsOrRespond(c)
	if !ok {
		return
	}

	pred := access.BuildFilter(user)
	runReport(c, db, clubSettlementBaseQuery, user, pred, opts, clubSettlementSortColumns)
}

// ListClubs godoc
// @Summary      Club report
// @Description  Club registry rows scoped to the caller's role, with optional search and id filters
// @Tags         Report
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        search query string false "Free-text search on club and region names"
// @Param        club_id query string false "Filter by club id"
// @Param        region_id query string false "Filter by region id"
// @Param        page query int false "1-based page number"
// @Param        limit query int false "Page size"
// @Param        sort query string false "Sort key: name|region_name|fee"
// @Param        sort_dir query string false "Sort direction: asc|desc"
// @Success      200 {object} util.APIResponse{data=object} "Report retrieved"
// @Failure      400 {object} util.APIResponse "Invalid sort parameter"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /report/clubs [get]
func ListClubs(c *gin.Context) {
	user, ok := getUserContextOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	opts, ok := parseQueryOptionsOrRespond(c)
	if !ok {
		return
	}
	pred := access.Combine(
		access.EqualsClause("ID", c.Query("club_id")),
		access.EqualsClause("Region_ID", c.Query("region_id")),
		access.SearchClause(opts.Search, "Name", "Region_Name"),
		access.BuildFilter(user),
	)
	runReport(c, db, clubBaseQuery, user, pred, opts, clubSortColumns)
}

// ListMembers godoc
// @Summary      Member report
// @Description  Member registry rows scoped to the caller's role, with optional search and club filter
// @Tags         Report
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        search query string false "Free-text search on member, agent and manager nicknames"
// @Param        club_id query string false "Filter by club id"
// @Param        page query int false "1-based page number"
// @Param        limit query int false "Page size"
// @Param        sort query string false "Sort key: nickname|last_active|country"
// @Param        sort_dir query string false "Sort direction: asc|desc"
// @Success      200 {object} util.APIResponse{data=object} "Report retrieved"
// @Failure      400 {object} util.APIResponse "Invalid sort parameter"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /report/members [get]
func ListMembers(c *gin.Context) {
	user, ok := getUserContextOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	opts, ok := parseQueryOptionsOrRespond(c)
	if !ok {
		return
	}
	pred := access.Combine(
		access.EqualsClause("Club_ID", c.Query("club_id")),
		access.SearchClause(opts.Search, "Nickname", "Agent_Nickname", "Manager_Nickname"),
		access.BuildFilter(user),
	)
	runReport(c, db, memberBaseQuery, user, pred, opts, memberSortColumns)
}
