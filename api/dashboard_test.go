package api

import (
	"net/http"
	"testing"

	"expensetracker/models"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dashboardRouter() *gin.Engine {
	h := NewDashboardHandler()
	r := gin.New()
	r.GET("/dashboard", h.Get)
	r.GET("/dashboard/category-breakdown", h.CategoryBreakdown)
	return r
}

func TestDashboardHandler_Get(t *testing.T) {
	db := setupTestDB(t)
	seedExpenses(t, db)
	require.NoError(t, db.Create(&models.Budget{CategoryID: 2, Month: 3, Year: 2025, Amount: dec("32"), AlertThreshold: 80}).Error)

	w := doJSON(dashboardRouter(), "GET", "/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var d service.Dashboard
	decodeResponse(t, w, &d)
	assert.True(t, dec("91.75").Equal(d.TotalExpenses))
	assert.True(t, dec("46.25").Equal(d.MonthExpenses))
	assert.True(t, dec("12").Equal(d.WeekExpenses))
	assert.True(t, dec("12").Equal(d.TodayExpenses))
	assert.True(t, dec("45.5").Equal(d.LastMonthExpenses))

	require.Len(t, d.TopCategories, 3)
	assert.Equal(t, "Transportation", d.TopCategories[0].CategoryName)
	assert.Equal(t, "Old Label", d.TopCategories[1].CategoryName)
	assert.Equal(t, models.DefaultCategoryIcon, d.TopCategories[1].CategoryIcon)

	require.Len(t, d.RecentExpenses, 4)
	assert.Equal(t, "COFFEE beans", d.RecentExpenses[0].Description)

	require.Len(t, d.BudgetStatuses, 1)
	assert.True(t, d.BudgetStatuses[0].IsNearLimit)

	require.Len(t, d.MonthlyTrends, 6)
	assert.Equal(t, "Oct 2024", d.MonthlyTrends[0].MonthName)
	assert.Equal(t, "Mar 2025", d.MonthlyTrends[5].MonthName)
	assert.True(t, dec("45.5").Equal(d.MonthlyTrends[4].Amount))
}

func TestDashboardHandler_CategoryBreakdown(t *testing.T) {
	db := setupTestDB(t)
	router := dashboardRouter()

	w := doJSON(router, "GET", "/dashboard/category-breakdown", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)

	seedExpenses(t, db)
	w = doJSON(router, "GET", "/dashboard/category-breakdown", nil)
	var groups []service.CategorySummary
	decodeResponse(t, w, &groups)
	require.Len(t, groups, 3)
	assert.Equal(t, 1, groups[2].ExpenseCount)
	assert.Equal(t, "Food & Dining", groups[2].CategoryName)
}
