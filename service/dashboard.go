package service

import (
	"sort"
	"time"

	"expensetracker/models"

	"github.com/shopspring/decimal"
)

const (
	topCategoryLimit   = 5
	recentExpenseLimit = 10
	trendMonths        = 6
)

// CategorySummary 按展示类别汇总的当月消费
type CategorySummary struct {
	CategoryName  string          `json:"category_name"`
	CategoryIcon  string          `json:"category_icon"`
	CategoryColor string          `json:"category_color"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ExpenseCount  int             `json:"expense_count"`
	Percentage    decimal.Decimal `json:"percentage"`
}

// MonthlyTrend 单月消费合计
type MonthlyTrend struct {
	MonthName string          `json:"month_name"`
	Month     int             `json:"month"`
	Year      int             `json:"year"`
	Amount    decimal.Decimal `json:"amount"`
}

// Dashboard 首页统计
type Dashboard struct {
	TotalExpenses         decimal.Decimal   `json:"total_expenses"`
	MonthExpenses         decimal.Decimal   `json:"month_expenses"`
	WeekExpenses          decimal.Decimal   `json:"week_expenses"`
	TodayExpenses         decimal.Decimal   `json:"today_expenses"`
	LastMonthExpenses     decimal.Decimal   `json:"last_month_expenses"`
	MonthChangePercentage decimal.Decimal   `json:"month_change_percentage"`
	TopCategories         []CategorySummary `json:"top_categories"`
	RecentExpenses        []models.Expense  `json:"recent_expenses"`
	BudgetStatuses        []BudgetStatus    `json:"budget_statuses"`
	MonthlyTrends         []MonthlyTrend    `json:"monthly_trends"`
}

// StartOfMonth 当月第一天零点
func StartOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// StartOfWeek 最近一个周日零点
func StartOfWeek(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, now.Location())
}

// StartOfDay 当天零点
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// Sum 消费合计
func Sum(expenses []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// SumSince 日期不早于 from 的消费合计
func SumSince(expenses []models.Expense, from time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if !e.Date.Before(from) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// SumBetween [from, to) 区间内的消费合计
func SumBetween(expenses []models.Expense, from, to time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if !e.Date.Before(from) && e.Date.Before(to) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// ChangePercentage 环比变化，上期为 0 时返回 0
func ChangePercentage(current, previous decimal.Decimal) decimal.Decimal {
	if !previous.IsPositive() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(hundred)
}

// SummarizeCategories 按展示类别分组，金额降序；金额相同时保持首次出现的顺序
func SummarizeCategories(expenses []models.Expense, total decimal.Decimal) []CategorySummary {
	index := make(map[models.CategoryDisplay]int)
	var groups []CategorySummary
	for _, e := range expenses {
		key := e.ResolveCategory()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, CategorySummary{
				CategoryName:  key.Name,
				CategoryIcon:  key.Icon,
				CategoryColor: key.Color,
				TotalAmount:   decimal.Zero,
			})
		}
		groups[i].TotalAmount = groups[i].TotalAmount.Add(e.Amount)
		groups[i].ExpenseCount++
	}

	for i := range groups {
		groups[i].Percentage = decimal.Zero
		if total.IsPositive() {
			groups[i].Percentage = groups[i].TotalAmount.Div(total).Mul(hundred)
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].TotalAmount.GreaterThan(groups[b].TotalAmount)
	})
	return groups
}

// RecentExpenses 按日期倒序取前 limit 条，同一日期保持原有顺序
func RecentExpenses(expenses []models.Expense, limit int) []models.Expense {
	sorted := make([]models.Expense, len(expenses))
	copy(sorted, expenses)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Date.After(sorted[b].Date)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// MonthlyTrends 当月及之前 months-1 个月的逐月合计，由远及近
func MonthlyTrends(expenses []models.Expense, now time.Time, months int) []MonthlyTrend {
	current := StartOfMonth(now)
	trends := make([]MonthlyTrend, 0, months)
	for i := months - 1; i >= 0; i-- {
		monthStart := current.AddDate(0, -i, 0)
		monthEnd := monthStart.AddDate(0, 1, 0)
		trends = append(trends, MonthlyTrend{
			MonthName: monthStart.Format("Jan 2006"),
			Month:     int(monthStart.Month()),
			Year:      monthStart.Year(),
			Amount:    SumBetween(expenses, monthStart, monthEnd),
		})
	}
	return trends
}

func since(expenses []models.Expense, from time.Time) []models.Expense {
	var out []models.Expense
	for _, e := range expenses {
		if !e.Date.Before(from) {
			out = append(out, e)
		}
	}
	return out
}

// CategoryBreakdown 当月全部类别分布
func CategoryBreakdown(expenses []models.Expense, now time.Time) []CategorySummary {
	monthExpenses := since(expenses, StartOfMonth(now))
	return SummarizeCategories(monthExpenses, Sum(monthExpenses))
}

// BuildDashboard 根据全部消费记录和当月预算计算首页统计
// budgets 应为 now 所在月份的预算；函数不读取系统时间
func BuildDashboard(expenses []models.Expense, budgets []models.Budget, now time.Time) Dashboard {
	startOfMonth := StartOfMonth(now)
	lastMonthStart := startOfMonth.AddDate(0, -1, 0)

	monthExpenses := since(expenses, startOfMonth)
	monthTotal := Sum(monthExpenses)
	lastMonthTotal := SumBetween(expenses, lastMonthStart, startOfMonth)

	top := SummarizeCategories(monthExpenses, monthTotal)
	if len(top) > topCategoryLimit {
		top = top[:topCategoryLimit]
	}

	return Dashboard{
		TotalExpenses:         Sum(expenses),
		MonthExpenses:         monthTotal,
		WeekExpenses:          SumSince(expenses, StartOfWeek(now)),
		TodayExpenses:         SumSince(expenses, StartOfDay(now)),
		LastMonthExpenses:     lastMonthTotal,
		MonthChangePercentage: ChangePercentage(monthTotal, lastMonthTotal),
		TopCategories:         top,
		RecentExpenses:        RecentExpenses(expenses, recentExpenseLimit),
		BudgetStatuses:        CalculateBudgetStatuses(budgets, monthExpenses),
		MonthlyTrends:         MonthlyTrends(expenses, now, trendMonths),
	}
}
