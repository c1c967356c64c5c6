package api

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strings"
	"testing"

	"expensetracker/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportRouter() *gin.Engine {
	h := NewReportHandler(&config.Config{Report: config.ReportConfig{CurrencySymbol: "$"}})
	r := gin.New()
	r.GET("/reports/monthly", h.MonthlyPDF)
	r.GET("/reports/monthly/excel", h.MonthlyExcel)
	r.GET("/export/csv", NewExportHandler().ExportCSV)
	return r
}

func TestReportHandler_MonthlyPDF(t *testing.T) {
	db := setupTestDB(t)
	seedExpenses(t, db)

	w := doJSON(reportRouter(), "GET", "/reports/monthly?month=3&year=2025", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "MonthlyReport_3_2025.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	// 缺省为当前月份
	w = doJSON(reportRouter(), "GET", "/reports/monthly", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "MonthlyReport_3_2025.pdf")

	w = doJSON(reportRouter(), "GET", "/reports/monthly?month=0&year=2025", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandler_MonthlyExcel(t *testing.T) {
	db := setupTestDB(t)
	seedExpenses(t, db)

	w := doJSON(reportRouter(), "GET", "/reports/monthly/excel?month=2&year=2025", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "MonthlyReport_2_2025.xlsx")
	// xlsx 为 zip 格式
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestExportHandler_ExportCSV(t *testing.T) {
	db := setupTestDB(t)
	seedExpenses(t, db)

	w := doJSON(reportRouter(), "GET", "/export/csv?q=coffee", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	body := strings.TrimPrefix(w.Body.String(), "\xEF\xBB\xBF")
	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Date", records[0][1])
	assert.Equal(t, []string{"2025-03-12", "Old Label", "COFFEE beans", "12.00"}, records[1][1:5])
	assert.Equal(t, "Food & Dining", records[2][2])

	w = doJSON(reportRouter(), "GET", "/export/csv?category_id=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
