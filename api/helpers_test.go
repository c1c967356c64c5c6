package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"expensetracker/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 2025-03-12 15:30，周三
var fixedNow = time.Date(2025, 3, 12, 15, 30, 0, 0, time.Local)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupMockDB 用 sqlmock 替换全局 DB，适合只验证 SQL 交互和错误映射的用例
func setupMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = gormDB
	return mock, func() {
		database.DB = oldDB
		sqlDB.Close()
	}
}

// setupTestDB 用内存 SQLite 替换全局 DB，并固定当前时间
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Setup(db))

	oldDB, oldNow := database.DB, nowFunc
	database.DB = db
	nowFunc = func() time.Time { return fixedNow }
	t.Cleanup(func() {
		database.DB = oldDB
		nowFunc = oldNow
		sqlDB.Close()
	})
	return db
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeResponse 解析通用响应，data 解到 out（可为 nil）
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, out interface{}) Response {
	t.Helper()
	var raw struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw), w.Body.String())
	if out != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, out), string(raw.Data))
	}
	return Response{Code: raw.Code, Message: raw.Message}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }
