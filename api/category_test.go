package api

import (
	"net/http"
	"testing"

	"expensetracker/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func categoryRouter() *gin.Engine {
	h := NewCategoryHandler()
	r := gin.New()
	r.GET("/categories", h.List)
	r.GET("/categories/:id", h.Get)
	r.POST("/categories", h.Create)
	r.PUT("/categories/:id", h.Update)
	r.DELETE("/categories/:id", h.Delete)
	return r
}

func TestCategoryHandler_Get_NotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := doJSON(categoryRouter(), "GET", "/categories/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryHandler_Get_InvalidID(t *testing.T) {
	w := doJSON(categoryRouter(), "GET", "/categories/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategoryHandler_CreateAndList(t *testing.T) {
	db := setupTestDB(t)
	router := categoryRouter()

	w := doJSON(router, "POST", "/categories", map[string]string{"name": "  Pets ", "icon": "fa-paw", "color": "#10b981"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Category
	decodeResponse(t, w, &created)
	assert.Equal(t, "Pets", created.Name)
	assert.False(t, created.IsDefault)
	assert.Equal(t, models.StatusActive, created.Status)

	// 给新类别加一笔消费
	require.NoError(t, db.Create(&models.Expense{Date: fixedNow, CategoryID: &created.ID, Amount: dec("9.99")}).Error)

	w = doJSON(router, "GET", "/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []CategoryWithCount
	decodeResponse(t, w, &list)
	assert.Len(t, list, 13)
	for _, c := range list {
		if c.Name == "Pets" {
			assert.Equal(t, int64(1), c.ExpenseCount)
		} else {
			assert.Zero(t, c.ExpenseCount)
		}
	}
}

func TestCategoryHandler_Create_Validation(t *testing.T) {
	setupTestDB(t)
	router := categoryRouter()

	// 名称重复（与内置类别相同）
	w := doJSON(router, "POST", "/categories", map[string]string{"name": "Shopping", "color": "#000000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var data ValidationErrorData
	decodeResponse(t, w, &data)
	assert.Contains(t, data.Errors, "name")
	assert.Equal(t, "Shopping", data.Input.(map[string]interface{})["name"])

	// 颜色格式错误
	w = doJSON(router, "POST", "/categories", map[string]string{"name": "Pets", "color": "red"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	data = ValidationErrorData{}
	decodeResponse(t, w, &data)
	assert.Contains(t, data.Errors, "color")

	// 缺少名称
	w = doJSON(router, "POST", "/categories", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategoryHandler_DefaultCategoryIsImmutable(t *testing.T) {
	setupTestDB(t)
	router := categoryRouter()

	w := doJSON(router, "PUT", "/categories/1", map[string]interface{}{"name": "Food", "version": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, "DELETE", "/categories/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, "GET", "/categories/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCategoryHandler_UpdateVersioned(t *testing.T) {
	db := setupTestDB(t)
	router := categoryRouter()

	cat := models.Category{Name: "Pets"}
	require.NoError(t, db.Create(&cat).Error)

	w := doJSON(router, "PUT", "/categories/13", map[string]interface{}{"name": "Pet Care", "color": "#123456", "version": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Category
	decodeResponse(t, w, &updated)
	assert.Equal(t, "Pet Care", updated.Name)
	assert.Equal(t, models.DefaultCategoryIcon, updated.Icon)
	assert.Equal(t, uint(2), updated.Version)

	// 过期版本
	w = doJSON(router, "PUT", "/categories/13", map[string]interface{}{"name": "Pets", "version": 1})
	assert.Equal(t, http.StatusConflict, w.Code)

	// 缺少版本号
	w = doJSON(router, "PUT", "/categories/13", map[string]interface{}{"name": "Pets"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategoryHandler_DeleteIsSoft(t *testing.T) {
	db := setupTestDB(t)
	router := categoryRouter()

	cat := models.Category{Name: "Pets"}
	require.NoError(t, db.Create(&cat).Error)
	expense := models.Expense{Date: fixedNow, CategoryID: &cat.ID, Amount: dec("5")}
	require.NoError(t, db.Create(&expense).Error)

	w := doJSON(router, "DELETE", "/categories/13", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.Category
	require.NoError(t, db.First(&stored, cat.ID).Error)
	assert.Equal(t, models.StatusInactive, stored.Status)

	// 消费记录保留原类别引用
	var e models.Expense
	require.NoError(t, db.First(&e, expense.ID).Error)
	require.NotNil(t, e.CategoryID)
	assert.Equal(t, cat.ID, *e.CategoryID)

	w = doJSON(router, "GET", "/categories/13", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(router, "DELETE", "/categories/13", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
