package api

import (
	"net/http"
	"testing"

	"expensetracker/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_OK(t *testing.T) {
	setupTestDB(t)
	r := gin.New()
	r.GET("/health", Health)

	w := doJSON(r, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dialect":"sqlite"`)
}

func TestHealth_DatabaseDown(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()
	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	sqlDB.Close()

	r := gin.New()
	r.GET("/health", Health)

	w := doJSON(r, "GET", "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
