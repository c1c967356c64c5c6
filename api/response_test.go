package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindingErrors_UsesJSONFieldNames(t *testing.T) {
	req := BudgetRequest{Month: 13, Year: 2025}
	threshold := 150
	req.AlertThreshold = &threshold

	err := binding.Validator.ValidateStruct(&req)
	require.Error(t, err)

	fields := BindingErrors(err)
	assert.Contains(t, fields, "category_id")
	assert.Contains(t, fields, "month")
	assert.Contains(t, fields, "alert_threshold")
	assert.NotContains(t, fields, "year")
}

func TestBindingErrors_NonValidationError(t *testing.T) {
	fields := BindingErrors(errors.New("unexpected EOF"))
	assert.Equal(t, map[string]string{FormErrorKey: "unexpected EOF"}, fields)
}

func TestValidationFailed_EchoesInput(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	ValidationFailed(c, map[string]string{"name": "不能为空"}, CategoryCreateRequest{Color: "#ffffff"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp struct {
		Code int                 `json:"code"`
		Data ValidationErrorData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 400, resp.Code)
	assert.Equal(t, "不能为空", resp.Data.Errors["name"])
	assert.Equal(t, "#ffffff", resp.Data.Input.(map[string]interface{})["color"])
}

func TestFormConflict(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	FormConflict(c, "该类别本月已有预算", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), FormErrorKey)
}
