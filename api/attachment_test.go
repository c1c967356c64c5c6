package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"expensetracker/models"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attachmentRouter(storage service.FileStorage) *gin.Engine {
	h := NewAttachmentHandler(storage)
	r := gin.New()
	r.POST("/expenses/:id/attachments", h.Upload)
	r.GET("/expenses/:id/attachments", h.List)
	r.GET("/attachments/:id/download", h.Download)
	r.DELETE("/attachments/:id", h.Delete)
	r.DELETE("/expenses/:id", NewExpenseHandler(storage).Delete)
	return r
}

func upload(router *gin.Engine, path, name string, content []byte) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, _ := mw.CreateFormFile("file", name)
	part.Write(content)
	mw.Close()

	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAttachmentHandler_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	storage := service.NewLocalStorage(t.TempDir(), 1024)
	router := attachmentRouter(storage)

	expense := models.Expense{Date: fixedNow, Amount: dec("20")}
	require.NoError(t, db.Create(&expense).Error)
	base := "/expenses/" + itoa(expense.ID)

	w := upload(router, base+"/attachments", "receipt.txt", []byte("total 20.00"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var att models.ExpenseAttachment
	decodeResponse(t, w, &att)
	assert.Equal(t, "receipt.txt", att.FileName)
	assert.Equal(t, int64(11), att.FileSize)
	assert.True(t, fixedNow.Equal(att.UploadedAt))

	w = doJSON(router, "GET", base+"/attachments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.ExpenseAttachment
	decodeResponse(t, w, &list)
	require.Len(t, list, 1)

	w = doJSON(router, "GET", "/attachments/"+itoa(att.ID)+"/download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "total 20.00", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "receipt.txt")

	w = doJSON(router, "DELETE", "/attachments/"+itoa(att.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(router, "GET", "/attachments/"+itoa(att.ID)+"/download", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttachmentHandler_UploadErrors(t *testing.T) {
	db := setupTestDB(t)
	router := attachmentRouter(service.NewLocalStorage(t.TempDir(), 4))

	w := upload(router, "/expenses/404/attachments", "a.txt", []byte("x"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	expense := models.Expense{Date: fixedNow, Amount: dec("1")}
	require.NoError(t, db.Create(&expense).Error)

	w = upload(router, "/expenses/"+itoa(expense.ID)+"/attachments", "big.txt", []byte("too large"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var data ValidationErrorData
	decodeResponse(t, w, &data)
	assert.Contains(t, data.Errors, "file")

	// 没有文件字段
	w = doJSON(router, "POST", "/expenses/"+itoa(expense.ID)+"/attachments", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpenseHandler_DeleteRemovesFiles(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()
	storage := service.NewLocalStorage(dir, 0)
	router := attachmentRouter(storage)

	expense := models.Expense{Date: fixedNow, Amount: dec("1")}
	require.NoError(t, db.Create(&expense).Error)
	w := upload(router, "/expenses/"+itoa(expense.ID)+"/attachments", "a.txt", []byte("abc"))
	require.Equal(t, http.StatusCreated, w.Code)
	var att models.ExpenseAttachment
	decodeResponse(t, w, &att)

	w = doJSON(router, "DELETE", "/expenses/"+itoa(expense.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := storage.Open(context.Background(), att.FilePath)
	assert.Error(t, err)
}
