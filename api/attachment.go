package api

import (
	"errors"
	"log"
	"mime"
	"net/http"
	"path/filepath"

	"expensetracker/database"
	"expensetracker/models"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
)

// AttachmentHandler 消费附件
type AttachmentHandler struct {
	storage service.FileStorage
}

func NewAttachmentHandler(storage service.FileStorage) *AttachmentHandler {
	return &AttachmentHandler{storage: storage}
}

// Upload 上传附件
// @Summary 上传消费附件
// @Tags 消费附件
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Param file formData file true "附件"
// @Success 201 {object} Response{data=models.ExpenseAttachment} "上传成功"
// @Failure 400 {object} Response{data=ValidationErrorData} "缺少文件或文件过大"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id}/attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	expenseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	exists, err := database.Exists(database.DB, &models.Expense{}, expenseID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	if !exists {
		NotFound(c, "记录不存在")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		ValidationFailed(c, map[string]string{"file": "请选择要上传的文件"}, nil)
		return
	}

	stored, err := h.storage.Save(c.Request.Context(), expenseID, file)
	if err != nil {
		if errors.Is(err, service.ErrFileTooLarge) {
			ValidationFailed(c, map[string]string{"file": "文件过大"}, gin.H{"file_name": file.Filename, "file_size": file.Size})
			return
		}
		InternalError(c, SafeErrorMessage(err, "上传失败"))
		return
	}

	attachment := models.ExpenseAttachment{
		ExpenseID:  expenseID,
		FileName:   stored.Name,
		FilePath:   stored.Path,
		FileSize:   stored.Size,
		UploadedAt: nowFunc(),
	}
	if err := database.DB.Create(&attachment).Error; err != nil {
		if delErr := h.storage.Delete(c.Request.Context(), stored.Path); delErr != nil {
			log.Printf("回滚附件文件失败 %s: %v", stored.Path, delErr)
		}
		InternalError(c, SafeErrorMessage(err, "保存附件失败"))
		return
	}
	Created(c, "上传成功", attachment)
}

// List 某条消费的附件
// @Summary 获取消费附件列表
// @Tags 消费附件
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Success 200 {object} Response{data=[]models.ExpenseAttachment} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id}/attachments [get]
func (h *AttachmentHandler) List(c *gin.Context) {
	expenseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	exists, err := database.Exists(database.DB, &models.Expense{}, expenseID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	if !exists {
		NotFound(c, "记录不存在")
		return
	}

	var list []models.ExpenseAttachment
	if err := database.DB.Where("expense_id = ?", expenseID).Order("uploaded_at ASC, id ASC").Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	Success(c, list)
}

// Download 下载附件
// @Summary 下载消费附件
// @Tags 消费附件
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "附件ID"
// @Success 200 {file} file "附件内容"
// @Failure 404 {object} Response "附件不存在"
// @Router /api/v1/attachments/{id}/download [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var attachment models.ExpenseAttachment
	if err := database.DB.First(&attachment, id).Error; err != nil {
		writeStoreError(c, err, "附件不存在", "查询失败")
		return
	}

	rc, err := h.storage.Open(c.Request.Context(), attachment.FilePath)
	if err != nil {
		NotFound(c, "附件文件不存在")
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(attachment.FileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, attachment.FileSize, contentType, rc, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": attachment.FileName}),
	})
}

// Delete 删除附件
// @Summary 删除消费附件
// @Tags 消费附件
// @Produce json
// @Security BearerAuth
// @Param id path int true "附件ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "附件不存在"
// @Router /api/v1/attachments/{id} [delete]
func (h *AttachmentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var attachment models.ExpenseAttachment
	if err := database.DB.First(&attachment, id).Error; err != nil {
		writeStoreError(c, err, "附件不存在", "查询失败")
		return
	}
	if err := database.DB.Delete(&attachment).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}
	if err := h.storage.Delete(c.Request.Context(), attachment.FilePath); err != nil {
		log.Printf("清理附件文件失败 %s: %v", attachment.FilePath, err)
	}
	SuccessWithMessage(c, "删除成功", nil)
}
