package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"expensetracker/config"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FormErrorKey 表单级错误（不属于某个字段）在 errors 中的键
const FormErrorKey = "_form"

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationErrorData 校验失败时返回字段错误和原始输入，便于客户端回填表单
type ValidationErrorData struct {
	Errors map[string]string `json:"errors"`
	Input  interface{}       `json:"input,omitempty"`
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// 错误信息使用 json 字段名
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		// 金额按数值参与 required/gt/lte 等规则
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
	}
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: message,
		Data:    data,
	})
}

// Created 201 响应
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized 401 错误响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// InternalError 500 错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// Conflict 409 错误响应
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

// ValidationFailed 400 响应，附带字段错误和原始输入
func ValidationFailed(c *gin.Context, fieldErrors map[string]string, input interface{}) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    http.StatusBadRequest,
		Message: "参数校验失败",
		Data:    ValidationErrorData{Errors: fieldErrors, Input: input},
	})
}

// FormConflict 409 表单级错误，如同月份重复预算
func FormConflict(c *gin.Context, message string, input interface{}) {
	c.JSON(http.StatusConflict, Response{
		Code:    http.StatusConflict,
		Message: message,
		Data:    ValidationErrorData{Errors: map[string]string{FormErrorKey: message}, Input: input},
	})
}

// SafeErrorMessage 生产环境下不向客户端暴露内部错误详情
func SafeErrorMessage(err error, fallback string) string {
	return config.SafeErrorMessage(err, fallback)
}

// BindingErrors 把绑定错误转换成字段错误
// 非校验类错误（如 JSON 格式错误）归入表单级错误
func BindingErrors(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out[FormErrorKey] = SafeErrorMessage(err, "请求格式错误")
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "不能为空"
	case "min":
		return "不能小于 " + fe.Param()
	case "max":
		return "不能大于 " + fe.Param()
	case "gt":
		return "必须大于 " + fe.Param()
	case "gte":
		return "不能小于 " + fe.Param()
	case "lte":
		return "不能大于 " + fe.Param()
	case "len":
		return "长度必须为 " + fe.Param()
	case "oneof":
		return "必须是以下之一: " + fe.Param()
	case "hexcolor":
		return "必须是颜色代码，如 #ef4444"
	case "datetime":
		return "日期格式应为 " + fe.Param()
	}
	return "格式不正确"
}
