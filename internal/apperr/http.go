package apperr

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerTagNames sync.Once

// BindJSON はリクエストボディを obj にバインドし、失敗時は INVALID_INPUT を返します。
// validator のフィールド名は json タグ名で報告されます。
func BindJSON(c *gin.Context, obj any) error {
	registerTagNames.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(jsonFieldName)
		}
	})
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		// 空ボディは {} として扱い、検証だけ行う
		err = binding.Validator.ValidateStruct(obj)
	}
	if err != nil {
		return FromBinding(err)
	}
	return nil
}

// FromBinding は gin のバインドエラーをフィールド単位の INVALID_INPUT に変換します。
func FromBinding(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{
			Code:    CodeInvalidInput,
			Message: "Request body must be valid JSON.",
			Err:     err,
		}
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		fields[name] = append(fields[name], fieldMessage(fe))
	}
	return &Error{
		Code:    CodeInvalidInput,
		Message: "Invalid input.",
		Fields:  fields,
		Err:     err,
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	default:
		return "Invalid value."
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// Status はエラーに対応する HTTP ステータスを返します。
func Status(err error) int {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return http.StatusInternalServerError
	}
	switch apiErr.Code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// Body はレスポンス JSON を組み立てます。
func Body(apiErr *Error) gin.H {
	body := gin.H{
		"code":    apiErr.Code,
		"message": apiErr.Message,
	}
	if apiErr.Reason != "" {
		body["reason"] = apiErr.Reason
	}
	if len(apiErr.Fields) > 0 {
		body["fields"] = apiErr.Fields
	}
	return body
}

// Respond は err を JSON レスポンスとして書き出します。
// 分類できないエラーは内容を伏せて 500 を返し、logger に記録します。
func Respond(c *gin.Context, logger *log.Logger, err error) {
	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		c.AbortWithStatusJSON(Status(err), Body(apiErr))
	case errors.Is(err, context.Canceled):
		c.AbortWithStatusJSON(http.StatusRequestTimeout, gin.H{
			"code":    "REQUEST_CANCELED",
			"message": "The request was canceled.",
		})
	default:
		if logger == nil {
			logger = log.Default()
		}
		logger.Printf("internal error method=%s path=%s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "An internal server error occurred.",
		})
	}
}
