package pkg

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/studiogate/internal/domain"
)

// Response is the JSON envelope returned by module endpoints.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ValidationErrorResponse is the 400 envelope carrying per-field messages.
type ValidationErrorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// Success sends a 200 envelope with data.
func Success(c *gin.Context, data any) {
	respond(c, http.StatusOK, "success", data)
}

// Created sends a 201 envelope with data.
func Created(c *gin.Context, data any) {
	respond(c, http.StatusCreated, "created", data)
}

// List sends a 200 envelope holding a *domain.PageResult.
func List(c *gin.Context, result any) {
	respond(c, http.StatusOK, "success", result)
}

func respond(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, Response{Code: status, Message: msg, Data: data})
}

// Error answers client errors (4xx AppErrors) with an envelope. Anything that
// maps to a 5xx is recorded on the context and left for the error handler
// middleware, so internal details never reach the response here.
func Error(c *gin.Context, err error) {
	status := domain.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.Abort()
		return
	}

	var appErr *domain.AppError
	msg := http.StatusText(status)
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	c.AbortWithStatusJSON(status, Response{Code: status, Message: msg})
}

// ParseID reads a positive integer path parameter.
func ParseID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, domain.NewAppError(domain.CodeValidation, "invalid "+name+": "+strconv.Quote(raw), nil)
	}
	return uint(id), nil
}

// BindAndValidate binds the JSON or form body into obj and validates it.
// On failure the 400 response has already been written and false is returned.
//
//	if !pkg.BindAndValidate(c, &req) { return }
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		validationErrorWithType(c, err, obj)
		return false
	}
	return true
}

func validationErrorWithType(c *gin.Context, err error, obj any) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		c.AbortWithStatusJSON(http.StatusBadRequest, Response{
			Code:    http.StatusBadRequest,
			Message: "malformed request body",
		})
		return
	}

	names := jsonFieldNames(obj)
	fieldErrors := make(map[string]string, len(ve))
	for _, fe := range ve {
		name, ok := names[fe.StructField()]
		if !ok {
			name = strings.ToLower(fe.Field())
		}
		fieldErrors[name] = describeFieldError(fe)
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, ValidationErrorResponse{
		Code:    http.StatusBadRequest,
		Message: "validation error",
		Errors:  fieldErrors,
	})
}

// describeFieldError turns a failed validator tag into a short sentence.
func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gtfield":
		return "must be after " + strings.ToLower(fe.Param())
	}
	if fe.Param() != "" {
		return fe.Tag() + "=" + fe.Param()
	}
	return fe.Tag()
}

// jsonFieldNames maps struct field names of obj to their JSON names.
func jsonFieldNames(obj any) map[string]string {
	if obj == nil {
		return nil
	}
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	m := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name != "" && name != "-" {
			m[f.Name] = name
		}
	}
	return m
}
