package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"healthcare-scheduling-server/internal/models"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the scheduling rules to gin's validator engine:
//
//	date  YYYY-MM-DD
//	hhmm  HH:MM, 24h
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		if err := v.RegisterValidation("date", canonical(models.DateLayout)); err != nil {
			registerErr = fmt.Errorf("registering date validator: %w", err)
			return
		}
		if err := v.RegisterValidation("hhmm", canonical(models.TimeLayout)); err != nil {
			registerErr = fmt.Errorf("registering hhmm validator: %w", err)
		}
	})
	return registerErr
}

func canonical(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		t, err := time.Parse(layout, s)
		return err == nil && t.Format(layout) == s
	}
}

// FormatValidationError turns validator errors into one message per field.
func FormatValidationError(err error) []string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		field := lowerFirst(e.Field())
		switch e.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "uuid":
			messages = append(messages, field+" must be a UUID")
		case "date":
			messages = append(messages, field+" must be a YYYY-MM-DD date")
		case "hhmm":
			messages = append(messages, field+" must be HH:MM in 24h format")
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of %s", field, e.Param()))
		case "min", "gte":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		case "max", "lte":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", field, e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed %s validation", field, e.Tag()))
		}
	}
	return messages
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// BindAndValidate binds the request body to a struct and validates it.
// If validation fails, it sends a BadRequest response and returns false.
func BindAndValidate(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			ValidationFailed(c, FormatValidationError(err))
		} else {
			BadRequest(c, "Invalid request payload")
		}
		return false
	}
	return true
}

// BindQuery is BindAndValidate for query strings.
func BindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			ValidationFailed(c, FormatValidationError(err))
		} else {
			BadRequest(c, "Invalid query parameters")
		}
		return false
	}
	return true
}
