package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

var registerValidators sync.Once

// setupValidator makes validator report fields by their json tag and adds the
// notblank and maxbytes rules.
func setupValidator() {
	registerValidators.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(sf reflect.StructField) string {
			name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return sf.Name
			}
			return name
		})

		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("maxbytes", maxBytes)
	})
}

// maxBytes limits the encoded length of a string, not its rune count.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}

	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}

	return len(field.String()) <= limit
}

func BindJSON(ctx *gin.Context, out interface{}) bool {
	setupValidator()

	err := ctx.ShouldBindJSON(out)

	if err != nil {
		RespondBadRequest(ctx, "Invalid request body", parseBindError(err))

		return false
	}

	return true
}

func parseBindError(err error) interface{} {
	var validatorError validator.ValidationErrors

	if errors.As(err, &validatorError) {
		fields := make([]FieldError, 0, len(validatorError))

		for _, fieldError := range validatorError {
			rule := fieldError.Tag()
			param := fieldError.Param()

			fields = append(fields, FieldError{
				Field:   fieldError.Field(),
				Rule:    rule,
				Param:   param,
				Message: validationMessage(rule, param),
			})
		}
		return gin.H{"fields": fields}
	}

	var syntaxError *json.SyntaxError

	if errors.As(err, &syntaxError) {
		return gin.H{
			"json": "invalid_json_syntax",
		}
	}

	// UnmarshalTypeError.Field is already the json path
	var unmatchedTypeError *json.UnmarshalTypeError

	if errors.As(err, &unmatchedTypeError) {
		field := strings.TrimSpace(unmatchedTypeError.Field)

		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{
				{
					Field:   field,
					Rule:    "type",
					Message: fmt.Sprintf("must be of type %s", unmatchedTypeError.Type.String()),
				},
			},
		}
	}

	// empty body
	if errors.Is(err, io.EOF) {
		return gin.H{"json": "empty_body"}
	}

	return gin.H{"reason": err.Error()}
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param + " characters"
	case "max":
		return "must be at most " + param + " characters"
	case "maxbytes":
		return "must be at most " + param + " bytes"
	case "notblank":
		return "must not be blank"
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
