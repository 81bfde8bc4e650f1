package handler

import (
	"errors"
	"net/http"
	"reflect"

	"tropicalstore/internal/apierror"
	"tropicalstore/internal/apperr"
	"tropicalstore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// writeError maps a service error onto the HTTP envelope. Error kinds drive
// the status code; anything unclassified becomes an opaque 500 so internals
// never leak to clients.
func writeError(c *gin.Context, err error) {
	var commitErr *service.CommitError
	if errors.As(err, &commitErr) {
		lines := make([]apierror.CommitLineError, 0, len(commitErr.Lines))
		for _, l := range commitErr.Lines {
			lines = append(lines, apierror.CommitLineError{Index: l.Index, Reason: l.Reason, Detail: l.Detail})
		}
		c.JSON(http.StatusConflict, apierror.NewCommitFailure("Order rejected", lines))
		return
	}

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case apperr.KindConflict:
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case apperr.KindInsufficientStock:
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case apperr.KindTimeout:
		c.JSON(http.StatusGatewayTimeout, apierror.New("Operation timed out"))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("Internal server error"))
	}
}
