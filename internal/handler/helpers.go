package handler

import (
	"errors"
	"net/http"
	"reflect"

	"cajaledger/internal/apierror"
	"cajaledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
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
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
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

// respondServiceError maps the business-rule sentinels onto HTTP statuses.
// Reconciling a cash drawer is a human task: the error kind and, where
// relevant, the offending field are both surfaced.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, apierror.New("recurso no encontrado"))
	case errors.Is(err, service.ErrJustificacionRequerida):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{"nota": "required"}))
	case errors.Is(err, service.ErrMontoInvalido):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{"monto": "gt=0"}))
	case errors.Is(err, service.ErrCajaInactiva),
		errors.Is(err, service.ErrCajaOcupada),
		errors.Is(err, service.ErrSesionNoAbierta),
		errors.Is(err, service.ErrSesionCerrada),
		errors.Is(err, service.ErrMovimientoAnulado),
		errors.Is(err, service.ErrArqueoRequerido),
		errors.Is(err, service.ErrArqueoYaRealizado),
		errors.Is(err, service.ErrConflicto):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	default:
		// Unexpected — logged by the error-handler middleware, never leaked.
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
	}
}
