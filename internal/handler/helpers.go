package handler

import (
	"errors"
	"net/http"
	"reflect"

	"stockcocina/internal/apierror"
	"stockcocina/internal/infra"
	"stockcocina/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
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
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return validar(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return false
	}
	return validar(c, req)
}

func validar(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// paramUUID parses a path parameter, answering 400 when it is malformed.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}

func parseUUIDs(ss []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ss))
	for _, s := range ss {
		// already validated by the dive,uuid tag
		out = append(out, uuid.MustParse(s))
	}
	return out
}

// responderError maps service errors to HTTP statuses. Anything unknown is
// attached to the context and left to middleware.ErrorHandler.
func responderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductoNoEncontrado), errors.Is(err, service.ErrPedidoNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrConfirmacionRequerida):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case service.EsValidacion(err):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.Is(err, infra.ErrCircuitOpen):
		c.JSON(http.StatusServiceUnavailable, apierror.New("Servicio de datos no disponible. Intente nuevamente en unos segundos."))
	default:
		_ = c.Error(err)
	}
}
