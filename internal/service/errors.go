package service

import "errors"

// Validation errors: returned before any backend call, no state change.
var (
	ErrCantidadInvalida      = errors.New("la cantidad debe ser un número positivo")
	ErrProductoNoEncontrado  = errors.New("producto no encontrado")
	ErrVinculoInvalido       = errors.New("vínculo de stock inválido")
	ErrProductoInvalido      = errors.New("datos de producto inválidos")
	ErrRecetaSinIngredientes = errors.New("la receta no tiene ingredientes configurados")
	ErrPedidoVacio           = errors.New("el pedido no tiene ítems con cantidad")
	ErrPedidoNoEncontrado    = errors.New("pedido no encontrado")
	ErrDetalleAjeno          = errors.New("el detalle no pertenece al pedido")
	// ErrConfirmacionRequerida gates a receipt where nothing was received:
	// the caller must confirm that every line rolls over to tomorrow.
	ErrConfirmacionRequerida = errors.New("no se marcó ningún ítem como recibido: confirme que todo pasa a mañana")
)

// Backend failures of multi-row operations. Updates already applied by the
// failed batch are not rolled back.
var (
	ErrProduccionFallida = errors.New("no se pudo registrar la producción")
	ErrPedidoFallido     = errors.New("no se pudo procesar el pedido")
)

// EsValidacion reports whether err is a validation error (4xx) rather than a
// backend failure.
func EsValidacion(err error) bool {
	for _, v := range []error{
		ErrCantidadInvalida, ErrProductoNoEncontrado, ErrVinculoInvalido, ErrProductoInvalido,
		ErrRecetaSinIngredientes, ErrPedidoVacio, ErrPedidoNoEncontrado,
		ErrDetalleAjeno, ErrConfirmacionRequerida,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
