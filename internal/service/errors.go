package service

import "errors"

// Business-rule violations. All are expected, recoverable, and reported
// synchronously to the caller; handlers match them with errors.Is and map
// them to HTTP codes.
var (
	// ErrCajaInactiva: the register exists but is deactivated.
	ErrCajaInactiva = errors.New("la caja está inactiva y no acepta nuevas sesiones")
	// ErrCajaOcupada: another session is already open on this register.
	ErrCajaOcupada = errors.New("ya existe una sesión abierta en esta caja")
	// ErrSesionNoAbierta: the action requires an open session.
	ErrSesionNoAbierta = errors.New("la sesión de caja no está abierta")
	// ErrSesionCerrada: the session already reached its terminal state.
	ErrSesionCerrada = errors.New("la sesión de caja ya está cerrada")
	// ErrMontoInvalido: non-positive or malformed monetary value.
	ErrMontoInvalido = errors.New("el monto debe ser mayor a cero")
	// ErrMovimientoAnulado: the movement was already voided.
	ErrMovimientoAnulado = errors.New("el movimiento ya fue anulado")
	// ErrArqueoRequerido: manual close attempted without an accepted arqueo.
	ErrArqueoRequerido = errors.New("la sesión requiere un arqueo antes de cerrarse")
	// ErrJustificacionRequerida: discrepancy over threshold with a blank note.
	ErrJustificacionRequerida = errors.New("la diferencia supera la tolerancia: se requiere una nota de justificación")
	// ErrArqueoYaRealizado: re-reconciliation of a closed session.
	ErrArqueoYaRealizado = errors.New("la sesión ya tiene un arqueo registrado")
	// ErrConflicto: a store-level conflict persisted past the bounded retries.
	ErrConflicto = errors.New("conflicto de concurrencia, intente nuevamente")
)
