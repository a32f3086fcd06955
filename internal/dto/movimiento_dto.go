package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RegistrarMovimientoRequest struct {
	Tipo       string          `json:"tipo"        validate:"required,oneof=ingreso egreso"`
	Motivo     string          `json:"motivo"      validate:"required,oneof=fondo_inicial retiro_seguridad pago_proveedor ajuste otro"`
	MetodoPago string          `json:"metodo_pago" validate:"required,oneof=efectivo yape transferencia tarjeta otro"`
	Monto      decimal.Decimal `json:"monto"       validate:"required,gt=0"`
	Nota       *string         `json:"nota"`
}

type AnularMovimientoRequest struct {
	Motivo string `json:"motivo" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovimientoResponse struct {
	ID           string          `json:"id"`
	SesionCajaID string          `json:"sesion_caja_id"`
	Tipo         string          `json:"tipo"`   // ingreso | egreso
	Motivo       string          `json:"motivo"`
	MetodoPago   string          `json:"metodo_pago"`
	Monto        decimal.Decimal `json:"monto"`
	Nota         *string         `json:"nota"`
	UsuarioID    string          `json:"usuario_id"`
	Estado       string          `json:"estado"` // activo | anulado
	CreatedAt    string          `json:"created_at"`

	MotivoAnulacion  *string `json:"motivo_anulacion,omitempty"`
	UsuarioAnulacion *string `json:"usuario_anulacion,omitempty"`
	AnuladoAt        *string `json:"anulado_at,omitempty"`
}
