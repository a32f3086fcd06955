package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirSesionRequest struct {
	CajaID       string          `json:"caja_id"       validate:"required,uuid"`
	MontoInicial decimal.Decimal `json:"monto_inicial" validate:"min=0"`
	Nota         *string         `json:"nota"`
}

type SolicitarCierreRequest struct {
	Motivo string  `json:"motivo" validate:"required,min=3"`
	Nota   *string `json:"nota"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SesionResponse struct {
	ID              string          `json:"id"`
	CajaID          string          `json:"caja_id"`
	UsuarioApertura string          `json:"usuario_apertura"`
	MontoInicial    decimal.Decimal `json:"monto_inicial"`
	NotaApertura    *string         `json:"nota_apertura"`
	Estado          string          `json:"estado"` // abierta | pendiente_arqueo | cerrada
	OpenedAt        string          `json:"opened_at"`

	ClosedAt           *string          `json:"closed_at,omitempty"`
	UsuarioCierre      *string          `json:"usuario_cierre,omitempty"`
	MotivoCierre       *string          `json:"motivo_cierre,omitempty"`
	CierreAutomatico   bool             `json:"cierre_automatico"`
	MontoFinalEfectivo *decimal.Decimal `json:"monto_final_efectivo,omitempty"`
}

type SaldoEsperadoResponse struct {
	SesionCajaID string          `json:"sesion_caja_id"`
	Esperado     MontosPorMetodo `json:"esperado"`
}
