package dto

import "github.com/shopspring/decimal"

// MontosPorMetodo carries one amount per payment method plus the sum of all
// buckets. Used both for computed (esperado) and counted (contado) sides.
type MontosPorMetodo struct {
	Efectivo      decimal.Decimal `json:"efectivo"`
	Yape          decimal.Decimal `json:"yape"`
	Transferencia decimal.Decimal `json:"transferencia"`
	Tarjeta       decimal.Decimal `json:"tarjeta"`
	Otro          decimal.Decimal `json:"otro"`
	Total         decimal.Decimal `json:"total"`
}

// Sumar recomputes Total from the five buckets and returns the receiver.
func (m MontosPorMetodo) Sumar() MontosPorMetodo {
	m.Total = m.Efectivo.Add(m.Yape).Add(m.Transferencia).Add(m.Tarjeta).Add(m.Otro)
	return m
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// DeclaracionArqueo is the counted balance per method as reported by the
// cashier after physically counting each bucket.
type DeclaracionArqueo struct {
	Efectivo      decimal.Decimal `json:"efectivo"      validate:"min=0"`
	Yape          decimal.Decimal `json:"yape"          validate:"min=0"`
	Transferencia decimal.Decimal `json:"transferencia" validate:"min=0"`
	Tarjeta       decimal.Decimal `json:"tarjeta"       validate:"min=0"`
	Otro          decimal.Decimal `json:"otro"          validate:"min=0"`
}

type ArqueoRequest struct {
	Declaracion DeclaracionArqueo `json:"declaracion" validate:"required"`
	Nota        *string           `json:"nota"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ArqueoResponse struct {
	ID           string          `json:"id"`
	SesionCajaID string          `json:"sesion_caja_id"`
	Esperado     MontosPorMetodo `json:"esperado"`
	Contado      MontosPorMetodo `json:"contado"`
	Diferencia   decimal.Decimal `json:"diferencia"`
	Nota         *string         `json:"nota"`
	UsuarioID    string          `json:"usuario_id"`
	Estado       string          `json:"estado"` // session state after the arqueo
	CreatedAt    string          `json:"created_at"`
}
