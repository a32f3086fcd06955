package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Movement direction. Monto is always strictly positive; Tipo encodes sign.
const (
	MovimientoIngreso = "ingreso"
	MovimientoEgreso  = "egreso"
)

// Movement states. Voiding is a state transition, never a deletion: voided
// movements drop out of balance computation but stay in the audit trail.
const (
	MovimientoActivo  = "activo"
	MovimientoAnulado = "anulado"
)

// Controlled vocabulary for Motivo. Free-form detail goes in Nota.
const (
	MotivoFondoInicial    = "fondo_inicial"
	MotivoRetiroSeguridad = "retiro_seguridad"
	MotivoPagoProveedor   = "pago_proveedor"
	MotivoAjuste          = "ajuste"
	MotivoOtro            = "otro"
)

// Payment methods — the five reconciliation buckets.
const (
	MetodoEfectivo      = "efectivo"
	MetodoYape          = "yape"
	MetodoTransferencia = "transferencia"
	MetodoTarjeta       = "tarjeta"
	MetodoOtro          = "otro"
)

// Metodos lists every bucket in display order.
var Metodos = []string{MetodoEfectivo, MetodoYape, MetodoTransferencia, MetodoTarjeta, MetodoOtro}

// MovimientoCaja is a manual deposit or withdrawal against an open session,
// outside of sales. Rows are append-only.
type MovimientoCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SesionCajaID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Tipo         string          `gorm:"type:varchar(10);not null"`
	Motivo       string          `gorm:"type:varchar(30);not null"`
	MetodoPago   string          `gorm:"type:varchar(20);not null"`
	Monto        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Nota         *string
	UsuarioID    uuid.UUID `gorm:"type:uuid;not null"`
	Estado       string    `gorm:"type:varchar(10);not null;default:'activo'"`

	// Set only when Estado = 'anulado'.
	MotivoAnulacion  *string
	UsuarioAnulacion *uuid.UUID `gorm:"type:uuid"`
	AnuladoAt        *time.Time

	CreatedAt time.Time
}

func (MovimientoCaja) TableName() string { return "movimientos_caja" }

// MontoFirmado returns the movement's signed effect on its bucket.
func (m *MovimientoCaja) MontoFirmado() decimal.Decimal {
	if m.Tipo == MovimientoEgreso {
		return m.Monto.Neg()
	}
	return m.Monto
}
