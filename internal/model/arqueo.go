package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Arqueo is the reconciliation record written when a session closes: the
// human-counted balance per payment method next to the expected balance the
// engine computed at that instant. At most one per session (unique FK), and
// immutable once persisted — corrections are an administrative override
// outside this engine.
//
// The expected columns are a snapshot for audit; the live expected balance is
// always re-derivable from persisted facts (see service.CalcularSaldoEsperado).
type Arqueo struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SesionCajaID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	ContadoEfectivo      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ContadoYape          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ContadoTransferencia decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ContadoTarjeta       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ContadoOtro          decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	EsperadoEfectivo      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	EsperadoYape          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	EsperadoTransferencia decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	EsperadoTarjeta       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	EsperadoOtro          decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	TotalEsperado decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalContado  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Diferencia = TotalContado - TotalEsperado.
	Diferencia decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Nota      *string
	UsuarioID uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
}

func (Arqueo) TableName() string { return "arqueos" }
