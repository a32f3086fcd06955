package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session states. Transitions are monotonic:
// abierta → pendiente_arqueo (corte automático) → cerrada, or abierta →
// cerrada (arqueo accepted). Nothing ever returns to abierta.
const (
	SesionAbierta         = "abierta"
	SesionPendienteArqueo = "pendiente_arqueo"
	SesionCerrada         = "cerrada"
)

// Closing reasons stamped on MotivoCierre.
const (
	CierreManual     = "cierre_manual"
	CierreAutomatico = "corte_automatico"
)

// SesionCaja is one continuous period a caja is in active use, from open to
// audited close. MontoInicial belongs entirely to the cash method; every
// other method starts at zero by construction.
//
// Closing fields stay NULL until a closing transition writes them. The
// partial unique index uq_sesiones_caja_abierta (see infra/database.go)
// enforces at most one 'abierta' session per caja at the store level, so the
// guarantee holds across server instances.
type SesionCaja struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CajaID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	UsuarioApertura uuid.UUID       `gorm:"type:uuid;not null"`
	MontoInicial    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	NotaApertura    *string
	Estado          string `gorm:"type:varchar(20);not null;default:'abierta'"`
	OpenedAt        time.Time

	// Populated only once closing begins.
	ClosedAt           *time.Time
	UsuarioCierre      *uuid.UUID       `gorm:"type:uuid"`
	MotivoCierre       *string          `gorm:"type:varchar(30)"`
	CierreAutomatico   bool             `gorm:"not null;default:false"`
	MontoFinalEfectivo *decimal.Decimal `gorm:"type:decimal(12,2)"`

	Movimientos []MovimientoCaja `gorm:"foreignKey:SesionCajaID"`
}

func (SesionCaja) TableName() string { return "sesiones_caja" }

// Cerrada reports whether the session reached its terminal state.
func (s *SesionCaja) Cerrada() bool { return s.Estado == SesionCerrada }

// AceptaArqueo reports whether an arqueo may still be submitted.
func (s *SesionCaja) AceptaArqueo() bool {
	return s.Estado == SesionAbierta || s.Estado == SesionPendienteArqueo
}
