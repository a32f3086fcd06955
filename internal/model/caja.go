package model

import (
	"time"

	"github.com/google/uuid"
)

// Register activation states.
const (
	CajaActiva   = "activa"
	CajaInactiva = "inactiva"
)

// Caja is a physical cash drawer tracked independently of who operates it.
// An inactive caja cannot accept new sessions; deactivation never touches
// sessions already open against it.
type Caja struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID uuid.UUID `gorm:"type:uuid;not null;index"`
	Nombre    string    `gorm:"not null"`
	Estado    string    `gorm:"type:varchar(20);not null;default:'activa'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Caja) TableName() string { return "cajas" }
