package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Venta is a read-only projection of a completed sale produced by the
// external sales/invoicing subsystem. This engine never writes these rows;
// it only aggregates the payment split per session for balance computation.
type Venta struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SesionCajaID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Estado: "completada" | "anulada" — only completed sales count.
	Estado    string `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time

	Pagos []VentaPago `gorm:"foreignKey:VentaID"`
}

func (Venta) TableName() string { return "ventas" }

// VentaPago is one leg of a sale's payment split.
type VentaPago struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VentaID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	MetodoPago string          `gorm:"type:varchar(20);not null"`
	Monto      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (VentaPago) TableName() string { return "venta_pagos" }
