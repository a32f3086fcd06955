package repository

import (
	"context"

	"cajaledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VentaRepository is the sales contribution feed: a read path over rows the
// external sales subsystem owns. This engine never inserts or mutates ventas.
type VentaRepository interface {
	// SumPagosPorMetodo aggregates the payment split of completed sales
	// assigned to a session, one signed amount per payment method.
	SumPagosPorMetodo(ctx context.Context, sesionID uuid.UUID) (map[string]decimal.Decimal, error)
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) SumPagosPorMetodo(ctx context.Context, sesionID uuid.UUID) (map[string]decimal.Decimal, error) {
	var filas []sumaMetodo
	err := r.db.WithContext(ctx).
		Model(&model.VentaPago{}).
		Select("venta_pagos.metodo_pago, COALESCE(SUM(venta_pagos.monto), 0) AS suma").
		Joins("JOIN ventas ON ventas.id = venta_pagos.venta_id").
		Where("ventas.sesion_caja_id = ? AND ventas.estado = ?", sesionID, "completada").
		Group("venta_pagos.metodo_pago").
		Scan(&filas).Error
	if err != nil {
		return nil, err
	}

	sums := make(map[string]decimal.Decimal, len(filas))
	for _, f := range filas {
		sums[f.MetodoPago] = f.Suma
	}
	return sums, nil
}
