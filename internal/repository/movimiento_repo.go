package repository

import (
	"context"
	"time"

	"cajaledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovimientoRepository is append-only: movements are created and voided,
// never updated in place or deleted.
type MovimientoRepository interface {
	Create(ctx context.Context, m *model.MovimientoCaja) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MovimientoCaja, error)
	ListPorSesion(ctx context.Context, sesionID uuid.UUID) ([]model.MovimientoCaja, error)
	// Anular CASes estado activo → anulado. Returns false when the movement
	// was already voided (the idempotency guard lives in the store).
	Anular(ctx context.Context, id uuid.UUID, usuarioID uuid.UUID, motivo string, cuando time.Time) (bool, error)
	// SumActivosPorMetodo returns the signed sum of ACTIVE movements per
	// payment method: ingresos add, egresos subtract. Voided rows never count.
	SumActivosPorMetodo(ctx context.Context, sesionID uuid.UUID) (map[string]decimal.Decimal, error)
}

type movimientoRepo struct{ db *gorm.DB }

func NewMovimientoRepository(db *gorm.DB) MovimientoRepository { return &movimientoRepo{db: db} }

func (r *movimientoRepo) Create(ctx context.Context, m *model.MovimientoCaja) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *movimientoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.MovimientoCaja, error) {
	var m model.MovimientoCaja
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *movimientoRepo) ListPorSesion(ctx context.Context, sesionID uuid.UUID) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := r.db.WithContext(ctx).
		Where("sesion_caja_id = ?", sesionID).
		Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}

func (r *movimientoRepo) Anular(ctx context.Context, id uuid.UUID, usuarioID uuid.UUID, motivo string, cuando time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.MovimientoCaja{}).
		Where("id = ? AND estado = ?", id, model.MovimientoActivo).
		Updates(map[string]interface{}{
			"estado":            model.MovimientoAnulado,
			"motivo_anulacion":  motivo,
			"usuario_anulacion": usuarioID,
			"anulado_at":        cuando,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

type sumaMetodo struct {
	MetodoPago string
	Suma       decimal.Decimal
}

func (r *movimientoRepo) SumActivosPorMetodo(ctx context.Context, sesionID uuid.UUID) (map[string]decimal.Decimal, error) {
	var filas []sumaMetodo
	err := r.db.WithContext(ctx).
		Model(&model.MovimientoCaja{}).
		Select("metodo_pago, COALESCE(SUM(CASE WHEN tipo = 'egreso' THEN -monto ELSE monto END), 0) AS suma").
		Where("sesion_caja_id = ? AND estado = ?", sesionID, model.MovimientoActivo).
		Group("metodo_pago").
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
