package repository

import (
	"context"
	"time"

	"cajaledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CierreSesion carries the closing fields a transition writes onto a session.
type CierreSesion struct {
	ClosedAt           time.Time
	UsuarioCierre      *uuid.UUID
	MotivoCierre       string
	CierreAutomatico   bool
	MontoFinalEfectivo *decimal.Decimal // nil until an arqueo supplies the counted cash
}

// SesionRepository owns session rows and their state transitions. Every
// transition is a compare-and-set UPDATE guarded by the current state, so two
// racing closers (scheduler vs. manual arqueo) cannot both win: whoever
// observes the expected state first gets RowsAffected = 1.
type SesionRepository interface {
	// Create inserts a new 'abierta' session. The partial unique index on
	// (caja_id) WHERE estado = 'abierta' makes concurrent opens serialize at
	// the store; the loser surfaces gorm.ErrDuplicatedKey.
	Create(ctx context.Context, s *model.SesionCaja) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error)
	FindAbiertaPorCaja(ctx context.Context, cajaID uuid.UUID) (*model.SesionCaja, error)
	ListPorCaja(ctx context.Context, cajaID uuid.UUID, page, limit int) ([]model.SesionCaja, int64, error)
	// ListAbiertasAntes feeds the auto-close sweep.
	ListAbiertasAntes(ctx context.Context, cutoff time.Time, limit int) ([]model.SesionCaja, error)
	// Transition CASes estado from one of fromEstados to nuevoEstado, writing
	// the closing fields. Returns false when the session was no longer in an
	// expected state (someone else transitioned first).
	Transition(ctx context.Context, id uuid.UUID, fromEstados []string, nuevoEstado string, cierre CierreSesion) (bool, error)
	// CerrarConArqueo atomically persists the arqueo snapshot and closes the
	// session in one transaction. Same CAS semantics as Transition.
	CerrarConArqueo(ctx context.Context, id uuid.UUID, fromEstados []string, cierre CierreSesion, arqueo *model.Arqueo) (bool, error)
}

type sesionRepo struct{ db *gorm.DB }

func NewSesionRepository(db *gorm.DB) SesionRepository { return &sesionRepo{db: db} }

func (r *sesionRepo) Create(ctx context.Context, s *model.SesionCaja) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sesionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).Preload("Movimientos").First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sesionRepo) FindAbiertaPorCaja(ctx context.Context, cajaID uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).
		Where("caja_id = ? AND estado = ?", cajaID, model.SesionAbierta).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sesionRepo) ListPorCaja(ctx context.Context, cajaID uuid.UUID, page, limit int) ([]model.SesionCaja, int64, error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&model.SesionCaja{}).Where("caja_id = ?", cajaID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sesiones []model.SesionCaja
	err := r.db.WithContext(ctx).
		Where("caja_id = ?", cajaID).
		Order("opened_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&sesiones).Error
	return sesiones, total, err
}

func (r *sesionRepo) ListAbiertasAntes(ctx context.Context, cutoff time.Time, limit int) ([]model.SesionCaja, error) {
	var sesiones []model.SesionCaja
	err := r.db.WithContext(ctx).
		Where("estado = ? AND opened_at < ?", model.SesionAbierta, cutoff).
		Order("opened_at ASC").
		Limit(limit).
		Find(&sesiones).Error
	return sesiones, err
}

func cierreUpdates(nuevoEstado string, c CierreSesion) map[string]interface{} {
	updates := map[string]interface{}{
		"estado":            nuevoEstado,
		"closed_at":         c.ClosedAt,
		"motivo_cierre":     c.MotivoCierre,
		"cierre_automatico": c.CierreAutomatico,
	}
	if c.UsuarioCierre != nil {
		updates["usuario_cierre"] = *c.UsuarioCierre
	}
	if c.MontoFinalEfectivo != nil {
		updates["monto_final_efectivo"] = *c.MontoFinalEfectivo
	}
	return updates
}

func (r *sesionRepo) Transition(ctx context.Context, id uuid.UUID, fromEstados []string, nuevoEstado string, cierre CierreSesion) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.SesionCaja{}).
		Where("id = ? AND estado IN ?", id, fromEstados).
		Updates(cierreUpdates(nuevoEstado, cierre))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *sesionRepo) CerrarConArqueo(ctx context.Context, id uuid.UUID, fromEstados []string, cierre CierreSesion, arqueo *model.Arqueo) (bool, error) {
	won := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.SesionCaja{}).
			Where("id = ? AND estado IN ?", id, fromEstados).
			Updates(cierreUpdates(model.SesionCerrada, cierre))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the CAS — roll back without creating the arqueo.
			return nil
		}
		if err := tx.Create(arqueo).Error; err != nil {
			return err
		}
		won = true
		return nil
	})
	return won, err
}
