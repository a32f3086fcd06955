package repository

import (
	"context"

	"cajaledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CajaRepository manages the set of physical registers.
type CajaRepository interface {
	Create(ctx context.Context, c *model.Caja) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Caja, error)
	List(ctx context.Context, empresaID *uuid.UUID) ([]model.Caja, error)
	UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) Create(ctx context.Context, c *model.Caja) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cajaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cajaRepo) List(ctx context.Context, empresaID *uuid.UUID) ([]model.Caja, error) {
	q := r.db.WithContext(ctx).Order("nombre ASC")
	if empresaID != nil {
		q = q.Where("empresa_id = ?", *empresaID)
	}
	var cajas []model.Caja
	err := q.Find(&cajas).Error
	return cajas, err
}

func (r *cajaRepo) UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error {
	res := r.db.WithContext(ctx).Model(&model.Caja{}).Where("id = ?", id).Update("estado", estado)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
