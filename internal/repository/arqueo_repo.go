package repository

import (
	"context"

	"cajaledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ArqueoRepository is read-only: arqueos are written exclusively inside the
// closing transaction (SesionRepository.CerrarConArqueo) and are immutable.
type ArqueoRepository interface {
	FindPorSesion(ctx context.Context, sesionID uuid.UUID) (*model.Arqueo, error)
}

type arqueoRepo struct{ db *gorm.DB }

func NewArqueoRepository(db *gorm.DB) ArqueoRepository { return &arqueoRepo{db: db} }

func (r *arqueoRepo) FindPorSesion(ctx context.Context, sesionID uuid.UUID) (*model.Arqueo, error) {
	var a model.Arqueo
	err := r.db.WithContext(ctx).First(&a, "sesion_caja_id = ?", sesionID).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}
