package service

import (
	"context"

	"cajaledger/internal/dto"
	"cajaledger/internal/model"
	"cajaledger/internal/repository"

	"github.com/google/uuid"
)

// CajaService is the register registry: creation and activation state of the
// physical drawers. Sessions are SesionService's business.
type CajaService interface {
	Crear(ctx context.Context, req dto.CrearCajaRequest) (*dto.CajaResponse, error)
	Listar(ctx context.Context, empresaID *uuid.UUID) ([]dto.CajaResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	Reactivar(ctx context.Context, id uuid.UUID) error
}

type cajaService struct {
	repo repository.CajaRepository
}

func NewCajaService(repo repository.CajaRepository) CajaService {
	return &cajaService{repo: repo}
}

func (s *cajaService) Crear(ctx context.Context, req dto.CrearCajaRequest) (*dto.CajaResponse, error) {
	empresaID, err := uuid.Parse(req.EmpresaID)
	if err != nil {
		return nil, err
	}

	caja := &model.Caja{
		EmpresaID: empresaID,
		Nombre:    req.Nombre,
		Estado:    model.CajaActiva,
	}
	if err := s.repo.Create(ctx, caja); err != nil {
		return nil, err
	}
	resp := cajaToResponse(caja)
	return &resp, nil
}

func (s *cajaService) Listar(ctx context.Context, empresaID *uuid.UUID) ([]dto.CajaResponse, error) {
	cajas, err := s.repo.List(ctx, empresaID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CajaResponse, 0, len(cajas))
	for i := range cajas {
		out = append(out, cajaToResponse(&cajas[i]))
	}
	return out, nil
}

// Desactivar stops the caja from accepting new sessions. A session already
// open against it keeps running until its own close.
func (s *cajaService) Desactivar(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateEstado(ctx, id, model.CajaInactiva)
}

func (s *cajaService) Reactivar(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateEstado(ctx, id, model.CajaActiva)
}

func cajaToResponse(c *model.Caja) dto.CajaResponse {
	return dto.CajaResponse{
		ID:        c.ID.String(),
		EmpresaID: c.EmpresaID.String(),
		Nombre:    c.Nombre,
		Estado:    c.Estado,
		CreatedAt: c.CreatedAt,
	}
}
