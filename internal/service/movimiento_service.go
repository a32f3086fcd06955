package service

import (
	"context"
	"time"

	"cajaledger/internal/dto"
	"cajaledger/internal/model"
	"cajaledger/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MovimientoService is the movement ledger: manual deposits and withdrawals
// scoped to an open session. Voiding is a transition, never a delete.
type MovimientoService interface {
	Registrar(ctx context.Context, sesionID, usuarioID uuid.UUID, req dto.RegistrarMovimientoRequest) (*dto.MovimientoResponse, error)
	Anular(ctx context.Context, movimientoID, usuarioID uuid.UUID, motivo string) error
	ListarPorSesion(ctx context.Context, sesionID uuid.UUID) ([]dto.MovimientoResponse, error)
}

type movimientoService struct {
	movimientos repository.MovimientoRepository
	sesiones    repository.SesionRepository
}

func NewMovimientoService(movimientos repository.MovimientoRepository, sesiones repository.SesionRepository) MovimientoService {
	return &movimientoService{movimientos: movimientos, sesiones: sesiones}
}

func (s *movimientoService) Registrar(ctx context.Context, sesionID, usuarioID uuid.UUID, req dto.RegistrarMovimientoRequest) (*dto.MovimientoResponse, error) {
	if !req.Monto.IsPositive() {
		return nil, ErrMontoInvalido
	}

	sesion, err := s.sesiones.FindByID(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	if sesion.Estado != model.SesionAbierta {
		return nil, ErrSesionNoAbierta
	}

	mov := &model.MovimientoCaja{
		SesionCajaID: sesionID,
		Tipo:         req.Tipo,
		Motivo:       req.Motivo,
		MetodoPago:   req.MetodoPago,
		Monto:        req.Monto,
		Nota:         req.Nota,
		UsuarioID:    usuarioID,
		Estado:       model.MovimientoActivo,
	}
	err = conReintentos(ctx, func() error {
		return s.movimientos.Create(ctx, mov)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("movimiento_id", mov.ID.String()).
		Str("sesion_id", sesionID.String()).
		Str("tipo", mov.Tipo).
		Str("monto", mov.Monto.String()).
		Msg("movimiento de caja registrado")

	resp := movimientoToResponse(mov)
	return &resp, nil
}

func (s *movimientoService) Anular(ctx context.Context, movimientoID, usuarioID uuid.UUID, motivo string) error {
	mov, err := s.movimientos.FindByID(ctx, movimientoID)
	if err != nil {
		return err
	}
	if mov.Estado == model.MovimientoAnulado {
		return ErrMovimientoAnulado
	}

	// Movements follow their session's lifecycle: once the session left
	// abierta, its ledger is frozen for the audit trail.
	sesion, err := s.sesiones.FindByID(ctx, mov.SesionCajaID)
	if err != nil {
		return err
	}
	if sesion.Estado != model.SesionAbierta {
		return ErrSesionNoAbierta
	}

	var won bool
	err = conReintentos(ctx, func() error {
		var txErr error
		won, txErr = s.movimientos.Anular(ctx, movimientoID, usuarioID, motivo, time.Now())
		return txErr
	})
	if err != nil {
		return err
	}
	if !won {
		// A concurrent voider got there first.
		return ErrMovimientoAnulado
	}

	log.Info().
		Str("movimiento_id", movimientoID.String()).
		Str("motivo", motivo).
		Msg("movimiento de caja anulado")
	return nil
}

func (s *movimientoService) ListarPorSesion(ctx context.Context, sesionID uuid.UUID) ([]dto.MovimientoResponse, error) {
	if _, err := s.sesiones.FindByID(ctx, sesionID); err != nil {
		return nil, err
	}
	movs, err := s.movimientos.ListPorSesion(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovimientoResponse, 0, len(movs))
	for i := range movs {
		out = append(out, movimientoToResponse(&movs[i]))
	}
	return out, nil
}

func movimientoToResponse(m *model.MovimientoCaja) dto.MovimientoResponse {
	resp := dto.MovimientoResponse{
		ID:           m.ID.String(),
		SesionCajaID: m.SesionCajaID.String(),
		Tipo:         m.Tipo,
		Motivo:       m.Motivo,
		MetodoPago:   m.MetodoPago,
		Monto:        m.Monto,
		Nota:         m.Nota,
		UsuarioID:    m.UsuarioID.String(),
		Estado:       m.Estado,
		CreatedAt:    m.CreatedAt.Format(time.RFC3339),
	}
	resp.MotivoAnulacion = m.MotivoAnulacion
	if m.UsuarioAnulacion != nil {
		u := m.UsuarioAnulacion.String()
		resp.UsuarioAnulacion = &u
	}
	if m.AnuladoAt != nil {
		t := m.AnuladoAt.Format(time.RFC3339)
		resp.AnuladoAt = &t
	}
	return resp
}
