package service

import (
	"context"
	"errors"
	"time"

	"cajaledger/internal/dto"
	"cajaledger/internal/model"
	"cajaledger/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SesionService owns the register-session state machine:
//
//	abierta ──(arqueo aceptado)──────────────► cerrada
//	abierta ──(corte automático)─► pendiente_arqueo ──(arqueo)─► cerrada
//
// There is no path out of cerrada, and nothing ever returns to abierta.
type SesionService interface {
	Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirSesionRequest) (*dto.SesionResponse, error)
	// SolicitarCierre is the manual-close guard: it never closes a session by
	// itself, it only reports whether the arqueo workflow still has to run.
	SolicitarCierre(ctx context.Context, sesionID, usuarioID uuid.UUID, req dto.SolicitarCierreRequest) error
	// ForzarCierreAutomatico is called only by the auto-close sweep.
	ForzarCierreAutomatico(ctx context.Context, sesionID uuid.UUID) error
	GetActiva(ctx context.Context, cajaID uuid.UUID) (*dto.SesionResponse, error)
	Historial(ctx context.Context, cajaID uuid.UUID, page, limit int) ([]dto.SesionResponse, int64, error)
	SaldoEsperado(ctx context.Context, sesionID uuid.UUID) (*dto.SaldoEsperadoResponse, error)
	// ListarAbiertasAntes feeds the scheduler.
	ListarAbiertasAntes(ctx context.Context, cutoff time.Time, limit int) ([]model.SesionCaja, error)
}

type sesionService struct {
	cajas       repository.CajaRepository
	sesiones    repository.SesionRepository
	movimientos repository.MovimientoRepository
	ventas      repository.VentaRepository
}

func NewSesionService(
	cajas repository.CajaRepository,
	sesiones repository.SesionRepository,
	movimientos repository.MovimientoRepository,
	ventas repository.VentaRepository,
) SesionService {
	return &sesionService{
		cajas:       cajas,
		sesiones:    sesiones,
		movimientos: movimientos,
		ventas:      ventas,
	}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────

func (s *sesionService) Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirSesionRequest) (*dto.SesionResponse, error) {
	cajaID, err := uuid.Parse(req.CajaID)
	if err != nil {
		return nil, err
	}

	caja, err := s.cajas.FindByID(ctx, cajaID)
	if err != nil {
		return nil, err
	}
	if caja.Estado != model.CajaActiva {
		return nil, ErrCajaInactiva
	}

	// Fast-path occupancy check. The authoritative guard is the partial
	// unique index on (caja_id) WHERE estado='abierta': two concurrent
	// openers can both pass this read, but only one insert commits.
	if _, err := s.sesiones.FindAbiertaPorCaja(ctx, cajaID); err == nil {
		return nil, ErrCajaOcupada
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if req.MontoInicial.IsNegative() {
		return nil, ErrMontoInvalido
	}

	sesion := &model.SesionCaja{
		CajaID:          cajaID,
		UsuarioApertura: usuarioID,
		MontoInicial:    req.MontoInicial,
		NotaApertura:    req.Nota,
		Estado:          model.SesionAbierta,
		OpenedAt:        time.Now(),
	}
	err = conReintentos(ctx, func() error {
		return s.sesiones.Create(ctx, sesion)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the race against another opener.
		return nil, ErrCajaOcupada
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sesion_id", sesion.ID.String()).
		Str("caja_id", cajaID.String()).
		Str("monto_inicial", sesion.MontoInicial.String()).
		Msg("sesión de caja abierta")

	resp := sesionToResponse(sesion)
	return &resp, nil
}

// ── SolicitarCierre ───────────────────────────────────────────────────────────
// A session is only ever closed by an accepted arqueo (ArqueoService), so a
// non-closed session by construction has no arqueo yet: the caller is told to
// run the arqueo first. A closed session rejects any further close.

func (s *sesionService) SolicitarCierre(ctx context.Context, sesionID, _ uuid.UUID, _ dto.SolicitarCierreRequest) error {
	sesion, err := s.sesiones.FindByID(ctx, sesionID)
	if err != nil {
		return err
	}
	if sesion.Cerrada() {
		return ErrSesionCerrada
	}
	return ErrArqueoRequerido
}

// ── ForzarCierreAutomatico ────────────────────────────────────────────────────
// abierta → pendiente_arqueo with a system reason. The arqueo arrives later,
// supplied by a human completing the pending reconciliation.

func (s *sesionService) ForzarCierreAutomatico(ctx context.Context, sesionID uuid.UUID) error {
	cierre := repository.CierreSesion{
		ClosedAt:         time.Now(),
		MotivoCierre:     model.CierreAutomatico,
		CierreAutomatico: true,
	}

	var won bool
	err := conReintentos(ctx, func() error {
		var txErr error
		won, txErr = s.sesiones.Transition(ctx, sesionID,
			[]string{model.SesionAbierta}, model.SesionPendienteArqueo, cierre)
		return txErr
	})
	if err != nil {
		return err
	}
	if !won {
		// Someone closed it first — the sweep treats this as a skip.
		return ErrSesionNoAbierta
	}

	log.Info().Str("sesion_id", sesionID.String()).Msg("sesión forzada a pendiente_arqueo por corte automático")
	return nil
}

// ── Read paths ────────────────────────────────────────────────────────────────

func (s *sesionService) GetActiva(ctx context.Context, cajaID uuid.UUID) (*dto.SesionResponse, error) {
	sesion, err := s.sesiones.FindAbiertaPorCaja(ctx, cajaID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	resp := sesionToResponse(sesion)
	return &resp, nil
}

func (s *sesionService) Historial(ctx context.Context, cajaID uuid.UUID, page, limit int) ([]dto.SesionResponse, int64, error) {
	sesiones, total, err := s.sesiones.ListPorCaja(ctx, cajaID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.SesionResponse, 0, len(sesiones))
	for i := range sesiones {
		out = append(out, sesionToResponse(&sesiones[i]))
	}
	return out, total, nil
}

func (s *sesionService) SaldoEsperado(ctx context.Context, sesionID uuid.UUID) (*dto.SaldoEsperadoResponse, error) {
	sesion, err := s.sesiones.FindByID(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	if !sesion.AceptaArqueo() {
		return nil, ErrSesionCerrada
	}

	esperado, err := saldoEsperadoDeSesion(ctx, sesion, s.movimientos, s.ventas)
	if err != nil {
		return nil, err
	}
	return &dto.SaldoEsperadoResponse{
		SesionCajaID: sesion.ID.String(),
		Esperado:     esperado,
	}, nil
}

func (s *sesionService) ListarAbiertasAntes(ctx context.Context, cutoff time.Time, limit int) ([]model.SesionCaja, error) {
	return s.sesiones.ListAbiertasAntes(ctx, cutoff, limit)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// saldoEsperadoDeSesion loads the persisted facts and feeds the pure
// calculator. Shared by the read path and the arqueo workflow.
func saldoEsperadoDeSesion(ctx context.Context, sesion *model.SesionCaja, movimientos repository.MovimientoRepository, ventas repository.VentaRepository) (dto.MontosPorMetodo, error) {
	movSums, err := movimientos.SumActivosPorMetodo(ctx, sesion.ID)
	if err != nil {
		return dto.MontosPorMetodo{}, err
	}
	ventaSums, err := ventas.SumPagosPorMetodo(ctx, sesion.ID)
	if err != nil {
		return dto.MontosPorMetodo{}, err
	}
	return CalcularSaldoEsperado(sesion.MontoInicial, movSums, ventaSums), nil
}

func sesionToResponse(s *model.SesionCaja) dto.SesionResponse {
	resp := dto.SesionResponse{
		ID:               s.ID.String(),
		CajaID:           s.CajaID.String(),
		UsuarioApertura:  s.UsuarioApertura.String(),
		MontoInicial:     s.MontoInicial,
		NotaApertura:     s.NotaApertura,
		Estado:           s.Estado,
		OpenedAt:         s.OpenedAt.Format(time.RFC3339),
		CierreAutomatico: s.CierreAutomatico,
	}
	if s.ClosedAt != nil {
		t := s.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &t
	}
	if s.UsuarioCierre != nil {
		u := s.UsuarioCierre.String()
		resp.UsuarioCierre = &u
	}
	resp.MotivoCierre = s.MotivoCierre
	resp.MontoFinalEfectivo = s.MontoFinalEfectivo
	return resp
}
