package service

import (
	"context"
	"strings"
	"time"

	"cajaledger/internal/config"
	"cajaledger/internal/dto"
	"cajaledger/internal/model"
	"cajaledger/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// AlertaDesvio is the payload handed to the Notificador when an arqueo closes
// with a discrepancy above the configured tolerance.
type AlertaDesvio struct {
	SesionCajaID string          `json:"sesion_caja_id"`
	CajaID       string          `json:"caja_id"`
	Diferencia   decimal.Decimal `json:"diferencia"`
	Tolerancia   decimal.Decimal `json:"tolerancia"`
	Nota         string          `json:"nota"`
	UsuarioID    string          `json:"usuario_id"`
}

// Notificador decouples the arqueo workflow from the async notification
// machinery. The worker dispatcher implements it; tests pass a fake or nil.
type Notificador interface {
	NotificarDesvio(ctx context.Context, alerta AlertaDesvio)
}

// ArqueoService is the reconciliation engine. An accepted arqueo is the one
// and only way a session reaches cerrada: the snapshot insert and the state
// transition commit in the same store transaction.
type ArqueoService interface {
	Arqueo(ctx context.Context, sesionID, usuarioID uuid.UUID, req dto.ArqueoRequest) (*dto.ArqueoResponse, error)
	ObtenerPorSesion(ctx context.Context, sesionID uuid.UUID) (*dto.ArqueoResponse, error)
}

type arqueoService struct {
	sesiones    repository.SesionRepository
	movimientos repository.MovimientoRepository
	ventas      repository.VentaRepository
	arqueos     repository.ArqueoRepository
	cfg         *config.Config
	notificador Notificador
}

func NewArqueoService(
	sesiones repository.SesionRepository,
	movimientos repository.MovimientoRepository,
	ventas repository.VentaRepository,
	arqueos repository.ArqueoRepository,
	cfg *config.Config,
	notificador Notificador,
) ArqueoService {
	return &arqueoService{
		sesiones:    sesiones,
		movimientos: movimientos,
		ventas:      ventas,
		arqueos:     arqueos,
		cfg:         cfg,
		notificador: notificador,
	}
}

// ── Arqueo ────────────────────────────────────────────────────────────────────
// Accepted from 'abierta' (manual close) and from 'pendiente_arqueo' (an
// auto-closed session being resolved): the same call completes the
// reconciliation and finalizes the close — there is no separate close step.

func (s *arqueoService) Arqueo(ctx context.Context, sesionID, usuarioID uuid.UUID, req dto.ArqueoRequest) (*dto.ArqueoResponse, error) {
	sesion, err := s.sesiones.FindByID(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	if sesion.Cerrada() {
		// A closed session always carries exactly one arqueo.
		return nil, ErrArqueoYaRealizado
	}

	esperado, err := saldoEsperadoDeSesion(ctx, sesion, s.movimientos, s.ventas)
	if err != nil {
		return nil, err
	}

	contado := dto.MontosPorMetodo{
		Efectivo:      req.Declaracion.Efectivo,
		Yape:          req.Declaracion.Yape,
		Transferencia: req.Declaracion.Transferencia,
		Tarjeta:       req.Declaracion.Tarjeta,
		Otro:          req.Declaracion.Otro,
	}.Sumar()

	diferencia := contado.Total.Sub(esperado.Total)
	tolerancia := s.tolerancia()

	if diferencia.Abs().GreaterThan(tolerancia) && notaVacia(req.Nota) {
		return nil, ErrJustificacionRequerida
	}

	ahora := time.Now()
	arqueo := &model.Arqueo{
		SesionCajaID: sesionID,

		ContadoEfectivo:      contado.Efectivo,
		ContadoYape:          contado.Yape,
		ContadoTransferencia: contado.Transferencia,
		ContadoTarjeta:       contado.Tarjeta,
		ContadoOtro:          contado.Otro,

		EsperadoEfectivo:      esperado.Efectivo,
		EsperadoYape:          esperado.Yape,
		EsperadoTransferencia: esperado.Transferencia,
		EsperadoTarjeta:       esperado.Tarjeta,
		EsperadoOtro:          esperado.Otro,

		TotalEsperado: esperado.Total,
		TotalContado:  contado.Total,
		Diferencia:    diferencia,
		Nota:          req.Nota,
		UsuarioID:     usuarioID,
		CreatedAt:     ahora,
	}

	motivo := model.CierreManual
	if sesion.Estado == model.SesionPendienteArqueo {
		motivo = model.CierreAutomatico
	}
	montoFinal := contado.Efectivo
	cierre := repository.CierreSesion{
		ClosedAt:           ahora,
		UsuarioCierre:      &usuarioID,
		MotivoCierre:       motivo,
		CierreAutomatico:   sesion.CierreAutomatico,
		MontoFinalEfectivo: &montoFinal,
	}

	var won bool
	err = conReintentos(ctx, func() error {
		var txErr error
		won, txErr = s.sesiones.CerrarConArqueo(ctx, sesionID,
			[]string{model.SesionAbierta, model.SesionPendienteArqueo}, cierre, arqueo)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	if !won {
		// A concurrent arqueo closed the session between our read and the CAS.
		return nil, ErrArqueoYaRealizado
	}

	log.Info().
		Str("sesion_id", sesionID.String()).
		Str("total_esperado", esperado.Total.String()).
		Str("total_contado", contado.Total.String()).
		Str("diferencia", diferencia.String()).
		Msg("arqueo registrado, sesión cerrada")

	if diferencia.Abs().GreaterThan(tolerancia) && s.notificador != nil {
		s.notificador.NotificarDesvio(ctx, AlertaDesvio{
			SesionCajaID: sesionID.String(),
			CajaID:       sesion.CajaID.String(),
			Diferencia:   diferencia,
			Tolerancia:   tolerancia,
			Nota:         notaODefecto(req.Nota),
			UsuarioID:    usuarioID.String(),
		})
	}

	return arqueoToResponse(arqueo, model.SesionCerrada), nil
}

func (s *arqueoService) ObtenerPorSesion(ctx context.Context, sesionID uuid.UUID) (*dto.ArqueoResponse, error) {
	arqueo, err := s.arqueos.FindPorSesion(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	return arqueoToResponse(arqueo, model.SesionCerrada), nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// tolerancia reads the configured threshold at call time; the value is
// business policy, never hard-coded here.
func (s *arqueoService) tolerancia() decimal.Decimal {
	t, err := decimal.NewFromString(s.cfg.ToleranciaArqueo)
	if err != nil {
		log.Warn().Str("valor", s.cfg.ToleranciaArqueo).Msg("TOLERANCIA_ARQUEO inválida, usando 0")
		return decimal.Zero
	}
	return t
}

func notaVacia(nota *string) bool {
	return nota == nil || strings.TrimSpace(*nota) == ""
}

func notaODefecto(nota *string) string {
	if nota == nil {
		return ""
	}
	return *nota
}

func arqueoToResponse(a *model.Arqueo, estadoSesion string) *dto.ArqueoResponse {
	return &dto.ArqueoResponse{
		ID:           a.ID.String(),
		SesionCajaID: a.SesionCajaID.String(),
		Esperado: dto.MontosPorMetodo{
			Efectivo:      a.EsperadoEfectivo,
			Yape:          a.EsperadoYape,
			Transferencia: a.EsperadoTransferencia,
			Tarjeta:       a.EsperadoTarjeta,
			Otro:          a.EsperadoOtro,
			Total:         a.TotalEsperado,
		},
		Contado: dto.MontosPorMetodo{
			Efectivo:      a.ContadoEfectivo,
			Yape:          a.ContadoYape,
			Transferencia: a.ContadoTransferencia,
			Tarjeta:       a.ContadoTarjeta,
			Otro:          a.ContadoOtro,
			Total:         a.TotalContado,
		},
		Diferencia: a.Diferencia,
		Nota:       a.Nota,
		UsuarioID:  a.UsuarioID.String(),
		Estado:     estadoSesion,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
}
