package worker

// autocierre_cron.go
// Background goroutine that periodically force-closes sessions still open
// past the daily business cutoff, moving them to pendiente_arqueo so a human
// resolves the reconciliation later. The sweep is idempotent: the session
// state CAS skips anything no longer open, so re-firing or racing a manual
// close never double-processes.

import (
	"context"
	"errors"
	"time"

	"cajaledger/internal/config"
	"cajaledger/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// sweepLockKey serializes the sweep across server instances. Losing the lock
// is harmless (the CAS already protects each session); it just avoids N
// instances scanning the same rows every tick.
const sweepLockKey = "lock:autocierre"

// AutoCierre holds the sweep dependencies.
type AutoCierre struct {
	Sesiones   service.SesionService
	RDB        *redis.Client // nil disables the cross-instance lock
	Hora       int
	Zona       *time.Location
	Intervalo  time.Duration
	LoteMaximo int
}

// NewAutoCierre builds the cron from configuration; the timezone must parse
// or the cutoff would drift around day boundaries.
func NewAutoCierre(sesiones service.SesionService, rdb *redis.Client, cfg *config.Config) (*AutoCierre, error) {
	zona, err := time.LoadLocation(cfg.AutocierreTZ)
	if err != nil {
		return nil, err
	}
	return &AutoCierre{
		Sesiones:   sesiones,
		RDB:        rdb,
		Hora:       cfg.AutocierreHora,
		Zona:       zona,
		Intervalo:  time.Duration(cfg.AutocierreIntervalo) * time.Minute,
		LoteMaximo: cfg.AutocierreLoteMaximo,
	}, nil
}

// Start launches the background goroutine. It respects the context for
// graceful shutdown.
func (a *AutoCierre) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(a.Intervalo)
		defer ticker.Stop()

		log.Info().
			Int("hora_corte", a.Hora).
			Str("zona", a.Zona.String()).
			Msg("autocierre: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("autocierre: shutting down")
				return
			case <-ticker.C:
				a.Sweep(ctx, time.Now())
			}
		}
	}()
}

// CorteAnterior returns the most recent daily cutoff instant at or before
// now, in the configured timezone. Timezone-explicit on purpose: the day
// boundary must not shift with the server's locale.
func (a *AutoCierre) CorteAnterior(now time.Time) time.Time {
	local := now.In(a.Zona)
	corte := time.Date(local.Year(), local.Month(), local.Day(), a.Hora, 0, 0, 0, a.Zona)
	if corte.After(local) {
		corte = corte.AddDate(0, 0, -1)
	}
	return corte
}

// Sweep force-closes every session still open whose opening predates the
// cutoff. Each session is processed independently: one failure never aborts
// the rest of the sweep.
func (a *AutoCierre) Sweep(ctx context.Context, now time.Time) {
	if a.RDB != nil {
		ok, err := a.RDB.SetNX(ctx, sweepLockKey, "1", a.Intervalo/2).Result()
		if err != nil {
			log.Error().Err(err).Msg("autocierre: sweep lock unavailable")
			return
		}
		if !ok {
			log.Debug().Msg("autocierre: another instance holds the sweep lock")
			return
		}
	}

	corte := a.CorteAnterior(now)
	sesiones, err := a.Sesiones.ListarAbiertasAntes(ctx, corte, a.LoteMaximo)
	if err != nil {
		log.Error().Err(err).Msg("autocierre: failed to list open sessions")
		return
	}
	if len(sesiones) == 0 {
		return
	}

	log.Info().Int("count", len(sesiones)).Time("corte", corte).Msg("autocierre: processing open sessions past cutoff")

	for i := range sesiones {
		s := &sesiones[i]
		err := a.Sesiones.ForzarCierreAutomatico(ctx, s.ID)
		switch {
		case err == nil:
			log.Info().Str("sesion_id", s.ID.String()).Msg("autocierre: sesión movida a pendiente_arqueo")
		case errors.Is(err, service.ErrSesionNoAbierta):
			// A manual close won the race — nothing to do.
			log.Debug().Str("sesion_id", s.ID.String()).Msg("autocierre: sesión ya no estaba abierta")
		default:
			log.Error().Err(err).Str("sesion_id", s.ID.String()).Msg("autocierre: failed to force-close")
		}
	}
}
