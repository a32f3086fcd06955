package worker

// alerta_worker.go
// Processes discrepancy-alert jobs from QueueAlertas: when a session closed
// with |diferencia| above the tolerance, the supervisor address gets a
// plain-text summary. Failed sends go to the DLQ for manual inspection
// instead of being silently dropped.

import (
	"context"
	"encoding/json"
	"fmt"

	"cajaledger/internal/infra"
	"cajaledger/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// AlertaWorker sends discrepancy alerts over SMTP.
type AlertaWorker struct {
	mailer *infra.Mailer
	para   string
}

func NewAlertaWorker(mailer *infra.Mailer, para string) *AlertaWorker {
	return &AlertaWorker{mailer: mailer, para: para}
}

func (w *AlertaWorker) Process(ctx context.Context, rdb *redis.Client, raw json.RawMessage, attempts int) {
	var alerta service.AlertaDesvio
	if err := json.Unmarshal(raw, &alerta); err != nil {
		log.Error().Err(err).Msg("alerta_worker: invalid payload")
		return
	}
	if w.para == "" {
		log.Warn().Msg("alerta_worker: ALERTA_EMAIL_PARA not configured — skipping")
		return
	}

	subject := fmt.Sprintf("Arqueo con desvío: sesión %s", alerta.SesionCajaID)
	body := fmt.Sprintf(
		"La sesión %s (caja %s) cerró con una diferencia de %s, por encima de la tolerancia de %s.\n\n"+
			"Justificación del cajero: %s\n"+
			"Registrado por: %s\n",
		alerta.SesionCajaID, alerta.CajaID,
		alerta.Diferencia.StringFixed(2), alerta.Tolerancia.StringFixed(2),
		alerta.Nota, alerta.UsuarioID,
	)

	if err := w.mailer.SendAlerta(w.para, subject, body); err != nil {
		log.Error().Err(err).Str("sesion_id", alerta.SesionCajaID).Msg("alerta_worker: failed to send alert")
		SendToDLQ(ctx, rdb, QueueAlertas, JobAlertaDesvio, raw, err.Error(), attempts+1)
		return
	}
	log.Info().Str("sesion_id", alerta.SesionCajaID).Msg("alerta_worker: alerta de desvío enviada")
}
