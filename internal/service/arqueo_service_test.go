package service

import (
	"context"
	"sync"
	"testing"

	"cajaledger/internal/dto"
	"cajaledger/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Counted matches expected exactly: difference zero, no note needed, session
// closed with the counted cash stamped on it.
func TestArqueoSinDiferencia(t *testing.T) {
	e := nuevoEntorno()
	caja := e.crearCaja(model.CajaActiva)
	sesion := e.abrirSesion(caja.ID, "100.00")
	sesionID := uuid.MustParse(sesion.ID)
	usuario := uuid.New()
	registrarMovimiento(t, e, sesionID, usuario, model.MovimientoIngreso, model.MetodoEfectivo, "50.00")
	e.ventas.registrarPago(sesionID, model.MetodoEfectivo, d("30.00"))
	e.ventas.registrarPago(sesionID, model.MetodoTarjeta, d("20.00"))

	resp, err := e.arqueoSvc("10.00", nil).Arqueo(context.Background(), sesionID, usuario, dto.ArqueoRequest{
		Declaracion: dto.DeclaracionArqueo{Efectivo: d("180.00"), Tarjeta: d("20.00")},
	})
	require.NoError(t, err)
	assert.True(t, resp.Diferencia.IsZero())
	assert.True(t, resp.Esperado.Total.Equal(d("200.00")))
	assert.True(t, resp.Contado.Total.Equal(d("200.00")))
	assert.Equal(t, model.SesionCerrada, resp.Estado)

	guardada, err := e.sesiones.FindByID(context.Background(), sesionID)
	require.NoError(t, err)
	assert.Equal(t, model.SesionCerrada, guardada.Estado)
	require.NotNil(t, guardada.MontoFinalEfectivo)
	assert.True(t, guardada.MontoFinalEfectivo.Equal(d("180.00")))
	require.NotNil(t, guardada.MotivoCierre)
	assert.Equal(t, model.CierreManual, *guardada.MotivoCierre)
	require.NotNil(t, guardada.UsuarioCierre)
	assert.Equal(t, usuario, *guardada.UsuarioCierre)
}

// Boundary behavior around the tolerance T:
//   |diff| <= T  → accepted without note
//   |diff| >  T  → blank note rejected, non-blank note accepted
func TestArqueoToleranciaLimite(t *testing.T) {
	casos := []struct {
		nombre      string
		contado     string
		nota        *string
		esperaError error
	}{
		{"dentro de tolerancia sin nota", "95.00", nil, nil},
		{"exactamente la tolerancia sin nota", "90.00", nil, nil},
		{"sobre la tolerancia sin nota", "89.99", nil, ErrJustificacionRequerida},
		{"sobre la tolerancia con nota en blanco", "89.99", notaStr("   "), ErrJustificacionRequerida},
		{"sobre la tolerancia con nota", "89.99", notaStr("faltante reportado al supervisor"), nil},
		{"sobrante sobre la tolerancia sin nota", "110.01", nil, ErrJustificacionRequerida},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			e := nuevoEntorno()
			caja := e.crearCaja(model.CajaActiva)
			sesion := e.abrirSesion(caja.ID, "100.00")
			sesionID := uuid.MustParse(sesion.ID)

			_, err := e.arqueoSvc("10.00", nil).Arqueo(context.Background(), sesionID, uuid.New(), dto.ArqueoRequest{
				Declaracion: dto.DeclaracionArqueo{Efectivo: d(c.contado)},
				Nota:        c.nota,
			})
			if c.esperaError != nil {
				assert.ErrorIs(t, err, c.esperaError)
				// Rejection persists nothing: the session stays open.
				guardada, ferr := e.sesiones.FindByID(context.Background(), sesionID)
				require.NoError(t, ferr)
				assert.Equal(t, model.SesionAbierta, guardada.Estado)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestArqueoSesionYaCerrada(t *testing.T) {
	e := nuevoEntorno()
	caja := e.crearCaja(model.CajaActiva)
	sesion := e.abrirSesion(caja.ID, "100.00")
	sesionID := uuid.MustParse(sesion.ID)
	cerrarPorArqueo(t, e, sesionID, dto.DeclaracionArqueo{Efectivo: d("100.00")}, nil)

	_, err := e.arqueoSvc("10.00", nil).Arqueo(context.Background(), sesionID, uuid.New(), dto.ArqueoRequest{
		Declaracion: dto.DeclaracionArqueo{Efectivo: d("100.00")},
	})
	assert.ErrorIs(t, err, ErrArqueoYaRealizado)
}

// Two concurrent arqueos on the same session: exactly one closes it, exactly
// one arqueo row exists afterwards.
func TestArqueoConcurrente(t *testing.T) {
	e := nuevoEntorno()
	caja := e.crearCaja(model.CajaActiva)
	sesion := e.abrirSesion(caja.ID, "100.00")
	sesionID := uuid.MustParse(sesion.ID)
	svc := e.arqueoSvc("10.00", nil)

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Arqueo(context.Background(), sesionID, uuid.New(), dto.ArqueoRequest{
				Declaracion: dto.DeclaracionArqueo{Efectivo: d("100.00")},
			})
		}(i)
	}
	wg.Wait()

	exitos := 0
	for _, err := range errs {
		if err == nil {
			exitos++
		} else {
			assert.ErrorIs(t, err, ErrArqueoYaRealizado)
		}
	}
	assert.Equal(t, 1, exitos)

	_, err := e.arqueos.FindPorSesion(context.Background(), sesionID)
	assert.NoError(t, err)
}

// An auto-closed session resolved by a late arqueo keeps its automatic-cut
// provenance: CierreAutomatico stays true and the motivo stays
// corte_automatico even though a human finished the reconciliation.
func TestArqueoSesionPendiente(t *testing.T) {
	e := nuevoEntorno()
	caja := e.crearCaja(model.CajaActiva)
	sesion := e.abrirSesion(caja.ID, "100.00")
	sesionID := uuid.MustParse(sesion.ID)
	require.NoError(t, e.sesionSvc.ForzarCierreAutomatico(context.Background(), sesionID))

	// A plain close still demands the arqueo.
	err := e.sesionSvc.SolicitarCierre(context.Background(), sesionID, uuid.New(), dto.SolicitarCierreRequest{Motivo: "fin de turno"})
	assert.ErrorIs(t, err, ErrArqueoRequerido)

	usuario := uuid.New()
	resp, err := e.arqueoSvc("10.00", nil).Arqueo(context.Background(), sesionID, usuario, dto.ArqueoRequest{
		Declaracion: dto.DeclaracionArqueo{Efectivo: d("100.00")},
	})
	require.NoError(t, err)
	assert.Equal(t, model.SesionCerrada, resp.Estado)

	guardada, err := e.sesiones.FindByID(context.Background(), sesionID)
	require.NoError(t, err)
	assert.Equal(t, model.SesionCerrada, guardada.Estado)
	assert.True(t, guardada.CierreAutomatico)
	require.NotNil(t, guardada.MotivoCierre)
	assert.Equal(t, model.CierreAutomatico, *guardada.MotivoCierre)
}

func TestArqueoNotificaDesvio(t *testing.T) {
	e := nuevoEntorno()
	caja := e.crearCaja(model.CajaActiva)
	sesion := e.abrirSesion(caja.ID, "100.00")
	sesionID := uuid.MustParse(sesion.ID)

	notificador := &fakeNotificador{}
	usuario := uuid.New()
	_, err := e.arqueoSvc("10.00", notificador).Arqueo(context.Background(), sesionID, usuario, dto.ArqueoRequest{
		Declaracion: dto.DeclaracionArqueo{Efectivo: d("80.00")},
		Nota:        notaStr("faltante en caja chica"),
	})
	require.NoError(t, err)

	alertas := notificador.recibidas()
	require.Len(t, alertas, 1)
	assert.Equal(t, sesion.ID, alertas[0].SesionCajaID)
	assert.Equal(t, caja.ID.String(), alertas[0].CajaID)
	assert.True(t, alertas[0].Diferencia.Equal(d("-20.00")))
	assert.Equal(t, "faltante en caja chica", alertas[0].Nota)
}

func TestArqueoDentroDeToleranciaNoNotifica(t *testing.T) {
	e := nuevoEntorno()
	caja := e.crearCaja(model.CajaActiva)
	sesion := e.abrirSesion(caja.ID, "100.00")
	sesionID := uuid.MustParse(sesion.ID)

	notificador := &fakeNotificador{}
	_, err := e.arqueoSvc("10.00", notificador).Arqueo(context.Background(), sesionID, uuid.New(), dto.ArqueoRequest{
		Declaracion: dto.DeclaracionArqueo{Efectivo: d("95.00")},
	})
	require.NoError(t, err)
	assert.Empty(t, notificador.recibidas())
}

func TestObtenerArqueoPorSesion(t *testing.T) {
	e := nuevoEntorno()
	caja := e.crearCaja(model.CajaActiva)
	sesion := e.abrirSesion(caja.ID, "100.00")
	sesionID := uuid.MustParse(sesion.ID)
	cerrarPorArqueo(t, e, sesionID, dto.DeclaracionArqueo{Efectivo: d("98.00")}, nil)

	svc := e.arqueoSvc("10.00", nil)
	resp, err := svc.ObtenerPorSesion(context.Background(), sesionID)
	require.NoError(t, err)
	assert.Equal(t, sesion.ID, resp.SesionCajaID)
	assert.True(t, resp.Diferencia.Equal(d("-2.00")))
	assert.True(t, resp.Contado.Efectivo.Equal(d("98.00")))
	assert.True(t, resp.Esperado.Efectivo.Equal(d("100.00")))
}

// Full shift walkthrough: open with a cash fund, add a deposit, sell in two
// methods, void the deposit, reconcile a shortfall over tolerance.
func TestFlujoCompletoDeTurno(t *testing.T) {
	e := nuevoEntorno()
	caja := e.crearCaja(model.CajaActiva)
	sesion := e.abrirSesion(caja.ID, "100.00")
	sesionID := uuid.MustParse(sesion.ID)
	cajero := uuid.New()

	mov := registrarMovimiento(t, e, sesionID, cajero, model.MovimientoIngreso, model.MetodoEfectivo, "50.00")
	e.ventas.registrarPago(sesionID, model.MetodoEfectivo, d("30.00"))
	e.ventas.registrarPago(sesionID, model.MetodoTarjeta, d("20.00"))

	saldo, err := e.sesionSvc.SaldoEsperado(context.Background(), sesionID)
	require.NoError(t, err)
	assert.True(t, saldo.Esperado.Efectivo.Equal(d("180.00")))
	assert.True(t, saldo.Esperado.Tarjeta.Equal(d("20.00")))

	require.NoError(t, e.movimientoSvc.Anular(context.Background(), uuid.MustParse(mov.ID), cajero, "depósito duplicado"))

	saldo, err = e.sesionSvc.SaldoEsperado(context.Background(), sesionID)
	require.NoError(t, err)
	assert.True(t, saldo.Esperado.Efectivo.Equal(d("130.00")))
	assert.True(t, saldo.Esperado.Total.Equal(d("150.00")))

	svc := e.arqueoSvc("10.00", nil)
	// Counted 148 cash + 20 card against 150 total: diff +18, over tolerance.
	_, err = svc.Arqueo(context.Background(), sesionID, cajero, dto.ArqueoRequest{
		Declaracion: dto.DeclaracionArqueo{Efectivo: d("148.00"), Tarjeta: d("20.00")},
	})
	assert.ErrorIs(t, err, ErrJustificacionRequerida)

	resp, err := svc.Arqueo(context.Background(), sesionID, cajero, dto.ArqueoRequest{
		Declaracion: dto.DeclaracionArqueo{Efectivo: d("148.00"), Tarjeta: d("20.00")},
		Nota:        notaStr("sobrante por vuelto no entregado"),
	})
	require.NoError(t, err)
	assert.True(t, resp.Diferencia.Equal(d("18.00")))
	assert.Equal(t, model.SesionCerrada, resp.Estado)

	// The drawer is immediately reusable.
	_, err = e.sesionSvc.Abrir(context.Background(), uuid.New(), dto.AbrirSesionRequest{
		CajaID:       caja.ID.String(),
		MontoInicial: d("148.00"),
	})
	assert.NoError(t, err)
}
