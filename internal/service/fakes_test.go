package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"cajaledger/internal/config"
	"cajaledger/internal/dto"
	"cajaledger/internal/model"
	"cajaledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory fakes ──────────────────────────────────────────────────────────
// The fakes reproduce the store-level guarantees the services rely on: the
// unique open-session index (Create fails with gorm.ErrDuplicatedKey), the
// state CAS on transitions, and the activo → anulado CAS on movements. All
// of them are mutex-guarded so the race tests exercise real interleavings.

type fakeCajaRepo struct {
	mu    sync.Mutex
	cajas map[uuid.UUID]*model.Caja
}

func newFakeCajaRepo() *fakeCajaRepo {
	return &fakeCajaRepo{cajas: make(map[uuid.UUID]*model.Caja)}
}

func (r *fakeCajaRepo) Create(_ context.Context, c *model.Caja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	cp := *c
	r.cajas[c.ID] = &cp
	return nil
}

func (r *fakeCajaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Caja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cajas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCajaRepo) List(_ context.Context, empresaID *uuid.UUID) ([]model.Caja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Caja
	for _, c := range r.cajas {
		if empresaID == nil || c.EmpresaID == *empresaID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCajaRepo) UpdateEstado(_ context.Context, id uuid.UUID, estado string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cajas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Estado = estado
	return nil
}

type fakeSesionRepo struct {
	mu       sync.Mutex
	sesiones map[uuid.UUID]*model.SesionCaja
	arqueos  *fakeArqueoRepo // CerrarConArqueo writes here when set
}

func newFakeSesionRepo() *fakeSesionRepo {
	return &fakeSesionRepo{sesiones: make(map[uuid.UUID]*model.SesionCaja)}
}

func (r *fakeSesionRepo) Create(_ context.Context, s *model.SesionCaja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// uq_sesiones_caja_abierta: at most one 'abierta' row per caja.
	for _, existente := range r.sesiones {
		if existente.CajaID == s.CajaID && existente.Estado == model.SesionAbierta {
			return gorm.ErrDuplicatedKey
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.sesiones[s.ID] = &cp
	return nil
}

func (r *fakeSesionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sesiones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSesionRepo) FindAbiertaPorCaja(_ context.Context, cajaID uuid.UUID) (*model.SesionCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sesiones {
		if s.CajaID == cajaID && s.Estado == model.SesionAbierta {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSesionRepo) ListPorCaja(_ context.Context, cajaID uuid.UUID, _, _ int) ([]model.SesionCaja, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.SesionCaja
	for _, s := range r.sesiones {
		if s.CajaID == cajaID {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeSesionRepo) ListAbiertasAntes(_ context.Context, cutoff time.Time, limit int) ([]model.SesionCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.SesionCaja
	for _, s := range r.sesiones {
		if s.Estado == model.SesionAbierta && s.OpenedAt.Before(cutoff) {
			out = append(out, *s)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func aplicarCierre(s *model.SesionCaja, nuevoEstado string, c repository.CierreSesion) {
	s.Estado = nuevoEstado
	t := c.ClosedAt
	s.ClosedAt = &t
	m := c.MotivoCierre
	s.MotivoCierre = &m
	s.CierreAutomatico = c.CierreAutomatico
	if c.UsuarioCierre != nil {
		u := *c.UsuarioCierre
		s.UsuarioCierre = &u
	}
	if c.MontoFinalEfectivo != nil {
		d := *c.MontoFinalEfectivo
		s.MontoFinalEfectivo = &d
	}
}

func estadoEn(estado string, fromEstados []string) bool {
	for _, e := range fromEstados {
		if e == estado {
			return true
		}
	}
	return false
}

func (r *fakeSesionRepo) Transition(_ context.Context, id uuid.UUID, fromEstados []string, nuevoEstado string, cierre repository.CierreSesion) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sesiones[id]
	if !ok || !estadoEn(s.Estado, fromEstados) {
		return false, nil
	}
	aplicarCierre(s, nuevoEstado, cierre)
	return true, nil
}

func (r *fakeSesionRepo) CerrarConArqueo(_ context.Context, id uuid.UUID, fromEstados []string, cierre repository.CierreSesion, arqueo *model.Arqueo) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sesiones[id]
	if !ok || !estadoEn(s.Estado, fromEstados) {
		return false, nil
	}
	aplicarCierre(s, model.SesionCerrada, cierre)
	if arqueo.ID == uuid.Nil {
		arqueo.ID = uuid.New()
	}
	if r.arqueos != nil {
		r.arqueos.guardar(arqueo)
	}
	return true, nil
}

type fakeMovimientoRepo struct {
	mu          sync.Mutex
	movimientos map[uuid.UUID]*model.MovimientoCaja
}

func newFakeMovimientoRepo() *fakeMovimientoRepo {
	return &fakeMovimientoRepo{movimientos: make(map[uuid.UUID]*model.MovimientoCaja)}
}

func (r *fakeMovimientoRepo) Create(_ context.Context, m *model.MovimientoCaja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	cp := *m
	r.movimientos[m.ID] = &cp
	return nil
}

func (r *fakeMovimientoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.MovimientoCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movimientos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMovimientoRepo) ListPorSesion(_ context.Context, sesionID uuid.UUID) ([]model.MovimientoCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MovimientoCaja
	for _, m := range r.movimientos {
		if m.SesionCajaID == sesionID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMovimientoRepo) Anular(_ context.Context, id uuid.UUID, usuarioID uuid.UUID, motivo string, cuando time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movimientos[id]
	if !ok || m.Estado != model.MovimientoActivo {
		return false, nil
	}
	m.Estado = model.MovimientoAnulado
	m.MotivoAnulacion = &motivo
	u := usuarioID
	m.UsuarioAnulacion = &u
	t := cuando
	m.AnuladoAt = &t
	return true, nil
}

func (r *fakeMovimientoRepo) SumActivosPorMetodo(_ context.Context, sesionID uuid.UUID) (map[string]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sums := make(map[string]decimal.Decimal)
	for _, m := range r.movimientos {
		if m.SesionCajaID == sesionID && m.Estado == model.MovimientoActivo {
			sums[m.MetodoPago] = sums[m.MetodoPago].Add(m.MontoFirmado())
		}
	}
	return sums, nil
}

// fakeVentaRepo returns canned per-session payment sums; the sales subsystem
// is external and this engine only reads its aggregates.
type fakeVentaRepo struct {
	mu    sync.Mutex
	pagos map[uuid.UUID]map[string]decimal.Decimal
}

func newFakeVentaRepo() *fakeVentaRepo {
	return &fakeVentaRepo{pagos: make(map[uuid.UUID]map[string]decimal.Decimal)}
}

func (r *fakeVentaRepo) registrarPago(sesionID uuid.UUID, metodo string, monto decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pagos[sesionID] == nil {
		r.pagos[sesionID] = make(map[string]decimal.Decimal)
	}
	r.pagos[sesionID][metodo] = r.pagos[sesionID][metodo].Add(monto)
}

func (r *fakeVentaRepo) SumPagosPorMetodo(_ context.Context, sesionID uuid.UUID) (map[string]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sums := make(map[string]decimal.Decimal)
	for metodo, monto := range r.pagos[sesionID] {
		sums[metodo] = monto
	}
	return sums, nil
}

type fakeArqueoRepo struct {
	mu      sync.Mutex
	arqueos map[uuid.UUID]*model.Arqueo // keyed by SesionCajaID
}

func newFakeArqueoRepo() *fakeArqueoRepo {
	return &fakeArqueoRepo{arqueos: make(map[uuid.UUID]*model.Arqueo)}
}

func (r *fakeArqueoRepo) guardar(a *model.Arqueo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.arqueos[a.SesionCajaID] = &cp
}

func (r *fakeArqueoRepo) FindPorSesion(_ context.Context, sesionID uuid.UUID) (*model.Arqueo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.arqueos[sesionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

type fakeNotificador struct {
	mu      sync.Mutex
	alertas []AlertaDesvio
}

func (n *fakeNotificador) NotificarDesvio(_ context.Context, alerta AlertaDesvio) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alertas = append(n.alertas, alerta)
}

func (n *fakeNotificador) recibidas() []AlertaDesvio {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]AlertaDesvio(nil), n.alertas...)
}

// ── Shared test scaffolding ──────────────────────────────────────────────────

type entorno struct {
	cajas       *fakeCajaRepo
	sesiones    *fakeSesionRepo
	movimientos *fakeMovimientoRepo
	ventas      *fakeVentaRepo
	arqueos     *fakeArqueoRepo

	sesionSvc     SesionService
	movimientoSvc MovimientoService
}

func nuevoEntorno() *entorno {
	e := &entorno{
		cajas:       newFakeCajaRepo(),
		sesiones:    newFakeSesionRepo(),
		movimientos: newFakeMovimientoRepo(),
		ventas:      newFakeVentaRepo(),
		arqueos:     newFakeArqueoRepo(),
	}
	e.sesiones.arqueos = e.arqueos
	e.sesionSvc = NewSesionService(e.cajas, e.sesiones, e.movimientos, e.ventas)
	e.movimientoSvc = NewMovimientoService(e.movimientos, e.sesiones)
	return e
}

func (e *entorno) crearCaja(estado string) *model.Caja {
	caja := &model.Caja{EmpresaID: uuid.New(), Nombre: "Caja Principal", Estado: estado}
	_ = e.cajas.Create(context.Background(), caja)
	return caja
}

func (e *entorno) abrirSesion(cajaID uuid.UUID, montoInicial string) *dto.SesionResponse {
	resp, err := e.sesionSvc.Abrir(context.Background(), uuid.New(), dto.AbrirSesionRequest{
		CajaID:       cajaID.String(),
		MontoInicial: decimal.RequireFromString(montoInicial),
	})
	if err != nil {
		panic(err)
	}
	return resp
}

func (e *entorno) arqueoSvc(tolerancia string, notificador Notificador) ArqueoService {
	cfg := &config.Config{ToleranciaArqueo: tolerancia}
	return NewArqueoService(e.sesiones, e.movimientos, e.ventas, e.arqueos, cfg, notificador)
}

func registrarMovimiento(t *testing.T, e *entorno, sesionID, usuarioID uuid.UUID, tipo, metodo, monto string) *dto.MovimientoResponse {
	t.Helper()
	resp, err := e.movimientoSvc.Registrar(context.Background(), sesionID, usuarioID, dto.RegistrarMovimientoRequest{
		Tipo:       tipo,
		Motivo:     model.MotivoAjuste,
		MetodoPago: metodo,
		Monto:      decimal.RequireFromString(monto),
	})
	if err != nil {
		t.Fatalf("registrar movimiento: %v", err)
	}
	return resp
}

func cerrarPorArqueo(t *testing.T, e *entorno, sesionID uuid.UUID, decl dto.DeclaracionArqueo, nota *string) *dto.ArqueoResponse {
	t.Helper()
	resp, err := e.arqueoSvc("10.00", nil).Arqueo(context.Background(), sesionID, uuid.New(), dto.ArqueoRequest{
		Declaracion: decl,
		Nota:        nota,
	})
	if err != nil {
		t.Fatalf("arqueo: %v", err)
	}
	return resp
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func notaStr(s string) *string { return &s }
