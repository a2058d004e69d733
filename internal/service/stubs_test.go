package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"stockcocina/internal/model"
	"stockcocina/internal/repository"
	"stockcocina/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory ProductoRepository stub ────────────────────────────────────────

type stubProductoRepo struct {
	mu        sync.Mutex
	productos map[uuid.UUID]*model.Producto
	orden     []uuid.UUID
	updates   []uuid.UUID
	failWrite error

	// trasLeer runs after List has copied the table, before it returns.
	trasLeer func()
	// trasEscribir runs after a successful UpdateCantidad.
	trasEscribir func(id uuid.UUID)
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.productos[p.ID] = &cp
	r.orden = append(r.orden, p.ID)
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductoRepo) List(_ context.Context) ([]model.Producto, error) {
	r.mu.Lock()
	out := make([]model.Producto, 0, len(r.orden))
	for _, id := range r.orden {
		if p, ok := r.productos[id]; ok {
			out = append(out, *p)
		}
	}
	hook := r.trasLeer
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func (r *stubProductoRepo) Update(_ context.Context, p *model.Producto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.productos[p.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *p
	cp.Cantidad = cur.Cantidad
	r.productos[p.ID] = &cp
	return nil
}

func (r *stubProductoRepo) UpdateCantidad(_ context.Context, id uuid.UUID, cantidad decimal.Decimal) error {
	r.mu.Lock()
	if r.failWrite != nil {
		r.mu.Unlock()
		return r.failWrite
	}
	p, ok := r.productos[id]
	if !ok {
		r.mu.Unlock()
		return gorm.ErrRecordNotFound
	}
	p.Cantidad = cantidad
	r.updates = append(r.updates, id)
	hook := r.trasEscribir
	r.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	return nil
}

func (r *stubProductoRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.productos, id)
	return nil
}

func (r *stubProductoRepo) stored(id uuid.UUID) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.productos[id].Cantidad
}

func (r *stubProductoRepo) updatesDe(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.updates {
		if u == id {
			n++
		}
	}
	return n
}

func (r *stubProductoRepo) setHooks(trasLeer func(), trasEscribir func(uuid.UUID)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trasLeer = trasLeer
	r.trasEscribir = trasEscribir
}

func (r *stubProductoRepo) setFail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWrite = err
}

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

// ── In-memory RecetaRepository stub ──────────────────────────────────────────

type stubRecetaRepo struct {
	recetas []model.Receta
}

func (r *stubRecetaRepo) Create(_ context.Context, rec *model.Receta) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	r.recetas = append(r.recetas, *rec)
	return nil
}

func (r *stubRecetaRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, rec := range r.recetas {
		if rec.ID == id {
			r.recetas = append(r.recetas[:i], r.recetas[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubRecetaRepo) ListByPadre(_ context.Context, padreID uuid.UUID) ([]model.Receta, error) {
	var out []model.Receta
	for _, rec := range r.recetas {
		if rec.ProductoPadreID == padreID {
			out = append(out, rec)
		}
	}
	return out, nil
}

var _ repository.RecetaRepository = (*stubRecetaRepo)(nil)

// ── In-memory PedidoRepository stub ──────────────────────────────────────────

type stubPedidoRepo struct {
	mu      sync.Mutex
	pedidos map[uuid.UUID]*model.Pedido
}

func newStubPedidoRepo() *stubPedidoRepo {
	return &stubPedidoRepo{pedidos: make(map[uuid.UUID]*model.Pedido)}
}

func copiarPedido(p *model.Pedido) model.Pedido {
	cp := *p
	cp.Detalles = append([]model.DetallePedido(nil), p.Detalles...)
	return cp
}

func (r *stubPedidoRepo) Create(_ context.Context, p *model.Pedido) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for i := range p.Detalles {
		if p.Detalles[i].ID == uuid.Nil {
			p.Detalles[i].ID = uuid.New()
		}
		p.Detalles[i].PedidoID = p.ID
	}
	cp := copiarPedido(p)
	r.pedidos[p.ID] = &cp
	return nil
}

func (r *stubPedidoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Pedido, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pedidos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := copiarPedido(p)
	return &cp, nil
}

func (r *stubPedidoRepo) FindByRango(_ context.Context, desde, hasta time.Time) ([]model.Pedido, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Pedido
	for _, p := range r.pedidos {
		if !p.CreatedAt.Before(desde) && p.CreatedAt.Before(hasta) {
			out = append(out, copiarPedido(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *stubPedidoRepo) List(_ context.Context) ([]model.Pedido, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Pedido
	for _, p := range r.pedidos {
		out = append(out, copiarPedido(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubPedidoRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pedidos[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.pedidos, id)
	return nil
}

func (r *stubPedidoRepo) CreateDetalles(_ context.Context, detalles []model.DetallePedido) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range detalles {
		p, ok := r.pedidos[d.PedidoID]
		if !ok {
			return errors.New("pedido inexistente")
		}
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		p.Detalles = append(p.Detalles, d)
	}
	return nil
}

func (r *stubPedidoRepo) detalle(id uuid.UUID) *model.DetallePedido {
	for _, p := range r.pedidos {
		for i := range p.Detalles {
			if p.Detalles[i].ID == id {
				return &p.Detalles[i]
			}
		}
	}
	return nil
}

func (r *stubPedidoRepo) UpdateCantidadDetalle(_ context.Context, id uuid.UUID, cantidad model.Cantidad) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.detalle(id)
	if d == nil {
		return gorm.ErrRecordNotFound
	}
	d.CantidadSolicitada = cantidad
	return nil
}

func (r *stubPedidoRepo) UpdateEstadoDetalles(_ context.Context, ids []uuid.UUID, recibido bool, estado string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if d := r.detalle(id); d != nil {
			d.Recibido = recibido
			d.Estado = estado
		}
	}
	return nil
}

func (r *stubPedidoRepo) ListDetallesPendientes(_ context.Context) ([]model.DetallePedido, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.DetallePedido
	for _, p := range r.pedidos {
		for _, d := range p.Detalles {
			if !d.Recibido {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

var _ repository.PedidoRepository = (*stubPedidoRepo)(nil)

// ── In-memory MovimientoStockRepository stub ─────────────────────────────────

type stubMovimientoRepo struct {
	mu          sync.Mutex
	movimientos []model.MovimientoStock
}

func (r *stubMovimientoRepo) Create(_ context.Context, m *model.MovimientoStock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *stubMovimientoRepo) List(_ context.Context, f repository.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MovimientoStock
	for _, m := range r.movimientos {
		if f.Tipo != "" && m.Tipo != f.Tipo {
			continue
		}
		if f.ProductoID != nil && m.ProductoID != *f.ProductoID {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

var _ repository.MovimientoStockRepository = (*stubMovimientoRepo)(nil)

// ── Event capture ────────────────────────────────────────────────────────────

type capturaNotificador struct {
	mu      sync.Mutex
	eventos []service.Evento
}

func (c *capturaNotificador) Notificar(_ context.Context, e service.Evento) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventos = append(c.eventos, e)
}

func (c *capturaNotificador) deTipo(tipo string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.eventos {
		if e.Tipo == tipo {
			n++
		}
	}
	return n
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedProducto(repo *stubProductoRepo, nombre, unidad, cantidad string) *model.Producto {
	p := &model.Producto{
		ID:          uuid.New(),
		Nombre:      nombre,
		Categoria:   model.CategoriaMateriaPrima,
		Unidad:      unidad,
		Cantidad:    dec(cantidad),
		StockMinimo: decimal.Zero,
		AptoReceta:  true,
	}
	_ = repo.Create(context.Background(), p)
	return p
}

func seedHijo(repo *stubProductoRepo, nombre string, padre *model.Producto, factor string) *model.Producto {
	f := dec(factor)
	p := &model.Producto{
		ID:               uuid.New(),
		Nombre:           nombre,
		Categoria:        model.CategoriaMateriaPrima,
		Unidad:           model.UnidadUnidad,
		AptoReceta:       true,
		StockPadreID:     &padre.ID,
		FactorConversion: &f,
	}
	_ = repo.Create(context.Background(), p)
	return p
}

type entorno struct {
	productos  *stubProductoRepo
	pedidos    *stubPedidoRepo
	movs       *stubMovimientoRepo
	notif      *capturaNotificador
	pendientes *service.Pendientes
	ledger     *service.Ledger
}

func nuevoEntorno() *entorno {
	e := &entorno{
		productos: newStubProductoRepo(),
		pedidos:   newStubPedidoRepo(),
		movs:      &stubMovimientoRepo{},
		notif:     &capturaNotificador{},
	}
	e.pendientes = service.NewPendientes(e.pedidos, nil)
	e.ledger = service.NewLedger(e.productos, service.LedgerOpciones{
		Movimientos: e.movs,
		Pendientes:  e.pendientes,
		Notificador: e.notif,
		Debounce:    time.Hour,
	})
	return e
}
