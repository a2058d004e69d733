package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stockcocina/internal/infra"
	"stockcocina/internal/model"
	"stockcocina/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const escrituraTimeout = 10 * time.Second

// Ledger is the in-memory product table. Every quantity change goes through
// its write API, which keeps linked children derived from their parent and
// persists manual edits with a per-product debounce.
//
// Memory always reflects the optimistic result: readers see a written value
// before the backend has stored it.
type Ledger struct {
	repo       repository.ProductoRepository
	movRepo    repository.MovimientoStockRepository
	pendientes *Pendientes
	notif      Notificador
	cb         *infra.CircuitBreaker
	prog       *Programador

	mu        sync.Mutex
	productos []model.Producto
	indice    map[uuid.UUID]int
	// optimista holds manual edits not yet persisted. Cargar keeps these
	// values over what the backend returns.
	optimista map[uuid.UUID]escrituraPendiente
	// cambios holds the gen of each product's last write, in memory or to
	// the backend. A reload keeps the memory value of anything written
	// after it started reading.
	cambios map[uuid.UUID]uint64
	gen     uint64
}

type escrituraPendiente struct {
	valor    decimal.Decimal
	anterior decimal.Decimal
	gen      uint64
}

// LedgerOpciones carries the optional collaborators of a Ledger.
type LedgerOpciones struct {
	Movimientos repository.MovimientoStockRepository
	Pendientes  *Pendientes
	Notificador Notificador
	Breaker     *infra.CircuitBreaker
	Debounce    time.Duration
}

func NewLedger(repo repository.ProductoRepository, opts LedgerOpciones) *Ledger {
	if opts.Notificador == nil {
		opts.Notificador = LogNotificador{}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	return &Ledger{
		repo:       repo,
		movRepo:    opts.Movimientos,
		pendientes: opts.Pendientes,
		notif:      opts.Notificador,
		cb:         opts.Breaker,
		prog:       NewProgramador(opts.Debounce),
		indice:     make(map[uuid.UUID]int),
		optimista:  make(map[uuid.UUID]escrituraPendiente),
		cambios:    make(map[uuid.UUID]uint64),
	}
}

// ── Lectura ──────────────────────────────────────────────────────────────────

// Cargar replaces the table with the backend's products and derives every
// linked child from its parent (rounded to 2 places). A child whose parent no
// longer exists keeps its stored quantity. Unpersisted manual edits survive
// the reload, and so does any write that lands while the backend is read.
func (l *Ledger) Cargar(ctx context.Context) error {
	l.mu.Lock()
	inicio := l.gen
	l.mu.Unlock()

	productos, err := l.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("cargar productos: %w", err)
	}

	l.mu.Lock()
	for i := range productos {
		id := productos[i].ID
		if w, ok := l.optimista[id]; ok {
			productos[i].Cantidad = w.valor
			continue
		}
		if l.cambios[id] > inicio {
			if j, ok := l.indice[id]; ok {
				productos[i].Cantidad = l.productos[j].Cantidad
			}
		}
	}
	indice := make(map[uuid.UUID]int, len(productos))
	for i := range productos {
		indice[productos[i].ID] = i
	}
	for i := range productos {
		p := &productos[i]
		if !p.EsDerivado() {
			continue
		}
		j, ok := indice[*p.StockPadreID]
		if !ok {
			continue
		}
		p.Cantidad = CantidadDerivada(&productos[j], *p.FactorConversion).Round(decimalesDerivado)
	}
	l.productos = productos
	l.indice = indice
	l.mu.Unlock()

	if l.pendientes != nil {
		if err := l.pendientes.Recalcular(ctx); err != nil {
			log.Warn().Err(err).Msg("ledger: recalcular pendientes")
		}
	}
	return nil
}

// Productos returns a copy of the table in creation order.
func (l *Ledger) Productos() []model.Producto {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Producto, len(l.productos))
	copy(out, l.productos)
	return out
}

// Producto returns a copy of one product.
func (l *Ledger) Producto(id uuid.UUID) (model.Producto, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.indice[id]
	if !ok {
		return model.Producto{}, false
	}
	return l.productos[i], true
}

// ProductoPorNombre returns the first product, in creation order, whose name
// is exactly nombre. Order lines refer to products this way.
func (l *Ledger) ProductoPorNombre(nombre string) (model.Producto, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range l.productos {
		if p.Nombre == nombre {
			return p, true
		}
	}
	return model.Producto{}, false
}

// ── Escritura manual (debounced) ─────────────────────────────────────────────

// ActualizarStockCantidad sets a product's quantity. Writes to a linked child
// are converted and applied to its parent instead. The new value is visible
// immediately; the backend write happens once the product has been quiet for
// the debounce window.
func (l *Ledger) ActualizarStockCantidad(ctx context.Context, id uuid.UUID, nueva decimal.Decimal) error {
	l.mu.Lock()
	destino, valor, err := l.resolverDestino(id, nueva)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	anterior := l.fijarLocal(destino, valor)

	l.gen++
	gen := l.gen
	w := escrituraPendiente{valor: valor, anterior: anterior, gen: gen}
	if prev, ok := l.optimista[destino]; ok {
		w.anterior = prev.anterior
	}
	l.optimista[destino] = w
	l.mu.Unlock()

	l.prog.Programar(destino, func(ctx context.Context) {
		l.persistirDiferido(ctx, destino, w)
	})
	return nil
}

// SumarStock applies a signed step to the current quantity, rounded to 3
// places and clamped at zero. vaciado is true only when a subtraction took a
// positive stock to zero; an EventoStockVaciado is emitted in that case.
func (l *Ledger) SumarStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (nueva decimal.Decimal, vaciado bool, err error) {
	p, ok := l.Producto(id)
	if !ok {
		return decimal.Zero, false, ErrProductoNoEncontrado
	}
	nueva = p.Cantidad.Add(delta).Round(decimalesPaso)
	if nueva.IsNegative() {
		nueva = decimal.Zero
		vaciado = delta.IsNegative() && p.Cantidad.IsPositive()
	}
	if err := l.ActualizarStockCantidad(ctx, id, nueva); err != nil {
		return decimal.Zero, false, err
	}
	if vaciado {
		l.notif.Notificar(ctx, Evento{
			Tipo:       EventoStockVaciado,
			ProductoID: p.ID,
			Nombre:     p.Nombre,
			Mensaje:    "Stock vaciado",
			Fecha:      time.Now(),
		})
	}
	return nueva, vaciado, nil
}

func (l *Ledger) persistirDiferido(ctx context.Context, id uuid.UUID, w escrituraPendiente) {
	ctx, cancel := context.WithTimeout(ctx, escrituraTimeout)
	defer cancel()

	err := l.escribir(ctx, id, w.valor)

	l.mu.Lock()
	if cur, ok := l.optimista[id]; ok && cur.gen == w.gen {
		delete(l.optimista, id)
	}
	l.marcarCambio(id)
	l.mu.Unlock()

	if err != nil {
		nombre := ""
		if p, ok := l.Producto(id); ok {
			nombre = p.Nombre
		}
		log.Error().Err(err).Str("producto_id", id.String()).Msg("ledger: deferred write failed, reloading")
		l.notif.Notificar(ctx, Evento{
			Tipo:       EventoErrorGuardado,
			ProductoID: id,
			Nombre:     nombre,
			Mensaje:    "Error guardando",
			Fecha:      time.Now(),
		})
		if rerr := l.Cargar(ctx); rerr != nil {
			log.Error().Err(rerr).Msg("ledger: reload after failed write")
		}
		return
	}
	l.registrarMovimiento(ctx, id, model.MovimientoAjusteManual, w.anterior, w.valor, "ajuste manual", nil)
}

// Flush persists every pending manual edit now. Used on shutdown.
func (l *Ledger) Flush(ctx context.Context) {
	l.prog.Flush(ctx)
}

// ── Escritura por lote (inmediata) ───────────────────────────────────────────

// Ajuste is one quantity write of a batch. Cantidad is the new absolute
// quantity, or with Relativo set a signed amount added to the quantity the
// product has when the write is applied (clamped at 0 and rounded to
// Decimales places, 3 when unset).
type Ajuste struct {
	ProductoID   uuid.UUID
	Cantidad     decimal.Decimal
	Relativo     bool
	Decimales    int32
	Tipo         string
	Motivo       string
	ReferenciaID *uuid.UUID
}

func (a Ajuste) decimales() int32 {
	if a.Decimales > 0 {
		return a.Decimales
	}
	return decimalesPaso
}

// AplicarLote applies the writes in order, each one visible in memory
// before the next is resolved, and stores each one with its own backend call.
// A pending debounced edit of the same product is superseded and dropped.
// There is no atomicity across the batch: every write is attempted and the
// failures are returned joined; successful ones stay applied.
func (l *Ledger) AplicarLote(ctx context.Context, ajustes []Ajuste) error {
	var errs []error
	for _, a := range ajustes {
		l.mu.Lock()
		nueva := a.Cantidad
		if a.Relativo {
			if i, ok := l.indice[a.ProductoID]; ok {
				nueva = maxCero(l.productos[i].Cantidad.Add(a.Cantidad).Round(a.decimales()))
			}
		}
		destino, valor, err := l.resolverDestino(a.ProductoID, nueva)
		if err != nil {
			l.mu.Unlock()
			errs = append(errs, fmt.Errorf("producto %s: %w", a.ProductoID, err))
			continue
		}
		anterior := l.fijarLocal(destino, valor)
		if prev, ok := l.optimista[destino]; ok {
			anterior = prev.anterior
			delete(l.optimista, destino)
		}
		l.mu.Unlock()
		l.prog.Cancelar(destino)

		err = l.escribir(ctx, destino, valor)
		l.mu.Lock()
		l.marcarCambio(destino)
		l.mu.Unlock()
		if err != nil {
			errs = append(errs, fmt.Errorf("producto %s: %w", destino, err))
			continue
		}
		l.registrarMovimiento(ctx, destino, a.Tipo, anterior, valor, a.Motivo, a.ReferenciaID)
	}
	return errors.Join(errs...)
}

// ── Internos ─────────────────────────────────────────────────────────────────

// resolverDestino returns the product that actually stores the quantity for
// id, and the value to store there. Must be called with l.mu held.
func (l *Ledger) resolverDestino(id uuid.UUID, nueva decimal.Decimal) (uuid.UUID, decimal.Decimal, error) {
	i, ok := l.indice[id]
	if !ok {
		return uuid.Nil, decimal.Zero, ErrProductoNoEncontrado
	}
	p := &l.productos[i]
	if !p.EsDerivado() {
		return id, nueva, nil
	}
	j, ok := l.indice[*p.StockPadreID]
	if !ok {
		// Parent gone: the child is treated as a plain product.
		return id, nueva, nil
	}
	if !p.FactorConversion.IsPositive() {
		return uuid.Nil, decimal.Zero, fmt.Errorf("%w: factor de conversión de %q no es positivo", ErrVinculoInvalido, p.Nombre)
	}
	padre := &l.productos[j]
	return padre.ID, EquivalenteEnPadre(padre, *p.FactorConversion, nueva).Round(decimalesPadre), nil
}

// fijarLocal stores valor on id and re-derives its children. Returns the
// previous value. Must be called with l.mu held.
func (l *Ledger) fijarLocal(id uuid.UUID, valor decimal.Decimal) decimal.Decimal {
	i := l.indice[id]
	padre := &l.productos[i]
	anterior := padre.Cantidad
	padre.Cantidad = valor
	l.marcarCambio(id)
	for k := range l.productos {
		h := &l.productos[k]
		if h.StockPadreID != nil && *h.StockPadreID == id && h.FactorConversion != nil {
			h.Cantidad = CantidadDerivada(padre, *h.FactorConversion).Round(decimalesDerivado)
		}
	}
	return anterior
}

// marcarCambio must be called with l.mu held.
func (l *Ledger) marcarCambio(id uuid.UUID) {
	l.gen++
	l.cambios[id] = l.gen
}

func (l *Ledger) escribir(ctx context.Context, id uuid.UUID, valor decimal.Decimal) error {
	if l.cb == nil {
		return l.repo.UpdateCantidad(ctx, id, valor)
	}
	return l.cb.Execute(func() error {
		return l.repo.UpdateCantidad(ctx, id, valor)
	})
}

func (l *Ledger) registrarMovimiento(ctx context.Context, id uuid.UUID, tipo string, anterior, nuevo decimal.Decimal, motivo string, ref *uuid.UUID) {
	if l.movRepo == nil || anterior.Equal(nuevo) {
		return
	}
	m := &model.MovimientoStock{
		ProductoID:    id,
		Tipo:          tipo,
		Cantidad:      nuevo.Sub(anterior),
		StockAnterior: anterior,
		StockNuevo:    nuevo,
		Motivo:        motivo,
		ReferenciaID:  ref,
	}
	if err := l.movRepo.Create(ctx, m); err != nil {
		log.Warn().Err(err).Str("producto_id", id.String()).Msg("ledger: failed to record stock movement")
	}
}
