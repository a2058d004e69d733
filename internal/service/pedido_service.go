package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockcocina/internal/model"
	"stockcocina/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ItemPedido is one requested product of a submission.
type ItemPedido struct {
	ProductoID uuid.UUID
	Cantidad   decimal.Decimal
}

// ResultadoPedido is returned by ProcesarPedido. Fusionado is true when the
// request merged into the day's existing order.
type ResultadoPedido struct {
	Pedido       *model.Pedido
	Resumen      string
	Actualizados int
	Creados      int
	Fusionado    bool
}

// ResultadoRecepcion is returned by ConfirmarRecepcion.
type ResultadoRecepcion struct {
	Entregados   int
	NoEntregados int
	// PedidoManana is the order that received the rolled-over lines.
	PedidoManana *uuid.UUID
}

// DespachadorResumen hands a finished order summary to the supplier
// delivery pipeline.
type DespachadorResumen interface {
	EncolarResumen(ctx context.Context, pedidoID uuid.UUID) error
}

// PedidoOpciones configures a PedidoService.
type PedidoOpciones struct {
	// Location defines the calendar day an order belongs to.
	Location     *time.Location
	NombreCocina string
	Ahora        func() time.Time
	Despachador  DespachadorResumen
}

// PedidoService handles daily supply orders and their reconciliation
// against stock.
type PedidoService interface {
	ProcesarPedido(ctx context.Context, items []ItemPedido) (*ResultadoPedido, error)
	// ConfirmarRecepcion closes the candidate lines of an order. Lines in
	// recibidos are credited to stock; the rest roll over to tomorrow. An
	// empty candidatos means every line of the order not yet received.
	ConfirmarRecepcion(ctx context.Context, pedidoID uuid.UUID, recibidos, candidatos []uuid.UUID, confirmarTodo bool) (*ResultadoRecepcion, error)
	BorrarPedido(ctx context.Context, pedidoID uuid.UUID) error
	Historial(ctx context.Context) ([]model.Pedido, error)
	Obtener(ctx context.Context, pedidoID uuid.UUID) (*model.Pedido, error)
	Resumen(ctx context.Context, pedidoID uuid.UUID) (string, error)
}

type pedidoService struct {
	repo       repository.PedidoRepository
	ledger     *Ledger
	pendientes *Pendientes
	opts       PedidoOpciones
}

func NewPedidoService(repo repository.PedidoRepository, ledger *Ledger, pendientes *Pendientes, opts PedidoOpciones) PedidoService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Ahora == nil {
		opts.Ahora = time.Now
	}
	if opts.NombreCocina == "" {
		opts.NombreCocina = "COCINA"
	}
	return &pedidoService{repo: repo, ledger: ledger, pendientes: pendientes, opts: opts}
}

// ahora is the current time expressed in the order time zone, so stored
// timestamps and day bounds compare in one zone.
func (s *pedidoService) ahora() time.Time {
	return s.opts.Ahora().In(s.opts.Location)
}

// rangoDia returns [00:00, 24:00) of t's calendar day in loc.
func rangoDia(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	desde := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return desde, desde.AddDate(0, 0, 1)
}

func (s *pedidoService) ProcesarPedido(ctx context.Context, items []ItemPedido) (*ResultadoPedido, error) {
	if len(items) == 0 {
		return nil, ErrPedidoVacio
	}

	// Collapse the request per product name, keeping first-seen order.
	var nombres []string
	pedidas := make(map[string]model.Cantidad)
	for _, it := range items {
		if !it.Cantidad.IsPositive() {
			return nil, ErrCantidadInvalida
		}
		p, ok := s.ledger.Producto(it.ProductoID)
		if !ok {
			return nil, ErrProductoNoEncontrado
		}
		if c, ok := pedidas[p.Nombre]; ok {
			pedidas[p.Nombre] = c.Sumar(it.Cantidad)
			continue
		}
		nombres = append(nombres, p.Nombre)
		pedidas[p.Nombre] = model.NuevaCantidad(it.Cantidad, p.AbreviaturaPedido())
	}

	ahora := s.ahora()
	pedido, res, err := s.fusionar(ctx, ahora, nombres, pedidas)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPedidoFallido, err)
	}

	pedido, err = s.repo.FindByID(ctx, pedido.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPedidoFallido, err)
	}
	res.Pedido = pedido
	res.Resumen = RenderResumen(pedido, s.opts.NombreCocina, s.opts.Location)

	s.recalcularPendientes(ctx)
	if s.opts.Despachador != nil {
		if err := s.opts.Despachador.EncolarResumen(ctx, pedido.ID); err != nil {
			log.Warn().Err(err).Str("pedido_id", pedido.ID.String()).Msg("pedido: could not enqueue summary")
		}
	}
	log.Info().
		Str("pedido_id", pedido.ID.String()).
		Bool("fusionado", res.Fusionado).
		Int("actualizados", res.Actualizados).
		Int("creados", res.Creados).
		Msg("pedido procesado")
	return res, nil
}

// fusionar merges the lines into the open order of ahora's day, creating the
// order when there is none. Only lines not yet received take part in the
// merge.
func (s *pedidoService) fusionar(ctx context.Context, ahora time.Time, nombres []string, pedidas map[string]model.Cantidad) (*model.Pedido, *ResultadoPedido, error) {
	desde, hasta := rangoDia(ahora, s.opts.Location)
	existentes, err := s.repo.FindByRango(ctx, desde, hasta)
	if err != nil {
		return nil, nil, err
	}

	res := &ResultadoPedido{}
	if len(existentes) == 0 {
		pedido := &model.Pedido{CreatedAt: ahora}
		for _, n := range nombres {
			pedido.Detalles = append(pedido.Detalles, nuevoDetalle(uuid.Nil, n, pedidas[n]))
		}
		if err := s.repo.Create(ctx, pedido); err != nil {
			return nil, nil, err
		}
		res.Creados = len(nombres)
		return pedido, res, nil
	}

	pedido := &existentes[0]
	res.Fusionado = true
	abiertos := make(map[string]*model.DetallePedido)
	for i := range pedido.Detalles {
		d := &pedido.Detalles[i]
		if d.Recibido {
			continue
		}
		if _, ok := abiertos[d.ProductoNombre]; !ok {
			abiertos[d.ProductoNombre] = d
		}
	}

	var nuevos []model.DetallePedido
	for _, n := range nombres {
		if d, ok := abiertos[n]; ok {
			suma := d.CantidadSolicitada.Sumar(pedidas[n].Monto)
			if err := s.repo.UpdateCantidadDetalle(ctx, d.ID, suma); err != nil {
				return nil, nil, err
			}
			d.CantidadSolicitada = suma
			res.Actualizados++
			continue
		}
		nuevos = append(nuevos, nuevoDetalle(pedido.ID, n, pedidas[n]))
	}
	if err := s.repo.CreateDetalles(ctx, nuevos); err != nil {
		return nil, nil, err
	}
	res.Creados = len(nuevos)
	return pedido, res, nil
}

func nuevoDetalle(pedidoID uuid.UUID, nombre string, c model.Cantidad) model.DetallePedido {
	return model.DetallePedido{
		PedidoID:           pedidoID,
		ProductoNombre:     nombre,
		CantidadSolicitada: c,
		Estado:             model.EstadoPendiente,
	}
}

// RenderResumen formats the share-ready text of an order: a dated header and
// one line per product still outstanding.
func RenderResumen(p *model.Pedido, nombreCocina string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 *PEDIDO %s* (%s)\n\n", strings.ToUpper(nombreCocina), p.CreatedAt.In(loc).Format("02/01/2006"))
	for _, d := range p.Detalles {
		if d.Recibido {
			continue
		}
		fmt.Fprintf(&b, "- %s: *%s*\n", d.ProductoNombre, d.CantidadSolicitada.String())
	}
	return b.String()
}

func (s *pedidoService) ConfirmarRecepcion(ctx context.Context, pedidoID uuid.UUID, recibidos, candidatos []uuid.UUID, confirmarTodo bool) (*ResultadoRecepcion, error) {
	if len(recibidos) == 0 && !confirmarTodo {
		return nil, ErrConfirmacionRequerida
	}
	pedido, err := s.Obtener(ctx, pedidoID)
	if err != nil {
		return nil, err
	}

	lineas, err := seleccionarCandidatos(pedido, candidatos)
	if err != nil {
		return nil, err
	}
	marcados := make(map[uuid.UUID]bool, len(recibidos))
	for _, id := range recibidos {
		marcados[id] = true
	}
	var entregados, faltantes []model.DetallePedido
	for _, d := range lineas {
		if marcados[d.ID] {
			entregados = append(entregados, d)
			delete(marcados, d.ID)
		} else {
			faltantes = append(faltantes, d)
		}
	}
	if len(marcados) > 0 {
		return nil, ErrDetalleAjeno
	}

	res := &ResultadoRecepcion{Entregados: len(entregados), NoEntregados: len(faltantes)}
	var errs []error

	// Received lines: close and credit stock.
	if len(entregados) > 0 {
		if err := s.repo.UpdateEstadoDetalles(ctx, ids(entregados), true, model.EstadoEntregado); err != nil {
			errs = append(errs, err)
		} else {
			ajustes := s.ajustesPorNombre(entregados, 1, model.MovimientoRecepcion, "recepción de pedido", pedidoID)
			if err := s.ledger.AplicarLote(ctx, ajustes); err != nil {
				errs = append(errs, err)
			}
		}
	}

	// Missing lines: close here, reopen on tomorrow's order.
	if len(faltantes) > 0 {
		if err := s.repo.UpdateEstadoDetalles(ctx, ids(faltantes), true, model.EstadoNoEntregado); err != nil {
			errs = append(errs, err)
		} else {
			manana, err := s.pasarAManana(ctx, faltantes)
			if err != nil {
				errs = append(errs, err)
			} else {
				res.PedidoManana = &manana
			}
		}
	}

	if err := s.ledger.Cargar(ctx); err != nil {
		errs = append(errs, err)
	}
	s.recalcularPendientes(ctx)

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrPedidoFallido, errors.Join(errs...))
	}
	log.Info().
		Str("pedido_id", pedidoID.String()).
		Int("entregados", res.Entregados).
		Int("no_entregados", res.NoEntregados).
		Msg("recepción confirmada")
	return res, nil
}

// seleccionarCandidatos resolves the candidate ids against the order. Lines
// already received are never candidates.
func seleccionarCandidatos(p *model.Pedido, candidatos []uuid.UUID) ([]model.DetallePedido, error) {
	if len(candidatos) == 0 {
		var out []model.DetallePedido
		for _, d := range p.Detalles {
			if !d.Recibido {
				out = append(out, d)
			}
		}
		return out, nil
	}
	porID := make(map[uuid.UUID]model.DetallePedido, len(p.Detalles))
	for _, d := range p.Detalles {
		porID[d.ID] = d
	}
	out := make([]model.DetallePedido, 0, len(candidatos))
	vistos := make(map[uuid.UUID]bool, len(candidatos))
	for _, id := range candidatos {
		d, ok := porID[id]
		if !ok {
			return nil, ErrDetalleAjeno
		}
		if d.Recibido || vistos[id] {
			continue
		}
		vistos[id] = true
		out = append(out, d)
	}
	return out, nil
}

// pasarAManana reopens the lines as pending on the order of the next day. An
// order that already exists for that day takes them; otherwise one is created.
func (s *pedidoService) pasarAManana(ctx context.Context, lineas []model.DetallePedido) (uuid.UUID, error) {
	manana := s.ahora().AddDate(0, 0, 1)
	desde, hasta := rangoDia(manana, s.opts.Location)
	existentes, err := s.repo.FindByRango(ctx, desde, hasta)
	if err != nil {
		return uuid.Nil, err
	}
	if len(existentes) == 0 {
		pedido := &model.Pedido{CreatedAt: manana}
		for _, d := range lineas {
			pedido.Detalles = append(pedido.Detalles, nuevoDetalle(uuid.Nil, d.ProductoNombre, d.CantidadSolicitada))
		}
		if err := s.repo.Create(ctx, pedido); err != nil {
			return uuid.Nil, err
		}
		return pedido.ID, nil
	}

	pedido := &existentes[0]
	abiertos := make(map[string]*model.DetallePedido)
	for i := range pedido.Detalles {
		d := &pedido.Detalles[i]
		if !d.Recibido {
			if _, ok := abiertos[d.ProductoNombre]; !ok {
				abiertos[d.ProductoNombre] = d
			}
		}
	}
	var nuevos []model.DetallePedido
	for _, l := range lineas {
		if d, ok := abiertos[l.ProductoNombre]; ok {
			suma := d.CantidadSolicitada.Sumar(l.CantidadSolicitada.Monto)
			if err := s.repo.UpdateCantidadDetalle(ctx, d.ID, suma); err != nil {
				return uuid.Nil, err
			}
			d.CantidadSolicitada = suma
			continue
		}
		nuevos = append(nuevos, nuevoDetalle(pedido.ID, l.ProductoNombre, l.CantidadSolicitada))
	}
	if err := s.repo.CreateDetalles(ctx, nuevos); err != nil {
		return uuid.Nil, err
	}
	return pedido.ID, nil
}

// ajustesPorNombre builds relative stock writes for the lines, signo being 1
// to credit and -1 to take back. Lines whose name matches no product are
// logged and skipped.
func (s *pedidoService) ajustesPorNombre(lineas []model.DetallePedido, signo int64, tipo, motivo string, pedidoID uuid.UUID) []Ajuste {
	ref := pedidoID
	var out []Ajuste
	for _, d := range lineas {
		p, ok := s.ledger.ProductoPorNombre(d.ProductoNombre)
		if !ok {
			log.Warn().
				Str("pedido_id", pedidoID.String()).
				Str("producto", d.ProductoNombre).
				Msg("pedido: no product with this name, stock not changed")
			continue
		}
		out = append(out, Ajuste{
			ProductoID:   p.ID,
			Cantidad:     d.CantidadSolicitada.Monto.Mul(decimal.NewFromInt(signo)),
			Relativo:     true,
			Tipo:         tipo,
			Motivo:       motivo,
			ReferenciaID: &ref,
		})
	}
	return out
}

func (s *pedidoService) BorrarPedido(ctx context.Context, pedidoID uuid.UUID) error {
	pedido, err := s.Obtener(ctx, pedidoID)
	if err != nil {
		return err
	}
	var entregados []model.DetallePedido
	for _, d := range pedido.Detalles {
		if d.Estado == model.EstadoEntregado {
			entregados = append(entregados, d)
		}
	}
	if len(entregados) > 0 {
		ajustes := s.ajustesPorNombre(entregados, -1, model.MovimientoAnulacionPedido, "pedido eliminado", pedidoID)
		if err := s.ledger.AplicarLote(ctx, ajustes); err != nil {
			if rerr := s.ledger.Cargar(ctx); rerr != nil {
				log.Error().Err(rerr).Msg("pedido: reload failed")
			}
			return fmt.Errorf("%w: %w", ErrPedidoFallido, err)
		}
	}

	if err := s.repo.Delete(ctx, pedidoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPedidoNoEncontrado
		}
		return fmt.Errorf("%w: %w", ErrPedidoFallido, err)
	}
	if err := s.ledger.Cargar(ctx); err != nil {
		log.Error().Err(err).Msg("pedido: reload failed")
	}
	s.recalcularPendientes(ctx)
	log.Info().Str("pedido_id", pedidoID.String()).Int("revertidos", len(entregados)).Msg("pedido eliminado")
	return nil
}

func (s *pedidoService) Historial(ctx context.Context) ([]model.Pedido, error) {
	pedidos, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("historial de pedidos: %w", err)
	}
	return pedidos, nil
}

func (s *pedidoService) Obtener(ctx context.Context, pedidoID uuid.UUID) (*model.Pedido, error) {
	p, err := s.repo.FindByID(ctx, pedidoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPedidoNoEncontrado
		}
		return nil, fmt.Errorf("obtener pedido: %w", err)
	}
	return p, nil
}

func (s *pedidoService) Resumen(ctx context.Context, pedidoID uuid.UUID) (string, error) {
	p, err := s.Obtener(ctx, pedidoID)
	if err != nil {
		return "", err
	}
	return RenderResumen(p, s.opts.NombreCocina, s.opts.Location), nil
}

func (s *pedidoService) recalcularPendientes(ctx context.Context) {
	if s.pendientes == nil {
		return
	}
	if err := s.pendientes.Recalcular(ctx); err != nil {
		log.Warn().Err(err).Msg("pedido: recalcular pendientes")
	}
}

func ids(detalles []model.DetallePedido) []uuid.UUID {
	out := make([]uuid.UUID, len(detalles))
	for i, d := range detalles {
		out[i] = d.ID
	}
	return out
}
