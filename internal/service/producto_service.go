package service

import (
	"context"
	"fmt"
	"time"

	"stockcocina/internal/dto"
	"stockcocina/internal/model"
	"stockcocina/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductoService is the API-facing view of the stock ledger.
type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) ([]dto.ProductoResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	ActualizarStock(ctx context.Context, id uuid.UUID, req dto.ActualizarStockRequest) (*dto.StockResponse, error)
	SumarStock(ctx context.Context, id uuid.UUID, req dto.SumarStockRequest) (*dto.StockResponse, error)
	Alertas(ctx context.Context) []dto.AlertaStockResponse
	CandidatosPedido(ctx context.Context) []dto.ProductoResponse
	Movimientos(ctx context.Context, filter dto.MovimientoStockFilter) (*dto.MovimientoStockListResponse, error)
	Pendientes(ctx context.Context) dto.PendientesResponse
}

type productoService struct {
	ledger     *Ledger
	pendientes *Pendientes
	movRepo    repository.MovimientoStockRepository
}

func NewProductoService(ledger *Ledger, pendientes *Pendientes, movRepo repository.MovimientoStockRepository) ProductoService {
	return &productoService{ledger: ledger, pendientes: pendientes, movRepo: movRepo}
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	p := &model.Producto{
		Nombre:           req.Nombre,
		Categoria:        req.Categoria,
		Unidad:           req.Unidad,
		Cantidad:         req.Cantidad,
		StockMinimo:      req.StockMinimo,
		AptoReceta:       req.AptoReceta,
		FactorConversion: req.FactorConversion,
	}
	padre, err := parseUUIDOpcional(req.StockPadreID)
	if err != nil {
		return nil, err
	}
	p.StockPadreID = padre
	if p.FechaProduccion, err = parseFecha(req.FechaProduccion); err != nil {
		return nil, err
	}

	creado, err := s.ledger.CrearProducto(ctx, p)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(&creado)
	return &resp, nil
}

func (s *productoService) ObtenerPorID(_ context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, ok := s.ledger.Producto(id)
	if !ok {
		return nil, ErrProductoNoEncontrado
	}
	resp := s.toResponse(&p)
	return &resp, nil
}

func (s *productoService) Listar(_ context.Context, filter dto.ProductoFilter) ([]dto.ProductoResponse, error) {
	productos := OrdenarProductos(s.ledger.Productos(), filter.Orden)
	out := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		if filter.Categoria != "" && productos[i].Categoria != filter.Categoria {
			continue
		}
		out = append(out, s.toResponse(&productos[i]))
	}
	return out, nil
}

func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, ok := s.ledger.Producto(id)
	if !ok {
		return nil, ErrProductoNoEncontrado
	}
	if req.Nombre != nil {
		p.Nombre = *req.Nombre
	}
	if req.Categoria != nil {
		p.Categoria = *req.Categoria
	}
	if req.Unidad != nil {
		p.Unidad = *req.Unidad
	}
	if req.StockMinimo != nil {
		p.StockMinimo = *req.StockMinimo
	}
	if req.AptoReceta != nil {
		p.AptoReceta = *req.AptoReceta
	}
	if req.StockPadreID != nil {
		padre, err := parseUUIDOpcional(req.StockPadreID)
		if err != nil {
			return nil, err
		}
		p.StockPadreID = padre
	}
	if req.FactorConversion != nil {
		p.FactorConversion = req.FactorConversion
	}
	if req.QuitarVinculo {
		p.StockPadreID = nil
		p.FactorConversion = nil
	}
	if req.FechaProduccion != nil {
		f, err := parseFecha(req.FechaProduccion)
		if err != nil {
			return nil, err
		}
		p.FechaProduccion = f
	}

	editado, err := s.ledger.EditarProducto(ctx, &p)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(&editado)
	return &resp, nil
}

func (s *productoService) Eliminar(ctx context.Context, id uuid.UUID) error {
	return s.ledger.BorrarProducto(ctx, id)
}

func (s *productoService) ActualizarStock(ctx context.Context, id uuid.UUID, req dto.ActualizarStockRequest) (*dto.StockResponse, error) {
	if req.Cantidad.IsNegative() {
		return nil, ErrCantidadInvalida
	}
	if err := s.ledger.ActualizarStockCantidad(ctx, id, req.Cantidad); err != nil {
		return nil, err
	}
	p, _ := s.ledger.Producto(id)
	return &dto.StockResponse{ID: id.String(), Cantidad: p.Cantidad}, nil
}

func (s *productoService) SumarStock(ctx context.Context, id uuid.UUID, req dto.SumarStockRequest) (*dto.StockResponse, error) {
	_, vaciado, err := s.ledger.SumarStock(ctx, id, req.Delta)
	if err != nil {
		return nil, err
	}
	p, _ := s.ledger.Producto(id)
	return &dto.StockResponse{ID: id.String(), Cantidad: p.Cantidad, Vaciado: vaciado}, nil
}

func (s *productoService) Alertas(_ context.Context) []dto.AlertaStockResponse {
	alertas := s.ledger.Alertas()
	out := make([]dto.AlertaStockResponse, 0, len(alertas))
	for _, a := range alertas {
		out = append(out, dto.AlertaStockResponse{
			ProductoID:  a.Producto.ID.String(),
			Nombre:      a.Producto.Nombre,
			Cantidad:    a.Producto.Cantidad,
			StockMinimo: a.Producto.StockMinimo,
			Estado:      a.Estado,
		})
	}
	return out
}

func (s *productoService) CandidatosPedido(_ context.Context) []dto.ProductoResponse {
	candidatos := s.ledger.CandidatosPedido()
	out := make([]dto.ProductoResponse, 0, len(candidatos))
	for i := range candidatos {
		out = append(out, s.toResponse(&candidatos[i]))
	}
	return out
}

func (s *productoService) Movimientos(ctx context.Context, filter dto.MovimientoStockFilter) (*dto.MovimientoStockListResponse, error) {
	f := repository.MovimientoStockFilter{Tipo: filter.Tipo, Page: filter.Page, Limit: filter.Limit}
	var err error
	if f.ProductoID, err = parseUUIDOpcional(&filter.ProductoID); err != nil {
		return nil, fmt.Errorf("%w: producto_id", ErrProductoInvalido)
	}
	if f.ReferenciaID, err = parseUUIDOpcional(&filter.ReferenciaID); err != nil {
		return nil, fmt.Errorf("%w: referencia_id", ErrProductoInvalido)
	}
	movs, total, err := s.movRepo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listar movimientos: %w", err)
	}
	resp := &dto.MovimientoStockListResponse{
		Data:  make([]dto.MovimientoStockResponse, 0, len(movs)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for _, m := range movs {
		r := dto.MovimientoStockResponse{
			ID:            m.ID.String(),
			ProductoID:    m.ProductoID.String(),
			Tipo:          m.Tipo,
			Cantidad:      m.Cantidad,
			StockAnterior: m.StockAnterior,
			StockNuevo:    m.StockNuevo,
			Motivo:        m.Motivo,
			CreatedAt:     m.CreatedAt.Format(time.RFC3339),
		}
		if m.ReferenciaID != nil {
			ref := m.ReferenciaID.String()
			r.ReferenciaID = &ref
		}
		resp.Data = append(resp.Data, r)
	}
	return resp, nil
}

func (s *productoService) Pendientes(_ context.Context) dto.PendientesResponse {
	if s.pendientes == nil {
		return dto.PendientesResponse{Pendientes: map[string]decimal.Decimal{}}
	}
	return dto.PendientesResponse{Pendientes: s.pendientes.Mapa()}
}

func (s *productoService) toResponse(p *model.Producto) dto.ProductoResponse {
	r := dto.ProductoResponse{
		ID:               p.ID.String(),
		Nombre:           p.Nombre,
		Categoria:        p.Categoria,
		Unidad:           p.Unidad,
		Cantidad:         p.Cantidad,
		StockMinimo:      p.StockMinimo,
		AptoReceta:       p.AptoReceta,
		FactorConversion: p.FactorConversion,
		EsDerivado:       p.EsDerivado(),
		Estado:           EstadoStock(p),
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
	}
	if p.StockPadreID != nil {
		id := p.StockPadreID.String()
		r.StockPadreID = &id
	}
	if p.FechaProduccion != nil {
		f := p.FechaProduccion.Format("2006-01-02")
		r.FechaProduccion = &f
	}
	if s.pendientes != nil {
		r.Pendiente = s.pendientes.De(p.Nombre)
	}
	return r
}

func parseUUIDOpcional(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, fmt.Errorf("%w: id inválido %q", ErrVinculoInvalido, *s)
	}
	return &id, nil
}

func parseFecha(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha %q", ErrProductoInvalido, *s)
	}
	return &t, nil
}
