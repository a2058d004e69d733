package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"stockcocina/internal/model"
	"stockcocina/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcularMaximo_IngredienteLimitante(t *testing.T) {
	ings := []service.IngredienteResuelto{
		{Nombre: "Harina", CantidadNecesaria: dec("0.2"), Stock: dec("10")},
		{Nombre: "Huevo", CantidadNecesaria: dec("1"), Stock: dec("36")},
	}
	m, err := service.CalcularMaximo(ings)
	require.NoError(t, err)
	assert.True(t, m.Limitado)
	assert.True(t, m.Cantidad.Equal(dec("36")), "got %s", m.Cantidad)
	assert.Equal(t, "Huevo", m.Limitante.Nombre)
}

func TestCalcularMaximo_RedondeaHaciaAbajoYPrimerEmpate(t *testing.T) {
	ings := []service.IngredienteResuelto{
		{Nombre: "Leche", CantidadNecesaria: dec("0.3"), Stock: dec("1")},
		{Nombre: "Azúcar", CantidadNecesaria: dec("0.3"), Stock: dec("1")},
		{Nombre: "Agua", CantidadNecesaria: dec("0"), Stock: dec("0")},
	}
	m, err := service.CalcularMaximo(ings)
	require.NoError(t, err)
	assert.True(t, m.Cantidad.Equal(dec("3")))
	assert.Equal(t, "Leche", m.Limitante.Nombre)
}

func TestCalcularMaximo_SinIngredientes(t *testing.T) {
	_, err := service.CalcularMaximo(nil)
	assert.ErrorIs(t, err, service.ErrRecetaSinIngredientes)
}

func TestCalcularMaximo_SinRestricciones(t *testing.T) {
	m, err := service.CalcularMaximo([]service.IngredienteResuelto{{Nombre: "Agua", CantidadNecesaria: dec("0")}})
	require.NoError(t, err)
	assert.False(t, m.Limitado)
}

type escenarioTortilla struct {
	*entorno
	recetas  *stubRecetaRepo
	svc      service.RecetaService
	maple    *model.Producto
	huevo    *model.Producto
	papa     *model.Producto
	tortilla *model.Producto
}

func nuevaTortilla(t *testing.T) *escenarioTortilla {
	t.Helper()
	e := nuevoEntorno()
	s := &escenarioTortilla{entorno: e, recetas: &stubRecetaRepo{}}
	s.maple = seedProducto(e.productos, "Maple de huevos", model.UnidadUnidad, "10")
	s.huevo = seedHijo(e.productos, "Huevo", s.maple, "30")
	s.papa = seedProducto(e.productos, "Papa", model.UnidadKg, "5")
	s.tortilla = seedProducto(e.productos, "Tortilla", model.UnidadUnidad, "0")
	require.NoError(t, e.ledger.Cargar(context.Background()))

	s.svc = service.NewRecetaService(s.recetas, e.ledger)
	_, err := s.svc.AgregarIngrediente(context.Background(), s.tortilla.ID, s.huevo.ID, dec("3"))
	require.NoError(t, err)
	_, err = s.svc.AgregarIngrediente(context.Background(), s.tortilla.ID, s.papa.ID, dec("0.5"))
	require.NoError(t, err)
	return s
}

func (s *escenarioTortilla) cantidad(id uuid.UUID) string {
	p, _ := s.ledger.Producto(id)
	return p.Cantidad.String()
}

func TestListarIngredientes_ResueltosContraLedger(t *testing.T) {
	s := nuevaTortilla(t)
	ings, err := s.svc.ListarIngredientes(context.Background(), s.tortilla.ID)
	require.NoError(t, err)
	require.Len(t, ings, 2)
	assert.Equal(t, "Huevo", ings[0].Nombre)
	assert.True(t, ings[0].Stock.Equal(dec("300")))
	assert.True(t, ings[0].Encontrado)

	m, err := s.svc.Maximo(context.Background(), s.tortilla.ID)
	require.NoError(t, err)
	assert.True(t, m.Cantidad.Equal(dec("10")))
	assert.Equal(t, "Papa", m.Limitante.Nombre)
}

func TestAgregarIngrediente_CantidadNoPositiva(t *testing.T) {
	s := nuevaTortilla(t)
	_, err := s.svc.AgregarIngrediente(context.Background(), s.tortilla.ID, s.papa.ID, dec("0"))
	assert.ErrorIs(t, err, service.ErrCantidadInvalida)
	assert.Len(t, s.recetas.recetas, 2)
}

func TestEliminarIngrediente(t *testing.T) {
	s := nuevaTortilla(t)
	ings, err := s.svc.EliminarIngrediente(context.Background(), s.recetas.recetas[0].ID, s.tortilla.ID)
	require.NoError(t, err)
	require.Len(t, ings, 1)
	assert.Equal(t, "Papa", ings[0].Nombre)
}

func TestCandidatosInsumo(t *testing.T) {
	s := nuevaTortilla(t)
	e := s.entorno
	e.productos.productos[s.tortilla.ID].Categoria = model.CategoriaReceta
	objeto := seedProducto(e.productos, "Servilletas", model.UnidadUnidad, "100")
	e.productos.productos[objeto.ID].Categoria = model.CategoriaObjetos
	require.NoError(t, e.ledger.Cargar(context.Background()))

	var got []string
	for _, p := range s.svc.CandidatosInsumo(s.papa.ID) {
		got = append(got, p.Nombre)
	}
	assert.ElementsMatch(t, []string{"Maple de huevos", "Huevo"}, got)
}

func TestRegistrarProduccion_ConsumeIngredientes(t *testing.T) {
	s := nuevaTortilla(t)
	res, err := s.svc.RegistrarProduccion(context.Background(), s.tortilla.ID, dec("2"), nil)
	require.NoError(t, err)

	assert.Equal(t, "2", s.cantidad(s.tortilla.ID))
	assert.Equal(t, "9.8", s.cantidad(s.maple.ID))
	assert.Equal(t, "294", s.cantidad(s.huevo.ID))
	assert.Equal(t, "4", s.cantidad(s.papa.ID))
	assert.Len(t, res.Consumos, 2)
	assert.True(t, res.Producto.Cantidad.Equal(dec("2")))
	assert.Equal(t, 0, s.productos.updatesDe(s.huevo.ID))
}

func TestRegistrarProduccion_VaciarIngrediente(t *testing.T) {
	s := nuevaTortilla(t)
	_, err := s.svc.RegistrarProduccion(context.Background(), s.tortilla.ID, dec("1"), &s.papa.ID)
	require.NoError(t, err)
	assert.Equal(t, "0", s.cantidad(s.papa.ID))
	assert.Equal(t, "9.9", s.cantidad(s.maple.ID))
}

func TestRegistrarProduccion_VaciarIngredienteVinculado(t *testing.T) {
	s := nuevaTortilla(t)
	res, err := s.svc.RegistrarProduccion(context.Background(), s.tortilla.ID, dec("1"), &s.huevo.ID)
	require.NoError(t, err)
	assert.Equal(t, "0", s.cantidad(s.maple.ID))
	assert.Equal(t, "0", s.cantidad(s.huevo.ID))
	assert.Equal(t, "4.5", s.cantidad(s.papa.ID))

	var vaciados int
	for _, c := range res.Consumos {
		if c.Vaciado {
			vaciados++
			assert.Equal(t, s.maple.ID, c.ProductoID)
		}
	}
	assert.Equal(t, 1, vaciados)
}

func TestRegistrarProduccion_AcumulaPorTitularYNoBajaDeCero(t *testing.T) {
	s := nuevaTortilla(t)
	_, err := s.svc.AgregarIngrediente(context.Background(), s.tortilla.ID, s.papa.ID, dec("0.25"))
	require.NoError(t, err)

	_, err = s.svc.RegistrarProduccion(context.Background(), s.tortilla.ID, dec("2"), nil)
	require.NoError(t, err)
	assert.Equal(t, "3.5", s.cantidad(s.papa.ID))

	_, err = s.svc.RegistrarProduccion(context.Background(), s.tortilla.ID, dec("20"), nil)
	require.NoError(t, err)
	assert.Equal(t, "0", s.cantidad(s.papa.ID))
	assert.Equal(t, "22", s.cantidad(s.tortilla.ID))
}

func TestRegistrarProduccion_RechazaCantidadNoPositiva(t *testing.T) {
	s := nuevaTortilla(t)
	_, err := s.svc.RegistrarProduccion(context.Background(), s.tortilla.ID, dec("0"), nil)
	assert.ErrorIs(t, err, service.ErrCantidadInvalida)
	assert.Equal(t, 0, s.productos.updatesDe(s.tortilla.ID))
}

func TestRegistrarProduccion_FalloBackend(t *testing.T) {
	s := nuevaTortilla(t)
	s.productos.setFail(errors.New("timeout"))
	_, err := s.svc.RegistrarProduccion(context.Background(), s.tortilla.ID, dec("1"), nil)
	assert.ErrorIs(t, err, service.ErrProduccionFallida)
	assert.False(t, service.EsValidacion(err))
}

func TestRegistrarProduccion_ConservaEdicionConcurrente(t *testing.T) {
	s := nuevaTortilla(t)
	ctx := context.Background()

	// Papa gets +5 while the batch is writing the produced quantity.
	var una sync.Once
	s.productos.setHooks(nil, func(uuid.UUID) {
		una.Do(func() {
			_, _, err := s.ledger.SumarStock(ctx, s.papa.ID, dec("5"))
			assert.NoError(t, err)
		})
	})
	_, err := s.svc.RegistrarProduccion(ctx, s.tortilla.ID, dec("2"), nil)
	require.NoError(t, err)
	s.productos.setHooks(nil, nil)
	s.ledger.Flush(ctx)

	assert.Equal(t, "9", s.cantidad(s.papa.ID))
	assert.True(t, s.productos.stored(s.papa.ID).Equal(dec("9")), "got %s", s.productos.stored(s.papa.ID))
	assert.Equal(t, "9.8", s.cantidad(s.maple.ID))
}

func TestRegistrarProduccion_TitularCompartidoConElProducto(t *testing.T) {
	s := nuevaTortilla(t)
	ctx := context.Background()
	_, err := s.svc.AgregarIngrediente(ctx, s.maple.ID, s.huevo.ID, dec("3"))
	require.NoError(t, err)

	res, err := s.svc.RegistrarProduccion(ctx, s.maple.ID, dec("1"), nil)
	require.NoError(t, err)
	assert.Equal(t, "10.9", s.cantidad(s.maple.ID))

	require.Len(t, res.Consumos, 1)
	assert.Equal(t, s.maple.ID, res.Consumos[0].ProductoID)
	assert.True(t, res.Consumos[0].Nuevo.Equal(dec("10.9")))

	var tipos []string
	for _, m := range s.movs.movimientos {
		if m.ProductoID == s.maple.ID {
			tipos = append(tipos, m.Tipo)
		}
	}
	assert.Equal(t, []string{model.MovimientoProduccion, model.MovimientoConsumo}, tipos)
}
