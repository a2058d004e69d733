package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stockcocina/internal/infra"
	"stockcocina/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pedidosFijos map[uuid.UUID]*model.Pedido

func (p pedidosFijos) FindByID(_ context.Context, id uuid.UUID) (*model.Pedido, error) {
	if ped, ok := p[id]; ok {
		return ped, nil
	}
	return nil, errors.New("record not found")
}

type mailerCaptura struct {
	to, subject, body, pdf string
	err                    error
}

func (m *mailerCaptura) SendPedido(to, subject, body, pdfPath string) error {
	m.to, m.subject, m.body, m.pdf = to, subject, body, pdfPath
	return m.err
}

func pedidoPrueba() *model.Pedido {
	return &model.Pedido{
		ID:        uuid.New(),
		CreatedAt: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
		Detalles: []model.DetallePedido{
			{ProductoNombre: "Harina", CantidadSolicitada: model.NuevaCantidad(decimal.NewFromInt(3), "kg"), Estado: model.EstadoPendiente},
		},
	}
}

func payloadDe(t *testing.T, id uuid.UUID) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(ResumenJobPayload{PedidoID: id})
	require.NoError(t, err)
	return raw
}

func TestResumenWorker_EnviaPDFYResumen(t *testing.T) {
	p := pedidoPrueba()
	mailer := &mailerCaptura{}
	w := NewResumenWorker(ResumenWorkerConfig{
		Pedidos:        pedidosFijos{p.ID: p},
		Mailer:         mailer,
		Destino:        "proveedor@example.com",
		NombreCocina:   "Cocina Silvestre",
		Location:       time.UTC,
		PDFStoragePath: t.TempDir(),
	})

	require.NoError(t, w.Process(context.Background(), payloadDe(t, p.ID)))
	assert.Equal(t, "proveedor@example.com", mailer.to)
	assert.Equal(t, "Pedido Cocina Silvestre - 16/10/2026", mailer.subject)
	assert.Contains(t, mailer.body, "- Harina: *3 kg*")
	_, err := os.Stat(mailer.pdf)
	assert.NoError(t, err)
}

func TestResumenWorker_SinDestinoSoloGuardaPDF(t *testing.T) {
	p := pedidoPrueba()
	mailer := &mailerCaptura{}
	dir := t.TempDir()
	w := NewResumenWorker(ResumenWorkerConfig{
		Pedidos:        pedidosFijos{p.ID: p},
		Mailer:         mailer,
		PDFStoragePath: dir,
	})

	require.NoError(t, w.Process(context.Background(), payloadDe(t, p.ID)))
	assert.Empty(t, mailer.to)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

type archivoCaptura struct {
	subidos []string
	err     error
}

func (a *archivoCaptura) Subir(_ context.Context, path string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.subidos = append(a.subidos, path)
	return "pedidos/" + filepath.Base(path), nil
}

func TestResumenWorker_ArchivaSinBloquearEnvio(t *testing.T) {
	p := pedidoPrueba()
	archivo := &archivoCaptura{}
	mailer := &mailerCaptura{}
	w := NewResumenWorker(ResumenWorkerConfig{
		Pedidos:        pedidosFijos{p.ID: p},
		Mailer:         mailer,
		Destino:        "proveedor@example.com",
		PDFStoragePath: t.TempDir(),
		Archivo:        archivo,
	})
	require.NoError(t, w.Process(context.Background(), payloadDe(t, p.ID)))
	require.Len(t, archivo.subidos, 1)
	assert.Equal(t, mailer.pdf, archivo.subidos[0])

	archivo.err = errors.New("bucket down")
	mailer.to = ""
	require.NoError(t, w.Process(context.Background(), payloadDe(t, p.ID)))
	assert.Equal(t, "proveedor@example.com", mailer.to)
}

func TestResumenWorker_Errores(t *testing.T) {
	w := NewResumenWorker(ResumenWorkerConfig{Pedidos: pedidosFijos{}, PDFStoragePath: t.TempDir()})

	assert.Error(t, w.Process(context.Background(), json.RawMessage(`{"pedido_id":`)))
	assert.Error(t, w.Process(context.Background(), payloadDe(t, uuid.New())))

	p := pedidoPrueba()
	fallido := NewResumenWorker(ResumenWorkerConfig{
		Pedidos:        pedidosFijos{p.ID: p},
		Mailer:         &mailerCaptura{err: errors.New("smtp down")},
		Destino:        "proveedor@example.com",
		PDFStoragePath: t.TempDir(),
	})
	assert.ErrorContains(t, fallido.Process(context.Background(), payloadDe(t, p.ID)), "smtp down")
}

type handlerFunc func(context.Context, json.RawMessage) error

func (f handlerFunc) Process(ctx context.Context, raw json.RawMessage) error { return f(ctx, raw) }

func TestRunHandler(t *testing.T) {
	ctx := context.Background()

	err := runHandler(ctx, WorkerHandlers{}, Job{Type: JobResumenPedido})
	assert.ErrorIs(t, err, errJobDesconocido)

	err = runHandler(ctx, WorkerHandlers{}, Job{Type: "otro"})
	assert.ErrorIs(t, err, errJobDesconocido)

	h := WorkerHandlers{Resumen: handlerFunc(func(context.Context, json.RawMessage) error { panic("boom") })}
	err = runHandler(ctx, h, Job{Type: JobResumenPedido})
	assert.ErrorContains(t, err, "panic")

	llamado := false
	h = WorkerHandlers{Resumen: handlerFunc(func(context.Context, json.RawMessage) error { llamado = true; return nil })}
	require.NoError(t, runHandler(ctx, h, Job{Type: JobResumenPedido}))
	assert.True(t, llamado)
}

type recargaContador struct{ n int }

func (r *recargaContador) Cargar(context.Context) error { r.n++; return nil }

func TestRecargar_RespetaBreaker(t *testing.T) {
	r := &recargaContador{}
	recargar(context.Background(), RecargaCronConfig{Ledger: r})
	assert.Equal(t, 1, r.n)

	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Hour})
	_ = cb.Execute(func() error { return errors.New("down") })
	recargar(context.Background(), RecargaCronConfig{Ledger: r, CB: cb})
	assert.Equal(t, 1, r.n, "open breaker skips the reload")
}
