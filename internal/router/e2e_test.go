//go:build integration

package router_test

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"stockcocina/internal/config"
	"stockcocina/internal/dto"
	"stockcocina/internal/infra"
	"stockcocina/internal/router"
	"stockcocina/internal/service"
	"stockcocina/internal/worker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type e2eEnv struct {
	server *httptest.Server
	rdb    *redis.Client
	deps   *router.Deps
	pdfDir string
}

func setupE2E(t *testing.T) *e2eEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("cocina_test"),
		tcPostgres.WithUsername("cocina"),
		tcPostgres.WithPassword("cocina"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(context.Background()) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:            "test",
		DatabaseURL:    pgURL,
		RedisURL:       rdURL,
		DebounceMS:     50,
		Timezone:       "UTC",
		NombreCocina:   "Cocina E2E",
		WorkerPoolSize: 1,
		PDFStoragePath: t.TempDir(),
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	require.NoError(t, err)

	deps := router.NewDeps(cfg, db, rdb)
	require.NoError(t, deps.Ledger.Cargar(ctx))

	worker.StartWorkerPool(ctx, rdb, worker.WorkerHandlers{
		Resumen: worker.NewResumenWorker(worker.ResumenWorkerConfig{
			Pedidos:        deps.Pedidos,
			NombreCocina:   cfg.NombreCocina,
			Location:       cfg.Location(),
			PDFStoragePath: cfg.PDFStoragePath,
		}),
	}, cfg.WorkerPoolSize)

	srv := httptest.NewServer(router.New(cfg, db, rdb, deps))
	t.Cleanup(srv.Close)
	return &e2eEnv{server: srv, rdb: rdb, deps: deps, pdfDir: cfg.PDFStoragePath}
}

func (e *e2eEnv) do(t *testing.T, method, path string, body any, dest any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if dest != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
	}
	return resp.StatusCode
}

func TestE2E_PedidoGeneraResumenYEspejoPendientes(t *testing.T) {
	e := setupE2E(t)
	ctx := context.Background()

	var harina dto.ProductoResponse
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/v1/productos",
		map[string]any{"nombre": "Harina", "categoria": "materia_prima", "unidad": "kg", "cantidad": "10"}, &harina))

	var res dto.ProcesarPedidoResponse
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/v1/pedidos",
		map[string]any{"items": []map[string]any{{"producto_id": harina.ID, "cantidad": "2.5"}}}, &res))

	espejo, err := e.rdb.HGetAll(ctx, service.ClavePendientes).Result()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Harina": "2.5"}, espejo)

	require.Eventually(t, func() bool {
		entries, _ := os.ReadDir(e.pdfDir)
		return len(entries) == 1
	}, 15*time.Second, 100*time.Millisecond, "summary job renders the PDF")

	n, err := worker.DLQLength(ctx, e.rdb, worker.QueuePedidos)
	require.NoError(t, err)
	assert.Zero(t, n)

	var dlq struct {
		Total int64 `json:"total"`
	}
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/v1/admin/dlq", nil, &dlq))
	assert.Zero(t, dlq.Total)

	payload, err := json.Marshal(worker.ResumenJobPayload{PedidoID: uuid.MustParse(res.Pedido.ID)})
	require.NoError(t, err)
	worker.SendToDLQ(ctx, e.rdb, worker.QueuePedidos, worker.JobResumenPedido, payload, "smtp down", worker.MaxJobAttempts)
	var reencolo struct {
		Reencolados int `json:"reencolados"`
	}
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/v1/admin/dlq/reencolar", nil, &reencolo))
	assert.Equal(t, 1, reencolo.Reencolados)
	n, err = worker.DLQLength(ctx, e.rdb, worker.QueuePedidos)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestE2E_EdicionDiferidaYEventoVaciado(t *testing.T) {
	e := setupE2E(t)
	ctx := context.Background()

	sub := e.rdb.Subscribe(ctx, service.CanalEventos)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	var leche dto.ProductoResponse
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/v1/productos",
		map[string]any{"nombre": "Leche", "categoria": "materia_prima", "unidad": "l", "cantidad": "1.5"}, &leche))

	var st dto.StockResponse
	require.Equal(t, http.StatusAccepted, e.do(t, http.MethodPatch, "/v1/productos/"+leche.ID+"/stock",
		map[string]any{"delta": "-2"}, &st))
	assert.True(t, st.Vaciado)
	assert.True(t, st.Cantidad.IsZero())

	select {
	case msg := <-sub.Channel():
		var ev service.Evento
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		assert.Equal(t, service.EventoStockVaciado, ev.Tipo)
		assert.Equal(t, "Leche", ev.Nombre)
	case <-time.After(5 * time.Second):
		t.Fatal("no stock_vaciado event")
	}

	// the debounced write lands in Postgres and is logged as a movement
	require.Eventually(t, func() bool {
		var movs dto.MovimientoStockListResponse
		if e.do(t, http.MethodGet, "/v1/movimientos?producto_id="+leche.ID, nil, &movs) != http.StatusOK {
			return false
		}
		return movs.Total == 1 && movs.Data[0].StockNuevo.IsZero()
	}, 5*time.Second, 100*time.Millisecond)
}
