package worker

// resumen_worker.go
// Processes resumen_pedido jobs from QueuePedidos: renders the order sheet
// as PDF and mails it, with the plain-text summary as body, to the supplier.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockcocina/internal/infra"
	"stockcocina/internal/model"
	"stockcocina/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PedidoLoader is the slice of the order repository the worker needs.
type PedidoLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error)
}

// Mailer sends one summary mail; *infra.Mailer implements it.
type Mailer interface {
	SendPedido(to, subject, body, pdfPath string) error
}

// Archivador keeps a remote copy of a generated PDF; *infra.ArchivoPDF implements it.
type Archivador interface {
	Subir(ctx context.Context, path string) (string, error)
}

// ResumenWorkerConfig holds the worker's dependencies.
type ResumenWorkerConfig struct {
	Pedidos        PedidoLoader
	Mailer         Mailer
	Destino        string // supplier address; empty keeps only the PDF
	NombreCocina   string
	Location       *time.Location
	PDFStoragePath string
	Archivo        Archivador // optional
}

// ResumenWorker renders and mails order summaries.
type ResumenWorker struct {
	cfg ResumenWorkerConfig
}

func NewResumenWorker(cfg ResumenWorkerConfig) *ResumenWorker {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &ResumenWorker{cfg: cfg}
}

// Process implements JobHandler.
func (w *ResumenWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ResumenJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("resumen_worker: invalid payload: %w", err)
	}

	pedido, err := w.cfg.Pedidos.FindByID(ctx, payload.PedidoID)
	if err != nil {
		return fmt.Errorf("resumen_worker: load pedido %s: %w", payload.PedidoID, err)
	}

	path, err := infra.GenerarPedidoPDF(pedido, w.cfg.NombreCocina, w.cfg.Location, w.cfg.PDFStoragePath)
	if err != nil {
		return err
	}

	// The archive copy is best effort; a bucket outage must not block the mail.
	if w.cfg.Archivo != nil {
		if key, err := w.cfg.Archivo.Subir(ctx, path); err != nil {
			log.Warn().Err(err).Str("pedido_id", pedido.ID.String()).Msg("resumen_worker: archive upload failed")
		} else {
			log.Debug().Str("key", key).Msg("resumen_worker: PDF archived")
		}
	}

	if w.cfg.Destino == "" || w.cfg.Mailer == nil {
		log.Info().Str("pedido_id", pedido.ID.String()).Str("pdf", path).
			Msg("resumen_worker: no supplier address, PDF stored only")
		return nil
	}

	subject := fmt.Sprintf("Pedido %s - %s", w.cfg.NombreCocina, pedido.CreatedAt.In(w.cfg.Location).Format("02/01/2006"))
	body := service.RenderResumen(pedido, w.cfg.NombreCocina, w.cfg.Location)
	if err := w.cfg.Mailer.SendPedido(w.cfg.Destino, subject, body, path); err != nil {
		return fmt.Errorf("resumen_worker: send mail: %w", err)
	}
	log.Info().Str("to", w.cfg.Destino).Str("pedido_id", pedido.ID.String()).Msg("resumen_worker: summary sent")
	return nil
}

var (
	_ Mailer     = (*infra.Mailer)(nil)
	_ Archivador = (*infra.ArchivoPDF)(nil)
)
