package infra

// pdf.go: supplier order sheet generated with go-pdf/fpdf.
// One A4 page per order with:
//   - Kitchen name header
//   - Order date in the kitchen's time zone
//   - Line table (product, requested quantity, state)
//
// EscribirPedidoPDF streams to any writer (HTTP download); GenerarPedidoPDF
// stores the file under storagePath/pedido_{fecha}_{id}.pdf for the mail job.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stockcocina/internal/model"

	"github.com/go-pdf/fpdf"
)

var etiquetaEstado = map[string]string{
	model.EstadoPendiente:   "Pendiente",
	model.EstadoEntregado:   "Entregado",
	model.EstadoNoEntregado: "No entregado",
}

// EscribirPedidoPDF renders the order sheet for p into w.
func EscribirPedidoPDF(w io.Writer, p *model.Pedido, nombreCocina string, loc *time.Location) error {
	pdf := armarPedidoPDF(p, nombreCocina, loc)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write: %w", err)
	}
	return nil
}

// GenerarPedidoPDF writes the order sheet to storagePath (created if needed)
// and returns the file path.
func GenerarPedidoPDF(p *model.Pedido, nombreCocina string, loc *time.Location, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	fileName := fmt.Sprintf("pedido_%s_%s.pdf", p.CreatedAt.In(loc).Format("20060102"), p.ID.String()[:8])
	filePath := filepath.Join(storagePath, fileName)

	pdf := armarPedidoPDF(p, nombreCocina, loc)
	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

func armarPedidoPDF(p *model.Pedido, nombreCocina string, loc *time.Location) *fpdf.Fpdf {
	if loc == nil {
		loc = time.Local
	}
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	// core fonts are cp1252; names like "Azúcar" need translating
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, tr("PEDIDO "+strings.ToUpper(nombreCocina)), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, p.CreatedAt.In(loc).Format("02/01/2006"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Lines ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.55
	col2 := contentW * 0.20
	col3 := contentW * 0.25

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(col1, 7, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 7, "Cantidad", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col3, 7, "Estado", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, d := range p.Detalles {
		pdf.CellFormat(col1, 6, tr(d.ProductoNombre), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, tr(d.CantidadSolicitada.String()), "", 0, "R", false, 0, "")
		pdf.CellFormat(col3, 6, tr(etiquetaEstado[d.Estado]), "", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("%d productos", len(p.Detalles)), "", 1, "R", false, 0, "")
	return pdf
}
