package infra

// pdf.go — printable arqueo voucher using go-pdf/fpdf.
// A7-size thermal receipt-style ticket with the per-method expected/counted
// table and the resulting difference, for attaching to the physical cash
// count sheet.

import (
	"bytes"
	"fmt"

	"cajaledger/internal/dto"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateArqueoPDF renders the voucher for a persisted arqueo and returns
// the PDF bytes so the handler can stream them without touching disk.
func GenerateArqueoPDF(arqueo *dto.ArqueoResponse) ([]byte, error) {
	// A7 ≈ 74mm × 105mm — close to thermal receipt paper.
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 6, "ARQUEO DE CAJA", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, fmt.Sprintf("Sesion %s", arqueo.SesionCajaID), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 4, arqueo.CreatedAt, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// ── Per-method table ─────────────────────────────────────────────────────
	colMetodo := contentW * 0.40
	colMonto := contentW * 0.30

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(colMetodo, 4, "Metodo", "B", 0, "L", false, 0, "")
	pdf.CellFormat(colMonto, 4, "Esperado", "B", 0, "R", false, 0, "")
	pdf.CellFormat(colMonto, 4, "Contado", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	fila := func(nombre string, esperado, contado decimal.Decimal) {
		pdf.CellFormat(colMetodo, 4, nombre, "", 0, "L", false, 0, "")
		pdf.CellFormat(colMonto, 4, esperado.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(colMonto, 4, contado.StringFixed(2), "", 1, "R", false, 0, "")
	}
	fila("Efectivo", arqueo.Esperado.Efectivo, arqueo.Contado.Efectivo)
	fila("Yape", arqueo.Esperado.Yape, arqueo.Contado.Yape)
	fila("Transferencia", arqueo.Esperado.Transferencia, arqueo.Contado.Transferencia)
	fila("Tarjeta", arqueo.Esperado.Tarjeta, arqueo.Contado.Tarjeta)
	fila("Otro", arqueo.Esperado.Otro, arqueo.Contado.Otro)

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.Ln(1)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(colMetodo, 5, "TOTAL", "T", 0, "L", false, 0, "")
	pdf.CellFormat(colMonto, 5, arqueo.Esperado.Total.StringFixed(2), "T", 0, "R", false, 0, "")
	pdf.CellFormat(colMonto, 5, arqueo.Contado.Total.StringFixed(2), "T", 1, "R", false, 0, "")

	pdf.CellFormat(colMetodo+colMonto, 5, "Diferencia", "", 0, "L", false, 0, "")
	pdf.CellFormat(colMonto, 5, arqueo.Diferencia.StringFixed(2), "", 1, "R", false, 0, "")

	if arqueo.Nota != nil && *arqueo.Nota != "" {
		pdf.Ln(1)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.MultiCell(contentW, 3, "Nota: "+*arqueo.Nota, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render arqueo: %w", err)
	}
	return buf.Bytes(), nil
}
