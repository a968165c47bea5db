package infra

// pdf.go — Internal PDF quote summary generation using go-pdf/fpdf.
// Generates an A4 summary with:
//   - Header with quote id and client reference
//   - One block per day (title, date, subconcept table)
//   - Day totals, subtotal, IVA and bold grand total

import (
	"fmt"
	"os"
	"path/filepath"

	"amexing/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateQuotePDF writes a PDF summary for a quote and returns the absolute
// path to the generated file. storagePath is created if needed.
func GenerateQuotePDF(quote *model.Quote, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("cotizacion_%s.pdf", quote.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Cotización de Servicios", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Cotización %s", quote.ID), "", 1, "C", false, 0, "")
	if quote.ClientRef != nil {
		pdf.CellFormat(contentW, 5, fmt.Sprintf("Cliente: %s", *quote.ClientRef), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(contentW, 5, quote.UpdatedAt.Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	col1 := contentW * 0.46 // concept
	col2 := contentW * 0.18 // type
	col3 := contentW * 0.14 // people
	col4 := contentW * 0.22 // price

	// ── Days ─────────────────────────────────────────────────────────────────
	for _, day := range quote.ServiceItems.Days {
		pdf.SetFont("Helvetica", "B", 11)
		title := fmt.Sprintf("Día %d", day.DayNumber)
		if day.DayTitle != "" {
			title += " — " + day.DayTitle
		}
		pdf.CellFormat(contentW, 7, title, "", 1, "L", false, 0, "")
		if day.DayDate != "" {
			pdf.SetFont("Helvetica", "", 8)
			pdf.CellFormat(contentW, 4, day.DayDate, "", 1, "L", false, 0, "")
		}

		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(col1, 5, "Concepto", "B", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, "Tipo", "B", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "Pax", "B", 0, "C", false, 0, "")
		pdf.CellFormat(col4, 5, "Precio", "B", 1, "R", false, 0, "")

		pdf.SetFont("Helvetica", "", 8)
		for _, sc := range day.Subconcepts {
			name := sc.ItemID
			if len(name) > 36 {
				name = name[:35] + "…"
			}
			pdf.CellFormat(col1, 5, name, "", 0, "L", false, 0, "")
			pdf.CellFormat(col2, 5, sc.Type, "", 0, "L", false, 0, "")
			pdf.CellFormat(col3, 5, fmt.Sprintf("%d", sc.NumberOfPeople), "", 0, "C", false, 0, "")
			pdf.CellFormat(col4, 5, "$"+sc.Price.StringFixed(2), "", 1, "R", false, 0, "")
		}

		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(col1+col2+col3, 6, "Total del día:", "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, "$"+day.DayTotal.StringFixed(2), "", 1, "R", false, 0, "")
		pdf.Ln(3)
	}

	// ── Totals ────────────────────────────────────────────────────────────────
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(col1+col2+col3, 6, "Subtotal:", "", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, "$"+quote.ServiceItems.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.CellFormat(col1+col2+col3, 6, "IVA:", "", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, "$"+quote.ServiceItems.IVA.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(col1+col2+col3, 8, fmt.Sprintf("TOTAL (%s):", quote.Currency), "", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 8, "$"+quote.ServiceItems.Total.StringFixed(2), "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
