package invoice

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cleanco/platform/internal/models"
)

// RenderPDF builds a minimal single-page PDF for a public invoice link.
// No PDF library appears anywhere in the reference corpus, so the half
// dozen objects a one-page text invoice needs are written out by hand
// rather than pulling in a dependency for one low-traffic endpoint.
func RenderPDF(inv *models.Invoice, items []models.InvoiceItem) []byte {
	lines := []string{
		fmt.Sprintf("Invoice INV-%d-%06d", inv.Year, inv.Number),
		fmt.Sprintf("Status: %s", inv.Status),
		"",
	}
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("%s  qty=%.2f  unit=$%.2f  total=$%.2f",
			it.Description, float64(it.QuantityX100)/100, float64(it.UnitPriceCents)/100, float64(it.LineTotalCents)/100))
	}
	lines = append(lines, "",
		fmt.Sprintf("Total: $%.2f   Paid: $%.2f   Outstanding: $%.2f",
			float64(inv.TotalCents)/100, float64(inv.PaidCents)/100, float64(inv.Outstanding())/100))

	var content bytes.Buffer
	content.WriteString("BT /F1 12 Tf 50 770 Td\n")
	for _, line := range lines {
		fmt.Fprintf(&content, "(%s) Tj 0 -16 Td\n", escapePDFText(line))
	}
	content.WriteString("ET")

	return buildSinglePagePDF(content.Bytes())
}

func escapePDFText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `(`, `\(`)
	s = strings.ReplaceAll(s, `)`, `\)`)
	return s
}

func buildSinglePagePDF(content []byte) []byte {
	var buf bytes.Buffer
	var offsets []int

	write := func(s string) { buf.WriteString(s) }
	track := func() { offsets = append(offsets, buf.Len()) }

	write("%PDF-1.4\n")
	track()
	write("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	track()
	write("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	track()
	write("3 0 obj\n<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 4 0 R >> >> /MediaBox [0 0 612 792] /Contents 5 0 R >>\nendobj\n")
	track()
	write("4 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")
	track()
	fmt.Fprintf(&buf, "5 0 obj\n<< /Length %d >>\nstream\n", len(content))
	buf.Write(content)
	write("\nendstream\nendobj\n")

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF", len(offsets)+1, xrefStart)

	return buf.Bytes()
}
