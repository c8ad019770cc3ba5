package gofpdf

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"reseller-ops/go_backend/internal/domain/quote"
)

// Generator renders quotes with DejaVu from FontDir when set, which covers
// non-Latin names. Without it the core Helvetica font is used and characters
// outside cp1252 print as "?".
type Generator struct {
	CompanyName string
	FontDir     string
	Now         func() time.Time
}

func New(companyName string) *Generator {
	return &Generator{CompanyName: companyName, Now: time.Now}
}

func (g *Generator) Generate(q quote.Quote) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	family, tr := "Helvetica", pdf.UnicodeTranslatorFromDescriptor("")
	if g.FontDir != "" {
		pdf.AddUTF8Font("DejaVu", "", filepath.Join(g.FontDir, "DejaVuSans.ttf"))
		pdf.AddUTF8Font("DejaVu", "B", filepath.Join(g.FontDir, "DejaVuSans-Bold.ttf"))
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("load fonts from %s: %w", g.FontDir, err)
		}
		family, tr = "DejaVu", func(s string) string { return s }
	}
	pdf.SetTitle(tr("Quote "+q.Number), false)
	pdf.AddPage()

	pdf.SetFont(family, "B", 16)
	pdf.Cell(0, 10, tr("Quote"))
	pdf.Ln(8)

	created := q.CreatedAt
	if created.IsZero() {
		created = g.now()
	}
	pdf.SetFont(family, "", 11)
	pdf.Cell(0, 6, tr(fmt.Sprintf("No. %s dated %s", q.Number, created.Format("01/02/2006"))))
	pdf.Ln(6)

	if q.Customer.Name != "" || q.Customer.Contact != "" {
		pdf.Cell(0, 6, tr(fmt.Sprintf("Client: %s %s", q.Customer.Name, q.Customer.Contact)))
		pdf.Ln(6)
	}
	if q.Customer.Email != "" {
		pdf.Cell(0, 6, tr(q.Customer.Email))
		pdf.Ln(6)
	}

	totals := q.Totals()
	section := func(title string, ct quote.ChargeType, subtotal decimal.Decimal) {
		var rows []quote.Item
		for _, it := range q.Items {
			if it.ChargeType == ct || (ct == quote.ChargeMRC && it.ChargeType == "") {
				rows = append(rows, it)
			}
		}
		if len(rows) == 0 {
			return
		}
		pdf.Ln(4)
		pdf.SetFont(family, "B", 11)
		pdf.Cell(0, 7, tr(title))
		pdf.Ln(7)
		pdf.Cell(110, 7, tr("Item"))
		pdf.Cell(20, 7, tr("Qty"))
		pdf.Cell(30, 7, tr("Unit"))
		pdf.Cell(30, 7, tr("Total"))
		pdf.Ln(8)

		pdf.SetFont(family, "", 10)
		for _, it := range rows {
			pdf.Cell(110, 6, tr(trim(it.Name, 60)))
			pdf.Cell(20, 6, fmt.Sprintf("%d", it.Quantity))
			pdf.Cell(30, 6, money(it.UnitPrice))
			pdf.Cell(30, 6, money(it.TotalPrice))
			pdf.Ln(6)
		}
		pdf.SetFont(family, "B", 10)
		pdf.Cell(160, 6, tr(title+" subtotal"))
		pdf.Cell(30, 6, money(subtotal))
		pdf.Ln(6)
	}
	section("Monthly recurring charges", quote.ChargeMRC, totals.MRC)
	section("One-time charges", quote.ChargeNRC, totals.NRC)

	pdf.Ln(4)
	pdf.SetFont(family, "B", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Total: %s", money(totals.Amount))))
	pdf.Ln(6)

	if q.Comment != "" {
		pdf.SetFont(family, "", 10)
		pdf.MultiCell(0, 5, tr(q.Comment), "", "L", false)
	}

	pdf.SetFont(family, "", 9)
	if g.CompanyName != "" {
		pdf.Cell(0, 5, tr(g.CompanyName))
		pdf.Ln(5)
	}
	pdf.Cell(0, 5, fmt.Sprintf("Generated: %s", g.now().Format(time.RFC3339)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}

func money(v decimal.Decimal) string {
	return "$" + v.StringFixed(2)
}

func trim(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
