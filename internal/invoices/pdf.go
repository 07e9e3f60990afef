package invoices

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const (
	dateLayout   = "02 Jan 2006"
	dueAfterDays = 7
	// Core fonts are latin-1 only, so the rupee sign is spelled out.
	currencyPrefix = "Rs. "
)

// Item is one invoice line.
type Item struct {
	Description string
	Quantity    int
	Price       decimal.Decimal
}

func (i Item) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Invoice is everything printed on the PDF.
type Invoice struct {
	Number        string
	Date          time.Time
	CustomerName  string
	CustomerEmail string
	Items         []Item
	Tax           decimal.Decimal
}

func (inv Invoice) DueDate() time.Time {
	return inv.Date.AddDate(0, 0, dueAfterDays)
}

func (inv Invoice) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range inv.Items {
		total = total.Add(item.Total())
	}
	return total
}

func (inv Invoice) Total() decimal.Decimal {
	return inv.Subtotal().Add(inv.Tax)
}

// FileName is the stored object name for the invoice.
func (inv Invoice) FileName() string {
	return fmt.Sprintf("invoice-%s.pdf", inv.Number)
}

// Render lays out the invoice on a single A4 page.
func Render(inv Invoice) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCreationDate(inv.Date)
	pdf.SetModificationDate(inv.Date)
	pdf.SetTitle("Invoice "+inv.Number, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Text(50, 70, "INVOICE")
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(50, 90, "SaaS Tools Platform")

	pdf.Text(400, 60, "Invoice #: "+inv.Number)
	pdf.Text(400, 75, "Date: "+inv.Date.Format(dateLayout))
	pdf.Text(400, 90, "Due Date: "+inv.DueDate().Format(dateLayout))

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(50, 132, "Bill To:")
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(50, 150, inv.CustomerName)
	pdf.Text(50, 165, inv.CustomerEmail)

	y := 210.0
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(50, y, "Description")
	pdf.Text(300, y, "Qty")
	pdf.Text(350, y, "Price")
	pdf.Text(450, y, "Total")
	y += 10
	pdf.Line(50, y, 500, y)
	y += 20

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range inv.Items {
		pdf.Text(50, y, item.Description)
		pdf.Text(300, y, fmt.Sprintf("%d", item.Quantity))
		pdf.Text(350, y, money(item.Price))
		pdf.Text(450, y, money(item.Total()))
		y += 20
	}

	y += 10
	pdf.Line(300, y, 500, y)
	y += 20
	pdf.Text(350, y, "Subtotal: "+money(inv.Subtotal()))
	y += 15
	pdf.Text(350, y, "Tax: "+money(inv.Tax))
	y += 17
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(350, y, "Total: "+money(inv.Total()))

	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(50, 708, "Thank you for your business!")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func money(amount decimal.Decimal) string {
	return currencyPrefix + amount.StringFixed(2)
}
