// Package invoice renders the PDF invoice of a delivered order.
package invoice

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"mocca-storefront/models"
	"mocca-storefront/utils"
)

var ErrNotDelivered = errors.New("invoice is only available for delivered orders")

// Filename is the download name of the invoice for orderID.
func Filename(orderID string) string {
	return fmt.Sprintf("Invoice_%s.pdf", orderID)
}

const (
	pageBottom = 270.0
	lineHeight = 8.0
)

var columns = []struct {
	title string
	width float64
	align string
}{
	{"Product", 80, "L"},
	{"Size", 20, "C"},
	{"Qty", 20, "C"},
	{"Price", 35, "R"},
	{"Total", 35, "R"},
}

// Render writes the invoice for order to w.
func Render(w io.Writer, order *models.Order) error {
	if order.OrderStatus != models.OrderStatusDelivered {
		return ErrNotDelivered
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(Filename(order.ID), false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "MOCCA", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Invoice", "", 1, "C", false, 0, "")
	pdf.SetLineWidth(0.5)
	pdf.Line(10, 28, 200, 28)
	pdf.SetY(34)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, lineHeight, "Order ID: "+order.ID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, "Order Date: "+utils.FormatDisplayDate(order.OrderDate.Time), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, "Payment: "+string(order.PaymentMethod), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, lineHeight, "Customer Details", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, lineHeight, "Name: "+order.Address.Name, "", 1, "L", false, 0, "")
	pdf.MultiCell(180, 6, "Address: "+strings.Join(order.Address.Lines(), ", "), "", "L", false)
	if contact := order.Address.Contact(); contact != "" {
		pdf.CellFormat(0, lineHeight, "Phone: "+contact, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	header := func() {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetFillColor(243, 114, 84)
		pdf.SetTextColor(255, 255, 255)
		for _, c := range columns {
			pdf.CellFormat(c.width, lineHeight, c.title, "1", 0, c.align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 10)
	}
	header()

	for _, item := range order.Products {
		if pdf.GetY()+lineHeight > pageBottom {
			pdf.AddPage()
			header()
		}
		name := item.ProductName
		if item.Closed() {
			name += " (" + string(item.Status) + ")"
		}
		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		cells := []string{
			truncate(pdf, name, columns[0].width-2),
			item.Size,
			fmt.Sprintf("%d", item.Quantity),
			utils.FormatINR(item.Price),
			utils.FormatINR(lineTotal),
		}
		for i, c := range columns {
			pdf.CellFormat(c.width, lineHeight, cells[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if pdf.GetY()+3*lineHeight > pageBottom {
		pdf.AddPage()
	}
	pdf.Ln(4)
	labelWidth := columns[0].width + columns[1].width + columns[2].width + columns[3].width
	if order.DiscountAmount.IsPositive() {
		label := "Discount"
		if order.PromoCode != "" {
			label += " (" + order.PromoCode + ")"
		}
		pdf.CellFormat(labelWidth, lineHeight, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(columns[4].width, lineHeight, "- "+utils.FormatINR(order.DiscountAmount), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(labelWidth, lineHeight, "Total Amount", "", 0, "R", false, 0, "")
	pdf.CellFormat(columns[4].width, lineHeight, utils.FormatINR(order.TotalAmount), "", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render invoice: %w", err)
	}
	return nil
}

func truncate(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
