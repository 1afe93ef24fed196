package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/minehaul/fleetsafety/internal/i18n"
)

// document wraps the PDF with the handful of layout primitives reports use.
type document struct {
	pdf    *gofpdf.Fpdf
	family string
	images int
}

type col struct {
	label string
	width float64
}

type cell struct {
	text  string
	width float64
}

func newDocument(fontPath string, createdAt time.Time) *document {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(createdAt.UTC())
	pdf.SetModificationDate(createdAt.UTC())
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)

	family := "Helvetica"
	if fontPath != "" {
		family = "unicode"
		pdf.AddUTF8Font(family, "", fontPath)
		pdf.AddUTF8Font(family, "B", fontPath)
	}
	return &document{pdf: pdf, family: family}
}

func (d *document) footer(pack *i18n.Pack) {
	d.pdf.SetFooterFunc(func() {
		d.pdf.SetY(-15)
		d.pdf.SetFont(d.family, "", 8)
		d.pdf.SetTextColor(120, 120, 120)
		d.pdf.CellFormat(0, 10, fmt.Sprintf("%s %d", pack.T("page"), d.pdf.PageNo()), "", 0, "C", false, 0, "")
		d.pdf.SetTextColor(0, 0, 0)
	})
}

func (d *document) title(text string) {
	d.pdf.SetFont(d.family, "B", 18)
	d.pdf.CellFormat(0, 12, text, "", 1, "L", false, 0, "")
	d.pdf.Ln(2)
}

func (d *document) section(text string) {
	d.pdf.SetFont(d.family, "B", 13)
	d.pdf.CellFormat(0, 9, text, "", 1, "L", false, 0, "")
	d.pdf.Ln(1)
}

func (d *document) kv(key, value string) {
	d.pdf.SetFont(d.family, "B", 10)
	d.pdf.CellFormat(50, 6, key, "", 0, "L", false, 0, "")
	d.pdf.SetFont(d.family, "", 10)
	d.pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
}

func (d *document) notice(text string) {
	d.pdf.SetFont(d.family, "B", 10)
	d.pdf.SetTextColor(180, 30, 30)
	d.pdf.MultiCell(0, 6, text, "", "L", false)
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *document) gap() {
	d.pdf.Ln(5)
}

func (d *document) tableHeader(cols []col) {
	d.pdf.SetFont(d.family, "B", 9)
	d.pdf.SetFillColor(235, 238, 243)
	for _, c := range cols {
		d.pdf.CellFormat(c.width, 7, c.label, "1", 0, "L", true, 0, "")
	}
	d.pdf.Ln(-1)
}

func (d *document) tableRow(cells []cell) {
	d.pdf.SetFont(d.family, "", 9)
	for _, c := range cells {
		d.pdf.CellFormat(c.width, 6, c.text, "1", 0, "L", false, 0, "")
	}
	d.pdf.Ln(-1)
}

// image embeds a PNG at full content width, breaking the page first when
// too little room remains.
func (d *document) image(name string, png []byte) {
	d.images++
	ref := fmt.Sprintf("%s-%d", name, d.images)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	d.pdf.RegisterImageOptionsReader(ref, opts, bytes.NewReader(png))

	pageW, pageH := d.pdf.GetPageSize()
	w := pageW - 30
	h := w * chartHeight / chartWidth
	if y := d.pdf.GetY(); y+h > pageH-25 {
		d.pdf.AddPage()
	}
	d.pdf.ImageOptions(ref, 15, d.pdf.GetY(), w, h, false, opts, 0, "")
	d.pdf.SetY(d.pdf.GetY() + h + 5)
	d.pdf.Ln(2)
}
