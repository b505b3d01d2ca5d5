package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// ReportActivity is one activity row in a rendered report, with its
// evidence images already compressed to JPEG.
type ReportActivity struct {
	Name         string
	Institution  string
	Area         string
	Status       string
	StartDate    string
	EndDate      string
	Hours        int
	Observations string
	Images       [][]byte
}

// ReportStudent groups one student's activities in a rendered report.
type ReportStudent struct {
	NUA        string
	FullName   string
	Career     string
	Sede       string
	Email      string
	Phone      string
	Activities []ReportActivity
}

// ReportData is the full payload for a period or career report.
type ReportData struct {
	Title    string
	Subtitle string
	Students []ReportStudent
}

// PDFRenderer produces the service-hours report document.
type PDFRenderer struct{}

// NewPDFRenderer constructs a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render creates the report PDF: a title page header, one section per
// student with an activity table, and up to two evidence images per
// activity.
func (r *PDFRenderer) Render(data ReportData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Página %d de {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(data.Title), "", 1, "C", false, 0, "")
	if data.Subtitle != "" {
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 7, tr(data.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	imageIndex := 0
	for _, student := range data.Students {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(0, 9, tr(fmt.Sprintf("%s  (NUA %s)", student.FullName, student.NUA)), "1", 1, "L", true, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 6, tr(student.Career), "", 1, "L", false, 0, "")
		if student.Email != "" {
			pdf.CellFormat(0, 5, tr(fmt.Sprintf("%s  |  %s  |  %s", student.Sede, student.Email, student.Phone)), "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)

		r.activityTable(pdf, tr, student.Activities)
		for _, activity := range student.Activities {
			for _, img := range activity.Images {
				r.embedImage(pdf, img, &imageIndex)
			}
		}
		pdf.Ln(6)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) activityTable(pdf *gofpdf.Fpdf, tr func(string) string, activities []ReportActivity) {
	widths := []float64{60, 15, 25, 25, 15, 45}
	headers := []string{"Actividad", "Área", "Inicio", "Fin", "Horas", "Estado"}

	pdf.SetFont("Arial", "B", 9)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, tr(header), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, activity := range activities {
		status := activity.Status
		if activity.Observations != "" {
			status += " - " + activity.Observations
		}
		cells := []string{activity.Name, activity.Area, activity.StartDate, activity.EndDate, fmt.Sprintf("%d", activity.Hours), status}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 6, tr(truncate(cell, 60)), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(2)
}

// embedImage places a compressed JPEG at 60mm width, breaking to a new page
// when it would not fit.
func (r *PDFRenderer) embedImage(pdf *gofpdf.Fpdf, data []byte, index *int) {
	*index++
	name := fmt.Sprintf("evidence-%d", *index)
	opts := gofpdf.ImageOptions{ImageType: "JPG"}
	info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if info == nil || pdf.Err() {
		return
	}
	width := 60.0
	height := width * info.Height() / info.Width()
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+height > pageHeight-bottom-12 {
		pdf.AddPage()
	}
	pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), width, height, true, opts, 0, "")
	pdf.Ln(3)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
