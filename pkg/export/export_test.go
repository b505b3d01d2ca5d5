package export

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testImage(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCompressImageScalesDownWideImages(t *testing.T) {
	data := testImage(t, 1200, 800)

	out, err := CompressImage(data, 600, 70)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 600, decoded.Bounds().Dx())
	assert.Equal(t, 400, decoded.Bounds().Dy())
}

func TestCompressImageKeepsNarrowImages(t *testing.T) {
	data := testImage(t, 300, 200)

	out, err := CompressImage(data, 600, 70)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 300, decoded.Bounds().Dx())
}

func TestCompressImageRejectsGarbage(t *testing.T) {
	_, err := CompressImage([]byte("not an image"), 600, 70)
	require.Error(t, err)
}

func TestPDFRendererProducesDocument(t *testing.T) {
	img, err := CompressImage(testImage(t, 400, 300), 600, 70)
	require.NoError(t, err)

	renderer := NewPDFRenderer()
	out, err := renderer.Render(ReportData{
		Title:    "Reporte de Servicio Social - Enero-Junio 2026",
		Subtitle: "Del 2026-01-12 al 2026-06-05",
		Students: []ReportStudent{
			{
				NUA:      "123456",
				FullName: "Ana López García",
				Career:   "IS75LI0502 - LICENCIATURA EN INGENIERÍA EN SISTEMAS COMPUTACIONALES",
				Sede:     "SALAMANCA",
				Email:    "a.lopez@ugto.mx",
				Phone:    "4641234567",
				Activities: []ReportActivity{
					{
						Name:      "Reforestación",
						Area:      "RS",
						Status:    "approval",
						StartDate: "2026-02-01",
						EndDate:   "2026-02-15",
						Hours:     10,
						Images:    [][]byte{img},
					},
				},
			},
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "output should be a PDF document")
}

func TestPDFRendererEmptyReport(t *testing.T) {
	renderer := NewPDFRenderer()
	out, err := renderer.Render(ReportData{Title: "Reporte de Servicio Social - Verano 2026"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderFinalReportXLSX(t *testing.T) {
	out, err := RenderFinalReportXLSX("Enero-Junio 2026", []FinalReportRow{
		{NUA: "123456", FullName: "Ana López García", Career: "IS75LI0502", Sede: "SALAMANCA", DP: 5, RS: 8, Total: 13},
		{NUA: "654321", FullName: "Bruno Mata Ríos", Career: "IS75LI0103", Sede: "YURIRIA", AC: 4, Total: 4},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	title, err := f.GetCellValue("Reporte Final", "A1")
	require.NoError(t, err)
	assert.Contains(t, title, "Enero-Junio 2026")

	nua, err := f.GetCellValue("Reporte Final", "A4")
	require.NoError(t, err)
	assert.Equal(t, "123456", nua)

	total, err := f.GetCellValue("Reporte Final", "J5")
	require.NoError(t, err)
	assert.Equal(t, "4", total)
}
