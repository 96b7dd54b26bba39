package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	domainDevice "iot-device-manager/internal/domain/device"

	"github.com/jung-kurt/gofpdf"
)

// WriteStatisticsPDF renders the fleet statistics as a one-page report.
func WriteStatisticsPDF(w io.Writer, stats *domainDevice.Statistics, generatedAt time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Device Statistics", false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, "Device Statistics")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.UTC().Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total devices: %d", stats.Total))
	pdf.Ln(8)

	countTable(pdf, "By status", stats.ByStatus)
	countTable(pdf, "By type", stats.ByType)
	countTable(pdf, "By location", stats.ByLocation)

	return pdf.Output(w)
}

func countTable(pdf *gofpdf.Fpdf, title string, counts map[string]int64) {
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, title)
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(120, 6, "Value", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, "Devices", "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	if len(counts) == 0 {
		pdf.CellFormat(160, 6, "No devices", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		pdf.CellFormat(120, 6, k, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", counts[k]), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(6)
}
