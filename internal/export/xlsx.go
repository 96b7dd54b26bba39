// Package export renders device data as downloadable documents.
package export

import (
	"fmt"
	"io"
	"time"

	domainDevice "iot-device-manager/internal/domain/device"

	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"

	devicesSheet = "devices"
)

var deviceColumns = []interface{}{
	"ID", "Device ID", "Name", "Type", "Status",
	"Address", "Longitude", "Latitude",
	"Model", "Manufacturer", "Production Date",
	"Firmware Version", "Last Online", "Created At",
}

// WriteDevicesXLSX writes one header row plus one row per device.
func WriteDevicesXLSX(w io.Writer, devices []*domainDevice.Device) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", devicesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(devicesSheet, "A1", &deviceColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, d := range devices {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := deviceRow(d)
		if err := f.SetSheetRow(devicesSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(devicesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func deviceRow(d *domainDevice.Device) []interface{} {
	firmware := ""
	if d.FirmwareVersion != nil {
		firmware = *d.FirmwareVersion
	}
	return []interface{}{
		d.ID.String(),
		d.DeviceID,
		d.Name,
		d.Type,
		string(d.Status),
		d.Location.Address,
		d.Location.Longitude,
		d.Location.Latitude,
		d.Specifications.Model,
		d.Specifications.Manufacturer,
		formatDate(d.Specifications.ProductionDate),
		firmware,
		formatOptionalTime(d.LastOnlineTime),
		d.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
