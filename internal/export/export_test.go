package export

import (
	"bytes"
	"testing"
	"time"

	domainDevice "iot-device-manager/internal/domain/device"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

func sampleDevices() []*domainDevice.Device {
	online := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	firmware := "1.2.0"
	return []*domainDevice.Device{
		{
			ID:       uuid.New(),
			DeviceID: "sensor-001",
			Name:     "Boiler probe",
			Type:     domainDevice.TypeSensor,
			Status:   domainDevice.StatusOnline,
			Location: domainDevice.Location{Longitude: 120.1, Latitude: 30.2, Address: "Plant A"},
			Specifications: domainDevice.Specifications{
				Model:          "TX-1",
				Manufacturer:   "Acme",
				ProductionDate: time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
			},
			LastOnlineTime:  &online,
			FirmwareVersion: &firmware,
			CreatedAt:       online,
		},
		{
			ID:        uuid.New(),
			DeviceID:  "cam-002",
			Name:      "Gate camera",
			Type:      domainDevice.TypeCamera,
			Status:    domainDevice.StatusOffline,
			CreatedAt: online,
		},
	}
}

func TestWriteDevicesXLSX(t *testing.T) {
	devices := sampleDevices()

	var buf bytes.Buffer
	if err := WriteDevicesXLSX(&buf, devices); err != nil {
		t.Fatalf("WriteDevicesXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(devicesSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != len(devices)+1 {
		t.Fatalf("rows = %d, want %d", len(rows), len(devices)+1)
	}
	if rows[0][1] != "Device ID" {
		t.Errorf("header[1] = %q, want Device ID", rows[0][1])
	}
	if rows[1][1] != "sensor-001" || rows[1][4] != "online" {
		t.Errorf("first row = %v", rows[1])
	}
	if rows[1][10] != "2023-01-15" {
		t.Errorf("production date = %q, want 2023-01-15", rows[1][10])
	}
	if rows[2][1] != "cam-002" {
		t.Errorf("second row device id = %q", rows[2][1])
	}
}

func TestWriteDevicesXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDevicesXLSX(&buf, nil); err != nil {
		t.Fatalf("WriteDevicesXLSX() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected a workbook with a header row")
	}
}

func TestWriteStatisticsPDF(t *testing.T) {
	stats := &domainDevice.Statistics{
		Total:      3,
		ByType:     map[string]int64{"sensor": 2, "camera": 1},
		ByStatus:   map[string]int64{"online": 3},
		ByLocation: map[string]int64{},
	}

	var buf bytes.Buffer
	if err := WriteStatisticsPDF(&buf, stats, time.Now()); err != nil {
		t.Fatalf("WriteStatisticsPDF() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output does not start with a PDF header")
	}
}
