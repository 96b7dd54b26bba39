package main

import (
	"context"
	"testing"
	"time"

	"iot-device-manager/internal/infrastructure/database/memory"
	"iot-device-manager/internal/usecase/device"
	"iot-device-manager/pkg/utils"
)

func TestGeneratedDevicesPassValidation(t *testing.T) {
	gen := newGenerator(42, time.Now())

	for n := 1; n <= 500; n++ {
		req := gen.device(n)
		if err := utils.ValidateStruct(&req); err != nil {
			t.Fatalf("device %d (%s) failed validation: %v", n, req.DeviceID, err)
		}
	}
}

func TestGeneratorIsDeterministic(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a := newGenerator(7, now).device(1)
	b := newGenerator(7, now).device(1)

	if a.DeviceID != b.DeviceID || *a.Name != *b.Name || a.Location.Address != b.Location.Address {
		t.Errorf("same seed produced different devices: %+v vs %+v", a, b)
	}
}

func TestGeneratedBatchInserts(t *testing.T) {
	repo := memory.NewDeviceRepository()
	service := device.NewService(repo, nil)
	gen := newGenerator(1, time.Now())

	req := &device.BatchCreateRequest{Devices: make([]device.CreateDeviceRequest, 250)}
	for i := range req.Devices {
		req.Devices[i] = gen.device(i + 1)
	}

	created, err := service.CreateBatch(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}
	if len(created) != 250 {
		t.Fatalf("created %d devices, want 250", len(created))
	}

	total, err := repo.Count(context.Background(), nil)
	if err != nil || total != 250 {
		t.Errorf("Count() = %d, %v; want 250", total, err)
	}
}
