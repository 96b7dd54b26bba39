package main

import (
	"fmt"
	"math/rand/v2"
	"time"

	domainDevice "iot-device-manager/internal/domain/device"
	"iot-device-manager/internal/usecase/device"
)

type kind struct {
	prefix string
	label  string
	typ    string
}

var kinds = map[string]kind{
	"temperature": {"TEMP", "Temperature Sensor", domainDevice.TypeSensor},
	"humidity":    {"HUM", "Humidity Sensor", domainDevice.TypeSensor},
	"pressure":    {"PRES", "Pressure Sensor", domainDevice.TypeSensor},
	"gas":         {"GAS", "Gas Sensor", domainDevice.TypeSensor},
	"light":       {"LIGHT", "Light Sensor", domainDevice.TypeSensor},
	"motion":      {"MOT", "Motion Sensor", domainDevice.TypeSensor},
	"voltage":     {"VOLT", "Voltage Sensor", domainDevice.TypeSensor},
	"current":     {"CURR", "Current Sensor", domainDevice.TypeSensor},
	"vibration":   {"VIB", "Vibration Sensor", domainDevice.TypeSensor},
	"camera":      {"CAM", "Smart Camera", domainDevice.TypeCamera},
	"gateway":     {"GTW", "Gateway", domainDevice.TypeGateway},
	"controller":  {"CTRL", "Controller", domainDevice.TypeController},
	"display":     {"DISP", "Display", domainDevice.TypeOther},
}

// Each manufacturer only builds what it is known for.
var manufacturers = []struct {
	name  string
	kinds []string
}{
	{"Huawei", []string{"gateway", "controller", "camera"}},
	{"Alibaba Cloud", []string{"gateway", "controller", "display"}},
	{"Xiaomi", []string{"temperature", "humidity", "light"}},
	{"Hikvision", []string{"camera", "motion"}},
	{"Dahua", []string{"camera", "display"}},
	{"Siemens", []string{"pressure", "voltage", "current"}},
	{"Schneider Electric", []string{"voltage", "current", "controller"}},
	{"Omron", []string{"motion", "vibration"}},
	{"Honeywell", []string{"gas", "temperature", "pressure"}},
}

var (
	protocols    = []string{"MQTT", "CoAP", "HTTP", "Modbus", "BACnet", "ZigBee", "LoRaWAN", "NB-IoT"}
	powerSupply  = []string{"AC 220V", "DC 24V", "DC 12V", "Battery"}
	ipRatings    = []string{"IP65", "IP66", "IP67", "IP68"}
	cycles       = []string{"30d", "60d", "90d", "180d", "365d"}
	cities       = []string{"Shanghai", "Shenzhen", "Hangzhou", "Chengdu", "Wuhan", "Nanjing", "Xi'an", "Tianjin"}
	scenarios    = []string{"Factory Floor", "Smart Warehouse", "Office Tower", "Data Center", "Greenhouse", "Transit Hub", "Hospital", "Campus", "Shopping Mall"}
	resolutions  = []string{"1080P", "2K", "4K"}
	fieldsOfView = []string{"120°", "130°", "140°"}
	nightVision  = []string{"10m", "15m", "20m"}
)

const alphanumeric = "ABCDEFGHJKLMNPQRSTUVWXYZ0123456789"

type generator struct {
	rnd *rand.Rand
	now time.Time
}

func newGenerator(seed uint64, now time.Time) *generator {
	return &generator{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: now,
	}
}

func pick[T any](g *generator, items []T) T {
	return items[g.rnd.IntN(len(items))]
}

func (g *generator) code(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumeric[g.rnd.IntN(len(alphanumeric))]
	}
	return string(b)
}

func (g *generator) past(maxAge time.Duration) time.Time {
	return g.now.Add(-time.Duration(g.rnd.Int64N(int64(maxAge))) - time.Minute)
}

func (g *generator) future(maxAhead time.Duration) time.Time {
	return g.now.Add(time.Duration(g.rnd.Int64N(int64(maxAhead))) + time.Hour)
}

func (g *generator) between(lo, hi float64) float64 {
	return lo + g.rnd.Float64()*(hi-lo)
}

// device builds the n-th generated device. n keeps deviceIds unique across batches.
func (g *generator) device(n int) device.CreateDeviceRequest {
	const year = 365 * 24 * time.Hour

	m := manufacturers[g.rnd.IntN(len(manufacturers))]
	k := kinds[pick(g, m.kinds)]
	status := string(pick(g, domainDevice.Statuses))

	longitude := g.between(73, 135)
	latitude := g.between(18, 53)
	production := g.past(2 * year)
	lastOnline := g.past(30 * 24 * time.Hour)
	lastMaintenance := g.past(year)
	deployed := g.past(year)
	warranty := g.future(3 * year)

	return device.CreateDeviceRequest{
		DeviceID: fmt.Sprintf("%s%08d", k.prefix, n),
		Name:     ptr(fmt.Sprintf("%s %s-%s", m.name, k.label, g.code(4))),
		Type:     ptr(k.typ),
		Status:   &status,
		Location: &device.LocationRequest{
			Longitude: &longitude,
			Latitude:  &latitude,
			Address:   fmt.Sprintf("%s %s", pick(g, cities), pick(g, scenarios)),
		},
		Specifications:      g.specifications(k, m.name, production),
		LastOnlineTime:      &lastOnline,
		LastMaintenanceTime: &lastMaintenance,
		DeploymentDate:      &deployed,
		WarrantyExpiryDate:  &warranty,
		FirmwareVersion:     ptr(fmt.Sprintf("v%d.%d.%d", g.rnd.IntN(5), g.rnd.IntN(10), g.rnd.IntN(20))),
		MaintenanceCycle:    ptr(pick(g, cycles)),
	}
}

func (g *generator) specifications(k kind, manufacturer string, production time.Time) *device.SpecificationsRequest {
	spec := &device.SpecificationsRequest{
		Model:                fmt.Sprintf("%s-%s", k.prefix, g.code(6)),
		Manufacturer:         manufacturer,
		ProductionDate:       &production,
		Protocol:             pick(g, protocols),
		PowerSupply:          pick(g, powerSupply),
		IPRating:             pick(g, ipRatings),
		OperatingTemperature: "-20°C ~ 60°C",
		Dimensions:           fmt.Sprintf("%dx%dx%dmm", 50+g.rnd.IntN(250), 50+g.rnd.IntN(250), 20+g.rnd.IntN(80)),
	}

	switch k.prefix {
	case "TEMP":
		spec.MeasurementRange, spec.Accuracy, spec.ResponseTime = "-40°C ~ 120°C", "±0.5°C", "< 2s"
	case "HUM":
		spec.MeasurementRange, spec.Accuracy, spec.ResponseTime = "0-100% RH", "±2% RH", "< 5s"
	case "PRES":
		spec.MeasurementRange, spec.Accuracy, spec.ResponseTime = "0-10MPa", "±0.1%", "< 1ms"
	case "CAM":
		spec.Resolution = pick(g, resolutions)
		spec.FieldOfView = pick(g, fieldsOfView)
		spec.NightVision = pick(g, nightVision)
		spec.StorageSupport = "SD Card, NVR"
	}

	return spec
}

func ptr[T any](v T) *T {
	return &v
}
