package device

import (
	"iot-device-manager/pkg/utils"
)

// Only identifiers and enum values are normalized. Names, addresses and
// specification strings are stored exactly as supplied.
func sanitizeCreate(req *CreateDeviceRequest) {
	req.DeviceID = utils.SanitizeString(req.DeviceID)
	req.Type = sanitizeOptional(req.Type)
	req.Status = sanitizeOptional(req.Status)
}

func sanitizeUpdate(req *UpdateDeviceRequest) {
	req.Type = sanitizeOptional(req.Type)
	req.Status = sanitizeOptional(req.Status)
}

// sanitizeFilter leaves location and search untouched; both match stored text literally.
func sanitizeFilter(req *DeviceFilterRequest) {
	req.Type = utils.SanitizeString(req.Type)
	req.Status = utils.SanitizeString(req.Status)
}

func sanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	return utils.StringPtr(utils.SanitizeString(*s))
}
