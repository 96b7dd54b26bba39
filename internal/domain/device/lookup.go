package device

import "github.com/google/uuid"

// LookupSource records which key resolved an identifier.
type LookupSource int

const (
	LookupNone LookupSource = iota
	LookupPrimaryKey
	LookupDeviceID
)

func (s LookupSource) String() string {
	switch s {
	case LookupPrimaryKey:
		return "primary_key"
	case LookupDeviceID:
		return "device_id"
	default:
		return "none"
	}
}

// ParsePrimaryKey reports whether identifier has the canonical primary-key shape.
func ParsePrimaryKey(identifier string) (uuid.UUID, bool) {
	if len(identifier) != 36 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(identifier)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
