package identity

import (
	"fmt"
	"strings"
)

// Tenant is a consumer context with its own ownership rule.
type Tenant string

const (
	Laboratorio Tenant = "laboratorio"
	Universidad Tenant = "universidad"
	RRHH        Tenant = "rrhh"
	Aseguradora Tenant = "aseguradora"
)

var tenants = []Tenant{Laboratorio, Universidad, RRHH, Aseguradora}

// Tenants lists every supported tenant.
func Tenants() []Tenant {
	return append([]Tenant(nil), tenants...)
}

func ParseTenant(s string) (Tenant, error) {
	t := Tenant(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range tenants {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tenant: %q", s)
}

// RequiresPolicy reports whether documents of this tenant are also gated by a
// policy number.
func (t Tenant) RequiresPolicy() bool {
	return t == Aseguradora
}

// Label is the display name of the tenant.
func (t Tenant) Label() string {
	switch t {
	case Laboratorio:
		return "Laboratorio"
	case Universidad:
		return "Universidad"
	case RRHH:
		return "RRHH"
	case Aseguradora:
		return "Aseguradora"
	}
	return string(t)
}
