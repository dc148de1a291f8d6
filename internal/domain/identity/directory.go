package identity

import (
	"errors"
	"fmt"
)

var ErrDuplicateProfile = errors.New("duplicate profile")

// Profile is a person known to one tenant.
type Profile struct {
	ID             string `json:"id" toml:"id"`
	Tenant         Tenant `json:"tenant" toml:"tenant"`
	FullName       string `json:"full_name" toml:"full_name"`
	DocumentNumber string `json:"document_number" toml:"document_number"`
	PolicyNumber   string `json:"policy_number,omitempty" toml:"policy_number"`
	Email          string `json:"email,omitempty" toml:"email"`
	Organization   string `json:"organization,omitempty" toml:"organization"`
	RoleLabel      string `json:"role_label,omitempty" toml:"role_label"`
	Site           string `json:"site,omitempty" toml:"site"`
}

type profileKey struct {
	tenant Tenant
	doc    string
}

// Directory indexes profiles per tenant and document number. It is read-only
// once built.
type Directory struct {
	byKey map[profileKey]int
	byID  map[string]int
	all   []Profile
}

// NewDirectory validates and indexes profiles. A document number may appear
// once per tenant.
func NewDirectory(profiles []Profile) (*Directory, error) {
	d := &Directory{
		byKey: make(map[profileKey]int, len(profiles)),
		byID:  make(map[string]int, len(profiles)),
	}
	for _, p := range profiles {
		if _, err := ParseTenant(string(p.Tenant)); err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.DocumentNumber, err)
		}
		p.DocumentNumber = NormalizeKey(p.DocumentNumber)
		p.PolicyNumber = NormalizeKey(p.PolicyNumber)
		if p.DocumentNumber == "" {
			return nil, fmt.Errorf("profile %q: document number is required", p.FullName)
		}
		if p.Tenant.RequiresPolicy() && p.PolicyNumber == "" {
			return nil, fmt.Errorf("profile %s/%s: policy number is required", p.Tenant, p.DocumentNumber)
		}

		key := profileKey{tenant: p.Tenant, doc: p.DocumentNumber}
		if _, dup := d.byKey[key]; dup {
			return nil, fmt.Errorf("%s/%s: %w", p.Tenant, p.DocumentNumber, ErrDuplicateProfile)
		}
		if p.ID != "" {
			if _, dup := d.byID[p.ID]; dup {
				return nil, fmt.Errorf("id %s: %w", p.ID, ErrDuplicateProfile)
			}
			d.byID[p.ID] = len(d.all)
		}
		d.byKey[key] = len(d.all)
		d.all = append(d.all, p)
	}
	return d, nil
}

// Resolve finds the tenant profile addressed by id. For policy tenants the
// policy number must match as well. On a match the returned identity carries
// the profile's internal id.
func (d *Directory) Resolve(tenant Tenant, id Identity) (Identity, *Profile, bool) {
	i, ok := d.byKey[profileKey{tenant: tenant, doc: id.Key()}]
	if !ok {
		return id, nil, false
	}
	p := d.all[i]
	if tenant.RequiresPolicy() && NormalizeKey(id.PolicyNumber) != p.PolicyNumber {
		return id, nil, false
	}
	if p.ID != "" {
		id = id.WithInternalID(p.ID)
	}
	return id, &p, true
}

// Get returns the profile with the given internal id.
func (d *Directory) Get(id string) (*Profile, bool) {
	i, ok := d.byID[id]
	if !ok {
		return nil, false
	}
	p := d.all[i]
	return &p, true
}

// Profiles returns the tenant's profiles in load order.
func (d *Directory) Profiles(tenant Tenant) []Profile {
	var out []Profile
	for _, p := range d.all {
		if p.Tenant == tenant {
			out = append(out, p)
		}
	}
	return out
}
