// Package identity models the viewer key used to address results: a national
// document number, an optional insurance policy number, and the internal
// profile id once a profile has been matched.
package identity

import "strings"

// NormalizeKey uppercases and trims a document or policy number.
func NormalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

type Identity struct {
	DocumentNumber string `json:"document_number"`
	PolicyNumber   string `json:"policy_number,omitempty"`
	InternalID     string `json:"internal_id,omitempty"`
}

// New builds a normalized identity.
func New(documentNumber, policyNumber string) Identity {
	return Identity{
		DocumentNumber: NormalizeKey(documentNumber),
		PolicyNumber:   NormalizeKey(policyNumber),
	}
}

func (i Identity) WithInternalID(id string) Identity {
	i.InternalID = id
	return i
}

// Key is the normalized document number.
func (i Identity) Key() string {
	return NormalizeKey(i.DocumentNumber)
}

// Empty reports whether the identity carries neither a document number nor
// an internal id.
func (i Identity) Empty() bool {
	return i.Key() == "" && i.InternalID == ""
}

// Equal compares normalized document numbers, and policy numbers when either
// side carries one.
func (i Identity) Equal(o Identity) bool {
	if i.Key() != o.Key() {
		return false
	}
	p1, p2 := NormalizeKey(i.PolicyNumber), NormalizeKey(o.PolicyNumber)
	if p1 == "" && p2 == "" {
		return true
	}
	return p1 == p2
}
