package results

import (
	"time"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/identity"
)

type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

func (k Kind) Valid() bool {
	return k == KindPDF || k == KindImage
}

type Status string

const (
	StatusNew  Status = "new"
	StatusSeen Status = "seen"
)

// Document is a stored result artifact in its canonical shape.
type Document struct {
	ID            string          `json:"id"`
	Tenant        identity.Tenant `json:"tenant"`
	OwnerID       string          `json:"owner_id,omitempty"`
	OwnerDocument string          `json:"owner_document,omitempty"`
	PolicyNumber  string          `json:"policy_number,omitempty"`
	Category      string          `json:"category,omitempty"`
	Service       string          `json:"service,omitempty"`
	Title         string          `json:"title"`
	Date          string          `json:"date"`
	Kind          Kind            `json:"kind"`
	FileName      string          `json:"file_name"`
	FileLocation  string          `json:"file_location"`
	Status        Status          `json:"status"`
	Site          string          `json:"site,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ResolvedService is the explicit service label, or the one derived from the
// category.
func (d *Document) ResolvedService() string {
	if d.Service != "" {
		return d.Service
	}
	return ServiceForCategory(d.Category)
}

func (d *Document) clone() *Document {
	c := *d
	c.Tags = append([]string(nil), d.Tags...)
	return &c
}

// ServiceForCategory maps a clinical category to the service label used for
// filtering. Unknown categories pass through; an empty one is "General".
func ServiceForCategory(category string) string {
	switch category {
	case "Laboratorio":
		return "Laboratorio"
	case "Rayos X", "Mamografias":
		return "Imagenología"
	case "":
		return "General"
	default:
		return category
	}
}

// Filters narrows a resolved document set. Every field is optional; "all"
// disables Kind and Service.
type Filters struct {
	Query   string
	Kind    string
	Service string
	From    string
	To      string
}
