package results

import (
	"path"
	"strings"
	"time"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/identity"
)

// RawDocument is a document as tenant feeds deliver it, with the dual field
// names different feeds use for the same data.
type RawDocument struct {
	ID              string   `json:"id" toml:"id"`
	PatientID       string   `json:"patientId" toml:"patient_id"`
	PatientDocument string   `json:"patientDocument" toml:"patient_document"`
	PolicyNumber    string   `json:"policyNumber" toml:"policy_number"`
	Category        string   `json:"category" toml:"category"`
	Service         string   `json:"service" toml:"service"`
	Title           string   `json:"title" toml:"title"`
	StudyName       string   `json:"studyName" toml:"study_name"`
	Date            string   `json:"date" toml:"date"`
	StudyDate       string   `json:"studyDate" toml:"study_date"`
	Type            string   `json:"type" toml:"type"`
	FileType        string   `json:"fileType" toml:"file_type"`
	URL             string   `json:"url" toml:"url"`
	FileURL         string   `json:"fileUrl" toml:"file_url"`
	FileName        string   `json:"fileName" toml:"file_name"`
	Status          string   `json:"status" toml:"status"`
	Site            string   `json:"site" toml:"site"`
	Tags            []string `json:"tags" toml:"tags"`
	CreatedAt       string   `json:"createdAt" toml:"created_at"`
}

// Normalize resolves the dual-named fields once and returns the canonical
// document. Ownership keys are stored as given; matching normalizes them.
func Normalize(tenant identity.Tenant, raw RawDocument) Document {
	d := Document{
		ID:            raw.ID,
		Tenant:        tenant,
		OwnerID:       raw.PatientID,
		OwnerDocument: raw.PatientDocument,
		PolicyNumber:  raw.PolicyNumber,
		Category:      raw.Category,
		Service:       raw.Service,
		Title:         firstNonEmpty(raw.Title, raw.StudyName),
		Date:          firstNonEmpty(raw.Date, raw.StudyDate),
		FileLocation:  firstNonEmpty(raw.URL, raw.FileURL),
		FileName:      raw.FileName,
		Status:        parseStatus(raw.Status),
		Site:          raw.Site,
		Tags:          append([]string(nil), raw.Tags...),
	}
	if d.FileName == "" && d.FileLocation != "" {
		d.FileName = path.Base(d.FileLocation)
	}
	d.Kind = parseKind(firstNonEmpty(raw.Type, raw.FileType), d.FileName)
	if raw.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, raw.CreatedAt); err == nil {
			d.CreatedAt = t
		}
	}
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "visto", "seen":
		return StatusSeen
	default:
		return StatusNew
	}
}

// parseKind falls back to the file extension when the feed has no type.
func parseKind(s, fileName string) Kind {
	if k := Kind(strings.ToLower(strings.TrimSpace(s))); k.Valid() {
		return k
	}
	switch strings.ToLower(path.Ext(fileName)) {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return KindImage
	}
	return KindPDF
}
