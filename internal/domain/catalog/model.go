package catalog

import "github.com/mlastra-dana/PerfilabPortal/internal/domain/refrange"

// Entry describes one measurable parameter.
type Entry struct {
	ID             string              `json:"id" toml:"id"`
	DisplayName    string              `json:"display_name" toml:"display_name"`
	Category       string              `json:"category" toml:"category"`
	Unit           string              `json:"unit,omitempty" toml:"unit"`
	ResultType     refrange.ResultType `json:"result_type" toml:"result_type"`
	ReferenceRange refrange.Range      `json:"reference_range" toml:"reference_range"`
}

// ReferenceText renders the entry's range with its unit.
func (e Entry) ReferenceText() string {
	return refrange.FormatReferenceText(e.ReferenceRange, e.Unit)
}

// Panel is an ordered group of parameters measured together.
type Panel struct {
	ID           string   `json:"id" toml:"id"`
	DisplayName  string   `json:"display_name" toml:"display_name"`
	Category     string   `json:"category" toml:"category"`
	ParameterIDs []string `json:"parameter_ids" toml:"parameter_ids"`
}

// Dataset is the on-disk shape of a catalog.
type Dataset struct {
	Entries []Entry `toml:"entries"`
	Panels  []Panel `toml:"panels"`
}
