package model

// Status values shared by every validator family.
const (
	StatusUnknown    = "Unknown"
	StatusWellFormed = "WellFormed"
	StatusValid      = "Valid"
)

// RunnerDetails identifies one validator at one version.
type RunnerDetails struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
	URL     string `json:"url"`
}

// Key returns the identifier used to name persisted artifacts.
func (d RunnerDetails) Key() string {
	if d.Version == "" {
		return d.ID
	}
	return d.ID + "@" + d.Version
}

// CorpusTestResult is the normalized outcome of one validator run against
// one package. It is immutable once built.
type CorpusTestResult struct {
	Details          RunnerDetails    `json:"details"`
	RequirementID    string           `json:"requirement_id"`
	RetCode          int              `json:"ret_code"`
	DurationMS       int64            `json:"duration_ms"`
	StructStatus     string           `json:"struct_status"`
	SchemaStatus     string           `json:"schema_status"`
	SchematronStatus string           `json:"schematron_status"`
	ErrorIDs         map[string]Level `json:"error_ids"`

	// UnknownLevels lists message levels the validator emitted that were
	// not recognised and were recorded as ERROR.
	UnknownLevels []string `json:"unknown_levels,omitempty"`
	ErrorMsg      string   `json:"error_msg,omitempty"`
}

// NewCorpusTestResult returns a result with the "nothing known yet"
// defaults: ret code -1 and every status Unknown.
func NewCorpusTestResult(details RunnerDetails, requirementID string) CorpusTestResult {
	return CorpusTestResult{
		Details:          details,
		RequirementID:    requirementID,
		RetCode:          -1,
		StructStatus:     StatusUnknown,
		SchemaStatus:     StatusUnknown,
		SchematronStatus: StatusUnknown,
		ErrorIDs:         map[string]Level{},
	}
}

// IsValid reports whether the validator accepted the package: a zero exit
// and every status at its pass value.
func (r CorpusTestResult) IsValid() bool {
	return r.RetCode == 0 &&
		r.StructStatus == StatusWellFormed &&
		r.SchemaStatus == StatusValid &&
		r.SchematronStatus == StatusValid
}

// ContainsCode reports whether the validator emitted a message for code.
func (r CorpusTestResult) ContainsCode(code string) bool {
	_, ok := r.ErrorIDs[code]
	return ok
}

// ContainsRequirement reports whether the validator emitted a message for
// the result's own requirement.
func (r CorpusTestResult) ContainsRequirement() bool {
	return r.ContainsCode(r.RequirementID)
}

// Executed reports whether the validator produced a structured report.
func (r CorpusTestResult) Executed() bool {
	return r.RetCode == 0 && r.ErrorMsg == ""
}
