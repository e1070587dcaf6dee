// Package report implements inspection report generation: field mapping
// resolution, document assembly orchestration and the per-stage outcome
// model returned to callers.
package report

// ExtractedDataset is the already-classified tabular dataset produced by the
// upstream spreadsheet extraction. It is an immutable input to a generation
// run; classification is never re-derived here.
type ExtractedDataset struct {
	Address        string
	InspectionDate string
	ReportDate     string
	Positive       bool
	TotalCount     int
	PositiveCount  int

	// Grid is the full raw spreadsheet grid including header and
	// calibration rows. HeaderRow indexes the header row within Grid.
	Grid      [][]string
	HeaderRow int
}

// DataRows returns the rows below the header row.
func (d *ExtractedDataset) DataRows() [][]string {
	if d.HeaderRow+1 >= len(d.Grid) {
		return nil
	}
	return d.Grid[d.HeaderRow+1:]
}

// VariableStore holds the two read-only variable maps consumed during a
// generation run. Lookup order is general first, then the inspector scope.
type VariableStore struct {
	General   map[string]string
	Inspector map[string]map[string]string // inspectorID -> name -> value
}

// LookupGeneral returns the first general variable whose name contains the
// given needle, case-insensitively.
func (v *VariableStore) LookupGeneral(needle string) (string, bool) {
	return lookupSubstring(v.General, needle)
}

// LookupInspector searches every inspector scope for a variable whose name
// contains the needle.
func (v *VariableStore) LookupInspector(needle string) (string, bool) {
	for _, scope := range v.Inspector {
		if val, ok := lookupSubstring(scope, needle); ok {
			return val, true
		}
	}
	return "", false
}

// AttachmentRole describes what an attachment is used for during assembly.
type AttachmentRole string

const (
	RoleCertificate AttachmentRole = "certificate"
	RoleLicense     AttachmentRole = "license"
	RoleSignature   AttachmentRole = "signature"
)

// AttachmentDocument carries externally retrieved attachment bytes. Bytes
// are already resolved; object storage access happens upstream.
type AttachmentDocument struct {
	ID         string
	FileName   string
	MIMEType   string
	Bytes      []byte
	Role       AttachmentRole
	OwnerScope string // e.g. inspector ID for signatures and licenses
}

// GenerationInput bundles everything one generation run consumes.
type GenerationInput struct {
	Template    []byte
	ReportType  string
	Mappings    []FieldMapping
	UserInput   map[string]string
	Dataset     *ExtractedDataset
	Variables   *VariableStore
	Attachments []AttachmentDocument
}

// GenerationResult is the complete output of one run: the document bytes,
// a suggested filename and the per-stage report.
type GenerationResult struct {
	PDF      []byte
	Filename string
	Report   *GenerationReport
}
