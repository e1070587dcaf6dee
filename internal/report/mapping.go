package report

// FieldMapping binds one logical template field to its value source. Each
// source kind is its own type carrying only the attributes that kind needs,
// so impossible combinations cannot be constructed.
type FieldMapping interface {
	// FieldID is the template field the mapping writes to.
	FieldID() string
	// Label is the human-facing name used in prompts and reports.
	Label() string
	// Required marks fields the calling layer must collect before
	// generation. Resolution itself never fails on a missing value.
	Required() bool
}

// UserInputMapping fills a field from explicitly bound user input. Date
// inputs may additionally fan out into month/day/year field groups, and
// long text may split across a continuation field.
type UserInputMapping struct {
	ID        string
	Name      string
	Mandatory bool

	// IsDate routes the value through date canonicalization.
	IsDate bool

	// DateGroups lists the field-group prefixes a date splits into.
	// Each group receives three sub-fields: <prefix>Month, <prefix>Day,
	// <prefix>Year. Empty means no split.
	DateGroups []string

	// OverflowField receives the remainder when the value exceeds the
	// split window. Empty means no long-text splitting.
	OverflowField string
}

func (m UserInputMapping) FieldID() string { return m.ID }
func (m UserInputMapping) Label() string   { return m.Name }
func (m UserInputMapping) Required() bool  { return m.Mandatory }

// StaticMapping fills a field with a fixed per-report-type value.
type StaticMapping struct {
	ID    string
	Name  string
	Value string
}

func (m StaticMapping) FieldID() string { return m.ID }
func (m StaticMapping) Label() string   { return m.Name }
func (m StaticMapping) Required() bool  { return false }

// CellMapping fills a field from a named dataset attribute (address,
// inspection date, report date, counts).
type CellMapping struct {
	ID        string
	Name      string
	Attribute DatasetAttribute
	IsDate    bool
}

func (m CellMapping) FieldID() string { return m.ID }
func (m CellMapping) Label() string   { return m.Name }
func (m CellMapping) Required() bool  { return false }

// DatasetAttribute names a scalar attribute of the extracted dataset.
type DatasetAttribute string

const (
	AttrAddress        DatasetAttribute = "address"
	AttrInspectionDate DatasetAttribute = "inspection_date"
	AttrReportDate     DatasetAttribute = "report_date"
	AttrTotalCount     DatasetAttribute = "total_count"
	AttrPositiveCount  DatasetAttribute = "positive_count"
)

// CalculationMapping fills a field from a named derived value computed over
// the dataset by the calling layer (e.g. a percentage).
type CalculationMapping struct {
	ID      string
	Name    string
	Compute func(d *ExtractedDataset) string
}

func (m CalculationMapping) FieldID() string { return m.ID }
func (m CalculationMapping) Label() string   { return m.Name }
func (m CalculationMapping) Required() bool  { return false }
