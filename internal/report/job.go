package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// jobFile is the on-disk JSON shape of one generation job. Attachment bytes
// are referenced by path and loaded relative to the job file.
type jobFile struct {
	UserInput   map[string]string `json:"user_input"`
	Mappings    []jobMapping      `json:"mappings"`
	Dataset     *jobDataset       `json:"dataset"`
	Variables   *jobVariables     `json:"variables"`
	Attachments []jobAttachment   `json:"attachments"`
}

type jobMapping struct {
	Kind  string `json:"kind"` // user_input, static, cell, calculation
	Field string `json:"field"`
	Name  string `json:"name"`

	Mandatory     bool     `json:"mandatory,omitempty"`
	IsDate        bool     `json:"is_date,omitempty"`
	DateGroups    []string `json:"date_groups,omitempty"`
	OverflowField string   `json:"overflow_field,omitempty"`

	Value     string `json:"value,omitempty"`     // static
	Attribute string `json:"attribute,omitempty"` // cell
	Formula   string `json:"formula,omitempty"`   // calculation
}

type jobDataset struct {
	Address        string     `json:"address"`
	InspectionDate string     `json:"inspection_date"`
	ReportDate     string     `json:"report_date"`
	Positive       bool       `json:"positive"`
	TotalCount     int        `json:"total_count"`
	PositiveCount  int        `json:"positive_count"`
	Grid           [][]string `json:"grid"`
	HeaderRow      int        `json:"header_row"`
}

type jobVariables struct {
	General   map[string]string            `json:"general"`
	Inspector map[string]map[string]string `json:"inspector"`
}

type jobAttachment struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	MIMEType string `json:"mime_type"`
	Role     string `json:"role"`
	Owner    string `json:"owner,omitempty"`
}

// LoadJob reads a job file and assembles the generation input. The template
// bytes are loaded separately and attached by the caller.
func LoadJob(path, reportType string, maxFileSize int64) (*GenerationInput, error) {
	raw, err := readLimited(path, maxFileSize)
	if err != nil {
		return nil, err
	}

	var job jobFile
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("failed to parse job file %s: %w", path, err)
	}

	in := &GenerationInput{
		ReportType: reportType,
		UserInput:  job.UserInput,
	}

	for i, m := range job.Mappings {
		mapping, err := buildMapping(m)
		if err != nil {
			return nil, fmt.Errorf("job mapping %d: %w", i, err)
		}
		in.Mappings = append(in.Mappings, mapping)
	}

	if job.Dataset != nil {
		in.Dataset = &ExtractedDataset{
			Address:        job.Dataset.Address,
			InspectionDate: job.Dataset.InspectionDate,
			ReportDate:     job.Dataset.ReportDate,
			Positive:       job.Dataset.Positive,
			TotalCount:     job.Dataset.TotalCount,
			PositiveCount:  job.Dataset.PositiveCount,
			Grid:           job.Dataset.Grid,
			HeaderRow:      job.Dataset.HeaderRow,
		}
	}
	if job.Variables != nil {
		in.Variables = &VariableStore{
			General:   job.Variables.General,
			Inspector: job.Variables.Inspector,
		}
	}

	base := filepath.Dir(path)
	for _, a := range job.Attachments {
		att, err := loadAttachment(base, a, maxFileSize)
		if err != nil {
			return nil, err
		}
		in.Attachments = append(in.Attachments, att)
	}
	return in, nil
}

func buildMapping(m jobMapping) (FieldMapping, error) {
	if m.Field == "" {
		return nil, fmt.Errorf("mapping has no field")
	}
	switch m.Kind {
	case "user_input":
		return UserInputMapping{
			ID:            m.Field,
			Name:          m.Name,
			Mandatory:     m.Mandatory,
			IsDate:        m.IsDate,
			DateGroups:    m.DateGroups,
			OverflowField: m.OverflowField,
		}, nil
	case "static":
		return StaticMapping{ID: m.Field, Name: m.Name, Value: m.Value}, nil
	case "cell":
		return CellMapping{
			ID:        m.Field,
			Name:      m.Name,
			Attribute: DatasetAttribute(m.Attribute),
			IsDate:    m.IsDate,
		}, nil
	case "calculation":
		compute, err := formulaCompute(m.Formula)
		if err != nil {
			return nil, err
		}
		return CalculationMapping{ID: m.Field, Name: m.Name, Compute: compute}, nil
	default:
		return nil, fmt.Errorf("unknown mapping kind %q", m.Kind)
	}
}

// formulaCompute maps the named formulas the job format supports onto their
// dataset computations.
func formulaCompute(formula string) (func(*ExtractedDataset) string, error) {
	switch formula {
	case "positive_percentage":
		return func(d *ExtractedDataset) string {
			if d.TotalCount == 0 {
				return ""
			}
			return strconv.FormatFloat(float64(d.PositiveCount)/float64(d.TotalCount)*100, 'f', 1, 64) + "%"
		}, nil
	case "negative_count":
		return func(d *ExtractedDataset) string {
			return strconv.Itoa(d.TotalCount - d.PositiveCount)
		}, nil
	default:
		return nil, fmt.Errorf("unknown calculation formula %q", formula)
	}
}

func loadAttachment(base string, a jobAttachment, maxFileSize int64) (AttachmentDocument, error) {
	p := a.Path
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	data, err := readLimited(p, maxFileSize)
	if err != nil {
		return AttachmentDocument{}, fmt.Errorf("attachment %s: %w", a.ID, err)
	}
	return AttachmentDocument{
		ID:         a.ID,
		FileName:   filepath.Base(p),
		MIMEType:   a.MIMEType,
		Bytes:      data,
		Role:       AttachmentRole(a.Role),
		OwnerScope: a.Owner,
	}, nil
}

// readLimited reads a file, rejecting anything over the size cap before the
// bytes are pulled into memory.
func readLimited(path string, maxFileSize int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if maxFileSize > 0 && info.Size() > maxFileSize {
		return nil, fmt.Errorf("file %s exceeds maximum size (%d > %d bytes)", path, info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
