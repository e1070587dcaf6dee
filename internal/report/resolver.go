package report

import (
	"log"
	"strconv"
	"strings"
	"unicode"
)

// ResolverStrategy is one step in the ordered resolution chain. Strategies
// are pure: they inspect the mapping and the run inputs and either produce a
// value or pass.
type ResolverStrategy struct {
	Name    string
	Resolve func(m FieldMapping, in *GenerationInput) (string, bool)
}

// Resolver resolves field mappings through an explicit, ordered strategy
// list. The chain is fixed at construction so each step is independently
// testable and the order is visible in one place.
type Resolver struct {
	strategies []ResolverStrategy
	debugMode  bool
}

// NewResolver builds the default resolution chain for a report type:
// bound user input, report-type value reuse, the mapping's own source value,
// then general and inspector variable lookup.
func NewResolver(reportType string, debugMode bool) *Resolver {
	return &Resolver{
		debugMode: debugMode,
		strategies: []ResolverStrategy{
			{Name: "bound_input", Resolve: resolveBoundInput},
			{Name: "value_reuse", Resolve: reuseStrategy(reportType)},
			{Name: "source_value", Resolve: resolveSourceValue},
			{Name: "general_variables", Resolve: resolveGeneralVariable},
			{Name: "inspector_variables", Resolve: resolveInspectorVariable},
		},
	}
}

// Resolve runs the chain and returns the first produced value, canonicalized
// for date mappings. An unresolvable mapping yields the empty string; that
// is never an error.
func (r *Resolver) Resolve(m FieldMapping, in *GenerationInput) string {
	for _, s := range r.strategies {
		v, ok := s.Resolve(m, in)
		if !ok {
			continue
		}
		if r.debugMode {
			log.Printf("resolved field %q via %s", m.FieldID(), s.Name)
		}
		if isDateMapping(m) {
			return CanonicalDate(v)
		}
		return v
	}
	return ""
}

func isDateMapping(m FieldMapping) bool {
	switch t := m.(type) {
	case UserInputMapping:
		return t.IsDate
	case CellMapping:
		return t.IsDate
	}
	return false
}

func resolveBoundInput(m FieldMapping, in *GenerationInput) (string, bool) {
	if in.UserInput == nil {
		return "", false
	}
	v, ok := in.UserInput[m.FieldID()]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// reuseStrategy returns the report-type-specific value-reuse step. The
// standing rule across report types is that a lowercase field mirrors its
// capitalized sibling ("address" reuses the input bound to "Address");
// individual report types may pin additional aliases.
func reuseStrategy(reportType string) func(FieldMapping, *GenerationInput) (string, bool) {
	aliases := reuseAliases[reportType]
	return func(m FieldMapping, in *GenerationInput) (string, bool) {
		if in.UserInput == nil {
			return "", false
		}
		if sibling, ok := aliases[m.FieldID()]; ok {
			if v, ok := in.UserInput[sibling]; ok && v != "" {
				return v, true
			}
		}
		if sibling := capitalizedSibling(m.FieldID()); sibling != "" {
			if v, ok := in.UserInput[sibling]; ok && v != "" {
				return v, true
			}
		}
		return "", false
	}
}

// reuseAliases pins per-report-type field aliases that don't follow the
// capitalization rule.
var reuseAliases = map[string]map[string]string{
	"standard": {
		"inspectionAddress": "Address",
	},
}

func capitalizedSibling(id string) string {
	if id == "" {
		return ""
	}
	r := rune(id[0])
	if !unicode.IsLower(r) {
		return ""
	}
	return strings.ToUpper(id[:1]) + id[1:]
}

func resolveSourceValue(m FieldMapping, in *GenerationInput) (string, bool) {
	switch t := m.(type) {
	case StaticMapping:
		if t.Value != "" {
			return t.Value, true
		}
	case CellMapping:
		if in.Dataset == nil {
			return "", false
		}
		return datasetAttribute(in.Dataset, t.Attribute)
	case CalculationMapping:
		if t.Compute == nil || in.Dataset == nil {
			return "", false
		}
		if v := t.Compute(in.Dataset); v != "" {
			return v, true
		}
	}
	return "", false
}

func datasetAttribute(d *ExtractedDataset, attr DatasetAttribute) (string, bool) {
	switch attr {
	case AttrAddress:
		return d.Address, d.Address != ""
	case AttrInspectionDate:
		return d.InspectionDate, d.InspectionDate != ""
	case AttrReportDate:
		return d.ReportDate, d.ReportDate != ""
	case AttrTotalCount:
		return strconv.Itoa(d.TotalCount), true
	case AttrPositiveCount:
		return strconv.Itoa(d.PositiveCount), true
	}
	return "", false
}

func resolveGeneralVariable(m FieldMapping, in *GenerationInput) (string, bool) {
	if in.Variables == nil {
		return "", false
	}
	return in.Variables.LookupGeneral(m.Label())
}

func resolveInspectorVariable(m FieldMapping, in *GenerationInput) (string, bool) {
	if in.Variables == nil {
		return "", false
	}
	return in.Variables.LookupInspector(m.Label())
}

// lookupSubstring returns the first value whose key contains needle,
// case-insensitively. Iteration over the map is not ordered; exact key
// matches win before substring scanning so repeated runs stay stable.
func lookupSubstring(vars map[string]string, needle string) (string, bool) {
	if len(vars) == 0 || needle == "" {
		return "", false
	}
	n := strings.ToLower(needle)
	for k, v := range vars {
		if strings.ToLower(k) == n {
			return v, true
		}
	}
	var bestKey, bestVal string
	for k, v := range vars {
		if strings.Contains(strings.ToLower(k), n) || strings.Contains(n, strings.ToLower(k)) {
			// Pick the lexicographically smallest match for determinism.
			if bestKey == "" || k < bestKey {
				bestKey, bestVal = k, v
			}
		}
	}
	return bestVal, bestKey != ""
}
