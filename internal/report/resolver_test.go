package report

import "testing"

func testInput() *GenerationInput {
	return &GenerationInput{
		ReportType: "standard",
		UserInput: map[string]string{
			"Address":       "123 Main Street",
			"InspectorName": "J. Rivera",
		},
		Dataset: &ExtractedDataset{
			Address:        "123 Main Street",
			InspectionDate: "2024-03-07",
			TotalCount:     42,
			PositiveCount:  3,
		},
		Variables: &VariableStore{
			General: map[string]string{
				"Laboratory Name":    "Acme Labs",
				"Laboratory Address": "9 Science Way",
			},
			Inspector: map[string]map[string]string{
				"insp-1": {
					"License Number": "LIC-0042",
				},
			},
		},
	}
}

func TestResolveBoundInput(t *testing.T) {
	r := NewResolver("standard", false)
	got := r.Resolve(UserInputMapping{ID: "Address", Name: "Address"}, testInput())
	if got != "123 Main Street" {
		t.Errorf("Resolve() = %q, want bound input value", got)
	}
}

func TestResolveBoundInputWinsOverSource(t *testing.T) {
	in := testInput()
	in.UserInput["InspectionDate"] = "2024-05-01"
	r := NewResolver("standard", false)
	got := r.Resolve(CellMapping{ID: "InspectionDate", Name: "Inspection Date", Attribute: AttrInspectionDate}, in)
	if got != "2024-05-01" {
		t.Errorf("Resolve() = %q, bound input must win over the source value", got)
	}
}

func TestResolveCapitalizedSiblingReuse(t *testing.T) {
	r := NewResolver("standard", false)
	got := r.Resolve(UserInputMapping{ID: "address", Name: "address"}, testInput())
	if got != "123 Main Street" {
		t.Errorf("Resolve() = %q, want value reused from capitalized sibling", got)
	}
}

func TestResolveAliasReuse(t *testing.T) {
	r := NewResolver("standard", false)
	got := r.Resolve(UserInputMapping{ID: "inspectionAddress", Name: "inspection address"}, testInput())
	if got != "123 Main Street" {
		t.Errorf("Resolve() = %q, want value reused through the report type alias", got)
	}
}

func TestResolveStaticValue(t *testing.T) {
	r := NewResolver("standard", false)
	got := r.Resolve(StaticMapping{ID: "Method", Name: "Method", Value: "XRF"}, testInput())
	if got != "XRF" {
		t.Errorf("Resolve() = %q, want static value", got)
	}
}

func TestResolveCellAttribute(t *testing.T) {
	r := NewResolver("standard", false)
	got := r.Resolve(CellMapping{ID: "TotalField", Name: "Total", Attribute: AttrTotalCount}, testInput())
	if got != "42" {
		t.Errorf("Resolve() = %q, want dataset total count", got)
	}
}

func TestResolveCalculation(t *testing.T) {
	r := NewResolver("standard", false)
	m := CalculationMapping{ID: "NegField", Name: "Negatives", Compute: func(d *ExtractedDataset) string {
		return "39"
	}}
	if got := r.Resolve(m, testInput()); got != "39" {
		t.Errorf("Resolve() = %q, want computed value", got)
	}
}

func TestResolveGeneralVariableSubstring(t *testing.T) {
	r := NewResolver("standard", false)
	got := r.Resolve(UserInputMapping{ID: "LabName", Name: "Laboratory Name"}, testInput())
	if got != "Acme Labs" {
		t.Errorf("Resolve() = %q, want general variable via substring lookup", got)
	}
}

func TestResolveInspectorVariable(t *testing.T) {
	r := NewResolver("standard", false)
	got := r.Resolve(UserInputMapping{ID: "License", Name: "License Number"}, testInput())
	if got != "LIC-0042" {
		t.Errorf("Resolve() = %q, want inspector variable", got)
	}
}

func TestResolveDateCanonicalized(t *testing.T) {
	r := NewResolver("standard", false)
	got := r.Resolve(CellMapping{ID: "DateField", Name: "Inspection Date", Attribute: AttrInspectionDate, IsDate: true}, testInput())
	if got != "03/07/2024" {
		t.Errorf("Resolve() = %q, want canonicalized date", got)
	}
}

func TestResolveUnresolvableIsEmpty(t *testing.T) {
	r := NewResolver("standard", false)
	got := r.Resolve(UserInputMapping{ID: "NoSuchField", Name: "completely unknown"}, testInput())
	if got != "" {
		t.Errorf("Resolve() = %q, want empty string for unresolvable mapping", got)
	}
}

func TestLookupSubstringExactWins(t *testing.T) {
	vars := map[string]string{
		"Name":            "exact",
		"Laboratory Name": "substring",
	}
	got, ok := lookupSubstring(vars, "name")
	if !ok || got != "exact" {
		t.Errorf("lookupSubstring() = %q, %v; exact key match must win", got, ok)
	}
}

func TestLookupSubstringDeterministic(t *testing.T) {
	vars := map[string]string{
		"phone b": "second",
		"phone a": "first",
	}
	for i := 0; i < 20; i++ {
		got, ok := lookupSubstring(vars, "phone")
		if !ok || got != "first" {
			t.Fatalf("lookupSubstring() = %q, %v; want the lexicographically smallest match every run", got, ok)
		}
	}
}
