package pdf

import (
	"fmt"
	"log"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Field-fit constants. A value is shrunk when its estimated width exceeds
// the usable fraction of the field box; sizes never drop below the floor.
const (
	defaultFieldFontSize = 9.0
	minFieldFontSize     = 6.0
	fieldBoxUsable       = 0.8
)

// FieldNotFoundError reports a value bound to a field the template does not
// carry. Schema drift between mapping config and template revisions is
// tolerated: callers log it and continue.
type FieldNotFoundError struct {
	Field string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("form field %q not found in template", e.Field)
}

// FormFiller writes resolved values into named text fields. Values are
// collected through SetField and committed in one document round trip by
// Apply.
type FormFiller struct {
	doc       *Document
	catalog   *FieldCatalog
	metrics   *FontMetrics
	pending   map[string]string
	order     []string
	debugMode bool
}

// NewFormFiller builds a filler over the document's current field catalog.
func NewFormFiller(doc *Document, metrics *FontMetrics, debugMode bool) (*FormFiller, error) {
	catalog, err := doc.Fields()
	if err != nil {
		return nil, err
	}
	return &FormFiller{
		doc:       doc,
		catalog:   catalog,
		metrics:   metrics,
		pending:   make(map[string]string),
		debugMode: debugMode,
	}, nil
}

// Catalog exposes the field catalog built at construction.
func (f *FormFiller) Catalog() *FieldCatalog { return f.catalog }

// SetField stages a value for a named text field. An unknown field returns
// a *FieldNotFoundError and stages nothing.
func (f *FormFiller) SetField(name, value string) error {
	if _, ok := f.catalog.Lookup(name); !ok {
		return &FieldNotFoundError{Field: name}
	}
	if _, staged := f.pending[name]; !staged {
		f.order = append(f.order, name)
	}
	f.pending[name] = value
	return nil
}

// Apply commits all staged values: sets each field's V entry, drops stale
// appearance streams, rewrites the DA font size where the value would
// overflow the field box, and flags NeedAppearances so viewers regenerate
// appearances at the adjusted size.
func (f *FormFiller) Apply() error {
	if len(f.pending) == 0 {
		return nil
	}
	ctx, err := f.doc.readContext()
	if err != nil {
		return err
	}

	rootDict, err := ctx.Catalog()
	if err != nil {
		return fmt.Errorf("failed to get catalog: %w", err)
	}
	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return fmt.Errorf("template has no AcroForm dictionary")
	}
	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil || acroFormDict == nil {
		return fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return fmt.Errorf("AcroForm has no Fields array")
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	applied := f.fillFields(ctx, fieldsArray, "")

	acroFormDict.Update("NeedAppearances", types.Boolean(true))

	if f.debugMode {
		log.Printf("form fill: applied %d of %d staged value(s)", applied, len(f.pending))
	}

	f.pending = make(map[string]string)
	f.order = nil
	return f.doc.writeContext(ctx)
}

// fillFields walks the field tree recursively, applying staged values to
// matching terminal fields.
func (f *FormFiller) fillFields(ctx *model.Context, fields types.Array, prefix string) int {
	applied := 0
	for _, fieldRef := range fields {
		fieldDict, err := ctx.DereferenceDict(fieldRef)
		if err != nil || fieldDict == nil {
			continue
		}

		name := prefix
		if nameObj, found := fieldDict.Find("T"); found {
			if partial, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil && partial != "" {
				if name != "" {
					name += "."
				}
				name += partial
			}
		}

		// Descend into non-terminal fields. Kids that are widget
		// annotations (carrying Subtype) stay with this field.
		if kidsObj, found := fieldDict.Find("Kids"); found {
			if kids, err := ctx.DereferenceArray(kidsObj); err == nil && len(kids) > 0 && !kidsAreWidgets(ctx, kids) {
				applied += f.fillFields(ctx, kids, name)
				continue
			}
		}

		value, staged := f.pending[name]
		if !staged {
			continue
		}
		f.applyValue(ctx, fieldDict, name, value)
		applied++
	}
	return applied
}

func kidsAreWidgets(ctx *model.Context, kids types.Array) bool {
	for _, kidRef := range kids {
		kid, err := ctx.DereferenceDict(kidRef)
		if err != nil || kid == nil {
			return false
		}
		if subtype := kid.NameEntry("Subtype"); subtype == nil || *subtype != "Widget" {
			return false
		}
	}
	return true
}

// applyValue writes the V entry and adjusts the appearance of one field.
func (f *FormFiller) applyValue(ctx *model.Context, fieldDict types.Dict, name, value string) {
	fieldDict.Update("V", types.StringLiteral(escapeStringLiteral(value)))
	fieldDict.Delete("AP")

	info, _ := f.catalog.Lookup(name)
	if info == nil || info.Bounds == nil || value == "" {
		return
	}

	size := info.FontSize
	if size <= 0 {
		size = defaultFieldFontSize
	}
	available := info.Bounds.Width() * fieldBoxUsable
	fitted := f.metrics.FitFontSize(value, size, available, minFieldFontSize)
	if fitted == size {
		return
	}

	da := inheritedString(ctx, fieldDict, "DA")
	if da == "" {
		da = fmt.Sprintf("/Helv %g Tf 0 g", size)
	}
	fieldDict.Update("DA", types.StringLiteral(rewriteDAFontSize(da, fitted)))
	if f.debugMode {
		log.Printf("form fill: field %q shrunk from %.1fpt to %.1fpt", name, size, fitted)
	}
}

// escapeStringLiteral escapes the characters with special meaning inside a
// PDF literal string.
func escapeStringLiteral(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '(', ')':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
