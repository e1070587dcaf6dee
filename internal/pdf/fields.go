package pdf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Rect is a field bounding box in PDF user space (origin bottom-left).
type Rect struct {
	LLX, LLY, URX, URY float64
}

// Width returns the box width in points.
func (r Rect) Width() float64 { return r.URX - r.LLX }

// Height returns the box height in points.
func (r Rect) Height() float64 { return r.URY - r.LLY }

// FieldInfo describes one named AcroForm field of the template.
type FieldInfo struct {
	Name     string
	Type     string // FT entry: Tx, Btn, Ch, Sig
	Page     int    // 1-based page carrying the widget, 0 if unknown
	Bounds   *Rect
	FontSize float64 // from the DA string, 0 when unspecified
}

// FieldCatalog is the template's named-field index, built once per
// generation run and consulted by the filler and the signature overlay.
type FieldCatalog struct {
	fields map[string]*FieldInfo
	order  []string
}

// Lookup returns the field with the given fully qualified name.
func (c *FieldCatalog) Lookup(name string) (*FieldInfo, bool) {
	f, ok := c.fields[name]
	return f, ok
}

// Names returns all field names in document order.
func (c *FieldCatalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of cataloged fields.
func (c *FieldCatalog) Len() int { return len(c.order) }

// Fields walks the page tree's widget annotations and builds the field
// catalog. Widgets carry the Rect and the page number; the field name comes
// from the widget's T entry or its parent field.
func (d *Document) Fields() (*FieldCatalog, error) {
	ctx, err := d.readContext()
	if err != nil {
		return nil, err
	}

	catalog := &FieldCatalog{fields: make(map[string]*FieldInfo)}
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		pageDict, _, _, err := ctx.PageDict(pageNr, false)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d dict: %w", pageNr, err)
		}
		if pageDict == nil {
			continue
		}
		annotsObj, found := pageDict.Find("Annots")
		if !found {
			continue
		}
		annots, err := ctx.DereferenceArray(annotsObj)
		if err != nil {
			continue
		}
		for _, annotRef := range annots {
			annotDict, err := ctx.DereferenceDict(annotRef)
			if err != nil || annotDict == nil {
				continue
			}
			if subtype := annotDict.NameEntry("Subtype"); subtype == nil || *subtype != "Widget" {
				continue
			}
			info := widgetFieldInfo(ctx, annotDict, pageNr)
			if info == nil || info.Name == "" {
				continue
			}
			if _, exists := catalog.fields[info.Name]; exists {
				continue // first widget wins for multi-widget fields
			}
			catalog.fields[info.Name] = info
			catalog.order = append(catalog.order, info.Name)
		}
	}
	return catalog, nil
}

// widgetFieldInfo extracts name, type, bounds and DA font size from a widget
// annotation, consulting the parent field for inherited entries.
func widgetFieldInfo(ctx *model.Context, annotDict types.Dict, pageNr int) *FieldInfo {
	info := &FieldInfo{Page: pageNr}

	info.Name = fieldName(ctx, annotDict)

	if ft := inheritedName(ctx, annotDict, "FT"); ft != "" {
		info.Type = ft
	}

	if rectObj, found := annotDict.Find("Rect"); found {
		if rect := parseRect(ctx, rectObj); rect != nil {
			info.Bounds = rect
		}
	}

	if da := inheritedString(ctx, annotDict, "DA"); da != "" {
		info.FontSize = daFontSize(da)
	}

	return info
}

// fieldName assembles the fully qualified field name from the widget's T
// entry and any parent field names.
func fieldName(ctx *model.Context, dict types.Dict) string {
	var parts []string
	cur := dict
	for depth := 0; cur != nil && depth < 16; depth++ {
		if nameObj, found := cur.Find("T"); found {
			if name, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil && name != "" {
				parts = append([]string{name}, parts...)
			}
		}
		parentObj, found := cur.Find("Parent")
		if !found {
			break
		}
		parent, err := ctx.DereferenceDict(parentObj)
		if err != nil || parent == nil {
			break
		}
		cur = parent
	}
	return strings.Join(parts, ".")
}

// inheritedName resolves a name entry on the dict or any ancestor field.
func inheritedName(ctx *model.Context, dict types.Dict, key string) string {
	cur := dict
	for depth := 0; cur != nil && depth < 16; depth++ {
		if obj, found := cur.Find(key); found {
			if name, err := ctx.DereferenceName(obj, model.V10, nil); err == nil {
				return string(name)
			}
		}
		parentObj, found := cur.Find("Parent")
		if !found {
			break
		}
		parent, err := ctx.DereferenceDict(parentObj)
		if err != nil || parent == nil {
			break
		}
		cur = parent
	}
	return ""
}

// inheritedString resolves a string entry on the dict or any ancestor field.
func inheritedString(ctx *model.Context, dict types.Dict, key string) string {
	cur := dict
	for depth := 0; cur != nil && depth < 16; depth++ {
		if obj, found := cur.Find(key); found {
			if s, err := ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
				return s
			}
		}
		parentObj, found := cur.Find("Parent")
		if !found {
			break
		}
		parent, err := ctx.DereferenceDict(parentObj)
		if err != nil || parent == nil {
			break
		}
		cur = parent
	}
	return ""
}

func parseRect(ctx *model.Context, rectObj types.Object) *Rect {
	arr, err := ctx.DereferenceArray(rectObj)
	if err != nil || len(arr) != 4 {
		return nil
	}
	coords := make([]float64, 4)
	for i, c := range arr {
		f, err := ctx.DereferenceNumber(c)
		if err != nil {
			return nil
		}
		coords[i] = f
	}
	r := &Rect{LLX: coords[0], LLY: coords[1], URX: coords[2], URY: coords[3]}
	if r.LLX > r.URX {
		r.LLX, r.URX = r.URX, r.LLX
	}
	if r.LLY > r.URY {
		r.LLY, r.URY = r.URY, r.LLY
	}
	return r
}

// daFontSize pulls the font size out of a default appearance string such as
// "/Helv 9 Tf 0 g". A size of 0 means auto-size.
func daFontSize(da string) float64 {
	parts := strings.Fields(da)
	for i, p := range parts {
		if p == "Tf" && i >= 1 {
			if size, err := strconv.ParseFloat(parts[i-1], 64); err == nil {
				return size
			}
		}
	}
	return 0
}

// rewriteDAFontSize replaces the size operand of the Tf operator in a DA
// string, leaving the rest untouched.
func rewriteDAFontSize(da string, size float64) string {
	parts := strings.Fields(da)
	for i, p := range parts {
		if p == "Tf" && i >= 1 {
			parts[i-1] = strconv.FormatFloat(size, 'f', -1, 64)
			return strings.Join(parts, " ")
		}
	}
	return da
}
