package models

import "encoding/json"

// UIType is the widget tag a client renderer switches on.
type UIType string

const (
	UIInput       UIType = "input"
	UINumber      UIType = "number"
	UISwitch      UIType = "switch"
	UISelect      UIType = "select"
	UIMultiSelect UIType = "multiselect"
	UIMedia       UIType = "media"
	UISKUMatrix   UIType = "skuMatrix"
)

// FieldSpec is one composed form field. The set of implementations is closed:
// only the types in this file satisfy it.
type FieldSpec interface {
	UIType() UIType
	Base() FieldBase
	Wire() WireField
	fieldSpec()
}

// FieldBase carries the attributes every field has.
type FieldBase struct {
	Name     string
	Label    string
	Group    string
	Required bool
	Visible  bool
}

// Option is one inline select choice.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FetchRef points the client at an endpoint that resolves the options lazily.
type FetchRef struct {
	Fetch string `json:"fetch"`
}

// SKUAxis is one variant dimension of the SKU matrix.
type SKUAxis struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// MediaRule constrains the media field.
type MediaRule struct {
	MaxCount  int      `json:"maxCount"`
	MaxSizeMB int      `json:"maxSizeMB"`
	Accept    []string `json:"accept"`
}

// WireField is the JSON contract consumed by the client renderer.
type WireField struct {
	Name       string      `json:"name"`
	UIType     UIType      `json:"uiType"`
	Label      string      `json:"label"`
	Group      string      `json:"group"`
	Required   *bool       `json:"required,omitempty"`
	Value      interface{} `json:"value,omitempty"`
	DataSource interface{} `json:"dataSource,omitempty"`
	Rule       interface{} `json:"rule,omitempty"`
	Visible    *bool       `json:"visible,omitempty"`
}

func (b FieldBase) wire(ui UIType) WireField {
	required, visible := b.Required, b.Visible
	return WireField{
		Name:     b.Name,
		UIType:   ui,
		Label:    b.Label,
		Group:    b.Group,
		Required: &required,
		Visible:  &visible,
	}
}

type InputField struct {
	FieldBase
}

func (f InputField) UIType() UIType  { return UIInput }
func (f InputField) Base() FieldBase { return f.FieldBase }
func (f InputField) Wire() WireField { return f.wire(UIInput) }
func (InputField) fieldSpec()        {}

type NumberField struct {
	FieldBase
}

func (f NumberField) UIType() UIType  { return UINumber }
func (f NumberField) Base() FieldBase { return f.FieldBase }
func (f NumberField) Wire() WireField { return f.wire(UINumber) }
func (NumberField) fieldSpec()        {}

type SwitchField struct {
	FieldBase
	Default bool
}

func (f SwitchField) UIType() UIType  { return UISwitch }
func (f SwitchField) Base() FieldBase { return f.FieldBase }
func (f SwitchField) Wire() WireField {
	w := f.wire(UISwitch)
	w.Value = f.Default
	return w
}
func (SwitchField) fieldSpec() {}

// SelectField covers select and multiselect. Exactly one of Options and Fetch
// is used: Fetch wins when set.
type SelectField struct {
	FieldBase
	Multiple bool
	Options  []Option
	Fetch    string
}

func (f SelectField) UIType() UIType {
	if f.Multiple {
		return UIMultiSelect
	}
	return UISelect
}
func (f SelectField) Base() FieldBase { return f.FieldBase }
func (f SelectField) Wire() WireField {
	w := f.wire(f.UIType())
	if f.Fetch != "" {
		w.DataSource = FetchRef{Fetch: f.Fetch}
	} else {
		options := f.Options
		if options == nil {
			options = []Option{}
		}
		w.DataSource = options
	}
	return w
}
func (SelectField) fieldSpec() {}

type MediaField struct {
	FieldBase
	Rule MediaRule
}

func (f MediaField) UIType() UIType  { return UIMedia }
func (f MediaField) Base() FieldBase { return f.FieldBase }
func (f MediaField) Wire() WireField {
	w := f.wire(UIMedia)
	w.Rule = f.Rule
	return w
}
func (MediaField) fieldSpec() {}

// SKUMatrixField lists the variant axes; an empty list means a single
// default SKU row.
type SKUMatrixField struct {
	FieldBase
	Axes []SKUAxis
}

func (f SKUMatrixField) UIType() UIType  { return UISKUMatrix }
func (f SKUMatrixField) Base() FieldBase { return f.FieldBase }
func (f SKUMatrixField) Wire() WireField {
	w := f.wire(UISKUMatrix)
	axes := f.Axes
	if axes == nil {
		axes = []SKUAxis{}
	}
	w.DataSource = axes
	return w
}
func (SKUMatrixField) fieldSpec() {}

// Fields is an ordered field list that marshals to the wire contract.
type Fields []FieldSpec

func (fs Fields) MarshalJSON() ([]byte, error) {
	out := make([]WireField, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Wire())
	}
	return json.Marshal(out)
}

// RenderHeader identifies the category a schema was composed for. It only
// holds fields whose change bumps the category version.
type RenderHeader struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// RenderSchema is the composer output.
type RenderSchema struct {
	CategoryID string       `json:"categoryId"`
	Category   RenderHeader `json:"category"`
	Fields     Fields       `json:"fields"`
	RenderTag  string       `json:"renderTag"`
}
