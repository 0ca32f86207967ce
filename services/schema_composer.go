package services

import (
	"strconv"
	"strings"

	"github.com/HSouheill/catalog_backend/config"
	"github.com/HSouheill/catalog_backend/models"
	"github.com/HSouheill/catalog_backend/utils"
)

const (
	mediaFieldName = "images"
	mediaGroup     = "media"
	skuFieldName   = "skus"
	saleGroup      = "sale"
	variantGroup   = "variant"
)

// SchemaComposer turns one category and its own attributes into the ordered
// field list a generic form renderer executes. It holds no state besides the
// media policy and is safe for concurrent use.
type SchemaComposer struct {
	media models.MediaRule
}

func NewSchemaComposer(policy config.MediaPolicy) *SchemaComposer {
	accept := make([]string, 0, len(policy.AllowedTypes))
	accept = append(accept, policy.AllowedTypes...)
	return &SchemaComposer{media: models.MediaRule{
		MaxCount:  policy.MaxCount,
		MaxSizeMB: policy.MaxSizeMB,
		Accept:    accept,
	}}
}

// Compose never fails: attributes with unknown types become inputs and
// missing values become empty option lists.
func (c *SchemaComposer) Compose(cat models.Category, attrs []models.AttributeDefinition) models.RenderSchema {
	keys := fieldKeys(attrs)

	fields := make(models.Fields, 0, len(attrs)+2)
	fields = append(fields, c.mediaField())

	axes := make([]models.SKUAxis, 0, models.MaxVariantAxes)
	for i, a := range attrs {
		fields = append(fields, composeField(a, keys[i]))
		if a.IsVariant {
			axes = append(axes, models.SKUAxis{
				Key:   keys[i],
				Label: fieldLabel(a, keys[i]),
				Type:  variantTypeOf(a),
			})
		}
	}
	fields = append(fields, models.SKUMatrixField{
		FieldBase: models.FieldBase{Name: skuFieldName, Label: "SKUs", Group: saleGroup, Visible: true},
		Axes:      axes,
	})

	return models.RenderSchema{
		CategoryID: cat.ID.Hex(),
		Category:   models.RenderHeader{ID: cat.ID.Hex(), Name: cat.Name, Slug: cat.Slug},
		Fields:     fields,
		RenderTag:  Tag(cat.ID, cat.Version),
	}
}

func (c *SchemaComposer) mediaField() models.MediaField {
	rule := c.media
	rule.Accept = append([]string{}, c.media.Accept...)
	return models.MediaField{
		FieldBase: models.FieldBase{Name: mediaFieldName, Label: "Images", Group: mediaGroup, Visible: true},
		Rule:      rule,
	}
}

func composeField(a models.AttributeDefinition, key string) models.FieldSpec {
	base := models.FieldBase{
		Name:     key,
		Label:    fieldLabel(a, key),
		Group:    fieldGroup(a),
		Required: a.Required,
		Visible:  true,
	}

	switch a.Type {
	case models.AttributeText:
		return models.InputField{FieldBase: base}
	case models.AttributeNumber:
		return models.NumberField{FieldBase: base}
	case models.AttributeBoolean:
		return models.SwitchField{FieldBase: base}
	case models.AttributeSelect:
		return selectField(base, a, false)
	case models.AttributeMultiSelect:
		return selectField(base, a, true)
	default:
		return models.InputField{FieldBase: base}
	}
}

func selectField(base models.FieldBase, a models.AttributeDefinition, multiple bool) models.SelectField {
	f := models.SelectField{FieldBase: base, Multiple: multiple}
	if a.UseStandardOptions && a.OptionSetID != nil && !a.OptionSetID.IsZero() {
		f.Fetch = "/option-sets/" + a.OptionSetID.Hex()
		return f
	}
	f.Options = make([]models.Option, 0, len(a.Values))
	for _, v := range a.Values {
		if v = strings.TrimSpace(v); v != "" {
			f.Options = append(f.Options, models.Option{Label: v, Value: v})
		}
	}
	return f
}

func fieldGroup(a models.AttributeDefinition) string {
	if a.IsVariant {
		return variantGroup
	}
	if g := strings.TrimSpace(a.Group); g != "" {
		return g
	}
	return models.DefaultGroup
}

func fieldLabel(a models.AttributeDefinition, key string) string {
	if l := strings.TrimSpace(a.Name); l != "" {
		return l
	}
	return key
}

func variantTypeOf(a models.AttributeDefinition) string {
	if a.VariantType == nil {
		return ""
	}
	return string(*a.VariantType)
}

// fieldKeys derives one stable, distinct key per attribute. Names that fold to
// the same key get a numeric suffix in declaration order.
func fieldKeys(attrs []models.AttributeDefinition) []string {
	reserved := map[string]bool{mediaFieldName: true, skuFieldName: true}
	keys := make([]string, len(attrs))
	for i, a := range attrs {
		key := utils.FieldKey(a.Name)
		if key == "" {
			key = "field_" + strconv.Itoa(i+1)
		}
		candidate := key
		for n := 2; reserved[candidate]; n++ {
			candidate = key + "_" + strconv.Itoa(n)
		}
		reserved[candidate] = true
		keys[i] = candidate
	}
	return keys
}
