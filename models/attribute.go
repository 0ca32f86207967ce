package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AttributeType is the display type of an attribute definition.
type AttributeType string

const (
	AttributeText        AttributeType = "text"
	AttributeSelect      AttributeType = "select"
	AttributeMultiSelect AttributeType = "multiselect"
	AttributeNumber      AttributeType = "number"
	AttributeBoolean     AttributeType = "boolean"
)

func (t AttributeType) Valid() bool {
	switch t {
	case AttributeText, AttributeSelect, AttributeMultiSelect, AttributeNumber, AttributeBoolean:
		return true
	}
	return false
}

// HasValues reports whether the type carries an allowed-values list.
func (t AttributeType) HasValues() bool {
	return t == AttributeSelect || t == AttributeMultiSelect
}

// VariantType names a variation axis.
type VariantType string

const (
	VariantColor VariantType = "color"
	VariantSize  VariantType = "size"
)

func (v VariantType) Valid() bool {
	return v == VariantColor || v == VariantSize
}

// MaxVariantAxes is the number of distinct variant types a category may use.
const MaxVariantAxes = 2

// DefaultGroup is the UI bucket used when an attribute names none.
const DefaultGroup = "details"

// AttributeDefinition is owned by exactly one category.
type AttributeDefinition struct {
	ID                 primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	CategoryID         primitive.ObjectID  `json:"categoryId" bson:"categoryId"`
	Name               string              `json:"name" bson:"name"`
	Type               AttributeType       `json:"type" bson:"type"`
	Values             []string            `json:"values" bson:"values"`
	Required           bool                `json:"required" bson:"required"`
	Group              string              `json:"group" bson:"group"`
	IsVariant          bool                `json:"isVariant" bson:"isVariant"`
	VariantType        *VariantType        `json:"variantType" bson:"variantType"`
	UseStandardOptions bool                `json:"useStandardOptions" bson:"useStandardOptions"`
	OptionSetID        *primitive.ObjectID `json:"optionSetId" bson:"optionSetId"`
	CreatedAt          time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// AttributeInput is the client shape of an attribute. VariantAxis is the
// legacy spelling of VariantType and is reconciled before storage.
type AttributeInput struct {
	Name               string   `json:"name" validate:"required,max=100"`
	Type               string   `json:"type" validate:"required,attrtype"`
	Values             []string `json:"values" validate:"omitempty,dive,max=200"`
	Required           bool     `json:"required"`
	Group              string   `json:"group" validate:"omitempty,max=50"`
	IsVariant          bool     `json:"isVariant"`
	VariantType        *string  `json:"variantType" validate:"omitempty,varianttype"`
	VariantAxis        *string  `json:"variantAxis" validate:"omitempty,varianttype"`
	UseStandardOptions bool     `json:"useStandardOptions"`
	OptionSetID        *string  `json:"optionSetId" validate:"omitempty"`
}
