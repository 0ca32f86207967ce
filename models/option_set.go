package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OptionSet is a reusable list of standard values. Attributes reference it by
// id and never own it.
type OptionSet struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Type      VariantType        `json:"type" bson:"type"`
	Values    []string           `json:"values" bson:"values"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

type CreateOptionSetRequest struct {
	Name   string   `json:"name" validate:"required,max=100"`
	Type   string   `json:"type" validate:"required,optionsettype"`
	Values []string `json:"values" validate:"required,min=1,unique,dive,required,max=100"`
}

// DefaultOptionSets are seeded into an empty store on first access.
func DefaultOptionSets() []OptionSet {
	return []OptionSet{
		{
			Name:   "Basic Colors",
			Type:   VariantColor,
			Values: []string{"Black", "White", "Gray", "Red", "Blue", "Navy", "Green", "Yellow", "Pink", "Brown"},
		},
		{
			Name:   "Alpha Sizes",
			Type:   VariantSize,
			Values: []string{"XS", "S", "M", "L", "XL", "XXL"},
		},
		{
			Name:   "Numeric Sizes",
			Type:   VariantSize,
			Values: []string{"28", "30", "32", "34", "36", "38", "40", "42"},
		},
	}
}
