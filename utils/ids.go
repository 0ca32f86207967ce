package utils

import (
	"strings"

	"github.com/HSouheill/catalog_backend/common"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParseObjectID parses a hex id, reporting a Validation error against field
// when it is malformed.
func ParseObjectID(field, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, common.FieldError(field, "is not a valid id")
	}
	return id, nil
}
