package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is one node of the catalog tree. Path holds the slugs from the root
// down to and including this node; Ancestors holds the ids of every node above
// it in the same order.
type Category struct {
	ID        primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string               `json:"name" bson:"name"`
	Slug      string               `json:"slug" bson:"slug"`
	Level     int                  `json:"level" bson:"level"`
	ParentID  *primitive.ObjectID  `json:"parentId" bson:"parentId"`
	Path      []string             `json:"path" bson:"path"`
	Ancestors []primitive.ObjectID `json:"ancestors" bson:"ancestors"`
	Version   int64                `json:"version" bson:"version"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt" bson:"updatedAt"`
}

func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// IsDescendantOf reports whether id appears among the category's ancestors.
func (c *Category) IsDescendantOf(id primitive.ObjectID) bool {
	for _, a := range c.Ancestors {
		if a == id {
			return true
		}
	}
	return false
}

// Place sets Level, Path and Ancestors from parent (nil for a root).
func (c *Category) Place(parent *Category) {
	if parent == nil {
		c.ParentID = nil
		c.Level = 1
		c.Path = []string{c.Slug}
		c.Ancestors = []primitive.ObjectID{}
		return
	}
	pid := parent.ID
	c.ParentID = &pid
	c.Level = parent.Level + 1
	c.Path = append(append(make([]string, 0, len(parent.Path)+1), parent.Path...), c.Slug)
	c.Ancestors = append(append(make([]primitive.ObjectID, 0, len(parent.Ancestors)+1), parent.Ancestors...), parent.ID)
}

// CategoryWithAttributes is the read model returned by the category endpoints.
type CategoryWithAttributes struct {
	Category
	Attributes []AttributeDefinition `json:"attributes"`
}

// CategoryNode is one node of the navigation tree.
type CategoryNode struct {
	Category
	Attributes []AttributeDefinition `json:"attributes"`
	Children   []*CategoryNode       `json:"children"`
}

// CategoryPage is a page of the flat category listing.
type CategoryPage struct {
	Items []CategoryWithAttributes `json:"items"`
	Total int64                    `json:"total"`
	Page  int                      `json:"page"`
	Limit int                      `json:"limit"`
}
