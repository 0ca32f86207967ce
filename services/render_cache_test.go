package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/HSouheill/catalog_backend/common"
	"github.com/HSouheill/catalog_backend/logger"
	"github.com/HSouheill/catalog_backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mapCache struct {
	entries map[string][]byte
	sets    int
}

func (c *mapCache) Get(_ context.Context, tag string) ([]byte, bool) {
	b, ok := c.entries[tag]
	return b, ok
}

func (c *mapCache) Set(_ context.Context, tag string, payload []byte) {
	c.sets++
	c.entries[tag] = payload
}

func TestTag(t *testing.T) {
	id := primitive.NewObjectID()

	assert.Equal(t, Tag(id, 3), Tag(id, 3))
	assert.NotEqual(t, Tag(id, 3), Tag(id, 4))
	assert.NotEqual(t, Tag(id, 3), Tag(primitive.NewObjectID(), 3))
	assert.Len(t, Tag(id, 1), 24)
	assert.Equal(t, `"`+Tag(id, 1)+`"`, ETag(Tag(id, 1)))
}

func TestMatches(t *testing.T) {
	tag := "abc123"
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`"abc123"`, true},
		{`W/"abc123"`, true},
		{"abc123", true},
		{`"zzz", "abc123"`, true},
		{`"zzz"`, false},
		{"*", true},
		{`"abc1234"`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Matches(tt.header, tag), "header %q", tt.header)
	}
	assert.False(t, Matches("*", ""))
}

func TestRenderTag_StableAcrossUnrelatedEdits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	shirts := f.create(t, "Shirts", nil, colorInput("Red"))
	jeans := f.create(t, "Jeans", nil)

	before := Tag(shirts.ID, f.category(t, shirts.ID).Version)

	_, err := f.tree.Rename(ctx, jeans.ID, "Denim")
	require.NoError(t, err)
	_, err = f.attributes.UpsertForCategory(ctx, jeans.ID, []models.AttributeInput{{Name: "Fit", Type: "text"}})
	require.NoError(t, err)
	assert.Equal(t, before, Tag(shirts.ID, f.category(t, shirts.ID).Version))

	_, err = f.attributes.UpsertForCategory(ctx, shirts.ID, []models.AttributeInput{sizeInput()})
	require.NoError(t, err)
	assert.NotEqual(t, before, Tag(shirts.ID, f.category(t, shirts.ID).Version))
}

func TestRenderService_Render(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cache := &mapCache{entries: map[string][]byte{}}
	svc := NewRenderService(f.tree, f.attributes, f.composer, cache, logger.Discard())

	shirts := f.create(t, "T-Shirts", nil, colorInput("Red", "Blue"))
	tag := Tag(shirts.ID, 1)

	out, err := svc.Render(ctx, shirts.ID, "")
	require.NoError(t, err)
	assert.Equal(t, tag, out.Tag)
	assert.False(t, out.NotModified)

	var schema struct {
		CategoryID string                   `json:"categoryId"`
		Fields     []map[string]interface{} `json:"fields"`
		RenderTag  string                   `json:"renderTag"`
	}
	require.NoError(t, json.Unmarshal(out.Payload, &schema))
	assert.Equal(t, shirts.ID.Hex(), schema.CategoryID)
	assert.Equal(t, tag, schema.RenderTag)
	require.Len(t, schema.Fields, 3)
	assert.Equal(t, "color", schema.Fields[1]["name"])
	assert.Equal(t, 1, cache.sets)

	lookups := f.attrRepo.lists
	again, err := svc.Render(ctx, shirts.ID, `"stale"`)
	require.NoError(t, err)
	assert.Equal(t, out.Payload, again.Payload)
	assert.Equal(t, lookups, f.attrRepo.lists, "cache hit skips attribute lookups")

	notModified, err := svc.Render(ctx, shirts.ID, ETag(tag))
	require.NoError(t, err)
	assert.True(t, notModified.NotModified)
	assert.Empty(t, notModified.Payload)
	assert.Equal(t, lookups, f.attrRepo.lists)

	_, err = f.attributes.UpsertForCategory(ctx, shirts.ID, []models.AttributeInput{sizeInput()})
	require.NoError(t, err)
	fresh, err := svc.Render(ctx, shirts.ID, ETag(tag))
	require.NoError(t, err)
	assert.False(t, fresh.NotModified)
	assert.NotEqual(t, tag, fresh.Tag)
	assert.Equal(t, 2, cache.sets)

	_, err = svc.Render(ctx, primitive.NewObjectID(), "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
