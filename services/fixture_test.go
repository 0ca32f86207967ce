package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/HSouheill/catalog_backend/config"
	"github.com/HSouheill/catalog_backend/logger"
	"github.com/HSouheill/catalog_backend/models"
	"github.com/HSouheill/catalog_backend/repositories"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// opLog records write operations in call order.
type opLog struct {
	mu  sync.Mutex
	ops []string
}

func (l *opLog) add(op string) {
	l.mu.Lock()
	l.ops = append(l.ops, op)
	l.mu.Unlock()
}

func (l *opLog) index(op string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, o := range l.ops {
		if o == op {
			return i
		}
	}
	return -1
}

type recordingCategories struct {
	*repositories.MemoryCategoryRepository
	log *opLog
}

func (r recordingCategories) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.log.add("category:" + id.Hex())
	return r.MemoryCategoryRepository.Delete(ctx, id)
}

type recordingAttributes struct {
	*repositories.MemoryAttributeRepository
	log   *opLog
	lists int
}

func (r *recordingAttributes) DeleteByCategory(ctx context.Context, id primitive.ObjectID) (int64, error) {
	r.log.add("attributes:" + id.Hex())
	return r.MemoryAttributeRepository.DeleteByCategory(ctx, id)
}

func (r *recordingAttributes) ListByCategory(ctx context.Context, id primitive.ObjectID) ([]models.AttributeDefinition, error) {
	r.lists++
	return r.MemoryAttributeRepository.ListByCategory(ctx, id)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.CategoryEvent
}

func (p *recordingPublisher) Publish(e models.CategoryEvent) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *recordingPublisher) types() []models.CategoryEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.CategoryEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	ops        *opLog
	categories *repositories.MemoryCategoryRepository
	attrRepo   *recordingAttributes
	optionRepo *repositories.MemoryOptionSetRepository
	optionSets *OptionSetService
	attributes *AttributeService
	tree       *CategoryTree
	composer   *SchemaComposer
	events     *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Discard()
	ops := &opLog{}

	categories := repositories.NewMemoryCategoryRepository()
	attrRepo := &recordingAttributes{MemoryAttributeRepository: repositories.NewMemoryAttributeRepository(), log: ops}
	optionRepo := repositories.NewMemoryOptionSetRepository()

	runner := NewMutationRunner(repositories.NoTransactions{}, RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond}, log)
	optionSets := NewOptionSetService(optionRepo, log)
	attributes := NewAttributeService(attrRepo, optionSets, categories, runner, log)
	events := &recordingPublisher{}
	tree := NewCategoryTree(recordingCategories{MemoryCategoryRepository: categories, log: ops}, attributes, runner, events, log)

	return &fixture{
		ops:        ops,
		categories: categories,
		attrRepo:   attrRepo,
		optionRepo: optionRepo,
		optionSets: optionSets,
		attributes: attributes,
		tree:       tree,
		composer:   NewSchemaComposer(config.MediaPolicy{MaxCount: 8, MaxSizeMB: 5, AllowedTypes: []string{"image/jpeg", "image/png"}}),
		events:     events,
	}
}

func (f *fixture) create(t *testing.T, name string, parent *models.CategoryWithAttributes, attrs ...models.AttributeInput) *models.CategoryWithAttributes {
	t.Helper()
	var parentID *primitive.ObjectID
	if parent != nil {
		id := parent.ID
		parentID = &id
	}
	c, err := f.tree.Create(context.Background(), name, parentID, attrs)
	require.NoError(t, err)
	return c
}

func (f *fixture) category(t *testing.T, id primitive.ObjectID) *models.Category {
	t.Helper()
	c, err := f.categories.FindByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

// requirePathInvariant checks path, ancestors and level of every category
// against its parent.
func (f *fixture) requirePathInvariant(t *testing.T) {
	t.Helper()
	all, err := f.categories.FindAll(context.Background())
	require.NoError(t, err)
	byID := make(map[primitive.ObjectID]models.Category, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	for _, c := range all {
		want := models.Category{Slug: c.Slug}
		if c.ParentID != nil {
			parent, ok := byID[*c.ParentID]
			require.True(t, ok, "parent of %s exists", c.Name)
			want.Place(&parent)
		} else {
			want.Place(nil)
		}
		require.Equal(t, want.Path, c.Path, "path of %s", c.Name)
		require.Equal(t, want.Ancestors, c.Ancestors, "ancestors of %s", c.Name)
		require.Equal(t, want.Level, c.Level, "level of %s", c.Name)
	}
}

func strPtr(s string) *string { return &s }
