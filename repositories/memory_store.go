package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/HSouheill/catalog_backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The memory repositories back tests and STORE=memory runs. They enforce the
// same unique keys as the Mongo indexes and return copies, never internal
// pointers.

type MemoryCategoryRepository struct {
	mu   sync.RWMutex
	docs map[primitive.ObjectID]models.Category
}

func NewMemoryCategoryRepository() *MemoryCategoryRepository {
	return &MemoryCategoryRepository{docs: map[primitive.ObjectID]models.Category{}}
}

func (r *MemoryCategoryRepository) Save(_ context.Context, c *models.Category) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, other := range r.docs {
		if id == c.ID {
			continue
		}
		if other.Slug == c.Slug || (sameParent(other.ParentID, c.ParentID) && other.Name == c.Name) {
			return ErrDuplicate
		}
	}
	r.docs[c.ID] = cloneCategory(*c)
	return nil
}

func (r *MemoryCategoryRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneCategory(c)
	return &out, nil
}

func (r *MemoryCategoryRepository) FindSibling(_ context.Context, parentID *primitive.ObjectID, name string) (*models.Category, error) {
	return r.first(func(c models.Category) bool {
		return c.Name == name && sameParent(c.ParentID, parentID)
	})
}

func (r *MemoryCategoryRepository) FindBySlug(_ context.Context, slug string) (*models.Category, error) {
	return r.first(func(c models.Category) bool { return c.Slug == slug })
}

func (r *MemoryCategoryRepository) FindAll(_ context.Context) ([]models.Category, error) {
	return r.filter(func(models.Category) bool { return true }), nil
}

func (r *MemoryCategoryRepository) FindPage(_ context.Context, skip, limit int64) ([]models.Category, int64, error) {
	all := r.filter(func(models.Category) bool { return true })
	total := int64(len(all))
	if skip < 0 {
		skip = 0
	}
	if skip >= total {
		return []models.Category{}, total, nil
	}
	end := total
	if limit > 0 && limit < total-skip {
		end = skip + limit
	}
	return all[skip:end], total, nil
}

func (r *MemoryCategoryRepository) FindChildren(_ context.Context, parentID primitive.ObjectID) ([]models.Category, error) {
	return r.filter(func(c models.Category) bool {
		return c.ParentID != nil && *c.ParentID == parentID
	}), nil
}

func (r *MemoryCategoryRepository) FindDescendants(_ context.Context, id primitive.ObjectID) ([]models.Category, error) {
	return r.filter(func(c models.Category) bool { return c.IsDescendantOf(id) }), nil
}

func (r *MemoryCategoryRepository) Rename(_ context.Context, id primitive.ObjectID, name, slug string, path []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.docs[id]
	if !ok {
		return ErrNotFound
	}
	for oid, other := range r.docs {
		if oid != id && (other.Slug == slug || (sameParent(other.ParentID, c.ParentID) && other.Name == name)) {
			return ErrDuplicate
		}
	}
	c.Name, c.Slug = name, slug
	c.Path = append([]string(nil), path...)
	c.Version++
	c.UpdatedAt = time.Now()
	r.docs[id] = c
	return nil
}

func (r *MemoryCategoryRepository) SetPathSegment(_ context.Context, ancestorID primitive.ObjectID, index int, slug string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var modified int64
	for id, c := range r.docs {
		if !c.IsDescendantOf(ancestorID) || index >= len(c.Path) {
			continue
		}
		if c.Path[index] == slug {
			continue
		}
		c.Path = append([]string(nil), c.Path...)
		c.Path[index] = slug
		c.UpdatedAt = time.Now()
		r.docs[id] = c
		modified++
	}
	return modified, nil
}

func (r *MemoryCategoryRepository) UpdatePlacement(_ context.Context, id primitive.ObjectID, parentID *primitive.ObjectID, level int, path []string, ancestors []primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.docs[id]
	if !ok {
		return ErrNotFound
	}
	for oid, other := range r.docs {
		if oid != id && sameParent(other.ParentID, parentID) && other.Name == c.Name {
			return ErrDuplicate
		}
	}
	if parentID != nil {
		pid := *parentID
		c.ParentID = &pid
	} else {
		c.ParentID = nil
	}
	c.Level = level
	c.Path = append([]string(nil), path...)
	c.Ancestors = append([]primitive.ObjectID{}, ancestors...)
	c.UpdatedAt = time.Now()
	r.docs[id] = c
	return nil
}

func (r *MemoryCategoryRepository) BumpVersion(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.docs[id]
	if !ok {
		return ErrNotFound
	}
	c.Version++
	c.UpdatedAt = time.Now()
	r.docs[id] = c
	return nil
}

func (r *MemoryCategoryRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	delete(r.docs, id)
	r.mu.Unlock()
	return nil
}

func (r *MemoryCategoryRepository) first(match func(models.Category) bool) (*models.Category, error) {
	found := r.filter(match)
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return &found[0], nil
}

// filter returns matching copies in the Mongo sort order (level, name, id).
func (r *MemoryCategoryRepository) filter(match func(models.Category) bool) []models.Category {
	r.mu.RLock()
	out := []models.Category{}
	for _, c := range r.docs {
		if match(c) {
			out = append(out, cloneCategory(c))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out
}

func sameParent(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneCategory(c models.Category) models.Category {
	out := c
	if c.ParentID != nil {
		pid := *c.ParentID
		out.ParentID = &pid
	}
	out.Path = append([]string(nil), c.Path...)
	out.Ancestors = append([]primitive.ObjectID{}, c.Ancestors...)
	return out
}

type MemoryAttributeRepository struct {
	mu    sync.RWMutex
	docs  map[primitive.ObjectID]models.AttributeDefinition
	order []primitive.ObjectID
}

func NewMemoryAttributeRepository() *MemoryAttributeRepository {
	return &MemoryAttributeRepository{docs: map[primitive.ObjectID]models.AttributeDefinition{}}
}

func (r *MemoryAttributeRepository) Save(_ context.Context, a *models.AttributeDefinition) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, other := range r.docs {
		if id != a.ID && other.CategoryID == a.CategoryID && other.Name == a.Name {
			return ErrDuplicate
		}
	}
	if _, exists := r.docs[a.ID]; !exists {
		r.order = append(r.order, a.ID)
	}
	r.docs[a.ID] = cloneAttribute(*a)
	return nil
}

func (r *MemoryAttributeRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.AttributeDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneAttribute(a)
	return &out, nil
}

func (r *MemoryAttributeRepository) ListByCategory(_ context.Context, categoryID primitive.ObjectID) ([]models.AttributeDefinition, error) {
	return r.filter(func(a models.AttributeDefinition) bool { return a.CategoryID == categoryID }), nil
}

func (r *MemoryAttributeRepository) ListByCategories(_ context.Context, categoryIDs []primitive.ObjectID) ([]models.AttributeDefinition, error) {
	wanted := make(map[primitive.ObjectID]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		wanted[id] = true
	}
	return r.filter(func(a models.AttributeDefinition) bool { return wanted[a.CategoryID] }), nil
}

func (r *MemoryAttributeRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(id)
	return nil
}

func (r *MemoryAttributeRepository) DeleteByCategory(_ context.Context, categoryID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, a := range r.docs {
		if a.CategoryID == categoryID {
			r.remove(id)
			deleted++
		}
	}
	return deleted, nil
}

// remove must be called with mu held.
func (r *MemoryAttributeRepository) remove(id primitive.ObjectID) {
	if _, ok := r.docs[id]; !ok {
		return
	}
	delete(r.docs, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *MemoryAttributeRepository) filter(match func(models.AttributeDefinition) bool) []models.AttributeDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.AttributeDefinition{}
	for _, id := range r.order {
		if a := r.docs[id]; match(a) {
			out = append(out, cloneAttribute(a))
		}
	}
	return out
}

func cloneAttribute(a models.AttributeDefinition) models.AttributeDefinition {
	out := a
	out.Values = append([]string{}, a.Values...)
	if a.VariantType != nil {
		vt := *a.VariantType
		out.VariantType = &vt
	}
	if a.OptionSetID != nil {
		oid := *a.OptionSetID
		out.OptionSetID = &oid
	}
	return out
}

type MemoryOptionSetRepository struct {
	mu   sync.RWMutex
	sets []models.OptionSet
}

func NewMemoryOptionSetRepository() *MemoryOptionSetRepository {
	return &MemoryOptionSetRepository{}
}

func (r *MemoryOptionSetRepository) Insert(_ context.Context, set *models.OptionSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.exists(set.Type, set.Name) {
		return ErrDuplicate
	}
	if set.ID.IsZero() {
		set.ID = primitive.NewObjectID()
	}
	if set.CreatedAt.IsZero() {
		set.CreatedAt = time.Now()
	}
	r.sets = append(r.sets, cloneOptionSet(*set))
	return nil
}

func (r *MemoryOptionSetRepository) InsertMany(_ context.Context, sets []models.OptionSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range sets {
		if r.exists(s.Type, s.Name) {
			continue
		}
		if s.ID.IsZero() {
			s.ID = primitive.NewObjectID()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = time.Now()
		}
		r.sets = append(r.sets, cloneOptionSet(s))
	}
	return nil
}

func (r *MemoryOptionSetRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.OptionSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sets {
		if s.ID == id {
			out := cloneOptionSet(s)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryOptionSetRepository) List(_ context.Context, setType *models.VariantType) ([]models.OptionSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.OptionSet{}
	for _, s := range r.sets {
		if setType == nil || s.Type == *setType {
			out = append(out, cloneOptionSet(s))
		}
	}
	return out, nil
}

func (r *MemoryOptionSetRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.sets)), nil
}

func (r *MemoryOptionSetRepository) exists(t models.VariantType, name string) bool {
	for _, s := range r.sets {
		if s.Type == t && s.Name == name {
			return true
		}
	}
	return false
}

func cloneOptionSet(s models.OptionSet) models.OptionSet {
	out := s
	out.Values = append([]string{}, s.Values...)
	return out
}

// NoTransactions is the Transactor of stores without multi-document
// transactions.
type NoTransactions struct{}

func (NoTransactions) SupportsTransactions() bool { return false }

func (NoTransactions) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
