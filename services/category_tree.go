package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/HSouheill/catalog_backend/common"
	"github.com/HSouheill/catalog_backend/models"
	"github.com/HSouheill/catalog_backend/repositories"
	"github.com/HSouheill/catalog_backend/utils"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	maxCategoryName  = 100
	categoryNotFound = "category"
	parentNotFound   = "parent category"
)

// EventPublisher receives an event after every completed tree mutation.
type EventPublisher interface {
	Publish(event models.CategoryEvent)
}

type noopPublisher struct{}

func (noopPublisher) Publish(models.CategoryEvent) {}

// CategoryTree maintains the category hierarchy. Descendants of a category
// are the categories holding its id in their ancestors, so renames and moves
// never depend on slug text.
type CategoryTree struct {
	repo       repositories.CategoryRepository
	attributes *AttributeService
	runner     *MutationRunner
	events     EventPublisher
	log        logrus.FieldLogger
}

func NewCategoryTree(
	repo repositories.CategoryRepository,
	attributes *AttributeService,
	runner *MutationRunner,
	events EventPublisher,
	log logrus.FieldLogger,
) *CategoryTree {
	if events == nil {
		events = noopPublisher{}
	}
	return &CategoryTree{
		repo:       repo,
		attributes: attributes,
		runner:     runner,
		events:     events,
		log:        log,
	}
}

// Create adds a category under parentID (nil for a root) together with its
// attributes.
func (t *CategoryTree) Create(ctx context.Context, name string, parentID *primitive.ObjectID, inputs []models.AttributeInput) (*models.CategoryWithAttributes, error) {
	name, slug, err := categoryName(name)
	if err != nil {
		return nil, err
	}

	var parent *models.Category
	if parentID != nil {
		if parent, err = t.load(ctx, *parentID, parentNotFound); err != nil {
			return nil, err
		}
	}
	if err := t.checkUnique(ctx, parentID, name, slug, primitive.NilObjectID); err != nil {
		return nil, err
	}

	now := time.Now()
	cat := &models.Category{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Slug:      slug,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	cat.Place(parent)

	attrs, err := t.attributes.Prepare(ctx, cat.ID, inputs)
	if err != nil {
		return nil, err
	}

	steps := []Step{{Name: "save category", Run: func(ctx context.Context) error {
		return t.repo.Save(ctx, cat)
	}}}
	steps = append(steps, t.attributes.SaveSteps(attrs)...)
	if err := t.runner.Run(ctx, "create category", steps...); err != nil {
		return nil, t.writeError("create category", cat.ID, err)
	}

	t.log.WithFields(logrus.Fields{
		"categoryId": cat.ID.Hex(),
		"path":       strings.Join(cat.Path, "/"),
		"attributes": len(attrs),
	}).Info("category created")
	t.publish(models.CategoryCreated, cat)

	return &models.CategoryWithAttributes{Category: *cat, Attributes: attrs}, nil
}

// Find loads a category without its attributes.
func (t *CategoryTree) Find(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	return t.load(ctx, id, categoryNotFound)
}

func (t *CategoryTree) Get(ctx context.Context, id primitive.ObjectID) (*models.CategoryWithAttributes, error) {
	cat, err := t.load(ctx, id, categoryNotFound)
	if err != nil {
		return nil, err
	}
	attrs, err := t.attributes.ListByCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.CategoryWithAttributes{Category: *cat, Attributes: attrs}, nil
}

// List returns one page of the flat category listing ordered by level and
// name.
func (t *CategoryTree) List(ctx context.Context, page, limit int) (*models.CategoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	cats, total, err := t.repo.FindPage(ctx, pageSkip(page, limit), int64(limit))
	if err != nil {
		return nil, t.internal("list categories", err)
	}
	grouped, err := t.attributes.ListByCategories(ctx, categoryIDs(cats))
	if err != nil {
		return nil, err
	}

	items := make([]models.CategoryWithAttributes, 0, len(cats))
	for _, c := range cats {
		items = append(items, models.CategoryWithAttributes{Category: c, Attributes: nonNilAttributes(grouped[c.ID])})
	}
	return &models.CategoryPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// GetTree returns every category with its attributes as a forest, siblings
// ordered by name. A category whose parent is missing is listed as a root.
func (t *CategoryTree) GetTree(ctx context.Context) ([]*models.CategoryNode, error) {
	cats, err := t.repo.FindAll(ctx)
	if err != nil {
		return nil, t.internal("load category tree", err)
	}
	grouped, err := t.attributes.ListByCategories(ctx, categoryIDs(cats))
	if err != nil {
		return nil, err
	}

	nodes := make(map[primitive.ObjectID]*models.CategoryNode, len(cats))
	for _, c := range cats {
		nodes[c.ID] = &models.CategoryNode{
			Category:   c,
			Attributes: nonNilAttributes(grouped[c.ID]),
			Children:   []*models.CategoryNode{},
		}
	}

	roots := []*models.CategoryNode{}
	for _, c := range cats {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
			t.log.WithFields(logrus.Fields{
				"categoryId": c.ID.Hex(),
				"parentId":   c.ParentID.Hex(),
			}).Warn("category parent missing, listing as root")
		}
		roots = append(roots, node)
	}
	sortNodes(roots)
	return roots, nil
}

func sortNodes(nodes []*models.CategoryNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Name != nodes[j].Name {
			return nodes[i].Name < nodes[j].Name
		}
		return nodes[i].ID.Hex() < nodes[j].ID.Hex()
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

// Rename changes the name and slug of a category and rewrites the matching
// path segment of every descendant.
func (t *CategoryTree) Rename(ctx context.Context, id primitive.ObjectID, newName string) (*models.CategoryWithAttributes, error) {
	return t.place(ctx, id, placementChange{name: &newName})
}

// Reparent moves a category under newParentID, or to the root when it is
// nil, and recomputes placement for the whole moved subtree.
func (t *CategoryTree) Reparent(ctx context.Context, id primitive.ObjectID, newParentID *primitive.ObjectID) (*models.CategoryWithAttributes, error) {
	return t.place(ctx, id, placementChange{move: true, parentID: newParentID})
}

func (t *CategoryTree) place(ctx context.Context, id primitive.ObjectID, change placementChange) (*models.CategoryWithAttributes, error) {
	cat, err := t.load(ctx, id, categoryNotFound)
	if err != nil {
		return nil, err
	}
	plan, err := t.planPlacement(ctx, cat, change)
	if err != nil {
		return nil, err
	}
	if len(plan.steps) == 0 {
		return t.afterUpdate(ctx, id, false)
	}
	if err := t.runner.Run(ctx, plan.op(), plan.steps...); err != nil {
		return nil, t.writeError(plan.op(), id, err)
	}
	t.logPlacement(cat, plan)
	return t.afterUpdate(ctx, id, true)
}

// placementChange is a requested rename and/or move. A nil parentID with
// move set means the root.
type placementChange struct {
	name     *string
	move     bool
	parentID *primitive.ObjectID
}

// placementPlan holds the validated writes for a placementChange. Building
// one never writes.
type placementPlan struct {
	steps       []Step
	target      models.Category
	renamed     bool
	moved       bool
	descendants int
}

func (p *placementPlan) op() string {
	switch {
	case p.renamed && p.moved:
		return "move and rename category"
	case p.moved:
		return "reparent category"
	default:
		return "rename category"
	}
}

// planPlacement runs every check a rename or move needs and returns the
// steps that apply it. The category's final path and ancestors are computed
// up front, so a combined rename and move rewrites each descendant once.
func (t *CategoryTree) planPlacement(ctx context.Context, cat *models.Category, change placementChange) (*placementPlan, error) {
	id := cat.ID
	plan := &placementPlan{target: *cat}

	name, slug := cat.Name, cat.Slug
	if change.name != nil {
		var err error
		if name, slug, err = categoryName(*change.name); err != nil {
			return nil, err
		}
		plan.renamed = name != cat.Name
	}

	var parent *models.Category
	if change.move {
		if change.parentID != nil && *change.parentID == id {
			return nil, common.Conflict("a category cannot be its own parent")
		}
		if change.parentID != nil {
			var err error
			if parent, err = t.load(ctx, *change.parentID, parentNotFound); err != nil {
				return nil, err
			}
			if parent.IsDescendantOf(id) {
				return nil, common.Conflict("cannot move %q into its own subtree", cat.Name)
			}
		}
		plan.moved = !sameParent(cat.ParentID, change.parentID)
	}
	if !plan.renamed && !plan.moved {
		return plan, nil
	}
	if !plan.renamed {
		name, slug = cat.Name, cat.Slug
	}

	targetParent := cat.ParentID
	if plan.moved {
		targetParent = change.parentID
	}
	uniqueSlug := ""
	if plan.renamed {
		uniqueSlug = slug
	}
	if err := t.checkUnique(ctx, targetParent, name, uniqueSlug, id); err != nil {
		return nil, err
	}

	target := &plan.target
	target.Name, target.Slug = name, slug
	if plan.moved {
		target.Place(parent)
	} else if n := len(cat.Path); n > 0 {
		target.Path = append(append(make([]string, 0, n), cat.Path[:n-1]...), slug)
	} else {
		target.Path = []string{slug}
	}

	var descendants []models.Category
	if plan.moved {
		var err error
		if descendants, err = t.repo.FindDescendants(ctx, id); err != nil {
			return nil, t.internal("load descendants", err)
		}
		plan.descendants = len(descendants)
	}

	final := *target
	if plan.moved {
		plan.steps = append(plan.steps, Step{Name: "move category", Run: func(ctx context.Context) error {
			return t.repo.UpdatePlacement(ctx, id, final.ParentID, final.Level, final.Path, final.Ancestors)
		}})
	}
	if plan.renamed {
		plan.steps = append(plan.steps, Step{Name: "rename category", Run: func(ctx context.Context) error {
			return t.repo.Rename(ctx, id, final.Name, final.Slug, final.Path)
		}})
	}

	if plan.moved {
		oldDepth := cat.Level
		for _, d := range descendants {
			d := d
			path := append(append(make([]string, 0, len(final.Path)+len(d.Path)), final.Path...), tail(d.Path, oldDepth)...)
			ancestors := make([]primitive.ObjectID, 0, len(final.Ancestors)+len(d.Ancestors))
			ancestors = append(append(append(ancestors, final.Ancestors...), id), tailIDs(d.Ancestors, oldDepth)...)
			plan.steps = append(plan.steps, Step{Name: "move descendant " + d.ID.Hex(), Run: func(ctx context.Context) error {
				return t.repo.UpdatePlacement(ctx, d.ID, d.ParentID, len(path), path, ancestors)
			}})
		}
	} else if slug != cat.Slug {
		index := len(final.Path) - 1
		plan.steps = append(plan.steps, Step{Name: "rewrite descendant paths", Run: func(ctx context.Context) error {
			n, err := t.repo.SetPathSegment(ctx, id, index, slug)
			if err == nil && n > 0 {
				t.log.WithFields(logrus.Fields{"categoryId": id.Hex(), "descendants": n}).Debug("descendant paths rewritten")
			}
			return err
		}})
	}
	return plan, nil
}

func (t *CategoryTree) logPlacement(cat *models.Category, plan *placementPlan) {
	id := cat.ID.Hex()
	if plan.renamed {
		t.log.WithFields(logrus.Fields{
			"categoryId": id,
			"from":       cat.Slug,
			"to":         plan.target.Slug,
		}).Info("category renamed")
	}
	if plan.moved {
		t.log.WithFields(logrus.Fields{
			"categoryId":  id,
			"path":        strings.Join(plan.target.Path, "/"),
			"descendants": plan.descendants,
		}).Info("category moved")
	}
}

// Update applies an attribute upsert, a move and a rename as one mutation.
// Every check runs before the first write, so a rejected update leaves the
// category untouched.
func (t *CategoryTree) Update(ctx context.Context, id primitive.ObjectID, req models.UpdateCategoryRequest) (*models.CategoryWithAttributes, error) {
	cat, err := t.load(ctx, id, categoryNotFound)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if _, _, err := categoryName(*req.Name); err != nil {
			return nil, err
		}
	}

	change := placementChange{name: req.Name}
	hasParent := req.ParentID != nil && strings.TrimSpace(*req.ParentID) != ""
	switch {
	case req.MoveToRoot && hasParent:
		return nil, common.FieldError("parentId", "cannot be combined with moveToRoot")
	case hasParent:
		pid, err := utils.ParseObjectID("parentId", *req.ParentID)
		if err != nil {
			return nil, err
		}
		change.move, change.parentID = true, &pid
	case req.MoveToRoot:
		change.move = true
	}

	var steps []Step
	if len(req.Attributes) > 0 {
		if steps, err = t.attributes.UpsertSteps(ctx, id, req.Attributes); err != nil {
			return nil, err
		}
	}
	plan, err := t.planPlacement(ctx, cat, change)
	if err != nil {
		return nil, err
	}
	steps = append(steps, plan.steps...)
	if len(steps) == 0 {
		return t.afterUpdate(ctx, id, false)
	}

	if err := t.runner.Run(ctx, "update category", steps...); err != nil {
		return nil, t.writeError("update category", id, err)
	}
	t.logPlacement(cat, plan)
	return t.afterUpdate(ctx, id, true)
}

// RemoveAttribute deletes one attribute of a category.
func (t *CategoryTree) RemoveAttribute(ctx context.Context, categoryID, attributeID primitive.ObjectID) (*models.CategoryWithAttributes, error) {
	if _, err := t.load(ctx, categoryID, categoryNotFound); err != nil {
		return nil, err
	}
	if err := t.attributes.Delete(ctx, categoryID, attributeID); err != nil {
		return nil, err
	}
	return t.afterUpdate(ctx, categoryID, true)
}

// Delete removes a leaf category and its attributes.
func (t *CategoryTree) Delete(ctx context.Context, id primitive.ObjectID) error {
	cat, err := t.load(ctx, id, categoryNotFound)
	if err != nil {
		return err
	}
	children, err := t.repo.FindChildren(ctx, id)
	if err != nil {
		return t.internal("load subcategories", err)
	}
	if len(children) > 0 {
		return common.Conflict("category %q has %d subcategories; delete them first or delete with cascade", cat.Name, len(children))
	}

	if err := t.runner.Run(ctx, "delete category", t.deleteSteps(*cat)...); err != nil {
		return t.writeError("delete category", id, err)
	}
	t.log.WithField("categoryId", id.Hex()).Info("category deleted")
	t.publish(models.CategoryDeleted, cat)
	return nil
}

// DeleteCascade removes a category and its whole subtree. Each category's
// attributes go before the category, and every category goes after all of
// its descendants. It returns the number of categories removed.
func (t *CategoryTree) DeleteCascade(ctx context.Context, id primitive.ObjectID) (int, error) {
	cat, err := t.load(ctx, id, categoryNotFound)
	if err != nil {
		return 0, err
	}
	descendants, err := t.repo.FindDescendants(ctx, id)
	if err != nil {
		return 0, t.internal("load descendants", err)
	}

	order := postOrder(*cat, descendants)
	steps := make([]Step, 0, 2*len(order))
	for _, c := range order {
		steps = append(steps, t.deleteSteps(c)...)
	}
	if err := t.runner.Run(ctx, "delete category branch", steps...); err != nil {
		return 0, t.writeError("delete category branch", id, err)
	}

	t.log.WithFields(logrus.Fields{
		"categoryId": id.Hex(),
		"removed":    len(order),
	}).Info("category branch deleted")
	for i := range order {
		t.publish(models.CategoryDeleted, &order[i])
	}
	return len(order), nil
}

func (t *CategoryTree) deleteSteps(c models.Category) []Step {
	id := c.ID
	return []Step{
		{Name: "delete attributes of " + id.Hex(), Run: func(ctx context.Context) error {
			_, err := t.attributes.DeleteByCategory(ctx, id)
			return err
		}},
		{Name: "delete category " + id.Hex(), Run: func(ctx context.Context) error {
			return t.repo.Delete(ctx, id)
		}},
	}
}

// postOrder lists the subtree of root children first, root last. Siblings are
// visited by name. Descendants that cannot be reached through parent links
// are still removed before root, deepest first.
func postOrder(root models.Category, descendants []models.Category) []models.Category {
	children := make(map[primitive.ObjectID][]models.Category)
	for _, d := range descendants {
		if d.ParentID != nil {
			children[*d.ParentID] = append(children[*d.ParentID], d)
		}
	}
	for _, list := range children {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	}

	order := make([]models.Category, 0, len(descendants)+1)
	visited := map[primitive.ObjectID]bool{root.ID: true}
	var visit func(c models.Category)
	visit = func(c models.Category) {
		if visited[c.ID] {
			return
		}
		visited[c.ID] = true
		for _, child := range children[c.ID] {
			visit(child)
		}
		order = append(order, c)
	}

	for _, child := range children[root.ID] {
		visit(child)
	}
	var stray []models.Category
	for _, d := range descendants {
		if !visited[d.ID] {
			stray = append(stray, d)
		}
	}
	sort.SliceStable(stray, func(i, j int) bool { return stray[i].Level > stray[j].Level })
	for _, d := range stray {
		visit(d)
	}
	return append(order, root)
}

func (t *CategoryTree) afterUpdate(ctx context.Context, id primitive.ObjectID, changed bool) (*models.CategoryWithAttributes, error) {
	updated, err := t.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if changed {
		t.publish(models.CategoryUpdated, &updated.Category)
	}
	return updated, nil
}

func (t *CategoryTree) load(ctx context.Context, id primitive.ObjectID, resource string) (*models.Category, error) {
	cat, err := t.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NotFound(resource)
		}
		return nil, t.internal("load "+resource, err)
	}
	return cat, nil
}

// checkUnique enforces sibling-name and global slug uniqueness, ignoring the
// category self. An empty slug skips the slug check.
func (t *CategoryTree) checkUnique(ctx context.Context, parentID *primitive.ObjectID, name, slug string, self primitive.ObjectID) error {
	sibling, err := t.repo.FindSibling(ctx, parentID, name)
	switch {
	case err == nil && sibling.ID != self:
		return common.Conflict("a category named %q already exists under this parent", name)
	case err != nil && !errors.Is(err, repositories.ErrNotFound):
		return t.internal("check sibling names", err)
	}
	if slug == "" {
		return nil
	}
	other, err := t.repo.FindBySlug(ctx, slug)
	switch {
	case err == nil && other.ID != self:
		return common.Conflict("slug %q is already used by category %q", slug, other.Name)
	case err != nil && !errors.Is(err, repositories.ErrNotFound):
		return t.internal("check slugs", err)
	}
	return nil
}

func (t *CategoryTree) publish(kind models.CategoryEventType, c *models.Category) {
	t.events.Publish(models.CategoryEvent{
		Type:       kind,
		CategoryID: c.ID.Hex(),
		Name:       c.Name,
		Path:       c.Path,
		Version:    c.Version,
		Timestamp:  time.Now(),
	})
}

func (t *CategoryTree) internal(op string, err error) error {
	t.log.WithError(err).Errorf("%s failed", op)
	return common.Internal(op, err)
}

func (t *CategoryTree) writeError(op string, id primitive.ObjectID, err error) error {
	switch {
	case errors.Is(err, repositories.ErrDuplicate):
		return common.Conflict("a category with this name or slug already exists")
	case errors.Is(err, repositories.ErrNotFound):
		return common.NotFound(categoryNotFound)
	}
	var domain *common.Error
	if errors.As(err, &domain) && domain.Kind != common.KindInternal {
		return err
	}
	t.log.WithError(err).WithField("categoryId", id.Hex()).Errorf("%s failed", op)
	return common.Internal(op, err)
}

// categoryName normalizes a category name and derives its slug.
func categoryName(raw string) (string, string, error) {
	name := utils.NormalizeName(raw)
	if name == "" {
		return "", "", common.FieldError("name", "is required")
	}
	if utf8.RuneCountInString(name) > maxCategoryName {
		return "", "", common.FieldError("name", fmt.Sprintf("must be at most %d characters", maxCategoryName))
	}
	slug := utils.Slugify(name)
	if slug == "" {
		return "", "", common.FieldError("name", "must contain at least one letter or digit")
	}
	return name, slug, nil
}

// pageSkip returns the offset of page, saturating instead of overflowing.
func pageSkip(page, limit int) int64 {
	if int64(page-1) > math.MaxInt64/int64(limit) {
		return math.MaxInt64
	}
	return int64(page-1) * int64(limit)
}

func categoryIDs(cats []models.Category) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(cats))
	for _, c := range cats {
		ids = append(ids, c.ID)
	}
	return ids
}

func nonNilAttributes(attrs []models.AttributeDefinition) []models.AttributeDefinition {
	if attrs == nil {
		return []models.AttributeDefinition{}
	}
	return attrs
}

func sameParent(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func tail(s []string, from int) []string {
	if from >= len(s) {
		return nil
	}
	return s[from:]
}

func tailIDs(s []primitive.ObjectID, from int) []primitive.ObjectID {
	if from >= len(s) {
		return nil
	}
	return s[from:]
}
