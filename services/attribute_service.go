package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/HSouheill/catalog_backend/common"
	"github.com/HSouheill/catalog_backend/models"
	"github.com/HSouheill/catalog_backend/repositories"
	"github.com/HSouheill/catalog_backend/utils"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VersionBumper marks a category's composed schema as changed.
type VersionBumper interface {
	BumpVersion(ctx context.Context, id primitive.ObjectID) error
}

// AttributeService is the only writer of attribute definitions.
type AttributeService struct {
	repo       repositories.AttributeRepository
	optionSets *OptionSetService
	versions   VersionBumper
	runner     *MutationRunner
	log        logrus.FieldLogger
}

func NewAttributeService(
	repo repositories.AttributeRepository,
	optionSets *OptionSetService,
	versions VersionBumper,
	runner *MutationRunner,
	log logrus.FieldLogger,
) *AttributeService {
	return &AttributeService{
		repo:       repo,
		optionSets: optionSets,
		versions:   versions,
		runner:     runner,
		log:        log,
	}
}

// Prepare validates inputs against the category's current attributes and
// returns the definitions to write. An input whose name matches an existing
// attribute keeps that attribute's id, so writing the result is an update in
// place. Nothing is persisted.
func (s *AttributeService) Prepare(ctx context.Context, categoryID primitive.ObjectID, inputs []models.AttributeInput) ([]models.AttributeDefinition, error) {
	prepared, _, err := s.prepare(ctx, categoryID, inputs)
	return prepared, err
}

func (s *AttributeService) prepare(ctx context.Context, categoryID primitive.ObjectID, inputs []models.AttributeInput) ([]models.AttributeDefinition, []models.AttributeDefinition, error) {
	if len(inputs) == 0 {
		return []models.AttributeDefinition{}, nil, nil
	}

	existing, err := s.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, nil, err
	}
	byName := make(map[string]models.AttributeDefinition, len(existing))
	for _, a := range existing {
		byName[a.Name] = a
	}

	now := time.Now()
	fields := map[string]string{}
	seen := map[string]int{}
	prepared := make([]models.AttributeDefinition, 0, len(inputs))

	for i, in := range inputs {
		prefix := fmt.Sprintf("attributes[%d].", i)

		name := utils.NormalizeName(in.Name)
		if name == "" {
			fields[prefix+"name"] = "is required"
			continue
		}
		if j, dup := seen[name]; dup {
			fields[prefix+"name"] = fmt.Sprintf("duplicates attributes[%d]", j)
			continue
		}
		seen[name] = i

		attrType := models.AttributeType(strings.ToLower(strings.TrimSpace(in.Type)))
		if !attrType.Valid() {
			fields[prefix+"type"] = "must be one of text, select, multiselect, number, boolean"
			continue
		}

		group := utils.NormalizeName(in.Group)
		if group == "" {
			group = models.DefaultGroup
		}

		def := models.AttributeDefinition{
			ID:         primitive.NewObjectID(),
			CategoryID: categoryID,
			Name:       name,
			Type:       attrType,
			Values:     []string{},
			Required:   in.Required,
			Group:      group,
			IsVariant:  in.IsVariant,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if attrType.HasValues() {
			def.Values = utils.NormalizeValues(in.Values)
		}

		variantType, msg := reconcileVariantType(in)
		if msg != "" {
			fields[prefix+"variantType"] = msg
			continue
		}
		if in.IsVariant {
			if variantType == "" {
				fields[prefix+"variantType"] = "is required for variant attributes"
				continue
			}
			vt := models.VariantType(variantType)
			def.VariantType = &vt
		}

		if in.UseStandardOptions && attrType.HasValues() {
			def.UseStandardOptions = true
			if in.OptionSetID != nil && strings.TrimSpace(*in.OptionSetID) != "" {
				oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(*in.OptionSetID))
				if err != nil {
					fields[prefix+"optionSetId"] = "is not a valid id"
					continue
				}
				def.OptionSetID = &oid
			}
		}

		if old, ok := byName[name]; ok {
			def.ID = old.ID
			def.CreatedAt = old.CreatedAt
		}
		prepared = append(prepared, def)
	}
	if len(fields) > 0 {
		return nil, nil, common.Validation("invalid attributes", fields)
	}

	// The axis limit applies to the category as it will be after the write.
	merged := make([]models.AttributeDefinition, 0, len(existing)+len(prepared))
	for _, a := range existing {
		if _, replaced := seen[a.Name]; !replaced {
			merged = append(merged, a)
		}
	}
	merged = append(merged, prepared...)
	if axes := variantAxes(merged); len(axes) > models.MaxVariantAxes {
		return nil, nil, common.FieldError("attributes",
			fmt.Sprintf("at most %d variant axes are allowed, got %s", models.MaxVariantAxes, strings.Join(axes, ", ")))
	}

	for i, def := range prepared {
		if def.VariantType != nil && !def.VariantType.Valid() {
			fields[fmt.Sprintf("attributes[%d].variantType", i)] = "must be one of color, size"
		}
	}
	if len(fields) > 0 {
		return nil, nil, common.Validation("invalid attributes", fields)
	}

	for _, def := range prepared {
		if def.OptionSetID == nil {
			continue
		}
		if _, err := s.optionSets.GetByID(ctx, *def.OptionSetID); err != nil {
			return nil, nil, err
		}
	}
	return prepared, existing, nil
}

// reconcileVariantType folds the legacy variantAxis spelling into variantType.
// It returns a message when both are set and disagree.
func reconcileVariantType(in models.AttributeInput) (string, string) {
	var variantType, variantAxis string
	if in.VariantType != nil {
		variantType = strings.ToLower(strings.TrimSpace(*in.VariantType))
	}
	if in.VariantAxis != nil {
		variantAxis = strings.ToLower(strings.TrimSpace(*in.VariantAxis))
	}
	switch {
	case variantType != "" && variantAxis != "" && variantType != variantAxis:
		return "", fmt.Sprintf("conflicts with variantAxis %q", variantAxis)
	case variantType != "":
		return variantType, ""
	default:
		return variantAxis, ""
	}
}

// variantAxes returns the distinct variant types among variant attributes,
// sorted.
func variantAxes(attrs []models.AttributeDefinition) []string {
	set := map[string]bool{}
	for _, a := range attrs {
		if a.IsVariant && a.VariantType != nil {
			set[string(*a.VariantType)] = true
		}
	}
	axes := make([]string, 0, len(set))
	for t := range set {
		axes = append(axes, t)
	}
	sort.Strings(axes)
	return axes
}

// SaveSteps returns one idempotent write per prepared definition.
func (s *AttributeService) SaveSteps(defs []models.AttributeDefinition) []Step {
	steps := make([]Step, 0, len(defs))
	for i := range defs {
		def := defs[i]
		steps = append(steps, Step{
			Name: "save attribute " + def.Name,
			Run: func(ctx context.Context) error {
				return s.repo.Save(ctx, &def)
			},
		})
	}
	return steps
}

// UpsertSteps validates inputs and returns the writes that apply them,
// followed by a version bump. Definitions equal to the stored ones are not
// rewritten, so an upsert that changes nothing yields no steps. Nothing is
// persisted.
func (s *AttributeService) UpsertSteps(ctx context.Context, categoryID primitive.ObjectID, inputs []models.AttributeInput) ([]Step, error) {
	prepared, existing, err := s.prepare(ctx, categoryID, inputs)
	if err != nil {
		return nil, err
	}
	changed := changedDefinitions(prepared, existing)
	if len(changed) == 0 {
		return nil, nil
	}
	return append(s.SaveSteps(changed), s.bumpStep(categoryID)), nil
}

// UpsertForCategory creates or updates the given attributes of a category and
// bumps the category version when anything changed. Attributes not named in
// inputs are untouched.
func (s *AttributeService) UpsertForCategory(ctx context.Context, categoryID primitive.ObjectID, inputs []models.AttributeInput) ([]models.AttributeDefinition, error) {
	steps, err := s.UpsertSteps(ctx, categoryID, inputs)
	if err != nil {
		return nil, err
	}
	if len(steps) > 0 {
		if err := s.runner.Run(ctx, "upsert attributes", steps...); err != nil {
			return nil, s.writeError("upsert attributes", categoryID, err)
		}
		s.log.WithFields(logrus.Fields{
			"categoryId": categoryID.Hex(),
			"count":      len(steps) - 1,
		}).Info("attributes upserted")
	}
	return s.ListByCategory(ctx, categoryID)
}

// changedDefinitions drops prepared definitions identical to their stored
// counterpart.
func changedDefinitions(prepared, existing []models.AttributeDefinition) []models.AttributeDefinition {
	stored := make(map[primitive.ObjectID]models.AttributeDefinition, len(existing))
	for _, a := range existing {
		stored[a.ID] = a
	}
	changed := make([]models.AttributeDefinition, 0, len(prepared))
	for _, def := range prepared {
		if old, ok := stored[def.ID]; ok && sameDefinition(old, def) {
			continue
		}
		changed = append(changed, def)
	}
	return changed
}

func sameDefinition(a, b models.AttributeDefinition) bool {
	return a.Name == b.Name &&
		a.Type == b.Type &&
		a.Required == b.Required &&
		a.Group == b.Group &&
		a.IsVariant == b.IsVariant &&
		a.UseStandardOptions == b.UseStandardOptions &&
		slices.Equal(a.Values, b.Values) &&
		equalPtr(a.VariantType, b.VariantType) &&
		equalPtr(a.OptionSetID, b.OptionSetID)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *AttributeService) ListByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]models.AttributeDefinition, error) {
	attrs, err := s.repo.ListByCategory(ctx, categoryID)
	if err != nil {
		s.log.WithError(err).WithField("categoryId", categoryID.Hex()).Error("failed to list attributes")
		return nil, common.Internal("list attributes", err)
	}
	return attrs, nil
}

// ListByCategories groups the attributes of several categories by owner.
func (s *AttributeService) ListByCategories(ctx context.Context, categoryIDs []primitive.ObjectID) (map[primitive.ObjectID][]models.AttributeDefinition, error) {
	grouped := make(map[primitive.ObjectID][]models.AttributeDefinition, len(categoryIDs))
	if len(categoryIDs) == 0 {
		return grouped, nil
	}
	attrs, err := s.repo.ListByCategories(ctx, categoryIDs)
	if err != nil {
		s.log.WithError(err).Error("failed to list attributes")
		return nil, common.Internal("list attributes", err)
	}
	for _, a := range attrs {
		grouped[a.CategoryID] = append(grouped[a.CategoryID], a)
	}
	return grouped, nil
}

// DeleteByCategory removes every attribute owned by the category.
func (s *AttributeService) DeleteByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	n, err := s.repo.DeleteByCategory(ctx, categoryID)
	if err != nil {
		s.log.WithError(err).WithField("categoryId", categoryID.Hex()).Error("failed to delete attributes")
		return 0, common.Internal("delete attributes", err)
	}
	return n, nil
}

// Delete removes one attribute of the category and bumps its version.
func (s *AttributeService) Delete(ctx context.Context, categoryID, attributeID primitive.ObjectID) error {
	attr, err := s.repo.FindByID(ctx, attributeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.NotFound("attribute")
		}
		return common.Internal("load attribute", err)
	}
	if attr.CategoryID != categoryID {
		return common.NotFound("attribute")
	}

	err = s.runner.Run(ctx, "delete attribute",
		Step{Name: "delete attribute", Run: func(ctx context.Context) error {
			return s.repo.Delete(ctx, attributeID)
		}},
		s.bumpStep(categoryID),
	)
	if err != nil {
		return s.writeError("delete attribute", categoryID, err)
	}
	s.log.WithFields(logrus.Fields{
		"categoryId":  categoryID.Hex(),
		"attributeId": attributeID.Hex(),
	}).Info("attribute deleted")
	return nil
}

func (s *AttributeService) bumpStep(categoryID primitive.ObjectID) Step {
	return Step{Name: "bump category version", Run: func(ctx context.Context) error {
		return s.versions.BumpVersion(ctx, categoryID)
	}}
}

func (s *AttributeService) writeError(op string, categoryID primitive.ObjectID, err error) error {
	switch {
	case errors.Is(err, repositories.ErrDuplicate):
		return common.Conflict("an attribute with this name already exists in the category")
	case errors.Is(err, repositories.ErrNotFound):
		return common.NotFound("category")
	}
	var domain *common.Error
	if errors.As(err, &domain) && domain.Kind != common.KindInternal {
		return err
	}
	s.log.WithError(err).WithField("categoryId", categoryID.Hex()).Errorf("%s failed", op)
	return common.Internal(op, err)
}
