package services

import (
	"context"
	"testing"

	"github.com/HSouheill/catalog_backend/common"
	"github.com/HSouheill/catalog_backend/logger"
	"github.com/HSouheill/catalog_backend/models"
	"github.com/HSouheill/catalog_backend/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type countingOptionSets struct {
	*repositories.MemoryOptionSetRepository
	seeds int
}

func (r *countingOptionSets) InsertMany(ctx context.Context, sets []models.OptionSet) error {
	r.seeds++
	return r.MemoryOptionSetRepository.InsertMany(ctx, sets)
}

func TestOptionSetService_SeedsOnceOnFirstAccess(t *testing.T) {
	ctx := context.Background()
	repo := &countingOptionSets{MemoryOptionSetRepository: repositories.NewMemoryOptionSetRepository()}
	svc := NewOptionSetService(repo, logger.Discard())

	sets, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, sets, 3)

	sizes, err := svc.List(ctx, "size")
	require.NoError(t, err)
	assert.Len(t, sizes, 2)
	for _, s := range sizes {
		assert.Equal(t, models.VariantSize, s.Type)
	}

	_, err = svc.GetByID(ctx, sets[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.seeds)
}

func TestOptionSetService_DoesNotSeedNonEmptyStore(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryOptionSetRepository()
	require.NoError(t, repo.Insert(ctx, &models.OptionSet{Name: "Earth Tones", Type: models.VariantColor, Values: []string{"Sand"}}))

	sets, err := NewOptionSetService(repo, logger.Discard()).List(ctx, "")
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, "Earth Tones", sets[0].Name)
}

func TestOptionSetService_Errors(t *testing.T) {
	ctx := context.Background()
	svc := NewOptionSetService(repositories.NewMemoryOptionSetRepository(), logger.Discard())

	_, err := svc.List(ctx, "material")
	assert.True(t, common.IsKind(err, common.KindValidation))

	_, err = svc.GetByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestOptionSetService_Create(t *testing.T) {
	ctx := context.Background()
	svc := NewOptionSetService(repositories.NewMemoryOptionSetRepository(), logger.Discard())

	set, err := svc.Create(ctx, models.CreateOptionSetRequest{
		Name:   "  Shoe   Sizes ",
		Type:   "Size",
		Values: []string{"40", " 41 ", "40", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "Shoe Sizes", set.Name)
	assert.Equal(t, models.VariantSize, set.Type)
	assert.Equal(t, []string{"40", "41"}, set.Values)

	_, err = svc.Create(ctx, models.CreateOptionSetRequest{Name: "Shoe Sizes", Type: "size", Values: []string{"1"}})
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = svc.Create(ctx, models.CreateOptionSetRequest{Name: "Basic Colors", Type: "color", Values: []string{"Red"}})
	assert.ErrorIs(t, err, common.ErrConflict, "defaults are seeded before the insert")

	_, err = svc.Create(ctx, models.CreateOptionSetRequest{Name: "Empty", Type: "color", Values: []string{" "}})
	assert.True(t, common.IsKind(err, common.KindValidation))
}
