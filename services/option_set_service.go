package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/HSouheill/catalog_backend/common"
	"github.com/HSouheill/catalog_backend/models"
	"github.com/HSouheill/catalog_backend/repositories"
	"github.com/HSouheill/catalog_backend/utils"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OptionSetService resolves option sets. The first access against an empty
// store seeds the default sets; later calls never seed again.
type OptionSetService struct {
	repo repositories.OptionSetRepository
	log  logrus.FieldLogger

	mu     sync.Mutex
	seeded bool
}

func NewOptionSetService(repo repositories.OptionSetRepository, log logrus.FieldLogger) *OptionSetService {
	return &OptionSetService{repo: repo, log: log}
}

// ensureSeeded is retried on the next call when seeding fails.
func (s *OptionSetService) ensureSeeded(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seeded {
		return nil
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		s.log.WithError(err).Error("failed to count option sets")
		return common.Internal("count option sets", err)
	}
	if count == 0 {
		defaults := models.DefaultOptionSets()
		if err := s.repo.InsertMany(ctx, defaults); err != nil {
			s.log.WithError(err).Error("failed to seed default option sets")
			return common.Internal("seed option sets", err)
		}
		s.log.WithField("count", len(defaults)).Info("seeded default option sets")
	}
	s.seeded = true
	return nil
}

// List returns every option set, or only those of setType when it is not
// empty.
func (s *OptionSetService) List(ctx context.Context, setType string) ([]models.OptionSet, error) {
	var filter *models.VariantType
	if setType = strings.ToLower(strings.TrimSpace(setType)); setType != "" {
		t := models.VariantType(setType)
		if !t.Valid() {
			return nil, common.FieldError("type", "must be one of color, size")
		}
		filter = &t
	}

	if err := s.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	sets, err := s.repo.List(ctx, filter)
	if err != nil {
		s.log.WithError(err).Error("failed to list option sets")
		return nil, common.Internal("list option sets", err)
	}
	return sets, nil
}

func (s *OptionSetService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.OptionSet, error) {
	if err := s.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	set, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NotFound("option set")
		}
		s.log.WithError(err).WithField("optionSetId", id.Hex()).Error("failed to load option set")
		return nil, common.Internal("load option set", err)
	}
	return set, nil
}

func (s *OptionSetService) Create(ctx context.Context, req models.CreateOptionSetRequest) (*models.OptionSet, error) {
	name := utils.NormalizeName(req.Name)
	if name == "" {
		return nil, common.FieldError("name", "is required")
	}
	setType := models.VariantType(strings.ToLower(strings.TrimSpace(req.Type)))
	if !setType.Valid() {
		return nil, common.FieldError("type", "must be one of color, size")
	}
	values := utils.NormalizeValues(req.Values)
	if len(values) == 0 {
		return nil, common.FieldError("values", "must contain at least 1 item(s)")
	}

	if err := s.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	set := &models.OptionSet{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Type:      setType,
		Values:    values,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Insert(ctx, set); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, common.Conflict("a %s option set named %q already exists", setType, name)
		}
		s.log.WithError(err).Error("failed to create option set")
		return nil, common.Internal("create option set", err)
	}
	s.log.WithFields(logrus.Fields{"optionSetId": set.ID.Hex(), "type": set.Type}).Info("option set created")
	return set, nil
}
