package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/HSouheill/catalog_backend/common"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const renderKeyPrefix = "render:"

// Tag derives the render tag of a category at a version. Equal inputs give
// byte-identical tags.
func Tag(id primitive.ObjectID, version int64) string {
	sum := sha256.Sum256([]byte(id.Hex() + ":" + strconv.FormatInt(version, 10)))
	return hex.EncodeToString(sum[:12])
}

// ETag quotes a render tag for the ETag header.
func ETag(tag string) string {
	return `"` + tag + `"`
}

// Matches reports whether an If-None-Match header matches tag. It accepts
// "*", comma separated lists, weak validators and unquoted tags.
func Matches(ifNoneMatch, tag string) bool {
	header := strings.TrimSpace(ifNoneMatch)
	if header == "" || tag == "" {
		return false
	}
	if header == "*" {
		return true
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		candidate = strings.Trim(candidate, `"`)
		if candidate == tag {
			return true
		}
	}
	return false
}

// PayloadCache stores composed render payloads by render tag. Misses and
// failures both read as a miss.
type PayloadCache interface {
	Get(ctx context.Context, tag string) ([]byte, bool)
	Set(ctx context.Context, tag string, payload []byte)
}

// NoPayloadCache composes on every request.
type NoPayloadCache struct{}

func (NoPayloadCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (NoPayloadCache) Set(context.Context, string, []byte)        {}

type RedisPayloadCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewRedisPayloadCache(client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *RedisPayloadCache {
	return &RedisPayloadCache{client: client, ttl: ttl, log: log}
}

func (c *RedisPayloadCache) Get(ctx context.Context, tag string) ([]byte, bool) {
	payload, err := c.client.Get(ctx, renderKeyPrefix+tag).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).WithField("renderTag", tag).Warn("render cache read failed")
		}
		return nil, false
	}
	return payload, true
}

func (c *RedisPayloadCache) Set(ctx context.Context, tag string, payload []byte) {
	if err := c.client.Set(ctx, renderKeyPrefix+tag, payload, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("renderTag", tag).Warn("render cache write failed")
	}
}

// Rendered is the outcome of a render request. Payload is empty when
// NotModified is set.
type Rendered struct {
	Tag         string
	NotModified bool
	Payload     []byte
}

// RenderService serves composed schemas with conditional-request support.
type RenderService struct {
	tree       *CategoryTree
	attributes *AttributeService
	composer   *SchemaComposer
	cache      PayloadCache
	log        logrus.FieldLogger
}

func NewRenderService(tree *CategoryTree, attributes *AttributeService, composer *SchemaComposer, cache PayloadCache, log logrus.FieldLogger) *RenderService {
	if cache == nil {
		cache = NoPayloadCache{}
	}
	return &RenderService{
		tree:       tree,
		attributes: attributes,
		composer:   composer,
		cache:      cache,
		log:        log,
	}
}

// Render resolves the category, answers not-modified when ifNoneMatch
// matches its current tag, and otherwise returns the JSON payload from the
// cache or a fresh composition.
func (s *RenderService) Render(ctx context.Context, categoryID primitive.ObjectID, ifNoneMatch string) (*Rendered, error) {
	cat, err := s.tree.Find(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	tag := Tag(cat.ID, cat.Version)
	if Matches(ifNoneMatch, tag) {
		return &Rendered{Tag: tag, NotModified: true}, nil
	}
	if payload, ok := s.cache.Get(ctx, tag); ok {
		return &Rendered{Tag: tag, Payload: payload}, nil
	}

	attrs, err := s.attributes.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(s.composer.Compose(*cat, attrs))
	if err != nil {
		s.log.WithError(err).WithField("categoryId", categoryID.Hex()).Error("failed to encode render schema")
		return nil, common.Internal("encode render schema", err)
	}
	s.cache.Set(ctx, tag, payload)
	return &Rendered{Tag: tag, Payload: payload}, nil
}
