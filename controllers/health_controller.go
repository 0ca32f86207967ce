package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/HSouheill/catalog_backend/models"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthController reports the state of the backing stores. A nil client
// means the store is not in use.
type HealthController struct {
	mongo *mongo.Client
	redis *redis.Client
	log   logrus.FieldLogger
}

func NewHealthController(mongoClient *mongo.Client, redisClient *redis.Client, log logrus.FieldLogger) *HealthController {
	return &HealthController{mongo: mongoClient, redis: redisClient, log: log}
}

func (hc *HealthController) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"mongo": "disabled", "redis": "disabled"}
	healthy := true

	if hc.mongo != nil {
		checks["mongo"] = "ok"
		if err := hc.mongo.Ping(ctx, nil); err != nil {
			hc.log.WithError(err).Warn("health check: mongo unreachable")
			checks["mongo"] = "unreachable"
			healthy = false
		}
	}
	// the payload cache is optional, so redis never fails the check
	if hc.redis != nil {
		checks["redis"] = "ok"
		if err := hc.redis.Ping(ctx).Err(); err != nil {
			hc.log.WithError(err).Warn("health check: redis unreachable")
			checks["redis"] = "unreachable"
		}
	}

	status, message := http.StatusOK, "Server is healthy"
	if !healthy {
		status, message = http.StatusServiceUnavailable, "Server is unhealthy"
	}
	return c.JSON(status, models.Response{Status: status, Message: message, Data: checks})
}
