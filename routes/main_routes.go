package routes

import (
	"github.com/HSouheill/catalog_backend/controllers"
	"github.com/HSouheill/catalog_backend/services"
	"github.com/HSouheill/catalog_backend/websocket"
	"github.com/go-redis/redis/v8"
	gorilla "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies are the wired services the HTTP surface is built on. Mongo and
// Redis may be nil when the process runs without them.
type Dependencies struct {
	Tree       *services.CategoryTree
	OptionSets *services.OptionSetService
	Render     *services.RenderService
	Hub        *websocket.Hub
	Upgrader   gorilla.Upgrader
	Mongo      *mongo.Client
	Redis      *redis.Client
	Log        logrus.FieldLogger
}

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	health := controllers.NewHealthController(deps.Mongo, deps.Redis, deps.Log)
	e.Match([]string{"GET", "HEAD"}, "/health", health.Health)

	RegisterCategoryRoutes(e, controllers.NewCategoryController(deps.Tree, deps.Log))
	RegisterOptionSetRoutes(e, controllers.NewOptionSetController(deps.OptionSets, deps.Log))
	RegisterRenderRoutes(e, controllers.NewProductRenderController(deps.Render, deps.Log))

	if deps.Hub != nil {
		e.GET("/ws/categories", websocket.HandleWebSocket(deps.Hub, deps.Upgrader))
	}
}
