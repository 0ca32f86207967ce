package routes

import (
	"github.com/HSouheill/catalog_backend/controllers"
	"github.com/labstack/echo/v4"
)

// RegisterOptionSetRoutes serves the standard option lists. Composed render
// schemas reference them as /option-sets/:id.
func RegisterOptionSetRoutes(e *echo.Echo, optionSetController *controllers.OptionSetController) {
	optionSets := e.Group("/option-sets")

	optionSets.GET("", optionSetController.ListOptionSets)
	optionSets.GET("/:id", optionSetController.GetOptionSet)
	optionSets.POST("", optionSetController.CreateOptionSet)
}
