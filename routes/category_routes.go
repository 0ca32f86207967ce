package routes

import (
	"github.com/HSouheill/catalog_backend/controllers"
	"github.com/labstack/echo/v4"
)

// RegisterCategoryRoutes sets up the category tree and attribute routes
func RegisterCategoryRoutes(e *echo.Echo, categoryController *controllers.CategoryController) {
	categories := e.Group("/categories")

	categories.GET("", categoryController.ListCategories)
	categories.GET("/tree", categoryController.GetCategoryTree)
	categories.GET("/:id", categoryController.GetCategory)

	categories.POST("", categoryController.CreateCategory)
	categories.PUT("/:id", categoryController.UpdateCategory)
	categories.DELETE("/:id", categoryController.DeleteCategory) // ?cascade=true removes the whole branch
	categories.DELETE("/:id/attributes/:attrId", categoryController.DeleteAttribute)
}
