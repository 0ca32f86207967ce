package routes

import (
	"github.com/HSouheill/catalog_backend/controllers"
	"github.com/labstack/echo/v4"
)

func RegisterRenderRoutes(e *echo.Echo, renderController *controllers.ProductRenderController) {
	e.GET("/product-render", renderController.GetProductRender)
}
