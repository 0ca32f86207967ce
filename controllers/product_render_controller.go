package controllers

import (
	"net/http"

	"github.com/HSouheill/catalog_backend/common"
	"github.com/HSouheill/catalog_backend/services"
	"github.com/HSouheill/catalog_backend/utils"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

type ProductRenderController struct {
	render *services.RenderService
	log    logrus.FieldLogger
}

func NewProductRenderController(render *services.RenderService, log logrus.FieldLogger) *ProductRenderController {
	return &ProductRenderController{render: render, log: log}
}

// GetProductRender serves the field schema of the product form for
// ?catId=. The response carries an ETag; a request whose If-None-Match
// matches it gets 304 with no body.
func (pc *ProductRenderController) GetProductRender(c echo.Context) error {
	raw := c.QueryParam("catId")
	if raw == "" {
		return respondError(c, pc.log, common.FieldError("catId", "is required"))
	}
	id, err := utils.ParseObjectID("catId", raw)
	if err != nil {
		return respondError(c, pc.log, err)
	}

	var locale string
	if l := c.QueryParam("locale"); l != "" {
		tag, err := language.Parse(l)
		if err != nil {
			return respondError(c, pc.log, common.FieldError("locale", "is not a valid language tag"))
		}
		locale = tag.String()
	}

	result, err := pc.render.Render(c.Request().Context(), id, c.Request().Header.Get("If-None-Match"))
	if err != nil {
		return respondError(c, pc.log, err)
	}

	h := c.Response().Header()
	h.Set("ETag", services.ETag(result.Tag))
	h.Set("Cache-Control", "no-cache")
	if locale != "" {
		h.Set("Content-Language", locale)
	}
	if result.NotModified {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSONBlob(http.StatusOK, result.Payload)
}
