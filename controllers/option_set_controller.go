package controllers

import (
	"net/http"

	"github.com/HSouheill/catalog_backend/models"
	"github.com/HSouheill/catalog_backend/services"
	"github.com/HSouheill/catalog_backend/utils"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type OptionSetController struct {
	optionSets *services.OptionSetService
	log        logrus.FieldLogger
}

func NewOptionSetController(optionSets *services.OptionSetService, log logrus.FieldLogger) *OptionSetController {
	return &OptionSetController{optionSets: optionSets, log: log}
}

// ListOptionSets returns all option sets, filtered by ?type= when given.
func (oc *OptionSetController) ListOptionSets(c echo.Context) error {
	sets, err := oc.optionSets.List(c.Request().Context(), c.QueryParam("type"))
	if err != nil {
		return respondError(c, oc.log, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Option sets retrieved successfully",
		Data:    sets,
	})
}

func (oc *OptionSetController) GetOptionSet(c echo.Context) error {
	id, err := utils.ParseObjectID("id", c.Param("id"))
	if err != nil {
		return respondError(c, oc.log, err)
	}
	set, err := oc.optionSets.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, oc.log, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Option set retrieved successfully",
		Data:    set,
	})
}

func (oc *OptionSetController) CreateOptionSet(c echo.Context) error {
	var req models.CreateOptionSetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, oc.log, err)
	}
	set, err := oc.optionSets.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, oc.log, err)
	}
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Option set created successfully",
		Data:    set,
	})
}
