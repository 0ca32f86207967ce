package controllers

import (
	"github.com/HSouheill/catalog_backend/common"
	"github.com/HSouheill/catalog_backend/logger"
	"github.com/HSouheill/catalog_backend/models"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// respondError renders err as a models.Response with the status of its kind.
// Internal causes are logged and never sent to the client.
func respondError(c echo.Context, log logrus.FieldLogger, err error) error {
	e := common.As(err)
	status := e.StatusCode()

	if e.Kind == common.KindInternal {
		logger.WithContext(c.Request().Context(), log).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
		}).WithError(err).Error("request failed")
		return c.JSON(status, models.Response{
			Status:  status,
			Message: "Internal server error",
		})
	}

	resp := models.Response{Status: status, Message: e.Message}
	if len(e.Fields) > 0 {
		resp.Errors = e.Fields
	}
	return c.JSON(status, resp)
}

// bindAndValidate decodes the JSON body into req and runs echo's validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return common.Validation("invalid request body", nil)
	}
	return c.Validate(req)
}
