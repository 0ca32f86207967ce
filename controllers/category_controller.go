package controllers

import (
	"net/http"
	"strconv"

	"github.com/HSouheill/catalog_backend/common"
	"github.com/HSouheill/catalog_backend/models"
	"github.com/HSouheill/catalog_backend/services"
	"github.com/HSouheill/catalog_backend/utils"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CategoryController struct {
	tree *services.CategoryTree
	log  logrus.FieldLogger
}

func NewCategoryController(tree *services.CategoryTree, log logrus.FieldLogger) *CategoryController {
	return &CategoryController{tree: tree, log: log}
}

// ListCategories returns one page of the flat category list.
func (cc *CategoryController) ListCategories(c echo.Context) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return respondError(c, cc.log, err)
	}
	limit, err := queryInt(c, "limit", services.DefaultPageLimit)
	if err != nil {
		return respondError(c, cc.log, err)
	}

	result, err := cc.tree.List(c.Request().Context(), page, limit)
	if err != nil {
		return respondError(c, cc.log, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Categories retrieved successfully",
		Data:    result,
	})
}

// GetCategoryTree returns every category nested under its parent.
func (cc *CategoryController) GetCategoryTree(c echo.Context) error {
	tree, err := cc.tree.GetTree(c.Request().Context())
	if err != nil {
		return respondError(c, cc.log, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Category tree retrieved successfully",
		Data:    tree,
	})
}

func (cc *CategoryController) GetCategory(c echo.Context) error {
	id, err := utils.ParseObjectID("id", c.Param("id"))
	if err != nil {
		return respondError(c, cc.log, err)
	}
	category, err := cc.tree.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, cc.log, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Category retrieved successfully",
		Data:    category,
	})
}

// CreateCategory creates a category, optionally under parentId, with its
// attribute definitions.
func (cc *CategoryController) CreateCategory(c echo.Context) error {
	var req models.CreateCategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, cc.log, err)
	}
	parentID, err := optionalObjectID("parentId", req.ParentID)
	if err != nil {
		return respondError(c, cc.log, err)
	}

	category, err := cc.tree.Create(c.Request().Context(), req.Name, parentID, req.Attributes)
	if err != nil {
		return respondError(c, cc.log, err)
	}
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Category created successfully",
		Data:    category,
	})
}

// UpdateCategory renames, moves and upserts attributes in one request.
func (cc *CategoryController) UpdateCategory(c echo.Context) error {
	id, err := utils.ParseObjectID("id", c.Param("id"))
	if err != nil {
		return respondError(c, cc.log, err)
	}
	var req models.UpdateCategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, cc.log, err)
	}

	category, err := cc.tree.Update(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, cc.log, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Category updated successfully",
		Data:    category,
	})
}

// DeleteCategory removes a leaf category, or its whole branch with
// ?cascade=true.
func (cc *CategoryController) DeleteCategory(c echo.Context) error {
	id, err := utils.ParseObjectID("id", c.Param("id"))
	if err != nil {
		return respondError(c, cc.log, err)
	}
	cascade := false
	if raw := c.QueryParam("cascade"); raw != "" {
		cascade, err = strconv.ParseBool(raw)
		if err != nil {
			return respondError(c, cc.log, common.FieldError("cascade", "must be true or false"))
		}
	}

	if !cascade {
		if err := cc.tree.Delete(c.Request().Context(), id); err != nil {
			return respondError(c, cc.log, err)
		}
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Category deleted successfully",
		})
	}

	removed, err := cc.tree.DeleteCascade(c.Request().Context(), id)
	if err != nil {
		return respondError(c, cc.log, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Category and subcategories deleted successfully",
		Data:    map[string]int{"deleted": removed},
	})
}

func (cc *CategoryController) DeleteAttribute(c echo.Context) error {
	id, err := utils.ParseObjectID("id", c.Param("id"))
	if err != nil {
		return respondError(c, cc.log, err)
	}
	attrID, err := utils.ParseObjectID("attrId", c.Param("attrId"))
	if err != nil {
		return respondError(c, cc.log, err)
	}

	category, err := cc.tree.RemoveAttribute(c.Request().Context(), id, attrID)
	if err != nil {
		return respondError(c, cc.log, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Attribute deleted successfully",
		Data:    category,
	})
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, common.FieldError(name, "must be a positive integer")
	}
	return n, nil
}

func optionalObjectID(field string, hex *string) (*primitive.ObjectID, error) {
	if hex == nil || *hex == "" {
		return nil, nil
	}
	id, err := utils.ParseObjectID(field, *hex)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
