package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HSouheill/catalog_backend/config"
	"github.com/HSouheill/catalog_backend/logger"
	"github.com/HSouheill/catalog_backend/models"
	"github.com/HSouheill/catalog_backend/repositories"
	"github.com/HSouheill/catalog_backend/services"
	"github.com/HSouheill/catalog_backend/utils"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	e *echo.Echo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Discard()

	categories := repositories.NewMemoryCategoryRepository()
	runner := services.NewMutationRunner(repositories.NoTransactions{}, services.RetryPolicy{MaxAttempts: 2, InitialInterval: time.Millisecond}, log)
	optionSets := services.NewOptionSetService(repositories.NewMemoryOptionSetRepository(), log)
	attributes := services.NewAttributeService(repositories.NewMemoryAttributeRepository(), optionSets, categories, runner, log)
	tree := services.NewCategoryTree(categories, attributes, runner, nil, log)
	composer := services.NewSchemaComposer(config.MediaPolicy{MaxCount: 8, MaxSizeMB: 5, AllowedTypes: []string{"image/jpeg"}})
	render := services.NewRenderService(tree, attributes, composer, nil, log)

	e := echo.New()
	e.Validator = utils.NewValidator()

	cc := NewCategoryController(tree, log)
	e.GET("/categories", cc.ListCategories)
	e.GET("/categories/tree", cc.GetCategoryTree)
	e.GET("/categories/:id", cc.GetCategory)
	e.POST("/categories", cc.CreateCategory)
	e.PUT("/categories/:id", cc.UpdateCategory)
	e.DELETE("/categories/:id", cc.DeleteCategory)
	e.DELETE("/categories/:id/attributes/:attrId", cc.DeleteAttribute)

	oc := NewOptionSetController(optionSets, log)
	e.GET("/option-sets", oc.ListOptionSets)
	e.GET("/option-sets/:id", oc.GetOptionSet)
	e.POST("/option-sets", oc.CreateOptionSet)

	e.GET("/product-render", NewProductRenderController(render, log).GetProductRender)
	e.GET("/health", NewHealthController(nil, nil, log).Health)

	return &testServer{e: e}
}

func (s *testServer) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func (s *testServer) createCategory(t *testing.T, body string) models.CategoryWithAttributes {
	t.Helper()
	rec := s.do(http.MethodPost, "/categories", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cat models.CategoryWithAttributes
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &cat))
	return cat
}

func TestCreateCategory(t *testing.T) {
	s := newTestServer(t)

	men := s.createCategory(t, `{"name":"Men"}`)
	assert.Equal(t, "men", men.Slug)
	assert.Equal(t, []string{"men"}, men.Path)

	shirts := s.createCategory(t, `{
		"name": "T-Shirts",
		"parentId": "`+men.ID.Hex()+`",
		"attributes": [
			{"name": "Color", "type": "select", "values": ["Red", "Blue"], "isVariant": true, "variantType": "color"},
			{"name": "Fabric", "type": "text"}
		]
	}`)
	assert.Equal(t, []string{"men", "t-shirts"}, shirts.Path)
	assert.Equal(t, 2, shirts.Level)
	require.Len(t, shirts.Attributes, 2)

	t.Run("duplicate sibling name", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/categories", `{"name":"Men"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("missing name reports the field", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/categories", `{"name":""}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "is required", decode(t, rec).Errors["name"])
	})

	t.Run("bad attribute type", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/categories", `{"name":"Kids","attributes":[{"name":"Age","type":"date"}]}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode(t, rec).Errors, "attributes[0].type")
	})

	t.Run("unknown parent", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/categories", `{"name":"Orphan","parentId":"000000000000000000000000"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed parent id", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/categories", `{"name":"Orphan","parentId":"nope"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode(t, rec).Errors, "parentId")
	})
}

func TestListAndTree(t *testing.T) {
	s := newTestServer(t)
	men := s.createCategory(t, `{"name":"Men"}`)
	s.createCategory(t, `{"name":"Shoes","parentId":"`+men.ID.Hex()+`"}`)
	s.createCategory(t, `{"name":"Women"}`)

	rec := s.do(http.MethodGet, "/categories?page=1&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page models.CategoryPage
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &page))
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Items, 2)

	rec = s.do(http.MethodGet, "/categories?page=4611686018427387904&limit=100", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &page))
	assert.EqualValues(t, 3, page.Total)
	assert.Empty(t, page.Items)

	rec = s.do(http.MethodGet, "/categories?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/categories/tree", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var roots []*models.CategoryNode
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &roots))
	require.Len(t, roots, 2)
	assert.Equal(t, "Men", roots[0].Name)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, "Shoes", roots[0].Children[0].Name)
}

func TestUpdateCategory(t *testing.T) {
	s := newTestServer(t)
	men := s.createCategory(t, `{"name":"Men"}`)
	shoes := s.createCategory(t, `{"name":"Shoes","parentId":"`+men.ID.Hex()+`"}`)

	rec := s.do(http.MethodPut, "/categories/"+men.ID.Hex(), `{"name":"Men's"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/categories/"+shoes.ID.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.CategoryWithAttributes
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
	assert.Equal(t, []string{"mens", "shoes"}, got.Path)

	rec = s.do(http.MethodPut, "/categories/"+shoes.ID.Hex(), `{"moveToRoot":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
	assert.Nil(t, got.ParentID)
	assert.Equal(t, []string{"shoes"}, got.Path)

	rec = s.do(http.MethodPut, "/categories/"+men.ID.Hex(), `{"parentId":"`+men.ID.Hex()+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPut, "/categories/"+shoes.ID.Hex(), `{"name":"Men's","attributes":[{"name":"Fabric","type":"text"}]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = s.do(http.MethodGet, "/categories/"+shoes.ID.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	got = models.CategoryWithAttributes{}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
	assert.Empty(t, got.Attributes)
	assert.Equal(t, shoes.Version, got.Version)
}

func TestDeleteCategory(t *testing.T) {
	s := newTestServer(t)
	men := s.createCategory(t, `{"name":"Men"}`)
	shoes := s.createCategory(t, `{"name":"Shoes","parentId":"`+men.ID.Hex()+`"}`)
	s.createCategory(t, `{"name":"Boots","parentId":"`+shoes.ID.Hex()+`"}`)

	rec := s.do(http.MethodDelete, "/categories/"+men.ID.Hex(), "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodDelete, "/categories/"+men.ID.Hex()+"?cascade=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/categories/"+men.ID.Hex()+"?cascade=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var removed map[string]int
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &removed))
	assert.Equal(t, 3, removed["deleted"])

	rec = s.do(http.MethodGet, "/categories/"+shoes.ID.Hex(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAttribute(t *testing.T) {
	s := newTestServer(t)
	cat := s.createCategory(t, `{"name":"Bags","attributes":[{"name":"Material","type":"text"}]}`)
	require.Len(t, cat.Attributes, 1)
	attrID := cat.Attributes[0].ID.Hex()

	rec := s.do(http.MethodDelete, "/categories/"+cat.ID.Hex()+"/attributes/"+attrID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.CategoryWithAttributes
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
	assert.Empty(t, got.Attributes)
	assert.Greater(t, got.Version, cat.Version)

	rec = s.do(http.MethodDelete, "/categories/"+cat.ID.Hex()+"/attributes/"+attrID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOptionSets(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/option-sets?type=size", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sets []models.OptionSet
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &sets))
	require.Len(t, sets, 2)

	rec = s.do(http.MethodGet, "/option-sets?type=weight", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/option-sets", `{"name":"Shoe Sizes","type":"size","values":["40","41","42"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.OptionSet
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))

	rec = s.do(http.MethodGet, "/option-sets/"+created.ID.Hex(), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/option-sets", `{"name":"Shoe Sizes","type":"size","values":["43"]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/option-sets", `{"name":"Weights","type":"weight","values":["1kg"]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "must be one of color, size", decode(t, rec).Errors["type"])
}

func TestProductRender(t *testing.T) {
	s := newTestServer(t)
	cat := s.createCategory(t, `{
		"name": "T-Shirts",
		"attributes": [
			{"name": "Color", "type": "select", "values": ["Red"], "isVariant": true, "variantType": "color"},
			{"name": "Fabric Type", "type": "text"}
		]
	}`)

	rec := s.do(http.MethodGet, "/product-render?catId="+cat.ID.Hex()+"&locale=en-US", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, "en-US", rec.Header().Get("Content-Language"))

	var schema struct {
		CategoryID string `json:"categoryId"`
		RenderTag  string `json:"renderTag"`
		Fields     []struct {
			Name   string `json:"name"`
			UIType string `json:"uiType"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schema))
	assert.Equal(t, cat.ID.Hex(), schema.CategoryID)
	assert.Equal(t, services.ETag(schema.RenderTag), etag)

	names := make([]string, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"images", "color", "fabric_type", "skus"}, names)

	t.Run("matching validator", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/product-render?catId="+cat.ID.Hex(), "", "If-None-Match", etag)
		assert.Equal(t, http.StatusNotModified, rec.Code)
		assert.Empty(t, rec.Body.Bytes())
		assert.Equal(t, etag, rec.Header().Get("ETag"))
	})

	t.Run("stale after attribute change", func(t *testing.T) {
		rec := s.do(http.MethodPut, "/categories/"+cat.ID.Hex(), `{"attributes":[{"name":"Fit","type":"text"}]}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(http.MethodGet, "/product-render?catId="+cat.ID.Hex(), "", "If-None-Match", etag)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEqual(t, etag, rec.Header().Get("ETag"))
	})

	t.Run("bad input", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/product-render", "").Code)
		assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/product-render?catId=xyz", "").Code)
		assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/product-render?catId="+cat.ID.Hex()+"&locale=not_a_locale!", "").Code)
		assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/product-render?catId=000000000000000000000000", "").Code)
	})
}

func TestHealth_WithoutStores(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var checks map[string]string
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &checks))
	assert.Equal(t, "disabled", checks["mongo"])
}
