package middleware

import (
	"mime"
	"net/http"

	"github.com/HSouheill/catalog_backend/models"
	"github.com/labstack/echo/v4"
)

// RequireJSON rejects request bodies that are not application/json. Requests
// without a body pass through.
func RequireJSON() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.ContentLength == 0 || (req.Method != http.MethodPost && req.Method != http.MethodPut) {
				return next(c)
			}
			if !validContentType(req.Header.Get(echo.HeaderContentType)) {
				return c.JSON(http.StatusUnsupportedMediaType, models.Response{
					Status:  http.StatusUnsupportedMediaType,
					Message: "Content-Type must be application/json",
				})
			}
			return next(c)
		}
	}
}

func validContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == echo.MIMEApplicationJSON
}
