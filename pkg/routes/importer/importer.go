package importer

import (
	"io"
	"net/http"

	"github.com/Gobusters/ectoinject"
	"github.com/asterhq/aster/pkg/importer"
	"github.com/asterhq/aster/pkg/tracing"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Register registers the bulk import route
func Register(g *echo.Group) {
	g.POST("/upload-file", Upload)
}

// UploadResponse is the batch outcome returned to the admin UI.
type UploadResponse struct {
	Success  bool               `json:"success"`
	Imported int                `json:"imported"`
	Skipped  int                `json:"skipped"`
	Failures []importer.Failure `json:"failures,omitempty"`
}

// Upload ingests a tagged-text profile dump uploaded as multipart "file".
// The response bodies keep the shapes the admin frontend expects.
func Upload(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "importer_handler.Upload")
	defer span.End()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Файл не найден"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Файл не найден"})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to read file"})
	}

	ctx, imp, err := ectoinject.GetContext[*importer.Importer](ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get importer"})
	}

	result, err := imp.Run(ctx, data)
	if err != nil {
		if errors.Is(err, importer.ErrNoRecords) || errors.Is(err, importer.ErrEmptyInput) {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Нет данных аккаунтов в файле"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, UploadResponse{
		Success:  true,
		Imported: result.Imported,
		Skipped:  result.Skipped,
		Failures: result.Failures,
	})
}
