package inventory

import (
	"strings"

	"pos-backend/internal/apperror"
	"pos-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// POST /api/products/import (multipart, field "file")
func ImportProductsHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return apperror.Wrap(apperror.KindValidation, "file upload missing", err)
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return apperror.Validation("only .xlsx files can be imported")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "file could not be opened")
		}
		defer file.Close()

		res, err := l.ImportProducts(auth.RequestContext(c), estID, file)
		if err != nil {
			return err
		}

		created := make([]ProductResponse, 0, len(res.Created))
		for _, p := range res.Created {
			created = append(created, toProductResponse(p, l.Threshold()))
		}
		return c.JSON(fiber.Map{
			"created_count": len(created),
			"created":       created,
			"errors":        res.Errors,
		})
	}
}
