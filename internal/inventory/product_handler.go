package inventory

import (
	"strconv"
	"strings"

	"pos-backend/internal/apperror"
	"pos-backend/internal/auth"
	"pos-backend/internal/models"
	"pos-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ProductResponse struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock"`
	Status      string          `json:"status"`
	LowStock    bool            `json:"low_stock"`
	UpdatedAt   string          `json:"updated_at"`
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=120"`
	Description string          `json:"description" validate:"max=500"`
	Category    string          `json:"category" validate:"max=60"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock" validate:"gte=0,lte=1000000"`
	Status      string          `json:"status" validate:"omitempty,oneof=Active Inactive"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=120"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	Category    *string          `json:"category" validate:"omitempty,max=60"`
	Price       *decimal.Decimal `json:"price"`
	Image       *string          `json:"image"`
	Status      *string          `json:"status" validate:"omitempty,oneof=Active Inactive"`
}

func toProductResponse(p models.Product, threshold int) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Image:       p.Image,
		Stock:       p.Stock,
		Status:      string(p.Status),
		LowStock:    p.IsLowStock(threshold),
		UpdatedAt:   p.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toProductResponses(ps []models.Product, threshold int) []ProductResponse {
	res := make([]ProductResponse, 0, len(ps))
	for _, p := range ps {
		res = append(res, toProductResponse(p, threshold))
	}
	return res
}

func productIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("invalid product id")
	}
	return uint(id), nil
}

// GET /api/products?category=&status=&search=
func ListProductsHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}

		f := ProductFilter{
			Category: strings.TrimSpace(c.Query("category")),
			Status:   models.ProductStatus(c.Query("status")),
			Search:   strings.TrimSpace(c.Query("search")),
		}
		if f.Status != "" && !f.Status.Valid() {
			return apperror.Validationf("unknown product status %q", f.Status)
		}

		products, err := l.ListProducts(estID, f)
		if err != nil {
			return err
		}
		return c.JSON(toProductResponses(products, l.Threshold()))
	}
}

// GET /api/products/low-stock?threshold=
func LowStockHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}

		var threshold *int
		if raw := c.Query("threshold"); raw != "" {
			t, err := strconv.Atoi(raw)
			if err != nil {
				return apperror.Validation("threshold must be an integer")
			}
			threshold = &t
		}

		products, err := l.LowStock(estID, threshold)
		if err != nil {
			return err
		}
		t := l.Threshold()
		if threshold != nil {
			t = *threshold
		}
		return c.JSON(toProductResponses(products, t))
	}
}

// GET /api/products/categories
func ListCategoriesHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}
		cats, err := l.Categories(estID)
		if err != nil {
			return err
		}
		return c.JSON(cats)
	}
}

// GET /api/products/:id
func GetProductHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}
		id, err := productIDParam(c, "id")
		if err != nil {
			return err
		}

		p, err := l.GetProduct(estID, id)
		if err != nil {
			return err
		}
		return c.JSON(toProductResponse(p, l.Threshold()))
	}
}

// POST /api/products
func CreateProductHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}

		var body CreateProductRequest
		if err := utils.BindJSON(c, &body); err != nil {
			return err
		}

		p, err := l.CreateProduct(auth.RequestContext(c), estID, ProductInput{
			Name:        body.Name,
			Description: body.Description,
			Category:    body.Category,
			Price:       body.Price,
			Image:       body.Image,
			Stock:       body.Stock,
			Status:      models.ProductStatus(body.Status),
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toProductResponse(p, l.Threshold()))
	}
}

// PUT /api/products/:id
// Stock cannot be changed here; use POST /api/inventory/transaction.
func UpdateProductHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}
		id, err := productIDParam(c, "id")
		if err != nil {
			return err
		}

		var body UpdateProductRequest
		if err := utils.BindJSON(c, &body); err != nil {
			return err
		}

		patch := ProductPatch{
			Name:        body.Name,
			Description: body.Description,
			Category:    body.Category,
			Price:       body.Price,
			Image:       body.Image,
		}
		if body.Status != nil {
			s := models.ProductStatus(*body.Status)
			patch.Status = &s
		}

		p, err := l.UpdateProduct(auth.RequestContext(c), estID, id, patch)
		if err != nil {
			return err
		}
		return c.JSON(toProductResponse(p, l.Threshold()))
	}
}

// DELETE /api/products/:id
func DeleteProductHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}
		id, err := productIDParam(c, "id")
		if err != nil {
			return err
		}

		soft, err := l.DeleteProduct(auth.RequestContext(c), estID, id)
		if err != nil {
			return err
		}
		if soft {
			return c.JSON(fiber.Map{"deactivated": true, "message": "product is used by orders and was deactivated"})
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
