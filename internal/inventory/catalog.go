package inventory

import (
	"context"
	"fmt"
	"strings"

	"pos-backend/internal/apperror"
	"pos-backend/internal/audit"
	"pos-backend/internal/models"
	"pos-backend/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductFilter struct {
	Category string
	Status   models.ProductStatus
	Search   string
}

func (f ProductFilter) match(p models.Product) bool {
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

type ProductInput struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Image       string
	Stock       int
	Status      models.ProductStatus
}

// ProductPatch leaves nil fields untouched. Stock is not patchable; it only
// moves through inventory transactions.
type ProductPatch struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Image       *string
	Status      *models.ProductStatus
}

func validateProduct(p models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.Validation("name is required")
	}
	if !p.Price.IsPositive() {
		return apperror.Validation("price must be greater than zero")
	}
	if p.Stock < 0 {
		return apperror.Validation("stock cannot be negative")
	}
	if p.Stock > MaxQuantity {
		return apperror.Validationf("stock cannot exceed %d", MaxQuantity)
	}
	if !p.Status.Valid() {
		return apperror.Validationf("unknown product status %q", p.Status)
	}
	return nil
}

func nameTaken(p *store.Partition, name string, exceptID uint) bool {
	for _, other := range p.Products() {
		if other.ID != exceptID && strings.EqualFold(other.Name, name) {
			return true
		}
	}
	return false
}

// CreateProduct adds a product to the partition. Opening stock is booked as an
// In transaction so the ledger always explains the current level.
func CreateProduct(p *store.Partition, in ProductInput, opts Options) (models.Product, *models.InventoryTransaction, error) {
	if in.Status == "" {
		in.Status = models.ProductActive
	}
	now := p.Now()
	prod := models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
		Image:       strings.TrimSpace(in.Image),
		Stock:       in.Stock,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateProduct(prod); err != nil {
		return models.Product{}, nil, err
	}
	if nameTaken(p, prod.Name, 0) {
		return models.Product{}, nil, apperror.Conflictf("product %q already exists", prod.Name)
	}

	prod.ID = p.NextProductID()
	prod.Stock = 0
	p.PutProduct(prod)

	if in.Stock == 0 {
		prod, _ = p.Product(prod.ID)
		return prod, nil, nil
	}
	tx, _, err := Record(p, TransactionRequest{
		ProductID: prod.ID,
		Type:      models.TransactionIn,
		Quantity:  in.Stock,
		Reason:    ReasonInitialStock,
	}, opts)
	if err != nil {
		return models.Product{}, nil, err
	}
	prod, _ = p.Product(prod.ID)
	return prod, &tx, nil
}

func (l *Ledger) ListProducts(establishmentID uint, f ProductFilter) ([]models.Product, error) {
	var out []models.Product
	err := l.store.View(establishmentID, func(p *store.Partition) error {
		out = make([]models.Product, 0)
		for _, prod := range p.Products() {
			if f.match(prod) {
				out = append(out, prod)
			}
		}
		return nil
	})
	return out, err
}

func (l *Ledger) GetProduct(establishmentID, id uint) (models.Product, error) {
	var prod models.Product
	err := l.store.View(establishmentID, func(p *store.Partition) error {
		var ok bool
		if prod, ok = p.Product(id); !ok {
			return apperror.NotFoundf("product %d not found", id)
		}
		return nil
	})
	return prod, err
}

func (l *Ledger) CreateProduct(ctx context.Context, establishmentID uint, in ProductInput) (models.Product, error) {
	var (
		prod models.Product
		tx   *models.InventoryTransaction
	)
	err := l.store.Update(establishmentID, func(p *store.Partition) error {
		var err error
		prod, tx, err = CreateProduct(p, in, l.opts)
		return err
	})
	if err != nil {
		return models.Product{}, err
	}

	l.log.Info("product created",
		zap.Uint("establishment_id", establishmentID),
		zap.Uint("product_id", prod.ID),
		zap.String("name", prod.Name),
	)
	_ = l.audit.WriteLog(ctx, audit.LogOptions{
		EstablishmentID: establishmentID,
		EntityType:      "product",
		EntityID:        fmt.Sprint(prod.ID),
		Action:          models.AuditActionCreate,
		Description:     fmt.Sprintf("Product %s created", prod.Name),
		After:           prod,
	})
	if tx != nil {
		l.Announce(ctx, []models.InventoryTransaction{*tx}, nil)
	}
	return prod, nil
}

func (l *Ledger) UpdateProduct(ctx context.Context, establishmentID, id uint, patch ProductPatch) (models.Product, error) {
	var before, after models.Product
	err := l.store.Update(establishmentID, func(p *store.Partition) error {
		var ok bool
		if before, ok = p.Product(id); !ok {
			return apperror.NotFoundf("product %d not found", id)
		}

		after = before
		if patch.Name != nil {
			after.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			after.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Category != nil {
			after.Category = strings.TrimSpace(*patch.Category)
		}
		if patch.Price != nil {
			after.Price = *patch.Price
		}
		if patch.Image != nil {
			after.Image = strings.TrimSpace(*patch.Image)
		}
		if patch.Status != nil {
			after.Status = *patch.Status
		}
		if err := validateProduct(after); err != nil {
			return err
		}
		if !strings.EqualFold(after.Name, before.Name) && nameTaken(p, after.Name, id) {
			return apperror.Conflictf("product %q already exists", after.Name)
		}

		after.UpdatedAt = p.Now()
		p.PutProduct(after)
		return nil
	})
	if err != nil {
		return models.Product{}, err
	}

	_ = l.audit.WriteLog(ctx, audit.LogOptions{
		EstablishmentID: establishmentID,
		EntityType:      "product",
		EntityID:        fmt.Sprint(id),
		Action:          models.AuditActionUpdate,
		Description:     fmt.Sprintf("Product %s updated", after.Name),
		Before:          before,
		After:           after,
	})
	return after, nil
}

// DeleteProduct removes a product that no order has used. A product that is
// referenced by an order is deactivated instead so the order lines stay
// resolvable; soft reports which of the two happened.
func (l *Ledger) DeleteProduct(ctx context.Context, establishmentID, id uint) (soft bool, err error) {
	var prod models.Product
	err = l.store.Update(establishmentID, func(p *store.Partition) error {
		var ok bool
		if prod, ok = p.Product(id); !ok {
			return apperror.NotFoundf("product %d not found", id)
		}
		if p.ProductReferenced(id) {
			soft = true
			inactive := prod
			inactive.Status = models.ProductInactive
			inactive.UpdatedAt = p.Now()
			p.PutProduct(inactive)
			return nil
		}
		p.DeleteProduct(id)
		return nil
	})
	if err != nil {
		return false, err
	}

	desc := fmt.Sprintf("Product %s deleted", prod.Name)
	if soft {
		desc = fmt.Sprintf("Product %s deactivated", prod.Name)
	}
	_ = l.audit.WriteLog(ctx, audit.LogOptions{
		EstablishmentID: establishmentID,
		EntityType:      "product",
		EntityID:        fmt.Sprint(id),
		Action:          models.AuditActionDelete,
		Description:     desc,
		Before:          prod,
	})
	return soft, nil
}

// Categories lists the distinct categories in use, in first-seen order.
func (l *Ledger) Categories(establishmentID uint) ([]string, error) {
	var out []string
	err := l.store.View(establishmentID, func(p *store.Partition) error {
		out = make([]string, 0)
		seen := make(map[string]bool)
		for _, prod := range p.Products() {
			key := strings.ToLower(prod.Category)
			if prod.Category == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, prod.Category)
		}
		return nil
	})
	return out, err
}
