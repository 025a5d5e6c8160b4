package main

import (
	"context"

	"pos-backend/internal/inventory"
	"pos-backend/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const demoPIN = "1234"

var demoProducts = []inventory.ProductInput{
	{Name: "X-Burger", Category: "Lanches", Price: decimal.RequireFromString("25.90"), Stock: 40},
	{Name: "X-Salada", Category: "Lanches", Price: decimal.RequireFromString("27.90"), Stock: 30},
	{Name: "Batata Frita", Category: "Porções", Price: decimal.RequireFromString("18.00"), Stock: 25},
	{Name: "Refrigerante Lata", Category: "Bebidas", Price: decimal.RequireFromString("6.50"), Stock: 96},
	{Name: "Suco Natural", Category: "Bebidas", Price: decimal.RequireFromString("9.00"), Stock: 8},
	{Name: "Pudim", Category: "Sobremesas", Price: decimal.RequireFromString("12.00"), Stock: 0},
}

// seedDemo creates one establishment with a small catalog for local development.
func seedDemo(ctx context.Context, svc *services, zl *zap.Logger) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPIN), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	est, err := svc.store.CreateEstablishment("Restaurante Demo", string(hash))
	if err != nil {
		return err
	}

	for _, p := range demoProducts {
		p.Status = models.ProductActive
		if _, err := svc.ledger.CreateProduct(ctx, est.ID, p); err != nil {
			return err
		}
	}

	zl.Info("demo establishment seeded",
		zap.Uint("establishment_id", est.ID),
		zap.Int("products", len(demoProducts)),
	)
	return nil
}
