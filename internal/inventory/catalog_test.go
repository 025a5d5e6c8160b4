package inventory

import (
	"bytes"
	"context"
	"testing"

	"pos-backend/internal/apperror"
	"pos-backend/internal/audit"
	"pos-backend/internal/models"
	"pos-backend/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCreateProductValidation(t *testing.T) {
	f := newFixture(t, Options{LowStockThreshold: 10})
	ctx := context.Background()

	cases := map[string]ProductInput{
		"missing name":   {Price: decimal.NewFromInt(5)},
		"zero price":     {Name: "Suco", Price: decimal.Zero},
		"negative stock": {Name: "Suco", Price: decimal.NewFromInt(5), Stock: -1},
		"bad status":     {Name: "Suco", Price: decimal.NewFromInt(5), Status: "Archived"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.ledger.CreateProduct(ctx, f.estA, in)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}

	products, err := f.ledger.ListProducts(f.estA, ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestCreateProductRecordsInitialStock(t *testing.T) {
	f := newFixture(t, Options{LowStockThreshold: 10})
	p := f.product(t, f.estA, "Suco", 12)

	assert.Equal(t, models.ProductActive, p.Status)
	assert.Equal(t, 12, p.Stock)

	txs, err := f.ledger.ProductTransactions(f.estA, p.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TransactionIn, txs[0].Type)
	assert.Equal(t, ReasonInitialStock, txs[0].Reason)
	assert.Equal(t, 12, txs[0].Quantity)
}

func TestCreateProductDuplicateNameIsPerTenant(t *testing.T) {
	f := newFixture(t, Options{LowStockThreshold: 10})
	f.product(t, f.estA, "Suco", 1)

	_, err := f.ledger.CreateProduct(context.Background(), f.estA, ProductInput{Name: "suco", Price: decimal.NewFromInt(3)})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	f.product(t, f.estB, "Suco", 1)
}

func TestListProductsFilters(t *testing.T) {
	f := newFixture(t, Options{LowStockThreshold: 10})
	ctx := context.Background()
	for _, in := range []ProductInput{
		{Name: "Suco de laranja", Category: "Bebidas", Price: decimal.NewFromInt(8)},
		{Name: "Refrigerante", Category: "Bebidas", Price: decimal.NewFromInt(6), Status: models.ProductInactive},
		{Name: "Pastel", Category: "Salgados", Price: decimal.NewFromInt(7)},
	} {
		_, err := f.ledger.CreateProduct(ctx, f.estA, in)
		require.NoError(t, err)
	}

	bebidas, err := f.ledger.ListProducts(f.estA, ProductFilter{Category: "bebidas"})
	require.NoError(t, err)
	assert.Len(t, bebidas, 2)

	active, err := f.ledger.ListProducts(f.estA, ProductFilter{Category: "Bebidas", Status: models.ProductActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Suco de laranja", active[0].Name)

	search, err := f.ledger.ListProducts(f.estA, ProductFilter{Search: "PAST"})
	require.NoError(t, err)
	require.Len(t, search, 1)

	cats, err := f.ledger.Categories(f.estA)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bebidas", "Salgados"}, cats)

	other, err := f.ledger.ListProducts(f.estB, ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestUpdateProductKeepsStock(t *testing.T) {
	f := newFixture(t, Options{LowStockThreshold: 10})
	p := f.product(t, f.estA, "Suco", 12)

	price := decimal.RequireFromString("10.50")
	name := "Suco natural"
	got, err := f.ledger.UpdateProduct(context.Background(), f.estA, p.ID, ProductPatch{Name: &name, Price: &price})
	require.NoError(t, err)

	assert.Equal(t, "Suco natural", got.Name)
	assert.True(t, price.Equal(got.Price))
	assert.Equal(t, 12, got.Stock)

	logs, err := f.audit.List(context.Background(), audit.Filter{EstablishmentID: f.estA, EntityType: "product"})
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, models.AuditActionUpdate, logs[0].Action)
}

func TestUpdateProductOtherTenantIsNotFound(t *testing.T) {
	f := newFixture(t, Options{LowStockThreshold: 10})
	p := f.product(t, f.estA, "Suco", 12)

	name := "Hijack"
	_, err := f.ledger.UpdateProduct(context.Background(), f.estB, p.ID, ProductPatch{Name: &name})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t, Options{LowStockThreshold: 10})
	ctx := context.Background()
	unused := f.product(t, f.estA, "Suco", 1)
	sold := f.product(t, f.estA, "Pastel", 1)

	require.NoError(t, f.store.Update(f.estA, func(p *store.Partition) error {
		seq := p.NextOrderSeq()
		p.PutOrder(models.Order{
			ID:    models.FormatOrderID(seq),
			Seq:   seq,
			Items: []models.OrderItem{{ID: "a", ProductID: &sold.ID, Name: "Pastel", Quantity: 1}},
		})
		return nil
	}))

	soft, err := f.ledger.DeleteProduct(ctx, f.estA, unused.ID)
	require.NoError(t, err)
	assert.False(t, soft)
	_, err = f.ledger.GetProduct(f.estA, unused.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	soft, err = f.ledger.DeleteProduct(ctx, f.estA, sold.ID)
	require.NoError(t, err)
	assert.True(t, soft)
	kept, err := f.ledger.GetProduct(f.estA, sold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductInactive, kept.Status)
}

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	x := excelize.NewFile()
	defer x.Close()
	sheet := x.GetSheetName(0)
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, x.SetSheetRow(sheet, cellRef, &row))
	}
	buf, err := x.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseProductSheet(t *testing.T) {
	buf := workbook(t, [][]any{
		{"Nome", "Categoria", "Preço", "Estoque", "Descrição"},
		{"Coxinha", "Salgados", "7,50", "20", "Frango com catupiry"},
		{},
		{"Suco", "Bebidas", "R$ 8.00", "", ""},
		{"Bolo", "Doces", "abc", "3"},
	})

	rows, errs, err := ParseProductSheet(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Coxinha", rows[0].Input.Name)
	assert.True(t, decimal.RequireFromString("7.50").Equal(rows[0].Input.Price))
	assert.Equal(t, 20, rows[0].Input.Stock)
	assert.Equal(t, 0, rows[1].Input.Stock)

	require.Len(t, errs, 1)
	assert.Equal(t, 5, errs[0].Line)
	assert.Equal(t, "Bolo", errs[0].Name)
}

func TestParsePrice(t *testing.T) {
	cases := map[string]string{
		"12.50":       "12.5",
		"12,50":       "12.5",
		"R$ 1.234,90": "1234.9",
		"3":           "3",
	}
	for raw, want := range cases {
		got, err := parsePrice(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got.String(), raw)
	}
	_, err := parsePrice("")
	assert.Error(t, err)
}

func TestImportProducts(t *testing.T) {
	f := newFixture(t, Options{LowStockThreshold: 10})
	f.product(t, f.estA, "Suco", 1)

	buf := workbook(t, [][]any{
		{"Coxinha", "Salgados", "7,50", "20"},
		{"Suco", "Bebidas", "8", "5"},
		{"Água", "Bebidas", "0", "5"},
	})

	res, err := f.ledger.ImportProducts(context.Background(), f.estA, buf)
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	assert.Equal(t, "Coxinha", res.Created[0].Name)
	assert.Equal(t, 20, res.Created[0].Stock)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 2, res.Errors[0].Line)
	assert.Equal(t, 3, res.Errors[1].Line)

	products, err := f.ledger.ListProducts(f.estA, ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestImportRejectsGarbage(t *testing.T) {
	f := newFixture(t, Options{LowStockThreshold: 10})
	_, err := f.ledger.ImportProducts(context.Background(), f.estA, bytes.NewBufferString("not a workbook"))
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
