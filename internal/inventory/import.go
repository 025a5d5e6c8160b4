package inventory

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pos-backend/internal/apperror"
	"pos-backend/internal/audit"
	"pos-backend/internal/models"
	"pos-backend/internal/store"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Column order of an import sheet: name, category, price, stock, description.
const (
	colName = iota
	colCategory
	colPrice
	colStock
	colDescription
)

type ImportRow struct {
	Line  int
	Input ProductInput
}

type RowError struct {
	Line    int    `json:"line"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

type ImportResult struct {
	Created []models.Product `json:"created"`
	Errors  []RowError       `json:"errors"`
}

// ParseProductSheet reads the first sheet of an xlsx workbook. A first row whose
// first cell looks like a header ("name", "nome", "produto", "product") is skipped.
// Rows that cannot be parsed are returned as RowErrors; blank rows are ignored.
func ParseProductSheet(r io.Reader) ([]ImportRow, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, apperror.Wrap(apperror.KindValidation, "workbook could not be read", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, apperror.Validation("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, apperror.Wrap(apperror.KindValidation, "sheet could not be read", err)
	}
	if len(rows) == 0 {
		return nil, nil, apperror.Validation("sheet is empty")
	}

	start := 0
	if isHeader(rows[0]) {
		start = 1
	}

	var (
		out  []ImportRow
		errs []RowError
	)
	for i := start; i < len(rows); i++ {
		line := i + 1
		row := rows[i]
		name := cell(row, colName)
		if name == "" {
			continue
		}

		price, err := parsePrice(cell(row, colPrice))
		if err != nil {
			errs = append(errs, RowError{Line: line, Name: name, Message: err.Error()})
			continue
		}
		stock := 0
		if raw := cell(row, colStock); raw != "" {
			if stock, err = strconv.Atoi(raw); err != nil {
				errs = append(errs, RowError{Line: line, Name: name, Message: fmt.Sprintf("invalid stock %q", raw)})
				continue
			}
		}

		out = append(out, ImportRow{
			Line: line,
			Input: ProductInput{
				Name:        name,
				Category:    cell(row, colCategory),
				Price:       price,
				Stock:       stock,
				Description: cell(row, colDescription),
				Status:      models.ProductActive,
			},
		})
	}
	return out, errs, nil
}

func isHeader(row []string) bool {
	first := strings.ToLower(cell(row, colName))
	for _, h := range []string{"name", "nome", "produto", "product"} {
		if strings.Contains(first, h) {
			return true
		}
	}
	return false
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parsePrice accepts "12.50", "12,50" and "R$ 12,50".
func parsePrice(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "R$"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	if s == "" {
		return decimal.Zero, fmt.Errorf("price is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q", raw)
	}
	return d, nil
}

// ImportProducts creates one product per valid row. A bad row is reported and
// skipped; it does not undo the rows that were created.
func (l *Ledger) ImportProducts(ctx context.Context, establishmentID uint, r io.Reader) (ImportResult, error) {
	rows, rowErrs, err := ParseProductSheet(r)
	if err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{Created: make([]models.Product, 0, len(rows)), Errors: rowErrs}
	if res.Errors == nil {
		res.Errors = make([]RowError, 0)
	}
	var txs []models.InventoryTransaction

	err = l.store.Update(establishmentID, func(p *store.Partition) error {
		for _, row := range rows {
			prod, tx, err := CreateProduct(p, row.Input, l.opts)
			if err != nil {
				res.Errors = append(res.Errors, RowError{Line: row.Line, Name: row.Input.Name, Message: err.Error()})
				continue
			}
			res.Created = append(res.Created, prod)
			if tx != nil {
				txs = append(txs, *tx)
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	l.log.Info("product import finished",
		zap.Uint("establishment_id", establishmentID),
		zap.Int("created", len(res.Created)),
		zap.Int("failed", len(res.Errors)),
	)
	for _, prod := range res.Created {
		_ = l.audit.WriteLog(ctx, audit.LogOptions{
			EstablishmentID: establishmentID,
			EntityType:      "product",
			EntityID:        fmt.Sprint(prod.ID),
			Action:          models.AuditActionCreate,
			Description:     fmt.Sprintf("Product %s imported", prod.Name),
			After:           prod,
		})
	}
	l.Announce(ctx, txs, nil)
	return res, nil
}
