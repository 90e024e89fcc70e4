package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/countsync/internal/core/domain"
)

// catalogColumns is the expected header row of a catalog workbook
var catalogColumns = []string{"name", "sku", "barcode", "category", "quantity", "cost", "price", "location"}

// LoadCatalog reads products from the first sheet of an Excel workbook.
// Invalid rows are logged and skipped.
func LoadCatalog(path string, businessID uuid.UUID, logger *slog.Logger) ([]*domain.Product, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in catalog")
	}

	var products []*domain.Product
	rowIdx := 0
	err = file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		rowIdx++
		if rowIdx == 1 {
			return nil
		}

		cells := make([]string, len(catalogColumns))
		for i := range cells {
			if c := r.GetCell(i); c != nil {
				if s, err := c.FormattedValue(); err == nil {
					cells[i] = strings.TrimSpace(s)
				} else {
					cells[i] = strings.TrimSpace(c.String())
				}
			}
		}
		if cells[0] == "" {
			return nil
		}

		p, err := parseCatalogRow(businessID, cells)
		if err != nil {
			logger.Warn("skipping catalog row",
				slog.Int("row", rowIdx),
				slog.String("error", err.Error()))
			return nil
		}
		products = append(products, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	logger.Info("loaded catalog", slog.String("file", path), slog.Int("count", len(products)))
	return products, nil
}

func parseCatalogRow(businessID uuid.UUID, cells []string) (*domain.Product, error) {
	p := &domain.Product{
		BusinessID: businessID,
		Name:       cells[0],
		SKU:        cells[1],
		Barcode:    cells[2],
		Category:   domain.ProductCategory(strings.ToLower(cells[3])),
		Location:   cells[7],
	}

	var err error
	if cells[4] != "" {
		if p.CurrentQuantity, err = strconv.Atoi(cells[4]); err != nil {
			return nil, fmt.Errorf("invalid quantity %q", cells[4])
		}
	}
	if p.Cost, err = parseMoney(cells[5]); err != nil {
		return nil, fmt.Errorf("invalid cost %q", cells[5])
	}
	if p.Price, err = parseMoney(cells[6]); err != nil {
		return nil, fmt.Errorf("invalid price %q", cells[6])
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.ID = productID(businessID, p.SKU, p.Name)
	p.PrepareForStorage()
	return p, nil
}

// GenerateProducts builds n demo products with stable ids
func GenerateProducts(businessID uuid.UUID, n int) []*domain.Product {
	categories := []domain.ProductCategory{
		domain.CategoryGeneral,
		domain.CategoryRawMaterial,
		domain.CategoryFinished,
		domain.CategoryPackaging,
		domain.CategorySpareParts,
		domain.CategoryConsumables,
	}

	products := make([]*domain.Product, 0, n)
	for i := 1; i <= n; i++ {
		sku := fmt.Sprintf("DEMO-%04d", i)
		p := &domain.Product{
			ID:              productID(businessID, sku, ""),
			BusinessID:      businessID,
			Name:            fmt.Sprintf("Demo Product %d", i),
			SKU:             sku,
			Barcode:         fmt.Sprintf("0%011d", 400000000+i),
			Category:        categories[i%len(categories)],
			CurrentQuantity: (i * 7) % 120,
			Cost:            decimal.NewFromInt(int64(i%50 + 1)),
			Price:           decimal.NewFromInt(int64(i%50+1) * 2),
			Location:        fmt.Sprintf("A%d-%02d", i%6+1, i%20+1),
		}
		p.PrepareForStorage()
		products = append(products, p)
	}
	return products
}

// productID derives a deterministic id so reseeding the same catalog is a no-op
func productID(businessID uuid.UUID, sku, name string) uuid.UUID {
	key := sku
	if key == "" {
		key = "name:" + strings.ToLower(name)
	}
	return uuid.NewSHA1(businessID, []byte(key))
}

func parseMoney(val string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(val))
	if cleaned == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(cleaned)
}
