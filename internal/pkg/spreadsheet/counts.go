// internal/pkg/spreadsheet/counts.go
package spreadsheet

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/countsync/internal/core/domain"
)

// ContentType is the MIME type of generated workbooks
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var countHeaders = []string{
	"Counted At", "Product", "SKU", "Barcode", "Category", "Location",
	"Previous Qty", "Counted Qty", "Difference", "Verified", "Counted By",
	"Session ID", "Batch ID", "Network", "Notes",
}

var summaryHeaders = []string{
	"Product", "SKU", "Counts", "Net Difference", "Absolute Difference", "Last Counted Qty", "Last Counted At",
}

// CountsWorkbook renders counts into a single-sheet workbook
func CountsWorkbook(counts []*domain.InventoryCount) ([]byte, error) {
	file := xlsx.NewFile()

	if err := addCountSheet(file, "Counts", counts); err != nil {
		return nil, err
	}

	return write(file)
}

// VarianceWorkbook renders a per-product summary sheet followed by the
// individual counts that differed from the recorded quantity
func VarianceWorkbook(counts []*domain.InventoryCount, from, to time.Time) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Summary")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	period := sheet.AddRow()
	period.AddCell().Value = "Period"
	period.AddCell().Value = fmt.Sprintf("%s to %s", from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	sheet.AddRow()

	addHeaderRow(sheet, summaryHeaders)
	for _, v := range Summarize(counts) {
		row := sheet.AddRow()
		row.AddCell().Value = v.ProductName
		row.AddCell().Value = v.SKU
		row.AddCell().SetInt(v.Counts)
		row.AddCell().SetInt(v.NetDifference)
		row.AddCell().SetInt(v.AbsDifference)
		row.AddCell().SetInt(v.LastQuantity)
		row.AddCell().Value = v.LastCountedAt.UTC().Format(time.RFC3339)
	}
	setWidths(sheet, len(summaryHeaders))

	if err := addCountSheet(file, "Variances", counts); err != nil {
		return nil, err
	}

	return write(file)
}

// ProductVariance aggregates the counts of one product
type ProductVariance struct {
	ProductName   string
	SKU           string
	Counts        int
	NetDifference int
	AbsDifference int
	LastQuantity  int
	LastCountedAt time.Time
}

// Summarize groups counts by product, largest absolute variance first
func Summarize(counts []*domain.InventoryCount) []ProductVariance {
	byProduct := make(map[string]*ProductVariance)
	var order []string

	for _, c := range counts {
		key := c.ProductID.String()
		v, ok := byProduct[key]
		if !ok {
			v = &ProductVariance{}
			if c.Product != nil {
				v.ProductName = c.Product.Name
				v.SKU = c.Product.SKU
			}
			byProduct[key] = v
			order = append(order, key)
		}

		v.Counts++
		v.NetDifference += c.Difference
		v.AbsDifference += abs(c.Difference)
		if !c.CountedAt.Before(v.LastCountedAt) {
			v.LastCountedAt = c.CountedAt
			v.LastQuantity = c.Quantity
		}
	}

	out := make([]ProductVariance, 0, len(order))
	for _, key := range order {
		out = append(out, *byProduct[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AbsDifference > out[j].AbsDifference
	})

	return out
}

func addCountSheet(file *xlsx.File, name string, counts []*domain.InventoryCount) error {
	sheet, err := file.AddSheet(name)
	if err != nil {
		return fmt.Errorf("failed to add worksheet: %w", err)
	}

	addHeaderRow(sheet, countHeaders)
	for _, c := range counts {
		row := sheet.AddRow()
		for _, value := range countRow(c) {
			row.AddCell().Value = value
		}
	}
	setWidths(sheet, len(countHeaders))

	return nil
}

func countRow(c *domain.InventoryCount) []string {
	var name, sku, barcode, category string
	if c.Product != nil {
		name = c.Product.Name
		sku = c.Product.SKU
		barcode = c.Product.Barcode
		category = string(c.Product.Category)
	}

	var session string
	if c.SessionID != nil {
		session = c.SessionID.String()
	}

	return []string{
		c.CountedAt.UTC().Format(time.RFC3339),
		name,
		sku,
		barcode,
		category,
		c.Location,
		strconv.Itoa(c.PreviousQuantity),
		strconv.Itoa(c.Quantity),
		strconv.Itoa(c.Difference),
		strconv.FormatBool(c.Verified),
		c.CountedBy,
		session,
		c.BatchID,
		string(c.NetworkQuality),
		c.Notes,
	}
}

func addHeaderRow(sheet *xlsx.Sheet, headers []string) {
	headerRow := sheet.AddRow()
	for _, header := range headers {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}
}

func setWidths(sheet *xlsx.Sheet, n int) {
	for i := 1; i <= n; i++ {
		sheet.SetColWidth(i, i, 15)
	}
}

func write(file *xlsx.File) ([]byte, error) {
	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write Excel file to buffer: %w", err)
	}
	return buffer.Bytes(), nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
