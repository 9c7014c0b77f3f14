// Package supplier ingests supplier catalog workbooks into the flat row
// structure the matching engine consumes.
package supplier

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/model"
)

// columnKeywords maps catalog fields to header substrings used for
// heuristic column detection.
var columnKeywords = map[string][]string{
	"part_number":  {"part", "number", "pn", "item no", "code", "sku"},
	"description":  {"description", "desc", "name", "title", "detail", "material"},
	"category":     {"category", "type", "group", "class"},
	"manufacturer": {"manufacturer", "maker", "vendor", "supplier", "brand"},
	"quantity":     {"quantity", "qty", "amount", "count"},
}

// defaultColumns is the positional fallback when a sheet has no
// recognizable header row.
var defaultColumns = map[string]int{
	"part_number":  0,
	"description":  1,
	"category":     2,
	"manufacturer": 3,
	"quantity":     4,
}

// Ingester implements the supplier-ingestion collaborator over xlsx
// workbooks. File refs may be local paths or ftp:// URLs.
type Ingester struct {
	fetcher *Fetcher

	mu    sync.Mutex
	stats ingestStats
}

type ingestStats struct {
	FilesProcessed  int `json:"files_processed"`
	SheetsProcessed int `json:"sheets_processed"`
	ItemsExtracted  int `json:"items_extracted"`
	Errors          int `json:"errors"`
}

// NewIngester creates an Ingester.
func NewIngester(fetcher *Fetcher) *Ingester {
	return &Ingester{fetcher: fetcher}
}

// Process parses every sheet of the referenced workbook. Row order is
// preserved and each item records its originating sheet and row index.
func (i *Ingester) Process(ctx context.Context, fileRef string) (*model.SupplierCatalog, error) {
	path, cleanup, err := i.fetcher.Resolve(ctx, fileRef)
	if err != nil {
		i.bumpErrors()
		return nil, eris.Wrapf(err, "supplier: resolve %s", fileRef)
	}
	defer cleanup()

	f, err := xlsx.OpenFile(path)
	if err != nil {
		i.bumpErrors()
		return nil, eris.Wrap(err, "supplier: open workbook")
	}

	catalog := &model.SupplierCatalog{}
	for _, sheet := range f.Sheets {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "supplier: context cancelled")
		}

		items := parseSheet(sheet)
		if len(items) == 0 {
			zap.L().Debug("supplier: skipping empty sheet", zap.String("sheet", sheet.Name))
			continue
		}
		catalog.Sheets = append(catalog.Sheets, model.SupplierSheet{Name: sheet.Name, Items: items})
		catalog.TotalItems += len(items)
	}

	i.mu.Lock()
	i.stats.FilesProcessed++
	i.stats.SheetsProcessed += len(catalog.Sheets)
	i.stats.ItemsExtracted += catalog.TotalItems
	i.mu.Unlock()

	zap.L().Info("supplier: workbook ingested",
		zap.String("file", fileRef),
		zap.Int("sheets", len(catalog.Sheets)),
		zap.Int("items", catalog.TotalItems),
	)
	return catalog, nil
}

// Stats returns the ingester's processing counters.
func (i *Ingester) Stats() map[string]any {
	i.mu.Lock()
	defer i.mu.Unlock()
	return map[string]any{
		"files_processed":  i.stats.FilesProcessed,
		"sheets_processed": i.stats.SheetsProcessed,
		"items_extracted":  i.stats.ItemsExtracted,
		"errors":           i.stats.Errors,
	}
}

func (i *Ingester) bumpErrors() {
	i.mu.Lock()
	i.stats.Errors++
	i.mu.Unlock()
}

func parseSheet(sheet *xlsx.Sheet) []model.SupplierItem {
	if len(sheet.Rows) == 0 {
		return nil
	}

	header := rowToStrings(sheet.Rows[0])
	mapping, haveHeader := detectColumns(header)
	start := 0
	if haveHeader {
		start = 1
	} else {
		mapping = defaultColumns
	}

	var items []model.SupplierItem
	for idx := start; idx < len(sheet.Rows); idx++ {
		cells := rowToStrings(sheet.Rows[idx])
		item := model.SupplierItem{
			PartNumber:   cellAt(cells, mapping["part_number"]),
			Description:  cellAt(cells, mapping["description"]),
			Category:     cellAt(cells, mapping["category"]),
			Manufacturer: cellAt(cells, mapping["manufacturer"]),
			Quantity:     cellAt(cells, mapping["quantity"]),
			SheetName:    sheet.Name,
			RowIndex:     idx,
		}
		// A usable row carries a part number or a meaningful description.
		if item.PartNumber == "" && len(item.Description) <= 3 {
			continue
		}
		items = append(items, item)
	}
	return items
}

// detectColumns maps catalog fields to column indexes by matching header
// cells against known keywords. Reports false when no field matches at all,
// in which case the caller falls back to positional defaults.
func detectColumns(header []string) (map[string]int, bool) {
	mapping := make(map[string]int, len(columnKeywords))
	for field := range columnKeywords {
		mapping[field] = -1
	}

	matched := false
	for idx, cell := range header {
		lower := strings.ToLower(strings.TrimSpace(cell))
		if lower == "" {
			continue
		}
		for field, keywords := range columnKeywords {
			if mapping[field] != -1 {
				continue
			}
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					mapping[field] = idx
					matched = true
					break
				}
			}
		}
	}
	return mapping, matched
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
