package supplier

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	err := f.Save(path)
	require.NoError(t, err)
	return path
}

func newTestIngester() *Ingester {
	return NewIngester(NewFetcher(FetchOptions{}))
}

func TestProcess_HeaderMapping(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Fasteners": {
			{"Part Number", "Description", "Category", "Manufacturer", "Qty"},
			{"BOLT-1", "M6 hex bolt", "fasteners", "Acme", "100"},
			{"NUT-2", "M6 nut", "fasteners", "Acme", "200"},
		},
	})

	catalog, err := newTestIngester().Process(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, catalog.Sheets, 1)
	assert.Equal(t, 2, catalog.TotalItems)

	items := catalog.Sheets[0].Items
	require.Len(t, items, 2)
	assert.Equal(t, "BOLT-1", items[0].PartNumber)
	assert.Equal(t, "M6 hex bolt", items[0].Description)
	assert.Equal(t, "fasteners", items[0].Category)
	assert.Equal(t, "Acme", items[0].Manufacturer)
	assert.Equal(t, "100", items[0].Quantity)
	assert.Equal(t, "Fasteners", items[0].SheetName)
	assert.Equal(t, 1, items[0].RowIndex)
	assert.Equal(t, 2, items[1].RowIndex)
}

func TestProcess_PositionalFallback(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"GASKET-9", "rubber gasket seal", "seals", "Sealco", "5"},
		},
	})

	catalog, err := newTestIngester().Process(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, catalog.Sheets, 1)

	items := catalog.Sheets[0].Items
	require.Len(t, items, 1)
	assert.Equal(t, "GASKET-9", items[0].PartNumber)
	assert.Equal(t, "rubber gasket seal", items[0].Description)
	assert.Equal(t, 0, items[0].RowIndex)
}

func TestProcess_SkipsUnusableRows(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Part Number", "Description"},
			{"", "ok"},
			{"", ""},
			{"PN-1", ""},
			{"", "long enough description"},
		},
	})

	catalog, err := newTestIngester().Process(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, catalog.Sheets, 1)

	items := catalog.Sheets[0].Items
	require.Len(t, items, 2)
	assert.Equal(t, "PN-1", items[0].PartNumber)
	assert.Equal(t, "long enough description", items[1].Description)
}

func TestProcess_MultipleSheets(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"A": {
			{"Part Number", "Description"},
			{"A-1", "widget alpha"},
		},
		"B": {
			{"Part Number", "Description"},
			{"B-1", "widget beta"},
			{"B-2", "widget gamma"},
		},
	})

	catalog, err := newTestIngester().Process(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, catalog.Sheets, 2)
	assert.Equal(t, 3, catalog.TotalItems)

	flat := catalog.Flatten()
	assert.Len(t, flat, 3)
}

func TestProcess_MissingFile(t *testing.T) {
	ing := newTestIngester()
	_, err := ing.Process(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)

	stats := ing.Stats()
	assert.Equal(t, 1, stats["errors"])
	assert.Equal(t, 0, stats["files_processed"])
}

func TestProcess_Stats(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Part Number", "Description"},
			{"X-1", "thing one"},
			{"X-2", "thing two"},
		},
	})

	ing := newTestIngester()
	_, err := ing.Process(context.Background(), path)
	require.NoError(t, err)

	stats := ing.Stats()
	assert.Equal(t, 1, stats["files_processed"])
	assert.Equal(t, 1, stats["sheets_processed"])
	assert.Equal(t, 2, stats["items_extracted"])
}

func TestDetectColumns_NoMatch(t *testing.T) {
	_, ok := detectColumns([]string{"alpha", "beta", "gamma"})
	assert.False(t, ok)
}

func TestDetectColumns_Partial(t *testing.T) {
	mapping, ok := detectColumns([]string{"Item No", "Material Name", "", "Maker"})
	require.True(t, ok)
	assert.Equal(t, 0, mapping["part_number"])
	assert.Equal(t, 1, mapping["description"])
	assert.Equal(t, 3, mapping["manufacturer"])
	assert.Equal(t, -1, mapping["quantity"])
}

func TestParseFTPURL(t *testing.T) {
	host, path, err := parseFTPURL("ftp://files.example.com/catalogs/supplier.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "files.example.com:21", host)
	assert.Equal(t, "/catalogs/supplier.xlsx", path)

	_, _, err = parseFTPURL("http://example.com/x")
	require.Error(t, err)

	_, _, err = parseFTPURL("ftp://example.com")
	require.Error(t, err)
}

func TestFetcher_ResolveLocal(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"a", "bcd"}}})

	resolved, cleanup, err := NewFetcher(FetchOptions{}).Resolve(context.Background(), path)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, path, resolved)
}
