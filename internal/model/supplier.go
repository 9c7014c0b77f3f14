package model

// SupplierItem is one row of the flattened supplier catalog. Order follows
// the source workbook (sheet order, then row order) but matching does not
// depend on it.
type SupplierItem struct {
	PartNumber   string `json:"part_number"`
	Description  string `json:"description"`
	Category     string `json:"category,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Quantity     string `json:"quantity,omitempty"`
	SheetName    string `json:"sheet_name"`
	RowIndex     int    `json:"row_index"`
}

// SupplierSheet groups the rows parsed from a single workbook sheet.
type SupplierSheet struct {
	Name  string         `json:"name"`
	Items []SupplierItem `json:"items"`
}

// SupplierCatalog is the sheet-structured output of supplier ingestion.
type SupplierCatalog struct {
	Sheets     []SupplierSheet `json:"sheets"`
	TotalItems int             `json:"total_items"`
}

// Flatten converts the sheet-structured catalog into one ordered sequence,
// preserving row order within each sheet.
func (c *SupplierCatalog) Flatten() []SupplierItem {
	items := make([]SupplierItem, 0, c.TotalItems)
	for _, sheet := range c.Sheets {
		items = append(items, sheet.Items...)
	}
	return items
}
