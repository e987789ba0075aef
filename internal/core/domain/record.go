package domain

import "encoding/json"

// Record is a row of the external spreadsheet store, passed through as-is.
type Record = json.RawMessage

// ImportResult summarises a bulk import.
type ImportResult struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}
