// Package report serializes ledger rows to a CSV byte stream for export.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"gastos/internal/core"
)

// Header is the CSV header for expense exports. Field order is part of the
// export contract.
const Header = "date,value,category,currency,text"

const dateFormat = "2006-01-02 15:04:05"

// WriteCSV writes the header and one row per expense, preserving the input
// order (callers pass ledger rows newest-first).
func WriteCSV(w io.Writer, expenses []core.Expense) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range expenses {
		row := []string{
			e.Date.UTC().Format(dateFormat),
			e.Value.String(),
			e.Category,
			e.Currency,
			e.Text,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// Bytes renders the export as UTF-8 bytes.
func Bytes(expenses []core.Expense) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, expenses); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename labels an export with the UTC calendar date of now.
func Filename(now time.Time) string {
	return fmt.Sprintf("expenses_%s.csv", now.UTC().Format("2006-01-02"))
}
