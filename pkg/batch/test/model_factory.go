package test

import (
	"fmt"

	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
)

// NewTestHeader returns the header row of the user schema (A..J).
func NewTestHeader() model.RawRecord {
	return append(model.RawRecord(nil), model.ColumnNames[:]...)
}

// NewTestValidRow returns a fully populated row. i makes the first field unique.
func NewTestValidRow(i int) model.RawRecord {
	return model.RawRecord{
		fmt.Sprintf("First%d", i),
		"Last",
		fmt.Sprintf("user%d@example.com", i),
		"Female",
		"https://example.com/avatar.png",
		"mastercard",
		"$12.50",
		"TRUE",
		"false",
		"Springfield",
	}
}

// NewTestRowWithEmptyField returns NewTestValidRow(i) with the field at index emptied.
func NewTestRowWithEmptyField(i, index int) model.RawRecord {
	row := NewTestValidRow(i)
	row[index] = ""
	return row
}

// NewTestCSV renders rows as CSV text, without quoting. Only for rows without commas or quotes.
func NewTestCSV(rows ...model.RawRecord) string {
	var out string
	for _, row := range rows {
		for i, f := range row {
			if i > 0 {
				out += ","
			}
			out += f
		}
		out += "\n"
	}
	return out
}
