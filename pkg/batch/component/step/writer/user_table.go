package writer

import (
	"fmt"
	"strings"

	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
)

// columnDefinitions holds the SQL type of every destination column, in positional order.
var columnDefinitions = [model.FieldCount]string{
	"VARCHAR(20)",
	"VARCHAR(20)",
	"VARCHAR(320)",
	"VARCHAR(6)",
	"TEXT",
	"VARCHAR(40)",
	"DECIMAL(15,2)",
	"BOOLEAN",
	"BOOLEAN",
	"VARCHAR(320)",
}

// DropTableStatement returns the statement removing the destination table if it exists.
func DropTableStatement(quote func(string) string, table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", quote(table))
}

// CreateTableStatement returns the CREATE TABLE statement of the user schema.
// Column D may only hold one of model.GenderValues, or NULL.
func CreateTableStatement(quote func(string) string, table string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (", quote(table))
	for i, name := range model.ColumnNames {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", quote(name), columnDefinitions[i])
		if name == model.ColumnD {
			allowed := make([]string, len(model.GenderValues))
			for j, v := range model.GenderValues {
				allowed[j] = "'" + v + "'"
			}
			fmt.Fprintf(&b, " CHECK (%s IS NULL OR %s IN (%s))", quote(name), quote(name), strings.Join(allowed, ", "))
		}
	}
	b.WriteString(")")
	return b.String()
}
