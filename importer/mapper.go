package importer

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var ErrMissingColumns = errors.New("missing required columns")

// column is one logical field and the header spellings it accepts. The first
// alias is the canonical export header.
type column struct {
	aliases  []string
	required bool
}

func (c column) name() string {
	return c.aliases[0]
}

func (c column) get(record Record) string {
	return record.Get(c.aliases...)
}

func required(aliases ...string) column {
	return column{aliases: aliases, required: true}
}

func optional(aliases ...string) column {
	return column{aliases: aliases}
}

// checkColumns reports every required column missing from table. All
// missing columns are returned together so one run surfaces the whole
// problem.
func checkColumns(table *Table, columns ...column) error {
	var err error
	for _, col := range columns {
		if !col.required || table.Has(col.aliases...) {
			continue
		}
		err = multierr.Append(err, fmt.Errorf("%s: column %q: %w", table.Name, col.name(), ErrMissingColumns))
	}
	return err
}
