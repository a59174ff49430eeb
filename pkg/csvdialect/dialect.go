// Package csvdialect maps the dialect names used in crawler config files to
// encoding/csv reader and writer settings.
package csvdialect

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"

	"github.com/samber/lo"
)

// Dialect describes a CSV flavour
type Dialect struct {
	Name    string
	Comma   rune
	UseCRLF bool
}

var dialects = map[string]Dialect{
	"excel":     {Name: "excel", Comma: ',', UseCRLF: true},
	"excel-tab": {Name: "excel-tab", Comma: '\t', UseCRLF: true},
	"unix":      {Name: "unix", Comma: ',', UseCRLF: false},
}

// Lookup returns the dialect registered under name
func Lookup(name string) (Dialect, error) {
	d, ok := dialects[name]
	if !ok {
		return Dialect{}, fmt.Errorf("csvdialect: unknown dialect %q (valid: %v)", name, Names())
	}
	return d, nil
}

// Names lists the known dialects in sorted order
func Names() []string {
	names := lo.Keys(dialects)
	slices.Sort(names)
	return names
}

// NewReader returns a reader that leaves row width checks to the caller
func (d Dialect) NewReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = d.Comma
	cr.FieldsPerRecord = -1
	return cr
}

func (d Dialect) NewWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = d.Comma
	cw.UseCRLF = d.UseCRLF
	return cw
}
