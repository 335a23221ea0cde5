// Package compound models ganglioside compounds and decodes their names into
// scaffold, lipid suffix, sugar composition, modifications and category.
package compound

import (
	"github.com/YuminosukeSato/rtguard/pkg/errors"
)

// Compound is one measured peak together with everything derived from its name.
type Compound struct {
	// Row is the 1-based data row the compound was read from. It doubles as
	// the input order used by every tie-break.
	Row int

	Name          string
	RetentionTime float64
	LogP          float64
	Volume        float64
	IsAnchor      bool

	Identity
}

// New parses name and returns the compound. An unparseable name yields a
// MalformedRecordError for the row.
func New(row int, name string, rt, logP, volume float64, anchor bool) (Compound, error) {
	id, err := ParseName(name)
	if err != nil {
		var ne *NameError
		reason := err.Error()
		if errors.As(err, &ne) {
			reason = ne.Reason
		}
		return Compound{}, errors.NewMalformedRecordError(row, name, "Name", reason)
	}
	return Compound{
		Row:           row,
		Name:          name,
		RetentionTime: rt,
		LogP:          logP,
		Volume:        volume,
		IsAnchor:      anchor,
		Identity:      id,
	}, nil
}

// SugarCount returns the total sugar count.
func (c Compound) SugarCount() int {
	return c.Composition.TotalSugar
}

// BaseKey identifies the unmodified counterpart of an O-acetylated compound:
// scaffold, isomer, suffix and every modification other than OAc.
func (c Compound) BaseKey() string {
	return c.Scaffold + c.Composition.Isomer + c.Modifications.WithoutOAc().String() + "|" + c.Suffix
}

// IsOAcetylated reports whether the compound carries at least one OAc.
func (c Compound) IsOAcetylated() bool {
	return c.Modifications.Has(OAc)
}
