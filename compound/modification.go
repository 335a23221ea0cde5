package compound

import (
	"strconv"
	"strings"
)

// Modification is a structural modification carried by a ganglioside name.
type Modification string

// Known modifications, in canonical print order.
const (
	OAc    Modification = "OAc"
	DHex   Modification = "dHex"
	HexNAc Modification = "HexNAc"
	NeuAc  Modification = "NeuAc"
	NeuGc  Modification = "NeuGc"
)

// AllModifications lists the known modifications in canonical order.
var AllModifications = []Modification{OAc, DHex, HexNAc, NeuAc, NeuGc}

// SugarUnits is the number of sugar residues one unit of m adds.
// O-acetylation decorates an existing sialic acid and adds none.
func (m Modification) SugarUnits() int {
	switch m {
	case DHex, HexNAc, NeuAc, NeuGc:
		return 1
	default:
		return 0
	}
}

func lookupModification(s string) (Modification, bool) {
	for _, m := range AllModifications {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// Modifications counts each modification present on a compound.
type Modifications struct {
	OAc    int `json:"oac,omitempty" yaml:"oac,omitempty"`
	DHex   int `json:"dhex,omitempty" yaml:"dhex,omitempty"`
	HexNAc int `json:"hexnac,omitempty" yaml:"hexnac,omitempty"`
	NeuAc  int `json:"neuac,omitempty" yaml:"neuac,omitempty"`
	NeuGc  int `json:"neugc,omitempty" yaml:"neugc,omitempty"`
}

func (ms *Modifications) slot(m Modification) *int {
	switch m {
	case OAc:
		return &ms.OAc
	case DHex:
		return &ms.DHex
	case HexNAc:
		return &ms.HexNAc
	case NeuAc:
		return &ms.NeuAc
	case NeuGc:
		return &ms.NeuGc
	}
	return nil
}

// Add increments the count of m by n.
func (ms *Modifications) Add(m Modification, n int) {
	if p := ms.slot(m); p != nil {
		*p += n
	}
}

// Count returns how many units of m are present.
func (ms Modifications) Count(m Modification) int {
	if p := ms.slot(m); p != nil {
		return *p
	}
	return 0
}

// Has reports whether m is present.
func (ms Modifications) Has(m Modification) bool {
	return ms.Count(m) > 0
}

// IsZero reports whether no modification is present.
func (ms Modifications) IsZero() bool {
	return ms == Modifications{}
}

// SugarUnits sums the sugar contribution of every modification.
func (ms Modifications) SugarUnits() int {
	total := 0
	for _, m := range AllModifications {
		total += ms.Count(m) * m.SugarUnits()
	}
	return total
}

// WithoutOAc returns a copy with the O-acetyl count cleared.
func (ms Modifications) WithoutOAc() Modifications {
	ms.OAc = 0
	return ms
}

// String renders the canonical "+2OAc+dHex" form.
func (ms Modifications) String() string {
	var b strings.Builder
	for _, m := range AllModifications {
		n := ms.Count(m)
		if n == 0 {
			continue
		}
		b.WriteByte('+')
		if n > 1 {
			b.WriteString(strconv.Itoa(n))
		}
		b.WriteString(string(m))
	}
	return b.String()
}
