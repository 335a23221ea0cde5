package compound

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// sialicLetters maps the series letter to its sialic-acid count.
var sialicLetters = map[byte]int{'A': 0, 'M': 1, 'D': 2, 'T': 3, 'Q': 4, 'P': 5}

// isomerCandidates lists the known positional isomers of the f == 1 scaffolds.
var isomerCandidates = map[string][]string{
	"GM1": {"a", "b"},
	"GD1": {"a", "b", "c"},
	"GT1": {"a", "b", "c"},
	"GQ1": {"b", "c"},
	"GP1": {"c"},
}

var (
	modPattern  = `\+(\d*)(OAc|dHex|HexNAc|NeuAc|NeuGc)`
	namePattern = regexp.MustCompile(
		`^G([AMDTQP])([1-4])([a-z]?)((?:` + modPattern + `)*)` +
			`\((\d+):(\d+)(?:;O(\d*))?\)` +
			`((?:` + modPattern + `)*)$`)
	modRe = regexp.MustCompile(modPattern)
)

// Composition is the sugar composition decoded from a name.
type Composition struct {
	// SialicCount is e, decoded from the series letter (A=0 .. P=5).
	SialicCount int `json:"sialic_count" yaml:"sialic_count"`
	// RemainingSugar is the scaffold digit f (1..4).
	RemainingSugar int `json:"remaining_sugar" yaml:"remaining_sugar"`
	// TotalSugar is e + (5 - f). It ranks fragment clusters.
	TotalSugar int `json:"total_sugar" yaml:"total_sugar"`
	// ModifiedSugar adds the sugar-bearing modifications (dHex, HexNAc,
	// NeuAc, NeuGc) to TotalSugar. Reported only.
	ModifiedSugar int `json:"modified_sugar" yaml:"modified_sugar"`
	// Isomer is the explicit isomer letter, if the name carries one.
	Isomer string `json:"isomer,omitempty" yaml:"isomer,omitempty"`
	// IsomerAmbiguous is set for every f == 1 name without an explicit isomer.
	IsomerAmbiguous bool `json:"isomer_ambiguous" yaml:"isomer_ambiguous"`
	// IsomerCandidates annotates an ambiguous name with the known isomers
	// of its scaffold. It may hold a single letter.
	IsomerCandidates []string `json:"isomer_candidates,omitempty" yaml:"isomer_candidates,omitempty"`
}

// Identity is everything derived from a compound name.
type Identity struct {
	Scaffold      string
	Prefix        string
	Suffix        string
	Carbon        int
	Unsaturation  int
	Oxygenation   int
	Composition   Composition
	Modifications Modifications
	Category      Category
}

// NameError describes why a name could not be parsed.
type NameError struct {
	Name   string
	Reason string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Name, e.Reason)
}

// ParseName decodes G<e><f>[isomer][+MOD]*(<carbon>:<unsat>[;O<n>])[+MOD]*.
//
// Modifications may be written before or after the lipid suffix; the prefix
// key is rebuilt in canonical form so both spellings group together.
func ParseName(name string) (Identity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Identity{}, &NameError{Name: name, Reason: "empty name"}
	}
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return Identity{}, &NameError{Name: name, Reason: "does not match G<series><digit>(<carbon>:<unsat>[;O<n>])"}
	}

	e := sialicLetters[m[1][0]]
	f := int(m[2][0] - '0')
	scaffold := "G" + m[1] + m[2]
	isomer := m[3]

	candidates := isomerCandidates[scaffold]
	if isomer != "" && !contains(candidates, isomer) {
		return Identity{}, &NameError{Name: name, Reason: fmt.Sprintf("unknown isomer %q for %s", isomer, scaffold)}
	}

	var mods Modifications
	for _, part := range []string{m[4], m[10]} {
		for _, mm := range modRe.FindAllStringSubmatch(part, -1) {
			n := 1
			if mm[1] != "" {
				v, err := strconv.Atoi(mm[1])
				if err != nil || v < 1 {
					return Identity{}, &NameError{Name: name, Reason: fmt.Sprintf("invalid multiplicity %q", mm[1])}
				}
				n = v
			}
			mod, _ := lookupModification(mm[2])
			mods.Add(mod, n)
		}
	}

	carbon, err := strconv.Atoi(m[7])
	if err != nil || carbon == 0 {
		return Identity{}, &NameError{Name: name, Reason: "invalid carbon length"}
	}
	unsat, err := strconv.Atoi(m[8])
	if err != nil {
		return Identity{}, &NameError{Name: name, Reason: "invalid unsaturation"}
	}
	suffix := m[7] + ":" + m[8]
	oxy := 0
	if strings.Contains(name, ";O") {
		oxy = 1
		if m[9] != "" {
			oxy, err = strconv.Atoi(m[9])
			if err != nil {
				return Identity{}, &NameError{Name: name, Reason: "invalid oxygenation"}
			}
		}
		suffix += ";O"
		if oxy != 1 {
			suffix += strconv.Itoa(oxy)
		}
	}

	comp := Composition{
		SialicCount:    e,
		RemainingSugar: f,
		TotalSugar:     e + (5 - f),
		ModifiedSugar:  e + (5 - f) + mods.SugarUnits(),
		Isomer:         isomer,
	}
	if f == 1 && isomer == "" {
		comp.IsomerAmbiguous = true
		comp.IsomerCandidates = append([]string(nil), candidates...)
	}

	return Identity{
		Scaffold:      scaffold,
		Prefix:        scaffold + isomer + mods.String(),
		Suffix:        suffix,
		Carbon:        carbon,
		Unsaturation:  unsat,
		Oxygenation:   oxy,
		Composition:   comp,
		Modifications: mods,
		Category:      CategoryOf(e),
	}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
