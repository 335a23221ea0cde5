package dataset

import (
	"sort"

	"github.com/YuminosukeSato/rtguard/compound"
)

// Rejected is a data row that could not be turned into a compound.
type Rejected struct {
	Row  int
	Name string
	Err  error
}

// Group is a prefix group: every compound sharing one prefix key.
type Group struct {
	Prefix string
	// Family is the pooling key used when the group falls back to a family model.
	Family string
	// Members and Anchors index into Dataset.Compounds, in input order.
	Members []int
	Anchors []int
}

// Dataset is the parsed input of one run.
type Dataset struct {
	// Compounds holds every parsed row in input order.
	Compounds []compound.Compound
	// Rejected holds malformed rows in input order.
	Rejected []Rejected
	// Groups is sorted by prefix.
	Groups []Group
}

// Load parses the table and partitions the compounds by prefix.
// Only a missing required column fails the call; bad rows are collected in
// Dataset.Rejected. families maps a prefix to its family key; prefixes not
// listed use their scaffold.
func Load(t Table, families map[string]string) (*Dataset, error) {
	idx, err := ColumnIndex(t.Header)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{}
	for i, cells := range t.Rows {
		row := i + 1
		c, err := parseRow(row, cells, idx)
		if err != nil {
			name := ""
			if j := idx[ColName]; j < len(cells) {
				name = cells[j]
			}
			ds.Rejected = append(ds.Rejected, Rejected{Row: row, Name: name, Err: err})
			continue
		}
		ds.Compounds = append(ds.Compounds, c)
	}

	ds.Groups = Partition(ds.Compounds, families)
	return ds, nil
}

// Partition groups compounds by prefix. Groups are sorted by prefix and
// members keep input order.
func Partition(compounds []compound.Compound, families map[string]string) []Group {
	byPrefix := make(map[string]int)
	var groups []Group
	for i, c := range compounds {
		gi, ok := byPrefix[c.Prefix]
		if !ok {
			gi = len(groups)
			byPrefix[c.Prefix] = gi
			groups = append(groups, Group{Prefix: c.Prefix, Family: FamilyOf(c, families)})
		}
		groups[gi].Members = append(groups[gi].Members, i)
		if c.IsAnchor {
			groups[gi].Anchors = append(groups[gi].Anchors, i)
		}
	}
	sort.Slice(groups, func(a, b int) bool {
		return groups[a].Prefix < groups[b].Prefix
	})
	return groups
}

// FamilyOf returns the pooling family of c.
func FamilyOf(c compound.Compound, families map[string]string) string {
	if f, ok := families[c.Prefix]; ok && f != "" {
		return f
	}
	return c.Scaffold
}

// AnchorCount returns the number of anchors in g.
func (g Group) AnchorCount() int {
	return len(g.Anchors)
}
