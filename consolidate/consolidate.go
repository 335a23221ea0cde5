// Package consolidate merges in-source fragments into their parent compound.
//
// Fragments share the parent's lipid suffix and co-elute with it; the
// member with the most sugars is kept as the parent. Within each suffix the
// valid compounds are sorted by retention time once and scanned with a single
// forward window.
package consolidate

import (
	"fmt"
	"sort"

	"github.com/YuminosukeSato/rtguard/compound"
	"github.com/YuminosukeSato/rtguard/validate"
)

// rtEpsilon absorbs floating-point error in RT differences (12.3 - 12.2 > 0.1).
const rtEpsilon = 1e-9

// Cluster is a window of co-eluting valid compounds with the same suffix.
type Cluster struct {
	Suffix  string  `json:"suffix" yaml:"suffix"`
	RTStart float64 `json:"rt_start" yaml:"rt_start"`
	RTEnd   float64 `json:"rt_end" yaml:"rt_end"`
	// Members are input rows in (RT, row) order.
	Members   []int  `json:"members" yaml:"members"`
	Canonical int    `json:"canonical" yaml:"canonical"`
	Name      string `json:"canonical_name" yaml:"canonical_name"`
	Fragments []int  `json:"fragments" yaml:"fragments"`
	// MergedVolume is the canonical volume plus every fragment volume. It
	// always equals TotalVolume.
	MergedVolume float64 `json:"merged_volume" yaml:"merged_volume"`
	// TotalVolume is the sum of all member volumes before merging.
	TotalVolume float64 `json:"total_volume" yaml:"total_volume"`
}

// RTSpan is the retention-time width of the window.
func (c Cluster) RTSpan() float64 {
	return c.RTEnd - c.RTStart
}

// Result holds the clusters and the per-compound volumes after merging.
type Result struct {
	Clusters []Cluster
	// Volumes is indexed like the input compounds. Fragments keep their
	// original volume here; their contribution is counted in the canonical.
	Volumes []float64
}

// Consolidate finds fragment clusters among compounds whose record is valid.
// Every member of a cluster other than its canonical one is marked as a
// fragment in records, and the canonical volume becomes the cluster total.
func Consolidate(compounds []compound.Compound, records []validate.Record, rtTolerance float64) Result {
	res := Result{Volumes: make([]float64, len(compounds))}
	bySuffix := make(map[string][]int)
	for i, c := range compounds {
		res.Volumes[i] = c.Volume
		if records[i].Status == validate.StatusValid {
			bySuffix[c.Suffix] = append(bySuffix[c.Suffix], i)
		}
	}

	suffixes := make([]string, 0, len(bySuffix))
	for s := range bySuffix {
		suffixes = append(suffixes, s)
	}
	sort.Strings(suffixes)

	for _, s := range suffixes {
		idx := bySuffix[s]
		sort.Slice(idx, func(a, b int) bool {
			ca, cb := compounds[idx[a]], compounds[idx[b]]
			if ca.RetentionTime != cb.RetentionTime {
				return ca.RetentionTime < cb.RetentionTime
			}
			return ca.Row < cb.Row
		})

		for start := 0; start < len(idx); {
			end := start + 1
			startRT := compounds[idx[start]].RetentionTime
			for end < len(idx) && compounds[idx[end]].RetentionTime-startRT <= rtTolerance+rtEpsilon {
				end++
			}
			if end-start >= 2 {
				res.Clusters = append(res.Clusters, merge(compounds, records, res.Volumes, s, idx[start:end]))
			}
			start = end
		}
	}
	return res
}

func merge(compounds []compound.Compound, records []validate.Record, volumes []float64, suffix string, window []int) Cluster {
	canon := window[0]
	for _, i := range window[1:] {
		if better(compounds[i], compounds[canon]) {
			canon = i
		}
	}

	cl := Cluster{
		Suffix:    suffix,
		RTStart:   compounds[window[0]].RetentionTime,
		RTEnd:     compounds[window[len(window)-1]].RetentionTime,
		Canonical: compounds[canon].Row,
		Name:      compounds[canon].Name,
		Members:   make([]int, len(window)),
		Fragments: []int{},
	}

	parent := compounds[canon]
	merged := parent.Volume
	for k, i := range window {
		c := compounds[i]
		cl.Members[k] = c.Row
		cl.TotalVolume += c.Volume
		if i == canon {
			continue
		}
		merged += c.Volume
		cl.Fragments = append(cl.Fragments, c.Row)
		records[i].Status = validate.StatusFragment
		records[i].FragmentReason = fmt.Sprintf("in-source fragment of %s (row %d): ΔRT %+.3f min, sugars %d vs %d",
			parent.Name, parent.Row, c.RetentionTime-parent.RetentionTime, c.SugarCount(), parent.SugarCount())
	}
	cl.MergedVolume = merged
	volumes[canon] = merged
	return cl
}

// better reports whether a should replace b as canonical: more sugars, then
// larger volume, then earlier input row.
func better(a, b compound.Compound) bool {
	if a.SugarCount() != b.SugarCount() {
		return a.SugarCount() > b.SugarCount()
	}
	if a.Volume != b.Volume {
		return a.Volume > b.Volume
	}
	return a.Row < b.Row
}
