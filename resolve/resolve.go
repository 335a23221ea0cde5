// Package resolve assigns a retention-time model to every prefix group by
// walking the fallback ladder from the group's own anchors down to the
// dataset-wide model.
package resolve

import (
	"fmt"
	"math"
	"sort"

	"github.com/YuminosukeSato/rtguard/compound"
	"github.com/YuminosukeSato/rtguard/config"
	"github.com/YuminosukeSato/rtguard/core/parallel"
	"github.com/YuminosukeSato/rtguard/dataset"
	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"github.com/YuminosukeSato/rtguard/pkg/log"
	"github.com/YuminosukeSato/rtguard/rtmodel"
)

// Tiers of the fallback ladder.
const (
	TierOwnLarge  = 1
	TierOwnMedium = 2
	TierOwnSmall  = 3
	TierFamily    = 4
	TierGlobal    = 5
	TierNone      = 6
)

// GlobalScope is the scope name of the dataset-wide model.
const GlobalScope = "global"

// ReasonNoCoverage is the outcome of tier 6.
const ReasonNoCoverage = "insufficient anchor coverage"

// groupParallelThreshold は並列化を始めるグループ数
const groupParallelThreshold = 4

// Attempt is a tier that was considered and rejected.
type Attempt struct {
	Tier int `json:"tier" yaml:"tier"`
	// ValidationR2 is set when a model was fitted for the tier.
	ValidationR2 *float64 `json:"validation_r2,omitempty" yaml:"validation_r2,omitempty"`
	Reason       string   `json:"reason" yaml:"reason"`
}

// Resolution is the outcome of the ladder for one prefix group.
type Resolution struct {
	Group dataset.Group
	Tier  int
	// Model is shared between groups resolved by the same family or global
	// model and must not be modified. Nil for tier 6.
	Model    *rtmodel.Model
	Attempts []Attempt
	// Reason explains tier 6.
	Reason string
	// Errors are the per-group errors met on the way (own fit failures,
	// missing anchors, recovered panics).
	Errors []error
}

// Resolver walks the ladder. It holds no per-run state.
type Resolver struct {
	cfg    config.Config
	logger log.Logger
}

// New creates a Resolver.
func New(cfg config.Config, logger log.Logger) *Resolver {
	if logger == nil {
		logger = log.Nop()
	}
	return &Resolver{cfg: cfg, logger: logger.With(log.ComponentKey, "resolve")}
}

func r2ptr(v float64) *float64 { return &v }

func anchorsOf(ds *dataset.Dataset, idx []int) []compound.Compound {
	out := make([]compound.Compound, len(idx))
	for i, j := range idx {
		out[i] = ds.Compounds[j]
	}
	return out
}

// Resolve returns one Resolution per group, in ds.Groups order.
//
// Own fits run in parallel; family and global models are fitted once, after
// all own fits joined, and only when some group needs them.
func (r *Resolver) Resolve(ds *dataset.Dataset) ([]Resolution, error) {
	res, err := parallel.Map(len(ds.Groups), groupParallelThreshold, func(i int) (Resolution, error) {
		g := ds.Groups[i]
		out := Resolution{Group: g}
		err := errors.SafeExecute("resolve own model "+g.Prefix, func() error {
			out = r.resolveOwn(ds, g)
			return nil
		})
		if err != nil {
			out = Resolution{Group: g, Errors: []error{err}, Attempts: []Attempt{{Tier: TierOwnLarge, Reason: err.Error()}}}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	if err := r.resolveFamilies(ds, res); err != nil {
		return nil, err
	}
	r.resolveGlobal(ds, res)

	for i := range res {
		if res[i].Tier == 0 {
			res[i].Tier = TierNone
			res[i].Reason = ReasonNoCoverage
			r.recordUncovered(&res[i])
		}
		r.logResolution(res[i])
	}
	return res, nil
}

// recordUncovered makes sure an unresolved group carries an
// InsufficientAnchors error, even when every tier was tried and rejected on
// R². The requirement reported is the tier 1 minimum, the only own tier
// whose gate is not already below the group's size.
func (r *Resolver) recordUncovered(res *Resolution) {
	for _, err := range res.Errors {
		if errors.KindOf(err) == errors.KindInsufficientAnchors {
			return
		}
	}
	n := res.Group.AnchorCount()
	need := r.cfg.Tier1.MinAnchors
	if need <= n {
		need = n + 1
	}
	res.Errors = append(res.Errors, errors.NewInsufficientAnchorsError(res.Group.Prefix+": no tier accepted", n, need))
}

// resolveOwn applies tiers 1 to 3. Groups with fewer than 2 anchors resolve
// to tier 6 without any fit; groups with exactly 2 anchors skip their own fit.
func (r *Resolver) resolveOwn(ds *dataset.Dataset, g dataset.Group) Resolution {
	out := Resolution{Group: g}
	n := g.AnchorCount()

	if n < 2 {
		out.Tier = TierNone
		out.Reason = fmt.Sprintf("%s: %d anchor(s), at least 2 required", ReasonNoCoverage, n)
		out.Errors = append(out.Errors, errors.NewInsufficientAnchorsError(g.Prefix, n, 2))
		return out
	}
	if n < r.cfg.Tier3.MinAnchors {
		out.Attempts = append(out.Attempts, Attempt{
			Tier:   TierOwnSmall,
			Reason: fmt.Sprintf("%d anchors: own model requires at least %d", n, r.cfg.Tier3.MinAnchors),
		})
		out.Errors = append(out.Errors, errors.NewInsufficientAnchorsError(g.Prefix, n, r.cfg.Tier3.MinAnchors))
		return out
	}

	m, err := rtmodel.Fit(g.Prefix, rtmodel.ProvenanceOwn, anchorsOf(ds, g.Anchors), r.cfg)
	if err != nil {
		out.Attempts = append(out.Attempts, Attempt{Tier: r.highestOwnTier(n), Reason: err.Error()})
		out.Errors = append(out.Errors, err)
		return out
	}

	rules := []struct {
		tier    int
		rule    config.Tier
		applies bool
		upper   bool
	}{
		{TierOwnLarge, r.cfg.Tier1, n >= r.cfg.Tier1.MinAnchors, true},
		{TierOwnMedium, r.cfg.Tier2, n >= r.cfg.Tier2.MinAnchors, true},
		{TierOwnSmall, r.cfg.Tier3, n >= r.cfg.Tier3.MinAnchors && n < r.cfg.Tier2.MinAnchors, false},
	}
	for _, rule := range rules {
		switch {
		case rule.applies && m.ValidationR2 >= rule.rule.R2Threshold:
			out.Tier = rule.tier
			out.Model = m
			return out
		case rule.applies:
			out.Attempts = append(out.Attempts, Attempt{
				Tier:         rule.tier,
				ValidationR2: r2ptr(m.ValidationR2),
				Reason:       fmt.Sprintf("validation R² %.4f below %.2f", m.ValidationR2, rule.rule.R2Threshold),
			})
		case rule.upper:
			out.Attempts = append(out.Attempts, Attempt{
				Tier:         rule.tier,
				ValidationR2: r2ptr(m.ValidationR2),
				Reason:       fmt.Sprintf("%d anchors: tier requires at least %d", n, rule.rule.MinAnchors),
			})
		}
	}
	return out
}

func (r *Resolver) highestOwnTier(n int) int {
	switch {
	case n >= r.cfg.Tier1.MinAnchors:
		return TierOwnLarge
	case n >= r.cfg.Tier2.MinAnchors:
		return TierOwnMedium
	default:
		return TierOwnSmall
	}
}

type familyOutcome struct {
	model    *rtmodel.Model
	accepted bool
	attempt  Attempt
}

// resolveFamilies applies tier 4 to every unresolved group with at least 2 anchors.
// A recovered panic in one family fit only fails that family; the returned
// error is reserved for the fan-out itself.
func (r *Resolver) resolveFamilies(ds *dataset.Dataset, res []Resolution) error {
	members := make(map[string][]int) // family -> group indexes
	for i, g := range ds.Groups {
		members[g.Family] = append(members[g.Family], i)
	}

	needed := make(map[string]bool)
	for i := range res {
		if res[i].Tier != 0 {
			continue
		}
		fam := res[i].Group.Family
		if !hasOtherAnchoredPrefix(ds, members[fam], i) {
			res[i].Attempts = append(res[i].Attempts, Attempt{
				Tier:   TierFamily,
				Reason: fmt.Sprintf("family %q has no other prefix with anchors", fam),
			})
			continue
		}
		needed[fam] = true
	}
	if len(needed) == 0 {
		return nil
	}

	families := make([]string, 0, len(needed))
	for f := range needed {
		families = append(families, f)
	}
	sort.Strings(families)

	outcomes, err := parallel.Map(len(families), groupParallelThreshold, func(i int) (familyOutcome, error) {
		var out familyOutcome
		err := errors.SafeExecute("resolve family "+families[i], func() error {
			out = r.fitFamily(ds, families[i], members[families[i]])
			return nil
		})
		if err != nil {
			out = familyOutcome{attempt: Attempt{Tier: TierFamily, Reason: err.Error()}}
		}
		return out, nil
	})
	if err != nil {
		return err
	}
	byFamily := make(map[string]familyOutcome, len(families))
	for i, f := range families {
		byFamily[f] = outcomes[i]
	}

	for i := range res {
		if res[i].Tier != 0 || !needed[res[i].Group.Family] {
			continue
		}
		o := byFamily[res[i].Group.Family]
		if o.accepted {
			res[i].Tier = TierFamily
			res[i].Model = o.model
			continue
		}
		res[i].Attempts = append(res[i].Attempts, o.attempt)
	}
	return nil
}

func hasOtherAnchoredPrefix(ds *dataset.Dataset, groupIdx []int, self int) bool {
	for _, gi := range groupIdx {
		if gi != self && ds.Groups[gi].AnchorCount() > 0 {
			return true
		}
	}
	return false
}

// fitFamily pools the anchors of every prefix in the family and accepts the
// pooled model only if no contributing prefix is systematically shifted.
func (r *Resolver) fitFamily(ds *dataset.Dataset, family string, groupIdx []int) familyOutcome {
	var pooled []compound.Compound
	for _, gi := range groupIdx {
		pooled = append(pooled, anchorsOf(ds, ds.Groups[gi].Anchors)...)
	}

	m, err := rtmodel.Fit(family, rtmodel.ProvenanceFamily, pooled, r.cfg)
	if err != nil {
		return familyOutcome{attempt: Attempt{Tier: TierFamily, Reason: err.Error()}}
	}
	if m.ValidationR2 < r.cfg.FamilyR2Threshold {
		return familyOutcome{model: m, attempt: Attempt{
			Tier:         TierFamily,
			ValidationR2: r2ptr(m.ValidationR2),
			Reason:       fmt.Sprintf("pooled validation R² %.4f below %.2f", m.ValidationR2, r.cfg.FamilyR2Threshold),
		}}
	}

	for _, gi := range groupIdx {
		g := ds.Groups[gi]
		if g.AnchorCount() == 0 {
			continue
		}
		offset := MeanOffset(m, anchorsOf(ds, g.Anchors))
		if math.Abs(offset) > r.cfg.MaxFamilyOffset {
			return familyOutcome{model: m, attempt: Attempt{
				Tier:         TierFamily,
				ValidationR2: r2ptr(m.ValidationR2),
				Reason: fmt.Sprintf("prefix %s offset %+.4f min exceeds ±%.2f under pooled model",
					g.Prefix, offset, r.cfg.MaxFamilyOffset),
			}}
		}
	}
	return familyOutcome{model: m, accepted: true}
}

// MeanOffset is the mean residual of anchors under m.
func MeanOffset(m *rtmodel.Model, anchors []compound.Compound) float64 {
	if len(anchors) == 0 {
		return 0
	}
	var sum float64
	for _, c := range anchors {
		sum += m.Residual(c)
	}
	return sum / float64(len(anchors))
}

// resolveGlobal applies tier 5 to every group still unresolved.
func (r *Resolver) resolveGlobal(ds *dataset.Dataset, res []Resolution) {
	pending := false
	for i := range res {
		if res[i].Tier == 0 {
			pending = true
			break
		}
	}
	if !pending {
		return
	}

	var all []compound.Compound
	for _, g := range ds.Groups {
		all = append(all, anchorsOf(ds, g.Anchors)...)
	}

	var (
		m       *rtmodel.Model
		attempt Attempt
		fitErr  error
	)
	err := errors.SafeExecute("resolve global model", func() error {
		var err error
		m, err = rtmodel.Fit(GlobalScope, rtmodel.ProvenanceGlobal, all, r.cfg)
		return err
	})
	switch {
	case err != nil:
		fitErr = err
		attempt = Attempt{Tier: TierGlobal, Reason: err.Error()}
	case m.ValidationR2 < r.cfg.GlobalR2Threshold:
		attempt = Attempt{
			Tier:         TierGlobal,
			ValidationR2: r2ptr(m.ValidationR2),
			Reason:       fmt.Sprintf("global validation R² %.4f below %.2f", m.ValidationR2, r.cfg.GlobalR2Threshold),
		}
	default:
		r.logger.Info("global model fitted",
			log.AnchorsKey, m.SampleCount,
			log.ValidationR2Key, m.ValidationR2,
			log.AlphaKey, m.Alpha,
		)
	}

	for i := range res {
		if res[i].Tier != 0 {
			continue
		}
		if attempt.Reason == "" {
			res[i].Tier = TierGlobal
			res[i].Model = m
			continue
		}
		res[i].Attempts = append(res[i].Attempts, attempt)
		if fitErr != nil {
			res[i].Errors = append(res[i].Errors, fitErr)
		}
	}
}

func (r *Resolver) logResolution(res Resolution) {
	fields := []any{
		log.PrefixKey, res.Group.Prefix,
		log.FamilyKey, res.Group.Family,
		log.AnchorsKey, res.Group.AnchorCount(),
		log.TierKey, res.Tier,
	}
	if res.Model == nil {
		r.logger.Warn("group has no usable model", append(fields, "reason", res.Reason)...)
		return
	}
	r.logger.Debug("group resolved", append(fields,
		log.ProvenanceKey, string(res.Model.Provenance),
		log.ValidationR2Key, res.Model.ValidationR2,
		log.TrainingR2Key, res.Model.TrainingR2,
	)...)
}
