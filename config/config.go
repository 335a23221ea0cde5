// Package config holds the explicit, immutable settings of one analysis run.
package config

import (
	"github.com/YuminosukeSato/rtguard/linear"
)

// Tier is one rung of the own-model ladder.
type Tier struct {
	MinAnchors  int     `mapstructure:"min_anchors" yaml:"min_anchors" json:"min_anchors" validate:"gte=3"`
	R2Threshold float64 `mapstructure:"r2_threshold" yaml:"r2_threshold" json:"r2_threshold" validate:"gt=0,lte=1"`
}

// Log configures the CLI logger. The analysis core never reads it, so empty
// values pass validation and mean info level, json format.
type Log struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" json:"format" validate:"omitempty,oneof=json text console"`
}

// Config is passed by value into pipeline.Run and never mutated afterwards.
type Config struct {
	// Tier1..Tier3 gate the group's own model. Tier 3 applies to groups with
	// at least Tier3.MinAnchors and fewer than Tier2.MinAnchors anchors.
	Tier1 Tier `mapstructure:"tier1" yaml:"tier1" json:"tier1"`
	Tier2 Tier `mapstructure:"tier2" yaml:"tier2" json:"tier2"`
	Tier3 Tier `mapstructure:"tier3" yaml:"tier3" json:"tier3"`

	FamilyR2Threshold float64 `mapstructure:"family_r2_threshold" yaml:"family_r2_threshold" json:"family_r2_threshold" validate:"gt=0,lte=1"`
	GlobalR2Threshold float64 `mapstructure:"global_r2_threshold" yaml:"global_r2_threshold" json:"global_r2_threshold" validate:"gt=0,lte=1"`
	// MaxFamilyOffset bounds each prefix's mean anchor residual (minutes)
	// under a pooled family model.
	MaxFamilyOffset float64 `mapstructure:"max_family_offset" yaml:"max_family_offset" json:"max_family_offset" validate:"gt=0"`
	// Families maps a prefix to its pooling family; unlisted prefixes pool by scaffold.
	Families map[string]string `mapstructure:"families" yaml:"families,omitempty" json:"families,omitempty" validate:"dive,keys,required,endkeys,required"`

	OutlierThreshold float64 `mapstructure:"outlier_threshold" yaml:"outlier_threshold" json:"outlier_threshold" validate:"gt=0"`
	ResidualStdFloor float64 `mapstructure:"residual_std_floor" yaml:"residual_std_floor" json:"residual_std_floor" validate:"gt=0"`
	RTTolerance      float64 `mapstructure:"rt_tolerance" yaml:"rt_tolerance" json:"rt_tolerance" validate:"gte=0,lte=5"`

	SecondaryDescriptors     bool `mapstructure:"secondary_descriptors" yaml:"secondary_descriptors" json:"secondary_descriptors"`
	MinAnchorsForDescriptors int  `mapstructure:"min_anchors_for_descriptors" yaml:"min_anchors_for_descriptors" json:"min_anchors_for_descriptors" validate:"gte=5"`

	KFolds        int       `mapstructure:"k_folds" yaml:"k_folds" json:"k_folds" validate:"gte=2"`
	LOOMaxAnchors int       `mapstructure:"loo_max_anchors" yaml:"loo_max_anchors" json:"loo_max_anchors" validate:"gte=3"`
	RandomSeed    int       `mapstructure:"random_seed" yaml:"random_seed" json:"random_seed" validate:"gte=0"`
	Alphas        []float64 `mapstructure:"alphas" yaml:"alphas" json:"alphas" validate:"min=1,dive,gt=0"`

	CategoryOrderTolerance    float64 `mapstructure:"category_order_tolerance" yaml:"category_order_tolerance" json:"category_order_tolerance" validate:"gte=0"`
	SugarCorrelationTolerance float64 `mapstructure:"sugar_correlation_tolerance" yaml:"sugar_correlation_tolerance" json:"sugar_correlation_tolerance" validate:"gte=-1,lte=1"`

	Log Log `mapstructure:"log" yaml:"log" json:"log"`
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		Tier1:                     Tier{MinAnchors: 10, R2Threshold: 0.75},
		Tier2:                     Tier{MinAnchors: 4, R2Threshold: 0.70},
		Tier3:                     Tier{MinAnchors: 3, R2Threshold: 0.70},
		FamilyR2Threshold:         0.70,
		GlobalR2Threshold:         0.50,
		MaxFamilyOffset:           0.5,
		OutlierThreshold:          2.5,
		ResidualStdFloor:          0.05,
		RTTolerance:               0.1,
		SecondaryDescriptors:      true,
		MinAnchorsForDescriptors:  10,
		KFolds:                    5,
		LOOMaxAnchors:             10,
		RandomSeed:                42,
		Alphas:                    linear.DefaultAlphas(),
		CategoryOrderTolerance:    0.1,
		SugarCorrelationTolerance: 0.2,
		Log:                       Log{Level: "info", Format: "json"},
	}
}
