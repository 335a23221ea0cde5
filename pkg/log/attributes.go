// Package log defines standard attribute keys for analysis runs.
//
// The attributes are organized into categories:
//   - Operation Context
//   - Data Shape
//   - Model and Resolution
//   - Error Context
//
// Keys follow a hierarchical naming convention (e.g. "rt.prefix", "data.anchors")
// so log lines from different stages can be filtered together.

package log

// Operation Context
const (
	// ComponentKey identifies which stage is logging.
	// Examples: "dataset", "rtmodel", "resolve", "validate", "consolidate", "audit"
	ComponentKey = "ml.component"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "cross_validate", "classify"
	OperationKey = "ml.operation"

	// RunIDKey identifies a single CLI invocation.
	RunIDKey = "run.id"
)

// Data Shape
const (
	// SamplesKey indicates the number of rows used by an operation.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of regression features.
	FeaturesKey = "data.features"

	// AnchorsKey is the number of anchor compounds behind a fit.
	AnchorsKey = "data.anchors"

	// CompoundsKey is the number of compounds in a group or run.
	CompoundsKey = "data.compounds"

	// GroupsKey is the number of prefix groups in a run.
	GroupsKey = "data.groups"

	// RowKey is a 1-based input row index.
	RowKey = "data.row"
)

// Model and Resolution
const (
	// PrefixKey is the prefix group key, e.g. "GD1+OAc".
	PrefixKey = "rt.prefix"

	// FamilyKey is the pooling family key used by tier 4.
	FamilyKey = "rt.family"

	// SuffixKey is the lipid tail descriptor, e.g. "36:1;O2".
	SuffixKey = "rt.suffix"

	// TierKey is the fallback tier (1..6).
	TierKey = "rt.tier"

	// ProvenanceKey is the model provenance (own, family, global).
	ProvenanceKey = "rt.provenance"

	// TrainingR2Key records in-sample R².
	TrainingR2Key = "metrics.training_r2"

	// ValidationR2Key records cross-validated R².
	ValidationR2Key = "metrics.validation_r2"

	// ValidationMethodKey is "loo" or "kfold".
	ValidationMethodKey = "metrics.validation_method"

	// AlphaKey records the selected ridge regularization strength.
	AlphaKey = "hyperparams.alpha"

	// ResidualStdKey records the floored anchor residual standard deviation.
	ResidualStdKey = "metrics.residual_std"

	// ThresholdKey records a decision threshold.
	ThresholdKey = "preds.threshold"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// SuggestionKey provides helpful suggestions for resolving issues.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit           = "fit"
	OperationPredict       = "predict"
	OperationCrossValidate = "cross_validate"
	OperationClassify      = "classify"
	OperationConsolidate   = "consolidate"
	OperationAudit         = "audit"
)
