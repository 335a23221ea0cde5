package errors

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestTaxonomyMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantMsg  string
		wantKind ErrorKind
	}{
		{
			name:     "malformed with field",
			err:      NewMalformedRecordError(3, "GD1(36:1;O2)", "RT", "not a number: \"abc\""),
			wantMsg:  `rtguard: malformed record at row 3 ("GD1(36:1;O2)"): field RT: not a number: "abc"`,
			wantKind: KindMalformedRecord,
		},
		{
			name:     "malformed name",
			err:      NewMalformedRecordError(7, "XYZ", "", "unrecognized prefix"),
			wantMsg:  `rtguard: malformed record at row 7 ("XYZ"): unrecognized prefix`,
			wantKind: KindMalformedRecord,
		},
		{
			name:     "insufficient anchors",
			err:      NewInsufficientAnchorsError("GT1b", 1, 2),
			wantMsg:  "rtguard: GT1b: insufficient anchors (have 1, need 2)",
			wantKind: KindInsufficientAnchors,
		},
		{
			name:     "degenerate feature",
			err:      NewDegenerateFeatureError("GM3", "LogP", 1),
			wantMsg:  "rtguard: GM3: degenerate feature LogP (1 distinct values)",
			wantKind: KindDegenerateFeature,
		},
		{
			name:     "validation failure",
			err:      NewValidationFailure("o-acetylation", "GD1+OAc(36:1;O2)", "RT 9.80 <= base RT 10.10"),
			wantMsg:  "rtguard: o-acetylation: GD1+OAc(36:1;O2) violates rule: RT 9.80 <= base RT 10.10",
			wantKind: KindValidationFailure,
		},
		{
			name:     "configuration",
			err:      NewConfigurationError("outlier_threshold", "must be positive", -1.0),
			wantMsg:  "rtguard: invalid configuration 'outlier_threshold': must be positive (got: -1)",
			wantKind: KindConfiguration,
		},
		{
			name:     "input",
			err:      NewInputError("Anchor", "required column missing"),
			wantMsg:  `rtguard: input: column "Anchor": required column missing`,
			wantKind: KindInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", tt.err.Error(), tt.wantMsg)
			}
			if got := KindOf(tt.err); got != tt.wantKind {
				t.Errorf("KindOf() = %v, want %v", got, tt.wantKind)
			}
			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", tt.err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	base := NewDegenerateFeatureError("global", "RT", 1)
	wrapped := Wrapf(base, "fit family %s", "GD1")

	if KindOf(wrapped) != KindDegenerateFeature {
		t.Errorf("KindOf(wrapped) = %v", KindOf(wrapped))
	}
	if KindOf(nil) != "" {
		t.Error("KindOf(nil) should be empty")
	}
	if KindOf(New("plain")) != KindUnknown {
		t.Error("plain errors should be unknown")
	}
	if !strings.Contains(wrapped.Error(), "fit family GD1") {
		t.Errorf("wrapped message lost context: %v", wrapped)
	}
}

func TestNewModelError(t *testing.T) {
	err := NewModelError("RidgeCV.Fit", "singular matrix", ErrSingularMatrix)
	if err.Error() != "rtguard: RidgeCV.Fit: singular matrix: singular matrix" {
		t.Errorf("Error() = %v", err.Error())
	}
	if !Is(err, ErrSingularMatrix) {
		t.Error("ModelError should unwrap to ErrSingularMatrix")
	}
	var modelErr *ModelError
	if !As(err, &modelErr) {
		t.Error("Error should be castable to *ModelError")
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("RidgeCV.Predict", 3, 1, 1)
	want := "rtguard: RidgeCV.Predict: dimension mismatch on axis 1 (features). Expected 3, got 1"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestWarnRoutesToZerolog(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	SetZerologWarnFunc(func(w error) {
		if m, ok := w.(zerolog.LogObjectMarshaler); ok {
			logger.Warn().EmbedObject(m).Msg(w.Error())
			return
		}
		logger.Warn().Msg(w.Error())
	})
	defer SetZerologWarnFunc(nil)

	Warn(NewPlausibilityWarning("category_order", "GD>GM", "median RT inverted", map[string]float64{"gd_median": 9.1}))

	out := buf.String()
	if !strings.Contains(out, `"check":"category_order"`) {
		t.Errorf("zerolog output missing structured fields: %s", out)
	}
	if !strings.Contains(out, `"gd_median":9.1`) {
		t.Errorf("zerolog output missing stats: %s", out)
	}
}

func TestWarnFallsBackToHandler(t *testing.T) {
	var got error
	SetWarningHandler(func(w error) { got = w })
	defer SetWarningHandler(nil)

	w := NewDataConversionWarning("string", "skip", "blank row")
	Warn(w)
	if got != w {
		t.Errorf("handler received %v, want %v", got, w)
	}
}

func TestNumericalHelpers(t *testing.T) {
	if err := CheckNumericalStability("ok", []float64{1, 2, 3}, 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := CheckNumericalStability("loo_prediction", []float64{1, math.NaN()}, 4)
	if KindOf(err) != KindNumerical {
		t.Errorf("KindOf = %v, want numerical", KindOf(err))
	}
	if FloorAbs(0.001, 0.05) != 0.05 || FloorAbs(-0.001, 0.05) != -0.05 || FloorAbs(0.3, 0.05) != 0.3 {
		t.Error("FloorAbs returned unexpected values")
	}
}
