// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// 保持時間 (RT) 解析パイプラインのエラー分類 (MalformedRecord, InsufficientAnchors,
// DegenerateFeature, ValidationFailure, ConfigurationError) を構造化されたエラー型として定義します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("rtguard-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler は警告ハンドラを設定します。
// 取り込み処理 (ingest) が出す DataConversionWarning などの処理方法を制御できます。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// DataConversionWarning は入力データが暗黙的に変換・除外された場合に発生する警告です。
type DataConversionWarning struct {
	FromType string
	ToType   string
	Reason   string
}

func (w *DataConversionWarning) Error() string {
	return fmt.Sprintf("data converted from %s to %s. Reason: %s", w.FromType, w.ToType, w.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("from_type", w.FromType).
		Str("to_type", w.ToType).
		Str("reason", w.Reason).
		Str("type", "DataConversionWarning")
}

// NewDataConversionWarning は新しいDataConversionWarningを作成します。
func NewDataConversionWarning(from, to, reason string) *DataConversionWarning {
	return &DataConversionWarning{FromType: from, ToType: to, Reason: reason}
}

// PlausibilityWarning は化学的妥当性チェックの結果です。
// 分類結果を取り消すことはなく、信頼度の説明としてレポートに添付されます。
type PlausibilityWarning struct {
	Check   string             `json:"check" yaml:"check"`
	Subject string             `json:"subject" yaml:"subject"`
	Message string             `json:"message" yaml:"message"`
	Stats   map[string]float64 `json:"stats,omitempty" yaml:"stats,omitempty"`
}

func (w *PlausibilityWarning) Error() string {
	return fmt.Sprintf("plausibility check %s failed for %s: %s", w.Check, w.Subject, w.Message)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *PlausibilityWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("check", w.Check).
		Str("subject", w.Subject).
		Str("message", w.Message).
		Str("type", "PlausibilityWarning")
	for k, v := range w.Stats {
		e.Float64(k, v)
	}
}

// NewPlausibilityWarning は新しいPlausibilityWarningを作成します。
func NewPlausibilityWarning(check, subject, message string, stats map[string]float64) *PlausibilityWarning {
	return &PlausibilityWarning{Check: check, Subject: subject, Message: message, Stats: stats}
}

// ===========================================================================
//
//	解析パイプラインのエラー型
//
// ===========================================================================

// MalformedRecordError は化合物名が解析できない、または数値列に数値以外が含まれる場合のエラーです。
// Row は 1 始まりのデータ行番号です（ヘッダ行は含みません）。
type MalformedRecordError struct {
	Row    int
	Name   string
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("rtguard: malformed record at row %d (%q): field %s: %s", e.Row, e.Name, e.Field, e.Reason)
	}
	return fmt.Sprintf("rtguard: malformed record at row %d (%q): %s", e.Row, e.Name, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *MalformedRecordError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("row", e.Row).
		Str("name", e.Name).
		Str("field", e.Field).
		Str("reason", e.Reason).
		Str("type", "MalformedRecordError")
}

// NewMalformedRecordError は新しいMalformedRecordErrorを作成し、スタックトレースを付与します。
func NewMalformedRecordError(row int, name, field, reason string) error {
	return errors.WithStack(&MalformedRecordError{Row: row, Name: name, Field: field, Reason: reason})
}

// InsufficientAnchorsError はグループ（または全体フォールバック）のアンカー数が足りない場合のエラーです。
type InsufficientAnchorsError struct {
	Scope string
	Have  int
	Need  int
}

func (e *InsufficientAnchorsError) Error() string {
	return fmt.Sprintf("rtguard: %s: insufficient anchors (have %d, need %d)", e.Scope, e.Have, e.Need)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InsufficientAnchorsError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("scope", e.Scope).
		Int("have", e.Have).
		Int("need", e.Need).
		Str("type", "InsufficientAnchorsError")
}

// NewInsufficientAnchorsError は新しいInsufficientAnchorsErrorを作成し、スタックトレースを付与します。
func NewInsufficientAnchorsError(scope string, have, need int) error {
	return errors.WithStack(&InsufficientAnchorsError{Scope: scope, Have: have, Need: need})
}

// DegenerateFeatureError は回帰の入力（または目的変数）の分散がゼロの場合のエラーです。
type DegenerateFeatureError struct {
	Scope    string
	Feature  string
	Distinct int
}

func (e *DegenerateFeatureError) Error() string {
	return fmt.Sprintf("rtguard: %s: degenerate feature %s (%d distinct values)", e.Scope, e.Feature, e.Distinct)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DegenerateFeatureError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("scope", e.Scope).
		Str("feature", e.Feature).
		Int("distinct", e.Distinct).
		Str("type", "DegenerateFeatureError")
}

// NewDegenerateFeatureError は新しいDegenerateFeatureErrorを作成し、スタックトレースを付与します。
func NewDegenerateFeatureError(scope, feature string, distinct int) error {
	return errors.WithStack(&DegenerateFeatureError{Scope: scope, Feature: feature, Distinct: distinct})
}

// ValidationFailure は化学ルール（例: O-アセチル化による RT の逆転）に違反した場合のエラーです。
type ValidationFailure struct {
	Rule     string
	Compound string
	Detail   string
}

func (e *ValidationFailure) Error() string {
	return fmt.Sprintf("rtguard: %s: %s violates rule: %s", e.Rule, e.Compound, e.Detail)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationFailure) MarshalZerologObject(event *zerolog.Event) {
	event.Str("rule", e.Rule).
		Str("compound", e.Compound).
		Str("detail", e.Detail).
		Str("type", "ValidationFailure")
}

// NewValidationFailure は新しいValidationFailureを作成し、スタックトレースを付与します。
func NewValidationFailure(rule, compound, detail string) error {
	return errors.WithStack(&ValidationFailure{Rule: rule, Compound: compound, Detail: detail})
}

// ConfigurationError は設定値が有効範囲外の場合のエラーです。解析開始前に致命的エラーとして扱われます。
type ConfigurationError struct {
	Param  string
	Reason string
	Value  interface{}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("rtguard: invalid configuration '%s': %s (got: %v)", e.Param, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ConfigurationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param", e.Param).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ConfigurationError")
}

// NewConfigurationError は新しいConfigurationErrorを作成し、スタックトレースを付与します。
func NewConfigurationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ConfigurationError{Param: param, Reason: reason, Value: value})
}

// InputError は入力テーブル全体が解析できない場合（必須列の欠落など）のエラーです。
type InputError struct {
	Column string
	Reason string
}

func (e *InputError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("rtguard: input: column %q: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("rtguard: input: %s", e.Reason)
}

// NewInputError は新しいInputErrorを作成し、スタックトレースを付与します。
func NewInputError(column, reason string) error {
	return errors.WithStack(&InputError{Column: column, Reason: reason})
}

// ===========================================================================
//
//	推定器のエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("rtguard: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("rtguard: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("rtguard: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError は回帰モデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rtguard: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("rtguard: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// ===========================================================================
//
//	エラー種別の判定
//
// ===========================================================================

// ErrorKind はレポートで集計されるエラー種別です。
type ErrorKind string

const (
	KindMalformedRecord     ErrorKind = "malformed_record"
	KindInsufficientAnchors ErrorKind = "insufficient_anchors"
	KindDegenerateFeature   ErrorKind = "degenerate_feature"
	KindValidationFailure   ErrorKind = "validation_failure"
	KindConfiguration       ErrorKind = "configuration_error"
	KindInput               ErrorKind = "input_error"
	KindNumerical           ErrorKind = "numerical_instability"
	KindPanic               ErrorKind = "panic"
	KindUnknown             ErrorKind = "unknown"
)

// KindOf はエラーチェーンを調べてエラー種別を返します。nil の場合は空文字列を返します。
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var (
		malformed    *MalformedRecordError
		insufficient *InsufficientAnchorsError
		degenerate   *DegenerateFeatureError
		failure      *ValidationFailure
		configErr    *ConfigurationError
		inputErr     *InputError
		numerical    *NumericalInstabilityError
		panicErr     *PanicError
	)
	switch {
	case errors.As(err, &malformed):
		return KindMalformedRecord
	case errors.As(err, &insufficient):
		return KindInsufficientAnchors
	case errors.As(err, &degenerate):
		return KindDegenerateFeature
	case errors.As(err, &failure):
		return KindValidationFailure
	case errors.As(err, &configErr):
		return KindConfiguration
	case errors.As(err, &inputErr):
		return KindInput
	case errors.As(err, &numerical):
		return KindNumerical
	case errors.As(err, &panicErr):
		return KindPanic
	default:
		return KindUnknown
	}
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	数値計算のエラー型
//
// ===========================================================================

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
// NaN、Inf などを検出します。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "ridge_solve", "loo_prediction"）
	Values    []float64 // 問題のある値
	Iteration int       // 発生したイテレーション番号（交差検証の fold 番号など）
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("rtguard: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	return errors.WithStack(&NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	})
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は特異行列の場合のエラーです。
	ErrSingularMatrix = New("singular matrix")
)
