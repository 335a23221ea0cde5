package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Use YAML tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
})

// Validate checks ranges and cross-field rules. The first violation is
// returned as a ConfigurationError.
func (c Config) Validate() error {
	if err := structValidator().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.NewConfigurationError(paramName(fe), formatRule(fe), fe.Value())
		}
		return errors.NewConfigurationError("config", err.Error(), nil)
	}

	switch {
	case c.Tier1.MinAnchors <= c.Tier2.MinAnchors:
		return errors.NewConfigurationError("tier1.min_anchors", "must exceed tier2.min_anchors", c.Tier1.MinAnchors)
	case c.Tier2.MinAnchors <= c.Tier3.MinAnchors:
		return errors.NewConfigurationError("tier2.min_anchors", "must exceed tier3.min_anchors", c.Tier2.MinAnchors)
	case c.Tier2.R2Threshold > c.Tier1.R2Threshold:
		return errors.NewConfigurationError("tier2.r2_threshold", "must not exceed tier1.r2_threshold", c.Tier2.R2Threshold)
	case c.Tier3.R2Threshold > c.Tier2.R2Threshold:
		return errors.NewConfigurationError("tier3.r2_threshold", "must not exceed tier2.r2_threshold", c.Tier3.R2Threshold)
	case c.GlobalR2Threshold > c.FamilyR2Threshold:
		return errors.NewConfigurationError("global_r2_threshold", "must not exceed family_r2_threshold", c.GlobalR2Threshold)
	}
	return nil
}

// paramName strips the root struct name from the namespace: "Config.tier1.r2_threshold" -> "tier1.r2_threshold".
func paramName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func formatRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must contain at least %s value(s)", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "required":
		return "must not be empty"
	default:
		return fmt.Sprintf("failed rule %q", fe.Tag())
	}
}
