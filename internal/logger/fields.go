package logger

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	FieldRequestID = "request_id"
	FieldCriterion = "criterion"
	// FieldTier is the cache tier that answered, omitted for computed results.
	FieldTier     = "cache_tier"
	FieldProvider = "provider"
	FieldMode     = "provider_mode"
)

// StringField is a key/value pair that is dropped when either side is blank.
type StringField struct {
	Key   string
	Value string
}

// StringFields trims and converts pairs into zap fields, skipping blanks so
// that optional context does not show up as empty keys.
func StringFields(fields ...StringField) []zap.Field {
	var out []zap.Field
	for _, f := range fields {
		k, v := strings.TrimSpace(f.Key), strings.TrimSpace(f.Value)
		if k != "" && v != "" {
			out = append(out, zap.String(k, v))
		}
	}
	return out
}

// WithFields returns logger.With(fields...). A nil logger becomes a no-op one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	switch {
	case logger == nil:
		return zap.NewNop()
	case len(fields) == 0:
		return logger
	default:
		return logger.With(fields...)
	}
}

// CriterionFields describes a criterion evaluation. A zero tier is dropped.
func CriterionFields(criterion string, tier int) []zap.Field {
	t := ""
	if tier > 0 {
		t = strconv.Itoa(tier)
	}

	return StringFields(
		StringField{Key: FieldCriterion, Value: criterion},
		StringField{Key: FieldTier, Value: t},
	)
}

// ProviderFields names an external provider and the way it is used.
func ProviderFields(provider, mode string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldMode, Value: mode},
	)
}

func WithProvider(logger *zap.Logger, provider, mode string) *zap.Logger {
	return WithFields(logger, ProviderFields(provider, mode)...)
}
