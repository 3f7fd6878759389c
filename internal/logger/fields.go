package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the translation provider name.
	FieldProvider = "translate_provider"
	// FieldModel is the structured log field key for the translation model identifier.
	FieldModel = "translate_model"
	// FieldGroup is the structured log field key for a feature group name.
	FieldGroup = "feature_group"
	// FieldStage is the structured log field key for the assembler stage.
	FieldStage = "stage"
	// FieldRequest is the structured log field key for a prediction request id.
	FieldRequest = "request_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger is replaced by a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns fields describing the translation provider and model.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields attaches the translation provider fields to the logger.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// GroupFields returns fields describing a feature group processed by an assembler stage.
func GroupFields(group, stage string) []zap.Field {
	return StringFields(
		StringField{Key: FieldGroup, Value: group},
		StringField{Key: FieldStage, Value: stage},
	)
}
