// Package message validates and normalizes inbound/outbound chat payloads
// before they are persisted.
package message

import (
	"strings"

	"go.uber.org/zap"
)

// Skip reasons returned by Validate. They are machine-readable: callers skip
// persistence silently instead of treating them as errors.
const (
	ReasonEmptyMessage       = "empty_message"
	ReasonPlaceholderContent = "placeholder_content"
)

// DefaultMaxContentLength bounds stored message bodies.
const DefaultMaxContentLength = 10000

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	IsValid bool
	Reason  string
}

// TypeResult is the outcome of ValidateType.
type TypeResult struct {
	IsValid        bool
	NormalizedType string
}

// placeholders are gateway-emitted media-type markers that leak into the
// text field. They are not user text and must never be stored as content.
var placeholders = map[string]bool{
	"[audio]":        true,
	"[áudio]":        true,
	"[image]":        true,
	"[imagem]":       true,
	"[video]":        true,
	"[vídeo]":        true,
	"[document]":     true,
	"[documento]":    true,
	"[sticker]":      true,
	"[figurinha]":    true,
	"[location]":     true,
	"[localização]":  true,
	"[contact]":      true,
	"[contato]":      true,
	"[voice]":        true,
	"[voice note]":   true,
}

// typeAliases maps legacy gateway type names onto the canonical set.
var typeAliases = map[string]string{
	"chat":     "text",
	"ptt":      "audio",
	"voice":    "audio",
	"vcard":    "contact",
	"document": "document",
}

// canonicalTypes is the closed set of persistable message types.
var canonicalTypes = map[string]bool{
	"text":     true,
	"image":    true,
	"audio":    true,
	"video":    true,
	"document": true,
	"sticker":  true,
	"location": true,
	"contact":  true,
}

// unsupportedTypes are recognized-but-not-ingested content kinds. Distinct
// from invalid: the caller skips persistence without logging an error.
var unsupportedTypes = map[string]bool{
	"poll":          true,
	"poll_creation": true,
	"reaction":      true,
	"product":       true,
	"product_list":  true,
	"order":         true,
}

// previewLabels prefix non-text previews with a bracketed marker.
var previewLabels = map[string]string{
	"image":    "[Imagem]",
	"audio":    "[Áudio]",
	"video":    "[Vídeo]",
	"document": "[Documento]",
	"sticker":  "[Figurinha]",
	"location": "[Localização]",
	"contact":  "[Contato]",
}

// Validator normalizes message payloads. It is stateless apart from the
// logger used for unknown-type warnings.
type Validator struct {
	logger *zap.Logger
}

// NewValidator constructs a Validator.
func NewValidator(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{logger: logger}
}

// Validate decides whether a payload is worth persisting. A message must
// carry content or media; placeholder-only content counts as empty text.
func (v *Validator) Validate(content, mediaURL string) ValidationResult {
	trimmed := strings.TrimSpace(content)
	hasMedia := strings.TrimSpace(mediaURL) != ""

	if trimmed == "" && !hasMedia {
		return ValidationResult{Reason: ReasonEmptyMessage}
	}
	if v.IsPlaceholder(trimmed) && !hasMedia {
		return ValidationResult{Reason: ReasonPlaceholderContent}
	}
	return ValidationResult{IsValid: true}
}

// IsPlaceholder reports whether content is exactly a gateway media marker.
// Markers accompanying real media pass Validate, but callers must drop them
// before persisting: they are never user text.
func (v *Validator) IsPlaceholder(content string) bool {
	trimmed := strings.TrimSpace(content)
	return trimmed != "" && placeholders[strings.ToLower(trimmed)]
}

// ValidateType maps a gateway type name onto the canonical set. Unrecognized
// types are coerced to text with a warning rather than rejected.
func (v *Validator) ValidateType(messageType string) TypeResult {
	normalized := strings.ToLower(strings.TrimSpace(messageType))
	if alias, ok := typeAliases[normalized]; ok {
		normalized = alias
	}
	if canonicalTypes[normalized] {
		return TypeResult{IsValid: true, NormalizedType: normalized}
	}
	v.logger.Warn("unrecognized message type, defaulting to text",
		zap.String("type", messageType))
	return TypeResult{IsValid: true, NormalizedType: "text"}
}

// IsUnsupportedType reports whether the type is recognized but not ingested.
func (v *Validator) IsUnsupportedType(messageType string) bool {
	return unsupportedTypes[strings.ToLower(strings.TrimSpace(messageType))]
}

// Sanitize strips embedded NUL characters and normalizes line endings to LF.
func (v *Validator) Sanitize(content string) string {
	content = strings.ReplaceAll(content, "\x00", "")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return content
}

// Truncate bounds content to maxLength runes; maxLength <= 0 applies the
// default budget.
func (v *Validator) Truncate(content string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxContentLength
	}
	runes := []rune(content)
	if len(runes) <= maxLength {
		return content
	}
	return string(runes[:maxLength])
}

// PreviewContent builds a short inbox preview. Non-text types are prefixed
// with a localized label whose length is charged against the budget, so the
// total never exceeds maxLength.
func (v *Validator) PreviewContent(content, messageType string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = 50
	}
	label := previewLabels[strings.ToLower(strings.TrimSpace(messageType))]
	trimmed := strings.TrimSpace(content)

	if label == "" {
		return truncateEllipsis(trimmed, maxLength)
	}
	if trimmed == "" {
		return truncateEllipsis(label, maxLength)
	}
	budget := maxLength - len([]rune(label)) - 1
	if budget <= 0 {
		return truncateEllipsis(label, maxLength)
	}
	return label + " " + truncateEllipsis(trimmed, budget)
}

func truncateEllipsis(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
