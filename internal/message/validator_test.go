package message

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestValidator() *Validator {
	return NewValidator(zap.NewNop())
}

func TestValidateEmptyMessage(t *testing.T) {
	v := newTestValidator()
	res := v.Validate("", "")
	if res.IsValid {
		t.Fatal("empty message must be invalid")
	}
	if res.Reason != ReasonEmptyMessage {
		t.Fatalf("reason = %s", res.Reason)
	}
}

func TestValidatePlaceholderContent(t *testing.T) {
	v := newTestValidator()
	for _, content := range []string{"[Audio]", "[audio]", "[ÁUDIO]", "[Imagem]", "[Sticker]"} {
		res := v.Validate(content, "")
		if res.IsValid {
			t.Fatalf("placeholder %q must be invalid", content)
		}
		if res.Reason != ReasonPlaceholderContent {
			t.Fatalf("reason for %q = %s", content, res.Reason)
		}
	}
}

func TestValidateMediaOnly(t *testing.T) {
	v := newTestValidator()
	res := v.Validate("", "https://x/file.jpg")
	if !res.IsValid {
		t.Fatalf("media-only message must be valid, reason=%s", res.Reason)
	}
}

func TestValidatePlaceholderWithMedia(t *testing.T) {
	// The placeholder marks real media; with a media URL present the message
	// is persistable (content is dropped later, not here).
	v := newTestValidator()
	if res := v.Validate("[Audio]", "https://x/voice.ogg"); !res.IsValid {
		t.Fatalf("expected valid, reason=%s", res.Reason)
	}
}

func TestIsPlaceholder(t *testing.T) {
	v := newTestValidator()
	if !v.IsPlaceholder("  [Áudio]  ") {
		t.Fatal("marker not detected")
	}
	if v.IsPlaceholder("ouça este áudio") {
		t.Fatal("real text flagged as marker")
	}
	if v.IsPlaceholder("") {
		t.Fatal("empty content is not a marker")
	}
}

func TestValidateTypeAliases(t *testing.T) {
	v := newTestValidator()
	if got := v.ValidateType("ptt").NormalizedType; got != "audio" {
		t.Fatalf("ptt => %s", got)
	}
	if got := v.ValidateType("chat").NormalizedType; got != "text" {
		t.Fatalf("chat => %s", got)
	}
	if got := v.ValidateType("IMAGE").NormalizedType; got != "image" {
		t.Fatalf("IMAGE => %s", got)
	}
}

func TestValidateTypeUnknownDefaultsToText(t *testing.T) {
	v := newTestValidator()
	res := v.ValidateType("bogus")
	if !res.IsValid {
		t.Fatal("unknown types are coerced, never rejected")
	}
	if res.NormalizedType != "text" {
		t.Fatalf("bogus => %s", res.NormalizedType)
	}
}

func TestIsUnsupportedType(t *testing.T) {
	v := newTestValidator()
	for _, typ := range []string{"poll", "poll_creation", "reaction", "product", "product_list", "order"} {
		if !v.IsUnsupportedType(typ) {
			t.Fatalf("%s must be unsupported", typ)
		}
	}
	if v.IsUnsupportedType("image") {
		t.Fatal("image is a supported type")
	}
}

func TestSanitize(t *testing.T) {
	v := newTestValidator()
	if got := v.Sanitize("a\x00b\r\nc\rd"); got != "ab\nc\nd" {
		t.Fatalf("sanitize => %q", got)
	}
}

func TestTruncate(t *testing.T) {
	v := newTestValidator()
	long := strings.Repeat("x", DefaultMaxContentLength+50)
	if got := v.Truncate(long, 0); len(got) != DefaultMaxContentLength {
		t.Fatalf("truncated length = %d", len(got))
	}
	if got := v.Truncate("abc", 10); got != "abc" {
		t.Fatalf("short content changed: %q", got)
	}
}

func TestPreviewContentText(t *testing.T) {
	v := newTestValidator()
	if got := v.PreviewContent("hello there", "text", 50); got != "hello there" {
		t.Fatalf("preview = %q", got)
	}
}

func TestPreviewContentLabeled(t *testing.T) {
	v := newTestValidator()
	got := v.PreviewContent("holiday photo", "image", 50)
	if !strings.HasPrefix(got, "[Imagem] ") {
		t.Fatalf("preview = %q", got)
	}
}

func TestPreviewContentRespectsBudget(t *testing.T) {
	v := newTestValidator()
	long := strings.Repeat("a", 200)
	got := v.PreviewContent(long, "image", 30)
	if n := len([]rune(got)); n > 30 {
		t.Fatalf("preview exceeds budget: %d runes", n)
	}
}

func TestPreviewContentMediaWithoutCaption(t *testing.T) {
	v := newTestValidator()
	if got := v.PreviewContent("", "audio", 50); got != "[Áudio]" {
		t.Fatalf("preview = %q", got)
	}
}
