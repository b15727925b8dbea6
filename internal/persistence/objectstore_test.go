package persistence

import "testing"

func TestParseStorageRef(t *testing.T) {
	bucket, object, err := ParseStorageRef("storage://chat-media/leads/l1/123_ab.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bucket != "chat-media" {
		t.Fatalf("bucket = %s", bucket)
	}
	if object != "leads/l1/123_ab.jpg" {
		t.Fatalf("object = %s", object)
	}
}

func TestParseStorageRefRejectsMalformed(t *testing.T) {
	for _, ref := range []string{"", "https://x/y", "storage://", "storage://bucketonly", "storage://bucket/"} {
		if _, _, err := ParseStorageRef(ref); err == nil {
			t.Fatalf("expected error for %q", ref)
		}
	}
}
