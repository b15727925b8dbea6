package chatid

import "testing"

func TestIsGroupChat(t *testing.T) {
	if !IsGroupChat("120363123456789123456@g.us") {
		t.Fatal("@g.us suffix must be a group")
	}
	if !IsGroupChat("120363999888777666555") {
		t.Fatal("bare id with group prefix must be a group")
	}
	if IsGroupChat("5511987654321@c.us") {
		t.Fatal("individual chat misclassified as group")
	}
	if IsGroupChat("") {
		t.Fatal("empty id is not a group")
	}
}

func TestIsStatusBroadcast(t *testing.T) {
	if !IsStatusBroadcast("status@broadcast") {
		t.Fatal("status@broadcast must be detected")
	}
	if !IsStatusBroadcast("123456@broadcast") {
		t.Fatal("@broadcast suffix must be detected")
	}
	if IsStatusBroadcast("5511987654321@c.us") {
		t.Fatal("individual chat misclassified as broadcast")
	}
}

func TestIsLID(t *testing.T) {
	if !IsLID("174621106159626@lid") {
		t.Fatal("@lid suffix must be a LID")
	}
	if IsLID("123456789012345@c.us") {
		t.Fatal("explicit @c.us overrides the length heuristic")
	}
	if IsLID("120363123456789123456@g.us") {
		t.Fatal("groups are never LIDs")
	}
	if IsLID("120363999888777666555") {
		t.Fatal("bare group-prefixed ids are never LIDs")
	}
	if !IsLID("174621106159626") {
		t.Fatal("bare 15-digit id must be a LID")
	}
	if IsLID("5511987654321") {
		t.Fatal("13-digit phone is not a LID")
	}
	if IsLID("") {
		t.Fatal("empty id is not a LID")
	}
}

func TestBuildChatID(t *testing.T) {
	if got := BuildChatID("+55 (11) 98765-4321"); got != "5511987654321@c.us" {
		t.Fatalf("got %s", got)
	}
	if got := BuildChatID(""); got != "" {
		t.Fatalf("empty phone must give empty id, got %q", got)
	}
}

func TestExtractPhoneFromChatID(t *testing.T) {
	cases := map[string]string{
		"5511987654321@c.us":          "5511987654321",
		"5511987654321@s.whatsapp.net": "5511987654321",
		"174621106159626@lid":         "174621106159626",
		"5511987654321":               "5511987654321",
		"":                            "",
	}
	for id, want := range cases {
		if got := ExtractPhoneFromChatID(id); got != want {
			t.Fatalf("extract(%q) = %q, want %q", id, got, want)
		}
	}
}

func TestBuildExtractRoundTrip(t *testing.T) {
	phone := "+55 11 98765-4321"
	if got := ExtractPhoneFromChatID(BuildChatID(phone)); got != "5511987654321" {
		t.Fatalf("round trip = %s", got)
	}
}
