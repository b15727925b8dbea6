package phone

import "testing"

func TestFormatBrazil(t *testing.T) {
	if got := Format("11987654321", "55"); got != "(11) 98765-4321" {
		t.Fatalf("mobile format = %s", got)
	}
	if got := Format("1133334444", "55"); got != "(11) 3333-4444" {
		t.Fatalf("landline format = %s", got)
	}
}

func TestFormatNANP(t *testing.T) {
	if got := Format("2125551234", "1"); got != "(212) 555-1234" {
		t.Fatalf("format = %s", got)
	}
}

func TestFormatUnknownCountryFallsBack(t *testing.T) {
	if got := Format("99123456", "999"); got != "99123456" {
		t.Fatalf("format = %s", got)
	}
}

func TestToWhatsAppFormatPrepends(t *testing.T) {
	if got := ToWhatsAppFormat("11987654321", "55"); got != "5511987654321" {
		t.Fatalf("got %s", got)
	}
}

func TestToWhatsAppFormatKeepsExistingCode(t *testing.T) {
	if got := ToWhatsAppFormat("5511987654321", "55"); got != "5511987654321" {
		t.Fatalf("got %s", got)
	}
}

func TestToWhatsAppFormatDDD55(t *testing.T) {
	// DDD 55 happens to equal the country code; the prefix must still be added.
	if got := ToWhatsAppFormat("5587654321", "55"); got != "555587654321" {
		t.Fatalf("got %s", got)
	}
}
