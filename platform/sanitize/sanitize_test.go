package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := map[string]string{
		"  Kailua,\n  Lanikai ":                   "Kailua, Lanikai",
		"<b>3 bed</b> ocean view":                 "3 bed ocean view",
		"&lt;script&gt;alert(1)&lt;/script&gt;ok": "alert(1)ok",
		"":                                        "",
	}
	for in, want := range tests {
		if got := Text(in); got != want {
			t.Errorf("Text(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEmail(t *testing.T) {
	if got := Email("  Buyer@Example.COM "); got != "buyer@example.com" {
		t.Fatalf("unexpected email %q", got)
	}
}

func TestTextComposesUnicode(t *testing.T) {
	decomposed := "Cafe\u0301 near the  beach"
	if got := Text(decomposed); got != "Caf\u00e9 near the beach" {
		t.Fatalf("expected NFC output, got %q", got)
	}
}
