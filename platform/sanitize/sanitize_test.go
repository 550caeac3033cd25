package sanitize

import "testing"

func TestLine(t *testing.T) {
	tests := map[string]string{
		"  Jane   Doe ":                       "Jane Doe",
		"Jane\n<script>alert(1)</script>Doe": "Jane alert(1)Doe",
		"&lt;b&gt;Bold&lt;/b&gt; name":       "Bold name",
		"":                                   "",
	}
	for in, want := range tests {
		if got := Line(in); got != want {
			t.Errorf("Line(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLinePtr(t *testing.T) {
	if LinePtr(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
	blank := " <br/> "
	if LinePtr(&blank) != nil {
		t.Fatalf("expected nil for input that sanitizes to empty")
	}
}
