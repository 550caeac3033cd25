package email

import (
	"strings"
	"testing"
)

func TestRenderLeadCaptured(t *testing.T) {
	subject, html, err := renderLeadCaptured(LeadEmail{
		BusinessName: "Fade Studio",
		ServiceName:  "Haircut",
		Name:         "Jane <script>",
		Phone:        "+14155552671",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "New booking request: Haircut" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(html, "+14155552671") || !strings.Contains(html, "Fade Studio") {
		t.Fatalf("expected lead details in body")
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("lead fields must be escaped")
	}
	if strings.Contains(html, "Open booking") {
		t.Fatalf("no call to action without a dashboard url")
	}
}

func TestRenderLeadCapturedWithoutService(t *testing.T) {
	subject, _, err := renderLeadCaptured(LeadEmail{Name: "Jane"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != subjectLeadCaptured {
		t.Fatalf("unexpected subject %q", subject)
	}
}
