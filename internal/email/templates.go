package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type leadCapturedEmailData struct {
	baseEmailData
	LeadEmail
}

func renderLeadCaptured(lead LeadEmail) (string, string, error) {
	subject := subjectLeadCaptured
	if lead.ServiceName != "" {
		subject = fmt.Sprintf(subjectLeadCapturedFmt, lead.ServiceName)
	}

	data := leadCapturedEmailData{
		baseEmailData: baseEmailData{
			Title:      subject,
			Heading:    "You have a new booking request",
			Subheading: lead.BusinessName,
		},
		LeadEmail: lead,
	}
	if lead.DashboardURL != "" {
		data.CTALabel = "Open booking"
		data.CTAURL = lead.DashboardURL
	}

	content, err := renderEmailTemplate("lead_captured.html", data)
	if err != nil {
		return "", "", err
	}
	return subject, content, nil
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
