package services

import (
	"bytes"
	"fmt"
	"html/template"
)

// renderedTemplate wraps a parsed template in the notifier cache.
type renderedTemplate struct {
	tmpl *template.Template
}

const emailShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Visa Consult</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
<div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
{{template "body" .}}
<div style="margin-top:24px;color:#6b7280;font-size:13px;line-height:1.7;">
This is an automated message from Visa Consult. Please do not reply directly to this email.
</div>
</div>
</div>
</body>
</html>`

// builtinTemplates holds the named message bodies. Each is wrapped in the
// shared shell above. Unknown names fall back to genericBody.
var builtinTemplates = map[string]string{
	"visa_received": `{{define "body"}}
<h1 style="margin:0 0 18px 0;font-size:22px;color:#111827;">Application Received</h1>
<p style="margin:0 0 18px 0;line-height:1.7;">Dear {{.applicant_name}},</p>
<p style="margin:0 0 18px 0;line-height:1.7;">We have received your {{.visa_type}} visa application for {{.destination_country}}. Your reference number is <strong>{{.application_id}}</strong>.</p>
<p style="margin:0 0 18px 0;line-height:1.7;">Our consultants will review your documents and contact you if anything further is required. You can check your application status at any time using your reference number.</p>
{{end}}`,

	"visa_status_changed": `{{define "body"}}
<h1 style="margin:0 0 18px 0;font-size:22px;color:#111827;">Application Status Update</h1>
<p style="margin:0 0 18px 0;line-height:1.7;">Dear {{.applicant_name}},</p>
<p style="margin:0 0 18px 0;line-height:1.7;">The status of application <strong>{{.application_id}}</strong> has changed to <strong>{{.new_status}}</strong>.</p>
{{if .notes}}<p style="margin:0 0 18px 0;line-height:1.7;">Notes from our team: {{.notes}}</p>{{end}}
{{end}}`,

	"contact_received": `{{define "body"}}
<h1 style="margin:0 0 18px 0;font-size:22px;color:#111827;">We Received Your Message</h1>
<p style="margin:0 0 18px 0;line-height:1.7;">Dear {{.name}},</p>
<p style="margin:0 0 18px 0;line-height:1.7;">Thank you for contacting us about "{{.subject}}". Your reference number is <strong>{{.message_id}}</strong>. We usually respond within one business day.</p>
{{end}}`,

	"contact_resolved": `{{define "body"}}
<h1 style="margin:0 0 18px 0;font-size:22px;color:#111827;">Your Inquiry Has Been Resolved</h1>
<p style="margin:0 0 18px 0;line-height:1.7;">Dear {{.name}},</p>
<p style="margin:0 0 18px 0;line-height:1.7;">Your inquiry <strong>{{.message_id}}</strong> ("{{.subject}}") has been marked as resolved. If you need anything else, just send us a new message.</p>
{{end}}`,

	"feedback_received": `{{define "body"}}
<h1 style="margin:0 0 18px 0;font-size:22px;color:#111827;">Thank You for Your Feedback</h1>
<p style="margin:0 0 18px 0;line-height:1.7;">Dear {{.name}},</p>
<p style="margin:0 0 18px 0;line-height:1.7;">We appreciate you taking the time to rate us {{.rating}}/5. Your reference number is <strong>{{.feedback_id}}</strong>.</p>
{{end}}`,

	"feedback_responded": `{{define "body"}}
<h1 style="margin:0 0 18px 0;font-size:22px;color:#111827;">We Responded to Your Feedback</h1>
<p style="margin:0 0 18px 0;line-height:1.7;">Dear {{.name}},</p>
<p style="margin:0 0 18px 0;line-height:1.7;">Our team has responded to your feedback <strong>{{.feedback_id}}</strong>. Thank you for helping us improve.</p>
{{end}}`,

	"newsletter_welcome": `{{define "body"}}
<h1 style="margin:0 0 18px 0;font-size:22px;color:#111827;">Welcome to Our Newsletter</h1>
<p style="margin:0 0 18px 0;line-height:1.7;">Hello{{if .name}} {{.name}}{{end}},</p>
<p style="margin:0 0 18px 0;line-height:1.7;">You are now subscribed to visa and travel updates. You can unsubscribe at any time using your personal link.</p>
{{end}}`,

	"newsletter_unsubscribed": `{{define "body"}}
<h1 style="margin:0 0 18px 0;font-size:22px;color:#111827;">You Have Been Unsubscribed</h1>
<p style="margin:0 0 18px 0;line-height:1.7;">Hello{{if .name}} {{.name}}{{end}},</p>
<p style="margin:0 0 18px 0;line-height:1.7;">You will no longer receive our newsletter. You can re-subscribe on our website whenever you like.</p>
{{end}}`,

	"operator_alert": `{{define "body"}}
<h1 style="margin:0 0 18px 0;font-size:22px;color:#111827;">{{.title}}</h1>
<table role="presentation" cellpadding="0" cellspacing="0" width="100%" style="border:1px solid #e5e7eb;border-radius:12px;background-color:#f9fafb;">
<tbody>
{{range .rows}}<tr>
<td style="padding:12px 16px;font-size:13px;color:#6b7280;width:38%;border-bottom:1px solid #e5e7eb;">{{.Label}}</td>
<td style="padding:12px 16px;font-size:15px;color:#111827;font-weight:600;border-bottom:1px solid #e5e7eb;">{{.Value}}</td>
</tr>
{{end}}</tbody>
</table>
{{end}}`,
}

const genericBody = `{{define "body"}}
<h1 style="margin:0 0 18px 0;font-size:22px;color:#111827;">Notification</h1>
<table role="presentation" cellpadding="0" cellspacing="0" width="100%" style="border:1px solid #e5e7eb;border-radius:12px;background-color:#f9fafb;">
<tbody>
{{range $label, $value := .}}<tr>
<td style="padding:12px 16px;font-size:13px;color:#6b7280;width:38%;border-bottom:1px solid #e5e7eb;">{{$label}}</td>
<td style="padding:12px 16px;font-size:15px;color:#111827;font-weight:600;border-bottom:1px solid #e5e7eb;">{{$value}}</td>
</tr>
{{end}}</tbody>
</table>
{{end}}`

// MetaRow is one label/value pair for the operator_alert template.
type MetaRow struct {
	Label string
	Value string
}

func parseTemplate(name string) (*renderedTemplate, error) {
	body, ok := builtinTemplates[name]
	if !ok {
		body = genericBody
	}
	tmpl, err := template.New(name).Parse(emailShell)
	if err != nil {
		return nil, err
	}
	if tmpl, err = tmpl.Parse(body); err != nil {
		return nil, err
	}
	return &renderedTemplate{tmpl: tmpl}, nil
}

// Render resolves the named template (caching it after first load), falls
// back to the generic layout for unknown names, and substitutes data into
// its placeholders.
func (n *Notifier) Render(name string, data map[string]interface{}) (string, error) {
	n.mu.RLock()
	cached, ok := n.cache[name]
	n.mu.RUnlock()

	if !ok {
		var err error
		cached, err = parseTemplate(name)
		if err != nil {
			return "", fmt.Errorf("template %q: %w", name, err)
		}
		n.mu.Lock()
		n.cache[name] = cached
		n.mu.Unlock()
	}

	var buf bytes.Buffer
	if err := cached.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template %q: %w", name, err)
	}
	return buf.String(), nil
}
