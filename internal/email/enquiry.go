package email

import (
	"bytes"
	"fmt"
	"text/template"
)

const EnquirySubjectPrefix = "New enquiry about "

// EnquiryNotification is the data an agent receives when someone enquires about a listing.
type EnquiryNotification struct {
	AppName       string
	AgentName     string
	PropertyTitle string
	SenderName    string
	SenderPhone   string
	SenderEmail   string
	Message       string
}

var enquiryBody = template.Must(template.New("enquiry").Parse(`Hello {{.AgentName}},

{{.SenderName}} sent an enquiry about your listing "{{.PropertyTitle}}":

{{.Message}}

Phone: {{.SenderPhone}}
{{- if .SenderEmail}}
Email: {{.SenderEmail}}
{{- end}}

Open {{.AppName}} to reply.
`))

// RenderEnquiryNotification returns the subject and plain-text body for n.
func RenderEnquiryNotification(n EnquiryNotification) (string, string, error) {
	var buf bytes.Buffer
	if err := enquiryBody.Execute(&buf, n); err != nil {
		return "", "", fmt.Errorf("failed to render enquiry notification: %w", err)
	}
	return EnquirySubjectPrefix + singleLine(n.PropertyTitle), buf.String(), nil
}
