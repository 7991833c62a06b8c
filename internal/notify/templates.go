package notify

import (
	"bytes"
	"text/template"
)

// caseOpened is sent to plaintiffs once an order is accepted.
var caseOpened = template.Must(template.New("case-opened").Parse(
	`Hello,

A new case has been opened in {{.Region}} and you are listed as a plaintiff.
Order reference: {{.OrderNumber}}

You can follow its progress from your DWQ Legal inbox.
`))

// noticeOfAction is sent to existing defendants when the requester asks for notice.
var noticeOfAction = template.Must(template.New("notice-of-action").Parse(
	`Hello,

{{.RequesterName}} ({{.RequesterEmail}}) has initiated a legal action in {{.Region}} naming you as a defendant.
Order reference: {{.OrderNumber}}

Please sign in to DWQ Legal to review the notice.
`))

// TemplateData parameterises the order emails.
type TemplateData struct {
	Region         string
	OrderNumber    string
	RequesterEmail string
	RequesterName  string
}

const (
	CaseOpenedTitle     = "Case opened"
	NoticeOfActionTitle = "Notice of action"
)

func CaseOpened(to string, d TemplateData) (Message, error) {
	return render(caseOpened, to, CaseOpenedTitle, d)
}

func NoticeOfAction(to string, d TemplateData) (Message, error) {
	if d.RequesterName == "" {
		d.RequesterName = d.RequesterEmail
	}
	return render(noticeOfAction, to, NoticeOfActionTitle, d)
}

func render(t *template.Template, to, subject string, d TemplateData) (Message, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, d); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, Body: buf.String()}, nil
}
