package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

var subjects = map[Kind]string{
	KindActivation: "SKC account activation",
	KindReset:      "SKC password reset",
	KindCreation:   "SKC account created",
}

var templates = template.Must(template.New("mail").Parse(`
{{define "activation"}}<html><body>
<p>Dear {{.Login}}</p>
<p>Your SKC account has been created, please click on the URL below to activate it:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>Regards,<br/>SKC Team.</p>
</body></html>{{end}}
{{define "password_reset"}}<html><body>
<p>Dear {{.Login}}</p>
<p>For your SKC account a password reset was requested, please click on the URL below to reset it:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>Regards,<br/>SKC Team.</p>
</body></html>{{end}}
{{define "creation"}}<html><body>
<p>Dear {{.Login}}</p>
<p>Your SKC account has been created, please click on the URL below to access it:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>Regards,<br/>SKC Team.</p>
</body></html>{{end}}
`))

type view struct {
	Event
	Link string
}

func link(e Event) string {
	switch e.Kind {
	case KindActivation:
		return e.BaseURL + "/#/activate?key=" + e.Key
	default:
		return e.BaseURL + "/#/reset/finish?key=" + e.Key
	}
}

// render returns the subject and HTML body for e.
func render(e Event) (string, string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(e.Kind), view{Event: e, Link: link(e)}); err != nil {
		return "", "", fmt.Errorf("render %s mail: %w", e.Kind, err)
	}
	return subjects[e.Kind], buf.String(), nil
}
