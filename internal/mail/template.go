package mail

import (
	"bytes"
	"html/template"
	texttemplate "text/template"

	"github.com/gamehub/apiserver/internal/services"
)

const passwordResetSubject = "GameHub Password Reset Request"

var passwordResetHTML = template.Must(template.New("reset.html").Parse(`<p>Hi {{.Name}},</p>
<p>You are receiving this because you (or someone else) have requested the reset of the password for your account.</p>
<p>Please click on the following link, or paste this into your browser to complete the process:</p>
<p><a href="{{.ResetURL}}">Reset Password Link</a></p>
<p>The link expires in one hour.</p>
<p>If you did not request this, please ignore this email and your password will remain unchanged.</p>
`))

var passwordResetText = texttemplate.Must(texttemplate.New("reset.txt").Parse(`Hi {{.Name}},

You are receiving this because you (or someone else) have requested the reset of the password for your account.

Open the following link to complete the process:

{{.ResetURL}}

The link expires in one hour. If you did not request this, ignore this email and your password will remain unchanged.
`))

type rendered struct {
	Subject string
	HTML    string
	Text    string
}

func renderPasswordReset(m services.PasswordResetMail) (rendered, error) {
	var html, text bytes.Buffer
	if err := passwordResetHTML.Execute(&html, m); err != nil {
		return rendered{}, err
	}
	if err := passwordResetText.Execute(&text, m); err != nil {
		return rendered{}, err
	}
	return rendered{Subject: passwordResetSubject, HTML: html.String(), Text: text.String()}, nil
}
