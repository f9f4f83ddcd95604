package mail

import (
	"strconv"
	"strings"

	"github.com/kboni/auth-server/internal/model"
)

// CodePlaceholder is replaced by the verification code when rendering.
const CodePlaceholder = "{code}"

// Template is the subject and body of a verification code mail.
type Template struct {
	Subject string
	Body    string
}

// Render builds the message carrying code for recipient to.
func (t Template) Render(to string, code int) model.Message {
	c := strconv.Itoa(code)
	return model.Message{
		To:      to,
		Subject: strings.ReplaceAll(t.Subject, CodePlaceholder, c),
		Body:    strings.ReplaceAll(t.Body, CodePlaceholder, c),
	}
}
