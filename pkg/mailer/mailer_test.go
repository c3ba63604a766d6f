package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/symbohub-api/pkg/config"
)

func TestRendererTemplates(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	body, err := r.Render(Message{Template: TemplateBrochure, Data: map[string]interface{}{
		"BrochureTitle":    "Open Day <2025>",
		"SenderDepartment": "Computer Science",
		"Description":      "Campus tour",
		"ViewURL":          "http://localhost:3000/brochures/1",
	}})
	require.NoError(t, err)
	assert.Contains(t, body, "Computer Science")
	assert.Contains(t, body, "Open Day &lt;2025&gt;")
	assert.Contains(t, body, "Campus tour")

	for _, name := range []string{TemplateCollegeRegistration, TemplateCollegeApproval, TemplateCollegeRejection, TemplatePendingDigest} {
		_, err := r.Render(Message{Template: name, Data: map[string]interface{}{"CollegeName": "Acme"}})
		assert.NoError(t, err, name)
	}

	_, err = r.Render(Message{Template: "missing"})
	assert.Error(t, err)
}

func TestNewWithoutHostLogsInsteadOfSending(t *testing.T) {
	sender, err := New(config.SMTPConfig{}, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &LogSender{}, sender)
	assert.NoError(t, sender.Send(context.Background(), Message{To: "cs@acme.edu", Subject: "hi", Template: TemplateCollegeApproval}))
}

func TestSMTPSenderRejectsEmptyRecipient(t *testing.T) {
	sender, err := New(config.SMTPConfig{Host: "127.0.0.1", Port: 1}, nil)
	require.NoError(t, err)
	assert.Error(t, sender.Send(context.Background(), Message{Template: TemplateCollegeApproval}))
}

func TestComposeHeaders(t *testing.T) {
	s := &SMTPSender{cfg: config.SMTPConfig{From: "no-reply@symbohub.local", FromName: "SymboHub"}}
	raw := string(s.compose(Message{To: "ee@acme.edu", Subject: "New Brochure: Fair"}, "<p>x</p>"))
	assert.Contains(t, raw, "To: ee@acme.edu\r\n")
	assert.Contains(t, raw, "Subject: New Brochure: Fair\r\n")
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8\r\n")
	assert.Contains(t, raw, "\r\n\r\n<p>x</p>")
}
