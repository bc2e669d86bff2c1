package emailsvc

import (
	"bytes"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunedance/lune/core"
	logsvc "github.com/lunedance/lune/services/logger"
)

func TestConsoleServiceMock(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewConsoleServiceMock(conf, logsvc.NopLogger{})
	to := mail.Address{Name: "Ana", Address: "ana@lune.test"}

	t.Run("templated message", func(t *testing.T) {
		svc.Reset()
		msg := core.NewTemplatedMessage(conf, "password_reset", "Redefinição de senha",
			map[string]string{"Name": "Ana", "UID": "dWlk", "Token": "abc-123"}, to)
		svc.SendMessages(msg)

		sent := svc.SentMessages()
		require.Len(t, sent, 1)
		assert.Contains(t, sent[0].TextContent, conf.FrontendBaseURL+"/redefinir-senha?uid=dWlk&token=abc-123")
		assert.NotEmpty(t, sent[0].HTMLContent)
	})

	t.Run("no recipients", func(t *testing.T) {
		svc.Reset()
		svc.SendMessages(&core.EmailMessage{Subject: "nobody", BodyStr: "hello"})
		assert.Empty(t, svc.SentMessages())
	})

	t.Run("attachment", func(t *testing.T) {
		svc.Reset()
		msg := &core.EmailMessage{To: []mail.Address{to}, Subject: "qr", BodyStr: "see attached"}
		require.NoError(t, msg.Attach(bytes.NewBufferString("png bytes"), "qr.png", "image/png"))
		svc.SendMessages(msg)

		sent := svc.SentMessages()
		require.Len(t, sent, 1)
		require.Len(t, sent[0].Attachments, 1)
		assert.Equal(t, "image/png", sent[0].Attachments[0].ContentType)

		body, err := svc.format(sent[0])
		require.NoError(t, err)
		assert.Contains(t, body, "Subject: [Lune] qr")
		assert.Contains(t, body, "multipart/mixed")
		assert.Contains(t, body, "filename=qr.png")
	})
}
