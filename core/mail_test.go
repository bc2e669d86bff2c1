package core

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessage_Render(t *testing.T) {
	conf := NewTestConfig()
	to := mail.Address{Name: "Ana", Address: "ana@lune.test"}

	t.Run("templated message uses the base layout", func(t *testing.T) {
		msg := NewTemplatedMessage(conf, "password_reset", "Redefinição de senha",
			map[string]string{"Name": "Ana", "UID": "dWlk", "Token": "abc-123"}, to)
		require.NoError(t, msg.Render())

		assert.Contains(t, msg.TextContent, "Olá Ana,")
		assert.Contains(t, msg.TextContent, conf.FrontendBaseURL+"/redefinir-senha?uid=dWlk&token=abc-123")
		assert.Contains(t, msg.TextContent, "--\n"+conf.AppName)
		assert.Contains(t, msg.HTMLContent, "<!DOCTYPE html>")
		assert.Contains(t, msg.HTMLContent, "Redefinir senha")
	})

	t.Run("every template is parsed with its layout", func(t *testing.T) {
		ParseEmailTemplates(nil)
		for _, name := range []string{"password_reset", "contract_signature", "contract_signed"} {
			entry, ok := templates[name]
			require.True(t, ok, name)
			assert.Len(t, entry, 2, name)
		}
	})

	t.Run("unknown template", func(t *testing.T) {
		msg := NewTemplatedMessage(conf, "nope", "?", nil, to)
		assert.Error(t, msg.Render())
	})

	t.Run("plain body", func(t *testing.T) {
		msg := &EmailMessage{To: []mail.Address{to}, BodyStr: "hello"}
		require.NoError(t, msg.Render())
		assert.Equal(t, "hello", msg.TextContent)
		assert.Empty(t, msg.HTMLContent)
	})
}
