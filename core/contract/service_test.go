package contract_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/contract"
	"github.com/lunedance/lune/core/enrollment"
	testutil "github.com/lunedance/lune/tests"
)

const (
	linkPrefix = "http://front.lune.test/assinar-matricula/"
	signature  = "data:image/png;base64,iVBORw0KGgo"
)

var march5 = calendar.Date(2024, time.March, 5).Add(10 * time.Hour)

func setup(t *testing.T) (*testutil.App, enrollment.Detail) {
	app := testutil.NewApp(march5)
	c, _ := testutil.CreateClass(t, app, "Ballet", nil, testutil.Slot(calendar.Monday, "18:00", "19:00"))
	p := testutil.CreatePlan(t, app, "Trimestral", 90, 450)
	return app, testutil.Enroll(t, app, "Maria", c.ID, p.ID, march5, 10)
}

func tokenOf(t *testing.T, link contract.Link) string {
	t.Helper()
	require.True(t, strings.HasPrefix(link.Link, linkPrefix), link.Link)
	return strings.TrimPrefix(link.Link, linkPrefix)
}

func TestService_GenerateSignatureLink(t *testing.T) {
	app, enr := setup(t)
	ctx := context.Background()

	link, err := app.Contracts.GenerateSignatureLink(ctx, enr.ID)
	require.NoError(t, err)
	token := tokenOf(t, link)
	assert.Len(t, token, 64)
	assert.True(t, strings.HasPrefix(link.QRCode, "data:image/png;base64,"))
	assert.True(t, march5.Add(24*time.Hour).Equal(link.ValidUntil))

	sent := app.Mailer.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "maria@aluno.test", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, link.Link)
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, "image/png", sent[0].Attachments[0].ContentType)

	pending, err := app.Contracts.GetByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Maria Souza", pending.StudentName)
	assert.Equal(t, "Ballet Adulto - Iniciante Ballet", pending.ClassName)
	assert.Equal(t, "Trimestral", pending.PlanName)
	assert.Equal(t, 10, pending.PaymentDay)

	t.Run("a new link revokes the previous one", func(t *testing.T) {
		again, err := app.Contracts.GenerateSignatureLink(ctx, enr.ID)
		require.NoError(t, err)
		assert.NotEqual(t, link.Link, again.Link)

		_, err = app.Contracts.GetByToken(ctx, token)
		assert.Equal(t, core.ErrInvalidOrExpiredToken, errors.Cause(err))
		_, err = app.Contracts.GetByToken(ctx, tokenOf(t, again))
		assert.NoError(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		again, err := app.Contracts.GenerateSignatureLink(ctx, enr.ID)
		require.NoError(t, err)
		app.Clock.Advance(24*time.Hour + time.Second)

		_, err = app.Contracts.GetByToken(ctx, tokenOf(t, again))
		assert.Equal(t, core.ErrInvalidOrExpiredToken, errors.Cause(err))
	})

	t.Run("unknown enrollment", func(t *testing.T) {
		_, err := app.Contracts.GenerateSignatureLink(ctx, "nope")
		assert.Equal(t, enrollment.ErrNotFound, errors.Cause(err))
	})
}

func TestSignature_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	sig := contract.Signature{Signature: "  " + signature + " "}
	require.NoError(t, sig.Validate(validate))
	assert.Equal(t, signature, sig.Signature)

	for _, bad := range []string{"", "iVBORw0KGgo", "javascript:alert(1)"} {
		sig := contract.Signature{Signature: bad}
		assert.Error(t, sig.Validate(validate), bad)
	}
}

func TestService_SignAndGenerate(t *testing.T) {
	app, enr := setup(t)
	ctx := context.Background()

	_, err := app.Contracts.Generate(ctx, enr.ID)
	assert.Equal(t, contract.ErrSignatureMissing, errors.Cause(err))

	link, err := app.Contracts.GenerateSignatureLink(ctx, enr.ID)
	require.NoError(t, err)
	token := tokenOf(t, link)

	app.Clock.Advance(time.Hour)
	signed, err := app.Contracts.Sign(ctx, token, contract.Signature{Signature: signature})
	require.NoError(t, err)
	assert.True(t, signed.IsSigned())
	require.NotNil(t, signed.SignedAt)
	assert.True(t, march5.Add(time.Hour).Equal(*signed.SignedAt))

	sent := app.Mailer.SentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "Contrato de matrícula assinado", sent[1].Subject)
	assert.Contains(t, sent[1].TextContent, "http://api.lune.test/v1/contracts/"+enr.ID+"/download")

	_, err = app.Contracts.Sign(ctx, token, contract.Signature{Signature: signature})
	assert.Equal(t, core.ErrInvalidOrExpiredToken, errors.Cause(err), "tokens are single use")

	doc, err := app.Contracts.Generate(ctx, enr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maria_Souza.html", doc.Filename)
	assert.Equal(t, "text/html; charset=utf-8", doc.ContentType)
	html := string(doc.Content)
	assert.Contains(t, html, "Maria Souza")
	assert.Contains(t, html, signature)
	assert.Contains(t, html, "05/03/2024")
}
