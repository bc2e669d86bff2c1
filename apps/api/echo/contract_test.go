package echoapi

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/contract"
	testutil "github.com/lunedance/lune/tests"
)

const signature = "data:image/png;base64,iVBORw0KGgo="

func TestContractAPI(t *testing.T) {
	env := newTestEnv(t)
	usr := testutil.CreateUser(t, env.app, "Ana", "ana@lune.test", true)
	token := env.staffToken(t, usr)

	p := testutil.CreatePlan(t, env.app, "Mensal", 30, 150)
	c, _ := testutil.CreateClass(t, env.app, "Ballet", nil, testutil.Slot(calendar.Monday, "18:00", "19:00"))
	enr := testutil.Enroll(t, env.app, "Maria", c.ID, p.ID, calendar.StartOfDay(env.app.Clock.Now()), 5)

	env.run(t, []httpTest{
		{
			name:     "download before signing",
			method:   http.MethodGet,
			path:     "/v1/contracts/" + enr.ID + "/download",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: httpErr{Error: "signature not found"},
		},
		{
			name:     "link requires staff",
			method:   http.MethodPost,
			path:     "/v1/contracts/" + enr.ID + "/link",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "unknown token",
			method:   http.MethodGet,
			path:     "/v1/contracts/token/nope",
			wantCode: http.StatusGone,
			wantData: httpErr{Error: core.ErrInvalidOrExpiredToken.Error()},
		},
	})

	rec := env.do(t, http.MethodPost, "/v1/contracts/"+enr.ID+"/link", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var link contract.Link
	decode(t, rec, &link)
	assert.True(t, strings.HasPrefix(link.QRCode, "data:image/png;base64,"))
	value := link.Link[strings.LastIndex(link.Link, "/")+1:]

	sent := env.app.Mailer.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "maria@aluno.test", sent[0].To[0].Address)

	t.Run("pending contract is public", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/contracts/token/"+value, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var pending contract.Pending
		decode(t, rec, &pending)
		assert.Equal(t, enr.ID, pending.EnrollmentID)
		assert.Equal(t, "Maria Souza", pending.StudentName)
	})

	env.run(t, []httpTest{
		{
			name:     "signature must be an image",
			method:   http.MethodPost,
			path:     "/v1/contracts/sign/" + value,
			body:     contract.Signature{Signature: "hello"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "sign",
			method:   http.MethodPost,
			path:     "/v1/contracts/sign/" + value,
			body:     contract.Signature{Signature: signature},
			wantCode: http.StatusOK,
			wantData: SuccessResponse{Success: "Contract of enrollment " + enr.ID + " signed."},
		},
		{
			name:     "tokens are single use",
			method:   http.MethodPost,
			path:     "/v1/contracts/sign/" + value,
			body:     contract.Signature{Signature: signature},
			wantCode: http.StatusGone,
		},
	})

	t.Run("download", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/contracts/"+enr.ID+"/download", token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=")
		assert.Contains(t, rec.Body.String(), signature)
	})
}

func TestContractAPI_expiredToken(t *testing.T) {
	env := newTestEnv(t)
	usr := testutil.CreateUser(t, env.app, "Ana", "ana@lune.test", true)
	token := env.staffToken(t, usr)

	p := testutil.CreatePlan(t, env.app, "Mensal", 30, 150)
	c, _ := testutil.CreateClass(t, env.app, "Ballet", nil, testutil.Slot(calendar.Monday, "18:00", "19:00"))
	enr := testutil.Enroll(t, env.app, "Maria", c.ID, p.ID, calendar.StartOfDay(env.app.Clock.Now()), 5)

	rec := env.do(t, http.MethodPost, "/v1/contracts/"+enr.ID+"/link", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var link contract.Link
	decode(t, rec, &link)
	value := link.Link[strings.LastIndex(link.Link, "/")+1:]

	env.app.Clock.Advance(env.app.Conf.ContractTokenTTL + 1)
	rec = env.do(t, http.MethodGet, "/v1/contracts/token/"+value, "", nil)
	assert.Equal(t, http.StatusGone, rec.Code)
}
