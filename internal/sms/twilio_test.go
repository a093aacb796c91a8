package sms

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	path  string
	auth  string
	to    string
	from  string
	body  string
	ctype string
}

func newProvider(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		captured.ctype = r.Header.Get("Content-Type")
		captured.to = r.PostForm.Get("To")
		captured.from = r.PostForm.Get("From")
		captured.body = r.PostForm.Get("Body")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func newTestSender(baseURL string) *TwilioSender {
	return NewTwilioSender(TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "+15005550006",
		BaseURL:    baseURL + "/",
		Timeout:    2 * time.Second,
	})
}

func TestTwilioSender_Send_Success(t *testing.T) {
	srv, captured := newProvider(t, http.StatusCreated, `{"sid":"SM42","status":"queued","error_code":null}`)

	res := newTestSender(srv.URL).Send(context.Background(), "+919800000001", "Monthly Investment Update\nTotal Amount: ₹3,250.00")

	assert.True(t, res.Delivered)
	assert.Equal(t, "SM42", res.MessageID)
	assert.Empty(t, res.Reason)

	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", captured.path)
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("AC123:secret")), captured.auth)
	assert.Equal(t, "application/x-www-form-urlencoded", captured.ctype)
	assert.Equal(t, "+919800000001", captured.to)
	assert.Equal(t, "+15005550006", captured.from)
	assert.Equal(t, "Monthly Investment Update\nTotal Amount: ₹3,250.00", captured.body)
}

func TestTwilioSender_Send_ProviderError(t *testing.T) {
	srv, _ := newProvider(t, http.StatusBadRequest, `{"code":21211,"message":"The 'To' number is not a valid phone number.","more_info":"x"}`)

	res := newTestSender(srv.URL).Send(context.Background(), "123", "hello")

	assert.False(t, res.Delivered)
	assert.Contains(t, res.Reason, "21211")
	assert.Contains(t, res.Reason, "not a valid phone number")
}

func TestTwilioSender_Send_UnexpectedStatus(t *testing.T) {
	srv, _ := newProvider(t, http.StatusInternalServerError, `oops`)

	res := newTestSender(srv.URL).Send(context.Background(), "+919800000001", "hello")

	assert.False(t, res.Delivered)
	assert.Equal(t, "unexpected status code: 500", res.Reason)
}

func TestTwilioSender_Send_ErrorCodeInBody(t *testing.T) {
	srv, _ := newProvider(t, http.StatusCreated, `{"sid":"SM1","status":"failed","error_code":30003,"error_message":"Unreachable"}`)

	res := newTestSender(srv.URL).Send(context.Background(), "+919800000001", "hello")

	assert.False(t, res.Delivered)
	assert.Contains(t, res.Reason, "30003")
}

func TestTwilioSender_Send_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := newTestSender(url).Send(context.Background(), "+919800000001", "hello")

	assert.False(t, res.Delivered)
	assert.Contains(t, res.Reason, "sms request failed")
}

func TestTwilioSender_Send_MissingNumber(t *testing.T) {
	res := newTestSender("http://127.0.0.1:1").Send(context.Background(), "  ", "hello")

	assert.False(t, res.Delivered)
	assert.Equal(t, "missing destination number", res.Reason)
}

func TestDisabledSender_Send(t *testing.T) {
	res := DisabledSender{}.Send(context.Background(), "+919800000001", "hello")

	assert.False(t, res.Delivered)
	assert.Equal(t, "sms gateway not configured", res.Reason)
}
