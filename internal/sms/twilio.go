package sms

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"investment_tracker/internal/logger"

	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
)

// TwilioConfig holds the REST API credentials
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	Timeout    time.Duration
}

type twilioMessage struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type twilioError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
}

// TwilioSender sends messages through the Twilio Messages API
type TwilioSender struct {
	cfg           TwilioConfig
	client        *fasthttp.Client
	authorization string
}

// NewTwilioSender creates a TwilioSender
func NewTwilioSender(cfg TwilioConfig) *TwilioSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &TwilioSender{
		cfg: cfg,
		client: &fasthttp.Client{
			Name:                "investment-tracker",
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxIdleConnDuration: time.Minute,
		},
		authorization: "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.AccountSID+":"+cfg.AuthToken)),
	}
}

// Send posts one message. Failures are logged and returned as a failed Result.
func (s *TwilioSender) Send(ctx context.Context, to, body string) Result {
	if strings.TrimSpace(to) == "" {
		return Failed("missing destination number")
	}

	msg, err := s.post(ctx, to, body)
	if err != nil {
		logger.Error("Error sending SMS", "to", to, "error", err)
		return Failed(err.Error())
	}

	logger.Info("SMS accepted by provider", "to", to, "sid", msg.SID, "status", msg.Status)
	return Result{Delivered: true, MessageID: msg.SID}
}

func (s *TwilioSender) post(ctx context.Context, to, body string) (*twilioMessage, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	args.Set("To", to)
	args.Set("From", s.cfg.From)
	args.Set("Body", body)

	req.SetRequestURI(fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.cfg.BaseURL, s.cfg.AccountSID))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	req.Header.Set("Authorization", s.authorization)
	req.SetBody(args.QueryString())

	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) > s.cfg.Timeout {
		deadline = time.Now().Add(s.cfg.Timeout)
	}

	if err := s.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, errors.Wrap(err, "sms request failed")
	}

	status := resp.StatusCode()
	if status != fasthttp.StatusCreated && status != fasthttp.StatusOK {
		var apiErr twilioError
		if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && apiErr.Message != "" {
			return nil, errors.Errorf("provider rejected message: %d %s", apiErr.Code, apiErr.Message)
		}
		return nil, errors.Errorf("unexpected status code: %d", status)
	}

	var msg twilioMessage
	if err := json.Unmarshal(resp.Body(), &msg); err != nil {
		return nil, errors.Wrap(err, "failed to decode provider response")
	}
	if msg.ErrorCode != nil {
		return nil, errors.Errorf("provider reported error %d: %s", *msg.ErrorCode, msg.ErrorMessage)
	}
	return &msg, nil
}
