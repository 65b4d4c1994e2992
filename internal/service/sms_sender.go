package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"party_games_backend/internal/config"
	"party_games_backend/pkg/logger"

	"go.uber.org/zap"
)

// SMSSender 发送验证码短信
type SMSSender interface {
	SendOTP(ctx context.Context, phone, code string) error
	Name() string
}

// LogSender 开发环境只把验证码写入日志
type LogSender struct{}

func (LogSender) SendOTP(ctx context.Context, phone, code string) error {
	logger.Log.Info("OTP generated", zap.String("phone", phone), zap.String("code", code))
	return nil
}

func (LogSender) Name() string { return "log" }

// MSG91Sender 调用 MSG91 OTP 接口
type MSG91Sender struct {
	Config *config.SMSConfig
	Client *http.Client
}

func NewMSG91Sender(cfg *config.SMSConfig) *MSG91Sender {
	return &MSG91Sender{
		Config: cfg,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *MSG91Sender) SendOTP(ctx context.Context, phone, code string) error {
	body, err := json.Marshal(map[string]string{
		"template_id": s.Config.TemplateID,
		"mobile":      phone,
		"authkey":     s.Config.AuthKey,
		"otp":         code,
		"sender":      s.Config.SenderID,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Config.BaseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authkey", s.Config.AuthKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("msg91 responded with status %d", resp.StatusCode)
	}
	return nil
}

func (s *MSG91Sender) Name() string { return "msg91" }

// NewSMSSender provider 为 msg91 且配置了 auth key 时走真实短信，否则写日志
func NewSMSSender(cfg *config.SMSConfig) SMSSender {
	if cfg.Provider == "msg91" && cfg.AuthKey != "" {
		return NewMSG91Sender(cfg)
	}
	return LogSender{}
}
