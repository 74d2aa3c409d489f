package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"mangawatch/internal/domain/notify"
)

type WhatsAppConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// WhatsAppSender posts direct messages through the WhatsApp bridge.
type WhatsAppSender struct {
	base  string
	httpc *http.Client
	log   *zap.Logger
}

var _ notify.Sender = (*WhatsAppSender)(nil)

func NewWhatsAppSender(cfg WhatsAppConfig, httpc *http.Client, log *zap.Logger) *WhatsAppSender {
	return &WhatsAppSender{
		base:  cfg.BaseURL,
		httpc: httpc,
		log:   log.With(zap.String("component", "gateway.whatsapp")),
	}
}

func (s *WhatsAppSender) Kind() notify.TargetKind { return notify.KindDirect }

type sendTextRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func (s *WhatsAppSender) Send(ctx context.Context, target notify.Target, msg notify.Message) error {
	text := fmt.Sprintf("*%s*\n\n%s", msg.Title, msg.Body)
	payload, err := json.Marshal(sendTextRequest{Phone: target.Address, Message: text})
	if err != nil {
		return fmt.Errorf("encode send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+"/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("whatsapp send: status %d", resp.StatusCode)
	}
	s.log.Debug("direct message sent",
		zap.String("message_id", msg.ID),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
