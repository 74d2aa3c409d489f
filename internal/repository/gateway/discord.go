// Package gateway holds the delivery-side adapters behind the
// dispatcher: the Discord bot gateway (reached over Kafka) and the
// WhatsApp bridge (reached over HTTP).
package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mangawatch/internal/domain/notify"
	kafkax "mangawatch/internal/repository/kafka"
)

// ChannelEvent is the rendered-notification payload the Discord gateway
// consumes and posts into the addressed channel.
type ChannelEvent struct {
	MessageID string    `json:"message_id"`
	ChannelID string    `json:"channel_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CoverURL  string    `json:"cover_url,omitempty"`
	At        time.Time `json:"at"`
}

type DiscordSender struct {
	p   *kafkax.Producer
	log *zap.Logger
}

var _ notify.Sender = (*DiscordSender)(nil)

func NewDiscordSender(p *kafkax.Producer, log *zap.Logger) *DiscordSender {
	return &DiscordSender{
		p:   p,
		log: log.With(zap.String("component", "gateway.discord")),
	}
}

func (s *DiscordSender) Kind() notify.TargetKind { return notify.KindChannel }

// Send publishes the event keyed by channel so the gateway preserves
// per-channel ordering.
func (s *DiscordSender) Send(ctx context.Context, target notify.Target, msg notify.Message) error {
	ev := ChannelEvent{
		MessageID: msg.ID,
		ChannelID: target.Address,
		Title:     msg.Title,
		Body:      msg.Body,
		CoverURL:  msg.CoverURL,
		At:        time.Now().UTC(),
	}
	if err := s.p.PublishJSON(ctx, []byte(target.Address), ev); err != nil {
		return err
	}
	s.log.Debug("channel notice published",
		zap.String("channel_id", target.Address),
		zap.String("message_id", msg.ID),
	)
	return nil
}
