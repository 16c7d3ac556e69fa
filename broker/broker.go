package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/Dosada05/spormatch/models"
	"github.com/Dosada05/spormatch/realtime"
)

const (
	subjectPrefix = "spormatch.conversations."
	// memberRemovedSubject carries removals so every instance drops the user's sockets.
	memberRemovedSubject = "spormatch.members.removed"
)

// Publisher delivers committed messages to the realtime clients of their conversation
// and cuts off clients of users who left it.
type Publisher interface {
	PublishMessage(ctx context.Context, msg *models.Message) error
	RevokeMember(ctx context.Context, conversationID, userID int) error
	Close() error
}

type memberRemoved struct {
	ConversationID int `json:"conversation_id"`
	UserID         int `json:"user_id"`
}

// ConversationSubject returns the NATS subject carrying messages of one conversation.
func ConversationSubject(conversationID int) string {
	return subjectPrefix + strconv.Itoa(conversationID)
}

func conversationIDFromSubject(subject string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(subject, subjectPrefix))
	if err != nil || !strings.HasPrefix(subject, subjectPrefix) {
		return 0, fmt.Errorf("unexpected subject %q", subject)
	}
	return id, nil
}

// messageFrame strips the sender-relative fields before fan-out.
func messageFrame(msg *models.Message) realtime.Frame {
	payload := *msg
	payload.IsMe = false
	payload.IsRead = false
	return realtime.Frame{Type: realtime.FrameMessageCreated, Payload: &payload}
}

// LocalPublisher hands messages straight to the in-process hub.
type LocalPublisher struct {
	hub *realtime.Hub
}

func NewLocalPublisher(hub *realtime.Hub) *LocalPublisher {
	return &LocalPublisher{hub: hub}
}

func (p *LocalPublisher) PublishMessage(ctx context.Context, msg *models.Message) error {
	p.hub.BroadcastToRoom(realtime.ConversationRoom(msg.ConversationID), messageFrame(msg))
	return nil
}

func (p *LocalPublisher) RevokeMember(ctx context.Context, conversationID, userID int) error {
	p.hub.DisconnectUser(realtime.ConversationRoom(conversationID), userID)
	return nil
}

func (p *LocalPublisher) Close() error { return nil }

// NATSPublisher publishes messages to NATS and relays every conversation subject
// into the local hub, so all instances reach their own websocket clients.
type NATSPublisher struct {
	conn       *nats.Conn
	sub        *nats.Subscription
	removalSub *nats.Subscription
	hub    *realtime.Hub
	logger *slog.Logger
}

type NATSConfig struct {
	URL   string
	Token string
}

func NewNATSPublisher(cfg NATSConfig, hub *realtime.Hub, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []nats.Option{
		nats.Name("spormatch"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", slog.Any("error", err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	p := &NATSPublisher{conn: conn, hub: hub, logger: logger}
	p.sub, err = conn.Subscribe(subjectPrefix+"*", p.relay)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe to %s*: %w", subjectPrefix, err)
	}
	p.removalSub, err = conn.Subscribe(memberRemovedSubject, p.relayRemoval)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", memberRemovedSubject, err)
	}
	return p, nil
}

func (p *NATSPublisher) PublishMessage(ctx context.Context, msg *models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message %d: %w", msg.ID, err)
	}
	if err := p.conn.Publish(ConversationSubject(msg.ConversationID), data); err != nil {
		return fmt.Errorf("failed to publish message %d: %w", msg.ID, err)
	}
	return nil
}

func (p *NATSPublisher) RevokeMember(ctx context.Context, conversationID, userID int) error {
	data, err := json.Marshal(memberRemoved{ConversationID: conversationID, UserID: userID})
	if err != nil {
		return err
	}
	if err := p.conn.Publish(memberRemovedSubject, data); err != nil {
		return fmt.Errorf("failed to publish removal of user %d from conversation %d: %w", userID, conversationID, err)
	}
	return nil
}

func (p *NATSPublisher) relayRemoval(m *nats.Msg) {
	if err := disconnectFromHub(p.hub, m.Data); err != nil {
		p.logger.Warn("Dropping NATS removal", slog.String("subject", m.Subject), slog.Any("error", err))
	}
}

func disconnectFromHub(hub *realtime.Hub, data []byte) error {
	var removed memberRemoved
	if err := json.Unmarshal(data, &removed); err != nil {
		return fmt.Errorf("failed to decode removal: %w", err)
	}
	if removed.ConversationID <= 0 || removed.UserID <= 0 {
		return fmt.Errorf("invalid removal %+v", removed)
	}
	hub.DisconnectUser(realtime.ConversationRoom(removed.ConversationID), removed.UserID)
	return nil
}

func (p *NATSPublisher) relay(m *nats.Msg) {
	if err := relayToHub(p.hub, m.Subject, m.Data); err != nil {
		p.logger.Warn("Dropping NATS message", slog.String("subject", m.Subject), slog.Any("error", err))
	}
}

func relayToHub(hub *realtime.Hub, subject string, data []byte) error {
	conversationID, err := conversationIDFromSubject(subject)
	if err != nil {
		return err
	}
	var msg models.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}
	if msg.ConversationID != conversationID {
		return fmt.Errorf("message for conversation %d on subject %q", msg.ConversationID, subject)
	}
	hub.BroadcastToRoom(realtime.ConversationRoom(conversationID), messageFrame(&msg))
	return nil
}

// Close unsubscribes and drains pending publishes.
func (p *NATSPublisher) Close() error {
	for _, sub := range []*nats.Subscription{p.sub, p.removalSub} {
		if sub != nil {
			_ = sub.Unsubscribe()
		}
	}
	return p.conn.Drain()
}
