// Package ingest accepts batch routing requests from the ingestion pipeline
// over NATS request/reply.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"tweetrouter/internal/models"
)

// maxBatchSize caps the number of tweet ids accepted per message.
const maxBatchSize = 500

// BatchRouter routes a batch of tweet ids.
type BatchRouter interface {
	Route(ctx context.Context, ids []string) []models.RouteResult
}

// reply is the message body sent back to requesters.
type reply struct {
	Status string               `json:"status"`
	Data   []models.RouteResult `json:"data,omitempty"`
	Error  string               `json:"error,omitempty"`
}

// Subscriber routes batches received on a NATS subject.
type Subscriber struct {
	conn    *nats.Conn
	subject string
	router  BatchRouter
	logger  *slog.Logger

	ctx context.Context
	sub *nats.Subscription
}

// Connect opens a NATS connection that reconnects indefinitely.
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("tweetrouter"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
}

// NewSubscriber creates a subscriber for subject on conn.
func NewSubscriber(conn *nats.Conn, subject string, r BatchRouter, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		conn:    conn,
		subject: subject,
		router:  r,
		logger:  logger,
		ctx:     context.Background(),
	}
}

// Start subscribes to the subject. Messages are handled on the NATS
// connection's delivery goroutine, one at a time, so batches from the
// pipeline are routed in arrival order.
func (s *Subscriber) Start(ctx context.Context) error {
	s.ctx = ctx
	sub, err := s.conn.Subscribe(s.subject, s.handleMsg)
	if err != nil {
		return err
	}
	s.sub = sub
	s.logger.Info("nats subscriber started", "subject", s.subject)
	return nil
}

// Stop drains the subscription, letting in-flight messages finish.
func (s *Subscriber) Stop() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Drain()
}

func (s *Subscriber) handleMsg(msg *nats.Msg) {
	body := s.HandleRequest(s.ctx, msg.Data)
	if msg.Reply == "" {
		return
	}
	if err := msg.Respond(body); err != nil && !errors.Is(err, nats.ErrMsgNoReply) {
		s.logger.Error("failed to reply to routing request", "subject", msg.Subject, "error", err)
	}
}

// HandleRequest decodes a {"tweet_ids":[...]} payload, routes the batch and
// returns the JSON reply.
func (s *Subscriber) HandleRequest(ctx context.Context, data []byte) []byte {
	var req models.RouteRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Warn("rejected malformed routing request", "error", err)
		return encode(reply{Status: "error", Error: "invalid request body"})
	}
	if len(req.TweetIDs) > maxBatchSize {
		return encode(reply{Status: "error", Error: "too many tweet ids in one batch"})
	}

	results := s.router.Route(ctx, req.TweetIDs)
	return encode(reply{Status: "ok", Data: results})
}

func encode(r reply) []byte {
	// reply holds only strings, bools and slices of them; Marshal cannot fail
	data, _ := json.Marshal(r)
	return data
}
