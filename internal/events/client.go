// Package events wraps the NATS connection debriefd uses to receive
// transcripts and announce finished analyses.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/medsim-lab/debriefd/internal/llmscore"
)

// Subjects debriefd publishes and subscribes on.
const (
	SubjectTranscriptStored = "debrief.transcript.stored"
	SubjectAnalysisStored   = "debrief.analysis.stored"
	SubjectAnalysisFailed   = "debrief.analysis.failed"
)

// TranscriptStored is the inbound event payload: a finished transcription
// ready for assessment. Segments and the speaker mapping are optional; when
// present they let the pipeline restrict analysis to supervisor speech.
type TranscriptStored struct {
	EncounterID    string             `json:"encounter_id"`
	SupervisorID   string             `json:"supervisor_id,omitempty"`
	TraineeID      string             `json:"trainee_id,omitempty"`
	RubricCode     string             `json:"rubric_code,omitempty"`
	Transcript     string             `json:"transcript"`
	Language       string             `json:"language,omitempty"`
	Segments       []llmscore.Segment `json:"segments,omitempty"`
	SpeakerMapping map[string]string  `json:"speaker_mapping,omitempty"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
