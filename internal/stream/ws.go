package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"raydium-lp-sniper/internal/constants"
)

// WSStream implements Provider over a transactionSubscribe websocket feed.
// On read errors it redials with a fixed backoff.
type WSStream struct {
	url            string
	programAddress string
	redialBackoff  time.Duration
	logger         *logrus.Logger
}

// WSStreamConfig holds configuration for the websocket stream.
type WSStreamConfig struct {
	URL            string
	ProgramAddress string
	RedialBackoff  time.Duration
	Logger         *logrus.Logger
}

// NewWSStream creates a websocket signature stream.
func NewWSStream(cfg WSStreamConfig) *WSStream {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.ProgramAddress == "" {
		cfg.ProgramAddress = constants.RaydiumAMMProgramID
	}
	if cfg.RedialBackoff <= 0 {
		cfg.RedialBackoff = 5 * time.Second
	}
	return &WSStream{
		url:            cfg.URL,
		programAddress: cfg.ProgramAddress,
		redialBackoff:  cfg.RedialBackoff,
		logger:         cfg.Logger,
	}
}

type wsNotification struct {
	Params struct {
		Result struct {
			Value struct {
				Signature string `json:"signature"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

// Start connects and delivers signatures until ctx is cancelled.
func (w *WSStream) Start(ctx context.Context, handler SignatureHandler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := w.connect(ctx)
		if err != nil {
			w.logger.WithError(err).Warn("websocket connect failed, redialing")
			if err := sleepCtx(ctx, w.redialBackoff); err != nil {
				return err
			}
			continue
		}

		w.readLoop(ctx, conn, handler)
		conn.Close()

		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sleepCtx(ctx, w.redialBackoff); err != nil {
			return err
		}
	}
}

func (w *WSStream) connect(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	subscribeMsg := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "transactionSubscribe",
		"params": []interface{}{
			map[string]interface{}{
				"accountInclude": []string{w.programAddress},
			},
			map[string]interface{}{
				"commitment":                     "confirmed",
				"transactionDetails":             "signatures",
				"maxSupportedTransactionVersion": 0,
			},
		},
	}

	if err := conn.WriteJSON(subscribeMsg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	w.logger.WithField("program", w.programAddress).Info("websocket stream connected")
	return conn, nil
}

func (w *WSStream) readLoop(ctx context.Context, conn *websocket.Conn, handler SignatureHandler) {
	// Unblock ReadMessage when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				w.logger.WithError(err).Warn("websocket read failed")
			}
			return
		}

		var note wsNotification
		if err := json.Unmarshal(payload, &note); err != nil {
			w.logger.WithError(err).Debug("dropping undecodable websocket message")
			continue
		}
		if note.Params.Result.Value.Signature == "" {
			continue
		}

		handler(ctx, note.Params.Result.Value.Signature)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
