package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/syncwatch-server/internal/core"
	"github.com/vovakirdan/syncwatch-server/internal/proto"
	"github.com/vovakirdan/syncwatch-server/internal/utils"
)

const (
	pingInterval = 30 * time.Second
	pingTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
)

// Hub is the part of core.Hub the transport talks to.
type Hub interface {
	RegisterClient(c *core.Client)
	UnregisterClient(c *core.Client)
	RoomTable(ctx context.Context) ([]proto.RoomSummary, error)
	Stats(ctx context.Context) (rooms, clients int, err error)
	AdminActive(ctx context.Context, account string) (bool, error)
}

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub            Hub
	limiter        *RateLimiter
	trustForwarded bool
	readLimit      int64
	log            *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub Hub, limiter *RateLimiter, trustForwarded bool, readLimit int64, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:            hub,
		limiter:        limiter,
		trustForwarded: trustForwarded,
		readLimit:      readLimit,
		log:            logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()
	addrs := sourceAddresses(r, h.trustForwarded)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	query := r.URL.Query()
	id := utils.NewSessionID()
	client := core.NewClient(id, query.Get("UserName"), query.Get("Avt"))
	logger := h.log.With().Str("client_id", id).Strs("addrs", addrs).Logger()

	h.hub.RegisterClient(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 3)
	go func() {
		errCh <- h.readLoop(ctx, conn, client, addrs, &logger)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client, &logger)
	}()
	go func() {
		errCh <- heartbeat(ctx, conn)
	}()

	err = <-errCh
	cancel() // stop the other goroutines
	<-errCh
	<-errCh

	// Queued behind every command the reader already forwarded.
	h.hub.UnregisterClient(client)

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			logger.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, addrs []string, logger *zerolog.Logger) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			logger.Debug().Err(err).Msg("read ws frame")
			return err
		}

		if !h.limiter.Allow(addrs...) {
			logger.Debug().Msg("rate limited")
			client.Deliver(errorEvent(&proto.Error{Code: core.ErrCodeRateLimited, Message: "Rate limit exceeded."}))
			continue
		}

		var cmd *core.Command
		if typ == websocket.MessageBinary {
			cmd = &core.Command{Kind: core.CommandBinary, Binary: data}
		} else {
			var perr *proto.Error
			cmd, perr = inboundToCommand(data)
			if perr != nil {
				logger.Debug().Str("code", perr.Code).Str("reason", perr.Message).Msg("rejected inbound frame")
				client.Deliver(errorEvent(perr))
				continue
			}
		}

		select {
		case client.Commands <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, logger *zerolog.Logger) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := writeEvent(ctx, conn, event); err != nil {
				logger.Error().Err(err).Str("type", event.Type).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, event *core.Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if event.IsBinary() {
		return conn.Write(ctx, websocket.MessageBinary, event.Binary)
	}
	return wsjson.Write(ctx, conn, outboundFromEvent(event))
}

// heartbeat pings the peer so dead connections are detected and cleaned up.
func heartbeat(ctx context.Context, conn *websocket.Conn) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
