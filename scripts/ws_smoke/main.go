package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/syncwatch-server/internal/proto"
)

type envelope struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "tester", "display name sent as UserName")
	room := flag.String("room", "", "room to join; a new public room is hosted when empty")
	media := flag.String("media", "smoke.mp4", "media name for a hosted room")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	target, err := url.Parse(*addr)
	if err != nil {
		return fmt.Errorf("parse addr: %w", err)
	}
	q := target.Query()
	q.Set("UserName", *user)
	q.Set("Avt", "")
	target.RawQuery = q.Encode()

	conn, _, err := websocket.Dial(ctx, target.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(msgType string, content any) error {
		if err := wsjson.Write(ctx, conn, proto.Outbound{Type: msgType, Content: content}); err != nil {
			return fmt.Errorf("send %s: %w", msgType, err)
		}
		return nil
	}

	if *room == "" {
		err = send(proto.InboundTypeHost, proto.HostData{MediaName: *media, RoomType: proto.RoomTypePublic})
	} else {
		err = send(proto.InboundTypeJoin, proto.JoinData{RoomID: *room})
	}
	if err != nil {
		return err
	}

	sent := false
	for {
		var env envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("received %s %s\n", env.Type, env.Content)

		switch env.Type {
		case proto.OutboundTypeError:
			return fmt.Errorf("server error: %s", env.Content)
		case proto.OutboundTypeInfo, proto.OutboundTypeInit:
			var info proto.InfoContent
			_ = json.Unmarshal(env.Content, &info)
			if !sent && !info.Pending && (info.RoomID != "" || env.Type == proto.OutboundTypeInit) {
				if err := send(proto.InboundTypeMessage, proto.MessageData{Text: *text}); err != nil {
					return err
				}
				sent = true
			}
		case proto.OutboundTypeMessage:
			return nil
		}
	}
}
