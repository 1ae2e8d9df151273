package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/syncwatch-server/internal/auth"
	"github.com/vovakirdan/syncwatch-server/internal/config"
	"github.com/vovakirdan/syncwatch-server/internal/core"
	"github.com/vovakirdan/syncwatch-server/internal/proto"
	"github.com/vovakirdan/syncwatch-server/internal/store/sqlite"
)

const testSecret = "test-secret-change-me"

// createTestAuthService creates an auth service over an in-memory store.
func createTestAuthService(t *testing.T) *auth.Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(testSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.StaticDir = ""
	cfg.RateLimit.Capacity = 1000
	cfg.RateLimit.RefillInterval = time.Second
	return cfg
}

func startTestServer(t *testing.T, cfg config.Config, authService *auth.Service) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()
	hub := core.NewHub(core.Options{
		MaxRoomCapacity:       cfg.MaxRoomCapacity,
		MaxAdminLoginAttempts: cfg.MaxAdminLoginAttempts,
		Credentials:           authService,
		Tokens:                authService,
		Logger:                &logger,
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	ts := httptest.NewServer(NewRouter(hub, authService, cfg, &logger))
	t.Cleanup(ts.Close)
	return ts
}

type wsPeer struct {
	t    *testing.T
	conn *websocket.Conn
	id   string
}

type envelope struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

// dial connects and consumes the welcome info carrying the session id.
func dial(t *testing.T, ts *httptest.Server, name string) *wsPeer {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?UserName=" + name + "&Avt=" + name + ".png"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", name, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })

	p := &wsPeer{t: t, conn: conn}
	var info proto.InfoContent
	p.expect(proto.OutboundTypeInfo, &info)
	if info.UserID == "" || info.UserName != name {
		t.Fatalf("unexpected welcome for %s: %+v", name, info)
	}
	p.id = info.UserID
	return p
}

func (p *wsPeer) send(msgType string, content any) {
	p.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, p.conn, proto.Outbound{Type: msgType, Content: content}); err != nil {
		p.t.Fatalf("write %s: %v", msgType, err)
	}
}

func (p *wsPeer) sendRaw(data string) {
	p.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.conn.Write(ctx, websocket.MessageText, []byte(data)); err != nil {
		p.t.Fatalf("write raw: %v", err)
	}
}

// expect skips frames until one of msgType arrives and decodes its content into out.
func (p *wsPeer) expect(msgType string, out any) {
	p.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for {
		var env envelope
		if err := wsjson.Read(ctx, p.conn, &env); err != nil {
			p.t.Fatalf("waiting for %s: %v", msgType, err)
		}
		if env.Type != msgType {
			continue
		}
		if out != nil {
			if err := json.Unmarshal(env.Content, out); err != nil {
				p.t.Fatalf("decode %s: %v", msgType, err)
			}
		}
		return
	}
}

func (p *wsPeer) expectError(want string) proto.Error {
	p.t.Helper()

	var perr proto.Error
	p.expect(proto.OutboundTypeError, &perr)
	if perr.Message != want {
		p.t.Fatalf("expected error %q, got %q", want, perr.Message)
	}
	return perr
}

func (p *wsPeer) host(roomType string) string {
	p.t.Helper()

	p.send(proto.InboundTypeHost, map[string]any{"MediaName": "ep1.mp4", "RoomType": roomType, "IsPaused": true})
	var info proto.InfoContent
	p.expect(proto.OutboundTypeInfo, &info)
	if info.RoomID == "" {
		p.t.Fatalf("expected room id, got %+v", info)
	}
	return info.RoomID
}
