package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/syncwatch-server/internal/auth"
	"github.com/vovakirdan/syncwatch-server/internal/proto"
)

func getRooms(t *testing.T, url, token string) (*http.Response, RoomsResponse) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url+"/api/admin/rooms", nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body RoomsResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func TestAdminLoginIssuesAPIToken(t *testing.T) {
	authService := createTestAuthService(t)
	ctx := context.Background()
	require.NoError(t, authService.AddAdmin(ctx, "root", "hunter22"))
	require.NoError(t, authService.Approve(ctx, "root"))

	ts := startTestServer(t, testConfig(), authService)
	alice := dial(t, ts, "alice")
	roomID := alice.host(proto.RoomTypePrivate)

	operator := dial(t, ts, "operator")
	operator.send(proto.InboundTypeAdminLogin, proto.AdminLoginData{UserName: "root", Password: "nope"})
	operator.expectError("Incorrect password.")

	operator.send(proto.InboundTypeAdminLogin, proto.AdminLoginData{UserName: "root", Password: "hunter22"})
	var snap proto.AdminInitContent
	operator.expect(proto.AdminTypeInit, &snap)
	require.NotEmpty(t, snap.Token)
	require.Len(t, snap.Rooms, 1)
	assert.Equal(t, roomID, snap.Rooms[0].RoomID)
	assert.Len(t, snap.Users, 2)

	resp, body := getRooms(t, ts.URL, snap.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body.Rooms, 1)
	assert.Equal(t, proto.RoomTypePrivate, body.Rooms[0].RoomType)

	operator.send(proto.InboundTypeAdminLogout, nil)
	operator.expect(proto.OutboundTypeInfo, nil)
	resp, _ = getRooms(t, ts.URL, snap.Token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminTokenEndsWithConnection(t *testing.T) {
	authService := createTestAuthService(t)
	ctx := context.Background()
	require.NoError(t, authService.AddAdmin(ctx, "root", "hunter22"))
	require.NoError(t, authService.Approve(ctx, "root"))

	ts := startTestServer(t, testConfig(), authService)
	operator := dial(t, ts, "operator")
	operator.send(proto.InboundTypeAdminLogin, proto.AdminLoginData{UserName: "root", Password: "hunter22"})
	var snap proto.AdminInitContent
	operator.expect(proto.AdminTypeInit, &snap)

	resp, _ := getRooms(t, ts.URL, snap.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, operator.conn.Close(websocket.StatusNormalClosure, "bye"))
	require.Eventually(t, func() bool {
		resp, _ := getRooms(t, ts.URL, snap.Token)
		return resp.StatusCode == http.StatusUnauthorized
	}, 2*time.Second, 20*time.Millisecond)
}

func TestAdminAPIRejectsBadTokens(t *testing.T) {
	authService := createTestAuthService(t)
	ts := startTestServer(t, testConfig(), authService)

	resp, _ := getRooms(t, ts.URL, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = getRooms(t, ts.URL, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	forged, err := auth.GenerateToken(&auth.JWTConfig{
		Secret:   []byte("some-other-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}, "root")
	require.NoError(t, err)
	resp, _ = getRooms(t, ts.URL, forged)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Signed correctly, but nobody is logged in as root.
	valid, err := authService.IssueAdminToken("root")
	require.NoError(t, err)
	resp, _ = getRooms(t, ts.URL, valid)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
