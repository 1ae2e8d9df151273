package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type    string `json:"type"`
	Content any    `json:"content,omitempty"`
}

// Client to server message types.
const (
	InboundTypeHost        = "host"
	InboundTypeJoin        = "join"
	InboundTypeLeave       = "leave"
	InboundTypeMessage     = "message"
	InboundTypeElection    = "election"
	InboundTypeDemotion    = "demotion"
	InboundTypePause       = "pause"
	InboundTypeSync        = "sync"
	InboundTypeUpload      = "upload"
	InboundTypeQuery       = "query"
	InboundTypeApprove     = "approve"
	InboundTypeRegister    = "register"
	InboundTypeAdminLogin  = "adminLogin"
	InboundTypeAdminLogout = "adminLogout"
	InboundTypeShutdown    = "shutdown"
)

// Server to client message types.
const (
	OutboundTypeInfo        = "info"
	OutboundTypeInit        = "init"
	OutboundTypeJoin        = "join"
	OutboundTypeMessage     = "message"
	OutboundTypeElection    = "election"
	OutboundTypeDemotion    = "demotion"
	OutboundTypeLeave       = "leave"
	OutboundTypeEnd         = "end"
	OutboundTypePause       = "pause"
	OutboundTypeSync        = "sync"
	OutboundTypeUpload      = "upload"
	OutboundTypeError       = "error"
	OutboundTypeQueryResult = "queryResult"
)

// Server to admin message types.
const (
	AdminTypeInit         = "adminInit"
	AdminTypeLog          = "log"
	AdminTypeUserHost     = "userHost"
	AdminTypeUserJoin     = "userJoin"
	AdminTypeUserElection = "userElection"
	AdminTypeUserDemotion = "userDemotion"
	AdminTypeMemberLeave  = "memberLeave"
	AdminTypeRoomEnd      = "roomEnd"
	AdminTypeConnection   = "connection"
)

// Room types accepted by host.
const (
	RoomTypePublic  = "public"
	RoomTypePrivate = "private"
)

// HostData creates a room. Capacity is optional; the server maximum applies when absent.
type HostData struct {
	MediaName string `json:"MediaName"`
	RoomType  string `json:"RoomType"`
	IsPaused  bool   `json:"IsPaused"`
	Capacity  *int   `json:"Capacity,omitempty"`
}

// JoinData requests to join a specific room.
type JoinData struct {
	RoomID string `json:"RoomID"`
}

// MessageData is a chat message from the client.
type MessageData struct {
	Text string `json:"Text"`
}

// TargetData names the member an election or demotion applies to.
type TargetData struct {
	Target string `json:"Target"`
}

// PauseData toggles playback.
type PauseData struct {
	IsPaused bool `json:"IsPaused"`
}

// SyncData carries the host playback position.
type SyncData struct {
	Timestamp float64 `json:"Timestamp"`
}

// UploadData switches the room media.
type UploadData struct {
	MediaName string `json:"MediaName"`
}

// ApproveData admits a pending member of a private room.
type ApproveData struct {
	MemberID string `json:"MemberID"`
}

// RegisterData updates the sender profile.
type RegisterData struct {
	UserName string `json:"UserName"`
	Avatar   string `json:"Avatar"`
}

// AdminLoginData carries admin credentials.
type AdminLoginData struct {
	UserName string `json:"UserName"`
	Password string `json:"Password"`
}

// Empty is the decoded form of messages that carry no content.
type Empty struct{}

// Profile describes a connected user.
type Profile struct {
	UserID   string `json:"UserID"`
	UserName string `json:"UserName"`
	Avatar   string `json:"Avatar"`
}

// InfoContent answers host, register and connection setup.
type InfoContent struct {
	UserID   string `json:"UserID,omitempty"`
	UserName string `json:"UserName,omitempty"`
	Avatar   string `json:"Avatar,omitempty"`
	RoomID   string `json:"RoomID,omitempty"`
	Pending  bool   `json:"Pending,omitempty"`
	Message  string `json:"Message,omitempty"`
}

// ChatMessage is a room history entry.
type ChatMessage struct {
	MessageID int64  `json:"MessageID"`
	UserID    string `json:"UserID"`
	Text      string `json:"Text"`
	Timestamp int64  `json:"Timestamp"`
}

// InitContent is the snapshot a member receives when admitted.
type InitContent struct {
	RoomID     string        `json:"RoomID"`
	Host       string        `json:"Host"`
	RoomType   string        `json:"RoomType"`
	MediaName  string        `json:"MediaName"`
	IsPaused   bool          `json:"IsPaused"`
	Moderators []string      `json:"Moderators"`
	Members    []Profile     `json:"Members"`
	Messages   []ChatMessage `json:"Messages"`
}

// JoinContent announces a new member, or a pending request to the host.
type JoinContent struct {
	Profile
	RoomID  string `json:"RoomID"`
	Pending bool   `json:"Pending,omitempty"`
}

// MemberContent names a member affected by leave, election or demotion.
type MemberContent struct {
	RoomID string `json:"RoomID"`
	UserID string `json:"UserID"`
}

// EndContent tells members their room is gone.
type EndContent struct {
	RoomID string `json:"RoomID"`
}

// RoomSummary is one row of the public room listing and the admin room table.
type RoomSummary struct {
	RoomID     string   `json:"RoomID"`
	Host       string   `json:"Host"`
	HostName   string   `json:"HostName"`
	RoomType   string   `json:"RoomType"`
	MediaName  string   `json:"MediaName"`
	IsPaused   bool     `json:"IsPaused"`
	Capacity   int      `json:"Capacity"`
	Members    []string `json:"Members"`
	Pending    []string `json:"Pending,omitempty"`
	Moderators []string `json:"Moderators,omitempty"`
}

// QueryResultContent lists public rooms.
type QueryResultContent struct {
	Rooms []RoomSummary `json:"Rooms"`
}

// AdminInitContent is the snapshot returned on a successful admin login.
type AdminInitContent struct {
	Rooms  []RoomSummary `json:"Rooms"`
	Users  []Profile     `json:"Users"`
	Log    string        `json:"Log"`
	Uptime float64       `json:"Uptime"`
	Token  string        `json:"Token,omitempty"`
}

// LogContent carries one log line to admins.
type LogContent struct {
	Text string `json:"Text"`
}

// ConnectionContent tells admins a session connected or disconnected.
type ConnectionContent struct {
	Profile
	Connected bool `json:"Connected"`
}

// UserRoomContent tells admins about a member event in a room.
type UserRoomContent struct {
	RoomID string `json:"RoomID"`
	UserID string `json:"UserID"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code    string `json:"Code"`
	Source  string `json:"Source,omitempty"`
	Message string `json:"Message"`
}
