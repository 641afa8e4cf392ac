package app

import "encoding/json"

// Inbound frames arrive as {"type": <tag>, "data": <object>}; outbound
// frames carry a message_type tag plus type-specific fields. Payload
// shapes below are the wire contract and must not drift.

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound message tags.
const (
	typeJoinRoom        = "join-room"
	typeRequestAccepted = "request-accepted"
	typeOffer           = "offer"
	typeAnswer          = "answer"
	typeICECandidate    = "ice-candidate"
	typeMouseMove       = "mouse-move"
	typeKeyPress        = "key-press"
	typeMouseClick      = "mouse-click"
	typeChatMessage     = "message"
	typeScreenStarted   = "screen-sharing-started"
	typeScreenStopped   = "screen-sharing-stopped"
	typeVideoStarted    = "video-started"
	typeVideoStopped    = "video-stopped"
	typeLeaveRoom       = "leave-room"
	typeRequestAccess   = "request-access"
	typeAllowedAccess   = "allowed-access"
	typeRejectedAccess  = "rejected-access"
)

// participantInfo mirrors the client-side roster entry echoed back in
// request-accepted payloads.
type participantInfo struct {
	Username string `json:"username"`
	ID       string `json:"id"`
	Video    bool   `json:"video"`
}

type hostInfo struct {
	Username string `json:"username"`
	ID       string `json:"id"`
	Video    bool   `json:"video"`
	Screen   bool   `json:"screen"`
}

type joinRoomData struct {
	AccessToken string `json:"access_token"`
	Code        string `json:"code"`
}

// joinNotice is sent as host-joined (to the host itself) or
// join-request (to the room's host about a joiner).
type joinNotice struct {
	MessageType string `json:"message_type"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
}

type requestAcceptedData struct {
	Username     string            `json:"username"`
	UserID       string            `json:"user_id"`
	Participants []participantInfo `json:"participants"`
	Code         string            `json:"code"`
	Host         hostInfo          `json:"host"`
}

// newParticipantNotice goes to each existing member; Participant names
// the recipient so clients can tell the copies apart.
type newParticipantNotice struct {
	MessageType string   `json:"message_type"`
	Username    string   `json:"username"`
	UserID      string   `json:"user_id"`
	Participant string   `json:"participant"`
	Host        hostInfo `json:"host"`
}

type participantJoinedNotice struct {
	MessageType  string            `json:"message_type"`
	Username     string            `json:"username"`
	UserID       string            `json:"user_id"`
	Participants []participantInfo `json:"participants"`
	Host         hostInfo          `json:"host"`
}

// rtcRelayData carries an opaque negotiation payload (SDP or ICE) from
// user_id to the peer named by to. The hub never looks inside item.
type rtcRelayData struct {
	Item   json.RawMessage `json:"item"`
	To     string          `json:"to"`
	UserID string          `json:"user_id"`
}

type rtcRelayNotice struct {
	MessageType string          `json:"message_type"`
	Item        json.RawMessage `json:"item"`
	From        string          `json:"from"`
	UserID      string          `json:"user_id"`
}

type mouseMoveData struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	To string  `json:"to"`
}

type mouseMoveNotice struct {
	MessageType string  `json:"message_type"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

type keyPressData struct {
	Key string `json:"key"`
	To  string `json:"to"`
}

type keyPressNotice struct {
	MessageType string `json:"message_type"`
	Key         string `json:"key"`
}

type mouseClickData struct {
	To string `json:"to"`
}

type mouseClickNotice struct {
	MessageType string `json:"message_type"`
}

type chatData struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	ID       string `json:"id"`
	Code     string `json:"code"`
}

type chatNotice struct {
	MessageType string `json:"message_type"`
	Message     string `json:"message"`
	Username    string `json:"username"`
	ID          string `json:"id"`
}

// mediaStateData covers screen-sharing-started/stopped and
// video-started/stopped; Host tells clients which pane to update.
type mediaStateData struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
	Host   bool   `json:"host"`
}

type mediaStateNotice struct {
	MessageType string `json:"message_type"`
	UserID      string `json:"user_id"`
	Host        bool   `json:"host"`
}

type leaveRoomData struct {
	Code   string `json:"code"`
	UserID string `json:"user_id"`
}

type hostLeftNotice struct {
	MessageType string `json:"message_type"`
	Host        string `json:"host"`
	Username    string `json:"username"`
}

type participantLeftNotice struct {
	MessageType string `json:"message_type"`
	User        string `json:"user"`
}

type requestAccessData struct {
	To       string `json:"to"`
	From     string `json:"from"`
	Username string `json:"username"`
}

type accessData struct {
	Code     string `json:"code"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// accessNotice answers both request-access and the allow/reject
// decisions. Rejections reuse the allowed-access tag on the wire;
// clients tell the outcomes apart by who receives the frame.
type accessNotice struct {
	MessageType string `json:"message_type"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
}
