package app

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dmaslov/pairdesk/internal/core"
	"github.com/dmaslov/pairdesk/internal/domain"
)

// handleJoinRoom authenticates the handshake, binds presence and tells
// the room's host about the joiner. A host joining its own room only
// hears back on its own connection.
func (r *Router) handleJoinRoom(ctx context.Context, conn core.ConnID, data json.RawMessage) {
	var p joinRoomData
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	claims, err := r.Tokens.VerifyAccessToken(p.AccessToken)
	if err != nil {
		// The connection stays open but unbound until a future
		// successful join.
		log.Debug().Str("module", "app.router").Str("conn", string(conn)).Msg("join with invalid token")
		return
	}

	if prev, had := r.Registry.Bind(claims.UserID, conn); had && prev != conn {
		log.Info().Str("module", "app.router").Str("user", string(claims.UserID)).Msg("presence rebound, displacing older connection")
	}

	room, err := r.Store.GetRoomByCode(ctx, p.Code)
	if err != nil || room == nil {
		return
	}
	user, err := r.Store.GetUserByID(ctx, claims.UserID)
	if err != nil || user == nil {
		return
	}

	if claims.UserID == room.HostID {
		r.deliver(conn, joinNotice{
			MessageType: "host-joined",
			UserID:      string(claims.UserID),
			Username:    user.Username,
		})
		return
	}

	host, err := r.Store.GetUserByID(ctx, room.HostID)
	if err != nil || host == nil {
		return
	}
	r.deliverToUser(host.ID, joinNotice{
		MessageType: "join-request",
		UserID:      string(claims.UserID),
		Username:    user.Username,
	})
}

// handleRequestAccepted persists the new member and fans the roster
// update out: new-participant to everyone already in, participant-joined
// to the accepted user.
func (r *Router) handleRequestAccepted(ctx context.Context, data json.RawMessage) {
	var p requestAcceptedData
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	if err := r.Store.AddParticipant(ctx, p.Code, domain.UserID(p.UserID)); err != nil {
		log.Warn().Err(err).Str("module", "app.router").Str("code", p.Code).Msg("add participant")
		return
	}

	for _, member := range p.Participants {
		r.deliverToUser(domain.UserID(member.ID), newParticipantNotice{
			MessageType: "new-participant",
			Username:    p.Username,
			UserID:      p.UserID,
			Participant: member.ID,
			Host:        p.Host,
		})
	}
	r.deliverToUser(domain.UserID(p.Host.ID), newParticipantNotice{
		MessageType: "new-participant",
		Username:    p.Username,
		UserID:      p.UserID,
		Participant: p.Host.ID,
		Host:        p.Host,
	})

	r.deliverToUser(domain.UserID(p.UserID), participantJoinedNotice{
		MessageType:  "participant-joined",
		Username:     p.Username,
		UserID:       p.UserID,
		Participants: p.Participants,
		Host:         p.Host,
	})
}

// handleRTCRelay forwards offer/answer/ice-candidate payloads between
// two peers without interpreting them. kind is echoed back unchanged.
func (r *Router) handleRTCRelay(kind string, data json.RawMessage) {
	var p rtcRelayData
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	r.deliverToUser(domain.UserID(p.To), rtcRelayNotice{
		MessageType: kind,
		Item:        p.Item,
		From:        p.UserID,
		UserID:      p.To,
	})
}

func (r *Router) handleMouseMove(data json.RawMessage) {
	var p mouseMoveData
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	r.deliverToUser(domain.UserID(p.To), mouseMoveNotice{
		MessageType: typeMouseMove,
		X:           p.X,
		Y:           p.Y,
	})
}

func (r *Router) handleKeyPress(data json.RawMessage) {
	var p keyPressData
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	r.deliverToUser(domain.UserID(p.To), keyPressNotice{
		MessageType: typeKeyPress,
		Key:         p.Key,
	})
}

func (r *Router) handleMouseClick(data json.RawMessage) {
	var p mouseClickData
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	r.deliverToUser(domain.UserID(p.To), mouseClickNotice{
		MessageType: typeMouseClick,
	})
}

// handleChatMessage fans chat text out to the whole room, host included.
func (r *Router) handleChatMessage(ctx context.Context, data json.RawMessage) {
	var p chatData
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	room, err := r.Store.GetRoomByCode(ctx, p.Code)
	if err != nil || room == nil {
		return
	}
	r.fanout(room.Participants, room.HostID, chatNotice{
		MessageType: typeChatMessage,
		Message:     p.Message,
		Username:    p.Username,
		ID:          p.ID,
	})
}

// handleScreenShare tells every participant about a share state change.
// The host is not addressed: only the host shares its screen, so the
// originator is the one connection that needs no copy.
func (r *Router) handleScreenShare(ctx context.Context, kind string, data json.RawMessage) {
	var p mediaStateData
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	room, err := r.Store.GetRoomByCode(ctx, p.Code)
	if err != nil || room == nil {
		return
	}
	r.fanout(room.Participants, "", mediaStateNotice{
		MessageType: kind,
		UserID:      p.UserID,
		Host:        p.Host,
	})
}

// handleVideo is the camera variant; any member may toggle video, so
// the host is included in the fan-out.
func (r *Router) handleVideo(ctx context.Context, kind string, data json.RawMessage) {
	var p mediaStateData
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	room, err := r.Store.GetRoomByCode(ctx, p.Code)
	if err != nil || room == nil {
		return
	}
	r.fanout(room.Participants, room.HostID, mediaStateNotice{
		MessageType: kind,
		UserID:      p.UserID,
		Host:        p.Host,
	})
}

// handleRequestAccess relays a control request to its target. The hub
// keeps no record of outstanding requests; allow and reject below are
// equally stateless.
func (r *Router) handleRequestAccess(data json.RawMessage) {
	var p requestAccessData
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	r.deliverToUser(domain.UserID(p.To), accessNotice{
		MessageType: typeRequestAccess,
		UserID:      p.From,
		Username:    p.Username,
	})
}

func (r *Router) handleAllowedAccess(ctx context.Context, data json.RawMessage) {
	var p accessData
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	room, err := r.Store.GetRoomByCode(ctx, p.Code)
	if err != nil || room == nil {
		return
	}
	r.fanout(room.Participants, "", accessNotice{
		MessageType: typeAllowedAccess,
		UserID:      p.UserID,
		Username:    p.Username,
	})
}

// handleRejectedAccess answers the requester directly. The wire tag is
// allowed-access for rejections too; clients distinguish outcomes by
// the recipient, not the tag.
func (r *Router) handleRejectedAccess(data json.RawMessage) {
	var p accessData
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	r.deliverToUser(domain.UserID(p.UserID), accessNotice{
		MessageType: typeAllowedAccess,
		UserID:      p.UserID,
		Username:    p.Username,
	})
}
