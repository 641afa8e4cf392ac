package app

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dmaslov/pairdesk/internal/domain"
)

// handleLeaveRoom runs the host-failover transition. When the host
// departs, the first entry of the persisted participant list is
// promoted; list order is the whole policy. The remove-participant and
// set-host writes happen under the room's lock so a concurrent leave
// against the same room cannot observe the half-migrated state.
func (r *Router) handleLeaveRoom(ctx context.Context, data json.RawMessage) {
	var p leaveRoomData
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	lock := r.rooms.lock(p.Code)
	defer lock.Unlock()

	room, err := r.Store.GetRoomByCode(ctx, p.Code)
	if err != nil || room == nil {
		return
	}

	leaver := domain.UserID(p.UserID)
	if leaver == room.HostID {
		r.hostLeaves(ctx, room)
		return
	}

	if err := r.Store.RemoveParticipant(ctx, p.Code, leaver); err != nil {
		log.Warn().Err(err).Str("module", "app.migration").Str("code", p.Code).Msg("remove participant")
		return
	}
	r.fanout(room.Participants, room.HostID, participantLeftNotice{
		MessageType: "participant-left",
		User:        p.UserID,
	}, leaver)
	log.Info().Str("module", "app.migration").Str("code", p.Code).Str("user", p.UserID).Msg("participant left")
}

func (r *Router) hostLeaves(ctx context.Context, room *domain.Room) {
	if len(room.Participants) == 0 {
		// Nobody to promote and nobody to tell.
		if err := r.Store.DeleteRoom(ctx, room.Code); err != nil {
			log.Warn().Err(err).Str("module", "app.migration").Str("code", room.Code).Msg("delete room")
			return
		}
		log.Info().Str("module", "app.migration").Str("code", room.Code).Msg("room deleted, host left empty room")
		return
	}

	newHost := room.Participants[0]
	if err := r.Store.RemoveParticipant(ctx, room.Code, newHost); err != nil {
		log.Warn().Err(err).Str("module", "app.migration").Str("code", room.Code).Msg("remove promoted participant")
		return
	}
	if err := r.Store.SetHost(ctx, room.Code, newHost); err != nil {
		log.Warn().Err(err).Str("module", "app.migration").Str("code", room.Code).Msg("set host")
		return
	}

	promoted, err := r.Store.GetUserByID(ctx, newHost)
	if err != nil || promoted == nil {
		return
	}

	// room.Participants still holds the pre-migration list, so this
	// reaches every remaining member plus the new host itself.
	r.fanout(room.Participants, "", hostLeftNotice{
		MessageType: "host-left",
		Host:        string(newHost),
		Username:    promoted.Username,
	})
	log.Info().Str("module", "app.migration").Str("code", room.Code).Str("new_host", string(newHost)).Msg("host migrated")
}
