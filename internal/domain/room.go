package domain

// Room is the durable room record.
// HostID is never present in Participants; Participants holds no duplicates.
type Room struct {
	Code         string   `json:"code"`
	HostID       UserID   `json:"host_id"`
	Participants []UserID `json:"participants"`
}

// HasParticipant reports whether id is in the persisted participant list.
func (r *Room) HasParticipant(id UserID) bool {
	for _, p := range r.Participants {
		if p == id {
			return true
		}
	}
	return false
}
