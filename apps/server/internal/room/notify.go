package room

import "taash29/apps/server/internal/codec"

func (r *Room) nextSeq() uint64 {
	r.serverSeq++
	return r.serverSeq
}

func (r *Room) sendLocked(identity, msgType string, payload codec.Payload) {
	if r.notifier == nil {
		return
	}
	r.notifier.Notify(identity, codec.NewEnvelope(msgType, r.Code, r.nextSeq(), payload))
}

// broadcastLocked sends to every present human in the room.
func (r *Room) broadcastLocked(msgType string, payload codec.Payload) {
	for _, s := range r.seats {
		if s.Bot || s.Vacant {
			continue
		}
		r.sendLocked(s.Identity, msgType, payload)
	}
}

func (r *Room) playersPayloadLocked() []any {
	players := make([]any, 0, len(r.seats))
	for i, s := range r.seats {
		if s.Vacant {
			continue
		}
		players = append(players, map[string]any{
			"id":   s.Identity,
			"name": s.Name,
			"seat": i,
			"bot":  s.Bot,
		})
	}
	return players
}

func (r *Room) broadcastRoomUpdateLocked() {
	r.broadcastLocked(codec.TypeRoomUpdate, codec.Payload{
		"roomCode":  r.Code,
		"players":   r.playersPayloadLocked(),
		"creatorId": r.creator,
		"status":    r.status.String(),
	})
}

func (r *Room) sendJoinedLocked(identity string, created bool) {
	if created {
		r.sendLocked(identity, codec.TypeRoomCreated, codec.Payload{"roomCode": r.Code})
	}
	r.sendLocked(identity, codec.TypeJoinedRoom, codec.Payload{
		"roomCode": r.Code,
		"players":  r.playersPayloadLocked(),
	})
}

func (r *Room) logMessageLocked(msg string) {
	r.broadcastLocked(codec.TypeLogMessage, codec.Payload{"message": msg})
}
