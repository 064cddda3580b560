package app

import (
	"github.com/google/uuid"

	chatentity "github.com/rustam/servhub/internal/domain/chat/entity"
	directentity "github.com/rustam/servhub/internal/domain/direct/entity"
	identityentity "github.com/rustam/servhub/internal/domain/identity/entity"
	"github.com/rustam/servhub/internal/realtime"
)

// hubEvents adapts the websocket hub to the domain event publisher
// interfaces. Publishing never blocks; slow clients lose events.
type hubEvents struct {
	hub *realtime.Hub
}

func (e *hubEvents) MessageInserted(recipients []uuid.UUID, msg *chatentity.Message) {
	e.hub.Publish(recipients, realtime.Event{
		Table:   realtime.TableMessages,
		Action:  realtime.ActionInsert,
		Payload: msg,
	})
}

func (e *hubEvents) MessageStatusUpdated(recipients []uuid.UUID, upd *chatentity.StatusUpdate) {
	e.hub.Publish(recipients, realtime.Event{
		Table:   realtime.TableMessages,
		Action:  realtime.ActionUpdate,
		Payload: upd,
	})
}

func (e *hubEvents) RequestInserted(receiverID uuid.UUID, req *chatentity.MessageRequest) {
	e.hub.Publish([]uuid.UUID{receiverID}, realtime.Event{
		Table:   realtime.TableMessageRequests,
		Action:  realtime.ActionInsert,
		Payload: req,
	})
}

func (e *hubEvents) DirectMessageInserted(recipients []uuid.UUID, msg *directentity.Message) {
	e.hub.Publish(recipients, realtime.Event{
		Table:   realtime.TableDirectMessages,
		Action:  realtime.ActionInsert,
		Payload: msg,
	})
}

// directReadReceipt is the payload for a bulk read acknowledgement
type directReadReceipt struct {
	ReaderID   uuid.UUID   `json:"reader_id"`
	PeerID     uuid.UUID   `json:"peer_id"`
	MessageIDs []uuid.UUID `json:"message_ids"`
}

func (e *hubEvents) DirectMessagesRead(recipients []uuid.UUID, readerID, peerID uuid.UUID, ids []uuid.UUID) {
	e.hub.Publish(recipients, realtime.Event{
		Table:  realtime.TableDirectMessages,
		Action: realtime.ActionUpdate,
		Payload: directReadReceipt{
			ReaderID:   readerID,
			PeerID:     peerID,
			MessageIDs: ids,
		},
	})
}

// ProfileUpdated goes to everyone connected: any client may be showing
// this profile's presence dot.
func (e *hubEvents) ProfileUpdated(p *identityentity.Profile) {
	e.hub.Broadcast(realtime.Event{
		Table:   realtime.TableProfiles,
		Action:  realtime.ActionUpdate,
		Payload: p,
	})
}
