package realtime

// Tables whose row changes are published to subscribers
const (
	TableMessages        = "messages"
	TableMessageRequests = "message_requests"
	TableDirectMessages  = "direct_messages"
	TableProfiles        = "profiles"
)

// Actions carried by an event
const (
	ActionInsert = "insert"
	ActionUpdate = "update"
)

// Event is one row change pushed to connected clients. Delivery is
// at-least-once and unordered; consumers order message payloads by
// their created_at field.
type Event struct {
	Table   string      `json:"table"`
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}
