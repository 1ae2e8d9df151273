package core

// Event is sent to clients to describe what happened in the system.
// Exactly one of Content (serialized as a text envelope) or Binary is used.
type Event struct {
	Type    string
	Content any
	Binary  []byte
}

// IsBinary reports whether the event is a relayed media frame.
func (e *Event) IsBinary() bool {
	return e.Binary != nil
}
