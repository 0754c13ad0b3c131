package resource

// Handle identifies a live engine object in a table. 0 is never issued.
type Handle uint32

// Kind is the class of engine object a handle refers to.
type Kind uint8

const (
	KindOnlineRecognizer Kind = iota + 1
	KindOnlineStream
	KindOfflineRecognizer
	KindOfflineStream
)

var kindNames = [...]string{
	KindOnlineRecognizer:  "online recognizer",
	KindOnlineStream:      "online stream",
	KindOfflineRecognizer: "offline recognizer",
	KindOfflineStream:     "offline stream",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Op says what happened to a handle.
type Op uint8

const (
	OpInserted Op = iota
	OpRemoved
)

func (o Op) String() string {
	if o == OpRemoved {
		return "removed"
	}
	return "inserted"
}

// Event is delivered to watchers after a handle enters or leaves a table.
type Event struct {
	Value  any
	Handle Handle
	Owner  Handle
	Kind   Kind
	Op     Op
}

// Dropper is implemented by values that must learn when their handle is
// removed, directly or through their owner.
type Dropper interface {
	Drop()
}
