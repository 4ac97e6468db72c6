package inbox

// Snapshot is the 4-tuple fingerprint of a viewer's inbox state. For a
// fixed viewer and role the first three fields are monotonically
// non-decreasing as threads and messages are created; UnreadTotal moves
// only on read-marking or new inbound messages.
type Snapshot struct {
	MaxMessageID int64
	MaxThreadID  int64
	UnreadTotal  int64
	ThreadCount  int64
}
