package constants

// FlyerStatus is the advisory lifecycle shown next to an uploaded flyer.
type FlyerStatus string

// Stable values (store these exact strings).
const (
	FlyerStatusUploaded   FlyerStatus = "uploaded"   // image stored, nothing extracted yet
	FlyerStatusExtracting FlyerStatus = "extracting" // model call in flight
	FlyerStatusExtracted  FlyerStatus = "extracted"  // extraction document written
)

// PublishedEventStatus is the status of an event in the public feed.
type PublishedEventStatus string

const (
	EventStatusScheduled PublishedEventStatus = "scheduled"
)

const (
	SourceMethodManual    = "manual"
	SourceMethodAIConfirm = "ai+confirm"
)
