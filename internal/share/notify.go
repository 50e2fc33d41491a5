package share

// ShareEvent is published on share lifecycle changes so interested
// parties (dataset owners, requesters) can be notified out of band.
type ShareEvent struct {
	Type      string `json:"type"`
	ShareId   string `json:"shareId"`
	DatasetId string `json:"datasetId"`
	Actor     string `json:"actor"`
	Message   string `json:"message"`
}

const (
	EventSubmitted          = "share_object.submitted"
	EventApproved           = "share_object.approved"
	EventRejected           = "share_object.rejected"
	EventRevoked            = "share_object.revoked"
	EventExtensionRequested = "share_object.extension_requested"
	EventExtensionApproved  = "share_object.extension_approved"
	EventExtensionRejected  = "share_object.extension_rejected"
)

type Notifier interface {
	PublishShareEvent(event ShareEvent) error
}
