package share

import "dataplane.me/shares/internal/data"

// GrantTask is the unit of work handed to the cloud side executor for a
// single item. The data filter travels with the grant and is immutable
// once the item is in flight.
type GrantTask struct {
	ShareId           string                `json:"shareId"`
	ItemId            string                `json:"itemId"`
	ItemRef           string                `json:"itemRef"`
	ItemType          data.ShareableType    `json:"itemType"`
	PrincipalId       string                `json:"principalId"`
	PrincipalType     data.PrincipalType    `json:"principalType"`
	PrincipalRoleName string                `json:"principalRoleName"`
	Permissions       []data.PermissionType `json:"permissions"`
	DataFilterId      *string               `json:"dataFilterId,omitempty"`
}

// GrantExecutor enqueues cloud side permission work and returns
// immediately. Completion arrives later as an ExecutionReport consumed
// by the tasks handler; the executor must tolerate duplicate delivery.
type GrantExecutor interface {
	ExecuteGrant(task GrantTask) error
	ExecuteRevoke(task GrantTask) error
	ExecuteVerify(task GrantTask) error
	ExecuteReapply(task GrantTask) error
}

// ReportAction discriminates executor completion messages.
type ReportAction string

const (
	ReportGrant   ReportAction = "share.grant.result"
	ReportRevoke  ReportAction = "share.revoke.result"
	ReportVerify  ReportAction = "share.verify.result"
	ReportReapply ReportAction = "share.reapply.result"
)

// ExecutionReport is the executor's completion callback for one item.
// Verify reports carry Success as the health outcome; the message is a
// pipe delimited list of causes when unhealthy or failed.
type ExecutionReport struct {
	Action  ReportAction `json:"action"`
	ShareId string       `json:"shareId"`
	ItemId  string       `json:"itemId"`
	Success bool         `json:"success"`
	Message string       `json:"message"`
}
