package data

// Share level statuses. Once items start executing, the stored value is
// recomputed from the item statuses and never set directly.
type ShareStatus string

const (
	ShareDraft                 ShareStatus = "Draft"
	ShareSubmitted             ShareStatus = "Submitted"
	ShareApproved              ShareStatus = "Approved"
	ShareRejected              ShareStatus = "Rejected"
	ShareRevoked               ShareStatus = "Revoked"
	ShareInProgress            ShareStatus = "Share_In_Progress"
	ShareRevokeInProgress      ShareStatus = "Revoke_In_Progress"
	ShareProcessed             ShareStatus = "Processed"
	ShareDeleted               ShareStatus = "Deleted"
	ShareSubmittedForExtension ShareStatus = "Submitted_For_Extension"
	ShareExtensionRejected     ShareStatus = "Extension_Rejected"
)

// Item level statuses, independent per item.
type ItemStatus string

const (
	ItemPendingApproval  ItemStatus = "PendingApproval"
	ItemShareApproved    ItemStatus = "Share_Approved"
	ItemShareRejected    ItemStatus = "Share_Rejected"
	ItemShareInProgress  ItemStatus = "Share_In_Progress"
	ItemShareSucceeded   ItemStatus = "Share_Succeeded"
	ItemShareFailed      ItemStatus = "Share_Failed"
	ItemRevokeApproved   ItemStatus = "Revoke_Approved"
	ItemRevokeInProgress ItemStatus = "Revoke_In_Progress"
	ItemRevokeSucceeded  ItemStatus = "Revoke_Succeeded"
	ItemRevokeFailed     ItemStatus = "Revoke_Failed"
	ItemPendingExtension ItemStatus = "PendingExtension"
	ItemDeleted          ItemStatus = "Deleted"
)

// Health is a diagnostic axis orthogonal to the grant status.
type HealthStatus string

const (
	HealthHealthy        HealthStatus = "Healthy"
	HealthUnhealthy      HealthStatus = "Unhealthy"
	HealthPendingVerify  HealthStatus = "PendingVerify"
	HealthPendingReApply HealthStatus = "PendingReApply"
)

type PrincipalType string

const (
	PrincipalTeam            PrincipalType = "Team"
	PrincipalConsumptionRole PrincipalType = "ConsumptionRole"
	PrincipalRedshiftRole    PrincipalType = "RedshiftRole"
)

type PermissionType string

const (
	PermissionRead   PermissionType = "Read"
	PermissionWrite  PermissionType = "Write"
	PermissionModify PermissionType = "Modify"
)

type ShareableType string

const (
	ShareableTable         ShareableType = "Table"
	ShareableFolder        ShareableType = "Folder"
	ShareableDashboard     ShareableType = "Dashboard"
	ShareableRedshiftTable ShareableType = "RedshiftTable"
)

// SharedItemStatuses are the item states holding or pursuing an active
// cloud side grant. Items in these states block share deletion and item
// removal.
func SharedItemStatuses() []ItemStatus {
	return []ItemStatus{
		ItemShareApproved,
		ItemShareInProgress,
		ItemShareSucceeded,
		ItemShareFailed,
		ItemRevokeApproved,
		ItemRevokeInProgress,
		ItemRevokeFailed,
	}
}

// RevokableItemStatuses are the item states eligible for a revoke request.
func RevokableItemStatuses() []ItemStatus {
	return []ItemStatus{
		ItemShareSucceeded,
		ItemRevokeFailed,
		ItemRevokeApproved,
	}
}

// InFlightItemStatuses reject any second transition until the executor
// reports back.
func InFlightItemStatuses() []ItemStatus {
	return []ItemStatus{
		ItemShareInProgress,
		ItemRevokeInProgress,
	}
}
