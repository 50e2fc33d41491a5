package share

import "dataplane.me/shares/internal/data"

// Reconcile derives the share status from the statuses of its items.
// Action driven labels (Draft, Submitted, Approved, Rejected, the
// extension states) are authoritative only while nothing is executing:
// as soon as any item is in flight the share reads as in progress, and
// once the last in flight item lands the share resolves to Processed,
// or back to Draft when items in PendingApproval remain for another
// submission round. Runs after every item status commit.
func Reconcile(current data.ShareStatus, items []data.ItemStatus) data.ShareStatus {
	var revoking, sharing, pending bool
	for _, status := range items {
		switch status {
		case data.ItemRevokeInProgress:
			revoking = true
		case data.ItemShareInProgress:
			sharing = true
		case data.ItemPendingApproval:
			pending = true
		}
	}
	switch {
	case revoking:
		return data.ShareRevokeInProgress
	case sharing:
		return data.ShareInProgress
	}
	if current == data.ShareInProgress || current == data.ShareRevokeInProgress {
		if pending {
			return data.ShareDraft
		}
		return data.ShareProcessed
	}
	return current
}
