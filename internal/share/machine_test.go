package share

import (
	"errors"
	"testing"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/exceptions"
)

func TestShareMachine(t *testing.T) {
	machine := ShareMachine()
	cases := []struct {
		name   string
		action Action
		prev   data.ShareStatus
		next   data.ShareStatus
		noop   bool
		fails  bool
	}{
		{name: "SubmitFromDraft", action: ActionSubmit, prev: data.ShareDraft, next: data.ShareSubmitted},
		{name: "SubmitFromRejected", action: ActionSubmit, prev: data.ShareRejected, next: data.ShareSubmitted},
		{name: "SubmitTwiceIsNoop", action: ActionSubmit, prev: data.ShareSubmitted, next: data.ShareSubmitted, noop: true},
		{name: "ApproveFromSubmitted", action: ActionApprove, prev: data.ShareSubmitted, next: data.ShareApproved},
		{name: "ApproveFromDraftFails", action: ActionApprove, prev: data.ShareDraft, fails: true},
		{name: "ApproveWhileInProgressFails", action: ActionApprove, prev: data.ShareInProgress, fails: true},
		{name: "RejectFromSubmitted", action: ActionReject, prev: data.ShareSubmitted, next: data.ShareRejected},
		{name: "StartFromApproved", action: ActionStart, prev: data.ShareApproved, next: data.ShareInProgress},
		{name: "FinishFromInProgress", action: ActionFinish, prev: data.ShareInProgress, next: data.ShareProcessed},
		{name: "FinishPendingFromRevoking", action: ActionFinishPending, prev: data.ShareRevokeInProgress, next: data.ShareDraft},
		{name: "RevokeFromProcessed", action: ActionRevokeItems, prev: data.ShareProcessed, next: data.ShareRevoked},
		{name: "DeleteWhileInProgressFails", action: ActionDelete, prev: data.ShareInProgress, fails: true},
		{name: "ExtensionFromProcessed", action: ActionExtension, prev: data.ShareProcessed, next: data.ShareSubmittedForExtension},
		{name: "ExtensionFromRejectedExtension", action: ActionExtension, prev: data.ShareExtensionRejected, next: data.ShareSubmittedForExtension},
		{name: "ExtensionWhileSubmittedFails", action: ActionExtension, prev: data.ShareSubmitted, fails: true},
		{name: "CancelExtension", action: ActionCancelExtension, prev: data.ShareSubmittedForExtension, next: data.ShareProcessed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, changed, err := machine.Run(tc.action, tc.prev)
			if tc.fails {
				var unauthorized *exceptions.UnauthorizedError
				if !errors.As(err, &unauthorized) {
					t.Fatalf("expected unauthorized, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if next != tc.next {
				t.Fatalf("expected %s, got %s", tc.next, next)
			}
			if changed == tc.noop {
				t.Fatalf("expected changed=%v", !tc.noop)
			}
		})
	}
}

func TestItemMachine(t *testing.T) {
	machine := ItemMachine()
	cases := []struct {
		name   string
		action Action
		prev   data.ItemStatus
		next   data.ItemStatus
		noop   bool
		fails  bool
	}{
		{name: "ApprovePendingItem", action: ActionApprove, prev: data.ItemPendingApproval, next: data.ItemShareApproved},
		{name: "ApproveLeavesSucceededAlone", action: ActionApprove, prev: data.ItemShareSucceeded, next: data.ItemShareSucceeded, noop: true},
		{name: "StartClaimsApprovedItem", action: ActionStart, prev: data.ItemShareApproved, next: data.ItemShareInProgress},
		{name: "SuccessLandsGrant", action: ActionSuccess, prev: data.ItemShareInProgress, next: data.ItemShareSucceeded},
		{name: "FailureLandsGrant", action: ActionFailure, prev: data.ItemShareInProgress, next: data.ItemShareFailed},
		{name: "SubmitResetsFailedItem", action: ActionSubmit, prev: data.ItemShareFailed, next: data.ItemPendingApproval},
		{name: "SubmitResetsRejectedItem", action: ActionSubmit, prev: data.ItemShareRejected, next: data.ItemPendingApproval},
		{name: "RevokeSucceededItem", action: ActionRevokeItems, prev: data.ItemShareSucceeded, next: data.ItemRevokeApproved},
		{name: "RevokeInFlightItemFails", action: ActionRevokeItems, prev: data.ItemShareInProgress, fails: true},
		{name: "RemovePendingItem", action: ActionRemoveItem, prev: data.ItemPendingApproval, next: data.ItemDeleted},
		{name: "RemoveSucceededItemFails", action: ActionRemoveItem, prev: data.ItemShareSucceeded, fails: true},
		{name: "RemoveInFlightItemFails", action: ActionRemoveItem, prev: data.ItemShareInProgress, fails: true},
		{name: "RemoveFailedItem", action: ActionRemoveItem, prev: data.ItemShareFailed, next: data.ItemDeleted},
		{name: "ExtensionParksSucceededItem", action: ActionExtension, prev: data.ItemShareSucceeded, next: data.ItemPendingExtension},
		{name: "ExtensionLeavesPendingItemAlone", action: ActionExtension, prev: data.ItemPendingApproval, next: data.ItemPendingApproval, noop: true},
		{name: "ExtensionLeavesFailedItemAlone", action: ActionExtension, prev: data.ItemShareFailed, next: data.ItemShareFailed, noop: true},
		{name: "ApproveExtensionRestoresItem", action: ActionExtensionApprove, prev: data.ItemPendingExtension, next: data.ItemShareSucceeded},
		{name: "ApproveExtensionLeavesRevokedItemAlone", action: ActionExtensionApprove, prev: data.ItemRevokeSucceeded, next: data.ItemRevokeSucceeded, noop: true},
		{name: "CancelExtensionLeavesRejectedItemAlone", action: ActionCancelExtension, prev: data.ItemShareRejected, next: data.ItemShareRejected, noop: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, changed, err := machine.Run(tc.action, tc.prev)
			if tc.fails {
				var unauthorized *exceptions.UnauthorizedError
				if !errors.As(err, &unauthorized) {
					t.Fatalf("expected unauthorized, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if next != tc.next {
				t.Fatalf("expected %s, got %s", tc.next, next)
			}
			if changed == tc.noop {
				t.Fatalf("expected changed=%v", !tc.noop)
			}
		})
	}
}
