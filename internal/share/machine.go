package share

import (
	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/exceptions"
	"golang.org/x/exp/slices"
)

// Action names a lifecycle event applied to a share and its items. The
// same action can drive both machines: approving a share, for example,
// moves the share to Approved and every pending item to Share_Approved.
type Action string

const (
	ActionSubmit           Action = "Submit"
	ActionApprove          Action = "Approve"
	ActionReject           Action = "Reject"
	ActionRevokeItems      Action = "RevokeItems"
	ActionStart            Action = "Start"
	ActionFinish           Action = "Finish"
	ActionFinishPending    Action = "FinishPending"
	ActionDelete           Action = "Delete"
	ActionAddItem          Action = "AddItem"
	ActionRemoveItem       Action = "RemoveItem"
	ActionSuccess          Action = "Success"
	ActionFailure          Action = "Failure"
	ActionExtension        Action = "Extension"
	ActionExtensionApprove Action = "ExtensionApprove"
	ActionExtensionReject  Action = "ExtensionReject"
	ActionCancelExtension  Action = "CancelExtension"
)

// transition maps every reachable target state to the source states that
// may enter it. A state already in a target is left alone; a state in no
// source list makes the action invalid.
type transition[S comparable] struct {
	name    Action
	targets map[S][]S
}

// next resolves the state an action lands on from prev. The second return
// reports whether the state actually changes; an invalid source returns
// an unauthorized operation error, mirroring a user pressing a button the
// current state does not support.
func (t *transition[S]) next(prev S) (S, bool, error) {
	if _, ok := t.targets[prev]; ok {
		return prev, false, nil
	}
	for target, sources := range t.targets {
		if slices.Contains(sources, prev) {
			return target, true, nil
		}
	}
	var zero S
	return zero, false, exceptions.Unauthorized(
		string(t.name),
		"this transition is not possible from the current state. If there is a sharing or revoking in progress wait until it is complete and try again",
	)
}

// Machine is a transition table keyed by action.
type Machine[S comparable] map[Action]*transition[S]

// Run resolves the target state for an action, reporting whether the
// state changes. Actions absent from a machine's table are invalid for
// every state of that machine.
func (m Machine[S]) Run(action Action, prev S) (S, bool, error) {
	trans, ok := m[action]
	if !ok {
		var zero S
		return zero, false, exceptions.Unauthorized(string(action), "action is not supported")
	}
	return trans.next(prev)
}

func shareTransition(name Action, targets map[data.ShareStatus][]data.ShareStatus) *transition[data.ShareStatus] {
	return &transition[data.ShareStatus]{name: name, targets: targets}
}

func itemTransition(name Action, targets map[data.ItemStatus][]data.ItemStatus) *transition[data.ItemStatus] {
	return &transition[data.ItemStatus]{name: name, targets: targets}
}

// ShareMachine governs the share level lifecycle.
func ShareMachine() Machine[data.ShareStatus] {
	return Machine[data.ShareStatus]{
		ActionSubmit: shareTransition(ActionSubmit, map[data.ShareStatus][]data.ShareStatus{
			data.ShareSubmitted: {data.ShareDraft, data.ShareRejected, data.ShareExtensionRejected},
		}),
		ActionApprove: shareTransition(ActionApprove, map[data.ShareStatus][]data.ShareStatus{
			data.ShareApproved: {data.ShareSubmitted},
		}),
		ActionReject: shareTransition(ActionReject, map[data.ShareStatus][]data.ShareStatus{
			data.ShareRejected: {data.ShareSubmitted},
		}),
		ActionRevokeItems: shareTransition(ActionRevokeItems, map[data.ShareStatus][]data.ShareStatus{
			data.ShareRevoked: {
				data.ShareDraft,
				data.ShareSubmitted,
				data.ShareRejected,
				data.ShareProcessed,
				data.ShareExtensionRejected,
			},
		}),
		ActionStart: shareTransition(ActionStart, map[data.ShareStatus][]data.ShareStatus{
			data.ShareInProgress:       {data.ShareApproved},
			data.ShareRevokeInProgress: {data.ShareRevoked},
		}),
		ActionFinish: shareTransition(ActionFinish, map[data.ShareStatus][]data.ShareStatus{
			data.ShareProcessed: {data.ShareInProgress, data.ShareRevokeInProgress},
		}),
		ActionFinishPending: shareTransition(ActionFinishPending, map[data.ShareStatus][]data.ShareStatus{
			data.ShareDraft: {data.ShareRevokeInProgress},
		}),
		ActionDelete: shareTransition(ActionDelete, map[data.ShareStatus][]data.ShareStatus{
			data.ShareDeleted: {
				data.ShareRejected,
				data.ShareDraft,
				data.ShareSubmitted,
				data.ShareProcessed,
				data.ShareExtensionRejected,
			},
		}),
		ActionAddItem: shareTransition(ActionAddItem, map[data.ShareStatus][]data.ShareStatus{
			data.ShareDraft: {
				data.ShareSubmitted,
				data.ShareRejected,
				data.ShareProcessed,
				data.ShareExtensionRejected,
			},
		}),
		ActionExtension: shareTransition(ActionExtension, map[data.ShareStatus][]data.ShareStatus{
			data.ShareSubmittedForExtension: {
				data.ShareProcessed,
				data.ShareExtensionRejected,
				data.ShareDraft,
			},
		}),
		ActionExtensionApprove: shareTransition(ActionExtensionApprove, map[data.ShareStatus][]data.ShareStatus{
			data.ShareProcessed: {data.ShareSubmittedForExtension},
		}),
		ActionExtensionReject: shareTransition(ActionExtensionReject, map[data.ShareStatus][]data.ShareStatus{
			data.ShareExtensionRejected: {data.ShareSubmittedForExtension},
		}),
		ActionCancelExtension: shareTransition(ActionCancelExtension, map[data.ShareStatus][]data.ShareStatus{
			data.ShareProcessed: {data.ShareSubmittedForExtension},
		}),
	}
}

// ItemMachine governs the item level lifecycle. Share level actions carry
// self transitions for every unaffected item state so that, say,
// submitting a share leaves already revoked items untouched.
func ItemMachine() Machine[data.ItemStatus] {
	return Machine[data.ItemStatus]{
		ActionAddItem: itemTransition(ActionAddItem, map[data.ItemStatus][]data.ItemStatus{
			data.ItemPendingApproval: {data.ItemDeleted},
		}),
		ActionSubmit: itemTransition(ActionSubmit, map[data.ItemStatus][]data.ItemStatus{
			data.ItemPendingApproval:  {data.ItemShareRejected, data.ItemShareFailed},
			data.ItemRevokeApproved:   {data.ItemRevokeApproved},
			data.ItemRevokeFailed:     {data.ItemRevokeFailed},
			data.ItemShareApproved:    {data.ItemShareApproved},
			data.ItemShareSucceeded:   {data.ItemShareSucceeded},
			data.ItemRevokeSucceeded:  {data.ItemRevokeSucceeded},
			data.ItemShareInProgress:  {data.ItemShareInProgress},
			data.ItemRevokeInProgress: {data.ItemRevokeInProgress},
		}),
		ActionApprove: itemTransition(ActionApprove, map[data.ItemStatus][]data.ItemStatus{
			data.ItemShareApproved:    {data.ItemPendingApproval},
			data.ItemRevokeApproved:   {data.ItemRevokeApproved},
			data.ItemRevokeFailed:     {data.ItemRevokeFailed},
			data.ItemShareSucceeded:   {data.ItemShareSucceeded},
			data.ItemRevokeSucceeded:  {data.ItemRevokeSucceeded},
			data.ItemShareInProgress:  {data.ItemShareInProgress},
			data.ItemRevokeInProgress: {data.ItemRevokeInProgress},
		}),
		ActionReject: itemTransition(ActionReject, map[data.ItemStatus][]data.ItemStatus{
			data.ItemShareRejected:    {data.ItemPendingApproval},
			data.ItemRevokeApproved:   {data.ItemRevokeApproved},
			data.ItemRevokeFailed:     {data.ItemRevokeFailed},
			data.ItemShareSucceeded:   {data.ItemShareSucceeded},
			data.ItemRevokeSucceeded:  {data.ItemRevokeSucceeded},
			data.ItemShareInProgress:  {data.ItemShareInProgress},
			data.ItemRevokeInProgress: {data.ItemRevokeInProgress},
		}),
		ActionStart: itemTransition(ActionStart, map[data.ItemStatus][]data.ItemStatus{
			data.ItemShareInProgress:  {data.ItemShareApproved},
			data.ItemRevokeInProgress: {data.ItemRevokeApproved},
		}),
		ActionSuccess: itemTransition(ActionSuccess, map[data.ItemStatus][]data.ItemStatus{
			data.ItemShareSucceeded:  {data.ItemShareInProgress},
			data.ItemRevokeSucceeded: {data.ItemRevokeInProgress},
		}),
		ActionFailure: itemTransition(ActionFailure, map[data.ItemStatus][]data.ItemStatus{
			data.ItemShareFailed:  {data.ItemShareInProgress, data.ItemShareApproved},
			data.ItemRevokeFailed: {data.ItemRevokeInProgress, data.ItemRevokeApproved},
		}),
		ActionRemoveItem: itemTransition(ActionRemoveItem, map[data.ItemStatus][]data.ItemStatus{
			data.ItemDeleted: {
				data.ItemPendingApproval,
				data.ItemShareRejected,
				data.ItemShareFailed,
				data.ItemRevokeSucceeded,
			},
		}),
		ActionRevokeItems: itemTransition(ActionRevokeItems, map[data.ItemStatus][]data.ItemStatus{
			data.ItemRevokeApproved: {
				data.ItemShareSucceeded,
				data.ItemRevokeFailed,
				data.ItemRevokeApproved,
			},
		}),
		ActionDelete: itemTransition(ActionDelete, map[data.ItemStatus][]data.ItemStatus{
			data.ItemDeleted: {
				data.ItemPendingApproval,
				data.ItemShareRejected,
				data.ItemShareFailed,
				data.ItemRevokeSucceeded,
			},
		}),
		// Extension actions only affect granted items; everything else
		// on the share rides along unchanged.
		ActionExtension: itemTransition(ActionExtension, map[data.ItemStatus][]data.ItemStatus{
			data.ItemPendingExtension: {data.ItemShareSucceeded},
			data.ItemPendingApproval:  {data.ItemPendingApproval},
			data.ItemShareRejected:    {data.ItemShareRejected},
			data.ItemShareFailed:      {data.ItemShareFailed},
			data.ItemRevokeSucceeded:  {data.ItemRevokeSucceeded},
			data.ItemRevokeFailed:     {data.ItemRevokeFailed},
		}),
		ActionExtensionApprove: itemTransition(ActionExtensionApprove, map[data.ItemStatus][]data.ItemStatus{
			data.ItemShareSucceeded:  {data.ItemPendingExtension},
			data.ItemPendingApproval: {data.ItemPendingApproval},
			data.ItemShareRejected:   {data.ItemShareRejected},
			data.ItemShareFailed:     {data.ItemShareFailed},
			data.ItemRevokeSucceeded: {data.ItemRevokeSucceeded},
			data.ItemRevokeFailed:    {data.ItemRevokeFailed},
		}),
		ActionExtensionReject: itemTransition(ActionExtensionReject, map[data.ItemStatus][]data.ItemStatus{
			data.ItemShareSucceeded:  {data.ItemPendingExtension},
			data.ItemPendingApproval: {data.ItemPendingApproval},
			data.ItemShareRejected:   {data.ItemShareRejected},
			data.ItemShareFailed:     {data.ItemShareFailed},
			data.ItemRevokeSucceeded: {data.ItemRevokeSucceeded},
			data.ItemRevokeFailed:    {data.ItemRevokeFailed},
		}),
		ActionCancelExtension: itemTransition(ActionCancelExtension, map[data.ItemStatus][]data.ItemStatus{
			data.ItemShareSucceeded:  {data.ItemPendingExtension},
			data.ItemPendingApproval: {data.ItemPendingApproval},
			data.ItemShareRejected:   {data.ItemShareRejected},
			data.ItemShareFailed:     {data.ItemShareFailed},
			data.ItemRevokeSucceeded: {data.ItemRevokeSucceeded},
			data.ItemRevokeFailed:    {data.ItemRevokeFailed},
		}),
	}
}
