package share

import (
	"fmt"
	"log"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/exceptions"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

// Service drives the share and item state machines over the durable
// repositories. Every mutation validates the transition against the
// current state and the caller's role before committing; transitions
// that require cloud work hand off to the executor and return with the
// affected items in flight.
type Service struct {
	Shares     data.ShareRepository
	Items      data.ShareItemRepository
	Datasets   data.DatasetRepository
	Principals data.PrincipalRepository
	Activities data.ActivityRepository
	Executor   GrantExecutor
	Notifier   Notifier

	shareSM Machine[data.ShareStatus]
	itemSM  Machine[data.ItemStatus]
}

func NewService(
	shares data.ShareRepository,
	items data.ShareItemRepository,
	datasets data.DatasetRepository,
	principals data.PrincipalRepository,
	activities data.ActivityRepository,
	executor GrantExecutor,
	notifier Notifier,
) *Service {
	return &Service{
		Shares:     shares,
		Items:      items,
		Datasets:   datasets,
		Principals: principals,
		Activities: activities,
		Executor:   executor,
		Notifier:   notifier,
		shareSM:    ShareMachine(),
		itemSM:     ItemMachine(),
	}
}

type CreateShareInput struct {
	DatasetId      string
	PrincipalId    string
	GroupId        string
	Permissions    []data.PermissionType
	RequestPurpose string
	ItemRef        string
	ItemType       data.ShareableType
	ItemName       string
}

// ShareId derives the share identifier from the (dataset, principal)
// pair, making creation naturally idempotent: the same pair always maps
// to the same id.
func ShareId(datasetId string, principalId string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(datasetId+"/"+principalId)).String()
}

// ItemId derives the item identifier from its share and catalog
// reference, enforcing one entry per (share, itemRef).
func ItemId(shareId string, itemRef string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(shareId+"/"+itemRef)).String()
}

// CreateShare registers the standing relationship between one principal
// and one dataset. Creating a pair that already exists returns the
// existing share with alreadyExisted set rather than an error.
func (s *Service) CreateShare(id Identity, input CreateShareInput) (data.ShareDTO, bool, error) {
	dataset, err := s.Datasets.Get(data.GlobalAccount, input.DatasetId)
	if err != nil {
		return data.ShareDTO{}, false, err
	}
	principal, err := s.Principals.Get(data.GlobalAccount, input.PrincipalId)
	if err != nil {
		return data.ShareDTO{}, false, err
	}
	groupId := input.GroupId
	if groupId == "" {
		groupId = principal.GroupId
	}
	if !id.memberOf(groupId) {
		return data.ShareDTO{}, false, exceptions.Unauthorized(
			"CreateShareObject",
			fmt.Sprintf("user %s is not a member of the team %s", id.Username, groupId),
		)
	}
	if groupId == dataset.AdminGroupId {
		return data.ShareDTO{}, false, exceptions.InvalidInput(
			"a dataset cannot be shared with the team that owns it",
		)
	}
	permissions := input.Permissions
	if len(permissions) == 0 {
		permissions = []data.PermissionType{data.PermissionRead}
	}
	for _, permission := range permissions {
		switch permission {
		case data.PermissionRead, data.PermissionWrite, data.PermissionModify:
		default:
			return data.ShareDTO{}, false, exceptions.InvalidInput(
				fmt.Sprintf("unknown permission: %s", permission),
			)
		}
	}
	if input.ItemRef != "" {
		if err := validateShareable(dataset, input.ItemType); err != nil {
			return data.ShareDTO{}, false, err
		}
	}
	shareId := ShareId(input.DatasetId, input.PrincipalId)
	status := data.ShareDraft
	share, err := s.Shares.CreateWithItemId(data.GlobalAccount, data.ShareInputDTO{
		DatasetId:         &input.DatasetId,
		GroupId:           &groupId,
		PrincipalId:       &input.PrincipalId,
		PrincipalType:     &principal.Type,
		PrincipalRoleName: &principal.RoleName,
		EnvironmentId:     &principal.EnvironmentId,
		Owner:             &id.Username,
		Status:            &status,
		Permissions:       &permissions,
		RequestPurpose:    &input.RequestPurpose,
	}, shareId)
	alreadyExisted := false
	if err != nil {
		if _, ok := err.(*exceptions.ConflictError); !ok {
			return data.ShareDTO{}, false, err
		}
		alreadyExisted = true
		share, err = s.Shares.Get(data.GlobalAccount, shareId)
		if err != nil {
			return data.ShareDTO{}, false, err
		}
	}
	if input.ItemRef != "" {
		_, err := s.addItem(id, share, AddItemInput{
			ItemRef:  input.ItemRef,
			ItemType: input.ItemType,
			ItemName: input.ItemName,
		})
		if err != nil {
			if _, ok := err.(*exceptions.ConflictError); !ok {
				return share, alreadyExisted, err
			}
		}
		share, err = s.Shares.Get(data.GlobalAccount, shareId)
		if err != nil {
			return share, alreadyExisted, err
		}
	}
	if !alreadyExisted {
		s.recordActivity(share, "SHARE_OBJECT:CREATE", id.Username, fmt.Sprintf(
			"%s created a share request for dataset %s with principal %s",
			id.Username, dataset.Name, principal.Name,
		))
	}
	return share, alreadyExisted, nil
}

// Submit moves a draft or rejected share into the approval queue. The
// request must carry at least one item pending approval.
func (s *Service) Submit(id Identity, shareId string) (data.ShareDTO, error) {
	share, dataset, items, err := s.getShareData(shareId)
	if err != nil {
		return data.ShareDTO{}, err
	}
	if err := requireRequester("SubmitShareObject", id, share, dataset); err != nil {
		return data.ShareDTO{}, err
	}
	pending := false
	for _, item := range items {
		switch item.Status {
		case data.ItemPendingApproval, data.ItemShareRejected, data.ItemShareFailed:
			pending = true
		}
	}
	if !pending {
		return data.ShareDTO{}, exceptions.InvalidInput(
			"The request is empty of pending items. Add items to share request.",
		)
	}
	share, err = s.runTransitions(share, items, ActionSubmit, data.ShareInputDTO{})
	if err != nil {
		return data.ShareDTO{}, err
	}
	s.recordActivity(share, "SHARE_OBJECT:SUBMIT", id.Username, fmt.Sprintf(
		"%s submitted share request %s for dataset %s", id.Username, share.SK, dataset.Name,
	))
	s.notify(EventSubmitted, share, id)
	if dataset.AutoApprovalEnabled {
		return s.approve(id, share, dataset)
	}
	return share, nil
}

// Approve accepts a submitted share and fans the grant work out to the
// executor, one task per pending item. Item failures are isolated: a
// failed enqueue marks that item failed without touching its siblings.
func (s *Service) Approve(id Identity, shareId string) (data.ShareDTO, error) {
	share, dataset, _, err := s.getShareData(shareId)
	if err != nil {
		return data.ShareDTO{}, err
	}
	if err := requireApprover("ApproveShareObject", id, share, dataset); err != nil {
		return data.ShareDTO{}, err
	}
	return s.approve(id, share, dataset)
}

func (s *Service) approve(id Identity, share data.ShareDTO, dataset data.DatasetDTO) (data.ShareDTO, error) {
	items, err := s.listAllItems(share.SK)
	if err != nil {
		return data.ShareDTO{}, err
	}
	share, err = s.runTransitions(share, items, ActionApprove, data.ShareInputDTO{
		RejectPurpose: aws.String(""),
	})
	if err != nil {
		return data.ShareDTO{}, err
	}
	s.recordActivity(share, "SHARE_OBJECT:APPROVE", id.Username, fmt.Sprintf(
		"%s approved share request %s for dataset %s", id.Username, share.SK, dataset.Name,
	))
	s.notify(EventApproved, share, id)
	return s.startSharing(share)
}

// startSharing claims every approved item, marks it in flight and hands
// it to the executor. Exactly one caller wins the claim on each item;
// losing a claim is not an error.
func (s *Service) startSharing(share data.ShareDTO) (data.ShareDTO, error) {
	items, err := s.listAllItems(share.SK)
	if err != nil {
		return share, err
	}
	started := false
	for _, item := range items {
		if item.Status != data.ItemShareApproved {
			continue
		}
		inProgress := data.ItemShareInProgress
		if _, err := s.Items.UpdateStatus(share.SK, item.SK, data.ItemShareApproved, data.ShareItemInputDTO{
			Status: &inProgress,
		}); err != nil {
			if _, ok := err.(*exceptions.ConflictError); ok {
				continue
			}
			return share, err
		}
		started = true
		if err := s.Executor.ExecuteGrant(s.grantTask(share, item)); err != nil {
			failed := data.ItemShareFailed
			message := err.Error()
			if _, err := s.Items.UpdateStatus(share.SK, item.SK, data.ItemShareInProgress, data.ShareItemInputDTO{
				Status:        &failed,
				HealthMessage: &message,
			}); err != nil {
				log.Printf("ERROR: failed to mark item %s failed: %s", item.SK, err)
			}
		}
	}
	if started {
		inProgress := data.ShareInProgress
		updated, err := s.Shares.UpdateStatus(data.GlobalAccount, share.SK, data.ShareApproved, data.ShareInputDTO{
			Status: &inProgress,
		})
		if err == nil {
			share = updated
		}
	}
	return s.reconcileShare(share.SK)
}

// Reject declines a submitted share, recording the reason. Pending
// items drop back to a rejected state; anything already granted is
// untouched.
func (s *Service) Reject(id Identity, shareId string, rejectPurpose string) (data.ShareDTO, error) {
	share, dataset, items, err := s.getShareData(shareId)
	if err != nil {
		return data.ShareDTO{}, err
	}
	if err := requireApprover("RejectShareObject", id, share, dataset); err != nil {
		return data.ShareDTO{}, err
	}
	share, err = s.runTransitions(share, items, ActionReject, data.ShareInputDTO{
		RejectPurpose: &rejectPurpose,
	})
	if err != nil {
		return data.ShareDTO{}, err
	}
	s.recordActivity(share, "SHARE_OBJECT:REJECT", id.Username, fmt.Sprintf(
		"%s rejected share request %s for dataset %s", id.Username, share.SK, dataset.Name,
	))
	s.notify(EventRejected, share, id)
	return share, nil
}

// Delete removes a share once nothing is granted or in flight. Force
// skips the shared item guard for operator cleanup of wedged requests.
func (s *Service) Delete(id Identity, shareId string, force bool) error {
	share, dataset, items, err := s.getShareData(shareId)
	if err != nil {
		return err
	}
	if err := requireAnyRole("DeleteShareObject", id, share, dataset); err != nil {
		return err
	}
	if _, _, err := s.shareSM.Run(ActionDelete, share.Status); err != nil {
		return err
	}
	if !force {
		for _, item := range items {
			for _, shared := range data.SharedItemStatuses() {
				if item.Status == shared {
					return exceptions.InvalidInput(
						"There are shared items in this request. Revoke access to these items before deleting the request.",
					)
				}
			}
		}
	}
	s.recordActivity(share, "SHARE_OBJECT:DELETE", id.Username, fmt.Sprintf(
		"%s deleted share request %s for dataset %s", id.Username, share.SK, dataset.Name,
	))
	for _, item := range items {
		if err := s.Items.Delete(share.SK, item.SK); err != nil {
			return err
		}
	}
	return s.Shares.Delete(data.GlobalAccount, shareId)
}

// GetShare returns the share visible to any holder of a role on it.
func (s *Service) GetShare(id Identity, shareId string) (data.ShareDTO, error) {
	share, dataset, _, err := s.getShareData(shareId)
	if err != nil {
		return data.ShareDTO{}, err
	}
	if err := requireAnyRole("GetShareObject", id, share, dataset); err != nil {
		return data.ShareDTO{}, err
	}
	return share, nil
}

// ShareFilter narrows a share listing. DatasetId selects the received
// view through the dataset index, GroupId the sent view of one
// requesting team, Statuses keeps only the named states.
type ShareFilter struct {
	DatasetId string
	GroupId   string
	Statuses  []data.ShareStatus
}

func (f ShareFilter) matches(share data.ShareDTO) bool {
	if f.GroupId != "" && share.GroupId != f.GroupId {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, share.Status) {
		return false
	}
	return true
}

// ListShares pages through shares. The group and status filters apply
// within each page, the same contract the item listing uses for
// revokable filtering.
func (s *Service) ListShares(filter ShareFilter, params data.QueryParams) (data.QueryResults[data.ShareDTO], error) {
	var results data.QueryResults[data.ShareDTO]
	var err error
	if filter.DatasetId != "" {
		results, err = s.Shares.ListByIndex(filter.DatasetId+":Share", "GS1", params)
	} else {
		results, err = s.Shares.List(data.GlobalAccount, params)
	}
	if err != nil {
		return results, err
	}
	var filtered []data.ShareDTO
	for _, share := range results.Items {
		if filter.matches(share) {
			filtered = append(filtered, share)
		}
	}
	results.Items = filtered
	return results, nil
}

// ListActivities pages through the audit trail of one share.
func (s *Service) ListActivities(id Identity, shareId string, params data.QueryParams) (data.QueryResults[data.ActivityDTO], error) {
	share, dataset, _, err := s.getShareData(shareId)
	if err != nil {
		return data.QueryResults[data.ActivityDTO]{}, err
	}
	if err := requireAnyRole("ListShareObjectActivities", id, share, dataset); err != nil {
		return data.QueryResults[data.ActivityDTO]{}, err
	}
	return s.Activities.List(shareId, params)
}

// ReconcileShare recomputes one share from its current item snapshot.
// Callbacks already reconcile as they land, so this is the entry point
// for out of band triggers such as table stream records.
func (s *Service) ReconcileShare(shareId string) (data.ShareDTO, error) {
	return s.reconcileShare(shareId)
}

// Statistics summarizes the item states of one share.
type Statistics struct {
	SharedItems  int `json:"sharedItems"`
	RevokedItems int `json:"revokedItems"`
	FailedItems  int `json:"failedItems"`
	PendingItems int `json:"pendingItems"`
}

func (s *Service) ShareStatistics(id Identity, shareId string) (Statistics, error) {
	share, dataset, items, err := s.getShareData(shareId)
	if err != nil {
		return Statistics{}, err
	}
	if err := requireAnyRole("GetShareObjectStatistics", id, share, dataset); err != nil {
		return Statistics{}, err
	}
	var stats Statistics
	for _, item := range items {
		switch item.Status {
		case data.ItemShareSucceeded:
			stats.SharedItems++
		case data.ItemRevokeSucceeded:
			stats.RevokedItems++
		case data.ItemShareFailed, data.ItemRevokeFailed:
			stats.FailedItems++
		case data.ItemPendingApproval:
			stats.PendingItems++
		}
	}
	return stats, nil
}

func (s *Service) UpdateRequestPurpose(id Identity, shareId string, purpose string) (data.ShareDTO, error) {
	share, dataset, _, err := s.getShareData(shareId)
	if err != nil {
		return data.ShareDTO{}, err
	}
	if err := requireRequester("UpdateRequestPurpose", id, share, dataset); err != nil {
		return data.ShareDTO{}, err
	}
	return s.Shares.Update(data.GlobalAccount, shareId, data.ShareInputDTO{RequestPurpose: &purpose})
}

func (s *Service) UpdateRejectPurpose(id Identity, shareId string, purpose string) (data.ShareDTO, error) {
	share, dataset, _, err := s.getShareData(shareId)
	if err != nil {
		return data.ShareDTO{}, err
	}
	if err := requireApprover("UpdateRejectPurpose", id, share, dataset); err != nil {
		return data.ShareDTO{}, err
	}
	return s.Shares.Update(data.GlobalAccount, shareId, data.ShareInputDTO{RejectPurpose: &purpose})
}

// runTransitions applies one action to the share and every one of its
// items, in the original's order: items first, share last, each with an
// optimistic guard on the state observed here.
func (s *Service) runTransitions(share data.ShareDTO, items []data.ShareItemDTO, action Action, input data.ShareInputDTO) (data.ShareDTO, error) {
	nextShare, shareChanged, err := s.shareSM.Run(action, share.Status)
	if err != nil {
		return share, err
	}
	for _, item := range items {
		next, changed, err := s.itemSM.Run(action, item.Status)
		if err != nil {
			return share, err
		}
		if !changed {
			continue
		}
		if next == data.ItemDeleted {
			if err := s.Items.Delete(share.SK, item.SK); err != nil {
				return share, err
			}
			continue
		}
		if _, err := s.Items.UpdateStatus(share.SK, item.SK, item.Status, data.ShareItemInputDTO{
			Status: &next,
		}); err != nil {
			return share, err
		}
	}
	if shareChanged || !inputEmpty(input) {
		target := share.Status
		if shareChanged {
			target = nextShare
		}
		input.Status = &target
		updated, err := s.Shares.UpdateStatus(data.GlobalAccount, share.SK, share.Status, input)
		if err != nil {
			return share, err
		}
		return updated, nil
	}
	return share, nil
}

func inputEmpty(input data.ShareInputDTO) bool {
	return input.RejectPurpose == nil &&
		input.RequestPurpose == nil &&
		input.ExtensionReason == nil &&
		input.ExpiryDate == nil &&
		input.RequestedExpiryDate == nil &&
		input.NonExpirable == nil &&
		input.LastExtensionDate == nil
}

func (s *Service) getShareData(shareId string) (data.ShareDTO, data.DatasetDTO, []data.ShareItemDTO, error) {
	share, err := s.Shares.Get(data.GlobalAccount, shareId)
	if err != nil {
		return data.ShareDTO{}, data.DatasetDTO{}, nil, err
	}
	dataset, err := s.Datasets.Get(data.GlobalAccount, share.DatasetId)
	if err != nil {
		return data.ShareDTO{}, data.DatasetDTO{}, nil, err
	}
	items, err := s.listAllItems(shareId)
	if err != nil {
		return data.ShareDTO{}, data.DatasetDTO{}, nil, err
	}
	return share, dataset, items, nil
}

func (s *Service) listAllItems(shareId string) ([]data.ShareItemDTO, error) {
	var items []data.ShareItemDTO
	var nextToken []byte
	for {
		results, err := s.Items.List(shareId, data.QueryParams{NextToken: nextToken})
		if err != nil {
			return nil, err
		}
		items = append(items, results.Items...)
		nextToken = results.NextToken
		if len(nextToken) == 0 {
			return items, nil
		}
	}
}

// reconcileShare recomputes the share status from a fresh snapshot of
// its items and commits the result when it differs from the stored one.
func (s *Service) reconcileShare(shareId string) (data.ShareDTO, error) {
	share, err := s.Shares.Get(data.GlobalAccount, shareId)
	if err != nil {
		return data.ShareDTO{}, err
	}
	items, err := s.listAllItems(shareId)
	if err != nil {
		return share, err
	}
	statuses := make([]data.ItemStatus, len(items))
	for i, item := range items {
		statuses[i] = item.Status
	}
	next := Reconcile(share.Status, statuses)
	if next == share.Status {
		return share, nil
	}
	updated, err := s.Shares.UpdateStatus(data.GlobalAccount, shareId, share.Status, data.ShareInputDTO{
		Status: &next,
	})
	if err != nil {
		if _, ok := err.(*exceptions.ConflictError); ok {
			// Lost the race to a sibling callback; its reconcile pass
			// covers this one.
			return s.Shares.Get(data.GlobalAccount, shareId)
		}
		return share, err
	}
	return updated, nil
}

func (s *Service) grantTask(share data.ShareDTO, item data.ShareItemDTO) GrantTask {
	return GrantTask{
		ShareId:           share.SK,
		ItemId:            item.SK,
		ItemRef:           item.ItemRef,
		ItemType:          item.ItemType,
		PrincipalId:       share.PrincipalId,
		PrincipalType:     share.PrincipalType,
		PrincipalRoleName: share.PrincipalRoleName,
		Permissions:       share.Permissions,
		DataFilterId:      item.DataFilterId,
	}
}

func (s *Service) recordActivity(share data.ShareDTO, action string, owner string, summary string) {
	_, err := s.Activities.Create(share.SK, data.ActivityInputDTO{
		ResourceId:   &share.SK,
		ResourceType: aws.String("share"),
		Action:       &action,
		Summary:      &summary,
		Owner:        &owner,
	})
	if err != nil {
		log.Printf("ERROR: failed to record %s activity on %s: %s", action, share.SK, err)
	}
}

func (s *Service) notify(eventType string, share data.ShareDTO, id Identity) {
	if s.Notifier == nil {
		return
	}
	err := s.Notifier.PublishShareEvent(ShareEvent{
		Type:      eventType,
		ShareId:   share.SK,
		DatasetId: share.DatasetId,
		Actor:     id.Username,
		Message:   fmt.Sprintf("%s on share %s by %s", eventType, share.SK, id.Username),
	})
	if err != nil {
		log.Printf("ERROR: failed to publish %s for %s: %s", eventType, share.SK, err)
	}
}

func validateShareable(dataset data.DatasetDTO, itemType data.ShareableType) error {
	switch itemType {
	case data.ShareableTable, data.ShareableFolder, data.ShareableDashboard, data.ShareableRedshiftTable:
	default:
		return exceptions.InvalidInput(fmt.Sprintf("unknown item type: %s", itemType))
	}
	if len(dataset.ShareableTypes) == 0 {
		return nil
	}
	for _, shareable := range dataset.ShareableTypes {
		if shareable == itemType {
			return nil
		}
	}
	return exceptions.InvalidInput(fmt.Sprintf(
		"items of type %s cannot be shared from dataset %s", itemType, dataset.Name,
	))
}
