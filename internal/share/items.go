package share

import (
	"fmt"
	"log"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/exceptions"
	"golang.org/x/exp/slices"
)

type AddItemInput struct {
	ItemRef  string
	ItemType data.ShareableType
	ItemName string
}

// AddItem attaches one catalog object to the share in PendingApproval.
// Attaching to a submitted, rejected or processed share pulls the share
// back into Draft for another submission round. The same reference can
// only appear once per share.
func (s *Service) AddItem(id Identity, shareId string, input AddItemInput) (data.ShareItemDTO, error) {
	share, dataset, _, err := s.getShareData(shareId)
	if err != nil {
		return data.ShareItemDTO{}, err
	}
	if err := requireRequester("AddSharedItem", id, share, dataset); err != nil {
		return data.ShareItemDTO{}, err
	}
	if err := validateShareable(dataset, input.ItemType); err != nil {
		return data.ShareItemDTO{}, err
	}
	return s.addItem(id, share, input)
}

func (s *Service) addItem(id Identity, share data.ShareDTO, input AddItemInput) (data.ShareItemDTO, error) {
	next, changed, err := s.shareSM.Run(ActionAddItem, share.Status)
	if err != nil {
		return data.ShareItemDTO{}, err
	}
	status := data.ItemPendingApproval
	item, err := s.Items.CreateWithItemId(share.SK, data.ShareItemInputDTO{
		ShareId:  &share.SK,
		ItemRef:  &input.ItemRef,
		ItemType: &input.ItemType,
		ItemName: &input.ItemName,
		Owner:    &id.Username,
		Status:   &status,
	}, ItemId(share.SK, input.ItemRef))
	if err != nil {
		return data.ShareItemDTO{}, err
	}
	if changed {
		if _, err := s.Shares.UpdateStatus(data.GlobalAccount, share.SK, share.Status, data.ShareInputDTO{
			Status: &next,
		}); err != nil {
			return item, err
		}
	}
	return item, nil
}

// RemoveItem deletes an item that was never granted, or whose grant was
// fully revoked. Anything else must be revoked first.
func (s *Service) RemoveItem(id Identity, shareId string, itemId string) error {
	share, dataset, _, err := s.getShareData(shareId)
	if err != nil {
		return err
	}
	if err := requireAnyRole("RemoveSharedItem", id, share, dataset); err != nil {
		return err
	}
	item, err := s.Items.Get(shareId, itemId)
	if err != nil {
		return err
	}
	if _, _, err := s.itemSM.Run(ActionRemoveItem, item.Status); err != nil {
		return exceptions.Unauthorized(
			"RemoveSharedItem",
			fmt.Sprintf("item is in state %s. Revoke access to this item before deleting", item.Status),
		)
	}
	return s.Items.Delete(shareId, itemId)
}

func (s *Service) GetItem(id Identity, shareId string, itemId string) (data.ShareItemDTO, error) {
	share, dataset, _, err := s.getShareData(shareId)
	if err != nil {
		return data.ShareItemDTO{}, err
	}
	if err := requireAnyRole("GetSharedItem", id, share, dataset); err != nil {
		return data.ShareItemDTO{}, err
	}
	return s.Items.Get(shareId, itemId)
}

// ListItems pages through the items of a share. With revokableOnly set
// only items eligible for a revoke request are returned; eligibility is
// checked per item, never inferred from the share status.
func (s *Service) ListItems(id Identity, shareId string, params data.QueryParams, revokableOnly bool) (data.QueryResults[data.ShareItemDTO], error) {
	share, dataset, _, err := s.getShareData(shareId)
	if err != nil {
		return data.QueryResults[data.ShareItemDTO]{}, err
	}
	if err := requireAnyRole("ListSharedItems", id, share, dataset); err != nil {
		return data.QueryResults[data.ShareItemDTO]{}, err
	}
	results, err := s.Items.List(shareId, params)
	if err != nil {
		return results, err
	}
	if !revokableOnly {
		return results, nil
	}
	var filtered []data.ShareItemDTO
	for _, item := range results.Items {
		if slices.Contains(data.RevokableItemStatuses(), item.Status) {
			filtered = append(filtered, item)
		}
	}
	results.Items = filtered
	return results, nil
}

// RevokeItems withdraws access for the named items. Eligibility is per
// item: granted items move into the revoke pipeline, items still
// pending approval are simply dropped, and in flight items are rejected
// as conflicts. The share status is recomputed from the item set once
// the executor hand-off is done.
func (s *Service) RevokeItems(id Identity, shareId string, itemIds []string) (data.ShareDTO, error) {
	share, dataset, _, err := s.getShareData(shareId)
	if err != nil {
		return data.ShareDTO{}, err
	}
	if err := requireAnyRole("RevokeItemsShareObject", id, share, dataset); err != nil {
		return data.ShareDTO{}, err
	}
	if len(itemIds) == 0 {
		return data.ShareDTO{}, exceptions.InvalidInput("Nothing to be revoked.")
	}
	items := make([]data.ShareItemDTO, 0, len(itemIds))
	for _, itemId := range itemIds {
		item, err := s.Items.Get(shareId, itemId)
		if err != nil {
			return data.ShareDTO{}, err
		}
		if item.HealthStatus != nil && *item.HealthStatus == data.HealthPendingReApply {
			return data.ShareDTO{}, exceptions.Unauthorized(
				"RevokeItemsShareObject",
				"Cannot revoke while reapply pending for one or more items.",
			)
		}
		items = append(items, item)
	}
	var revocable []data.ShareItemDTO
	for _, item := range items {
		switch item.Status {
		case data.ItemPendingApproval:
			// Never granted: a revoke short-circuits to a removal.
			if err := s.Items.Delete(shareId, item.SK); err != nil {
				return data.ShareDTO{}, err
			}
		case data.ItemShareSucceeded, data.ItemRevokeFailed:
			revocable = append(revocable, item)
		case data.ItemShareInProgress, data.ItemRevokeInProgress:
			return data.ShareDTO{}, exceptions.ConflictWithHint(
				"share item", item.SK,
				"An execution is in progress for this item; retry once it completes",
			)
		default:
			return data.ShareDTO{}, exceptions.InvalidInput(fmt.Sprintf(
				"item %s in state %s cannot be revoked", item.SK, item.Status,
			))
		}
	}
	if len(revocable) == 0 {
		share, err = s.reconcileShare(shareId)
		if err != nil {
			return data.ShareDTO{}, err
		}
		return share, nil
	}
	next, changed, err := s.shareSM.Run(ActionRevokeItems, share.Status)
	if err != nil {
		return data.ShareDTO{}, err
	}
	if changed {
		updated, err := s.Shares.UpdateStatus(data.GlobalAccount, shareId, share.Status, data.ShareInputDTO{
			Status: &next,
		})
		if err != nil {
			return data.ShareDTO{}, err
		}
		share = updated
	}
	approved := data.ItemRevokeApproved
	for _, item := range revocable {
		if _, err := s.Items.UpdateStatus(shareId, item.SK, item.Status, data.ShareItemInputDTO{
			Status: &approved,
		}); err != nil {
			return data.ShareDTO{}, err
		}
	}
	s.recordActivity(share, "SHARE_OBJECT:REVOKE_ITEMS", id.Username, fmt.Sprintf(
		"%s revoked %d item(s) on share %s for dataset %s",
		id.Username, len(revocable), share.SK, dataset.Name,
	))
	s.notify(EventRevoked, share, id)
	return s.startRevoking(share)
}

// RevokeAll revokes every currently revokable item on the share.
func (s *Service) RevokeAll(id Identity, shareId string) (data.ShareDTO, error) {
	items, err := s.listAllItems(shareId)
	if err != nil {
		return data.ShareDTO{}, err
	}
	var itemIds []string
	for _, item := range items {
		switch item.Status {
		case data.ItemPendingApproval, data.ItemShareSucceeded, data.ItemRevokeFailed:
			itemIds = append(itemIds, item.SK)
		}
	}
	if len(itemIds) == 0 {
		return data.ShareDTO{}, exceptions.InvalidInput("Nothing to be revoked.")
	}
	return s.RevokeItems(id, shareId, itemIds)
}

// startRevoking mirrors startSharing for the revoke pipeline.
func (s *Service) startRevoking(share data.ShareDTO) (data.ShareDTO, error) {
	items, err := s.listAllItems(share.SK)
	if err != nil {
		return share, err
	}
	started := false
	for _, item := range items {
		if item.Status != data.ItemRevokeApproved {
			continue
		}
		inProgress := data.ItemRevokeInProgress
		if _, err := s.Items.UpdateStatus(share.SK, item.SK, data.ItemRevokeApproved, data.ShareItemInputDTO{
			Status: &inProgress,
		}); err != nil {
			if _, ok := err.(*exceptions.ConflictError); ok {
				continue
			}
			return share, err
		}
		started = true
		if err := s.Executor.ExecuteRevoke(s.grantTask(share, item)); err != nil {
			failed := data.ItemRevokeFailed
			message := err.Error()
			if _, err := s.Items.UpdateStatus(share.SK, item.SK, data.ItemRevokeInProgress, data.ShareItemInputDTO{
				Status:        &failed,
				HealthMessage: &message,
			}); err != nil {
				log.Printf("ERROR: failed to mark item %s revoke failed: %s", item.SK, err)
			}
		}
	}
	if started {
		inProgress := data.ShareRevokeInProgress
		updated, err := s.Shares.UpdateStatus(data.GlobalAccount, share.SK, data.ShareRevoked, data.ShareInputDTO{
			Status: &inProgress,
		})
		if err == nil {
			share = updated
		}
	}
	return s.reconcileShare(share.SK)
}

type DataFilterInput struct {
	FilterId string
	Label    string
}

// AttachDataFilter binds a row/column filter to a table item before it
// is granted. The filter is immutable once the item is in flight.
func (s *Service) AttachDataFilter(id Identity, shareId string, itemId string, input DataFilterInput) (data.ShareItemDTO, error) {
	share, dataset, items, err := s.getShareData(shareId)
	if err != nil {
		return data.ShareItemDTO{}, err
	}
	if err := requireApprover("UpdateShareItemFilters", id, share, dataset); err != nil {
		return data.ShareItemDTO{}, err
	}
	item, err := s.Items.Get(shareId, itemId)
	if err != nil {
		return data.ShareItemDTO{}, err
	}
	if item.ItemType != data.ShareableTable {
		return data.ShareItemDTO{}, exceptions.InvalidInput(
			fmt.Sprintf("share item is not of type %s - required for data filters", data.ShareableTable),
		)
	}
	if slices.Contains(data.SharedItemStatuses(), item.Status) {
		return data.ShareItemDTO{}, exceptions.InvalidInput(fmt.Sprintf(
			"share item already shared in state %s - can not assign filters", item.Status,
		))
	}
	for _, sibling := range items {
		if sibling.SK == itemId {
			continue
		}
		if sibling.DataFilterLabel != nil && *sibling.DataFilterLabel == input.Label {
			return data.ShareItemDTO{}, exceptions.InvalidInput(fmt.Sprintf(
				"same label already exists on another share item for table %s", item.ItemName,
			))
		}
	}
	return s.Items.Update(shareId, itemId, data.ShareItemInputDTO{
		DataFilterId:    &input.FilterId,
		DataFilterLabel: &input.Label,
	})
}

// RemoveDataFilter detaches the filter from an un-shared table item.
func (s *Service) RemoveDataFilter(id Identity, shareId string, itemId string) (data.ShareItemDTO, error) {
	share, dataset, _, err := s.getShareData(shareId)
	if err != nil {
		return data.ShareItemDTO{}, err
	}
	if err := requireApprover("RemoveShareItemFilters", id, share, dataset); err != nil {
		return data.ShareItemDTO{}, err
	}
	item, err := s.Items.Get(shareId, itemId)
	if err != nil {
		return data.ShareItemDTO{}, err
	}
	if slices.Contains(data.SharedItemStatuses(), item.Status) {
		return data.ShareItemDTO{}, exceptions.InvalidInput(fmt.Sprintf(
			"share item in shared state %s - can not remove filters, must revoke first", item.Status,
		))
	}
	empty := ""
	return s.Items.Update(shareId, itemId, data.ShareItemInputDTO{
		DataFilterId:    &empty,
		DataFilterLabel: &empty,
	})
}
