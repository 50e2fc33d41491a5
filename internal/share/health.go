package share

import (
	"fmt"
	"strings"
	"time"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/exceptions"
	"golang.org/x/exp/slices"
)

// VerifyItems schedules a health check on granted items. Health is a
// diagnostic axis next to the lifecycle status: verifying an item never
// moves its lifecycle state, and either role may request it.
func (s *Service) VerifyItems(id Identity, shareId string, itemIds []string) error {
	share, dataset, items, err := s.getShareData(shareId)
	if err != nil {
		return err
	}
	if err := requireAnyRole("VerifyItemsShareObject", id, share, dataset); err != nil {
		return err
	}
	selected, err := selectItems(items, itemIds)
	if err != nil {
		return err
	}
	// The whole selection validates before anything mutates, so a bad
	// id or state leaves no item half flagged.
	for _, item := range selected {
		if !isGranted(item.Status) {
			return exceptions.InvalidInput(fmt.Sprintf(
				"item %s in state %s has no active grant to verify", item.SK, item.Status,
			))
		}
	}
	pending := data.HealthPendingVerify
	for _, item := range selected {
		if _, err := s.Items.Update(shareId, item.SK, data.ShareItemInputDTO{
			HealthStatus: &pending,
		}); err != nil {
			return err
		}
		if err := s.Executor.ExecuteVerify(s.grantTask(share, item)); err != nil {
			message := err.Error()
			unhealthy := data.HealthUnhealthy
			now := time.Now().UTC()
			if _, err := s.Items.Update(shareId, item.SK, data.ShareItemInputDTO{
				HealthStatus:         &unhealthy,
				HealthMessage:        &message,
				LastVerificationTime: &now,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReapplyItems retries the grant on unhealthy items without walking the
// lifecycle machine back. Only approvers may reapply.
func (s *Service) ReapplyItems(id Identity, shareId string, itemIds []string) error {
	share, dataset, items, err := s.getShareData(shareId)
	if err != nil {
		return err
	}
	if err := requireApprover("ReApplyShareObjectItems", id, share, dataset); err != nil {
		return err
	}
	selected, err := selectItems(items, itemIds)
	if err != nil {
		return err
	}
	for _, item := range selected {
		if item.HealthStatus == nil || *item.HealthStatus != data.HealthUnhealthy {
			return exceptions.InvalidInput(fmt.Sprintf(
				"item %s is not unhealthy, nothing to reapply", item.SK,
			))
		}
	}
	pending := data.HealthPendingReApply
	for _, item := range selected {
		if _, err := s.Items.Update(shareId, item.SK, data.ShareItemInputDTO{
			HealthStatus: &pending,
		}); err != nil {
			return err
		}
		if err := s.Executor.ExecuteReapply(s.grantTask(share, item)); err != nil {
			message := err.Error()
			unhealthy := data.HealthUnhealthy
			now := time.Now().UTC()
			if _, err := s.Items.Update(shareId, item.SK, data.ShareItemInputDTO{
				HealthStatus:         &unhealthy,
				HealthMessage:        &message,
				LastVerificationTime: &now,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// ApplyVerifyResult records the executor's verdict on one item. New
// findings are appended pipe delimited so earlier context survives the
// next check.
func (s *Service) ApplyVerifyResult(report ExecutionReport) error {
	item, err := s.Items.Get(report.ShareId, report.ItemId)
	if err != nil {
		return err
	}
	if item.HealthStatus == nil || *item.HealthStatus != data.HealthPendingVerify {
		// Duplicate or stale delivery.
		return nil
	}
	status := data.HealthHealthy
	message := ""
	if !report.Success {
		status = data.HealthUnhealthy
		message = report.Message
		if item.HealthMessage != nil && *item.HealthMessage != "" {
			message = strings.Join([]string{*item.HealthMessage, report.Message}, " | ")
		}
	}
	now := time.Now().UTC()
	_, err = s.Items.Update(report.ShareId, report.ItemId, data.ShareItemInputDTO{
		HealthStatus:         &status,
		HealthMessage:        &message,
		LastVerificationTime: &now,
	})
	return err
}

// ApplyReapplyResult records the outcome of a reapply run. A success
// restores the item to Healthy and clears the findings.
func (s *Service) ApplyReapplyResult(report ExecutionReport) error {
	item, err := s.Items.Get(report.ShareId, report.ItemId)
	if err != nil {
		return err
	}
	if item.HealthStatus == nil || *item.HealthStatus != data.HealthPendingReApply {
		return nil
	}
	status := data.HealthHealthy
	message := ""
	if !report.Success {
		status = data.HealthUnhealthy
		message = report.Message
	}
	now := time.Now().UTC()
	_, err = s.Items.Update(report.ShareId, report.ItemId, data.ShareItemInputDTO{
		HealthStatus:         &status,
		HealthMessage:        &message,
		LastVerificationTime: &now,
	})
	return err
}

func isGranted(status data.ItemStatus) bool {
	return slices.Contains(data.SharedItemStatuses(), status)
}

// selectItems resolves the requested ids against the loaded item set, or
// returns every item when no ids are given.
func selectItems(items []data.ShareItemDTO, itemIds []string) ([]data.ShareItemDTO, error) {
	if len(itemIds) == 0 {
		return items, nil
	}
	byId := make(map[string]data.ShareItemDTO, len(items))
	for _, item := range items {
		byId[item.SK] = item
	}
	selected := make([]data.ShareItemDTO, 0, len(itemIds))
	for _, itemId := range itemIds {
		item, ok := byId[itemId]
		if !ok {
			return nil, exceptions.NotFound("share item", itemId)
		}
		selected = append(selected, item)
	}
	return selected, nil
}
