package share

import (
	"fmt"
	"time"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/exceptions"
)

// ApplyReport routes an executor callback to the right handler by its
// action label.
func (s *Service) ApplyReport(report ExecutionReport) error {
	switch report.Action {
	case ReportGrant:
		return s.ApplyGrantResult(report)
	case ReportRevoke:
		return s.ApplyRevokeResult(report)
	case ReportVerify:
		return s.ApplyVerifyResult(report)
	case ReportReapply:
		return s.ApplyReapplyResult(report)
	default:
		return exceptions.InvalidInput(fmt.Sprintf("unknown report action %s", report.Action))
	}
}

// ApplyGrantResult lands the outcome of one grant. Only an item still in
// Share_In_Progress is touched, so a redelivered report is a no-op. The
// share status is recomputed from the full item set afterwards, letting
// each item succeed or fail on its own.
func (s *Service) ApplyGrantResult(report ExecutionReport) error {
	item, err := s.Items.Get(report.ShareId, report.ItemId)
	if err != nil {
		if _, ok := err.(*exceptions.NotFoundError); ok {
			return nil
		}
		return err
	}
	if item.Status != data.ItemShareInProgress {
		return nil
	}
	input := data.ShareItemInputDTO{}
	if report.Success {
		succeeded := data.ItemShareSucceeded
		healthy := data.HealthHealthy
		empty := ""
		input.Status = &succeeded
		input.HealthStatus = &healthy
		input.HealthMessage = &empty
	} else {
		failed := data.ItemShareFailed
		input.Status = &failed
		input.HealthMessage = &report.Message
	}
	if _, err := s.Items.UpdateStatus(report.ShareId, report.ItemId, data.ItemShareInProgress, input); err != nil {
		if _, ok := err.(*exceptions.ConflictError); ok {
			return nil
		}
		return err
	}
	_, err = s.reconcileShare(report.ShareId)
	return err
}

// ApplyRevokeResult lands the outcome of one revoke, with the same
// duplicate delivery and reconciliation behavior as grants.
func (s *Service) ApplyRevokeResult(report ExecutionReport) error {
	item, err := s.Items.Get(report.ShareId, report.ItemId)
	if err != nil {
		if _, ok := err.(*exceptions.NotFoundError); ok {
			return nil
		}
		return err
	}
	if item.Status != data.ItemRevokeInProgress {
		return nil
	}
	if report.Success {
		// The item stays on the share as Revoke_Succeeded; removing it
		// is a separate, user driven delete.
		succeeded := data.ItemRevokeSucceeded
		empty := ""
		if _, err := s.Items.UpdateStatus(report.ShareId, report.ItemId, data.ItemRevokeInProgress, data.ShareItemInputDTO{
			Status:        &succeeded,
			HealthMessage: &empty,
		}); err != nil {
			if _, ok := err.(*exceptions.ConflictError); ok {
				return nil
			}
			return err
		}
	} else {
		failed := data.ItemRevokeFailed
		if _, err := s.Items.UpdateStatus(report.ShareId, report.ItemId, data.ItemRevokeInProgress, data.ShareItemInputDTO{
			Status:        &failed,
			HealthMessage: &report.Message,
		}); err != nil {
			if _, ok := err.(*exceptions.ConflictError); ok {
				return nil
			}
			return err
		}
	}
	_, err = s.reconcileShare(report.ShareId)
	return err
}

// ExpireShares sweeps for shares whose expiry date has passed and
// revokes every remaining grant. Meant to run on a schedule.
func (s *Service) ExpireShares(now time.Time) error {
	params := data.QueryParams{}
	system := Identity{Username: "system", Groups: nil}
	for {
		results, err := s.Shares.List(data.GlobalAccount, params)
		if err != nil {
			return err
		}
		for _, dto := range results.Items {
			if dto.NonExpirable || dto.ExpiryDate == nil || dto.ExpiryDate.After(now) {
				continue
			}
			if dto.Status != data.ShareProcessed && dto.Status != data.ShareExtensionRejected {
				continue
			}
			if _, err := s.revokeAllAs(system, dto); err != nil {
				if _, ok := err.(*exceptions.InvalidInputError); ok {
					continue
				}
				return err
			}
		}
		if results.NextToken == nil {
			return nil
		}
		params.NextToken = results.NextToken
	}
}

// revokeAllAs is ExpireShares' entry into the revoke pipeline, skipping
// the role check since the sweep acts on behalf of the platform.
func (s *Service) revokeAllAs(id Identity, share data.ShareDTO) (data.ShareDTO, error) {
	items, err := s.listAllItems(share.SK)
	if err != nil {
		return data.ShareDTO{}, err
	}
	revoked := false
	approved := data.ItemRevokeApproved
	for _, item := range items {
		switch item.Status {
		case data.ItemPendingApproval:
			if err := s.Items.Delete(share.SK, item.SK); err != nil {
				return data.ShareDTO{}, err
			}
		case data.ItemShareSucceeded, data.ItemRevokeFailed:
			if _, err := s.Items.UpdateStatus(share.SK, item.SK, item.Status, data.ShareItemInputDTO{
				Status: &approved,
			}); err != nil {
				return data.ShareDTO{}, err
			}
			revoked = true
		}
	}
	if !revoked {
		return data.ShareDTO{}, exceptions.InvalidInput("Nothing to be revoked.")
	}
	next, changed, err := s.shareSM.Run(ActionRevokeItems, share.Status)
	if err != nil {
		return data.ShareDTO{}, err
	}
	if changed {
		updated, err := s.Shares.UpdateStatus(data.GlobalAccount, share.SK, share.Status, data.ShareInputDTO{
			Status: &next,
		})
		if err != nil {
			return data.ShareDTO{}, err
		}
		share = updated
	}
	s.recordActivity(share, "SHARE_OBJECT:EXPIRE", id.Username, fmt.Sprintf(
		"share %s expired and is being revoked", share.SK,
	))
	s.notify(EventRevoked, share, id)
	return s.startRevoking(share)
}
