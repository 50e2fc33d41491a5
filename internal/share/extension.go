package share

import (
	"fmt"
	"time"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/exceptions"
)

type ExtensionInput struct {
	// PeriodInMonths extends the expiry by whole months from the current
	// expiry date. Ignored when NonExpirable is set.
	PeriodInMonths *int
	NonExpirable   bool
	Reason         string
}

// SubmitExtension asks for more time on an expiring share. The request
// parks the share in Submitted_For_Extension until an approver decides;
// granted items keep working in the meantime.
func (s *Service) SubmitExtension(id Identity, shareId string, input ExtensionInput) (data.ShareDTO, error) {
	share, dataset, items, err := s.getShareData(shareId)
	if err != nil {
		return data.ShareDTO{}, err
	}
	if err := requireRequester("SubmitShareExtension", id, share, dataset); err != nil {
		return data.ShareDTO{}, err
	}
	if !dataset.EnableExpiration {
		return data.ShareDTO{}, exceptions.InvalidInput(
			fmt.Sprintf("dataset %s does not have expiration enabled", dataset.Name),
		)
	}
	if share.NonExpirable {
		return data.ShareDTO{}, exceptions.InvalidInput("share is non-expirable, no extension needed")
	}
	update := data.ShareInputDTO{
		ExtensionReason: &input.Reason,
	}
	if input.NonExpirable {
		// A request with no requested date asks to drop the expiry
		// entirely. Nothing commits until an approver agrees, so the
		// share keeps its current expiry while the request is pending.
		var cleared time.Time
		update.RequestedExpiryDate = &cleared
	} else {
		if input.PeriodInMonths == nil || *input.PeriodInMonths <= 0 {
			return data.ShareDTO{}, exceptions.InvalidInput("extension period must be a positive number of months")
		}
		if dataset.ExpiryMaxDuration != nil && *input.PeriodInMonths > *dataset.ExpiryMaxDuration {
			return data.ShareDTO{}, exceptions.InvalidInput(fmt.Sprintf(
				"extension period exceeds the maximum of %d months for dataset %s",
				*dataset.ExpiryMaxDuration, dataset.Name,
			))
		}
		base := time.Now().UTC()
		if share.ExpiryDate != nil && share.ExpiryDate.After(base) {
			base = *share.ExpiryDate
		}
		requested := base.AddDate(0, *input.PeriodInMonths, 0)
		update.RequestedExpiryDate = &requested
	}
	updated, err := s.runTransitions(share, items, ActionExtension, update)
	if err != nil {
		return data.ShareDTO{}, err
	}
	s.recordActivity(updated, "SHARE_OBJECT:SUBMIT_EXTENSION", id.Username, fmt.Sprintf(
		"%s requested an extension on share %s for dataset %s", id.Username, shareId, dataset.Name,
	))
	s.notify(EventExtensionRequested, updated, id)
	return updated, nil
}

// ApproveExtension commits the requested expiry onto the share and
// returns it to Processed. Item access never lapsed during the request.
func (s *Service) ApproveExtension(id Identity, shareId string) (data.ShareDTO, error) {
	share, dataset, items, err := s.getShareData(shareId)
	if err != nil {
		return data.ShareDTO{}, err
	}
	if err := requireApprover("ApproveShareExtension", id, share, dataset); err != nil {
		return data.ShareDTO{}, err
	}
	now := time.Now().UTC()
	update := data.ShareInputDTO{
		LastExtensionDate: &now,
	}
	var cleared time.Time
	if share.RequestedExpiryDate != nil {
		update.ExpiryDate = share.RequestedExpiryDate
		update.RequestedExpiryDate = &cleared
	} else {
		// No requested date on a pending request means the requester
		// asked to make the share non-expirable.
		nonExpirable := true
		update.NonExpirable = &nonExpirable
		update.ExpiryDate = &cleared
	}
	updated, err := s.runTransitions(share, items, ActionExtensionApprove, update)
	if err != nil {
		return data.ShareDTO{}, err
	}
	s.recordActivity(updated, "SHARE_OBJECT:APPROVE_EXTENSION", id.Username, fmt.Sprintf(
		"%s approved the extension on share %s for dataset %s", id.Username, shareId, dataset.Name,
	))
	s.notify(EventExtensionApproved, updated, id)
	return updated, nil
}

// RejectExtension declines the request. The share lands in
// Extension_Rejected with its original expiry untouched, and the
// requester may submit again.
func (s *Service) RejectExtension(id Identity, shareId string, rejectPurpose string) (data.ShareDTO, error) {
	share, dataset, items, err := s.getShareData(shareId)
	if err != nil {
		return data.ShareDTO{}, err
	}
	if err := requireApprover("RejectShareExtension", id, share, dataset); err != nil {
		return data.ShareDTO{}, err
	}
	var cleared time.Time
	updated, err := s.runTransitions(share, items, ActionExtensionReject, data.ShareInputDTO{
		RejectPurpose:       &rejectPurpose,
		RequestedExpiryDate: &cleared,
	})
	if err != nil {
		return data.ShareDTO{}, err
	}
	s.recordActivity(updated, "SHARE_OBJECT:REJECT_EXTENSION", id.Username, fmt.Sprintf(
		"%s rejected the extension on share %s for dataset %s", id.Username, shareId, dataset.Name,
	))
	s.notify(EventExtensionRejected, updated, id)
	return updated, nil
}

// CancelExtension lets the requester withdraw their own pending request.
func (s *Service) CancelExtension(id Identity, shareId string) (data.ShareDTO, error) {
	share, dataset, items, err := s.getShareData(shareId)
	if err != nil {
		return data.ShareDTO{}, err
	}
	if err := requireRequester("CancelShareExtension", id, share, dataset); err != nil {
		return data.ShareDTO{}, err
	}
	var cleared time.Time
	empty := ""
	updated, err := s.runTransitions(share, items, ActionCancelExtension, data.ShareInputDTO{
		RequestedExpiryDate: &cleared,
		ExtensionReason:     &empty,
	})
	if err != nil {
		return data.ShareDTO{}, err
	}
	s.recordActivity(updated, "SHARE_OBJECT:CANCEL_EXTENSION", id.Username, fmt.Sprintf(
		"%s cancelled the extension request on share %s", id.Username, shareId,
	))
	return updated, nil
}

// UpdateExtensionPurpose edits the free form reason on a pending request.
func (s *Service) UpdateExtensionPurpose(id Identity, shareId string, reason string) (data.ShareDTO, error) {
	share, dataset, _, err := s.getShareData(shareId)
	if err != nil {
		return data.ShareDTO{}, err
	}
	if err := requireRequester("UpdateShareExtensionPurpose", id, share, dataset); err != nil {
		return data.ShareDTO{}, err
	}
	if share.Status != data.ShareSubmittedForExtension {
		return data.ShareDTO{}, exceptions.InvalidInput("share has no pending extension request")
	}
	return s.Shares.Update(data.GlobalAccount, shareId, data.ShareInputDTO{
		ExtensionReason: &reason,
	})
}

// UpdateExpirationPeriod recomputes the requested expiry on a pending
// request from a new period.
func (s *Service) UpdateExpirationPeriod(id Identity, shareId string, periodInMonths int) (data.ShareDTO, error) {
	share, dataset, _, err := s.getShareData(shareId)
	if err != nil {
		return data.ShareDTO{}, err
	}
	if err := requireRequester("UpdateShareExpirationPeriod", id, share, dataset); err != nil {
		return data.ShareDTO{}, err
	}
	if share.Status != data.ShareSubmittedForExtension {
		return data.ShareDTO{}, exceptions.InvalidInput("share has no pending extension request")
	}
	if periodInMonths <= 0 {
		return data.ShareDTO{}, exceptions.InvalidInput("extension period must be a positive number of months")
	}
	if dataset.ExpiryMaxDuration != nil && periodInMonths > *dataset.ExpiryMaxDuration {
		return data.ShareDTO{}, exceptions.InvalidInput(fmt.Sprintf(
			"extension period exceeds the maximum of %d months for dataset %s",
			*dataset.ExpiryMaxDuration, dataset.Name,
		))
	}
	base := time.Now().UTC()
	if share.ExpiryDate != nil && share.ExpiryDate.After(base) {
		base = *share.ExpiryDate
	}
	requested := base.AddDate(0, periodInMonths, 0)
	return s.Shares.Update(data.GlobalAccount, shareId, data.ShareInputDTO{
		RequestedExpiryDate: &requested,
	})
}
