package events

import (
	"strings"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/exceptions"
	"github.com/aws/aws-lambda-go/events"
)

// ShareReconciler recomputes a share from its current items.
type ShareReconciler interface {
	ReconcileShare(shareId string) (data.ShareDTO, error)
}

// ItemChangedHandler keeps a share consistent with its items when item
// records change underneath it. Grant callbacks reconcile inline, so
// this mostly catches writes that bypass the service, but it also makes
// the stream a second chance for any reconcile the callback path lost.
type ItemChangedHandler struct {
	Shares ShareReconciler
}

func (ih *ItemChangedHandler) Filter(record events.DynamoDBEventRecord) bool {
	parts := strings.Split(record.Change.Keys["PK"].String(), ":")
	if len(parts) != 2 || parts[1] != "ShareItem" {
		return false
	}
	switch record.EventName {
	case "REMOVE":
		return true
	case "MODIFY":
		return record.Change.OldImage["status"].String() != record.Change.NewImage["status"].String()
	}
	return false
}

func (ih *ItemChangedHandler) Apply(record events.DynamoDBEventRecord) error {
	parts := strings.Split(record.Change.Keys["PK"].String(), ":")
	if _, err := ih.Shares.ReconcileShare(parts[0]); err != nil {
		// The share itself is gone, nothing left to reconcile
		if _, ok := err.(*exceptions.NotFoundError); ok {
			return nil
		}
		return err
	}
	return nil
}

// CascadeDeleteHandler removes the items and activities hanging off a
// deleted share record.
type CascadeDeleteHandler struct {
	Items      data.ShareItemRepository
	Activities data.ActivityRepository
}

func (ch *CascadeDeleteHandler) Filter(record events.DynamoDBEventRecord) bool {
	parts := strings.Split(record.Change.Keys["PK"].String(), ":")
	return record.EventName == "REMOVE" && len(parts) == 2 && parts[1] == "Share"
}

func (ch *CascadeDeleteHandler) Apply(record events.DynamoDBEventRecord) error {
	shareId := record.Change.Keys["SK"].String()
	if err := purge[data.ShareItemDTO, data.ShareItemInputDTO](ch.Items, shareId, func(item data.ShareItemDTO) string {
		return item.SK
	}); err != nil {
		return err
	}
	return purge[data.ActivityDTO, data.ActivityInputDTO](ch.Activities, shareId, func(activity data.ActivityDTO) string {
		return activity.SK
	})
}

// purge drains every record under one hash key, relisting from the top
// after each batch since deletes invalidate pagination tokens.
func purge[T interface{}, I interface{}](repo data.Repository[T, I], accountId string, sk func(T) string) error {
	for {
		results, err := repo.List(accountId, data.QueryParams{Limit: 100})
		if err != nil {
			return err
		}
		if len(results.Items) == 0 {
			return nil
		}
		for _, item := range results.Items {
			if err := repo.Delete(accountId, sk(item)); err != nil {
				return err
			}
		}
	}
}

func DefaultItemChangedHandler(service ShareReconciler) *ItemChangedHandler {
	return &ItemChangedHandler{
		Shares: service,
	}
}

func DefaultCascadeDeleteHandler(items data.ShareItemRepository, activities data.ActivityRepository) *CascadeDeleteHandler {
	return &CascadeDeleteHandler{
		Items:      items,
		Activities: activities,
	}
}
