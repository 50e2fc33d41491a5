package share

import (
	"errors"
	"testing"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/exceptions"
)

const (
	testDatasetId   = "dataset-orders"
	testPrincipalId = "team-analytics"
)

var (
	requester = Identity{Username: "rita", Groups: []string{"analytics"}}
	approver  = Identity{Username: "adam", Groups: []string{"data-team"}}
	outsider  = Identity{Username: "oscar", Groups: []string{"marketing"}}
)

type harness struct {
	service  *Service
	shares   *memShares
	items    *memItems
	datasets *memDatasets
	executor *fakeExecutor
	notifier *fakeNotifier
}

func newHarness() *harness {
	shares := newMemShares()
	items := newMemItems()
	datasets := &memDatasets{datasets: map[string]data.DatasetDTO{
		testDatasetId: {
			SK:              testDatasetId,
			Name:            "orders",
			AdminGroupId:    "data-team",
			StewardsGroupId: "stewards",
			EnvironmentId:   "env-1",
			AccountId:       "111111111111",
			Region:          "us-east-1",
		},
	}}
	principals := &memPrincipals{principals: map[string]data.PrincipalDTO{
		testPrincipalId: {
			SK:            testPrincipalId,
			Name:          "analytics",
			Type:          data.PrincipalTeam,
			GroupId:       "analytics",
			Members:       []string{"rita"},
			EnvironmentId: "env-2",
			RoleName:      "analytics-access",
		},
	}}
	executor := &fakeExecutor{}
	notifier := &fakeNotifier{}
	service := NewService(shares, items, datasets, principals, &memActivities{}, executor, notifier)
	return &harness{
		service:  service,
		shares:   shares,
		items:    items,
		datasets: datasets,
		executor: executor,
		notifier: notifier,
	}
}

func (h *harness) mustCreate(t *testing.T, refs ...string) data.ShareDTO {
	t.Helper()
	share, _, err := h.service.CreateShare(requester, CreateShareInput{
		DatasetId:   testDatasetId,
		PrincipalId: testPrincipalId,
	})
	if err != nil {
		t.Fatalf("failed to create share: %s", err)
	}
	for _, ref := range refs {
		if _, err := h.service.AddItem(requester, share.SK, AddItemInput{
			ItemRef:  ref,
			ItemType: data.ShareableTable,
			ItemName: ref,
		}); err != nil {
			t.Fatalf("failed to add item %s: %s", ref, err)
		}
	}
	return share
}

func (h *harness) mustSubmit(t *testing.T, shareId string) data.ShareDTO {
	t.Helper()
	share, err := h.service.Submit(requester, shareId)
	if err != nil {
		t.Fatalf("failed to submit share: %s", err)
	}
	return share
}

func (h *harness) mustApprove(t *testing.T, shareId string) data.ShareDTO {
	t.Helper()
	share, err := h.service.Approve(approver, shareId)
	if err != nil {
		t.Fatalf("failed to approve share: %s", err)
	}
	return share
}

// finishGrants delivers a successful grant report for every task the
// executor received.
func (h *harness) finishGrants(t *testing.T) {
	t.Helper()
	for _, task := range h.executor.grants {
		if err := h.service.ApplyGrantResult(ExecutionReport{
			Action:  ReportGrant,
			ShareId: task.ShareId,
			ItemId:  task.ItemId,
			Success: true,
		}); err != nil {
			t.Fatalf("failed to report grant on %s: %s", task.ItemId, err)
		}
	}
}

func (h *harness) itemByRef(t *testing.T, shareId string, ref string) data.ShareItemDTO {
	t.Helper()
	item, err := h.service.GetItem(requester, shareId, ItemId(shareId, ref))
	if err != nil {
		t.Fatalf("failed to find item %s: %s", ref, err)
	}
	return item
}

func TestCreateShare(t *testing.T) {
	t.Run("CreatesDraftWithPendingItem", func(t *testing.T) {
		h := newHarness()
		share, existed, err := h.service.CreateShare(requester, CreateShareInput{
			DatasetId:   testDatasetId,
			PrincipalId: testPrincipalId,
			ItemRef:     "orders.customers",
			ItemType:    data.ShareableTable,
			ItemName:    "customers",
		})
		if err != nil {
			t.Fatalf("failed to create share: %s", err)
		}
		if existed {
			t.Fatal("expected a fresh share")
		}
		if share.Status != data.ShareDraft {
			t.Fatalf("expected Draft, got %s", share.Status)
		}
		if len(share.Permissions) != 1 || share.Permissions[0] != data.PermissionRead {
			t.Fatalf("expected default Read permission, got %v", share.Permissions)
		}
		item := h.itemByRef(t, share.SK, "orders.customers")
		if item.Status != data.ItemPendingApproval {
			t.Fatalf("expected PendingApproval, got %s", item.Status)
		}
	})
	t.Run("IdempotentOnSamePair", func(t *testing.T) {
		h := newHarness()
		first, _, err := h.service.CreateShare(requester, CreateShareInput{
			DatasetId:   testDatasetId,
			PrincipalId: testPrincipalId,
		})
		if err != nil {
			t.Fatalf("failed to create share: %s", err)
		}
		second, existed, err := h.service.CreateShare(requester, CreateShareInput{
			DatasetId:   testDatasetId,
			PrincipalId: testPrincipalId,
		})
		if err != nil {
			t.Fatalf("failed to repeat create: %s", err)
		}
		if !existed {
			t.Fatal("expected alreadyExisted on the second create")
		}
		if first.SK != second.SK {
			t.Fatalf("expected the same share, got %s and %s", first.SK, second.SK)
		}
	})
	t.Run("RejectsOwnTeam", func(t *testing.T) {
		h := newHarness()
		h.datasets.datasets["dataset-own"] = data.DatasetDTO{
			SK:           "dataset-own",
			Name:         "own",
			AdminGroupId: "analytics",
		}
		_, _, err := h.service.CreateShare(requester, CreateShareInput{
			DatasetId:   "dataset-own",
			PrincipalId: testPrincipalId,
		})
		var invalid *exceptions.InvalidInputError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected invalid input, got %v", err)
		}
	})
	t.Run("RejectsNonMember", func(t *testing.T) {
		h := newHarness()
		_, _, err := h.service.CreateShare(outsider, CreateShareInput{
			DatasetId:   testDatasetId,
			PrincipalId: testPrincipalId,
		})
		var unauthorized *exceptions.UnauthorizedError
		if !errors.As(err, &unauthorized) {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	})
}

func TestSubmit(t *testing.T) {
	t.Run("RejectsEmptyRequest", func(t *testing.T) {
		h := newHarness()
		share := h.mustCreate(t)
		_, err := h.service.Submit(requester, share.SK)
		var invalid *exceptions.InvalidInputError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected invalid input, got %v", err)
		}
	})
	t.Run("MovesDraftToSubmitted", func(t *testing.T) {
		h := newHarness()
		share := h.mustCreate(t, "orders.customers")
		submitted := h.mustSubmit(t, share.SK)
		if submitted.Status != data.ShareSubmitted {
			t.Fatalf("expected Submitted, got %s", submitted.Status)
		}
		if len(h.notifier.events) != 1 || h.notifier.events[0].Type != EventSubmitted {
			t.Fatalf("expected a submitted event, got %v", h.notifier.events)
		}
	})
	t.Run("RequiresRequesterRole", func(t *testing.T) {
		h := newHarness()
		share := h.mustCreate(t, "orders.customers")
		_, err := h.service.Submit(approver, share.SK)
		var unauthorized *exceptions.UnauthorizedError
		if !errors.As(err, &unauthorized) {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	})
	t.Run("AutoApprovalFansOutGrants", func(t *testing.T) {
		h := newHarness()
		dataset := h.datasets.datasets[testDatasetId]
		dataset.AutoApprovalEnabled = true
		h.datasets.datasets[testDatasetId] = dataset
		share := h.mustCreate(t, "orders.customers")
		submitted := h.mustSubmit(t, share.SK)
		if submitted.Status != data.ShareInProgress {
			t.Fatalf("expected Share_In_Progress, got %s", submitted.Status)
		}
		if len(h.executor.grants) != 1 {
			t.Fatalf("expected one grant task, got %d", len(h.executor.grants))
		}
	})
}

func TestApprove(t *testing.T) {
	t.Run("GrantsEveryPendingItem", func(t *testing.T) {
		h := newHarness()
		share := h.mustCreate(t, "orders.customers", "orders.lines")
		h.mustSubmit(t, share.SK)
		approved := h.mustApprove(t, share.SK)
		if approved.Status != data.ShareInProgress {
			t.Fatalf("expected Share_In_Progress, got %s", approved.Status)
		}
		if len(h.executor.grants) != 2 {
			t.Fatalf("expected two grant tasks, got %d", len(h.executor.grants))
		}
		for _, ref := range []string{"orders.customers", "orders.lines"} {
			item := h.itemByRef(t, share.SK, ref)
			if item.Status != data.ItemShareInProgress {
				t.Fatalf("expected %s in flight, got %s", ref, item.Status)
			}
		}
	})
	t.Run("CompletesToProcessed", func(t *testing.T) {
		h := newHarness()
		share := h.mustCreate(t, "orders.customers", "orders.lines")
		h.mustSubmit(t, share.SK)
		h.mustApprove(t, share.SK)
		h.finishGrants(t)
		final, err := h.shares.Get(data.GlobalAccount, share.SK)
		if err != nil {
			t.Fatalf("failed to reload share: %s", err)
		}
		if final.Status != data.ShareProcessed {
			t.Fatalf("expected Processed, got %s", final.Status)
		}
		item := h.itemByRef(t, share.SK, "orders.customers")
		if item.Status != data.ItemShareSucceeded {
			t.Fatalf("expected Share_Succeeded, got %s", item.Status)
		}
		if item.HealthStatus == nil || *item.HealthStatus != data.HealthHealthy {
			t.Fatalf("expected Healthy, got %v", item.HealthStatus)
		}
	})
	t.Run("IsolatesItemFailures", func(t *testing.T) {
		h := newHarness()
		share := h.mustCreate(t, "orders.customers", "orders.lines")
		h.mustSubmit(t, share.SK)
		h.mustApprove(t, share.SK)
		for _, task := range h.executor.grants {
			report := ExecutionReport{Action: ReportGrant, ShareId: task.ShareId, ItemId: task.ItemId, Success: true}
			if task.ItemRef == "orders.lines" {
				report.Success = false
				report.Message = "access denied on prefix"
			}
			if err := h.service.ApplyGrantResult(report); err != nil {
				t.Fatalf("failed to report grant: %s", err)
			}
		}
		succeeded := h.itemByRef(t, share.SK, "orders.customers")
		if succeeded.Status != data.ItemShareSucceeded {
			t.Fatalf("expected Share_Succeeded, got %s", succeeded.Status)
		}
		failed := h.itemByRef(t, share.SK, "orders.lines")
		if failed.Status != data.ItemShareFailed {
			t.Fatalf("expected Share_Failed, got %s", failed.Status)
		}
		if failed.HealthMessage == nil || *failed.HealthMessage != "access denied on prefix" {
			t.Fatalf("expected the failure message, got %v", failed.HealthMessage)
		}
		final, _ := h.shares.Get(data.GlobalAccount, share.SK)
		if final.Status != data.ShareProcessed {
			t.Fatalf("expected Processed despite a failed item, got %s", final.Status)
		}
	})
	t.Run("FailedEnqueueMarksOnlyThatItem", func(t *testing.T) {
		h := newHarness()
		h.executor.failGrant = map[string]error{"orders.lines": errors.New("queue unavailable")}
		share := h.mustCreate(t, "orders.customers", "orders.lines")
		h.mustSubmit(t, share.SK)
		h.mustApprove(t, share.SK)
		failed := h.itemByRef(t, share.SK, "orders.lines")
		if failed.Status != data.ItemShareFailed {
			t.Fatalf("expected Share_Failed, got %s", failed.Status)
		}
		inFlight := h.itemByRef(t, share.SK, "orders.customers")
		if inFlight.Status != data.ItemShareInProgress {
			t.Fatalf("expected the sibling in flight, got %s", inFlight.Status)
		}
	})
	t.Run("RejectsDoubleApprove", func(t *testing.T) {
		h := newHarness()
		share := h.mustCreate(t, "orders.customers")
		h.mustSubmit(t, share.SK)
		h.mustApprove(t, share.SK)
		_, err := h.service.Approve(approver, share.SK)
		var unauthorized *exceptions.UnauthorizedError
		if !errors.As(err, &unauthorized) {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	})
	t.Run("RejectsApproveFromDraft", func(t *testing.T) {
		h := newHarness()
		share := h.mustCreate(t, "orders.customers")
		_, err := h.service.Approve(approver, share.SK)
		var unauthorized *exceptions.UnauthorizedError
		if !errors.As(err, &unauthorized) {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	})
}

func TestReject(t *testing.T) {
	h := newHarness()
	share := h.mustCreate(t, "orders.customers")
	h.mustSubmit(t, share.SK)
	rejected, err := h.service.Reject(approver, share.SK, "not this quarter")
	if err != nil {
		t.Fatalf("failed to reject share: %s", err)
	}
	if rejected.Status != data.ShareRejected {
		t.Fatalf("expected Rejected, got %s", rejected.Status)
	}
	if rejected.RejectPurpose != "not this quarter" {
		t.Fatalf("expected the reject purpose, got %q", rejected.RejectPurpose)
	}
	item := h.itemByRef(t, share.SK, "orders.customers")
	if item.Status != data.ItemShareRejected {
		t.Fatalf("expected Share_Rejected, got %s", item.Status)
	}
}

func TestGrantResultRedelivery(t *testing.T) {
	h := newHarness()
	share := h.mustCreate(t, "orders.customers")
	h.mustSubmit(t, share.SK)
	h.mustApprove(t, share.SK)
	task := h.executor.grants[0]
	report := ExecutionReport{Action: ReportGrant, ShareId: task.ShareId, ItemId: task.ItemId, Success: true}
	for i := 0; i < 3; i++ {
		if err := h.service.ApplyGrantResult(report); err != nil {
			t.Fatalf("redelivery %d failed: %s", i, err)
		}
	}
	item := h.itemByRef(t, share.SK, "orders.customers")
	if item.Status != data.ItemShareSucceeded {
		t.Fatalf("expected Share_Succeeded, got %s", item.Status)
	}
}

func TestDelete(t *testing.T) {
	t.Run("RemovesDraftAndItems", func(t *testing.T) {
		h := newHarness()
		share := h.mustCreate(t, "orders.customers")
		if err := h.service.Delete(requester, share.SK, false); err != nil {
			t.Fatalf("failed to delete share: %s", err)
		}
		if _, err := h.shares.Get(data.GlobalAccount, share.SK); err == nil {
			t.Fatal("expected the share to be gone")
		}
	})
	t.Run("GuardsSharedItems", func(t *testing.T) {
		h := newHarness()
		share := h.mustCreate(t, "orders.customers")
		h.mustSubmit(t, share.SK)
		h.mustApprove(t, share.SK)
		h.finishGrants(t)
		err := h.service.Delete(requester, share.SK, false)
		var invalid *exceptions.InvalidInputError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected invalid input, got %v", err)
		}
	})
	t.Run("ForceSkipsGuard", func(t *testing.T) {
		h := newHarness()
		share := h.mustCreate(t, "orders.customers")
		h.mustSubmit(t, share.SK)
		h.mustApprove(t, share.SK)
		h.finishGrants(t)
		if err := h.service.Delete(requester, share.SK, true); err != nil {
			t.Fatalf("failed to force delete: %s", err)
		}
	})
}

func TestUpdatePurposes(t *testing.T) {
	h := newHarness()
	share := h.mustCreate(t, "orders.customers")
	updated, err := h.service.UpdateRequestPurpose(requester, share.SK, "quarterly reporting")
	if err != nil {
		t.Fatalf("failed to update request purpose: %s", err)
	}
	if updated.RequestPurpose != "quarterly reporting" {
		t.Fatalf("expected the purpose, got %q", updated.RequestPurpose)
	}
	if _, err := h.service.UpdateRejectPurpose(requester, share.SK, "nope"); err == nil {
		t.Fatal("expected requester to be denied the reject purpose update")
	}
}

func TestShareStatistics(t *testing.T) {
	h := newHarness()
	share := h.mustCreate(t, "orders.customers", "orders.lines", "orders.refunds")
	h.mustSubmit(t, share.SK)
	h.mustApprove(t, share.SK)
	for i, task := range h.executor.grants {
		report := ExecutionReport{Action: ReportGrant, ShareId: task.ShareId, ItemId: task.ItemId, Success: i != 0}
		if i == 0 {
			report.Message = "boom"
		}
		if err := h.service.ApplyGrantResult(report); err != nil {
			t.Fatalf("failed to report grant: %s", err)
		}
	}
	stats, err := h.service.ShareStatistics(requester, share.SK)
	if err != nil {
		t.Fatalf("failed to compute statistics: %s", err)
	}
	if stats.SharedItems != 2 || stats.FailedItems != 1 || stats.PendingItems != 0 {
		t.Fatalf("unexpected statistics: %+v", stats)
	}
}

func TestReadSurfaceRequiresRole(t *testing.T) {
	h := newHarness()
	share := h.mustCreate(t, "orders.customers")
	itemId := ItemId(share.SK, "orders.customers")
	assertDenied := func(t *testing.T, err error) {
		t.Helper()
		var unauthorized *exceptions.UnauthorizedError
		if !errors.As(err, &unauthorized) {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	}
	t.Run("GetItem", func(t *testing.T) {
		_, err := h.service.GetItem(outsider, share.SK, itemId)
		assertDenied(t, err)
	})
	t.Run("ListItems", func(t *testing.T) {
		_, err := h.service.ListItems(outsider, share.SK, data.QueryParams{}, false)
		assertDenied(t, err)
	})
	t.Run("Statistics", func(t *testing.T) {
		_, err := h.service.ShareStatistics(outsider, share.SK)
		assertDenied(t, err)
	})
	t.Run("Activities", func(t *testing.T) {
		_, err := h.service.ListActivities(outsider, share.SK, data.QueryParams{})
		assertDenied(t, err)
	})
	t.Run("ApproverAllowed", func(t *testing.T) {
		if _, err := h.service.ListItems(approver, share.SK, data.QueryParams{}, false); err != nil {
			t.Fatalf("expected the approver to read items: %s", err)
		}
	})
}

func TestListShares(t *testing.T) {
	h := newHarness()
	share := h.mustCreate(t, "orders.customers")

	t.Run("UnfilteredReturnsEverything", func(t *testing.T) {
		results, err := h.service.ListShares(ShareFilter{}, data.QueryParams{})
		if err != nil {
			t.Fatalf("failed to list shares: %s", err)
		}
		if len(results.Items) != 1 || results.Items[0].SK != share.SK {
			t.Fatalf("expected the created share, got %+v", results.Items)
		}
	})

	t.Run("FiltersByDataset", func(t *testing.T) {
		results, err := h.service.ListShares(ShareFilter{DatasetId: testDatasetId}, data.QueryParams{})
		if err != nil {
			t.Fatalf("failed to list by dataset: %s", err)
		}
		if len(results.Items) != 1 {
			t.Fatalf("expected one received share, got %d", len(results.Items))
		}
		empty, err := h.service.ListShares(ShareFilter{DatasetId: "dataset-other"}, data.QueryParams{})
		if err != nil {
			t.Fatalf("failed to list by unknown dataset: %s", err)
		}
		if len(empty.Items) != 0 {
			t.Fatalf("expected no shares for another dataset, got %d", len(empty.Items))
		}
	})

	t.Run("FiltersByGroup", func(t *testing.T) {
		results, err := h.service.ListShares(ShareFilter{GroupId: "analytics"}, data.QueryParams{})
		if err != nil {
			t.Fatalf("failed to list by group: %s", err)
		}
		if len(results.Items) != 1 {
			t.Fatalf("expected one sent share, got %d", len(results.Items))
		}
		empty, err := h.service.ListShares(ShareFilter{GroupId: "marketing"}, data.QueryParams{})
		if err != nil {
			t.Fatalf("failed to list by other group: %s", err)
		}
		if len(empty.Items) != 0 {
			t.Fatalf("expected no shares for another group, got %d", len(empty.Items))
		}
	})

	t.Run("FiltersByStatus", func(t *testing.T) {
		results, err := h.service.ListShares(ShareFilter{Statuses: []data.ShareStatus{data.ShareDraft}}, data.QueryParams{})
		if err != nil {
			t.Fatalf("failed to list by status: %s", err)
		}
		if len(results.Items) != 1 {
			t.Fatalf("expected one draft share, got %d", len(results.Items))
		}
		empty, err := h.service.ListShares(ShareFilter{Statuses: []data.ShareStatus{data.ShareProcessed}}, data.QueryParams{})
		if err != nil {
			t.Fatalf("failed to list by status: %s", err)
		}
		if len(empty.Items) != 0 {
			t.Fatalf("expected no processed shares, got %d", len(empty.Items))
		}
	})
}
