package share

import (
	"sort"
	"sync"
	"time"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/exceptions"
	"github.com/google/uuid"
)

type memShares struct {
	mu     sync.Mutex
	shares map[string]data.ShareDTO
}

func newMemShares() *memShares {
	return &memShares{shares: make(map[string]data.ShareDTO)}
}

func (m *memShares) Get(accountId string, itemId string) (data.ShareDTO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	share, ok := m.shares[itemId]
	if !ok {
		return data.ShareDTO{}, exceptions.NotFound("share", itemId)
	}
	return share, nil
}

func (m *memShares) Create(accountId string, input data.ShareInputDTO) (data.ShareDTO, error) {
	return m.CreateWithItemId(accountId, input, uuid.New().String())
}

func (m *memShares) CreateWithItemId(accountId string, input data.ShareInputDTO, itemId string) (data.ShareDTO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shares[itemId]; ok {
		return data.ShareDTO{}, exceptions.Conflict("share", itemId)
	}
	share := data.ShareDTO{
		PK:         accountId + ":Share",
		SK:         itemId,
		CreateTime: time.Now().UTC(),
		UpdateTime: time.Now().UTC(),
	}
	applyShareInput(&share, input)
	share.FirstIndex = share.DatasetId + ":Share"
	m.shares[itemId] = share
	return share, nil
}

func (m *memShares) Update(accountId string, itemId string, input data.ShareInputDTO) (data.ShareDTO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	share, ok := m.shares[itemId]
	if !ok {
		return data.ShareDTO{}, exceptions.NotFound("share", itemId)
	}
	applyShareInput(&share, input)
	share.UpdateTime = time.Now().UTC()
	m.shares[itemId] = share
	return share, nil
}

func (m *memShares) UpdateStatus(accountId string, shareId string, expected data.ShareStatus, input data.ShareInputDTO) (data.ShareDTO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	share, ok := m.shares[shareId]
	if !ok {
		return data.ShareDTO{}, exceptions.NotFound("share", shareId)
	}
	if share.Status != expected {
		return data.ShareDTO{}, exceptions.Conflict("share", shareId)
	}
	applyShareInput(&share, input)
	share.UpdateTime = time.Now().UTC()
	m.shares[shareId] = share
	return share, nil
}

func (m *memShares) List(accountId string, params data.QueryParams) (data.QueryResults[data.ShareDTO], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []data.ShareDTO
	for _, share := range m.shares {
		items = append(items, share)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SK < items[j].SK })
	return data.QueryResults[data.ShareDTO]{Items: items}, nil
}

func (m *memShares) ListByIndex(hashId string, indexName string, params data.QueryParams) (data.QueryResults[data.ShareDTO], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []data.ShareDTO
	for _, share := range m.shares {
		if share.FirstIndex == hashId {
			items = append(items, share)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SK < items[j].SK })
	return data.QueryResults[data.ShareDTO]{Items: items}, nil
}

func (m *memShares) Delete(accountId string, itemId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.shares, itemId)
	return nil
}

func applyShareInput(share *data.ShareDTO, input data.ShareInputDTO) {
	if input.DatasetId != nil {
		share.DatasetId = *input.DatasetId
	}
	if input.GroupId != nil {
		share.GroupId = *input.GroupId
	}
	if input.PrincipalId != nil {
		share.PrincipalId = *input.PrincipalId
	}
	if input.PrincipalType != nil {
		share.PrincipalType = *input.PrincipalType
	}
	if input.PrincipalRoleName != nil {
		share.PrincipalRoleName = *input.PrincipalRoleName
	}
	if input.EnvironmentId != nil {
		share.EnvironmentId = *input.EnvironmentId
	}
	if input.Owner != nil {
		share.Owner = *input.Owner
	}
	if input.Status != nil {
		share.Status = *input.Status
	}
	if input.Permissions != nil {
		share.Permissions = *input.Permissions
	}
	if input.RequestPurpose != nil {
		share.RequestPurpose = *input.RequestPurpose
	}
	if input.RejectPurpose != nil {
		share.RejectPurpose = *input.RejectPurpose
	}
	if input.ExtensionReason != nil {
		share.ExtensionReason = *input.ExtensionReason
	}
	if input.NonExpirable != nil {
		share.NonExpirable = *input.NonExpirable
	}
	if input.ExpiryDate != nil {
		share.ExpiryDate = timeOrNil(input.ExpiryDate)
	}
	if input.RequestedExpiryDate != nil {
		share.RequestedExpiryDate = timeOrNil(input.RequestedExpiryDate)
	}
	if input.LastExtensionDate != nil {
		share.LastExtensionDate = timeOrNil(input.LastExtensionDate)
	}
}

// timeOrNil mirrors the storage layer convention of removing a date
// attribute when the zero value is written.
func timeOrNil(value *time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	return value
}

type memItems struct {
	mu    sync.Mutex
	items map[string]map[string]data.ShareItemDTO
}

func newMemItems() *memItems {
	return &memItems{items: make(map[string]map[string]data.ShareItemDTO)}
}

func (m *memItems) Get(accountId string, itemId string) (data.ShareItemDTO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[accountId][itemId]
	if !ok {
		return data.ShareItemDTO{}, exceptions.NotFound("share item", itemId)
	}
	return item, nil
}

func (m *memItems) Create(accountId string, input data.ShareItemInputDTO) (data.ShareItemDTO, error) {
	return m.CreateWithItemId(accountId, input, uuid.New().String())
}

func (m *memItems) CreateWithItemId(accountId string, input data.ShareItemInputDTO, itemId string) (data.ShareItemDTO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items[accountId] == nil {
		m.items[accountId] = make(map[string]data.ShareItemDTO)
	}
	if _, ok := m.items[accountId][itemId]; ok {
		return data.ShareItemDTO{}, exceptions.Conflict("share item", itemId)
	}
	item := data.ShareItemDTO{
		PK:         accountId + ":ShareItem",
		SK:         itemId,
		CreateTime: time.Now().UTC(),
		UpdateTime: time.Now().UTC(),
	}
	applyItemInput(&item, input)
	m.items[accountId][itemId] = item
	return item, nil
}

func (m *memItems) Update(accountId string, itemId string, input data.ShareItemInputDTO) (data.ShareItemDTO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[accountId][itemId]
	if !ok {
		return data.ShareItemDTO{}, exceptions.NotFound("share item", itemId)
	}
	applyItemInput(&item, input)
	item.UpdateTime = time.Now().UTC()
	m.items[accountId][itemId] = item
	return item, nil
}

func (m *memItems) UpdateStatus(shareId string, itemId string, expected data.ItemStatus, input data.ShareItemInputDTO) (data.ShareItemDTO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[shareId][itemId]
	if !ok {
		return data.ShareItemDTO{}, exceptions.NotFound("share item", itemId)
	}
	if item.Status != expected {
		return data.ShareItemDTO{}, exceptions.Conflict("share item", itemId)
	}
	applyItemInput(&item, input)
	item.UpdateTime = time.Now().UTC()
	m.items[shareId][itemId] = item
	return item, nil
}

func (m *memItems) List(accountId string, params data.QueryParams) (data.QueryResults[data.ShareItemDTO], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []data.ShareItemDTO
	for _, item := range m.items[accountId] {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SK < items[j].SK })
	return data.QueryResults[data.ShareItemDTO]{Items: items}, nil
}

func (m *memItems) ListByIndex(hashId string, indexName string, params data.QueryParams) (data.QueryResults[data.ShareItemDTO], error) {
	return m.List(hashId, params)
}

func (m *memItems) Delete(accountId string, itemId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items[accountId], itemId)
	return nil
}

func applyItemInput(item *data.ShareItemDTO, input data.ShareItemInputDTO) {
	if input.ShareId != nil {
		item.ShareId = *input.ShareId
	}
	if input.ItemRef != nil {
		item.ItemRef = *input.ItemRef
	}
	if input.ItemType != nil {
		item.ItemType = *input.ItemType
	}
	if input.ItemName != nil {
		item.ItemName = *input.ItemName
	}
	if input.Owner != nil {
		item.Owner = *input.Owner
	}
	if input.Status != nil {
		item.Status = *input.Status
	}
	if input.HealthStatus != nil {
		item.HealthStatus = input.HealthStatus
	}
	if input.HealthMessage != nil {
		item.HealthMessage = input.HealthMessage
	}
	if input.LastVerificationTime != nil {
		item.LastVerificationTime = input.LastVerificationTime
	}
	if input.DataFilterId != nil {
		item.DataFilterId = input.DataFilterId
	}
	if input.DataFilterLabel != nil {
		item.DataFilterLabel = input.DataFilterLabel
	}
}

type memDatasets struct {
	datasets map[string]data.DatasetDTO
}

func (m *memDatasets) Get(accountId string, itemId string) (data.DatasetDTO, error) {
	dataset, ok := m.datasets[itemId]
	if !ok {
		return data.DatasetDTO{}, exceptions.NotFound("dataset", itemId)
	}
	return dataset, nil
}

func (m *memDatasets) Create(accountId string, input data.DatasetInputDTO) (data.DatasetDTO, error) {
	return data.DatasetDTO{}, exceptions.InvalidInput("datasets are read only here")
}

func (m *memDatasets) CreateWithItemId(accountId string, input data.DatasetInputDTO, itemId string) (data.DatasetDTO, error) {
	return data.DatasetDTO{}, exceptions.InvalidInput("datasets are read only here")
}

func (m *memDatasets) Update(accountId string, itemId string, input data.DatasetInputDTO) (data.DatasetDTO, error) {
	return data.DatasetDTO{}, exceptions.InvalidInput("datasets are read only here")
}

func (m *memDatasets) List(accountId string, params data.QueryParams) (data.QueryResults[data.DatasetDTO], error) {
	return data.QueryResults[data.DatasetDTO]{}, nil
}

func (m *memDatasets) ListByIndex(hashId string, indexName string, params data.QueryParams) (data.QueryResults[data.DatasetDTO], error) {
	return data.QueryResults[data.DatasetDTO]{}, nil
}

func (m *memDatasets) Delete(accountId string, itemId string) error {
	return nil
}

type memPrincipals struct {
	principals map[string]data.PrincipalDTO
}

func (m *memPrincipals) Get(accountId string, itemId string) (data.PrincipalDTO, error) {
	principal, ok := m.principals[itemId]
	if !ok {
		return data.PrincipalDTO{}, exceptions.NotFound("principal", itemId)
	}
	return principal, nil
}

func (m *memPrincipals) Create(accountId string, input data.PrincipalInputDTO) (data.PrincipalDTO, error) {
	return data.PrincipalDTO{}, exceptions.InvalidInput("principals are read only here")
}

func (m *memPrincipals) CreateWithItemId(accountId string, input data.PrincipalInputDTO, itemId string) (data.PrincipalDTO, error) {
	return data.PrincipalDTO{}, exceptions.InvalidInput("principals are read only here")
}

func (m *memPrincipals) Update(accountId string, itemId string, input data.PrincipalInputDTO) (data.PrincipalDTO, error) {
	return data.PrincipalDTO{}, exceptions.InvalidInput("principals are read only here")
}

func (m *memPrincipals) List(accountId string, params data.QueryParams) (data.QueryResults[data.PrincipalDTO], error) {
	return data.QueryResults[data.PrincipalDTO]{}, nil
}

func (m *memPrincipals) ListByIndex(hashId string, indexName string, params data.QueryParams) (data.QueryResults[data.PrincipalDTO], error) {
	return data.QueryResults[data.PrincipalDTO]{}, nil
}

func (m *memPrincipals) Delete(accountId string, itemId string) error {
	return nil
}

type memActivities struct {
	mu      sync.Mutex
	entries []data.ActivityDTO
}

func (m *memActivities) Get(accountId string, itemId string) (data.ActivityDTO, error) {
	return data.ActivityDTO{}, exceptions.NotFound("activity", itemId)
}

func (m *memActivities) Create(accountId string, input data.ActivityInputDTO) (data.ActivityDTO, error) {
	return m.CreateWithItemId(accountId, input, uuid.New().String())
}

func (m *memActivities) CreateWithItemId(accountId string, input data.ActivityInputDTO, itemId string) (data.ActivityDTO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := data.ActivityDTO{
		PK:         accountId + ":Activity",
		SK:         itemId,
		CreateTime: time.Now().UTC(),
	}
	if input.ResourceId != nil {
		entry.ResourceId = *input.ResourceId
	}
	if input.ResourceType != nil {
		entry.ResourceType = *input.ResourceType
	}
	if input.Action != nil {
		entry.Action = *input.Action
	}
	if input.Summary != nil {
		entry.Summary = *input.Summary
	}
	if input.Owner != nil {
		entry.Owner = *input.Owner
	}
	m.entries = append(m.entries, entry)
	return entry, nil
}

func (m *memActivities) Update(accountId string, itemId string, input data.ActivityInputDTO) (data.ActivityDTO, error) {
	return data.ActivityDTO{}, exceptions.InvalidInput("activities are append only")
}

func (m *memActivities) List(accountId string, params data.QueryParams) (data.QueryResults[data.ActivityDTO], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return data.QueryResults[data.ActivityDTO]{Items: append([]data.ActivityDTO{}, m.entries...)}, nil
}

func (m *memActivities) ListByIndex(hashId string, indexName string, params data.QueryParams) (data.QueryResults[data.ActivityDTO], error) {
	return m.List(hashId, params)
}

func (m *memActivities) Delete(accountId string, itemId string) error {
	return nil
}

type fakeExecutor struct {
	mu        sync.Mutex
	grants    []GrantTask
	revokes   []GrantTask
	verifies  []GrantTask
	reapplies []GrantTask

	failGrant  map[string]error
	failRevoke map[string]error
}

func (f *fakeExecutor) ExecuteGrant(task GrantTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failGrant[task.ItemRef]; ok {
		return err
	}
	f.grants = append(f.grants, task)
	return nil
}

func (f *fakeExecutor) ExecuteRevoke(task GrantTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failRevoke[task.ItemRef]; ok {
		return err
	}
	f.revokes = append(f.revokes, task)
	return nil
}

func (f *fakeExecutor) ExecuteVerify(task GrantTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifies = append(f.verifies, task)
	return nil
}

func (f *fakeExecutor) ExecuteReapply(task GrantTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reapplies = append(f.reapplies, task)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []ShareEvent
}

func (f *fakeNotifier) PublishShareEvent(event ShareEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}
