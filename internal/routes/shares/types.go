package shares

import (
	"time"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/share"
)

type Share struct {
	ShareId             string                `json:"shareId"`
	DatasetId           string                `json:"datasetId"`
	GroupId             string                `json:"groupId"`
	PrincipalId         string                `json:"principalId"`
	PrincipalType       data.PrincipalType    `json:"principalType"`
	Owner               string                `json:"owner"`
	Status              data.ShareStatus      `json:"status"`
	Permissions         []data.PermissionType `json:"permissions"`
	RequestPurpose      string                `json:"requestPurpose,omitempty"`
	RejectPurpose       string                `json:"rejectPurpose,omitempty"`
	ExtensionReason     string                `json:"extensionReason,omitempty"`
	NonExpirable        bool                  `json:"nonExpirable"`
	ExpiryDate          *time.Time            `json:"expiryDate,omitempty"`
	RequestedExpiryDate *time.Time            `json:"requestedExpiryDate,omitempty"`
	LastExtensionDate   *time.Time            `json:"lastExtensionDate,omitempty"`
	CreateTime          time.Time             `json:"createTime"`
	UpdateTime          time.Time             `json:"updateTime"`
}

func NewShare(dto data.ShareDTO) Share {
	return Share{
		ShareId:             dto.SK,
		DatasetId:           dto.DatasetId,
		GroupId:             dto.GroupId,
		PrincipalId:         dto.PrincipalId,
		PrincipalType:       dto.PrincipalType,
		Owner:               dto.Owner,
		Status:              dto.Status,
		Permissions:         dto.Permissions,
		RequestPurpose:      dto.RequestPurpose,
		RejectPurpose:       dto.RejectPurpose,
		ExtensionReason:     dto.ExtensionReason,
		NonExpirable:        dto.NonExpirable,
		ExpiryDate:          dto.ExpiryDate,
		RequestedExpiryDate: dto.RequestedExpiryDate,
		LastExtensionDate:   dto.LastExtensionDate,
		CreateTime:          dto.CreateTime,
		UpdateTime:          dto.UpdateTime,
	}
}

type CreatedShare struct {
	Share
	AlreadyExisted bool `json:"alreadyExisted"`
}

type ShareItem struct {
	ItemId               string             `json:"itemId"`
	ShareId              string             `json:"shareId"`
	ItemRef              string             `json:"itemRef"`
	ItemType             data.ShareableType `json:"itemType"`
	ItemName             string             `json:"itemName"`
	Status               data.ItemStatus    `json:"status"`
	HealthStatus         *data.HealthStatus `json:"healthStatus,omitempty"`
	HealthMessage        *string            `json:"healthMessage,omitempty"`
	LastVerificationTime *time.Time         `json:"lastVerificationTime,omitempty"`
	DataFilterId         *string            `json:"dataFilterId,omitempty"`
	DataFilterLabel      *string            `json:"dataFilterLabel,omitempty"`
	CreateTime           time.Time          `json:"createTime"`
	UpdateTime           time.Time          `json:"updateTime"`
}

func NewShareItem(dto data.ShareItemDTO) ShareItem {
	return ShareItem{
		ItemId:               dto.SK,
		ShareId:              dto.ShareId,
		ItemRef:              dto.ItemRef,
		ItemType:             dto.ItemType,
		ItemName:             dto.ItemName,
		Status:               dto.Status,
		HealthStatus:         dto.HealthStatus,
		HealthMessage:        dto.HealthMessage,
		LastVerificationTime: dto.LastVerificationTime,
		DataFilterId:         dto.DataFilterId,
		DataFilterLabel:      dto.DataFilterLabel,
		CreateTime:           dto.CreateTime,
		UpdateTime:           dto.UpdateTime,
	}
}

type Activity struct {
	Action     string    `json:"action"`
	Summary    string    `json:"summary"`
	Owner      string    `json:"owner"`
	CreateTime time.Time `json:"createTime"`
}

func NewActivity(dto data.ActivityDTO) Activity {
	return Activity{
		Action:     dto.Action,
		Summary:    dto.Summary,
		Owner:      dto.Owner,
		CreateTime: dto.CreateTime,
	}
}

type CreateShareRequest struct {
	DatasetId      string                `json:"datasetId"`
	PrincipalId    string                `json:"principalId"`
	GroupId        string                `json:"groupId"`
	Permissions    []data.PermissionType `json:"permissions"`
	RequestPurpose string                `json:"requestPurpose"`
	ItemRef        string                `json:"itemRef"`
	ItemType       data.ShareableType    `json:"itemType"`
	ItemName       string                `json:"itemName"`
}

type AddItemRequest struct {
	ItemRef  string             `json:"itemRef"`
	ItemType data.ShareableType `json:"itemType"`
	ItemName string             `json:"itemName"`
}

type ItemSelection struct {
	ItemIds []string `json:"itemIds"`
}

type PurposeRequest struct {
	Purpose string `json:"purpose"`
}

type ExtensionRequest struct {
	PeriodInMonths *int   `json:"periodInMonths,omitempty"`
	NonExpirable   bool   `json:"nonExpirable"`
	Reason         string `json:"reason"`
}

type PeriodRequest struct {
	PeriodInMonths int `json:"periodInMonths"`
}

type DataFilterRequest struct {
	FilterId string `json:"filterId"`
	Label    string `json:"label"`
}

func toExtensionInput(request ExtensionRequest) share.ExtensionInput {
	return share.ExtensionInput{
		PeriodInMonths: request.PeriodInMonths,
		NonExpirable:   request.NonExpirable,
		Reason:         request.Reason,
	}
}
