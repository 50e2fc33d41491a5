package share

import (
	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/exceptions"
	"golang.org/x/exp/slices"
)

// Identity is the calling principal as resolved by the route layer.
type Identity struct {
	Username string
	Groups   []string
}

func (id Identity) memberOf(groupId string) bool {
	return slices.Contains(id.Groups, groupId)
}

// Role is the caller's relationship to one share.
type Role string

const (
	RoleRequester Role = "Requesters"
	RoleApprover  Role = "Approvers"
	RoleBoth      Role = "ApproversAndRequesters"
	RoleNone      Role = "NoPermission"
)

// ResolveRole places the caller relative to a share: requesters belong
// to the requesting team, approvers to the dataset admin or steward
// teams.
func ResolveRole(id Identity, share data.ShareDTO, dataset data.DatasetDTO) Role {
	requester := id.memberOf(share.GroupId) || id.Username == share.Owner
	approver := id.memberOf(dataset.AdminGroupId) || id.memberOf(dataset.StewardsGroupId)
	switch {
	case requester && approver:
		return RoleBoth
	case requester:
		return RoleRequester
	case approver:
		return RoleApprover
	}
	return RoleNone
}

func requireRequester(action string, id Identity, share data.ShareDTO, dataset data.DatasetDTO) error {
	switch ResolveRole(id, share, dataset) {
	case RoleRequester, RoleBoth:
		return nil
	}
	return exceptions.Unauthorized(action, "only members of the requesting team may perform this action")
}

func requireApprover(action string, id Identity, share data.ShareDTO, dataset data.DatasetDTO) error {
	switch ResolveRole(id, share, dataset) {
	case RoleApprover, RoleBoth:
		return nil
	}
	return exceptions.Unauthorized(action, "only dataset admins or stewards may perform this action")
}

func requireAnyRole(action string, id Identity, share data.ShareDTO, dataset data.DatasetDTO) error {
	if ResolveRole(id, share, dataset) == RoleNone {
		return exceptions.Unauthorized(action, "caller has no role on this share")
	}
	return nil
}
