package data

import "time"

// Principals are resolved from the identity store: teams with member
// lists, or consumption/Redshift roles owned by a team.
type PrincipalDTO struct {
	PK            string        `dynamodbav:"PK"`
	SK            string        `dynamodbav:"SK"`
	Name          string        `dynamodbav:"name"`
	Type          PrincipalType `dynamodbav:"type"`
	GroupId       string        `dynamodbav:"groupId"`
	Members       []string      `dynamodbav:"members"`
	EnvironmentId string        `dynamodbav:"environmentId"`
	AccountId     string        `dynamodbav:"accountId"`
	Region        string        `dynamodbav:"region"`
	RoleName      string        `dynamodbav:"roleName"`
	CreateTime    time.Time     `dynamodbav:"createTime"`
	UpdateTime    time.Time     `dynamodbav:"updateTime"`
}

type PrincipalInputDTO struct {
	Name          *string        `dynamodbav:"name"`
	Type          *PrincipalType `dynamodbav:"type"`
	GroupId       *string        `dynamodbav:"groupId"`
	Members       *[]string      `dynamodbav:"members"`
	EnvironmentId *string        `dynamodbav:"environmentId"`
	AccountId     *string        `dynamodbav:"accountId"`
	Region        *string        `dynamodbav:"region"`
	RoleName      *string        `dynamodbav:"roleName"`
}

type PrincipalRepository interface {
	Repository[PrincipalDTO, PrincipalInputDTO]
}
