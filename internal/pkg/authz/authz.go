package authz

import "strings"

// Authorizer decides whether an actor may trigger posting and settings
// operations.
type Authorizer interface {
	IsAuthorized(actorID string) bool
}

type AllowList struct {
	ids map[string]struct{}
}

func NewAllowList(ids []string) *AllowList {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		m[id] = struct{}{}
	}
	return &AllowList{ids: m}
}

func (a *AllowList) IsAuthorized(actorID string) bool {
	if a == nil {
		return false
	}
	_, ok := a.ids[strings.TrimSpace(actorID)]
	return ok
}
