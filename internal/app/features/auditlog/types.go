// internal/app/features/auditlog/types.go
package auditlog

import "github.com/dalemusser/tribehub/internal/app/store/audit"

// listItem is an audit event with the user and actor names resolved.
type listItem struct {
	audit.Event
	UserName  string `json:"user_name,omitempty"`
	ActorName string `json:"actor_name,omitempty"`
}

type listResponse struct {
	Events     []listItem `json:"events"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

var categories = map[string]bool{
	audit.CategoryAuth:   true,
	audit.CategoryAdmin:  true,
	audit.CategoryMember: true,
	audit.CategorySystem: true,
}
