package service

import "party_games_backend/internal/model"

// Actor 发起请求的已认证用户
type Actor struct {
	UserID uint
	Role   model.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// canManage 管理员或事件的组织者本人
func canManage(a Actor, e *model.Event) bool {
	return a.IsAdmin() || (e.OrganizerID != 0 && e.OrganizerID == a.UserID)
}
