package model

type UserRole string

const (
	RoleGuest     UserRole = "guest"
	RoleOrganizer UserRole = "organizer"
	RoleAdmin     UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name        string   `gorm:"size:255;not null" json:"name"`
	PhoneNumber *string  `gorm:"size:20;uniqueIndex" json:"phoneNumber"`
	Email       *string  `gorm:"size:255;uniqueIndex" json:"email"`
	Role        UserRole `gorm:"size:20;default:'guest'" json:"role"`
	IsVerified  bool     `gorm:"default:false" json:"isVerified"`
}

func (User) TableName() string {
	return "users"
}
