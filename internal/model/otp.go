package model

import "time"

// OTPVerification 只保存验证码的 bcrypt 哈希
type OTPVerification struct {
	BaseModel
	PhoneNumber string    `gorm:"size:20;index;not null" json:"phoneNumber"`
	CodeHash    string    `gorm:"size:100;not null" json:"-"`
	IsVerified  bool      `gorm:"default:false" json:"isVerified"`
	Attempts    int       `gorm:"not null;default:0" json:"attempts"` // 错误尝试次数
	ExpiresAt   time.Time `gorm:"not null" json:"expiresAt"`
}

func (OTPVerification) TableName() string {
	return "otp_verifications"
}

func (o *OTPVerification) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
