package repository

import (
	"context"

	"party_games_backend/internal/model"

	"gorm.io/gorm"
)

type OTPRepository struct {
	DB *gorm.DB
}

func NewOTPRepository(db *gorm.DB) *OTPRepository {
	return &OTPRepository{DB: db}
}

// Replace 作废该手机号尚未验证的旧验证码后写入新记录
func (r *OTPRepository) Replace(ctx context.Context, otp *model.OTPVerification) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("phone_number = ? AND is_verified = ?", otp.PhoneNumber, false).
			Delete(&model.OTPVerification{}).Error; err != nil {
			return err
		}
		return tx.Create(otp).Error
	})
}

// FindLatestPending 最近一条未验证的验证码
func (r *OTPRepository) FindLatestPending(ctx context.Context, phone string) (*model.OTPVerification, error) {
	var otp model.OTPVerification
	err := r.DB.WithContext(ctx).
		Where("phone_number = ? AND is_verified = ?", phone, false).
		Order("id desc").
		First(&otp).Error
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

// RecordFailure 错误次数加一，返回累计次数
func (r *OTPRepository) RecordFailure(ctx context.Context, id uint) (int, error) {
	db := r.DB.WithContext(ctx)
	if err := db.Model(&model.OTPVerification{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
		return 0, err
	}
	var otp model.OTPVerification
	if err := db.Select("attempts").First(&otp, id).Error; err != nil {
		return 0, err
	}
	return otp.Attempts, nil
}

// MarkVerified 仅当尚未被使用时生效，返回 false 表示已被并发请求消费
func (r *OTPRepository) MarkVerified(ctx context.Context, id uint) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.OTPVerification{}).
		Where("id = ? AND is_verified = ?", id, false).
		Update("is_verified", true)
	return res.RowsAffected > 0, res.Error
}
