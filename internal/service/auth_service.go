package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"party_games_backend/internal/config"
	"party_games_backend/internal/model"
	"party_games_backend/internal/repository"
	"party_games_backend/internal/util"
	"party_games_backend/pkg/logger"
	"party_games_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	phoneRegexp = regexp.MustCompile(util.PhonePattern)
	codeRegexp  = regexp.MustCompile(`^\d{6}$`)
)

type AuthService struct {
	UserRepo *repository.UserRepository
	OTPRepo  *repository.OTPRepository
	Redis    *redis.Client // 可为空，此时不做发送冷却
	SMS      SMSSender
	Cfg      *config.Config
	Clock    Clock
}

func NewAuthService(userRepo *repository.UserRepository, otpRepo *repository.OTPRepository, rdb *redis.Client, sms SMSSender, cfg *config.Config, clock Clock) *AuthService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &AuthService{
		UserRepo: userRepo,
		OTPRepo:  otpRepo,
		Redis:    rdb,
		SMS:      sms,
		Cfg:      cfg,
		Clock:    clock,
	}
}

type SendOTPResult struct {
	Message     string `json:"message"`
	ExpiresIn   int    `json:"expiresIn"`
	PhoneNumber string `json:"phoneNumber"`
}

type TokenResult struct {
	AccessToken string      `json:"accessToken"`
	TokenType   string      `json:"tokenType"`
	ExpiresIn   int         `json:"expiresIn"`
	User        *model.User `json:"user"`
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// reserveCooldown 同一手机号在冷却期内只能发送一次
func (s *AuthService) reserveCooldown(ctx context.Context, phone string) error {
	if s.Redis == nil || s.Cfg.OTPCooldown() <= 0 {
		return nil
	}
	ok, err := s.Redis.SetNX(ctx, "otp:cooldown:"+phone, 1, s.Cfg.OTPCooldown()).Result()
	if err != nil {
		// Redis 不可用时不阻断登录
		logger.Log.Warn("OTP cooldown check failed", zap.Error(err))
		return nil
	}
	if !ok {
		return wrap(ErrTooManyRequests, "please wait before requesting another OTP")
	}
	return nil
}

func (s *AuthService) SendOTP(ctx context.Context, phone string) (*SendOTPResult, error) {
	phone = strings.TrimSpace(phone)
	if !phoneRegexp.MatchString(phone) {
		return nil, wrap(ErrValidation, "phone number must be +91 followed by 10 digits")
	}
	if err := s.reserveCooldown(ctx, phone); err != nil {
		return nil, err
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	otp := &model.OTPVerification{
		PhoneNumber: phone,
		CodeHash:    string(hash),
		ExpiresAt:   s.Clock.Now().Add(s.Cfg.OTPExpiry()),
	}
	if err := s.OTPRepo.Replace(ctx, otp); err != nil {
		return nil, err
	}

	if err := s.SMS.SendOTP(ctx, phone, code); err != nil {
		monitoring.OTPSent.WithLabelValues(s.SMS.Name(), "error").Inc()
		logger.Log.Error("Failed to send OTP", zap.String("phone", phone), zap.Error(err))
		return nil, fmt.Errorf("send otp: %w", err)
	}
	monitoring.OTPSent.WithLabelValues(s.SMS.Name(), "ok").Inc()

	return &SendOTPResult{
		Message:     "OTP sent successfully",
		ExpiresIn:   int(s.Cfg.OTPExpiry().Seconds()),
		PhoneNumber: phone,
	}, nil
}

// VerifyOTP 校验通过后登录或注册，新用户必须提供姓名
func (s *AuthService) VerifyOTP(ctx context.Context, phone, code, name string) (*TokenResult, error) {
	phone = strings.TrimSpace(phone)
	name = strings.TrimSpace(name)
	if !phoneRegexp.MatchString(phone) {
		return nil, wrap(ErrValidation, "phone number must be +91 followed by 10 digits")
	}
	if !codeRegexp.MatchString(code) {
		return nil, wrap(ErrValidation, "OTP must be 6 digits")
	}

	otp, err := s.OTPRepo.FindLatestPending(ctx, phone)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wrap(ErrUnauthorized, "invalid or expired OTP")
	}
	if err != nil {
		return nil, err
	}
	if otp.IsExpired(s.Clock.Now()) {
		return nil, wrap(ErrUnauthorized, "OTP has expired, please request a new one")
	}
	maxAttempts := s.Cfg.OTPMaxAttempts()
	if otp.Attempts >= maxAttempts {
		return nil, wrap(ErrTooManyRequests, "too many incorrect attempts, please request a new OTP")
	}
	if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)) != nil {
		attempts, err := s.OTPRepo.RecordFailure(ctx, otp.ID)
		if err != nil {
			return nil, err
		}
		if attempts >= maxAttempts {
			logger.Log.Warn("OTP locked after repeated failures", zap.String("phone", phone), zap.Int("attempts", attempts))
		}
		return nil, wrap(ErrUnauthorized, "invalid or expired OTP")
	}

	user, err := s.UserRepo.FindByPhone(ctx, phone)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if user == nil && name == "" {
		return nil, wrap(ErrValidation, "name is required for new users")
	}

	ok, err := s.OTPRepo.MarkVerified(ctx, otp.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, wrap(ErrUnauthorized, "invalid or expired OTP")
	}

	if user == nil {
		user = &model.User{
			Name:        name,
			PhoneNumber: &phone,
			Role:        model.RoleGuest,
			IsVerified:  true,
		}
		if s.Cfg.IsAdminPhone(phone) {
			user.Role = model.RoleAdmin
		}
		if err := s.UserRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		logger.Log.Info("User registered", zap.Uint("user_id", user.ID))
	} else if s.Cfg.IsAdminPhone(phone) && user.Role != model.RoleAdmin {
		user.Role = model.RoleAdmin
		if err := s.UserRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &TokenResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.Cfg.JWT.ExpireTime.Seconds()),
		User:        user,
	}, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return user, nil
}

type ProfileUpdate struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, req ProfileUpdate) (*model.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, wrap(ErrValidation, "name cannot be empty")
		}
		user.Name = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" {
			user.Email = nil
		} else {
			user.Email = &email
		}
	}
	if err := s.UserRepo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, wrap(ErrConflict, "email already in use")
		}
		return nil, err
	}
	return user, nil
}

// SetRole 管理员指定组织者
func (s *AuthService) SetRole(ctx context.Context, userID uint, role model.UserRole) (*model.User, error) {
	switch role {
	case model.RoleGuest, model.RoleOrganizer, model.RoleAdmin:
	default:
		return nil, wrap(ErrValidation, "unknown role")
	}
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := s.UserRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	logger.Log.Info("User role changed", zap.Uint("user_id", userID), zap.String("role", string(role)))
	return user, nil
}
