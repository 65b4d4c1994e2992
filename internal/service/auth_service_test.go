package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"party_games_backend/internal/config"
	"party_games_backend/internal/model"
	"party_games_backend/internal/repository"
	"party_games_backend/internal/testutil"
	"party_games_backend/internal/util"
)

// captureSender 记录最后一次发送的验证码
type captureSender struct {
	codes map[string]string
	err   error
}

func (s *captureSender) SendOTP(ctx context.Context, phone, code string) error {
	if s.err != nil {
		return s.err
	}
	s.codes[phone] = code
	return nil
}

func (s *captureSender) Name() string { return "capture" }

func newAuthFixture(t *testing.T) (*AuthService, *captureSender, *testutil.FakeClock) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	clock := testutil.NewFakeClock()
	sender := &captureSender{codes: make(map[string]string)}
	cfg := &config.Config{
		JWT:  config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
		OTP:  config.OTPConfig{ExpiryMinutes: 5},
		Auth: config.AuthConfig{AdminPhones: []string{"+919999999999"}},
	}
	svc := NewAuthService(repository.NewUserRepository(db), repository.NewOTPRepository(db), nil, sender, cfg, clock)
	return svc, sender, clock
}

func TestVerifyOTPRegistersNewUser(t *testing.T) {
	svc, sender, _ := newAuthFixture(t)
	ctx := context.Background()
	phone := "+919876543210"

	if _, err := svc.SendOTP(ctx, phone); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	code := sender.codes[phone]
	if len(code) != 6 {
		t.Fatalf("code = %q, want 6 digits", code)
	}

	if _, err := svc.VerifyOTP(ctx, phone, code, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing name: err = %v, want ErrValidation", err)
	}

	res, err := svc.VerifyOTP(ctx, phone, code, "Asha")
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if res.User.ID == 0 || res.User.Name != "Asha" || res.User.Role != model.RoleGuest {
		t.Errorf("user = %+v", res.User)
	}
	claims, err := util.ParseJWT(res.AccessToken, "test-secret")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != res.User.ID || claims.Phone != phone {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := svc.VerifyOTP(ctx, phone, code, "Asha"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("reused code: err = %v, want ErrUnauthorized", err)
	}
}

func TestVerifyOTPRejectsWrongAndExpiredCodes(t *testing.T) {
	svc, sender, clock := newAuthFixture(t)
	ctx := context.Background()
	phone := "+919876543211"

	if _, err := svc.SendOTP(ctx, phone); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	code := sender.codes[phone]
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	if _, err := svc.VerifyOTP(ctx, phone, wrong, "Asha"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("wrong code: err = %v, want ErrUnauthorized", err)
	}

	clock.Advance(6 * time.Minute)
	if _, err := svc.VerifyOTP(ctx, phone, code, "Asha"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expired code: err = %v, want ErrUnauthorized", err)
	}
}

func TestVerifyOTPLocksAfterRepeatedFailures(t *testing.T) {
	svc, sender, _ := newAuthFixture(t)
	ctx := context.Background()
	phone := "+919876543215"

	if _, err := svc.SendOTP(ctx, phone); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	code := sender.codes[phone]
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	for i := 0; i < 5; i++ {
		if _, err := svc.VerifyOTP(ctx, phone, wrong, "Asha"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("wrong code #%d: err = %v, want ErrUnauthorized", i+1, err)
		}
	}
	if _, err := svc.VerifyOTP(ctx, phone, code, "Asha"); !errors.Is(err, ErrTooManyRequests) {
		t.Fatalf("correct code after lockout: err = %v, want ErrTooManyRequests", err)
	}

	if _, err := svc.SendOTP(ctx, phone); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if _, err := svc.VerifyOTP(ctx, phone, sender.codes[phone], "Asha"); err != nil {
		t.Errorf("fresh code after lockout: %v", err)
	}
}

func TestSendOTPInvalidatesPreviousCode(t *testing.T) {
	svc, sender, _ := newAuthFixture(t)
	ctx := context.Background()
	phone := "+919876543212"

	if _, err := svc.SendOTP(ctx, phone); err != nil {
		t.Fatalf("first SendOTP: %v", err)
	}
	old := sender.codes[phone]
	if _, err := svc.SendOTP(ctx, phone); err != nil {
		t.Fatalf("second SendOTP: %v", err)
	}
	fresh := sender.codes[phone]
	if old != fresh {
		if _, err := svc.VerifyOTP(ctx, phone, old, "Asha"); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("old code: err = %v, want ErrUnauthorized", err)
		}
	}
	if _, err := svc.VerifyOTP(ctx, phone, fresh, "Asha"); err != nil {
		t.Errorf("fresh code: %v", err)
	}
}

func TestSendOTPValidatesPhone(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	for _, phone := range []string{"9876543210", "+14155550100", "+91987654321", "+91987654321x"} {
		if _, err := svc.SendOTP(context.Background(), phone); !errors.Is(err, ErrValidation) {
			t.Errorf("%q: err = %v, want ErrValidation", phone, err)
		}
	}
}

func TestSendOTPSurfacesSenderFailure(t *testing.T) {
	svc, sender, _ := newAuthFixture(t)
	sender.err = errors.New("gateway down")
	if _, err := svc.SendOTP(context.Background(), "+919876543213"); err == nil {
		t.Error("expected error when SMS delivery fails")
	}
}

func TestAdminPhoneGetsAdminRole(t *testing.T) {
	svc, sender, _ := newAuthFixture(t)
	ctx := context.Background()
	phone := "+919999999999"

	if _, err := svc.SendOTP(ctx, phone); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	res, err := svc.VerifyOTP(ctx, phone, sender.codes[phone], "Admin")
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if res.User.Role != model.RoleAdmin {
		t.Errorf("role = %s, want admin", res.User.Role)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, sender, _ := newAuthFixture(t)
	ctx := context.Background()
	phone := "+919876543214"
	if _, err := svc.SendOTP(ctx, phone); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	res, err := svc.VerifyOTP(ctx, phone, sender.codes[phone], "Asha")
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}

	name, email := "Asha K", "asha@example.com"
	user, err := svc.UpdateProfile(ctx, res.User.ID, ProfileUpdate{Name: &name, Email: &email})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if user.Name != name || user.Email == nil || *user.Email != email {
		t.Errorf("user = %+v", user)
	}

	blank := "  "
	if _, err := svc.UpdateProfile(ctx, res.User.ID, ProfileUpdate{Name: &blank}); !errors.Is(err, ErrValidation) {
		t.Errorf("blank name: err = %v, want ErrValidation", err)
	}
	if _, err := svc.Profile(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user: err = %v, want ErrNotFound", err)
	}
}
