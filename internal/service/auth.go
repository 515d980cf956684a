package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hojimahmudov/orderbot/internal/config"
	"github.com/hojimahmudov/orderbot/internal/model"
	"github.com/hojimahmudov/orderbot/internal/notify"
	"github.com/hojimahmudov/orderbot/internal/repository"
)

// TokenPair is issued at verification. The access token is short-lived and
// attached to calls; the refresh token only mints new access tokens.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type AuthService interface {
	// Register creates (or re-issues an OTP for) an inactive account and
	// pushes the code through the chat channel.
	Register(ctx context.Context, chatID int64, phone, firstName string) error
	// Verify checks the OTP, activates the account and issues tokens.
	Verify(ctx context.Context, phone, code string) (*TokenPair, *model.User, error)
	// Refresh mints a new token pair from a valid refresh token.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	// Authenticate resolves the user behind an access token.
	Authenticate(ctx context.Context, accessToken string) (*model.User, error)
}

type authServiceImpl struct {
	cfg      config.Auth
	userRepo repository.UserRepository
	sender   notify.Sender
	log      *slog.Logger

	now func() time.Time
}

func NewAuthService(cfg config.Auth, userRepo repository.UserRepository, sender notify.Sender, log *slog.Logger) AuthService {
	return &authServiceImpl{
		cfg:      cfg,
		userRepo: userRepo,
		sender:   sender,
		log:      log,
		now:      time.Now,
	}
}

func (s *authServiceImpl) Register(ctx context.Context, chatID int64, phone, firstName string) error {
	user, err := s.userRepo.FindByPhone(ctx, phone)
	switch {
	case err == nil:
		if user.IsActive {
			return fmt.Errorf("%w: phone number already belongs to an active account", ErrConflict)
		}
		if user.ChatID != chatID {
			return fmt.Errorf("%w: phone number registered from another chat identity", ErrConflict)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if existing, cerr := s.userRepo.FindByChatID(ctx, chatID); cerr == nil && existing.PhoneNumber != phone {
			if existing.IsActive {
				return fmt.Errorf("%w: chat identity already bound to another phone number", ErrConflict)
			}
			// Abandoned half-registration with a different phone; rebind.
			existing.PhoneNumber = phone
			user = existing
		}
	default:
		return fmt.Errorf("find user by phone: %w", err)
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	issuedAt := s.now()

	if user == nil {
		user = &model.User{
			ChatID:      chatID,
			PhoneNumber: phone,
			FirstName:   firstName,
		}
		user.OTPCode = code
		user.OTPCreatedAt = &issuedAt
		if err := s.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
	} else {
		user.FirstName = firstName
		user.OTPCode = code
		user.OTPCreatedAt = &issuedAt
		if err := s.userRepo.Save(ctx, user); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
	}

	if err := s.sender.SendMessage(ctx, chatID, "Tasdiqlash kodingiz: "+code); err != nil {
		s.log.Warn("otp delivery failed", "chat_id", chatID, "error", err)
	}
	return nil
}

func (s *authServiceImpl) Verify(ctx context.Context, phone, code string) (*TokenPair, *model.User, error) {
	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("find user by phone: %w", err)
	}

	if !user.OTPValid(code, s.now()) {
		return nil, nil, validationErrorf("verification code is wrong or expired")
	}

	user.IsActive = true
	user.OTPCode = ""
	user.OTPCreatedAt = nil
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("activate user: %w", err)
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *authServiceImpl) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.parseToken(refreshToken, "refresh")
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, ErrUnauthorized
	}
	// Refresh rotation: every refresh re-issues both tokens.
	return s.issuePair(userID)
}

func (s *authServiceImpl) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	userID, err := s.parseToken(accessToken, "access")
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func (s *authServiceImpl) issuePair(userID int64) (*TokenPair, error) {
	access, err := s.signToken(userID, "access", time.Duration(s.cfg.AccessTTLMinutes)*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.signToken(userID, "refresh", time.Duration(s.cfg.RefreshTTLDays)*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *authServiceImpl) signToken(userID int64, typ string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub": fmt.Sprintf("%d", userID),
		"typ": typ,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *authServiceImpl) parseToken(raw, wantTyp string) (int64, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return 0, ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrUnauthorized
	}
	if typ, _ := claims["typ"].(string); typ != wantTyp {
		return 0, ErrUnauthorized
	}
	sub, _ := claims["sub"].(string)
	var userID int64
	if _, err := fmt.Sscanf(sub, "%d", &userID); err != nil || userID <= 0 {
		return 0, ErrUnauthorized
	}
	return userID, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
