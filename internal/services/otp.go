package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/medismart/medismart-backend/internal/models"
	"github.com/medismart/medismart-backend/internal/storage"
	"github.com/medismart/medismart-backend/internal/utils"
)

// ErrPhoneRequired is returned when an OTP is requested without a phone number
var ErrPhoneRequired = errors.New("phone number is required")

// IssueStatus is the outcome of an OTP issuance request
type IssueStatus string

const (
	IssueSent      IssueStatus = "sent"
	IssueThrottled IssueStatus = "throttled"
)

// IssueResult describes what happened on Issue
type IssueResult struct {
	Status           IssueStatus
	RemainingSeconds int
	ExpiresAt        time.Time
}

// Message returns the text shown to the user
func (r *IssueResult) Message() string {
	if r.Status == IssueThrottled {
		return fmt.Sprintf("OTP already sent. Please wait %d seconds to resend.", r.RemainingSeconds)
	}
	return "OTP sent successfully (simulated). Check server console."
}

// VerifyStatus is the outcome of a verification attempt
type VerifyStatus string

const (
	VerifyAccepted    VerifyStatus = "accepted"
	VerifyNoRequest   VerifyStatus = "no_request"
	VerifyExpired     VerifyStatus = "expired"
	VerifyMaxAttempts VerifyStatus = "max_attempts"
	VerifyAlreadyUsed VerifyStatus = "already_used"
	VerifyInvalid     VerifyStatus = "invalid"
)

// VerifyResult describes what happened on Verify
type VerifyResult struct {
	Status            VerifyStatus
	RemainingAttempts int
	User              *models.User
}

// Message returns the text shown to the user
func (r *VerifyResult) Message() string {
	switch r.Status {
	case VerifyAccepted:
		return "OTP verified successfully."
	case VerifyNoRequest:
		return "No OTP request found."
	case VerifyExpired:
		return "OTP expired. Please request a new one."
	case VerifyMaxAttempts:
		return "Maximum verification attempts exceeded. Please request a new OTP."
	case VerifyAlreadyUsed:
		return "OTP already used. Please request a new one."
	default:
		return fmt.Sprintf("Invalid OTP. %d attempts remaining.", r.RemainingAttempts)
	}
}

// OTPOptions configures an OTPService
type OTPOptions struct {
	TTL         time.Duration
	MaxAttempts int
	HashCost    int
}

// OTPService issues and verifies login passcodes
type OTPService struct {
	store    storage.Store
	notifier OTPNotifier
	logger   *logrus.Logger

	ttl         time.Duration
	maxAttempts int
	hashCost    int

	now      func() time.Time
	generate func() (string, error)
}

// NewOTPService creates a new OTP service
func NewOTPService(store storage.Store, notifier OTPNotifier, logger *logrus.Logger, opts OTPOptions) *OTPService {
	return &OTPService{
		store:       store,
		notifier:    notifier,
		logger:      logger,
		ttl:         opts.TTL,
		maxAttempts: opts.MaxAttempts,
		hashCost:    opts.HashCost,
		now:         time.Now,
		generate:    utils.GenerateSecureOTP,
	}
}

// Issue creates and delivers a new passcode unless an earlier one for the
// same phone is still pending
func (s *OTPService) Issue(ctx context.Context, phone string) (*IssueResult, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}

	now := s.now()

	latest, err := s.store.GetLatestOTPRequest(ctx, phone)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if latest != nil && latest.IsPending(now) {
		return &IssueResult{
			Status:           IssueThrottled,
			RemainingSeconds: int(math.Ceil(latest.ExpiresAt.Sub(now).Seconds())),
			ExpiresAt:        latest.ExpiresAt,
		}, nil
	}

	code, err := s.generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}
	hash, err := utils.HashOTP(code, s.hashCost)
	if err != nil {
		return nil, err
	}

	otp := &models.OTPRequest{
		Phone:     phone,
		OTPHash:   hash,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.CreateOTPRequest(ctx, otp); err != nil {
		return nil, err
	}

	if err := s.notifier.SendOTP(ctx, phone, code); err != nil {
		return nil, fmt.Errorf("failed to deliver OTP: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"otp_id":     otp.ID,
		"expires_at": otp.ExpiresAt,
	}).Debug("OTP issued")

	return &IssueResult{Status: IssueSent, ExpiresAt: otp.ExpiresAt}, nil
}

// Verify checks code against the most recent passcode issued for phone.
// A successful verification makes sure a user row exists for the phone.
func (s *OTPService) Verify(ctx context.Context, phone, code string) (*VerifyResult, error) {
	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)

	latest, err := s.store.GetLatestOTPRequest(ctx, phone)
	if errors.Is(err, storage.ErrNotFound) {
		return &VerifyResult{Status: VerifyNoRequest}, nil
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if latest.IsExpired(now) {
		return &VerifyResult{Status: VerifyExpired}, nil
	}
	if latest.Attempts >= s.maxAttempts {
		return &VerifyResult{Status: VerifyMaxAttempts}, nil
	}
	if latest.Verified {
		return &VerifyResult{Status: VerifyAlreadyUsed}, nil
	}

	// Reserved before the compare: at most maxAttempts checks ever run per request.
	attempts, err := s.store.ReserveOTPAttempt(ctx, latest.ID, s.maxAttempts)
	if errors.Is(err, storage.ErrAttemptsExhausted) {
		return &VerifyResult{Status: VerifyMaxAttempts}, nil
	}
	if err != nil {
		return nil, err
	}

	if !utils.CheckOTP(latest.OTPHash, code) {
		return &VerifyResult{
			Status:            VerifyInvalid,
			RemainingAttempts: s.maxAttempts - attempts,
		}, nil
	}

	err = s.store.MarkOTPVerified(ctx, latest.ID)
	if errors.Is(err, storage.ErrAlreadyVerified) {
		return &VerifyResult{Status: VerifyAlreadyUsed}, nil
	}
	if err != nil {
		return nil, err
	}

	user, err := s.ensureUser(ctx, phone, now)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{Status: VerifyAccepted, User: user}, nil
}

func (s *OTPService) ensureUser(ctx context.Context, phone string, now time.Time) (*models.User, error) {
	user, err := s.store.GetUserByPhone(ctx, phone)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	user = &models.User{PhoneNumber: phone, CreatedAt: now}
	if err := s.store.CreateUser(ctx, user); err != nil {
		// a concurrent login for the same phone may have created it first
		existing, lookupErr := s.store.GetUserByPhone(ctx, phone)
		if lookupErr != nil {
			return nil, err
		}
		return existing, nil
	}
	s.logger.WithField("user_id", user.ID).Info("👤 New user registered")
	return user, nil
}
