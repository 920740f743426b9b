package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/medismart/medismart-backend/internal/models"
	"github.com/medismart/medismart-backend/internal/storage"
)

const testPhone = "9999999999"

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time { return c.current }

func (c *fakeClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestOTPService(t *testing.T) (*OTPService, *storage.MemoryStore, *captureNotifier, *fakeClock) {
	t.Helper()

	logger, _ := test.NewNullLogger()
	store := storage.NewMemoryStore()
	notifier := newCaptureNotifier()
	clock := &fakeClock{current: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}

	svc := NewOTPService(store, notifier, logger, OTPOptions{
		TTL:         30 * time.Second,
		MaxAttempts: 3,
		HashCost:    bcrypt.MinCost,
	})
	svc.now = clock.Now

	return svc, store, notifier, clock
}

func wrongCode(code string) string {
	if code == "0000" {
		return "1111"
	}
	return "0000"
}

func TestIssueRequiresPhone(t *testing.T) {
	svc, _, _, _ := newTestOTPService(t)

	_, err := svc.Issue(context.Background(), "   ")
	assert.True(t, errors.Is(err, ErrPhoneRequired))
}

func TestIssueStoresHashNotPlaintext(t *testing.T) {
	svc, store, notifier, clock := newTestOTPService(t)
	ctx := context.Background()

	result, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, IssueSent, result.Status)

	code, ok := notifier.LastCode(testPhone)
	require.True(t, ok)
	assert.Len(t, code, 4)

	otp, err := store.GetLatestOTPRequest(ctx, testPhone)
	require.NoError(t, err)
	assert.NotEqual(t, code, otp.OTPHash)
	assert.NotContains(t, otp.OTPHash, code)
	assert.Equal(t, 0, otp.Attempts)
	assert.False(t, otp.Verified)
	assert.Equal(t, clock.Now().Add(30*time.Second), otp.ExpiresAt)
}

func TestIssueTwiceWithinTTLIsThrottled(t *testing.T) {
	svc, store, _, clock := newTestOTPService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	first, err := store.GetLatestOTPRequest(ctx, testPhone)
	require.NoError(t, err)

	clock.Advance(12*time.Second + 300*time.Millisecond)

	result, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, IssueThrottled, result.Status)
	assert.Equal(t, 18, result.RemainingSeconds)
	assert.Greater(t, result.RemainingSeconds, 0)
	assert.LessOrEqual(t, result.RemainingSeconds, 30)
	assert.Equal(t, "OTP already sent. Please wait 18 seconds to resend.", result.Message())

	latest, err := store.GetLatestOTPRequest(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, first.ID, latest.ID)
	assert.Equal(t, first.OTPHash, latest.OTPHash)
}

func TestIssueAfterExpiryCreatesFreshRequest(t *testing.T) {
	svc, store, _, clock := newTestOTPService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	first, err := store.GetLatestOTPRequest(ctx, testPhone)
	require.NoError(t, err)

	clock.Advance(31 * time.Second)

	result, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, IssueSent, result.Status)

	latest, err := store.GetLatestOTPRequest(ctx, testPhone)
	require.NoError(t, err)
	assert.Greater(t, latest.ID, first.ID)
}

func TestIssueAfterVerificationIsNotThrottled(t *testing.T) {
	svc, _, notifier, _ := newTestOTPService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	code, _ := notifier.LastCode(testPhone)

	verified, err := svc.Verify(ctx, testPhone, code)
	require.NoError(t, err)
	require.Equal(t, VerifyAccepted, verified.Status)

	result, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, IssueSent, result.Status)
}

func TestVerifyWithoutRequest(t *testing.T) {
	svc, _, _, _ := newTestOTPService(t)

	result, err := svc.Verify(context.Background(), testPhone, "1234")
	require.NoError(t, err)
	assert.Equal(t, VerifyNoRequest, result.Status)
	assert.Equal(t, "No OTP request found.", result.Message())
}

func TestVerifyWrongThenCorrectCode(t *testing.T) {
	svc, store, notifier, _ := newTestOTPService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	code, _ := notifier.LastCode(testPhone)

	result, err := svc.Verify(ctx, testPhone, wrongCode(code))
	require.NoError(t, err)
	assert.Equal(t, VerifyInvalid, result.Status)
	assert.Equal(t, 2, result.RemainingAttempts)
	assert.Equal(t, "Invalid OTP. 2 attempts remaining.", result.Message())

	_, err = store.GetUserByPhone(ctx, testPhone)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	result, err = svc.Verify(ctx, testPhone, code)
	require.NoError(t, err)
	assert.Equal(t, VerifyAccepted, result.Status)
	require.NotNil(t, result.User)
	assert.Equal(t, testPhone, result.User.PhoneNumber)

	user, err := store.GetUserByPhone(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, user.ID)

	otp, err := store.GetLatestOTPRequest(ctx, testPhone)
	require.NoError(t, err)
	assert.True(t, otp.Verified)
	assert.Equal(t, 1, otp.Attempts)
}

func TestVerifyReusesExistingUser(t *testing.T) {
	svc, store, notifier, clock := newTestOTPService(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.Issue(ctx, testPhone)
		require.NoError(t, err)
		code, _ := notifier.LastCode(testPhone)

		result, err := svc.Verify(ctx, testPhone, code)
		require.NoError(t, err)
		require.Equal(t, VerifyAccepted, result.Status)
		assert.Equal(t, uint(1), result.User.ID)

		clock.Advance(time.Second)
	}

	user, err := store.GetUserByPhone(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)
}

func TestVerifyAfterExpiryIgnoresCode(t *testing.T) {
	svc, _, notifier, clock := newTestOTPService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	code, _ := notifier.LastCode(testPhone)

	clock.Advance(30*time.Second + time.Millisecond)

	for _, submitted := range []string{code, wrongCode(code)} {
		result, err := svc.Verify(ctx, testPhone, submitted)
		require.NoError(t, err)
		assert.Equal(t, VerifyExpired, result.Status)
	}
}

func TestVerifyAtExactExpiryIsStillValid(t *testing.T) {
	svc, _, notifier, clock := newTestOTPService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	code, _ := notifier.LastCode(testPhone)

	clock.Advance(30 * time.Second)

	result, err := svc.Verify(ctx, testPhone, code)
	require.NoError(t, err)
	assert.Equal(t, VerifyAccepted, result.Status)
}

func TestThreeWrongCodesExhaustAttempts(t *testing.T) {
	svc, store, notifier, _ := newTestOTPService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	code, _ := notifier.LastCode(testPhone)

	for remaining := 2; remaining >= 0; remaining-- {
		result, err := svc.Verify(ctx, testPhone, wrongCode(code))
		require.NoError(t, err)
		assert.Equal(t, VerifyInvalid, result.Status)
		assert.Equal(t, remaining, result.RemainingAttempts)
	}

	result, err := svc.Verify(ctx, testPhone, code)
	require.NoError(t, err)
	assert.Equal(t, VerifyMaxAttempts, result.Status)

	otp, err := store.GetLatestOTPRequest(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, 3, otp.Attempts)
	assert.False(t, otp.Verified)
}

func TestVerifyAcceptsOnlyOncePerRequest(t *testing.T) {
	svc, _, notifier, _ := newTestOTPService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	code, _ := notifier.LastCode(testPhone)

	first, err := svc.Verify(ctx, testPhone, code)
	require.NoError(t, err)
	assert.Equal(t, VerifyAccepted, first.Status)

	second, err := svc.Verify(ctx, testPhone, code)
	require.NoError(t, err)
	assert.Equal(t, VerifyAlreadyUsed, second.Status)
}

func TestVerifyOnlyConsidersLatestRequest(t *testing.T) {
	svc, _, notifier, clock := newTestOTPService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	oldCode, _ := notifier.LastCode(testPhone)

	clock.Advance(31 * time.Second)
	_, err = svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	newCode, _ := notifier.LastCode(testPhone)

	if oldCode != newCode {
		result, err := svc.Verify(ctx, testPhone, oldCode)
		require.NoError(t, err)
		assert.Equal(t, VerifyInvalid, result.Status)
	}

	result, err := svc.Verify(ctx, testPhone, newCode)
	require.NoError(t, err)
	assert.Equal(t, VerifyAccepted, result.Status)
}

func TestConcurrentWrongCodesStayWithinAttemptLimit(t *testing.T) {
	svc, store, notifier, _ := newTestOTPService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	code, _ := notifier.LastCode(testPhone)

	var wg sync.WaitGroup
	statuses := make(chan VerifyStatus, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.Verify(ctx, testPhone, wrongCode(code))
			if assert.NoError(t, err) {
				statuses <- result.Status
			}
		}()
	}
	wg.Wait()
	close(statuses)

	counts := map[VerifyStatus]int{}
	for status := range statuses {
		counts[status]++
	}
	assert.Equal(t, 3, counts[VerifyInvalid])
	assert.Equal(t, 17, counts[VerifyMaxAttempts])

	otp, err := store.GetLatestOTPRequest(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, 3, otp.Attempts)
}

func TestConcurrentCorrectCodesAcceptOnce(t *testing.T) {
	svc, store, notifier, _ := newTestOTPService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	code, _ := notifier.LastCode(testPhone)

	var wg sync.WaitGroup
	statuses := make(chan VerifyStatus, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.Verify(ctx, testPhone, code)
			if assert.NoError(t, err) {
				statuses <- result.Status
			}
		}()
	}
	wg.Wait()
	close(statuses)

	accepted := 0
	for status := range statuses {
		if status == VerifyAccepted {
			accepted++
		} else {
			assert.Contains(t, []VerifyStatus{VerifyAlreadyUsed, VerifyMaxAttempts}, status)
		}
	}
	assert.Equal(t, 1, accepted)

	otp, err := store.GetLatestOTPRequest(ctx, testPhone)
	require.NoError(t, err)
	assert.True(t, otp.Verified)
	assert.LessOrEqual(t, otp.Attempts, 3)
}

// racingUserStore creates the user for another login right before our insert
type racingUserStore struct {
	*storage.MemoryStore
}

func (s racingUserStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.MemoryStore.CreateUser(ctx, &models.User{PhoneNumber: user.PhoneNumber}); err != nil {
		return err
	}
	return s.MemoryStore.CreateUser(ctx, user)
}

func TestVerifyReusesUserCreatedConcurrently(t *testing.T) {
	svc, store, notifier, _ := newTestOTPService(t)
	svc.store = racingUserStore{store}
	ctx := context.Background()

	_, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	code, _ := notifier.LastCode(testPhone)

	result, err := svc.Verify(ctx, testPhone, code)
	require.NoError(t, err)
	assert.Equal(t, VerifyAccepted, result.Status)
	require.NotNil(t, result.User)
	assert.Equal(t, uint(1), result.User.ID)
	assert.Equal(t, testPhone, result.User.PhoneNumber)
}

type failingNotifier struct{}

func (failingNotifier) SendOTP(context.Context, string, string) error {
	return errors.New("gateway down")
}

func TestIssueSurfacesDeliveryFailure(t *testing.T) {
	svc, _, _, _ := newTestOTPService(t)
	svc.notifier = failingNotifier{}

	_, err := svc.Issue(context.Background(), testPhone)
	assert.ErrorContains(t, err, "gateway down")
}

func TestLogNotifierWritesCode(t *testing.T) {
	logger, hook := test.NewNullLogger()
	notifier := NewLogNotifier(logger)

	require.NoError(t, notifier.SendOTP(context.Background(), testPhone, "0420"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "[MediSmart OTP Demo] OTP for 9999999999: 0420", entry.Message)
	assert.Equal(t, testPhone, entry.Data["phone"])
}
