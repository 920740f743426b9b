package services

import (
	"context"

	"github.com/sirupsen/logrus"
)

// OTPNotifier delivers a plaintext passcode to its owner
type OTPNotifier interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// LogNotifier simulates delivery by writing the code to the operator log
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a notifier that logs passcodes
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendOTP(_ context.Context, phone, code string) error {
	n.logger.WithField("phone", phone).Infof("[MediSmart OTP Demo] OTP for %s: %s", phone, code)
	return nil
}
