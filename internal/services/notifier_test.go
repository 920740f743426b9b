package services

import (
	"context"
	"sync"
)

// captureNotifier keeps the last code sent to each phone
type captureNotifier struct {
	mu    sync.Mutex
	codes map[string]string
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{codes: make(map[string]string)}
}

func (n *captureNotifier) SendOTP(_ context.Context, phone, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.codes[phone] = code
	return nil
}

func (n *captureNotifier) LastCode(phone string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	code, ok := n.codes[phone]
	return code, ok
}
