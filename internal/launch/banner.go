// Package launch provides the first-run welcome banner and the settings
// store that remembers whether it has been dismissed.
package launch

import (
	"context"
	"fmt"
	"sync"
)

// LaunchAPI persists the first-time flag.
type LaunchAPI interface {
	ChangeFirstTime(ctx context.Context, firstTime bool) error
}

// WelcomeText is the banner copy.
const WelcomeText = `Welcome. This computer and the identity you booted it with belong to you.

Keeping them safe is up to you: store your identity somewhere you will not
lose it and run this system on a machine you trust.

The system is designed to keep your data secure, but it is still young.
Do not put anything critical here just yet.

To get started, join a chat and check for signs of life. If a friend
invited you, you probably already belong to a few groups.

Have fun!`

// Banner shows WelcomeText on first run until dismissed.
//
// Thread-safety: safe for concurrent use.
type Banner struct {
	api LaunchAPI

	mu   sync.Mutex
	show bool
}

// NewBanner creates a visible banner backed by api.
func NewBanner(api LaunchAPI) *Banner {
	return &Banner{api: api, show: true}
}

// Visible reports whether the banner renders for the given first-time flag.
func (b *Banner) Visible(firstTime bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return firstTime && b.show
}

// Render returns WelcomeText when visible, otherwise "".
func (b *Banner) Render(firstTime bool) string {
	if !b.Visible(firstTime) {
		return ""
	}
	return WelcomeText
}

// Dismiss hides the banner for the rest of the session and clears the
// first-time flag. Only the first call reaches the API. The banner stays
// hidden even when the API call fails; the error is returned.
func (b *Banner) Dismiss(ctx context.Context) error {
	b.mu.Lock()
	if !b.show {
		b.mu.Unlock()
		return nil
	}
	b.show = false
	b.mu.Unlock()

	if b.api == nil {
		return nil
	}
	if err := b.api.ChangeFirstTime(ctx, false); err != nil {
		return fmt.Errorf("dismiss welcome: %w", err)
	}
	return nil
}
