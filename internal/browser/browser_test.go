package browser

import (
	"errors"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.True(t, opts.Headless)
	assert.Greater(t, opts.Timeout.Seconds(), 0.0)
	assert.NotEmpty(t, opts.UserAgent)
	assert.LessOrEqual(t, opts.DelayMin, opts.DelayMax)
	assert.Greater(t, opts.RetryBaseDelay.Milliseconds(), int64(0))
}

func TestClassifyNavError(t *testing.T) {
	timeoutErr := classifyNavError(&playwright.Error{Name: "TimeoutError", Message: "Timeout 30000ms exceeded"})
	assert.ErrorIs(t, timeoutErr, ErrNavigationTimeout)

	textualTimeout := classifyNavError(errors.New("Timeout 30000ms exceeded"))
	assert.ErrorIs(t, textualTimeout, ErrNavigationTimeout)

	navErr := classifyNavError(errors.New("net::ERR_CONNECTION_REFUSED"))
	assert.ErrorIs(t, navErr, ErrNavigationFailed)
	assert.NotErrorIs(t, navErr, ErrNavigationTimeout)
}
