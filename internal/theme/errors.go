package theme

import (
	"errors"
	"fmt"
)

// ErrNoLiveTheme is returned when an operation needs the live theme and
// the store does not have one.
var ErrNoLiveTheme = errors.New("store has no live theme")

// NotFoundError is returned when a configured theme id does not resolve
// to an existing theme.
type NotFoundError struct {
	ThemeID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("theme %d not found on store", e.ThemeID)
}

// RemoteStatusError carries an HTTP status the platform returned through
// whatever transport the client uses. Retry classification keys off it.
type RemoteStatusError struct {
	StatusCode int
	Message    string
}

func (e *RemoteStatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote returned status %d: %s", e.StatusCode, e.Message)
}

// HTTPStatus implements the status-carrier contract used by retry
// classification without importing this package.
func (e *RemoteStatusError) HTTPStatus() int {
	return e.StatusCode
}
