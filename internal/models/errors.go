package models

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionUnavailable means the platform has no notification capability.
	ErrPermissionUnavailable = errors.New("notification permission unavailable")
	// ErrPermissionDenied means the user declined or revoked notifications.
	ErrPermissionDenied = errors.New("notification permission denied")
	// ErrAlertDeliveryFailed matches any AlertDeliveryError.
	ErrAlertDeliveryFailed = errors.New("alert delivery failed")
	// ErrInvalidConfigValue is returned for a goal or interval outside its allowed set.
	ErrInvalidConfigValue = errors.New("invalid config value")
)

// AlertDeliveryError reports that one channel of a reminder (popup, sound,
// haptic) could not be delivered.
type AlertDeliveryError struct {
	Channel string
	Err     error
}

func (e *AlertDeliveryError) Error() string {
	return fmt.Sprintf("deliver %s: %v", e.Channel, e.Err)
}

func (e *AlertDeliveryError) Unwrap() error {
	return e.Err
}

func (e *AlertDeliveryError) Is(target error) bool {
	return target == ErrAlertDeliveryFailed
}
