package layout

import (
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/yungbote/storefront-layout/internal/pkg/errors"
)

const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"

	DefaultPageType = "home"
)

// SessionContext travels with one telemetry batch and is dropped once the
// pipeline run finishes.
type SessionContext struct {
	SessionID  string    `json:"session_id" validate:"required"`
	PageType   string    `json:"page_type"`
	DeviceType string    `json:"device_type" validate:"oneof=desktop mobile tablet"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewSessionContext fills defaults the same way inbound batches do: unknown
// or empty device types fall back to desktop.
func NewSessionContext(sessionID, pageType, deviceType string, now time.Time) SessionContext {
	pageType = strings.TrimSpace(pageType)
	if pageType == "" {
		pageType = DefaultPageType
	}
	switch deviceType = strings.ToLower(strings.TrimSpace(deviceType)); deviceType {
	case DeviceDesktop, DeviceMobile, DeviceTablet:
	default:
		deviceType = DeviceDesktop
	}
	return SessionContext{
		SessionID:  strings.TrimSpace(sessionID),
		PageType:   pageType,
		DeviceType: deviceType,
		Timestamp:  now.UTC(),
	}
}

func (c SessionContext) Validate() error {
	if strings.TrimSpace(c.SessionID) == "" {
		return fmt.Errorf("session_id required: %w", pkgerrors.ErrInvalidArgument)
	}
	return validationError(validate.Struct(c))
}
