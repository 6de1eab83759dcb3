package domain

import "errors"

// ErrUnknownType rejects notification types outside the closed set.
var ErrUnknownType = errors.New("unknown_notification_type")

// Resolution is the outcome of resolving a type against user preferences.
type Resolution struct {
	Enabled  bool      `json:"enabled"`
	Channels []Channel `json:"channels"`
	Priority Priority  `json:"priority"`
}

// EventContext carries the measured values threshold-gated types compare
// against. Nil means the event carries no such measurement.
type EventContext struct {
	// Stock is the remaining inventory for low_inventory events.
	Stock *float64
	// Margin is the computed profit margin percentage for profit_alert events.
	Margin *float64
}

type typeDefault struct {
	enabled   bool
	channels  []Channel
	priority  Priority
	threshold float64
	minMargin float64
}

// DefaultLowInventoryThreshold gates low_inventory when the user has not set
// their own threshold.
const DefaultLowInventoryThreshold = 5

// DefaultMinMargin gates profit_alert when the user has not set their own
// floor.
const DefaultMinMargin = 10

func defaultsFor(t NotificationType) (typeDefault, error) {
	switch t {
	case TypeNewOrder:
		return typeDefault{enabled: true, channels: []Channel{ChannelInApp, ChannelPush}, priority: PriorityHigh}, nil
	case TypeOrderExpired:
		return typeDefault{enabled: true, channels: []Channel{ChannelInApp}, priority: PriorityNormal}, nil
	case TypeOrderAbandoned:
		return typeDefault{enabled: true, channels: []Channel{ChannelInApp}, priority: PriorityNormal}, nil
	case TypePaymentFailed:
		return typeDefault{enabled: true, channels: []Channel{ChannelInApp, ChannelEmail}, priority: PriorityHigh}, nil
	case TypePlanLimitWarning:
		return typeDefault{enabled: true, channels: []Channel{ChannelInApp}, priority: PriorityNormal}, nil
	case TypeLowInventory:
		return typeDefault{enabled: false, channels: []Channel{ChannelInApp}, priority: PriorityNormal, threshold: DefaultLowInventoryThreshold}, nil
	case TypeProfitAlert:
		return typeDefault{enabled: false, channels: []Channel{ChannelInApp}, priority: PriorityLow, minMargin: DefaultMinMargin}, nil
	}
	return typeDefault{}, ErrUnknownType
}

// Resolve maps a notification type to its enabled flag and channel set under
// the user's preference map. A missing preference entry falls back to the
// type default; a missing channel list falls back to in_app. Threshold types
// additionally gate on the event's measured value.
func Resolve(t NotificationType, prefs PreferenceMap, evt EventContext) (Resolution, error) {
	def, err := defaultsFor(t)
	if err != nil {
		return Resolution{}, err
	}

	pref, hasPref := prefs[t]

	enabled := def.enabled
	if hasPref && pref.Enabled != nil {
		enabled = *pref.Enabled
	}

	channels := def.channels
	if hasPref && len(pref.Channels) > 0 {
		channels = pref.Channels
	}
	if len(channels) == 0 {
		channels = []Channel{ChannelInApp}
	}

	if enabled {
		switch t {
		case TypeLowInventory:
			threshold := def.threshold
			if hasPref && pref.Threshold != nil {
				threshold = *pref.Threshold
			}
			// the event only fires once stock falls to the threshold
			enabled = evt.Stock != nil && *evt.Stock <= threshold
		case TypeProfitAlert:
			minMargin := def.minMargin
			if hasPref && pref.MinMargin != nil {
				minMargin = *pref.MinMargin
			}
			// alert when the computed margin drops below the floor
			enabled = evt.Margin != nil && *evt.Margin < minMargin
		}
	}

	return Resolution{
		Enabled:  enabled,
		Channels: channels,
		Priority: def.priority,
	}, nil
}
