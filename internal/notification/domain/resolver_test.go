package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool      { return &v }
func f64Ptr(v float64) *float64 { return &v }

func TestResolve_TypeDefaults(t *testing.T) {
	res, err := Resolve(TypeNewOrder, nil, EventContext{})
	require.NoError(t, err)
	assert.True(t, res.Enabled)
	assert.Equal(t, []Channel{ChannelInApp, ChannelPush}, res.Channels)
	assert.Equal(t, PriorityHigh, res.Priority)

	res, err = Resolve(TypePaymentFailed, nil, EventContext{})
	require.NoError(t, err)
	assert.True(t, res.Enabled)
	assert.Contains(t, res.Channels, ChannelEmail)
}

func TestResolve_UnknownTypeRejected(t *testing.T) {
	_, err := Resolve(NotificationType("carrier_pigeon"), nil, EventContext{})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestResolve_UserOverrides(t *testing.T) {
	prefs := PreferenceMap{
		TypeNewOrder: {
			Enabled:  boolPtr(false),
			Channels: []Channel{ChannelEmail},
		},
	}

	res, err := Resolve(TypeNewOrder, prefs, EventContext{})
	require.NoError(t, err)
	assert.False(t, res.Enabled)
	assert.Equal(t, []Channel{ChannelEmail}, res.Channels)
}

func TestResolve_MissingChannelsDefaultInApp(t *testing.T) {
	prefs := PreferenceMap{
		TypeOrderExpired: {Enabled: boolPtr(true)},
	}

	res, err := Resolve(TypeOrderExpired, prefs, EventContext{})
	require.NoError(t, err)
	assert.Equal(t, []Channel{ChannelInApp}, res.Channels)
}

func TestResolve_LowInventoryThreshold(t *testing.T) {
	prefs := PreferenceMap{
		TypeLowInventory: {
			Enabled:   boolPtr(true),
			Threshold: f64Ptr(10),
		},
	}

	// stock above the threshold suppresses the event
	res, err := Resolve(TypeLowInventory, prefs, EventContext{Stock: f64Ptr(25)})
	require.NoError(t, err)
	assert.False(t, res.Enabled)

	res, err = Resolve(TypeLowInventory, prefs, EventContext{Stock: f64Ptr(10)})
	require.NoError(t, err)
	assert.True(t, res.Enabled)

	// no measurement, no event
	res, err = Resolve(TypeLowInventory, prefs, EventContext{})
	require.NoError(t, err)
	assert.False(t, res.Enabled)
}

func TestResolve_ProfitAlertMinMargin(t *testing.T) {
	prefs := PreferenceMap{
		TypeProfitAlert: {
			Enabled:   boolPtr(true),
			MinMargin: f64Ptr(20),
		},
	}

	res, err := Resolve(TypeProfitAlert, prefs, EventContext{Margin: f64Ptr(12.5)})
	require.NoError(t, err)
	assert.True(t, res.Enabled)

	res, err = Resolve(TypeProfitAlert, prefs, EventContext{Margin: f64Ptr(35)})
	require.NoError(t, err)
	assert.False(t, res.Enabled)
}

func TestResolve_ThresholdTypesDisabledByDefault(t *testing.T) {
	res, err := Resolve(TypeLowInventory, nil, EventContext{Stock: f64Ptr(0)})
	require.NoError(t, err)
	assert.False(t, res.Enabled)

	res, err = Resolve(TypeProfitAlert, nil, EventContext{Margin: f64Ptr(-5)})
	require.NoError(t, err)
	assert.False(t, res.Enabled)
}
