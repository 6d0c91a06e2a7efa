package channels_test

import (
	"testing"

	"github.com/ogulcanaydogan/SafetyRing/pkg/channels"
	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := channels.NewRegistry()
	require.NoError(t, r.Register(model.ChannelPrimary, channels.NewSMSGateway("https://example.com", "")))

	got, err := r.Get(model.ChannelPrimary)
	require.NoError(t, err)
	assert.Equal(t, "sms-gateway", got.Name())
	assert.True(t, r.Usable(model.ChannelPrimary))
	assert.False(t, r.Usable(model.ChannelRisky))
}

func TestRegistry_DuplicateRegister(t *testing.T) {
	r := channels.NewRegistry()
	require.NoError(t, r.Register(model.ChannelPrimary, channels.NewSlack("https://hooks.example.com", "")))

	err := r.Register(model.ChannelPrimary, channels.NewSMSGateway("https://example.com", ""))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already served")
}

func TestRegistry_UnknownChannel(t *testing.T) {
	r := channels.NewRegistry()
	assert.Error(t, r.Register("carrier-pigeon", channels.NewSlack("x", "")))

	_, err := r.Get(model.ChannelRisky)
	assert.ErrorContains(t, err, "no composer")
}

func TestRegistry_UsableRequiresCanSend(t *testing.T) {
	r := channels.NewRegistry()
	require.NoError(t, r.Register(model.ChannelPrimary, channels.NewSMSGateway("", "")))
	assert.False(t, r.Usable(model.ChannelPrimary))
	assert.Equal(t, []model.Channel{model.ChannelPrimary}, r.List())
}
