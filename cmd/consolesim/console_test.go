package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picolemon/picocom16-sub001/mockrouter"
	"github.com/picolemon/picocom16-sub001/topology"
)

func testConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func TestBuildConsoleRegistersAllSixDirectionalLinks(t *testing.T) {
	console, err := buildConsole(testConfig(), nil)
	require.NoError(t, err)

	want := []topology.LinkName{
		topology.LinkVLNKAppToVdp1,
		topology.LinkVLNKVdp1ToApp,
		topology.LinkVDBUS,
		topology.LinkXLNK,
		topology.LinkALNKAppToApu,
		topology.LinkALNKApuToApp,
	}
	assert.Len(t, console.Links, len(want))
	for _, name := range want {
		assert.Contains(t, console.Links, name)
	}
}

func TestBuildConsoleHonorsCallbackRouterFlag(t *testing.T) {
	cfg := testConfig()
	cfg.UseCallbackRouter = true

	console, err := buildConsole(cfg, nil)
	require.NoError(t, err)

	link := console.Links[topology.LinkVLNKAppToVdp1]
	require.NotNil(t, link)
	assert.IsType(t, &mockrouter.CallbackRouter{}, link.Link)
}

func TestBuildConsoleDispatchesWithoutPanicking(t *testing.T) {
	console, err := buildConsole(testConfig(), nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		for i := 0; i < 4; i++ {
			console.DispatchAll()
		}
	})
}
