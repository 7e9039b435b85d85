package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/picolemon/picocom16-sub001/bus"
	"github.com/picolemon/picocom16-sub001/topology"
)

// buildConsole assembles every directional link of the fixed topology
// (§6) as an in-process simulation, aggregating any assembly errors with
// go-multierror via topology.Console.AddLinks.
func buildConsole(cfg *Config, reg prometheus.Registerer) (*topology.Console, error) {
	kind := topology.RouterQueued
	if cfg.UseCallbackRouter {
		kind = topology.RouterCallback
	}

	console := topology.NewConsole()

	mk := func(name topology.LinkName, sender, receiver string) *topology.Link {
		txStats := bus.NewStats(sender+"."+string(name), reg)
		rxStats := bus.NewStats(receiver+"."+string(name), reg)
		l := topology.NewSimulatedLink(name, sender, receiver, kind, cfg.QueueCapacity, txStats, rxStats)
		l.Tx.SetAckTimeout(cfg.AckTimeout)
		return l
	}

	err := console.AddLinks(
		mk(topology.LinkVLNKAppToVdp1, "APP", "VDP1"),
		mk(topology.LinkVLNKVdp1ToApp, "VDP1", "APP"),
		mk(topology.LinkVDBUS, "VDP1", "VDP2"),
		mk(topology.LinkXLNK, "VDP2", "VDP1"),
		mk(topology.LinkALNKAppToApu, "APP", "APU"),
		mk(topology.LinkALNKApuToApp, "APU", "APP"),
	)
	if err != nil {
		return nil, err
	}
	return console, nil
}
