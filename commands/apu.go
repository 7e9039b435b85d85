package commands

// APU command codes (EBusCmd_APU_BASE): audio submission and HID input
// events exchanged with APP over ALNK.
const (
	ApuGetStatus    = BaseAPU + 1 // realtime
	ApuStatusReply  = BaseAPU + 2 // realtime response
	ApuHidEvent     = BaseAPU + 3 // realtime: low-latency input, answered in-line
	ApuAudioSubmit  = BaseAPU + 4 // main: bulk PCM/Ogg payload
	ApuAudioDrained = BaseAPU + 5 // main
)

func registerApuCommands(r *Registry) {
	r.Register(ChipAPU, ApuGetStatus, "apu_get_status", ClassRealtime)
	r.Register(ChipAPU, ApuStatusReply, "apu_status_reply", ClassRealtime)
	r.Register(ChipAPU, ApuHidEvent, "apu_hid_event", ClassRealtime)
	r.Register(ChipAPU, ApuAudioSubmit, "apu_audio_submit", ClassMain)
	r.Register(ChipAPU, ApuAudioDrained, "apu_audio_drained", ClassMain)
}

// Global returns the fully populated static registry for all four chips
// — the set of command codes an introspection tool (cmd/consolesim
// describe) or a log formatter needs, without any wire negotiation.
func Global() *Registry {
	r := NewRegistry()
	registerAppCommands(r)
	registerVdp1Commands(r)
	registerVdp2Commands(r)
	registerApuCommands(r)
	return r
}
