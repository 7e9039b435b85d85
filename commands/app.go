package commands

// APP-side command codes: status polls and GPU/audio control issued to
// VDP1/APU, plus replies APP accepts from its peers.
const (
	AppGetStatus      = BaseAPP + 1 // realtime: cheap poll, answered in-line
	AppSubmitDrawList = BaseAPP + 2 // main: large payload, always deferred
	AppSubmitAudio    = BaseAPP + 3 // main
	AppShutdown       = BaseAPP + 4 // realtime: must not be starved by a queue backlog
)

func registerAppCommands(r *Registry) {
	r.Register(ChipAPP, AppGetStatus, "app_get_status", ClassRealtime)
	r.Register(ChipAPP, AppSubmitDrawList, "app_submit_draw_list", ClassMain)
	r.Register(ChipAPP, AppSubmitAudio, "app_submit_audio", ClassMain)
	r.Register(ChipAPP, AppShutdown, "app_shutdown", ClassRealtime)
}
