package effects

import "fmt"

// PaceFilter resamples to a constant frame rate and clones the last frame so a
// short clip still fills the scene; the encoder's -t cuts the excess.
func PaceFilter(fps int, duration float64) string {
	return fmt.Sprintf("fps=%d,format=yuv420p,tpad=stop_mode=clone:stop_duration=%.3f", fps, duration)
}

// AudioPadFilter pads source audio with silence up to the scene length.
func AudioPadFilter(sampleRate int, duration float64) string {
	return fmt.Sprintf("aresample=%d,apad=whole_dur=%.3f", sampleRate, duration)
}

// OverlayFilter composites a full-frame RGBA layer (input 1) over every frame of
// input 0. The still image repeats after its single frame ends.
func OverlayFilter() string {
	return "[0:v][1:v]overlay=0:0:format=auto:eof_action=repeat,format=yuv420p[v]"
}
