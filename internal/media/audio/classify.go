package audio

import (
	"fmt"

	"downmix/internal/media/ffprobe"
)

// Channel counts that identify the layouts this tool cares about. Anything
// else (mono, 4.0, 6.1, ...) is left unclassified and never touched.
const (
	stereoChannels   = 2
	surroundChannels = 6
	wideChannels     = 8
)

// Descriptor captures one audio stream from a probe pass.
//
// Number is the ordinal position within the audio-only subset (the value
// ffmpeg's a:N selector addresses); Index is the raw container stream index.
// Conflating the two silently selects the wrong track.
type Descriptor struct {
	Number   int
	Index    int
	Channels int
	Codec    string
}

// Configuration is the aggregate classification of a file's audio state.
type Configuration struct {
	HasStereo bool
	Has51     bool
	Has71     bool
	// First71 is the stream number of the first 8-channel track,
	// set iff Has71.
	First71 *int
	// First51 is the stream number of the first 6-channel track,
	// set iff Has51. Used as the stereo downmix source when no 7.1 exists.
	First51 *int
}

// Action is the closed set of outcomes classification can produce.
type Action int

const (
	// ActionAlreadyComplete - a 5.1 track exists, nothing to do.
	ActionAlreadyComplete Action = iota
	// ActionStereoOnlyNoSurroundSource - only stereo audio, nothing to downmix from.
	ActionStereoOnlyNoSurroundSource
	// ActionNoSurroundSource - no 5.1 and no convertible 7.1 source.
	ActionNoSurroundSource
	// ActionSynthesizeFrom71 - derive the missing track(s) from the first 7.1 stream.
	ActionSynthesizeFrom71
)

func (a Action) String() string {
	switch a {
	case ActionAlreadyComplete:
		return "already complete"
	case ActionStereoOnlyNoSurroundSource:
		return "stereo only, no surround source"
	case ActionNoSurroundSource:
		return "no surround source"
	case ActionSynthesizeFrom71:
		return "synthesize from 7.1"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Skip reports whether the action leaves the file untouched.
func (a Action) Skip() bool {
	return a != ActionSynthesizeFrom71
}

// Describe converts probed streams into descriptors, assigning stream
// numbers by position within the audio subset.
func Describe(streams []ffprobe.Stream) []Descriptor {
	descriptors := make([]Descriptor, 0, len(streams))
	for number, stream := range streams {
		descriptors = append(descriptors, Descriptor{
			Number:   number,
			Index:    stream.Index,
			Channels: stream.Channels,
			Codec:    stream.CodecName,
		})
	}
	return descriptors
}

// Classify maps a file's audio streams to its configuration and the required
// action. It is deterministic and side-effect-free. An empty descriptor set
// classifies as ActionNoSurroundSource, not an error.
func Classify(descriptors []Descriptor) (Configuration, Action) {
	var cfg Configuration
	for _, desc := range descriptors {
		switch desc.Channels {
		case stereoChannels:
			cfg.HasStereo = true
		case surroundChannels:
			if !cfg.Has51 {
				number := desc.Number
				cfg.First51 = &number
			}
			cfg.Has51 = true
		case wideChannels:
			if !cfg.Has71 {
				number := desc.Number
				cfg.First71 = &number
			}
			cfg.Has71 = true
		}
	}

	switch {
	case cfg.Has51:
		return cfg, ActionAlreadyComplete
	case cfg.Has71:
		return cfg, ActionSynthesizeFrom71
	case cfg.HasStereo:
		return cfg, ActionStereoOnlyNoSurroundSource
	default:
		return cfg, ActionNoSurroundSource
	}
}
