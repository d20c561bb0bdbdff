package audio

// Layout names a synthesis target.
type Layout string

const (
	LayoutSurround51 Layout = "5.1"
	LayoutStereo     Layout = "stereo"
)

// Policy holds the user-selectable synthesis options.
type Policy struct {
	// Stereo enables deriving a stereo track when a file has none.
	// Off by default: the baseline behavior only fills in missing 5.1.
	Stereo bool
}

// Target is one track to synthesize, addressed by the stream number of the
// source track it is downmixed from.
type Target struct {
	Layout       Layout
	SourceNumber int
}

// Plan expands a configuration into the tracks to synthesize under the given
// policy. An empty plan means the file is skipped. Targets are ordered 5.1
// first so the merged container appends tracks in a stable order.
//
// A missing 5.1 track is only ever derived from a 7.1 source. A missing
// stereo track (policy opt-in) is derived from the widest surround source
// available: the first 7.1 stream, else the first 5.1 stream.
func Plan(cfg Configuration, policy Policy) []Target {
	targets := make([]Target, 0, 2)

	if !cfg.Has51 && cfg.Has71 && cfg.First71 != nil {
		targets = append(targets, Target{Layout: LayoutSurround51, SourceNumber: *cfg.First71})
	}

	if policy.Stereo && !cfg.HasStereo {
		switch {
		case cfg.Has71 && cfg.First71 != nil:
			targets = append(targets, Target{Layout: LayoutStereo, SourceNumber: *cfg.First71})
		case cfg.Has51 && cfg.First51 != nil:
			targets = append(targets, Target{Layout: LayoutStereo, SourceNumber: *cfg.First51})
		}
	}

	return targets
}
