package ffmpeg

import (
	"fmt"

	"downmix/internal/media/audio"
	"downmix/internal/media/ffprobe"
)

// Pan filters use explicit per-channel mappings instead of ffmpeg's default
// downmix curves so the dropped channels are deliberate.
//
// 7.1 to 5.1 keeps the front trio, LFE, and the rear pair byte-for-concept;
// the side pair is dropped outright, not folded into the rears.
const panSurround51 = "pan=5.1|FL=FL|FR=FR|FC=FC|LFE=LFE|BL=BL|BR=BR"

// Stereo keeps the front pair and folds the center in at -3 dB. Everything
// else is dropped.
const panStereo = "pan=stereo|FL=FL+0.707*FC|FR=FR+0.707*FC"

// PanFilter returns the fixed remix filter for a synthesis layout.
func PanFilter(layout audio.Layout) (string, error) {
	switch layout {
	case audio.LayoutSurround51:
		return panSurround51, nil
	case audio.LayoutStereo:
		return panStereo, nil
	default:
		return "", fmt.Errorf("ffmpeg: no pan filter for layout %q", layout)
	}
}

// DownmixRequest describes one standalone track synthesis.
type DownmixRequest struct {
	// Source is the input container.
	Source string
	// SourceNumber selects the input audio stream by its position within
	// the audio subset (ffmpeg's a:N addressing), not by container index.
	SourceNumber int
	Layout       audio.Layout
	Codec        string
	Bitrate      string
	// Output is the standalone audio file to produce.
	Output string
}

// DownmixArgs builds the ffmpeg argument list that produces a standalone
// encoded audio file containing exactly the derived track.
func DownmixArgs(req DownmixRequest) ([]string, error) {
	filter, err := PanFilter(req.Layout)
	if err != nil {
		return nil, err
	}
	return []string{
		"-nostdin", "-y",
		"-hide_banner", "-loglevel", "error",
		"-i", req.Source,
		"-map", fmt.Sprintf("0:a:%d", req.SourceNumber),
		"-af", filter,
		"-c:a", req.Codec,
		"-b:a", req.Bitrate,
		req.Output,
	}, nil
}

// MergeRequest describes the remux of a source container plus synthesized
// audio files into a staged output.
type MergeRequest struct {
	Source string
	// Synthesized lists the standalone audio files to append, in order.
	Synthesized []string
	Output      string
	// Probe is the merge-time inspection of Source. Stream counts are taken
	// from here, never from an earlier classification pass.
	Probe ffprobe.Result
}

// MergeArgs builds the ffmpeg argument list for the remux. The original
// video stream, every original audio stream, and every original subtitle
// stream are stream-copied in their original relative order; the synthesized
// tracks land last among the audio tracks. When the probe found no audio
// streams the original container is mapped wholesale as a single default
// mapping.
func MergeArgs(req MergeRequest) []string {
	args := []string{
		"-nostdin", "-y",
		"-hide_banner", "-loglevel", "error",
		"-i", req.Source,
	}
	for _, path := range req.Synthesized {
		args = append(args, "-i", path)
	}

	audioStreams := req.Probe.AudioStreams()
	if len(audioStreams) == 0 {
		// Single default mapping: the whole original container, then the
		// new track(s).
		args = append(args, "-map", "0")
		for i := range req.Synthesized {
			args = append(args, "-map", fmt.Sprintf("%d:a:0", i+1))
		}
	} else {
		args = append(args, "-map", "0:v:0")
		for number := range audioStreams {
			args = append(args, "-map", fmt.Sprintf("0:a:%d", number))
		}
		for i := range req.Synthesized {
			args = append(args, "-map", fmt.Sprintf("%d:a:0", i+1))
		}
		for number := range req.Probe.SubtitleStreams() {
			args = append(args, "-map", fmt.Sprintf("0:s:%d", number))
		}
	}

	args = append(args, "-c", "copy", req.Output)
	return args
}
