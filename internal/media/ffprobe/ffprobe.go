package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"downmix/internal/services"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Channels  int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, services.Wrap(services.ErrValidation, "ffprobe", "inspect", "empty path", nil)
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "ffprobe", "inspect", strings.TrimSpace(string(output)), err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "ffprobe", "parse", "", err)
	}
	return result, nil
}

// InspectCompact executes ffprobe in its line-oriented compact output mode and
// parses the result into the same model Inspect produces. It exists for
// builds of ffprobe without JSON support; both modes must yield identical
// stream sets for the same file.
func InspectCompact(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, services.Wrap(services.ErrValidation, "ffprobe", "inspect", "empty path", nil)
	}

	cmd := exec.CommandContext(ctx, binary,
		"-v", "error", "-hide_banner",
		"-show_entries", "stream=index,codec_name,codec_type,channels",
		"-of", "compact", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "ffprobe", "inspect", strings.TrimSpace(string(output)), err)
	}

	return parseCompact(string(output))
}

// Probe inspects a file, preferring JSON output and falling back to the
// compact line format when the JSON payload cannot be produced or decoded.
func Probe(ctx context.Context, binary string, path string) (Result, error) {
	result, err := Inspect(ctx, binary, path)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return Result{}, err
	}
	return InspectCompact(ctx, binary, path)
}

func parseCompact(output string) (Result, error) {
	var result Result
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if fields[0] != "stream" {
			continue
		}
		stream := Stream{Index: -1}
		for _, field := range fields[1:] {
			key, value, found := strings.Cut(field, "=")
			if !found {
				continue
			}
			switch key {
			case "index":
				parsed, err := strconv.Atoi(value)
				if err != nil {
					return Result{}, fmt.Errorf("ffprobe parse: invalid stream index %q", value)
				}
				stream.Index = parsed
			case "codec_name":
				stream.CodecName = value
			case "codec_type":
				stream.CodecType = value
			case "channels":
				parsed, err := strconv.Atoi(value)
				if err != nil {
					return Result{}, fmt.Errorf("ffprobe parse: invalid channel count %q", value)
				}
				stream.Channels = parsed
			}
		}
		if stream.Index < 0 {
			return Result{}, errors.New("ffprobe parse: stream record without index")
		}
		result.Streams = append(result.Streams, stream)
	}
	return result, nil
}

// AudioStreams returns the audio streams in container order. The position of
// a stream in the returned slice is its stream number (the ordinal used by
// ffmpeg's audio-subset selectors); the Index field remains the raw container
// stream index. The two numbering spaces are distinct.
func (r Result) AudioStreams() []Stream {
	streams := make([]Stream, 0, len(r.Streams))
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			streams = append(streams, stream)
		}
	}
	return streams
}

// SubtitleStreams returns the subtitle streams in container order.
func (r Result) SubtitleStreams() []Stream {
	streams := make([]Stream, 0, len(r.Streams))
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "subtitle") {
			streams = append(streams, stream)
		}
	}
	return streams
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			count++
		}
	}
	return count
}
