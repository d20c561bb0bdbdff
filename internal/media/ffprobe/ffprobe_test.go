package ffprobe

import (
	"encoding/json"
	"reflect"
	"testing"
)

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "channels": 2},
    {"index": 2, "codec_name": "dts", "codec_type": "audio", "channels": 8},
    {"index": 3, "codec_name": "subrip", "codec_type": "subtitle"}
  ],
  "format": {"filename": "movie.mkv", "nb_streams": 4}
}`

const sampleCompact = `stream|index=0|codec_name=h264|codec_type=video
stream|index=1|codec_name=aac|codec_type=audio|channels=2
stream|index=2|codec_name=dts|codec_type=audio|channels=8
stream|index=3|codec_name=subrip|codec_type=subtitle
`

func TestCompactMatchesJSON(t *testing.T) {
	var fromJSON Result
	if err := json.Unmarshal([]byte(sampleJSON), &fromJSON); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	fromCompact, err := parseCompact(sampleCompact)
	if err != nil {
		t.Fatalf("parse compact: %v", err)
	}

	if !reflect.DeepEqual(fromJSON.Streams, fromCompact.Streams) {
		t.Fatalf("stream sets differ:\njson:    %+v\ncompact: %+v", fromJSON.Streams, fromCompact.Streams)
	}
}

func TestAudioStreamsPreserveOrderAndIndex(t *testing.T) {
	var result Result
	if err := json.Unmarshal([]byte(sampleJSON), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	audio := result.AudioStreams()
	if len(audio) != 2 {
		t.Fatalf("expected 2 audio streams, got %d", len(audio))
	}
	// Stream number 0 carries container index 1; the two numbering spaces
	// must stay distinct.
	if audio[0].Index != 1 || audio[0].Channels != 2 {
		t.Fatalf("unexpected first audio stream: %+v", audio[0])
	}
	if audio[1].Index != 2 || audio[1].Channels != 8 {
		t.Fatalf("unexpected second audio stream: %+v", audio[1])
	}
}

func TestSubtitleStreams(t *testing.T) {
	var result Result
	if err := json.Unmarshal([]byte(sampleJSON), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	subs := result.SubtitleStreams()
	if len(subs) != 1 || subs[0].Index != 3 {
		t.Fatalf("unexpected subtitle streams: %+v", subs)
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("unexpected video count: %d", result.VideoStreamCount())
	}
}

func TestAudioStreamsEmptyIsNotError(t *testing.T) {
	result := Result{Streams: []Stream{{Index: 0, CodecType: "video"}}}
	if got := result.AudioStreams(); len(got) != 0 {
		t.Fatalf("expected no audio streams, got %+v", got)
	}
}

func TestParseCompactRejectsMalformedRecords(t *testing.T) {
	cases := []string{
		"stream|index=abc|codec_type=audio",
		"stream|codec_type=audio|channels=2",
		"stream|index=0|channels=two",
	}
	for _, input := range cases {
		if _, err := parseCompact(input); err == nil {
			t.Fatalf("expected parse error for %q", input)
		}
	}
}

func TestParseCompactIgnoresNonStreamLines(t *testing.T) {
	result, err := parseCompact("format|filename=x.mkv\n\nstream|index=0|codec_type=audio|channels=6|codec_name=ac3\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(result.Streams) != 1 || result.Streams[0].Channels != 6 {
		t.Fatalf("unexpected result: %+v", result.Streams)
	}
}
