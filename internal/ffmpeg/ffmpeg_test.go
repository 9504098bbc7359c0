package ffmpeg

import (
	"strings"
	"testing"
)

func TestBuildEncodeArgsWithTracks(t *testing.T) {
	job := EncodeJob{
		VideoPath: "cap.webm",
		TrimStart: 4.0,
		Tracks: []AudioTrack{
			{Path: "a.mp3", Start: 0},
			{Path: "b.mp3", Start: 3.25},
		},
		FPS:        30,
		Bitrate:    "8000k",
		Preset:     "slow",
		OutputPath: "out.mp4",
	}

	args := strings.Join(BuildEncodeArgs(job), " ")

	if !strings.Contains(args, "-ss 4.000 -i cap.webm") {
		t.Errorf("trim not applied before video input: %s", args)
	}
	if !strings.Contains(args, "[1:a]adelay=0:all=1[a0]") {
		t.Errorf("first track delay wrong: %s", args)
	}
	// 3.25s -> 3250ms.
	if !strings.Contains(args, "[2:a]adelay=3250:all=1[a1]") {
		t.Errorf("second track delay wrong: %s", args)
	}
	if !strings.Contains(args, "amix=inputs=2:normalize=0[mix]") {
		t.Errorf("tracks must be mixed, not truncated: %s", args)
	}
	if !strings.Contains(args, "-b:v 8000k") || !strings.Contains(args, "-r 30") {
		t.Errorf("project encode settings missing: %s", args)
	}
}

func TestBuildEncodeArgsNoTrimNoTracks(t *testing.T) {
	job := EncodeJob{
		VideoPath:  "cap.webm",
		TrimStart:  0,
		FPS:        25,
		Bitrate:    "4000k",
		Preset:     "slow",
		OutputPath: "out.mp4",
	}

	args := strings.Join(BuildEncodeArgs(job), " ")

	if strings.Contains(args, "-ss") {
		t.Errorf("no trim expected: %s", args)
	}
	if strings.Contains(args, "filter_complex") {
		t.Errorf("no audio filter expected for silent output: %s", args)
	}
}
