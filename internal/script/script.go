package script

import (
	"errors"
	"fmt"
)

// ErrMalformedScript is wrapped by every construction-time validation
// failure: duplicate or empty scene ids, unknown action types, missing
// required action fields. It is raised before any recording begins.
var ErrMalformedScript = errors.New("malformed script")

// Project is configuration shared across the whole recording. It is
// immutable once a run starts.
type Project struct {
	Name       string `yaml:"name" json:"name"`
	Resolution [2]int `yaml:"resolution,flow" json:"resolution"`
	FPS        int    `yaml:"fps" json:"fps"`
	Voice      string `yaml:"voice" json:"voice"`
	VoiceRate  string `yaml:"voice_rate,omitempty" json:"voice_rate,omitempty"`
	Bitrate    string `yaml:"bitrate" json:"bitrate"`
}

// Scene is one timed unit of the recorded session.
type Scene struct {
	ID        string   `yaml:"id" json:"id"`
	Narration string   `yaml:"narration,omitempty" json:"narration,omitempty"`
	URL       string   `yaml:"url,omitempty" json:"url,omitempty"`
	Actions   []Action `yaml:"actions,omitempty" json:"actions,omitempty"`
	// Duration overrides the default when no narration audio exists.
	Duration *float64 `yaml:"duration,omitempty" json:"duration,omitempty"`
}

// Script is the sole externally supplied root object. Parsed once,
// treated as immutable for the duration of a run.
type Script struct {
	Project Project `yaml:"project" json:"project"`
	Scenes  []Scene `yaml:"scenes" json:"scenes"`
}

// Validate runs the hard pre-flight checks that must fail before a
// recording session is opened.
func (s *Script) Validate() error {
	seen := make(map[string]bool, len(s.Scenes))
	for i, scene := range s.Scenes {
		if scene.ID == "" {
			return fmt.Errorf("%w: scene %d has an empty id", ErrMalformedScript, i)
		}
		if seen[scene.ID] {
			return fmt.Errorf("%w: duplicate scene id %q", ErrMalformedScript, scene.ID)
		}
		seen[scene.ID] = true
	}
	return nil
}

// Narrations returns scene-id -> narration text for every scene with
// non-empty narration, used by synthesis and subtitle emission.
func (s *Script) Narrations() map[string]string {
	out := make(map[string]string)
	for _, scene := range s.Scenes {
		if scene.Narration != "" {
			out[scene.ID] = scene.Narration
		}
	}
	return out
}

func defaultProject() Project {
	return Project{
		Name:       "Demo Video",
		Resolution: [2]int{1440, 900},
		FPS:        30,
		Voice:      "en-US-JennyNeural",
		VoiceRate:  "+0%",
		Bitrate:    "8000k",
	}
}
