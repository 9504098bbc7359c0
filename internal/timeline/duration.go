package timeline

import "github.com/JamesWuHK/demo-video-generator/internal/script"

// Resolve computes the authoritative duration of every scene, in scene
// order. Resolution order per scene: synthesized audio duration when the
// scene has narration and audio was produced, then the scene's explicit
// duration, then defaultDuration.
func Resolve(scenes []script.Scene, audioDurations map[string]float64, defaultDuration float64) map[string]float64 {
	out := make(map[string]float64, len(scenes))
	for _, scene := range scenes {
		out[scene.ID] = resolveOne(scene, audioDurations, defaultDuration)
	}
	return out
}

func resolveOne(scene script.Scene, audioDurations map[string]float64, defaultDuration float64) float64 {
	if scene.Narration != "" {
		if d, ok := audioDurations[scene.ID]; ok && d > 0 {
			return d
		}
	}
	if scene.Duration != nil {
		return *scene.Duration
	}
	return defaultDuration
}
