// Package voice provides dialogue sanitization and deterministic voice
// parameter selection for speech generation. Given the same character
// metadata and emotion, it always resolves the same voice and settings.
package voice

import (
	"regexp"
	"strings"
)

// Settings are the prosody parameters derived from an emotion.
type Settings struct {
	Speed float64
	Pitch float64
	Vol   float64
}

var (
	speakerWithDirection = regexp.MustCompile(`^[A-Za-z\s]+\s*\([^)]+\)\s*:\s*`)
	speakerLabel         = regexp.MustCompile(`^[A-Za-z\s]+\s*:\s*`)
	parenthetical        = regexp.MustCompile(`\([^)]*\)`)
	narrationPrefix      = regexp.MustCompile(`(?i)^(narration|narrator|thinking|thought)\s*:\s*`)
)

// Sanitize strips speaker labels, parenthetical stage directions and
// narration prefixes from dialogue text, leaving only the speakable part.
func Sanitize(text string) string {
	cleaned := text
	cleaned = speakerWithDirection.ReplaceAllString(cleaned, "")
	cleaned = speakerLabel.ReplaceAllString(cleaned, "")
	cleaned = parenthetical.ReplaceAllString(cleaned, "")
	cleaned = narrationPrefix.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// SelectVoiceID maps character metadata to a provider voice id.
func SelectVoiceID(gender, age, trait string) string {
	g := strings.ToLower(gender)
	a := strings.ToLower(age)
	t := strings.ToLower(trait)

	if strings.Contains(g, "female") || strings.Contains(g, "woman") || strings.Contains(g, "girl") {
		if strings.Contains(t, "wise") || strings.Contains(t, "mature") || strings.Contains(a, "elderly") {
			return "Wise_Woman"
		}
		if strings.Contains(a, "young") || strings.Contains(a, "child") || strings.Contains(a, "teen") {
			return "female-shaonv"
		}
		return "female-yujie"
	}

	if strings.Contains(g, "male") || strings.Contains(g, "man") || strings.Contains(g, "boy") {
		if strings.Contains(a, "young") || strings.Contains(a, "child") || strings.Contains(a, "teen") {
			return "male-qn-qingse"
		}
		if strings.Contains(t, "deep") || strings.Contains(t, "authoritative") || strings.Contains(t, "commanding") {
			return "male-qn-jingying"
		}
		return "male-qn-qingse"
	}

	return "male-qn-qingse"
}

// SettingsFor derives speed, pitch and volume from an emotion tag.
func SettingsFor(emotion string) Settings {
	switch strings.ToLower(emotion) {
	case "happy", "excited":
		return Settings{Speed: 1.1, Pitch: 1.2, Vol: 1.0}
	case "sad", "melancholy":
		return Settings{Speed: 0.85, Pitch: 0.9, Vol: 0.9}
	case "angry", "furious":
		return Settings{Speed: 1.15, Pitch: 0.95, Vol: 1.0}
	case "fearful", "scared":
		return Settings{Speed: 1.2, Pitch: 1.15, Vol: 0.95}
	case "surprised", "shocked":
		return Settings{Speed: 1.1, Pitch: 1.25, Vol: 1.0}
	case "disgusted":
		return Settings{Speed: 0.9, Pitch: 0.85, Vol: 0.95}
	case "calm", "peaceful":
		return Settings{Speed: 0.95, Pitch: 1.0, Vol: 0.9}
	default:
		return Settings{Speed: 1.0, Pitch: 1.0, Vol: 1.0}
	}
}

// validEmotions are the emotion values the provider accepts.
var validEmotions = map[string]bool{
	"happy":     true,
	"sad":       true,
	"angry":     true,
	"fearful":   true,
	"surprised": true,
	"disgusted": true,
	"neutral":   true,
}

// NormalizeEmotion maps a free-form emotion tag to one the provider accepts.
func NormalizeEmotion(emotion string) string {
	e := strings.ToLower(emotion)
	if validEmotions[e] {
		return e
	}
	if strings.Contains(e, "excit") {
		return "happy"
	}
	if strings.Contains(e, "fear") || strings.Contains(e, "scare") {
		return "fearful"
	}
	if strings.Contains(e, "shock") {
		return "surprised"
	}
	return "neutral"
}
