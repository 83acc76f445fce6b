package domain

import "fmt"

// Rendition holds encoding parameters for one output resolution.
type Rendition struct {
	Label        string
	Height       int
	VideoBitrate string
	AudioBitrate string
}

// renditions is the fixed, ordered set of target renditions. The labels double
// as the allow-list for the serving side.
var renditions = []Rendition{
	{Label: "480p", Height: 480, VideoBitrate: "1000k", AudioBitrate: "128k"},
	{Label: "720p", Height: 720, VideoBitrate: "2500k", AudioBitrate: "128k"},
	{Label: "1080p", Height: 1080, VideoBitrate: "5000k", AudioBitrate: "192k"},
}

// Renditions returns the ordered set of configured renditions.
func Renditions() []Rendition {
	out := make([]Rendition, len(renditions))
	copy(out, renditions)
	return out
}

// RenditionByLabel returns the rendition for a label, or false if the label is
// not allow-listed.
func RenditionByLabel(label string) (Rendition, bool) {
	for _, r := range renditions {
		if r.Label == label {
			return r, true
		}
	}
	return Rendition{}, false
}

// ValidateRenditions checks the rendition table once at startup.
func ValidateRenditions() error {
	if len(renditions) == 0 {
		return fmt.Errorf("rendition table is empty")
	}
	seen := make(map[string]bool, len(renditions))
	for _, r := range renditions {
		if r.Label == "" {
			return fmt.Errorf("rendition with empty label")
		}
		if seen[r.Label] {
			return fmt.Errorf("duplicate rendition label %q", r.Label)
		}
		seen[r.Label] = true
		if r.Height <= 0 {
			return fmt.Errorf("rendition %s: height must be positive", r.Label)
		}
		if r.VideoBitrate == "" || r.AudioBitrate == "" {
			return fmt.Errorf("rendition %s: bitrates are required", r.Label)
		}
	}
	return nil
}
