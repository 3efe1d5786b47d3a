package bridge

import "github.com/andresmejia3/facebridge/internal/types"

// DefaultDetectedName labels a detect-only result that carried no name.
const DefaultDetectedName = "DetectedFace"

// MapOutcome derives the detection outcome for a terminal event.
// ok is false for tags that are not terminal.
func MapOutcome(ev types.CallbackEvent) (outcome types.DetectionOutcome, ok bool) {
	outcome = types.DetectionOutcome{
		HasCapturedImage: ev.HasImage(),
		Confidence:       ev.Confidence(),
	}

	switch ev.Tag {
	case types.TagMatch:
		outcome.Matched = ev.IsMatch()
		outcome.DisplayName = ev.Name("")
	case types.TagNotMatch:
		// isMatch is never trusted here, whatever the payload says.
		outcome.DisplayName = ev.Name("")
	case types.TagDetectOnly:
		outcome.DisplayName = ev.Name(DefaultDetectedName)
	default:
		return types.DetectionOutcome{}, false
	}
	return outcome, true
}

// forcesDetectOnly reports whether the event means the surface ran without an identity,
// whatever was registered. The surface falls back to detect-only when it cannot
// compute a vector from the reference image.
func forcesDetectOnly(tag types.Tag) bool {
	return tag == types.TagDetectOnly
}
