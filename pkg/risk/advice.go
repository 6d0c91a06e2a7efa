package risk

import "github.com/ogulcanaydogan/SafetyRing/pkg/model"

// Description explains what a tier means for the user.
func Description(tier model.RiskTier) string {
	switch tier {
	case model.TierHigh:
		return "High risk of account suspension. Stop using the experimental channel now."
	case model.TierModerate:
		return "Moderate risk. Reduce usage and prefer the primary channel."
	case model.TierLow:
		return "Low risk. Keep using it with care."
	default:
		return "Minimal risk. Normal use is fine."
	}
}

// Recommendations returns advice for the given usage count.
func Recommendations(usageCount int) []string {
	switch {
	case usageCount > 15:
		return []string{
			"Stop using the experimental channel immediately",
			"Send alerts over the primary channel only",
			"Wait at least 24 hours before trying again",
		}
	case usageCount > 10:
		return []string{
			"Cut back sharply on the experimental channel",
			"Use the primary channel for tests",
			"Space uses several hours apart",
		}
	case usageCount > 5:
		return []string{
			"Keep the experimental channel for real emergencies",
			"Use the primary channel for tests",
			"Space uses apart",
		}
	default:
		return []string{
			"Normal use is fine",
			"Keep preferring the primary channel",
			"Watch for changes in provider policy",
		}
	}
}
