package config

// Vercel deployment targets as constants to prevent typos
const (
	// TargetProduction represents production deployments
	TargetProduction = "production"

	// TargetPreview represents preview deployments
	TargetPreview = "preview"

	// TargetStaging represents staging deployments on custom environments
	TargetStaging = "staging"
)

// ValidTargets returns a list of all valid deployment targets
func ValidTargets() []string {
	return []string{
		TargetProduction,
		TargetPreview,
		TargetStaging,
	}
}

// IsValidTarget checks if the given target is valid. An empty target means
// deployments of every target are searched.
func IsValidTarget(target string) bool {
	if target == "" {
		return true
	}
	for _, valid := range ValidTargets() {
		if target == valid {
			return true
		}
	}
	return false
}

// GitHubEnvironment returns the GitHub deployment environment a Vercel target
// is reported under
func GitHubEnvironment(target string) string {
	if target == "" {
		return TargetPreview
	}
	return target
}
