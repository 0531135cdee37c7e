package config

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/AltairaLabs/MediaKit/version"
)

// CheckCompatibility verifies the manifest's compatibility constraint against
// the running MediaKit version. An empty constraint always passes, as do
// unversioned development builds, which cannot be compared.
func CheckCompatibility(constraint string) error {
	if constraint == "" {
		return nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid compatibility constraint %q: %w", constraint, err)
	}

	current := version.GetVersion()
	v, err := semver.NewVersion(strings.TrimPrefix(current, "v"))
	if err != nil {
		return nil
	}

	if !c.Check(v) {
		return fmt.Errorf("runtime version %s does not satisfy compatibility constraint %q", current, constraint)
	}
	return nil
}
