// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"os"
	"time"
)

// Staleness reasons reported by Evaluate.
const (
	ReasonForced       = "force-refresh requested"
	ReasonMissing      = "artifact not cached"
	ReasonNoDescriptor = "artifact has no descriptor"
	ReasonCapabilities = "artifact is missing required capabilities"
	ReasonExpired      = "artifact exceeded the freshness threshold"
)

type (
	// Policy drives the freshness decision for one artifact.
	Policy struct {
		// Force marks the artifact stale regardless of its state.
		Force bool
		// MaxAge is the staleness threshold measured from FetchedAt.
		MaxAge time.Duration
		// RequiredCapabilities must all be present in the descriptor.
		RequiredCapabilities []string
		// Now is a test seam; the zero value means time.Now.
		Now func() time.Time
	}

	// Decision is the binary re-fetch verdict with its reason.
	Decision struct {
		Fresh  bool
		Reason string
	}
)

// Evaluate decides whether the artifact must be re-acquired. Checks are
// ordered so the cheapest disqualifier wins: force flag, presence,
// descriptor capabilities, age.
func Evaluate(a Artifact, p Policy) Decision {
	if p.Force {
		return Decision{Reason: ReasonForced}
	}

	if _, err := os.Stat(a.PayloadPath()); err != nil {
		return Decision{Reason: ReasonMissing}
	}

	desc, err := a.LoadDescriptor()
	if err != nil {
		return Decision{Reason: ReasonNoDescriptor}
	}

	if !desc.HasCapabilities(p.RequiredCapabilities) {
		return Decision{Reason: ReasonCapabilities}
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	if p.MaxAge > 0 && now().Sub(desc.FetchedAt) > p.MaxAge {
		return Decision{Reason: ReasonExpired}
	}

	return Decision{Fresh: true}
}
