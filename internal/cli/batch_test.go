package cli

import (
	"strings"
	"testing"
)

func TestClaimSlug(t *testing.T) {
	a := claimSlug("The Earth is flat")
	if !strings.HasPrefix(a, "the-earth-is-flat-") {
		t.Errorf("Unexpected slug: %s", a)
	}
	if a != claimSlug("The Earth is flat") {
		t.Error("Slug is not stable for the same claim")
	}

	// Same sanitized prefix, different claims, must not collide.
	b := claimSlug("The Earth is flat!")
	if a == b {
		t.Errorf("Distinct claims produced identical slugs: %s", a)
	}

	// Non-ASCII claims still yield a usable name.
	c := claimSlug("地球は平らです")
	if !strings.HasPrefix(c, "claim-") {
		t.Errorf("Unexpected slug for non-ASCII claim: %s", c)
	}
}
