package version

import (
	"testing"
)

func TestVersionNotEmpty(t *testing.T) {
	if Version == "" {
		t.Fatalf("version string must not be empty")
	}
}
