package app

import (
	"testing"

	_ "github.com/gymops-erp/gymops/internal/testing/guard"
)

func TestInTestModeHonorsGuard(t *testing.T) {
	RefreshTestMode()
	if !InTestMode() {
		t.Fatal("expected test mode to be active when the guard package is imported")
	}
}
