package system

import "testing"

func TestAutoMaxPixels(t *testing.T) {
	budget, err := AutoMaxPixels()
	if err != nil {
		t.Fatalf("AutoMaxPixels failed: %v", err)
	}
	if budget < MinPixelBudget {
		t.Errorf("Budget %d below the floor %d", budget, MinPixelBudget)
	}
	t.Logf("Automatic pixel budget: %d", budget)
}

func TestRaiseFileLimit(t *testing.T) {
	if got := RaiseFileLimit(); got == 0 {
		t.Error("Expected a usable file limit, got 0")
	}
}
