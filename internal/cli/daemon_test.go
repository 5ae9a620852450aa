package cli

import (
	"testing"

	"go.uber.org/fx"
)

// The daemon graph must resolve without opening a bus connection.
func TestAppGraphValidity(t *testing.T) {
	if err := fx.ValidateApp(AppOptions); err != nil {
		t.Errorf("dependency graph is invalid: %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	wasVerbose := verbose
	defer func() { verbose = wasVerbose }()

	for _, v := range []bool{false, true} {
		verbose = v
		logger, err := newLogger()
		if err != nil {
			t.Fatalf("newLogger(verbose=%v) failed: %v", v, err)
		}
		if logger == nil {
			t.Fatalf("newLogger(verbose=%v) returned nil", v)
		}
	}
}
