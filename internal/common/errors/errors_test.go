// internal/common/errors/errors_test.go
package errors

import (
	"fmt"
	"testing"
)

func TestNovaSecErrorFormatting(t *testing.T) {
	err := New(ErrorCodeOrphanAsset, "parent 'x' not found")
	if err.Error() != "ORPHAN_ASSET: parent 'x' not found" {
		t.Errorf("Unexpected message: %s", err.Error())
	}

	wrapped := Wrap(fmt.Errorf("disk"), ErrorCodeCatalogRead, "read failed")
	if wrapped.Error() != "CATALOG_READ_ERROR: read failed (internal: disk)" {
		t.Errorf("Unexpected message: %s", wrapped.Error())
	}
}

func TestIsCatalogError(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{New(ErrorCodeCycleDetected, "cycle"), true},
		{New(ErrorCodeHelperArity, "arity"), true},
		{fmt.Errorf("build: %w", New(ErrorCodeOrphanFilter, "orphan")), true},
		{New(ErrorCodeInternal, "bug"), false},
		{fmt.Errorf("plain"), false},
	}

	for _, tt := range tests {
		if got := IsCatalogError(tt.err); got != tt.expected {
			t.Errorf("IsCatalogError(%v) = %v, expected %v", tt.err, got, tt.expected)
		}
	}
}

func TestWithAssetDoesNotOverride(t *testing.T) {
	err := New(ErrorCodeHelperUnknown, "unknown").WithAsset("decoder1").WithAsset("decoder2")
	if err.Details["asset"] != "decoder1" {
		t.Errorf("Expected asset 'decoder1', got %v", err.Details["asset"])
	}
}

func TestGetErrorCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(ErrorCodeEmptyEnvironment, "empty"))
	if GetErrorCode(err) != ErrorCodeEmptyEnvironment {
		t.Errorf("Expected EMPTY_ENVIRONMENT, got %s", GetErrorCode(err))
	}
	if !IsErrorCode(err, ErrorCodeEmptyEnvironment) {
		t.Error("IsErrorCode should see through wrapping")
	}
	if GetErrorCode(fmt.Errorf("x")) != ErrorCodeInternal {
		t.Error("Plain errors map to INTERNAL_ERROR")
	}
}

func TestStatusCodes(t *testing.T) {
	if New(ErrorCodeOrphanAsset, "").StatusCode != 422 {
		t.Error("Catalog errors should map to 422")
	}
	if New(ErrorCodeQueueFull, "").StatusCode != 503 {
		t.Error("Queue full should map to 503")
	}
	if New(ErrorCodeNotFound, "").StatusCode != 404 {
		t.Error("Not found should map to 404")
	}
}
