package cpu

import (
	"testing"

	"github.com/born-ml/augment/internal/tensor"
)

// TestCPUBackend_New tests backend creation.
func TestCPUBackend_New(t *testing.T) {
	backend := New()
	if backend == nil {
		t.Fatal("New() returned nil")
	}
	if backend.Name() != "CPU" {
		t.Errorf("Expected name 'CPU', got '%s'", backend.Name())
	}
	if backend.Device() != tensor.CPU {
		t.Errorf("Expected device CPU, got %v", backend.Device())
	}
}

// TestCPUBackend_Upload tests that uploads produce independent host copies.
func TestCPUBackend_Upload(t *testing.T) {
	backend := New()

	src, _ := tensor.FromInt64s([]int64{1, 2, 3}, tensor.Shape{3}, tensor.WebGPU)
	out, err := backend.Upload(src)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if out.Device() != tensor.CPU {
		t.Errorf("Expected device CPU, got %v", out.Device())
	}
	if out.SharesBuffer(src) {
		t.Error("Upload should not share the source buffer")
	}
	if got := out.AsInt64(); got[0] != 1 || got[2] != 3 {
		t.Errorf("Upload data = %v, want [1 2 3]", got)
	}
}

// TestCPUBackend_Download tests host readback.
func TestCPUBackend_Download(t *testing.T) {
	backend := New()

	src, _ := tensor.FromFloat64s([]float64{0.5, 1.5}, tensor.Shape{2}, tensor.Float32, tensor.CPU)
	out, err := backend.Download(src)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if got := out.AsFloat32(); got[1] != 1.5 {
		t.Errorf("Download data[1] = %v, want 1.5", got[1])
	}
}
