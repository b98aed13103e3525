package serialization

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/augment/internal/tensor"
)

func writeRawFile(t *testing.T, header map[string]any, data []byte) string {
	t.Helper()
	headerJSON, err := json.Marshal(header)
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	buf := make([]byte, 8, 8+len(headerJSON)+len(data))
	binary.LittleEndian.PutUint64(buf, uint64(len(headerJSON)))
	buf = append(buf, headerJSON...)
	buf = append(buf, data...)

	path := filepath.Join(t.TempDir(), "raw.safetensors")
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

// TestSafeTensorsRoundTrip writes label maps of several dtypes and reads them back.
func TestSafeTensorsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seg.safetensors")

	seg, err := tensor.FromInt64s([]int64{0, 1, 1, 2, 2, 0}, tensor.Shape{2, 3}, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	boxes, err := tensor.FromFloat64s([]float64{0, 1, 1, 2}, tensor.Shape{4}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	mask, err := tensor.FromFloat64s([]float64{1, 0, 1}, tensor.Shape{3}, tensor.Bool, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}

	in := map[string]*tensor.RawTensor{"seg": seg, "boxes": boxes, "mask": mask}
	if err := WriteSafeTensors(path, in, map[string]string{"source": "test"}); err != nil {
		t.Fatalf("WriteSafeTensors failed: %v", err)
	}

	out, metadata, err := ReadSafeTensors(path)
	if err != nil {
		t.Fatalf("ReadSafeTensors failed: %v", err)
	}

	if metadata["source"] != "test" {
		t.Errorf("metadata source = %q, want %q", metadata["source"], "test")
	}
	if metadata[ChecksumKey] == "" {
		t.Error("expected checksum in metadata")
	}
	if len(out) != len(in) {
		t.Fatalf("got %d tensors, want %d", len(out), len(in))
	}

	for name, want := range in {
		got := out[name]
		if got == nil {
			t.Fatalf("tensor %s missing", name)
		}
		if !got.Shape().Equal(want.Shape()) || got.DType() != want.DType() {
			t.Errorf("%s: got %v %s, want %v %s", name, got.Shape(), got.DType(), want.Shape(), want.DType())
		}
		if string(got.Data()) != string(want.Data()) {
			t.Errorf("%s: data mismatch", name)
		}
		if got.Device() != tensor.CPU {
			t.Errorf("%s: device = %s, want CPU", name, got.Device())
		}
	}
}

// TestSafeTensorsReaderNames checks sorted names and tensor info lookups.
func TestSafeTensorsReaderNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.safetensors")
	a, _ := tensor.NewRaw(tensor.Shape{1}, tensor.Uint8, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Int32, tensor.CPU)
	if err := WriteSafeTensors(path, map[string]*tensor.RawTensor{"z": a, "a": b}, nil); err != nil {
		t.Fatal(err)
	}

	r, err := NewSafeTensorsReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	names := r.TensorNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "z" {
		t.Errorf("TensorNames() = %v, want [a z]", names)
	}

	info, err := r.TensorInfo("a")
	if err != nil {
		t.Fatal(err)
	}
	if info.DType != "I32" || info.DataOffsets != [2]int64{0, 8} {
		t.Errorf("unexpected info for a: %+v", info)
	}

	if _, err := r.TensorInfo("missing"); err == nil {
		t.Error("expected error for missing tensor")
	}
}

// TestWriteSafeTensorsRejectsDeviceTensors requires host memory.
func TestWriteSafeTensorsRejectsDeviceTensors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpu.safetensors")
	x, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Float32, tensor.WebGPU)

	err := WriteSafeTensors(path, map[string]*tensor.RawTensor{"x": x}, nil)
	if !errors.Is(err, ErrNotHost) {
		t.Errorf("expected ErrNotHost, got %v", err)
	}
}

// TestWriteSafeTensorsRejectsBadNames validates names before writing.
func TestWriteSafeTensorsRejectsBadNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.safetensors")
	x, _ := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, tensor.CPU)

	err := WriteSafeTensors(path, map[string]*tensor.RawTensor{"../x": x}, nil)
	if !errors.Is(err, ErrInvalidTensorName) {
		t.Errorf("expected ErrInvalidTensorName, got %v", err)
	}
}

// TestReadSafeTensorsOutOfBounds rejects offsets past the data section.
func TestReadSafeTensorsOutOfBounds(t *testing.T) {
	path := writeRawFile(t, map[string]any{
		"x": SafeTensorInfo{DType: "F32", Shape: []int{4}, DataOffsets: [2]int64{0, 16}},
	}, make([]byte, 8))

	_, _, err := ReadSafeTensors(path)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
}

// TestReadSafeTensorsOverlap rejects tensors sharing bytes.
func TestReadSafeTensorsOverlap(t *testing.T) {
	path := writeRawFile(t, map[string]any{
		"a": SafeTensorInfo{DType: "F32", Shape: []int{2}, DataOffsets: [2]int64{0, 8}},
		"b": SafeTensorInfo{DType: "F32", Shape: []int{2}, DataOffsets: [2]int64{4, 12}},
	}, make([]byte, 12))

	_, _, err := ReadSafeTensors(path)
	if !errors.Is(err, ErrOffsetOverlap) {
		t.Errorf("expected ErrOffsetOverlap, got %v", err)
	}
}

// TestReadSafeTensorsUnsupportedDType reports F16 and unknown dtypes.
func TestReadSafeTensorsUnsupportedDType(t *testing.T) {
	path := writeRawFile(t, map[string]any{
		"x": SafeTensorInfo{DType: "F16", Shape: []int{2}, DataOffsets: [2]int64{0, 4}},
	}, make([]byte, 4))

	_, _, err := ReadSafeTensors(path)
	if !errors.Is(err, ErrUnsupportedDType) {
		t.Errorf("expected ErrUnsupportedDType, got %v", err)
	}
}

// TestReadSafeTensorsSizeMismatch rejects byte ranges that disagree with the shape.
func TestReadSafeTensorsSizeMismatch(t *testing.T) {
	path := writeRawFile(t, map[string]any{
		"x": SafeTensorInfo{DType: "F32", Shape: []int{3}, DataOffsets: [2]int64{0, 8}},
	}, make([]byte, 8))

	_, _, err := ReadSafeTensors(path)
	if !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("expected ErrSizeMismatch, got %v", err)
	}
}

// TestReadSafeTensorsHugeShape checks that header shapes are sized before any
// allocation happens.
func TestReadSafeTensorsHugeShape(t *testing.T) {
	path := writeRawFile(t, map[string]any{
		"x": SafeTensorInfo{DType: "F32", Shape: []int{1 << 30, 1 << 30}, DataOffsets: [2]int64{0, 4}},
	}, make([]byte, 4))

	_, _, err := ReadSafeTensors(path)
	if !errors.Is(err, tensor.ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}

	path = writeRawFile(t, map[string]any{
		"x": SafeTensorInfo{DType: "F32", Shape: []int{1 << 20, 1 << 10}, DataOffsets: [2]int64{0, 4}},
	}, make([]byte, 4))

	_, _, err = ReadSafeTensors(path)
	if !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("expected ErrSizeMismatch, got %v", err)
	}
}

// TestReadSafeTensorsHeaderTooLarge guards against bogus header sizes.
func TestReadSafeTensorsHeaderTooLarge(t *testing.T) {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf, 1<<40)
	path := filepath.Join(t.TempDir(), "huge.safetensors")
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		t.Fatal(err)
	}

	_, _, err := ReadSafeTensors(path)
	if !errors.Is(err, ErrHeaderTooLarge) {
		t.Errorf("expected ErrHeaderTooLarge, got %v", err)
	}
}

// TestReadSafeTensorsChecksumMismatch detects corrupted data.
func TestReadSafeTensorsChecksumMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.safetensors")
	x, _ := tensor.FromInt64s([]int64{1, 2}, tensor.Shape{2}, tensor.CPU)
	if err := WriteSafeTensors(path, map[string]*tensor.RawTensor{"x": x}, nil); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	raw[len(raw)-1] ^= 0xFF
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	_, _, err = ReadSafeTensors(path)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}
}

// TestReadSafeTensorsWithoutChecksum accepts files written by other tools.
func TestReadSafeTensorsWithoutChecksum(t *testing.T) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, 7)
	path := writeRawFile(t, map[string]any{
		"x": SafeTensorInfo{DType: "I64", Shape: []int{1}, DataOffsets: [2]int64{0, 8}},
	}, data)

	out, _, err := ReadSafeTensors(path)
	if err != nil {
		t.Fatalf("ReadSafeTensors failed: %v", err)
	}
	if got := out["x"].AsInt64()[0]; got != 7 {
		t.Errorf("x = %d, want 7", got)
	}
}
