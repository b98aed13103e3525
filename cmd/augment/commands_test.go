package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/born-ml/augment/config"
	"github.com/born-ml/augment/internal/logger"
	"github.com/born-ml/augment/internal/serialization"
	"github.com/born-ml/augment/internal/tensor"
)

func testConfig() *config.AppConfig {
	cfg := &config.AppConfig{}
	cfg.Device.Name = "cpu"
	cfg.Label.DType = "int64"
	cfg.Sampling.Seed = 1
	return cfg
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(args, testConfig(), &out, zap.NewNop())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}

func TestUnknownCommand(t *testing.T) {
	_, err := runCLI(t, "train")
	assert.ErrorIs(t, err, errUsage)
}

func TestBoxToSegThenSegToBox(t *testing.T) {
	dir := t.TempDir()
	boxesPath := filepath.Join(dir, "boxes.json")
	segPath := filepath.Join(dir, "seg.safetensors")
	require.NoError(t, os.WriteFile(boxesPath, []byte(`[[0,0,2,2],[2,1,4,3]]`), 0o600))

	_, err := runCLI(t, "box2seg", "-boxes", boxesPath, "-shape", "4,4", "-out", segPath)
	require.NoError(t, err)

	tensors, meta, err := serialization.ReadSafeTensors(segPath)
	require.NoError(t, err)
	seg := tensors["seg"]
	require.NotNil(t, seg)
	assert.Equal(t, tensor.Int64, seg.DType())
	assert.Contains(t, meta["producer"], "augment")

	out, err := runCLI(t, "seg2box", "-in", segPath)
	require.NoError(t, err)

	var boxes [][]float32
	require.NoError(t, json.Unmarshal([]byte(out), &boxes))
	assert.Equal(t, [][]float32{{0, 0, 1, 1}, {2, 1, 3, 2}}, boxes)
}

func TestSegToBoxDebugLogsStayOffStdout(t *testing.T) {
	segPath := filepath.Join(t.TempDir(), "seg.safetensors")
	seg, err := tensor.FromInt64s([]int64{1, 0, 0, 2}, tensor.Shape{2, 2}, tensor.CPU)
	require.NoError(t, err)
	require.NoError(t, serialization.WriteSafeTensors(segPath, map[string]*tensor.RawTensor{"seg": seg}, nil))

	var stdout, stderr bytes.Buffer
	log := logger.NewWriterLogger(true, &stderr, &stderr)
	require.NoError(t, run([]string{"seg2box", "-in", segPath}, testConfig(), &stdout, log))

	var boxes [][]float32
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &boxes))
	assert.Len(t, boxes, 2)
	assert.Contains(t, stderr.String(), "computed boxes")
}

func TestBoxToSegInvalidBox(t *testing.T) {
	dir := t.TempDir()
	boxesPath := filepath.Join(dir, "boxes.json")
	require.NoError(t, os.WriteFile(boxesPath, []byte(`[[0,0,2,2,1]]`), 0o600))

	_, err := runCLI(t, "box2seg", "-boxes", boxesPath, "-shape", "4,4", "-out", filepath.Join(dir, "seg.safetensors"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "5")
}

func TestBoxToSegMissingFlags(t *testing.T) {
	_, err := runCLI(t, "box2seg", "-shape", "4,4")
	assert.ErrorIs(t, err, errUsage)
}

func TestInstanceToSemantic(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "inst.safetensors")
	outPath := filepath.Join(dir, "sem.safetensors")

	inst, err := tensor.FromInt64s([]int64{0, 1, 2, 2}, tensor.Shape{2, 2}, tensor.CPU)
	require.NoError(t, err)
	require.NoError(t, serialization.WriteSafeTensors(inPath, map[string]*tensor.RawTensor{"inst": inst}, nil))

	_, err = runCLI(t, "inst2sem", "-in", inPath, "-classes", "5,7", "-out", outPath)
	require.NoError(t, err)

	tensors, _, err := serialization.ReadSafeTensors(outPath)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 5, 7, 7}, tensors["sem"].AsInt64())
}

func TestLoadRequiresNameForSeveralTensors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "two.safetensors")
	a, _ := tensor.NewRaw(tensor.Shape{1}, tensor.Int64, tensor.CPU)
	require.NoError(t, serialization.WriteSafeTensors(path, map[string]*tensor.RawTensor{"a": a, "b": a}, nil))

	_, err := load(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[a b]")

	single := filepath.Join(t.TempDir(), "one.safetensors")
	require.NoError(t, serialization.WriteSafeTensors(single, map[string]*tensor.RawTensor{"only": a}, nil))
	only, err := load(single, "")
	require.NoError(t, err)
	assert.Equal(t, tensor.Int64, only.DType())

	x, err := load(path, "b")
	require.NoError(t, err)
	assert.True(t, x.Shape().Equal(tensor.Shape{1}))

	_, err = load(path, "c")
	assert.Error(t, err)
}

func TestSample(t *testing.T) {
	out, err := runCLI(t, "sample", "-dist", "uniform", "-size", "2,3", "-low", "1", "-high", "2")
	require.NoError(t, err)

	var got struct {
		Shape  []int     `json:"shape"`
		DType  string    `json:"dtype"`
		Values []float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []int{2, 3}, got.Shape)
	assert.Equal(t, "float32", got.DType)
	require.Len(t, got.Values, 6)
	for _, v := range got.Values {
		assert.GreaterOrEqual(t, v, 1.0)
		assert.Less(t, v, 2.0)
	}
}

func TestSampleDeterministic(t *testing.T) {
	first, err := runCLI(t, "sample", "-dist", "normal", "-size", "4", "-seed", "5")
	require.NoError(t, err)
	second, err := runCLI(t, "sample", "-dist", "normal", "-size", "4", "-seed", "5")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSampleDiscreteAsType(t *testing.T) {
	out, err := runCLI(t, "sample", "-dist", "discrete", "-values", "3", "-size", "2", "-dtype", "uint8")
	require.NoError(t, err)
	assert.JSONEq(t, `{"shape":[2],"dtype":"uint8","values":[3,3]}`, out)
}

func TestSampleUnknownDistribution(t *testing.T) {
	_, err := runCLI(t, "sample", "-dist", "poisson")
	assert.ErrorIs(t, err, errUsage)
}

func TestParseInts(t *testing.T) {
	got, err := parseInts(" 4, 4 ,")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4}, got)

	_, err = parseInts("4,x")
	assert.Error(t, err)
}
