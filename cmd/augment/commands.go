package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/born-ml/augment/config"
	"github.com/born-ml/augment/internal/augment"
	"github.com/born-ml/augment/internal/device"
	"github.com/born-ml/augment/internal/serialization"
	"github.com/born-ml/augment/internal/tensor"
)

var errUsage = errors.New("usage")

// run dispatches a subcommand. Results go to stdout; logs go through log.
func run(args []string, cfg *config.AppConfig, stdout io.Writer, log *zap.Logger) error {
	if len(args) == 0 {
		printUsage(stdout)
		return nil
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "augment %s\n", version)
		return nil
	case "box2seg":
		return runBoxToSeg(args[1:], cfg, log)
	case "seg2box":
		return runSegToBox(args[1:], stdout, log)
	case "inst2sem":
		return runInstanceToSemantic(args[1:], log)
	case "sample":
		return runSample(args[1:], cfg, stdout, log)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stdout)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "augment %s - data augmentation helpers\n\n", version)
	fmt.Fprintln(w, "Usage: augment [-file config.yaml] <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  box2seg    Draw boxes from a JSON file into a label map")
	fmt.Fprintln(w, "  seg2box    Print the bounding boxes of a label map as JSON")
	fmt.Fprintln(w, "  inst2sem   Map instance labels to class labels")
	fmt.Fprintln(w, "  sample     Sample a random parameter tensor")
}

func runBoxToSeg(args []string, cfg *config.AppConfig, log *zap.Logger) error {
	fs := flag.NewFlagSet("box2seg", flag.ContinueOnError)
	boxesPath := fs.String("boxes", "", "JSON file with a list of boxes")
	shapeFlag := fs.String("shape", "", "label map shape, e.g. 4,4")
	dtypeFlag := fs.String("dtype", cfg.Label.DType, "label map dtype")
	out := fs.String("out", "seg.safetensors", "output SafeTensors file")
	name := fs.String("name", "seg", "tensor name in the output file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *boxesPath == "" || *shapeFlag == "" {
		return fmt.Errorf("%w: box2seg requires -boxes and -shape", errUsage)
	}

	shape, err := parseInts(*shapeFlag)
	if err != nil {
		return fmt.Errorf("box2seg: -shape: %w", err)
	}
	dtype, err := tensor.ParseDataType(*dtypeFlag)
	if err != nil {
		return fmt.Errorf("box2seg: -dtype: %w", err)
	}
	dev, err := cfg.TargetDevice()
	if err != nil {
		return fmt.Errorf("box2seg: %w", err)
	}

	//nolint:gosec // G304: File path comes from user input
	raw, err := os.ReadFile(*boxesPath)
	if err != nil {
		return fmt.Errorf("box2seg: %w", err)
	}
	var boxes []augment.Box
	if err := json.Unmarshal(raw, &boxes); err != nil {
		return fmt.Errorf("box2seg: parse %s: %w", *boxesPath, err)
	}

	seg, err := augment.BoxToSeg(boxes, augment.SegOptions{Shape: shape, DType: dtype, Device: dev})
	if err != nil {
		return err
	}
	log.Debug("drew boxes", zap.Int("boxes", len(boxes)), zap.Stringer("seg", seg))

	if err := save(*out, *name, seg); err != nil {
		return fmt.Errorf("box2seg: %w", err)
	}
	log.Info("label map written", zap.String("path", *out), zap.Int("boxes", len(boxes)))
	return nil
}

func runSegToBox(args []string, stdout io.Writer, log *zap.Logger) error {
	fs := flag.NewFlagSet("seg2box", flag.ContinueOnError)
	in := fs.String("in", "", "input SafeTensors file")
	name := fs.String("name", "", "tensor name (default: the only tensor in the file)")
	dim := fs.Int("dim", 2, "number of spatial axes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("%w: seg2box requires -in", errUsage)
	}

	seg, err := load(*in, *name)
	if err != nil {
		return fmt.Errorf("seg2box: %w", err)
	}
	boxes, err := augment.SegToBox(seg, *dim)
	if err != nil {
		return err
	}
	log.Debug("computed boxes", zap.Int("instances", len(boxes)))

	lists := make([][]float32, len(boxes))
	for i, box := range boxes {
		lists[i] = box.AsFloat32()
	}
	return json.NewEncoder(stdout).Encode(lists)
}

func runInstanceToSemantic(args []string, log *zap.Logger) error {
	fs := flag.NewFlagSet("inst2sem", flag.ContinueOnError)
	in := fs.String("in", "", "input SafeTensors file")
	name := fs.String("name", "", "tensor name (default: the only tensor in the file)")
	classes := fs.String("classes", "", "class of each instance, e.g. 5,7")
	out := fs.String("out", "sem.safetensors", "output SafeTensors file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *classes == "" {
		return fmt.Errorf("%w: inst2sem requires -in and -classes", errUsage)
	}

	cls, err := parseInts(*classes)
	if err != nil {
		return fmt.Errorf("inst2sem: -classes: %w", err)
	}
	instance, err := load(*in, *name)
	if err != nil {
		return fmt.Errorf("inst2sem: %w", err)
	}

	sem, err := augment.InstanceToSemantic(instance, cls)
	if err != nil {
		return err
	}
	if err := save(*out, "sem", sem); err != nil {
		return fmt.Errorf("inst2sem: %w", err)
	}
	log.Info("semantic map written", zap.String("path", *out), zap.Int("classes", len(cls)))
	return nil
}

func runSample(args []string, cfg *config.AppConfig, stdout io.Writer, log *zap.Logger) error {
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	dist := fs.String("dist", "uniform", "distribution: uniform, normal, constant or discrete")
	sizeFlag := fs.String("size", "1", "output shape, e.g. 2,3")
	low := fs.Float64("low", 0, "uniform lower bound")
	high := fs.Float64("high", 1, "uniform upper bound")
	mean := fs.Float64("mean", 0, "normal mean")
	std := fs.Float64("std", 1, "normal standard deviation")
	value := fs.Float64("value", 0, "constant value")
	values := fs.String("values", "", "discrete population, e.g. 1,2,3")
	replacement := fs.Bool("replacement", true, "discrete sampling with replacement")
	seed := fs.Int64("seed", cfg.Sampling.Seed, "random seed (negative means random)")
	dtypeFlag := fs.String("dtype", "", "output dtype (default: the sampler's)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	size, err := parseInts(*sizeFlag)
	if err != nil {
		return fmt.Errorf("sample: -size: %w", err)
	}

	var param *augment.Parameter
	switch *dist {
	case "uniform":
		param, err = augment.NewUniformParameter(*low, *high, *seed)
	case "normal":
		param, err = augment.NewNormalParameter(*mean, *std, *seed)
	case "constant":
		param = augment.NewConstantParameter(*value)
	case "discrete":
		var population []int
		if population, err = parseInts(*values); err == nil {
			items := make([]any, len(population))
			for i, v := range population {
				items[i] = v
			}
			param, err = augment.NewDiscreteParameter(items, *replacement, *seed)
		}
	default:
		err = fmt.Errorf("%w: unknown distribution %q", errUsage, *dist)
	}
	if err != nil {
		return fmt.Errorf("sample: %w", err)
	}

	var opts []device.Option
	if *dtypeFlag != "" {
		dt, err := tensor.ParseDataType(*dtypeFlag)
		if err != nil {
			return fmt.Errorf("sample: -dtype: %w", err)
		}
		opts = append(opts, device.AsType(dt))
	}

	got, err := param.Forward(tensor.Shape(size), opts...)
	if err != nil {
		return err
	}
	x, ok := got.(*tensor.RawTensor)
	if !ok {
		return json.NewEncoder(stdout).Encode(got)
	}
	log.Debug("sampled parameter", zap.String("dist", *dist), zap.Stringer("tensor", x))

	return json.NewEncoder(stdout).Encode(struct {
		Shape  []int     `json:"shape"`
		DType  string    `json:"dtype"`
		Values []float64 `json:"values"`
	}{x.Shape(), x.DType().String(), x.Float64s()})
}

// parseInts parses a comma separated list such as "4,4".
func parseInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// save writes x under name, downloading it to the host first.
func save(path, name string, x *tensor.RawTensor) error {
	host, err := device.To(x, device.OnDevice(tensor.CPU))
	if err != nil {
		return err
	}
	return serialization.WriteSafeTensors(path, map[string]*tensor.RawTensor{name: host}, map[string]string{
		"producer": "augment " + version,
	})
}

// load reads a tensor by name; an empty name selects the only tensor in the file.
func load(path, name string) (*tensor.RawTensor, error) {
	tensors, _, err := serialization.ReadSafeTensors(path)
	if err != nil {
		return nil, err
	}
	if name != "" {
		x, ok := tensors[name]
		if !ok {
			return nil, fmt.Errorf("tensor %q not found in %s", name, path)
		}
		return x, nil
	}
	names := make([]string, 0, len(tensors))
	for n := range tensors {
		names = append(names, n)
	}
	sort.Strings(names)
	if len(names) != 1 {
		return nil, fmt.Errorf("%s holds %d tensors %v, pick one with -name", path, len(names), names)
	}
	return tensors[names[0]], nil
}
