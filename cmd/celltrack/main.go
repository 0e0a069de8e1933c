// Command celltrack runs the tracking and membrane-measurement pipelines
// over a folder of per-frame TIFF label maps, the way the interactive tool
// does it off its UI thread: segmentation output in, tracked labels, a
// tracks table and per-frame membrane measurements out.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/clegall/celltrack-go/config"
	"github.com/clegall/celltrack-go/grid"
	"github.com/clegall/celltrack-go/measure"
	"github.com/clegall/celltrack-go/track"
)

func main() {
	var (
		configPath   = flag.String("config", "celltrack.yaml", "YAML pipeline configuration")
		labelsDir    = flag.String("labels", "", "directory of per-frame label-map TIFFs (required)")
		intensityDir = flag.String("intensity", "", "directory of per-frame intensity TIFFs (optional)")
		outDir       = flag.String("out", "tracked", "output directory")
	)
	flag.Parse()

	if *labelsDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("output directory: %v", err)
	}

	labels, err := loadLabelStack(*labelsDir)
	if err != nil {
		log.Fatalf("label maps: %v", err)
	}
	log.Printf("loaded %d label frames from %s", len(labels), *labelsDir)

	worker := track.NewWorker()
	must(worker.SetAxes(cfg.Axes))
	must(worker.SetSearchRange(cfg.Tracking.SearchRange))
	must(worker.SetMemory(cfg.Tracking.Memory))
	worker.SetUseVelocity(cfg.Tracking.UseVelocity)
	worker.SetMergeNeighbors(cfg.Tracking.MergeNeighbors)
	worker.SetRemoveIncomplete(cfg.Tracking.RemoveIncomplete)
	must(worker.SetLabelMaps(labels))

	if err := worker.Run(); err != nil {
		log.Fatalf("tracking: %v", err)
	}
	log.Printf("linked %d detections into tracks", len(worker.LinkedTracks()))

	tracked := worker.TrackedLabels()
	if err := writeLabelStack(filepath.Join(*outDir, "tracked"), tracked); err != nil {
		log.Fatalf("tracked labels: %v", err)
	}
	if err := worker.SaveLinkedTracks(filepath.Join(*outDir, "linked_tracks.csv")); err != nil {
		log.Fatalf("tracks table: %v", err)
	}

	if *intensityDir == "" {
		return
	}

	intensity, err := loadIntensityStack(*intensityDir)
	if err != nil {
		log.Fatalf("intensity channel: %v", err)
	}

	measurer := measure.NewWorker()
	must(measurer.SetAxes(cfg.Axes))
	must(measurer.SetMembraneThickness(cfg.Measure.MembraneThickness))
	must(measurer.SetFactor(cfg.Measure.Factor))
	must(measurer.SetLabelMaps(tracked))
	must(measurer.SetIntensityChannel(intensity))
	measurer.Progress = func(done, total int) {
		log.Printf("measuring frame %d / %d", done, total)
	}

	if err := measurer.Run(); err != nil {
		log.Fatalf("measurement: %v", err)
	}
	if err := writeLabelStack(filepath.Join(*outDir, "rings"), measurer.Rings()); err != nil {
		log.Fatalf("ring masks: %v", err)
	}
	if err := writeLabelStack(filepath.Join(*outDir, "inner"), measurer.InnerRegions()); err != nil {
		log.Fatalf("inner masks: %v", err)
	}
	if err := measure.SaveResults(filepath.Join(*outDir, "measurements.csv"), measurer.Results()); err != nil {
		log.Fatalf("measurements table: %v", err)
	}
	log.Printf("wrote results to %s", *outDir)
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

// listTIFFs returns the .tif/.tiff files of a directory in name order,
// which is also frame order for the "_t0, _t1, ..." naming convention.
func listTIFFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".tif" || ext == ".tiff" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no TIFF files in %s", dir)
	}
	return paths, nil
}

func decodeTIFF(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tiff.Decode(f)
}

func loadLabelStack(dir string) (grid.Stack[int32], error) {
	paths, err := listTIFFs(dir)
	if err != nil {
		return nil, err
	}
	stack := make(grid.Stack[int32], 0, len(paths))
	for _, path := range paths {
		img, err := decodeTIFF(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		b := img.Bounds()
		frame := grid.NewFrame[int32](b.Dx(), b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
				frame.Set(x-b.Min.X, y-b.Min.Y, int32(g.Y))
			}
		}
		stack = append(stack, frame)
	}
	return stack, nil
}

func loadIntensityStack(dir string) (grid.Stack[float64], error) {
	paths, err := listTIFFs(dir)
	if err != nil {
		return nil, err
	}
	stack := make(grid.Stack[float64], 0, len(paths))
	for _, path := range paths {
		img, err := decodeTIFF(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		b := img.Bounds()
		frame := grid.NewFrame[float64](b.Dx(), b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
				frame.Set(x-b.Min.X, y-b.Min.Y, float64(g.Y))
			}
		}
		stack = append(stack, frame)
	}
	return stack, nil
}

// writeLabelStack writes one 16-bit grayscale TIFF per frame under the
// given path prefix.
func writeLabelStack(prefix string, stack grid.Stack[int32]) error {
	for t, frame := range stack {
		img := image.NewGray16(image.Rect(0, 0, frame.W, frame.H))
		for y := 0; y < frame.H; y++ {
			for x := 0; x < frame.W; x++ {
				v := frame.At(x, y)
				if v < 0 {
					v = 0
				}
				if v > 0xFFFF {
					v = 0xFFFF
				}
				img.SetGray16(x, y, color.Gray16{Y: uint16(v)})
			}
		}
		path := fmt.Sprintf("%s_t%04d.tif", prefix, t)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		opts := &tiff.Options{Compression: tiff.Deflate}
		if err := tiff.Encode(f, img, opts); err != nil {
			f.Close()
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
