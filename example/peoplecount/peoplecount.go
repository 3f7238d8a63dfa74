package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/swdee/go-zonecount"
	"github.com/swdee/go-zonecount/detector"
	"github.com/swdee/go-zonecount/pipeline"
	"github.com/swdee/go-zonecount/postprocess"
	"github.com/swdee/go-zonecount/render"
	"github.com/swdee/go-zonecount/report"
	"github.com/swdee/go-zonecount/video"
)

// closer is an output that must be closed once the run ends
type closer interface {
	Close() error
}

// summaryWriter is an output that records the end of run summary
type summaryWriter interface {
	WriteSummary(sum pipeline.Summary) error
}

// closeAll closes every output in order, logging failures.  It returns false
// if any output failed to close.
func closeAll(outputs []closer) bool {

	ok := true

	for _, out := range outputs {
		if err := out.Close(); err != nil {
			log.Errorf("Error closing output: %v", err)
			ok = false
		}
	}

	return ok
}

// frameSinks writes each frame to the report writers and then the annotated
// video, so a frame a report fails on is never in the video
func frameSinks[T any](writers []report.Writer, vid pipeline.Sink[T]) pipeline.Sinks[T] {

	var sinks pipeline.Sinks[T]

	if len(writers) > 0 {
		sinks = append(sinks, report.Sink[T](writers...))
	}

	return append(sinks, vid)
}

func main() {
	os.Exit(run())
}

func run() (exitCode int) {

	// read in cli flags
	inFile := flag.String("input", "", "Video file to count people in (required)")
	outFile := flag.String("output", "", "Annotated video file to write (required)")
	configFile := flag.String("config", "", "JSON file defining zones, target class and thresholds")
	polygon := flag.String("polygon", "", "Zone polygon as space separated x,y vertices, used when no config file is given")
	modelFile := flag.String("model", "../data/yolov8s.onnx", "YOLOv8 ONNX model file")
	labelFile := flag.String("labels", "../data/coco_80_labels_list.txt", "Text file containing model labels")
	inputSize := flag.Int("size", detector.DefaultInputSize, "Model input tensor width and height")
	useCUDA := flag.Bool("cuda", false, "Run the model on the OpenCV CUDA backend")
	detFile := flag.String("detections", "", "JSON lines file of recorded detections to replay instead of running the model")
	reportFile := flag.String("report", "", "JSON lines file to write per frame counts to")
	dbFile := flag.String("db", "", "SQLite database to store per frame counts in")
	chartFile := flag.String("chart", "", "PNG file to plot zone occupancy over time to")
	useKafka := flag.Bool("kafka", false, "Publish counts to Kafka, configured by KAFKA_* environment variables")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	// disable logging timestamps
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})

	lvl, err := log.ParseLevel(*logLevel)

	if err != nil {
		log.Errorf("Invalid log level: %v", err)
		return 2
	}

	log.SetLevel(lvl)

	if *inFile == "" || *outFile == "" {
		fmt.Fprintln(os.Stderr, "both --input and --output are required")
		flag.Usage()
		return 2
	}

	if _, err := os.Stat(*inFile); err != nil {
		log.Errorf("Error reading input: %v", err)
		return 1
	}

	cfg, err := loadConfig(*configFile, *polygon)

	if err != nil {
		log.Errorf("Error in configuration: %v", err)
		return 1
	}

	// labels are optional when replaying detections that carry their label
	var labels []string

	if *detFile == "" || fileExists(*labelFile) {
		labels, err = zonecount.LoadLabels(*labelFile)

		if err != nil {
			log.Errorf("Error loading model labels: %v", err)
			return 1
		}
	}

	vidIn, err := video.Open(*inFile)

	if err != nil {
		log.Errorf("Error opening input: %v", err)
		return 1
	}

	defer vidIn.Close()

	// scale the tracker's lost track buffer to the video
	if cfg.FrameRate == 0 {
		cfg.FrameRate = int(math.Round(vidIn.FPS()))
	}

	proc, err := cfg.NewPipeline(labels)

	if err != nil {
		log.Errorf("Error creating pipeline: %v", err)
		return 1
	}

	for _, z := range proc.Zones() {
		log.Infof("Counting %s in zone %q with %d vertices", cfg.TargetClass, z.Name, len(z.Polygon))
	}

	det, done, err := newDetector(*detFile, *modelFile, labels, *inputSize, *useCUDA)

	if err != nil {
		log.Errorf("Error creating detector: %v", err)
		return 1
	}

	defer done()

	width, height := vidIn.Size()

	// outputs to close once the run ends or setup fails, in order
	var outputs []closer

	defer func() {
		if !closeAll(outputs) {
			exitCode = 1
		}
	}()

	vidOut, err := video.Create(*outFile, vidIn.FPS(), width, height, render.DefaultStyle())

	if err != nil {
		log.Errorf("Error creating output: %v", err)
		return 1
	}

	outputs = append(outputs, vidOut)

	runID := report.NewRunID()
	log.WithField("run_id", runID).Infof("Processing %s %dx%d at %.1f FPS", *inFile, width, height, vidIn.FPS())

	var writers []report.Writer
	var chart *report.Chart

	if *reportFile != "" {
		j, err := report.CreateJSONL(*reportFile, runID)

		if err != nil {
			log.Errorf("Error creating report: %v", err)
			return 1
		}

		writers = append(writers, j)
		outputs = append(outputs, j)
	}

	if *dbFile != "" {
		store, err := report.OpenStore(*dbFile, runID, *inFile)

		if err != nil {
			log.Errorf("Error opening database: %v", err)
			return 1
		}

		writers = append(writers, store)
		outputs = append(outputs, store)
	}

	if *useKafka {
		k, err := report.NewKafka(report.KafkaConfigFromEnv(), runID, log.StandardLogger())

		if err != nil {
			log.Errorf("Error connecting to Kafka: %v", err)
			return 1
		}

		writers = append(writers, k)
		outputs = append(outputs, k)
	}

	if *chartFile != "" {
		chart = report.NewChart(fmt.Sprintf("People in region, %s", *inFile))
		writers = append(writers, chart)
	}

	sinks := frameSinks[gocv.Mat](writers, vidOut)

	// stop cleanly on interrupt so counts so far are still reported
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()

	sum, err := pipeline.Run[gocv.Mat](ctx, proc, pipeline.Detecting[gocv.Mat](vidIn, det), sinks)

	switch {
	case errors.Is(err, context.Canceled):
		log.Warn("Interrupted, reporting counts up to the last processed frame")

	case err != nil:
		log.Errorf("Error processing video: %v", err)
		exitCode = 1
	}

	elapsed := time.Since(start)

	for _, w := range writers {
		if sw, ok := w.(summaryWriter); ok {
			if err := sw.WriteSummary(sum); err != nil {
				log.Errorf("Error writing summary: %v", err)
				exitCode = 1
			}
		}

		if store, ok := w.(*report.Store); ok {
			if err := store.Finish(sum); err != nil {
				log.Errorf("Error storing summary: %v", err)
				exitCode = 1
			}
		}
	}

	if chart != nil && sum.Frames > 0 {
		if err := chart.Save(*chartFile); err != nil {
			log.Errorf("Error saving chart: %v", err)
			exitCode = 1
		}
	}

	fps := 0.0

	if elapsed > 0 {
		fps = float64(sum.Frames) / elapsed.Seconds()
	}

	log.Printf("Frames processed: %d in %s (%.1f FPS)", sum.Frames, elapsed.Round(time.Millisecond), fps)

	for _, zs := range sum.Zones {
		log.Printf("Zone %q: total seen %d, peak occupancy %d, mean occupancy %.2f",
			zs.Name, zs.TotalSeen, zs.PeakOccupancy, zs.MeanOccupancy)
	}

	log.Printf("Total People Detected: %d", sum.TotalSeen)

	return exitCode
}

// loadConfig reads the config file, or builds a default configuration around
// the polygon flag
func loadConfig(file, polygon string) (zonecount.Config, error) {

	if file != "" {
		return zonecount.LoadConfig(file)
	}

	cfg := zonecount.DefaultConfig()

	poly, err := zonecount.ParsePolygon(polygon)

	if err != nil {
		return cfg, err
	}

	if len(poly) > 0 {
		cfg.Zones = []zonecount.ZoneConfig{{Name: "zone", Polygon: poly}}
	}

	return cfg, cfg.Validate()
}

// newDetector returns the replay detector when a detections file is given,
// otherwise the ONNX model runtime.  The returned func releases it.
func newDetector(detFile, modelFile string, labels []string, size int,
	cuda bool) (postprocess.Detector[gocv.Mat], func(), error) {

	if detFile != "" {
		rp, err := zonecount.LoadReplay(detFile, labels)

		if err != nil {
			return nil, nil, err
		}

		log.Infof("Replaying detections of %d frames from %s", rp.Frames(), detFile)

		return zonecount.ReplayDetector[gocv.Mat](rp), func() {}, nil
	}

	params := postprocess.YOLOv8COCOParams()

	if len(labels) > 0 {
		params.ObjectClassNum = len(labels)
	}

	backend := detector.BackendCPU

	if cuda {
		backend = detector.BackendCUDA
	}

	rt, err := detector.NewRuntime(modelFile, labels, params, size, backend)

	if err != nil {
		return nil, nil, err
	}

	return rt, func() { rt.Close() }, nil
}

func fileExists(file string) bool {
	_, err := os.Stat(file)
	return err == nil
}
