package zonecount

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/swdee/go-zonecount/geometry"
	"github.com/swdee/go-zonecount/postprocess"
	"github.com/swdee/go-zonecount/tracker"
	"github.com/swdee/go-zonecount/zone"
)

var (
	// ErrNoZones is returned when the configuration defines no zone polygon
	ErrNoZones = errors.New("no zone polygon configured")
	// ErrThreshold is returned when a threshold is outside its valid range
	ErrThreshold = errors.New("threshold out of range")
	// ErrInvalidConfig is returned for configuration that can not be parsed
	ErrInvalidConfig = errors.New("invalid configuration")
)

// DefaultTrailSize is the number of centroids kept per track for drawing
const DefaultTrailSize = 30

// Tracker types selectable with the tracker.type setting
const (
	TrackerByteTrack = "bytetrack"
	TrackerIoU       = "iou"
)

// ZoneConfig is the configuration of a single zone
type ZoneConfig struct {
	Name    string
	Polygon geometry.Polygon
	// Margin grows the polygon by this many pixels, or shrinks it if negative
	Margin float64
	// Color is the display palette index, defaults to the zone's position
	Color int
}

// Config holds the counting configuration
type Config struct {
	Zones []ZoneConfig
	// TargetClass is the class name or index to count
	TargetClass string
	// ConfidenceThreshold is the minimum detection score counted
	ConfidenceThreshold float32
	// Tracker is the tracker type, TrackerByteTrack or TrackerIoU
	Tracker string
	// FrameRate is the video frame rate ByteTrack scales TrackBuffer by,
	// 0 uses the input video's rate
	FrameRate int
	// TrackBuffer is the number of frames at 30 FPS ByteTrack keeps a lost
	// track for
	TrackBuffer int
	// TrackThresh, HighThresh and MatchThresh are the ByteTrack detection
	// score, new track score and matching cost thresholds
	TrackThresh float32
	HighThresh  float32
	MatchThresh float32
	// IoUThreshold and MaxLost configure the IoU tracker
	IoUThreshold float64
	MaxLost      int
	// TrailSize is the centroid history length drawn per track, 0 disables
	TrailSize int
}

// DefaultConfig returns a configuration with default values and no zones
func DefaultConfig() Config {
	return Config{
		TargetClass:         postprocess.DefaultTargetClass,
		ConfidenceThreshold: postprocess.DefaultConfidenceThreshold,
		Tracker:             TrackerByteTrack,
		TrackBuffer:         tracker.DefaultTrackBuffer,
		TrackThresh:         tracker.DefaultTrackThresh,
		HighThresh:          tracker.DefaultHighThresh,
		MatchThresh:         tracker.DefaultMatchThresh,
		IoUThreshold:        tracker.DefaultIoUThreshold,
		MaxLost:             tracker.DefaultMaxLost,
		TrailSize:           DefaultTrailSize,
	}
}

// LoadConfig reads and validates the JSON configuration file
func LoadConfig(file string) (Config, error) {

	data, err := os.ReadFile(file)

	if err != nil {
		return Config{}, fmt.Errorf("error reading config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses and validates a JSON configuration.  Zones are given
// either as a "zones" list or a single top level "polygon".
func ParseConfig(data []byte) (Config, error) {

	if !gjson.ValidBytes(data) {
		return Config{}, fmt.Errorf("%w: malformed JSON", ErrInvalidConfig)
	}

	cfg := DefaultConfig()
	doc := gjson.ParseBytes(data)

	if v := doc.Get("target_class"); v.Exists() {
		cfg.TargetClass = v.String()
	}

	if v := doc.Get("confidence_threshold"); v.Exists() {
		if v.Type != gjson.Number {
			return Config{}, fmt.Errorf("%w: confidence_threshold must be a number", ErrInvalidConfig)
		}
		cfg.ConfidenceThreshold = float32(v.Float())
	}

	if v := doc.Get("tracker.type"); v.Exists() {
		cfg.Tracker = v.String()
	}

	if v := doc.Get("tracker.frame_rate"); v.Exists() {
		cfg.FrameRate = int(v.Int())
	}

	if v := doc.Get("tracker.track_buffer"); v.Exists() {
		cfg.TrackBuffer = int(v.Int())
	}

	for key, dst := range map[string]*float32{
		"tracker.track_thresh": &cfg.TrackThresh,
		"tracker.high_thresh":  &cfg.HighThresh,
		"tracker.match_thresh": &cfg.MatchThresh,
	} {
		if v := doc.Get(key); v.Exists() {
			if v.Type != gjson.Number {
				return Config{}, fmt.Errorf("%w: %s must be a number", ErrInvalidConfig, key)
			}
			*dst = float32(v.Float())
		}
	}

	if v := doc.Get("tracker.iou_threshold"); v.Exists() {
		cfg.IoUThreshold = v.Float()
	}

	if v := doc.Get("tracker.max_lost"); v.Exists() {
		cfg.MaxLost = int(v.Int())
	}

	if v := doc.Get("trail_size"); v.Exists() {
		cfg.TrailSize = int(v.Int())
	}

	if zones := doc.Get("zones"); zones.Exists() {

		if !zones.IsArray() {
			return Config{}, fmt.Errorf("%w: zones must be a list", ErrInvalidConfig)
		}

		var err error

		zones.ForEach(func(key, value gjson.Result) bool {
			var zc ZoneConfig

			zc, err = parseZone(int(key.Int()), value)

			if err != nil {
				return false
			}

			cfg.Zones = append(cfg.Zones, zc)
			return true
		})

		if err != nil {
			return Config{}, err
		}

	} else if poly := doc.Get("polygon"); poly.Exists() {

		p, err := parsePolygon(poly)

		if err != nil {
			return Config{}, fmt.Errorf("polygon: %w", err)
		}

		cfg.Zones = []ZoneConfig{{Name: zone.DefaultName, Polygon: p}}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// parseZone reads a zone object
func parseZone(idx int, v gjson.Result) (ZoneConfig, error) {

	if !v.IsObject() {
		return ZoneConfig{}, fmt.Errorf("%w: zone %d must be an object", ErrInvalidConfig, idx)
	}

	zc := ZoneConfig{
		Name:   v.Get("name").String(),
		Margin: v.Get("margin").Float(),
		Color:  idx,
	}

	if c := v.Get("color"); c.Exists() {
		if c.Type != gjson.Number || c.Float() != float64(c.Int()) || c.Int() < 0 {
			return ZoneConfig{}, fmt.Errorf("%w: zone %d color must be a palette index", ErrInvalidConfig, idx)
		}

		zc.Color = int(c.Int())
	}

	if zc.Name == "" {
		zc.Name = fmt.Sprintf("%s%d", zone.DefaultName, idx+1)
	}

	p, err := parsePolygon(v.Get("polygon"))

	if err != nil {
		return ZoneConfig{}, fmt.Errorf("zone %q: %w", zc.Name, err)
	}

	zc.Polygon = p

	return zc, nil
}

// parsePolygon reads a list of [x, y] pairs
func parsePolygon(v gjson.Result) (geometry.Polygon, error) {

	if !v.IsArray() {
		return nil, fmt.Errorf("%w: polygon must be a list of [x, y] pairs", ErrInvalidConfig)
	}

	var poly geometry.Polygon

	for i, pt := range v.Array() {
		xy := pt.Array()

		if !pt.IsArray() || len(xy) != 2 || xy[0].Type != gjson.Number || xy[1].Type != gjson.Number {
			return nil, fmt.Errorf("%w: vertex %d is not an [x, y] pair", ErrInvalidConfig, i)
		}

		poly = append(poly, geometry.Pt(xy[0].Float(), xy[1].Float()))
	}

	return poly, nil
}

// ParsePolygon reads a polygon given as space separated x,y vertices such as
// "362,274 498,1074 950,694"
func ParsePolygon(s string) (geometry.Polygon, error) {

	var poly geometry.Polygon

	for i, field := range strings.Fields(s) {
		xy := strings.Split(field, ",")

		if len(xy) != 2 {
			return nil, fmt.Errorf("%w: vertex %d %q is not x,y", ErrInvalidConfig, i, field)
		}

		x, errX := strconv.ParseFloat(xy[0], 64)
		y, errY := strconv.ParseFloat(xy[1], 64)

		if errX != nil || errY != nil {
			return nil, fmt.Errorf("%w: vertex %d %q is not numeric", ErrInvalidConfig, i, field)
		}

		poly = append(poly, geometry.Pt(x, y))
	}

	return poly, nil
}

// Validate checks the configuration is usable
func (c Config) Validate() error {

	if len(c.Zones) == 0 {
		return ErrNoZones
	}

	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence_threshold %v must be in [0,1]", ErrThreshold, c.ConfidenceThreshold)
	}

	switch c.Tracker {
	case TrackerByteTrack:
		for name, v := range map[string]float32{
			"track_thresh": c.TrackThresh,
			"high_thresh":  c.HighThresh,
			"match_thresh": c.MatchThresh,
		} {
			if v < 0 || v > 1 {
				return fmt.Errorf("%w: tracker %s %v must be in [0,1]", ErrThreshold, name, v)
			}
		}

		if c.FrameRate < 0 || c.TrackBuffer < 0 {
			return fmt.Errorf("%w: tracker frame_rate and track_buffer must not be negative", ErrInvalidConfig)
		}

	case TrackerIoU:

	default:
		return fmt.Errorf("%w: unknown tracker type %q", ErrInvalidConfig, c.Tracker)
	}

	if c.IoUThreshold <= 0 || c.IoUThreshold > 1 {
		return fmt.Errorf("%w: tracker iou_threshold %v must be in (0,1]", ErrThreshold, c.IoUThreshold)
	}

	if c.MaxLost < 0 {
		return fmt.Errorf("%w: tracker max_lost must not be negative", ErrInvalidConfig)
	}

	if c.TrailSize < 0 {
		return fmt.Errorf("%w: trail_size must not be negative", ErrInvalidConfig)
	}

	names := make(map[string]bool)

	for _, zc := range c.Zones {
		if names[zc.Name] {
			return fmt.Errorf("%w: duplicate zone name %q", ErrInvalidConfig, zc.Name)
		}
		names[zc.Name] = true

		if err := zc.Polygon.Validate(); err != nil {
			return fmt.Errorf("zone %q: %w", zc.Name, err)
		}
	}

	return nil
}

// BuildZones creates the zones in configuration order, applying margins
func (c Config) BuildZones() ([]zone.Zone, error) {

	if len(c.Zones) == 0 {
		return nil, ErrNoZones
	}

	zones := make([]zone.Zone, 0, len(c.Zones))

	for _, zc := range c.Zones {
		z, err := zone.New(zc.Name, zc.Polygon, zc.Margin)

		if err != nil {
			return nil, err
		}

		zones = append(zones, z.WithColor(zc.Color))
	}

	return zones, nil
}
