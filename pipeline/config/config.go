/*
NAME
  config.go

DESCRIPTION
  config.go contains the configuration settings for the video upscaling
  pipeline, modeled on revid/config's Config struct and Validate pattern.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for the video
// upscaling pipeline.
package config

// ColorCorrection selects one of the color-correction algorithms, or
// disables color correction entirely.
type ColorCorrection int

// The color-correction methods recognised by the pipeline.
const (
	ColorNone ColorCorrection = iota
	ColorAdaIN
	ColorWavelet
	ColorWaveletAdaptive
	ColorLAB
	ColorHSV
)

func (c ColorCorrection) String() string {
	switch c {
	case ColorNone:
		return "none"
	case ColorAdaIN:
		return "adain"
	case ColorWavelet:
		return "wavelet"
	case ColorWaveletAdaptive:
		return "wavelet_adaptive"
	case ColorLAB:
		return "lab"
	case ColorHSV:
		return "hsv"
	default:
		return "unknown"
	}
}

// Logger is the logging interface consumed by the pipeline, identical in
// shape to github.com/ausocean/utils/logging.Logger and revid.Logger.
type Logger interface {
	SetLevel(int8)
	Log(level int8, message string, params ...interface{})
}

// Default field values, used by Validate to repair bad configuration.
const (
	DefaultBatchSize      = 5
	DefaultTemporalOlap   = 0
	DefaultResW           = 1072
	DefaultCFGScale       = 7.5
	DefaultSeed           = 42
	DefaultLuminanceWeigh = 0.8
)

// TileConfig describes an optional tiled encode/decode configuration for
// the VAE. Tiling math itself is opaque to the core orchestrator and is
// passed straight through to the VAE collaborator.
type TileConfig struct {
	Enabled bool
	Size    [2]int // height, width
	Overlap [2]int // height, width
}

// Config provides parameters relevant to a pipeline run. Default values
// for zero fields are filled in by Validate.
type Config struct {
	// Logger receives all pipeline log output. Required.
	Logger Logger

	// LogLevel is passed to Logger.SetLevel by pipeline.New after Validate.
	LogLevel int8

	// BatchSize is the target frames-per-batch, ideally of the form 4n+1.
	BatchSize int

	// TemporalOverlap is the number of frames shared between consecutive
	// batches' input windows (must be < BatchSize).
	TemporalOverlap int

	// PreserveVRAM offloads models to host memory between phases.
	PreserveVRAM bool

	// ResW is the target shortest-edge resolution after the video transform.
	ResW int

	// InputNoiseScale is in [0,1]; injects pre-encode noise.
	InputNoiseScale float64

	// CFGScale is the classifier-free-guidance scale passed to the DiT.
	CFGScale float64

	// Seed seeds the pipeline's random generator.
	Seed int64

	// LatentNoiseScale is in [0,1]; blurs the DiT condition.
	LatentNoiseScale float64

	// ColorCorrection selects the correction algorithm, or ColorNone to
	// disable it.
	ColorCorrection ColorCorrection

	// LuminanceWeight is the LAB method's L* blend weight.
	LuminanceWeight float64

	// DiTDevice and VAEDevice are opaque device descriptors (e.g. "cuda:0",
	// "cuda:1", "cpu") handed to the Stager; they may differ so the two
	// models can be load-balanced across accelerators.
	DiTDevice string
	VAEDevice string

	// DiTCache and VAECache request that the model-lifecycle collaborator
	// keep the corresponding model resident in RAM across pipeline runs.
	DiTCache bool
	VAECache bool

	// EncodeTile and DecodeTile configure tiled VAE encode/decode. Opaque
	// to the orchestrator; forwarded to the VAE collaborator as-is.
	EncodeTile TileConfig
	DecodeTile TileConfig

	// DiTCompileArgs and VAECompileArgs are optional torch.compile-style
	// configuration dictionaries forwarded to the model-lifecycle
	// collaborator without interpretation.
	DiTCompileArgs map[string]interface{}
	VAECompileArgs map[string]interface{}
}

// Validate checks config fields and defaults settings that haven't been
// defined, logging a warning for each one it defaults (revid/config's
// LogInvalidField pattern).
func (c *Config) Validate() error {
	if c.Logger == nil {
		return errConfigNoLogger
	}
	if c.BatchSize <= 0 {
		c.LogInvalidField("BatchSize", DefaultBatchSize)
		c.BatchSize = DefaultBatchSize
	}
	if c.TemporalOverlap < 0 || c.TemporalOverlap >= c.BatchSize {
		c.LogInvalidField("TemporalOverlap", DefaultTemporalOlap)
		c.TemporalOverlap = DefaultTemporalOlap
	}
	if c.ResW <= 0 {
		c.LogInvalidField("ResW", DefaultResW)
		c.ResW = DefaultResW
	}
	if c.CFGScale <= 0 {
		c.LogInvalidField("CFGScale", DefaultCFGScale)
		c.CFGScale = DefaultCFGScale
	}
	if c.InputNoiseScale < 0 || c.InputNoiseScale > 1 {
		c.LogInvalidField("InputNoiseScale", 0)
		c.InputNoiseScale = 0
	}
	if c.LatentNoiseScale < 0 || c.LatentNoiseScale > 1 {
		c.LogInvalidField("LatentNoiseScale", 0)
		c.LatentNoiseScale = 0
	}
	if c.LuminanceWeight <= 0 || c.LuminanceWeight > 1 {
		c.LogInvalidField("LuminanceWeight", DefaultLuminanceWeigh)
		c.LuminanceWeight = DefaultLuminanceWeigh
	}
	if c.DiTDevice == "" {
		c.LogInvalidField("DiTDevice", "cpu")
		c.DiTDevice = "cpu"
	}
	if c.VAEDevice == "" {
		c.LogInvalidField("VAEDevice", "cpu")
		c.VAEDevice = "cpu"
	}
	return nil
}

// LogInvalidField logs that a field was bad or unset and has been
// defaulted, matching revid/config.Config.LogInvalidField.
func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Log(LevelWarning, name+" bad or unset, defaulting", name, def)
}

// Log level constants, matching the values used by
// github.com/ausocean/utils/logging (Debug < Info < Warning < Error < Fatal).
const (
	LevelDebug int8 = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

var errConfigNoLogger = configError("config: Logger must be set")

type configError string

func (e configError) Error() string { return string(e) }
