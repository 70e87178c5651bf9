/*
NAME
  main.go

DESCRIPTION
  upscalevid is a minimal demonstration entrypoint for the pipeline
  package: it loads a directory of frame images, drives them through
  the four-phase upscaling pipeline using placeholder model
  collaborators (internal/demoops), and writes the result back out as
  a sequence of PNG frames. CLI argument surfaces, config file loading
  and logging transport are explicitly out of scope for the pipeline
  itself; this command is the "minimal demonstration
  entrypoint" the library deliberately leaves room for, modeled on
  cmd/rv/main.go's flag/lumberjack/logging wiring.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command upscalevid drives the four-phase video-upscaling pipeline
// over a directory of frame images.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // register the JPEG decoder with image.Decode
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	xdraw "golang.org/x/image/draw"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/nereidav/upscale/internal/demoops"
	"github.com/nereidav/upscale/pipeline"
	"github.com/nereidav/upscale/pipeline/config"
	"github.com/nereidav/upscale/pipeline/ops"
	"github.com/nereidav/upscale/videotensor"
)

// Logging configuration, matching cmd/rv/main.go's constants.
const (
	logPath      = "upscalevid.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 14 // days
	logSuppress  = true
)

func main() {
	framesDir := flag.String("frames", "", "directory of input frame images (png/jpg), read in lexical order")
	outDir := flag.String("out", "upscaled", "directory to write output frame images")
	batchSize := flag.Int("batch_size", config.DefaultBatchSize, "frames per batch, target 4n+1")
	temporalOverlap := flag.Int("temporal_overlap", config.DefaultTemporalOlap, "frames shared between consecutive batch windows")
	resW := flag.Int("res_w", config.DefaultResW, "target shortest-edge resolution after the video transform")
	preserveVRAM := flag.Bool("preserve_vram", true, "offload models to host memory between phases")
	inputNoiseScale := flag.Float64("input_noise_scale", 0, "pre-encode noise injection, in [0,1]")
	latentNoiseScale := flag.Float64("latent_noise_scale", 0, "condition-blurring scale, in [0,1]")
	cfgScale := flag.Float64("cfg_scale", config.DefaultCFGScale, "classifier-free-guidance scale")
	seed := flag.Int64("seed", config.DefaultSeed, "random seed")
	colorCorrection := flag.String("color_correction", "none", "none|adain|wavelet|wavelet_adaptive|lab|hsv")
	luminanceWeight := flag.Float64("luminance_weight", config.DefaultLuminanceWeigh, "lab method's L* blend weight")
	ditDevice := flag.String("dit_device", "cpu", "DiT device descriptor")
	vaeDevice := flag.String("vae_device", "cpu", "VAE device descriptor")
	logVerbosity := flag.Int("log_level", int(config.LevelInfo), "log level (0=debug .. 4=fatal)")
	flag.Parse()

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(int8(*logVerbosity), io.Writer(fileLog), logSuppress)

	if *framesDir == "" {
		log.Log(config.LevelFatal, "upscalevid: -frames is required")
		os.Exit(2)
	}

	cc, err := parseColorCorrection(*colorCorrection)
	if err != nil {
		log.Log(config.LevelFatal, "upscalevid: bad -color_correction", "err", err.Error())
		os.Exit(2)
	}

	cfg := &config.Config{
		Logger:           log,
		LogLevel:         int8(*logVerbosity),
		BatchSize:        *batchSize,
		TemporalOverlap:  *temporalOverlap,
		PreserveVRAM:     *preserveVRAM,
		ResW:             *resW,
		InputNoiseScale:  *inputNoiseScale,
		CFGScale:         *cfgScale,
		Seed:             *seed,
		LatentNoiseScale: *latentNoiseScale,
		ColorCorrection:  cc,
		LuminanceWeight:  *luminanceWeight,
		DiTDevice:        *ditDevice,
		VAEDevice:        *vaeDevice,
	}

	frames, err := loadFrames(*framesDir)
	if err != nil {
		log.Log(config.LevelFatal, "upscalevid: loading frames failed", "err", err.Error())
		os.Exit(1)
	}

	placeholderEmbedding := videotensor.New([4]int{1, 1, 1, 1}, videotensor.LayoutCTHW)
	collab := pipeline.Collaborators{
		VAE:       &demoops.VAE{},
		DiT:       &demoops.DiT{},
		Scheduler: demoops.Scheduler{},
		Stager:    &demoops.Stager{},
		Alpha:     demoops.Alpha{},
		Texts:     ops.TextEmbeddings{Positive: placeholderEmbedding, Negative: placeholderEmbedding},
	}

	p, err := pipeline.New(cfg, collab)
	if err != nil {
		log.Log(config.LevelFatal, "upscalevid: pipeline.New failed", "err", err.Error())
		os.Exit(1)
	}

	out, err := p.Run(context.Background(), frames, nil)
	if err != nil {
		log.Log(config.LevelFatal, "upscalevid: pipeline run failed", "err", err.Error())
		os.Exit(1)
	}

	if err := writeFrames(*outDir, out); err != nil {
		log.Log(config.LevelFatal, "upscalevid: writing output frames failed", "err", err.Error())
		os.Exit(1)
	}

	log.Log(config.LevelInfo, "upscalevid: done", "frames", out.Shape[0], "out", *outDir)
}

func parseColorCorrection(s string) (config.ColorCorrection, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return config.ColorNone, nil
	case "adain":
		return config.ColorAdaIN, nil
	case "wavelet":
		return config.ColorWavelet, nil
	case "wavelet_adaptive":
		return config.ColorWaveletAdaptive, nil
	case "lab":
		return config.ColorLAB, nil
	case "hsv":
		return config.ColorHSV, nil
	default:
		return config.ColorNone, fmt.Errorf("unrecognised color_correction %q", s)
	}
}

// loadFrames reads every png/jpg/jpeg file in dir in lexical order,
// resizes them all to the first frame's dimensions with
// golang.org/x/image/draw if they differ, and returns a LayoutTHWC
// tensor with values in [0,1]. The channel count is 4 (RGBA) if any
// frame decoded as *image.NRGBA or *image.RGBA has a non-opaque pixel,
// else 3; alpha in other image types is not inspected.
func loadFrames(dir string) (*videotensor.Tensor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".png" || ext == ".jpg" || ext == ".jpeg" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("loadFrames: no png/jpg files found in %s", dir)
	}

	imgs := make([]image.Image, len(names))
	hasAlpha := false
	for i, name := range names {
		img, err := decodeImage(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loadFrames: %s: %w", name, err)
		}
		imgs[i] = img
		if imageHasAlpha(img) {
			hasAlpha = true
		}
	}

	bounds := imgs[0].Bounds()
	W, H := bounds.Dx(), bounds.Dy()
	for i, img := range imgs {
		b := img.Bounds()
		if b.Dx() != W || b.Dy() != H {
			imgs[i] = resizeImage(img, W, H)
		}
	}

	C := 3
	if hasAlpha {
		C = 4
	}
	out := videotensor.New([4]int{len(imgs), H, W, C}, videotensor.LayoutTHWC)
	for t, img := range imgs {
		nrgba := toNRGBA(img)
		for h := 0; h < H; h++ {
			for w := 0; w < W; w++ {
				px := nrgba.NRGBAAt(w, h)
				out.Set(t, h, w, 0, float32(px.R)/255)
				out.Set(t, h, w, 1, float32(px.G)/255)
				out.Set(t, h, w, 2, float32(px.B)/255)
				if C == 4 {
					out.Set(t, h, w, 3, float32(px.A)/255)
				}
			}
		}
	}
	return out, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func imageHasAlpha(img image.Image) bool {
	switch img.(type) {
	case *image.NRGBA, *image.RGBA:
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				_, _, _, a := img.At(x, y).RGBA()
				if a != 0xffff {
					return true
				}
			}
		}
	}
	return false
}

func resizeImage(img image.Image, w, h int) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}

// writeFrames encodes each frame of t (LayoutTHWC, values in [0,1]) as
// a PNG file under dir.
func writeFrames(dir string, t *videotensor.Tensor) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	T, H, W, C := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	for f := 0; f < T; f++ {
		img := image.NewNRGBA(image.Rect(0, 0, W, H))
		for h := 0; h < H; h++ {
			for w := 0; w < W; w++ {
				r := clampByte(t.At(f, h, w, 0))
				g := clampByte(t.At(f, h, w, 1))
				b := clampByte(t.At(f, h, w, 2))
				a := uint8(255)
				if C == 4 {
					a = clampByte(t.At(f, h, w, 3))
				}
				img.SetNRGBA(w, h, color.NRGBA{R: r, G: g, B: b, A: a})
			}
		}
		out, err := os.Create(filepath.Join(dir, fmt.Sprintf("frame_%06d.png", f)))
		if err != nil {
			return err
		}
		err = png.Encode(out, img)
		closeErr := out.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return closeErr
		}
	}
	return nil
}

func clampByte(v float32) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v*255 + 0.5)
}
