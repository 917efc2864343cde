// Command vdpdump loads a save state, runs it for a number of frames and
// writes the picture as a PNG and the sound as a WAV, along with a register
// and VRAM listing.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/user-none/em99/emu"
	"github.com/user-none/em99/logger"
	"github.com/user-none/em99/snapshot"
	"golang.org/x/image/draw"
)

type options struct {
	statePath string
	pngPath   string
	wavPath   string
	frames    int
	height    int
	vram      string
}

func main() {
	var opts options
	flag.StringVar(&opts.statePath, "state", "", "save state to load (required)")
	flag.StringVar(&opts.pngPath, "png", "", "write the frame to this PNG file")
	flag.StringVar(&opts.wavPath, "wav", "", "write the audio of the frames run to this WAV file")
	flag.IntVar(&opts.frames, "frames", 1, "frames to run before dumping")
	flag.IntVar(&opts.height, "height", 720, "PNG height; width follows a 4:3 picture")
	flag.StringVar(&opts.vram, "vram", "", "VRAM range to list, as addr:length in hex")
	flag.Parse()

	if opts.statePath == "" {
		log.Fatal("state path is required. Usage: vdpdump -state <path> [-png out.png]")
	}
	if err := run(afero.NewOsFs(), opts, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(fs afero.Fs, opts options, out io.Writer) error {
	data, err := afero.ReadFile(fs, opts.statePath)
	if err != nil {
		return err
	}
	state, err := snapshot.Decode(data)
	if err != nil {
		return err
	}

	cfg := emu.DefaultConfig()
	cfg.Variant, _ = emu.StateVariant(state)
	cfg.Region, _ = emu.DetectRegion(state)
	c := emu.NewConsole(cfg)
	if err := c.Deserialize(state); err != nil {
		return err
	}

	logger.Clear()
	var rec wavRecorder
	for i := 0; i < opts.frames; i++ {
		c.RunFrame()
		rec.add(c.GetAudioSamples())
	}

	io.WriteString(out, c.Chip().DumpRegisters())
	if opts.vram != "" {
		addr, length, err := parseRange(opts.vram)
		if err != nil {
			return err
		}
		io.WriteString(out, emu.DumpVRAM(c.Chip(), addr, length))
	}
	logger.Write(out)

	if opts.wavPath != "" {
		if err := createFile(fs, opts.wavPath, func(f afero.File) error {
			return rec.writeTo(f)
		}); err != nil {
			return err
		}
	}
	if opts.pngPath != "" {
		return createFile(fs, opts.pngPath, func(f afero.File) error {
			return writePNG(f, c.Chip().Framebuffer(), opts.height)
		})
	}
	return nil
}

// createFile creates path and hands it to write, closing it afterwards.
func createFile(fs afero.Fs, path string, write func(afero.File) error) error {
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// writePNG scales frame to height rows at a 4:3 aspect ratio.
func writePNG(w io.Writer, frame *image.RGBA, height int) error {
	if height <= 0 {
		height = frame.Bounds().Dy()
	}
	width := height * 4 / 3
	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), frame, frame.Bounds(), draw.Src, nil)
	return png.Encode(w, scaled)
}

// parseRange parses "addr:length" with both parts in hex.
func parseRange(s string) (addr, length int, err error) {
	a, l, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("VRAM range %q: expected addr:length", s)
	}
	av, err := strconv.ParseUint(strings.TrimPrefix(a, "0x"), 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("VRAM range %q: %w", s, err)
	}
	lv, err := strconv.ParseUint(strings.TrimPrefix(l, "0x"), 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("VRAM range %q: %w", s, err)
	}
	return int(av), int(lv), nil
}
