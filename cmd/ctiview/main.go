// Command ctiview inspects and converts CTI images.
//
// Usage:
//
//	ctiview info <input.cti>               Print header fields
//	ctiview dec [options] <input.cti>      Decode to PNG, QOI or TIFF
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xfmoulet/qoi"
	"golang.org/x/image/tiff"

	"github.com/svanichkin/cti"
	"github.com/svanichkin/cti/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	logging.SetLevel(logging.ParseLevel(os.Getenv("CTI_LOG_LEVEL")))

	var err error
	switch os.Args[1] {
	case "info":
		err = runInfo(os.Stdout, os.Args[2:])
	case "dec":
		err = runDec(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "ctiview: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logging.Error("%v", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage:
  ctiview info <input.cti>            Print CTI header fields
  ctiview dec [options] <input.cti>   Decode to PNG, QOI or TIFF

Set CTI_LOG_LEVEL=debug for per-tile traces.
Run "ctiview dec -h" for decode options.
`)
}

// --- info ---

func runInfo(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("info: expected one input file")
	}

	h, err := cti.ReadInfo(fs.Arg(0))
	if err != nil {
		return err
	}
	printHeader(w, h)
	return nil
}

func printHeader(w io.Writer, h cti.Header) {
	fmt.Fprintf(w, "Magic      : %q\n", h.Magic[:])
	fmt.Fprintf(w, "Version    : %d\n", h.Version)
	fmt.Fprintf(w, "Size       : %d x %d\n", h.Width, h.Height)
	fmt.Fprintf(w, "Tiles      : %d x %d  (tile=%d)\n", h.TilesX, h.TilesY, h.TileSize)
	fmt.Fprintf(w, "ColorType  : %d (%s)\n", h.ColorID, h.ColorType())
	fmt.Fprintf(w, "Compression: %d (%s)\n", h.CompID, h.Compression())
	fmt.Fprintf(w, "Quality    : %d\n", h.Quality)
	fmt.Fprintf(w, "Flags      : 0x%04X  (RCT:%v)\n", h.Flags, h.HasRCT())
}

// --- dec ---

type decConfig struct {
	Input    string
	Output   string
	Format   string
	Parallel bool
	Workers  int
	Strict   bool
	Verbose  bool
}

func parseDecFlags(args []string) (*decConfig, error) {
	cfg := &decConfig{}
	fs := flag.NewFlagSet("dec", flag.ContinueOnError)
	fs.StringVar(&cfg.Output, "o", "", "output file (default: input name with the format's extension)")
	fs.StringVar(&cfg.Format, "format", "", "output format: png, qoi, tiff (default: from -o extension, else png)")
	fs.BoolVar(&cfg.Parallel, "parallel", true, "decode tiles on several goroutines")
	fs.IntVar(&cfg.Workers, "workers", 0, "worker goroutines with -parallel (0 = NumCPU)")
	fs.BoolVar(&cfg.Strict, "strict", true, "reject tile grids that do not match the image size")
	fs.BoolVar(&cfg.Verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("dec: expected one input file")
	}
	cfg.Input = fs.Arg(0)

	if cfg.Format == "" {
		cfg.Format = formatFromExt(cfg.Output)
	}
	cfg.Format = strings.ToLower(cfg.Format)
	switch cfg.Format {
	case "png", "qoi", "tiff":
	case "tif":
		cfg.Format = "tiff"
	default:
		return nil, fmt.Errorf("dec: unknown format %q", cfg.Format)
	}
	if cfg.Output == "" {
		base := strings.TrimSuffix(cfg.Input, filepath.Ext(cfg.Input))
		cfg.Output = base + "." + cfg.Format
	}
	return cfg, nil
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".qoi":
		return "qoi"
	case ".tif", ".tiff":
		return "tiff"
	}
	return "png"
}

func runDec(args []string) error {
	cfg, err := parseDecFlags(args)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		logging.SetLevel(logging.LevelDebug)
	}

	dec := &cti.Decoder{Parallel: cfg.Parallel, Workers: cfg.Workers, Strict: cfg.Strict}
	start := time.Now()
	h, pix, err := dec.DecodeFile(cfg.Input)
	if err != nil {
		return fmt.Errorf("decode %s: %w", cfg.Input, err)
	}
	logging.Info("decoded %s: %dx%d %s in %v", cfg.Input, h.Width, h.Height, h.ColorType(), time.Since(start))

	img, err := (&cti.Raster{Header: h, Pix: pix}).Image()
	if err != nil {
		return err
	}

	out, err := os.Create(cfg.Output)
	if err != nil {
		return err
	}
	if err := encodeImage(out, img, cfg.Format); err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", cfg.Output, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	logging.Info("wrote %s (%s)", cfg.Output, cfg.Format)
	return nil
}

func encodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case "qoi":
		return qoi.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return png.Encode(w, img)
}
