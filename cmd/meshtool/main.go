// meshtool is a CLI utility for inspecting and converting 3D geometry files.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshkit/internal/config"
	"github.com/Faultbox/meshkit/internal/logger"
	"github.com/Faultbox/meshkit/pkg/formats"
	"github.com/Faultbox/meshkit/pkg/result"
	"github.com/Faultbox/meshkit/pkg/scene"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "info":
		cmdInfo(cfg, args[1:])
	case "validate":
		cmdValidate(cfg, args[1:])
	case "convert":
		cmdConvert(cfg, args[1:])
	case "json":
		cmdJSON(cfg, args[1:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshtool - 3D geometry inspection and conversion utility

Usage:
  meshtool [flags] <command> [arguments]

Commands:
  info <file>              Show scene information
  validate <file>          Decode and validate, reporting the first violation
  convert <file> [output]  Convert to the target format (see -target)
  json <file>              Print the decode outcome as JSON

Flags:
  -config path    Path to config file
  -debug          Enable debug logging
  -max-size MB    Max input file size in MB
  -target fmt     Convert target format: ply or obj

Supported formats: Wavefront OBJ, PLY (ascii and binary), glTF (embedded buffers)

Examples:
  meshtool info model.obj
  meshtool -target obj convert scan.ply out.obj
  meshtool json model.gltf`)
}

// checkInputSize enforces the configured size cap before a file is read.
// The decoders themselves have no limits; bounding work is the caller's job.
func checkInputSize(cfg *config.Config, path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if maxBytes := int64(cfg.Decode.MaxInputSizeMB) * 1024 * 1024; st.Size() > maxBytes {
		return fmt.Errorf("%s is %d bytes, over the %d MB limit",
			path, st.Size(), cfg.Decode.MaxInputSizeMB)
	}
	return nil
}

func decode(cfg *config.Config, path string) (*scene.Scene, error) {
	if err := checkInputSize(cfg, path); err != nil {
		return nil, err
	}

	start := time.Now()
	s, err := formats.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("decoded scene",
		zap.String("file", path),
		zap.String("format", s.Metadata.Format),
		zap.Int("vertices", s.Metadata.VertexCount),
		zap.Int("faces", s.Metadata.FaceCount),
		zap.Duration("took", time.Since(start)))
	return s, nil
}

func cmdInfo(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool info <file>")
		os.Exit(1)
	}

	s, err := decode(cfg, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("File:     %s\n", args[0])
	fmt.Printf("Format:   %s\n", s.Metadata.Format)
	fmt.Printf("Meshes:   %d\n", len(s.Meshes))
	fmt.Printf("Vertices: %d\n", s.Metadata.VertexCount)
	fmt.Printf("Faces:    %d\n", s.Metadata.FaceCount)
	if bb := s.Metadata.BoundingBox; bb != nil {
		fmt.Printf("Bounds:   min (%g, %g, %g) max (%g, %g, %g)\n",
			bb.Min.X, bb.Min.Y, bb.Min.Z, bb.Max.X, bb.Max.Y, bb.Max.Z)
	}
	if len(s.Materials) > 0 {
		fmt.Println("Materials:")
		for _, m := range s.Materials {
			fmt.Printf("  %s\n", m.Name)
		}
	}
	for _, m := range s.Meshes {
		fmt.Printf("Mesh %q: %d vertices, %d faces\n", m.Name, len(m.Vertices), len(m.Faces))
	}
}

func cmdValidate(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool validate <file>")
		os.Exit(1)
	}

	// Decoders validate before returning, so any structural violation
	// surfaces here with its location.
	if _, err := decode(cfg, args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
}

func cmdConvert(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool convert <file> [output]")
		os.Exit(1)
	}

	s, err := decode(cfg, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var out string
	switch cfg.Convert.Target {
	case "ply":
		out, err = formats.EncodePLY(s)
	case "obj":
		out, err = formats.EncodeOBJ(s)
	default:
		err = fmt.Errorf("unknown convert target %q", cfg.Convert.Target)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(args) > 1 {
		if err := os.WriteFile(args[1], []byte(out), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger.Info("wrote converted scene",
			zap.String("output", args[1]),
			zap.String("target", cfg.Convert.Target))
		return
	}
	fmt.Print(out)
}

func cmdJSON(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool json <file>")
		os.Exit(1)
	}

	if err := checkInputSize(cfg, args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	res := result.From(formats.DecodeFile(args[0]))
	enc, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(enc))

	if !res.OK() {
		os.Exit(1)
	}
}
