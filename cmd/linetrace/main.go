package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"time"

	"linetrace/pkg/cfg"
	"linetrace/pkg/raster"
	"linetrace/pkg/vectorize"
)

func main() {
	var (
		detail    = flag.Float64("detail", 0.5, "detail level in [0,1]")
		width     = flag.Float64("stroke-width", 1.2, "base stroke width at 1080p reference")
		preset    = flag.String("hand-drawn", "none", "stylization preset: none, subtle, medium, strong")
		multipass = flag.Bool("multipass", false, "enable reverse and diagonal tracing passes")
		flowField = flag.Bool("flow", false, "enable the tangent flow field")
		noise     = flag.Bool("noise-filter", false, "enable noise filtering before detection")
		preserve  = flag.Bool("preserve-color", false, "sample path colors from the source image")
		lineColor = flag.String("color", "#000000", "uniform line color for line-only mode")
		precision = flag.Int("precision", 2, "output coordinate decimal places")
		seed      = flag.Int64("seed", 42, "stylization random seed")
		budget    = flag.Duration("budget", 0, "optional processing time budget, e.g. 2s")
		output    = flag.String("o", "", "output file (default stdout)")
		quiet     = flag.Bool("q", false, "suppress the stats summary")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] image-file\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("open error: %s", err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		log.Fatalf("decode error: %s", err)
	}

	c := cfg.Default()
	c.Detail = *detail
	c.StrokeWidth = *width
	c.Multipass = *multipass
	c.ReversePass = *multipass
	c.DiagonalPass = *multipass
	c.FlowField = *flowField
	c.NoiseFiltering = *noise
	c.LineColor = *lineColor
	c.Precision = *precision
	c.Seed = *seed
	c.TimeBudget = *budget
	if *preserve {
		c.ColorMode = cfg.PreserveColor
	}
	c.HandDrawn.Preset, err = cfg.ParsePreset(*preset)
	if err != nil {
		log.Fatalf("flag error: %s", err)
	}

	res, err := vectorize.Run(context.Background(), raster.FromImage(img), &c, nil)
	if err != nil {
		log.Fatalf("vectorize error: %s", err)
	}

	out := os.Stdout
	if *output != "" {
		out, err = os.Create(*output)
		if err != nil {
			log.Fatalf("output error: %s", err)
		}
		defer out.Close()
	}
	if _, err := out.Write(res.SVG); err != nil {
		log.Fatalf("write error: %s", err)
	}
	fmt.Fprintln(out)

	if !*quiet {
		fmt.Fprintf(os.Stderr, "%d paths, %d bytes, %s\n",
			res.Stats.PathCount, res.Stats.OutputSizeBytes,
			time.Duration(res.Stats.ProcessingTimeMS)*time.Millisecond)
		for _, w := range res.Stats.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
	}
}
