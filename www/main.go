//go:build js && wasm

package main

import (
	"context"
	"fmt"
	"syscall/js"

	"linetrace/pkg/cfg"
	"linetrace/pkg/raster"
	"linetrace/pkg/vectorize"
)

func main() {
	js.Global().Set("goLineTrace", js.FuncOf(goLineTrace))
	<-make(chan any)
}

// goLineTrace is the entry point from JavaScript. It takes RGBA pixel data,
// width, height, and an options object, and returns the SVG markup string
// (or an object with an "error" property).
func goLineTrace(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return js.ValueOf(map[string]any{"error": "need pixels, width, height"})
	}
	pixels := args[0]
	width := args[1].Int()
	height := args[2].Int()

	data := make([]byte, pixels.Length())
	js.CopyBytesToGo(data, pixels)

	c := cfg.Default()
	if len(args) > 3 && args[3].Type() == js.TypeObject {
		applyOptions(&c, args[3])
	}

	buf := &raster.Buffer{Width: width, Height: height, Channels: 4, Pix: data}
	res, err := vectorize.Run(context.Background(), buf, &c, func(stage string, pct int) {
		fmt.Printf("linetrace: %s %d%%\n", stage, pct)
	})
	if err != nil {
		return js.ValueOf(map[string]any{"error": err.Error()})
	}
	return js.ValueOf(string(res.SVG))
}

func applyOptions(c *cfg.Config, opts js.Value) {
	if v := opts.Get("detail"); v.Type() == js.TypeNumber {
		c.Detail = v.Float()
	}
	if v := opts.Get("strokeWidth"); v.Type() == js.TypeNumber {
		c.StrokeWidth = v.Float()
	}
	if v := opts.Get("handDrawn"); v.Type() == js.TypeString {
		if p, err := cfg.ParsePreset(v.String()); err == nil {
			c.HandDrawn.Preset = p
		}
	}
	if v := opts.Get("multipass"); v.Type() == js.TypeBoolean && v.Bool() {
		c.Multipass = true
		c.ReversePass = true
		c.DiagonalPass = true
	}
	if v := opts.Get("preserveColor"); v.Type() == js.TypeBoolean && v.Bool() {
		c.ColorMode = cfg.PreserveColor
	}
	if v := opts.Get("seed"); v.Type() == js.TypeNumber {
		c.Seed = int64(v.Int())
	}
}
