package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli"

	"github.com/Bruno02468/gifception/internal/analyzer"
	"github.com/Bruno02468/gifception/internal/animator"
	"github.com/Bruno02468/gifception/internal/config"
	"github.com/Bruno02468/gifception/internal/engine"
	"github.com/Bruno02468/gifception/internal/source"
	"github.com/Bruno02468/gifception/internal/system"
)

// transformFlags are shared by every command that builds images.
func transformFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{Name: "input, i", Usage: "image, PDF or directory to animate; qr:DATA builds a QR code"},
		cli.BoolFlag{Name: "latest", Usage: "animate the newest image inside the input directory"},
		cli.IntFlag{Name: "page, p", Usage: "page or file index inside the input"},
		cli.IntFlag{Name: "dpi", Value: 150, Usage: "render DPI for PDF pages"},
		cli.StringFlag{Name: "config, c", Usage: "YAML settings file"},
		cli.StringFlag{Name: "anchor, a", Usage: "zoom anchor as relative X,Y in [0,1]"},
		cli.StringFlag{Name: "anchor-abs", Usage: "zoom anchor as absolute pixel X,Y"},
		cli.BoolFlag{Name: "auto-anchor", Usage: "let the analyzer pick the anchor"},
		cli.Float64Flag{Name: "preup", Usage: "upscale factor applied to the base before nesting"},
		cli.Float64Flag{Name: "inner-scale", Usage: "how much smaller each nested copy is"},
		cli.Float64Flag{Name: "downscale", Usage: "shrink factor applied to finished frames"},
		cli.IntFlag{Name: "frames, n", Usage: "number of frames in the loop"},
		cli.IntFlag{Name: "fps", Usage: "frames per second"},
		cli.BoolFlag{Name: "no-paste-within", Usage: "skip the extra nested paste on every frame"},
		cli.IntFlag{Name: "workers, w", Usage: "parallel frame workers (default: all CPUs)"},
		cli.Int64Flag{Name: "max-pixels", Usage: "pixel budget for scaling; 0 derives it from free memory, negative disables it"},
		cli.StringFlag{Name: "filter", Usage: "resampling filter: catmullrom, bilinear, approx-bilinear or nearest"},
	}
}

func renderCommand() cli.Command {
	return cli.Command{
		Name:    "render",
		Aliases: []string{"r"},
		Usage:   "Render the full animation for an input image",
		Flags: append(transformFlags(),
			cli.StringFlag{Name: "output, o", Usage: "output path (default: derived from the input name)"},
			cli.StringFlag{Name: "format, f", Usage: "gif, webm or mp4 (default: from the output extension)"},
			cli.StringFlag{Name: "backend, b", Usage: "animation backend (default: first one that writes the format)"},
			cli.BoolFlag{Name: "overwrite, y", Usage: "replace the output file if it exists"},
			cli.BoolFlag{Name: "keep-frames", Usage: "keep the frame directory around afterwards"},
			cli.DurationFlag{Name: "timeout", Usage: "give up if the frames take longer than this"},
		),
		Action: runRender,
	}
}

func nestedCommand() cli.Command {
	return cli.Command{
		Name:    "nested",
		Aliases: []string{"n"},
		Usage:   "Build only the nested base image, for previewing the anchor",
		Flags: append(transformFlags(),
			cli.StringFlag{Name: "output, o", Value: "nested.png", Usage: "where to write the PNG"},
		),
		Action: runNested,
	}
}

func runRender(c *cli.Context) error {
	system.RaiseFileLimit()

	g, settings, input, err := setup(c)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := g.PrepareNestedBase(); err != nil {
		return err
	}
	w, h := g.NestedBase().Size()
	fmt.Printf("[*] Nested base ready: %dx%d in %.1fs\n", w, h, time.Since(start).Seconds())
	fmt.Printf("[*] %d frames at %d fps on %d workers\n",
		settings.Params.NumFrames, settings.Params.FPS, settings.Config.Workers)

	dir, err := g.StartFrames()
	if err != nil {
		return err
	}
	keep := c.Bool("keep-frames")
	defer func() {
		if keep {
			files, _ := dir.List()
			fmt.Printf("[*] %d frames kept in %s\n", len(files), dir.Path())
			return
		}
		if err := dir.Remove(); err != nil {
			log.Debugf("removing frame dir: %v", err)
		}
	}()

	bar := newBar(settings.Params.NumFrames, "[*] Rendering")
	waitErr := make(chan error, 1)
	go func() { waitErr <- g.WaitFrames(c.Duration("timeout")) }()

	tick := time.NewTicker(150 * time.Millisecond)
	defer tick.Stop()
wait:
	for {
		select {
		case err := <-waitErr:
			if errors.Is(err, engine.ErrWaitTimeout) {
				keep = true
				fmt.Printf("\n[!] Still rendering after %s\n", c.Duration("timeout"))
				return err
			}
			if err != nil {
				fmt.Println()
				return err
			}
			_ = bar.Finish()
			fmt.Println()
			break wait
		case <-tick.C:
			done, _ := g.Progress()
			_ = bar.Set(done)
		}
	}

	output := c.String("output")
	if output == "" {
		output = defaultOutput(input)
	}
	format := animator.InferFormat(output, c.String("format"))
	if format == "" {
		format = "gif"
	}

	var backend animator.Backend
	if name := c.String("backend"); name != "" {
		backend, err = animator.ByName(name)
	} else {
		backend, err = animator.ForFormat(format)
	}
	if err != nil {
		return err
	}

	fmt.Printf("[*] Encoding %s with the %s backend\n", format, backend.Name())
	final, err := animator.Animate(context.Background(), backend, dir, settings.Params, output, format, c.Bool("overwrite"))
	if err != nil {
		return err
	}
	fmt.Printf("[+++] Done! %s\n", final)
	return nil
}

func runNested(c *cli.Context) error {
	g, _, _, err := setup(c)
	if err != nil {
		return err
	}
	if err := g.PrepareNestedBase(); err != nil {
		return err
	}

	nested := g.NestedBase()
	w, h := nested.Size()
	out := c.String("output")
	if err := nested.SavePNG(out); err != nil {
		return err
	}
	fmt.Printf("[+++] Nested base (%dx%d) written to %s\n", w, h, out)
	return nil
}

// setup turns the command line into a ready-to-run engine.
func setup(c *cli.Context) (*engine.Gifception, config.File, string, error) {
	settings, err := loadSettings(c)
	if err != nil {
		return nil, settings, "", err
	}

	input, err := inputPath(c)
	if err != nil {
		return nil, settings, "", err
	}
	if c.Bool("latest") {
		input, err = source.LatestImage(input)
		if err != nil {
			return nil, settings, "", err
		}
		fmt.Printf("[*] Picked the newest image: %s\n", input)
	}

	img, err := loadBase(c, input)
	if err != nil {
		return nil, settings, "", err
	}

	g, err := engine.NewGifception(img, settings.Config, settings.Params)
	if err != nil {
		return nil, settings, "", err
	}
	if err := applyAnchor(c, g, img); err != nil {
		return nil, settings, "", err
	}

	b := img.Bounds()
	ax, ay := g.AnchorAbsolute()
	fmt.Printf("[*] Base %dx%d with anchor (%.0f, %.0f)\n", b.Dx(), b.Dy(), ax, ay)
	return g, settings, input, nil
}

// loadSettings layers explicit flags over the settings file, which itself
// sits over the defaults.
func loadSettings(c *cli.Context) (config.File, error) {
	settings := config.DefaultFile()
	if path := c.String("config"); path != "" {
		var err error
		settings, err = config.Load(path)
		if err != nil {
			return settings, err
		}
	}

	if c.IsSet("preup") {
		settings.Params.Preup = c.Float64("preup")
	}
	if c.IsSet("inner-scale") {
		settings.Params.InnerScale = c.Float64("inner-scale")
	}
	if c.IsSet("downscale") {
		settings.Params.Downscale = c.Float64("downscale")
	}
	if c.IsSet("frames") {
		settings.Params.NumFrames = c.Int("frames")
	}
	if c.IsSet("fps") {
		settings.Params.FPS = c.Int("fps")
	}
	if c.Bool("no-paste-within") {
		settings.Params.PasteWithin = false
	}
	if c.IsSet("filter") {
		settings.Config.Filter = c.String("filter")
	}
	if c.IsSet("max-pixels") {
		settings.Config.MaxPixels = c.Int64("max-pixels")
	}

	if c.IsSet("workers") {
		settings.Config.Workers = c.Int("workers")
	} else if !c.IsSet("config") {
		// Interactive runs get the whole machine unless a settings file
		// says otherwise.
		settings.Config.Workers = runtime.NumCPU()
	}

	if settings.Config.MaxPixels == 0 {
		budget, err := system.AutoMaxPixels()
		if err != nil {
			return settings, fmt.Errorf("deriving a pixel budget: %w", err)
		}
		settings.Config.MaxPixels = budget
		fmt.Printf("[*] Pixel budget from free memory: %d\n", budget)
	}
	return settings, nil
}

func inputPath(c *cli.Context) (string, error) {
	if p := c.String("input"); p != "" {
		return p, nil
	}
	if p := c.Args().Get(0); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("an input is required: an image, a PDF, a directory or qr:DATA")
}

func loadBase(c *cli.Context, input string) (image.Image, error) {
	src, err := source.Open(input, c.Int("dpi"))
	if err != nil {
		return nil, err
	}
	defer src.Close()

	page := c.Int("page")
	if count := src.PageCount(); page < 0 || page >= count {
		return nil, fmt.Errorf("page %d out of range, the input has %d", page, count)
	}
	return src.Render(page)
}

func applyAnchor(c *cli.Context, g *engine.Gifception, img image.Image) error {
	switch {
	case c.Bool("auto-anchor"):
		x, y, err := analyzer.SuggestAnchor(img, analyzer.NewContrastDetector())
		if errors.Is(err, analyzer.ErrNoRegions) {
			fmt.Println("[!] Nothing interesting detected, keeping the center anchor")
			return nil
		}
		if err != nil {
			return err
		}
		if err := g.SetAnchorAbsolute(x, y); err != nil {
			return err
		}
		fmt.Printf("[*] Anchor picked by the analyzer: (%.0f, %.0f)\n", x, y)
	case c.IsSet("anchor-abs"):
		x, y, err := parseXY(c.String("anchor-abs"))
		if err != nil {
			return err
		}
		return g.SetAnchorAbsolute(x, y)
	case c.IsSet("anchor"):
		x, y, err := parseXY(c.String("anchor"))
		if err != nil {
			return err
		}
		return g.SetAnchorRelative(x, y)
	}
	return nil
}

func parseXY(s string) (x, y float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("anchor %q must look like X,Y", s)
	}
	x, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err == nil {
		y, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("anchor %q must look like X,Y", s)
	}
	return x, y, nil
}

func defaultOutput(input string) string {
	var name string
	if strings.HasPrefix(input, "qr:") {
		name = "qrcode"
	} else {
		base := filepath.Base(input)
		name = strings.TrimSuffix(base, filepath.Ext(base))
		name = strings.ReplaceAll(name, " ", "_")
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return fmt.Sprintf("%s_%s.gif", name, timestamp)
}

func newBar(max int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
