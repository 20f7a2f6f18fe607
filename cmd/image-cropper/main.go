package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	imagecropper "github.com/menta2k/image-cropper"
	"github.com/menta2k/image-cropper/internal/config"
	"github.com/menta2k/image-cropper/internal/tui"
	"github.com/menta2k/image-cropper/internal/utils"
	"github.com/menta2k/image-cropper/pkg/batch"
	"github.com/menta2k/image-cropper/pkg/processing"
	"github.com/menta2k/image-cropper/pkg/session"
	"github.com/menta2k/image-cropper/pkg/types"
)

func main() {
	var cfgPath, boxArg, ratio, outDir, ext, preview string
	var quality int
	var lossless, overwrite, interactive, writeConfig bool

	flag.StringVar(&cfgPath, "config", config.GetConfigPath(), "config file (JSON)")
	flag.StringVar(&boxArg, "box", "", "crop box in reference image pixels: x1,y1,x2,y2")
	flag.StringVar(&ratio, "ratio", "", "ratio lock: free|original|current|1:1|16:9|4:3|3:2|golden|w:h")
	flag.StringVar(&outDir, "out", "", "output directory (default from config)")
	flag.StringVar(&ext, "ext", "", "output format: jpg|png|webp (default keeps input format)")
	flag.IntVar(&quality, "quality", 0, "JPEG/WebP output quality (1-100)")
	flag.BoolVar(&lossless, "lossless", false, "WebP output lossless mode")
	flag.BoolVar(&overwrite, "overwrite", false, "write crops over the input files")
	flag.StringVar(&preview, "preview", "", "write the reference image with the box drawn on it to this path")
	flag.BoolVar(&interactive, "tui", false, "edit the box interactively in the terminal")
	flag.BoolVar(&writeConfig, "write-config", false, "save the effective configuration to -config and exit")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["ratio"] {
		cfg.Session.DefaultRatio = ratio
	}
	if set["out"] {
		cfg.Output.OutputDir = outDir
	}
	if set["ext"] {
		cfg.Output.DefaultFormat = strings.TrimPrefix(strings.ToLower(ext), ".")
	}
	if set["quality"] {
		cfg.Output.Quality = quality
	}
	if set["lossless"] {
		cfg.Output.Lossless = lossless
	}
	if set["overwrite"] {
		cfg.Output.Overwrite = overwrite
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if writeConfig {
		if err := cfg.SaveToFile(cfgPath); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s", cfgPath)
		return
	}

	if flag.NArg() == 0 || (boxArg == "" && preview == "" && !interactive) {
		log.Fatalf("usage: %s [-box x1,y1,x2,y2] [-ratio 16:9] [-out dir] [-ext jpg|png|webp] [-preview overlay.png] [-tui] image|dir ...", filepath.Base(os.Args[0]))
	}

	inputs, err := utils.ExpandInputs(flag.Args(), cfg.Input.SupportedFormats)
	if err != nil {
		log.Fatal(err)
	}

	lock, err := cfg.LockRequest()
	if err != nil {
		log.Fatal(err)
	}
	ic := imagecropper.NewWithConfig(session.Options{
		MaxHistory: cfg.Session.MaxHistory,
		Tolerance:  cfg.Session.HandleTolerance,
		Namer:      utils.OutputNamer(cfg.Output),
		Lock:       &lock,
	}, processing.Options{
		Quality:  cfg.Output.Quality,
		Lossless: cfg.Output.Lossless,
	})

	s, err := ic.Open(inputs)
	if err != nil {
		var all *batch.AllImagesUnreadableError
		if errors.As(err, &all) {
			for _, f := range all.Failures {
				log.Printf("unreadable: %s: %v", f.Path, f.Err)
			}
		}
		log.Fatal(err)
	}
	describe(s)

	if boxArg != "" {
		box, err := types.ParseCropBox(boxArg)
		if err != nil {
			log.Fatalf("invalid -box: %v", err)
		}
		got, err := s.SetBox(box)
		if err != nil {
			log.Fatal(err)
		}
		if got != box.Normalize() {
			log.Printf("box adjusted to %s", got)
		}
	}

	if preview != "" {
		if err := ic.SavePreview(s, preview); err != nil {
			log.Fatalf("preview failed: %v", err)
		}
		log.Printf("wrote %s", preview)
	}

	switch {
	case interactive:
		img, err := ic.LoadReference(s)
		if err != nil {
			log.Fatal(err)
		}
		final, err := tui.Run(tui.New(s, ic.Processor(), img))
		if err != nil {
			log.Fatal(err)
		}
		if res := final.Result(); res != nil {
			report(res)
		} else {
			log.Printf("no crop committed; last box %s", s.Box())
		}
	case boxArg != "":
		res, err := s.Commit()
		report(res)
		if err != nil {
			log.Fatal(err)
		}
	}
}

func describe(s *session.Session) {
	sel := s.Selection()
	log.Printf("reference %s (%s), %d image(s)", s.Reference(), s.Bounds(), len(sel.Paths))
	if sel.IsMultiSize {
		log.Printf("images differ in size: only the reference will be cropped")
	}
	for _, u := range sel.Unreadable {
		log.Printf("skipping %s: %v", u.Path, u.Err)
	}
}

func report(res *session.CommitResult) {
	if res == nil {
		return
	}
	ins := make([]string, 0, len(res.Written))
	for in := range res.Written {
		ins = append(ins, in)
	}
	sort.Strings(ins)

	for _, in := range ins {
		out := res.Written[in]
		size := ""
		if info, err := os.Stat(out); err == nil {
			size = fmt.Sprintf(" (%s)", utils.FormatFileSize(info.Size()))
		}
		log.Printf("wrote %s%s", out, size)
	}
	for _, p := range res.Skipped {
		log.Printf("skipped %s", p)
	}
	for p, err := range res.Failed {
		log.Printf("crop %s failed: %v", p, err)
	}
	log.Printf("box %s (%dx%d)", res.Box, res.Box.Width(), res.Box.Height())
}
