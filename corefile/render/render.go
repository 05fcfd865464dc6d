// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render draws a core file's loadable sections as a labelled
// memory map, encoded as a PNG. It backs `cmd/coredump -memmap-png`.
//
// The drawing sequence (load a font, build an image.NRGBA, draw into
// it, encode) is ported from cmd/memanim's animation frame renderer;
// this package draws one static frame instead of a sequence.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"io/ioutil"
	"math"
	"os"
	"sort"

	"github.com/golang/freetype"

	"github.com/aclements/corefile"
)

// Options configures the rendered image.
type Options struct {
	Width, Height int

	// FontPath names a TrueType font file used for section labels.
	// There is no fontconfig equivalent in Go, so this defaults to
	// the same hardcoded DejaVu Sans path the teacher's tooling used.
	//
	// TODO: find a portable way to discover a system font.
	FontPath string
}

// DefaultOptions returns reasonable defaults for an 80-column terminal
// screenshot-sized map.
func DefaultOptions() Options {
	return Options{
		Width:    800,
		Height:   600,
		FontPath: "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	}
}

var roleColor = map[corefile.SectionRole]color.NRGBA{
	corefile.RoleGeneral:     {0x4c, 0x72, 0xb0, 0xff},
	corefile.RoleFloat:       {0xdd, 0x85, 0x52, 0xff},
	corefile.RoleAux:         {0x55, 0xa8, 0x68, 0xff},
	corefile.RoleStackCookie: {0xc4, 0x4e, 0x52, 0xff},
	corefile.RoleSiginfo:     {0x81, 0x72, 0xb2, 0xff},
	corefile.RoleSpuContext:  {0x93, 0x78, 0x60, 0xff},
	corefile.RoleSpuRegs:     {0xda, 0x8b, 0xc3, 0xff},
	corefile.RoleMemory:      {0x8c, 0x8c, 0x8c, 0xff},
	corefile.RoleOther:       {0xcc, 0xb9, 0x74, 0xff},
}

// Render draws every loadable section of table onto a VMA axis and
// writes the result to w as a PNG.
func Render(table *corefile.SectionTable, opt Options, w io.Writer) error {
	sections := loadableSections(table)
	if len(sections) == 0 {
		return fmt.Errorf("render: no loadable sections to draw")
	}

	sizes := make([]float64, 0, len(sections))
	for _, s := range sections {
		sizes = append(sizes, float64(s.VMA)+float64(s.Size)+1)
	}
	axis := newVMAAxis(append(sizes, 1))

	img := image.NewNRGBA(image.Rect(0, 0, opt.Width, opt.Height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	for _, s := range sections {
		y0, ok0 := axis.row(float64(s.VMA)+1, opt.Height)
		y1, ok1 := axis.row(float64(s.VMA)+float64(s.Size)+1, opt.Height)
		if !ok0 || !ok1 {
			continue
		}
		top, bottom := int(y1), int(y0)
		if top > bottom {
			top, bottom = bottom, top
		}
		if bottom == top {
			bottom = top + 1
		}
		c := roleColor[corefile.Classify(s.Name)]
		rect := image.Rect(20, top, opt.Width-20, bottom)
		draw.Draw(img, rect.Intersect(img.Bounds()), &image.Uniform{C: c}, image.Point{}, draw.Src)
	}

	if opt.FontPath != "" {
		if err := drawLabels(img, sections, axis, opt); err != nil {
			// Labels are cosmetic; a missing font shouldn't fail the
			// whole render.
			fmt.Fprintf(os.Stderr, "render: %v\n", err)
		}
	}

	enc := png.Encoder{CompressionLevel: png.BestCompression}
	return enc.Encode(w, img)
}

func loadableSections(table *corefile.SectionTable) []corefile.Section {
	var out []corefile.Section
	for _, s := range table.All() {
		if s.Flags&corefile.SectionLoad != 0 {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VMA < out[j].VMA })
	return out
}

// vmaAxis maps an address (a VMA, or a VMA+size end-point, each
// offset by 1 so a zero VMA doesn't take a log of zero) logarithmically
// onto a pixel row. Section sizes and addresses span many orders of
// magnitude (a few bytes of .reg up to gigabyte mappings), hence the
// log scale rather than a linear one.
type vmaAxis struct {
	logMin, denom float64
}

func newVMAAxis(domain []float64) vmaAxis {
	min, max := domain[0], domain[0]
	for _, x := range domain {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	return vmaAxis{logMin: math.Log(min), denom: math.Log(max) - math.Log(min)}
}

// row maps x onto a pixel row in [0, height], inverted so larger
// addresses draw higher in the image. ok is false if x falls outside
// the axis's domain.
func (a vmaAxis) row(x float64, height int) (y float64, ok bool) {
	norm := (math.Log(x) - a.logMin) / a.denom
	if norm < 0 || norm > 1 {
		return 0, false
	}
	return float64(height) * (1 - norm), true
}

func drawLabels(img *image.NRGBA, sections []corefile.Section, axis vmaAxis, opt Options) error {
	fontData, err := ioutil.ReadFile(opt.FontPath)
	if err != nil {
		return err
	}
	font, err := freetype.ParseFont(fontData)
	if err != nil {
		return err
	}

	ctx := freetype.NewContext()
	ctx.SetFontSize(10)
	ctx.SetFont(font)
	ctx.SetSrc(image.Black)
	ctx.SetDst(img)
	ctx.SetClip(img.Bounds())

	for _, s := range sections {
		y, ok := axis.row(float64(s.VMA)+1, opt.Height)
		if !ok {
			continue
		}
		label := fmt.Sprintf("%s %s (%s)", s.VMA, s.Name, corefile.Classify(s.Name))
		if _, err := ctx.DrawString(label, freetype.Pt(opt.Width-18+2, int(y)+10)); err != nil {
			return err
		}
	}
	return nil
}
