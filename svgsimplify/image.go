package svgsimplify

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"net/url"
	"path"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgraw"
	"github.com/benoitkugler/microsvg/svgstyle"
	"github.com/benoitkugler/microsvg/svgtree"
)

var errNoResolver = errors.New("external images are not enabled")

// parseDataURL decodes a data URL, returning its media type.
func parseDataURL(href string) (data []byte, mediaType string, err error) {
	rest := strings.TrimPrefix(strings.TrimSpace(href), "data:")
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return nil, "", errors.New("missing comma in data URL")
	}
	header, payload := rest[:comma], rest[comma+1:]
	isBase64 := strings.HasSuffix(header, ";base64")
	mediaType = strings.TrimSuffix(header, ";base64")
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if !isBase64 {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", fmt.Errorf("invalid data URL: %w", err)
		}
		return []byte(s), mediaType, nil
	}
	payload = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, payload)
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	}
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 data: %w", err)
	}
	return data, mediaType, nil
}

// loadedImage is either a raster image or a simplified svg document.
type loadedImage struct {
	raster image.Image
	format string
	svg    *svgtree.Tree
}

// size returns the intrinsic size of the image.
func (li loadedImage) size() (w, h float64) {
	if li.svg != nil {
		return li.svg.Width, li.svg.Height
	}
	b := li.raster.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

func isSVGData(data []byte, mediaType, href string) bool {
	if mediaType == "image/svg+xml" {
		return true
	}
	if ext := strings.ToLower(path.Ext(href)); ext == ".svg" || ext == ".svgz" {
		return true
	}
	data = bytes.TrimSpace(data)
	return bytes.HasPrefix(data, []byte("<?xml")) || bytes.HasPrefix(data, []byte("<svg"))
}

// loadImage fetches and decodes the image referenced by href.
func (c *converter) loadImage(n *svgstyle.Node, href string) (loadedImage, bool) {
	var (
		data      []byte
		mediaType string
		err       error
	)
	if strings.HasPrefix(strings.TrimSpace(href), "data:") {
		data, mediaType, err = parseDataURL(href)
	} else if c.opts.Images == nil {
		err = errNoResolver
	} else {
		data, err = c.opts.Images(href)
	}
	if err != nil {
		n.Warn(svgtree.UnresolvableReference, "image %q not loaded: %s", shortHref(href), err)
		return loadedImage{}, false
	}

	// compressed svg
	if len(data) > 2 && data[0] == 0x1f && data[1] == 0x8b {
		if zr, err := gzip.NewReader(bytes.NewReader(data)); err == nil {
			if unzipped, err := io.ReadAll(zr); err == nil {
				data, mediaType = unzipped, "image/svg+xml"
			}
		}
	}

	if isSVGData(data, mediaType, href) {
		if c.imageDepth >= c.opts.MaxUseDepth {
			n.Warn(svgtree.ResourceLimitExceeded, "more than %d nested svg images", c.opts.MaxUseDepth)
			return loadedImage{}, false
		}
		doc, err := svgraw.Read(bytes.NewReader(data))
		if err != nil {
			n.Warn(svgtree.MalformedInput, "invalid svg image: %s", err)
			return loadedImage{}, false
		}
		return loadedImage{svg: simplify(doc, c.opts, c.diags, c.imageDepth+1, c.budget)}, true
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		n.Warn(svgtree.MalformedInput, "invalid image data: %s", err)
		return loadedImage{}, false
	}
	if b := img.Bounds(); b.Empty() {
		return loadedImage{}, false
	}
	return loadedImage{raster: img, format: format}, true
}

// shortHref truncates data URLs in diagnostics.
func shortHref(href string) string {
	if len(href) > 40 {
		return href[:37] + "..."
	}
	return href
}

// imageNode places the image referenced by href in viewport, according to
// the preserveAspectRatio attribute of n.
func (c *converter) imageNode(n *svgstyle.Node, href string, viewport svgpath.Rect) svgtree.Node {
	img, ok := c.loadImage(n, href)
	if !ok {
		return nil
	}
	return c.placeImage(n, img, viewport)
}

func (c *converter) placeImage(n *svgstyle.Node, img loadedImage, viewport svgpath.Rect) svgtree.Node {
	if viewport.IsEmpty() {
		return nil
	}
	w, h := img.size()
	ar := n.AspectRatio()
	rect := ar.FitRect(w, h, viewport)
	if img.raster != nil {
		out := &svgtree.Image{
			Base:     svgtree.NewBase(),
			Data:     img.raster,
			Format:   img.format,
			Rect:     rect,
			Viewport: viewport,
			Smooth:   n.Prop("image-rendering") != "optimizeSpeed",
		}
		return out
	}

	content := img.svg.Root
	inner := &svgtree.Group{Base: svgtree.NewBase(), Children: []svgtree.Node{content}}
	inner.Transform = svgpath.Identity.Translate(rect.X, rect.Y).Scale(rect.W/w, rect.H/h)
	outer := &svgtree.Group{Base: svgtree.NewBase(), Children: []svgtree.Node{inner}}
	outer.Clip = rectClip(viewport)
	return outer
}

func imageF(c *converter, n *svgstyle.Node) svgtree.Node {
	href, ok := n.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return nil
	}
	if v := n.Prop("visibility"); v == "hidden" || v == "collapse" {
		return nil
	}
	img, ok := c.loadImage(n, href)
	if !ok {
		return nil
	}
	// a missing size is given by the image
	iw, ih := img.size()
	viewport := svgpath.Rect{
		X: n.Length("x", svgstyle.Horizontal, 0),
		Y: n.Length("y", svgstyle.Vertical, 0),
	}
	_, hasW := n.Attr("width")
	_, hasH := n.Attr("height")
	viewport.W = n.Length("width", svgstyle.Horizontal, iw)
	viewport.H = n.Length("height", svgstyle.Vertical, ih)
	switch {
	case hasW && !hasH && iw > 0:
		viewport.H = viewport.W * ih / iw
	case hasH && !hasW && ih > 0:
		viewport.W = viewport.H * iw / ih
	}
	if viewport.W < 0 || viewport.H < 0 {
		n.Warn(svgtree.MalformedInput, "negative image size %gx%g", viewport.W, viewport.H)
		return nil
	}
	node := c.placeImage(n, img, viewport)
	if node == nil {
		return nil
	}
	node.Common().Transform = n.Transform("transform")
	return node
}
