package svgraw

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"
)

const (
	nsSVG   = "http://www.w3.org/2000/svg"
	nsXLink = "http://www.w3.org/1999/xlink"
	nsXML   = "http://www.w3.org/XML/1998/namespace"
)

// entityDecl matches the internal entity declarations found in the
// DOCTYPE of files exported by some editors.
var entityDecl = regexp.MustCompile(`<!ENTITY\s+([\w.-]+)\s+(?:"([^"]*)"|'([^']*)')\s*>`)

// Read parses the XML stream into a document. Elements outside
// the SVG namespace are discarded (with their content), as are comments
// and processing instructions.
func Read(stream io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(stream)
	decoder.CharsetReader = charset.NewReaderLabel
	decoder.Entity = make(map[string]string, len(xml.HTMLEntity))
	for k, v := range xml.HTMLEntity {
		decoder.Entity[k] = v
	}

	var (
		root  *Element
		stack []*Element
		skip  int // depth inside a foreign element
	)
	for {
		t, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading svg: %w", err)
		}
		switch tok := t.(type) {
		case xml.Directive:
			for _, m := range entityDecl.FindAllStringSubmatch(string(tok), -1) {
				decoder.Entity[m[1]] = m[2] + m[3]
			}
		case xml.StartElement:
			if skip > 0 || (tok.Name.Space != "" && tok.Name.Space != nsSVG) {
				skip++
				continue
			}
			e := &Element{Tag: tok.Name.Local, Attrs: readAttrs(tok.Attr)}
			if len(stack) == 0 {
				if root != nil || e.Tag != "svg" {
					return nil, ErrNoSVG
				}
				root = e
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, e)
			}
			stack = append(stack, e)
		case xml.EndElement:
			if skip > 0 {
				skip--
				continue
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if skip > 0 || len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			if n := len(parent.Children); n > 0 && parent.Children[n-1].IsText() {
				parent.Children[n-1].Text += string(tok)
			} else {
				parent.Children = append(parent.Children, &Element{Text: string(tok)})
			}
		}
	}
	if root == nil {
		return nil, ErrNoSVG
	}
	trimText(root)
	return NewDocument(root), nil
}

// ReadFile reads the named SVG file.
func ReadFile(filename string) (*Document, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func readAttrs(attrs []xml.Attr) []Attr {
	out := make([]Attr, 0, len(attrs))
	for _, a := range attrs {
		name := a.Name.Local
		switch a.Name.Space {
		case "", nsSVG:
			if name == "xmlns" {
				continue
			}
		case nsXLink, "xlink":
			if name != "href" {
				continue
			}
		case nsXML, "xml":
			name = "xml:" + name
		default:
			continue // other namespaces, including xmlns declarations
		}
		if name == "href" { // href overrides xlink:href
			replaced := false
			for i := range out {
				if out[i].Name == "href" {
					if a.Name.Space == "" {
						out[i].Value = a.Value
					}
					replaced = true
				}
			}
			if replaced {
				continue
			}
		}
		out = append(out, Attr{Name: name, Value: a.Value})
	}
	return out
}

// trimText removes the whitespace only character data, except
// inside text elements where it is significant.
func trimText(e *Element) {
	if e.Tag == "text" {
		return
	}
	kept := e.Children[:0]
	for _, c := range e.Children {
		if c.IsText() && strings.TrimSpace(c.Text) == "" && e.Tag != "style" && e.Tag != "title" && e.Tag != "desc" {
			continue
		}
		if !c.IsText() {
			trimText(c)
		}
		kept = append(kept, c)
	}
	e.Children = kept
}
