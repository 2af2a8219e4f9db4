package pathconfusion

import (
	"strings"

	"golang.org/x/net/html"
)

// document is an immutable, index-based view of a parsed HTML page. Nodes
// are stored in depth-first order and reference each other by index only,
// so a document can be shared read-only across goroutines.
type document struct {
	nodes []docNode
}

type docNode struct {
	typ      html.NodeType
	tag      string // lowercase element name, or doctype name
	attrs    []html.Attribute
	text     string // text node data
	parent   int    // -1 for the root
	children []int
}

// parseDocument parses the body into a document. The html parser is
// tolerant by design; a garbage body yields an empty-ish document rather
// than an error.
func parseDocument(body []byte) (*document, error) {
	root, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	d := &document{}
	d.flatten(root, -1)
	return d, nil
}

func (d *document) flatten(n *html.Node, parent int) int {
	idx := len(d.nodes)
	d.nodes = append(d.nodes, docNode{
		typ:    n.Type,
		tag:    strings.ToLower(n.Data),
		attrs:  n.Attr,
		parent: parent,
	})
	if n.Type == html.TextNode {
		d.nodes[idx].text = n.Data
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		child := d.flatten(c, idx)
		d.nodes[idx].children = append(d.nodes[idx].children, child)
	}
	return idx
}

// elements returns the indices of all element nodes with the given tag, in
// document order. An empty tag matches every element.
func (d *document) elements(tag string) []int {
	var out []int
	for i, n := range d.nodes {
		if n.typ != html.ElementNode {
			continue
		}
		if tag == "" || n.tag == tag {
			out = append(out, i)
		}
	}
	return out
}

// attr returns the value of the named attribute on the node, reporting
// whether it is present.
func (d *document) attr(i int, name string) (string, bool) {
	for _, a := range d.nodes[i].attrs {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// hasAncestorPath reports whether the node's element ancestors, from the
// nearest outward, are exactly the given tags (e.g. "head", "html").
func (d *document) hasAncestorPath(i int, tags ...string) bool {
	p := d.nodes[i].parent
	for _, tag := range tags {
		for p >= 0 && d.nodes[p].typ != html.ElementNode {
			p = d.nodes[p].parent
		}
		if p < 0 || d.nodes[p].tag != tag {
			return false
		}
		p = d.nodes[p].parent
	}
	return true
}

// textContent returns the concatenated direct text children of the node,
// e.g. the CSS body of a <style> element.
func (d *document) textContent(i int) string {
	var sb strings.Builder
	for _, c := range d.nodes[i].children {
		if d.nodes[c].typ == html.TextNode {
			sb.WriteString(d.nodes[c].text)
		}
	}
	return sb.String()
}

// doctypes returns the doctype nodes found at the top level of the document.
func (d *document) doctypes() []int {
	var out []int
	for i, n := range d.nodes {
		if n.typ == html.DoctypeNode && (n.parent < 0 || d.nodes[n.parent].typ == html.DocumentNode) {
			out = append(out, i)
		}
	}
	return out
}

// publicID returns the PUBLIC identifier of a doctype node, or "".
func (d *document) publicID(i int) string {
	v, _ := d.attr(i, "public")
	return v
}

// markup reconstructs the opening tag of an element node. Since the HTML
// was parsed and is being re-rendered, the result may not byte-match the
// original source, but it is the closest auditable form of the evidence.
func (d *document) markup(i int) string {
	n := d.nodes[i]
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(n.tag)
	for _, a := range n.attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Key)
		sb.WriteString(`="`)
		sb.WriteString(a.Val)
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
	return sb.String()
}
