package scraper

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MissingElementError is returned when a required element is not on the page.
type MissingElementError struct {
	Selector string
	Index    int // -1 when any match would do
	Found    int
}

func (e *MissingElementError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("element not found: %q", e.Selector)
	}
	return fmt.Sprintf("element %q[%d] not found (%d matches)", e.Selector, e.Index, e.Found)
}

// Page is a parsed HTML document.
type Page struct {
	URL string
	doc *goquery.Document
}

// NewPage parses HTML from r.
func NewPage(url string, r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return &Page{URL: url, doc: doc}, nil
}

// ParseHTML is NewPage over a string, mostly for fixtures.
func ParseHTML(url, html string) (*Page, error) {
	return NewPage(url, strings.NewReader(html))
}

// Root returns the document node.
func (p *Page) Root() Node {
	return Node{sel: p.doc.Selection}
}

// One returns the first element matching selector.
func (p *Page) One(selector string) (Node, error) {
	return p.Root().One(selector)
}

// All returns every element matching selector, in document order.
func (p *Page) All(selector string) Nodes {
	return p.Root().All(selector)
}

// Node is a single element.
type Node struct {
	sel *goquery.Selection
}

// One returns the first descendant matching selector.
func (n Node) One(selector string) (Node, error) {
	found := n.sel.Find(selector)
	if found.Length() == 0 {
		return Node{}, &MissingElementError{Selector: selector, Index: -1}
	}
	return Node{sel: found.First()}, nil
}

// All returns every descendant matching selector.
func (n Node) All(selector string) Nodes {
	return Nodes{sel: n.sel.Find(selector), selector: selector}
}

// Parent returns the enclosing element.
func (n Node) Parent() Node {
	return Node{sel: n.sel.Parent()}
}

// Text returns the concatenated text content, untrimmed.
func (n Node) Text() string {
	return n.sel.Text()
}

// Attr returns the named attribute, failing when it is absent.
func (n Node) Attr(name string) (string, error) {
	v, ok := n.sel.Attr(name)
	if !ok {
		return "", fmt.Errorf("attribute %q missing on <%s>", name, goquery.NodeName(n.sel))
	}
	return v, nil
}

// OneText is One followed by Text.
func (n Node) OneText(selector string) (string, error) {
	child, err := n.One(selector)
	if err != nil {
		return "", err
	}
	return child.Text(), nil
}

// Nodes is an ordered list of elements.
type Nodes struct {
	sel      *goquery.Selection
	selector string
}

// Len returns the number of elements.
func (ns Nodes) Len() int {
	if ns.sel == nil {
		return 0
	}
	return ns.sel.Length()
}

// Nth returns the element at index i.
func (ns Nodes) Nth(i int) (Node, error) {
	if i < 0 || i >= ns.Len() {
		return Node{}, &MissingElementError{Selector: ns.selector, Index: i, Found: ns.Len()}
	}
	return Node{sel: ns.sel.Eq(i)}, nil
}

// Slice returns the elements in [from, to). to is clamped to Len.
func (ns Nodes) Slice(from, to int) []Node {
	if to > ns.Len() {
		to = ns.Len()
	}
	out := make([]Node, 0, max(to-from, 0))
	for i := from; i < to; i++ {
		out = append(out, Node{sel: ns.sel.Eq(i)})
	}
	return out
}

// List returns every element.
func (ns Nodes) List() []Node {
	return ns.Slice(0, ns.Len())
}

// Texts returns the text of every element.
func (ns Nodes) Texts() []string {
	nodes := ns.List()
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Text()
	}
	return out
}

// Concat appends other after ns, keeping both orders intact.
func (ns Nodes) Concat(other Nodes) Nodes {
	if ns.sel == nil {
		return other
	}
	if other.sel == nil {
		return ns
	}
	return Nodes{
		sel:      ns.sel.AddSelection(other.sel),
		selector: ns.selector + ", " + other.selector,
	}
}
