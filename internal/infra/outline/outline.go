// Package outline turns a heading and bullet structured summary into a tree.
//
// The tree is the hand-off format for mind-map rendering: every Markdown
// heading and list item becomes a node, paragraphs become leaves of the
// section they appear in.
package outline

import (
	"encoding/json"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// DefaultRootTitle names the root when the text does not open with a heading.
const DefaultRootTitle = "Mind Map"

// Node is one entry of the outline.
type Node struct {
	Title    string  `json:"title"`
	Level    int     `json:"level"`
	Children []*Node `json:"children,omitempty"`
}

// Parse builds the outline of markdown.
//
// When the text opens with a heading, that heading becomes the root;
// otherwise the root is DefaultRootTitle. A heading attaches to the nearest
// preceding heading of a lower level. List items nest under the current
// section and under their parent items.
func Parse(markdown string) *Node {
	src := []byte(markdown)
	doc := goldmark.New().Parser().Parse(gmtext.NewReader(src))

	root := &Node{Title: DefaultRootTitle}
	first := doc.FirstChild()
	if h, ok := first.(*ast.Heading); ok {
		root.Title = inlineText(h, src)
		first = first.NextSibling()
	}

	// stack[i] is the open section; root sits at level 0.
	stack := []*Node{root}
	top := func() *Node { return stack[len(stack)-1] }

	for n := first; n != nil; n = n.NextSibling() {
		switch block := n.(type) {
		case *ast.Heading:
			for len(stack) > 1 && top().Level >= block.Level {
				stack = stack[:len(stack)-1]
			}
			node := &Node{Title: inlineText(block, src), Level: block.Level}
			top().Children = append(top().Children, node)
			stack = append(stack, node)
		case *ast.List:
			addList(top(), block, src)
		case *ast.Paragraph:
			if title := inlineText(block, src); title != "" {
				parent := top()
				parent.Children = append(parent.Children, &Node{Title: title, Level: parent.Level + 1})
			}
		}
	}

	return root
}

func addList(parent *Node, list *ast.List, src []byte) {
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		li, ok := item.(*ast.ListItem)
		if !ok {
			continue
		}

		node := &Node{Level: parent.Level + 1}
		var nested []*ast.List
		for c := li.FirstChild(); c != nil; c = c.NextSibling() {
			switch child := c.(type) {
			case *ast.List:
				nested = append(nested, child)
			default:
				if node.Title == "" {
					node.Title = inlineText(child, src)
				}
			}
		}
		for _, l := range nested {
			addList(node, l, src)
		}

		if node.Title == "" && len(node.Children) == 0 {
			continue
		}
		parent.Children = append(parent.Children, node)
	}
}

// inlineText concatenates the text content below n.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// Size counts the nodes of the tree rooted at n.
func (n *Node) Size() int {
	total := 1
	for _, c := range n.Children {
		total += c.Size()
	}
	return total
}

// Depth is the number of levels below and including n.
func (n *Node) Depth() int {
	deepest := 0
	for _, c := range n.Children {
		deepest = max(deepest, c.Depth())
	}
	return deepest + 1
}

// JSON encodes the tree with two-space indentation.
func (n *Node) JSON() ([]byte, error) {
	return json.MarshalIndent(n, "", "  ")
}
