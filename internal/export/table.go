package export

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// tableParser recognises the same pipe tables the session page renders.
var tableParser = goldmark.New(goldmark.WithExtensions(extension.Table)).Parser()

// ParseMarkdownTable returns the rows of the first pipe table in text, header
// row first. ok is false when text holds no table.
func ParseMarkdownTable(md string) (rows [][]string, ok bool) {
	src := []byte(md)
	doc := tableParser.Parse(text.NewReader(src))

	var table *east.Table
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, isTable := n.(*east.Table); isTable {
			table = t
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if table == nil {
		return nil, false
	}

	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		switch row.(type) {
		case *east.TableHeader, *east.TableRow:
		default:
			continue
		}
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			if _, isCell := cell.(*east.TableCell); isCell {
				cells = append(cells, cellText(cell, src))
			}
		}
		rows = append(rows, cells)
	}
	return rows, len(rows) > 0
}

// cellText flattens the inline content of a cell to plain text. Backslash
// escapes are resolved outside code spans.
func cellText(cell ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(cell, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.CodeSpan:
			for c := v.FirstChild(); c != nil; c = c.NextSibling() {
				if t, isText := c.(*ast.Text); isText {
					b.Write(t.Segment.Value(src))
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(util.UnescapePunctuations(v.Segment.Value(src)))
			if v.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
