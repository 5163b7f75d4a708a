package parse

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"

	"reportaudit/internal/model"
)

// parseHTML reads the first <table> element of an HTML report export.
func parseHTML(path string) (*model.ParsedTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	doc, err := html.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("malformed html: %w", err)
	}

	table := findFirst(doc, "table")
	if table == nil {
		return nil, fmt.Errorf("document contains no table")
	}

	var cells [][]string
	walk(table, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []string
			walk(n, func(cell *html.Node) {
				if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
					row = append(row, strings.TrimSpace(textContent(cell)))
				}
			})
			if len(row) > 0 {
				cells = append(cells, row)
			}
		}
	})
	if len(cells) == 0 {
		return nil, fmt.Errorf("table contains no rows")
	}

	return tableFromCells(cells)
}

// extractHTMLText renders the document's visible text for keyword matching,
// skipping script and style content.
func extractHTMLText(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	doc, err := html.Parse(file)
	if err != nil {
		return "", fmt.Errorf("malformed html: %w", err)
	}

	var sb strings.Builder
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(doc)

	return strings.TrimSpace(sb.String()), nil
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findFirst(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		fn(child)
		walk(child, fn)
	}
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(n)
	return sb.String()
}
