package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Document is a scanned file plus its display title.
type Document struct {
	RelPath string
	Title   string
}

var markdownParser = goldmark.New()

// Title extracts a display title from document content:
// the first level-1 heading, else the first level-2 heading, else the
// filename without extension with words capitalized.
func Title(content []byte, filename string) string {
	if len(content) > 0 && isMarkdown(filename) {
		doc := markdownParser.Parser().Parse(text.NewReader(content))

		var firstH1, firstH2 string
		_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				return ast.WalkContinue, nil
			}
			heading, ok := n.(*ast.Heading)
			if !ok {
				return ast.WalkContinue, nil
			}
			headingText := nodeText(heading, content)
			if heading.Level == 1 && firstH1 == "" {
				firstH1 = headingText
				return ast.WalkStop, nil
			}
			if heading.Level == 2 && firstH2 == "" {
				firstH2 = headingText
			}
			return ast.WalkContinue, nil
		})

		if firstH1 != "" {
			return firstH1
		}
		if firstH2 != "" {
			return firstH2
		}
	}

	return titleFromFilename(filename)
}

// ListDocuments scans root and pairs each eligible file with its extracted
// title, for display in listings.
func ListDocuments(root string, exts []string) ([]Document, error) {
	files, err := Scan(root, exts)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(files))
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		relPath := path
		if rel, relErr := filepath.Rel(root, path); relErr == nil && rel != "." {
			relPath = filepath.ToSlash(rel)
		} else {
			relPath = filepath.Base(path)
		}

		docs = append(docs, Document{
			RelPath: relPath,
			Title:   Title(content, filepath.Base(path)),
		})
	}

	return docs, nil
}

func isMarkdown(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// nodeText extracts the plain text of a node and its children.
func nodeText(n ast.Node, content []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// titleFromFilename strips the extension and capitalizes each word.
func titleFromFilename(filename string) string {
	name := filepath.Base(filename)
	if ext := filepath.Ext(name); ext != "" {
		name = name[:len(name)-len(ext)]
	}
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}

	return strings.Join(words, " ")
}
