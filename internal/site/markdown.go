package site

import (
	"bytes"
	"fmt"
	"html"

	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithRendererOptions(
		gmhtml.WithHardWraps(),
		gmhtml.WithXHTML(),
	),
)

// RenderMarkdownFile converts the markdown mirror at mdPath into a minimal
// standalone HTML page at htmlPath.
func RenderMarkdownFile(fsys afero.Fs, mdPath, htmlPath, title string) error {
	src, err := afero.ReadFile(fsys, mdPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", mdPath, err)
	}

	var body bytes.Buffer
	if err := md.Convert(src, &body); err != nil {
		return fmt.Errorf("render %s: %w", mdPath, err)
	}

	var page bytes.Buffer
	page.WriteString(`<!doctype html><meta charset="utf-8">`)
	page.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(title)))
	page.Write(body.Bytes())

	if err := afero.WriteFile(fsys, htmlPath, page.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", htmlPath, err)
	}
	return nil
}
