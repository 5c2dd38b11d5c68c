// Package reportpdf turns a markdown analysis report into a printable
// PDF using headless Chromium.
package reportpdf

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type Renderer struct {
	chromePath string
}

func NewRenderer() *Renderer {
	return &Renderer{chromePath: detectChromePath()}
}

// Meta carries the header fields printed above the report body.
type Meta struct {
	Filename   string
	Title      string
	Department string
	Score      int
}

// Render converts the report markdown to HTML and prints it to A4 PDF.
// The whole render is bounded by a 30 second timeout.
func (r *Renderer) Render(ctx context.Context, markdown string, meta Meta) ([]byte, error) {
	htmlDoc, err := buildHTML(markdown, meta)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;padding-right:8px;">` +
				`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.5).
				WithMarginBottom(0.75).
				WithMarginLeft(0.45).
				WithMarginRight(0.45).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, err
	}
	return pdf, nil
}

const styleCSS = `
body{font-family:Georgia,serif;color:#1c1917;background:#fff;padding:0.6rem;line-height:1.5;}
.pdf-wrap{max-width:1000px;margin:0 auto;}
.report-header{border-bottom:2px solid #1e3a5f;margin-bottom:1rem;padding-bottom:0.5rem;}
.report-meta{color:#44403c;font-size:0.85rem;}
.report-meta strong{color:#1c1917;}
.score-badge{display:inline-block;background:#eff6ff;color:#1e3a5f;border:1px solid #93c5fd;border-radius:4px;padding:0.15rem 0.5rem;font-size:0.8rem;font-weight:700;}
.report-html h1,.report-html h2{color:#1e3a5f;}
.report-html h2{break-after:avoid;}
.report-html table{width:100%;border-collapse:collapse;border:1px solid #a8a29e;font-size:0.8rem;}
.report-html th,.report-html td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
.report-html thead th{background:#f1f5f9;font-weight:700;}
html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}
@media print{ @page{size:A4;margin:12mm;} body{padding:0;} .pdf-wrap{max-width:none;} }
`

func buildHTML(markdown string, meta Meta) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}

	return "<!doctype html><html><head><meta charset='utf-8'><title>Tender Analysis Report</title>" +
		"<style>" + styleCSS + "</style></head><body>" +
		"<div class='pdf-wrap'><div class='report-header'>" +
		"<div class='report-meta'>" + metaHTML(meta) + "</div>" +
		"</div><div class='report-html'>" + content.String() + "</div></div>" +
		"</body></html>", nil
}

func metaHTML(meta Meta) string {
	var out strings.Builder
	if t := strings.TrimSpace(meta.Title); t != "" {
		out.WriteString("<div><strong>Tender:</strong> " + html.EscapeString(t) + "</div>")
	}
	if d := strings.TrimSpace(meta.Department); d != "" {
		out.WriteString("<div><strong>Department:</strong> " + html.EscapeString(d) + "</div>")
	}
	if f := strings.TrimSpace(meta.Filename); f != "" {
		out.WriteString("<div><strong>Document:</strong> " + html.EscapeString(f) + "</div>")
	}
	out.WriteString("<div><strong>Generated:</strong> " + html.EscapeString(time.Now().Format("January 2, 2006")) + "</div>")
	if meta.Score > 0 {
		out.WriteString(fmt.Sprintf("<span class='score-badge'>Completeness %d/100</span>", meta.Score))
	}
	return out.String()
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
