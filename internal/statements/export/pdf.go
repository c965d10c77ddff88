package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/ledgerline/ledgerline/internal/statements"
)

// PDFExporter wraps Gotenberg interactions for statement exports.
type PDFExporter struct {
	Endpoint string
	Client   *http.Client
}

// RenderStatement sends the statement HTML to Gotenberg and returns the
// PDF bytes.
func (p *PDFExporter) RenderStatement(ctx context.Context, st statements.Statement) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	html := buildHTML(st)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "statement.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}
	if err := writer.WriteField("waitDelay", "500"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}

	return io.ReadAll(resp.Body)
}

func buildHTML(st statements.Statement) string {
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}h2{font-size:15px;margin-bottom:4px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}td{padding:3px 6px;}td.amount{text-align:right;width:30%;}tr.subtotal td{border-top:1px solid #999;font-weight:bold;}section{margin-bottom:20px;}")
	b.WriteString("</style></head><body>")
	b.WriteString(fmt.Sprintf("<h1>%s</h1><p>%s</p>", htmlEscape(st.Title), htmlEscape(st.Period)))

	for _, section := range st.Sections {
		b.WriteString("<section><table><tbody>")
		for _, row := range section.Rows {
			if row.Subtotal {
				b.WriteString("<tr class=\"subtotal\">")
			} else {
				b.WriteString("<tr>")
			}
			b.WriteString(fmt.Sprintf("<td style=\"padding-left:%dpx\">", 6+row.Level*18))
			b.WriteString(htmlEscape(row.Label))
			b.WriteString("</td><td class=\"amount\">")
			if row.Amount != nil {
				b.WriteString(formatAmount(*row.Amount))
			}
			b.WriteString("</td></tr>")
		}
		b.WriteString("</tbody></table></section>")
	}

	b.WriteString("<section><h2>Summary</h2><table><tbody>")
	for _, line := range st.Summary {
		b.WriteString("<tr class=\"subtotal\"><td>")
		b.WriteString(htmlEscape(line.Label))
		b.WriteString("</td><td class=\"amount\">")
		b.WriteString(formatAmount(line.Amount))
		b.WriteString("</td></tr>")
	}
	b.WriteString("</tbody></table></section>")

	b.WriteString("</body></html>")
	return b.String()
}

func htmlEscape(v string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(v)
}
