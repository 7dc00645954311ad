package routes

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/amalxloop/EatFlex/internal/config"
	"github.com/gofiber/fiber/v2"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec []byte

const docsIndexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{ .Title }}</title>
  <style>
    :root {
      color-scheme: light;
      --bg: #f7f6f1;
      --text: #1d1f16;
      --muted: #5b5f4e;
      --accent: #d8572a;
      --border: #dedbd0;
      --code-bg: #1b1d17;
      --code-text: #eceadf;
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      font-family: Georgia, "Times New Roman", serif;
      color: var(--text);
      background: var(--bg);
    }
    main {
      max-width: 1120px;
      margin: 0 auto;
      padding: 48px 20px 64px;
    }
    .hero, .panel {
      background: #ffffff;
      border: 1px solid var(--border);
      border-radius: 18px;
      padding: 24px;
      margin-bottom: 20px;
    }
    .hero h1 {
      margin: 0 0 12px;
      font-size: clamp(2rem, 5vw, 3.2rem);
    }
    .hero p { margin: 0; color: var(--muted); line-height: 1.6; }
    .button {
      display: inline-flex;
      margin-top: 16px;
      margin-right: 8px;
      padding: 10px 16px;
      border-radius: 999px;
      border: 1px solid var(--accent);
      background: var(--accent);
      color: #fff;
      text-decoration: none;
      font-weight: 600;
    }
    .button.secondary { background: transparent; color: var(--accent); }
    table { width: 100%; border-collapse: collapse; }
    th, td { text-align: left; padding: 8px 6px; border-bottom: 1px solid var(--border); }
    td.method { font-family: monospace; font-weight: 700; color: var(--accent); }
    td.path { font-family: monospace; }
    .panel h2 {
      margin: 0 0 12px;
      font-size: 0.92rem;
      text-transform: uppercase;
      letter-spacing: 0.08em;
      color: var(--muted);
    }
    pre {
      margin: 0;
      padding: 20px;
      overflow: auto;
      border-radius: 14px;
      background: var(--code-bg);
      color: var(--code-text);
      font-size: 0.92rem;
      line-height: 1.5;
    }
  </style>
</head>
<body>
  <main>
    <section class="hero">
      <h1>{{ .Title }}</h1>
      <p>Version {{ .Version }}. Loaded {{ .LoadedAt }}. The raw document is served from <code>/docs/openapi.yaml</code> and as JSON from <code>/docs/openapi.json</code>.</p>
      <a class="button" href="/docs/openapi.yaml">Open Raw Spec</a>
      <a class="button secondary" href="/docs/openapi.json">Open JSON</a>
    </section>
    <section class="panel">
      <h2>Operations</h2>
      <table>
        <tbody>
        {{ range .Operations }}
          <tr><td class="method">{{ .Method }}</td><td class="path">{{ .Path }}</td><td>{{ .Summary }}</td></tr>
        {{ end }}
        </tbody>
      </table>
    </section>
    <section class="panel">
      <h2>OpenAPI YAML</h2>
      <pre>{{ .Spec }}</pre>
    </section>
  </main>
</body>
</html>
`

type openAPIDocument struct {
	Info struct {
		Title   string `yaml:"title"`
		Version string `yaml:"version"`
	} `yaml:"info"`
	Paths map[string]map[string]struct {
		Summary string `yaml:"summary"`
	} `yaml:"paths"`
}

type docsOperation struct {
	Method  string
	Path    string
	Summary string
}

type docsPageData struct {
	Title      string
	Version    string
	LoadedAt   string
	Operations []docsOperation
	Spec       string
}

func registerDocsRoutes(app fiber.Router, cfg *config.Config) error {
	if !cfg.DocsEnabled() {
		return nil
	}

	doc, err := parseOpenAPISpec(openAPISpec)
	if err != nil {
		return fmt.Errorf("load openapi spec: %w", err)
	}
	specJSON, err := openAPIJSON(openAPISpec)
	if err != nil {
		return fmt.Errorf("convert openapi spec: %w", err)
	}

	indexTemplate, err := template.New("docs-index").Parse(docsIndexHTML)
	if err != nil {
		return fmt.Errorf("parse docs template: %w", err)
	}

	pageData := docsPageData{
		Title:      doc.Info.Title,
		Version:    doc.Info.Version,
		LoadedAt:   time.Now().UTC().Format(time.RFC3339),
		Operations: listOperations(doc),
		Spec:       string(openAPISpec),
	}

	indexHandler := func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c, fiber.MIMETextHTMLCharsetUTF8)
		c.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; img-src 'self' data:; base-uri 'none'; form-action 'none'; frame-ancestors 'none'")

		var body bytes.Buffer
		if err := indexTemplate.Execute(&body, pageData); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render api docs")
		}

		return c.Status(fiber.StatusOK).Send(body.Bytes())
	}

	app.Get("/docs", indexHandler)
	app.Get("/docs/", indexHandler)
	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c, "application/yaml; charset=utf-8")
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'")
		c.Set(fiber.HeaderContentDisposition, `inline; filename="openapi.yaml"`)
		return c.Status(fiber.StatusOK).Send(openAPISpec)
	})
	app.Get("/docs/openapi.json", func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c, fiber.MIMEApplicationJSONCharsetUTF8)
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'")
		return c.Status(fiber.StatusOK).Send(specJSON)
	})

	return nil
}

func parseOpenAPISpec(raw []byte) (*openAPIDocument, error) {
	var doc openAPIDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Info.Title == "" {
		return nil, fmt.Errorf("openapi spec has no info.title")
	}
	if len(doc.Paths) == 0 {
		return nil, fmt.Errorf("openapi spec has no paths")
	}
	return &doc, nil
}

func openAPIJSON(raw []byte) ([]byte, error) {
	var generic map[string]any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

// listOperations flattens the path map, sorted by path then method.
func listOperations(doc *openAPIDocument) []docsOperation {
	operations := make([]docsOperation, 0, len(doc.Paths))
	for path, methods := range doc.Paths {
		for method, op := range methods {
			operations = append(operations, docsOperation{
				Method:  strings.ToUpper(method),
				Path:    path,
				Summary: op.Summary,
			})
		}
	}
	sort.Slice(operations, func(i, j int) bool {
		if operations[i].Path != operations[j].Path {
			return operations[i].Path < operations[j].Path
		}
		return operations[i].Method < operations[j].Method
	})
	return operations
}

func applyDocsBaseHeaders(c *fiber.Ctx, contentType string) {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "no-store, max-age=0")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set(fiber.HeaderXFrameOptions, "DENY")
	c.Set("Referrer-Policy", "no-referrer")
	c.Set("Cross-Origin-Resource-Policy", "same-origin")
	c.Set("X-Robots-Tag", "noindex, nofollow")
}
