// Package clipper imports a recipe from a web page: the page is stripped of
// noise with goquery and an LLM extracts a structured recipe for 2 portions
// with per-supermarket price estimates.
package clipper

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"nutrision/internal/llm"
	"nutrision/internal/portion"
	"nutrision/internal/recipe"
	"nutrision/internal/shared"
)

// AgentName identifies recipe imports in execution metrics.
const AgentName = "Clipper"

// maxContentChars bounds the page text sent to the model.
const maxContentChars = 20000

//go:embed clipper_prompt.md
var clipperPrompt string

var clipperTmpl = template.Must(template.New("Clipper").Parse(clipperPrompt))

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	textGen    llm.TextGenerator
	httpClient *http.Client
	logger     *zap.Logger
}

// Result is an imported recipe with the metadata of its extraction.
type Result struct {
	Recipe    *recipe.Recipe
	SourceURL string
	Meta      shared.AgentMeta
}

// NewClipper creates a new Clipper instance.
func NewClipper(textGen llm.TextGenerator, logger *zap.Logger) *Clipper {
	return &Clipper{
		textGen:    textGen,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// ClipURL fetches the URL and extracts a validated recipe from it.
func (c *Clipper) ClipURL(ctx context.Context, url string) (*Result, error) {
	page, err := c.fetchPage(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	prompt, err := buildClipperPrompt(page.text)
	if err != nil {
		return nil, fmt.Errorf("failed to build clipper prompt: %w", err)
	}

	start := time.Now()
	resp, err := c.textGen.GenerateContent(ctx, prompt)
	meta := shared.AgentMeta{AgentName: AgentName, Latency: time.Since(start)}
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}
	meta.Usage = resp.Usage

	var extracted recipe.Recipe
	if err := json.Unmarshal([]byte(resp.Content), &extracted); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	if err := extracted.Validate(); err != nil {
		return nil, fmt.Errorf("extracted recipe rejected: %w", err)
	}
	if extracted.ImageURL == "" {
		extracted.ImageURL = page.image
	}

	c.logger.Info("recipe clipped",
		zap.String("url", url),
		zap.String("title", extracted.Title),
		zap.Int("ingredients", len(extracted.Ingredients)),
		zap.Int("total_tokens", meta.Usage.TotalTokens),
	)

	return &Result{Recipe: &extracted, SourceURL: url, Meta: meta}, nil
}

type page struct {
	text  string
	image string
}

func (c *Clipper) fetchPage(ctx context.Context, url string) (page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return page{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return page{}, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return page{}, err
	}

	image, _ := doc.Find(`meta[property="og:image"]`).Attr("content")

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, header, footer, aside, iframe, form, .ads, #ads, .comments").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if len(text) > maxContentChars {
		text = strings.ToValidUTF8(text[:maxContentChars], "")
	}
	return page{text: text, image: image}, nil
}

func buildClipperPrompt(content string) (string, error) {
	data := struct {
		Content  string
		Stores   []recipe.Supermarket
		Portions int
	}{
		Content:  content,
		Stores:   recipe.Supermarkets[:],
		Portions: portion.Base,
	}

	var buf bytes.Buffer
	if err := clipperTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
