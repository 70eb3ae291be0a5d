// Package analysis asks a language model for news sentiment and valuation
// commentary on a stock.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/trogers1052/portfolio-service/internal/models"
	"google.golang.org/genai"
)

const (
	maxPromptHeadlines   = 10
	maxReturnedHeadlines = 5

	defaultRecommendation = "Fairly Valued"
)

const sentimentInstruction = `You are a financial analyst specializing in news sentiment analysis.
Provide objective, data-driven analysis.`

const valuationInstruction = `You are a professional equity research analyst.
Provide balanced, educational analysis. Always include appropriate disclaimers that this is not financial advice.`

// generator is the slice of the genai client the analyst calls. *genai.Models satisfies it.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Analyst produces model-written stock commentary
type Analyst struct {
	gen   generator
	model string
}

// NewAnalyst creates an analyst backed by client's Models service
func NewAnalyst(client *genai.Client, model string) *Analyst {
	return newAnalyst(client.Models, model)
}

func newAnalyst(gen generator, model string) *Analyst {
	return &Analyst{gen: gen, model: model}
}

type sentimentResult struct {
	SentimentScore  float64 `json:"sentiment_score"`
	SentimentLabel  string  `json:"sentiment_label"`
	AnalysisSummary string  `json:"analysis_summary"`
}

// AnalyzeNewsSentiment scores the headlines from -1 (very bearish) to 1 (very bullish).
// With no headlines the result is Neutral and the model is not called.
func (a *Analyst) AnalyzeNewsSentiment(ctx context.Context, symbol, companyName string, headlines []models.NewsHeadline) (*models.NewsSentiment, error) {
	if len(headlines) == 0 {
		return &models.NewsSentiment{
			OverallSentimentScore: 0,
			SentimentLabel:        models.SentimentNeutral,
			TopHeadlines:          []models.NewsHeadline{},
			AnalysisSummary:       "No recent news available for analysis.",
		}, nil
	}

	var lines strings.Builder
	for i, h := range headlines {
		if i == maxPromptHeadlines {
			break
		}
		fmt.Fprintf(&lines, "- %s (Source: %s, Date: %s)\n", h.Title, h.Source, h.PublishedDate)
	}

	prompt := fmt.Sprintf(`Analyze the following news headlines for %s (%s) and provide:
1. An overall sentiment score from -1.0 (very bearish) to 1.0 (very bullish)
2. A sentiment label: "Bullish", "Bearish", or "Neutral"
3. A brief summary of the overall news sentiment (2-3 sentences)

Headlines:
%s
Respond in JSON format:
{
    "sentiment_score": <float>,
    "sentiment_label": "<string>",
    "analysis_summary": "<string>"
}`, companyName, symbol, lines.String())

	var result sentimentResult
	if err := a.generateJSON(ctx, sentimentInstruction, prompt, 0.3, &result); err != nil {
		return nil, fmt.Errorf("failed to analyze sentiment for %s: %w", symbol, err)
	}

	top := headlines
	if len(top) > maxReturnedHeadlines {
		top = top[:maxReturnedHeadlines]
	}

	return &models.NewsSentiment{
		OverallSentimentScore: clamp(result.SentimentScore, -1, 1),
		SentimentLabel:        normalizeLabel(result.SentimentLabel),
		TopHeadlines:          top,
		AnalysisSummary:       result.AnalysisSummary,
	}, nil
}

type valuationResult struct {
	Summary        string   `json:"summary"`
	Recommendation string   `json:"recommendation"`
	KeyInsights    []string `json:"key_insights"`
}

// ValuationSummary comments on the price multiples against typical market averages
func (a *Analyst) ValuationSummary(ctx context.Context, symbol, companyName string, price decimal.Decimal, multiples models.PriceMultiples) (*models.AIValuationSummary, error) {
	prompt := fmt.Sprintf(`As a financial analyst, provide a valuation summary for %s (%s).

Current Price: %s

Price Multiples:
- P/E Ratio: %s
- P/B Ratio: %s
- P/S Ratio: %s
- EV/EBITDA: %s

Based on these multiples, provide:
1. A comprehensive valuation summary (3-4 sentences)
2. A recommendation: "Undervalued", "Fairly Valued", or "Overvalued"
3. 3-5 key insights about the valuation

Consider typical market averages:
- Average S&P 500 P/E: ~20-25
- Average P/B: ~3-4
- Average P/S: ~2-3
- Average EV/EBITDA: ~12-15

Respond in JSON format:
{
    "summary": "<string>",
    "recommendation": "<string>",
    "key_insights": ["<string>", "<string>", ...]
}`, companyName, symbol, formatUSD(price),
		ratio(multiples.PERatio), ratio(multiples.PBRatio), ratio(multiples.PSRatio), ratio(multiples.EVEBITDA))

	var result valuationResult
	if err := a.generateJSON(ctx, valuationInstruction, prompt, 0.4, &result); err != nil {
		return nil, fmt.Errorf("failed to summarize valuation for %s: %w", symbol, err)
	}

	if result.Recommendation == "" {
		result.Recommendation = defaultRecommendation
	}
	if result.KeyInsights == nil {
		result.KeyInsights = []string{}
	}
	return &models.AIValuationSummary{
		Summary:        result.Summary,
		Recommendation: result.Recommendation,
		KeyInsights:    result.KeyInsights,
	}, nil
}

func (a *Analyst) generateJSON(ctx context.Context, instruction, prompt string, temperature float32, out any) error {
	resp, err := a.gen.GenerateContent(ctx, a.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: instruction}}},
		Temperature:       genai.Ptr(temperature),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return fmt.Errorf("model call failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return fmt.Errorf("model returned no content")
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		log.WithField("response", text).Debug("unparseable model response")
		return fmt.Errorf("failed to parse model response: %w", err)
	}
	return nil
}

// formatUSD renders amount in dollars, e.g. $1,234.50
func formatUSD(amount decimal.Decimal) string {
	cur := money.GetCurrency(money.USD)
	cents := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(cents.IntPart(), money.USD).Display()
}

func ratio(v *float64) string {
	if v == nil || *v == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

func normalizeLabel(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "bullish":
		return models.SentimentBullish
	case "bearish":
		return models.SentimentBearish
	default:
		return models.SentimentNeutral
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
