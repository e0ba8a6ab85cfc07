package enrich

import (
	"fmt"
	"strings"
)

const (
	relevanceSystem = "You are a financial news analyzer. Always respond with valid JSON only."
	summarySystem   = "You are a financial news summarizer. Create concise, informative summaries."
	sentimentSystem = "You are a financial sentiment analyzer. Always respond with valid JSON only."
)

func relevancePrompt(title, content string, tickers []string) string {
	return fmt.Sprintf(`Determine if this article is relevant to any of these stock tickers: %s

Article Title: %s

Article Content:
%s

Respond with a JSON object containing:
- "relevant": true or false
- "companies": array of ticker symbols mentioned (e.g., ["NVDA"])
- "confidence": float between 0.0 and 1.0

Only include tickers that are actually mentioned or clearly referenced in the article.
Be strict: only mark as relevant if there is a clear connection to the tracked tickers.`,
		strings.Join(tickers, ", "), title, content)
}

func summaryPrompt(title, content string, maxLen int) string {
	return fmt.Sprintf(`Summarize this financial news article in %d characters or less.
Focus on key financial implications, company performance, market impact, and important numbers.

Title: %s

Content:
%s

Provide a concise summary:`, maxLen, title, content)
}

func sentimentPrompt(title, content string) string {
	return fmt.Sprintf(`Analyze the sentiment of this financial news article.
Consider: stock price impact, company performance outlook, market sentiment, investor confidence.

Title: %s

Content:
%s

Respond with a JSON object containing:
- "sentiment_score": float between -1.0 (very negative) and 1.0 (very positive)
- "sentiment_label": "positive", "negative", or "neutral"
- "confidence": float between 0.0 and 1.0

Examples:
- Very negative news (scandal, major loss): -0.8 to -1.0
- Negative news (missed earnings, downgrade): -0.3 to -0.7
- Neutral news (routine updates): -0.2 to 0.2
- Positive news (beat earnings, upgrade): 0.3 to 0.7
- Very positive news (major win, acquisition): 0.8 to 1.0`, title, content)
}
