// Package insights asks a Gemini model for spending commentary over the
// current ledger snapshot. Responses are memoized so repeated reads within
// the TTL never re-hit the model.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"google.golang.org/genai"

	"zenbudget/internal/cache"
	"zenbudget/internal/core"
	"zenbudget/internal/ledger"
	"zenbudget/internal/log"
)

// Insight is the structured advice the model is asked to produce.
type Insight struct {
	Tip            string `json:"tip"`
	Analysis       string `json:"analysis"`
	Recommendation string `json:"recommendation"`
}

type Service struct {
	client *genai.Client
	model  string
	cache  *cache.LRUCache[Insight]
	logger *log.Logger
}

// NewService builds a Gemini-backed insight generator. Credentials come
// from the environment (GEMINI_API_KEY or Vertex project settings).
func NewService(ctx context.Context, model string, ttl time.Duration, logger *log.Logger) (*Service, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Service{
		client: client,
		model:  model,
		cache:  cache.NewLRUCache[Insight](16, ttl),
		logger: logger.WithComponent(log.ComponentInsights),
	}, nil
}

// Generate returns advice for the snapshot, serving from cache when the
// ledger has not changed since the last call.
func (s *Service) Generate(ctx context.Context, snap core.Snapshot, now time.Time) (Insight, error) {
	key := snapshotKey(snap)
	if ins, ok := s.cache.Get(key); ok {
		s.logger.Debug("Serving cached insight", "key", key)
		return ins, nil
	}

	prompt := buildPrompt(snap, now)
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return Insight{}, fmt.Errorf("generate content: %w", err)
	}
	raw := resp.Text()
	if raw == "" {
		return Insight{}, fmt.Errorf("empty response from model")
	}

	var ins Insight
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &ins); err != nil {
		return Insight{}, fmt.Errorf("unmarshal insight: %w\nraw response: %s", err, raw)
	}
	s.cache.Set(key, ins)
	return ins, nil
}

// snapshotKey fingerprints the ledger so edits invalidate the cache.
func snapshotKey(snap core.Snapshot) string {
	last := ""
	if n := len(snap.Transactions); n > 0 {
		last = snap.Transactions[n-1].ID
	}
	return fmt.Sprintf("%d:%d:%s", len(snap.Transactions), len(snap.Budgets), last)
}

// buildPrompt summarizes the last 30 days of spending, the configured
// budgets and the most recent transactions into a single instruction.
func buildPrompt(snap core.Snapshot, now time.Time) string {
	var b strings.Builder

	b.WriteString("You are a personal finance assistant. Analyze the following ledger data ")
	b.WriteString("and respond with a single JSON object with exactly these string fields: ")
	b.WriteString(`"tip", "analysis", "recommendation".` + "\n")
	b.WriteString("Do NOT use ```json or any Markdown. ")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n\n")

	summary := ledger.PeriodSummary(snap.Transactions, now.AddDate(0, 0, -30), now)
	b.WriteString("Spending by category over the last 30 days:\n")
	if len(summary.ByCategory) == 0 {
		b.WriteString("  (no expenses recorded)\n")
	}
	for _, share := range summary.ByCategory {
		fmt.Fprintf(&b, "  %s: %s (%.1f%%)\n", share.Name, share.Value, share.Percent)
	}
	fmt.Fprintf(&b, "Total income: %s, total expenses: %s\n\n", summary.Income, summary.Expense)

	if len(snap.Budgets) > 0 {
		b.WriteString("Monthly budgets:\n")
		budgets := make([]core.Budget, len(snap.Budgets))
		copy(budgets, snap.Budgets)
		sort.Slice(budgets, func(i, j int) bool { return budgets[i].Category < budgets[j].Category })
		for _, bud := range budgets {
			fmt.Fprintf(&b, "  %s: %s\n", bud.Category, bud.MonthlyLimit)
		}
		b.WriteString("\n")
	}

	txs := recentTransactions(snap.Transactions, 10)
	if len(txs) > 0 {
		b.WriteString("Most recent transactions:\n")
		for _, tx := range txs {
			fmt.Fprintf(&b, "  %s %s %s (%s)\n", tx.Date.Format("2006-01-02"), tx.Type, tx.Amount, tx.Category)
		}
	}

	return b.String()
}

// recentTransactions returns up to n transactions, newest first.
func recentTransactions(txs []core.Transaction, n int) []core.Transaction {
	sorted := make([]core.Transaction, len(txs))
	copy(sorted, txs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// cleanModelJSON strips Markdown fences and surrounding junk the model
// sometimes emits despite instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
