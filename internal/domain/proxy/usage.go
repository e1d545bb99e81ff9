package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/errgroup"
)

const anthropicVersion = "2023-06-01"

// ModelUsage is a per-model slice of a usage report.
type ModelUsage struct {
	Name   string  `json:"name"`
	Tokens int64   `json:"tokens"`
	Cost   float64 `json:"cost"`
}

// PeriodUsage is a week or month rollup.
type PeriodUsage struct {
	Tokens int64   `json:"tokens"`
	Cost   float64 `json:"cost"`
}

// UsageReport is the wire shape of a usage lookup. Upstream problems
// come back as a populated Error with zeroed totals rather than an
// HTTP failure, so one broken widget never breaks the dashboard.
type UsageReport struct {
	Error  string       `json:"error,omitempty"`
	Tokens int64        `json:"tokens"`
	Cost   float64      `json:"cost"`
	Models []ModelUsage `json:"models"`
	Week   *PeriodUsage `json:"week,omitempty"`
	Month  *PeriodUsage `json:"month,omitempty"`
}

func usageError(msg string) UsageReport {
	return UsageReport{Error: msg, Models: []ModelUsage{}}
}

// UsageService proxies AI-provider billing APIs and aggregates them
// into today / current-ISO-week / month-to-date buckets. Week starts
// on Monday; all period math is done in UTC.
type UsageService struct {
	client *Client
	now    func() time.Time

	anthropicBase string
	openaiBase    string
}

func NewUsageService(client *Client) *UsageService {
	return &UsageService{
		client:        client,
		now:           time.Now,
		anthropicBase: "https://api.anthropic.com/v1/organizations/usage_report/messages",
		openaiBase:    "https://api.openai.com/v1/organization/costs",
	}
}

type periods struct {
	today      time.Time
	tomorrow   time.Time
	weekStart  time.Time
	monthStart time.Time
}

func (s *UsageService) periods() periods {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	mondayOffset := (int(now.Weekday()) + 6) % 7
	return periods{
		today:      today,
		tomorrow:   today.AddDate(0, 0, 1),
		weekStart:  today.AddDate(0, 0, -mondayOffset),
		monthStart: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
	}
}

type apiError struct {
	Error json.RawMessage `json:"error"`
}

// errorMessage digs a human message out of an upstream error payload,
// tolerating both {"error":{"message":...}} and {"error":"..."}.
func errorMessage(body []byte) string {
	var e apiError
	if err := sonic.Unmarshal(body, &e); err != nil || len(e.Error) == 0 {
		return "API error"
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := sonic.Unmarshal(e.Error, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	var s string
	if err := sonic.Unmarshal(e.Error, &s); err == nil && s != "" {
		return s
	}
	return "API error"
}

func (s *UsageService) getJSON(ctx context.Context, url string, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.client.maxBody))
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

type anthropicBucket struct {
	Model        string  `json:"model"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	InputCost    float64 `json:"input_cost"`
	OutputCost   float64 `json:"output_cost"`
}

type anthropicResponse struct {
	Data []anthropicBucket `json:"data"`
}

func aggregateAnthropic(resp anthropicResponse) (int64, float64, []ModelUsage) {
	var tokens int64
	var cost float64
	index := map[string]int{}
	models := []ModelUsage{}
	for _, b := range resp.Data {
		t := b.InputTokens + b.OutputTokens
		c := b.InputCost + b.OutputCost
		tokens += t
		cost += c
		name := b.Model
		if name == "" {
			name = "unknown"
		}
		i, ok := index[name]
		if !ok {
			i = len(models)
			index[name] = i
			models = append(models, ModelUsage{Name: name})
		}
		models[i].Tokens += t
		models[i].Cost += c
	}
	return tokens, cost, models
}

// Claude aggregates the Anthropic admin usage report for the three
// periods. The three upstream calls run concurrently.
func (s *UsageService) Claude(ctx context.Context, apiKey string) UsageReport {
	p := s.periods()
	headers := map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": anthropicVersion,
	}
	fetchRange := func(ctx context.Context, from time.Time) ([]byte, int, error) {
		url := fmt.Sprintf("%s?starting_at=%s&ending_at=%s&bucket_width=1d&group_by[]=model",
			s.anthropicBase,
			from.Format("2006-01-02T15:04:05Z"),
			p.tomorrow.Format("2006-01-02T15:04:05Z"))
		return s.getJSON(ctx, url, headers)
	}

	var todayBody, weekBody, monthBody []byte
	var todayStatus int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		todayBody, todayStatus, err = fetchRange(gctx, p.today)
		return err
	})
	g.Go(func() (err error) {
		weekBody, _, err = fetchRange(gctx, p.weekStart)
		return err
	})
	g.Go(func() (err error) {
		monthBody, _, err = fetchRange(gctx, p.monthStart)
		return err
	})
	if err := g.Wait(); err != nil {
		return usageError(err.Error())
	}
	if todayStatus < 200 || todayStatus > 299 {
		return usageError(errorMessage(todayBody))
	}

	var todayResp, weekResp, monthResp anthropicResponse
	if err := sonic.Unmarshal(todayBody, &todayResp); err != nil {
		return usageError(err.Error())
	}
	_ = sonic.Unmarshal(weekBody, &weekResp)
	_ = sonic.Unmarshal(monthBody, &monthResp)

	tokens, cost, models := aggregateAnthropic(todayResp)
	weekTokens, weekCost, _ := aggregateAnthropic(weekResp)
	monthTokens, monthCost, _ := aggregateAnthropic(monthResp)
	return UsageReport{
		Tokens: tokens,
		Cost:   cost,
		Models: models,
		Week:   &PeriodUsage{Tokens: weekTokens, Cost: weekCost},
		Month:  &PeriodUsage{Tokens: monthTokens, Cost: monthCost},
	}
}

type openaiCostsResponse struct {
	Data []struct {
		Results []struct {
			LineItem string `json:"line_item"`
			Amount   struct {
				Value float64 `json:"value"`
			} `json:"amount"`
		} `json:"results"`
	} `json:"data"`
}

// aggregateOpenAI sums cost line items. The costs API reports cents,
// so totals are divided by 100 into dollars. Token counts are not
// exposed by this endpoint and stay zero.
func aggregateOpenAI(resp openaiCostsResponse) (float64, []ModelUsage) {
	var cents float64
	index := map[string]int{}
	models := []ModelUsage{}
	for _, bucket := range resp.Data {
		for _, item := range bucket.Results {
			cents += item.Amount.Value
			name := item.LineItem
			if name == "" {
				name = "unknown"
			}
			i, ok := index[name]
			if !ok {
				i = len(models)
				index[name] = i
				models = append(models, ModelUsage{Name: name})
			}
			models[i].Cost += item.Amount.Value
		}
	}
	for i := range models {
		models[i].Cost /= 100
	}
	return cents / 100, models
}

// OpenAI aggregates the organization costs API for the three periods.
func (s *UsageService) OpenAI(ctx context.Context, apiKey string) UsageReport {
	p := s.periods()
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	fetchFrom := func(ctx context.Context, from time.Time) ([]byte, int, error) {
		url := fmt.Sprintf("%s?start_time=%d&bucket_width=1d", s.openaiBase, from.Unix())
		return s.getJSON(ctx, url, headers)
	}

	var todayBody, weekBody, monthBody []byte
	var todayStatus int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		todayBody, todayStatus, err = fetchFrom(gctx, p.today)
		return err
	})
	g.Go(func() (err error) {
		weekBody, _, err = fetchFrom(gctx, p.weekStart)
		return err
	})
	g.Go(func() (err error) {
		monthBody, _, err = fetchFrom(gctx, p.monthStart)
		return err
	})
	if err := g.Wait(); err != nil {
		return usageError(err.Error())
	}
	if todayStatus < 200 || todayStatus > 299 {
		msg := errorMessage(todayBody)
		if strings.Contains(msg, "scope") {
			msg += ` Enable "Usage: Read" scope on your API key.`
		}
		return usageError(msg)
	}

	var todayResp, weekResp, monthResp openaiCostsResponse
	if err := sonic.Unmarshal(todayBody, &todayResp); err != nil {
		return usageError(err.Error())
	}
	_ = sonic.Unmarshal(weekBody, &weekResp)
	_ = sonic.Unmarshal(monthBody, &monthResp)

	cost, models := aggregateOpenAI(todayResp)
	weekCost, _ := aggregateOpenAI(weekResp)
	monthCost, _ := aggregateOpenAI(monthResp)
	return UsageReport{
		Cost:   cost,
		Models: models,
		Week:   &PeriodUsage{Cost: weekCost},
		Month:  &PeriodUsage{Cost: monthCost},
	}
}
