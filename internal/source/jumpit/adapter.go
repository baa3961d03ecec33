// Package jumpit fetches postings from the Jumpit positions API, one facet
// per adapter instance.
package jumpit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"go-jobscout-crawler/internal/source"
)

const httpTimeout = 30 * time.Second

// browserHeaders mimic the site's own frontend; the API rejects bare
// clients.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
	"Referer":         "https://www.jumpit.co.kr/",
	"Origin":          "https://www.jumpit.co.kr",
}

type Adapter struct {
	baseURL  string
	label    string
	params   map[string]string
	pageSize int
	client   *http.Client
	log      *zap.SugaredLogger
}

// New builds an adapter for one named facet. params are the facet's
// key/value pairs (jobCategory, techStack, minSalary, ...).
func New(baseURL, label string, params map[string]string, pageSize int, log *zap.SugaredLogger) *Adapter {
	return &Adapter{
		baseURL:  baseURL,
		label:    label,
		params:   params,
		pageSize: pageSize,
		client:   &http.Client{Timeout: httpTimeout},
		log:      log,
	}
}

func (a *Adapter) Name() string  { return "Jumpit" }
func (a *Adapter) Label() string { return a.label }
func (a *Adapter) PageSize() int { return a.pageSize }

// FetchPage requests one page of the facet. A 429 maps to ErrRateLimited so
// the controller can cool down instead of burning retries.
func (a *Adapter) FetchPage(ctx context.Context, page int) (*source.PageResult, error) {
	q := url.Values{}
	q.Set("highlight", "false")
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(a.pageSize))
	for k, v := range a.params {
		q.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, source.ErrRateLimited
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %.200s", resp.StatusCode, string(body))
	}

	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	items, total := probeEnvelope(envelope)
	raw := make([]source.RawRecord, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			a.log.Debugw("skipping non-object item", "label", a.label, "page", page)
			continue
		}
		raw = append(raw, source.RawRecord(obj))
	}

	return &source.PageResult{Raw: raw, TotalCount: total}, nil
}

// probeEnvelope finds the payload list. The API has shipped several shapes;
// the probe order is fixed and the first non-empty match is authoritative:
//
//	{result: {totalCount, positions: [...]}}
//	{positions: [...], totalCount}
//	{data: [...]} or {data: {positions: [...]}}
func probeEnvelope(envelope map[string]any) ([]any, int) {
	if result, ok := envelope["result"].(map[string]any); ok {
		if positions, ok := result["positions"].([]any); ok && len(positions) > 0 {
			return positions, intField(result, "totalCount")
		}
	}
	if positions, ok := envelope["positions"].([]any); ok && len(positions) > 0 {
		return positions, intField(envelope, "totalCount")
	}
	switch data := envelope["data"].(type) {
	case []any:
		return data, intField(envelope, "totalCount")
	case map[string]any:
		if positions, ok := data["positions"].([]any); ok {
			return positions, intField(data, "totalCount")
		}
	}
	return nil, 0
}

func intField(m map[string]any, key string) int {
	if f, ok := m[key].(float64); ok {
		return int(f)
	}
	return 0
}
