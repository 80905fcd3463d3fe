package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stolpersteine/internal"
	"stolpersteine/internal/config"
	"stolpersteine/internal/source"
	"stolpersteine/internal/util"
)

const categoryNamespace = 14

var ErrPageMissing = errors.New("wiki page missing")

type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type parseResponse struct {
	Error *apiError `json:"error"`
	Parse struct {
		Title    string `json:"title"`
		PageID   int    `json:"pageid"`
		Wikitext string `json:"wikitext"`
	} `json:"parse"`
}

type categoryResponse struct {
	Error    *apiError         `json:"error"`
	Continue map[string]string `json:"continue"`
	Query    struct {
		CategoryMembers []internal.CategoryMember `json:"categorymembers"`
	} `json:"query"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.WikiTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.WikiRateLimitRPS),
	}
}

// FetchPage returns the page body in the requested dialect.
func (c *Client) FetchPage(ctx context.Context, title string, dialect source.Dialect) ([]byte, error) {
	switch dialect {
	case source.DialectHTML:
		return c.FetchHTML(ctx, title)
	case source.DialectWikitext:
		text, err := c.FetchWikitext(ctx, title)
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}
}

func (c *Client) FetchHTML(ctx context.Context, title string) ([]byte, error) {
	u := strings.TrimRight(c.cfg.WikiBaseURL, "/") + "/wiki/" + url.PathEscape(util.PageURLTitle(title))
	body, status, err := c.get(ctx, u, "text/html")
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrPageMissing, title)
	}
	return body, err
}

func (c *Client) FetchWikitext(ctx context.Context, title string) (string, error) {
	body, err := c.fetchAPI(ctx, map[string]string{
		"action":        "parse",
		"page":          title,
		"prop":          "wikitext",
		"format":        "json",
		"formatversion": "2",
	})
	if err != nil {
		return "", err
	}

	var resp parseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		if resp.Error.Code == "missingtitle" {
			return "", fmt.Errorf("%w: %s", ErrPageMissing, title)
		}
		return "", fmt.Errorf("wiki api error: %s: %s", resp.Error.Code, resp.Error.Info)
	}
	return resp.Parse.Wikitext, nil
}

// CategoryMembers lists the article pages of a category, following
// cmcontinue until the API stops returning one or repeats itself. With
// recursive set, subcategories are walked as well, each at most once.
func (c *Client) CategoryMembers(ctx context.Context, category string, recursive bool) ([]internal.CategoryMember, error) {
	out := []internal.CategoryMember{}
	seenPages := map[string]struct{}{}
	seenCategories := map[string]struct{}{}
	queue := []string{category}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, ok := seenCategories[current]; ok {
			continue
		}
		seenCategories[current] = struct{}{}

		members, err := c.categoryPage(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if m.NS == categoryNamespace {
				if recursive {
					queue = append(queue, m.Title)
				}
				continue
			}
			if m.NS != 0 {
				continue
			}
			if _, ok := seenPages[m.Title]; ok {
				continue
			}
			seenPages[m.Title] = struct{}{}
			out = append(out, m)
		}
	}

	return out, nil
}

func (c *Client) categoryPage(ctx context.Context, category string) ([]internal.CategoryMember, error) {
	all := []internal.CategoryMember{}
	seen := map[string]struct{}{}
	var cont string

	for {
		params := map[string]string{
			"action":  "query",
			"list":    "categorymembers",
			"cmtitle": category,
			"cmlimit": "max",
			"format":  "json",
		}
		if cont != "" {
			params["cmcontinue"] = cont
		}

		body, err := c.fetchAPI(ctx, params)
		if err != nil {
			return nil, err
		}

		var resp categoryResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, err
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("wiki api error: %s: %s", resp.Error.Code, resp.Error.Info)
		}
		all = append(all, resp.Query.CategoryMembers...)

		next := resp.Continue["cmcontinue"]
		if next == "" {
			break
		}
		if _, ok := seen[next]; ok {
			slog.Warn("category continuation repeated", "category", category, "cmcontinue", next)
			break
		}
		seen[next] = struct{}{}
		cont = next
	}

	slog.Debug("category page listed", "category", category, "members", len(all))
	return all, nil
}

func (c *Client) fetchAPI(ctx context.Context, params map[string]string) ([]byte, error) {
	u, err := url.Parse(c.cfg.WikiAPIURL)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	body, _, err := c.get(ctx, u.String(), "application/json")
	return body, err
}

// get retries transport errors and 429/5xx with exponential backoff. The
// last status seen is returned alongside the error.
func (c *Client) get(ctx context.Context, target, accept string) ([]byte, int, error) {
	var lastErr error
	lastStatus := 0
	for attempt := 1; attempt <= 5; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, lastStatus, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("User-Agent", c.cfg.WikiUserAgent)
		req.Header.Set("Accept", accept)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, lastStatus, ctx.Err()
			}
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		lastStatus = resp.StatusCode
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				slog.Debug("wiki request retry", "status", resp.StatusCode, "attempt", attempt, "backoff", backoff)
				if err := sleepCtx(ctx, backoff); err != nil {
					return nil, lastStatus, err
				}
				lastErr = fmt.Errorf("wiki status %d", resp.StatusCode)
				continue
			}
			return nil, resp.StatusCode, fmt.Errorf("wiki error: status=%d body=%s", resp.StatusCode, truncate(string(body), 512))
		}
		return body, resp.StatusCode, nil
	}

	if lastErr == nil {
		lastErr = errors.New("wiki request failed")
	}
	return nil, lastStatus, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
