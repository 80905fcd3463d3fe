package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"stolpersteine/internal/config"
	"stolpersteine/internal/source"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testClient(fn roundTripFunc) *Client {
	cfg := config.Config{
		WikiBaseURL:      "https://wiki.test",
		WikiAPIURL:       "https://wiki.test/w/api.php",
		WikiUserAgent:    "test-agent",
		WikiRateLimitRPS: 1000,
		WikiTimeoutMs:    1000,
	}
	client := NewClient(cfg)
	client.httpClient = &http.Client{Transport: fn}
	return client
}

func jsonResponse(status int, payload any) *http.Response {
	blob, _ := json.Marshal(payload)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(string(blob))),
		Header:     make(http.Header),
	}
}

func member(id, ns int, title string) map[string]any {
	return map[string]any{"pageid": id, "ns": ns, "title": title}
}

func TestCategoryMembersFollowsContinue(t *testing.T) {
	attempt := 0
	client := testClient(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/w/api.php" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Fatalf("user agent = %q", r.Header.Get("User-Agent"))
		}
		attempt++
		switch attempt {
		case 1:
			return jsonResponse(http.StatusServiceUnavailable, map[string]any{}), nil
		case 2:
			if r.URL.Query().Get("cmcontinue") != "" {
				t.Fatalf("first page should not carry cmcontinue")
			}
			return jsonResponse(http.StatusOK, map[string]any{
				"continue": map[string]any{"cmcontinue": "page|B", "continue": "-||"},
				"query": map[string]any{"categorymembers": []any{
					member(1, 0, "Liste der Stolpersteine in A"),
					member(9, 14, "Kategorie:Unter"),
				}},
			}), nil
		case 3:
			if got := r.URL.Query().Get("cmcontinue"); got != "page|B" {
				t.Fatalf("cmcontinue = %q", got)
			}
			return jsonResponse(http.StatusOK, map[string]any{
				"query": map[string]any{"categorymembers": []any{
					member(2, 0, "Liste der Stolpersteine in B"),
					member(1, 0, "Liste der Stolpersteine in A"),
				}},
			}), nil
		}
		t.Fatalf("unexpected request %d", attempt)
		return nil, nil
	})

	members, err := client.CategoryMembers(context.Background(), "Kategorie:Liste (Stolpersteine)", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 {
		t.Fatalf("len=%d %+v", len(members), members)
	}
	if members[1].Title != "Liste der Stolpersteine in B" || members[1].PageID != 2 {
		t.Fatalf("unexpected member %+v", members[1])
	}
}

func TestCategoryMembersStopsOnRepeatedContinue(t *testing.T) {
	calls := 0
	client := testClient(func(r *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusOK, map[string]any{
			"continue": map[string]any{"cmcontinue": "same"},
			"query":    map[string]any{"categorymembers": []any{member(calls, 0, "P")}},
		}), nil
	})

	members, err := client.CategoryMembers(context.Background(), "Kategorie:X", false)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if len(members) != 1 {
		t.Fatalf("duplicates not removed: %+v", members)
	}
}

func TestCategoryMembersRecursive(t *testing.T) {
	client := testClient(func(r *http.Request) (*http.Response, error) {
		switch r.URL.Query().Get("cmtitle") {
		case "Kategorie:Top":
			return jsonResponse(http.StatusOK, map[string]any{
				"query": map[string]any{"categorymembers": []any{
					member(1, 0, "A"),
					member(10, 14, "Kategorie:Sub"),
				}},
			}), nil
		case "Kategorie:Sub":
			return jsonResponse(http.StatusOK, map[string]any{
				"query": map[string]any{"categorymembers": []any{
					member(2, 0, "B"),
					member(11, 14, "Kategorie:Top"),
					member(3, 2, "Benutzer:Z"),
				}},
			}), nil
		}
		t.Fatalf("unexpected category %s", r.URL.Query().Get("cmtitle"))
		return nil, nil
	})

	members, err := client.CategoryMembers(context.Background(), "Kategorie:Top", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 || members[0].Title != "A" || members[1].Title != "B" {
		t.Fatalf("unexpected members %+v", members)
	}
}

func TestFetchPageDialects(t *testing.T) {
	client := testClient(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path == "/w/api.php" {
			q := r.URL.Query()
			if q.Get("action") != "parse" || q.Get("formatversion") != "2" {
				t.Fatalf("unexpected query %s", r.URL.RawQuery)
			}
			if q.Get("page") == "Fehlt" {
				return jsonResponse(http.StatusOK, map[string]any{"error": map[string]any{"code": "missingtitle", "info": "missing"}}), nil
			}
			return jsonResponse(http.StatusOK, map[string]any{"parse": map[string]any{"title": q.Get("page"), "pageid": 5, "wikitext": "{|\n|}"}}), nil
		}
		if r.URL.Path != "/wiki/Liste_der_Stolpersteine_in_Pasewalk" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("<html></html>")),
			Header:     make(http.Header),
		}, nil
	})

	html, err := client.FetchPage(context.Background(), "Liste der Stolpersteine in Pasewalk", source.DialectHTML)
	if err != nil || string(html) != "<html></html>" {
		t.Fatalf("html = %q, %v", html, err)
	}
	text, err := client.FetchPage(context.Background(), "Liste der Stolpersteine in Pasewalk", source.DialectWikitext)
	if err != nil || string(text) != "{|\n|}" {
		t.Fatalf("wikitext = %q, %v", text, err)
	}
	if _, err := client.FetchWikitext(context.Background(), "Fehlt"); !errors.Is(err, ErrPageMissing) {
		t.Fatalf("err = %v, want ErrPageMissing", err)
	}
}

func TestFetchNonRetryableStatus(t *testing.T) {
	calls := 0
	client := testClient(func(r *http.Request) (*http.Response, error) {
		calls++
		return &http.Response{
			StatusCode: http.StatusForbidden,
			Body:       io.NopCloser(strings.NewReader("denied")),
			Header:     make(http.Header),
		}, nil
	})

	_, err := client.FetchHTML(context.Background(), "X")
	if err == nil || !strings.Contains(err.Error(), "status=403") {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	limiter := NewRateLimiter(1)
	ctx, cancel := context.WithCancel(context.Background())
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	cancel()
	if err := limiter.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
