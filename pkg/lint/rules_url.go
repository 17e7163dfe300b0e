// SPDX-License-Identifier: MPL-2.0

package lint

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"condalint/pkg/recipe"
)

// urlFields are the recipe metadata keys expected to hold reachable URLs.
var urlFields = []string{
	"about/home",
	"about/doc_url",
	"about/doc_source_url",
	"about/license_url",
	"about/dev_url",
}

// urlChecks covers URL reachability and transport hygiene. Both checks
// share one prober so each distinct URL is probed at most once per session.
func urlChecks() []Check {
	prober := newURLProber()
	return []Check{
		&invalidURL{baseCheck: baseCheck{
			name:     "invalid_url",
			severity: SeverityError,
			doc: `%s : %s
Please add a valid URL.`,
		}, prober: prober},
		&httpURL{baseCheck: baseCheck{
			name:     "http_url",
			severity: SeverityWarning,
			requires: []string{"invalid_url"},
			doc: `%s is not https
Please replace with https.`,
		}, prober: prober},
	}
}

// probeResult is the condensed outcome of one URL probe.
type probeResult struct {
	// Code is the HTTP status, or -1 for transport failures and
	// cross-domain redirects.
	Code int
	// Message describes the outcome for the lint message body.
	Message string
	// DomainRedirect is set when the URL answers with a redirect to a
	// different domain; usually a parked or moved project page.
	DomainRedirect bool
}

// Reachable reports whether the probe found a live endpoint.
func (p probeResult) Reachable() bool {
	return p.Code >= 0 && p.Code < 400
}

// urlProber issues HEAD requests with retry on transport errors and caches
// results for the lifetime of its check set. The probe func is swappable so
// tests never touch the network.
type urlProber struct {
	mu     sync.Mutex
	client *http.Client
	cache  map[string]probeResult
	probe  func(url string) probeResult
}

func newURLProber() *urlProber {
	client := &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	p := &urlProber{client: client, cache: map[string]probeResult{}}
	p.probe = func(target string) probeResult {
		return probeOnce(client, target)
	}
	return p
}

// SetTimeout bounds each probe. Calls made before the first probe only;
// cached results are not invalidated.
func (p *urlProber) SetTimeout(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Timeout = d
	}
}

// Check probes a URL, serving repeats from the cache.
func (p *urlProber) Check(target string) probeResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	if res, ok := p.cache[target]; ok {
		return res
	}
	res := p.probe(target)
	p.cache[target] = res
	return res
}

func probeOnce(client *http.Client, target string) probeResult {
	var resp *http.Response
	err := retry.Do(
		func() error {
			var err error
			resp, err = client.Head(target)
			if err == nil {
				resp.Body.Close()
			}
			return err
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return probeResult{Code: -1, Message: err.Error()}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		if location := resp.Header.Get("Location"); location != "" {
			origin := domainOf(target)
			redirect := domainOf(location)
			if redirect != "" && origin != redirect {
				return probeResult{
					Code:           -1,
					Message:        fmt.Sprintf("URL domain redirect %s -> %s", origin, redirect),
					DomainRedirect: true,
				}
			}
		}
		return probeResult{Code: resp.StatusCode, Message: "URL valid"}
	}
	return probeResult{Code: resp.StatusCode, Message: fmt.Sprintf("Not reachable: %d", resp.StatusCode)}
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// unresolvedRe matches template expressions the render prepass could not
// resolve; probing those would only report noise.
var unresolvedRe = regexp.MustCompile(`\{\{.*\}\}`)

func probeableURL(target string) bool {
	if target == "" || unresolvedRe.MatchString(target) {
		return false
	}
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

type invalidURL struct {
	baseCheck
	prober *urlProber
}

func (c *invalidURL) SetURLTimeout(d time.Duration) { c.prober.SetTimeout(d) }

func (c *invalidURL) CheckSource(run *Run, src recipe.SourceEntry) {
	for _, target := range run.Recipe().GetStrings(src.Section + "/url") {
		if !probeableURL(target) {
			continue
		}
		res := c.prober.Check(target)
		if !res.Reachable() && !res.DomainRedirect {
			run.Report(Issue{Section: src.Section, TitleArgs: []any{target, res.Message}})
		}
	}
}

func (c *invalidURL) CheckRecipe(run *Run) {
	for _, field := range urlFields {
		target := run.Recipe().GetString(field, "")
		if !probeableURL(target) {
			continue
		}
		res := c.prober.Check(target)
		if res.Reachable() {
			continue
		}
		severity := SeverityError
		switch {
		case res.DomainRedirect:
			severity = SeverityInfo
		case res.Code == http.StatusForbidden:
			severity = SeverityWarning
		}
		run.Report(Issue{
			Section:   field,
			Severity:  severity,
			TitleArgs: []any{target, res.Message},
		})
	}
}

type httpURL struct {
	baseCheck
	prober *urlProber
}

func (c *httpURL) SetURLTimeout(d time.Duration) { c.prober.SetTimeout(d) }

// urlFix carries the patch target for upgrading one plain-http URL.
type urlFix struct {
	path string
	old  string
	new  string
}

func (c *httpURL) checkOne(run *Run, target, section, patchPath string) {
	if !strings.HasPrefix(strings.ToLower(target), "http://") {
		return
	}
	httpsURL := "https://" + target[len("http://"):]
	if !c.prober.Check(httpsURL).Reachable() {
		return
	}
	run.Report(Issue{
		Section:   section,
		TitleArgs: []any{target},
		Data:      urlFix{path: patchPath, old: target, new: httpsURL},
	})
}

func (c *httpURL) CheckSource(run *Run, src recipe.SourceEntry) {
	for _, target := range run.Recipe().GetStrings(src.Section + "/url") {
		if target != "" {
			c.checkOne(run, target, src.Section, src.Section+"/url")
		}
	}
}

func (c *httpURL) CheckRecipe(run *Run) {
	for _, field := range urlFields {
		if target := run.Recipe().GetString(field, ""); target != "" {
			c.checkOne(run, target, field, field)
		}
	}
}

func (c *httpURL) Fix(rec *recipe.Recipe, _ *Message, data any) bool {
	fix, ok := data.(urlFix)
	if !ok {
		return false
	}
	return rec.Patch([]recipe.PatchOp{{
		Op:    recipe.OpReplace,
		Path:  fix.path,
		Match: regexp.QuoteMeta(fix.old),
		Value: fix.new,
	}})
}
