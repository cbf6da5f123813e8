package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// PageDriver is the DOM surface the harness loops drive. The chromedp
// implementation is below; tests substitute a scripted fake.
type PageDriver interface {
	Navigate(ctx context.Context, url string) error
	PageHeight(ctx context.Context) (float64, error)
	ScrollBy(ctx context.Context, viewportFraction float64) error
	// ClickFirst clicks the first matching, visible element and reports
	// whether anything was clicked.
	ClickFirst(ctx context.Context, selector string) (bool, error)
	// ClickButtonByLabel clicks the first button whose text matches one
	// of the labels, used to dismiss cookie and region interstitials.
	ClickButtonByLabel(ctx context.Context, labels []string) (bool, error)
	// CollectHrefs gathers anchor hrefs under the selector, skipping
	// anchors inside any of the exclude selectors.
	CollectHrefs(ctx context.Context, selector string, exclude []string) ([]string, error)
	// ExtractText returns trimmed text content for the selector, or "".
	ExtractText(ctx context.Context, selector string) (string, error)
	// ExtractAttr returns an attribute value for the selector, or "".
	ExtractAttr(ctx context.Context, selector, attr string) (string, error)
}

// ChromeDriver drives a real Chrome tab.
type ChromeDriver struct {
	ctx context.Context
}

var _ PageDriver = (*ChromeDriver)(nil)

func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	err := chromedp.Run(d.ctx,
		emulation.SetUserAgentOverride("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36").
			WithAcceptLanguage("en-GB,en;q=0.9"),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	return nil
}

func (d *ChromeDriver) PageHeight(ctx context.Context) (float64, error) {
	var height float64
	if err := chromedp.Run(d.ctx, chromedp.Evaluate(`document.body.scrollHeight`, &height)); err != nil {
		return 0, fmt.Errorf("browser: page height: %w", err)
	}
	return height, nil
}

func (d *ChromeDriver) ScrollBy(ctx context.Context, viewportFraction float64) error {
	script := fmt.Sprintf(`window.scrollBy(0, window.innerHeight * %f)`, viewportFraction)
	if err := chromedp.Run(d.ctx, chromedp.Evaluate(script, nil)); err != nil {
		return fmt.Errorf("browser: scroll: %w", err)
	}
	return nil
}

func (d *ChromeDriver) ClickFirst(ctx context.Context, selector string) (bool, error) {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el || el.offsetParent === null) return false;
		el.click();
		return true;
	})()`, selector)
	var clicked bool
	if err := chromedp.Run(d.ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return false, fmt.Errorf("browser: click %s: %w", selector, err)
	}
	return clicked, nil
}

func (d *ChromeDriver) ClickButtonByLabel(ctx context.Context, labels []string) (bool, error) {
	quoted := make([]string, 0, len(labels))
	for _, l := range labels {
		quoted = append(quoted, fmt.Sprintf("%q", strings.ToLower(l)))
	}
	script := fmt.Sprintf(`(() => {
		const labels = [%s];
		const candidates = document.querySelectorAll('button, a[role="button"], input[type="button"]');
		for (const el of candidates) {
			const text = (el.innerText || el.value || '').trim().toLowerCase();
			if (labels.some(l => text === l || text.startsWith(l))) {
				el.click();
				return true;
			}
		}
		return false;
	})()`, strings.Join(quoted, ","))
	var clicked bool
	if err := chromedp.Run(d.ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return false, fmt.Errorf("browser: dismiss dialog: %w", err)
	}
	return clicked, nil
}

func (d *ChromeDriver) CollectHrefs(ctx context.Context, selector string, exclude []string) ([]string, error) {
	quoted := make([]string, 0, len(exclude))
	for _, e := range exclude {
		quoted = append(quoted, fmt.Sprintf("%q", e))
	}
	script := fmt.Sprintf(`(() => {
		const exclude = [%s];
		const anchors = document.querySelectorAll(%q);
		const hrefs = [];
		for (const a of anchors) {
			if (exclude.some(sel => a.closest(sel))) continue;
			if (a.href) hrefs.push(a.href);
		}
		return hrefs;
	})()`, strings.Join(quoted, ","), selector)
	var hrefs []string
	if err := chromedp.Run(d.ctx, chromedp.Evaluate(script, &hrefs)); err != nil {
		return nil, fmt.Errorf("browser: collect links %s: %w", selector, err)
	}
	return hrefs, nil
}

func (d *ChromeDriver) ExtractText(ctx context.Context, selector string) (string, error) {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		return el ? el.textContent.trim() : '';
	})()`, selector)
	var text string
	if err := chromedp.Run(d.ctx, chromedp.Evaluate(script, &text)); err != nil {
		return "", fmt.Errorf("browser: extract %s: %w", selector, err)
	}
	return text, nil
}

func (d *ChromeDriver) ExtractAttr(ctx context.Context, selector, attr string) (string, error) {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		return el ? (el.getAttribute(%q) || '') : '';
	})()`, selector, attr)
	var value string
	if err := chromedp.Run(d.ctx, chromedp.Evaluate(script, &value)); err != nil {
		return "", fmt.Errorf("browser: extract attr %s: %w", selector, err)
	}
	return value, nil
}
