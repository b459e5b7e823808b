package cleaner

import (
	"fmt"

	"github.com/andybalholm/cascadia"
)

// DefaultContentSelectors is the ordered main-content cascade. The first
// candidate that matches an element with visible text wins; body is the
// implicit last resort.
var DefaultContentSelectors = []string{
	"main",
	"article",
	`[role="main"]`,
	".content",
	"#content",
	".main-content",
	".post-content",
	".entry-content",
	".article-content",
	".page-content",
	"body",
}

// noiseSelector lists elements that never carry readable text.
const noiseSelector = "script, style, noscript, iframe, template, svg, object, embed"

// compileSelectors compiles CSS selectors in order.
func compileSelectors(selectors []string) ([]cascadia.Selector, error) {
	out := make([]cascadia.Selector, 0, len(selectors))
	for _, s := range selectors {
		sel, err := cascadia.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("cleaner: invalid selector %q: %w", s, err)
		}
		out = append(out, sel)
	}
	return out, nil
}
