package fetcher

import (
	"context"
	"fmt"
	"net/http"
)

// BrowserBackend is the scripted-browser Backend selected by --js: when a
// real implementation would render JS and return the DOM-serialized HTML,
// satisfying the same Backend interface a plain HTTP fetch does. No
// headless-browser automation library is wired in yet, so this backend
// reports itself unavailable rather than silently falling back to a plain
// HTTP fetch — --js fails loudly instead of producing results that look
// JS-rendered but are not.
type BrowserBackend struct{}

func NewBrowserBackend() *BrowserBackend {
	return &BrowserBackend{}
}

func (b *BrowserBackend) Fetch(ctx context.Context, targetURL string, headers http.Header) (*Result, error) {
	return nil, fmt.Errorf("fetcher: scripted-browser backend (--js) is not available in this build")
}
