package sources

import "net/url"

// absoluteURL resolves href against the page it came from. An unparsable
// href passes through unchanged.
func absoluteURL(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
