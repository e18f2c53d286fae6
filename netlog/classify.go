package netlog

import "strings"

// apiPathFragments is the allow-list: a URL must contain at least one of
// these to be considered application-data traffic.
var apiPathFragments = []string{
	"/api/",
	"/graphql",
	"/rest/",
	"/v1/",
	"/v2/",
	"/rpc",
}

// noiseFragments is the deny-list: static assets and tracking. The deny-list
// wins over the allow-list.
var noiseFragments = []string{
	".js",
	".css",
	".png",
	".jpg",
	".jpeg",
	".gif",
	".svg",
	".woff",
	".woff2",
	".ttf",
	".ico",
	".map",
	"analytics",
	"telemetry",
	"sentry",
	"datadog",
	"segment.io",
	"googletagmanager",
	"doubleclick",
}

// InScope classifies a URL as in-scope API traffic. Both filters are
// evaluated on the lower-cased URL.
func InScope(rawURL string) bool {
	u := strings.ToLower(rawURL)

	for _, frag := range noiseFragments {
		if strings.Contains(u, frag) {
			return false
		}
	}
	for _, frag := range apiPathFragments {
		if strings.Contains(u, frag) {
			return true
		}
	}
	return false
}
