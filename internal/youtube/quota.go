package youtube

import "net/http"

// Endpoint is a Data API resource path relative to the base URL.
type Endpoint string

const (
	EndpointChannels       Endpoint = "channels"
	EndpointPlaylistItems  Endpoint = "playlistItems"
	EndpointCommentThreads Endpoint = "commentThreads"
	EndpointComments       Endpoint = "comments"
	EndpointSearch         Endpoint = "search"
)

// Published quota weights per endpoint and method. Anything not listed costs 1.
var quotaCosts = map[Endpoint]map[string]int{
	EndpointSearch:         {http.MethodGet: 100},
	EndpointChannels:       {http.MethodGet: 1},
	EndpointPlaylistItems:  {http.MethodGet: 1},
	EndpointCommentThreads: {http.MethodGet: 1},
	EndpointComments:       {http.MethodGet: 1, http.MethodDelete: 50},
}

// Cost returns the quota units charged for one call.
func Cost(endpoint Endpoint, method string) int {
	if byMethod, ok := quotaCosts[endpoint]; ok {
		if c, ok := byMethod[method]; ok {
			return c
		}
	}
	return 1
}
