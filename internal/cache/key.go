// Package cache provides the response cache for upstream search calls:
// deterministic key normalization plus a failure-tolerant Redis adapter
// with per-endpoint TTL policies.
package cache

import (
	"encoding/json"
	"strings"
)

// queryAliases lists parameter names that mean the same thing as "query",
// in priority order. An alias is promoted only when the canonical name is
// absent, so requests using either spelling share one cache entry. The
// fixed ordering keeps the result deterministic when several aliases
// appear at once.
var queryAliases = []string{"q", "partial_query", "partialQuery"}

const canonicalQueryParam = "query"

// sessionParams are stripped before key generation. They vary per caller
// and would fragment the cache space without changing the response.
var sessionParams = map[string]struct{}{
	"sessionId":  {},
	"session_id": {},
	"clientIp":   {},
	"client_ip":  {},
	"_":          {},
}

// Normalize derives the canonical cache key for an endpoint and raw
// parameter set. The key is deterministic: parameter order never matters,
// aliased names collapse to one canonical name, and session-specific
// parameters are ignored.
//
// Format: {endpoint}:{sortedNormalizedParamsJSON}
func Normalize(endpoint string, rawParams map[string]string) string {
	normalized := make(map[string]string, len(rawParams))

	aliasSet := make(map[string]struct{}, len(queryAliases))
	for _, alias := range queryAliases {
		aliasSet[alias] = struct{}{}
	}

	for name, value := range rawParams {
		if _, skip := sessionParams[name]; skip {
			continue
		}
		if _, isAlias := aliasSet[name]; isAlias {
			continue
		}
		normalized[name] = value
	}

	// Promote the highest-priority alias when no explicit query parameter
	// was given.
	if _, ok := normalized[canonicalQueryParam]; !ok {
		for _, alias := range queryAliases {
			if value, present := rawParams[alias]; present {
				normalized[canonicalQueryParam] = value
				break
			}
		}
	}

	// json.Marshal serializes map keys in sorted order, which gives the
	// lexicographic ordering the key format requires.
	serialized, err := json.Marshal(normalized)
	if err != nil {
		// A map[string]string cannot fail to marshal; guard anyway.
		serialized = []byte("{}")
	}

	var sb strings.Builder
	sb.WriteString(endpoint)
	sb.WriteString(":")
	sb.Write(serialized)
	return sb.String()
}
