package routeapi

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	percentagePattern = regexp.MustCompile(`\[V\d\]\s*([\d.]+)%\s*=`)
	poolPattern       = regexp.MustCompile(`\[0x[a-fA-F0-9]+\]`)
)

// ParseRouteString breaks the API's human route description into one
// split share per parallel path: the percentage of the trade routed
// through it and the pool addresses it traverses, lowercased. Used for
// display only; execution works from the structured route graph.
func ParseRouteString(routeString string) []SplitShare {
	if strings.TrimSpace(routeString) == "" {
		return nil
	}

	parts := strings.Split(routeString, ", ")
	shares := make([]SplitShare, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)

		share := SplitShare{}
		if m := percentagePattern.FindStringSubmatch(part); m != nil {
			share.Percentage, _ = strconv.ParseFloat(m[1], 64)
		}
		for _, pool := range poolPattern.FindAllString(part, -1) {
			pool = strings.Trim(pool, "[]")
			share.Pools = append(share.Pools, strings.ToLower(pool))
		}
		shares = append(shares, share)
	}

	return shares
}
