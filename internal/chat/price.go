package chat

import (
	"regexp"
	"strconv"
)

// priceCeilingPattern covers the "under 2000" / "below 2000" / "up to 2000"
// phrasing family.
var priceCeilingPattern = regexp.MustCompile(`(?i)(?:under|below|up to)\s*(\d+)`)

// ExtractPriceCeiling pulls a numeric price ceiling out of free text, or nil
// when the message does not mention one.
func ExtractPriceCeiling(text string) *float64 {
	match := priceCeilingPattern.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return nil
	}
	return &value
}
