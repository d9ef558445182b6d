package intent

import (
	"regexp"
	"strings"
)

// Intent is a coarse classification of a chat message used to pick a
// response strategy.
type Intent string

const (
	Greeting  Intent = "greeting"
	Help      Intent = "help"
	Cart      Intent = "cart"
	Offers    Intent = "offers"
	Browse    Intent = "browse"
	Info      Intent = "info"
	Recommend Intent = "recommend"
)

type rule struct {
	pattern *regexp.Regexp
	label   Intent
}

// rules is evaluated in order; the first match wins and unmatched input
// falls through to Recommend.
var rules = []rule{
	{regexp.MustCompile(`hello|hi|hey|greetings|how are you|good morning|good afternoon|good evening`), Greeting},
	{regexp.MustCompile(`help|support|assistant|what can you do|how can you help|tell me more`), Help},
	{regexp.MustCompile(`add to cart|add|cart|checkout|buy|purchase|order`), Cart},
	{regexp.MustCompile(`offer|coupon|discount|deal|sale|promotion`), Offers},
	{regexp.MustCompile(`show me|browse|categories|what do you have|products|items`), Browse},
	{regexp.MustCompile(`about|details|description|specifications|specs|info|information`), Info},
}

// Classify maps free text to an intent label. Pure and deterministic: it
// lowercases the input, walks the rule list in priority order and returns
// the first matching label, defaulting to Recommend.
func Classify(text string) Intent {
	t := strings.ToLower(text)
	for _, r := range rules {
		if r.pattern.MatchString(t) {
			return r.label
		}
	}
	return Recommend
}
