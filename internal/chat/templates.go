package chat

import "github.com/retailgenie/orchestrator/internal/intent"

// Canned replies for intents that never reach the recommender.
const (
	greetingReply = "Welcome to Retail Genie! I'm your shopping assistant. Are you looking for something specific today?"
	helpReply     = "I can help you find products, check prices and nearby availability, list current offers, and answer questions about items. Just tell me what you're looking for."
	cartReply     = "I can help you get that ordered. Tell me which product you'd like to add and I'll take care of the rest."
	infoReply     = "Happy to share details! Which product would you like to know more about?"
	offersReply   = "Here are the offers you can use right now."

	browseReply = "Here's a look at what we have for you."

	recommendReply = "Here's what I found for you."
	guidanceReply  = "I couldn't find matching products. Try refining your search with a category (jeans, shirts, party wear), a price range (\"under 2000\"), or an occasion."
	degradedReply  = "I'm having trouble reaching our recommendations right now. Please try again in a moment."
)

func cannedReply(label intent.Intent) (string, bool) {
	switch label {
	case intent.Greeting:
		return greetingReply, true
	case intent.Help:
		return helpReply, true
	case intent.Cart:
		return cartReply, true
	case intent.Info:
		return infoReply, true
	}
	return "", false
}
