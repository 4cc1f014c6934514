package pattern

// DefaultRules returns the rule set seeded into a fresh database.
func DefaultRules() []Rule {
	return activate([]Rule{
		{
			Name:       "starbucks",
			Pattern:    `\b(starbucks|starbcks|sbux)\b`,
			IsRegex:    true,
			Category:   "Coffee & Beverages",
			Priority:   100,
			Confidence: 0.95,
		},
		{
			Name:       "cafe-coffee-day",
			Pattern:    "cafe coffee day",
			Category:   "Coffee & Beverages",
			Priority:   95,
			Confidence: 0.95,
		},
		{
			Name:       "fuel-station",
			Pattern:    `\b(hpcl|bpcl|iocl|indian oil|shell|petrol|diesel)\b`,
			IsRegex:    true,
			Category:   "Fuel",
			Priority:   90,
			Confidence: 0.92,
		},
		{
			Name:       "food-delivery",
			Pattern:    `\b(swiggy|zomato|ubereats)\b`,
			IsRegex:    true,
			Category:   "Food Delivery",
			Priority:   90,
			Confidence: 0.93,
		},
		{
			Name:       "ride-hailing",
			Pattern:    `\b(uber|ola|rapido)\b`,
			IsRegex:    true,
			Category:   "Transport",
			Priority:   80,
			Confidence: 0.9,
		},
		{
			Name:       "streaming",
			Pattern:    `\b(netflix|spotify|hotstar|prime video)\b`,
			IsRegex:    true,
			Category:   "Entertainment",
			Priority:   80,
			Confidence: 0.94,
		},
		{
			Name:       "online-shopping",
			Pattern:    `\b(amazon|flipkart|myntra)\b`,
			IsRegex:    true,
			Category:   "Shopping",
			Priority:   70,
			Confidence: 0.8,
		},
		{
			Name:       "groceries",
			Pattern:    `\b(d mart|bigbasket|blinkit|reliance fresh|grocery)\b`,
			IsRegex:    true,
			Category:   "Groceries",
			Priority:   70,
			Confidence: 0.85,
		},
		{
			Name:       "utilities",
			Pattern:    `\b(electricity|bescom|mseb|broadband|airtel|jio)\b`,
			IsRegex:    true,
			Category:   "Utilities",
			Priority:   60,
			Confidence: 0.75,
		},
		{
			Name:       "generic-cafe",
			Pattern:    "cafe",
			Category:   "Coffee & Beverages",
			Priority:   10,
			Confidence: 0.6,
		},
	})
}

func activate(rules []Rule) []Rule {
	for i := range rules {
		rules[i].IsActive = true
	}
	return rules
}
