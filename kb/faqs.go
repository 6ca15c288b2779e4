package kb

// SeedFAQs returns the standard customer support FAQ corpus.
func SeedFAQs() []Entry {
	return []Entry{
		{
			Question: "What is your return policy?",
			Answer:   "You can return most items within 30 days of delivery for a full refund. Items must be unused and in their original packaging. Start a return by sharing your order number with us.",
			Category: "returns",
			Keywords: []string{"return", "policy", "send back"},
		},
		{
			Question: "How long do refunds take?",
			Answer:   "Refunds are issued to your original payment method within 5-7 business days after we receive the returned item.",
			Category: "refunds",
			Keywords: []string{"refund", "money back", "how long"},
		},
		{
			Question: "What are your shipping options?",
			Answer:   "We offer standard shipping (3-5 business days), express shipping (1-2 business days) and free standard shipping on orders over $50.",
			Category: "shipping",
			Keywords: []string{"shipping", "delivery", "options"},
		},
		{
			Question: "Do you ship internationally?",
			Answer:   "Yes, we ship to most countries. International delivery takes 7-14 business days and customs fees may apply.",
			Category: "shipping",
			Keywords: []string{"international", "ship", "overseas"},
		},
		{
			Question: "How do I track my order?",
			Answer:   "Once your order ships you'll receive a tracking number by email. You can also share your order number here and I'll look it up.",
			Category: "orders",
			Keywords: []string{"track", "tracking", "order"},
		},
		{
			Question: "What warranty do products carry?",
			Answer:   "All products carry a 1-year manufacturer warranty covering defects in materials and workmanship. Damage from misuse is not covered.",
			Category: "warranty",
			Keywords: []string{"warranty", "guarantee", "coverage"},
		},
		{
			Question: "How do I reset my password?",
			Answer:   "Use the \"Forgot password\" link on the sign-in page. We'll email you a reset link valid for 24 hours.",
			Category: "account",
			Keywords: []string{"password", "reset", "login"},
		},
		{
			Question: "What payment methods do you accept?",
			Answer:   "We accept all major credit and debit cards, PayPal, Apple Pay and Google Pay.",
			Category: "billing",
			Keywords: []string{"payment", "card", "paypal"},
		},
		{
			Question: "How do I cancel an order?",
			Answer:   "Orders can be cancelled within 1 hour of placement from your order history. After that the order may already be processing; contact us and we'll try to intercept it.",
			Category: "orders",
			Keywords: []string{"cancel", "order", "change"},
		},
		{
			Question: "How do I contact support?",
			Answer:   "You can chat with us right here, or ask me to create a support ticket and a specialist will follow up by email.",
			Category: "support",
			Keywords: []string{"contact", "support", "agent"},
		},
	}
}
