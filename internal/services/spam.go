package services

import "strings"

// SpamDetector screens contact-form submissions for obvious junk.
type SpamDetector struct {
	spamWords []string
}

// NewSpamDetector returns a detector with the stock keyword list.
func NewSpamDetector() *SpamDetector {
	return &SpamDetector{
		spamWords: []string{
			"bitcoin", "btc", "crypto", "wallet", "deposit", "withdraw",
			"investment", "profit", "earn money", "make money", "get rich",
			"quick money", "limited time", "exclusive offer",
			"free money", "lottery", "prize", "winner", "claim", "verify",
			"account suspended", "security alert", "bank transfer",
			"western union", "moneygram", "inheritance",
			"seo service", "backlink", "guest post",
		},
	}
}

// IsSpam reports whether the message contains a known spam keyword.
func (sd *SpamDetector) IsSpam(message string) bool {
	messageLower := strings.ToLower(message)
	for _, word := range sd.spamWords {
		if strings.Contains(messageLower, word) {
			return true
		}
	}
	return false
}
