package core

// SampleSpamMessages are demonstration messages that should be flagged
var SampleSpamMessages = []string{
	"CONGRATULATIONS! You've won $5,000,000 in our lottery! Click here to claim your PRIZE now!",
	"Urgent: Your account has been compromised. Verify your password immediately to avoid suspension.",
	"Dear Friend, I am Prince Abdullah and I need your help transferring $15,000,000. Please send your bank details.",
	"FREE iPhone 13 Pro! You are our lucky visitor today. Claim your gift in the next 10 minutes!",
	"Investment opportunity: Double your Bitcoin in just 24 hours! Limited offer, act NOW!",
}

// SampleNormalMessages are demonstration messages that should pass
var SampleNormalMessages = []string{
	"Hi there, just checking if we're still meeting for coffee tomorrow at 10am?",
	"The quarterly report is ready for review. Let me know your thoughts when you have time.",
	"Could you please send me the document we discussed in the meeting yesterday?",
	"Happy birthday! Wishing you all the best on your special day.",
	"The project deadline has been extended to next Friday. Let me know if you need any help.",
}
