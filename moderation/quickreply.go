package moderation

// QuickReply is a canned answer a moderator can send with one click.
type QuickReply struct {
	Key   string
	Label string
	Text  string
}

var QuickReplies = []QuickReply{
	{Key: "published", Label: "✅ Published", Text: "✅ Thanks for taking part! Your story is already on the channel."},
	{Key: "review", Label: "⏳ Under review", Text: "⏳ We got your message and are looking into it."},
	{Key: "rejected", Label: "❌ Rejected", Text: "❌ Thanks for your time, but this does not fit our criteria."},
	{Key: "clarify", Label: "❓ Clarify", Text: "❓ Thanks! Please tell us the source, more details or how to reach you."},
}

func quickReply(key string) (QuickReply, bool) {
	for _, q := range QuickReplies {
		if q.Key == key {
			return q, true
		}
	}
	return QuickReply{}, false
}
