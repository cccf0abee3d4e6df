// Package mention finds Slack-style mentions in message text and splits the
// text around the bot's own mention and the author it was asked to imitate.
package mention

import (
	"regexp"

	"github.com/hpungsan/mimic/internal/message"
)

// mentionRE matches <@U123>, <@U123|label> and broadcast forms like <!here>.
var mentionRE = regexp.MustCompile(`<([@!])([A-Za-z0-9_]+)(?:\|[^<>]*)?>`)

// broadcasts are the <!...> names that address everyone.
var broadcasts = map[string]bool{
	"everyone": true,
	"channel":  true,
	"here":     true,
}

// Mention is one mention token within a message. Start and End are byte
// offsets of the opening '<' and one past the closing '>'.
type Mention struct {
	TargetID string
	Start    int
	End      int
}

// Extract returns the mentions in text in order of appearance.
// Broadcast mentions resolve to message.AllAuthors.
func Extract(text string) []Mention {
	matches := mentionRE.FindAllStringSubmatchIndex(text, -1)
	out := make([]Mention, 0, len(matches))
	for _, m := range matches {
		kind := text[m[2]:m[3]]
		id := text[m[4]:m[5]]
		if kind == "!" {
			if !broadcasts[id] {
				continue
			}
			id = string(message.AllAuthors)
		}
		out = append(out, Mention{TargetID: id, Start: m[0], End: m[1]})
	}
	return out
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	// SelfIndex is the index of the first self mention, or -1
	SelfIndex int

	// Self is the first self mention, if any
	Self *Mention

	// Target is the mention immediately after Self, if any
	Target *Mention
}

// Addressed reports whether the bot was mentioned at all.
func (r Resolution) Addressed() bool {
	return r.Self != nil
}

// Resolve finds the first mention of selfID and the mention following it.
func Resolve(mentions []Mention, selfID string) Resolution {
	res := Resolution{SelfIndex: -1}
	for i := range mentions {
		if mentions[i].TargetID != selfID {
			continue
		}
		res.SelfIndex = i
		self := mentions[i]
		res.Self = &self
		if i+1 < len(mentions) {
			target := mentions[i+1]
			res.Target = &target
		}
		break
	}
	return res
}

// Context holds the text around a target mention.
type Context struct {
	Before string
	After  string
}

// SplitContext returns the text strictly between self and target, and the
// text after target. Offsets that do not fit text yield empty fragments.
func SplitContext(text string, self, target Mention) Context {
	var ctx Context
	if self.End >= 0 && self.End <= target.Start && target.Start <= len(text) {
		ctx.Before = text[self.End:target.Start]
	}
	if target.End >= 0 && target.End <= len(text) {
		ctx.After = text[target.End:]
	}
	return ctx
}
