package legal

// Stop words removed from keyword extraction. German function words dominate
// legal opinions; the English set covers mixed-language queries.
var stopWords = map[string]bool{
	// German
	"aber": true, "alle": true, "allem": true, "allen": true, "aller": true, "alles": true,
	"also": true, "andere": true, "anderen": true, "auch": true, "beim": true, "bereits": true,
	"bitte": true, "bzw": true, "dabei": true, "dafür": true, "daher": true, "damit": true,
	"dann": true, "darauf": true, "darf": true, "darüber": true, "dass": true, "daß": true,
	"davon": true, "dein": true, "deine": true, "denen": true, "denn": true, "derer": true,
	"dessen": true, "diese": true, "diesem": true, "diesen": true, "dieser": true, "dieses": true,
	"doch": true, "dort": true, "durch": true, "eine": true, "einem": true, "einen": true,
	"einer": true, "eines": true, "einige": true, "etwa": true, "etwas": true, "euch": true,
	"falls": true, "gegen": true, "gemäß": true, "haben": true, "hatte": true, "hatten": true,
	"hier": true, "hinter": true, "ihre": true, "ihrem": true, "ihren": true, "ihrer": true,
	"indem": true, "insbesondere": true, "jede": true, "jedem": true, "jeden": true, "jeder": true,
	"jedes": true, "jedoch": true, "kann": true, "kein": true, "keine": true, "keinen": true,
	"können": true, "könnte": true, "machen": true, "mehr": true, "mich": true, "muss": true,
	"müssen": true, "nach": true, "nicht": true, "noch": true, "nur": true, "oder": true,
	"ohne": true, "schon": true, "sehr": true, "sein": true, "seine": true, "seinem": true,
	"seinen": true, "seiner": true, "sich": true, "sind": true, "soll": true, "sollen": true,
	"sollte": true, "sondern": true, "sowie": true, "über": true, "unter": true, "vom": true,
	"wann": true, "waren": true, "warum": true, "weil": true, "welche": true, "welchem": true,
	"welchen": true, "welcher": true, "welches": true, "wenn": true, "werden": true, "wieder": true,
	"wird": true, "wurde": true, "wurden": true, "zwischen": true, "inwieweit": true, "wobei": true,
	"ob": true, "und": true, "der": true, "die": true, "das": true, "ist": true,

	// English
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "what": true, "which": true, "when": true, "where": true,
	"does": true, "there": true, "their": true, "about": true, "would": true, "should": true,
	"could": true, "into": true, "than": true, "then": true, "been": true, "being": true,
	"under": true, "whether": true,
}

// IsStopWord reports whether a lowercase token is a stop word.
func IsStopWord(token string) bool {
	return stopWords[token]
}
