package legal

import "strings"

// Concept is one entry of the legal concept taxonomy. A text is tagged with
// the concept when any of its terms occurs in it. Related terms are proposed
// as query expansions.
type Concept struct {
	Name    string
	Terms   []string
	Related []string
}

// Taxonomy is the fixed concept dictionary. Terms are lowercase and matched
// as substrings, so they avoid short stems that occur inside unrelated words.
var Taxonomy = []Concept{
	{
		Name:    "schadensersatz",
		Terms:   []string{"schadensersatz", "schadenersatz", "entschädigung", "schadensersatzanspruch"},
		Related: []string{"pflichtverletzung", "vertretenmüssen", "schaden"},
	},
	{
		Name:    "gewährleistung",
		Terms:   []string{"gewährleistung", "sachmangel", "rechtsmangel", "nacherfüllung", "mängelrecht"},
		Related: []string{"rücktritt", "minderung", "haftungsausschluss"},
	},
	{
		Name:    "haftung",
		Terms:   []string{"haftung", "haftet", "verschulden", "fahrlässig", "vorsätzlich"},
		Related: []string{"sorgfaltspflicht", "haftungsbeschränkung"},
	},
	{
		Name:    "vertragsrecht",
		Terms:   []string{"vertrag", "vereinbarung", "vertragspartei", "vertragsschluss"},
		Related: []string{"angebot", "annahme", "willenserklärung"},
	},
	{
		Name:    "erbrecht",
		Terms:   []string{"erbrecht", "erblasser", "testament", "erbschein", "nachlass", "pflichtteil", "vermächtnis", "erbvertrag", "erbfolge"},
		Related: []string{"erbe", "miterbe", "testamentsvollstrecker"},
	},
	{
		Name:    "familienrecht",
		Terms:   []string{"ehegatte", "ehegatten", "scheidung", "güterstand", "zugewinn", "ehevertrag", "unterhalt", "lebenspartner"},
		Related: []string{"gütertrennung", "versorgungsausgleich"},
	},
	{
		Name:    "gesellschaftsrecht",
		Terms:   []string{"gesellschaft", "gmbh", "geschäftsführer", "gesellschafter", "aktiengesellschaft", "kommanditgesellschaft", "handelsregister"},
		Related: []string{"geschäftsanteil", "satzung", "gesellschafterversammlung"},
	},
	{
		Name:    "grundstücksrecht",
		Terms:   []string{"grundstück", "grundbuch", "auflassung", "grundschuld", "hypothek", "dienstbarkeit", "wohnungseigentum", "erbbaurecht"},
		Related: []string{"eintragung", "vormerkung", "grundbuchamt"},
	},
	{
		Name:    "formerfordernis",
		Terms:   []string{"beurkundung", "formvorschrift", "formbedürftig", "schriftform", "notarielle form", "formnichtig", "beglaubigung"},
		Related: []string{"formmangel", "heilung", "notar"},
	},
	{
		Name:    "verjährung",
		Terms:   []string{"verjährung", "verjährt", "verjährungsfrist"},
		Related: []string{"hemmung", "neubeginn"},
	},
	{
		Name:    "steuerrecht",
		Terms:   []string{"steuer", "finanzamt", "besteuerung", "steuerpflicht"},
		Related: []string{"freibetrag", "bemessungsgrundlage"},
	},
	{
		Name:    "vollmacht",
		Terms:   []string{"vollmacht", "bevollmächtig", "stellvertretung", "vertretungsmacht"},
		Related: []string{"vertreter", "genehmigung"},
	},
	{
		Name:    "schenkung",
		Terms:   []string{"schenkung", "schenker", "beschenkte", "unentgeltlich"},
		Related: []string{"zuwendung", "rückforderung"},
	},
	{
		Name:    "kündigung",
		Terms:   []string{"kündigung", "gekündigt", "kündigungsfrist", "kündigen"},
		Related: []string{"beendigung", "frist"},
	},
	{
		Name:    "insolvenz",
		Terms:   []string{"insolvenz", "zahlungsunfähig", "überschuldung", "insolvenzverwalter"},
		Related: []string{"anfechtung", "masse"},
	},
	{
		Name:    "internationales privatrecht",
		Terms:   []string{"internationales privatrecht", "kollisionsrecht", "anwendbares recht", "erbrechtsverordnung", "ausländisch"},
		Related: []string{"rechtswahl", "gewöhnlicher aufenthalt"},
	},
}

// TagConcepts returns the names of all taxonomy concepts with a term in text,
// in taxonomy order. Matching is case-insensitive.
func TagConcepts(text string) []string {
	lowered := Lower(Normalize(text))
	var tags []string
	for _, c := range Taxonomy {
		for _, term := range c.Terms {
			if strings.Contains(lowered, term) {
				tags = append(tags, c.Name)
				break
			}
		}
	}
	return tags
}

// Expansions returns related terms of the given concepts that do not already
// occur in text, at most max of them (no limit when max <= 0).
func Expansions(concepts []string, text string, max int) []string {
	lowered := Lower(Normalize(text))
	seen := make(map[string]bool)
	var out []string
	for _, name := range concepts {
		c, ok := conceptByName(name)
		if !ok {
			continue
		}
		for _, term := range c.Related {
			if seen[term] || strings.Contains(lowered, term) {
				continue
			}
			seen[term] = true
			out = append(out, term)
			if max > 0 && len(out) == max {
				return out
			}
		}
	}
	return out
}

func conceptByName(name string) (Concept, bool) {
	for _, c := range Taxonomy {
		if c.Name == name {
			return c, true
		}
	}
	return Concept{}, false
}
