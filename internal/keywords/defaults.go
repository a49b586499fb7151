package keywords

import (
	"sort"

	"github.com/ppiankov/erosion/internal/model"
)

// defaultTerms is the built-in vocabulary: category -> tier -> keywords
var defaultTerms = map[string]map[model.Tier][]string{
	"courts": {
		model.TierWarning: {"injunction", "contempt", "judicial review", "emergency application"},
		model.TierDrift:   {"defied court order", "ignored ruling", "noncompliance with court", "slow-walked compliance"},
		model.TierCapture: {"court packing", "jurisdiction stripping", "refused to comply with the supreme court"},
	},
	"civilService": {
		model.TierWarning: {"reorganization", "hiring freeze", "reduction in force"},
		model.TierDrift:   {"schedule f", "mass layoffs", "loyalty test", "reclassified positions"},
		model.TierCapture: {"civil service protections eliminated", "political purge", "merit system abolished"},
	},
	"fiscal": {
		model.TierWarning: {"rescission", "apportionment", "spending freeze"},
		model.TierDrift:   {"impoundment", "withheld funds", "pocket rescission"},
		model.TierCapture: {"defied appropriations", "unconstitutional impoundment", "antideficiency act violation"},
	},
	"igs": {
		model.TierWarning: {"inspector general vacancy", "acting inspector general"},
		model.TierDrift:   {"inspector general removed", "inspector general fired", "oversight access denied"},
		model.TierCapture: {"inspectors general purged", "oversight office abolished"},
	},
	"hatch": {
		model.TierWarning: {"hatch act complaint"},
		model.TierDrift:   {"hatch act violation", "campaigning in official capacity"},
		model.TierCapture: {"hatch act enforcement suspended", "special counsel removed"},
	},
	"military": {
		model.TierWarning: {"national guard deployment", "federalized guard"},
		model.TierDrift:   {"insurrection act", "domestic deployment", "posse comitatus"},
		model.TierCapture: {"martial law", "troops against protesters"},
	},
	"rulemaking": {
		model.TierWarning: {"interim final rule", "good cause exemption"},
		model.TierDrift:   {"notice and comment waived", "regulations rescinded without comment"},
		model.TierCapture: {"rulemaking suspended", "independent agency control"},
	},
	"media": {
		model.TierWarning: {"press access restricted", "press pool changes"},
		model.TierDrift:   {"press credentials revoked", "broadcast license threatened"},
		model.TierCapture: {"journalists detained", "outlet shut down"},
	},
	"elections": {
		model.TierWarning: {"voter roll purge", "polling place closures"},
		model.TierDrift:   {"certification delayed", "federal observers withdrawn"},
		model.TierCapture: {"election results overturned", "certification refused"},
	},
}

// DefaultVocabulary returns the built-in vocabulary
func DefaultVocabulary() *Vocabulary {
	var entries []model.KeywordEntry
	for _, category := range sortedKeys(defaultTerms) {
		for _, tier := range model.TiersBySeverity() {
			for _, kw := range defaultTerms[category][tier] {
				entries = append(entries, model.KeywordEntry{Keyword: kw, Category: category, Tier: tier})
			}
		}
	}

	vocab, err := NewVocabulary(entries)
	if err != nil {
		panic("keywords: invalid default vocabulary: " + err.Error())
	}
	return vocab
}

func sortedKeys(m map[string]map[model.Tier][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
