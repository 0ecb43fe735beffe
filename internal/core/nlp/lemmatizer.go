package nlp

import (
	"fmt"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

// suffixRule replaces a suffix when detaching inflections.
type suffixRule struct {
	suffix      string
	replacement string
}

// Detachment rules per POS, in WordNet morphy order.
var detachmentRules = map[WordNetPOS][]suffixRule{
	POSNoun: {
		{"s", ""}, {"ses", "s"}, {"xes", "x"}, {"zes", "z"},
		{"ches", "ch"}, {"shes", "sh"}, {"men", "man"}, {"ies", "y"},
	},
	POSVerb: {
		{"s", ""}, {"ies", "y"}, {"es", "e"}, {"es", ""},
		{"ed", "e"}, {"ed", ""}, {"ing", "e"}, {"ing", ""},
	},
	POSAdjective: {
		{"er", ""}, {"est", ""}, {"er", "e"}, {"est", "e"},
	},
	POSAdverb: nil,
}

// Irregular forms the suffix rules cannot reach.
var lemmaExceptions = map[WordNetPOS]map[string]string{
	POSNoun: {
		"children": "child", "women": "woman", "men": "man", "feet": "foot",
		"teeth": "tooth", "mice": "mouse", "geese": "goose", "lives": "life",
		"wives": "wife", "knives": "knife", "leaves": "leaf", "wolves": "wolf",
		"halves": "half", "shelves": "shelf", "thieves": "thief", "data": "datum",
		"criteria": "criterion", "phenomena": "phenomenon", "crises": "crisis",
	},
	POSVerb: {
		"is": "be", "are": "be", "was": "be", "were": "be", "been": "be", "am": "be",
		"has": "have", "had": "have", "does": "do", "did": "do", "done": "do",
	},
	POSAdjective: {
		"better": "good", "best": "good", "worse": "bad", "worst": "bad",
	},
	POSAdverb: {
		"better": "well", "best": "well", "worse": "badly", "worst": "badly",
	},
}

// DictionaryLemmatizer applies WordNet-style detachment rules and accepts a
// candidate only when the golem English dictionary knows it as a lemma.
type DictionaryLemmatizer struct {
	dict *golem.Lemmatizer
}

// NewDictionaryLemmatizer loads the English golem dictionary.
func NewDictionaryLemmatizer() (*DictionaryLemmatizer, error) {
	dict, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load english dictionary: %w", err)
	}

	return &DictionaryLemmatizer{dict: dict}, nil
}

// Lemmatize returns the lemma of word for pos. Unknown words are returned unchanged.
func (l *DictionaryLemmatizer) Lemmatize(word string, pos WordNetPOS) string {
	word = strings.ToLower(word)
	if word == "" {
		return word
	}

	if lemma, ok := lemmaExceptions[pos][word]; ok {
		return lemma
	}

	if l.isLemma(word) {
		return word
	}

	for _, rule := range detachmentRules[pos] {
		if !strings.HasSuffix(word, rule.suffix) || len(word) <= len(rule.suffix) {
			continue
		}

		candidate := word[:len(word)-len(rule.suffix)] + rule.replacement
		if l.isLemma(candidate) {
			return candidate
		}
	}

	// golem covers irregular verb and adjective forms outside the rules.
	if pos == POSVerb || pos == POSAdjective {
		if lemma := l.dict.Lemma(word); lemma != "" {
			return lemma
		}
	}

	return word
}

func (l *DictionaryLemmatizer) isLemma(word string) bool {
	return l.dict.InDict(word) && l.dict.Lemma(word) == word
}
