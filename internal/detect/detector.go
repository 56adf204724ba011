// Package detect performs the lexicon-exact detection stage: sentence
// segmentation, word tokenization, and surface-literal lexicon matching
// with character offsets into the original text.
package detect

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/reqclarity/reqclarity/internal/lexicon"
	"github.com/reqclarity/reqclarity/internal/model"
)

// DefaultContextWindow is the number of characters taken on each side of a
// term span when building the wider context handed to the evaluator.
const DefaultContextWindow = 100

// Sentence is a sentence span [Start, End) within the original text
type Sentence struct {
	Text  string
	Start int
	End   int
}

// wordPattern matches word tokens, keeping internal apostrophes and hyphens
// so terms like "user-friendly" stay single tokens.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+(?:['-][\p{L}\p{N}_]+)*`)

// abbreviations that should not terminate a sentence
var abbreviations = map[string]bool{
	"e.g": true, "i.e": true, "etc": true, "vs": true, "approx": true,
	"dr": true, "mr": true, "mrs": true, "ms": true, "st": true,
	"no": true, "fig": true, "inc": true, "ltd": true, "dept": true,
}

// Detector finds exact lexicon matches in raw text
type Detector struct {
	lexicon *lexicon.Manager
}

// NewDetector creates a detector reading the given lexicon
func NewDetector(m *lexicon.Manager) *Detector {
	return &Detector{lexicon: m}
}

// Detect scans text for exact matches against the effective lexicon of the
// owner scope. It returns the candidates in position order together with the
// sentence spans used to resolve each candidate's sentence context.
func (d *Detector) Detect(text, owner string) ([]model.CandidateTerm, []Sentence, error) {
	terms, err := d.lexicon.Effective(owner)
	if err != nil {
		return nil, nil, err
	}

	inLexicon := make(map[string]bool, len(terms))
	for _, t := range terms {
		inLexicon[t] = true
	}

	sentences := SegmentSentences(text)

	var candidates []model.CandidateTerm
	for _, span := range wordPattern.FindAllStringIndex(text, -1) {
		word := text[span[0]:span[1]]
		if !inLexicon[strings.ToLower(word)] {
			continue
		}
		candidates = append(candidates, model.CandidateTerm{
			Term:            word,
			PositionStart:   span[0],
			PositionEnd:     span[1],
			SentenceContext: SentenceForPosition(span[0], sentences, text),
			DetectionMethod: model.DetectionLexiconExact,
		})
	}

	return candidates, sentences, nil
}

// Tokenize returns word tokens with their spans, skipping tokens of length
// minLen or shorter. The semantic matcher uses minLen=2 to reduce noise.
func Tokenize(text string, minLen int) []model.CandidateTerm {
	var tokens []model.CandidateTerm
	for _, span := range wordPattern.FindAllStringIndex(text, -1) {
		word := text[span[0]:span[1]]
		if len(word) <= minLen {
			continue
		}
		tokens = append(tokens, model.CandidateTerm{
			Term:          word,
			PositionStart: span[0],
			PositionEnd:   span[1],
		})
	}
	return tokens
}

// SegmentSentences splits text into sentence spans on '.', '!' and '?'
// followed by whitespace or end of text. A terminator directly after a known
// abbreviation or between digits does not split. Ties resolve to the
// earliest qualifying boundary.
func SegmentSentences(text string) []Sentence {
	var sentences []Sentence
	start := skipSpace(text, 0)

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if i+1 < len(text) && !isSpaceByte(text[i+1]) {
			continue // mid-token, e.g. "3.5" or "e.g."
		}
		if c == '.' && isAbbreviation(text, i) {
			continue
		}

		if end := i + 1; end > start {
			if s := strings.TrimSpace(text[start:end]); s != "" {
				sentences = append(sentences, Sentence{Text: s, Start: start, End: end})
			}
		}
		start = skipSpace(text, i+1)
	}

	// Trailing text without a terminator still counts as a sentence
	if start < len(text) {
		if s := strings.TrimSpace(text[start:]); s != "" {
			sentences = append(sentences, Sentence{Text: s, Start: start, End: len(text)})
		}
	}

	return sentences
}

// SentenceForPosition returns the text of the sentence whose span contains
// pos. If none does, it falls back to the nearest preceding sentence, then
// to the whole text.
func SentenceForPosition(pos int, sentences []Sentence, text string) string {
	var preceding string
	for _, s := range sentences {
		if pos >= s.Start && pos < s.End {
			return s.Text
		}
		if s.End <= pos {
			preceding = s.Text
		}
	}
	if preceding != "" {
		return preceding
	}
	return text
}

// ContextWindow returns up to window bytes of surrounding text on each side
// of [start, end), clamped to the text bounds and to rune boundaries so the
// window never splits a multi-byte character.
func ContextWindow(text string, start, end, window int) string {
	if window <= 0 {
		window = DefaultContextWindow
	}
	lo := start - window
	if lo < 0 {
		lo = 0
	}
	hi := end + window
	if hi > len(text) {
		hi = len(text)
	}
	for lo < len(text) && !utf8.RuneStart(text[lo]) {
		lo++
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	if lo >= hi {
		return ""
	}
	return text[lo:hi]
}

// isAbbreviation reports whether the period at idx ends a known abbreviation
func isAbbreviation(text string, idx int) bool {
	wordStart := idx
	for wordStart > 0 {
		r := rune(text[wordStart-1])
		if unicode.IsLetter(r) || r == '.' {
			wordStart--
			continue
		}
		break
	}
	word := strings.ToLower(strings.TrimSuffix(text[wordStart:idx], "."))
	word = strings.TrimSuffix(word, ".") // "e.g." scans as "e.g"
	return abbreviations[word]
}

func skipSpace(text string, i int) int {
	for i < len(text) && isSpaceByte(text[i]) {
		i++
	}
	return i
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
