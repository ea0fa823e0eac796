// Package screen provides the cheap first-pass content screen applied to every
// inbound chat message. It is a heuristic, not a classifier:
//
//   - Matching is case-insensitive substring containment against fixed lists
//   - No stemming, no negation handling, no context window
//   - Input and terms are NFC-normalized so composed and decomposed Vietnamese
//     diacritics compare equal
//   - A KeywordScreen is immutable after construction (safe for concurrent use)
//
// Callers depend on the Screener interface so a model-based classifier can
// replace the keyword lists without touching the orchestrator.
package screen

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Screener answers two independent questions about a message.
type Screener interface {
	// Inappropriate reports gambling, violence or drug content. A positive
	// result blocks the message.
	Inappropriate(text string) bool
	// Crisis reports self-harm or suicide language. It is advisory only.
	Crisis(text string) bool
}

// DefaultInappropriate lists gambling, violence and drug terms.
var DefaultInappropriate = []string{
	// gambling
	"cờ bạc", "đánh bạc", "cá độ", "cá cược", "lô đề", "đánh đề", "xóc đĩa", "casino",
	// violence
	"giết người", "đánh nhau", "chém người", "bạo lực", "khủng bố", "bom", "súng",
	// drugs
	"ma túy", "ma tuý", "cần sa", "thuốc lắc", "heroin", "cocaine",
}

// DefaultCrisis lists Vietnamese self-harm and suicide phrases. Recall is
// favored over precision.
var DefaultCrisis = []string{
	"tự tử", "tự sát", "tự vẫn", "tự kết liễu",
	"muốn chết", "không muốn sống", "chán sống", "sống làm gì",
	"kết thúc cuộc đời", "kết thúc tất cả", "chấm dứt cuộc sống",
	"tự làm hại", "tự hại", "rạch tay", "cắt tay",
	"nhảy lầu", "nhảy cầu", "treo cổ", "uống thuốc ngủ",
	"không còn lý do để sống", "biến mất mãi mãi",
}

// Option configures a KeywordScreen.
type Option func(*config)

type config struct {
	inappropriate []string
	crisis        []string
}

// WithInappropriate appends terms to the inappropriate list.
func WithInappropriate(terms ...string) Option {
	return func(c *config) { c.inappropriate = append(c.inappropriate, terms...) }
}

// WithCrisis appends terms to the crisis list.
func WithCrisis(terms ...string) Option {
	return func(c *config) { c.crisis = append(c.crisis, terms...) }
}

// WithoutDefaults drops the built-in lists; only terms added by other options
// remain. Options apply in order, so pass it first.
func WithoutDefaults() Option {
	return func(c *config) {
		c.inappropriate = nil
		c.crisis = nil
	}
}

// KeywordScreen is the keyword-list Screener.
type KeywordScreen struct {
	inappropriate []string
	crisis        []string
}

var _ Screener = (*KeywordScreen)(nil)

// New builds a KeywordScreen from the default lists plus any options.
// Empty and duplicate terms are dropped.
func New(opts ...Option) *KeywordScreen {
	cfg := config{
		inappropriate: append([]string(nil), DefaultInappropriate...),
		crisis:        append([]string(nil), DefaultCrisis...),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &KeywordScreen{
		inappropriate: prepare(cfg.inappropriate),
		crisis:        prepare(cfg.crisis),
	}
}

// Inappropriate implements Screener.
func (k *KeywordScreen) Inappropriate(text string) bool {
	return containsAny(Normalize(text), k.inappropriate)
}

// Crisis implements Screener.
func (k *KeywordScreen) Crisis(text string) bool {
	return containsAny(Normalize(text), k.crisis)
}

// Normalize returns the canonical matching form of s: NFC, case-folded, with
// runs of whitespace collapsed to a single space.
func Normalize(s string) string {
	// Casers carry state and must not be shared between goroutines.
	s = norm.NFC.String(cases.Fold().String(s))

	var b strings.Builder
	b.Grow(len(s))
	prevSpace := true
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

func prepare(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = Normalize(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func containsAny(s string, terms []string) bool {
	if s == "" {
		return false
	}
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
