package keywords

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/saastools-backend/pkg/enums"
)

const (
	// MaxKeywordsPerPlatform caps each platform's suggestion list.
	MaxKeywordsPerPlatform = 10
	prefixedSuggestions    = 8
	minVolume              = 100
	volumeSpan             = 10000
	formattedDelimiter     = ", "
)

var baseModifiers = []string{
	"best", "cheap", "buy online", "price", "review",
	"discount", "offer", "sale", "deals", "latest",
}

var platformModifiers = map[enums.Platform][]string{
	enums.PlatformAmazon:   {"amazon", "prime", "delivery", "rating"},
	enums.PlatformFlipkart: {"flipkart", "myntra", "big billion", "plus"},
}

// Keyword is one annotated suggestion.
type Keyword struct {
	Keyword     string            `json:"keyword"`
	Volume      int               `json:"volume"`
	Competition enums.Competition `json:"competition"`
	CPC         float64           `json:"cpc"`
}

// Result groups the suggestions for one platform.
type Result struct {
	Platform        enums.Platform `json:"platform"`
	Keywords        []Keyword      `json:"keywords"`
	FormattedString string         `json:"formatted_string"`
}

// Generator produces mock keyword metrics from a seeded random source.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator uses rnd when given, otherwise a time-seeded source.
func NewGenerator(rnd *rand.Rand) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rnd: rnd}
}

// Generate returns one result per platform, in the order given.
func (g *Generator) Generate(seed string, platforms []enums.Platform) []Result {
	seed = strings.TrimSpace(seed)
	results := make([]Result, 0, len(platforms))

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, platform := range platforms {
		suggestions := Suggestions(seed, platform)
		keywords := make([]Keyword, 0, len(suggestions))
		names := make([]string, 0, len(suggestions))
		for _, suggestion := range suggestions {
			keywords = append(keywords, g.annotate(suggestion))
			names = append(names, suggestion)
		}
		results = append(results, Result{
			Platform:        platform,
			Keywords:        keywords,
			FormattedString: strings.Join(names, formattedDelimiter),
		})
	}
	return results
}

func (g *Generator) annotate(keyword string) Keyword {
	return Keyword{
		Keyword:     keyword,
		Volume:      g.rnd.Intn(volumeSpan) + minVolume,
		Competition: enums.Competitions[g.rnd.Intn(len(enums.Competitions))],
		CPC:         math.Round((g.rnd.Float64()*5+0.1)*100) / 100,
	}
}

// Suggestions lists the seed, eight modifier-prefixed variants and "<seed> online", capped at ten.
func Suggestions(seed string, platform enums.Platform) []string {
	modifiers := make([]string, 0, len(baseModifiers)+4)
	modifiers = append(modifiers, baseModifiers...)
	modifiers = append(modifiers, platformModifiers[platform]...)

	out := make([]string, 0, prefixedSuggestions+2)
	out = append(out, seed)
	for _, mod := range modifiers[:prefixedSuggestions] {
		out = append(out, mod+" "+seed)
	}
	out = append(out, seed+" online")

	if len(out) > MaxKeywordsPerPlatform {
		out = out[:MaxKeywordsPerPlatform]
	}
	return out
}
