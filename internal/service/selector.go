package service

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kanlogic/readiness-engine-go/internal/catalog"
	"github.com/kanlogic/readiness-engine-go/internal/domain"
)

// defaultRelevance is the score attached to industry-default picks when
// keyword matching found nothing; the client renders these as a uniform
// "suggested" set rather than a ranking.
const defaultRelevance = 1

// SelectModules ranks the catalog against the intake's free text. The same
// intake always yields the same ordered result: scoring is exact token
// matching, the sort is stable, and ties keep catalog declaration order.
//
// When the caller pre-selected modules, those win outright. When no entry
// scores above zero, the industry default set is returned instead.
func SelectModules(intake domain.Intake, cat *catalog.Catalog) ([]domain.ScoredModule, error) {
	scored := scoreCatalog(intake, cat)

	if len(intake.SelectedModules) > 0 {
		return selectExplicit(intake, cat, maxRelevance(scored))
	}

	if len(scored) == 0 {
		return selectDefaults(intake, cat)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Relevance > scored[j].Relevance
	})
	return scored, nil
}

// scoreCatalog matches each entry's tags against the intake's free-text
// token set. Entries with no matches are dropped.
func scoreCatalog(intake domain.Intake, cat *catalog.Catalog) []domain.ScoredModule {
	tokens := tokenize(intake.Bottlenecks + " " + intake.Processes + " " +
		intake.Systems + " " + intake.Goals + " " + intake.BusinessFocus)
	bottleneckTokens := tokenize(intake.Bottlenecks)

	entries := cat.All()
	scored := make([]domain.ScoredModule, 0, len(entries))
	for _, e := range entries {
		score := 0
		for _, tag := range e.Tags {
			if tokens[tag] {
				score++
			}
			// Pain named as a bottleneck counts double.
			if bottleneckTokens[tag] {
				score++
			}
		}
		if score > 0 {
			scored = append(scored, domain.ScoredModule{Entry: e, Relevance: score})
		}
	}
	return scored
}

// selectExplicit honors a caller-provided module list in the order given.
// Unknown ids are an error. Every pick carries the top score the keyword
// pass observed, so explicit picks rank uniformly and never below inferred
// ones; when nothing matched at all they carry the default instead.
func selectExplicit(intake domain.Intake, cat *catalog.Catalog, relevance int) ([]domain.ScoredModule, error) {
	if relevance < defaultRelevance {
		relevance = defaultRelevance
	}
	out := make([]domain.ScoredModule, 0, len(intake.SelectedModules))
	for _, id := range intake.SelectedModules {
		entry, err := cat.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.ScoredModule{Entry: entry, Relevance: relevance})
	}
	return out, nil
}

// selectDefaults returns the industry default set with uniform relevance.
func selectDefaults(intake domain.Intake, cat *catalog.Catalog) ([]domain.ScoredModule, error) {
	ids := cat.DefaultsFor(intake.Industry)
	out := make([]domain.ScoredModule, 0, len(ids))
	for _, id := range ids {
		entry, err := cat.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.ScoredModule{Entry: entry, Relevance: defaultRelevance})
	}
	return out, nil
}

func maxRelevance(scored []domain.ScoredModule) int {
	max := 0
	for _, s := range scored {
		if s.Relevance > max {
			max = s.Relevance
		}
	}
	return max
}

// tokenize lowercases the text and splits on anything that is not a letter
// or digit, returning the distinct token set.
func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		tokens[tok] = true
	}
	return tokens
}
