// Package roast produces roast text for a portfolio snapshot.
package roast

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"roaster/pkg/i18n"
	"roaster/pkg/llm"
	"roaster/pkg/models"

	"go.uber.org/zap"
)

// Generator picks a canned roast, or asks the completer when one is set.
type Generator struct {
	completer llm.Completer
	logger    *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator builds a Generator. A nil completer selects canned roasts; a
// nil rng is seeded from the clock.
func NewGenerator(completer llm.Completer, rng *rand.Rand, logger *zap.Logger) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{
		completer: completer,
		rng:       rng,
		logger:    logger.Named("RoastGenerator"),
	}
}

// Remote reports whether roasts come from the generation service.
func (g *Generator) Remote() bool {
	return g.completer != nil
}

// Generate never returns an error. A failed remote call yields the generic
// error text for lang with Failed set.
func (g *Generator) Generate(ctx context.Context, snap models.PortfolioSnapshot, lang string) models.RoastResult {
	lang = i18n.Normalize(lang)

	if g.completer == nil {
		return models.RoastResult{
			Text:     g.pick(lang),
			Source:   models.SourceMock,
			Language: lang,
		}
	}

	text, err := g.completer.Complete(ctx, BuildPrompt(snap, lang))
	if err == nil && strings.TrimSpace(text) == "" {
		err = llm.ErrNoTextBlock
	}
	if err != nil {
		g.logger.Warn("Generation failed, using generic text", zap.String("language", lang), zap.Error(err))
		return models.RoastResult{
			Text:     i18n.T(lang, i18n.Error),
			Source:   models.SourceGenerated,
			Language: lang,
			Failed:   true,
		}
	}
	return models.RoastResult{
		Text:     text,
		Source:   models.SourceGenerated,
		Language: lang,
	}
}

func (g *Generator) pick(lang string) string {
	list := canned[lang]
	g.mu.Lock()
	defer g.mu.Unlock()
	return list[g.rng.Intn(len(list))]
}
