package roast

import (
	"fmt"
	"strings"

	"roaster/pkg/i18n"
	"roaster/pkg/models"
)

const promptEN = `You're a friend playfully roasting your buddy about their crypto portfolio. Generate a humorous and friendly (not mean) roast in English about the following wallet. Use a friendly tone with jokes about meme tokens, investment choices, etc. Maximum 4-5 short punchy sentences.

Analyzed wallet:
- Address: %s
- Tokens: %s
- NFTs: %d
- Total value: $%.2f
- Transaction count: %d

Make a personalized roast based on this real data. Mention the specific tokens and amounts to make it truly customized!`

const promptFR = `Tu es un pote qui chambre gentiment son ami sur son portefeuille crypto. Génère une critique humoristique et amicale (pas méchante) en français du portefeuille suivant. Utilise un ton de pote qui se moque gentiment, avec des blagues sur les tokens meme, les choix d'investissement, etc. Maximum 4-5 phrases courtes et percutantes.

Portefeuille analysé:
- Adresse: %s
- Tokens: %s
- NFTs: %d
- Valeur totale: $%.2f
- Nombre de transactions: %d

Fais une critique personnalisée basée sur ces données réelles. Mentionne les tokens spécifiques et les montants pour que ce soit vraiment personnalisé !`

var prompts = map[string]string{
	i18n.English: promptEN,
	i18n.French:  promptFR,
}

var canned = map[string][]string{
	i18n.English: {
		"😂 So you're investing in BONK? Your portfolio looks like a joke that went wrong!",
		"🐕 WIF, BONK, PEPE... Did you turn your wallet into a zoo or what?",
		"💀 Seriously, with a portfolio like that, I hope you kept your resume updated!",
	},
	i18n.French: {
		"😂 Alors comme ça on investit dans BONK ? Ton portefeuille ressemble à une blague qui a mal tourné !",
		"🐕 WIF, BONK, PEPE... T'as transformé ton wallet en ménagerie ou quoi ?",
		"💀 Sérieux, avec un portefeuille pareil, j'espère que t'as gardé ton CV à jour !",
	},
}

// Canned returns a copy of the canned roasts for lang.
func Canned(lang string) []string {
	list := canned[i18n.Normalize(lang)]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// FormatHolding renders one holding the way prompts list them.
func FormatHolding(t models.TokenHolding) string {
	return fmt.Sprintf("%s (%.2f tokens, ~$%.2f)", t.Name, t.Amount, t.Value)
}

// BuildPrompt renders the generation prompt for snap in lang.
func BuildPrompt(snap models.PortfolioSnapshot, lang string) string {
	holdings := make([]string, len(snap.Tokens))
	for i, t := range snap.Tokens {
		holdings[i] = FormatHolding(t)
	}
	return fmt.Sprintf(prompts[i18n.Normalize(lang)],
		snap.Address,
		strings.Join(holdings, ", "),
		snap.NFTCount,
		snap.TotalValue,
		snap.TransactionCount,
	)
}
