// Package i18n is the key to text lookup used by every user-facing surface.
package i18n

import "strings"

const (
	English = "en"
	French  = "fr"

	Default = English
)

// Keys.
const (
	Title              = "title"
	Subtitle           = "subtitle"
	ConnectWallet      = "connectWallet"
	Disconnect         = "disconnect"
	AnalyzeWallet      = "analyzeWallet"
	Analyzing          = "analyzing"
	BuyMeCoffee        = "buyMeCoffee"
	ShareTwitter       = "shareTwitter"
	ShareTelegram      = "shareTelegram"
	Donation           = "donation"
	DonationText       = "donationText"
	Processing         = "processing"
	Error              = "error"
	NoWallet           = "noWallet"
	GeneratingRoast    = "generatingRoast"
	OrText             = "orText"
	ManualAddressTitle = "manualAddressTitle"
	ManualPlaceholder  = "manualAddressPlaceholder"
	AnalyzeAddress     = "analyzeAddress"
	InvalidAddress     = "invalidAddress"
	AddressRequired    = "addressRequired"
	AnalyzingWallet    = "analyzingWallet"
	DonationThanks     = "donationThanks"
	DonationDemo       = "donationDemo"
	ConnectFailed      = "connectFailed"
	Busy               = "busy"
	Copied             = "copied"
)

var tables = map[string]map[string]string{
	English: {
		Title:              "Solana Wallet Roaster",
		Subtitle:           "Let's roast your portfolio like a true friend! 🔥",
		ConnectWallet:      "Connect Seed Vault",
		Disconnect:         "Disconnect",
		AnalyzeWallet:      "Roast My Wallet!",
		Analyzing:          "Analyzing your financial decisions...",
		BuyMeCoffee:        "Buy Me a Coffee ☕",
		ShareTwitter:       "Share on X",
		ShareTelegram:      "Share on Telegram",
		Donation:           "Support the Roaster",
		DonationText:       "Enjoyed the roast? Buy me a coffee!",
		Processing:         "Processing...",
		Error:              "Oops! Something went wrong. Try again!",
		NoWallet:           "No wallet connected. Connect your Seed Vault first!",
		GeneratingRoast:    "Crafting the perfect roast...",
		OrText:             "OR",
		ManualAddressTitle: "Scan Any Wallet",
		ManualPlaceholder:  "Paste Solana address here...",
		AnalyzeAddress:     "Analyze This Address",
		InvalidAddress:     "Invalid Solana address. Please check and try again.",
		AddressRequired:    "Please enter a wallet address.",
		AnalyzingWallet:    "🔍 Analyzing wallet:",
		DonationThanks:     "Thank you for the %s %s donation! ❤️",
		DonationDemo:       "Demo: Would send %s %s to %s",
		ConnectFailed:      "Could not connect to the Seed Vault.",
		Busy:               "Hang on, still working on the last request...",
		Copied:             "Copied to clipboard!",
	},
	French: {
		Title:              "Critique de Wallet Solana",
		Subtitle:           "Laisse-moi chambrer ton portefeuille comme un vrai pote ! 🔥",
		ConnectWallet:      "Connecter Seed Vault",
		Disconnect:         "Déconnecter",
		AnalyzeWallet:      "Chambre Mon Wallet !",
		Analyzing:          "Analyse de tes décisions financières...",
		BuyMeCoffee:        "Paie-moi un café ☕",
		ShareTwitter:       "Partager sur X",
		ShareTelegram:      "Partager sur Telegram",
		Donation:           "Soutenir le Chambreur",
		DonationText:       "Tu as aimé ? Paie-moi un café !",
		Processing:         "En cours...",
		Error:              "Oups ! Quelque chose s'est mal passé. Réessaye !",
		NoWallet:           "Aucun wallet connecté. Connecte ton Seed Vault d'abord !",
		GeneratingRoast:    "Création de la meilleure critique...",
		OrText:             "OU",
		ManualAddressTitle: "Scanner N'importe Quel Wallet",
		ManualPlaceholder:  "Colle l'adresse Solana ici...",
		AnalyzeAddress:     "Analyser Cette Adresse",
		InvalidAddress:     "Adresse Solana invalide. Vérifie et réessaye.",
		AddressRequired:    "Entre une adresse de wallet s'il te plaît.",
		AnalyzingWallet:    "🔍 Analyse du wallet :",
		DonationThanks:     "Merci pour le don de %s %s ! ❤️",
		DonationDemo:       "Démo : enverrait %s %s à %s",
		ConnectFailed:      "Impossible de se connecter au Seed Vault.",
		Busy:               "Patience, la demande précédente est en cours...",
		Copied:             "Copié dans le presse-papiers !",
	},
}

var order = []string{English, French}

// T returns the text for key in lang. Unknown languages use the default
// table; unknown keys come back as the key itself.
func T(lang, key string) string {
	table, ok := tables[lang]
	if !ok {
		table = tables[Default]
	}
	if s, ok := table[key]; ok {
		return s
	}
	if s, ok := tables[Default][key]; ok {
		return s
	}
	return key
}

// Supported lists the language codes with a table, in toggle order.
func Supported() []string {
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// IsSupported reports whether lang has a table.
func IsSupported(lang string) bool {
	_, ok := tables[lang]
	return ok
}

// Normalize lowercases lang and maps unsupported codes to the default language.
func Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if IsSupported(lang) {
		return lang
	}
	return Default
}

// Next returns the language after lang in toggle order.
func Next(lang string) string {
	for i, l := range order {
		if l == lang {
			return order[(i+1)%len(order)]
		}
	}
	return Default
}
