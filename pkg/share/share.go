// Package share builds the outbound share links for a roast.
package share

import (
	"net/url"
	"strings"

	"roaster/pkg/i18n"
)

// AppURL is the canonical link appended to every share.
const AppURL = "https://seeker.app/wallet-roaster"

var headers = map[string]struct{ intro, outro string }{
	i18n.English: {"Just got my Solana wallet roasted! 😂🔥", "Try the Wallet Roaster here:"},
	i18n.French:  {"Mon wallet Solana vient de se faire chambrer ! 😂🔥", "Essayez le Wallet Roaster ici:"},
}

// Text is the share message for roast in lang, without the link.
func Text(lang, roast string) string {
	h := headers[i18n.Normalize(lang)]
	return h.intro + "\n\n" + roast + "\n\n" + h.outro
}

// TwitterURL passes the link separately, so X renders a card for it.
func TwitterURL(lang, roast string) string {
	return "https://twitter.com/intent/tweet?text=" + escape(Text(lang, roast)) + "&url=" + escape(AppURL)
}

// TelegramURL repeats the link at the end of the text.
func TelegramURL(lang, roast string) string {
	return "https://t.me/share/url?url=" + escape(AppURL) + "&text=" + escape(Text(lang, roast)+" "+AppURL)
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
