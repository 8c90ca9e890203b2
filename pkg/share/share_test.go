package share

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	assert.Equal(t, "Just got my Solana wallet roasted! 😂🔥\n\nnice bags\n\nTry the Wallet Roaster here:", Text("en", "nice bags"))
	assert.Equal(t, "Mon wallet Solana vient de se faire chambrer ! 😂🔥\n\njoli sac\n\nEssayez le Wallet Roaster ici:", Text("fr", "joli sac"))
	assert.Equal(t, Text("en", "x"), Text("xx", "x"))
}

func TestTwitterURL(t *testing.T) {
	raw := TwitterURL("en", "BONK & WIF? 100% rekt")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "twitter.com", u.Host)
	assert.Equal(t, "/intent/tweet", u.Path)
	assert.Equal(t, Text("en", "BONK & WIF? 100% rekt"), u.Query().Get("text"))
	assert.Equal(t, AppURL, u.Query().Get("url"))
	assert.NotContains(t, raw, "+")
}

func TestTelegramURL(t *testing.T) {
	u, err := url.Parse(TelegramURL("fr", "ouch"))
	require.NoError(t, err)

	assert.Equal(t, "t.me", u.Host)
	assert.Equal(t, "/share/url", u.Path)
	assert.Equal(t, AppURL, u.Query().Get("url"))
	assert.Equal(t, Text("fr", "ouch")+" "+AppURL, u.Query().Get("text"))
}
