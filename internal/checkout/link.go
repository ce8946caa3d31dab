package checkout

import (
	"net/url"
	"strings"
)

const whatsAppBase = "https://wa.me/"

// Link builds a WhatsApp deep link. An empty phone yields a share link with
// no fixed recipient.
func Link(phone, message string) string {
	return whatsAppBase + digitsOnly(phone) + "?text=" + encodeURIComponent(message)
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// encodeURIComponent escapes like the browser function of the same name:
// spaces become %20 and !'()* stay literal.
var componentUnescapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func encodeURIComponent(s string) string {
	return componentUnescapes.Replace(url.QueryEscape(s))
}
