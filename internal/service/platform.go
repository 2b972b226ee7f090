package service

import (
	"strings"
)

// Метки каналов перехода
const (
	PlatformDirect    = "Direct / Link Share"
	PlatformWhatsApp  = "WhatsApp"
	PlatformTwitter   = "X / Twitter"
	PlatformFacebook  = "Facebook"
	PlatformInstagram = "Instagram"
	PlatformTelegram  = "Telegram"
	PlatformLinkedIn  = "LinkedIn"
	PlatformReferral  = "Referral / Other"
)

// Порядок правил значим: referrer с "t.co" и "facebook" одновременно
// классифицируется как X / Twitter. Первое совпадение выигрывает.
var platformRules = []struct {
	markers []string
	label   string
}{
	{[]string{"whatsapp"}, PlatformWhatsApp},
	{[]string{"t.co", "twitter", "x.com"}, PlatformTwitter},
	{[]string{"facebook", "fb.me"}, PlatformFacebook},
	{[]string{"instagram"}, PlatformInstagram},
	{[]string{"t.me", "telegram"}, PlatformTelegram},
	{[]string{"linkedin"}, PlatformLinkedIn},
}

// ClassifyPlatform сопоставляет HTTP referrer с меткой канала.
// Чистая функция без I/O; пустой referrer означает прямой заход.
func ClassifyPlatform(referrer string) string {
	if referrer == "" {
		return PlatformDirect
	}

	ref := strings.ToLower(referrer)
	for _, rule := range platformRules {
		for _, marker := range rule.markers {
			if strings.Contains(ref, marker) {
				return rule.label
			}
		}
	}

	return PlatformReferral
}
