package emailpattern

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

var publicDomains = map[string]struct{}{}

func init() {
	for _, d := range []string{
		"gmail.com", "googlemail.com", "yahoo.com", "yahoo.co.uk", "yahoo.co.in", "ymail.com",
		"hotmail.com", "hotmail.co.uk", "outlook.com", "live.com", "msn.com", "aol.com",
		"icloud.com", "me.com", "mac.com", "protonmail.com", "proton.me", "pm.me",
		"gmx.com", "gmx.de", "gmx.net", "web.de", "mail.com", "email.com",
		"yandex.com", "yandex.ru", "mail.ru", "zoho.com", "zohomail.com",
		"rediffmail.com", "qq.com", "163.com", "126.com", "sina.com",
		"fastmail.com", "hey.com", "tutanota.com", "tuta.io", "comcast.net",
		"verizon.net", "att.net", "btinternet.com", "orange.fr", "free.fr", "t-online.de",
	} {
		publicDomains[d] = struct{}{}
	}
}

var genericMailboxes = map[string]struct{}{}

func init() {
	for _, l := range []string{
		"info", "hr", "admin", "sales", "support", "contact", "hello", "office", "team",
		"careers", "jobs", "recruiting", "recruitment", "marketing", "billing", "accounts",
		"accounting", "finance", "help", "helpdesk", "enquiries", "inquiries", "noreply",
		"no-reply", "donotreply", "webmaster", "postmaster", "hostmaster", "abuse", "press",
		"media", "service", "services", "mail", "feedback", "legal", "privacy", "security",
		"it", "ops", "operations", "general", "reception", "enquiry", "newsletter",
	} {
		genericMailboxes[l] = struct{}{}
	}
}

// RegistrableDomain returns the eTLD+1 of domain, or domain itself when it
// cannot be determined.
func RegistrableDomain(domain string) string {
	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(domain); err == nil && etld1 != "" {
		return etld1
	}
	return domain
}

// IsPublicDomain reports whether domain (or its registrable parent) is a
// free/public mail provider.
func IsPublicDomain(domain string) bool {
	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if _, ok := publicDomains[domain]; ok {
		return true
	}
	_, ok := publicDomains[RegistrableDomain(domain)]
	return ok
}

// IsGenericMailbox reports whether local is a role/shared mailbox name.
func IsGenericMailbox(local string) bool {
	_, ok := genericMailboxes[strings.ToLower(strings.TrimSpace(local))]
	return ok
}
