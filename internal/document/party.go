package document

import (
	"strings"

	"github.com/ttacon/libphonenumber"

	"billing/pkg/models"
	"billing/pkg/services"
)

// ResolveParty starts from the stored profile for in.Code and lets every
// non-empty field of in override it.
func ResolveParty(stored map[string]models.Party, in services.PartyInput, region string) models.Party {
	code := strings.TrimSpace(in.Code)
	p := stored[code]
	p.Code = code
	override(&p.Name, in.Name)
	override(&p.GSTIN, in.GSTIN)
	override(&p.Mobile, in.Mobile)
	override(&p.Address, in.Address)
	p.Mobile = FormatMobile(p.Mobile, region)
	return p
}

func override(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// FormatMobile renders a valid number in international format and returns
// anything else unchanged.
func FormatMobile(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	num, err := libphonenumber.Parse(raw, region)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return raw
	}
	return libphonenumber.Format(num, libphonenumber.INTERNATIONAL)
}
