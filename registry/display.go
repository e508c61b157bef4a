package registry

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// Fallback strings of the display helpers.
const (
	NoDate = "no date"
)

// shortDates maps each supported locale to its short date layout. The first
// entry is the matcher's fallback.
var shortDates = []struct {
	tag    language.Tag
	layout string
}{
	{language.AmericanEnglish, "1/2/2006"},
	{language.BritishEnglish, "02/01/2006"},
	{language.Spanish, "2/1/2006"},
	{language.BrazilianPortuguese, "02/01/2006"},
	{language.French, "02/01/2006"},
	{language.German, "2.1.2006"},
	{language.Japanese, "2006/01/02"},
}

var localeMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(shortDates))
	for i, d := range shortDates {
		tags[i] = d.tag
	}
	return language.NewMatcher(tags)
}()

// ParseLocale parses a BCP 47 tag such as "es-AR" or "en-US".
func ParseLocale(s string) (language.Tag, error) {
	if strings.TrimSpace(s) == "" {
		return language.AmericanEnglish, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("invalid locale %q: %w", s, err)
	}
	return tag, nil
}

// ShortDateLayout returns the time layout of the short date format closest to tag.
func ShortDateLayout(tag language.Tag) string {
	_, idx, _ := localeMatcher.Match(tag)
	return shortDates[idx].layout
}

// dateInputLayouts are tried in order when parsing a date string.
var dateInputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// FormatDate renders value as a short date for tag. Empty input yields
// "no date"; input that is not a date is returned unchanged.
func FormatDate(tag language.Tag, value string) string {
	if strings.TrimSpace(value) == "" {
		return NoDate
	}
	t, err := ParseDate(value)
	if err != nil {
		return value
	}
	return FormatTime(tag, t)
}

// FormatTime renders t as a short date for tag, "no date" for the zero time.
func FormatTime(tag language.Tag, t time.Time) string {
	if t.IsZero() {
		return NoDate
	}
	return t.Format(ShortDateLayout(tag))
}

// =============================================================================
// REGISTRY HELPERS - derived views over the cache
// =============================================================================

// ParcelSummary is what a parcel looks like next to its owner.
type ParcelSummary struct {
	ClientID      ID     `json:"client_id"`
	Address       string `json:"address"`
	ClientDisplay string `json:"client_display"`
}

// ClientDisplayName returns "name (phone)" for the client, or
// "client not found" when the id is unknown.
func (r *Registry) ClientDisplayName(id ID) string {
	c, ok := r.cache.Client(id)
	if !ok {
		return MsgClientNotFound
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.Phone)
}

// ParcelSummary resolves a parcel and its owner's display name.
// ok is false when the parcel is not cached.
func (r *Registry) ParcelSummary(id ID) (ParcelSummary, bool) {
	p, ok := r.cache.Parcel(id)
	if !ok {
		return ParcelSummary{Address: MsgParcelNotFound, ClientDisplay: MsgClientNotFound}, false
	}
	return ParcelSummary{
		ClientID:      p.ClientID,
		Address:       p.Address,
		ClientDisplay: r.ClientDisplayName(p.ClientID),
	}, true
}

// FormatDate renders a date string with the registry's locale.
func (r *Registry) FormatDate(value string) string {
	return FormatDate(r.locale, value)
}

// DebtSummary renders a debt on one line:
//
//	Ana (555-0100) | Lot 9 | 200 | due 10/18/2026 | Pending
func (r *Registry) DebtSummary(d Debt) string {
	ps, _ := r.ParcelSummary(d.ParcelID)
	return fmt.Sprintf("%s | %s | %s | due %s | %s",
		ps.ClientDisplay, ps.Address, d.Amount.String(), FormatTime(r.locale, d.DueDate), d.Status)
}

// Balance totals the debts of one client.
type Balance struct {
	ClientID ID                         `json:"client_id"`
	Total    decimal.Decimal            `json:"total"`
	ByStatus map[string]decimal.Decimal `json:"by_status"`
	Debts    int                        `json:"debts"`
}

// ClientBalance sums the debts on every parcel of a client.
func (r *Registry) ClientBalance(id ID) (Balance, error) {
	if _, ok := r.cache.Client(id); !ok {
		return Balance{}, &NotFoundError{Collection: Clients, ID: id}
	}
	b := Balance{ClientID: id, Total: decimal.Zero, ByStatus: map[string]decimal.Decimal{}}
	for _, p := range r.cache.ParcelsForClient(id) {
		for _, d := range r.cache.DebtsForParcel(p.ID) {
			b.Total = b.Total.Add(d.Amount)
			b.ByStatus[d.Status] = b.ByStatus[d.Status].Add(d.Amount)
			b.Debts++
		}
	}
	return b, nil
}
