package intent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/voyago-ai/flight-concierge/internal/model"
)

// RuleClassifier is a deterministic keyword/pattern classifier. It is the
// default backing implementation and the fallback for the LLM classifier:
// given the same utterance and state it always returns the same result.
type RuleClassifier struct {
	// Now is injectable for date resolution in tests.
	Now func() time.Time
}

// NewRuleClassifier creates a rule classifier using the wall clock.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{Now: time.Now}
}

var (
	uuidPattern    = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)
	isoDatePattern = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	dmDatePattern  = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)
	ordinalDigit   = regexp.MustCompile(`(?:option|chuyen(?:\s+so)?|chon|so)\s*#?\s*(\d{1,2})\b`)
	ordinalWord    = regexp.MustCompile(`(?:option|chuyen|the)\s+(dau tien|thu hai|thu ba|thu tu|thu nam|first|second|third|fourth|fifth)`)
	bareNumber     = regexp.MustCompile(`^\d{1,2}$`)
	adultsPattern  = regexp.MustCompile(`\b(\d)\s*(?:nguoi lon|nguoi|hanh khach|khach|adults?|passengers?|pax)\b`)
	originAfter    = regexp.MustCompile(`\b(?:tu|from)\s+(\S+(?:\s+\S+)?)`)
	destAfter      = regexp.MustCompile(`\b(?:di|den|toi|to|->)\s+(\S+(?:\s+\S+)?)`)
	originBefore   = regexp.MustCompile(`(\S+(?:\s+\S+)?)\s+(?:di|den|toi|to|->)\s`)
)

var ordinalWords = map[string]int{
	"dau tien": 1, "first": 1,
	"thu hai": 2, "second": 2,
	"thu ba": 3, "third": 3,
	"thu tu": 4, "fourth": 4,
	"thu nam": 5, "fifth": 5,
}

// Classify implements Classifier.
func (c *RuleClassifier) Classify(_ context.Context, utterance string, state model.State) Result {
	raw := strings.TrimSpace(utterance)
	text := normalizeCity(raw) // lowercase, diacritics stripped, spaces collapsed
	if text == "" {
		return Result{Intent: model.IntentUnknown, Confidence: 0}
	}

	now := c.Now()

	if in, ok := c.keywordIntent(text); ok {
		slots := map[string]string{}
		switch in {
		case model.IntentFlightSearch:
			c.extractFlightSlots(raw, text, now, slots)
		case model.IntentBookFlight:
			if idx, ok := extractOrdinal(text); ok {
				slots[model.SlotSelectedOfferIndex] = strconv.Itoa(idx - 1)
			}
			if id := uuidPattern.FindString(raw); id != "" {
				slots[model.SlotPassengerID] = id
			}
		case model.IntentCancelBooking:
			if id := uuidPattern.FindString(raw); id != "" {
				slots[model.SlotBookingID] = id
			}
		}
		return Result{Intent: in, Slots: slots, Confidence: 0.9}
	}

	// Continuation of a pending follow-up: the utterance is the answer to
	// the slot the router asked for.
	if state.Step != "" && state.CurrentIntent != "" {
		if slot, ok := strings.CutPrefix(state.Step, "awaiting_"); ok {
			slots := map[string]string{}
			if slot == "offer_choice" {
				if idx, ok := extractOrdinal(text); ok {
					slots[model.SlotSelectedOfferIndex] = strconv.Itoa(idx - 1)
					return Result{Intent: model.IntentBookFlight, Slots: slots, Confidence: 0.8}
				}
			} else if v, ok := c.parseBareSlot(slot, raw, text, now); ok {
				slots[slot] = v
				// Pick up anything else the user volunteered in the same turn.
				if state.CurrentIntent == model.IntentFlightSearch {
					c.extractFlightSlots(raw, text, now, slots)
					slots[slot] = v
				}
				return Result{Intent: state.CurrentIntent, Slots: slots, Confidence: 0.8}
			}
		}
	}

	// A bare ordinal with prior search results means the user is picking
	// an offer, e.g. tapping the "2" quick reply.
	if bareNumber.MatchString(text) && len(state.LastOfferIDs) > 0 {
		n, _ := strconv.Atoi(text)
		if n >= 1 {
			return Result{
				Intent:     model.IntentBookFlight,
				Slots:      map[string]string{model.SlotSelectedOfferIndex: strconv.Itoa(n - 1)},
				Confidence: 0.75,
			}
		}
	}

	if isGreeting(text) || strings.HasSuffix(raw, "?") {
		return Result{Intent: model.IntentGeneralQuestion, Confidence: 0.6}
	}

	return Result{Intent: model.IntentUnknown, Confidence: 0.2}
}

func (c *RuleClassifier) keywordIntent(text string) (model.Intent, bool) {
	has := func(kws ...string) bool {
		for _, kw := range kws {
			if strings.Contains(text, kw) {
				return true
			}
		}
		return false
	}

	switch {
	case has("huy booking", "huy don", "huy ve", "cancel"):
		return model.IntentCancelBooking, true
	case has("dat chuyen", "dat ve", "book option", "book chuyen", "book the", "dat cho", "mua ve") ||
		(has("book", "dat") && ordinalDigit.MatchString(text)):
		return model.IntentBookFlight, true
	case has("tim ve", "tim chuyen", "search flight", "find flight", "find a flight", "ve may bay", "flight from", "bay tu"):
		return model.IntentFlightSearch, true
	case has("booking cua toi", "xem booking", "don dat ve", "my booking", "my bookings", "xem don"):
		return model.IntentViewBooking, true
	case has("hanh khach", "passenger list", "passengers", "danh sach khach"):
		return model.IntentViewPassengers, true
	case has("so thich", "preference"):
		return model.IntentViewPreferences, true
	case has("lich bay", "lich trinh", "itinerary", "my calendar", "xem lich"):
		return model.IntentAskItinerary, true
	case has("cap nhat ho so", "doi email", "update my profile", "update profile", "change my email"):
		return model.IntentProfileUpdate, true
	}
	return "", false
}

// extractFlightSlots pulls route, dates, party size and cabin class out of a
// search utterance. Extraction is best-effort: values that fail validation
// are simply not emitted.
func (c *RuleClassifier) extractFlightSlots(raw, text string, now time.Time, slots map[string]string) {
	if m := originAfter.FindStringSubmatch(text); m != nil {
		if code, ok := resolveCity(m[1]); ok {
			slots[model.SlotOrigin] = code
		}
	}
	if _, ok := slots[model.SlotOrigin]; !ok {
		if m := originBefore.FindStringSubmatch(text); m != nil {
			if code, ok := resolveCity(m[1]); ok {
				slots[model.SlotOrigin] = code
			}
		}
	}
	if m := destAfter.FindStringSubmatch(text); m != nil {
		if code, ok := resolveCity(m[1]); ok && code != slots[model.SlotOrigin] {
			slots[model.SlotDestination] = code
		}
	}

	dates := c.extractDates(text, now)
	if len(dates) > 0 {
		slots[model.SlotDepartDate] = dates[0]
	}
	if len(dates) > 1 {
		slots[model.SlotReturnDate] = dates[1]
	}

	if m := adultsPattern.FindStringSubmatch(text); m != nil {
		slots[model.SlotAdults] = m[1]
	}
	if strings.Contains(text, "business") || strings.Contains(text, "thuong gia") {
		slots[model.SlotTravelClass] = string(model.TravelClassBusiness)
	} else if strings.Contains(text, "economy") || strings.Contains(text, "pho thong") {
		slots[model.SlotTravelClass] = string(model.TravelClassEconomy)
	}
}

// extractDates returns ISO dates found in the text, in textual order.
// Day/month forms without a year resolve to the nearest future occurrence.
func (c *RuleClassifier) extractDates(text string, now time.Time) []string {
	var dates []string

	switch {
	case strings.Contains(text, "ngay mai") || strings.Contains(text, "tomorrow"):
		dates = append(dates, now.AddDate(0, 0, 1).Format("2006-01-02"))
	case strings.Contains(text, "tuan sau") || strings.Contains(text, "next week"):
		dates = append(dates, now.AddDate(0, 0, 7).Format("2006-01-02"))
	case strings.Contains(text, "hom nay") || strings.Contains(text, "today"):
		dates = append(dates, now.Format("2006-01-02"))
	}

	for _, m := range isoDatePattern.FindAllStringSubmatch(text, 2) {
		if _, err := time.Parse("2006-01-02", m[0]); err == nil {
			dates = append(dates, m[0])
		}
	}

	if len(dates) < 2 {
		for _, m := range dmDatePattern.FindAllStringSubmatch(text, 2) {
			day, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			if day < 1 || day > 31 || month < 1 || month > 12 {
				continue
			}
			year := now.Year()
			if m[3] != "" {
				year, _ = strconv.Atoi(m[3])
				if year < 100 {
					year += 2000
				}
			}
			d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
			if m[3] == "" && d.Before(now.Truncate(24*time.Hour)) {
				d = d.AddDate(1, 0, 0)
			}
			dates = append(dates, d.Format("2006-01-02"))
			if len(dates) >= 2 {
				break
			}
		}
	}

	return dates
}

// parseBareSlot interprets the whole utterance as the answer to one awaited
// slot, e.g. "2" while awaiting adults, or "business" while awaiting class.
func (c *RuleClassifier) parseBareSlot(slot, raw, text string, now time.Time) (string, bool) {
	switch slot {
	case model.SlotOrigin, model.SlotDestination:
		if code, ok := resolveCity(text); ok {
			return code, true
		}
	case model.SlotDepartDate, model.SlotReturnDate:
		if dates := c.extractDates(text, now); len(dates) > 0 {
			return dates[0], true
		}
	case model.SlotAdults:
		if bareNumber.MatchString(text) {
			return text, true
		}
		if m := adultsPattern.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	case model.SlotTravelClass:
		if v, err := ValidateSlot(model.SlotTravelClass, text, now); err == nil {
			return v, true
		}
	case model.SlotPassengerID, model.SlotBookingID:
		if id := uuidPattern.FindString(raw); id != "" {
			return id, true
		}
	}
	return "", false
}

// extractOrdinal returns the 1-based offer number named by the text.
func extractOrdinal(text string) (int, bool) {
	if m := ordinalDigit.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 {
			return n, true
		}
	}
	if m := ordinalWord.FindStringSubmatch(text); m != nil {
		if n, ok := ordinalWords[m[1]]; ok {
			return n, true
		}
	}
	if bareNumber.MatchString(text) {
		n, _ := strconv.Atoi(text)
		if n >= 1 {
			return n, true
		}
	}
	return 0, false
}

// resolveCity maps a captured phrase to an IATA code: known city aliases
// first, then a literal code the user typed uppercase ("JFK"). Lowercase
// 3-letter words stay words, so date fragments like "mai" never become
// airports. Longer sub-phrases win; noise words on either side are
// dropped, so "ve hn" and "sg ngay" still resolve.
func resolveCity(phrase string) (string, bool) {
	raw := strings.Fields(strings.TrimSpace(phrase))
	words := strings.Fields(normalizeCity(phrase))
	n := len(words)
	for size := n; size >= 1; size-- {
		for start := 0; start+size <= n; start++ {
			candidate := strings.Join(words[start:start+size], " ")
			if code, ok := cityCodes[candidate]; ok {
				return code, true
			}
			if size == 1 && start < len(raw) && iataPattern.MatchString(raw[start]) {
				return raw[start], true
			}
		}
	}
	return "", false
}

func isGreeting(text string) bool {
	for _, kw := range []string{"xin chao", "chao ban", "hello", "hi ", "hey"} {
		if strings.HasPrefix(text+" ", kw) || text == strings.TrimSpace(kw) {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer for debug logging.
func (r Result) String() string {
	return fmt.Sprintf("intent=%s confidence=%.2f slots=%v", r.Intent, r.Confidence, r.Slots)
}
