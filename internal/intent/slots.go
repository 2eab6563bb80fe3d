package intent

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voyago-ai/flight-concierge/internal/model"
)

var iataPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// ErrUnknownSlot is returned for slot keys the router does not track.
var ErrUnknownSlot = errors.New("unknown slot")

// ValidateSlot normalizes and validates one extracted slot value. The
// returned string is the canonical form to store. A non-nil error means the
// value must be discarded, never stored half-parsed.
func ValidateSlot(key, value string, now time.Time) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("slot %s: empty value", key)
	}

	switch key {
	case model.SlotOrigin, model.SlotDestination:
		code := strings.ToUpper(value)
		if c, ok := cityCodes[normalizeCity(value)]; ok {
			code = c
		}
		if !iataPattern.MatchString(code) {
			return "", fmt.Errorf("slot %s: %q is not an IATA code", key, value)
		}
		return code, nil

	case model.SlotDepartDate, model.SlotReturnDate:
		d, err := time.Parse("2006-01-02", value)
		if err != nil {
			return "", fmt.Errorf("slot %s: %q is not an ISO date", key, value)
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if d.Before(today) {
			return "", fmt.Errorf("slot %s: %s is in the past", key, value)
		}
		return d.Format("2006-01-02"), nil

	case model.SlotAdults:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 9 {
			return "", fmt.Errorf("slot adults: %q must be an integer between 1 and 9", value)
		}
		return strconv.Itoa(n), nil

	case model.SlotTravelClass:
		switch c := strings.ToUpper(value); c {
		case string(model.TravelClassEconomy), "ECO", "PHỔ THÔNG", "PHO THONG":
			return string(model.TravelClassEconomy), nil
		case string(model.TravelClassBusiness), "THƯƠNG GIA", "THUONG GIA":
			return string(model.TravelClassBusiness), nil
		default:
			return "", fmt.Errorf("slot travel_class: %q is not ECONOMY or BUSINESS", value)
		}

	case model.SlotPassengerID, model.SlotBookingID:
		if _, err := uuid.Parse(value); err != nil {
			return "", fmt.Errorf("slot %s: %q is not a valid id", key, value)
		}
		return value, nil

	case model.SlotSelectedOfferIndex:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return "", fmt.Errorf("slot selected_offer_index: %q must be a non-negative integer", value)
		}
		return strconv.Itoa(n), nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownSlot, key)
}

// cityCodes maps normalized city names to IATA airport codes. Covers the
// domestic routes the original deployment served plus common variants.
var cityCodes = map[string]string{
	"ha noi":      "HAN",
	"hanoi":       "HAN",
	"hn":          "HAN",
	"sai gon":     "SGN",
	"saigon":      "SGN",
	"sg":          "SGN",
	"tp hcm":      "SGN",
	"hcm":         "SGN",
	"ho chi minh": "SGN",
	"da nang":     "DAD",
	"danang":      "DAD",
	"nha trang":   "CXR",
	"phu quoc":    "PQC",
	"hue":         "HUI",
	"hai phong":   "HPH",
	"can tho":     "VCA",
	"bangkok":     "BKK",
	"singapore":   "SIN",
	"tokyo":       "NRT",
	"seoul":       "ICN",
}

var diacritics = strings.NewReplacer(
	"à", "a", "á", "a", "ả", "a", "ã", "a", "ạ", "a",
	"ă", "a", "ằ", "a", "ắ", "a", "ẳ", "a", "ẵ", "a", "ặ", "a",
	"â", "a", "ầ", "a", "ấ", "a", "ẩ", "a", "ẫ", "a", "ậ", "a",
	"è", "e", "é", "e", "ẻ", "e", "ẽ", "e", "ẹ", "e",
	"ê", "e", "ề", "e", "ế", "e", "ể", "e", "ễ", "e", "ệ", "e",
	"ì", "i", "í", "i", "ỉ", "i", "ĩ", "i", "ị", "i",
	"ò", "o", "ó", "o", "ỏ", "o", "õ", "o", "ọ", "o",
	"ô", "o", "ồ", "o", "ố", "o", "ổ", "o", "ỗ", "o", "ộ", "o",
	"ơ", "o", "ờ", "o", "ớ", "o", "ở", "o", "ỡ", "o", "ợ", "o",
	"ù", "u", "ú", "u", "ủ", "u", "ũ", "u", "ụ", "u",
	"ư", "u", "ừ", "u", "ứ", "u", "ử", "u", "ữ", "u", "ự", "u",
	"ỳ", "y", "ý", "y", "ỷ", "y", "ỹ", "y", "ỵ", "y",
	"đ", "d",
)

// normalizeCity lowercases, strips Vietnamese diacritics and collapses
// whitespace so "Hà Nội", "ha noi" and "HA NOI" all hit the same key.
func normalizeCity(s string) string {
	s = diacritics.Replace(strings.ToLower(strings.TrimSpace(s)))
	return strings.Join(strings.Fields(s), " ")
}
