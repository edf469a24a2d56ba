package signal

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	codePattern = regexp.MustCompile(`\b(\d{4,6})\b`)

	// Spans masked before searching for a code so a date of birth or an
	// Aadhaar fragment is not mistaken for one.
	codeMasks = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`),
		regexp.MustCompile(`(?i)\baadha?ar\b.*?(?:\d{4}[\s-]?){0,2}\d{4}\b`),
		regexp.MustCompile(`\+?\d{10,13}`),
	}

	panPattern      = regexp.MustCompile(`(?i)\bpan\s*[:\-]?\s*([A-Z]{5}[0-9]{4}[A-Z])\b`)
	aadhaarPattern  = regexp.MustCompile(`(?i)\baadha?ar\b.*?((?:\d{4}[\s-]?){0,2}\d{4})\b`)
	dobPattern      = regexp.MustCompile(`(?i)\bdob\s*[:\-]?\s*(\d{4}-\d{2}-\d{2}|\d{2}/\d{2}/\d{4})\b`)
	emailPattern    = regexp.MustCompile(`(?i)\bemail\s*[:\-]?\s*([A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,})\b`)
	altPhonePattern = regexp.MustCompile(`(?i)\b(?:alt|alternate)\s*phone\s*[:\-]?\s*(\+?\d{10,13})\b`)

	optionPattern  = regexp.MustCompile(`(?i)\boption\s*([1-9])\b`)
	tenurePattern  = regexp.MustCompile(`(?i)\b(\d+)\s*(years?|yrs?|months?)\b`)
	percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

	customerIDPattern = regexp.MustCompile(`(?i)\bCUST\d+\b`)
)

// FindCode returns the first 4 to 6 digit token in text that is not part of a
// date, Aadhaar number or phone number.
func FindCode(text string) (string, bool) {
	for _, m := range codeMasks {
		text = m.ReplaceAllString(text, " ")
	}
	match := codePattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// Identity holds identity tokens found in one message. Empty fields were not
// present.
type Identity struct {
	PAN          string
	AadhaarLast4 string
	DOB          string
	Email        string
	AltPhone     string
}

// Empty reports whether no token was found.
func (id Identity) Empty() bool { return id == Identity{} }

// ExtractIdentity scans text for identity tokens.
func ExtractIdentity(text string) Identity {
	var id Identity
	if m := panPattern.FindStringSubmatch(text); m != nil {
		id.PAN = strings.ToUpper(m[1])
	}
	if m := aadhaarPattern.FindStringSubmatch(text); m != nil {
		digits := onlyDigits(m[1])
		id.AadhaarLast4 = digits[len(digits)-4:]
	}
	if m := dobPattern.FindStringSubmatch(text); m != nil {
		id.DOB = m[1]
	}
	if m := emailPattern.FindStringSubmatch(text); m != nil {
		id.Email = strings.ToLower(m[1])
	}
	if m := altPhonePattern.FindStringSubmatch(text); m != nil {
		id.AltPhone = m[1]
	}
	return id
}

var addressKeywords = []string{"street", "road", "lane", "block", "sector", "city", "pincode", "pin"}

// AddressText extracts the address portion of a message. A message qualifies
// when it starts with "address:" or "my address is", contains "address is",
// or is longer than ten characters and mentions a street-like keyword.
func AddressText(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "address:"):
		return nonEmpty(strings.TrimSpace(trimmed[len("address:"):]))
	case strings.HasPrefix(lower, "my address is"):
		return nonEmpty(strings.TrimSpace(trimmed[len("my address is"):]))
	case strings.Contains(lower, "address is"):
		idx := strings.Index(lower, "address is")
		return nonEmpty(strings.TrimSpace(trimmed[idx+len("address is"):]))
	}
	if len(trimmed) <= 10 {
		return "", false
	}
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
	for _, w := range words {
		for _, k := range addressKeywords {
			if w == k {
				return trimmed, true
			}
		}
	}
	return "", false
}

// Selection is an offer choice found in text. Zero fields were not present.
type Selection struct {
	Option       int
	TenureMonths int
}

// Found reports whether any selection signal was present.
func (s Selection) Found() bool { return s.Option > 0 || s.TenureMonths > 0 }

// ParseSelection extracts an option index ("option 2") or tenure phrase
// ("3 years", "36 months").
func ParseSelection(text string) Selection {
	var s Selection
	if m := optionPattern.FindStringSubmatch(text); m != nil {
		s.Option, _ = strconv.Atoi(m[1])
	}
	if m := tenurePattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			if strings.HasPrefix(strings.ToLower(m[2]), "y") {
				n *= 12
			}
			s.TenureMonths = n
		}
	}
	return s
}

// RequestedRate returns a percentage mentioned in text ("10.5%").
func RequestedRate(text string) (float64, bool) {
	m := percentPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// CustomerID returns an upper-cased CUST id mentioned in text.
func CustomerID(text string) (string, bool) {
	m := customerIDPattern.FindString(text)
	if m == "" {
		return "", false
	}
	return strings.ToUpper(m), true
}

// NormalizePhone strips separators and prefixes a bare 10-digit number with
// countryCode.
func NormalizePhone(raw, countryCode string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if len(cleaned) == 10 && onlyDigits(cleaned) == cleaned {
		return countryCode + cleaned
	}
	return cleaned
}

// MaskPhone hides all but the last four digits.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func nonEmpty(s string) (string, bool) { return s, s != "" }
