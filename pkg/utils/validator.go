package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Sentinel validation errors, returned wrapped with field context by the
// Validate* functions and collected unwrapped into ValidationErrors.
var (
	ErrInvalidSymbol     = errors.New("invalid symbol format")
	ErrInvalidVolume     = errors.New("volume out of range")
	ErrInvalidPercentage = errors.New("percentage out of range")
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrInvalidAPIKey     = errors.New("invalid API key format")
	ErrInvalidAPISecret  = errors.New("invalid API secret format")
	ErrAPIPassphraseLong = errors.New("API passphrase too long")
	ErrInvalidExchange   = errors.New("unsupported exchange")
)

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9_/-]{2,20}$`)

// ValidateSymbol checks that a trading pair symbol has a plausible shape:
// 2-20 chars, letters/digits plus the common separators.
func ValidateSymbol(symbol string) error {
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return nil
}

// IsValidSymbol is the boolean form of ValidateSymbol.
func IsValidSymbol(symbol string) bool { return ValidateSymbol(symbol) == nil }

// NormalizeSymbol upper-cases a symbol and strips the separators exchanges
// sometimes accept but never return (BTC-USDT, BTC_USDT, BTC/USDT -> BTCUSDT).
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(symbol)
	s = strings.NewReplacer("-", "", "_", "", "/", "").Replace(s)
	return s
}

// knownQuoteCurrencies lists quote assets long enough to be ambiguous with
// a base asset, ordered so that every quote is tried before any shorter quote
// it ends with, e.g. "USDT" and "FDUSD" before "USD".
var knownQuoteCurrencies = []string{"USDT", "USDC", "BUSD", "FDUSD", "BTC", "ETH", "BNB", "USD", "EUR"}

// ExtractBaseCurrency returns the base asset of a normalized symbol, e.g.
// "BTC" from "BTCUSDT" or "BTC-USDT".
func ExtractBaseCurrency(symbol string) string {
	base, _ := splitSymbol(symbol)
	return base
}

// ExtractQuoteCurrency returns the quote asset of a normalized symbol, e.g.
// "USDT" from "BTCUSDT" or "BTC-USDT".
func ExtractQuoteCurrency(symbol string) string {
	_, quote := splitSymbol(symbol)
	return quote
}

func splitSymbol(symbol string) (base, quote string) {
	norm := NormalizeSymbol(symbol)
	for _, q := range knownQuoteCurrencies {
		if strings.HasSuffix(norm, q) && len(norm) > len(q) {
			return norm[:len(norm)-len(q)], q
		}
	}
	if len(norm) > 3 {
		return norm[:len(norm)-3], norm[len(norm)-3:]
	}
	return norm, ""
}

// ValidateVolume checks that an order volume is positive and within a
// sane upper bound, catching fat-finger config values before they reach
// the exchange port.
func ValidateVolume(volume float64) error {
	if volume <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidVolume, volume)
	}
	if volume > 1e9 {
		return fmt.Errorf("%w: %v", ErrInvalidVolume, volume)
	}
	return nil
}

// ValidatePercentage checks that pct lies within [0, 100].
func ValidatePercentage(pct float64) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("%w: %v", ErrInvalidPercentage, pct)
	}
	return nil
}

// ValidateStopLoss checks a stop-loss percentage config value.
func ValidateStopLoss(sl float64) error {
	if sl <= 0 || sl > 100 {
		return fmt.Errorf("%w: stop loss %v", ErrInvalidPercentage, sl)
	}
	return nil
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail checks a simple email shape (local@domain.tld).
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return nil
}

// IsValidEmail is the boolean form of ValidateEmail.
func IsValidEmail(email string) bool { return ValidateEmail(email) == nil }

var credentialPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateAPIKey checks an exchange API key: at least 16 chars, no
// whitespace or punctuation outside -/_.
func ValidateAPIKey(key string) error {
	if len(key) < 16 || !credentialPattern.MatchString(key) {
		return fmt.Errorf("%w", ErrInvalidAPIKey)
	}
	return nil
}

// IsValidAPIKey is the boolean form of ValidateAPIKey.
func IsValidAPIKey(key string) bool { return ValidateAPIKey(key) == nil }

// ValidateAPISecret checks an exchange API secret: at least 16 chars.
// Unlike the key, a secret may contain arbitrary symbols.
func ValidateAPISecret(secret string) error {
	if len(secret) < 16 {
		return fmt.Errorf("%w", ErrInvalidAPISecret)
	}
	return nil
}

// ValidateAPIPassphrase checks an optional venue passphrase (some venues
// require one alongside key/secret; Binance does not, and ExchangeConfig
// has no passphrase field).
func ValidateAPIPassphrase(passphrase string) error {
	if len(passphrase) > 64 {
		return fmt.Errorf("%w", ErrAPIPassphraseLong)
	}
	return nil
}

// SupportedExchanges lists the venue names this build's exchange port
// recognizes. Only binance has a concrete adapter; the list stays a slice
// (not a single constant) so a future adapter is one entry away.
var SupportedExchanges = []string{"binance"}

// GetSupportedExchanges returns a copy of SupportedExchanges.
func GetSupportedExchanges() []string {
	out := make([]string, len(SupportedExchanges))
	copy(out, SupportedExchanges)
	return out
}

// NormalizeExchange lower-cases and trims an exchange name for comparison.
func NormalizeExchange(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidateExchange checks that name (case-insensitively) is a supported
// venue.
func ValidateExchange(name string) error {
	norm := NormalizeExchange(name)
	if norm == "" {
		return fmt.Errorf("%w: empty", ErrInvalidExchange)
	}
	for _, ex := range SupportedExchanges {
		if ex == norm {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidExchange, name)
}

// IsValidExchange is the boolean form of ValidateExchange.
func IsValidExchange(name string) bool { return ValidateExchange(name) == nil }

// ValidationErrors collects field-scoped validation failures, e.g. from
// validating a whole config section at once.
type ValidationErrors []string

// Add appends a "field: message" entry.
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, fmt.Sprintf("%s: %s", field, message))
}

// AddError appends err's message for field, if err is non-nil.
func (e *ValidationErrors) AddError(field string, err error) {
	if err == nil {
		return
	}
	e.Add(field, err.Error())
}

// HasErrors reports whether any entries were collected.
func (e ValidationErrors) HasErrors() bool { return len(e) > 0 }

func (e ValidationErrors) Error() string {
	return strings.Join(e, "; ")
}
