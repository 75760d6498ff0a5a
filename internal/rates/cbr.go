package rates

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"
)

// CBR internal currency ids mapped to ISO codes, and back. Only these
// currencies are supported as alert instruments.
var currencyIDs = map[string]string{
	"R01235": "USD", "R01239": "EUR", "R01035": "GBP", "R01820": "JPY",
	"R01375": "CNY", "R01775": "CHF", "R01350": "CAD", "R01010": "AUD",
	"R01700": "TRY", "R01335": "KZT",
}

var currencyCodes = func() map[string]string {
	m := make(map[string]string, len(currencyIDs))
	for id, code := range currencyIDs {
		m[code] = id
	}
	return m
}()

// SupportedCurrencies lists the instrument codes in a stable order.
var SupportedCurrencies = []string{"USD", "EUR", "GBP", "JPY", "CNY", "CHF", "CAD", "AUD", "TRY", "KZT"}

// IsSupported reports whether code can be used as an alert instrument.
func IsSupported(code string) bool {
	_, ok := currencyCodes[code]
	return ok
}

// Rate is one currency quote against RUB, normalized to a nominal of 1.
type Rate struct {
	Code    string
	Name    string
	Value   float64
	Nominal int
}

// DailyRates is the result of one XML_daily fetch pair: today's quotes
// plus, when the central bank has already published them, tomorrow's and
// the per-currency change.
type DailyRates struct {
	Today    map[string]Rate
	Date     string
	AsOf     time.Time
	Tomorrow map[string]Rate
	Changes  map[string]RateChange
}

type RateChange struct {
	Change        float64
	ChangePercent float64
}

type valCurs struct {
	XMLName xml.Name `xml:"ValCurs"`
	Date    string   `xml:"Date,attr"`
	Valutes []valute `xml:"Valute"`
}

type valute struct {
	ID      string `xml:"ID,attr"`
	Nominal string `xml:"Nominal"`
	Name    string `xml:"Name"`
	Value   string `xml:"Value"`
}

// RatesForDate fetches the official quotes for one date. The returned
// string is the date the bank actually quoted, which may differ from the
// requested one on weekends and holidays.
func (c *Client) RatesForDate(ctx context.Context, date time.Time) (map[string]Rate, string, error) {
	url := fmt.Sprintf("%sscripts/XML_daily.asp?date_req=%s", c.baseURL, date.Format("02/01/2006"))
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, "", errors.Wrap(err, "could not fetch daily rates")
	}

	var doc valCurs
	if err := decodeXML(body, &doc); err != nil {
		return nil, "", errors.Wrap(err, "could not parse daily rates")
	}

	result := make(map[string]Rate)
	for _, v := range doc.Valutes {
		code, ok := currencyIDs[v.ID]
		if !ok {
			continue
		}
		value, err := parseCBRFloat(v.Value)
		if err != nil {
			log.Warnf("skipping %s: bad value %q", code, v.Value)
			continue
		}
		nominal, err := strconv.Atoi(strings.TrimSpace(v.Nominal))
		if err != nil || nominal <= 0 {
			nominal = 1
		}
		if nominal > 1 {
			value /= float64(nominal)
		}
		result[code] = Rate{Code: code, Name: v.Name, Value: value, Nominal: nominal}
	}

	if len(result) == 0 {
		return nil, "", errors.New("no supported currencies in response")
	}
	return result, doc.Date, nil
}

// RatesWithTomorrow fetches today's quotes and, when available, the next
// publication day's quotes with the per-currency change. A failure on the
// tomorrow leg is not an error: the today leg alone is a valid result.
func (c *Client) RatesWithTomorrow(ctx context.Context) (*DailyRates, error) {
	now := time.Now()

	today, dateStr, err := c.RatesForDate(ctx, now)
	if err != nil {
		return nil, err
	}

	result := &DailyRates{Today: today, Date: dateStr, AsOf: cbrDate(dateStr, now)}

	tomorrow, tomorrowDate, err := c.RatesForDate(ctx, now.AddDate(0, 0, 1))
	if err != nil || tomorrowDate == dateStr {
		return result, nil
	}

	result.Tomorrow = tomorrow
	result.Changes = make(map[string]RateChange)
	for code, t := range today {
		next, ok := tomorrow[code]
		if !ok || t.Value == 0 {
			continue
		}
		change := next.Value - t.Value
		result.Changes[code] = RateChange{
			Change:        change,
			ChangePercent: change / t.Value * 100,
		}
	}
	return result, nil
}

// decodeXML handles the windows-1251 encoding the CBR endpoints declare.
func decodeXML(body []byte, v any) error {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	return dec.Decode(v)
}

// parseCBRFloat parses the comma-decimal numbers CBR uses ("81,5432").
func parseCBRFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

// cbrDate parses the "02.01.2006" date attribute, falling back to the
// request time when the attribute is malformed.
func cbrDate(s string, fallback time.Time) time.Time {
	if t, err := time.Parse("02.01.2006", s); err == nil {
		return t
	}
	return fallback
}
