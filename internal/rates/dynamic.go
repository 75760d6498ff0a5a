package rates

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// RatePoint is one historical observation for a currency.
type RatePoint struct {
	Date  time.Time
	Value float64
}

type valCursDynamic struct {
	XMLName xml.Name        `xml:"ValCurs"`
	Records []dynamicRecord `xml:"Record"`
}

type dynamicRecord struct {
	Date    string `xml:"Date,attr"`
	Nominal string `xml:"Nominal"`
	Value   string `xml:"Value"`
}

// Dynamics returns the daily history of one currency over the trailing
// number of days, oldest first. Used by the chart command.
func (c *Client) Dynamics(ctx context.Context, code string, days int) ([]RatePoint, error) {
	id, ok := currencyCodes[code]
	if !ok {
		return nil, errors.Errorf("unsupported currency: %s", code)
	}

	to := time.Now()
	from := to.AddDate(0, 0, -days)
	url := fmt.Sprintf("%sscripts/XML_dynamic.asp?date_req1=%s&date_req2=%s&VAL_NM_RQ=%s",
		c.baseURL, from.Format("02/01/2006"), to.Format("02/01/2006"), id)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "could not fetch dynamics for %s", code)
	}

	var doc valCursDynamic
	if err := decodeXML(body, &doc); err != nil {
		return nil, errors.Wrapf(err, "could not parse dynamics for %s", code)
	}

	var points []RatePoint
	for _, rec := range doc.Records {
		date, err := time.Parse("02.01.2006", rec.Date)
		if err != nil {
			continue
		}
		value, err := parseCBRFloat(rec.Value)
		if err != nil {
			continue
		}
		nominal, err := strconv.Atoi(strings.TrimSpace(rec.Nominal))
		if err == nil && nominal > 1 {
			value /= float64(nominal)
		}
		points = append(points, RatePoint{Date: date, Value: value})
	}

	if len(points) == 0 {
		return nil, errors.Errorf("no history for %s", code)
	}
	return points, nil
}
