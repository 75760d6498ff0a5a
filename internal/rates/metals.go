package rates

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Metal codes used by the XML_metall endpoint.
var metalNames = map[string]string{
	"1": "Gold",
	"2": "Silver",
	"3": "Platinum",
	"4": "Palladium",
}

// MetalPrice is the bank's accounting price for one gram of a precious
// metal, in RUB.
type MetalPrice struct {
	Name  string
	Price float64
	Date  time.Time
}

type metall struct {
	XMLName xml.Name      `xml:"Metall"`
	Records []metalRecord `xml:"Record"`
}

type metalRecord struct {
	Date string `xml:"Date,attr"`
	Code string `xml:"Code,attr"`
	Buy  string `xml:"Buy"`
	Sell string `xml:"Sell"`
}

// Metals returns the latest published price per metal. The endpoint is
// queried over the trailing week because nothing is published on weekends.
func (c *Client) Metals(ctx context.Context) ([]MetalPrice, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -7)
	url := fmt.Sprintf("%sscripts/xml_metall.asp?date_req1=%s&date_req2=%s",
		c.baseURL, from.Format("02/01/2006"), to.Format("02/01/2006"))

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch metal prices")
	}

	var doc metall
	if err := decodeXML(body, &doc); err != nil {
		return nil, errors.Wrap(err, "could not parse metal prices")
	}

	latest := make(map[string]MetalPrice)
	for _, rec := range doc.Records {
		name, ok := metalNames[rec.Code]
		if !ok {
			continue
		}
		price, err := parseCBRFloat(rec.Sell)
		if err != nil {
			continue
		}
		date, err := time.Parse("02.01.2006", rec.Date)
		if err != nil {
			continue
		}
		if prev, ok := latest[rec.Code]; !ok || date.After(prev.Date) {
			latest[rec.Code] = MetalPrice{Name: name, Price: price, Date: date}
		}
	}

	if len(latest) == 0 {
		return nil, errors.New("no metal prices in response")
	}

	var prices []MetalPrice
	for _, code := range []string{"1", "2", "3", "4"} {
		if p, ok := latest[code]; ok {
			prices = append(prices, p)
		}
	}
	return prices, nil
}
