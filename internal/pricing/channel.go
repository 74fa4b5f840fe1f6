package pricing

import (
	"fmt"
	"math"
	"strings"

	"github.com/ktcapester/glimpse-sub000/internal/logger"
	"github.com/shopspring/decimal"
)

// Channel is a currency and finish combination priced independently.
type Channel string

const (
	ChannelUSD       Channel = "usd"
	ChannelUSDFoil   Channel = "usd_foil"
	ChannelUSDEtched Channel = "usd_etched"
	ChannelEUR       Channel = "eur"
	ChannelEURFoil   Channel = "eur_foil"
	ChannelEUREtched Channel = "eur_etched"
)

// Channels lists every aggregated channel in display order.
var Channels = []Channel{
	ChannelUSD,
	ChannelUSDFoil,
	ChannelUSDEtched,
	ChannelEUR,
	ChannelEURFoil,
	ChannelEUREtched,
}

// ParseChannel resolves a channel name; an empty name means ChannelUSD.
func ParseChannel(name string) (Channel, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ChannelUSD, nil
	}
	for _, ch := range Channels {
		if string(ch) == name {
			return ch, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownChannel, name)
}

// Printing is one edition of a card with its provider-listed prices.
// A nil or missing entry means the provider has no price for that channel.
type Printing struct {
	ID     string
	Set    string
	Prices map[string]*string
}

// Summary maps every channel to its aggregate price.
type Summary map[Channel]float64

// Get returns the channel price, or NoPrice when absent.
func (s Summary) Get(ch Channel) float64 {
	if v, ok := s[ch]; ok {
		return v
	}
	return NoPrice
}

// Rounded returns a copy with every price rounded to cents.
func (s Summary) Rounded() Summary {
	out := make(Summary, len(s))
	for ch, v := range s {
		out[ch] = decimal.NewFromFloat(v).Round(2).InexactFloat64()
	}
	return out
}

// ParseObservation converts a provider price string into an observation.
// Absent, empty, malformed, negative and out-of-range values are rejected.
func ParseObservation(raw *string) (float64, bool) {
	if raw == nil {
		return 0, false
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return 0, false
	}
	v := d.InexactFloat64()
	if math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Observations extracts the parseable prices of one channel.
func Observations(printings []Printing, ch Channel) []float64 {
	out := make([]float64, 0, len(printings))
	for _, p := range printings {
		raw, ok := p.Prices[string(ch)]
		if !ok || raw == nil {
			continue
		}
		v, ok := ParseObservation(raw)
		if !ok {
			logger.Warn("pricing: skipping malformed %s price %q on printing %s (%s)", ch, *raw, p.ID, p.Set)
			continue
		}
		out = append(out, v)
	}
	return out
}

// AggregatePrintings prices every channel of a card from its printings.
func AggregatePrintings(printings []Printing) Summary {
	summary := make(Summary, len(Channels))
	for _, ch := range Channels {
		summary[ch] = Aggregate(Observations(printings, ch))
	}
	return summary
}
