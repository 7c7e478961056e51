package yahoo

import (
	"fmt"
	"math"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"

	"benchmark-server/src/models"
)

// -----------------------------------------------------------------------------
// Streamer payload decoding
//
// The streamer delivers base64-encoded protobuf PricingData messages. The
// fields below follow the streamer's published field numbering; protowire
// decodes them directly so no generated stubs are needed.
// -----------------------------------------------------------------------------

const (
	fieldID            = 1  // string
	fieldPrice         = 2  // float
	fieldTime          = 3  // sint64, epoch millis
	fieldMarketHours   = 7  // enum
	fieldChangePercent = 8  // float
	fieldDayVolume     = 9  // sint64
	fieldDayHigh       = 10 // float
	fieldDayLow        = 11 // float
	fieldChange        = 12 // float
	fieldOpenPrice     = 15 // float
	fieldPreviousClose = 16 // float
	fieldBid           = 23 // float
	fieldAsk           = 25 // float
)

// -----------------------------------------------------------------------------

var marketHoursNames = map[uint64]string{
	0: models.MarketHoursPre,
	1: models.MarketHoursRegular,
	2: models.MarketHoursPost,
	3: models.MarketHoursExtended,
}

// -----------------------------------------------------------------------------

// DecodePricingData decodes one raw PricingData message into an MTick.
// Unknown fields are skipped. ReceivedAt and Raw are left for the caller.
func DecodePricingData(data []byte) (models.MTick, error) {
	var tick models.MTick

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return tick, fmt.Errorf("malformed tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return tick, fmt.Errorf("malformed varint: %w", protowire.ParseError(n))
			}
			data = data[n:]

			switch num {
			case fieldMarketHours:
				if name, ok := marketHoursNames[v]; ok {
					tick.MarketHours = name
				}
			case fieldDayVolume:
				tick.Volume = protowire.DecodeZigZag(v)
			}

		case protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return tick, fmt.Errorf("malformed fixed32: %w", protowire.ParseError(n))
			}
			data = data[n:]

			f := float64(math.Float32frombits(v))
			switch num {
			case fieldPrice:
				tick.Price = f
			case fieldChangePercent:
				tick.ChangePercent = f
			case fieldDayHigh:
				tick.DayHigh = f
			case fieldDayLow:
				tick.DayLow = f
			case fieldChange:
				tick.Change = f
			case fieldOpenPrice:
				tick.Open = f
			case fieldPreviousClose:
				tick.PreviousClose = f
			case fieldBid:
				tick.Bid = f
			case fieldAsk:
				tick.Ask = f
			}

		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return tick, fmt.Errorf("malformed bytes: %w", protowire.ParseError(n))
			}
			data = data[n:]

			if num == fieldID {
				tick.Symbol = strings.ToUpper(string(v))
			}

		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return tick, fmt.Errorf("malformed field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}

	if tick.Symbol == "" {
		return tick, fmt.Errorf("pricing message without symbol")
	}

	return tick, nil
}
