package apidatasetv1

import (
	"context"
	"strings"

	"github.com/fulldump/box"

	"github.com/fulldump/tickdb/container"
)

// InstrumentSeparator stands for '/' inside the instrument URL segment, so
// fx/EURUSD is written fx~EURUSD.
const InstrumentSeparator = "~"

func getAddress(ctx context.Context) (container.Address, error) {

	kind, err := container.ParseKind(box.GetUrlParameter(ctx, "kind"))
	if err != nil {
		return container.Address{}, err
	}

	timeframe, err := container.ParseTimeframe(box.GetUrlParameter(ctx, "timeframe"))
	if err != nil {
		return container.Address{}, err
	}

	address := container.Address{
		Instrument: strings.ReplaceAll(box.GetUrlParameter(ctx, "instrument"), InstrumentSeparator, "/"),
		Kind:       kind,
		Timeframe:  timeframe,
	}

	return address, address.Validate()
}
