package container

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

type Kind uint16

const (
	KindBars   Kind = 1 // price-only OHLCV
	KindQuotes Kind = 2
	KindTrades Kind = 3
)

var kindNames = map[Kind]string{
	KindBars:   "bars",
	KindQuotes: "quotes",
	KindTrades: "trades",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint16(k))
}

func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kind '%s'", ErrInvalidAddress, s)
}

type Timeframe string

const (
	TimeframeTick Timeframe = "tick"
	Timeframe1s   Timeframe = "1s"
	Timeframe1m   Timeframe = "1m"
	Timeframe5m   Timeframe = "5m"
	Timeframe15m  Timeframe = "15m"
	Timeframe1h   Timeframe = "1h"
	Timeframe4h   Timeframe = "4h"
	Timeframe1d   Timeframe = "1d"
)

var timeframes = []Timeframe{
	TimeframeTick,
	Timeframe1s,
	Timeframe1m,
	Timeframe5m,
	Timeframe15m,
	Timeframe1h,
	Timeframe4h,
	Timeframe1d,
}

func ParseTimeframe(s string) (Timeframe, error) {
	for _, tf := range timeframes {
		if string(tf) == s {
			return tf, nil
		}
	}
	return "", fmt.Errorf("%w: unknown timeframe '%s'", ErrInvalidAddress, s)
}

var segmentRegexp = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Address selects one dataset inside a File:
// <instrument path>/<kind>/<timeframe>.tick
type Address struct {
	Instrument string
	Kind       Kind
	Timeframe  Timeframe
}

const extension = ".tick"

func (a Address) Validate() error {
	if a.Instrument == "" {
		return fmt.Errorf("%w: empty instrument", ErrInvalidAddress)
	}
	for _, segment := range strings.Split(a.Instrument, "/") {
		if segment == "." || segment == ".." || !segmentRegexp.MatchString(segment) {
			return fmt.Errorf("%w: bad instrument segment '%s'", ErrInvalidAddress, segment)
		}
	}
	if _, ok := kindNames[a.Kind]; !ok {
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidAddress, a.Kind)
	}
	if _, err := ParseTimeframe(string(a.Timeframe)); err != nil {
		return err
	}
	return nil
}

// Path is the slash separated location of the dataset relative to the File
// directory.
func (a Address) Path() string {
	return path.Join(a.Instrument, a.Kind.String(), string(a.Timeframe)+extension)
}

func (a Address) String() string {
	return a.Instrument + "/" + a.Kind.String() + "/" + string(a.Timeframe)
}

func (a Address) Less(b Address) bool {
	if a.Instrument != b.Instrument {
		return a.Instrument < b.Instrument
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.Timeframe < b.Timeframe
}

// ParsePath is the inverse of Address.Path.
func ParsePath(p string) (Address, error) {
	if !strings.HasSuffix(p, extension) {
		return Address{}, fmt.Errorf("%w: '%s' is not a dataset", ErrInvalidAddress, p)
	}

	parts := strings.Split(strings.TrimSuffix(p, extension), "/")
	if len(parts) < 3 {
		return Address{}, fmt.Errorf("%w: '%s' is too short", ErrInvalidAddress, p)
	}

	kind, err := ParseKind(parts[len(parts)-2])
	if err != nil {
		return Address{}, err
	}

	a := Address{
		Instrument: strings.Join(parts[:len(parts)-2], "/"),
		Kind:       kind,
		Timeframe:  Timeframe(parts[len(parts)-1]),
	}

	return a, a.Validate()
}
