package mtrx

import "strconv"

// RSS message layout: SS,X,NNN
const (
	RSSPrefix = "SS,"
	RSSLength = 8
)

// RSSKind distinguishes the two received signal strength reports
type RSSKind int

const (
	RSSFrequency RSSKind = iota // SS,1,NNN periodic frequency sample
	RSSAlert                    // SS,A,NNN sample above the squelch level
)

func (k RSSKind) String() string {
	switch k {
	case RSSFrequency:
		return "FREQUENCY"
	case RSSAlert:
		return "ALERT"
	default:
		return "UNKNOWN"
	}
}

// RSS is a received signal strength report.
//
// Level is not calibrated; the receiver documents it as roughly -130 + Level/2 dBm.
type RSS struct {
	Kind  RSSKind
	Level uint8
}

func (RSS) isMessage() {}

// ParseRSS decodes an 8 character "SS,X,NNN" report
func ParseRSS(line string) (RSS, error) {
	// 01 2 3 4 567
	// SS , X , NNN
	if err := checkSize(line, RSSLength); err != nil {
		return RSS{}, err
	}

	raw := line[5:8]
	level, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return RSS{}, &NumberFormatError{Field: "level", Value: raw, Err: err}
	}

	switch line[3] {
	case 'A':
		return RSS{Kind: RSSAlert, Level: uint8(level)}, nil
	case '1':
		return RSS{Kind: RSSFrequency, Level: uint8(level)}, nil
	default:
		return RSS{}, ErrInvalid
	}
}
