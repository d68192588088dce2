package mtrx

import "strconv"

// MT1 serial out packet layout
const (
	StructuredHeader = "MT1"
	StructuredLength = 47

	// StructuredChecksumSpan is the number of leading bytes covered by the
	// MT1 checksum, starting at the 'M' of the header.
	StructuredChecksumSpan = 43
)

// MessageType is the MT1 test/alert discriminator
type MessageType int

const (
	MessageUnknown MessageType = iota
	MessageTest
	MessageAlert
)

func (t MessageType) String() string {
	switch t {
	case MessageTest:
		return "TEST"
	case MessageAlert:
		return "ALERT"
	default:
		return "UNKNOWN"
	}
}

func messageTypeFromByte(c byte) MessageType {
	switch c {
	case 'T':
		return MessageTest
	case 'A':
		return MessageAlert
	default:
		return MessageUnknown
	}
}

// Direction is a cardinal direction attached to a latitude or longitude
type Direction int

const (
	DirectionUnknown Direction = iota
	North
	South
	West
	East
)

func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case South:
		return "S"
	case West:
		return "W"
	case East:
		return "E"
	default:
		return "?"
	}
}

// DirectionFromByte maps N/S/E/W; anything else is DirectionUnknown
func DirectionFromByte(c byte) Direction {
	switch c {
	case 'N':
		return North
	case 'S':
		return South
	case 'W':
		return West
	case 'E':
		return East
	default:
		return DirectionUnknown
	}
}

// Coordinate is a latitude or longitude in degrees, minutes and seconds.
// A nil subfield means the receiver had no value for it (dash sentinel).
type Coordinate struct {
	Degrees   *uint16
	Minutes   *uint8
	Seconds   *uint8
	Direction Direction
}

// Present reports whether degrees, minutes and seconds are all available
func (c Coordinate) Present() bool {
	return c.Degrees != nil && c.Minutes != nil && c.Seconds != nil
}

// Decimal converts the coordinate to signed decimal degrees. South and West
// are negative. ok is false unless every subfield is present.
func (c Coordinate) Decimal() (value float64, ok bool) {
	if !c.Present() {
		return 0, false
	}

	value = float64(*c.Degrees) + float64(*c.Minutes)/60 + float64(*c.Seconds)/3600
	if c.Direction == South || c.Direction == West {
		value = -value
	}
	return value, true
}

// Structured is an MT1 packet: a decoded 406 MHz beacon alert or test.
type Structured struct {
	Header         string
	UnitID         string
	Sequence       uint16
	Type           MessageType
	FormatFlag     byte // 'S' or 'L', stored verbatim
	Beacon         string
	SignalStrength string
	Latitude       Coordinate
	Longitude      Coordinate

	// Checksum is 0 when the transmitted field is not valid hex, which is
	// the case when no location is available.
	Checksum uint16
}

func (Structured) isMessage() {}

// ParseStructured decodes a 47 character MT1 packet.
//
// Length and sequence number are strict. Location subfields and the checksum
// are lenient: an unparsable subfield is left nil and an unparsable checksum
// becomes 0, without failing the packet.
func ParseStructured(line string) (Structured, error) {
	// 012 345 678 9 0 123456789012345 67 89 01 23 4 567 89 01 2 3456
	// MT1 UUU NNN T F HHHHHHHHHHHHHHH SS 11 22 33 N 444 55 66 W YYYY
	if err := checkSize(line, StructuredLength); err != nil {
		return Structured{}, err
	}

	seq, err := parseSequence(line[6:9])
	if err != nil {
		return Structured{}, err
	}

	msg := Structured{
		Header:         line[0:3],
		UnitID:         line[3:6],
		Sequence:       seq,
		Type:           messageTypeFromByte(line[9]),
		FormatFlag:     line[10],
		Beacon:         line[11:26],
		SignalStrength: line[26:28],
		Latitude: Coordinate{
			Degrees:   optionalUint16(line[28:30]),
			Minutes:   optionalUint8(line[30:32]),
			Seconds:   optionalUint8(line[32:34]),
			Direction: DirectionFromByte(line[34]),
		},
		Longitude: Coordinate{
			Degrees:   optionalUint16(line[35:38]),
			Minutes:   optionalUint8(line[38:40]),
			Seconds:   optionalUint8(line[40:42]),
			Direction: DirectionFromByte(line[42]),
		},
	}

	if sum, err := strconv.ParseUint(line[43:47], 16, 16); err == nil {
		msg.Checksum = uint16(sum)
	}

	return msg, nil
}

// StructuredChecksum computes the checksum an MT1 line should carry: the
// rolling checksum over its first StructuredChecksumSpan bytes.
func StructuredChecksum(line string) (uint16, error) {
	if err := checkSize(line, StructuredLength); err != nil {
		return 0, err
	}
	return Checksum([]byte(line[:StructuredChecksumSpan])), nil
}

// Degrees are 16 bit wide so the three digit longitude fits.
func optionalUint16(s string) *uint16 {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return nil
	}
	n := uint16(v)
	return &n
}

func optionalUint8(s string) *uint8 {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return nil
	}
	n := uint8(v)
	return &n
}
