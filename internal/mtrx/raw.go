package mtrx

import "strconv"

// MT6 raw data packet layout (firmware v1.88 and later)
const (
	RawHeader        = "MT6"
	RawLength        = 49
	RawPayloadLength = 36
)

// Raw is an MT6 packet carrying the received 406 MHz frame as hex text.
type Raw struct {
	Header   string
	UnitID   string
	Sequence uint16
	Payload  [RawPayloadLength]byte
	Checksum uint16
}

func (Raw) isMessage() {}

// ChecksumValid reports whether the transmitted checksum matches the payload.
// Decoding never performs this comparison.
func (r Raw) ChecksumValid() bool {
	return Checksum(r.Payload[:]) == r.Checksum
}

// ParseRaw decodes a 49 character MT6 packet. The payload is copied verbatim
// and the trailing checksum must be valid hex.
func ParseRaw(line string) (Raw, error) {
	// 012 345 678 9..44                                 5678
	// MT6 UUU NNN RRRRRRRRRRRRRRRRRRRRRRRRRRRRRRRRRRRR YYYY
	if err := checkSize(line, RawLength); err != nil {
		return Raw{}, err
	}

	seq, err := parseSequence(line[6:9])
	if err != nil {
		return Raw{}, err
	}

	msg := Raw{
		Header:   line[0:3],
		UnitID:   line[3:6],
		Sequence: seq,
	}
	copy(msg.Payload[:], line[9:45])

	sum, err := strconv.ParseUint(line[45:49], 16, 16)
	if err != nil {
		return Raw{}, &NumberFormatError{Field: "checksum", Value: line[45:49], Err: err}
	}
	msg.Checksum = uint16(sum)

	return msg, nil
}
