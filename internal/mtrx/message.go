// Package mtrx decodes the serial output of an MT-RX 406/121.5/243 MHz
// alerting receiver.
//
// Three message families share the stream and are told apart by prefix:
//
//	SS,X,NNN                                            received signal strength
//	MT1UUUNNNTFHHHHHHHHHHHHHHHSS112233N4445566WYYYY     decoded beacon (structured)
//	MT6UUUNNNRRRRRRRRRRRRRRRRRRRRRRRRRRRRRRRRRRRRYYYY   raw beacon frame
//
// Every family has a fixed width. Decoding never verifies checksums; use
// Checksum, Raw.ChecksumValid or StructuredChecksum for that.
package mtrx

import (
	"strconv"
	"strings"
)

// Message is one decoded line. It is implemented only by RSS, Structured,
// Raw and Unrecognized.
type Message interface {
	isMessage()
}

// Unrecognized is returned for lines that match no known family. It is not an error.
type Unrecognized struct{}

func (Unrecognized) isMessage() {}

// Classify routes a trimmed line to the decoder matching its prefix.
// Decoder errors are returned unchanged.
func Classify(line string) (Message, error) {
	var (
		msg Message
		err error
	)

	switch {
	case strings.HasPrefix(line, RSSPrefix):
		msg, err = ParseRSS(line)
	case strings.HasPrefix(line, StructuredHeader):
		msg, err = ParseStructured(line)
	case strings.HasPrefix(line, RawHeader):
		msg, err = ParseRaw(line)
	default:
		return Unrecognized{}, nil
	}

	if err != nil {
		return nil, err
	}
	return msg, nil
}

// Family returns the short family name of msg
func Family(msg Message) string {
	switch msg.(type) {
	case RSS:
		return "RSS"
	case Structured:
		return StructuredHeader
	case Raw:
		return RawHeader
	default:
		return "UNKNOWN"
	}
}

// parseSequence decodes the 3 digit cycling sequence number (documented as
// 000-511, not enforced)
func parseSequence(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, &NumberFormatError{Field: "sequence", Value: s, Err: err}
	}
	return uint16(v), nil
}
