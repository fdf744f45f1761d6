// Package decode provides thin, stateless payload accessors over already
// framed byte slices. It is an external collaborator to package framer, not
// part of the dispatcher's hot path: spec.md's Non-goals exclude payload
// semantic decoding, so these functions stop at header fields and known
// catalogs, the way gnssgo's own solution.go/ublox.go/rtcm3.go/novatel.go
// stop well short of full ephemeris or positioning math for the fields they
// expose.
package decode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strconv"
	"strings"
)

// NMEAFields splits a complete NMEA sentence (as returned by a framer
// Session's FrameBytes for an accepted NMEA frame) into its talker ID,
// sentence kind, and comma-delimited fields. Grounded on gnssgo's
// solution.go TestNmea, which locates fields the same way: by splitting on
// ',' between the lead-in character and the trailing '*'.
func NMEAFields(sentence []byte) (talker, kind string, fields []string) {
	body := sentence
	if len(body) > 0 && (body[0] == '$' || body[0] == '!') {
		body = body[1:]
	}
	if i := bytes.IndexByte(body, '*'); i >= 0 {
		body = body[:i]
	}
	body = bytes.TrimRight(body, "\r\n")
	parts := strings.Split(string(body), ",")
	if len(parts) == 0 || len(parts[0]) < 5 {
		return "", "", parts
	}
	return parts[0][:2], parts[0][2:], parts[1:]
}

// GGAFix holds the fields DecodeNmea's GGA branch in gnssgo's solution.go
// extracts from a GGA sentence.
type GGAFix struct {
	UTC          string
	Latitude     float64
	Longitude    float64
	FixQuality   int
	NumSatellite int
	HDOP         float64
}

// GGA decodes a $--GGA sentence's position-fix fields. Grounded on gnssgo's
// solution.go DecodeNmea GGA branch.
func GGA(sentence []byte) (GGAFix, error) {
	talker, kind, fields := NMEAFields(sentence)
	if talker == "" || kind != "GGA" {
		return GGAFix{}, errors.New("decode: not a GGA sentence")
	}
	if len(fields) < 9 {
		return GGAFix{}, errors.New("decode: GGA sentence has too few fields")
	}
	lat, err := nmeaCoordinate(fields[1], fields[2])
	if err != nil {
		return GGAFix{}, err
	}
	lon, err := nmeaCoordinate(fields[3], fields[4])
	if err != nil {
		return GGAFix{}, err
	}
	quality, _ := strconv.Atoi(fields[5])
	numSat, _ := strconv.Atoi(fields[6])
	hdop, _ := strconv.ParseFloat(fields[7], 64)
	return GGAFix{
		UTC:          fields[0],
		Latitude:     lat,
		Longitude:    lon,
		FixQuality:   quality,
		NumSatellite: numSat,
		HDOP:         hdop,
	}, nil
}

func nmeaCoordinate(value, hemisphere string) (float64, error) {
	if value == "" {
		return 0, errors.New("decode: empty coordinate field")
	}
	dotAt := strings.IndexByte(value, '.')
	if dotAt < 2 {
		return 0, errors.New("decode: malformed coordinate field")
	}
	degDigits := dotAt - 2
	deg, err := strconv.Atoi(value[:degDigits])
	if err != nil {
		return 0, err
	}
	min, err := strconv.ParseFloat(value[degDigits:], 64)
	if err != nil {
		return 0, err
	}
	coord := float64(deg) + min/60
	if hemisphere == "S" || hemisphere == "W" {
		coord = -coord
	}
	return coord, nil
}

// ubxClassNames mirrors the subset of gnssgo's ublox.go ID_* constants
// relevant to diagnostics: NAV, RXM, ACK, CFG, MON and TIM classes.
var ubxClassNames = map[uint8]string{
	0x01: "NAV",
	0x02: "RXM",
	0x05: "ACK",
	0x06: "CFG",
	0x0A: "MON",
	0x0D: "TIM",
}

// UBXClassID returns a human-readable "CLASS-0xID" name for a UBX
// (class, id) pair, falling back to numeric form for unrecognized classes.
// Grounded on gnssgo's ublox.go class/ID table.
func UBXClassID(class, id uint8) string {
	name, ok := ubxClassNames[class]
	if !ok {
		name = "0x" + strconv.FormatUint(uint64(class), 16)
	}
	return name + "-0x" + strconv.FormatUint(uint64(id), 16)
}

// rtcm3MessageNames is a small excerpt of gnssgo's rtcm3.go message-number
// comment table, enough to label the common observation/ephemeris types a
// diagnostic harness is likely to see.
var rtcm3MessageNames = map[uint16]string{
	1001: "L1-only GPS RTK observables",
	1002: "Extended L1-only GPS RTK observables",
	1003: "L1&L2 GPS RTK observables",
	1004: "Extended L1&L2 GPS RTK observables",
	1005: "Stationary RTK reference station ARP",
	1006: "Stationary RTK reference station ARP with antenna height",
	1019: "GPS ephemeris",
	1020: "GLONASS ephemeris",
	1077: "GPS MSM7",
	1087: "GLONASS MSM7",
	1097: "Galileo MSM7",
	1127: "BeiDou MSM7",
}

// RTCM3MessageName returns a catalog name for a known RTCM3 message number,
// or "unknown" otherwise.
func RTCM3MessageName(number uint16) string {
	if name, ok := rtcm3MessageNames[number]; ok {
		return name
	}
	return "unknown"
}

// UnicoreHeader is the subset of a Unicore binary header's fields a
// diagnostic caller typically wants. Field offsets follow the BT/SEMP
// header layout spec.md §4.2 gives (sync | header_len | message_id | _ | _
// (time) | message_length | _ | sender | message_type | protocol |
// msg_interval), extended per spec.md §4.6 with cpu_idle, time_status,
// week_number and seconds_of_week filling the 8 remaining bytes of the
// 28-byte Unicore-bin header.
type UnicoreHeader struct {
	MessageID     uint16
	MessageLength uint16
	Sender        uint8
	MessageType   uint8
	Protocol      uint8
	CPUIdle       uint8
	TimeStatus    uint8
	WeekNumber    uint16
	SecondsOfWeek uint32
}

// UnicoreBinHeader decodes a 28-byte Unicore binary header, as returned by a
// framer Session's UnicoreBinHeader accessor for an accepted frame.
func UnicoreBinHeader(header []byte) (UnicoreHeader, error) {
	if len(header) < 28 {
		return UnicoreHeader{}, errors.New("decode: header shorter than 28 bytes")
	}
	return UnicoreHeader{
		MessageID:     binary.LittleEndian.Uint16(header[4:6]),
		MessageLength: binary.LittleEndian.Uint16(header[12:14]),
		Sender:        header[16],
		MessageType:   header[17],
		Protocol:      header[18],
		CPUIdle:       header[20],
		TimeStatus:    header[21],
		WeekNumber:    binary.LittleEndian.Uint16(header[22:24]),
		SecondsOfWeek: binary.LittleEndian.Uint32(header[24:28]),
	}, nil
}
