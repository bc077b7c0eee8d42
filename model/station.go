package model

import (
	"fmt"
	"strconv"
	"strings"
)

// DSNStations is the allowlist of Deep Space Station numbers.
var DSNStations = []int{12, 14, 15, 24, 25, 26, 34, 35, 36, 42, 43, 45, 54, 55, 61, 63, 64, 65, 66}

var dsnStations = func() map[int]bool {
	m := make(map[int]bool, len(DSNStations))
	for _, s := range DSNStations {
		m[s] = true
	}
	return m
}()

// IsDSNStation reports whether n is an allowlisted station.
func IsDSNStation(n int) bool { return dsnStations[n] }

// IsHEFStation reports the 34 m high-efficiency antennas whose X-band
// reference synthesizer needs the extra correction.
func IsHEFStation(n int) bool { return n == 15 || n == 45 || n == 65 }

// SpacecraftLabel is the transmitter label of one-way links.
const SpacecraftLabel = "S/C"

// StationLabel formats a station as "DSS n".
func StationLabel(n int) string { return fmt.Sprintf("DSS %d", n) }

// ParseStationLabel is the inverse of StationLabel. The spacecraft label
// does not parse.
func ParseStationLabel(label string) (int, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(label), "DSS")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return n, true
}

// AllLinkKeys enumerates every allowlisted station against every pair of
// known bands.
func AllLinkKeys() []LinkKey {
	keys := make([]LinkKey, 0, len(DSNStations)*len(KnownBands)*len(KnownBands))
	for _, s := range DSNStations {
		for _, ul := range KnownBands {
			for _, dl := range KnownBands {
				keys = append(keys, LinkKey{Station: s, Uplink: ul, Downlink: dl})
			}
		}
	}
	return keys
}

// AllRampKeys enumerates every allowlisted station against every known band.
func AllRampKeys() []RampKey {
	keys := make([]RampKey, 0, len(DSNStations)*len(KnownBands))
	for _, s := range DSNStations {
		for _, b := range KnownBands {
			keys = append(keys, RampKey{Station: s, Band: b})
		}
	}
	return keys
}
