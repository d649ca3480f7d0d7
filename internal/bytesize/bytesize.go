// Package bytesize parses and formats human-readable byte quantities such as
// "64Mi", "1GB" or "4096" for configuration values.
package bytesize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
)

// ByteSize is a size in bytes. It decodes from plain numbers or from a
// number with a unit suffix:
//   - binary units (x1024): Ki/KiB, Mi/MiB, Gi/GiB, Ti/TiB
//   - decimal units (x1000): K/KB, M/MB, G/GB, T/TB
//   - bytes: B
//
// Units are case-insensitive and fractional values ("1.5Gi") are accepted.
type ByteSize uint64

const (
	B  ByteSize = 1
	KB ByteSize = 1000
	MB ByteSize = 1000 * KB
	GB ByteSize = 1000 * MB
	TB ByteSize = 1000 * GB

	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
	GiB ByteSize = 1024 * MiB
	TiB ByteSize = 1024 * GiB
)

var sizePattern = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*([a-z]*)\s*$`)

var units = map[string]ByteSize{
	"": B, "b": B,
	"k": KB, "kb": KB,
	"m": MB, "mb": MB,
	"g": GB, "gb": GB,
	"t": TB, "tb": TB,
	"ki": KiB, "kib": KiB,
	"mi": MiB, "mib": MiB,
	"gi": GiB, "gib": GiB,
	"ti": TiB, "tib": TiB,
}

// formatUnits lists the units String tries, largest first.
var formatUnits = []struct {
	size   ByteSize
	suffix string
}{
	{TiB, "Ti"}, {GiB, "Gi"}, {MiB, "Mi"}, {KiB, "Ki"},
	{TB, "T"}, {GB, "G"}, {MB, "M"}, {KB, "K"},
}

// ParseByteSize parses a human-readable byte size.
func ParseByteSize(s string) (ByteSize, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid byte size format: %q", s)
	}

	multiplier, ok := units[strings.ToLower(m[2])]
	if !ok {
		return 0, fmt.Errorf("unknown byte size unit: %q", m[2])
	}

	if !strings.Contains(m[1], ".") {
		n, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number in byte size: %q", m[1])
		}
		if n > math.MaxUint64/uint64(multiplier) {
			return 0, fmt.Errorf("byte size overflows: %q", s)
		}
		return ByteSize(n) * multiplier, nil
	}

	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in byte size: %q", m[1])
	}
	total := f * float64(multiplier)
	if total >= math.MaxUint64 {
		return 0, fmt.Errorf("byte size overflows: %q", s)
	}
	return ByteSize(total), nil
}

// MustParse is ParseByteSize that panics on error. For constants and tests.
func MustParse(s string) ByteSize {
	b, err := ParseByteSize(s)
	if err != nil {
		panic(err)
	}
	return b
}

// UnmarshalText implements encoding.TextUnmarshaler so ByteSize can be
// decoded by mapstructure and yaml.
func (b *ByteSize) UnmarshalText(text []byte) error {
	size, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = size
	return nil
}

// MarshalText implements encoding.TextMarshaler. The output parses back to
// the same value.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// String returns the shortest exact representation: a whole number of the
// largest unit that divides b, or plain bytes.
func (b ByteSize) String() string {
	if b == 0 {
		return "0"
	}
	for _, u := range formatUnits {
		if b >= u.size && b%u.size == 0 {
			return strconv.FormatUint(uint64(b/u.size), 10) + u.suffix
		}
	}
	return strconv.FormatUint(uint64(b), 10)
}

// HumanString returns an approximate binary representation such as "1.50GiB".
func (b ByteSize) HumanString() string {
	switch {
	case b >= TiB:
		return fmt.Sprintf("%.2fTiB", float64(b)/float64(TiB))
	case b >= GiB:
		return fmt.Sprintf("%.2fGiB", float64(b)/float64(GiB))
	case b >= MiB:
		return fmt.Sprintf("%.2fMiB", float64(b)/float64(MiB))
	case b >= KiB:
		return fmt.Sprintf("%.2fKiB", float64(b)/float64(KiB))
	default:
		return fmt.Sprintf("%dB", uint64(b))
	}
}

// Uint64 returns the ByteSize as a uint64.
func (b ByteSize) Uint64() uint64 {
	return uint64(b)
}

// JSONSchema describes ByteSize in generated configuration schemas as either
// a byte count or a string with a unit suffix.
func (ByteSize) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "integer", Minimum: "0"},
			{Type: "string", Pattern: sizePattern.String()},
		},
		Description: `Size in bytes, e.g. 4096, "64Mi" or "1GB"`,
	}
}
