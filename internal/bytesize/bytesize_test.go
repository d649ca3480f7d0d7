package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ByteSize
		wantErr bool
	}{
		{"zero", "0", 0, false},
		{"plain bytes", "4096", 4096, false},
		{"bytes suffix", "512B", 512, false},

		{"kibibytes", "4Ki", 4 * KiB, false},
		{"mebibytes long form", "64MiB", 64 * MiB, false},
		{"gibibytes", "2Gi", 2 * GiB, false},
		{"tebibytes", "1TiB", TiB, false},

		{"kilobytes", "3K", 3 * KB, false},
		{"megabytes", "10MB", 10 * MB, false},
		{"gigabytes", "1G", GB, false},

		{"case insensitive", "64mi", 64 * MiB, false},
		{"surrounding whitespace", "  1 Gi  ", GiB, false},
		{"fraction", "1.5Mi", MiB + 512*KiB, false},

		{"empty", "", 0, true},
		{"blank", "   ", 0, true},
		{"negative", "-1Mi", 0, true},
		{"unknown unit", "10PB", 0, true},
		{"garbage", "lots", 0, true},
		{"overflow", "99999999999Ti", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseByteSize(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestByteSize_String(t *testing.T) {
	tests := []struct {
		in   ByteSize
		want string
	}{
		{0, "0"},
		{1, "1"},
		{1023, "1023"},
		{KiB, "1Ki"},
		{64 * MiB, "64Mi"},
		{3 * GiB, "3Gi"},
		{MiB + 1, "1048577"},
		{5 * KB, "5K"},
		{2 * GB, "2G"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.String())

			back, err := ParseByteSize(tt.in.String())
			require.NoError(t, err)
			assert.Equal(t, tt.in, back)
		})
	}
}

func TestByteSize_HumanString(t *testing.T) {
	assert.Equal(t, "512B", ByteSize(512).HumanString())
	assert.Equal(t, "1.50KiB", (KiB + 512).HumanString())
	assert.Equal(t, "64.00MiB", (64 * MiB).HumanString())
	assert.Equal(t, "2.00TiB", (2 * TiB).HumanString())
}

func TestByteSize_YAML(t *testing.T) {
	type doc struct {
		Capacity ByteSize `yaml:"capacity"`
	}

	var d doc
	require.NoError(t, yaml.Unmarshal([]byte("capacity: 256Mi\n"), &d))
	assert.Equal(t, 256*MiB, d.Capacity)

	out, err := yaml.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, "capacity: 256Mi\n", string(out))

	assert.Error(t, yaml.Unmarshal([]byte("capacity: huge\n"), &d))
}

func TestMustParse(t *testing.T) {
	assert.Equal(t, 8*KiB, MustParse("8Ki"))
	assert.Panics(t, func() { MustParse("eight") })
}

func TestByteSize_JSONSchema(t *testing.T) {
	s := ByteSize(0).JSONSchema()
	require.Len(t, s.OneOf, 2)
	assert.Equal(t, "integer", s.OneOf[0].Type)
	assert.Equal(t, "string", s.OneOf[1].Type)
}
