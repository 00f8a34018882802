package ltx

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSegments(t *testing.T) {
	tests := []struct {
		name    string
		samples []ColorSample
		endTime uint32
		want    []uint32
		wantErr error
	}{
		{
			name:    "boş girdi",
			samples: nil,
			endTime: 100,
			wantErr: ErrEmptySequence,
		},
		{
			name: "tek örnek",
			samples: []ColorSample{
				{TimeUnits: 0, Color: RGB{R: 255}, Pixels: 4},
			},
			endTime: 100,
			want:    []uint32{100},
		},
		{
			name: "ardışık farklar",
			samples: []ColorSample{
				{TimeUnits: 0},
				{TimeUnits: 250},
				{TimeUnits: 900},
			},
			endTime: 1200,
			want:    []uint32{250, 650, 300},
		},
		{
			name: "artmayan zaman",
			samples: []ColorSample{
				{TimeUnits: 100},
				{TimeUnits: 100},
			},
			endTime: 200,
			wantErr: ErrNonMonotonicTime,
		},
		{
			name: "bitiş zamanı son örnekten önce",
			samples: []ColorSample{
				{TimeUnits: 0},
				{TimeUnits: 500},
			},
			endTime: 400,
			wantErr: ErrNonMonotonicTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildSegments(tt.samples, tt.endTime)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i, d := range tt.want {
				assert.Equal(t, d, got[i].DurationUnits, "segment %d", i)
			}
		})
	}
}

func TestBuildSegmentsCarriesColor(t *testing.T) {
	samples := []ColorSample{
		{TimeUnits: 0, Color: RGB{R: 255}, Pixels: 4},
		{TimeUnits: 50, Color: RGB{B: 255}, Pixels: 4},
	}
	segs, err := BuildSegments(samples, 150)
	require.NoError(t, err)
	assert.Equal(t, RGB{R: 255}, segs[0].Color)
	assert.Equal(t, RGB{B: 255}, segs[1].Color)
	assert.Equal(t, uint8(4), segs[0].Pixels)
}

func TestSplitSegments(t *testing.T) {
	tests := []struct {
		name     string
		duration uint32
		want     []uint16
	}{
		{name: "limitin altında", duration: 100, want: []uint16{100}},
		{name: "tam limit", duration: 65535, want: []uint16{65535}},
		{name: "limit + 1", duration: 65536, want: []uint16{65535, 1}},
		{name: "200000 birim", duration: 200000, want: []uint16{65535, 65535, 65535, 3395}},
		{name: "tam katı", duration: 131070, want: []uint16{65535, 65535}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := SplitSegments([]Segment{{DurationUnits: tt.duration, Color: RGB{G: 128}, Pixels: 2}})
			require.Len(t, out, len(tt.want))
			var sum uint64
			for i, piece := range out {
				assert.Equal(t, tt.want[i], piece.DurationUnits, "parça %d", i)
				assert.Equal(t, RGB{G: 128}, piece.Color, "parça %d rengi", i)
				assert.Equal(t, uint8(2), piece.Pixels, "parça %d piksel sayısı", i)
				sum += uint64(piece.DurationUnits)
			}
			assert.Equal(t, uint64(tt.duration), sum, "süre toplamı korunmalı")
		})
	}
}

// Bölme işleminin iki değişmezi, rastgele sürelerle sınanır: parçaların
// toplamı girdiye eşittir ve hiçbir parça 16-bit limiti aşmaz.
func TestSplitSegmentsProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		d := uint32(rng.Int63n(1<<22)) + 1
		out := SplitSegments([]Segment{{DurationUnits: d}})
		var sum uint64
		for _, piece := range out {
			require.LessOrEqual(t, piece.DurationUnits, uint16(MaxSegmentDuration))
			require.Positive(t, piece.DurationUnits)
			sum += uint64(piece.DurationUnits)
		}
		require.Equal(t, uint64(d), sum, "süre %d", d)
	}
}

func TestDeriveHeaderFields(t *testing.T) {
	tests := []struct {
		name     string
		duration uint32
		wantA    uint16
		wantB    uint16
	}{
		{name: "tam bölünen ama < 1000, kalan sıfır", duration: 100, wantA: 1, wantB: 0},
		{name: "kalanlı", duration: 157, wantA: 1, wantB: 57},
		{name: "100'den küçük", duration: 57, wantA: 0, wantB: 57},
		{name: "tam bölünen ve >= 1000", duration: 1000, wantA: 10, wantB: 1000},
		{name: "tam bölünen ama < 1000", duration: 900, wantA: 9, wantB: 0},
		{name: "büyük kalanlı", duration: 12345, wantA: 123, wantB: 45},
		{name: "16 bite kırpma", duration: 70000, wantA: 700, wantB: 4464},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := deriveHeaderFields(tt.duration)
			assert.Equal(t, tt.wantA, a)
			assert.Equal(t, tt.wantB, b)
		})
	}
}

func TestParseSequenceAndCompile(t *testing.T) {
	data := []byte(`{
		"pixels": 4,
		"refresh_rate": 100,
		"end_time": 1200,
		"sequence": {
			"600": {"color": [0, 0, 255], "pixels": 4},
			"0":   {"color": [255, 0, 0], "pixels": 4}
		}
	}`)

	sf, err := ParseSequence(data)
	require.NoError(t, err)

	samples, err := sf.Samples()
	require.NoError(t, err)
	require.Len(t, samples, 2)
	// Anahtar sırası ne olursa olsun örnekler zamana göre sıralanır.
	assert.Equal(t, uint32(0), samples[0].TimeUnits)
	assert.Equal(t, uint32(600), samples[1].TimeUnits)

	seq, err := sf.Compile()
	require.NoError(t, err)
	assert.Equal(t, uint8(4), seq.Pixels)
	assert.Equal(t, uint16(100), seq.RefreshRate)
	require.Len(t, seq.Segments, 2)
	assert.Equal(t, uint16(600), seq.Segments[0].DurationUnits)
	assert.Equal(t, uint16(600), seq.Segments[1].DurationUnits)
	assert.Equal(t, uint8(4), seq.Segments[0].Pixels, "piksel sayısı bölme sonrası korunmalı")
	assert.Equal(t, uint8(4), seq.Segments[1].Pixels, "piksel sayısı bölme sonrası korunmalı")
	assert.Equal(t, uint64(1200), seq.TotalDuration())
}

func TestParseSequenceBadKey(t *testing.T) {
	sf, err := ParseSequence([]byte(`{"pixels":1,"end_time":10,"sequence":{"abc":{"color":[1,2,3]}}}`))
	require.NoError(t, err)
	_, err = sf.Samples()
	require.Error(t, err)
}

func TestSequenceEntryPixelsDefault(t *testing.T) {
	sf := &SequenceFile{
		Pixels:  2,
		EndTime: 10,
		Sequence: map[string]SequenceEntry{
			"0": {Color: [3]uint8{1, 2, 3}},
		},
	}
	samples, err := sf.Samples()
	require.NoError(t, err)
	assert.Equal(t, uint8(2), samples[0].Pixels, "girdide pixels yoksa dosya geneli kullanılmalı")
}
