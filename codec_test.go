package ltx

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Bilinen referans dosyayla eşleşen senaryo: tek segment, 4 piksel,
// kırmızı, 100 birim. Toplam boyut 16+16+19+300+6 = 357 byte.
func TestEncodeSingleSegmentReference(t *testing.T) {
	seq := &CompiledSequence{
		Pixels:      4,
		RefreshRate: 100,
		Segments: []CompiledSegment{
			{DurationUnits: 100, Color: RGB{R: 255}},
		},
	}

	buf, err := Encode(seq)
	require.NoError(t, err)
	require.Len(t, buf, 357)

	// İmza başlığı: magic, BÜYÜK-endian piksel sayısı, sabitler,
	// tazeleme hızı, "PI" işareti.
	wantSig := []byte{
		'P', 'R', 0x03, 'I', 'N', 0x05, 0x00, 0x00,
		0x00, 0x04, // piksel sayısı, büyük-endian
		0x00, 0x08,
		0x64, 0x00, // tazeleme hızı 100, little-endian
		'P', 'I',
	}
	assert.Equal(t, wantSig, buf[0:16], "imza başlığı")

	// Değişken başlık: tablo uzunluğu 2+19=21, 1 segment, mod sabiti,
	// türetilen alanlar (A=1, B=0), renk başlangıcı 21+32=53.
	wantVar := []byte{
		0x15, 0x00, 0x00, 0x00, // tablo uzunluğu = 21
		0x01, 0x00, // segment sayısı
		0x01, 0x00, // mod sabiti
		0x01, 0x00, // alan A = floor(100/100)
		0x00, 0x00, // alan B = kalan 0 (100 < 1000)
		0x35, 0x00, // renk başlangıcı = 53
		0x00, 0x00,
	}
	assert.Equal(t, wantVar, buf[16:32], "değişken başlık")

	// Terminal tanımlayıcı: eski giriş çifti (0, 299).
	wantDesc := []byte{
		0x04, 0x00, // piksel sayısı
		0x01, 0x00, // işaret
		0x64, 0x00, // süre = 100
		0x00, 0x00,
		0x00, 0x00, // eski giriş parça 1 = 300*(1-1)
		0x2b, 0x01, // eski giriş parça 2 = 300*1-1 = 299
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	assert.Equal(t, wantDesc, buf[32:51], "terminal tanımlayıcı")

	// Renk bloğu: 3 sıfır önek + tekrarlanan kırmızı üçlü.
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0xff, 0x00, 0x00}, buf[51:57], "renk bloğu başı")

	// Son bloğun son byte'ı bitiş işaretidir.
	assert.Equal(t, byte(colorTerminator), buf[350], "bitiş işareti")

	// Altbilgi.
	assert.Equal(t, []byte{'B', 'T', 0x00, 0x00, 0x00, 0x00}, buf[351:357], "altbilgi")
}

func TestEncodeDeterministic(t *testing.T) {
	seq := &CompiledSequence{
		Pixels: 2,
		Segments: []CompiledSegment{
			{DurationUnits: 600, Color: RGB{R: 255}},
			{DurationUnits: 300, Color: RGB{G: 255}},
			{DurationUnits: 300, Color: RGB{B: 255}},
		},
	}
	a, err := Encode(seq)
	require.NoError(t, err)
	b, err := Encode(seq)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b), "kodlama deterministik olmalı")
}

func TestEncodeLengthLaw(t *testing.T) {
	for n := 1; n <= 7; n++ {
		segments := make([]CompiledSegment, n)
		for i := range segments {
			segments[i] = CompiledSegment{DurationUnits: uint16(10 * (i + 1)), Color: RGB{R: byte(i)}}
		}
		buf, err := Encode(&CompiledSequence{Pixels: 4, Segments: segments})
		require.NoError(t, err)
		assert.Len(t, buf, 32+19*n+300*n+6, "%d segment", n)
		assert.Equal(t, byte(colorTerminator), buf[32+19*n+300*n-1], "%d segment bitiş işareti", n)
	}
}

func TestEncodeDescriptorChain(t *testing.T) {
	seq := &CompiledSequence{
		Pixels: 4,
		Segments: []CompiledSegment{
			{DurationUnits: 600, Color: RGB{R: 255}},
			{DurationUnits: 450, Color: RGB{B: 255}},
		},
	}
	buf, err := Encode(seq)
	require.NoError(t, err)

	// Terminal olmayan tanımlayıcı sonraki segmentin süresini ve renk
	// bloğu offset'ini taşır; offset'ler renk bölgesinin başına görelidir.
	first := buf[32:51]
	assert.Equal(t, uint16(600), binary.LittleEndian.Uint16(first[4:6]))
	assert.Equal(t, uint16(450), binary.LittleEndian.Uint16(first[8:10]), "sonraki segmentin süresi")
	assert.Equal(t, uint16(300), binary.LittleEndian.Uint16(first[10:12]), "sonraki bloğun offset'i")

	// Terminal tanımlayıcı eski giriş çiftini taşır.
	last := buf[51:70]
	assert.Equal(t, uint16(450), binary.LittleEndian.Uint16(last[4:6]))
	assert.Equal(t, uint16(300), binary.LittleEndian.Uint16(last[8:10]), "son bloğun offset'i")
	assert.Equal(t, uint16(599), binary.LittleEndian.Uint16(last[10:12]), "bitiş işaretinin offset'i")
}

func TestEncodeValidation(t *testing.T) {
	tests := []struct {
		name    string
		seq     *CompiledSequence
		wantErr error
	}{
		{
			name:    "sıfır piksel",
			seq:     &CompiledSequence{Pixels: 0, Segments: []CompiledSegment{{DurationUnits: 1}}},
			wantErr: ErrInvalidPixelCount,
		},
		{
			name:    "beş piksel",
			seq:     &CompiledSequence{Pixels: 5, Segments: []CompiledSegment{{DurationUnits: 1}}},
			wantErr: ErrInvalidPixelCount,
		},
		{
			name:    "boş segment listesi",
			seq:     &CompiledSequence{Pixels: 4},
			wantErr: ErrEmptySequence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := Encode(tt.seq)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, buf, "hata durumunda kısmi çıktı olmamalı")
		})
	}
}

// Üretilen buffer geri okunduğunda segment sürelerinin toplamı bildirilen
// toplam süreye eşit olmalıdır.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	sf := &SequenceFile{
		Pixels:      3,
		RefreshRate: 100,
		EndTime:     200000,
		Sequence: map[string]SequenceEntry{
			"0":     {Color: [3]uint8{255, 0, 0}},
			"70000": {Color: [3]uint8{0, 255, 0}},
		},
	}

	seq, err := sf.Compile()
	require.NoError(t, err)

	buf, err := Encode(seq)
	require.NoError(t, err)

	info, err := DecodePrg(buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), info.Pixels)
	assert.Equal(t, uint16(100), info.RefreshRate)
	assert.Equal(t, len(seq.Segments), info.SegmentCount)
	assert.Equal(t, uint64(200000), info.TotalDuration(), "toplam süre korunmalı")

	// Renkler blok öneklerinden geri okunur.
	assert.Equal(t, RGB{R: 255}, info.Segments[0].Color)
	assert.Equal(t, RGB{G: 255}, info.Segments[len(info.Segments)-1].Color)
}

func TestDecodePrgRejectsGarbage(t *testing.T) {
	_, err := DecodePrg([]byte("bu bir prg degil"))
	require.Error(t, err)

	// Geçerli bir dosyanın magic'i bozulursa reddedilir.
	buf, err := Encode(&CompiledSequence{
		Pixels:   1,
		Segments: []CompiledSegment{{DurationUnits: 50}},
	})
	require.NoError(t, err)
	buf[0] = 'X'
	_, err = DecodePrg(buf)
	require.Error(t, err)
}

func TestEncodeSequenceFile(t *testing.T) {
	sf := &SequenceFile{
		Pixels:  4,
		EndTime: 100,
		Sequence: map[string]SequenceEntry{
			"0": {Color: [3]uint8{255, 0, 0}, Pixels: 4},
		},
	}
	buf, err := EncodeSequenceFile(sf)
	require.NoError(t, err)
	assert.Len(t, buf, 357)
}
