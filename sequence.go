package ltx

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// ─── Dizi Şeması ────────────────────────────────────────────────────────────────
//
// Araç zincirinin tamamı aynı JSON dizi şemasını kullanır:
//
//	{
//	  "pixels": 4,
//	  "refresh_rate": 100,
//	  "end_time": 1200,
//	  "sequence": {
//	    "0":   {"color": [255, 0, 0], "pixels": 4},
//	    "600": {"color": [0, 0, 255], "pixels": 4}
//	  }
//	}
//
// Anahtarlar zaman birimi (tick) değerleridir; tazeleme hızına göre
// yorumlanır (100 Hz'de 1 birim = 10 ms). Şema üreticileri (zaman çizelgesi
// editörü, jeneratörler) bu kütüphanenin dışındadır; burada yalnızca şema
// okunur ve derlenir.

// SequenceFile, JSON dizi şemasının bire bir karşılığıdır.
type SequenceFile struct {
	// Pixels, topun piksel sayısıdır (1-4).
	Pixels uint8 `json:"pixels"`

	// RefreshRate, saniyedeki zaman birimi sayısıdır.
	RefreshRate uint16 `json:"refresh_rate"`

	// EndTime, programın bildirilen toplam süresidir (zaman birimi).
	// Son segmentin süresi bu değerden türetilir.
	EndTime uint32 `json:"end_time"`

	// Sequence, zaman birimi → renk eşlemesidir. Anahtarlar ondalık
	// tamsayı dizgileridir.
	Sequence map[string]SequenceEntry `json:"sequence"`
}

// SequenceEntry, şemadaki tek bir renk değişimidir.
type SequenceEntry struct {
	Color  [3]uint8 `json:"color"`
	Pixels uint8    `json:"pixels"`
}

// ParseSequence, JSON dizi şemasını ayrıştırır.
func ParseSequence(data []byte) (*SequenceFile, error) {
	var sf SequenceFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("dizi şeması ayrıştırılamadı: %w", err)
	}
	return &sf, nil
}

// LoadSequence, JSON dizi dosyasını okuyup ayrıştırır.
func LoadSequence(path string) (*SequenceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dizi dosyası okunamadı: %w", err)
	}
	return ParseSequence(data)
}

// Samples, şemadaki girdileri zaman sırasına dizilmiş ColorSample listesi
// olarak döner. Anahtarların tamsayı olmaması hata döndürür.
func (sf *SequenceFile) Samples() ([]ColorSample, error) {
	samples := make([]ColorSample, 0, len(sf.Sequence))
	for key, entry := range sf.Sequence {
		units, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("geçersiz zaman anahtarı %q: %w", key, err)
		}
		pixels := entry.Pixels
		if pixels == 0 {
			pixels = sf.Pixels
		}
		samples = append(samples, ColorSample{
			TimeUnits: uint32(units),
			Color:     RGB{R: entry.Color[0], G: entry.Color[1], B: entry.Color[2]},
			Pixels:    pixels,
		})
	}
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].TimeUnits < samples[j].TimeUnits
	})
	return samples, nil
}

// Compile, şemayı kodlanmaya hazır bir CompiledSequence'e dönüştürür:
// örnekler segmentlere farklanır, uzun segmentler bölünür ve doğrulama
// yapılır.
func (sf *SequenceFile) Compile() (*CompiledSequence, error) {
	samples, err := sf.Samples()
	if err != nil {
		return nil, err
	}

	segments, err := BuildSegments(samples, sf.EndTime)
	if err != nil {
		return nil, err
	}

	rate := sf.RefreshRate
	if rate == 0 {
		rate = DefaultRefreshRate
	}

	seq := &CompiledSequence{
		Pixels:      sf.Pixels,
		RefreshRate: rate,
		Segments:    SplitSegments(segments),
	}
	if err := seq.validate(); err != nil {
		return nil, err
	}
	return seq, nil
}

// EncodeSequenceFile, dizi dosyasını tek adımda .prg byte'larına derler.
func EncodeSequenceFile(sf *SequenceFile) ([]byte, error) {
	seq, err := sf.Compile()
	if err != nil {
		return nil, err
	}
	return Encode(seq)
}

// ─── Segment Üretimi ────────────────────────────────────────────────────────────

// BuildSegments, sıralı renk örneklerini segmentlere dönüştürür.
// Her segmentin süresi bir sonraki örneğin zamanına olan farktır; son
// segmentin süresi bildirilen bitiş zamanından gelir.
//
// Örnekler kesin artan olmalı ve endTime son örnekten büyük olmalıdır;
// aksi halde ErrNonMonotonicTime döner. Boş girdi ErrEmptySequence döner.
func BuildSegments(samples []ColorSample, endTime uint32) ([]Segment, error) {
	if len(samples) == 0 {
		return nil, ErrEmptySequence
	}

	segments := make([]Segment, 0, len(samples))
	for i, s := range samples {
		var next uint32
		if i+1 < len(samples) {
			next = samples[i+1].TimeUnits
		} else {
			next = endTime
		}
		if next <= s.TimeUnits {
			return nil, fmt.Errorf("%w: %d -> %d", ErrNonMonotonicTime, s.TimeUnits, next)
		}
		segments = append(segments, Segment{
			DurationUnits: next - s.TimeUnits,
			Color:         s.Color,
			Pixels:        s.Pixels,
		})
	}
	return segments, nil
}

// ─── Segment Bölme ──────────────────────────────────────────────────────────────

// SplitSegments, süresi MaxSegmentDuration'ı aşan segmentleri ardışık
// parçalara böler. MaxSegmentDuration'ı aşmayan segmentler tek parça olarak
// aynen geçer; aşanlar floor(d/65535) adet tam 65535'lik parça ve sıfır
// değilse bir kalan parça üretir. Tüm parçalar orijinal rengi ve piksel
// sayısını taşır.
//
// Fonksiyon tüm pozitif süreler üzerinde totaldir; hata koşulu yoktur.
// Bir girdinin parçalarının süre toplamı her zaman girdinin süresine eşittir.
func SplitSegments(segments []Segment) []CompiledSegment {
	out := make([]CompiledSegment, 0, len(segments))
	for _, seg := range segments {
		remaining := seg.DurationUnits
		for remaining > MaxSegmentDuration {
			out = append(out, CompiledSegment{
				DurationUnits: MaxSegmentDuration,
				Color:         seg.Color,
				Pixels:        seg.Pixels,
			})
			remaining -= MaxSegmentDuration
		}
		if remaining > 0 {
			out = append(out, CompiledSegment{
				DurationUnits: uint16(remaining),
				Color:         seg.Color,
				Pixels:        seg.Pixels,
			})
		}
	}
	return out
}

// ─── Başlık Alanı Türetme ───────────────────────────────────────────────────────

// deriveHeaderFields, değişken başlıktaki firmware'e bağlı iki skaları ilk
// segmentin süresinden hesaplar.
//
// Bu kurallar çalışan örnek dosyalardan ters mühendislikle çıkarılmıştır,
// yayımlanmış bir formata dayanmaz. Eldeki örneklerin süre aralıkları
// dışında genellemeyebilir; testlerle bilinen dosyalara sabitlenmiştir.
//
//	fieldA = floor(d / 100)
//	kalan  = d - fieldA*100
//	fieldB = d (16 bit'e kırpılmış)   kalan == 0 ve d >= 1000 ise
//	fieldB = kalan                    aksi halde
func deriveHeaderFields(firstDuration uint32) (fieldA, fieldB uint16) {
	fieldA = uint16(firstDuration / 100)
	remainder := firstDuration - uint32(fieldA)*100
	if remainder == 0 && firstDuration >= 1000 {
		fieldB = uint16(firstDuration)
	} else {
		fieldB = uint16(remainder)
	}
	return fieldA, fieldB
}

// validate, kodlama öncesi doğrulamayı yapar. Hiçbir byte yazılmadan önce
// çağrılır; hata dönerse kısmi çıktı üretilmez.
func (s *CompiledSequence) validate() error {
	if s.Pixels < MinPixels || s.Pixels > MaxPixels {
		return fmt.Errorf("%w: %d", ErrInvalidPixelCount, s.Pixels)
	}
	if len(s.Segments) == 0 {
		return ErrEmptySequence
	}
	return nil
}

// TotalDuration, derlenmiş segmentlerin toplam süresini zaman birimi
// cinsinden döner.
func (s *CompiledSequence) TotalDuration() uint64 {
	var total uint64
	for _, seg := range s.Segments {
		total += uint64(seg.DurationUnits)
	}
	return total
}
