package ltx

import (
	"encoding/binary"
)

// ─── .prg Kodlayıcı ─────────────────────────────────────────────────────────────
//
// Bu dosya, topun firmware'inin beklediği .prg ikili düzenini üretir.
// Düzen bilinen örnek dosyalardan ters mühendislikle çıkarılmıştır; mevcut
// firmware ile uyumluluk her sabit byte'ın ve offset'in bire bir yeniden
// üretilmesini gerektirir.
//
// Dosya Genel Düzeni:
//
//	[16B] imza başlığı     (sabit magic + piksel sayısı + tazeleme hızı)
//	[16B] değişken başlık  (tablo uzunluğu, segment sayısı, türetilen alanlar)
//	[19B × n] segment tanımlayıcı tablosu
//	[300B × n] renk blokları
//	[6B]  altbilgi
//
// Tek segmentli, 4 piksellik bir dosya tam 357 byte'tır
// (16 + 16 + 19 + 300 + 6); bu değer bilinen referans dosyayla eşleşir.
//
// Başlıktaki piksel sayısı hariç tüm çok byte'lı alanlar little-endian'dır.
// Kodlama tamamen deterministiktir; aynı CompiledSequence her zaman aynı
// byte'ları üretir (regresyon testleri buna dayanır).

const (
	// signatureHeaderLength ve variableHeaderLength, iki başlık bölümünün
	// boyutlarıdır.
	signatureHeaderLength = 16
	variableHeaderLength  = 16

	// headerLength, iki başlığın toplamıdır; tanımlayıcı tablosu bu
	// offset'te başlar.
	headerLength = signatureHeaderLength + variableHeaderLength

	// descriptorLength, her segment tanımlayıcı kaydının boyutudur.
	descriptorLength = 19

	// colorBlockLength, her segmentin sabit boyutlu renk bloğudur:
	// 3 byte sıfır öneki + 99 kez tekrarlanan RGB üçlüsü.
	colorBlockLength = 300

	// colorBlockPrefix, renk bloğunun başındaki sıfır byte sayısıdır.
	colorBlockPrefix = 3

	// footerLength, dosya sonundaki sabit altbilginin boyutudur.
	footerLength = 6

	// colorTerminator, son renk bloğunun son byte'ının üzerine yazılan
	// bitiş işaretidir.
	colorTerminator = 0x42

	// descriptorMarker, her tanımlayıcının başındaki sabit işarettir.
	descriptorMarker = 0x0001

	// headerMode, değişken başlıktaki mod/bayrak sabitidir.
	// Bilinen tüm örnek dosyalarda bu değer görülür.
	headerMode = 0x0001
)

// prgMagic, imza başlığının sabit açılış byte'larıdır.
var prgMagic = []byte{'P', 'R', 0x03, 'I', 'N', 0x05, 0x00, 0x00}

// prgFooter, dosya sonundaki sabit altbilgidir: "BT" işareti + sıfır dolgu.
var prgFooter = []byte{'B', 'T', 0x00, 0x00, 0x00, 0x00}

// EncodedLength, n segmentli bir .prg dosyasının toplam boyutunu döner.
func EncodedLength(segmentCount int) int {
	return headerLength + segmentCount*descriptorLength + segmentCount*colorBlockLength + footerLength
}

// segmentTableLength, değişken başlıkta saklanan tablo uzunluğu değeridir.
// Saklanan değer fiziksel tablo boyutundan (19n) 2 fazladır; bilinen tüm
// örnek dosyalar bu fazlalığı taşır ve firmware bunu bekler.
func segmentTableLength(segmentCount int) uint32 {
	return uint32(2 + descriptorLength*segmentCount)
}

// Encode, derlenmiş bir diziyi .prg byte düzenine serileştirir.
// Doğrulama (piksel aralığı, boş dizi) herhangi bir byte yazılmadan önce
// yapılır; hata dönerse çıktı üretilmemiştir.
func Encode(seq *CompiledSequence) ([]byte, error) {
	if err := seq.validate(); err != nil {
		return nil, err
	}

	n := len(seq.Segments)
	rate := seq.RefreshRate
	if rate == 0 {
		rate = DefaultRefreshRate
	}

	buf := make([]byte, EncodedLength(n))
	writeSignatureHeader(buf[0:signatureHeaderLength], seq.Pixels, rate)
	writeVariableHeader(buf[signatureHeaderLength:headerLength], seq)

	// Segment tanımlayıcı tablosu
	tableStart := headerLength
	for i, seg := range seq.Segments {
		rec := buf[tableStart+i*descriptorLength : tableStart+(i+1)*descriptorLength]
		if i == n-1 {
			writeTerminalDescriptor(rec, seq.Pixels, seg, n)
		} else {
			writeDescriptor(rec, seq.Pixels, seg, seq.Segments[i+1], i)
		}
	}

	// Renk blokları
	colorStart := tableStart + n*descriptorLength
	for i, seg := range seq.Segments {
		writeColorBlock(buf[colorStart+i*colorBlockLength:colorStart+(i+1)*colorBlockLength], seg.Color)
	}
	// Son bloğun son byte'ı bitiş işaretiyle ezilir.
	buf[colorStart+n*colorBlockLength-1] = colorTerminator

	// Altbilgi
	copy(buf[colorStart+n*colorBlockLength:], prgFooter)

	return buf, nil
}

// writeSignatureHeader, 16 byte'lık sabit imza başlığını yazar.
//
//	[0-7]   magic: "PR\x03IN\x05\x00\x00"
//	[8-9]   piksel sayısı (u16, BÜYÜK-endian — başlığın geri kalanından
//	        farklı byte sırası; eski firmware'den kalma bir tuhaflıktır ve
//	        bit düzeyinde korunmalıdır)
//	[10-11] sabit: 0x00 0x08
//	[12-13] tazeleme hızı (u16 LE, birim/saniye)
//	[14-15] işaret: "PI"
func writeSignatureHeader(h []byte, pixels uint8, rate uint16) {
	copy(h[0:8], prgMagic)
	binary.BigEndian.PutUint16(h[8:10], uint16(pixels))
	h[10] = 0x00
	h[11] = 0x08
	binary.LittleEndian.PutUint16(h[12:14], rate)
	h[14] = 'P'
	h[15] = 'I'
}

// writeVariableHeader, 16 byte'lık değişken başlığı yazar.
//
//	[0-3]   segment tablo uzunluğu (u32 LE) = 2 + 19*n
//	[4-5]   segment sayısı (u16 LE)
//	[6-7]   mod/bayrak sabiti (u16 LE)
//	[8-9]   türetilen alan A (u16 LE)
//	[10-11] türetilen alan B (u16 LE)
//	[12-13] renk verisi başlangıç offset'i (u16 LE) = tablo uzunluğu + 32
//	[14-15] ayrılmış, sıfır
func writeVariableHeader(h []byte, seq *CompiledSequence) {
	n := len(seq.Segments)
	tableLen := segmentTableLength(n)
	fieldA, fieldB := deriveHeaderFields(uint32(seq.Segments[0].DurationUnits))

	binary.LittleEndian.PutUint32(h[0:4], tableLen)
	binary.LittleEndian.PutUint16(h[4:6], uint16(n))
	binary.LittleEndian.PutUint16(h[6:8], headerMode)
	binary.LittleEndian.PutUint16(h[8:10], fieldA)
	binary.LittleEndian.PutUint16(h[10:12], fieldB)
	binary.LittleEndian.PutUint16(h[12:14], uint16(tableLen)+headerLength)
	// [14-15] sıfır kalır
}

// writeDescriptor, terminal olmayan (ilk/orta) bir segment tanımlayıcısını
// yazar. index, segmentin tablo içindeki sıfır tabanlı konumudur.
//
//	[0-1]   piksel sayısı (u16 LE)
//	[2-3]   tanımlayıcı işareti (u16 LE)
//	[4-5]   bu segmentin süresi (u16 LE)
//	[6-7]   sıfır
//	[8-9]   sonraki segmentin süresi (u16 LE)
//	[10-11] sonraki segmentin renk bloğu offset'i (u16 LE), renk verisi
//	        bölgesinin başına göre — asla dosya başına göre değil
//	[12-18] sıfır dolgu
func writeDescriptor(rec []byte, pixels uint8, seg, next CompiledSegment, index int) {
	binary.LittleEndian.PutUint16(rec[0:2], uint16(pixels))
	binary.LittleEndian.PutUint16(rec[2:4], descriptorMarker)
	binary.LittleEndian.PutUint16(rec[4:6], seg.DurationUnits)
	binary.LittleEndian.PutUint16(rec[8:10], next.DurationUnits)
	binary.LittleEndian.PutUint16(rec[10:12], uint16((index+1)*colorBlockLength))
}

// writeTerminalDescriptor, tablodaki son tanımlayıcıyı yazar. Sonraki
// segment alanlarının yerini toplam segment sayısından hesaplanan iki
// parçalı "eski renk girişi" çifti alır: son renk bloğunun offset'i ve
// bitiş işareti byte'ının offset'i, her ikisi de renk verisi bölgesine göre.
//
// Bu çift ampirik bir uydurmadır (bkz. deriveHeaderFields ile aynı uyarı);
// test edilmemiş segment sayıları için doğruluğu varsayılmamalıdır.
//
//	[0-1]   piksel sayısı (u16 LE)
//	[2-3]   tanımlayıcı işareti (u16 LE)
//	[4-5]   bu segmentin süresi (u16 LE)
//	[6-7]   sıfır
//	[8-9]   eski giriş, parça 1: 300*(n-1) (u16 LE)
//	[10-11] eski giriş, parça 2: 300*n - 1 (u16 LE)
//	[12-18] sıfır dolgu
func writeTerminalDescriptor(rec []byte, pixels uint8, seg CompiledSegment, total int) {
	binary.LittleEndian.PutUint16(rec[0:2], uint16(pixels))
	binary.LittleEndian.PutUint16(rec[2:4], descriptorMarker)
	binary.LittleEndian.PutUint16(rec[4:6], seg.DurationUnits)
	binary.LittleEndian.PutUint16(rec[8:10], uint16((total-1)*colorBlockLength))
	binary.LittleEndian.PutUint16(rec[10:12], uint16(total*colorBlockLength-1))
}

// writeColorBlock, 300 byte'lık sabit boyutlu renk bloğunu yazar:
// 3 byte sıfır öneki, ardından bloğu dolduracak şekilde tekrarlanan RGB
// üçlüsü (99 tekrar).
func writeColorBlock(block []byte, c RGB) {
	for off := colorBlockPrefix; off < colorBlockLength; off += 3 {
		block[off] = c.R
		block[off+1] = c.G
		block[off+2] = c.B
	}
}
