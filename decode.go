package ltx

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ─── .prg Yapısal Okuyucu ───────────────────────────────────────────────────────
//
// Bu okuyucu genel amaçlı bir çözücü değildir: yalnızca regresyon testleri
// ve araç tarafındaki dosya incelemesi için kodlayıcının ürettiği yapıyı
// geri okur. Ampirik başlık alanlarını yorumlamaz, olduğu gibi raporlar.

// PrgInfo, bir .prg dosyasından geri okunan yapısal bilgilerdir.
type PrgInfo struct {
	Pixels       uint8
	RefreshRate  uint16
	SegmentCount int
	TableLength  uint32
	FieldA       uint16
	FieldB       uint16
	ColorStart   uint16
	Segments     []PrgSegment
}

// PrgSegment, geri okunan tek bir segmenttir.
type PrgSegment struct {
	DurationUnits uint16
	Color         RGB
}

// TotalDuration, geri okunan segmentlerin süre toplamını döner.
func (p *PrgInfo) TotalDuration() uint64 {
	var total uint64
	for _, s := range p.Segments {
		total += uint64(s.DurationUnits)
	}
	return total
}

// DecodePrg, kodlayıcının ürettiği bir .prg buffer'ını yapısal olarak geri
// okur. Magic, altbilgi, boyut yasası ve bitiş işareti doğrulanır.
func DecodePrg(data []byte) (*PrgInfo, error) {
	if len(data) < headerLength+footerLength {
		return nil, fmt.Errorf("prg çok kısa: %d byte", len(data))
	}
	if !bytes.Equal(data[0:8], prgMagic) {
		return nil, fmt.Errorf("prg magic eşleşmiyor: % x", data[0:8])
	}
	if data[14] != 'P' || data[15] != 'I' {
		return nil, fmt.Errorf("imza işareti eşleşmiyor: % x", data[14:16])
	}

	info := &PrgInfo{
		Pixels:      uint8(binary.BigEndian.Uint16(data[8:10])),
		RefreshRate: binary.LittleEndian.Uint16(data[12:14]),
	}

	h := data[signatureHeaderLength:headerLength]
	info.TableLength = binary.LittleEndian.Uint32(h[0:4])
	info.SegmentCount = int(binary.LittleEndian.Uint16(h[4:6]))
	info.FieldA = binary.LittleEndian.Uint16(h[8:10])
	info.FieldB = binary.LittleEndian.Uint16(h[10:12])
	info.ColorStart = binary.LittleEndian.Uint16(h[12:14])

	n := info.SegmentCount
	if want := EncodedLength(n); len(data) != want {
		return nil, fmt.Errorf("prg boyutu %d, %d segment için %d bekleniyordu", len(data), n, want)
	}
	if info.TableLength != segmentTableLength(n) {
		return nil, fmt.Errorf("tablo uzunluğu %d, bekleneni %d", info.TableLength, segmentTableLength(n))
	}

	colorStart := headerLength + n*descriptorLength
	for i := 0; i < n; i++ {
		rec := data[headerLength+i*descriptorLength:]
		block := data[colorStart+i*colorBlockLength:]
		info.Segments = append(info.Segments, PrgSegment{
			DurationUnits: binary.LittleEndian.Uint16(rec[4:6]),
			Color: RGB{
				R: block[colorBlockPrefix],
				G: block[colorBlockPrefix+1],
				B: block[colorBlockPrefix+2],
			},
		})
	}

	if data[colorStart+n*colorBlockLength-1] != colorTerminator {
		return nil, fmt.Errorf("renk bölgesi bitiş işareti yok")
	}
	if !bytes.Equal(data[len(data)-footerLength:], prgFooter) {
		return nil, fmt.Errorf("altbilgi eşleşmiyor: % x", data[len(data)-footerLength:])
	}

	return info, nil
}
