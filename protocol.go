package ltx

import (
	"bytes"
	"crypto/rand"
)

// ─── Paket Oluşturma ────────────────────────────────────────────────────────────
//
// Bu dosya, topun UDP kontrol protokolü için düşük seviyeli paket oluşturma
// ve ayrıştırma fonksiyonlarını içerir. Komut paketleri sabit boyutludur ve
// tüm alanlar tek byte'lıktır; çok byte'lı sayısal alan yoktur.
//
// Her komut, topun kendi beacon'ından kopyalanan 2 byte'lık zaman damgasını
// taşımak zorundadır. Top, bayat veya eksik zaman damgalı komutları sessizce
// yok sayar; bu yüzden komut üretmeden önce discovery'nin güncel bir anlık
// görüntü sağlaması gerekir.

// newNonce, n byte'lık rastgele nonce üretir. Nonce, birbirinin aynısı olan
// ardışık komut paketlerini ayırt etmeye yarar.
func newNonce(n int) []byte {
	b := make([]byte, n)
	// crypto/rand.Read mevcut Go sürümlerinde hata dönmez.
	rand.Read(b)
	return b
}

// buildTriggerPacket, 9 byte'lık play/stop tetik komutunu oluşturur.
//
// Paket Formatı (toplam 9 byte):
//
//	[0]   komut grubu = 0x61
//	[1]   op-id
//	[2]   alt tip = 0x22
//	[3-4] ayrılmış, sıfır
//	[5-6] rastgele nonce
//	[7-8] yansıtılan zaman damgası (son beacon'dan)
func buildTriggerPacket(opID byte, nonce, timestamp [2]byte) []byte {
	pkt := make([]byte, triggerPacketLength)
	pkt[0] = cmdGroupTrigger
	pkt[1] = opID
	pkt[2] = cmdSubtypeTrigger
	pkt[5] = nonce[0]
	pkt[6] = nonce[1]
	pkt[7] = timestamp[0]
	pkt[8] = timestamp[1]
	return pkt
}

// buildColorPacket, 12 byte'lık anlık renk komutunu oluşturur.
// priority, UDP yedekli gönderimde azalan öncelik değeridir.
//
// Paket Formatı (toplam 12 byte):
//
//	[0]    öncelik öneki
//	[1]    komut grubu = 0x63
//	[2-4]  R, G, B
//	[5-7]  ayrılmış, sıfır
//	[8-9]  rastgele nonce
//	[10-11] yansıtılan zaman damgası
func buildColorPacket(priority byte, c RGB, nonce, timestamp [2]byte) []byte {
	pkt := make([]byte, colorPacketLength)
	pkt[0] = priority
	pkt[1] = cmdGroupColor
	pkt[2] = c.R
	pkt[3] = c.G
	pkt[4] = c.B
	pkt[8] = nonce[0]
	pkt[9] = nonce[1]
	pkt[10] = timestamp[0]
	pkt[11] = timestamp[1]
	return pkt
}

// buildBrightnessPacket, 12 byte'lık parlaklık komutunu oluşturur.
//
// Paket Formatı (toplam 12 byte):
//
//	[0]    öncelik öneki
//	[1]    komut grubu = 0x64
//	[2]    parlaklık seviyesi (0-255)
//	[3-7]  ayrılmış, sıfır
//	[8-9]  rastgele nonce
//	[10-11] yansıtılan zaman damgası
func buildBrightnessPacket(priority, level byte, nonce, timestamp [2]byte) []byte {
	pkt := make([]byte, colorPacketLength)
	pkt[0] = priority
	pkt[1] = cmdGroupBrightness
	pkt[2] = level
	pkt[8] = nonce[0]
	pkt[9] = nonce[1]
	pkt[10] = timestamp[0]
	pkt[11] = timestamp[1]
	return pkt
}

// buildProbePacket, discovery doğrulaması için zararsız bir komut üretir:
// siyah (kapalı) renk komutu. Top görünür bir tepki vermez ama geçerli bir
// paket aldığında yanıt döner; herhangi bir yanıt doğrulama için yeterlidir.
func buildProbePacket(timestamp [2]byte) []byte {
	var nonce [2]byte
	copy(nonce[:], newNonce(2))
	return buildColorPacket(1, RGB{}, nonce, timestamp)
}

// parseBeacon, bir UDP payload'ının geçerli bir top beacon'ı olup
// olmadığını kontrol eder ve sabit offset'lerdeki alanları çıkarır.
//
// Geçerlilik koşulları: payload en az beaconMinLength byte ve tanımlayıcı
// dizgisini içeriyor.
func parseBeacon(payload []byte) (status byte, timestamp [2]byte, ok bool) {
	if len(payload) < beaconMinLength {
		return 0, timestamp, false
	}
	if !bytes.Contains(payload, []byte(BeaconIdentifier)) {
		return 0, timestamp, false
	}
	status = payload[beaconStatusOffset]
	timestamp[0] = payload[beaconTimestampOffset]
	timestamp[1] = payload[beaconTimestampOffset+1]
	return status, timestamp, true
}
