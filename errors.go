package ltx

import "errors"

// ─── Hata Sınıflandırması ───────────────────────────────────────────────────────
//
// Kütüphanedeki hiçbir durum süreci sonlandırmaz; her koşul tipli sonuç
// olarak çağırana döner. Üç sınıf vardır:
//
//   - Doğrulama hataları: kodlama başlamadan senkron reddedilir, asla
//     kısmi çıktı üretilmez.
//   - Taşıma hataları: bağlantı/gönderim başarısızlıkları; yeniden deneme
//     çağıranın sorumluluğudur.
//   - Protokol belirsizlikleri: paket gitti ama sonuç makine tarafından
//     doğrulanamıyor. Doğru tepki "yeniden dene / teyit et"tir, ölümcül
//     hata değildir; bu yüzden taşıma hatalarından ayrı tutulur.

var (
	// ErrInvalidPixelCount, piksel sayısının MinPixels..MaxPixels aralığı
	// dışında olduğunu belirtir.
	ErrInvalidPixelCount = errors.New("ltx: pixel sayısı 1-4 aralığında olmalı")

	// ErrEmptySequence, segmentsiz bir dizinin kodlanmaya çalışıldığını
	// belirtir.
	ErrEmptySequence = errors.New("ltx: dizi en az bir segment içermeli")

	// ErrNonMonotonicTime, renk örneklerinin zaman değerlerinin artan
	// olmadığını belirtir.
	ErrNonMonotonicTime = errors.New("ltx: zaman değerleri kesin artan olmalı")

	// ErrNoDeviceStatus, tetik komutu istendiğinde elde hiç beacon anlık
	// görüntüsü olmadığını belirtir. Top, zaman damgası yansıtılmayan
	// komutları sessizce yok saydığından komut hiç gönderilmez.
	// Discovery bir süre çalıştıktan sonra yeniden denenmelidir.
	ErrNoDeviceStatus = errors.New("ltx: cihaz durumu yok, discovery çalışıyor mu?")

	// ErrUploadUnconfirmed, payload gönderildikten sonra topun bağlantıyı
	// kapatması (EOF) zaman aşımı içinde gözlemlenemediğini belirtir.
	// Yükleme başarılı olmuş olabilir; çağıran yeniden deneyebilir.
	ErrUploadUnconfirmed = errors.New("ltx: yükleme onayı (EOF) zaman aşımına uğradı")

	// ErrSourceUnsupported, istenen paket kaynağının bu platformda veya
	// bu ayrıcalık seviyesinde kullanılamadığını belirtir.
	ErrSourceUnsupported = errors.New("ltx: paket kaynağı bu ortamda desteklenmiyor")

	// ErrDiscoveryRunning, zaten çalışan bir discovery'nin yeniden
	// başlatılmaya çalışıldığını belirtir.
	ErrDiscoveryRunning = errors.New("ltx: discovery zaten çalışıyor")

	// ErrDiscoveryStopped, durdurulmuş bir discovery üzerinde işlem
	// yapılmaya çalışıldığını belirtir.
	ErrDiscoveryStopped = errors.New("ltx: discovery çalışmıyor")
)

// IsUncertain, hatanın bir protokol belirsizliği olup olmadığını döner.
// Belirsizlikler yeniden denenebilir; taşıma hataları için çağıranın ağ
// durumunu değerlendirmesi gerekir.
func IsUncertain(err error) bool {
	return errors.Is(err, ErrNoDeviceStatus) || errors.Is(err, ErrUploadUnconfirmed)
}
