package ltx

import (
	"time"

	"github.com/rs/zerolog"
)

// ─── Protokol Sabitleri ─────────────────────────────────────────────────────────

const (
	// DefaultControlPort, topların UDP kontrol/beacon portudur.
	// Toplar durum paketlerini bu porta broadcast eder ve tetik/renk
	// komutlarını bu porttan kabul eder.
	DefaultControlPort = 41412

	// DefaultUploadPort, .prg dosya yüklemesi için TCP portudur.
	DefaultUploadPort = 8888

	// DefaultTimeout, TCP bağlantı ve okuma işlemleri için varsayılan
	// zaman aşımı süresidir.
	DefaultTimeout = 10 * time.Second

	// DefaultReceiveTimeout, discovery döngüsünün her okuma denemesi için
	// kullandığı kısa zaman aşımıdır. Döngünün durdurma sinyalini düzenli
	// kontrol edebilmesini sağlar.
	DefaultReceiveTimeout = 500 * time.Millisecond

	// DefaultLivenessTimeout, bu süre boyunca beacon görülmeyen topların
	// kayıttan düşürülme eşiğidir.
	DefaultLivenessTimeout = 10 * time.Second

	// DefaultSweepInterval, canlılık taramasının çalışma aralığıdır.
	DefaultSweepInterval = 2 * time.Second

	// DefaultRefreshRate, bir saniyedeki zaman birimi sayısıdır (tick/s).
	// Bilinen tüm örnek dosyalar 100 Hz (1 birim = 10 ms) kullanır.
	DefaultRefreshRate = 100

	// MaxSegmentDuration, tek bir segment tanımlayıcısının 16-bit süre
	// alanına sığabilecek en büyük değerdir. Daha uzun segmentler
	// SplitSegments tarafından parçalara bölünür.
	MaxSegmentDuration = 65535

	// MinPixels ve MaxPixels, bir topun geçerli piksel sayısı aralığıdır.
	MinPixels = 1
	MaxPixels = 4
)

// ─── Beacon Paket Düzeni ────────────────────────────────────────────────────────
//
// Top, kontrol portuna periyodik beacon/durum paketleri broadcast eder.
// Paket düzeni (ters mühendislik, bilinen firmware sürümleri):
//
//	[0-6]   "LTXBALL" tanımlayıcı dizgisi
//	[7-9]   firmware'e bağlı alanlar (kullanılmıyor)
//	[10]    durum byte'ı
//	[11-12] zaman damgası byte çifti (komutlarda aynen geri yansıtılmalı)
//
// Zaman damgası byte'larını yansıtmayan (veya bayat yansıtan) komutlar top
// tarafından sessizce yok sayılır.

const (
	// BeaconIdentifier, beacon paketlerinde aranan sabit tanımlayıcıdır.
	BeaconIdentifier = "LTXBALL"

	// beaconStatusOffset, durum byte'ının paket içindeki konumudur.
	beaconStatusOffset = 10

	// beaconTimestampOffset, yansıtılacak 2 byte'lık zaman damgasının
	// başlangıç konumudur.
	beaconTimestampOffset = 11

	// beaconMinLength, geçerli bir beacon paketinin en küçük boyutudur.
	beaconMinLength = 13
)

// ─── Komut Paket Sabitleri ──────────────────────────────────────────────────────

const (
	// cmdGroupTrigger, play/stop tetik komutlarının grup byte'ıdır.
	cmdGroupTrigger = 0x61

	// cmdGroupColor, anlık renk komutlarının grup byte'ıdır.
	cmdGroupColor = 0x63

	// cmdGroupBrightness, parlaklık komutlarının grup byte'ıdır.
	cmdGroupBrightness = 0x64

	// cmdSubtypeTrigger, tetik komutlarının alt tip byte'ıdır.
	// Erken paket yakalamalarında bu byte değişkenlik gösterdi; geç ve
	// güvenilir yakalamaların tamamı bu sabite yakınsadı. Cihaz tarafındaki
	// anlamı hiçbir zaman kesin olarak çözülemedi.
	cmdSubtypeTrigger = 0x22

	// triggerPacketLength, tetik komut paketinin boyutudur.
	triggerPacketLength = 9

	// colorPacketLength, renk/parlaklık komut paketlerinin boyutudur.
	colorPacketLength = 12

	// opIDStopOffset, stop komutunun op-id'sinin son play op-id'sine
	// eklenen sabit farkıdır.
	opIDStopOffset = 0x0a

	// opIDIncrement, başarılı bir play/stop çevriminden sonra bir sonraki
	// play op-id'sine uygulanan sabit artıştır.
	opIDIncrement = 0x14

	// opIDReserved, hiçbir zaman op-id olarak kullanılmayan ayrılmış
	// değerdir; artış bu değere denk gelirse atlanır.
	opIDReserved = 0x00

	// redundantSendCount, renk/parlaklık komutlarının art arda kaç kez
	// gönderileceğidir. UDP best-effort olduğundan aynı komut azalan
	// öncelik değeriyle tekrarlanır.
	redundantSendCount = 3
)

// ─── Veri Yapıları ──────────────────────────────────────────────────────────────

// RGB, bir segmentin rengini temsil eder.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// ColorSample, program zaman çizelgesindeki tek bir renk değişimini temsil
// eder. TimeUnits, programın tazeleme hızına göre göreli tick sayısıdır ve
// bir dizi içinde benzersiz, artan olmalıdır.
type ColorSample struct {
	TimeUnits uint32
	Color     RGB
	Pixels    uint8
}

// Segment, sabit renkli tek bir aralıktır. Ardışık ColorSample'ların zaman
// farkından üretilir; son segmentin süresi bildirilen bitiş zamanından gelir.
// DurationUnits her zaman sıfırdan büyüktür.
type Segment struct {
	DurationUnits uint32
	Color         RGB
	Pixels        uint8
}

// CompiledSegment, bölme işleminden geçmiş bir segmenttir.
// DurationUnits <= MaxSegmentDuration garantilidir. Pixels, kaynak
// segmentin piksel sayısıdır; kodlayıcı tanımlayıcılara dizi düzeyindeki
// piksel sayısını yazar, bu alan bölme sonrası izlenebilirlik içindir.
type CompiledSegment struct {
	DurationUnits uint16
	Color         RGB
	Pixels        uint8
}

// CompiledSequence, kodlanmaya hazır tam bir programdır. Encode tarafından
// üretildikten sonra değişmez değer olarak ele alınır.
type CompiledSequence struct {
	// Pixels, topun piksel sayısıdır (MinPixels..MaxPixels).
	Pixels uint8

	// RefreshRate, saniyedeki zaman birimi sayısıdır.
	// Sıfır ise Encode DefaultRefreshRate kullanır.
	RefreshRate uint16

	// Segments, sıralı segment listesidir; boş olamaz.
	Segments []CompiledSegment
}

// DeviceRecord, keşfedilmiş bir topun son gözlemlenen durumudur.
// Discovery tarafından üretilen kopyalar değişmez anlık görüntülerdir;
// canlı kayıt yalnızca discovery goroutine'ine aittir.
type DeviceRecord struct {
	// Addr, topun IP adresidir.
	Addr string

	// LastSeen, son geçerli beacon'un görülme zamanıdır.
	LastSeen time.Time

	// Status, beacon'daki durum byte'ıdır.
	Status byte

	// Timestamp, komutlarda yansıtılması gereken 2 byte'lık zaman
	// damgasının kopyasıdır.
	Timestamp [2]byte

	// Raw, son beacon payload'ının kopyasıdır.
	Raw []byte
}

// clone, kaydın bağımsız bir kopyasını döner.
// Dışarıya asla canlı referans sızdırılmaz.
func (r *DeviceRecord) clone() DeviceRecord {
	c := *r
	c.Raw = append([]byte(nil), r.Raw...)
	return c
}

// ─── Seçenek Yapıları ───────────────────────────────────────────────────────────

// Option, kütüphane bileşenlerinin ortak yapılandırma seçeneklerini tanımlar.
// Functional Options pattern kullanılır.
type Option func(*options)

type options struct {
	controlPort     int
	uploadPort      int
	timeout         time.Duration
	receiveTimeout  time.Duration
	livenessTimeout time.Duration
	sweepInterval   time.Duration
	broadcastAddr   string
	logger          zerolog.Logger
	onProgress      func(UploadProgress)
	onDeviceLost    func(DeviceRecord)
	source          PacketSource
}

func defaultOptions() options {
	return options{
		controlPort:     DefaultControlPort,
		uploadPort:      DefaultUploadPort,
		timeout:         DefaultTimeout,
		receiveTimeout:  DefaultReceiveTimeout,
		livenessTimeout: DefaultLivenessTimeout,
		sweepInterval:   DefaultSweepInterval,
		broadcastAddr:   "255.255.255.255",
		logger:          zerolog.Nop(),
	}
}

// WithControlPort, UDP kontrol/beacon portunu değiştirir.
func WithControlPort(port int) Option {
	return func(o *options) {
		o.controlPort = port
	}
}

// WithUploadPort, TCP yükleme portunu değiştirir.
func WithUploadPort(port int) Option {
	return func(o *options) {
		o.uploadPort = port
	}
}

// WithTimeout, TCP bağlantı/okuma işlemleri için zaman aşımını ayarlar.
//
//	up := ltx.NewUploader(ltx.WithTimeout(5 * time.Second))
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithReceiveTimeout, discovery döngüsünün okuma zaman aşımını ayarlar.
// Daha kısa süre durdurma sinyaline daha hızlı tepki demektir.
func WithReceiveTimeout(d time.Duration) Option {
	return func(o *options) {
		o.receiveTimeout = d
	}
}

// WithLivenessTimeout, top kaydının düşürülmesi için gereken sessizlik
// süresini ayarlar.
func WithLivenessTimeout(d time.Duration) Option {
	return func(o *options) {
		o.livenessTimeout = d
	}
}

// WithSweepInterval, canlılık taramasının aralığını ayarlar.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		o.sweepInterval = d
	}
}

// WithBroadcastAddr, komutların gönderileceği broadcast adresini değiştirir.
// Varsayılan 255.255.255.255'tir; tek bir topa yönlendirmek için topun IP
// adresi verilebilir.
func WithBroadcastAddr(addr string) Option {
	return func(o *options) {
		o.broadcastAddr = addr
	}
}

// WithLogger, yapılandırılmış bir zerolog logger'ı ayarlar.
// Varsayılan olarak loglama devre dışıdır (zerolog.Nop).
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithProgressFunc, dosya yükleme ilerleme callback'i ayarlar.
func WithProgressFunc(fn func(UploadProgress)) Option {
	return func(o *options) {
		o.onProgress = fn
	}
}

// WithDeviceLostFunc, canlılık taraması bir topu düşürdüğünde çağrılacak
// callback'i ayarlar. Callback'e kaydın son anlık görüntüsü verilir.
func WithDeviceLostFunc(fn func(DeviceRecord)) Option {
	return func(o *options) {
		o.onDeviceLost = fn
	}
}

// WithPacketSource, discovery'nin paket kaynağını değiştirir.
// Varsayılan, ayrıcalık gerektirmeyen UDP soketidir; yetkili ortamlarda raw
// soket tabanlı bir kaynak takılabilir.
func WithPacketSource(src PacketSource) Option {
	return func(o *options) {
		o.source = src
	}
}

// ─── Yükleme İlerlemesi ─────────────────────────────────────────────────────────

// UploadProgress, .prg yükleme ilerleme bilgisini taşır.
type UploadProgress struct {
	FileName   string  // Yüklenen dosya adı
	TotalBytes int64   // Toplam payload boyutu
	SentBytes  int64   // Gönderilen byte sayısı
	Percent    float64 // İlerleme yüzdesi (0-100)
}
