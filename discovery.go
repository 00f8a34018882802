package ltx

import (
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ─── Cihaz Keşfi ────────────────────────────────────────────────────────────────
//
// Discovery, topların beacon/durum broadcast'lerini dinleyen sürekli bir
// arka plan görevidir. Görev:
//
//  1. Kontrol portundaki paketleri okur ve beacon olmayanları süzer.
//  2. Yeni bir adres görüldüğünde zararsız bir probe komutu gönderir;
//     herhangi bir yanıt gelirse adres kayda alınır.
//  3. Kayıtlı her topun son durum byte'larını ve zaman damgasını günceller.
//  4. Canlılık taramasıyla uzun süre sessiz kalan topları düşürür.
//
// Canlı cihaz tablosu yalnızca dinleyici goroutine'i tarafından yazılır;
// dış okuyucular her zaman kopya (anlık görüntü) alır. Mutex yalnızca
// kopyalama anında tutulur — komut gönderenlerle dinleyici arasında veri
// yarışı yoktur.

// Discovery, beacon dinleyicisi ve cihaz kayıt defteridir.
type Discovery struct {
	opts options
	log  zerolog.Logger

	mu      sync.Mutex
	running bool
	source  PacketSource
	stop    chan struct{}
	done    chan struct{}

	// devices ve lastAddr yalnızca mu altında erişilir; dinleyici kopya
	// yayınlamak için, okuyucular kopya almak için kilitlenir.
	devices  map[string]*DeviceRecord
	lastAddr string
}

// NewDiscovery, yeni bir Discovery oluşturur. Dinleme Start ile başlar.
//
//	disc := ltx.NewDiscovery(
//	    ltx.WithLivenessTimeout(15*time.Second),
//	    ltx.WithLogger(logger),
//	)
func NewDiscovery(opt ...Option) *Discovery {
	opts := defaultOptions()
	for _, o := range opt {
		o(&opts)
	}
	return &Discovery{
		opts:    opts,
		log:     opts.logger.With().Str("bileşen", "discovery").Logger(),
		devices: make(map[string]*DeviceRecord),
	}
}

// Start, dinleyici goroutine'ini başlatır. Paket kaynağı seçeneklerle
// verilmemişse kontrol portuna bağlı ayrıcalıksız UDP kaynağı açılır.
// Zaten çalışıyorsa ErrDiscoveryRunning döner.
func (d *Discovery) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return ErrDiscoveryRunning
	}

	source := d.opts.source
	if source == nil {
		var err error
		source, err = NewUDPPacketSource(d.opts.controlPort)
		if err != nil {
			return err
		}
	}

	d.source = source
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	d.running = true

	go d.listen(source, d.stop, d.done)

	d.log.Info().Int("port", d.opts.controlPort).Msg("discovery başladı")
	return nil
}

// Stop, dinleyiciyi durdurur ve kaynağı kapatır. Dinleyici tamamen
// çıkana kadar bloklar.
func (d *Discovery) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return ErrDiscoveryStopped
	}
	d.running = false
	close(d.stop)
	source := d.source
	done := d.done
	d.mu.Unlock()

	err := source.Close()
	<-done
	d.log.Info().Msg("discovery durdu")
	return err
}

// Snapshot, en son beacon'u görülen topun kaydının kopyasını döner.
// Hiç top kayıtlı değilse ok=false döner. Dönen değer bağımsız bir
// kopyadır; canlı tabloya referans içermez.
func (d *Discovery) Snapshot() (DeviceRecord, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.devices[d.lastAddr]
	if !ok {
		return DeviceRecord{}, false
	}
	return rec.clone(), true
}

// Devices, kayıtlı tüm topların kopyalarını döner.
func (d *Discovery) Devices() []DeviceRecord {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]DeviceRecord, 0, len(d.devices))
	for _, rec := range d.devices {
		out = append(out, rec.clone())
	}
	return out
}

// ─── Dinleme Döngüsü ────────────────────────────────────────────────────────────

// listen, beacon paketlerini okuyan ve tabloyu güncelleyen arka plan
// döngüsüdür. Her okuma kısa bir zaman aşımıyla sınırlıdır; durdurma
// sinyali her turda kontrol edilir, süresiz bloklanma olmaz.
func (d *Discovery) listen(source PacketSource, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	lastSweep := time.Now()
	for {
		select {
		case <-stop:
			return
		default:
		}

		payload, src, err := source.ReadPacket(time.Now().Add(d.opts.receiveTimeout))
		switch {
		case err == nil:
			d.handlePacket(payload, src)
		case isTimeout(err):
			// Sessiz dönem; tarama fırsatı.
		default:
			select {
			case <-stop:
				return
			default:
				d.log.Warn().Err(err).Msg("beacon okunamadı")
			}
		}

		if time.Since(lastSweep) >= d.opts.sweepInterval {
			d.sweep()
			lastSweep = time.Now()
		}
	}
}

// isTimeout, hatanın bir okuma zaman aşımı olup olmadığını döner.
func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

// handlePacket, tek bir gelen paketi işler.
func (d *Discovery) handlePacket(payload []byte, src *net.UDPAddr) {
	status, timestamp, ok := parseBeacon(payload)
	if !ok {
		return
	}

	addr := src.IP.String()

	d.mu.Lock()
	_, known := d.devices[addr]
	d.mu.Unlock()

	if !known {
		// Aday doğrulanmadan kayda girmez: zararsız bir probe gönderilir
		// ve herhangi bir yanıt beklenir. Yanıt gelmezse bir sonraki
		// beacon'da yeniden denenir.
		if !d.probe(src, timestamp) {
			d.log.Debug().Str("addr", addr).Msg("probe yanıtsız, kayıt ertelendi")
			return
		}
		d.log.Info().Str("addr", addr).Msg("yeni top doğrulandı")
	}

	rec := &DeviceRecord{
		Addr:      addr,
		LastSeen:  time.Now(),
		Status:    status,
		Timestamp: timestamp,
		Raw:       append([]byte(nil), payload...),
	}

	d.mu.Lock()
	d.devices[addr] = rec
	d.lastAddr = addr
	d.mu.Unlock()
}

// probe, adaya siyah renk komutu gönderir ve kısa bir süre herhangi bir
// yanıt bekler. Yanıtın içeriği önemsizdir; varlığı adresin gerçekten bir
// top olduğunu gösterir.
func (d *Discovery) probe(src *net.UDPAddr, timestamp [2]byte) bool {
	conn, err := net.DialUDP("udp4", nil, src)
	if err != nil {
		d.log.Warn().Err(err).Msg("probe soketi açılamadı")
		return false
	}
	defer conn.Close()

	if _, err := conn.Write(buildProbePacket(timestamp)); err != nil {
		return false
	}

	conn.SetReadDeadline(time.Now().Add(d.opts.receiveTimeout))
	buf := make([]byte, 256)
	_, err = conn.Read(buf)
	return err == nil
}

// sweep, canlılık eşiğini aşan sessiz topları tablodan düşürür ve
// yapılandırılmışsa kayıp callback'ini çağırır.
func (d *Discovery) sweep() {
	cutoff := time.Now().Add(-d.opts.livenessTimeout)

	var lost []DeviceRecord
	d.mu.Lock()
	for addr, rec := range d.devices {
		if rec.LastSeen.Before(cutoff) {
			lost = append(lost, rec.clone())
			delete(d.devices, addr)
			if d.lastAddr == addr {
				d.lastAddr = ""
			}
		}
	}
	d.mu.Unlock()

	for _, rec := range lost {
		d.log.Info().Str("addr", rec.Addr).Time("son", rec.LastSeen).Msg("top kaybedildi")
		if d.opts.onDeviceLost != nil {
			d.opts.onDeviceLost(rec)
		}
	}
}
