package ltx

import (
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// ─── Oynatma Kontrolü ───────────────────────────────────────────────────────────
//
// Playback, play/stop tetik protokolünün istemci tarafı durum makinesidir.
// İki mantıksal durum vardır: Boşta ve Oynuyor. Protokol yalnızca paketin
// gönderildiğini doğrular; topun görsel durumunun gerçekten değiştiğine
// dair makine tarafından doğrulanabilir bir onay yoktur. Makine bu yüzden
// *varsayılan* durumu izler; kesinlik isteyen çağıranlar bunu insan veya
// harici görsel teyitle eşleştirmelidir.
//
// Tetik komutları topun son beacon'ından kopyalanan zaman damgası
// byte'larını yansıtmak zorundadır; bu nedenle Playback bir durum
// sağlayıcısına (tipik olarak Discovery) bağlıdır ve discovery çalışmadan
// tetik gönderilemez.

// StatusProvider, en güncel cihaz anlık görüntüsünü sağlayan kaynaktır.
// Discovery bu arayüzü sağlar; testler sahte sağlayıcı takabilir.
type StatusProvider interface {
	Snapshot() (DeviceRecord, bool)
}

// Playback, tetik ve renk komutlarını gönderen kontrolcüdür.
// Eşzamanlı kullanım için güvenlidir.
type Playback struct {
	opts   options
	log    zerolog.Logger
	status StatusProvider

	mu sync.Mutex

	// conn, broadcast gönderimleri için tembel açılan UDP soketidir.
	conn *net.UDPConn

	// nextPlayOpID, bir sonraki play komutunun op-id'sidir.
	// opIDReserved (0x00) hiçbir zaman kullanılmaz.
	nextPlayOpID byte

	// lastPlayingOpID, son başarılı play komutunun op-id'sidir.
	lastPlayingOpID byte
	hasLastPlaying  bool

	// assumedPlaying, son gönderimlere göre varsayılan oynatma durumudur.
	assumedPlaying bool
}

// NewPlayback, verilen durum sağlayıcısına bağlı yeni bir kontrolcü
// oluşturur.
//
//	ctl := ltx.NewPlayback(disc, ltx.WithLogger(logger))
//	defer ctl.Close()
func NewPlayback(status StatusProvider, opt ...Option) *Playback {
	opts := defaultOptions()
	for _, o := range opt {
		o(&opts)
	}
	return &Playback{
		opts:         opts,
		log:          opts.logger.With().Str("bileşen", "playback").Logger(),
		status:       status,
		nextPlayOpID: 0x01,
	}
}

// Close, gönderim soketini kapatır.
func (p *Playback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

// AssumedPlaying, son gönderimlere göre varsayılan oynatma durumunu döner.
func (p *Playback) AssumedPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assumedPlaying
}

// ConfirmStopped, harici (görsel) teyitle varsayılan durumu sıfırlar.
// Protokol onay vermediğinden, topun gerçekte durduğunu gözlemleyen
// çağıran bunu makineye bildirebilir.
func (p *Playback) ConfirmStopped() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.assumedPlaying = false
}

// ─── Tetik Komutları ────────────────────────────────────────────────────────────

// Play, yüklü programın oynatılmasını tetikler.
//
// Elde hiç cihaz anlık görüntüsü yoksa ErrNoDeviceStatus döner ve durum
// değişmez: zaman damgası yansıtılmayan komutu top sessizce yok sayacağı
// için paket hiç gönderilmez. Başarılı gönderimde durum Oynuyor'a geçer.
func (p *Playback) Play() error {
	rec, ok := p.status.Snapshot()
	if !ok {
		return ErrNoDeviceStatus
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var nonce [2]byte
	copy(nonce[:], newNonce(2))
	pkt := buildTriggerPacket(p.nextPlayOpID, nonce, rec.Timestamp)

	if err := p.send(pkt); err != nil {
		return err
	}

	p.lastPlayingOpID = p.nextPlayOpID
	p.hasLastPlaying = true
	p.assumedPlaying = true
	p.log.Info().Uint8("opID", p.nextPlayOpID).Msg("play gönderildi")
	return nil
}

// Stop, oynatmayı durdurma komutu gönderir. Op-id, son play op-id'sine
// sabit fark eklenerek üretilir. Anlık görüntü varsa zaman damgası
// yansıtılır; yoksa son byte'lar sıfır gönderilir (eski protokol varyantı —
// bazı firmware sürümleri stop için yansıtma istemez).
//
// Başarılı gönderimde varsayılan durum Boşta olur ve bir sonraki play
// op-id'si sabit artışla ilerletilir; ayrılmış 0x00 değeri atlanır.
func (p *Playback) Stop() error {
	var timestamp [2]byte
	if rec, ok := p.status.Snapshot(); ok {
		timestamp = rec.Timestamp
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	opID := p.lastPlayingOpID + opIDStopOffset
	var nonce [2]byte
	copy(nonce[:], newNonce(2))
	pkt := buildTriggerPacket(opID, nonce, timestamp)

	if err := p.send(pkt); err != nil {
		return err
	}

	p.assumedPlaying = false
	if p.hasLastPlaying {
		p.nextPlayOpID = p.lastPlayingOpID + opIDIncrement
		if p.nextPlayOpID == opIDReserved {
			p.nextPlayOpID++
		}
	}
	p.log.Info().Uint8("opID", opID).Uint8("sonraki", p.nextPlayOpID).Msg("stop gönderildi")
	return nil
}

// ─── Renk ve Parlaklık Komutları ────────────────────────────────────────────────

// SetColor, tüm pikselleri anlık olarak verilen renge çeker. Komut,
// UDP'nin best-effort doğasını telafi etmek için azalan öncelik önekiyle
// art arda birkaç kez gönderilir; alındı onayı yoktur.
func (p *Playback) SetColor(c RGB) error {
	rec, ok := p.status.Snapshot()
	if !ok {
		return ErrNoDeviceStatus
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < redundantSendCount; i++ {
		var nonce [2]byte
		copy(nonce[:], newNonce(2))
		pkt := buildColorPacket(byte(redundantSendCount-i), c, nonce, rec.Timestamp)
		if err := p.send(pkt); err != nil {
			return err
		}
	}
	p.log.Debug().Uint8("r", c.R).Uint8("g", c.G).Uint8("b", c.B).Msg("renk gönderildi")
	return nil
}

// SetBrightness, topun parlaklık seviyesini ayarlar. SetColor ile aynı
// yedekli gönderim uygulanır.
func (p *Playback) SetBrightness(level byte) error {
	rec, ok := p.status.Snapshot()
	if !ok {
		return ErrNoDeviceStatus
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < redundantSendCount; i++ {
		var nonce [2]byte
		copy(nonce[:], newNonce(2))
		pkt := buildBrightnessPacket(byte(redundantSendCount-i), level, nonce, rec.Timestamp)
		if err := p.send(pkt); err != nil {
			return err
		}
	}
	p.log.Debug().Uint8("seviye", level).Msg("parlaklık gönderildi")
	return nil
}

// ─── Gönderim ───────────────────────────────────────────────────────────────────

// send, paketi broadcast adresine yazar. Soket ilk kullanımda açılır ve
// kontrolcü kapatılana kadar açık tutulur. Gönderim fire-and-forget'tir;
// yanıt beklenmez. p.mu tutulurken çağrılır.
func (p *Playback) send(pkt []byte) error {
	if p.conn == nil {
		addr := &net.UDPAddr{
			IP:   net.ParseIP(p.opts.broadcastAddr),
			Port: p.opts.controlPort,
		}
		if addr.IP == nil {
			return fmt.Errorf("geçersiz broadcast adresi: %q", p.opts.broadcastAddr)
		}
		conn, err := net.DialUDP("udp4", nil, addr)
		if err != nil {
			return fmt.Errorf("komut soketi açılamadı: %w", err)
		}
		p.conn = conn
	}

	if _, err := p.conn.Write(pkt); err != nil {
		return fmt.Errorf("komut gönderilemedi: %w", err)
	}
	return nil
}
