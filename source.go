package ltx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// ─── Paket Kaynakları ───────────────────────────────────────────────────────────
//
// Discovery, beacon paketlerini bir PacketSource üzerinden okur. İki
// gerçekleme vardır:
//
//   - UDP kaynak: kontrol portuna bağlanan sıradan bir UDP soketi.
//     Ayrıcalık gerektirmez; varsayılan budur.
//   - Raw kaynak: tüm UDP trafiğini yakalayan ham IP soketi. UDP başlığı
//     elle ayrıştırılıp hedef portu kontrol portu olan paketler süzülür.
//     Kontrol portu başka bir süreç tarafından tutulduğunda işe yarar ama
//     yükseltilmiş ayrıcalık ister.
//
// İki kaynak da aynı sözleşmeyi sunar; Discovery hangisinin takılı olduğunu
// bilmez.

// PacketSource, discovery'nin ham beacon paketlerini okuduğu kaynaktır.
type PacketSource interface {
	// ReadPacket, deadline'a kadar tek bir paket okur ve payload ile
	// gönderenin adresini döner. Zaman aşımı net.Error (Timeout) olarak
	// döner; döngü bunu sessizce yutar.
	ReadPacket(deadline time.Time) (payload []byte, src *net.UDPAddr, err error)

	// Close, kaynağı kapatır. Bekleyen ReadPacket çağrıları hata ile döner.
	Close() error
}

// ─── UDP Kaynak ─────────────────────────────────────────────────────────────────

type udpSource struct {
	conn *net.UDPConn
	buf  []byte
}

// NewUDPPacketSource, kontrol portuna bağlı ayrıcalıksız bir paket kaynağı
// oluşturur.
func NewUDPPacketSource(port int) (PacketSource, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("UDP portu %d dinlenemedi: %w", port, err)
	}
	return &udpSource{conn: conn, buf: make([]byte, 2048)}, nil
}

func (s *udpSource) ReadPacket(deadline time.Time) ([]byte, *net.UDPAddr, error) {
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return nil, nil, err
	}
	n, src, err := s.conn.ReadFromUDP(s.buf)
	if err != nil {
		return nil, nil, err
	}
	payload := make([]byte, n)
	copy(payload, s.buf[:n])
	return payload, src, nil
}

func (s *udpSource) Close() error {
	return s.conn.Close()
}

// ─── Raw Kaynak ─────────────────────────────────────────────────────────────────

type rawSource struct {
	conn *net.IPConn
	port int
	buf  []byte
}

// NewRawPacketSource, tüm IPv4 UDP trafiğini yakalayan ham soket tabanlı
// bir kaynak oluşturur. Yükseltilmiş ayrıcalık (CAP_NET_RAW veya root)
// gerektirir; izin yoksa ErrSourceUnsupported döner.
func NewRawPacketSource(port int) (PacketSource, error) {
	conn, err := net.ListenIP("ip4:udp", &net.IPAddr{IP: net.IPv4zero})
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnsupported, err)
		}
		return nil, fmt.Errorf("raw soket açılamadı: %w", err)
	}
	return &rawSource{conn: conn, port: port, buf: make([]byte, 4096)}, nil
}

// ReadPacket, bir IP datagramı okur, 8 byte'lık UDP başlığını elle
// ayrıştırır ve yalnızca hedef portu kontrol portu olan paketleri geçirir.
//
// UDP Başlık Formatı (RFC 768, big-endian):
//
//	[0-1] kaynak port
//	[2-3] hedef port
//	[4-5] uzunluk (başlık dahil)
//	[6-7] checksum
func (s *rawSource) ReadPacket(deadline time.Time) ([]byte, *net.UDPAddr, error) {
	for {
		if err := s.conn.SetReadDeadline(deadline); err != nil {
			return nil, nil, err
		}
		n, src, err := s.conn.ReadFromIP(s.buf)
		if err != nil {
			return nil, nil, err
		}
		if n < 8 {
			continue
		}
		srcPort := int(binary.BigEndian.Uint16(s.buf[0:2]))
		dstPort := int(binary.BigEndian.Uint16(s.buf[2:4]))
		if dstPort != s.port {
			continue
		}
		payload := make([]byte, n-8)
		copy(payload, s.buf[8:n])
		return payload, &net.UDPAddr{IP: src.IP, Port: srcPort}, nil
	}
}

func (s *rawSource) Close() error {
	return s.conn.Close()
}
