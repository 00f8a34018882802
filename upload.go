package ltx

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ─── Dosya Yükleme ──────────────────────────────────────────────────────────────
//
// Bu dosya, kodlanmış bir .prg buffer'ını topa TCP üzerinden aktarma
// işlevlerini içerir. Aktarım tek yönlü bir çerçeveleme kullanır:
//
//	[4B]  sıfır
//	[4B]  bildirilen payload boyutu (u32 LE)
//	[4B]  rastgele nonce
//	[3B]  sabit sonek: 0x05 0x0f 0x01
//	[1B]  null
//	[NB]  ASCII dosya adı
//	[1B]  null
//	[MB]  kodlanmış .prg payload'ı
//
// Tüm veri yazıldıktan sonra yazma tarafı yarı kapatılır (half-close).
// Topun kendi tarafını kapatması (EOF) yüklemenin alındı onayıdır. EOF
// görülmeden okuma zaman aşımına uğrarsa bu kesin bir başarısızlık değil,
// kurtarılabilir bir belirsizliktir: yükleme yerine ulaşmış olabilir.

// uploadSuffix, çerçeve önekinin sabit 3 byte'lık sonekidir.
var uploadSuffix = []byte{0x05, 0x0f, 0x01}

// uploadChunkSize, payload'ın kaç byte'lık parçalar halinde yazılacağıdır.
// Yalnızca ilerleme raporlamasının ayrıntı düzeyini belirler.
const uploadChunkSize = 4096

// Uploader, toplara .prg yükleyen istemcidir. Durum taşımaz; aynı anda
// birden fazla goroutine'den kullanılabilir.
type Uploader struct {
	opts options
	log  zerolog.Logger
}

// NewUploader, yeni bir Uploader oluşturur.
//
//	up := ltx.NewUploader(
//	    ltx.WithTimeout(5*time.Second),
//	    ltx.WithProgressFunc(func(p ltx.UploadProgress) {
//	        fmt.Printf("%s: %.0f%%\n", p.FileName, p.Percent)
//	    }),
//	)
func NewUploader(opt ...Option) *Uploader {
	opts := defaultOptions()
	for _, o := range opt {
		o(&opts)
	}
	return &Uploader{
		opts: opts,
		log:  opts.logger.With().Str("bileşen", "uploader").Logger(),
	}
}

// Upload, payload'ı belirtilen dosya adıyla topa aktarır. addr, topun IP
// adresidir (port seçeneklerden gelir).
//
// Dönen hatalar: bağlantı/yazma hataları taşıma hatasıdır; EOF yerine
// okuma zaman aşımı ErrUploadUnconfirmed döner ve yeniden denenebilir.
func (u *Uploader) Upload(addr, fileName string, payload []byte) error {
	session := uuid.New().String()
	log := u.log.With().Str("oturum", session).Str("dosya", fileName).Logger()

	target := net.JoinHostPort(addr, fmt.Sprintf("%d", u.opts.uploadPort))
	conn, err := net.DialTimeout("tcp", target, u.opts.timeout)
	if err != nil {
		return fmt.Errorf("topa bağlanılamadı (%s): %w", target, err)
	}
	defer conn.Close()

	log.Debug().Int("boyut", len(payload)).Str("hedef", target).Msg("yükleme başlıyor")

	conn.SetWriteDeadline(time.Now().Add(u.opts.timeout))
	if err := writeUploadFrame(conn, fileName, payload, u.progressFunc(fileName, len(payload))); err != nil {
		return fmt.Errorf("yükleme çerçevesi gönderilemedi: %w", err)
	}

	// Yazma tarafını yarı kapat: top EOF görünce dosyayı işler.
	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.CloseWrite(); err != nil {
			return fmt.Errorf("yazma tarafı kapatılamadı: %w", err)
		}
	}

	// Onay = topun kendi tarafını kapatması.
	conn.SetReadDeadline(time.Now().Add(u.opts.timeout))
	buf := make([]byte, 64)
	for {
		_, err := conn.Read(buf)
		if err == io.EOF {
			log.Info().Msg("yükleme onaylandı (EOF)")
			return nil
		}
		if err != nil {
			if isTimeout(err) {
				log.Warn().Msg("EOF beklenirken zaman aşımı; yükleme belirsiz")
				return ErrUploadUnconfirmed
			}
			return fmt.Errorf("onay beklenirken hata: %w", err)
		}
		// Bazı firmware sürümleri kapanıştan önce birkaç byte döker;
		// içeriği önemsizdir, EOF'a kadar okumaya devam edilir.
	}
}

// UploadFile, diskteki bir .prg dosyasını topa aktarır. Dosya adı olarak
// yolun son bileşeni kullanılır.
func (u *Uploader) UploadFile(addr, path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("dosya okunamadı: %w", err)
	}
	return u.Upload(addr, filepath.Base(path), payload)
}

// UploadSequence, derlenmiş bir diziyi kodlayıp doğrudan topa aktarır.
// Dosya adı verilmezse oturum kimliğinden üretilir.
func (u *Uploader) UploadSequence(addr string, seq *CompiledSequence, fileName string) error {
	payload, err := Encode(seq)
	if err != nil {
		return err
	}
	if fileName == "" {
		fileName = uuid.New().String()[:8] + ".prg"
	}
	return u.Upload(addr, fileName, payload)
}

// progressFunc, her parça yazımından sonra çağrılacak ilerleme bildirme
// fonksiyonunu döner; callback yapılandırılmamışsa nil döner.
func (u *Uploader) progressFunc(fileName string, total int) func(sent int64) {
	if u.opts.onProgress == nil {
		return nil
	}
	return func(sent int64) {
		u.opts.onProgress(UploadProgress{
			FileName:   fileName,
			TotalBytes: int64(total),
			SentBytes:  sent,
			Percent:    float64(sent) / float64(total) * 100,
		})
	}
}

// writeUploadFrame, yükleme çerçevesini w'ye yazar. Çerçeve düzeni bu
// dosyanın başındaki diyagramdadır.
func writeUploadFrame(w io.Writer, fileName string, payload []byte, progress func(int64)) error {
	if err := writeUploadPrefix(w, uint32(len(payload))); err != nil {
		return err
	}

	name := append(append([]byte{0x00}, []byte(fileName)...), 0x00)
	if _, err := w.Write(name); err != nil {
		return err
	}

	var sent int64
	for off := 0; off < len(payload); off += uploadChunkSize {
		end := off + uploadChunkSize
		if end > len(payload) {
			end = len(payload)
		}
		n, err := w.Write(payload[off:end])
		if err != nil {
			return err
		}
		sent += int64(n)
		if progress != nil {
			progress(sent)
		}
	}
	return nil
}

// writeUploadPrefix, 15 byte'lık dinamik öneki yazar:
// 4 sıfır, bildirilen boyut (u32 LE), 4 rastgele nonce, sabit sonek.
func writeUploadPrefix(w io.Writer, size uint32) error {
	prefix := make([]byte, 0, 15)
	prefix = append(prefix, 0x00, 0x00, 0x00, 0x00)
	prefix = append(prefix,
		byte(size), byte(size>>8), byte(size>>16), byte(size>>24))
	prefix = append(prefix, newNonce(4)...)
	prefix = append(prefix, uploadSuffix...)

	if len(prefix) != 15 {
		// Önek boyutu protokol sabitidir; buraya düşmek programlama hatasıdır.
		return errors.New("ltx: geçersiz önek boyutu")
	}
	_, err := w.Write(prefix)
	return err
}
