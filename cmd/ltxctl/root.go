package main

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	ltx "github.com/tjthejuggler/ltx-guru-sub002"
)

const version = "0.3.0"

// newRootCmd, ltxctl kök komutunu oluşturur. Tüm alt komutlar bayrak ve
// ortam değişkeni (LTX_*) üzerinden yapılandırılır; etkileşimli menü veya
// soru-cevap akışı yoktur.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ltxctl",
		Short:         "LTX juggling ball tool: compile, upload and trigger .prg programs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "yapılandırma dosyası (varsayılan: $HOME/.ltxctl.yaml)")
	flags.Int("control-port", ltx.DefaultControlPort, "UDP kontrol/beacon portu")
	flags.Int("upload-port", ltx.DefaultUploadPort, "TCP yükleme portu")
	flags.Duration("timeout", ltx.DefaultTimeout, "TCP işlemleri için zaman aşımı")
	flags.String("broadcast", "255.255.255.255", "komut broadcast adresi")
	flags.BoolP("verbose", "v", false, "ayrıntılı log")

	v := viper.New()
	v.SetEnvPrefix("LTX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if cfg := v.GetString("config"); cfg != "" {
			v.SetConfigFile(cfg)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
		} else {
			if home, err := os.UserHomeDir(); err == nil {
				v.AddConfigPath(home)
				v.SetConfigName(".ltxctl")
				// Dosya yoksa sessizce devam edilir.
				_ = v.ReadInConfig()
			}
		}
		return nil
	}

	app := &appContext{v: v}

	rootCmd.AddCommand(
		newCompileCmd(app),
		newInspectCmd(app),
		newDiscoverCmd(app),
		newUploadCmd(app),
		newPlayCmd(app),
		newStopCmd(app),
		newColorCmd(app),
		newVersionCmd(),
	)

	return rootCmd
}

// appContext, alt komutların paylaştığı yapılandırma erişimidir.
type appContext struct {
	v *viper.Viper
}

// logger, verbose bayrağına göre konsol logger'ı döner.
func (a *appContext) logger() zerolog.Logger {
	level := zerolog.WarnLevel
	if a.v.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// options, yapılandırmadan kütüphane seçeneklerini üretir.
func (a *appContext) options() []ltx.Option {
	return []ltx.Option{
		ltx.WithControlPort(a.v.GetInt("control-port")),
		ltx.WithUploadPort(a.v.GetInt("upload-port")),
		ltx.WithTimeout(a.v.GetDuration("timeout")),
		ltx.WithBroadcastAddr(a.v.GetString("broadcast")),
		ltx.WithLogger(a.logger()),
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println("ltxctl " + version)
			return nil
		},
	}
}
