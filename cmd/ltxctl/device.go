package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	ltx "github.com/tjthejuggler/ltx-guru-sub002"
)

// waitForBall, discovery'yi başlatır ve ilk doğrulanmış top görünene kadar
// (en çok wait süresi) bekler. Çağıran dönen discovery'yi durdurmalıdır.
func waitForBall(app *appContext, wait time.Duration) (*ltx.Discovery, ltx.DeviceRecord, error) {
	disc := ltx.NewDiscovery(app.options()...)
	if err := disc.Start(); err != nil {
		return nil, ltx.DeviceRecord{}, err
	}

	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		if rec, ok := disc.Snapshot(); ok {
			return disc, rec, nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	disc.Stop()
	return nil, ltx.DeviceRecord{}, fmt.Errorf("%s içinde top bulunamadı", wait)
}

func newDiscoverCmd(app *appContext) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Listen for ball beacons and list discovered balls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			disc := ltx.NewDiscovery(app.options()...)
			if err := disc.Start(); err != nil {
				return err
			}
			defer disc.Stop()

			time.Sleep(wait)

			devices := disc.Devices()
			if len(devices) == 0 {
				return fmt.Errorf("%s içinde top bulunamadı", wait)
			}
			for _, rec := range devices {
				cmd.Printf("%-15s durum=0x%02x son=%s\n",
					rec.Addr, rec.Status, rec.LastSeen.Format(time.TimeOnly))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 5*time.Second, "beacon dinleme süresi")
	return cmd
}

func newUploadCmd(app *appContext) *cobra.Command {
	var addr string
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "upload <file.prg>",
		Short: "Upload a .prg file to a ball",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				disc, rec, err := waitForBall(app, wait)
				if err != nil {
					return err
				}
				defer disc.Stop()
				addr = rec.Addr
			}

			opts := append(app.options(), ltx.WithProgressFunc(func(p ltx.UploadProgress) {
				cmd.Printf("\r%s: %3.0f%%", p.FileName, p.Percent)
			}))
			up := ltx.NewUploader(opts...)
			if err := up.UploadFile(addr, args[0]); err != nil {
				cmd.Println()
				return err
			}
			cmd.Printf("\n%s -> %s tamam\n", args[0], addr)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "hedef topun IP adresi (boşsa keşfedilir)")
	cmd.Flags().DurationVar(&wait, "wait", 5*time.Second, "keşif bekleme süresi")
	return cmd
}

// runTrigger, play ve stop komutlarının ortak akışıdır: top bulunur,
// kontrolcü kurulur ve verilen tetik gönderilir.
func runTrigger(app *appContext, wait time.Duration, fn func(*ltx.Playback) error) error {
	disc, _, err := waitForBall(app, wait)
	if err != nil {
		return err
	}
	defer disc.Stop()

	ctl := ltx.NewPlayback(disc, app.options()...)
	defer ctl.Close()
	return fn(ctl)
}

func newPlayCmd(app *appContext) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Trigger playback of the uploaded program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrigger(app, wait, func(ctl *ltx.Playback) error {
				if err := ctl.Play(); err != nil {
					return err
				}
				cmd.Println("play gönderildi (görsel teyit gerekir)")
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 5*time.Second, "keşif bekleme süresi")
	return cmd
}

func newStopCmd(app *appContext) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop playback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrigger(app, wait, func(ctl *ltx.Playback) error {
				if err := ctl.Stop(); err != nil {
					return err
				}
				cmd.Println("stop gönderildi")
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 5*time.Second, "keşif bekleme süresi")
	return cmd
}

func newColorCmd(app *appContext) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "color <r> <g> <b>",
		Short: "Set all pixels to a solid color immediately",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rgb [3]uint8
			for i, arg := range args {
				val, err := strconv.ParseUint(arg, 10, 8)
				if err != nil {
					return fmt.Errorf("geçersiz renk bileşeni %q: %w", arg, err)
				}
				rgb[i] = uint8(val)
			}

			return runTrigger(app, wait, func(ctl *ltx.Playback) error {
				return ctl.SetColor(ltx.RGB{R: rgb[0], G: rgb[1], B: rgb[2]})
			})
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 5*time.Second, "keşif bekleme süresi")
	return cmd
}
