package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	ltx "github.com/tjthejuggler/ltx-guru-sub002"
)

// newCompileCmd, JSON dizi şemasını .prg dosyasına derler.
func newCompileCmd(app *appContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "compile <sequence.json>",
		Short: "Compile a JSON sequence into a .prg file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := ltx.LoadSequence(args[0])
			if err != nil {
				return err
			}

			buf, err := ltx.EncodeSequenceFile(sf)
			if err != nil {
				return err
			}

			if output == "" {
				output = strings.TrimSuffix(args[0], ".json") + ".prg"
			}
			if err := os.WriteFile(output, buf, 0o644); err != nil {
				return fmt.Errorf("çıktı yazılamadı: %w", err)
			}

			cmd.Printf("%s: %d byte yazıldı\n", output, len(buf))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "çıktı dosyası (varsayılan: girdinin .prg hali)")
	return cmd
}

// newInspectCmd, bir .prg dosyasının yapısal özetini yazdırır.
func newInspectCmd(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.prg>",
		Short: "Print the structural summary of a .prg file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			info, err := ltx.DecodePrg(data)
			if err != nil {
				return err
			}

			cmd.Printf("dosya:        %s (%d byte)\n", args[0], len(data))
			cmd.Printf("piksel:       %d\n", info.Pixels)
			cmd.Printf("tazeleme:     %d birim/s\n", info.RefreshRate)
			cmd.Printf("segment:      %d\n", info.SegmentCount)
			cmd.Printf("toplam süre:  %d birim\n", info.TotalDuration())
			cmd.Printf("alan A/B:     %d / %d\n", info.FieldA, info.FieldB)
			for i, seg := range info.Segments {
				cmd.Printf("  %3d: %5d birim  #%02x%02x%02x\n",
					i, seg.DurationUnits, seg.Color.R, seg.Color.G, seg.Color.B)
			}
			return nil
		},
	}
}
