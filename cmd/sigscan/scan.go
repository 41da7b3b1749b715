package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/brahma-adshonor/sigpatch"
)

func newScanCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Register a catalog against an image and print the resolved signatures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, v)
		},
	}

	cmd.Flags().String("catalog", "", "signature catalog (yaml)")
	cmd.Flags().String("image", "", "executable image to scan")
	cmd.Flags().String("base", "", "load address, defaults to the image's preferred base")
	cmd.Flags().Bool("all", false, "also list every match of each pattern")
	_ = v.BindPFlags(cmd.Flags())

	return cmd
}

func runScan(cmd *cobra.Command, v *viper.Viper) error {
	catalogPath, imagePath := v.GetString("catalog"), v.GetString("image")
	if catalogPath == "" || imagePath == "" {
		return errors.New("both --catalog and --image are required")
	}

	base, err := parseAddress(v.GetString("base"))
	if err != nil {
		return err
	}

	cat, err := sigpatch.LoadCatalogFile(catalogPath)
	if err != nil {
		return err
	}
	im, err := sigpatch.LoadImage(imagePath, base)
	if err != nil {
		return err
	}

	mod := im.Module()
	reg := sigpatch.NewRegistry(im, mod)
	if err := reg.RegisterAll(cat); err != nil {
		var nf *sigpatch.NotFoundError
		if errors.As(err, &nf) {
			return fmt.Errorf("%s does not look like a supported build: %w", im.Name, err)
		}
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	syms := im.Symbols()
	fmt.Fprintln(w, "NAME\tADDRESS\tRVA\tSYMBOL\tORIGINAL")
	for _, sig := range reg.Signatures() {
		sym := "-"
		if _, ok := syms.Lookup(sig.Address()); ok {
			sym = syms.Describe(sig.Address())
		}
		fmt.Fprintf(w, "%s\t%s\t%#x\t%s\t%s\n", sig.Name(), sig.Address(), uint64(sig.Address()-mod.Base), sym, hex.EncodeToString(sig.Original()))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !v.GetBool("all") {
		return nil
	}

	for _, def := range cat {
		p, err := sigpatch.CompilePattern(def.Pattern)
		if err != nil {
			return err
		}
		matches, err := sigpatch.ScanModuleAll(im, mod, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d matches\n", def.Name, len(matches))
		for i, m := range matches {
			fmt.Fprintf(cmd.OutOrStdout(), "  [%d] %s\n", i, m)
		}
	}
	return nil
}
