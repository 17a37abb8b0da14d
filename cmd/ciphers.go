package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/castlebridge/go-cryptobackend/internal/types"
)

var ciphersCmd = &cobra.Command{
	Use:   "ciphers",
	Short: "List supported cipher and mode combinations",
	Long: `Probes the engine build for every cipher and mode combination the
backend knows how to request, including software fallbacks.`,
	RunE: runCiphers,
}

var digestsCmd = &cobra.Command{
	Use:   "digests",
	Short: "List supported digest algorithms",
	RunE:  runDigests,
}

var curvesCmd = &cobra.Command{
	Use:   "curves",
	Short: "List supported elliptic curves",
	RunE:  runCurves,
}

func init() {
	rootCmd.AddCommand(ciphersCmd, digestsCmd, curvesCmd)
}

type cipherSupport struct {
	Cipher    string `json:"cipher"`
	KeyBits   int    `json:"key_bits"`
	Mode      string `json:"mode"`
	Supported bool   `json:"supported"`
}

// probe key/IV material; the engine never runs, only resolves
var (
	probeKey16 = make([]byte, 16)
	probeKey24 = make([]byte, 24)
	probeKey32 = make([]byte, 32)
	probeIV8   = make([]byte, 8)
	probeIV16  = make([]byte, 16)
)

func probeCombinations() []struct {
	algorithm types.CipherAlgorithm
	mode      types.CipherMode
} {
	aes128, _ := types.NewAES(probeKey16)
	aes192, _ := types.NewAES(probeKey24)
	aes256, _ := types.NewAES(probeKey32)
	camellia, _ := types.NewCamellia(probeKey16)
	tripleDES, _ := types.NewTripleDES(probeKey24)
	blowfish, _ := types.NewBlowfish(probeKey16)
	cast5, _ := types.NewCAST5(probeKey16)
	idea, _ := types.NewIDEA(probeKey16)
	seed, _ := types.NewSEED(probeKey16)
	arc4, _ := types.NewARC4(probeKey16)

	var out []struct {
		algorithm types.CipherAlgorithm
		mode      types.CipherMode
	}
	add := func(a types.CipherAlgorithm, m types.CipherMode) {
		out = append(out, struct {
			algorithm types.CipherAlgorithm
			mode      types.CipherMode
		}{a, m})
	}

	for _, a := range []types.CipherAlgorithm{aes128, aes192, aes256, camellia, seed} {
		add(a, types.CBC{IV: probeIV16})
		add(a, types.ECB{})
		add(a, types.OFB{IV: probeIV16})
		add(a, types.CFB{IV: probeIV16})
	}
	for _, a := range []types.CipherAlgorithm{aes128, aes192, aes256} {
		add(a, types.CFB8{IV: probeIV16})
		add(a, types.CTR{Nonce: probeIV16})
		add(a, types.GCM{Nonce: probeIV16[:12]})
	}
	for _, a := range []types.CipherAlgorithm{tripleDES, blowfish, cast5, idea} {
		add(a, types.CBC{IV: probeIV8})
		add(a, types.ECB{})
		add(a, types.OFB{IV: probeIV8})
		add(a, types.CFB{IV: probeIV8})
	}
	add(arc4, types.NoMode{})
	return out
}

func runCiphers(cmd *cobra.Command, args []string) error {
	b, _, err := newBackend()
	if err != nil {
		return err
	}

	var rows []cipherSupport
	for _, combo := range probeCombinations() {
		mode := combo.mode.Name()
		if mode == "" {
			mode = "(stream)"
		}
		rows = append(rows, cipherSupport{
			Cipher:    combo.algorithm.Name(),
			KeyBits:   combo.algorithm.KeySize(),
			Mode:      mode,
			Supported: b.CipherSupported(combo.algorithm, combo.mode),
		})
	}

	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CIPHER\tKEY BITS\tMODE\tSUPPORTED")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%d\t%s\t%v\n", row.Cipher, row.KeyBits, row.Mode, row.Supported)
	}
	return w.Flush()
}

func runDigests(cmd *cobra.Command, args []string) error {
	b, _, err := newBackend()
	if err != nil {
		return err
	}

	digests := []types.HashAlgorithm{
		types.MD5, types.SHA1, types.SHA224, types.SHA256, types.SHA384, types.SHA512,
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DIGEST\tSIZE\tSUPPORTED")
	for _, d := range digests {
		fmt.Fprintf(w, "%s\t%d\t%v\n", d.Name(), d.DigestSize(), b.HashSupported(d))
	}
	return w.Flush()
}

func runCurves(cmd *cobra.Command, args []string) error {
	b, _, err := newBackend()
	if err != nil {
		return err
	}

	curves := []string{"secp192r1", "secp224r1", "secp256r1", "secp384r1", "secp521r1"}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CURVE\tSUPPORTED")
	for _, c := range curves {
		fmt.Fprintf(w, "%s\t%v\n", c, b.EllipticCurveSupported(c))
	}
	return w.Flush()
}
