package cmd

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate RSA, DSA or EC keys",
	Long: `Generates a key pair through the backend and prints its numeric
components. Sizes and curves default to the configured values.`,
	RunE: runKeygen,
}

func init() {
	keygenCmd.Flags().String("type", "rsa", "key type (rsa, dsa, ec)")
	keygenCmd.Flags().Int("bits", 0, "key size in bits (rsa, dsa)")
	keygenCmd.Flags().String("curve", "", "curve name (ec)")
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(cmd *cobra.Command, args []string) error {
	keyType, _ := cmd.Flags().GetString("type")
	bits, _ := cmd.Flags().GetInt("bits")
	curve, _ := cmd.Flags().GetString("curve")

	b, cfg, err := newBackend()
	if err != nil {
		return err
	}

	switch keyType {
	case "rsa":
		if bits == 0 {
			bits = cfg.RSAKeySize
		}
		key, err := b.GenerateRSAPrivateKey(big.NewInt(cfg.RSAPublicExponent), bits)
		if err != nil {
			return err
		}
		defer key.Close()

		c, err := key.Components()
		if err != nil {
			return err
		}
		fmt.Printf("RSA private key (%d bits)\n", c.N.BitLen())
		fmt.Printf("  n = %x\n", c.N)
		fmt.Printf("  e = %d\n", c.E)
		fmt.Printf("  d = %x\n", c.D)
		fmt.Printf("  p = %x\n", c.P)
		fmt.Printf("  q = %x\n", c.Q)
		return nil

	case "dsa":
		if bits == 0 {
			bits = cfg.DSAKeySize
		}
		key, err := b.GenerateDSAPrivateKeyAndParameters(bits)
		if err != nil {
			return err
		}
		defer key.Close()

		params, err := key.Parameters()
		if err != nil {
			return err
		}
		y, x, err := key.Components()
		if err != nil {
			return err
		}
		fmt.Printf("DSA private key (%d bits)\n", params.P.BitLen())
		fmt.Printf("  p = %x\n", params.P)
		fmt.Printf("  q = %x\n", params.Q)
		fmt.Printf("  g = %x\n", params.G)
		fmt.Printf("  y = %x\n", y)
		fmt.Printf("  x = %x\n", x)
		return nil

	case "ec":
		if curve == "" {
			curve = cfg.DefaultCurve
		}
		key, err := b.GenerateECPrivateKey(curve)
		if err != nil {
			return err
		}
		defer key.Close()

		pub, err := key.PublicComponents()
		if err != nil {
			return err
		}
		d, err := key.PrivateValue()
		if err != nil {
			return err
		}
		fmt.Printf("EC private key on %s\n", pub.Curve)
		fmt.Printf("  x = %x\n", pub.X)
		fmt.Printf("  y = %x\n", pub.Y)
		fmt.Printf("  d = %x\n", d)
		return nil

	default:
		return fmt.Errorf("unknown key type %q (expected rsa, dsa or ec)", keyType)
	}
}
