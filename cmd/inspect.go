package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/castlebridge/go-cryptobackend/internal/backend"
	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect PEM key material",
	Long: `Loads a PEM private or public key through the backend and reports
its algorithm family and size. Encrypted keys need --password.`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().String("in", "", "path to the PEM file")
	inspectCmd.Flags().String("password", "", "password for encrypted private keys")
	inspectCmd.Flags().Bool("public", false, "treat the input as a public key")
	inspectCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("in")
	password, _ := cmd.Flags().GetString("password")
	public, _ := cmd.Flags().GetBool("public")

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	b, _, err := newBackend()
	if err != nil {
		return err
	}

	if public {
		key, err := b.LoadPEMPublicKey(data)
		if err != nil {
			return err
		}
		defer key.Close()
		return describePublicKey(key)
	}

	key, err := b.LoadPEMPrivateKey(data, []byte(password))
	if err != nil {
		return err
	}
	defer key.Close()
	return describePrivateKey(key)
}

func describePrivateKey(key interfaces.PrivateKey) error {
	switch k := key.(type) {
	case *backend.RSAPrivateKey:
		bits, err := k.KeySize()
		if err != nil {
			return err
		}
		fmt.Printf("RSA private key, %d bits\n", bits)
	case *backend.DSAPrivateKey:
		bits, err := k.KeySize()
		if err != nil {
			return err
		}
		fmt.Printf("DSA private key, %d bits\n", bits)
	case *backend.ECPrivateKey:
		fmt.Printf("EC private key on %s, %d bits\n", k.Curve(), k.KeySize())
	default:
		fmt.Printf("%s private key\n", key.Kind())
	}
	return nil
}

func describePublicKey(key interfaces.PublicKey) error {
	switch k := key.(type) {
	case *backend.RSAPublicKey:
		bits, err := k.KeySize()
		if err != nil {
			return err
		}
		fmt.Printf("RSA public key, %d bits\n", bits)
	case *backend.DSAPublicKey:
		params, err := k.Parameters()
		if err != nil {
			return err
		}
		fmt.Printf("DSA public key, %d bits\n", params.P.BitLen())
	case *backend.ECPublicKey:
		fmt.Printf("EC public key on %s, %d bits\n", k.Curve(), k.KeySize())
	default:
		fmt.Printf("%s public key\n", key.Kind())
	}
	return nil
}
