package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/railpoint/railpoint/upi"
)

var rootCmd = &cobra.Command{
	Use:   "rpcli",
	Short: "rpcli can help you inspect and mint UPIs",
	Long:  "rpcli can help you inspect and mint UPIs without a running server",
}

func authority() (*upi.Authority, error) {
	secret := os.Getenv("UPI_SECRET_KEY")
	if secret == "" {
		return nil, fmt.Errorf("UPI_SECRET_KEY must be set")
	}
	return upi.AuthorityFromConfigValue(secret)
}

var decodeCmd = &cobra.Command{
	Use:   "decode <upi>",
	Short: "decode splits a UPI into its segments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parts, err := upi.Decode(upi.Normalize(args[0]))
		if err != nil {
			return err
		}
		fmt.Printf("namespace:     %s\n", parts.Namespace)
		fmt.Printf("payment index: %d\n", parts.PaymentIndex)
		fmt.Printf("core segment:  %s\n", parts.CoreSegment)
		fmt.Printf("signature:     %s\n", parts.Signature)
		return nil
	},
}

var (
	issueOwner uint
	issueIndex int
	issueTag   string
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "issue derives a UPI for an owner, core entity tag and payment index",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := authority()
		if err != nil {
			return err
		}
		issuer := &upi.Issuer{Authority: a}
		tag := issueTag
		if tag == "" {
			if tag, err = upi.GenerateCoreEntityTag(); err != nil {
				return err
			}
		}
		identifier, err := issuer.Issue(issueOwner, tag, issueIndex)
		if err != nil {
			return err
		}
		fmt.Printf("core entity tag: %s\n", tag)
		fmt.Printf("upi:             %s\n", identifier)
		return nil
	},
}

var verifyOwner uint

var verifyCmd = &cobra.Command{
	Use:   "verify <upi>",
	Short: "verify checks the signature and, optionally, the owner namespace of a UPI",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := authority()
		if err != nil {
			return err
		}
		parts, err := upi.Decode(upi.Normalize(args[0]))
		if err != nil {
			return err
		}
		if !a.VerifySignature(parts) {
			return fmt.Errorf("signature mismatch")
		}
		if cmd.Flags().Changed("owner") && parts.Namespace != a.NamespaceFor(verifyOwner) {
			return fmt.Errorf("namespace does not belong to owner %d", verifyOwner)
		}
		fmt.Println("ok")
		return nil
	},
}

func main() {
	issueCmd.Flags().UintVar(&issueOwner, "owner", 0, "internal owner id")
	issueCmd.Flags().IntVar(&issueIndex, "index", 0, "payment index (0-99)")
	issueCmd.Flags().StringVar(&issueTag, "tag", "", "core entity tag; random when omitted")
	_ = issueCmd.MarkFlagRequired("owner")
	verifyCmd.Flags().UintVar(&verifyOwner, "owner", 0, "internal owner id to check the namespace against")

	rootCmd.AddCommand(decodeCmd, issueCmd, verifyCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
