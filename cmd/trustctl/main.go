package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/quantumpoly/trustcore/internal/attestation"
	"github.com/quantumpoly/trustcore/internal/identity"
	"github.com/quantumpoly/trustcore/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	serverURL string
	roleToken string
	cfgFile   string
	format    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "trustctl",
	Short: "Governance trust and attestation CLI",
	Long: `trustctl is the operator command-line interface for a trustd instance.

It verifies the governance ledger, inspects federation trust, and manages
the artifact attestation lifecycle.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.trustctl")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serverURL == "" {
			serverURL = viper.GetString("server_url")
		}
		if serverURL == "" {
			serverURL = "http://localhost:8080"
		}
		if roleToken == "" {
			roleToken = viper.GetString("role_token")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.trustctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "trustd base URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&roleToken, "token", "", "governance role session token")
	rootCmd.PersistentFlags().StringVar(&format, "format", "text", "output format: text or json")

	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(federationCmd)
	rootCmd.AddCommand(attestCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)

	ledgerCmd.AddCommand(ledgerVerifyCmd)
	ledgerCmd.AddCommand(ledgerShowCmd)
	federationCmd.AddCommand(federationStatusCmd)
	attestCmd.AddCommand(attestIssueCmd)
	attestCmd.AddCommand(attestVerifyCmd)
	attestCmd.AddCommand(attestRevokeCmd)
}

func newClient() *client.Client {
	opts := []client.Option{}
	if roleToken != "" {
		opts = append(opts, client.WithRoleToken(roleToken))
	}
	return client.New(serverURL, opts...)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── ledger ───────────────────────────────────────────────────────────────────

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and verify the governance ledger",
}

var ledgerVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the full governance ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := newClient().VerifyLedger(context.Background())
		if err != nil {
			return err
		}
		if format == "json" {
			return printJSON(report)
		}

		fmt.Printf("entries:      %d\n", report.TotalEntries)
		fmt.Printf("merkle root:  %s\n", report.MerkleRoot)
		fmt.Printf("last update:  %s\n", report.LastUpdate)
		if report.Verified {
			fmt.Println("status:       VERIFIED")
			return nil
		}
		fmt.Printf("status:       FAILED (%d mismatches)\n", len(report.Mismatches))
		for _, m := range report.Mismatches {
			fmt.Printf("  entry %d (%s): stored %s != computed %s\n",
				m.Index, m.RecordID, m.Stored, m.Computed)
		}
		os.Exit(1)
		return nil
	},
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show <index>",
	Short: "Show a single ledger entry by index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var idx int
		if _, err := fmt.Sscanf(args[0], "%d", &idx); err != nil || idx < 0 {
			return fmt.Errorf("index must be a non-negative integer")
		}
		entry, err := newClient().LedgerEntry(context.Background(), idx)
		if err != nil {
			return err
		}
		return printJSON(entry)
	},
}

// ── federation ───────────────────────────────────────────────────────────────

var federationCmd = &cobra.Command{
	Use:   "federation",
	Short: "Inspect federation peer trust",
}

var federationStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the network trust summary and per-partner results",
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, partners, err := newClient().NetworkTrust(context.Background())
		if err != nil {
			return err
		}
		if format == "json" {
			return printJSON(map[string]any{"summary": summary, "partners": partners})
		}

		fmt.Printf("network health:  %s (score %d)\n", summary.HealthStatus, summary.TrustScore)
		fmt.Printf("aggregate root:  %s\n", summary.NetworkMerkleAggregate)
		fmt.Printf("partners:        %d total, %d valid, %d stale, %d flagged, %d error\n",
			summary.TotalPartners, summary.ValidPartners, summary.StalePartners,
			summary.FlaggedPartners, summary.ErrorPartners)
		if summary.Notes != "" {
			fmt.Printf("notes:           %s\n", summary.Notes)
		}
		if len(partners) == 0 {
			return nil
		}

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PARTNER\tSTATUS\tLAST VERIFIED\tMERKLE ROOT")
		for _, p := range partners {
			root := p.LastMerkleRoot
			if len(root) > 16 {
				root = root[:16] + "…"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.PartnerID, p.TrustStatus, p.LastVerifiedAt, root)
		}
		return w.Flush()
	},
}

// ── attest ───────────────────────────────────────────────────────────────────

var attestCmd = &cobra.Command{
	Use:   "attest",
	Short: "Manage artifact attestations",
}

var (
	attestArtifactPath string
	attestLedgerRef    string
	attestExpiryDays   int
	attestReason       string
)

func init() {
	attestIssueCmd.Flags().StringVar(&attestArtifactPath, "artifact", "", "path to the artifact file (required)")
	attestIssueCmd.Flags().StringVar(&attestLedgerRef, "ledger-ref", "", "governance ledger record this attestation references")
	attestIssueCmd.Flags().IntVar(&attestExpiryDays, "expiry-days", 0, "proof lifetime in days (0 = server default)")
	attestIssueCmd.MarkFlagRequired("artifact") //nolint:errcheck

	attestVerifyCmd.Flags().StringVar(&attestArtifactPath, "artifact", "", "path to the current artifact; its digest is checked against the proof")

	attestRevokeCmd.Flags().StringVar(&attestReason, "reason", "", "reason for revocation (required)")
	attestRevokeCmd.MarkFlagRequired("reason") //nolint:errcheck
}

var attestIssueCmd = &cobra.Command{
	Use:   "issue <artifact-id>",
	Short: "Issue an attestation proof for an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		artifact, err := os.ReadFile(attestArtifactPath)
		if err != nil {
			return fmt.Errorf("read artifact: %w", err)
		}
		proof, err := newClient().IssueAttestation(context.Background(), args[0], artifact, attestLedgerRef, attestExpiryDays)
		if err != nil {
			return err
		}
		if format == "json" {
			return printJSON(proof)
		}
		fmt.Printf("attestation issued for %s\n", proof.ArtifactID)
		fmt.Printf("  hash:     %s\n", proof.ArtifactHash)
		fmt.Printf("  token:    %s\n", proof.Token)
		fmt.Printf("  expires:  %s\n", proof.ExpiresAt)
		return nil
	},
}

var attestVerifyCmd = &cobra.Command{
	Use:   "verify <artifact-id>",
	Short: "Verify the attestation status of an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash := ""
		if attestArtifactPath != "" {
			artifact, err := os.ReadFile(attestArtifactPath)
			if err != nil {
				return fmt.Errorf("read artifact: %w", err)
			}
			hash = attestation.HashArtifact(artifact)
		}
		result, err := newClient().VerifyAttestation(context.Background(), args[0], hash)
		if err != nil {
			return err
		}
		if format == "json" {
			return printJSON(result)
		}
		fmt.Printf("artifact:  %s\n", result.ArtifactID)
		fmt.Printf("status:    %s\n", result.Status)
		if result.Notes != "" {
			fmt.Printf("notes:     %s\n", result.Notes)
		}
		if result.Status != "valid" {
			os.Exit(1)
		}
		return nil
	},
}

var attestRevokeCmd = &cobra.Command{
	Use:   "revoke <artifact-id>",
	Short: "Revoke an attestation proof (authorized roles only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		revocation, err := newClient().RevokeAttestation(context.Background(), args[0], attestReason)
		if err != nil {
			return err
		}
		if format == "json" {
			return printJSON(revocation)
		}
		fmt.Printf("attestation for %s revoked at %s\n", revocation.ArtifactID, revocation.RevokedAt)
		return nil
	},
}

// ── token ────────────────────────────────────────────────────────────────────

var (
	tokenOperator string
	tokenRole     string
	tokenSecret   string
	tokenIssuer   string
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a governance role session token",
	Long: `Mint a signed role session token for use with issue and revoke
operations. The signing secret must match the trustd instance's
auth.token_secret.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenSecret == "" {
			tokenSecret = viper.GetString("token_secret")
		}
		if tokenSecret == "" {
			return fmt.Errorf("--secret is required (or token_secret in config)")
		}
		issuer := identity.NewRoleTokenIssuer([]byte(tokenSecret), tokenIssuer, tokenTTL)
		token, err := issuer.Issue(tokenOperator, tokenRole)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenOperator, "operator", "", "operator identity (required)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "", "governance role, e.g. governance-officer (required)")
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "HS256 signing secret shared with trustd")
	tokenCmd.Flags().StringVar(&tokenIssuer, "issuer", "http://localhost:8080", "issuer URL; must match trustd.issuer_url")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 8*time.Hour, "token lifetime")
	tokenCmd.MarkFlagRequired("operator") //nolint:errcheck
	tokenCmd.MarkFlagRequired("role")     //nolint:errcheck
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the trustctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("trustctl", version)
	},
}
