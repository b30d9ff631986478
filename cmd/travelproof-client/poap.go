package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	travelModels "travelproof/internal/travel/models"
)

func mintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a proof-of-travel POAP for a country",
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend, wallet, err := backendAndWallet(cmd)
			if err != nil {
				return err
			}
			country, _ := cmd.Flags().GetString(countryFlagName)
			code, _ := cmd.Flags().GetString(countryCodeFlagName)
			lat, _ := cmd.Flags().GetFloat64(latFlagName)
			lng, _ := cmd.Flags().GetFloat64(lngFlagName)

			ctx, cancel := commandContext(cmd)
			defer cancel()

			claim := travelModels.TravelClaim{
				WalletAddress: wallet,
				Country:       country,
				CountryCode:   code,
				Coordinates:   []float64{lat, lng},
			}
			resp, status, err := newAPIClient(backend, nil).Mint(ctx, claim)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !resp.Success {
				if resp.Error != "" {
					return fmt.Errorf("mint rejected (%d): %s: %s", status, resp.Message, resp.Error)
				}
				return fmt.Errorf("mint rejected (%d): %s", status, resp.Message)
			}
			fmt.Fprintf(out, "%s\n", resp.Message)
			if p := resp.PoapData; p != nil {
				fmt.Fprintf(out, "poap id:    %s\n", p.ID)
				fmt.Fprintf(out, "country:    %s (%s)\n", p.Country, p.CountryCode)
				fmt.Fprintf(out, "tx hash:    %s\n", p.TxHash)
				fmt.Fprintf(out, "minted at:  %s\n", p.MintedAt.Format("2006-01-02 15:04:05 MST"))
			}
			return nil
		},
	}
	cmd.Flags().String(countryFlagName, "", "Country name")
	cmd.Flags().String(countryCodeFlagName, "", "ISO country code")
	cmd.Flags().Float64(latFlagName, 0, "Latitude in decimal degrees")
	cmd.Flags().Float64(lngFlagName, 0, "Longitude in decimal degrees")
	_ = cmd.MarkFlagRequired(countryFlagName)
	_ = cmd.MarkFlagRequired(countryCodeFlagName)
	_ = cmd.MarkFlagRequired(latFlagName)
	_ = cmd.MarkFlagRequired(lngFlagName)
	return cmd
}

func visitedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visited [country-code]",
		Short: "List visited countries, or check one country",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, wallet, err := backendAndWallet(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			client := newAPIClient(backend, nil)
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				resp, err := client.HasVisited(ctx, wallet, strings.ToUpper(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s visited %s: %t\n", resp.WalletAddress, resp.CountryCode, resp.Visited)
				return nil
			}

			resp, err := client.Visited(ctx, wallet)
			if err != nil {
				return err
			}
			if len(resp.Countries) == 0 {
				fmt.Fprintln(out, "no countries visited yet")
				return nil
			}
			for _, code := range resp.Countries {
				fmt.Fprintln(out, code)
			}
			return nil
		},
	}
	return cmd
}

func backendAndWallet(cmd *cobra.Command) (string, string, error) {
	backend, err := getUserSetVar(cmd, backendFlagName, backendEnvKey, false)
	if err != nil {
		return "", "", err
	}
	wallet, err := getUserSetVar(cmd, walletFlagName, walletEnvKey, false)
	if err != nil {
		return "", "", err
	}
	return backend, wallet, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout, err := cmd.Flags().GetDuration(timeoutFlagName)
	if err != nil || timeout <= 0 {
		timeout = defaultTimeout
	}
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}
