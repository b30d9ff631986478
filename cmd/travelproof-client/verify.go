package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"travelproof/internal/identity/models"
	"travelproof/internal/platform/logger"
	"travelproof/internal/verification/session"
)

const fetchTimeout = 10 * time.Second

func verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run a passport verification session for a wallet",
		Long: "Prints the challenge to scan with the passport app, then waits for a completion " +
			"signal from the relay or the backend and fetches the verified record.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend, wallet, err := backendAndWallet(cmd)
			if err != nil {
				return err
			}
			relay, err := getUserSetVar(cmd, relayFlagName, relayEnvKey, true)
			if err != nil {
				return err
			}
			endpoint, err := getUserSetVar(cmd, endpointFlagName, "", true)
			if err != nil {
				return err
			}
			if endpoint == "" {
				endpoint = strings.TrimRight(backend, "/") + "/api/verify"
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			log := logger.NewWithWriter(cmd.ErrOrStderr(), "info", "text")
			fetcher := session.NewHTTPFetcher(backend, nil, fetchTimeout)
			var sources []session.Source
			if relay != "" {
				sources = append(sources, session.NewSocketListener(relay, nil, log))
			}

			verified := make(chan models.IdentityRecord, 1)
			manager := session.NewManager(session.Options{
				Fetcher:   fetcher,
				Flags:     session.FetcherFlag(fetcher),
				Sources:   sources,
				Challenge: session.DefaultChallengeConfig(endpoint),
				Logger:    log,
				OnComplete: func(rec models.IdentityRecord) {
					verified <- rec
				},
			})
			defer manager.Close()

			ctrl, err := manager.Connect(ctx, wallet)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			chal := ctrl.Challenge()
			fmt.Fprintf(out, "session:   %s\n", chal.SessionID)
			fmt.Fprintf(out, "challenge: %s\n", chal.String())
			if link := chal.DeepLink(); link != "" {
				fmt.Fprintf(out, "deep link: %s\n", link)
			}

			select {
			case <-ctrl.Done():
			case <-ctx.Done():
				return fmt.Errorf("verification not completed: %w", ctx.Err())
			}

			snap := ctrl.Snapshot()
			if snap.Status != session.StatusVerified {
				if snap.LastError != "" {
					return errors.New(snap.LastError)
				}
				return fmt.Errorf("verification ended in state %s", snap.Status)
			}
			rec := <-verified
			fmt.Fprintf(out, "verified after %d attempt(s) via %s\n", snap.AttemptCount, snap.DetectedBy)
			fmt.Fprintf(out, "subject:     %s\n", rec.SubjectID)
			if nat := rec.Attribute(models.AttrNationality); nat != "" {
				fmt.Fprintf(out, "nationality: %s\n", nat)
			}
			fmt.Fprintf(out, "human: %t  adult: %t  not sanctioned: %t\n",
				rec.Assertions.IsHuman, rec.Assertions.IsAdult, rec.Assertions.NotSanctioned)
			return nil
		},
	}
	cmd.Flags().String(relayFlagName, "", relayFlagUsage)
	cmd.Flags().String(endpointFlagName, "", endpointFlagUsage)
	return cmd
}
