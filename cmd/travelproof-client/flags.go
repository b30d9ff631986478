package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const (
	defaultTimeout = 2 * time.Minute

	backendFlagName      = "backend"
	backendEnvKey        = "TRAVELPROOF_BACKEND_URL"
	backendFlagShorthand = "b"
	backendFlagUsage     = "Base URL of the travelproof backend." +
		" Alternatively, this can be set with the following environment variable: " + backendEnvKey

	walletFlagName      = "wallet"
	walletEnvKey        = "TRAVELPROOF_WALLET"
	walletFlagShorthand = "w"
	walletFlagUsage     = "Wallet address the session or POAP belongs to." +
		" Alternatively, this can be set with the following environment variable: " + walletEnvKey

	timeoutFlagName  = "timeout"
	timeoutFlagUsage = "Overall deadline for the command."

	relayFlagName  = "relay"
	relayEnvKey    = "TRAVELPROOF_RELAY_URL"
	relayFlagUsage = "Optional websocket relay that pushes verification status messages." +
		" Alternatively, this can be set with the following environment variable: " + relayEnvKey

	endpointFlagName  = "endpoint"
	endpointFlagUsage = "Proof submission endpoint encoded in the challenge. Defaults to <backend>/api/verify."

	countryFlagName     = "country"
	countryCodeFlagName = "country-code"
	latFlagName         = "lat"
	lngFlagName         = "lng"
)

// getUserSetVar returns the flag value, falling back to the environment.
func getUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %w", err)
		}
		return strings.TrimSpace(value), nil
	}
	if envKey != "" {
		if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), nil
		}
	}
	if value, err := cmd.Flags().GetString(flagName); err == nil && value != "" {
		return strings.TrimSpace(value), nil
	}
	if isOptional {
		return "", nil
	}
	if envKey == "" {
		return "", fmt.Errorf("--%s is required", flagName)
	}
	return "", fmt.Errorf("neither --%s (command line flag) nor %s (environment variable) have been set", flagName, envKey)
}
