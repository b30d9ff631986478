package models

import (
	"math"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	dErrors "travelproof/pkg/domain-errors"
)

// TravelClaim is a request to record a visit. Coordinates are [lat, lng] in
// decimal degrees.
type TravelClaim struct {
	WalletAddress string    `json:"walletAddress"`
	Country       string    `json:"country"`
	CountryCode   string    `json:"countryCode"`
	Coordinates   []float64 `json:"coordinates"`
}

// Normalize trims whitespace and upper-cases the country code.
func (c TravelClaim) Normalize() TravelClaim {
	c.WalletAddress = strings.TrimSpace(c.WalletAddress)
	c.Country = strings.TrimSpace(c.Country)
	c.CountryCode = strings.ToUpper(strings.TrimSpace(c.CountryCode))
	return c
}

// Validate reports the first missing or malformed field as a validation error.
func (c TravelClaim) Validate() error {
	var missing []string
	if c.WalletAddress == "" {
		missing = append(missing, "walletAddress")
	}
	if c.Country == "" {
		missing = append(missing, "country")
	}
	if c.CountryCode == "" {
		missing = append(missing, "countryCode")
	}
	if c.Coordinates == nil {
		missing = append(missing, "coordinates")
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeValidation, "missing required fields: "+strings.Join(missing, ", "))
	}
	if !common.IsHexAddress(c.WalletAddress) {
		return dErrors.New(dErrors.CodeValidation, "walletAddress must be a 0x-prefixed hex address")
	}
	if len(c.Coordinates) != 2 {
		return dErrors.New(dErrors.CodeValidation, "coordinates must be [latitude, longitude]")
	}
	lat, lng := c.Coordinates[0], c.Coordinates[1]
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return dErrors.New(dErrors.CodeValidation, "coordinates out of range")
	}
	return nil
}

// Lat and Lng assume a validated claim.
func (c TravelClaim) Lat() float64 { return c.Coordinates[0] }
func (c TravelClaim) Lng() float64 { return c.Coordinates[1] }

// PoapRecord describes one minted proof-of-travel token.
type PoapRecord struct {
	ID             string     `json:"id"`
	WalletAddress  string     `json:"walletAddress"`
	Country        string     `json:"country"`
	CountryCode    string     `json:"countryCode"`
	Coordinates    [2]float64 `json:"coordinates"`
	MintedAt       time.Time  `json:"mintedAt"`
	TxHash         string     `json:"txHash"`
	ProofReference string     `json:"proofReference"`
}

// MintResponse is the body of POST /api/poap/mint.
type MintResponse struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message"`
	PoapData *PoapRecord `json:"poapData,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// VisitedResponse lists the countries recorded on chain for a wallet.
type VisitedResponse struct {
	WalletAddress string   `json:"walletAddress"`
	Countries     []string `json:"countries"`
}

// HasVisitedResponse answers a single (wallet, country) lookup.
type HasVisitedResponse struct {
	WalletAddress string `json:"walletAddress"`
	CountryCode   string `json:"countryCode"`
	Visited       bool   `json:"visited"`
}
