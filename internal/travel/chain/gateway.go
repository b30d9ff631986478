// Package chain gives typed access to the proof-of-travel contract on the
// one active network.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"travelproof/internal/platform/config"
)

var tracer = otel.Tracer("travelproof/internal/travel/chain")

// boundContract is the subset of *bind.BoundContract the gateway uses.
type boundContract interface {
	Call(opts *bind.CallOpts, results *[]any, method string, params ...any) error
	Transact(opts *bind.TransactOpts, method string, params ...any) (*types.Transaction, error)
}

type waitFunc func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)

// Gateway reads and writes the contract. A gateway without a signer is
// read-only and fails MintProof with ErrorConfiguration.
type Gateway struct {
	network     config.Network
	contract    boundContract
	signer      *bind.TransactOpts
	wait        waitFunc
	cache       *visitedCache
	callTimeout time.Duration
	logger      *slog.Logger
	closer      func()

	// mintMu serializes submissions so nonces from one key never collide.
	mintMu sync.Mutex
}

type Option func(*options)

type options struct {
	cacheTTL    time.Duration
	callTimeout time.Duration
	clock       gcache.Clock
}

// WithCacheTTL sets how long a visited-country list is served from memory.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) { o.cacheTTL = ttl }
}

// WithCallTimeout bounds each contract call, including waiting for a receipt.
func WithCallTimeout(d time.Duration) Option {
	return func(o *options) { o.callTimeout = d }
}

// WithClock overrides the cache clock. Tests use gcache.NewFakeClock.
func WithClock(clock gcache.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// Dial connects to the active network in cfg. A missing minter key yields a
// read-only gateway.
func Dial(ctx context.Context, cfg config.ChainConfig, logger *slog.Logger) (*Gateway, error) {
	rpcURL, contractAddr := cfg.RPCURL(), cfg.ContractAddress()
	if rpcURL == "" || contractAddr == "" {
		return nil, NewError(ErrorConfiguration, "dial", fmt.Sprintf("rpc url and contract address required for %s", cfg.Network), nil)
	}
	if !common.IsHexAddress(contractAddr) {
		return nil, NewError(ErrorConfiguration, "dial", "invalid contract address", nil)
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, classify("dial", err)
	}

	var signer *bind.TransactOpts
	if cfg.MinterPrivateKey != "" {
		signer, err = newSigner(ctx, client, cfg.MinterPrivateKey)
		if err != nil {
			client.Close()
			return nil, err
		}
		logger.InfoContext(ctx, "chain signer loaded", "network", cfg.Network, "minter", signer.From.Hex())
	} else {
		logger.WarnContext(ctx, "no minter key configured; chain gateway is read-only", "network", cfg.Network)
	}

	bound := bind.NewBoundContract(common.HexToAddress(contractAddr), parsedABI, client, client, client)
	wait := func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
		return bind.WaitMined(ctx, client, tx)
	}

	g := newGateway(cfg.Network, bound, signer, wait, logger,
		WithCacheTTL(cfg.VisitedCacheTTL),
		WithCallTimeout(cfg.CallTimeout),
	)
	g.closer = client.Close
	return g, nil
}

func newSigner(ctx context.Context, client *ethclient.Client, hexKey string) (*bind.TransactOpts, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, NewError(ErrorConfiguration, "signer", "invalid minter private key", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, classify("chain_id", err)
	}
	return transactorFor(key, chainID)
}

func transactorFor(key *ecdsa.PrivateKey, chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, NewError(ErrorConfiguration, "signer", "cannot build transactor", err)
	}
	return opts, nil
}

func newGateway(network config.Network, contract boundContract, signer *bind.TransactOpts, wait waitFunc, logger *slog.Logger, opts ...Option) *Gateway {
	o := options{cacheTTL: 5 * time.Minute, callTimeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cacheTTL <= 0 {
		o.cacheTTL = 5 * time.Minute
	}
	if o.callTimeout <= 0 {
		o.callTimeout = 30 * time.Second
	}
	return &Gateway{
		network:     network,
		contract:    contract,
		signer:      signer,
		wait:        wait,
		cache:       newVisitedCache(o.cacheTTL, o.clock),
		callTimeout: o.callTimeout,
		logger:      logger,
	}
}

// Network returns the active network.
func (g *Gateway) Network() config.Network {
	return g.network
}

// CanMint reports whether a signer is loaded.
func (g *Gateway) CanMint() bool {
	return g.signer != nil
}

// Close releases the RPC connection.
func (g *Gateway) Close() {
	if g.closer != nil {
		g.closer()
	}
}

// HasVisited is advisory: any failure reads as "not visited" and the
// contract's own duplicate check decides at mint time.
func (g *Gateway) HasVisited(ctx context.Context, wallet, countryCode string) bool {
	ctx, span := g.startSpan(ctx, methodHasVisited, wallet, countryCode)
	defer span.End()
	start := time.Now()

	visited, err := g.hasVisited(ctx, wallet, countryCode)
	g.record(span, methodHasVisited, start, err)
	if err != nil {
		g.logger.WarnContext(ctx, "hasVisited failed; treating as not visited",
			"wallet_address", wallet,
			"country_code", countryCode,
			"error", err,
		)
		return false
	}
	return visited
}

func (g *Gateway) hasVisited(ctx context.Context, wallet, countryCode string) (bool, error) {
	addr, err := parseAddress(methodHasVisited, wallet)
	if err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	var out []any
	if err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, methodHasVisited, addr, countryCode); err != nil {
		return false, classify(methodHasVisited, err)
	}
	if len(out) != 1 {
		return false, NewError(ErrorInternal, methodHasVisited, "unexpected result arity", nil)
	}
	visited, ok := out[0].(bool)
	if !ok {
		return false, NewError(ErrorInternal, methodHasVisited, "unexpected result type", nil)
	}
	return visited, nil
}

// MintProof submits the mint transaction and waits for its receipt. The
// returned hash is 0x-prefixed hex.
func (g *Gateway) MintProof(ctx context.Context, wallet, countryCode, countryName string, lat, lng int64) (string, error) {
	ctx, span := g.startSpan(ctx, methodMint, wallet, countryCode)
	defer span.End()
	start := time.Now()

	txHash, err := g.mintProof(ctx, wallet, countryCode, countryName, lat, lng)
	g.record(span, methodMint, start, err)
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.String("tx.hash", txHash))
	g.cache.invalidate(wallet)
	return txHash, nil
}

func (g *Gateway) mintProof(ctx context.Context, wallet, countryCode, countryName string, lat, lng int64) (string, error) {
	if g.signer == nil {
		return "", NewError(ErrorConfiguration, methodMint, "no minter key configured", nil)
	}
	addr, err := parseAddress(methodMint, wallet)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	tx, err := g.submit(ctx, addr, countryCode, countryName, lat, lng)
	if err != nil {
		return "", err
	}
	txHash := tx.Hash().Hex()
	g.logger.InfoContext(ctx, "mint transaction submitted",
		"network", g.network,
		"wallet_address", wallet,
		"country_code", countryCode,
		"tx_hash", txHash,
	)

	receipt, err := g.wait(ctx, tx)
	if err != nil {
		return "", classify(methodMint, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		// Two mints can both pass gas estimation; the loser reverts on chain
		// without a reason, so ask the contract what it now holds.
		if visited, checkErr := g.hasVisited(ctx, wallet, countryCode); checkErr == nil && visited {
			return "", NewError(ErrorDuplicateVisit, methodMint, "country already visited", nil)
		}
		return "", NewError(ErrorReverted, methodMint, "transaction reverted in block "+receipt.BlockNumber.String(), nil)
	}
	return txHash, nil
}

func (g *Gateway) submit(ctx context.Context, addr common.Address, countryCode, countryName string, lat, lng int64) (*types.Transaction, error) {
	g.mintMu.Lock()
	defer g.mintMu.Unlock()

	opts := *g.signer
	opts.Context = ctx
	tx, err := g.contract.Transact(&opts, methodMint, addr, countryCode, countryName, big.NewInt(lat), big.NewInt(lng))
	if err != nil {
		return nil, classify(methodMint, err)
	}
	return tx, nil
}

// ListVisitedCountries returns the wallet's country codes, served from a
// per-address cache.
func (g *Gateway) ListVisitedCountries(ctx context.Context, wallet string) ([]string, error) {
	ctx, span := g.startSpan(ctx, methodVisited, wallet, "")
	defer span.End()
	start := time.Now()

	addr, err := parseAddress(methodVisited, wallet)
	if err != nil {
		g.record(span, methodVisited, start, err)
		return nil, err
	}
	countries, err := g.cache.get(ctx, wallet, func(ctx context.Context) ([]string, error) {
		return g.visitedCountries(ctx, addr)
	})
	g.record(span, methodVisited, start, err)
	if err != nil {
		return nil, classify(methodVisited, err)
	}
	return countries, nil
}

func (g *Gateway) visitedCountries(ctx context.Context, addr common.Address) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	var out []any
	if err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, methodVisited, addr); err != nil {
		return nil, classify(methodVisited, err)
	}
	if len(out) != 1 {
		return nil, NewError(ErrorInternal, methodVisited, "unexpected result arity", nil)
	}
	countries, ok := out[0].([]string)
	if !ok {
		return nil, NewError(ErrorInternal, methodVisited, "unexpected result type", nil)
	}
	return countries, nil
}

func parseAddress(op, wallet string) (common.Address, error) {
	if !common.IsHexAddress(wallet) {
		return common.Address{}, NewError(ErrorInvalidInput, op, "invalid wallet address", nil)
	}
	return common.HexToAddress(wallet), nil
}

func (g *Gateway) startSpan(ctx context.Context, method, wallet, countryCode string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("chain.network", string(g.network)),
		attribute.String("chain.method", method),
		attribute.String("wallet.address", wallet),
	}
	if countryCode != "" {
		attrs = append(attrs, attribute.String("country.code", countryCode))
	}
	return tracer.Start(ctx, "chain."+method, trace.WithAttributes(attrs...))
}

func (g *Gateway) record(span trace.Span, method string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(CategoryOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	callDuration.WithLabelValues(method, outcome).Observe(time.Since(start).Seconds())
}
