// Package signer implements the signing service: a websocket endpoint
// that derives the wallet address on demand and signs and broadcasts
// transactions proposed by the front end, subject to user approval.
package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"aaswap/pkg/wallet"
)

// ChainBackend is the slice of an Ethereum client the signer needs to
// assemble and broadcast transactions.
type ChainBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Approver decides whether a proposed transaction may be signed. It is
// the stand-in for the user clicking approve or reject.
type Approver func(req wallet.TransactionRequest) bool

// Service answers CONNECT_WALLET and SIGN_TRANSACTION exchanges over a
// websocket. One exchange is served per connection, matching the one
// window per request discipline on the client side.
type Service struct {
	chainID        *big.Int
	privateKey     *ecdsa.PrivateKey
	address        string
	backend        ChainBackend
	origin         string
	allowedOrigins map[string]bool
	approve        Approver
	upgrader       websocket.Upgrader
	log            zerolog.Logger
}

// New builds a signing service. origin is stamped on every outbound
// message; allowedOrigins lists the front-end origins whose requests
// are honored. A nil approver approves everything.
func New(chainID int64, privateKeyHex, origin string, allowedOrigins []string, backend ChainBackend, approve Approver, log zerolog.Logger) (*Service, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	publicKey, ok := key.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("failed to derive public key")
	}

	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	if approve == nil {
		approve = func(wallet.TransactionRequest) bool { return true }
	}

	s := &Service{
		chainID:        big.NewInt(chainID),
		privateKey:     key,
		address:        crypto.PubkeyToAddress(*publicKey).Hex(),
		backend:        backend,
		origin:         origin,
		allowedOrigins: allowed,
		approve:        approve,
		log:            log.With().Str("component", "signer").Logger(),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s, nil
}

// Address returns the signing address.
func (s *Service) Address() string {
	return s.address
}

func (s *Service) checkOrigin(r *http.Request) bool {
	return s.allowedOrigins[strings.TrimRight(r.Header.Get("Origin"), "/")]
}

// ServeHTTP upgrades the connection, announces readiness and serves
// exchanges until the peer disconnects.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("origin", r.Header.Get("Origin")).Msg("upgrade rejected")
		return
	}
	defer conn.Close()

	peerOrigin := strings.TrimRight(r.Header.Get("Origin"), "/")
	if err := conn.WriteJSON(wallet.Envelope{Type: wallet.MessageReady, Origin: s.origin, Target: peerOrigin}); err != nil {
		return
	}

	for {
		var env wallet.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}
		// Mis-addressed or foreign-origin messages are dropped without
		// a reply, same as the client side does.
		if env.Target != s.origin || !s.allowedOrigins[strings.TrimRight(env.Origin, "/")] {
			s.log.Warn().Str("origin", env.Origin).Str("target", env.Target).Msg("dropping mis-addressed message")
			continue
		}

		var payload interface{}
		switch env.Type {
		case wallet.MessageConnectWallet:
			payload = wallet.Ok(s.address)
		case wallet.MessageSignTransaction:
			payload = s.handleSign(r.Context(), env)
		default:
			s.log.Warn().Str("type", string(env.Type)).Msg("unknown message type")
			continue
		}

		reply, err := wallet.NewEnvelope(env.Type, env.Network, s.origin, env.Origin, payload)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to encode reply")
			return
		}
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

func (s *Service) handleSign(ctx context.Context, env wallet.Envelope) wallet.Result[wallet.TransactionResponse] {
	var req wallet.SignRequest
	if err := wallet.DecodePayload(env, &req); err != nil {
		return wallet.Errf[wallet.TransactionResponse]("malformed signing request: %v", err)
	}
	if !strings.EqualFold(req.Address, s.address) {
		return wallet.Errf[wallet.TransactionResponse]("unknown signing address %s", req.Address)
	}
	if !s.approve(req.Transaction) {
		return wallet.Errf[wallet.TransactionResponse]("User rejected the request")
	}

	hash, err := s.signAndBroadcast(ctx, req.Transaction)
	if err != nil {
		s.log.Error().Err(err).Msg("signing failed")
		return wallet.Errf[wallet.TransactionResponse]("%v", err)
	}
	s.log.Info().Str("hash", hash).Msg("transaction broadcast")
	return wallet.Ok(wallet.TransactionResponse{Hash: hash})
}

func (s *Service) signAndBroadcast(ctx context.Context, req wallet.TransactionRequest) (string, error) {
	if !common.IsHexAddress(req.To) {
		return "", fmt.Errorf("invalid recipient address: %s", req.To)
	}
	to := common.HexToAddress(req.To)

	value := new(big.Int)
	if req.Value != "" {
		if _, ok := value.SetString(req.Value, 10); !ok {
			return "", fmt.Errorf("invalid value: %s", req.Value)
		}
	}

	gasLimit := uint64(21_000)
	if req.GasLimit != "" {
		parsed, ok := new(big.Int).SetString(req.GasLimit, 10)
		if !ok {
			return "", fmt.Errorf("invalid gas limit: %s", req.GasLimit)
		}
		gasLimit = parsed.Uint64()
	}

	var data []byte
	if req.Data != "" {
		decoded, err := hexutil.Decode(req.Data)
		if err != nil {
			return "", fmt.Errorf("invalid calldata: %w", err)
		}
		data = decoded
	}

	from := crypto.PubkeyToAddress(s.privateKey.PublicKey)
	nonce, err := s.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(s.chainID), s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := s.backend.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}
	return signedTx.Hash().Hex(), nil
}
