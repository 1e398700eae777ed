package raydium

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"raydium-lp-sniper/internal/rpc"
)

var (
	// ErrInsufficientAccounts marks a transaction whose static account list
	// is too short to carry a pool definition.
	ErrInsufficientAccounts = errors.New("insufficient accounts for pool layout")

	// ErrMalformedAccount marks an account key that failed base-58 decoding
	// or has the wrong byte length.
	ErrMalformedAccount = errors.New("malformed account key")

	// ErrNoCandidate marks a transaction with no instruction attributable
	// to the target program.
	ErrNoCandidate = errors.New("no candidate instruction for target program")
)

// Extraction is the result of pulling pool structure out of one confirmed
// transaction. Accounts is nil when the account list was long enough to
// identify the token but too short for a full role binding.
type Extraction struct {
	Accounts  *PoolAccounts
	CoinMint  solana.PublicKey
	Candidate *Candidate
}

// Candidate is the first instruction in the transaction attributed to the
// target program, with its opaque payload decoded from base-58.
type Candidate struct {
	ProgramID solana.PublicKey
	Payload   []byte
}

// Extractor resolves a transaction's packed account references against a
// versioned layout and locates the liquidity instruction.
type Extractor struct {
	programID   solana.PublicKey
	layout      Layout
	minAccounts int
	logger      *logrus.Logger
}

// ExtractorConfig carries the extractor's construction parameters.
type ExtractorConfig struct {
	ProgramID   solana.PublicKey
	Layout      Layout
	MinAccounts int
	Logger      *logrus.Logger
}

// NewExtractor creates an extractor bound to one program and one layout
// version.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Layout.Roles == nil {
		cfg.Layout = LayoutV4
	}
	if cfg.MinAccounts <= 0 {
		cfg.MinAccounts = 7
	}
	// The partial path reads the coin mint by position, so the minimum must
	// at least cover that index.
	if floor := cfg.Layout.Roles[RoleCoinMint] + 1; cfg.MinAccounts < floor {
		cfg.MinAccounts = floor
	}
	return &Extractor{
		programID:   cfg.ProgramID,
		layout:      cfg.Layout,
		minAccounts: cfg.MinAccounts,
		logger:      cfg.Logger,
	}
}

// Extract pulls pool accounts and the candidate liquidity instruction out
// of a fetched transaction. A transaction with fewer accounts than the
// identification minimum returns (nil, nil): not an error, just not a pool
// event. Between the minimum and a full layout the result carries only the
// coin mint.
func (e *Extractor) Extract(tx *rpc.TransactionResult) (*Extraction, error) {
	if tx == nil || tx.Transaction == nil {
		return nil, fmt.Errorf("%w: empty transaction", rpc.ErrRetrieval)
	}

	rawKeys := tx.Transaction.Message.AccountKeys
	if len(rawKeys) < e.minAccounts {
		return nil, nil
	}

	keys := make([]solana.PublicKey, len(rawKeys))
	for i, raw := range rawKeys {
		key, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: account %d %q: %v", ErrMalformedAccount, i, raw, err)
		}
		keys[i] = key
	}

	ext := &Extraction{}
	if len(keys) >= e.layout.Size() {
		accounts, err := e.layout.Bind(keys)
		if err != nil {
			return nil, err
		}
		ext.Accounts = accounts
		ext.CoinMint = accounts.CoinMint
	} else {
		ext.CoinMint = keys[e.layout.Roles[RoleCoinMint]]
	}

	candidate, err := e.findCandidate(keys, tx.Transaction.Message.Instructions)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"program": e.programID.String(),
			"error":   err,
		}).Debug("no liquidity instruction in transaction")
	}
	ext.Candidate = candidate

	return ext, nil
}

// findCandidate scans instructions in order and returns the first one whose
// resolved program matches the target and whose payload is non-empty.
func (e *Extractor) findCandidate(keys []solana.PublicKey, instructions []rpc.CompiledInstruction) (*Candidate, error) {
	for _, ins := range instructions {
		if ins.ProgramIDIndex < 0 || ins.ProgramIDIndex >= len(keys) {
			continue
		}
		program := keys[ins.ProgramIDIndex]
		if !program.Equals(e.programID) {
			continue
		}
		if ins.Data == "" {
			continue
		}
		payload, err := base58.Decode(ins.Data)
		if err != nil {
			return nil, fmt.Errorf("decode instruction payload: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		return &Candidate{ProgramID: program, Payload: payload}, nil
	}
	return nil, ErrNoCandidate
}
