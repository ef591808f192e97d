package submit

import (
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/ankushKun/magicplace-go/internal/gateway"
)

// pendingOp is a submission awaiting confirmation. Never persisted; it only
// exists to await/confirm and to answer "what is in flight".
type pendingOp struct {
	Blockhash    solana.Hash
	ExpiryHeight uint64
	SubmittedAt  time.Time
}

// pendingSet tracks in-flight submissions, keyed by signature.
type pendingSet struct {
	mu  sync.RWMutex
	ops map[solana.Signature]pendingOp
}

func newPendingSet() *pendingSet {
	return &pendingSet{ops: make(map[solana.Signature]pendingOp)}
}

func (p *pendingSet) add(sig solana.Signature, bh gateway.Blockhash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops[sig] = pendingOp{
		Blockhash:    bh.Hash,
		ExpiryHeight: bh.ExpiryHeight,
		SubmittedAt:  time.Now(),
	}
}

func (p *pendingSet) remove(sig solana.Signature) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.ops, sig)
}

func (p *pendingSet) len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.ops)
}
