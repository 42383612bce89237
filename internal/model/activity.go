package model

import "math/big"

// Kind classifies an economic activity record.
type Kind string

const (
	KindLPBurn          Kind = "LP_BURN"
	KindCornBurn        Kind = "CORN_BURN"
	KindRoutedToStaking Kind = "ROUTED_TO_STAKING"
	KindBuyback         Kind = "BUYBACK"
)

// ActivityRecord is one classified on-chain event. Amount is the
// human-scaled decimal string; AmountWei keeps the raw integer for
// summation and is not serialized.
type ActivityRecord struct {
	ID          string   `json:"id"`
	Kind        Kind     `json:"kind"`
	Amount      string   `json:"amount"`
	AmountWei   *big.Int `json:"-"`
	OccurredAt  uint64   `json:"occurred_at"`
	TxHash      string   `json:"tx_hash"`
	BlockNumber uint64   `json:"block_number"`
}

// ActivityMetrics holds raw running sums per activity kind.
type ActivityMetrics struct {
	LPBurned        *big.Int
	CornBurned      *big.Int
	RoutedToStaking *big.Int
	Buyback         *big.Int
}

func NewActivityMetrics() ActivityMetrics {
	return ActivityMetrics{
		LPBurned:        big.NewInt(0),
		CornBurned:      big.NewInt(0),
		RoutedToStaking: big.NewInt(0),
		Buyback:         big.NewInt(0),
	}
}

// Apply adds a record's amount to the bucket matching its kind. A
// buyback burns CORN as well, so it feeds both the buyback total and
// the cumulative CORN-burn total.
func (m *ActivityMetrics) Apply(record ActivityRecord) {
	if record.AmountWei == nil {
		return
	}
	switch record.Kind {
	case KindLPBurn:
		m.LPBurned.Add(m.LPBurned, record.AmountWei)
	case KindCornBurn:
		m.CornBurned.Add(m.CornBurned, record.AmountWei)
	case KindRoutedToStaking:
		m.RoutedToStaking.Add(m.RoutedToStaking, record.AmountWei)
	case KindBuyback:
		m.Buyback.Add(m.Buyback, record.AmountWei)
		m.CornBurned.Add(m.CornBurned, record.AmountWei)
	}
}
