package activity

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"stakewatch/internal/model"
	"stakewatch/internal/yield"
)

// ScaleDecimals is the fixed precision assumed for every extracted
// amount. Token metadata is not consulted; all tokens the controller
// touches are 18-decimal.
const ScaleDecimals = 18

// Addresses is the injected contract address book used for
// classification decisions.
type Addresses struct {
	Controller common.Address
	Staking    common.Address
	Burn       common.Address
	CornToken  common.Address
	LPToken    common.Address
}

type classifyFunc func(c *Classifier, log model.LogRecord) (*model.ActivityRecord, error)

type classifyEntry struct {
	name   string
	decode classifyFunc
}

// Classifier turns raw logs into activity records via a fixed
// signature table.
type Classifier struct {
	abi    abi.ABI
	table  map[string]classifyEntry
	addrs  Addresses
	logger *zap.Logger
}

// NewClassifier builds a classifier over the known event signatures.
func NewClassifier(addrs Addresses, logger *zap.Logger) (*Classifier, error) {
	parsed, err := ControllerABI()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Classifier{
		abi:    parsed,
		addrs:  addrs,
		logger: logger,
	}

	c.table = map[string]classifyEntry{
		topicKey(parsed, "LiquidityAdded"):      {name: "LiquidityAdded", decode: (*Classifier).decodeLiquidityAdded},
		topicKey(parsed, "LPBurnExecuted"):      {name: "LPBurnExecuted", decode: (*Classifier).decodeLPBurnExecuted},
		topicKey(parsed, "BuybackBurn"):         {name: "BuybackBurn", decode: (*Classifier).decodeBuybackBurn},
		topicKey(parsed, "BuybackBurnExecuted"): {name: "BuybackBurnExecuted", decode: (*Classifier).decodeBuybackBurnExecuted},
		topicKey(parsed, "Routed"):              {name: "Routed", decode: (*Classifier).decodeRouted},
		topicKey(parsed, "SentToStaking"):       {name: "SentToStaking", decode: (*Classifier).decodeSentToStaking},
		topicKey(parsed, "Transfer"):            {name: "Transfer", decode: (*Classifier).decodeTransfer},
	}

	return c, nil
}

func topicKey(parsed abi.ABI, name string) string {
	return strings.ToLower(parsed.Events[name].ID.Hex())
}

// Topics returns every signature the classifier recognizes, for use as
// a topic0 filter when fetching logs.
func (c *Classifier) Topics() []common.Hash {
	topics := make([]common.Hash, 0, len(c.table))
	for key := range c.table {
		topics = append(topics, common.HexToHash(key))
	}
	return topics
}

// CanClassify checks whether the topic0 is in the signature table.
func (c *Classifier) CanClassify(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := c.table[strings.ToLower(topic0)]
	return ok
}

// Classify converts one log into at most one activity record.
// sourceFilter, when non-nil, rejects logs emitted by any other
// contract; some ingestion paths filter by source, others do not.
// A nil record with a nil error means the log was dropped on purpose
// (unknown signature, filtered source, or a non-classifying variant
// such as a Routed event to a destination other than staking).
func (c *Classifier) Classify(log model.LogRecord, sourceFilter *common.Address) (*model.ActivityRecord, error) {
	if len(log.Topics) == 0 {
		return nil, nil
	}
	entry, ok := c.table[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, nil
	}
	if sourceFilter != nil && !strings.EqualFold(log.Address, sourceFilter.Hex()) {
		return nil, nil
	}

	record, err := entry.decode(c, log)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", entry.name, err)
	}
	return record, nil
}

func (c *Classifier) decodeLiquidityAdded(log model.LogRecord) (*model.ActivityRecord, error) {
	values, err := c.unpackData("LiquidityAdded", log)
	if err != nil {
		return nil, err
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("unexpected value count: %d", len(values))
	}
	corn, err := asBigInt(values[0])
	if err != nil {
		return nil, err
	}
	wpls, err := asBigInt(values[1])
	if err != nil {
		return nil, err
	}
	// The smaller leg bounds the LP actually mintable; take it as the
	// conservative burn estimate.
	return newRecord(log, model.KindLPBurn, minBig(corn, wpls)), nil
}

func (c *Classifier) decodeLPBurnExecuted(log model.LogRecord) (*model.ActivityRecord, error) {
	values, err := c.unpackData("LPBurnExecuted", log)
	if err != nil {
		return nil, err
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("unexpected value count: %d", len(values))
	}
	cornUsed, err := asBigInt(values[0])
	if err != nil {
		return nil, err
	}
	wplsUsed, err := asBigInt(values[1])
	if err != nil {
		return nil, err
	}
	return newRecord(log, model.KindLPBurn, minBig(cornUsed, wplsUsed)), nil
}

func (c *Classifier) decodeBuybackBurn(log model.LogRecord) (*model.ActivityRecord, error) {
	values, err := c.unpackData("BuybackBurn", log)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected value count: %d", len(values))
	}
	burned, err := asBigInt(values[0])
	if err != nil {
		return nil, err
	}
	return newRecord(log, model.KindBuyback, burned), nil
}

func (c *Classifier) decodeBuybackBurnExecuted(log model.LogRecord) (*model.ActivityRecord, error) {
	values, err := c.unpackData("BuybackBurnExecuted", log)
	if err != nil {
		return nil, err
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected value count: %d", len(values))
	}
	cornBurned, err := asBigInt(values[1])
	if err != nil {
		return nil, err
	}
	return newRecord(log, model.KindBuyback, cornBurned), nil
}

func (c *Classifier) decodeRouted(log model.LogRecord) (*model.ActivityRecord, error) {
	if len(log.Topics) != 2 {
		return nil, fmt.Errorf("expected 2 topics, got %d", len(log.Topics))
	}
	destHash, err := parseTopicHash(log.Topics[1])
	if err != nil {
		return nil, err
	}
	dest := common.BytesToAddress(destHash.Bytes())

	// Only routing into the staking contract classifies; treasury and
	// other destinations are dropped.
	if dest != c.addrs.Staking {
		c.logger.Debug("routed event to non-staking destination dropped",
			zap.String("destination", dest.Hex()),
			zap.String("tx_hash", log.TxHash),
		)
		return nil, nil
	}

	values, err := c.unpackData("Routed", log)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected value count: %d", len(values))
	}
	amount, err := asBigInt(values[0])
	if err != nil {
		return nil, err
	}
	return newRecord(log, model.KindRoutedToStaking, amount), nil
}

func (c *Classifier) decodeSentToStaking(log model.LogRecord) (*model.ActivityRecord, error) {
	values, err := c.unpackData("SentToStaking", log)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected value count: %d", len(values))
	}
	amount, err := asBigInt(values[0])
	if err != nil {
		return nil, err
	}
	return newRecord(log, model.KindRoutedToStaking, amount), nil
}

// decodeTransfer classifies plain ERC-20 transfers from the controller
// to the burn address. The emitting token contract decides the kind:
// the LP token means liquidity was locked, the CORN token means supply
// was destroyed. Any other transfer is not activity.
func (c *Classifier) decodeTransfer(log model.LogRecord) (*model.ActivityRecord, error) {
	if len(log.Topics) != 3 {
		return nil, fmt.Errorf("expected 3 topics, got %d", len(log.Topics))
	}
	fromHash, err := parseTopicHash(log.Topics[1])
	if err != nil {
		return nil, err
	}
	toHash, err := parseTopicHash(log.Topics[2])
	if err != nil {
		return nil, err
	}
	from := common.BytesToAddress(fromHash.Bytes())
	to := common.BytesToAddress(toHash.Bytes())

	if from != c.addrs.Controller || to != c.addrs.Burn {
		return nil, nil
	}

	var kind model.Kind
	switch {
	case strings.EqualFold(log.Address, c.addrs.LPToken.Hex()):
		kind = model.KindLPBurn
	case strings.EqualFold(log.Address, c.addrs.CornToken.Hex()):
		kind = model.KindCornBurn
	default:
		return nil, nil
	}

	values, err := c.unpackData("Transfer", log)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected value count: %d", len(values))
	}
	value, err := asBigInt(values[0])
	if err != nil {
		return nil, err
	}
	return newRecord(log, kind, value), nil
}

func (c *Classifier) unpackData(eventName string, log model.LogRecord) ([]interface{}, error) {
	data, err := hexutil.Decode(log.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := c.abi.Events[eventName].Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", eventName, err)
	}
	return values, nil
}

func newRecord(log model.LogRecord, kind model.Kind, amountWei *big.Int) *model.ActivityRecord {
	return &model.ActivityRecord{
		ID:          fmt.Sprintf("%s:%d", log.TxHash, log.LogIndex),
		Kind:        kind,
		Amount:      yield.FormatAmount(amountWei, ScaleDecimals),
		AmountWei:   amountWei,
		OccurredAt:  log.Timestamp,
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
	}
}

func parseTopicHash(topic string) (common.Hash, error) {
	data, err := hexutil.Decode(topic)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid topic: %w", err)
	}
	if len(data) > 32 {
		return common.Hash{}, fmt.Errorf("topic length %d", len(data))
	}
	return common.BytesToHash(data), nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func minBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}
