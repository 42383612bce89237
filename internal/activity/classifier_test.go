package activity

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"stakewatch/internal/model"
)

var testAddrs = Addresses{
	Controller: common.HexToAddress("0x1000000000000000000000000000000000000001"),
	Staking:    common.HexToAddress("0x2000000000000000000000000000000000000002"),
	Burn:       common.HexToAddress("0x000000000000000000000000000000000000dEaD"),
	CornToken:  common.HexToAddress("0x3000000000000000000000000000000000000003"),
	LPToken:    common.HexToAddress("0x4000000000000000000000000000000000000004"),
}

func wei(human int64) *big.Int {
	base := new(big.Int).Exp(big.NewInt(10), big.NewInt(ScaleDecimals), nil)
	return new(big.Int).Mul(big.NewInt(human), base)
}

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	classifier, err := NewClassifier(testAddrs, zap.NewNop())
	if err != nil {
		t.Fatalf("classifier: %v", err)
	}
	return classifier
}

func buildLog(t *testing.T, source common.Address, eventName string, indexed []common.Hash, args ...interface{}) model.LogRecord {
	t.Helper()
	parsed, err := ControllerABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	event := parsed.Events[eventName]

	data, err := event.Inputs.NonIndexed().Pack(args...)
	if err != nil {
		t.Fatalf("pack %s: %v", eventName, err)
	}

	topics := make([]string, 0, len(indexed)+1)
	topics = append(topics, event.ID.Hex())
	for _, topic := range indexed {
		topics = append(topics, topic.Hex())
	}

	return model.LogRecord{
		ChainID:     369,
		BlockNumber: 12345,
		BlockHash:   "0xabc",
		TxHash:      "0xdef",
		LogIndex:    1,
		Address:     source.Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(data),
		Timestamp:   1700000000,
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func TestClassifyLiquidityAddedTakesMinLeg(t *testing.T) {
	classifier := newTestClassifier(t)
	log := buildLog(t, testAddrs.Controller, "LiquidityAdded", nil, wei(100), wei(80), wei(90))

	record, err := classifier.Classify(log, &testAddrs.Controller)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if record == nil {
		t.Fatalf("expected record")
	}
	if record.Kind != model.KindLPBurn {
		t.Fatalf("kind mismatch: %s", record.Kind)
	}
	if record.AmountWei.Cmp(wei(80)) != 0 {
		t.Fatalf("amount mismatch: %s", record.AmountWei)
	}
	if record.ID != "0xdef:1" {
		t.Fatalf("id mismatch: %s", record.ID)
	}
}

func TestClassifyLPBurnExecuted(t *testing.T) {
	classifier := newTestClassifier(t)
	log := buildLog(t, testAddrs.Controller, "LPBurnExecuted", nil, wei(40), wei(65), wei(50))

	record, err := classifier.Classify(log, nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if record.Kind != model.KindLPBurn || record.AmountWei.Cmp(wei(40)) != 0 {
		t.Fatalf("record mismatch: %+v", record)
	}
}

func TestClassifyBuybackVariants(t *testing.T) {
	classifier := newTestClassifier(t)

	simple := buildLog(t, testAddrs.Controller, "BuybackBurn", nil, wei(7))
	record, err := classifier.Classify(simple, nil)
	if err != nil {
		t.Fatalf("classify BuybackBurn: %v", err)
	}
	if record.Kind != model.KindBuyback || record.AmountWei.Cmp(wei(7)) != 0 {
		t.Fatalf("BuybackBurn mismatch: %+v", record)
	}

	executed := buildLog(t, testAddrs.Controller, "BuybackBurnExecuted", nil, wei(999), wei(50))
	record, err = classifier.Classify(executed, nil)
	if err != nil {
		t.Fatalf("classify BuybackBurnExecuted: %v", err)
	}
	if record.Kind != model.KindBuyback {
		t.Fatalf("kind mismatch: %s", record.Kind)
	}
	if record.AmountWei.Cmp(wei(50)) != 0 {
		t.Fatalf("expected cornBurned leg, got %s", record.AmountWei)
	}
}

func TestClassifyRoutedDestinations(t *testing.T) {
	classifier := newTestClassifier(t)

	toStaking := buildLog(t, testAddrs.Controller, "Routed", []common.Hash{topicFromAddress(testAddrs.Staking)}, wei(12))
	record, err := classifier.Classify(toStaking, nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if record == nil || record.Kind != model.KindRoutedToStaking || record.AmountWei.Cmp(wei(12)) != 0 {
		t.Fatalf("routed record mismatch: %+v", record)
	}

	treasury := common.HexToAddress("0x9000000000000000000000000000000000000009")
	toTreasury := buildLog(t, testAddrs.Controller, "Routed", []common.Hash{topicFromAddress(treasury)}, wei(12))
	record, err = classifier.Classify(toTreasury, nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if record != nil {
		t.Fatalf("routing to non-staking destination should be dropped: %+v", record)
	}
}

func TestClassifySentToStaking(t *testing.T) {
	classifier := newTestClassifier(t)
	log := buildLog(t, testAddrs.Controller, "SentToStaking", nil, wei(33))

	record, err := classifier.Classify(log, nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if record.Kind != model.KindRoutedToStaking || record.AmountWei.Cmp(wei(33)) != 0 {
		t.Fatalf("record mismatch: %+v", record)
	}
}

func TestClassifyTransferByTokenContract(t *testing.T) {
	classifier := newTestClassifier(t)
	indexed := []common.Hash{topicFromAddress(testAddrs.Controller), topicFromAddress(testAddrs.Burn)}

	lpLog := buildLog(t, testAddrs.LPToken, "Transfer", indexed, wei(5))
	record, err := classifier.Classify(lpLog, nil)
	if err != nil {
		t.Fatalf("classify lp transfer: %v", err)
	}
	if record == nil || record.Kind != model.KindLPBurn {
		t.Fatalf("lp transfer mismatch: %+v", record)
	}

	cornLog := buildLog(t, testAddrs.CornToken, "Transfer", indexed, wei(6))
	record, err = classifier.Classify(cornLog, nil)
	if err != nil {
		t.Fatalf("classify corn transfer: %v", err)
	}
	if record == nil || record.Kind != model.KindCornBurn {
		t.Fatalf("corn transfer mismatch: %+v", record)
	}

	otherToken := common.HexToAddress("0x7000000000000000000000000000000000000007")
	otherLog := buildLog(t, otherToken, "Transfer", indexed, wei(6))
	record, err = classifier.Classify(otherLog, nil)
	if err != nil {
		t.Fatalf("classify other transfer: %v", err)
	}
	if record != nil {
		t.Fatalf("unknown token transfer should be dropped")
	}
}

func TestClassifyTransferWrongParties(t *testing.T) {
	classifier := newTestClassifier(t)
	stranger := common.HexToAddress("0x8000000000000000000000000000000000000008")

	wrongFrom := buildLog(t, testAddrs.CornToken, "Transfer",
		[]common.Hash{topicFromAddress(stranger), topicFromAddress(testAddrs.Burn)}, wei(1))
	if record, err := classifier.Classify(wrongFrom, nil); err != nil || record != nil {
		t.Fatalf("transfer not from controller should be dropped: %+v %v", record, err)
	}

	wrongTo := buildLog(t, testAddrs.CornToken, "Transfer",
		[]common.Hash{topicFromAddress(testAddrs.Controller), topicFromAddress(stranger)}, wei(1))
	if record, err := classifier.Classify(wrongTo, nil); err != nil || record != nil {
		t.Fatalf("transfer not to burn address should be dropped: %+v %v", record, err)
	}
}

func TestClassifySourceFilter(t *testing.T) {
	classifier := newTestClassifier(t)
	imposter := common.HexToAddress("0x6000000000000000000000000000000000000006")
	log := buildLog(t, imposter, "BuybackBurn", nil, wei(7))

	record, err := classifier.Classify(log, &testAddrs.Controller)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if record != nil {
		t.Fatalf("filtered source should produce no record")
	}

	// Without the filter the same log classifies.
	record, err = classifier.Classify(log, nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if record == nil {
		t.Fatalf("unfiltered path should classify")
	}
}

func TestClassifyUnknownSignature(t *testing.T) {
	classifier := newTestClassifier(t)
	log := model.LogRecord{
		Address: testAddrs.Controller.Hex(),
		Topics:  []string{"0x1111111111111111111111111111111111111111111111111111111111111111"},
		Data:    "0x",
	}

	record, err := classifier.Classify(log, nil)
	if err != nil || record != nil {
		t.Fatalf("unknown signature should be dropped silently: %+v %v", record, err)
	}
}

func TestClassifyMalformedData(t *testing.T) {
	classifier := newTestClassifier(t)
	log := buildLog(t, testAddrs.Controller, "BuybackBurnExecuted", nil, wei(1), wei(2))
	log.Data = "0x01"

	if _, err := classifier.Classify(log, nil); err == nil {
		t.Fatalf("expected decode error for truncated data")
	}
}
