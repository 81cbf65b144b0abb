package rewards

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidRequest  = errors.New("rewards: invalid request")
	ErrInsufficientPts = errors.New("rewards: insufficient points")
)

// Repository abstracts rewards data access. Append-only writes; balances are
// always recomputed from the transaction stream.
type Repository interface {
	AppendScan(ctx context.Context, s ScanEvent) error
	AppendTransaction(ctx context.Context, t Transaction) error
	ListTransactions(ctx context.Context, userID string) ([]Transaction, error)
	ListScans(ctx context.Context, userID, result string) ([]ScanEvent, error)
}

type Service struct {
	repo    Repository
	catalog map[string]Product
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, catalog: demoCatalog()}
}

// demoCatalog stands in for the product registry. Codes prefixed "CTF" are
// flagged counterfeit so the fraud queue has something to show.
func demoCatalog() map[string]Product {
	products := []Product{
		{Code: "ECO-1001", Name: "Recycled Water Bottle", Points: 25},
		{Code: "ECO-1002", Name: "Bamboo Toothbrush", Points: 10},
		{Code: "ECO-1003", Name: "Compostable Phone Case", Points: 40},
		{Code: "ECO-1004", Name: "Recycled Sneakers", Points: 80},
	}
	m := make(map[string]Product, len(products))
	for _, p := range products {
		m[p.Code] = p
	}
	return m
}

// RecordScan resolves a product code, classifies the scan, and credits
// points for authentic products.
func (s *Service) RecordScan(ctx context.Context, userID, productCode string, now time.Time) (ScanEvent, error) {
	if userID == "" || productCode == "" {
		return ScanEvent{}, ErrInvalidRequest
	}

	event := ScanEvent{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProductCode: productCode,
		CreatedAt:   now,
	}

	switch p, ok := s.catalog[productCode]; {
	case ok:
		event.Result = ScanResultAuthentic
		event.ProductName = p.Name
		event.Points = p.Points
	case len(productCode) >= 3 && productCode[:3] == "CTF":
		event.Result = ScanResultCounterfeit
	default:
		event.Result = ScanResultUnknown
	}

	if err := s.repo.AppendScan(ctx, event); err != nil {
		return ScanEvent{}, err
	}

	if event.Result == ScanResultAuthentic {
		txn := Transaction{
			ID:          uuid.NewString(),
			UserID:      userID,
			Kind:        TxnKindEarn,
			Points:      event.Points,
			Description: "scan " + event.ProductName,
			CreatedAt:   now,
		}
		if err := s.repo.AppendTransaction(ctx, txn); err != nil {
			return ScanEvent{}, err
		}
	}

	return event, nil
}

// Redeem debits points against the derived balance.
func (s *Service) Redeem(ctx context.Context, userID string, points int, description string, now time.Time) (Transaction, error) {
	if userID == "" || points <= 0 {
		return Transaction{}, ErrInvalidRequest
	}

	summary, err := s.Wallet(ctx, userID)
	if err != nil {
		return Transaction{}, err
	}
	if summary.Balance < points {
		return Transaction{}, ErrInsufficientPts
	}

	txn := Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Kind:        TxnKindRedeem,
		Points:      points,
		Description: description,
		CreatedAt:   now,
	}
	if err := s.repo.AppendTransaction(ctx, txn); err != nil {
		return Transaction{}, err
	}
	return txn, nil
}

// Wallet derives the user's balance and recycling stats.
func (s *Service) Wallet(ctx context.Context, userID string) (WalletSummary, error) {
	if userID == "" {
		return WalletSummary{}, ErrInvalidRequest
	}

	txns, err := s.repo.ListTransactions(ctx, userID)
	if err != nil {
		return WalletSummary{}, err
	}

	out := WalletSummary{UserID: userID}
	for _, t := range txns {
		switch t.Kind {
		case TxnKindEarn:
			out.TotalEarned += t.Points
		case TxnKindRedeem:
			out.TotalRedeemed += t.Points
		}
	}
	out.Balance = out.TotalEarned - out.TotalRedeemed

	scans, err := s.repo.ListScans(ctx, userID, ScanResultAuthentic)
	if err != nil {
		return WalletSummary{}, err
	}
	out.ItemsRecycled = len(scans)

	return out, nil
}

// Transactions lists a user's reward movements; empty userID lists all,
// which the admin transactions view uses.
func (s *Service) Transactions(ctx context.Context, userID string) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, userID)
}

// FraudQueue lists counterfeit scans for the admin fraud view.
func (s *Service) FraudQueue(ctx context.Context) ([]ScanEvent, error) {
	return s.repo.ListScans(ctx, "", ScanResultCounterfeit)
}
