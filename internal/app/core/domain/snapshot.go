package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SnapshotVersion 快照格式版本
const SnapshotVersion = 1

// Snapshot Bank 的完整快照，含帳戶編號產生器目前的值
// 必須以單一單位寫入與讀取
type Snapshot struct {
	Version       int   `json:"version"`
	LastAccountID int64 `json:"last_account_id"`
	// AppliedSeq 快照包含的最後一筆 WAL 序號
	AppliedSeq int64            `json:"applied_seq"`
	Customers  []CustomerRecord `json:"customers"`
}

type CustomerRecord struct {
	PersonalID string          `json:"personal_id"`
	Name       string          `json:"name"`
	Surname    string          `json:"surname"`
	Accounts   []AccountRecord `json:"accounts"`
}

type AccountRecord struct {
	ID           int64               `json:"id"`
	Type         AccountType         `json:"type"`
	Balance      decimal.Decimal     `json:"balance"`
	Rate         decimal.Decimal     `json:"rate"`
	HasWithdrawn bool                `json:"has_withdrawn,omitempty"`
	PenaltyRate  decimal.Decimal     `json:"penalty_rate"`
	CreditLimit  decimal.Decimal     `json:"credit_limit"`
	DebtRate     decimal.Decimal     `json:"debt_rate"`
	Transactions []TransactionRecord `json:"transactions"`
}

type TransactionRecord struct {
	Ref     uuid.UUID       `json:"ref"`
	At      time.Time       `json:"at"`
	Amount  decimal.Decimal `json:"amount"`
	Balance decimal.Decimal `json:"balance"`
}

// Snapshot 匯出目前完整狀態
func (b *Bank) Snapshot() Snapshot {
	s := Snapshot{
		Version:       SnapshotVersion,
		LastAccountID: b.seq.Last(),
		AppliedSeq:    b.appliedSeq,
		Customers:     make([]CustomerRecord, 0, len(b.customers)),
	}
	for _, c := range b.customers {
		cr := CustomerRecord{
			PersonalID: c.personalID,
			Name:       c.name,
			Surname:    c.surname,
			Accounts:   make([]AccountRecord, 0, len(c.accounts)),
		}
		for _, a := range c.accounts {
			ar := AccountRecord{
				ID:           a.id,
				Type:         a.kind,
				Balance:      a.balance,
				Rate:         a.rate,
				HasWithdrawn: a.hasWithdrawn,
				PenaltyRate:  a.penaltyRate,
				CreditLimit:  a.creditLimit,
				DebtRate:     a.debtRate,
				Transactions: make([]TransactionRecord, 0, len(a.transactions)),
			}
			for _, t := range a.transactions {
				ar.Transactions = append(ar.Transactions, TransactionRecord(t))
			}
			cr.Accounts = append(cr.Accounts, ar)
		}
		s.Customers = append(s.Customers, cr)
	}
	return s
}

// Restore 以快照取代目前狀態
//
// 快照不合法時回傳 ErrMalformedSnapshot，且不改變任何狀態。
// 帳戶編號產生器還原為 max(LastAccountID, 快照中最大的帳戶編號)，確保編號不會重複。
func (b *Bank) Restore(s Snapshot) error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrMalformedSnapshot, s.Version)
	}

	last := s.LastAccountID
	personalIDs := make(map[string]struct{}, len(s.Customers))
	accountIDs := make(map[int64]struct{})
	customers := make([]*Customer, 0, len(s.Customers))

	for _, cr := range s.Customers {
		if _, dup := personalIDs[cr.PersonalID]; dup {
			return fmt.Errorf("%w: duplicate personal id %q", ErrMalformedSnapshot, cr.PersonalID)
		}
		personalIDs[cr.PersonalID] = struct{}{}

		c := newCustomer(cr.Name, cr.Surname, cr.PersonalID)
		for _, ar := range cr.Accounts {
			if _, dup := accountIDs[ar.ID]; dup {
				return fmt.Errorf("%w: duplicate account id %d", ErrMalformedSnapshot, ar.ID)
			}
			accountIDs[ar.ID] = struct{}{}

			acc, err := restoreAccount(ar)
			if err != nil {
				return err
			}
			if acc.id > last {
				last = acc.id
			}
			c.accounts = append(c.accounts, acc)
		}
		customers = append(customers, c)
	}

	if s.AppliedSeq < 0 {
		return fmt.Errorf("%w: negative applied seq %d", ErrMalformedSnapshot, s.AppliedSeq)
	}

	b.customers = customers
	b.seq.reset(last)
	b.appliedSeq = s.AppliedSeq
	return nil
}

func restoreAccount(ar AccountRecord) (*Account, error) {
	if !ar.Type.Valid() {
		return nil, fmt.Errorf("%w: account %d has unknown type %q", ErrMalformedSnapshot, ar.ID, ar.Type)
	}

	sum := decimal.Zero
	transactions := make([]Transaction, 0, len(ar.Transactions))
	for _, tr := range ar.Transactions {
		sum = sum.Add(tr.Amount)
		transactions = append(transactions, Transaction(tr))
	}
	if !sum.Equal(ar.Balance) {
		return nil, fmt.Errorf("%w: account %d balance %s does not match transactions %s",
			ErrMalformedSnapshot, ar.ID, ar.Balance, sum)
	}

	return &Account{
		id:           ar.ID,
		kind:         ar.Type,
		balance:      ar.Balance,
		rate:         ar.Rate,
		transactions: transactions,
		hasWithdrawn: ar.HasWithdrawn,
		penaltyRate:  ar.PenaltyRate,
		creditLimit:  ar.CreditLimit,
		debtRate:     ar.DebtRate,
	}, nil
}
