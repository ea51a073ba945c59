package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

// 快照只保留一份，meta 固定使用這個 id
const metaID = 1

const insertBatchSize = 500

// sqlMeta 對應資料庫的 bank_meta 表
type sqlMeta struct {
	ID            uint8 `gorm:"primaryKey;autoIncrement:false"`
	Version       int
	LastAccountID int64
	AppliedSeq    int64 // 快照涵蓋的最後一筆 WAL 序號
	UpdatedAt     int64 `gorm:"autoUpdateTime:milli"` // 自動更新時間
}

func (*sqlMeta) TableName() string {
	return "bank_meta"
}

// sqlCustomer 對應資料庫的 bank_customers 表
type sqlCustomer struct {
	PersonalID string `gorm:"primaryKey;size:64"`
	Position   int    `gorm:"index"` // 客戶的插入順序
	Name       string `gorm:"size:255"`
	Surname    string `gorm:"size:255"`
}

func (*sqlCustomer) TableName() string {
	return "bank_customers"
}

// sqlAccount 對應資料庫的 bank_accounts 表，金額與利率以字串保存避免精度損失
type sqlAccount struct {
	ID           int64  `gorm:"primaryKey;autoIncrement:false"`
	PersonalID   string `gorm:"size:64;index"`
	Position     int
	Type         string `gorm:"size:16"`
	Balance      string `gorm:"type:varchar(64)"`
	Rate         string `gorm:"type:varchar(64)"`
	HasWithdrawn bool
	PenaltyRate  string `gorm:"type:varchar(64)"`
	CreditLimit  string `gorm:"type:varchar(64)"`
	DebtRate     string `gorm:"type:varchar(64)"`
}

func (*sqlAccount) TableName() string {
	return "bank_accounts"
}

// sqlTransaction 對應資料庫的 bank_transactions 表
type sqlTransaction struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	RefID     []byte `gorm:"column:ref_id;type:binary(16);index"` // 對應 domain.Transaction.Ref
	AccountID int64  `gorm:"index"`
	Position  int
	At        int64  // UnixNano
	Amount    string `gorm:"type:varchar(64)"`
	Balance   string `gorm:"type:varchar(64)"`
}

func (*sqlTransaction) TableName() string {
	return "bank_transactions"
}

// SnapshotStore 以 GORM 將快照寫入 MySQL，每次 Save 在同一個 Transaction 內覆寫整份資料
type SnapshotStore struct {
	db *gorm.DB
}

func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Migrate 建立或更新資料表
func (s *SnapshotStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&sqlMeta{}, &sqlCustomer{}, &sqlAccount{}, &sqlTransaction{})
}

// Save 覆寫快照
//
// 參數:
//
//	ctx: 上下文
//	snap: 完整快照
//
// 回傳:
//
//	error: 任何一步失敗都會 Rollback，資料庫保留上一份快照
func (s *SnapshotStore) Save(ctx context.Context, snap domain.Snapshot) error {
	customers, accounts, transactions := toRows(snap)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先清空舊快照，子表先刪
		for _, model := range []any{&sqlTransaction{}, &sqlAccount{}, &sqlCustomer{}, &sqlMeta{}} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return fmt.Errorf("clear snapshot: %w", err)
			}
		}
		if err := tx.Create(&sqlMeta{
			ID:            metaID,
			Version:       snap.Version,
			LastAccountID: snap.LastAccountID,
			AppliedSeq:    snap.AppliedSeq,
		}).Error; err != nil {
			return fmt.Errorf("write meta: %w", err)
		}
		if len(customers) > 0 {
			if err := tx.CreateInBatches(customers, insertBatchSize).Error; err != nil {
				return fmt.Errorf("write customers: %w", err)
			}
		}
		if len(accounts) > 0 {
			if err := tx.CreateInBatches(accounts, insertBatchSize).Error; err != nil {
				return fmt.Errorf("write accounts: %w", err)
			}
		}
		if len(transactions) > 0 {
			if err := tx.CreateInBatches(transactions, insertBatchSize).Error; err != nil {
				return fmt.Errorf("write transactions: %w", err)
			}
		}
		return nil
	})
}

// Load 讀取最新快照
//
// 回傳:
//
//	domain.Snapshot: 快照，順序與寫入時相同
//	error: 尚未存檔時回傳 usecase.ErrSnapshotNotFound
func (s *SnapshotStore) Load(ctx context.Context) (domain.Snapshot, error) {
	db := s.db.WithContext(ctx)

	var meta sqlMeta
	err := db.Where("id = ?", metaID).Take(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Snapshot{}, usecase.ErrSnapshotNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read meta: %w", err)
	}

	var customers []sqlCustomer
	if err := db.Order("position").Find(&customers).Error; err != nil {
		return domain.Snapshot{}, fmt.Errorf("read customers: %w", err)
	}
	var accounts []sqlAccount
	if err := db.Order("personal_id").Order("position").Find(&accounts).Error; err != nil {
		return domain.Snapshot{}, fmt.Errorf("read accounts: %w", err)
	}
	var transactions []sqlTransaction
	if err := db.Order("account_id").Order("position").Find(&transactions).Error; err != nil {
		return domain.Snapshot{}, fmt.Errorf("read transactions: %w", err)
	}
	return fromRows(meta, customers, accounts, transactions)
}

func toRows(snap domain.Snapshot) ([]sqlCustomer, []sqlAccount, []sqlTransaction) {
	var (
		customers    = make([]sqlCustomer, 0, len(snap.Customers))
		accounts     []sqlAccount
		transactions []sqlTransaction
	)
	for ci, c := range snap.Customers {
		customers = append(customers, sqlCustomer{
			PersonalID: c.PersonalID,
			Position:   ci,
			Name:       c.Name,
			Surname:    c.Surname,
		})
		for ai, a := range c.Accounts {
			accounts = append(accounts, sqlAccount{
				ID:           a.ID,
				PersonalID:   c.PersonalID,
				Position:     ai,
				Type:         string(a.Type),
				Balance:      a.Balance.String(),
				Rate:         a.Rate.String(),
				HasWithdrawn: a.HasWithdrawn,
				PenaltyRate:  a.PenaltyRate.String(),
				CreditLimit:  a.CreditLimit.String(),
				DebtRate:     a.DebtRate.String(),
			})
			for ti, t := range a.Transactions {
				ref := t.Ref
				transactions = append(transactions, sqlTransaction{
					RefID:     ref[:],
					AccountID: a.ID,
					Position:  ti,
					At:        t.At.UnixNano(),
					Amount:    t.Amount.String(),
					Balance:   t.Balance.String(),
				})
			}
		}
	}
	return customers, accounts, transactions
}

func fromRows(meta sqlMeta, customers []sqlCustomer, accounts []sqlAccount, transactions []sqlTransaction) (domain.Snapshot, error) {
	transByAccount := make(map[int64][]domain.TransactionRecord)
	for _, row := range transactions {
		ref, err := uuid.FromBytes(row.RefID)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("%w: transaction ref of account %d: %w", domain.ErrMalformedSnapshot, row.AccountID, err)
		}
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("%w: transaction amount of account %d: %w", domain.ErrMalformedSnapshot, row.AccountID, err)
		}
		balance, err := decimal.NewFromString(row.Balance)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("%w: transaction balance of account %d: %w", domain.ErrMalformedSnapshot, row.AccountID, err)
		}
		transByAccount[row.AccountID] = append(transByAccount[row.AccountID], domain.TransactionRecord{
			Ref:     ref,
			At:      time.Unix(0, row.At),
			Amount:  amount,
			Balance: balance,
		})
	}

	accountsByCustomer := make(map[string][]domain.AccountRecord)
	for _, row := range accounts {
		rec, err := accountRecord(row)
		if err != nil {
			return domain.Snapshot{}, err
		}
		rec.Transactions = transByAccount[row.ID]
		if rec.Transactions == nil {
			rec.Transactions = []domain.TransactionRecord{}
		}
		accountsByCustomer[row.PersonalID] = append(accountsByCustomer[row.PersonalID], rec)
	}

	snap := domain.Snapshot{
		Version:       meta.Version,
		LastAccountID: meta.LastAccountID,
		AppliedSeq:    meta.AppliedSeq,
		Customers:     make([]domain.CustomerRecord, 0, len(customers)),
	}
	for _, row := range customers {
		accs := accountsByCustomer[row.PersonalID]
		if accs == nil {
			accs = []domain.AccountRecord{}
		}
		snap.Customers = append(snap.Customers, domain.CustomerRecord{
			PersonalID: row.PersonalID,
			Name:       row.Name,
			Surname:    row.Surname,
			Accounts:   accs,
		})
	}
	return snap, nil
}

func accountRecord(row sqlAccount) (domain.AccountRecord, error) {
	rec := domain.AccountRecord{
		ID:           row.ID,
		Type:         domain.AccountType(row.Type),
		HasWithdrawn: row.HasWithdrawn,
	}
	fields := []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"balance", row.Balance, &rec.Balance},
		{"rate", row.Rate, &rec.Rate},
		{"penalty_rate", row.PenaltyRate, &rec.PenaltyRate},
		{"credit_limit", row.CreditLimit, &rec.CreditLimit},
		{"debt_rate", row.DebtRate, &rec.DebtRate},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.value)
		if err != nil {
			return domain.AccountRecord{}, fmt.Errorf("%w: %s of account %d: %w", domain.ErrMalformedSnapshot, f.name, row.ID, err)
		}
		*f.dst = d
	}
	return rec, nil
}

var _ usecase.SnapshotStore = (*SnapshotStore)(nil)
