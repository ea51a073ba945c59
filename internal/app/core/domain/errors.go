package domain

import "errors"

var (
	// ErrAmountMustBePositive 金額必須為正數
	ErrAmountMustBePositive = errors.New("amount must be positive")

	// ErrInsufficientFunds 餘額或信用額度不足
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrCustomerNotFound 找不到客戶
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrAccountNotFound 找不到帳戶
	ErrAccountNotFound = errors.New("account not found")

	// ErrCustomerIndexOutOfRange 客戶索引超出範圍
	ErrCustomerIndexOutOfRange = errors.New("customer index out of range")

	// ErrAccountIndexOutOfRange 帳戶索引超出範圍
	ErrAccountIndexOutOfRange = errors.New("account index out of range")

	// ErrCustomerAlreadyExists 身分證號已被使用
	ErrCustomerAlreadyExists = errors.New("customer already exists")

	// ErrRefConflict 同一個 Ref 被用在內容不同的指令
	ErrRefConflict = errors.New("ref already used by a different command")

	// ErrUnknownCommand 無法識別的指令類型
	ErrUnknownCommand = errors.New("unknown command")

	// ErrMalformedSnapshot 快照內容不合法
	ErrMalformedSnapshot = errors.New("malformed snapshot")

	// ErrWALWriteFailed 寫入 WAL 失敗
	ErrWALWriteFailed = errors.New("wal write failed")

	// ErrSnapshotStoreFailed 快照儲存或讀取失敗
	ErrSnapshotStoreFailed = errors.New("snapshot store failed")
)

// Kind 錯誤分類，讓邊界層 (gRPC / CLI) 決定如何呈現
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNotFound
	KindDuplicateKey
	KindInvalidAmount
	KindInsufficientFunds
	KindPersistence
	KindRefConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindDuplicateKey:
		return "duplicate_key"
	case KindInvalidAmount:
		return "invalid_amount"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindPersistence:
		return "persistence"
	case KindRefConflict:
		return "ref_conflict"
	default:
		return "unknown"
	}
}

// KindOf 回傳 err 所屬的錯誤分類，nil 回傳 KindUnknown
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrCustomerNotFound),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrCustomerIndexOutOfRange),
		errors.Is(err, ErrAccountIndexOutOfRange):
		return KindNotFound
	case errors.Is(err, ErrCustomerAlreadyExists):
		return KindDuplicateKey
	case errors.Is(err, ErrAmountMustBePositive):
		return KindInvalidAmount
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrRefConflict):
		return KindRefConflict
	case errors.Is(err, ErrMalformedSnapshot),
		errors.Is(err, ErrWALWriteFailed),
		errors.Is(err, ErrSnapshotStoreFailed):
		return KindPersistence
	default:
		return KindUnknown
	}
}
