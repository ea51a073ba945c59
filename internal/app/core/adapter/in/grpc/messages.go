package grpc

import (
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// 以下為 bank.v1.BankService 的請求/回應，透過 JSON codec 傳輸
// RefID 為選填的外部追蹤號 (UUID)，相同 RefID 的寫入只會執行一次

type CreateCustomerRequest struct {
	RefID      string `json:"ref_id,omitempty"`
	PersonalID string `json:"personal_id"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
}

type RenameCustomerRequest struct {
	RefID      string `json:"ref_id,omitempty"`
	PersonalID string `json:"personal_id"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
}

type RenameCustomerResponse struct {
	Changed bool `json:"changed"`
}

type CustomerRequest struct {
	RefID      string `json:"ref_id,omitempty"`
	PersonalID string `json:"personal_id"`
}

type IndexRequest struct {
	Index int `json:"index"`
}

type IndexResponse struct {
	Index int `json:"index"`
}

type CustomerResponse struct {
	PersonalID string            `json:"personal_id"`
	Name       string            `json:"name"`
	Surname    string            `json:"surname"`
	Accounts   []AccountResponse `json:"accounts"`
	// Lines 顯示用: 第一行為客戶，其後每個帳戶一行
	Lines []string `json:"lines"`
}

type CustomerSummary struct {
	PersonalID string `json:"personal_id"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Line       string `json:"line"`
}

type ListCustomersResponse struct {
	Customers []CustomerSummary `json:"customers"`
}

type DeleteCustomerResponse struct {
	Customer string   `json:"customer"`
	Closed   []string `json:"closed"`
}

type OpenAccountRequest struct {
	RefID      string `json:"ref_id,omitempty"`
	PersonalID string `json:"personal_id"`
}

type AccountIDResponse struct {
	AccountID int64 `json:"account_id"`
}

type AccountRequest struct {
	RefID      string `json:"ref_id,omitempty"`
	PersonalID string `json:"personal_id"`
	AccountID  int64  `json:"account_id"`
}

type AmountRequest struct {
	RefID      string `json:"ref_id,omitempty"`
	PersonalID string `json:"personal_id"`
	AccountID  int64  `json:"account_id"`
	Amount     int64  `json:"amount"`
}

type AccountIndexRequest struct {
	PersonalID string `json:"personal_id"`
	Index      int    `json:"index"`
}

// AccountResponse 金額以十進位字串傳遞，Line 為顯示格式
type AccountResponse struct {
	AccountID int64  `json:"account_id"`
	Type      string `json:"type"`
	Balance   string `json:"balance"`
	Rate      string `json:"rate"`
	Interest  string `json:"interest"`
	Line      string `json:"line"`
}

type ClosingResponse struct {
	AccountID int64  `json:"account_id"`
	Type      string `json:"type"`
	Balance   string `json:"balance"`
	Interest  string `json:"interest"`
	Line      string `json:"line"`
}

type TransactionsResponse struct {
	Lines []string `json:"lines"`
}

func toAccountResponse(info domain.AccountInfo) AccountResponse {
	return AccountResponse{
		AccountID: info.ID,
		Type:      string(info.Type),
		Balance:   info.Balance.String(),
		Rate:      info.Rate.String(),
		Interest:  info.Interest.String(),
		Line:      info.String(),
	}
}

func toCustomerResponse(info domain.CustomerInfo) CustomerResponse {
	resp := CustomerResponse{
		PersonalID: info.PersonalID,
		Name:       info.Name,
		Surname:    info.Surname,
		Accounts:   make([]AccountResponse, 0, len(info.Accounts)),
		Lines:      info.Lines(),
	}
	for _, acc := range info.Accounts {
		resp.Accounts = append(resp.Accounts, toAccountResponse(acc))
	}
	return resp
}

func toClosingResponse(s domain.ClosingSummary) ClosingResponse {
	return ClosingResponse{
		AccountID: s.ID,
		Type:      string(s.Type),
		Balance:   s.Balance.String(),
		Interest:  s.Interest.String(),
		Line:      s.String(),
	}
}
