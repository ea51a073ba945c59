package grpc

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"

	grpcpkg "github.com/JoeShih716/go-bank-ledger/pkg/grpc"
)

// Client bank.v1.BankService 的型別化客戶端
// 寫入類方法會自動帶入新的 RefID，重試時請改用 *WithRef 系列方法沿用同一個 RefID
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(grpcpkg.JSONCodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}

func newRef() string {
	return uuid.NewString()
}

func (c *Client) CreateCustomer(ctx context.Context, name, surname, personalID string) error {
	return c.invoke(ctx, "CreateCustomer", &CreateCustomerRequest{
		RefID: newRef(), PersonalID: personalID, Name: name, Surname: surname,
	}, &emptypb.Empty{})
}

func (c *Client) GetCustomer(ctx context.Context, personalID string) (*CustomerResponse, error) {
	out := new(CustomerResponse)
	return out, c.invoke(ctx, "GetCustomer", &CustomerRequest{PersonalID: personalID}, out)
}

func (c *Client) ListCustomers(ctx context.Context) (*ListCustomersResponse, error) {
	out := new(ListCustomersResponse)
	return out, c.invoke(ctx, "ListCustomers", &emptypb.Empty{}, out)
}

func (c *Client) FindCustomerIndex(ctx context.Context, personalID string) (int, error) {
	out := new(IndexResponse)
	err := c.invoke(ctx, "FindCustomerIndex", &CustomerRequest{PersonalID: personalID}, out)
	return out.Index, err
}

func (c *Client) GetCustomerByIndex(ctx context.Context, index int) (*CustomerResponse, error) {
	out := new(CustomerResponse)
	return out, c.invoke(ctx, "GetCustomerByIndex", &IndexRequest{Index: index}, out)
}

func (c *Client) RenameCustomer(ctx context.Context, name, surname, personalID string) (bool, error) {
	out := new(RenameCustomerResponse)
	err := c.invoke(ctx, "RenameCustomer", &RenameCustomerRequest{
		RefID: newRef(), PersonalID: personalID, Name: name, Surname: surname,
	}, out)
	return out.Changed, err
}

func (c *Client) DeleteCustomer(ctx context.Context, personalID string) (*DeleteCustomerResponse, error) {
	out := new(DeleteCustomerResponse)
	return out, c.invoke(ctx, "DeleteCustomer", &CustomerRequest{RefID: newRef(), PersonalID: personalID}, out)
}

func (c *Client) CreateSavingsAccount(ctx context.Context, personalID string) (int64, error) {
	out := new(AccountIDResponse)
	err := c.invoke(ctx, "CreateSavingsAccount", &OpenAccountRequest{RefID: newRef(), PersonalID: personalID}, out)
	return out.AccountID, err
}

func (c *Client) CreateCreditAccount(ctx context.Context, personalID string) (int64, error) {
	out := new(AccountIDResponse)
	err := c.invoke(ctx, "CreateCreditAccount", &OpenAccountRequest{RefID: newRef(), PersonalID: personalID}, out)
	return out.AccountID, err
}

func (c *Client) Deposit(ctx context.Context, personalID string, accountID, amount int64) (*AccountResponse, error) {
	return c.DepositWithRef(ctx, newRef(), personalID, accountID, amount)
}

// DepositWithRef 以指定的 RefID 存款，同一個 RefID 只會入帳一次
func (c *Client) DepositWithRef(ctx context.Context, refID, personalID string, accountID, amount int64) (*AccountResponse, error) {
	out := new(AccountResponse)
	return out, c.invoke(ctx, "Deposit", &AmountRequest{
		RefID: refID, PersonalID: personalID, AccountID: accountID, Amount: amount,
	}, out)
}

func (c *Client) Withdraw(ctx context.Context, personalID string, accountID, amount int64) (*AccountResponse, error) {
	return c.WithdrawWithRef(ctx, newRef(), personalID, accountID, amount)
}

// WithdrawWithRef 以指定的 RefID 提款
func (c *Client) WithdrawWithRef(ctx context.Context, refID, personalID string, accountID, amount int64) (*AccountResponse, error) {
	out := new(AccountResponse)
	return out, c.invoke(ctx, "Withdraw", &AmountRequest{
		RefID: refID, PersonalID: personalID, AccountID: accountID, Amount: amount,
	}, out)
}

func (c *Client) CloseAccount(ctx context.Context, personalID string, accountID int64) (*ClosingResponse, error) {
	out := new(ClosingResponse)
	return out, c.invoke(ctx, "CloseAccount", &AccountRequest{
		RefID: newRef(), PersonalID: personalID, AccountID: accountID,
	}, out)
}

func (c *Client) GetAccount(ctx context.Context, personalID string, accountID int64) (*AccountResponse, error) {
	out := new(AccountResponse)
	return out, c.invoke(ctx, "GetAccount", &AccountRequest{PersonalID: personalID, AccountID: accountID}, out)
}

func (c *Client) GetTransactions(ctx context.Context, personalID string, accountID int64) ([]string, error) {
	out := new(TransactionsResponse)
	err := c.invoke(ctx, "GetTransactions", &AccountRequest{PersonalID: personalID, AccountID: accountID}, out)
	return out.Lines, err
}

func (c *Client) GetAccountIDByIndex(ctx context.Context, personalID string, index int) (int64, error) {
	out := new(AccountIDResponse)
	err := c.invoke(ctx, "GetAccountIDByIndex", &AccountIndexRequest{PersonalID: personalID, Index: index}, out)
	return out.AccountID, err
}

func (c *Client) Checkpoint(ctx context.Context) error {
	return c.invoke(ctx, "Checkpoint", &emptypb.Empty{}, &emptypb.Empty{})
}
