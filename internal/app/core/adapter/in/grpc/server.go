package grpc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

type GrpcServer struct {
	core *usecase.CoreUseCase
}

func NewGrpcServer(core *usecase.CoreUseCase) *GrpcServer {
	return &GrpcServer{
		core: core,
	}
}

// toStatus 將錯誤分類轉成 gRPC 狀態碼
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var code codes.Code
	switch {
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		switch domain.KindOf(err) {
		case domain.KindNotFound:
			code = codes.NotFound
		case domain.KindDuplicateKey:
			code = codes.AlreadyExists
		case domain.KindInvalidAmount, domain.KindRefConflict:
			code = codes.InvalidArgument
		case domain.KindInsufficientFunds:
			code = codes.FailedPrecondition
		default:
			code = codes.Internal
		}
	}
	return status.Error(code, err.Error())
}

// withRef 解析選填的 RefID 並放入 context
func withRef(ctx context.Context, refID string) (context.Context, error) {
	if refID == "" {
		return ctx, nil
	}
	u, err := uuid.Parse(refID)
	if err != nil {
		return ctx, status.Error(codes.InvalidArgument, "invalid ref_id: "+err.Error())
	}
	return usecase.WithRef(ctx, u), nil
}

func (s *GrpcServer) CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*emptypb.Empty, error) {
	ctx, err := withRef(ctx, req.RefID)
	if err != nil {
		return nil, err
	}
	if err := s.core.CreateCustomer(ctx, req.Name, req.Surname, req.PersonalID); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GrpcServer) GetCustomer(ctx context.Context, req *CustomerRequest) (*CustomerResponse, error) {
	info, err := s.core.Customer(ctx, req.PersonalID)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := toCustomerResponse(info)
	return &resp, nil
}

func (s *GrpcServer) ListCustomers(ctx context.Context, _ *emptypb.Empty) (*ListCustomersResponse, error) {
	list, err := s.core.Customers(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &ListCustomersResponse{Customers: make([]CustomerSummary, 0, len(list))}
	for _, c := range list {
		resp.Customers = append(resp.Customers, CustomerSummary{
			PersonalID: c.PersonalID,
			Name:       c.Name,
			Surname:    c.Surname,
			Line:       c.String(),
		})
	}
	return resp, nil
}

func (s *GrpcServer) FindCustomerIndex(ctx context.Context, req *CustomerRequest) (*IndexResponse, error) {
	idx, err := s.core.CustomerIndex(ctx, req.PersonalID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &IndexResponse{Index: idx}, nil
}

func (s *GrpcServer) GetCustomerByIndex(ctx context.Context, req *IndexRequest) (*CustomerResponse, error) {
	info, err := s.core.CustomerByIndex(ctx, req.Index)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := toCustomerResponse(info)
	return &resp, nil
}

func (s *GrpcServer) RenameCustomer(ctx context.Context, req *RenameCustomerRequest) (*RenameCustomerResponse, error) {
	ctx, err := withRef(ctx, req.RefID)
	if err != nil {
		return nil, err
	}
	changed, err := s.core.RenameCustomer(ctx, req.Name, req.Surname, req.PersonalID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &RenameCustomerResponse{Changed: changed}, nil
}

func (s *GrpcServer) DeleteCustomer(ctx context.Context, req *CustomerRequest) (*DeleteCustomerResponse, error) {
	ctx, err := withRef(ctx, req.RefID)
	if err != nil {
		return nil, err
	}
	info, err := s.core.DeleteCustomer(ctx, req.PersonalID)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &DeleteCustomerResponse{
		Customer: info.Customer.String(),
		Closed:   make([]string, 0, len(info.Closed)),
	}
	for _, c := range info.Closed {
		resp.Closed = append(resp.Closed, c.String())
	}
	return resp, nil
}

func (s *GrpcServer) CreateSavingsAccount(ctx context.Context, req *OpenAccountRequest) (*AccountIDResponse, error) {
	ctx, err := withRef(ctx, req.RefID)
	if err != nil {
		return nil, err
	}
	id, err := s.core.CreateSavingsAccount(ctx, req.PersonalID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &AccountIDResponse{AccountID: id}, nil
}

func (s *GrpcServer) CreateCreditAccount(ctx context.Context, req *OpenAccountRequest) (*AccountIDResponse, error) {
	ctx, err := withRef(ctx, req.RefID)
	if err != nil {
		return nil, err
	}
	id, err := s.core.CreateCreditAccount(ctx, req.PersonalID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &AccountIDResponse{AccountID: id}, nil
}

// Deposit 存款，回傳的帳戶狀態與該筆存款同時產生
func (s *GrpcServer) Deposit(ctx context.Context, req *AmountRequest) (*AccountResponse, error) {
	ctx, err := withRef(ctx, req.RefID)
	if err != nil {
		return nil, err
	}
	info, err := s.core.Deposit(ctx, req.PersonalID, req.AccountID, req.Amount)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := toAccountResponse(info)
	return &resp, nil
}

// Withdraw 提款，回傳的帳戶狀態與該筆提款同時產生
func (s *GrpcServer) Withdraw(ctx context.Context, req *AmountRequest) (*AccountResponse, error) {
	ctx, err := withRef(ctx, req.RefID)
	if err != nil {
		return nil, err
	}
	info, err := s.core.Withdraw(ctx, req.PersonalID, req.AccountID, req.Amount)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := toAccountResponse(info)
	return &resp, nil
}

func (s *GrpcServer) CloseAccount(ctx context.Context, req *AccountRequest) (*ClosingResponse, error) {
	ctx, err := withRef(ctx, req.RefID)
	if err != nil {
		return nil, err
	}
	summary, err := s.core.CloseAccount(ctx, req.PersonalID, req.AccountID)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := toClosingResponse(summary)
	return &resp, nil
}

func (s *GrpcServer) GetAccount(ctx context.Context, req *AccountRequest) (*AccountResponse, error) {
	info, err := s.core.Account(ctx, req.PersonalID, req.AccountID)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := toAccountResponse(info)
	return &resp, nil
}

func (s *GrpcServer) GetTransactions(ctx context.Context, req *AccountRequest) (*TransactionsResponse, error) {
	trans, err := s.core.Transactions(ctx, req.PersonalID, req.AccountID)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &TransactionsResponse{Lines: make([]string, 0, len(trans))}
	for _, t := range trans {
		resp.Lines = append(resp.Lines, t.String())
	}
	return resp, nil
}

func (s *GrpcServer) GetAccountIDByIndex(ctx context.Context, req *AccountIndexRequest) (*AccountIDResponse, error) {
	id, err := s.core.AccountIDByIndex(ctx, req.PersonalID, req.Index)
	if err != nil {
		return nil, toStatus(err)
	}
	return &AccountIDResponse{AccountID: id}, nil
}

func (s *GrpcServer) Checkpoint(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.core.Checkpoint(ctx); err != nil {
		if errors.Is(err, usecase.ErrNoSnapshotStore) {
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		}
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

var _ BankServiceServer = (*GrpcServer)(nil)
